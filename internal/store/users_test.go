package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"course_catalog_bot/internal/domain"
	"course_catalog_bot/internal/testkit"
)

func seedUsers(t *testing.T, coll *testkit.Collection, users ...domain.User) {
	t.Helper()
	for _, user := range users {
		if _, err := coll.InsertOne(context.Background(), user); err != nil {
			t.Fatalf("seed user %d: %v", user.UserID, err)
		}
	}
}

func TestUserRepositoryGetByID(t *testing.T) {
	coll := testkit.NewCollection([]string{"user_id"})
	seen := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	seedUsers(t, coll, domain.User{UserID: 42, Username: "ada", LastSeenAt: seen, JoinedAt: seen})
	repo := NewUserRepository(coll)

	user, err := repo.GetByID(context.Background(), 42)
	if err != nil {
		t.Fatalf("expected user, got %v", err)
	}
	if user.Username != "ada" || !user.LastSeenAt.Equal(seen) {
		t.Fatalf("unexpected user: %+v", user)
	}

	if _, err := repo.GetByID(context.Background(), 7); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := repo.GetByID(context.Background(), 0); err == nil {
		t.Fatalf("expected error for zero id")
	}
	if _, err := repo.GetByID(nil, 42); err == nil {
		t.Fatalf("expected error for nil context")
	}
}

func TestUserRepositoryIsBanned(t *testing.T) {
	coll := testkit.NewCollection([]string{"user_id"})
	seedUsers(t, coll,
		domain.User{UserID: 1, IsBanned: true},
		domain.User{UserID: 2},
	)
	repo := NewUserRepository(coll)
	ctx := context.Background()

	tests := []struct {
		id   int64
		want bool
	}{
		{1, true},
		{2, false},
		{3, false},
	}
	for _, tt := range tests {
		got, err := repo.IsBanned(ctx, tt.id)
		if err != nil {
			t.Fatalf("IsBanned(%d) failed: %v", tt.id, err)
		}
		if got != tt.want {
			t.Fatalf("IsBanned(%d) = %v, want %v", tt.id, got, tt.want)
		}
	}

	banned, err := repo.CountBanned(ctx)
	if err != nil || banned != 1 {
		t.Fatalf("expected one banned user, got %d, %v", banned, err)
	}
	total, err := repo.Count(ctx)
	if err != nil || total != 2 {
		t.Fatalf("expected two users, got %d, %v", total, err)
	}
}

func TestUserRepositoryListRecentOrdersByLastSeen(t *testing.T) {
	coll := testkit.NewCollection([]string{"user_id"})
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	seedUsers(t, coll,
		domain.User{UserID: 1, LastSeenAt: base},
		domain.User{UserID: 2, LastSeenAt: base.Add(2 * time.Hour)},
		domain.User{UserID: 3, LastSeenAt: base.Add(time.Hour)},
	)
	repo := NewUserRepository(coll)

	users, err := repo.ListRecent(context.Background(), 2)
	if err != nil {
		t.Fatalf("expected list to succeed, got %v", err)
	}
	if len(users) != 2 || users[0].UserID != 2 || users[1].UserID != 3 {
		t.Fatalf("unexpected order: %+v", users)
	}
}

func TestUserRepositoryRequiresInitialization(t *testing.T) {
	var repo *UserRepository
	if _, err := repo.GetByID(context.Background(), 1); err == nil {
		t.Fatalf("expected error for nil repository")
	}
	if _, err := repo.ListRecent(context.Background(), 1); err == nil {
		t.Fatalf("expected error for nil repository")
	}
}
