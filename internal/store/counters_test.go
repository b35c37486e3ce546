package store

import (
	"context"
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/bson"

	"course_catalog_bot/internal/domain"
	"course_catalog_bot/internal/testkit"
)

func TestCountersEnsureDefaultsIsIdempotent(t *testing.T) {
	stats := testkit.NewCollection([]string{"stat_name"})
	counters := NewCounters(stats)
	ctx := context.Background()

	if err := counters.EnsureDefaults(ctx); err != nil {
		t.Fatalf("expected defaults to be seeded, got %v", err)
	}
	if err := counters.SetTotalUsers(ctx, 7); err != nil {
		t.Fatalf("expected total to be written, got %v", err)
	}
	if _, err := counters.ToggleBotEnabled(ctx); err != nil {
		t.Fatalf("expected toggle to succeed, got %v", err)
	}

	if err := counters.EnsureDefaults(ctx); err != nil {
		t.Fatalf("expected second seed to succeed, got %v", err)
	}

	total, err := counters.TotalUsers(ctx)
	if err != nil || total != 7 {
		t.Fatalf("expected seeding to keep total 7, got %d, %v", total, err)
	}
	enabled, err := counters.BotEnabled(ctx)
	if err != nil || enabled {
		t.Fatalf("expected seeding to keep bot disabled, got %v, %v", enabled, err)
	}
	if stats.Len() != 2 {
		t.Fatalf("expected two counter documents, got %d", stats.Len())
	}
}

func TestCountersMissingValues(t *testing.T) {
	counters := NewCounters(testkit.NewCollection([]string{"stat_name"}))
	ctx := context.Background()

	if _, err := counters.Value(ctx, domain.StatTotalUsers); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	total, err := counters.TotalUsers(ctx)
	if err != nil || total != 0 {
		t.Fatalf("expected missing total to read as 0, got %d, %v", total, err)
	}
	enabled, err := counters.BotEnabled(ctx)
	if err != nil || !enabled {
		t.Fatalf("expected missing switch to read as enabled, got %v, %v", enabled, err)
	}
}

func TestCountersToggleFlipsState(t *testing.T) {
	counters := NewCounters(testkit.NewCollection([]string{"stat_name"}))
	ctx := context.Background()

	if err := counters.EnsureDefaults(ctx); err != nil {
		t.Fatalf("expected defaults to be seeded, got %v", err)
	}

	want := []bool{false, true, false}
	for i, expected := range want {
		got, err := counters.ToggleBotEnabled(ctx)
		if err != nil {
			t.Fatalf("toggle %d failed: %v", i, err)
		}
		if got != expected {
			t.Fatalf("toggle %d: expected enabled=%v, got %v", i, expected, got)
		}
		stored, _ := counters.BotEnabled(ctx)
		if stored != got {
			t.Fatalf("toggle %d: stored state %v disagrees with returned %v", i, stored, got)
		}
	}
}

func TestCountersToggleFromMissingDisables(t *testing.T) {
	stats := testkit.NewCollection([]string{"stat_name"})
	counters := NewCounters(stats)

	enabled, err := counters.ToggleBotEnabled(context.Background())
	if err != nil {
		t.Fatalf("expected toggle to succeed, got %v", err)
	}
	if enabled {
		t.Fatalf("expected missing switch to toggle to disabled")
	}

	doc := stats.Docs(bson.M{"stat_name": domain.StatBotEnabled})
	if len(doc) != 1 {
		t.Fatalf("expected toggle to upsert the switch, got %d docs", stats.Len())
	}
}

func TestCountersPropagateErrors(t *testing.T) {
	stats := testkit.NewCollection()
	errDown := errors.New("connection reset")
	stats.FailOn("UpdateOne", errDown)
	stats.FailOn("FindOne", errDown)
	counters := NewCounters(stats)
	ctx := context.Background()

	if err := counters.EnsureDefaults(ctx); !errors.Is(err, errDown) {
		t.Fatalf("expected seed error, got %v", err)
	}
	if err := counters.SetTotalUsers(ctx, 1); !errors.Is(err, errDown) {
		t.Fatalf("expected set error, got %v", err)
	}
	if _, err := counters.BotEnabled(ctx); !errors.Is(err, errDown) {
		t.Fatalf("expected read error, got %v", err)
	}

	var nilCounters *Counters
	if err := nilCounters.EnsureDefaults(ctx); err == nil {
		t.Fatalf("expected error for nil counters")
	}
}
