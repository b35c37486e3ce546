package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"course_catalog_bot/internal/domain"
)

type userReadCollection interface {
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) *mongo.SingleResult
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) (*mongo.Cursor, error)
	CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error)
}

// UserRepository reads user records. Writes go through the user registrar so
// the total_users counter is recomputed alongside every insert.
type UserRepository struct {
	collection userReadCollection
}

// NewUserRepository constructs a UserRepository.
func NewUserRepository(collection userReadCollection) *UserRepository {
	return &UserRepository{collection: collection}
}

// GetByID fetches a user by Telegram user_id.
func (r *UserRepository) GetByID(ctx context.Context, userID int64) (domain.User, error) {
	if r == nil || r.collection == nil {
		return domain.User{}, errors.New("user repository is not initialized")
	}
	if ctx == nil {
		return domain.User{}, errors.New("context is required")
	}
	if userID == 0 {
		return domain.User{}, errors.New("user_id is required")
	}

	result := r.collection.FindOne(ctx, bson.M{"user_id": userID})
	if result == nil {
		return domain.User{}, errors.New("find user returned no result")
	}
	if err := result.Err(); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.User{}, domain.ErrNotFound
		}
		return domain.User{}, fmt.Errorf("find user: %w", err)
	}

	var user domain.User
	if err := result.Decode(&user); err != nil {
		return domain.User{}, fmt.Errorf("decode user: %w", err)
	}

	return user, nil
}

// IsBanned reports whether the user is banned. Unknown users are not banned.
func (r *UserRepository) IsBanned(ctx context.Context, userID int64) (bool, error) {
	user, err := r.GetByID(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return user.IsBanned, nil
}

// ListRecent returns up to limit users, most recently seen first.
func (r *UserRepository) ListRecent(ctx context.Context, limit int64) ([]domain.User, error) {
	if r == nil || r.collection == nil {
		return nil, errors.New("user repository is not initialized")
	}
	if ctx == nil {
		return nil, errors.New("context is required")
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "last_seen_at", Value: -1}, {Key: "user_id", Value: 1}}).
		SetLimit(limit)

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	users := make([]domain.User, 0)
	if err := cursor.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	return users, nil
}

// Count returns the number of stored users.
func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	if r == nil || r.collection == nil {
		return 0, errors.New("user repository is not initialized")
	}

	count, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return count, nil
}

// CountBanned returns the number of banned users.
func (r *UserRepository) CountBanned(ctx context.Context) (int64, error) {
	if r == nil || r.collection == nil {
		return 0, errors.New("user repository is not initialized")
	}

	count, err := r.collection.CountDocuments(ctx, bson.M{"is_banned": true})
	if err != nil {
		return 0, fmt.Errorf("count banned users: %w", err)
	}
	return count, nil
}
