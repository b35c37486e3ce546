// Package user provides helpers for user registration and lifecycle updates.
package user

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"course_catalog_bot/internal/logging"
)

type userCollection interface {
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
	CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error)
}

type totalsWriter interface {
	SetTotalUsers(ctx context.Context, total int64) error
}

// now is overridable for tests.
var now = func() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

// Registrar ensures users are present in the database, keeps their
// last-seen timestamp updated on every interaction and keeps total_users equal
// to the number of stored users.
type Registrar struct {
	users  userCollection
	totals totalsWriter
	logger *logrus.Entry
}

// NewRegistrar constructs a Registrar for the provided users collection.
func NewRegistrar(users userCollection, totals totalsWriter, logger *logrus.Entry) *Registrar {
	if logger == nil {
		logger = logging.Logger()
	}

	return &Registrar{
		users:  users,
		totals: totals,
		logger: logger,
	}
}

// EnsureUser upserts the user record with defaults if missing, refreshes
// username and last_seen_at, and recomputes total_users. It reports whether
// the user was created.
func (r *Registrar) EnsureUser(ctx context.Context, userID int64, username string) (bool, error) {
	if err := r.validate(ctx, userID); err != nil {
		return false, err
	}

	ts := now()
	set := bson.M{"last_seen_at": ts}
	if username != "" {
		set["username"] = username
	}
	update := bson.M{
		"$set": set,
		"$setOnInsert": bson.M{
			"user_id":       userID,
			"is_banned":     false,
			"membership_ok": false,
			"joined_at":     ts,
		},
	}

	result, err := r.users.UpdateOne(ctx,
		bson.M{"user_id": userID},
		update,
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return false, fmt.Errorf("ensure user: %w", err)
	}

	if err := r.recomputeTotal(ctx); err != nil {
		return false, err
	}

	created := result != nil && result.UpsertedCount > 0
	if created {
		r.logger.WithFields(logging.Fields{
			"event":   "user_registered",
			"user_id": userID,
		}).Info("registered new user")
		return true, nil
	}

	r.logger.WithFields(logging.Fields{
		"event":   "user_seen",
		"user_id": userID,
	}).Debug("updated user last seen")

	return false, nil
}

// SetBanned sets the banned flag. Unknown ids are created so a ban can precede
// the user's first message.
func (r *Registrar) SetBanned(ctx context.Context, userID int64, banned bool) error {
	if err := r.validate(ctx, userID); err != nil {
		return err
	}

	ts := now()
	result, err := r.users.UpdateOne(ctx,
		bson.M{"user_id": userID},
		bson.M{
			"$set": bson.M{"is_banned": banned},
			"$setOnInsert": bson.M{
				"user_id":       userID,
				"membership_ok": false,
				"joined_at":     ts,
				"last_seen_at":  ts,
			},
		},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("set banned: %w", err)
	}

	if result != nil && result.UpsertedCount > 0 {
		if err := r.recomputeTotal(ctx); err != nil {
			return err
		}
	}

	event := "user_unbanned"
	if banned {
		event = "user_banned"
	}
	r.logger.WithFields(logging.Fields{
		"event":   event,
		"user_id": userID,
	}).Info("updated ban flag")

	return nil
}

// SetMembership caches the last membership check result on the user record.
func (r *Registrar) SetMembership(ctx context.Context, userID int64, satisfied bool) error {
	if err := r.validate(ctx, userID); err != nil {
		return err
	}

	if _, err := r.users.UpdateOne(ctx,
		bson.M{"user_id": userID},
		bson.M{"$set": bson.M{"membership_ok": satisfied}},
	); err != nil {
		return fmt.Errorf("set membership: %w", err)
	}
	return nil
}

func (r *Registrar) recomputeTotal(ctx context.Context) error {
	if r.totals == nil {
		return nil
	}

	total, err := r.users.CountDocuments(ctx, bson.M{})
	if err != nil {
		return fmt.Errorf("count users: %w", err)
	}
	if err := r.totals.SetTotalUsers(ctx, total); err != nil {
		return fmt.Errorf("update total users: %w", err)
	}
	return nil
}

func (r *Registrar) validate(ctx context.Context, userID int64) error {
	if r == nil || r.users == nil {
		return errors.New("user registrar is not initialized")
	}
	if ctx == nil {
		return errors.New("context is required")
	}
	if userID == 0 {
		return errors.New("user id is required")
	}
	return nil
}
