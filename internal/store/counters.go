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

type counterCollection interface {
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) *mongo.SingleResult
	FindOneAndUpdate(ctx context.Context, filter interface{}, update interface{}, opts ...*options.FindOneAndUpdateOptions) *mongo.SingleResult
}

type counterDoc struct {
	Name  string `bson:"stat_name"`
	Value int64  `bson:"value"`
}

// Counters reads and writes the named process-wide counters in the stats
// collection.
type Counters struct {
	stats counterCollection
}

// NewCounters constructs Counters over the stats collection.
func NewCounters(stats counterCollection) *Counters {
	return &Counters{stats: stats}
}

// EnsureDefaults seeds total_users=0 and bot_enabled=1 without touching
// existing values.
func (c *Counters) EnsureDefaults(ctx context.Context) error {
	if c == nil || c.stats == nil {
		return errors.New("counters are not initialized")
	}

	defaults := []counterDoc{
		{Name: domain.StatTotalUsers, Value: 0},
		{Name: domain.StatBotEnabled, Value: 1},
	}
	for _, def := range defaults {
		_, err := c.stats.UpdateOne(ctx,
			bson.M{"stat_name": def.Name},
			bson.M{"$setOnInsert": bson.M{"stat_name": def.Name, "value": def.Value}},
			options.Update().SetUpsert(true),
		)
		if err != nil {
			return fmt.Errorf("seed %s: %w", def.Name, err)
		}
	}
	return nil
}

// Value returns a counter, or domain.ErrNotFound when it was never written.
func (c *Counters) Value(ctx context.Context, name string) (int64, error) {
	if c == nil || c.stats == nil {
		return 0, errors.New("counters are not initialized")
	}

	result := c.stats.FindOne(ctx, bson.M{"stat_name": name})
	if result == nil {
		return 0, errors.New("find counter returned no result")
	}
	if err := result.Err(); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, domain.ErrNotFound
		}
		return 0, fmt.Errorf("find %s: %w", name, err)
	}

	var doc counterDoc
	if err := result.Decode(&doc); err != nil {
		return 0, fmt.Errorf("decode %s: %w", name, err)
	}
	return doc.Value, nil
}

// SetTotalUsers overwrites total_users.
func (c *Counters) SetTotalUsers(ctx context.Context, total int64) error {
	if c == nil || c.stats == nil {
		return errors.New("counters are not initialized")
	}

	_, err := c.stats.UpdateOne(ctx,
		bson.M{"stat_name": domain.StatTotalUsers},
		bson.M{"$set": bson.M{"value": total}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("set %s: %w", domain.StatTotalUsers, err)
	}
	return nil
}

// TotalUsers returns total_users, zero when unset.
func (c *Counters) TotalUsers(ctx context.Context) (int64, error) {
	total, err := c.Value(ctx, domain.StatTotalUsers)
	if errors.Is(err, domain.ErrNotFound) {
		return 0, nil
	}
	return total, err
}

// BotEnabled reports the bot_enabled switch. A missing counter means enabled.
func (c *Counters) BotEnabled(ctx context.Context) (bool, error) {
	value, err := c.Value(ctx, domain.StatBotEnabled)
	if errors.Is(err, domain.ErrNotFound) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return value != 0, nil
}

// ToggleBotEnabled flips bot_enabled in a single document update and returns
// the new state. A missing counter is treated as enabled and becomes disabled.
func (c *Counters) ToggleBotEnabled(ctx context.Context) (bool, error) {
	if c == nil || c.stats == nil {
		return false, errors.New("counters are not initialized")
	}

	flip := mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "stat_name", Value: domain.StatBotEnabled},
			{Key: "value", Value: bson.D{{Key: "$cond", Value: bson.A{
				bson.D{{Key: "$eq", Value: bson.A{"$value", int64(0)}}},
				int64(1),
				int64(0),
			}}}},
		}}},
	}

	result := c.stats.FindOneAndUpdate(ctx,
		bson.M{"stat_name": domain.StatBotEnabled},
		flip,
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	)
	if result == nil {
		return false, errors.New("toggle returned no result")
	}

	var doc counterDoc
	if err := result.Decode(&doc); err != nil {
		return false, fmt.Errorf("toggle %s: %w", domain.StatBotEnabled, err)
	}
	return doc.Value != 0, nil
}
