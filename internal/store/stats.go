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

type aggregateCollection interface {
	Aggregate(ctx context.Context, pipeline interface{}, opts ...*options.AggregateOptions) (*mongo.Cursor, error)
}

type totalsReader interface {
	TotalUsers(ctx context.Context) (int64, error)
}

// StatsProvider answers the aggregate queries behind the stats view without
// leaking MongoDB internals to callers.
type StatsProvider struct {
	totals totalsReader
	files  aggregateCollection
}

// NewStatsProvider constructs a StatsProvider backed by the counters and the
// files collection.
func NewStatsProvider(totals totalsReader, files aggregateCollection) *StatsProvider {
	return &StatsProvider{
		totals: totals,
		files:  files,
	}
}

// TotalUsers returns the total_users counter.
func (p *StatsProvider) TotalUsers(ctx context.Context) (int64, error) {
	if ctx == nil {
		return 0, errors.New("context is required")
	}
	if p == nil || p.totals == nil {
		return 0, errors.New("stats provider is not initialized")
	}

	total, err := p.totals.TotalUsers(ctx)
	if err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return total, nil
}

// TopCourses returns up to limit courses ordered by attached file count,
// descending, with ties broken by course id.
func (p *StatsProvider) TopCourses(ctx context.Context, limit int) ([]domain.CourseStat, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	if p == nil || p.files == nil {
		return nil, errors.New("stats provider is not initialized")
	}
	if limit <= 0 {
		return nil, nil
	}

	cursor, err := p.files.Aggregate(ctx, topCoursesPipeline(limit))
	if err != nil {
		return nil, fmt.Errorf("aggregate top courses: %w", err)
	}

	stats := make([]domain.CourseStat, 0, limit)
	if err := cursor.All(ctx, &stats); err != nil {
		return nil, fmt.Errorf("decode top courses: %w", err)
	}
	return stats, nil
}

func topCoursesPipeline(limit int) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$course_id"},
			{Key: "files", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "files", Value: -1}, {Key: "_id", Value: 1}}}},
		{{Key: "$limit", Value: int64(limit)}},
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: CollectionCourses},
			{Key: "localField", Value: "_id"},
			{Key: "foreignField", Value: "course_id"},
			{Key: "as", Value: "course"},
		}}},
		{{Key: "$unwind", Value: "$course"}},
		{{Key: "$project", Value: bson.D{
			{Key: "_id", Value: 0},
			{Key: "course_id", Value: "$_id"},
			{Key: "name", Value: "$course.name"},
			{Key: "files", Value: 1},
		}}},
	}
}
