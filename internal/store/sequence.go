package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type sequenceCollection interface {
	FindOneAndUpdate(ctx context.Context, filter interface{}, update interface{}, opts ...*options.FindOneAndUpdateOptions) *mongo.SingleResult
}

// Sequences hands out monotonically increasing int64 ids per named sequence,
// keeping callback payloads such as "course_12" short.
type Sequences struct {
	coll sequenceCollection
}

// NewSequences constructs Sequences over the sequences collection.
func NewSequences(coll sequenceCollection) *Sequences {
	return &Sequences{coll: coll}
}

// Next increments and returns the named sequence, starting at 1.
func (s *Sequences) Next(ctx context.Context, name string) (int64, error) {
	if s == nil || s.coll == nil {
		return 0, errors.New("sequences are not initialized")
	}

	result := s.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": name},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	)
	if result == nil {
		return 0, errors.New("sequence update returned no result")
	}

	var doc struct {
		Seq int64 `bson:"seq"`
	}
	if err := result.Decode(&doc); err != nil {
		return 0, fmt.Errorf("next %s id: %w", name, err)
	}

	return doc.Seq, nil
}
