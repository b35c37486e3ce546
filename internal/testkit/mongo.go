// Package testkit holds in-memory fakes shared by package tests: a Mongo
// collection, a recording messenger and a scripted membership lookup.
package testkit

import (
	"context"
	"errors"
	"reflect"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection is a small in-memory stand-in for *mongo.Collection that
// understands equality filters, sorts, limits, $set/$setOnInsert/$inc updates
// and the $cond toggle pipeline used by the counters. Unique key sets are
// enforced on every write with a duplicate key error code of 11000.
type Collection struct {
	mu     sync.Mutex
	docs   []bson.M
	unique [][]string
	errs   map[string]error
	calls  map[string]int
}

// NewCollection builds an empty collection enforcing the given unique key sets.
func NewCollection(unique ...[]string) *Collection {
	return &Collection{
		unique: unique,
		errs:   map[string]error{},
		calls:  map[string]int{},
	}
}

// FailOn makes every later call to the named method return err.
func (c *Collection) FailOn(op string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errs[op] = err
}

// Calls returns how often the named method was invoked.
func (c *Collection) Calls(op string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[op]
}

func (c *Collection) enter(op string) error {
	c.calls[op]++
	return c.errs[op]
}

func (c *Collection) InsertOne(_ context.Context, document interface{}, _ ...*options.InsertOneOptions) (*mongo.InsertOneResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.enter("InsertOne"); err != nil {
		return nil, err
	}

	doc, err := normalize(document)
	if err != nil {
		return nil, err
	}
	if c.violatesUnique(doc, -1) {
		return nil, duplicateKeyError()
	}
	c.docs = append(c.docs, doc)
	return &mongo.InsertOneResult{InsertedID: doc["_id"]}, nil
}

func (c *Collection) Find(_ context.Context, filter interface{}, opts ...*options.FindOptions) (*mongo.Cursor, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.enter("Find"); err != nil {
		return nil, err
	}

	matches := c.matching(asMap(filter))
	var limit int64
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if opt.Sort != nil {
			sortDocs(matches, opt.Sort)
		}
		if opt.Limit != nil {
			limit = *opt.Limit
		}
	}
	if limit > 0 && int64(len(matches)) > limit {
		matches = matches[:limit]
	}

	out := make([]interface{}, 0, len(matches))
	for _, doc := range matches {
		out = append(out, doc)
	}
	return mongo.NewCursorFromDocuments(out, nil, nil)
}

func (c *Collection) FindOne(_ context.Context, filter interface{}, _ ...*options.FindOneOptions) *mongo.SingleResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.enter("FindOne"); err != nil {
		return mongo.NewSingleResultFromDocument(bson.D{}, err, nil)
	}

	matches := c.matching(asMap(filter))
	if len(matches) == 0 {
		return mongo.NewSingleResultFromDocument(bson.D{}, mongo.ErrNoDocuments, nil)
	}
	return mongo.NewSingleResultFromDocument(matches[0], nil, nil)
}

func (c *Collection) DeleteOne(_ context.Context, filter interface{}, _ ...*options.DeleteOptions) (*mongo.DeleteResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.enter("DeleteOne"); err != nil {
		return nil, err
	}

	f := asMap(filter)
	for i, doc := range c.docs {
		if matches(doc, f) {
			c.docs = append(c.docs[:i], c.docs[i+1:]...)
			return &mongo.DeleteResult{DeletedCount: 1}, nil
		}
	}
	return &mongo.DeleteResult{}, nil
}

func (c *Collection) CountDocuments(_ context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.enter("CountDocuments"); err != nil {
		return 0, err
	}

	n := int64(len(c.matching(asMap(filter))))
	for _, opt := range opts {
		if opt != nil && opt.Limit != nil && *opt.Limit > 0 && n > *opt.Limit {
			n = *opt.Limit
		}
	}
	return n, nil
}

func (c *Collection) UpdateOne(_ context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.enter("UpdateOne"); err != nil {
		return nil, err
	}

	upsert := false
	for _, opt := range opts {
		if opt != nil && opt.Upsert != nil {
			upsert = *opt.Upsert
		}
	}

	idx, _, inserted, err := c.apply(asMap(filter), update, upsert)
	if err != nil {
		return nil, err
	}
	switch {
	case idx == -1:
		return &mongo.UpdateResult{}, nil
	case inserted:
		return &mongo.UpdateResult{UpsertedCount: 1, UpsertedID: c.docs[idx]["_id"]}, nil
	default:
		return &mongo.UpdateResult{MatchedCount: 1, ModifiedCount: 1}, nil
	}
}

func (c *Collection) FindOneAndUpdate(_ context.Context, filter interface{}, update interface{}, opts ...*options.FindOneAndUpdateOptions) *mongo.SingleResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.enter("FindOneAndUpdate"); err != nil {
		return mongo.NewSingleResultFromDocument(bson.D{}, err, nil)
	}

	upsert, after := false, false
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if opt.Upsert != nil {
			upsert = *opt.Upsert
		}
		if opt.ReturnDocument != nil {
			after = *opt.ReturnDocument == options.After
		}
	}

	idx, before, _, err := c.apply(asMap(filter), update, upsert)
	if err != nil {
		return mongo.NewSingleResultFromDocument(bson.D{}, err, nil)
	}
	if idx == -1 {
		return mongo.NewSingleResultFromDocument(bson.D{}, mongo.ErrNoDocuments, nil)
	}
	if !after {
		if before == nil {
			return mongo.NewSingleResultFromDocument(bson.D{}, mongo.ErrNoDocuments, nil)
		}
		return mongo.NewSingleResultFromDocument(before, nil, nil)
	}
	return mongo.NewSingleResultFromDocument(c.docs[idx], nil, nil)
}

// apply updates the first document matching filter, inserting one when upsert
// is set and nothing matches. It returns the index of the written document, or
// -1 when nothing was written, a copy of the document before the update and
// whether the write was an upsert.
func (c *Collection) apply(filter bson.M, update interface{}, upsert bool) (int, bson.M, bool, error) {
	idx := -1
	for i, doc := range c.docs {
		if matches(doc, filter) {
			idx = i
			break
		}
	}

	inserting := false
	var doc, before bson.M
	if idx == -1 {
		if !upsert {
			return -1, nil, false, nil
		}
		inserting = true
		doc = bson.M{}
		for k, v := range filter {
			doc[k] = v
		}
	} else {
		before = copyMap(c.docs[idx])
		doc = copyMap(c.docs[idx])
	}

	switch u := update.(type) {
	case mongo.Pipeline:
		for _, stage := range u {
			for _, op := range stage {
				if op.Key != "$set" {
					return -1, nil, false, errors.New("unsupported pipeline stage " + op.Key)
				}
				fields := asMap(op.Value)
				evaluated := bson.M{}
				for k, expr := range fields {
					evaluated[k] = eval(doc, expr)
				}
				for k, v := range evaluated {
					doc[k] = v
				}
			}
		}
	default:
		ops := asMap(update)
		for op, raw := range ops {
			fields := asMap(raw)
			switch op {
			case "$set":
				for k, v := range fields {
					doc[k] = v
				}
			case "$setOnInsert":
				if inserting {
					for k, v := range fields {
						doc[k] = v
					}
				}
			case "$inc":
				for k, v := range fields {
					cur, _ := number(doc[k])
					delta, _ := number(v)
					doc[k] = int64(cur + delta)
				}
			default:
				return -1, nil, false, errors.New("unsupported update operator " + op)
			}
		}
	}

	normalized, err := normalize(doc)
	if err != nil {
		return -1, nil, false, err
	}
	if c.violatesUnique(normalized, idx) {
		return -1, nil, false, duplicateKeyError()
	}

	if inserting {
		c.docs = append(c.docs, normalized)
		return len(c.docs) - 1, nil, true, nil
	}
	c.docs[idx] = normalized
	return idx, before, false, nil
}

// Docs returns copies of the stored documents matching filter.
func (c *Collection) Docs(filter bson.M) []bson.M {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.matching(filter)
}

// Len returns the number of stored documents.
func (c *Collection) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.docs)
}

func (c *Collection) matching(filter bson.M) []bson.M {
	out := make([]bson.M, 0)
	for _, doc := range c.docs {
		if matches(doc, filter) {
			out = append(out, copyMap(doc))
		}
	}
	return out
}

func (c *Collection) violatesUnique(doc bson.M, skip int) bool {
	for _, keys := range c.unique {
		for i, existing := range c.docs {
			if i == skip {
				continue
			}
			same := true
			for _, key := range keys {
				if compareValues(existing[key], doc[key]) != 0 {
					same = false
					break
				}
			}
			if same {
				return true
			}
		}
	}
	return false
}

func duplicateKeyError() error {
	return mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000, Message: "E11000 duplicate key error"}}}
}

func eval(doc bson.M, expr interface{}) interface{} {
	switch v := expr.(type) {
	case string:
		if strings.HasPrefix(v, "$") {
			return doc[strings.TrimPrefix(v, "$")]
		}
		return v
	case bson.D:
		if len(v) != 1 {
			return v
		}
		args, _ := v[0].Value.(bson.A)
		switch v[0].Key {
		case "$cond":
			if len(args) == 3 {
				if cond, _ := eval(doc, args[0]).(bool); cond {
					return eval(doc, args[1])
				}
				return eval(doc, args[2])
			}
		case "$eq":
			if len(args) == 2 {
				a, b := eval(doc, args[0]), eval(doc, args[1])
				return a != nil && b != nil && compareValues(a, b) == 0
			}
		}
		return v
	default:
		return v
	}
}

func matches(doc, filter bson.M) bool {
	for k, want := range filter {
		got, ok := doc[k]
		if !ok {
			if want != nil {
				return false
			}
			continue
		}
		if compareValues(got, want) != 0 {
			return false
		}
	}
	return true
}

func sortDocs(docs []bson.M, spec interface{}) {
	keys, ok := spec.(bson.D)
	if !ok {
		return
	}
	sort.SliceStable(docs, func(i, j int) bool {
		for _, key := range keys {
			dir, _ := number(key.Value)
			c := compareValues(docs[i][key.Key], docs[j][key.Key])
			if c == 0 {
				continue
			}
			if dir < 0 {
				return c > 0
			}
			return c < 0
		}
		return false
	})
}

func compareValues(a, b interface{}) int {
	if fa, ok := number(a); ok {
		if fb, ok := number(b); ok {
			switch {
			case fa < fb:
				return -1
			case fa > fb:
				return 1
			default:
				return 0
			}
		}
	}

	switch av := a.(type) {
	case string:
		if bv, ok := b.(string); ok {
			return strings.Compare(av, bv)
		}
	case bool:
		if bv, ok := b.(bool); ok && av == bv {
			return 0
		}
	case primitive.DateTime:
		if bv, ok := b.(primitive.DateTime); ok {
			return compareValues(int64(av), int64(bv))
		}
	case time.Time:
		if bv, ok := b.(time.Time); ok {
			return av.Compare(bv)
		}
	}

	if reflect.DeepEqual(a, b) {
		return 0
	}
	return 1
}

func number(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

func asMap(v interface{}) bson.M {
	switch m := v.(type) {
	case bson.M:
		return m
	case map[string]interface{}:
		return bson.M(m)
	case bson.D:
		out := bson.M{}
		for _, e := range m {
			out[e.Key] = e.Value
		}
		return out
	case nil:
		return bson.M{}
	default:
		doc, err := normalize(v)
		if err != nil {
			return bson.M{}
		}
		return doc
	}
}

func copyMap(doc bson.M) bson.M {
	out := make(bson.M, len(doc))
	for k, v := range doc {
		out[k] = v
	}
	return out
}

func normalize(v interface{}) (bson.M, error) {
	raw, err := bson.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out bson.M
	if err := bson.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}
