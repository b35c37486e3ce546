package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"course_catalog_bot/internal/domain"
)

const (
	seqYears   = "years"
	seqTerms   = "terms"
	seqCourses = "courses"
	seqFiles   = "files"
)

// documentCollection is the subset of *mongo.Collection the catalog uses.
type documentCollection interface {
	InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) (*mongo.Cursor, error)
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) *mongo.SingleResult
	DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (*mongo.DeleteResult, error)
	CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error)
}

// Catalog persists the year, term, course and file hierarchy.
//
// Removal never cascades: removing an entry that still owns children fails
// with domain.ErrHasChildren, and inserts verify the parent exists. Both
// checks run under one write lock so a child cannot be added to a parent that
// is concurrently being removed by this process.
type Catalog struct {
	years   documentCollection
	terms   documentCollection
	courses documentCollection
	files   documentCollection
	seq     *Sequences

	// writeMu serializes catalog writes within this process.
	writeMu sync.Mutex
}

// NewCatalog constructs a Catalog over the four hierarchy collections.
func NewCatalog(years, terms, courses, files documentCollection, seq *Sequences) *Catalog {
	return &Catalog{
		years:   years,
		terms:   terms,
		courses: courses,
		files:   files,
		seq:     seq,
	}
}

// ListYears returns every year ordered by id.
func (c *Catalog) ListYears(ctx context.Context) ([]domain.Year, error) {
	return findAll[domain.Year](ctx, c.years, bson.M{}, "year_id")
}

// GetYear fetches one year.
func (c *Catalog) GetYear(ctx context.Context, yearID int64) (domain.Year, error) {
	return findOne[domain.Year](ctx, c.years, bson.M{"year_id": yearID})
}

// AddYear creates a year with a unique name.
func (c *Catalog) AddYear(ctx context.Context, name string) (domain.Year, error) {
	name, err := cleanName(name)
	if err != nil {
		return domain.Year{}, err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	id, err := c.seq.Next(ctx, seqYears)
	if err != nil {
		return domain.Year{}, err
	}

	year := domain.Year{YearID: id, Name: name}
	if err := insert(ctx, c.years, year); err != nil {
		return domain.Year{}, fmt.Errorf("add year %q: %w", name, err)
	}
	return year, nil
}

// RemoveYear deletes a year that has no terms.
func (c *Catalog) RemoveYear(ctx context.Context, yearID int64) (domain.Year, error) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	return removeLeaf[domain.Year](ctx, c.years, bson.M{"year_id": yearID}, c.terms, bson.M{"year_id": yearID})
}

// ListTerms returns the terms of a year ordered by id.
func (c *Catalog) ListTerms(ctx context.Context, yearID int64) ([]domain.Term, error) {
	return findAll[domain.Term](ctx, c.terms, bson.M{"year_id": yearID}, "term_id")
}

// ListAllTerms returns every term ordered by id.
func (c *Catalog) ListAllTerms(ctx context.Context) ([]domain.Term, error) {
	return findAll[domain.Term](ctx, c.terms, bson.M{}, "term_id")
}

// GetTerm fetches one term.
func (c *Catalog) GetTerm(ctx context.Context, termID int64) (domain.Term, error) {
	return findOne[domain.Term](ctx, c.terms, bson.M{"term_id": termID})
}

// AddTerm creates a term under an existing year.
func (c *Catalog) AddTerm(ctx context.Context, yearID int64, name string) (domain.Term, error) {
	name, err := cleanName(name)
	if err != nil {
		return domain.Term{}, err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if _, err := c.GetYear(ctx, yearID); err != nil {
		return domain.Term{}, fmt.Errorf("add term to year %d: %w", yearID, err)
	}

	id, err := c.seq.Next(ctx, seqTerms)
	if err != nil {
		return domain.Term{}, err
	}

	term := domain.Term{TermID: id, YearID: yearID, Name: name}
	if err := insert(ctx, c.terms, term); err != nil {
		return domain.Term{}, fmt.Errorf("add term %q: %w", name, err)
	}
	return term, nil
}

// RemoveTerm deletes a term that has no courses.
func (c *Catalog) RemoveTerm(ctx context.Context, termID int64) (domain.Term, error) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	return removeLeaf[domain.Term](ctx, c.terms, bson.M{"term_id": termID}, c.courses, bson.M{"term_id": termID})
}

// ListCourses returns the courses of a term ordered by id.
func (c *Catalog) ListCourses(ctx context.Context, termID int64) ([]domain.Course, error) {
	return findAll[domain.Course](ctx, c.courses, bson.M{"term_id": termID}, "course_id")
}

// ListAllCourses returns every course ordered by id.
func (c *Catalog) ListAllCourses(ctx context.Context) ([]domain.Course, error) {
	return findAll[domain.Course](ctx, c.courses, bson.M{}, "course_id")
}

// GetCourse fetches one course.
func (c *Catalog) GetCourse(ctx context.Context, courseID int64) (domain.Course, error) {
	return findOne[domain.Course](ctx, c.courses, bson.M{"course_id": courseID})
}

// AddCourse creates a course under an existing term.
func (c *Catalog) AddCourse(ctx context.Context, termID int64, name string) (domain.Course, error) {
	name, err := cleanName(name)
	if err != nil {
		return domain.Course{}, err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if _, err := c.GetTerm(ctx, termID); err != nil {
		return domain.Course{}, fmt.Errorf("add course to term %d: %w", termID, err)
	}

	id, err := c.seq.Next(ctx, seqCourses)
	if err != nil {
		return domain.Course{}, err
	}

	course := domain.Course{CourseID: id, TermID: termID, Name: name}
	if err := insert(ctx, c.courses, course); err != nil {
		return domain.Course{}, fmt.Errorf("add course %q: %w", name, err)
	}
	return course, nil
}

// RemoveCourse deletes a course that has no files.
func (c *Catalog) RemoveCourse(ctx context.Context, courseID int64) (domain.Course, error) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	return removeLeaf[domain.Course](ctx, c.courses, bson.M{"course_id": courseID}, c.files, bson.M{"course_id": courseID})
}

// ListFiles returns the files of a course ordered by id.
func (c *Catalog) ListFiles(ctx context.Context, courseID int64) ([]domain.File, error) {
	return findAll[domain.File](ctx, c.files, bson.M{"course_id": courseID}, "file_id")
}

// AddFile attaches a transport file handle to an existing course.
func (c *Catalog) AddFile(ctx context.Context, courseID int64, name, handle string) (domain.File, error) {
	name, err := cleanName(name)
	if err != nil {
		return domain.File{}, err
	}
	if strings.TrimSpace(handle) == "" {
		return domain.File{}, errors.New("attachment handle is required")
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if _, err := c.GetCourse(ctx, courseID); err != nil {
		return domain.File{}, fmt.Errorf("add file to course %d: %w", courseID, err)
	}

	id, err := c.seq.Next(ctx, seqFiles)
	if err != nil {
		return domain.File{}, err
	}

	file := domain.File{FileID: id, CourseID: courseID, Name: name, AttachmentHandle: handle}
	if err := insert(ctx, c.files, file); err != nil {
		return domain.File{}, fmt.Errorf("add file %q: %w", name, err)
	}
	return file, nil
}

// GetFile fetches one file entry.
func (c *Catalog) GetFile(ctx context.Context, fileID int64) (domain.File, error) {
	return findOne[domain.File](ctx, c.files, bson.M{"file_id": fileID})
}

// RemoveFile deletes one file entry. The attachment itself stays on Telegram.
func (c *Catalog) RemoveFile(ctx context.Context, fileID int64) (domain.File, error) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	return removeLeaf[domain.File](ctx, c.files, bson.M{"file_id": fileID}, nil, nil)
}

func findAll[T any](ctx context.Context, coll documentCollection, filter bson.M, sortKey string) ([]T, error) {
	if coll == nil {
		return nil, errors.New("catalog is not initialized")
	}

	cursor, err := coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: sortKey, Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find: %w", err)
	}

	out := make([]T, 0)
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return out, nil
}

func findOne[T any](ctx context.Context, coll documentCollection, filter bson.M) (T, error) {
	var out T
	if coll == nil {
		return out, errors.New("catalog is not initialized")
	}

	result := coll.FindOne(ctx, filter)
	if result == nil {
		return out, errors.New("find returned no result")
	}
	if err := result.Err(); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return out, domain.ErrNotFound
		}
		return out, fmt.Errorf("find: %w", err)
	}
	if err := result.Decode(&out); err != nil {
		return out, fmt.Errorf("decode: %w", err)
	}
	return out, nil
}

// removeLeaf deletes the entry matching filter after verifying children holds
// no documents matching childFilter. A nil children collection skips the check.
func removeLeaf[T any](ctx context.Context, coll documentCollection, filter bson.M, children documentCollection, childFilter bson.M) (T, error) {
	entry, err := findOne[T](ctx, coll, filter)
	if err != nil {
		return entry, err
	}

	if children != nil {
		count, err := children.CountDocuments(ctx, childFilter, options.Count().SetLimit(1))
		if err != nil {
			return entry, fmt.Errorf("count children: %w", err)
		}
		if count > 0 {
			return entry, domain.ErrHasChildren
		}
	}

	result, err := coll.DeleteOne(ctx, filter)
	if err != nil {
		return entry, fmt.Errorf("delete: %w", err)
	}
	if result == nil || result.DeletedCount == 0 {
		return entry, domain.ErrNotFound
	}
	return entry, nil
}

func insert(ctx context.Context, coll documentCollection, doc interface{}) error {
	if coll == nil {
		return errors.New("catalog is not initialized")
	}
	if _, err := coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrAlreadyExists
		}
		return err
	}
	return nil
}

func cleanName(name string) (string, error) {
	name = strings.Join(strings.Fields(name), " ")
	if name == "" {
		return "", fmt.Errorf("%w: name is required", domain.ErrInvalidName)
	}
	if len([]rune(name)) > MaxNameLength {
		return "", fmt.Errorf("%w: name must be at most %d characters", domain.ErrInvalidName, MaxNameLength)
	}
	return name, nil
}

// MaxNameLength bounds catalog display names so they fit on a button.
const MaxNameLength = 64
