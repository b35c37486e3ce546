// Package domain defines the catalog and user types shared across the bot.
package domain

import "strconv"

// Year is the top level of the catalog.
type Year struct {
	YearID int64  `bson:"year_id" json:"year_id"`
	Name   string `bson:"name" json:"name"`
}

// Term belongs to a Year.
type Term struct {
	TermID int64  `bson:"term_id" json:"term_id"`
	YearID int64  `bson:"year_id" json:"year_id"`
	Name   string `bson:"name" json:"name"`
}

// Course belongs to a Term. Names are unique within their term.
type Course struct {
	CourseID int64  `bson:"course_id" json:"course_id"`
	TermID   int64  `bson:"term_id" json:"term_id"`
	Name     string `bson:"name" json:"name"`
}

// File references content already uploaded to Telegram. AttachmentHandle is the
// transport file_id and is never interpreted by the bot.
type File struct {
	FileID           int64  `bson:"file_id" json:"file_id"`
	CourseID         int64  `bson:"course_id" json:"course_id"`
	Name             string `bson:"name" json:"name"`
	AttachmentHandle string `bson:"attachment_handle" json:"attachment_handle"`
}

// CourseStat is one row of the top-courses aggregate.
type CourseStat struct {
	CourseID int64  `bson:"course_id" json:"course_id"`
	Name     string `bson:"name" json:"name"`
	Files    int64  `bson:"files" json:"files"`
}

// Names of the process-wide counters kept in the stats collection.
const (
	StatTotalUsers = "total_users"
	StatBotEnabled = "bot_enabled"
)

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
