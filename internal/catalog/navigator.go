// Package catalog renders the year, term, course and file menus and delivers
// course files.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-telegram/bot/models"
	"github.com/sirupsen/logrus"

	"course_catalog_bot/internal/callback"
	"course_catalog_bot/internal/chat"
	"course_catalog_bot/internal/domain"
	"course_catalog_bot/internal/logging"
)

const (
	chooseYearText   = "📚 Choose your study year:"
	noYearsText      = "📭 No study years have been added yet."
	chooseTermText   = "📅 %s\nChoose a term:"
	chooseCourseText = "📖 %s\nChoose a course:"
	noTermsText      = "📭 Nothing here yet: this year has no terms."
	noCoursesText    = "📭 Nothing here yet: this term has no courses."
	noFilesText      = "📭 Nothing here yet: this course has no files."
	goneText         = "⚠️ That entry no longer exists. Send /start to refresh the menu."

	statsButton = "📊 Stats"
	adminButton = "🛠 Admin panel"
	backButton  = "⬅️ Back"
)

// Reader is the read side of the catalog store.
type Reader interface {
	ListYears(ctx context.Context) ([]domain.Year, error)
	GetYear(ctx context.Context, yearID int64) (domain.Year, error)
	ListTerms(ctx context.Context, yearID int64) ([]domain.Term, error)
	GetTerm(ctx context.Context, termID int64) (domain.Term, error)
	ListCourses(ctx context.Context, termID int64) ([]domain.Course, error)
	GetCourse(ctx context.Context, courseID int64) (domain.Course, error)
	ListFiles(ctx context.Context, courseID int64) ([]domain.File, error)
}

// StatsSource answers the aggregate queries behind the stats view.
type StatsSource interface {
	TotalUsers(ctx context.Context) (int64, error)
	TopCourses(ctx context.Context, limit int) ([]domain.CourseStat, error)
}

// Navigator walks users through Root, Year, Term and Course. It keeps no
// per-user state: every transition is derived from the pressed button.
type Navigator struct {
	catalog    Reader
	stats      StatsSource
	messenger  chat.Messenger
	topCourses int
	logger     *logrus.Entry
}

// NewNavigator constructs a Navigator. topCourses bounds the stats listing;
// zero hides it.
func NewNavigator(catalog Reader, stats StatsSource, messenger chat.Messenger, topCourses int, logger *logrus.Entry) *Navigator {
	if logger == nil {
		logger = logging.Logger()
	}

	return &Navigator{
		catalog:    catalog,
		stats:      stats,
		messenger:  messenger,
		topCourses: topCourses,
		logger:     logger,
	}
}

// ShowRoot renders the year listing with the stats button, plus the admin
// panel button for operators.
func (n *Navigator) ShowRoot(ctx context.Context, target chat.Target, operator bool) error {
	years, err := n.catalog.ListYears(ctx)
	if err != nil {
		return fmt.Errorf("list years: %w", err)
	}

	buttons := make([]models.InlineKeyboardButton, 0, len(years)+2)
	for _, year := range years {
		buttons = append(buttons, chat.Button(year.Name, callback.WithID(callback.Year, year.YearID).String()))
	}
	buttons = append(buttons, chat.Button(statsButton, callback.Plain(callback.Stats).String()))
	if operator {
		buttons = append(buttons, chat.Button(adminButton, callback.Plain(callback.AdminPanel).String()))
	}

	text := chooseYearText
	if len(years) == 0 {
		text = noYearsText
	}
	return chat.Render(ctx, n.messenger, target, text, chat.Keyboard(buttons...))
}

// ShowYear lists the terms of a year. An empty year gets an informational
// message and the current menu stays in place.
func (n *Navigator) ShowYear(ctx context.Context, target chat.Target, yearID int64) error {
	year, err := n.catalog.GetYear(ctx, yearID)
	if errors.Is(err, domain.ErrNotFound) {
		return n.messenger.Send(ctx, target.ChatID, goneText, nil)
	}
	if err != nil {
		return fmt.Errorf("get year %d: %w", yearID, err)
	}

	terms, err := n.catalog.ListTerms(ctx, yearID)
	if err != nil {
		return fmt.Errorf("list terms of year %d: %w", yearID, err)
	}
	if len(terms) == 0 {
		return n.messenger.Send(ctx, target.ChatID, noTermsText, nil)
	}

	buttons := make([]models.InlineKeyboardButton, 0, len(terms)+1)
	for _, term := range terms {
		buttons = append(buttons, chat.Button(term.Name, callback.WithID(callback.Term, term.TermID).String()))
	}
	buttons = append(buttons, chat.Button(backButton, callback.Plain(callback.BackToYears).String()))

	return chat.Render(ctx, n.messenger, target, fmt.Sprintf(chooseTermText, year.Name), chat.Keyboard(buttons...))
}

// ShowTerm lists the courses of a term with a back button to its year.
func (n *Navigator) ShowTerm(ctx context.Context, target chat.Target, termID int64) error {
	term, err := n.catalog.GetTerm(ctx, termID)
	if errors.Is(err, domain.ErrNotFound) {
		return n.messenger.Send(ctx, target.ChatID, goneText, nil)
	}
	if err != nil {
		return fmt.Errorf("get term %d: %w", termID, err)
	}

	courses, err := n.catalog.ListCourses(ctx, termID)
	if err != nil {
		return fmt.Errorf("list courses of term %d: %w", termID, err)
	}
	if len(courses) == 0 {
		return n.messenger.Send(ctx, target.ChatID, noCoursesText, nil)
	}

	buttons := make([]models.InlineKeyboardButton, 0, len(courses)+1)
	for _, course := range courses {
		buttons = append(buttons, chat.Button(course.Name, callback.WithID(callback.Course, course.CourseID).String()))
	}
	buttons = append(buttons, chat.Button(backButton, callback.WithID(callback.Year, term.YearID).String()))

	return chat.Render(ctx, n.messenger, target, fmt.Sprintf(chooseCourseText, term.Name), chat.Keyboard(buttons...))
}

// SendCourseFiles delivers every file of a course as a document captioned
// with its display name. The course menu is left untouched.
func (n *Navigator) SendCourseFiles(ctx context.Context, chatID, courseID int64) error {
	course, err := n.catalog.GetCourse(ctx, courseID)
	if errors.Is(err, domain.ErrNotFound) {
		return n.messenger.Send(ctx, chatID, goneText, nil)
	}
	if err != nil {
		return fmt.Errorf("get course %d: %w", courseID, err)
	}

	files, err := n.catalog.ListFiles(ctx, courseID)
	if err != nil {
		return fmt.Errorf("list files of course %d: %w", courseID, err)
	}
	if len(files) == 0 {
		return n.messenger.Send(ctx, chatID, noFilesText, nil)
	}

	sent := 0
	for _, file := range files {
		if err := n.messenger.SendDocument(ctx, chatID, file.AttachmentHandle, file.Name); err != nil {
			n.logger.WithFields(logging.Fields{
				"event":     "file_send_failed",
				"chat_id":   chatID,
				"course_id": courseID,
				"file_id":   file.FileID,
			}).WithError(err).Warn("failed to deliver course file")
			continue
		}
		sent++
	}

	n.logger.WithFields(logging.Fields{
		"event":     "course_files_sent",
		"chat_id":   chatID,
		"course_id": courseID,
		"course":    course.Name,
		"sent":      sent,
		"total":     len(files),
	}).Info("delivered course files")

	if sent == 0 {
		return fmt.Errorf("deliver files of course %d: every send failed", courseID)
	}
	return nil
}

// ShowStats renders the user total and, when enabled, the courses with the
// most files.
func (n *Navigator) ShowStats(ctx context.Context, target chat.Target) error {
	total, err := n.stats.TotalUsers(ctx)
	if err != nil {
		return fmt.Errorf("total users: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📊 Stats\n\n👥 Users: %d", total)

	if n.topCourses > 0 {
		top, err := n.stats.TopCourses(ctx, n.topCourses)
		if err != nil {
			return fmt.Errorf("top courses: %w", err)
		}
		if len(top) > 0 {
			b.WriteString("\n\n🏆 Top courses:")
			for i, row := range top {
				fmt.Fprintf(&b, "\n%d. %s (%d files)", i+1, row.Name, row.Files)
			}
		}
	}

	kb := chat.Keyboard(chat.Button(backButton, callback.Plain(callback.BackToYears).String()))
	return chat.Render(ctx, n.messenger, target, b.String(), kb)
}
