package catalog

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"

	"course_catalog_bot/internal/chat"
	"course_catalog_bot/internal/domain"
	"course_catalog_bot/internal/store"
	"course_catalog_bot/internal/testkit"
)

type stubStats struct {
	total int64
	top   []domain.CourseStat
	err   error
	limit int
}

func (s *stubStats) TotalUsers(context.Context) (int64, error) {
	return s.total, s.err
}

func (s *stubStats) TopCourses(_ context.Context, limit int) ([]domain.CourseStat, error) {
	s.limit = limit
	return s.top, s.err
}

type fixture struct {
	nav       *Navigator
	catalog   *store.Catalog
	messenger *testkit.Messenger
	stats     *stubStats
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	catalog := store.NewCatalog(
		testkit.NewCollection([]string{"year_id"}, []string{"name"}),
		testkit.NewCollection([]string{"term_id"}, []string{"year_id", "name"}),
		testkit.NewCollection([]string{"course_id"}, []string{"term_id", "name"}),
		testkit.NewCollection([]string{"file_id"}),
		store.NewSequences(testkit.NewCollection([]string{"_id"})),
	)
	messenger := &testkit.Messenger{}
	stats := &stubStats{}
	logger, _ := logtest.NewNullLogger()

	return fixture{
		nav:       NewNavigator(catalog, stats, messenger, 3, logrus.NewEntry(logger)),
		catalog:   catalog,
		messenger: messenger,
		stats:     stats,
	}
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}

func mustYear(t *testing.T, c *store.Catalog, name string) domain.Year {
	t.Helper()
	year, err := c.AddYear(context.Background(), name)
	if err != nil {
		t.Fatalf("add year %q: %v", name, err)
	}
	return year
}

func TestShowRootListsYearsAndStats(t *testing.T) {
	f := newFixture(t)
	first := mustYear(t, f.catalog, "First")
	second := mustYear(t, f.catalog, "Second")

	if err := f.nav.ShowRoot(context.Background(), chat.Target{ChatID: 10}, false); err != nil {
		t.Fatalf("ShowRoot returned error: %v", err)
	}

	out := f.messenger.Last()
	if out.Op != testkit.OpSend || out.Text != chooseYearText {
		t.Fatalf("expected year listing to be sent, got %+v", out)
	}
	want := []string{"year_" + itoa(first.YearID), "year_" + itoa(second.YearID), "stats"}
	if diff := cmp.Diff(want, testkit.CallbackData(out.Keyboard)); diff != "" {
		t.Fatalf("root buttons mismatch (-want +got):\n%s", diff)
	}
}

func TestShowRootAddsAdminButtonForOperators(t *testing.T) {
	f := newFixture(t)

	if err := f.nav.ShowRoot(context.Background(), chat.Target{ChatID: 10}, true); err != nil {
		t.Fatalf("ShowRoot returned error: %v", err)
	}

	out := f.messenger.Last()
	if out.Text != noYearsText {
		t.Fatalf("expected empty catalog notice, got %q", out.Text)
	}
	if diff := cmp.Diff([]string{"stats", "admin_panel"}, testkit.CallbackData(out.Keyboard)); diff != "" {
		t.Fatalf("operator buttons mismatch (-want +got):\n%s", diff)
	}
}

func TestYearThenBackMatchesFreshRoot(t *testing.T) {
	f := newFixture(t)
	year := mustYear(t, f.catalog, "First")
	mustYear(t, f.catalog, "Second")
	if _, err := f.catalog.AddTerm(context.Background(), year.YearID, "Fall"); err != nil {
		t.Fatalf("add term: %v", err)
	}
	ctx := context.Background()

	if err := f.nav.ShowRoot(ctx, chat.Target{ChatID: 10}, false); err != nil {
		t.Fatalf("ShowRoot returned error: %v", err)
	}
	fresh := f.messenger.Last()

	menu := chat.Target{ChatID: 10, MessageID: 5}
	if err := f.nav.ShowYear(ctx, menu, year.YearID); err != nil {
		t.Fatalf("ShowYear returned error: %v", err)
	}
	if got := f.messenger.Last(); got.Op != testkit.OpEdit || got.MessageID != 5 {
		t.Fatalf("expected year view to edit the menu, got %+v", got)
	}

	if err := f.nav.ShowRoot(ctx, menu, false); err != nil {
		t.Fatalf("ShowRoot returned error: %v", err)
	}
	back := f.messenger.Last()

	if back.Text != fresh.Text {
		t.Fatalf("expected back text %q, got %q", fresh.Text, back.Text)
	}
	if diff := cmp.Diff(fresh.Keyboard, back.Keyboard); diff != "" {
		t.Fatalf("back keyboard differs from fresh root (-fresh +back):\n%s", diff)
	}
}

func TestEmptyYearDoesNotTransition(t *testing.T) {
	f := newFixture(t)
	first := mustYear(t, f.catalog, "First")
	mustYear(t, f.catalog, "Second")

	if err := f.nav.ShowYear(context.Background(), chat.Target{ChatID: 10, MessageID: 5}, first.YearID); err != nil {
		t.Fatalf("ShowYear returned error: %v", err)
	}

	all := f.messenger.All()
	if len(all) != 1 {
		t.Fatalf("expected one outbound message, got %d", len(all))
	}
	if all[0].Op != testkit.OpSend || all[0].Text != noTermsText || all[0].Keyboard != nil {
		t.Fatalf("expected a new nothing-here message without buttons, got %+v", all[0])
	}
}

func TestShowTermBacksToItsYear(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	year := mustYear(t, f.catalog, "First")
	term, _ := f.catalog.AddTerm(ctx, year.YearID, "Fall")
	algebra, _ := f.catalog.AddCourse(ctx, term.TermID, "Algebra")

	if err := f.nav.ShowTerm(ctx, chat.Target{ChatID: 10, MessageID: 5}, term.TermID); err != nil {
		t.Fatalf("ShowTerm returned error: %v", err)
	}

	out := f.messenger.Last()
	want := []string{"course_" + itoa(algebra.CourseID), "year_" + itoa(year.YearID)}
	if diff := cmp.Diff(want, testkit.CallbackData(out.Keyboard)); diff != "" {
		t.Fatalf("term buttons mismatch (-want +got):\n%s", diff)
	}
	if out.Text != "📖 Fall\nChoose a course:" {
		t.Fatalf("unexpected term text %q", out.Text)
	}
}

func TestShowTermWithoutCourses(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	year := mustYear(t, f.catalog, "First")
	term, _ := f.catalog.AddTerm(ctx, year.YearID, "Fall")

	if err := f.nav.ShowTerm(ctx, chat.Target{ChatID: 10, MessageID: 5}, term.TermID); err != nil {
		t.Fatalf("ShowTerm returned error: %v", err)
	}
	if out := f.messenger.Last(); out.Op != testkit.OpSend || out.Text != noCoursesText {
		t.Fatalf("expected nothing-here message, got %+v", out)
	}
}

func TestStaleSelectionReportsMissingEntry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	target := chat.Target{ChatID: 10, MessageID: 5}

	for name, show := range map[string]func() error{
		"year":   func() error { return f.nav.ShowYear(ctx, target, 404) },
		"term":   func() error { return f.nav.ShowTerm(ctx, target, 404) },
		"course": func() error { return f.nav.SendCourseFiles(ctx, 10, 404) },
	} {
		f.messenger.Reset()
		if err := show(); err != nil {
			t.Fatalf("%s: expected no error, got %v", name, err)
		}
		if out := f.messenger.Last(); out.Text != goneText {
			t.Fatalf("%s: expected gone notice, got %+v", name, out)
		}
	}
}

func TestSendCourseFilesDeliversEachFile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	year := mustYear(t, f.catalog, "First")
	term, _ := f.catalog.AddTerm(ctx, year.YearID, "Fall")
	course, _ := f.catalog.AddCourse(ctx, term.TermID, "Algebra")
	_, _ = f.catalog.AddFile(ctx, course.CourseID, "Lecture 1", "handle-1")
	_, _ = f.catalog.AddFile(ctx, course.CourseID, "Lecture 2", "handle-2")

	if err := f.nav.SendCourseFiles(ctx, 10, course.CourseID); err != nil {
		t.Fatalf("SendCourseFiles returned error: %v", err)
	}

	want := []testkit.Outbound{
		{Op: testkit.OpDocument, ChatID: 10, Text: "Lecture 1", Handle: "handle-1"},
		{Op: testkit.OpDocument, ChatID: 10, Text: "Lecture 2", Handle: "handle-2"},
	}
	if diff := cmp.Diff(want, f.messenger.All()); diff != "" {
		t.Fatalf("deliveries mismatch (-want +got):\n%s", diff)
	}
}

func TestSendCourseFilesEmptyCourse(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	year := mustYear(t, f.catalog, "First")
	term, _ := f.catalog.AddTerm(ctx, year.YearID, "Fall")
	course, _ := f.catalog.AddCourse(ctx, term.TermID, "Algebra")

	if err := f.nav.SendCourseFiles(ctx, 10, course.CourseID); err != nil {
		t.Fatalf("SendCourseFiles returned error: %v", err)
	}
	if out := f.messenger.Last(); out.Op != testkit.OpSend || out.Text != noFilesText {
		t.Fatalf("expected nothing-here message, got %+v", out)
	}
}

func TestShowStatsListsTopCourses(t *testing.T) {
	f := newFixture(t)
	f.stats.total = 42
	f.stats.top = []domain.CourseStat{
		{CourseID: 3, Name: "Algebra", Files: 5},
		{CourseID: 1, Name: "Biology", Files: 2},
	}

	if err := f.nav.ShowStats(context.Background(), chat.Target{ChatID: 10, MessageID: 5}); err != nil {
		t.Fatalf("ShowStats returned error: %v", err)
	}

	out := f.messenger.Last()
	want := "📊 Stats\n\n👥 Users: 42\n\n🏆 Top courses:\n1. Algebra (5 files)\n2. Biology (2 files)"
	if out.Text != want {
		t.Fatalf("unexpected stats text:\n%s", out.Text)
	}
	if f.stats.limit != 3 {
		t.Fatalf("expected top courses limit 3, got %d", f.stats.limit)
	}
	if diff := cmp.Diff([]string{"back_to_years"}, testkit.CallbackData(out.Keyboard)); diff != "" {
		t.Fatalf("stats buttons mismatch (-want +got):\n%s", diff)
	}
}

func TestShowStatsPropagatesErrors(t *testing.T) {
	f := newFixture(t)
	f.stats.err = errors.New("stats unavailable")

	if err := f.nav.ShowStats(context.Background(), chat.Target{ChatID: 10}); !errors.Is(err, f.stats.err) {
		t.Fatalf("expected stats error, got %v", err)
	}
	if len(f.messenger.All()) != 0 {
		t.Fatalf("expected nothing to be rendered on error")
	}
}

func TestEditFailureFallsBackToSend(t *testing.T) {
	f := newFixture(t)
	mustYear(t, f.catalog, "First")
	f.messenger.EditErr = errors.New("message is too old")

	if err := f.nav.ShowRoot(context.Background(), chat.Target{ChatID: 10, MessageID: 5}, false); err != nil {
		t.Fatalf("ShowRoot returned error: %v", err)
	}
	if out := f.messenger.Last(); out.Op != testkit.OpSend {
		t.Fatalf("expected fallback send, got %+v", out)
	}
}
