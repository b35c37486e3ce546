// Package admin implements the operator workflows. Adds and bans are two
// phase: a button arms a pending action and the operator's next message
// commits it. Removals list the candidates and commit on selection.
package admin

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-telegram/bot/models"
	"github.com/sirupsen/logrus"

	"course_catalog_bot/internal/callback"
	"course_catalog_bot/internal/chat"
	"course_catalog_bot/internal/domain"
	"course_catalog_bot/internal/logging"
	"course_catalog_bot/internal/metrics"
	"course_catalog_bot/internal/session"
)

// Operation names used in logs and metrics.
const (
	OpAddYear      = "add_year"
	OpAddTerm      = "add_term"
	OpAddCourse    = "add_course"
	OpAddFile      = "add_file"
	OpRemoveYear   = "remove_year"
	OpRemoveTerm   = "remove_term"
	OpRemoveCourse = "remove_course"
	OpRemoveFile   = "remove_file"
	OpBanUser      = "ban_user"
	OpUnbanUser    = "unban_user"
	OpToggleBot    = "toggle_bot"
)

const recentUsersLimit = 20

var (
	errInvalidUserID = errors.New("invalid user id")
	errOperatorBan   = errors.New("operators cannot be banned")
)

// Catalog is the catalog store surface the workflows mutate.
type Catalog interface {
	ListYears(ctx context.Context) ([]domain.Year, error)
	GetYear(ctx context.Context, yearID int64) (domain.Year, error)
	ListAllTerms(ctx context.Context) ([]domain.Term, error)
	GetTerm(ctx context.Context, termID int64) (domain.Term, error)
	ListAllCourses(ctx context.Context) ([]domain.Course, error)
	GetCourse(ctx context.Context, courseID int64) (domain.Course, error)
	ListFiles(ctx context.Context, courseID int64) ([]domain.File, error)

	AddYear(ctx context.Context, name string) (domain.Year, error)
	AddTerm(ctx context.Context, yearID int64, name string) (domain.Term, error)
	AddCourse(ctx context.Context, termID int64, name string) (domain.Course, error)
	AddFile(ctx context.Context, courseID int64, name, handle string) (domain.File, error)

	RemoveYear(ctx context.Context, yearID int64) (domain.Year, error)
	RemoveTerm(ctx context.Context, termID int64) (domain.Term, error)
	RemoveCourse(ctx context.Context, courseID int64) (domain.Course, error)
	RemoveFile(ctx context.Context, fileID int64) (domain.File, error)
}

// Users lists user records for the users view.
type Users interface {
	ListRecent(ctx context.Context, limit int64) ([]domain.User, error)
	Count(ctx context.Context) (int64, error)
	CountBanned(ctx context.Context) (int64, error)
}

// Moderator flips the banned flag.
type Moderator interface {
	SetBanned(ctx context.Context, userID int64, banned bool) error
}

// Switch reads and flips the global enablement counter.
type Switch interface {
	BotEnabled(ctx context.Context) (bool, error)
	ToggleBotEnabled(ctx context.Context) (bool, error)
}

// Recorder counts admin operation outcomes.
type Recorder interface {
	AdminOperation(operation, result string)
}

// Deps wires a Workflow. IsOperator guards against banning operators.
type Deps struct {
	Catalog    Catalog
	Users      Users
	Moderator  Moderator
	Switch     Switch
	Sessions   session.Table
	Messenger  chat.Messenger
	Metrics    Recorder
	IsOperator func(userID int64) bool
	Logger     *logrus.Entry
}

// Workflow runs the admin panel. Callers are responsible for operator
// authorization.
type Workflow struct {
	catalog    Catalog
	users      Users
	moderator  Moderator
	toggle     Switch
	sessions   session.Table
	messenger  chat.Messenger
	metrics    Recorder
	isOperator func(int64) bool
	logger     *logrus.Entry
}

// NewWorkflow constructs a Workflow.
func NewWorkflow(deps Deps) *Workflow {
	logger := deps.Logger
	if logger == nil {
		logger = logging.Logger()
	}
	isOperator := deps.IsOperator
	if isOperator == nil {
		isOperator = func(int64) bool { return false }
	}

	return &Workflow{
		catalog:    deps.Catalog,
		users:      deps.Users,
		moderator:  deps.Moderator,
		toggle:     deps.Switch,
		sessions:   deps.Sessions,
		messenger:  deps.Messenger,
		metrics:    deps.Metrics,
		isOperator: isOperator,
		logger:     logger,
	}
}

// Disarm drops any pending action of userID.
func (w *Workflow) Disarm(ctx context.Context, userID int64) error {
	if _, err := w.sessions.Cancel(ctx, userID); err != nil {
		return fmt.Errorf("disarm pending action: %w", err)
	}
	return nil
}

// HandleCommand serves /admin, /admin ban <id> and /admin unban <id>. Any
// pending action is disarmed first.
func (w *Workflow) HandleCommand(ctx context.Context, ev chat.Event) error {
	if err := w.Disarm(ctx, ev.UserID); err != nil {
		return err
	}

	if len(ev.Args) == 0 {
		return w.ShowPanel(ctx, ev.Target())
	}

	sub := strings.ToLower(ev.Args[0])
	if len(ev.Args) != 2 || (sub != "ban" && sub != "unban") {
		return w.messenger.Send(ctx, ev.ChatID, usageText, nil)
	}

	banned := sub == "ban"
	op := OpUnbanUser
	if banned {
		op = OpBanUser
	}

	userID, err := w.setBanned(ctx, ev.Args[1], banned)
	return w.report(ctx, ev, op, err, banResultText(userID, banned), nil)
}

// ShowPanel renders the admin menu, including the current enablement state.
func (w *Workflow) ShowPanel(ctx context.Context, target chat.Target) error {
	return w.renderPanel(ctx, target, "")
}

// HandleAction runs phase 1 of an admin callback, or commits directly for
// removals and toggles.
func (w *Workflow) HandleAction(ctx context.Context, ev chat.Event, action callback.Action) error {
	target := ev.Target()

	switch action.Kind {
	case callback.AdminPanel:
		return w.ShowPanel(ctx, target)
	case callback.Cancel:
		if err := w.Disarm(ctx, ev.UserID); err != nil {
			return err
		}
		return w.renderPanel(ctx, target, cancelledText)

	case callback.AdminAddYear:
		return w.arm(ctx, ev, session.Pending{Kind: session.AddYear}, addYearPrompt)
	case callback.AdminAddTerm:
		return w.pickYearForTerm(ctx, target)
	case callback.NewTermYear:
		year, err := w.catalog.GetYear(ctx, action.ID)
		if err != nil {
			return w.report(ctx, ev, OpAddTerm, err, "", nil)
		}
		return w.arm(ctx, ev, session.Pending{Kind: session.AddTerm, ParentID: year.YearID}, fmt.Sprintf(addTermPrompt, year.Name))
	case callback.AdminAddCourse:
		return w.pickTermForCourse(ctx, target)
	case callback.NewCourseTerm:
		term, err := w.catalog.GetTerm(ctx, action.ID)
		if err != nil {
			return w.report(ctx, ev, OpAddCourse, err, "", nil)
		}
		return w.arm(ctx, ev, session.Pending{Kind: session.AddCourse, ParentID: term.TermID}, fmt.Sprintf(addCoursePrompt, term.Name))
	case callback.AdminAddFile:
		return w.pickCourse(ctx, target, callback.NewFileCourse, pickCourseForFileText)
	case callback.NewFileCourse:
		course, err := w.catalog.GetCourse(ctx, action.ID)
		if err != nil {
			return w.report(ctx, ev, OpAddFile, err, "", nil)
		}
		return w.arm(ctx, ev, session.Pending{Kind: session.AddFile, ParentID: course.CourseID}, fmt.Sprintf(addFilePrompt, course.Name))

	case callback.AdminRemoveYear:
		return w.listYearsForRemoval(ctx, target)
	case callback.RemoveYear:
		year, err := w.catalog.RemoveYear(ctx, action.ID)
		return w.report(ctx, ev, OpRemoveYear, err, fmt.Sprintf(removedText, "Year", year.Name), childrenOf("terms", year.Name))
	case callback.AdminRemoveTerm:
		return w.listTermsForRemoval(ctx, target)
	case callback.RemoveTerm:
		term, err := w.catalog.RemoveTerm(ctx, action.ID)
		return w.report(ctx, ev, OpRemoveTerm, err, fmt.Sprintf(removedText, "Term", term.Name), childrenOf("courses", term.Name))
	case callback.AdminRemoveCourse:
		return w.pickCourse(ctx, target, callback.RemoveCourse, pickCourseToRemoveText)
	case callback.RemoveCourse:
		course, err := w.catalog.RemoveCourse(ctx, action.ID)
		return w.report(ctx, ev, OpRemoveCourse, err, fmt.Sprintf(removedText, "Course", course.Name), childrenOf("files", course.Name))
	case callback.AdminRemoveFile:
		return w.pickCourse(ctx, target, callback.FilesCourse, pickCourseForFileRemovalText)
	case callback.FilesCourse:
		return w.listFilesForRemoval(ctx, target, action.ID)
	case callback.RemoveFile:
		file, err := w.catalog.RemoveFile(ctx, action.ID)
		return w.report(ctx, ev, OpRemoveFile, err, fmt.Sprintf(removedText, "File", file.Name), nil)

	case callback.AdminBanUser:
		return w.arm(ctx, ev, session.Pending{Kind: session.BanUser}, banPrompt)
	case callback.AdminUnbanUser:
		return w.arm(ctx, ev, session.Pending{Kind: session.UnbanUser}, unbanPrompt)
	case callback.AdminViewUsers:
		return w.showUsers(ctx, target)
	case callback.ToggleBot:
		enabled, err := w.toggle.ToggleBotEnabled(ctx)
		if err != nil {
			return w.report(ctx, ev, OpToggleBot, err, "", nil)
		}
		w.record(OpToggleBot, metrics.ResultOK)
		w.entry(ev, OpToggleBot).WithField("enabled", enabled).Info("toggled bot enablement")
		return w.renderPanel(ctx, target, fmt.Sprintf(toggledText, stateLabel(enabled)))

	default:
		return fmt.Errorf("unsupported admin action %q", action.String())
	}
}

// HandleText consumes the sender's pending action as phase 2. It reports false
// when nothing was pending, leaving the message unhandled.
func (w *Workflow) HandleText(ctx context.Context, ev chat.Event) (bool, error) {
	pending, ok, err := w.sessions.Take(ctx, ev.UserID,
		session.AddYear, session.AddTerm, session.AddCourse, session.BanUser, session.UnbanUser)
	if err != nil {
		return true, fmt.Errorf("take pending action: %w", err)
	}
	if !ok {
		armed, isArmed, err := w.sessions.Peek(ctx, ev.UserID)
		if err != nil {
			return true, fmt.Errorf("peek pending action: %w", err)
		}
		if isArmed && armed.Kind == session.AddFile {
			return true, w.messenger.Send(ctx, ev.ChatID, documentExpectedText, cancelKeyboard())
		}
		return false, nil
	}

	payload := strings.TrimSpace(ev.Text)

	switch pending.Kind {
	case session.AddYear:
		year, err := w.catalog.AddYear(ctx, payload)
		return true, w.settle(ctx, ev, pending, OpAddYear, err, fmt.Sprintf(addedText, "Year", year.Name))
	case session.AddTerm:
		term, err := w.catalog.AddTerm(ctx, pending.ParentID, payload)
		return true, w.settle(ctx, ev, pending, OpAddTerm, err, fmt.Sprintf(addedText, "Term", term.Name))
	case session.AddCourse:
		course, err := w.catalog.AddCourse(ctx, pending.ParentID, payload)
		return true, w.settle(ctx, ev, pending, OpAddCourse, err, fmt.Sprintf(addedText, "Course", course.Name))
	case session.BanUser, session.UnbanUser:
		banned := pending.Kind == session.BanUser
		op := OpUnbanUser
		if banned {
			op = OpBanUser
		}
		userID, err := w.setBanned(ctx, payload, banned)
		return true, w.settle(ctx, ev, pending, op, err, banResultText(userID, banned))
	default:
		return true, fmt.Errorf("unexpected pending action %q", pending.Kind)
	}
}

// HandleDocument attaches an uploaded document to the course chosen in phase
// 1. The caption is the display name, falling back to the file name.
func (w *Workflow) HandleDocument(ctx context.Context, ev chat.Event) (bool, error) {
	if ev.Document == nil {
		return false, nil
	}

	pending, ok, err := w.sessions.Take(ctx, ev.UserID, session.AddFile)
	if err != nil {
		return true, fmt.Errorf("take pending action: %w", err)
	}
	if !ok {
		return false, nil
	}

	name := strings.TrimSpace(ev.Text)
	if name == "" {
		name = ev.Document.FileName
	}

	file, err := w.catalog.AddFile(ctx, pending.ParentID, name, ev.Document.Handle)
	return true, w.settle(ctx, ev, pending, OpAddFile, err, fmt.Sprintf(addedText, "File", file.Name))
}

func (w *Workflow) arm(ctx context.Context, ev chat.Event, pending session.Pending, prompt string) error {
	if err := w.sessions.Arm(ctx, ev.UserID, pending); err != nil {
		return fmt.Errorf("arm %s: %w", pending.Kind, err)
	}

	w.entry(ev, string(pending.Kind)).WithField("parent_id", pending.ParentID).Debug("armed pending action")
	return chat.Render(ctx, w.messenger, ev.Target(), prompt, cancelKeyboard())
}

// settle reports a phase 2 outcome. Input the operator can correct re-arms the
// same pending action; anything else leaves the operator disarmed.
func (w *Workflow) settle(ctx context.Context, ev chat.Event, pending session.Pending, op string, err error, success string) error {
	var retry string
	switch {
	case errors.Is(err, domain.ErrInvalidName):
		retry = invalidNameText
	case errors.Is(err, errInvalidUserID):
		retry = invalidUserIDText
	case errors.Is(err, domain.ErrAlreadyExists):
		retry = duplicateText
	}
	if retry == "" {
		return w.report(ctx, ev, op, err, success, nil)
	}

	w.record(op, metrics.ResultInvalid)
	pending.ArmedAt = time.Time{}
	if armErr := w.sessions.Arm(ctx, ev.UserID, pending); armErr != nil {
		w.entry(ev, op).WithError(armErr).Error("failed to re-arm pending action")
		return w.messenger.Send(ctx, ev.ChatID, failedText, nil)
	}
	return w.messenger.Send(ctx, ev.ChatID, retry, cancelKeyboard())
}

// report renders the outcome of a committed operation. hasChildren overrides
// the message for domain.ErrHasChildren.
func (w *Workflow) report(ctx context.Context, ev chat.Event, op string, err error, success string, hasChildren *string) error {
	target := ev.Target()
	if ev.Kind != chat.EventCallback {
		target = chat.Target{ChatID: ev.ChatID}
	}

	switch {
	case err == nil:
		w.record(op, metrics.ResultOK)
		w.entry(ev, op).Info("admin operation committed")
		return chat.Render(ctx, w.messenger, target, success, panelKeyboard())
	case errors.Is(err, domain.ErrHasChildren) && hasChildren != nil:
		w.record(op, metrics.ResultRejected)
		return chat.Render(ctx, w.messenger, target, *hasChildren, panelKeyboard())
	case errors.Is(err, domain.ErrNotFound):
		w.record(op, metrics.ResultRejected)
		return chat.Render(ctx, w.messenger, target, goneText, panelKeyboard())
	case errors.Is(err, errInvalidUserID):
		w.record(op, metrics.ResultInvalid)
		return w.messenger.Send(ctx, ev.ChatID, invalidUserIDText, nil)
	case errors.Is(err, errOperatorBan):
		w.record(op, metrics.ResultRejected)
		return chat.Render(ctx, w.messenger, target, operatorBanText, panelKeyboard())
	default:
		w.record(op, metrics.ResultError)
		w.entry(ev, op).WithError(err).Error("admin operation failed")
		return w.messenger.Send(ctx, ev.ChatID, failedText, nil)
	}
}

func (w *Workflow) setBanned(ctx context.Context, raw string, banned bool) (int64, error) {
	userID, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || userID <= 0 {
		return 0, errInvalidUserID
	}
	if banned && w.isOperator(userID) {
		return userID, errOperatorBan
	}
	if err := w.moderator.SetBanned(ctx, userID, banned); err != nil {
		return userID, err
	}
	return userID, nil
}

func (w *Workflow) renderPanel(ctx context.Context, target chat.Target, notice string) error {
	enabled, err := w.toggle.BotEnabled(ctx)
	if err != nil {
		return fmt.Errorf("read bot enablement: %w", err)
	}

	text := fmt.Sprintf(panelText, stateLabel(enabled))
	if notice != "" {
		text = notice + "\n\n" + text
	}

	toggleLabel := "🔴 Disable bot"
	if !enabled {
		toggleLabel = "🟢 Enable bot"
	}

	kb := &models.InlineKeyboardMarkup{InlineKeyboard: [][]models.InlineKeyboardButton{
		{plainButton("➕ Add year", callback.AdminAddYear), plainButton("➖ Remove year", callback.AdminRemoveYear)},
		{plainButton("➕ Add term", callback.AdminAddTerm), plainButton("➖ Remove term", callback.AdminRemoveTerm)},
		{plainButton("➕ Add course", callback.AdminAddCourse), plainButton("➖ Remove course", callback.AdminRemoveCourse)},
		{plainButton("➕ Add file", callback.AdminAddFile), plainButton("➖ Remove file", callback.AdminRemoveFile)},
		{plainButton("🚫 Ban user", callback.AdminBanUser), plainButton("✅ Unban user", callback.AdminUnbanUser)},
		{plainButton("👥 Users", callback.AdminViewUsers), plainButton("📊 Stats", callback.Stats)},
		{plainButton(toggleLabel, callback.ToggleBot)},
		{plainButton("📚 Catalog", callback.BackToYears)},
	}}

	return chat.Render(ctx, w.messenger, target, text, kb)
}

func (w *Workflow) pickYearForTerm(ctx context.Context, target chat.Target) error {
	years, err := w.catalog.ListYears(ctx)
	if err != nil {
		return fmt.Errorf("list years: %w", err)
	}
	if len(years) == 0 {
		return chat.Render(ctx, w.messenger, target, needYearText, panelKeyboard())
	}

	buttons := make([]models.InlineKeyboardButton, 0, len(years)+1)
	for _, year := range years {
		buttons = append(buttons, chat.Button(year.Name, callback.WithID(callback.NewTermYear, year.YearID).String()))
	}
	return chat.Render(ctx, w.messenger, target, pickYearForTermText, withCancel(buttons))
}

func (w *Workflow) pickTermForCourse(ctx context.Context, target chat.Target) error {
	terms, labels, err := w.labelledTerms(ctx)
	if err != nil {
		return err
	}
	if len(terms) == 0 {
		return chat.Render(ctx, w.messenger, target, needTermText, panelKeyboard())
	}

	buttons := make([]models.InlineKeyboardButton, 0, len(terms)+1)
	for _, term := range terms {
		buttons = append(buttons, chat.Button(labels[term.TermID], callback.WithID(callback.NewCourseTerm, term.TermID).String()))
	}
	return chat.Render(ctx, w.messenger, target, pickTermForCourseText, withCancel(buttons))
}

// pickCourse lists every course as a button of the given kind.
func (w *Workflow) pickCourse(ctx context.Context, target chat.Target, kind callback.Kind, prompt string) error {
	courses, err := w.catalog.ListAllCourses(ctx)
	if err != nil {
		return fmt.Errorf("list courses: %w", err)
	}
	if len(courses) == 0 {
		empty := needCourseText
		if kind == callback.RemoveCourse {
			empty = nothingToRemoveText
		}
		return chat.Render(ctx, w.messenger, target, empty, panelKeyboard())
	}

	_, termLabels, err := w.labelledTerms(ctx)
	if err != nil {
		return err
	}

	buttons := make([]models.InlineKeyboardButton, 0, len(courses)+1)
	for _, course := range courses {
		label := course.Name
		if parent, ok := termLabels[course.TermID]; ok {
			label = parent + " · " + course.Name
		}
		buttons = append(buttons, chat.Button(label, callback.WithID(kind, course.CourseID).String()))
	}
	return chat.Render(ctx, w.messenger, target, prompt, withCancel(buttons))
}

func (w *Workflow) listYearsForRemoval(ctx context.Context, target chat.Target) error {
	years, err := w.catalog.ListYears(ctx)
	if err != nil {
		return fmt.Errorf("list years: %w", err)
	}
	if len(years) == 0 {
		return chat.Render(ctx, w.messenger, target, nothingToRemoveText, panelKeyboard())
	}

	buttons := make([]models.InlineKeyboardButton, 0, len(years)+1)
	for _, year := range years {
		buttons = append(buttons, chat.Button("🗑 "+year.Name, callback.WithID(callback.RemoveYear, year.YearID).String()))
	}
	return chat.Render(ctx, w.messenger, target, pickYearToRemoveText, withCancel(buttons))
}

func (w *Workflow) listTermsForRemoval(ctx context.Context, target chat.Target) error {
	terms, labels, err := w.labelledTerms(ctx)
	if err != nil {
		return err
	}
	if len(terms) == 0 {
		return chat.Render(ctx, w.messenger, target, nothingToRemoveText, panelKeyboard())
	}

	buttons := make([]models.InlineKeyboardButton, 0, len(terms)+1)
	for _, term := range terms {
		buttons = append(buttons, chat.Button("🗑 "+labels[term.TermID], callback.WithID(callback.RemoveTerm, term.TermID).String()))
	}
	return chat.Render(ctx, w.messenger, target, pickTermToRemoveText, withCancel(buttons))
}

func (w *Workflow) listFilesForRemoval(ctx context.Context, target chat.Target, courseID int64) error {
	files, err := w.catalog.ListFiles(ctx, courseID)
	if err != nil {
		return fmt.Errorf("list files of course %d: %w", courseID, err)
	}
	if len(files) == 0 {
		return chat.Render(ctx, w.messenger, target, noFilesText, panelKeyboard())
	}

	buttons := make([]models.InlineKeyboardButton, 0, len(files)+1)
	for _, file := range files {
		buttons = append(buttons, chat.Button("🗑 "+file.Name, callback.WithID(callback.RemoveFile, file.FileID).String()))
	}
	return chat.Render(ctx, w.messenger, target, pickFileToRemoveText, withCancel(buttons))
}

// labelledTerms returns every term with a "Year · Term" label keyed by term id.
func (w *Workflow) labelledTerms(ctx context.Context) ([]domain.Term, map[int64]string, error) {
	years, err := w.catalog.ListYears(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("list years: %w", err)
	}
	terms, err := w.catalog.ListAllTerms(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("list terms: %w", err)
	}

	yearNames := make(map[int64]string, len(years))
	for _, year := range years {
		yearNames[year.YearID] = year.Name
	}

	labels := make(map[int64]string, len(terms))
	for _, term := range terms {
		label := term.Name
		if yearName, ok := yearNames[term.YearID]; ok {
			label = yearName + " · " + term.Name
		}
		labels[term.TermID] = label
	}
	return terms, labels, nil
}

func (w *Workflow) showUsers(ctx context.Context, target chat.Target) error {
	total, err := w.users.Count(ctx)
	if err != nil {
		return fmt.Errorf("count users: %w", err)
	}
	banned, err := w.users.CountBanned(ctx)
	if err != nil {
		return fmt.Errorf("count banned users: %w", err)
	}
	recent, err := w.users.ListRecent(ctx, recentUsersLimit)
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "👥 Users: %d (banned: %d)", total, banned)
	if len(recent) > 0 {
		b.WriteString("\n\nRecently active:")
		for _, user := range recent {
			fmt.Fprintf(&b, "\n• %s", user.Handle())
			if user.Username != "" {
				fmt.Fprintf(&b, " (%d)", user.UserID)
			}
			if user.IsBanned {
				b.WriteString(" 🚫")
			}
		}
	}

	return chat.Render(ctx, w.messenger, target, b.String(), panelKeyboard())
}

func (w *Workflow) record(op, result string) {
	if w.metrics != nil {
		w.metrics.AdminOperation(op, result)
	}
}

func (w *Workflow) entry(ev chat.Event, op string) *logrus.Entry {
	return logging.Enrich(w.logger, logging.Context{
		UserID:   ev.UserID,
		ChatID:   ev.ChatID,
		Event:    "admin_" + op,
		Action:   ev.Text,
		Operator: true,
	})
}

func childrenOf(children, name string) *string {
	text := fmt.Sprintf(hasChildrenText, name, children)
	return &text
}

func banResultText(userID int64, banned bool) string {
	if banned {
		return fmt.Sprintf(bannedText, userID)
	}
	return fmt.Sprintf(unbannedText, userID)
}

func stateLabel(enabled bool) string {
	if enabled {
		return "enabled"
	}
	return "disabled"
}

func plainButton(text string, kind callback.Kind) models.InlineKeyboardButton {
	return chat.Button(text, callback.Plain(kind).String())
}

func cancelKeyboard() *models.InlineKeyboardMarkup {
	return chat.Keyboard(plainButton("✖️ Cancel", callback.Cancel))
}

func panelKeyboard() *models.InlineKeyboardMarkup {
	return chat.Keyboard(plainButton("🛠 Admin panel", callback.AdminPanel))
}

func withCancel(buttons []models.InlineKeyboardButton) *models.InlineKeyboardMarkup {
	return chat.Keyboard(append(buttons, plainButton("✖️ Cancel", callback.Cancel))...)
}
