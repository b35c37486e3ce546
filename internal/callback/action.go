// Package callback defines the closed vocabulary of inline button payloads and
// a reversible encoding for it.
package callback

import (
	"strconv"
	"strings"
)

// Kind names one entry of the vocabulary.
type Kind string

// Payload-free kinds. The encoded form equals the kind.
const (
	CheckChannels     Kind = "check_channels"
	Stats             Kind = "stats"
	AdminPanel        Kind = "admin_panel"
	BackToYears       Kind = "back_to_years"
	AdminAddYear      Kind = "admin_add_year"
	AdminRemoveYear   Kind = "admin_remove_year"
	AdminAddTerm      Kind = "admin_add_term"
	AdminRemoveTerm   Kind = "admin_remove_term"
	AdminAddCourse    Kind = "admin_add_course"
	AdminRemoveCourse Kind = "admin_remove_course"
	AdminAddFile      Kind = "admin_add_file"
	AdminRemoveFile   Kind = "admin_remove_file"
	AdminBanUser      Kind = "admin_ban_user"
	AdminUnbanUser    Kind = "admin_unban_user"
	AdminViewUsers    Kind = "admin_view_users"
	Cancel            Kind = "cancel"
	ToggleBot         Kind = "toggle_bot"
)

// Kinds carrying a catalog id. The encoded form is "<kind>_<id>".
const (
	Year          Kind = "year"
	Term          Kind = "term"
	Course        Kind = "course"
	RemoveYear    Kind = "remove_year"
	RemoveTerm    Kind = "remove_term"
	RemoveCourse  Kind = "remove_course"
	RemoveFile    Kind = "remove_file"
	NewTermYear   Kind = "new_term_year"
	NewCourseTerm Kind = "new_course_term"
	NewFileCourse Kind = "new_file_course"
	FilesCourse   Kind = "files_course"
)

var plainKinds = map[Kind]bool{
	CheckChannels:     false,
	Stats:             false,
	AdminPanel:        true,
	BackToYears:       false,
	AdminAddYear:      true,
	AdminRemoveYear:   true,
	AdminAddTerm:      true,
	AdminRemoveTerm:   true,
	AdminAddCourse:    true,
	AdminRemoveCourse: true,
	AdminAddFile:      true,
	AdminRemoveFile:   true,
	AdminBanUser:      true,
	AdminUnbanUser:    true,
	AdminViewUsers:    true,
	Cancel:            true,
	ToggleBot:         true,
}

var idKinds = map[Kind]bool{
	Year:          false,
	Term:          false,
	Course:        false,
	RemoveYear:    true,
	RemoveTerm:    true,
	RemoveCourse:  true,
	RemoveFile:    true,
	NewTermYear:   true,
	NewCourseTerm: true,
	NewFileCourse: true,
	FilesCourse:   true,
}

// Action is a decoded button payload. ID is zero for payload-free kinds.
type Action struct {
	Kind Kind
	ID   int64
}

// Plain builds a payload-free action.
func Plain(kind Kind) Action {
	return Action{Kind: kind}
}

// WithID builds an id-carrying action.
func WithID(kind Kind, id int64) Action {
	return Action{Kind: kind, ID: id}
}

// String encodes the action as button callback data.
func (a Action) String() string {
	if _, ok := idKinds[a.Kind]; ok {
		return string(a.Kind) + "_" + strconv.FormatInt(a.ID, 10)
	}
	return string(a.Kind)
}

// Privileged reports whether only operators may trigger the action.
func (a Action) Privileged() bool {
	if privileged, ok := plainKinds[a.Kind]; ok {
		return privileged
	}
	return idKinds[a.Kind]
}

// Valid reports whether the action belongs to the vocabulary.
func (a Action) Valid() bool {
	if _, ok := plainKinds[a.Kind]; ok {
		return a.ID == 0
	}
	if _, ok := idKinds[a.Kind]; ok {
		return a.ID > 0
	}
	return false
}

// Parse decodes callback data. Anything outside the vocabulary, including
// non-canonical ids such as "year_007", is rejected so that Parse and String
// round-trip exactly.
func Parse(data string) (Action, bool) {
	if _, ok := plainKinds[Kind(data)]; ok {
		return Plain(Kind(data)), true
	}

	idx := strings.LastIndexByte(data, '_')
	if idx <= 0 || idx == len(data)-1 {
		return Action{}, false
	}

	kind := Kind(data[:idx])
	if _, ok := idKinds[kind]; !ok {
		return Action{}, false
	}

	raw := data[idx+1:]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 || strconv.FormatInt(id, 10) != raw {
		return Action{}, false
	}

	return WithID(kind, id), true
}
