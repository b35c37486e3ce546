package callback

import "testing"

func TestParseKnownPayloads(t *testing.T) {
	tests := []struct {
		data string
		want Action
	}{
		{"check_channels", Plain(CheckChannels)},
		{"stats", Plain(Stats)},
		{"toggle_bot", Plain(ToggleBot)},
		{"year_12", WithID(Year, 12)},
		{"term_3", WithID(Term, 3)},
		{"course_9", WithID(Course, 9)},
		{"remove_course_41", WithID(RemoveCourse, 41)},
		{"remove_year_2", WithID(RemoveYear, 2)},
		{"new_course_term_5", WithID(NewCourseTerm, 5)},
		{"files_course_8", WithID(FilesCourse, 8)},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.data, func(t *testing.T) {
			got, ok := Parse(tt.data)
			if !ok {
				t.Fatalf("Parse(%q) rejected a known payload", tt.data)
			}
			if got != tt.want {
				t.Fatalf("Parse(%q) = %+v, want %+v", tt.data, got, tt.want)
			}
			if got.String() != tt.data {
				t.Fatalf("String() = %q, want %q", got.String(), tt.data)
			}
		})
	}
}

func TestParseRejectsUnknownPayloads(t *testing.T) {
	for _, data := range []string{
		"",
		"unknown",
		"year_",
		"year_abc",
		"year_007",
		"year_-1",
		"year_0",
		"stats_4",
		"_5",
		"remove_5",
		"back_to_terms",
		"admin_panel_1",
	} {
		if action, ok := Parse(data); ok {
			t.Fatalf("Parse(%q) accepted payload as %+v", data, action)
		}
	}
}

func TestPrivilegedSplitsAdminNamespace(t *testing.T) {
	public := []Action{
		Plain(CheckChannels), Plain(Stats), Plain(BackToYears),
		WithID(Year, 1), WithID(Term, 1), WithID(Course, 1),
	}
	for _, action := range public {
		if action.Privileged() {
			t.Fatalf("expected %s to be public", action)
		}
	}

	admin := []Action{
		Plain(AdminPanel), Plain(AdminAddYear), Plain(Cancel), Plain(ToggleBot),
		WithID(RemoveYear, 1), WithID(RemoveCourse, 1), WithID(NewFileCourse, 1),
	}
	for _, action := range admin {
		if !action.Privileged() {
			t.Fatalf("expected %s to be privileged", action)
		}
	}
}

func TestValid(t *testing.T) {
	if !WithID(Year, 4).Valid() || !Plain(Stats).Valid() {
		t.Fatalf("expected vocabulary actions to be valid")
	}
	if WithID(Year, 0).Valid() || WithID(Stats, 4).Valid() || Plain("nope").Valid() {
		t.Fatalf("expected malformed actions to be invalid")
	}
}
