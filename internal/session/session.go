// Package session tracks which text (or document) input an operator owes the
// bot next. Entries are ephemeral and keyed by Telegram user id.
package session

import (
	"context"
	"sync"
	"time"
)

// Kind tags the armed admin intent.
type Kind string

const (
	AddYear   Kind = "add_year"
	AddTerm   Kind = "add_term"
	AddCourse Kind = "add_course"
	AddFile   Kind = "add_file"
	BanUser   Kind = "ban_user"
	UnbanUser Kind = "unban_user"
)

// Pending is an armed, not yet committed admin action. ParentID holds the
// already chosen year (AddTerm), term (AddCourse) or course (AddFile).
type Pending struct {
	Kind     Kind      `json:"kind"`
	ParentID int64     `json:"parent_id,omitempty"`
	ArmedAt  time.Time `json:"armed_at"`
}

// Table is the per-user pending action store.
//
// Take is a compare-and-clear: it removes and returns the entry only when its
// kind is one of accept (any kind when accept is empty). Two concurrent Take
// calls for the same user never both succeed.
type Table interface {
	Arm(ctx context.Context, userID int64, pending Pending) error
	Take(ctx context.Context, userID int64, accept ...Kind) (Pending, bool, error)
	Peek(ctx context.Context, userID int64) (Pending, bool, error)
	Cancel(ctx context.Context, userID int64) (bool, error)
}

// MemoryTable keeps pending actions in process memory. Entries are lost on
// restart.
type MemoryTable struct {
	mu      sync.Mutex
	entries map[int64]Pending
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryTable builds an in-memory table. A zero ttl disables expiry.
func NewMemoryTable(ttl time.Duration) *MemoryTable {
	return &MemoryTable{
		entries: make(map[int64]Pending),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Arm replaces any existing entry for userID.
func (t *MemoryTable) Arm(_ context.Context, userID int64, pending Pending) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if pending.ArmedAt.IsZero() {
		pending.ArmedAt = t.now().UTC()
	}
	t.entries[userID] = pending
	return nil
}

// Take removes and returns the entry when its kind is accepted.
func (t *MemoryTable) Take(_ context.Context, userID int64, accept ...Kind) (Pending, bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	pending, ok := t.lookupLocked(userID)
	if !ok || !accepts(accept, pending.Kind) {
		return Pending{}, false, nil
	}

	delete(t.entries, userID)
	return pending, true, nil
}

// Peek returns the entry without consuming it.
func (t *MemoryTable) Peek(_ context.Context, userID int64) (Pending, bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	pending, ok := t.lookupLocked(userID)
	return pending, ok, nil
}

// Cancel disarms userID and reports whether anything was armed.
func (t *MemoryTable) Cancel(_ context.Context, userID int64) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	_, ok := t.lookupLocked(userID)
	delete(t.entries, userID)
	return ok, nil
}

// Len reports the number of live entries.
func (t *MemoryTable) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	count := 0
	for userID := range t.entries {
		if _, ok := t.lookupLocked(userID); ok {
			count++
		}
	}
	return count
}

func (t *MemoryTable) lookupLocked(userID int64) (Pending, bool) {
	pending, ok := t.entries[userID]
	if !ok {
		return Pending{}, false
	}
	if t.ttl > 0 && t.now().Sub(pending.ArmedAt) > t.ttl {
		delete(t.entries, userID)
		return Pending{}, false
	}
	return pending, true
}

func accepts(accept []Kind, kind Kind) bool {
	if len(accept) == 0 {
		return true
	}
	for _, k := range accept {
		if k == kind {
			return true
		}
	}
	return false
}
