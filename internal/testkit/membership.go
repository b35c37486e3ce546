package testkit

import (
	"context"
	"errors"
	"sync"
)

// Members answers membership lookups from a per-channel set of joined users.
// Channels listed in Failing return an error for every user.
type Members struct {
	mu      sync.Mutex
	joined  map[int64]map[int64]bool
	Failing map[int64]bool
}

// NewMembers builds an empty lookup.
func NewMembers() *Members {
	return &Members{joined: map[int64]map[int64]bool{}, Failing: map[int64]bool{}}
}

// Join marks userID as a member of each channel.
func (m *Members) Join(userID int64, channels ...int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ch := range channels {
		if m.joined[ch] == nil {
			m.joined[ch] = map[int64]bool{}
		}
		m.joined[ch][userID] = true
	}
}

// MemberStatus reports "member" or "left".
func (m *Members) MemberStatus(_ context.Context, channelID, userID int64) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Failing[channelID] {
		return "", errors.New("chat not found")
	}
	if m.joined[channelID][userID] {
		return "member", nil
	}
	return "left", nil
}
