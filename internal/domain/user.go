package domain

import "time"

// User represents a Telegram user that has interacted with the bot.
type User struct {
	UserID       int64     `bson:"user_id" json:"user_id"`
	Username     string    `bson:"username,omitempty" json:"username,omitempty"`
	IsBanned     bool      `bson:"is_banned" json:"is_banned"`
	MembershipOK bool      `bson:"membership_ok" json:"membership_ok"`
	JoinedAt     time.Time `bson:"joined_at" json:"joined_at"`
	LastSeenAt   time.Time `bson:"last_seen_at" json:"last_seen_at"`
}

// Handle returns the @username form when known, otherwise the numeric id.
func (u User) Handle() string {
	if u.Username != "" {
		return "@" + u.Username
	}
	return formatID(u.UserID)
}
