package entity

import "time"

// Session is an ephemeral bearer-token credential. Immutable after creation:
// no field is ever updated. Extension is delete-then-recreate under the same
// token, and reads that discover an expired session evict it.
type Session struct {
	ID        string    `gorm:"primaryKey;autoIncrement:false" json:"id"`
	UserID    string    `gorm:"index;not null" json:"userId"`
	Token     string    `gorm:"size:128;uniqueIndex;not null" json:"token"` // hex, >= 32 chars
	ExpiresAt time.Time `gorm:"index;not null" json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
}

func (s Session) RecordID() string { return s.ID }

// ExpiredAt reports whether the session is expired at the given instant.
func (s Session) ExpiredAt(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}

// NewSession is the create input for Session. The caller validates that
// ExpiresAt is strictly in the future; the repository only re-checks expiry at
// read time.
type NewSession struct {
	UserID    string    `json:"userId"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}
