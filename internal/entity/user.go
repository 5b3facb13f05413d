package entity

import "time"

// User anchors identity for the dashboard. Created at first authentication and
// never deleted; the only mutation ever applied is a lastLogin stamp.
type User struct {
	ID        string     `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Email     string     `gorm:"type:varchar(255);uniqueIndex" json:"email"`
	CreatedAt time.Time  `json:"createdAt"`
	LastLogin *time.Time `json:"lastLogin,omitempty"`
}

func (u User) RecordID() string { return u.ID }

// NewUser is the create input for User. Email format is validated by the
// caller before it reaches the repository.
type NewUser struct {
	Email string `json:"email"`
}

// UserPatch carries the single permitted user mutation.
type UserPatch struct {
	LastLogin *time.Time `json:"lastLogin,omitempty"`
}
