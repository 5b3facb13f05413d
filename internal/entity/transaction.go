package entity

import "time"

// TransactionStatus moves forward only: pending -> confirmed or pending -> failed.
type TransactionStatus string

const (
	StatusPending   TransactionStatus = "pending"
	StatusConfirmed TransactionStatus = "confirmed"
	StatusFailed    TransactionStatus = "failed"
)

// Terminal reports whether no further transition may occur from s.
func (s TransactionStatus) Terminal() bool {
	return s == StatusConfirmed || s == StatusFailed
}

// Transaction records one submitted wallet operation. Created pending,
// transitions to a terminal status exactly once, never deleted.
type Transaction struct {
	ID             string            `gorm:"primaryKey;autoIncrement:false" json:"id"`
	UserID         string            `gorm:"index;not null" json:"userId"`
	SmartAccountID string            `gorm:"index;not null" json:"smartAccountId"`
	Hash           string            `gorm:"size:66;uniqueIndex;not null" json:"hash"` // 0x + 64 hex
	UserOpHash     *string           `gorm:"size:66;uniqueIndex" json:"userOpHash,omitempty"`
	To             string            `gorm:"size:42;not null" json:"to"`
	Value          *string           `gorm:"size:100" json:"value,omitempty"` // wei, decimal string
	Data           *string           `gorm:"type:text" json:"data,omitempty"`
	Status         TransactionStatus `gorm:"size:16;index;not null" json:"status"`
	GasUsed        *string           `gorm:"size:100" json:"gasUsed,omitempty"`
	CreatedAt      time.Time         `gorm:"index" json:"createdAt"`
	UpdatedAt      time.Time         `json:"updatedAt"`
}

func (t Transaction) RecordID() string { return t.ID }

// NewTransaction is the create input for Transaction. Hash and address formats
// are validated by the caller; the repository always starts the record pending.
type NewTransaction struct {
	UserID         string  `json:"userId"`
	SmartAccountID string  `json:"smartAccountId"`
	Hash           string  `json:"hash"`
	UserOpHash     *string `json:"userOpHash,omitempty"`
	To             string  `json:"to"`
	Value          *string `json:"value,omitempty"`
	Data           *string `json:"data,omitempty"`
}

// TransactionPatch merges onto an existing transaction.
type TransactionPatch struct {
	Status  *TransactionStatus `json:"status,omitempty"`
	GasUsed *string            `json:"gasUsed,omitempty"`
}
