package entity

import "time"

// SmartAccount is one smart-contract wallet per (user, chain) pair. The address
// is always stored lowercase; (userId, address, chainId) is unique. Deployment,
// balance and nonce are confirmed by external collaborators and pushed in.
type SmartAccount struct {
	ID            string     `gorm:"primaryKey;autoIncrement:false" json:"id"`
	UserID        string     `gorm:"index;not null;uniqueIndex:idx_smart_accounts_owner" json:"userId"`
	Address       string     `gorm:"size:42;index;not null;uniqueIndex:idx_smart_accounts_owner" json:"address"` // 0x + 40 hex, lowercase
	ChainID       int64      `gorm:"index;not null;uniqueIndex:idx_smart_accounts_owner" json:"chainId"`
	SignerAddress *string    `gorm:"size:42;index" json:"signerAddress,omitempty"` // owning EOA key
	IsDeployed    bool       `gorm:"index;not null" json:"isDeployed"`
	Balance       *string    `gorm:"size:100" json:"balance,omitempty"` // wei, decimal string
	Nonce         *uint64    `json:"nonce,omitempty"`
	CreatedAt     time.Time  `gorm:"index" json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

func (a SmartAccount) RecordID() string { return a.ID }

func (SmartAccount) TableName() string { return "smart_accounts" }

// NewSmartAccount is the create input for SmartAccount.
type NewSmartAccount struct {
	UserID        string  `json:"userId"`
	Address       string  `json:"address"`
	ChainID       int64   `json:"chainId"`
	SignerAddress *string `json:"signerAddress,omitempty"`
}

// SmartAccountPatch merges onto an existing account; nil fields are left as is.
type SmartAccountPatch struct {
	IsDeployed *bool   `json:"isDeployed,omitempty"`
	Balance    *string `json:"balance,omitempty"`
	Nonce      *uint64 `json:"nonce,omitempty"`
}
