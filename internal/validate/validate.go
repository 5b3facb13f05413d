package validate

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jellydator/validation"

	"walletdesk/internal/entity"
)

// Validators for caller-side input checking. They run before repository
// calls; the repository layer itself performs no domain validation beyond
// address case-normalization.

var (
	hashRx  = regexp.MustCompile(`^0x[0-9a-fA-F]{64}$`)
	tokenRx = regexp.MustCompile(`^[0-9a-fA-F]{32,}$`)
	emailRx = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

var (
	ErrInvalidAddress = errors.New("invalid ethereum address")
	ErrInvalidChainID = errors.New("chain id must be a positive integer")
	ErrInvalidExpiry  = errors.New("expiry must be strictly in the future")
)

// TimeNow is the clock for expiry validation; tests override it.
var TimeNow = time.Now

// Address checks the 0x + 40-hex-digit address format.
func Address(address string) error {
	if !common.IsHexAddress(address) {
		return ErrInvalidAddress
	}
	return nil
}

// NormalizeAddress returns the canonical stored form of an address.
func NormalizeAddress(address string) string {
	return strings.ToLower(address)
}

// ChainID checks that the chain id is a positive integer.
func ChainID(chainID int64) error {
	if chainID <= 0 {
		return ErrInvalidChainID
	}
	return nil
}

// TxHash checks the 0x + 64-hex-digit hash format used by both transaction
// hashes and userOp hashes.
func TxHash(hash string) error {
	return validation.Validate(hash, validation.Required, validation.Match(hashRx))
}

// Email checks the email format.
func Email(email string) error {
	return validation.Validate(email, validation.Required, validation.Match(emailRx))
}

// Token checks the session bearer token format: hex, at least 32 characters.
func Token(token string) error {
	return validation.Validate(token, validation.Required, validation.Match(tokenRx))
}

// Expiry checks that the expiry is strictly in the future.
func Expiry(expiresAt time.Time) error {
	if !expiresAt.After(TimeNow()) {
		return ErrInvalidExpiry
	}
	return nil
}

// UserInput validates a user create input.
func UserInput(in *entity.NewUser) error {
	return validation.ValidateStruct(in,
		validation.Field(&in.Email, validation.Required, validation.Match(emailRx)),
	)
}

// AccountInput validates a smart-account create input.
func AccountInput(in *entity.NewSmartAccount) error {
	if err := Address(in.Address); err != nil {
		return err
	}
	if in.SignerAddress != nil {
		if err := Address(*in.SignerAddress); err != nil {
			return err
		}
	}
	if err := ChainID(in.ChainID); err != nil {
		return err
	}
	return validation.ValidateStruct(in,
		validation.Field(&in.UserID, validation.Required),
	)
}

// TransactionInput validates a transaction create input.
func TransactionInput(in *entity.NewTransaction) error {
	if err := TxHash(in.Hash); err != nil {
		return err
	}
	if in.UserOpHash != nil {
		if err := TxHash(*in.UserOpHash); err != nil {
			return err
		}
	}
	if err := Address(in.To); err != nil {
		return err
	}
	return validation.ValidateStruct(in,
		validation.Field(&in.UserID, validation.Required),
		validation.Field(&in.SmartAccountID, validation.Required),
	)
}

// SessionInput validates a session create input, including that the expiry is
// strictly in the future. The repository does not re-check expiry at creation,
// only at read time.
func SessionInput(in *entity.NewSession) error {
	if err := Token(in.Token); err != nil {
		return err
	}
	if err := Expiry(in.ExpiresAt); err != nil {
		return err
	}
	return validation.ValidateStruct(in,
		validation.Field(&in.UserID, validation.Required),
	)
}
