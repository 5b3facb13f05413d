package repository

import (
	"context"
	"errors"
	"math/big"
	"sort"
	"time"

	"walletdesk/internal/entity"
	"walletdesk/internal/store"
)

// TransactionStats is the Transaction repository's aggregate snapshot.
// TotalValue and AverageGasUsed are arbitrary-precision; entities whose
// numeric fields fail to parse are skipped. AverageGasUsed is the integer
// division of the gas sum by the number of transactions reporting gas, "0"
// when none do.
type TransactionStats struct {
	Total          int64                            `json:"total"`
	ByStatus       map[entity.TransactionStatus]int `json:"byStatus"`
	TotalValue     string                           `json:"totalValue"`
	AverageGasUsed string                           `json:"averageGasUsed"`
	Last24h        int                              `json:"last24h"`
}

// TransactionRepository owns CRUD access and domain queries for transactions.
// Status transitions are forward-only by caller contract; the repository does
// not re-check them on update.
type TransactionRepository struct {
	engine[entity.Transaction, entity.NewTransaction, entity.TransactionPatch]
}

func NewTransactionRepository(s store.Store[entity.Transaction]) *TransactionRepository {
	return &TransactionRepository{
		engine: engine[entity.Transaction, entity.NewTransaction, entity.TransactionPatch]{
			store: s,
			build: func(id string, now time.Time, input entity.NewTransaction) entity.Transaction {
				return entity.Transaction{
					ID:             id,
					UserID:         input.UserID,
					SmartAccountID: input.SmartAccountID,
					Hash:           input.Hash,
					UserOpHash:     input.UserOpHash,
					To:             input.To,
					Value:          input.Value,
					Data:           input.Data,
					Status:         entity.StatusPending,
					CreatedAt:      now,
					UpdatedAt:      now,
				}
			},
			apply: func(rec entity.Transaction, patch entity.TransactionPatch, now time.Time) entity.Transaction {
				if patch.Status != nil {
					rec.Status = *patch.Status
				}
				if patch.GasUsed != nil {
					rec.GasUsed = patch.GasUsed
				}
				rec.UpdatedAt = now
				return rec
			},
		},
	}
}

// FindByHash returns the transaction with the given hash, or absent.
func (r *TransactionRepository) FindByHash(ctx context.Context, hash string) (entity.Transaction, bool, error) {
	return r.findOne(ctx, "hash", hash)
}

// FindByUserOpHash returns the transaction with the given userOp hash, or
// absent.
func (r *TransactionRepository) FindByUserOpHash(ctx context.Context, userOpHash string) (entity.Transaction, bool, error) {
	return r.findOne(ctx, "user_op_hash", userOpHash)
}

func (r *TransactionRepository) findOne(ctx context.Context, column, value string) (entity.Transaction, bool, error) {
	tx, err := r.store.FindOneBy(ctx, column, value)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return entity.Transaction{}, false, nil
		}
		return entity.Transaction{}, false, err
	}
	return tx, true, nil
}

// FindByUserID returns the user's transactions, newest first.
func (r *TransactionRepository) FindByUserID(ctx context.Context, userID string) ([]entity.Transaction, error) {
	return r.findSorted(ctx, "user_id", userID)
}

// FindBySmartAccountID returns the account's transactions, newest first.
func (r *TransactionRepository) FindBySmartAccountID(ctx context.Context, accountID string) ([]entity.Transaction, error) {
	return r.findSorted(ctx, "smart_account_id", accountID)
}

func (r *TransactionRepository) findSorted(ctx context.Context, column string, value any) ([]entity.Transaction, error) {
	txs, err := r.store.FindBy(ctx, column, value, 0)
	if err != nil {
		return nil, err
	}
	sortNewestFirst(txs)
	return txs, nil
}

// FindByStatus returns every transaction in the given status.
func (r *TransactionRepository) FindByStatus(ctx context.Context, status entity.TransactionStatus) ([]entity.Transaction, error) {
	return r.store.FindBy(ctx, "status", status, 0)
}

// FindPendingTransactions returns every transaction still awaiting a receipt.
func (r *TransactionRepository) FindPendingTransactions(ctx context.Context) ([]entity.Transaction, error) {
	return r.FindByStatus(ctx, entity.StatusPending)
}

// FindRecentTransactions returns the newest transactions across all users.
func (r *TransactionRepository) FindRecentTransactions(ctx context.Context, limit int) ([]entity.Transaction, error) {
	txs, err := r.store.List(ctx, 0, 0)
	if err != nil {
		return nil, err
	}
	sortNewestFirst(txs)
	if limit > 0 && limit < len(txs) {
		txs = txs[:limit]
	}
	return txs, nil
}

// UpdateStatus moves the transaction to the given status, optionally recording
// gas usage. Forward-only transitions are the caller's contract.
func (r *TransactionRepository) UpdateStatus(ctx context.Context, id string, status entity.TransactionStatus, gasUsed *string) (entity.Transaction, bool, error) {
	return r.Update(ctx, id, entity.TransactionPatch{Status: &status, GasUsed: gasUsed})
}

// MarkAsConfirmed settles the transaction with its gas receipt.
func (r *TransactionRepository) MarkAsConfirmed(ctx context.Context, id, gasUsed string) (entity.Transaction, bool, error) {
	return r.UpdateStatus(ctx, id, entity.StatusConfirmed, &gasUsed)
}

// MarkAsFailed settles the transaction as failed.
func (r *TransactionRepository) MarkAsFailed(ctx context.Context, id string) (entity.Transaction, bool, error) {
	return r.UpdateStatus(ctx, id, entity.StatusFailed, nil)
}

// BulkUpdateStatus applies UpdateStatus to each id sequentially. There is no
// rollback: a failure partway leaves a mixed-state batch, and the applied
// count tells the caller how far it got.
func (r *TransactionRepository) BulkUpdateStatus(ctx context.Context, ids []string, status entity.TransactionStatus) (int, error) {
	applied := 0
	for _, id := range ids {
		_, found, err := r.UpdateStatus(ctx, id, status, nil)
		if err != nil {
			return applied, err
		}
		if found {
			applied++
		}
	}
	return applied, nil
}

// Stats aggregates the transaction population.
func (r *TransactionRepository) Stats(ctx context.Context) (TransactionStats, error) {
	txs, err := r.store.List(ctx, 0, 0)
	if err != nil {
		return TransactionStats{}, err
	}

	stats := TransactionStats{
		Total:    int64(len(txs)),
		ByStatus: map[entity.TransactionStatus]int{},
	}

	cutoff := TimeNow().UTC().Add(-24 * time.Hour)
	totalValue := new(big.Int)
	gasSum := new(big.Int)
	gasReporting := int64(0)

	for _, tx := range txs {
		stats.ByStatus[tx.Status]++
		if tx.CreatedAt.After(cutoff) {
			stats.Last24h++
		}
		if tx.Value != nil {
			if v, ok := new(big.Int).SetString(*tx.Value, 10); ok {
				totalValue.Add(totalValue, v)
			}
		}
		if tx.GasUsed != nil {
			if g, ok := new(big.Int).SetString(*tx.GasUsed, 10); ok {
				gasSum.Add(gasSum, g)
				gasReporting++
			}
		}
	}

	stats.TotalValue = totalValue.String()
	if gasReporting == 0 {
		stats.AverageGasUsed = "0"
	} else {
		stats.AverageGasUsed = gasSum.Div(gasSum, big.NewInt(gasReporting)).String()
	}
	return stats, nil
}

func sortNewestFirst(txs []entity.Transaction) {
	sort.SliceStable(txs, func(i, j int) bool {
		return txs[i].CreatedAt.After(txs[j].CreatedAt)
	})
}
