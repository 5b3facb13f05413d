package repository

import (
	"context"
	"math/big"
	"strings"
	"time"

	"walletdesk/internal/entity"
	"walletdesk/internal/store"
)

// AccountStats is the SmartAccount repository's aggregate snapshot. The total
// balance is an arbitrary-precision integer sum over all parseable balance
// strings; unparseable values are skipped, never fatal.
type AccountStats struct {
	Total        int64           `json:"total"`
	Deployed     int             `json:"deployed"`
	Undeployed   int             `json:"undeployed"`
	ByChain      map[int64]int   `json:"byChain"`
	TotalBalance string          `json:"totalBalance"`
}

// AccountRepository owns CRUD access and domain queries for smart accounts.
// Addresses are normalized to lowercase on the way in and on lookup.
type AccountRepository struct {
	engine[entity.SmartAccount, entity.NewSmartAccount, entity.SmartAccountPatch]
}

func NewAccountRepository(s store.Store[entity.SmartAccount]) *AccountRepository {
	return &AccountRepository{
		engine: engine[entity.SmartAccount, entity.NewSmartAccount, entity.SmartAccountPatch]{
			store: s,
			build: func(id string, now time.Time, input entity.NewSmartAccount) entity.SmartAccount {
				signer := input.SignerAddress
				if signer != nil {
					lowered := strings.ToLower(*signer)
					signer = &lowered
				}
				return entity.SmartAccount{
					ID:            id,
					UserID:        input.UserID,
					Address:       strings.ToLower(input.Address),
					ChainID:       input.ChainID,
					SignerAddress: signer,
					IsDeployed:    false,
					CreatedAt:     now,
					UpdatedAt:     now,
				}
			},
			apply: func(rec entity.SmartAccount, patch entity.SmartAccountPatch, now time.Time) entity.SmartAccount {
				if patch.IsDeployed != nil {
					rec.IsDeployed = *patch.IsDeployed
				}
				if patch.Balance != nil {
					rec.Balance = patch.Balance
				}
				if patch.Nonce != nil {
					rec.Nonce = patch.Nonce
				}
				rec.UpdatedAt = now
				return rec
			},
		},
	}
}

// FindByAddress returns every account at the given address across chains.
// Matching is case-insensitive: the query is lowercased to meet the stored
// form.
func (r *AccountRepository) FindByAddress(ctx context.Context, address string) ([]entity.SmartAccount, error) {
	return r.store.FindBy(ctx, "address", strings.ToLower(address), 0)
}

// FindByUserID returns every account owned by the user.
func (r *AccountRepository) FindByUserID(ctx context.Context, userID string) ([]entity.SmartAccount, error) {
	return r.store.FindBy(ctx, "user_id", userID, 0)
}

// FindByChainID returns every account on the given chain.
func (r *AccountRepository) FindByChainID(ctx context.Context, chainID int64) ([]entity.SmartAccount, error) {
	return r.store.FindBy(ctx, "chain_id", chainID, 0)
}

// FindDeployedAccounts returns deployed accounts, optionally narrowed to one
// chain.
func (r *AccountRepository) FindDeployedAccounts(ctx context.Context, chainID *int64) ([]entity.SmartAccount, error) {
	return r.findByDeployment(ctx, true, chainID)
}

// FindUndeployedAccounts returns counterfactual accounts, optionally narrowed
// to one chain.
func (r *AccountRepository) FindUndeployedAccounts(ctx context.Context, chainID *int64) ([]entity.SmartAccount, error) {
	return r.findByDeployment(ctx, false, chainID)
}

func (r *AccountRepository) findByDeployment(ctx context.Context, deployed bool, chainID *int64) ([]entity.SmartAccount, error) {
	accounts, err := r.store.FindBy(ctx, "is_deployed", deployed, 0)
	if err != nil {
		return nil, err
	}
	if chainID == nil {
		return accounts, nil
	}

	filtered := []entity.SmartAccount{}
	for _, acc := range accounts {
		if acc.ChainID == *chainID {
			filtered = append(filtered, acc)
		}
	}
	return filtered, nil
}

// UpdateBalance refreshes the cached balance, stamping updatedAt.
func (r *AccountRepository) UpdateBalance(ctx context.Context, id, balance string) (entity.SmartAccount, bool, error) {
	return r.Update(ctx, id, entity.SmartAccountPatch{Balance: &balance})
}

// UpdateNonce refreshes the cached nonce, stamping updatedAt.
func (r *AccountRepository) UpdateNonce(ctx context.Context, id string, nonce uint64) (entity.SmartAccount, bool, error) {
	return r.Update(ctx, id, entity.SmartAccountPatch{Nonce: &nonce})
}

// MarkAsDeployed flips isDeployed true once on-chain deployment is confirmed.
// Re-invocation on an already-deployed account is not guarded here: it
// re-stamps updatedAt and leaves the flag true. Callers must not call it twice.
func (r *AccountRepository) MarkAsDeployed(ctx context.Context, id string) (entity.SmartAccount, bool, error) {
	deployed := true
	return r.Update(ctx, id, entity.SmartAccountPatch{IsDeployed: &deployed})
}

// Stats aggregates the account population.
func (r *AccountRepository) Stats(ctx context.Context) (AccountStats, error) {
	accounts, err := r.store.List(ctx, 0, 0)
	if err != nil {
		return AccountStats{}, err
	}

	stats := AccountStats{
		Total:   int64(len(accounts)),
		ByChain: map[int64]int{},
	}

	total := new(big.Int)
	for _, acc := range accounts {
		if acc.IsDeployed {
			stats.Deployed++
		} else {
			stats.Undeployed++
		}
		stats.ByChain[acc.ChainID]++

		if acc.Balance == nil {
			continue
		}
		if bal, ok := new(big.Int).SetString(*acc.Balance, 10); ok {
			total.Add(total, bal)
		}
	}
	stats.TotalBalance = total.String()
	return stats, nil
}
