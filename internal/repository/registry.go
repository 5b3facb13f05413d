package repository

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"walletdesk/internal/entity"
	"walletdesk/internal/store"
	"walletdesk/internal/store/memstore"
	"walletdesk/internal/store/pgstore"
)

// AllStats is the combined statistics snapshot across every repository.
type AllStats struct {
	Users        UserStats        `json:"users"`
	Accounts     AccountStats     `json:"accounts"`
	Transactions TransactionStats `json:"transactions"`
	Sessions     SessionStats     `json:"sessions"`
}

// Registry holds one repository per entity type, constructed once at process
// start and threaded through dependency injection. No repository shares a
// storage container with another.
type Registry struct {
	Users        *UserRepository
	Accounts     *AccountRepository
	Transactions *TransactionRepository
	Sessions     *SessionRepository

	logs *zap.SugaredLogger
}

// NewRegistry wires a registry over explicit stores.
func NewRegistry(
	logs *zap.SugaredLogger,
	users store.Store[entity.User],
	accounts store.Store[entity.SmartAccount],
	transactions store.Store[entity.Transaction],
	sessions store.Store[entity.Session],
) *Registry {
	return &Registry{
		Users:        NewUserRepository(users),
		Accounts:     NewAccountRepository(accounts),
		Transactions: NewTransactionRepository(transactions),
		Sessions:     NewSessionRepository(sessions),
		logs:         logs,
	}
}

// NewMemory builds a registry over fresh in-memory stores.
func NewMemory(logs *zap.SugaredLogger) *Registry {
	return NewRegistry(logs,
		memstore.NewMap(userColumns()),
		memstore.NewMap(accountColumns()),
		memstore.NewMap(transactionColumns()),
		memstore.NewMap(sessionColumns()),
	)
}

// NewPostgres builds a registry over the shared gorm handle.
func NewPostgres(logs *zap.SugaredLogger, db *gorm.DB) *Registry {
	return NewRegistry(logs,
		pgstore.New[entity.User](db),
		pgstore.New[entity.SmartAccount](db),
		pgstore.New[entity.Transaction](db),
		pgstore.New[entity.Session](db),
	)
}

// Migrate creates the four collections on the Postgres backend.
func Migrate(db *gorm.DB) error {
	return pgstore.Migrate(db,
		&entity.User{},
		&entity.SmartAccount{},
		&entity.Transaction{},
		&entity.Session{},
	)
}

// CheckHealth runs every repository's health check and reports the overall
// result plus a per-entity breakdown. It never errors.
func (r *Registry) CheckHealth(ctx context.Context) (bool, map[string]bool) {
	checks := map[string]bool{
		"users":        r.Users.HealthCheck(ctx),
		"smartAccounts": r.Accounts.HealthCheck(ctx),
		"transactions": r.Transactions.HealthCheck(ctx),
		"sessions":     r.Sessions.HealthCheck(ctx),
	}

	healthy := true
	for _, ok := range checks {
		healthy = healthy && ok
	}
	return healthy, checks
}

// Stats gathers every repository's aggregate snapshot. The four aggregations
// run concurrently; the result does not depend on their order.
func (r *Registry) Stats(ctx context.Context) (AllStats, error) {
	var (
		all  AllStats
		mu   sync.Mutex
		wg   sync.WaitGroup
		errs []error
	)

	collect := func(f func() error) {
		defer wg.Done()
		if err := f(); err != nil {
			mu.Lock()
			errs = append(errs, err)
			mu.Unlock()
		}
	}

	wg.Add(4)
	go collect(func() error {
		s, err := r.Users.Stats(ctx)
		all.Users = s
		return err
	})
	go collect(func() error {
		s, err := r.Accounts.Stats(ctx)
		all.Accounts = s
		return err
	})
	go collect(func() error {
		s, err := r.Transactions.Stats(ctx)
		all.Transactions = s
		return err
	})
	go collect(func() error {
		s, err := r.Sessions.Stats(ctx)
		all.Sessions = s
		return err
	})
	wg.Wait()

	if len(errs) > 0 {
		return AllStats{}, errs[0]
	}
	return all, nil
}

// Sweeper is the handle returned by StartSessionCleanup; Stop cancels the
// recurring sweep. Stopping twice is safe.
type Sweeper struct {
	stop chan struct{}
	once sync.Once
	done chan struct{}
}

func (s *Sweeper) Stop() {
	s.once.Do(func() { close(s.stop) })
	<-s.done
}

// StartSessionCleanup schedules CleanupExpiredSessions on a recurring timer.
// A failed sweep is logged and never kills the timer.
func (r *Registry) StartSessionCleanup(interval time.Duration) *Sweeper {
	sw := &Sweeper{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}

	go func() {
		defer close(sw.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-sw.stop:
				return
			case <-ticker.C:
				removed, err := r.Sessions.CleanupExpiredSessions(context.Background())
				if err != nil {
					r.logs.Errorw("session cleanup sweep failed", "error", err)
					continue
				}
				if removed > 0 {
					r.logs.Infow("expired sessions removed", "count", removed)
				}
			}
		}
	}()
	return sw
}

func userColumns() map[string]memstore.Column[entity.User] {
	return map[string]memstore.Column[entity.User]{
		"email": func(u entity.User) any { return u.Email },
	}
}

func accountColumns() map[string]memstore.Column[entity.SmartAccount] {
	return map[string]memstore.Column[entity.SmartAccount]{
		"user_id":     func(a entity.SmartAccount) any { return a.UserID },
		"address":     func(a entity.SmartAccount) any { return a.Address },
		"chain_id":    func(a entity.SmartAccount) any { return a.ChainID },
		"is_deployed": func(a entity.SmartAccount) any { return a.IsDeployed },
	}
}

func transactionColumns() map[string]memstore.Column[entity.Transaction] {
	return map[string]memstore.Column[entity.Transaction]{
		"user_id":          func(t entity.Transaction) any { return t.UserID },
		"smart_account_id": func(t entity.Transaction) any { return t.SmartAccountID },
		"hash":             func(t entity.Transaction) any { return t.Hash },
		"user_op_hash": func(t entity.Transaction) any {
			if t.UserOpHash == nil {
				return nil
			}
			return *t.UserOpHash
		},
		"status": func(t entity.Transaction) any { return t.Status },
	}
}

func sessionColumns() map[string]memstore.Column[entity.Session] {
	return map[string]memstore.Column[entity.Session]{
		"user_id": func(s entity.Session) any { return s.UserID },
		"token":   func(s entity.Session) any { return s.Token },
	}
}
