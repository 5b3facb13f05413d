package repository

import (
	"context"
	"errors"
	"time"

	"walletdesk/internal/entity"
	"walletdesk/internal/store"
)

// UserStats is the User repository's aggregate snapshot.
type UserStats struct {
	Total        int64 `json:"total"`
	ActiveLast24 int   `json:"activeLast24h"`
	NewLast24    int   `json:"newLast24h"`
}

// UserRepository owns CRUD access and domain queries for users.
type UserRepository struct {
	engine[entity.User, entity.NewUser, entity.UserPatch]
}

func NewUserRepository(s store.Store[entity.User]) *UserRepository {
	return &UserRepository{
		engine: engine[entity.User, entity.NewUser, entity.UserPatch]{
			store: s,
			build: func(id string, now time.Time, input entity.NewUser) entity.User {
				return entity.User{
					ID:        id,
					Email:     input.Email,
					CreatedAt: now,
				}
			},
			apply: func(rec entity.User, patch entity.UserPatch, _ time.Time) entity.User {
				if patch.LastLogin != nil {
					rec.LastLogin = patch.LastLogin
				}
				return rec
			},
		},
	}
}

// FindByEmail returns the user with the given email, or absent.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (entity.User, bool, error) {
	user, err := r.store.FindOneBy(ctx, "email", email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return entity.User{}, false, nil
		}
		return entity.User{}, false, err
	}
	return user, true, nil
}

// RecordLogin stamps lastLogin on the user, the only mutation users ever see.
func (r *UserRepository) RecordLogin(ctx context.Context, id string) (entity.User, bool, error) {
	now := TimeNow().UTC()
	return r.Update(ctx, id, entity.UserPatch{LastLogin: &now})
}

// Stats aggregates the user population: total, users seen in the last 24
// hours, and signups in the last 24 hours.
func (r *UserRepository) Stats(ctx context.Context) (UserStats, error) {
	users, err := r.store.List(ctx, 0, 0)
	if err != nil {
		return UserStats{}, err
	}

	cutoff := TimeNow().UTC().Add(-24 * time.Hour)
	stats := UserStats{Total: int64(len(users))}
	for _, u := range users {
		if u.LastLogin != nil && u.LastLogin.After(cutoff) {
			stats.ActiveLast24++
		}
		if u.CreatedAt.After(cutoff) {
			stats.NewLast24++
		}
	}
	return stats, nil
}
