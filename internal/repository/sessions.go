package repository

import (
	"context"
	"errors"
	"time"

	"walletdesk/internal/entity"
	"walletdesk/internal/store"
)

// ErrSessionImmutable is returned by any attempt to update a session. Sessions
// never mutate; create a new one instead. This is the one condition in the
// repository layer that fails loudly, because a silent no-op would hide a
// caller bug.
var ErrSessionImmutable = errors.New("sessions are immutable, create a new session instead")

// SessionStats is the Session repository's aggregate snapshot. Average
// duration is the mean createdAt to expiresAt span in hours, computed only
// over expired sessions.
type SessionStats struct {
	Total            int64          `json:"total"`
	Active           int            `json:"active"`
	Expired          int            `json:"expired"`
	ByUser           map[string]int `json:"byUser"`
	AvgDurationHours float64        `json:"avgDurationHours"`
	Last24h          int            `json:"last24h"`
}

// SessionRepository owns CRUD access and lifecycle rules for sessions. Reads
// that discover an expired session evict it as a side effect (lazy expiry);
// that read-then-delete is two store calls, so a concurrent revoke can slip
// between them.
type SessionRepository struct {
	engine[entity.Session, entity.NewSession, struct{}]
}

func NewSessionRepository(s store.Store[entity.Session]) *SessionRepository {
	return &SessionRepository{
		engine: engine[entity.Session, entity.NewSession, struct{}]{
			store: s,
			build: func(id string, now time.Time, input entity.NewSession) entity.Session {
				return entity.Session{
					ID:        id,
					UserID:    input.UserID,
					Token:     input.Token,
					ExpiresAt: input.ExpiresAt,
					CreatedAt: now,
				}
			},
		},
	}
}

// Update always fails: see ErrSessionImmutable.
func (r *SessionRepository) Update(_ context.Context, _ string, _ struct{}) (entity.Session, bool, error) {
	return entity.Session{}, false, ErrSessionImmutable
}

// FindByToken looks a session up by token. An expired session is deleted as a
// side effect and reported absent.
func (r *SessionRepository) FindByToken(ctx context.Context, token string) (entity.Session, bool, error) {
	sess, err := r.store.FindOneBy(ctx, "token", token)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return entity.Session{}, false, nil
		}
		return entity.Session{}, false, err
	}

	if sess.ExpiredAt(TimeNow().UTC()) {
		if _, err := r.store.Delete(ctx, sess.ID); err != nil {
			return entity.Session{}, false, err
		}
		return entity.Session{}, false, nil
	}
	return sess, true, nil
}

// FindValidByToken layers an explicit expiry check over FindByToken.
func (r *SessionRepository) FindValidByToken(ctx context.Context, token string) (entity.Session, bool, error) {
	sess, found, err := r.FindByToken(ctx, token)
	if err != nil || !found {
		return entity.Session{}, false, err
	}
	if sess.ExpiredAt(TimeNow().UTC()) {
		return entity.Session{}, false, nil
	}
	return sess, true, nil
}

// FindByUserID returns the user's live sessions, evicting any expired ones it
// encounters.
func (r *SessionRepository) FindByUserID(ctx context.Context, userID string) ([]entity.Session, error) {
	sessions, err := r.store.FindBy(ctx, "user_id", userID, 0)
	if err != nil {
		return nil, err
	}

	now := TimeNow().UTC()
	live := []entity.Session{}
	for _, sess := range sessions {
		if sess.ExpiredAt(now) {
			if _, err := r.store.Delete(ctx, sess.ID); err != nil {
				return nil, err
			}
			continue
		}
		live = append(live, sess)
	}
	return live, nil
}

// RevokeUserSessions deletes every session owned by the user and returns the
// count removed.
func (r *SessionRepository) RevokeUserSessions(ctx context.Context, userID string) (int, error) {
	sessions, err := r.store.FindBy(ctx, "user_id", userID, 0)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, sess := range sessions {
		ok, err := r.store.Delete(ctx, sess.ID)
		if err != nil {
			return removed, err
		}
		if ok {
			removed++
		}
	}
	return removed, nil
}

// RevokeSession deletes the session matching the token, reporting whether one
// existed.
func (r *SessionRepository) RevokeSession(ctx context.Context, token string) (bool, error) {
	sess, err := r.store.FindOneBy(ctx, "token", token)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return r.store.Delete(ctx, sess.ID)
}

// CleanupExpiredSessions scans all sessions and deletes every expired one,
// returning the count. The registry sweeper calls this on a timer.
func (r *SessionRepository) CleanupExpiredSessions(ctx context.Context) (int, error) {
	sessions, err := r.store.List(ctx, 0, 0)
	if err != nil {
		return 0, err
	}

	now := TimeNow().UTC()
	removed := 0
	for _, sess := range sessions {
		if !sess.ExpiredAt(now) {
			continue
		}
		ok, err := r.store.Delete(ctx, sess.ID)
		if err != nil {
			return removed, err
		}
		if ok {
			removed++
		}
	}
	return removed, nil
}

// ExtendSession replaces the session with one carrying the same token and user
// and the new expiry. Never a mutation: the old record is deleted and a fresh
// one created, with a window in between where the token is absent from
// storage.
func (r *SessionRepository) ExtendSession(ctx context.Context, token string, newExpiry time.Time) (entity.Session, bool, error) {
	sess, err := r.store.FindOneBy(ctx, "token", token)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return entity.Session{}, false, nil
		}
		return entity.Session{}, false, err
	}

	if _, err := r.store.Delete(ctx, sess.ID); err != nil {
		return entity.Session{}, false, err
	}

	replacement, err := r.Create(ctx, entity.NewSession{
		UserID:    sess.UserID,
		Token:     sess.Token,
		ExpiresAt: newExpiry,
	})
	if err != nil {
		return entity.Session{}, false, err
	}
	return replacement, true, nil
}

// Stats aggregates the session population.
func (r *SessionRepository) Stats(ctx context.Context) (SessionStats, error) {
	sessions, err := r.store.List(ctx, 0, 0)
	if err != nil {
		return SessionStats{}, err
	}

	now := TimeNow().UTC()
	cutoff := now.Add(-24 * time.Hour)
	stats := SessionStats{
		Total:  int64(len(sessions)),
		ByUser: map[string]int{},
	}

	var expiredHours float64
	for _, sess := range sessions {
		stats.ByUser[sess.UserID]++
		if sess.CreatedAt.After(cutoff) {
			stats.Last24h++
		}
		if sess.ExpiredAt(now) {
			stats.Expired++
			expiredHours += sess.ExpiresAt.Sub(sess.CreatedAt).Hours()
		} else {
			stats.Active++
		}
	}
	if stats.Expired > 0 {
		stats.AvgDurationHours = expiredHours / float64(stats.Expired)
	}
	return stats, nil
}
