package repository_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"walletdesk/internal/entity"
	"walletdesk/internal/repository"
)

var _ = Describe("SessionRepository", func() {
	var (
		registry *repository.Registry
		repo     *repository.SessionRepository
		ctx      context.Context
		now      time.Time
	)

	BeforeEach(func() {
		registry = repository.NewMemory(zap.NewNop().Sugar())
		repo = registry.Sessions
		ctx = context.Background()

		now = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
		repository.TimeNow = func() time.Time { return now }
	})

	AfterEach(func() {
		repository.TimeNow = time.Now
	})

	newSession := func(userID, token string, ttl time.Duration) entity.Session {
		sess, err := repo.Create(ctx, entity.NewSession{
			UserID:    userID,
			Token:     token,
			ExpiresAt: now.Add(ttl),
		})
		Expect(err).NotTo(HaveOccurred())
		return sess
	}

	Describe("Create and FindByID", func() {
		It("round trips the session", func() {
			created := newSession("u1", "aabbccddeeff00112233445566778899", time.Hour)

			found, ok, err := repo.FindByID(ctx, created.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeTrue())
			Expect(found).To(Equal(created))
			Expect(found.CreatedAt).To(Equal(now))
		})
	})

	Describe("Update", func() {
		It("always fails without mutating storage", func() {
			created := newSession("u1", "aabbccddeeff00112233445566778899", time.Hour)

			_, _, err := repo.Update(ctx, created.ID, struct{}{})
			Expect(err).To(MatchError(repository.ErrSessionImmutable))

			found, ok, err := repo.FindByID(ctx, created.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeTrue())
			Expect(found).To(Equal(created))
		})
	})

	Describe("FindByToken", func() {
		When("the session is live", func() {
			It("returns it", func() {
				created := newSession("u1", "aabbccddeeff00112233445566778899", time.Hour)

				found, ok, err := repo.FindByToken(ctx, created.Token)
				Expect(err).NotTo(HaveOccurred())
				Expect(ok).To(BeTrue())
				Expect(found.ID).To(Equal(created.ID))
			})
		})

		When("the session is expired", func() {
			It("evicts it and reports absent", func() {
				created := newSession("u1", "aabbccddeeff00112233445566778899", -time.Second)

				before, err := repo.Count(ctx)
				Expect(err).NotTo(HaveOccurred())

				_, ok, err := repo.FindByToken(ctx, created.Token)
				Expect(err).NotTo(HaveOccurred())
				Expect(ok).To(BeFalse())

				after, err := repo.Count(ctx)
				Expect(err).NotTo(HaveOccurred())
				Expect(after).To(Equal(before - 1))

				_, ok, err = repo.FindByID(ctx, created.ID)
				Expect(err).NotTo(HaveOccurred())
				Expect(ok).To(BeFalse())
			})
		})

		When("no session matches the token", func() {
			It("reports absent", func() {
				_, ok, err := repo.FindByToken(ctx, "0000000000000000000000000000000000000000")
				Expect(err).NotTo(HaveOccurred())
				Expect(ok).To(BeFalse())
			})
		})
	})

	Describe("FindValidByToken", func() {
		It("returns only live sessions", func() {
			created := newSession("u1", "aabbccddeeff00112233445566778899", time.Hour)

			found, ok, err := repo.FindValidByToken(ctx, created.Token)
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeTrue())
			Expect(found.ID).To(Equal(created.ID))

			now = now.Add(2 * time.Hour)
			_, ok, err = repo.FindValidByToken(ctx, created.Token)
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeFalse())
		})
	})

	Describe("FindByUserID", func() {
		It("returns live sessions and evicts expired ones", func() {
			live := newSession("u1", "aabbccddeeff00112233445566778801", time.Hour)
			newSession("u1", "aabbccddeeff00112233445566778802", -time.Minute)
			newSession("u2", "aabbccddeeff00112233445566778803", time.Hour)

			sessions, err := repo.FindByUserID(ctx, "u1")
			Expect(err).NotTo(HaveOccurred())
			Expect(sessions).To(HaveLen(1))
			Expect(sessions[0].ID).To(Equal(live.ID))

			count, err := repo.Count(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(count).To(Equal(int64(2)))
		})
	})

	Describe("RevokeUserSessions", func() {
		It("removes exactly the user's sessions and returns the count", func() {
			newSession("u1", "aabbccddeeff00112233445566778801", time.Hour)
			newSession("u1", "aabbccddeeff00112233445566778802", time.Hour)
			newSession("u1", "aabbccddeeff00112233445566778803", time.Hour)
			other := newSession("u2", "aabbccddeeff00112233445566778804", time.Hour)

			removed, err := repo.RevokeUserSessions(ctx, "u1")
			Expect(err).NotTo(HaveOccurred())
			Expect(removed).To(Equal(3))

			sessions, err := repo.FindByUserID(ctx, "u1")
			Expect(err).NotTo(HaveOccurred())
			Expect(sessions).To(BeEmpty())

			_, ok, err := repo.FindByID(ctx, other.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeTrue())
		})
	})

	Describe("RevokeSession", func() {
		It("deletes the matching session", func() {
			created := newSession("u1", "aabbccddeeff00112233445566778899", time.Hour)

			ok, err := repo.RevokeSession(ctx, created.Token)
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeTrue())

			ok, err = repo.RevokeSession(ctx, created.Token)
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeFalse())
		})
	})

	Describe("CleanupExpiredSessions", func() {
		It("removes every expired session and returns the count", func() {
			newSession("u1", "aabbccddeeff00112233445566778801", -time.Minute)
			newSession("u2", "aabbccddeeff00112233445566778802", -time.Hour)
			keep := newSession("u3", "aabbccddeeff00112233445566778803", time.Hour)

			removed, err := repo.CleanupExpiredSessions(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(removed).To(Equal(2))

			count, err := repo.Count(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(count).To(Equal(int64(1)))

			_, ok, err := repo.FindByID(ctx, keep.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeTrue())
		})
	})

	Describe("ExtendSession", func() {
		It("replaces the session under the same token with the new expiry", func() {
			created := newSession("u1", "aabbccddeeff00112233445566778899", time.Hour)
			newExpiry := now.Add(48 * time.Hour)

			replacement, ok, err := repo.ExtendSession(ctx, created.Token, newExpiry)
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeTrue())
			Expect(replacement.ID).NotTo(Equal(created.ID))
			Expect(replacement.Token).To(Equal(created.Token))
			Expect(replacement.UserID).To(Equal(created.UserID))
			Expect(replacement.ExpiresAt).To(Equal(newExpiry))

			count, err := repo.Count(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(count).To(Equal(int64(1)))
		})

		It("reports absent for an unknown token", func() {
			_, ok, err := repo.ExtendSession(ctx, "ffffffffffffffffffffffffffffffff", now.Add(time.Hour))
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeFalse())
		})
	})

	Describe("Stats", func() {
		It("reports totals, per-user counts and expired-session mean duration", func() {
			// two expired sessions with 2h and 4h lifespans, one live
			newSession("u1", "aabbccddeeff00112233445566778801", time.Hour)
			expired1, err := repo.Create(ctx, entity.NewSession{
				UserID: "u1", Token: "aabbccddeeff00112233445566778802", ExpiresAt: now.Add(-time.Hour),
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(expired1.CreatedAt).To(Equal(now))

			repository.TimeNow = func() time.Time { return now.Add(-4 * time.Hour) }
			_, err = repo.Create(ctx, entity.NewSession{
				UserID: "u2", Token: "aabbccddeeff00112233445566778803", ExpiresAt: now.Add(-2 * time.Hour),
			})
			Expect(err).NotTo(HaveOccurred())
			repository.TimeNow = func() time.Time { return now }

			stats, err := repo.Stats(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(stats.Total).To(Equal(int64(3)))
			Expect(stats.Active).To(Equal(1))
			Expect(stats.Expired).To(Equal(2))
			Expect(stats.ByUser).To(Equal(map[string]int{"u1": 2, "u2": 1}))
			// expired spans: -1h (created now, expires now-1h) and 2h
			Expect(stats.AvgDurationHours).To(BeNumerically("~", 0.5, 1e-9))
			Expect(stats.Last24h).To(Equal(3))
		})
	})
})
