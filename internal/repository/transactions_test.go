package repository_test

import (
	"context"
	"fmt"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"walletdesk/internal/entity"
	"walletdesk/internal/repository"
)

var _ = Describe("TransactionRepository", func() {
	var (
		repo *repository.TransactionRepository
		ctx  context.Context
		now  time.Time
		seq  int
	)

	BeforeEach(func() {
		repo = repository.NewMemory(zap.NewNop().Sugar()).Transactions
		ctx = context.Background()
		seq = 0

		now = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
		repository.TimeNow = func() time.Time { return now }
	})

	AfterEach(func() {
		repository.TimeNow = time.Now
	})

	newTx := func(userID, accountID string) entity.Transaction {
		seq++
		tx, err := repo.Create(ctx, entity.NewTransaction{
			UserID:         userID,
			SmartAccountID: accountID,
			Hash:           fmt.Sprintf("0x%064d", seq),
			To:             "0xaa00000000000000000000000000000000000001",
		})
		Expect(err).NotTo(HaveOccurred())
		return tx
	}

	Describe("Create", func() {
		It("starts the transaction pending with both timestamps stamped", func() {
			tx := newTx("u1", "a1")

			Expect(tx.Status).To(Equal(entity.StatusPending))
			Expect(tx.CreatedAt).To(Equal(now))
			Expect(tx.UpdatedAt).To(Equal(now))

			found, ok, err := repo.FindByID(ctx, tx.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeTrue())
			Expect(found).To(Equal(tx))
		})
	})

	Describe("FindByHash and FindByUserOpHash", func() {
		It("looks transactions up by either hash", func() {
			userOp := fmt.Sprintf("0xab%062d", 1)
			tx, err := repo.Create(ctx, entity.NewTransaction{
				UserID:         "u1",
				SmartAccountID: "a1",
				Hash:           fmt.Sprintf("0x%064d", 999),
				UserOpHash:     &userOp,
				To:             "0xaa00000000000000000000000000000000000001",
			})
			Expect(err).NotTo(HaveOccurred())

			byHash, ok, err := repo.FindByHash(ctx, tx.Hash)
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeTrue())
			Expect(byHash.ID).To(Equal(tx.ID))

			byUserOp, ok, err := repo.FindByUserOpHash(ctx, userOp)
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeTrue())
			Expect(byUserOp.ID).To(Equal(tx.ID))

			_, ok, err = repo.FindByHash(ctx, fmt.Sprintf("0x%064d", 12345))
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeFalse())
		})
	})

	Describe("per-user and per-account queries", func() {
		It("returns matches newest first", func() {
			older := newTx("u1", "a1")
			now = now.Add(time.Minute)
			newer := newTx("u1", "a1")
			newTx("u2", "a2")

			byUser, err := repo.FindByUserID(ctx, "u1")
			Expect(err).NotTo(HaveOccurred())
			Expect(byUser).To(HaveLen(2))
			Expect(byUser[0].ID).To(Equal(newer.ID))
			Expect(byUser[1].ID).To(Equal(older.ID))

			byAccount, err := repo.FindBySmartAccountID(ctx, "a1")
			Expect(err).NotTo(HaveOccurred())
			Expect(byAccount).To(HaveLen(2))
			Expect(byAccount[0].ID).To(Equal(newer.ID))
		})
	})

	Describe("FindRecentTransactions", func() {
		It("returns the newest transactions globally, capped by limit", func() {
			newTx("u1", "a1")
			now = now.Add(time.Minute)
			second := newTx("u2", "a2")
			now = now.Add(time.Minute)
			third := newTx("u3", "a3")

			recent, err := repo.FindRecentTransactions(ctx, 2)
			Expect(err).NotTo(HaveOccurred())
			Expect(recent).To(HaveLen(2))
			Expect(recent[0].ID).To(Equal(third.ID))
			Expect(recent[1].ID).To(Equal(second.ID))
		})
	})

	Describe("status transitions", func() {
		It("confirms with gas used", func() {
			tx := newTx("u1", "a1")

			updated, ok, err := repo.MarkAsConfirmed(ctx, tx.ID, "21000")
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeTrue())
			Expect(updated.Status).To(Equal(entity.StatusConfirmed))
			Expect(*updated.GasUsed).To(Equal("21000"))

			found, ok, err := repo.FindByID(ctx, tx.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeTrue())
			Expect(found.Status).To(Equal(entity.StatusConfirmed))
			Expect(*found.GasUsed).To(Equal("21000"))
		})

		It("never reports a settled transaction as pending again", func() {
			confirmed := newTx("u1", "a1")
			failed := newTx("u1", "a1")
			still := newTx("u1", "a1")

			_, _, err := repo.MarkAsConfirmed(ctx, confirmed.ID, "21000")
			Expect(err).NotTo(HaveOccurred())
			_, _, err = repo.MarkAsFailed(ctx, failed.ID)
			Expect(err).NotTo(HaveOccurred())

			pending, err := repo.FindPendingTransactions(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(pending).To(HaveLen(1))
			Expect(pending[0].ID).To(Equal(still.ID))
		})
	})

	Describe("BulkUpdateStatus", func() {
		It("applies sequentially and counts only found ids", func() {
			a := newTx("u1", "a1")
			b := newTx("u1", "a1")

			applied, err := repo.BulkUpdateStatus(ctx, []string{a.ID, "missing", b.ID}, entity.StatusFailed)
			Expect(err).NotTo(HaveOccurred())
			Expect(applied).To(Equal(2))

			failed, err := repo.FindByStatus(ctx, entity.StatusFailed)
			Expect(err).NotTo(HaveOccurred())
			Expect(failed).To(HaveLen(2))
		})
	})

	Describe("Stats", func() {
		It("aggregates status counts, value sum, gas average and 24h window", func() {
			value1 := "2000000000000000000000000000000000000000"
			value2 := "1"
			bogus := "wei?"

			mk := func(value *string) entity.Transaction {
				seq++
				tx, err := repo.Create(ctx, entity.NewTransaction{
					UserID:         "u1",
					SmartAccountID: "a1",
					Hash:           fmt.Sprintf("0x%064d", seq),
					To:             "0xaa00000000000000000000000000000000000001",
					Value:          value,
				})
				Expect(err).NotTo(HaveOccurred())
				return tx
			}

			first := mk(&value1)
			second := mk(&value2)
			mk(&bogus)

			// push one transaction outside the 24h window
			repository.TimeNow = func() time.Time { return now.Add(-25 * time.Hour) }
			mk(nil)
			repository.TimeNow = func() time.Time { return now }

			_, _, err := repo.MarkAsConfirmed(ctx, first.ID, "21000")
			Expect(err).NotTo(HaveOccurred())
			_, _, err = repo.UpdateStatus(ctx, second.ID, entity.StatusConfirmed, ptr("63000"))
			Expect(err).NotTo(HaveOccurred())

			stats, err := repo.Stats(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(stats.Total).To(Equal(int64(4)))
			Expect(stats.ByStatus[entity.StatusConfirmed]).To(Equal(2))
			Expect(stats.ByStatus[entity.StatusPending]).To(Equal(2))
			Expect(stats.TotalValue).To(Equal("2000000000000000000000000000000000000001"))
			Expect(stats.AverageGasUsed).To(Equal("42000"))
			Expect(stats.Last24h).To(Equal(3))
		})

		It("reports a zero gas average when no transaction reports gas", func() {
			newTx("u1", "a1")

			stats, err := repo.Stats(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(stats.AverageGasUsed).To(Equal("0"))
		})
	})
})

func ptr[T any](v T) *T { return &v }
