package pgstore

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"walletdesk/internal/entity"
	"walletdesk/internal/store"
)

// Open connects to Postgres and returns the shared gorm handle.
func Open(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// Migrate creates or updates the collections for the given models.
func Migrate(db *gorm.DB, models ...any) error {
	if err := db.AutoMigrate(models...); err != nil {
		return fmt.Errorf("failed to migrate table: %w", err)
	}
	return nil
}

// Store is the Postgres-backed storage container. It implements the same
// contract as the in-memory map; insertion order is approximated by the
// created_at column, which every entity stamps at creation.
type Store[T entity.Record] struct {
	db *gorm.DB
}

func New[T entity.Record](db *gorm.DB) *Store[T] {
	return &Store[T]{db: db}
}

func (s *Store[T]) Insert(ctx context.Context, rec T) error {
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return fmt.Errorf("insert record: %w", err)
	}
	return nil
}

func (s *Store[T]) Get(ctx context.Context, id string) (T, error) {
	var rec T
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&rec).Error
	if err != nil {
		var zero T
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return zero, store.ErrNotFound
		}
		return zero, fmt.Errorf("getting record by id: %w", err)
	}
	return rec, nil
}

func (s *Store[T]) List(ctx context.Context, limit, offset int) ([]T, error) {
	if offset < 0 {
		offset = 0
	}
	recs := []T{}
	tx := s.db.WithContext(ctx).Order("created_at").Offset(offset)
	if limit > 0 {
		tx = tx.Limit(limit)
	}
	if err := tx.Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("listing records: %w", err)
	}
	return recs, nil
}

func (s *Store[T]) Save(ctx context.Context, rec T) error {
	// Select("*") forces zero-valued fields through; a plain struct update
	// would silently skip them.
	tx := s.db.WithContext(ctx).Model(&rec).Select("*").Where("id = ?", rec.RecordID()).Updates(&rec)
	if tx.Error != nil {
		return fmt.Errorf("saving record: %w", tx.Error)
	}
	if tx.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store[T]) Delete(ctx context.Context, id string) (bool, error) {
	var rec T
	tx := s.db.WithContext(ctx).Where("id = ?", id).Delete(&rec)
	if tx.Error != nil {
		return false, fmt.Errorf("deleting record: %w", tx.Error)
	}
	return tx.RowsAffected > 0, nil
}

func (s *Store[T]) Count(ctx context.Context) (int64, error) {
	var rec T
	var count int64
	if err := s.db.WithContext(ctx).Model(&rec).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("counting records: %w", err)
	}
	return count, nil
}

func (s *Store[T]) FindBy(ctx context.Context, column string, value any, limit int) ([]T, error) {
	recs := []T{}
	tx := s.db.WithContext(ctx).Where(fmt.Sprintf("%s = ?", column), value)
	if limit > 0 {
		tx = tx.Limit(limit)
	}
	if err := tx.Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("getting records by %q: %w", column, err)
	}
	return recs, nil
}

func (s *Store[T]) FindOneBy(ctx context.Context, column string, value any) (T, error) {
	var rec T
	err := s.db.WithContext(ctx).Where(fmt.Sprintf("%s = ?", column), value).First(&rec).Error
	if err != nil {
		var zero T
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return zero, store.ErrNotFound
		}
		return zero, fmt.Errorf("getting record by %q: %w", column, err)
	}
	return rec, nil
}

func (s *Store[T]) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("get sql db conn: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	return nil
}
