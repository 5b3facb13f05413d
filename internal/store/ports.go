package store

import (
	"context"
	"errors"

	"walletdesk/internal/entity"
)

var ErrNotFound = errors.New("record not found")

// Store is the storage container contract each repository owns exactly one of.
// List returns records in insertion order; FindBy and FindOneBy address fields
// by their column name, mirroring the persisted schema.
type Store[T entity.Record] interface {
	Insert(ctx context.Context, rec T) error
	Get(ctx context.Context, id string) (T, error)
	List(ctx context.Context, limit, offset int) ([]T, error)
	Save(ctx context.Context, rec T) error
	Delete(ctx context.Context, id string) (bool, error)
	Count(ctx context.Context) (int64, error)
	FindBy(ctx context.Context, column string, value any, limit int) ([]T, error)
	FindOneBy(ctx context.Context, column string, value any) (T, error)
	Ping(ctx context.Context) error
}
