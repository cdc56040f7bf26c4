package catalog

import (
	"context"

	"github.com/google/uuid"
)

type ProductRepo interface {
	Create(ctx context.Context, product *Product) error
	Get(ctx context.Context, id uuid.UUID) (*Product, error)
	List(ctx context.Context) ([]*Product, error)
	ListActive(ctx context.Context) ([]*Product, error)
	Save(ctx context.Context, product *Product) error
	Delete(ctx context.Context, id uuid.UUID) error
}
