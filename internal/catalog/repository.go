// Package catalog reads the product catalog. Products are owned by the
// storefront admin; nothing here writes to them.
package catalog

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Irine7/securetech-sub001/internal/domain"
	"github.com/Irine7/securetech-sub001/internal/storage"
)

type ProductRepository struct {
	db *sql.DB
}

func NewProductRepository(db *sql.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// FindFirst returns the product with the lowest id, or nil when the catalog
// is empty.
func (r *ProductRepository) FindFirst(ctx context.Context) (*domain.Product, error) {
	product := &domain.Product{}

	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, price, image
		FROM products
		ORDER BY id
		LIMIT 1
	`).Scan(&product.ID, &product.Name, &product.Price, &product.Image)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, storage.Wrap("catalog.find_first", err)
	}

	return product, nil
}

// GetByID returns nil without an error when no product has the id.
func (r *ProductRepository) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	product := &domain.Product{}

	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, price, image
		FROM products
		WHERE id = $1
	`, id).Scan(&product.ID, &product.Name, &product.Price, &product.Image)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, storage.Wrap("catalog.get", err)
	}

	return product, nil
}

func (r *ProductRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`).Scan(&count); err != nil {
		return 0, storage.Wrap("catalog.count", err)
	}
	return count, nil
}
