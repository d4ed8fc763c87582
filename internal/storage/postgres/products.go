package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	domainErrors "github.com/polkiloo/storefront/internal/domain/errors"
	"github.com/polkiloo/storefront/internal/domain/model"
)

const productColumns = `id, name, price, description, image_url, stock_quantity, created_at, updated_at`

func scanProduct(row pgx.Row) (*model.Product, error) {
	var p model.Product
	if err := row.Scan(&p.ID, &p.Name, &p.Price, &p.Description, &p.ImageURL, &p.StockQuantity, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *productRepository) List(ctx context.Context) ([]model.Product, error) {
	rows, err := r.storage.pool.Query(ctx, `SELECT `+productColumns+` FROM products ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("select products: %w", err)
	}
	defer rows.Close()

	products := make([]model.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, *p)
	}
	return products, rows.Err()
}

func (r *productRepository) GetByID(ctx context.Context, id int64) (*model.Product, error) {
	p, err := scanProduct(r.storage.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, fmt.Errorf("select product: %w", err)
	}
	return p, nil
}

func (r *productRepository) Create(ctx context.Context, product *model.Product) (*model.Product, error) {
	p, err := scanProduct(r.storage.pool.QueryRow(ctx,
		`INSERT INTO products (name, price, description, image_url, stock_quantity)
         VALUES ($1, $2, $3, $4, $5) RETURNING `+productColumns,
		product.Name, product.Price, product.Description, product.ImageURL, product.StockQuantity,
	))
	if err != nil {
		if code := pgErrorCode(err); code == pgCheckViolation || code == pgNumericOutOfRange {
			return nil, domainErrors.Invalid("product", "violates catalog constraints")
		}
		return nil, fmt.Errorf("insert product: %w", err)
	}
	return p, nil
}

// Update applies the non-nil fields of patch. Column names come from a fixed
// mapping; every value is bound as a parameter.
func (r *productRepository) Update(ctx context.Context, id int64, patch model.ProductPatch) (*model.Product, error) {
	sets, args := productAssignments(patch)
	if len(sets) == 0 {
		return r.GetByID(ctx, id)
	}
	args = append(args, id)
	query := fmt.Sprintf(`UPDATE products SET %s, updated_at = NOW() WHERE id = $%d RETURNING %s`,
		strings.Join(sets, ", "), len(args), productColumns)

	p, err := scanProduct(r.storage.pool.QueryRow(ctx, query, args...))
	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return nil, domainErrors.ErrNotFound
		case pgErrorCode(err) == pgCheckViolation, pgErrorCode(err) == pgNumericOutOfRange:
			return nil, domainErrors.Invalid("product", "violates catalog constraints")
		}
		return nil, fmt.Errorf("update product: %w", err)
	}
	return p, nil
}

func productAssignments(patch model.ProductPatch) ([]string, []any) {
	var (
		sets []string
		args []any
	)
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if patch.Name != nil {
		add("name", *patch.Name)
	}
	if patch.Price != nil {
		add("price", *patch.Price)
	}
	if patch.Description != nil {
		add("description", *patch.Description)
	}
	if patch.ImageURL != nil {
		add("image_url", *patch.ImageURL)
	}
	if patch.StockQuantity != nil {
		add("stock_quantity", *patch.StockQuantity)
	}
	return sets, args
}

func (r *productRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.storage.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		if pgErrorCode(err) == pgForeignKeyViolation {
			return domainErrors.Invalid("product", "is referenced by existing orders")
		}
		return fmt.Errorf("delete product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrNotFound
	}
	return nil
}
