package repository

import (
	"context"
	"errors"
	"fmt"

	"orderflow/internal/entity"
	"orderflow/pkg/storage/postgres"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
)

type ProductRepository struct {
	db *postgres.Postgres
}

func NewProductRepository(db *postgres.Postgres) *ProductRepository {
	return &ProductRepository{db}
}

func (pr *ProductRepository) GetByID(
	ctx context.Context,
	productID string,
) (*entity.Product, error) {
	const op = "repository.product.GetByID"

	query := pr.db.Builder.
		Select("id", "name", "sku", "stock", "created_at", "updated_at").
		From("products").
		Where(squirrel.Eq{"id": productID}).
		Limit(1)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: building query: %w", op, err)
	}

	result := &entity.Product{}
	err = pr.db.Pool.QueryRow(ctx, sql, args...).Scan(
		&result.ID,
		&result.Name,
		&result.SKU,
		&result.Stock,
		&result.CreatedAt,
		&result.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, entity.ErrDataNotFound
		}
		return nil, fmt.Errorf("%s: query row: %w", op, err)
	}

	variants, err := pr.getVariants(ctx, productID)
	if err != nil {
		return nil, err
	}
	result.Variants = variants

	return result, nil
}

// DecrementStock atomically consumes base stock. The conditional predicate
// makes two concurrent decrements on the same product serialize at the
// store: stock never goes negative and never oversells.
func (pr *ProductRepository) DecrementStock(
	ctx context.Context,
	productID string,
	quantity int,
) error {
	const op = "repository.product.DecrementStock"

	query := pr.db.Builder.Update("products").
		Set("stock", squirrel.Expr("stock - ?", quantity)).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": productID}).
		Where(squirrel.GtOrEq{"stock": quantity})

	sql, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("%s: building query: %w", op, err)
	}

	tag, err := pr.db.Pool.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("%s: exec: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return entity.ErrInsufficientStock
	}

	return nil
}

// DecrementVariantStock is the variant-level counterpart of DecrementStock,
// matching by variant id first and falling back to SKU equality.
func (pr *ProductRepository) DecrementVariantStock(
	ctx context.Context,
	productID, variantID, sku string,
	quantity int,
) error {
	const op = "repository.product.DecrementVariantStock"

	match := squirrel.Or{}
	if variantID != "" {
		match = append(match, squirrel.Eq{"id": variantID})
	}
	if sku != "" {
		match = append(match, squirrel.Eq{"sku": sku})
	}
	if len(match) == 0 {
		return entity.ErrDataNotFound
	}

	query := pr.db.Builder.Update("product_variants").
		Set("stock", squirrel.Expr("stock - ?", quantity)).
		Where(squirrel.Eq{"product_id": productID}).
		Where(match).
		Where(squirrel.GtOrEq{"stock": quantity})

	sql, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("%s: building query: %w", op, err)
	}

	tag, err := pr.db.Pool.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("%s: exec: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return entity.ErrInsufficientStock
	}

	return nil
}

func (pr *ProductRepository) getVariants(
	ctx context.Context,
	productID string,
) ([]*entity.Variant, error) {
	const op = "repository.product.getVariants"

	query := pr.db.Builder.
		Select("id", "sku", "size", "color", "stock").
		From("product_variants").
		Where(squirrel.Eq{"product_id": productID})

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: building query: %w", op, err)
	}

	rows, err := pr.db.Pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: query: %w", op, err)
	}
	defer rows.Close()

	var variants []*entity.Variant
	for rows.Next() {
		variant := &entity.Variant{}
		err = rows.Scan(
			&variant.ID,
			&variant.SKU,
			&variant.Size,
			&variant.Color,
			&variant.Stock,
		)
		if err != nil {
			return nil, fmt.Errorf("%s: rows scan: %w", op, err)
		}
		variants = append(variants, variant)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("%s: rows final error: %w", op, rows.Err())
	}

	return variants, nil
}
