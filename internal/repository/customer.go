package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"orderflow/internal/entity"
	"orderflow/pkg/storage/postgres"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type CustomerRepository struct {
	db *postgres.Postgres
}

func NewCustomerRepository(db *postgres.Postgres) *CustomerRepository {
	return &CustomerRepository{db}
}

func (cr *CustomerRepository) GetByEmail(
	ctx context.Context,
	email string,
) (*entity.Customer, error) {
	const op = "repository.customer.GetByEmail"

	query := cr.db.Builder.
		Select("id", "name", "email", "primary_phone", "secondary_phone", "addresses", "status", "created_at", "updated_at").
		From("customers").
		Where(squirrel.Eq{"email": entity.NormalizeEmail(email)}).
		Limit(1)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: building query: %w", op, err)
	}

	return cr.scanCustomer(cr.db.Pool.QueryRow(ctx, sql, args...), op)
}

func (cr *CustomerRepository) GetByID(
	ctx context.Context,
	id uuid.UUID,
) (*entity.Customer, error) {
	const op = "repository.customer.GetByID"

	query := cr.db.Builder.
		Select("id", "name", "email", "primary_phone", "secondary_phone", "addresses", "status", "created_at", "updated_at").
		From("customers").
		Where(squirrel.Eq{"id": id}).
		Limit(1)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: building query: %w", op, err)
	}

	return cr.scanCustomer(cr.db.Pool.QueryRow(ctx, sql, args...), op)
}

func (cr *CustomerRepository) Create(
	ctx context.Context,
	customer *entity.Customer,
) (*entity.Customer, error) {
	const op = "repository.customer.Create"

	addresses, err := json.Marshal(customer.Addresses)
	if err != nil {
		return nil, fmt.Errorf("%s: marshal addresses: %w", op, err)
	}

	query := cr.db.Builder.Insert("customers").
		Columns("name", "email", "primary_phone", "secondary_phone", "addresses", "status").
		Values(
			customer.Name,
			entity.NormalizeEmail(customer.Email),
			customer.PrimaryPhone,
			customer.SecondaryPhone,
			addresses,
			customer.Status,
		).
		Suffix("RETURNING id, name, email, primary_phone, secondary_phone, addresses, status, created_at, updated_at")

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: building query: %w", op, err)
	}

	return cr.scanCustomer(cr.db.Pool.QueryRow(ctx, sql, args...), op)
}

// Update overwrites the mutable profile fields with the values from the
// latest submission. The record reflects the most recent order, not a merge.
func (cr *CustomerRepository) Update(
	ctx context.Context,
	customer *entity.Customer,
) (*entity.Customer, error) {
	const op = "repository.customer.Update"

	addresses, err := json.Marshal(customer.Addresses)
	if err != nil {
		return nil, fmt.Errorf("%s: marshal addresses: %w", op, err)
	}

	query := cr.db.Builder.Update("customers").
		Set("name", customer.Name).
		Set("primary_phone", customer.PrimaryPhone).
		Set("secondary_phone", customer.SecondaryPhone).
		Set("addresses", addresses).
		Set("status", customer.Status).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": customer.ID}).
		Suffix("RETURNING id, name, email, primary_phone, secondary_phone, addresses, status, created_at, updated_at")

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: building query: %w", op, err)
	}

	return cr.scanCustomer(cr.db.Pool.QueryRow(ctx, sql, args...), op)
}

func (cr *CustomerRepository) scanCustomer(row pgx.Row, op string) (*entity.Customer, error) {
	result := &entity.Customer{}
	var addresses []byte

	err := row.Scan(
		&result.ID,
		&result.Name,
		&result.Email,
		&result.PrimaryPhone,
		&result.SecondaryPhone,
		&addresses,
		&result.Status,
		&result.CreatedAt,
		&result.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, entity.ErrDataNotFound
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, entity.ErrConflictingData
		}
		return nil, fmt.Errorf("%s: query row: %w", op, err)
	}

	if len(addresses) > 0 {
		if err = json.Unmarshal(addresses, &result.Addresses); err != nil {
			return nil, fmt.Errorf("%s: unmarshal addresses: %w", op, err)
		}
	}

	return result, nil
}
