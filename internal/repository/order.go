package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"orderflow/internal/entity"
	"orderflow/pkg/storage/postgres"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const _orderColumns = "id, order_number, customer_id, customer_name, customer_email, customer_phone, delivery_address, order_status, payment_status, order_total, created_at, updated_at"

// ListFilter narrows and pages an order listing. Zero values mean "no
// constraint"; Limit must already be capped by the caller.
type ListFilter struct {
	CustomerID    uuid.UUID
	CustomerEmail string
	Status        entity.OrderStatus
	Page          int
	Limit         int
}

type OrderRepository struct {
	db *postgres.Postgres
}

func NewOrderRepository(db *postgres.Postgres) *OrderRepository {
	return &OrderRepository{db}
}

func (or *OrderRepository) Create(
	ctx context.Context,
	queryExecuter postgres.QueryExecuter,
	order *entity.Order,
) (*entity.Order, error) {
	const op = "repository.order.Create"

	query := or.db.Builder.Insert("orders").
		Columns("order_number", "customer_id", "customer_name", "customer_email", "customer_phone", "delivery_address", "order_status", "payment_status", "order_total").
		Values(
			order.OrderNumber,
			order.CustomerID,
			order.CustomerName,
			order.CustomerEmail,
			order.CustomerPhone,
			order.DeliveryAddress,
			order.OrderStatus,
			order.PaymentStatus,
			order.OrderTotal,
		).
		Suffix("RETURNING " + _orderColumns)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: building query: %w", op, err)
	}

	result, err := scanOrder(queryExecuter.QueryRow(ctx, sql, args...), op)
	if err != nil {
		return nil, err
	}
	result.Items = order.Items

	return result, nil
}

func (or *OrderRepository) CreateItems(
	ctx context.Context,
	queryExecuter postgres.QueryExecuter,
	orderID uuid.UUID,
	items []*entity.OrderItem,
) error {
	const op = "repository.order.CreateItems"

	if len(items) == 0 {
		return nil
	}

	rows := make([][]interface{}, 0, len(items))
	for _, item := range items {
		rows = append(rows, []interface{}{
			uuid.New(),
			orderID,
			item.ProductID,
			item.VariantID,
			item.ProductName,
			item.ProductSKU,
			item.Quantity,
			item.UnitPrice,
			item.Subtotal,
			item.SelectedSize,
			item.SelectedColor,
		})
	}

	tx, ok := queryExecuter.(*postgres.TxQueryExecuter)
	if !ok {
		return fmt.Errorf("%s: queryExecuter is not a transaction", op)
	}

	columnNames := []string{
		"id", "order_id", "product_id", "variant_id", "product_name",
		"product_sku", "quantity", "unit_price", "subtotal",
		"selected_size", "selected_color",
	}

	_, err := tx.Tx.CopyFrom(
		ctx,
		pgx.Identifier{"order_items"},
		columnNames,
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return entity.ErrConflictingData
		}
		return fmt.Errorf("%s: copy from: %w", op, err)
	}

	return nil
}

// FindRecentByCustomer returns the customer's most recent order created at
// or after since, or ErrDataNotFound. This is the duplicate-submission
// lookup; items are not loaded because the caller only replays the order
// summary.
func (or *OrderRepository) FindRecentByCustomer(
	ctx context.Context,
	customerID uuid.UUID,
	since time.Time,
) (*entity.Order, error) {
	const op = "repository.order.FindRecentByCustomer"

	query := or.db.Builder.Select(_orderColumns).
		From("orders").
		Where(squirrel.Eq{"customer_id": customerID}).
		Where(squirrel.GtOrEq{"created_at": since}).
		OrderBy("created_at DESC").
		Limit(1)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: building query: %w", op, err)
	}

	return scanOrder(or.db.Pool.QueryRow(ctx, sql, args...), op)
}

func (or *OrderRepository) GetByOrderNumber(
	ctx context.Context,
	orderNumber string,
) (*entity.Order, error) {
	const op = "repository.order.GetByOrderNumber"

	query := or.db.Builder.Select(_orderColumns).
		From("orders").
		Where(squirrel.Eq{"order_number": orderNumber}).
		Limit(1)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: building query: %w", op, err)
	}

	order, err := scanOrder(or.db.Pool.QueryRow(ctx, sql, args...), op)
	if err != nil {
		return nil, err
	}

	items, err := or.getItems(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	order.Items = items

	return order, nil
}

// List returns one page of orders, newest first, plus the total row count
// for the unpaged filter.
func (or *OrderRepository) List(
	ctx context.Context,
	filter ListFilter,
) ([]*entity.Order, int, error) {
	const op = "repository.order.List"

	base := or.db.Builder.Select(_orderColumns).From("orders")
	count := or.db.Builder.Select("COUNT(*)").From("orders")

	if filter.CustomerID != uuid.Nil {
		base = base.Where(squirrel.Eq{"customer_id": filter.CustomerID})
		count = count.Where(squirrel.Eq{"customer_id": filter.CustomerID})
	}
	if filter.CustomerEmail != "" {
		email := entity.NormalizeEmail(filter.CustomerEmail)
		base = base.Where(squirrel.Eq{"customer_email": email})
		count = count.Where(squirrel.Eq{"customer_email": email})
	}
	if filter.Status != "" {
		base = base.Where(squirrel.Eq{"order_status": filter.Status})
		count = count.Where(squirrel.Eq{"order_status": filter.Status})
	}

	offset := (filter.Page - 1) * filter.Limit
	base = base.OrderBy("created_at DESC").
		Limit(uint64(filter.Limit)).
		Offset(uint64(offset))

	sql, args, err := base.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("%s: building query: %w", op, err)
	}

	rows, err := or.db.Pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: query: %w", op, err)
	}
	defer rows.Close()

	orders := make([]*entity.Order, 0, filter.Limit)
	for rows.Next() {
		order, scanErr := scanOrder(rows, op)
		if scanErr != nil {
			return nil, 0, scanErr
		}
		orders = append(orders, order)
	}
	if rows.Err() != nil {
		return nil, 0, fmt.Errorf("%s: rows final error: %w", op, rows.Err())
	}

	countSQL, countArgs, err := count.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("%s: building count query: %w", op, err)
	}

	var total int
	if err = or.db.Pool.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("%s: count query row: %w", op, err)
	}

	return orders, total, nil
}

func (or *OrderRepository) getItems(
	ctx context.Context,
	orderID uuid.UUID,
) ([]*entity.OrderItem, error) {
	const op = "repository.order.getItems"

	query := or.db.Builder.
		Select("product_id", "variant_id", "product_name", "product_sku", "quantity", "unit_price", "subtotal", "selected_size", "selected_color").
		From("order_items").
		Where(squirrel.Eq{"order_id": orderID})

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: building query: %w", op, err)
	}

	rows, err := or.db.Pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: query: %w", op, err)
	}
	defer rows.Close()

	result := make([]*entity.OrderItem, 0)
	for rows.Next() {
		item := &entity.OrderItem{}
		err = rows.Scan(
			&item.ProductID,
			&item.VariantID,
			&item.ProductName,
			&item.ProductSKU,
			&item.Quantity,
			&item.UnitPrice,
			&item.Subtotal,
			&item.SelectedSize,
			&item.SelectedColor,
		)
		if err != nil {
			return nil, fmt.Errorf("%s: rows scan: %w", op, err)
		}
		result = append(result, item)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("%s: rows final error: %w", op, rows.Err())
	}

	return result, nil
}

func scanOrder(row pgx.Row, op string) (*entity.Order, error) {
	result := &entity.Order{}
	err := row.Scan(
		&result.ID,
		&result.OrderNumber,
		&result.CustomerID,
		&result.CustomerName,
		&result.CustomerEmail,
		&result.CustomerPhone,
		&result.DeliveryAddress,
		&result.OrderStatus,
		&result.PaymentStatus,
		&result.OrderTotal,
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
	return result, nil
}
