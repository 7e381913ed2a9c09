package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"orderflow/internal/cacheinval"
	"orderflow/internal/entity"
	"orderflow/pkg/logger"
	"orderflow/pkg/storage/postgres"
	"orderflow/pkg/storage/postgres/transaction"
)

const (
	_orderNumberPrefix      = "RS"
	_orderNumberSuffixLen   = 5
	_orderNumberSuffixChars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

type (
	// Submission is the validated order-intake payload handed over by the
	// transport layer.
	Submission struct {
		Customer CustomerPayload
		Items    []*entity.OrderItem
	}

	CustomerPayload struct {
		FullName       string
		Email          string
		Phone          string
		SecondaryPhone string
		Address        *AddressPayload
	}

	AddressPayload struct {
		Street     string
		City       string
		PostalCode string
		Province   string
	}
)

// SubmitOrder runs the intake pipeline: duplicate guard, customer
// resolution, durable order write, then the best-effort tail (inventory
// reconciliation, cache invalidation, event publish). A duplicate hit
// short-circuits with the existing order and no side effects.
func (s *IntakeService) SubmitOrder(
	ctx context.Context,
	submission *Submission,
) (*entity.Order, error) {
	const op = "service.SubmitOrder"
	log := s.logger.Ctx(ctx)

	if err := s.validateSubmission(submission); err != nil {
		return nil, fmt.Errorf("%s: validate submission: %w", op, err)
	}

	startTime := s.now()
	defer func() {
		duration := time.Since(startTime)
		if duration > _slowOperationThreshold {
			log.LogAttrs(ctx, logger.WarnLevel, "slow service operation",
				logger.String("op", op),
				logger.String("duration", duration.String()),
			)
		}
	}()

	if existing := s.findRecentDuplicate(ctx, submission.Customer.Email); existing != nil {
		log.LogAttrs(ctx, logger.InfoLevel, "duplicate submission collapsed into existing order",
			logger.String("op", op),
			logger.String("order_number", existing.OrderNumber),
		)
		return existing, nil
	}

	customer, err := s.resolveCustomer(ctx, &submission.Customer)
	if err != nil {
		log.LogAttrs(ctx, logger.ErrorLevel, "customer resolution failed",
			logger.String("op", op),
			logger.Any("error", err),
		)
		return nil, fmt.Errorf("%s: resolve customer: %w", op, err)
	}

	order := s.buildOrder(customer, submission)

	createdOrder, err := s.createOrderWithTransaction(ctx, order)
	if err != nil {
		log.LogAttrs(ctx, logger.ErrorLevel, "order creation failed",
			logger.String("op", op),
			logger.Any("error", err),
			logger.String("order_number", order.OrderNumber),
		)
		return nil, err
	}

	s.cache.Put(createdOrder.OrderNumber, createdOrder, s.cacheTTL)

	s.reconcileInventory(ctx, createdOrder)
	s.invalidator.Invalidate(ctx, cacheinval.OrderPaths(createdOrder.Items))
	s.publisher.PublishOrderCreated(ctx, createdOrder)

	log.LogAttrs(ctx, logger.InfoLevel, "order created successfully",
		logger.String("op", op),
		logger.String("order_number", createdOrder.OrderNumber),
		logger.Int("items_count", len(createdOrder.Items)),
		logger.Float64("order_total", createdOrder.OrderTotal),
	)

	return createdOrder, nil
}

func (s *IntakeService) validateSubmission(submission *Submission) error {
	if submission == nil {
		return entity.ErrInvalidData
	}
	if submission.Customer.FullName == "" ||
		submission.Customer.Email == "" ||
		submission.Customer.Phone == "" {
		return entity.ErrInvalidData
	}
	if len(submission.Items) == 0 {
		return entity.ErrInvalidData
	}
	for _, item := range submission.Items {
		if item.ProductID == "" || item.Quantity <= 0 {
			return entity.ErrInvalidData
		}
	}
	return nil
}

// findRecentDuplicate returns the customer's most recent order inside the
// duplicate window, or nil. The guard fails open: a broken lookup must not
// block a legitimate submission.
func (s *IntakeService) findRecentDuplicate(
	ctx context.Context,
	email string,
) *entity.Order {
	const op = "service.findRecentDuplicate"
	log := s.logger.Ctx(ctx)

	queryCtx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	customer, err := s.customerRepo.GetByEmail(queryCtx, email)
	if err != nil {
		if !errors.Is(err, entity.ErrDataNotFound) {
			log.LogAttrs(ctx, logger.WarnLevel, "duplicate check failed open",
				logger.String("op", op),
				logger.Any("error", err),
			)
		}
		return nil
	}

	since := s.now().Add(-s.duplicateWindow)
	order, err := s.orderRepo.FindRecentByCustomer(queryCtx, customer.ID, since)
	if err != nil {
		if !errors.Is(err, entity.ErrDataNotFound) {
			log.LogAttrs(ctx, logger.WarnLevel, "duplicate check failed open",
				logger.String("op", op),
				logger.Any("error", err),
			)
		}
		return nil
	}

	return order
}

// resolveCustomer finds-or-creates the customer record. Existing records
// get their profile overwritten from the latest payload.
func (s *IntakeService) resolveCustomer(
	ctx context.Context,
	payload *CustomerPayload,
) (*entity.Customer, error) {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	addresses := synthesizeAddresses(payload.Address)

	existing, err := s.customerRepo.GetByEmail(ctx, payload.Email)
	if err == nil {
		existing.Name = payload.FullName
		existing.PrimaryPhone = payload.Phone
		existing.SecondaryPhone = payload.SecondaryPhone
		existing.Addresses = addresses
		existing.Status = entity.CustomerStatusActive
		return s.customerRepo.Update(ctx, existing)
	}
	if !errors.Is(err, entity.ErrDataNotFound) {
		return nil, err
	}

	return s.customerRepo.Create(ctx, &entity.Customer{
		Name:           payload.FullName,
		Email:          entity.NormalizeEmail(payload.Email),
		PrimaryPhone:   payload.Phone,
		SecondaryPhone: payload.SecondaryPhone,
		Addresses:      addresses,
		Status:         entity.CustomerStatusActive,
	})
}

func synthesizeAddresses(payload *AddressPayload) []entity.Address {
	if payload == nil {
		return nil
	}
	if payload.Street == "" && payload.City == "" &&
		payload.PostalCode == "" && payload.Province == "" {
		return nil
	}
	return []entity.Address{{
		Street:     payload.Street,
		City:       payload.City,
		PostalCode: payload.PostalCode,
		Province:   payload.Province,
		IsDefault:  true,
	}}
}

func (s *IntakeService) buildOrder(
	customer *entity.Customer,
	submission *Submission,
) *entity.Order {
	items := make([]*entity.OrderItem, 0, len(submission.Items))
	for _, item := range submission.Items {
		copied := *item
		if copied.Subtotal == 0 {
			copied.Subtotal = float64(copied.Quantity) * copied.UnitPrice
		}
		items = append(items, &copied)
	}

	order := &entity.Order{
		OrderNumber:   s.generateOrderNumber(),
		CustomerID:    customer.ID,
		CustomerName:  customer.Name,
		CustomerEmail: customer.Email,
		CustomerPhone: customer.PrimaryPhone,
		Items:         items,
		OrderStatus:   entity.OrderStatusPending,
		PaymentStatus: entity.PaymentStatusPending,
	}
	if len(customer.Addresses) > 0 {
		order.DeliveryAddress = formatAddress(customer.Addresses[0])
	}
	order.OrderTotal = order.Total()

	return order
}

func formatAddress(address entity.Address) string {
	parts := make([]string, 0, 4)
	for _, part := range []string{
		address.Street, address.City, address.PostalCode, address.Province,
	} {
		if part != "" {
			parts = append(parts, part)
		}
	}
	return strings.Join(parts, ", ")
}

// generateOrderNumber produces RS-YYYYMMDD-XXXXX. The suffix alphabet drops
// easily confused characters; unpredictability here is a guessing deterrent,
// not a security boundary, and the unique column catches collisions.
func (s *IntakeService) generateOrderNumber() string {
	suffix := make([]byte, _orderNumberSuffixLen)
	for i := range suffix {
		suffix[i] = _orderNumberSuffixChars[rand.IntN(len(_orderNumberSuffixChars))]
	}
	return fmt.Sprintf("%s-%s-%s",
		_orderNumberPrefix,
		s.now().Format("20060102"),
		string(suffix),
	)
}

func (s *IntakeService) createOrderWithTransaction(
	ctx context.Context,
	order *entity.Order,
) (*entity.Order, error) {
	var createdOrder *entity.Order

	err := s.txManager.ExecuteInTransaction(
		ctx,
		"SubmitOrder",
		func(tx postgres.QueryExecuter) error {
			var err error
			createdOrder, err = s.orderRepo.Create(ctx, tx, order)
			if err != nil {
				return transaction.HandleError("SubmitOrder", "create order", err)
			}

			if err = s.orderRepo.CreateItems(ctx, tx, createdOrder.ID, order.Items); err != nil {
				return transaction.HandleError("SubmitOrder", "create order items", err)
			}

			return nil
		},
	)
	if err != nil {
		return nil, err
	}

	return createdOrder, nil
}
