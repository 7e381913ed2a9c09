package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"orderflow/internal/entity"
	"orderflow/internal/repository"
	"orderflow/pkg/logger"

	"github.com/google/uuid"
)

const (
	_defaultPageSize = 10
	_adminPageCap    = 100
	_customerPageCap = 50
)

type (
	// ListQuery is the paging/filter input for an order listing.
	ListQuery struct {
		Page          int
		Limit         int
		Status        string
		CustomerEmail string
	}

	Pagination struct {
		Page        int  `json:"page"`
		Limit       int  `json:"limit"`
		TotalPages  int  `json:"totalPages"`
		TotalDocs   int  `json:"totalDocs"`
		HasNextPage bool `json:"hasNextPage"`
		HasPrevPage bool `json:"hasPrevPage"`
	}
)

// ListCustomerOrders serves the self-service path. A customerRef containing
// "@" is a legacy email-based lookup; anything else is a store identity.
func (s *IntakeService) ListCustomerOrders(
	ctx context.Context,
	customerRef string,
	query ListQuery,
) ([]*entity.Order, Pagination, error) {
	const op = "service.ListCustomerOrders"

	query = clampQuery(query, _customerPageCap)

	filter := repository.ListFilter{
		Status: entity.OrderStatus(query.Status),
		Page:   query.Page,
		Limit:  query.Limit,
	}

	if strings.Contains(customerRef, "@") {
		filter.CustomerEmail = customerRef
	} else {
		customerID, err := uuid.Parse(customerRef)
		if err != nil {
			return nil, Pagination{}, fmt.Errorf("%s: parse customer id: %w", op, entity.ErrInvalidData)
		}
		filter.CustomerID = customerID
	}

	return s.list(ctx, op, filter)
}

// ListOrders serves the admin path. Capability checks belong to the caller.
func (s *IntakeService) ListOrders(
	ctx context.Context,
	query ListQuery,
) ([]*entity.Order, Pagination, error) {
	const op = "service.ListOrders"

	query = clampQuery(query, _adminPageCap)

	filter := repository.ListFilter{
		CustomerEmail: query.CustomerEmail,
		Status:        entity.OrderStatus(query.Status),
		Page:          query.Page,
		Limit:         query.Limit,
	}

	return s.list(ctx, op, filter)
}

func (s *IntakeService) list(
	ctx context.Context,
	op string,
	filter repository.ListFilter,
) ([]*entity.Order, Pagination, error) {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	orders, total, err := s.orderRepo.List(ctx, filter)
	if err != nil {
		return nil, Pagination{}, fmt.Errorf("%s: list orders: %w", op, err)
	}

	totalPages := (total + filter.Limit - 1) / filter.Limit
	pagination := Pagination{
		Page:        filter.Page,
		Limit:       filter.Limit,
		TotalPages:  totalPages,
		TotalDocs:   total,
		HasNextPage: filter.Page < totalPages,
		HasPrevPage: filter.Page > 1,
	}

	return orders, pagination, nil
}

// GetOrder serves the order detail read path through the LRU cache.
func (s *IntakeService) GetOrder(
	ctx context.Context,
	orderNumber string,
) (*entity.Order, error) {
	const op = "service.GetOrder"
	log := s.logger.Ctx(ctx)

	startTime := time.Now()

	if cached, found := s.cache.Get(orderNumber); found {
		log.LogAttrs(ctx, logger.DebugLevel, "order served from cache",
			logger.String("op", op),
			logger.String("order_number", orderNumber),
		)
		return cached, nil
	}

	queryCtx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	order, err := s.orderRepo.GetByOrderNumber(queryCtx, orderNumber)
	if err != nil {
		if !errors.Is(err, entity.ErrDataNotFound) {
			log.LogAttrs(ctx, logger.ErrorLevel, "failed to get order from database",
				logger.String("op", op),
				logger.Any("error", err),
				logger.String("order_number", orderNumber),
			)
		}
		return nil, err
	}

	s.cache.Put(orderNumber, order, s.cacheTTL)

	duration := time.Since(startTime)
	if duration > _slowOperationThreshold {
		log.LogAttrs(ctx, logger.WarnLevel, "slow service operation",
			logger.String("op", op),
			logger.String("order_number", orderNumber),
			logger.String("duration", duration.String()),
		)
	}

	return order, nil
}

func clampQuery(query ListQuery, limitCap int) ListQuery {
	if query.Page < 1 {
		query.Page = 1
	}
	if query.Limit < 1 {
		query.Limit = _defaultPageSize
	}
	if query.Limit > limitCap {
		query.Limit = limitCap
	}
	return query
}
