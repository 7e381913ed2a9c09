package service

import (
	"context"
	"time"

	"orderflow/internal/entity"
	"orderflow/internal/repository"
	"orderflow/pkg/cache"
	"orderflow/pkg/logger"
	"orderflow/pkg/storage/postgres"
	"orderflow/pkg/storage/postgres/transaction"

	"github.com/google/uuid"
)

const (
	_defaultQueryTimeout    = 500 * time.Millisecond
	_defaultDuplicateWindow = 5 * time.Minute
	_slowOperationThreshold = 200 * time.Millisecond
)

type (
	CustomerRepository interface {
		GetByEmail(ctx context.Context, email string) (*entity.Customer, error)
		GetByID(ctx context.Context, id uuid.UUID) (*entity.Customer, error)
		Create(ctx context.Context, customer *entity.Customer) (*entity.Customer, error)
		Update(ctx context.Context, customer *entity.Customer) (*entity.Customer, error)
	}

	OrderRepository interface {
		Create(
			ctx context.Context,
			queryExecuter postgres.QueryExecuter,
			order *entity.Order,
		) (*entity.Order, error)
		CreateItems(
			ctx context.Context,
			queryExecuter postgres.QueryExecuter,
			orderID uuid.UUID,
			items []*entity.OrderItem,
		) error
		FindRecentByCustomer(
			ctx context.Context,
			customerID uuid.UUID,
			since time.Time,
		) (*entity.Order, error)
		GetByOrderNumber(ctx context.Context, orderNumber string) (*entity.Order, error)
		List(ctx context.Context, filter repository.ListFilter) ([]*entity.Order, int, error)
	}

	ProductRepository interface {
		GetByID(ctx context.Context, productID string) (*entity.Product, error)
		DecrementStock(ctx context.Context, productID string, quantity int) error
		DecrementVariantStock(
			ctx context.Context,
			productID, variantID, sku string,
			quantity int,
		) error
	}

	// Invalidator marks previously served pages as stale. Best-effort.
	Invalidator interface {
		Invalidate(ctx context.Context, paths []string)
	}

	// EventPublisher emits order lifecycle events. Best-effort.
	EventPublisher interface {
		PublishOrderCreated(ctx context.Context, order *entity.Order)
	}

	IntakeService struct {
		customerRepo CustomerRepository
		orderRepo    OrderRepository
		productRepo  ProductRepository
		txManager    transaction.Manager
		invalidator  Invalidator
		publisher    EventPublisher
		logger       logger.Logger
		cache        cache.Cache[string, *entity.Order]
		cacheTTL     time.Duration

		queryTimeout    time.Duration
		duplicateWindow time.Duration
		now             func() time.Time
	}
)

func NewIntakeService(
	customerRepo CustomerRepository,
	orderRepo OrderRepository,
	productRepo ProductRepository,
	txManager transaction.Manager,
	invalidator Invalidator,
	publisher EventPublisher,
	logger logger.Logger,
	orderCache cache.Cache[string, *entity.Order],
	cacheTTL time.Duration,
	opts ...Option,
) *IntakeService {
	s := &IntakeService{
		customerRepo: customerRepo,
		orderRepo:    orderRepo,
		productRepo:  productRepo,
		txManager:    txManager,
		invalidator:  invalidator,
		publisher:    publisher,
		logger:       logger,
		cache:        orderCache,
		cacheTTL:     cacheTTL,

		queryTimeout:    _defaultQueryTimeout,
		duplicateWindow: _defaultDuplicateWindow,
		now:             time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}
