package service_test

import (
	"context"
	"regexp"
	"testing"
	"time"

	"orderflow/internal/entity"
	"orderflow/internal/repository"
	"orderflow/internal/service"
	"orderflow/pkg/cache"
	"orderflow/pkg/logger"
	"orderflow/pkg/metric"
	"orderflow/pkg/storage/postgres"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type fakeCustomerRepo struct {
	getByEmail func(ctx context.Context, email string) (*entity.Customer, error)
	getByID    func(ctx context.Context, id uuid.UUID) (*entity.Customer, error)
	create     func(ctx context.Context, customer *entity.Customer) (*entity.Customer, error)
	update     func(ctx context.Context, customer *entity.Customer) (*entity.Customer, error)
}

func (f *fakeCustomerRepo) GetByEmail(ctx context.Context, email string) (*entity.Customer, error) {
	if f.getByEmail == nil {
		return nil, entity.ErrDataNotFound
	}
	return f.getByEmail(ctx, email)
}

func (f *fakeCustomerRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Customer, error) {
	if f.getByID == nil {
		return nil, entity.ErrDataNotFound
	}
	return f.getByID(ctx, id)
}

func (f *fakeCustomerRepo) Create(ctx context.Context, customer *entity.Customer) (*entity.Customer, error) {
	if f.create == nil {
		created := *customer
		created.ID = uuid.New()
		return &created, nil
	}
	return f.create(ctx, customer)
}

func (f *fakeCustomerRepo) Update(ctx context.Context, customer *entity.Customer) (*entity.Customer, error) {
	if f.update == nil {
		return customer, nil
	}
	return f.update(ctx, customer)
}

type fakeOrderRepo struct {
	create               func(ctx context.Context, tx postgres.QueryExecuter, order *entity.Order) (*entity.Order, error)
	createItems          func(ctx context.Context, tx postgres.QueryExecuter, orderID uuid.UUID, items []*entity.OrderItem) error
	findRecentByCustomer func(ctx context.Context, customerID uuid.UUID, since time.Time) (*entity.Order, error)
	getByOrderNumber     func(ctx context.Context, orderNumber string) (*entity.Order, error)
	list                 func(ctx context.Context, filter repository.ListFilter) ([]*entity.Order, int, error)
}

func (f *fakeOrderRepo) Create(ctx context.Context, tx postgres.QueryExecuter, order *entity.Order) (*entity.Order, error) {
	if f.create == nil {
		created := *order
		created.ID = uuid.New()
		created.CreatedAt = time.Now()
		return &created, nil
	}
	return f.create(ctx, tx, order)
}

func (f *fakeOrderRepo) CreateItems(ctx context.Context, tx postgres.QueryExecuter, orderID uuid.UUID, items []*entity.OrderItem) error {
	if f.createItems == nil {
		return nil
	}
	return f.createItems(ctx, tx, orderID, items)
}

func (f *fakeOrderRepo) FindRecentByCustomer(ctx context.Context, customerID uuid.UUID, since time.Time) (*entity.Order, error) {
	if f.findRecentByCustomer == nil {
		return nil, entity.ErrDataNotFound
	}
	return f.findRecentByCustomer(ctx, customerID, since)
}

func (f *fakeOrderRepo) GetByOrderNumber(ctx context.Context, orderNumber string) (*entity.Order, error) {
	if f.getByOrderNumber == nil {
		return nil, entity.ErrDataNotFound
	}
	return f.getByOrderNumber(ctx, orderNumber)
}

func (f *fakeOrderRepo) List(ctx context.Context, filter repository.ListFilter) ([]*entity.Order, int, error) {
	if f.list == nil {
		return nil, 0, nil
	}
	return f.list(ctx, filter)
}

type fakeProductRepo struct {
	getByID               func(ctx context.Context, productID string) (*entity.Product, error)
	decrementStock        func(ctx context.Context, productID string, quantity int) error
	decrementVariantStock func(ctx context.Context, productID, variantID, sku string, quantity int) error
}

func (f *fakeProductRepo) GetByID(ctx context.Context, productID string) (*entity.Product, error) {
	if f.getByID == nil {
		return nil, entity.ErrDataNotFound
	}
	return f.getByID(ctx, productID)
}

func (f *fakeProductRepo) DecrementStock(ctx context.Context, productID string, quantity int) error {
	if f.decrementStock == nil {
		return nil
	}
	return f.decrementStock(ctx, productID, quantity)
}

func (f *fakeProductRepo) DecrementVariantStock(ctx context.Context, productID, variantID, sku string, quantity int) error {
	if f.decrementVariantStock == nil {
		return nil
	}
	return f.decrementVariantStock(ctx, productID, variantID, sku, quantity)
}

type fakeTxManager struct {
	calls int
}

func (f *fakeTxManager) ExecuteInTransaction(
	ctx context.Context,
	operation string,
	fn func(tx postgres.QueryExecuter) error,
) error {
	f.calls++
	return fn(nil)
}

type fakeInvalidator struct {
	paths [][]string
}

func (f *fakeInvalidator) Invalidate(ctx context.Context, paths []string) {
	f.paths = append(f.paths, paths)
}

type fakePublisher struct {
	published []*entity.Order
}

func (f *fakePublisher) PublishOrderCreated(ctx context.Context, order *entity.Order) {
	f.published = append(f.published, order)
}

type serviceDeps struct {
	customerRepo *fakeCustomerRepo
	orderRepo    *fakeOrderRepo
	productRepo  *fakeProductRepo
	txManager    *fakeTxManager
	invalidator  *fakeInvalidator
	publisher    *fakePublisher
}

func newTestService(t *testing.T, deps *serviceDeps, opts ...service.Option) *service.IntakeService {
	t.Helper()

	orderCache, err := cache.NewLRUCache[string, *entity.Order](
		"order",
		100,
		logger.NewNop(),
		metric.NewFactory().Cache(),
	)
	require.NoError(t, err)

	return service.NewIntakeService(
		deps.customerRepo,
		deps.orderRepo,
		deps.productRepo,
		deps.txManager,
		deps.invalidator,
		deps.publisher,
		logger.NewNop(),
		orderCache,
		5*time.Minute,
		opts...,
	)
}

func newDeps() *serviceDeps {
	return &serviceDeps{
		customerRepo: &fakeCustomerRepo{},
		orderRepo:    &fakeOrderRepo{},
		productRepo:  &fakeProductRepo{},
		txManager:    &fakeTxManager{},
		invalidator:  &fakeInvalidator{},
		publisher:    &fakePublisher{},
	}
}

func generateFakeSubmission() *service.Submission {
	itemsCount := gofakeit.Number(1, 4)
	items := make([]*entity.OrderItem, 0, itemsCount)
	for range itemsCount {
		items = append(items, &entity.OrderItem{
			ProductID:   gofakeit.UUID(),
			ProductName: gofakeit.ProductName(),
			ProductSKU:  gofakeit.LetterN(10),
			Quantity:    gofakeit.Number(1, 3),
			UnitPrice:   gofakeit.Price(500, 50000),
		})
	}

	return &service.Submission{
		Customer: service.CustomerPayload{
			FullName: gofakeit.Name(),
			Email:    gofakeit.Email(),
			Phone:    gofakeit.Phone(),
			Address: &service.AddressPayload{
				Street:     gofakeit.Street(),
				City:       gofakeit.City(),
				PostalCode: gofakeit.Zip(),
				Province:   gofakeit.State(),
			},
		},
		Items: items,
	}
}

var orderNumberPattern = regexp.MustCompile(`^RS-\d{8}-[A-HJ-NP-Z2-9]{5}$`)

func TestIntakeService_SubmitOrder_NewCustomer(t *testing.T) {
	ctx := context.Background()
	deps := newDeps()

	var createdCustomer *entity.Customer
	deps.customerRepo.create = func(_ context.Context, customer *entity.Customer) (*entity.Customer, error) {
		created := *customer
		created.ID = uuid.New()
		createdCustomer = &created
		return &created, nil
	}

	svc := newTestService(t, deps)
	submission := generateFakeSubmission()

	order, err := svc.SubmitOrder(ctx, submission)
	require.NoError(t, err)
	require.NotNil(t, order)

	require.Regexp(t, orderNumberPattern, order.OrderNumber)
	require.NotNil(t, createdCustomer)
	require.Equal(t, createdCustomer.ID, order.CustomerID)
	require.Equal(t, entity.NormalizeEmail(submission.Customer.Email), createdCustomer.Email)
	require.Equal(t, entity.OrderStatusPending, order.OrderStatus)
	require.Equal(t, entity.PaymentStatusPending, order.PaymentStatus)

	var wantTotal float64
	for _, item := range submission.Items {
		wantTotal += float64(item.Quantity) * item.UnitPrice
	}
	require.InDelta(t, wantTotal, order.OrderTotal, 0.001)

	require.Equal(t, 1, deps.txManager.calls)
	require.Len(t, deps.publisher.published, 1)
	require.Len(t, deps.invalidator.paths, 1)
	require.Contains(t, deps.invalidator.paths[0], "/products")
}

func TestIntakeService_SubmitOrder_DuplicateCollapsed(t *testing.T) {
	ctx := context.Background()
	deps := newDeps()

	customer := &entity.Customer{ID: uuid.New(), Email: "buyer@example.com"}
	existing := &entity.Order{
		ID:          uuid.New(),
		OrderNumber: "RS-20260830-ABCDE",
		CustomerID:  customer.ID,
	}

	deps.customerRepo.getByEmail = func(_ context.Context, email string) (*entity.Customer, error) {
		return customer, nil
	}
	deps.orderRepo.findRecentByCustomer = func(_ context.Context, customerID uuid.UUID, _ time.Time) (*entity.Order, error) {
		require.Equal(t, customer.ID, customerID)
		return existing, nil
	}

	svc := newTestService(t, deps)

	submission := generateFakeSubmission()
	submission.Customer.Email = "buyer@example.com"

	order, err := svc.SubmitOrder(ctx, submission)
	require.NoError(t, err)
	require.Equal(t, existing.OrderNumber, order.OrderNumber)

	// No write path side effects for a collapsed duplicate.
	require.Zero(t, deps.txManager.calls)
	require.Empty(t, deps.publisher.published)
	require.Empty(t, deps.invalidator.paths)
}

func TestIntakeService_SubmitOrder_DuplicateWindowBounds(t *testing.T) {
	ctx := context.Background()
	deps := newDeps()

	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	customer := &entity.Customer{ID: uuid.New(), Email: "buyer@example.com"}

	deps.customerRepo.getByEmail = func(_ context.Context, _ string) (*entity.Customer, error) {
		return customer, nil
	}

	var gotSince time.Time
	deps.orderRepo.findRecentByCustomer = func(_ context.Context, _ uuid.UUID, since time.Time) (*entity.Order, error) {
		gotSince = since
		return nil, entity.ErrDataNotFound
	}

	svc := newTestService(t, deps,
		service.WithClock(func() time.Time { return now }),
		service.DuplicateWindow(5*time.Minute),
	)

	submission := generateFakeSubmission()
	submission.Customer.Email = "buyer@example.com"

	order, err := svc.SubmitOrder(ctx, submission)
	require.NoError(t, err)
	require.NotNil(t, order)

	require.Equal(t, now.Add(-5*time.Minute), gotSince)
	require.Equal(t, "RS-20260830", order.OrderNumber[:11])
	require.Equal(t, 1, deps.txManager.calls)
}

func TestIntakeService_SubmitOrder_DuplicateCheckFailsOpen(t *testing.T) {
	ctx := context.Background()
	deps := newDeps()

	deps.customerRepo.getByEmail = func(_ context.Context, _ string) (*entity.Customer, error) {
		return nil, context.DeadlineExceeded
	}

	svc := newTestService(t, deps)

	order, err := svc.SubmitOrder(ctx, generateFakeSubmission())
	require.NoError(t, err)
	require.NotNil(t, order)
	require.Equal(t, 1, deps.txManager.calls)
}

func TestIntakeService_SubmitOrder_InvalidSubmissions(t *testing.T) {
	ctx := context.Background()

	testCases := []struct {
		desc  string
		setup func() *service.Submission
	}{
		{
			desc:  "NilSubmission",
			setup: func() *service.Submission { return nil },
		},
		{
			desc: "MissingEmail",
			setup: func() *service.Submission {
				s := generateFakeSubmission()
				s.Customer.Email = ""
				return s
			},
		},
		{
			desc: "NoItems",
			setup: func() *service.Submission {
				s := generateFakeSubmission()
				s.Items = nil
				return s
			},
		},
		{
			desc: "ZeroQuantity",
			setup: func() *service.Submission {
				s := generateFakeSubmission()
				s.Items[0].Quantity = 0
				return s
			},
		},
		{
			desc: "MissingProductID",
			setup: func() *service.Submission {
				s := generateFakeSubmission()
				s.Items[0].ProductID = ""
				return s
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			deps := newDeps()
			svc := newTestService(t, deps)

			_, err := svc.SubmitOrder(ctx, tc.setup())
			require.ErrorIs(t, err, entity.ErrInvalidData)
			require.Zero(t, deps.txManager.calls)
		})
	}
}

func TestIntakeService_SubmitOrder_ExistingCustomerProfileRefreshed(t *testing.T) {
	ctx := context.Background()
	deps := newDeps()

	customer := &entity.Customer{
		ID:           uuid.New(),
		Name:         "Old Name",
		Email:        "buyer@example.com",
		PrimaryPhone: "+94000000000",
	}

	deps.customerRepo.getByEmail = func(_ context.Context, _ string) (*entity.Customer, error) {
		copied := *customer
		return &copied, nil
	}

	var updated *entity.Customer
	deps.customerRepo.update = func(_ context.Context, c *entity.Customer) (*entity.Customer, error) {
		updated = c
		return c, nil
	}

	svc := newTestService(t, deps)

	submission := generateFakeSubmission()
	submission.Customer.Email = "buyer@example.com"
	submission.Customer.FullName = "New Name"
	submission.Customer.Phone = "+94111111111"

	order, err := svc.SubmitOrder(ctx, submission)
	require.NoError(t, err)

	require.NotNil(t, updated)
	require.Equal(t, customer.ID, updated.ID)
	require.Equal(t, "New Name", updated.Name)
	require.Equal(t, "+94111111111", updated.PrimaryPhone)

	require.Equal(t, "New Name", order.CustomerName)
	require.Equal(t, customer.ID, order.CustomerID)
}

func TestIntakeService_SubmitOrder_SubtotalDerivedWhenMissing(t *testing.T) {
	ctx := context.Background()
	deps := newDeps()
	svc := newTestService(t, deps)

	submission := generateFakeSubmission()
	submission.Items = []*entity.OrderItem{
		{ProductID: "prod-1", Quantity: 3, UnitPrice: 1500},
		{ProductID: "prod-2", Quantity: 1, UnitPrice: 200, Subtotal: 180},
	}

	order, err := svc.SubmitOrder(ctx, submission)
	require.NoError(t, err)

	require.InDelta(t, 4500.0, order.Items[0].Subtotal, 0.001)
	require.InDelta(t, 180.0, order.Items[1].Subtotal, 0.001)
	require.InDelta(t, 4680.0, order.OrderTotal, 0.001)
}

func TestIntakeService_SubmitOrder_ReconciliationFailureDoesNotFailIntake(t *testing.T) {
	ctx := context.Background()
	deps := newDeps()

	deps.productRepo.getByID = func(_ context.Context, _ string) (*entity.Product, error) {
		return nil, entity.ErrDataNotFound
	}

	svc := newTestService(t, deps)

	order, err := svc.SubmitOrder(ctx, generateFakeSubmission())
	require.NoError(t, err)
	require.NotNil(t, order)
	require.Len(t, deps.publisher.published, 1)
}

func TestIntakeService_SubmitOrder_InsufficientStockDoesNotFailIntake(t *testing.T) {
	ctx := context.Background()
	deps := newDeps()

	deps.productRepo.getByID = func(_ context.Context, productID string) (*entity.Product, error) {
		return &entity.Product{ID: productID, Stock: 0}, nil
	}
	deps.productRepo.decrementStock = func(_ context.Context, _ string, _ int) error {
		return entity.ErrInsufficientStock
	}

	svc := newTestService(t, deps)

	order, err := svc.SubmitOrder(ctx, generateFakeSubmission())
	require.NoError(t, err)
	require.NotNil(t, order)
}

func TestIntakeService_SubmitOrder_VariantStockDecrement(t *testing.T) {
	ctx := context.Background()
	deps := newDeps()

	variant := &entity.Variant{ID: "var-1", SKU: "SKU-VAR-1", Size: "L", Stock: 10}
	deps.productRepo.getByID = func(_ context.Context, productID string) (*entity.Product, error) {
		return &entity.Product{
			ID:       productID,
			Stock:    100,
			Variants: []*entity.Variant{variant},
		}, nil
	}

	var baseCalls, variantCalls int
	deps.productRepo.decrementStock = func(_ context.Context, _ string, _ int) error {
		baseCalls++
		return nil
	}
	deps.productRepo.decrementVariantStock = func(_ context.Context, _, variantID, _ string, quantity int) error {
		variantCalls++
		require.Equal(t, "var-1", variantID)
		require.Equal(t, 2, quantity)
		return nil
	}

	svc := newTestService(t, deps)

	submission := generateFakeSubmission()
	submission.Items = []*entity.OrderItem{
		{ProductID: "prod-1", VariantID: "var-1", Quantity: 2, UnitPrice: 1000},
	}

	_, err := svc.SubmitOrder(ctx, submission)
	require.NoError(t, err)

	// Variant-level stock is authoritative; the base counter stays untouched.
	require.Zero(t, baseCalls)
	require.Equal(t, 1, variantCalls)
}

func TestIntakeService_GetOrder_ServedFromCacheOnRepeat(t *testing.T) {
	ctx := context.Background()
	deps := newDeps()

	repoCalls := 0
	deps.orderRepo.getByOrderNumber = func(_ context.Context, orderNumber string) (*entity.Order, error) {
		repoCalls++
		return &entity.Order{ID: uuid.New(), OrderNumber: orderNumber}, nil
	}

	svc := newTestService(t, deps)

	first, err := svc.GetOrder(ctx, "RS-20260830-ABCDE")
	require.NoError(t, err)

	second, err := svc.GetOrder(ctx, "RS-20260830-ABCDE")
	require.NoError(t, err)

	require.Equal(t, first, second)
	require.Equal(t, 1, repoCalls)
}

func TestIntakeService_GetOrder_NotFound(t *testing.T) {
	ctx := context.Background()
	deps := newDeps()
	svc := newTestService(t, deps)

	_, err := svc.GetOrder(ctx, "RS-20260830-ZZZZZ")
	require.ErrorIs(t, err, entity.ErrDataNotFound)
}

func TestIntakeService_ListCustomerOrders_InvalidReference(t *testing.T) {
	ctx := context.Background()
	deps := newDeps()
	svc := newTestService(t, deps)

	_, _, err := svc.ListCustomerOrders(ctx, "not-a-uuid", service.ListQuery{})
	require.ErrorIs(t, err, entity.ErrInvalidData)
}

func TestIntakeService_ListCustomerOrders_EmailReference(t *testing.T) {
	ctx := context.Background()
	deps := newDeps()

	deps.orderRepo.list = func(_ context.Context, filter repository.ListFilter) ([]*entity.Order, int, error) {
		require.Equal(t, "buyer@example.com", filter.CustomerEmail)
		require.Equal(t, 1, filter.Page)
		require.Equal(t, 10, filter.Limit)
		return []*entity.Order{{OrderNumber: "RS-20260830-ABCDE"}}, 1, nil
	}

	svc := newTestService(t, deps)

	orders, pagination, err := svc.ListCustomerOrders(ctx, "buyer@example.com", service.ListQuery{})
	require.NoError(t, err)
	require.Len(t, orders, 1)
	require.Equal(t, 1, pagination.TotalDocs)
	require.Equal(t, 1, pagination.TotalPages)
	require.False(t, pagination.HasNextPage)
}

func TestIntakeService_ListOrders_CapsPageSize(t *testing.T) {
	ctx := context.Background()
	deps := newDeps()

	deps.orderRepo.list = func(_ context.Context, filter repository.ListFilter) ([]*entity.Order, int, error) {
		require.Equal(t, 100, filter.Limit)
		return nil, 0, nil
	}

	svc := newTestService(t, deps)

	_, _, err := svc.ListOrders(ctx, service.ListQuery{Page: 1, Limit: 5000})
	require.NoError(t, err)
}
