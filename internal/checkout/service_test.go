package checkout

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/petalworks/petalworks-backend/internal/address"
	"github.com/petalworks/petalworks-backend/internal/catalog"
	"github.com/petalworks/petalworks-backend/internal/orders"
	"github.com/petalworks/petalworks-backend/internal/pricing"
	"github.com/petalworks/petalworks-backend/pkg/config"
	"github.com/petalworks/petalworks-backend/pkg/db/models"
	"github.com/petalworks/petalworks-backend/pkg/enums"
	pkgerrors "github.com/petalworks/petalworks-backend/pkg/errors"
	"github.com/petalworks/petalworks-backend/pkg/outbox"
	"github.com/petalworks/petalworks-backend/pkg/pagination"
)

type memOrdersRepo struct {
	mu        sync.Mutex
	orders    []*models.Order
	items     []models.OrderItem
	createErr []error // popped per CreateOrder call
}

func (m *memOrdersRepo) WithTx(tx *gorm.DB) orders.Repository { return m }

func (m *memOrdersRepo) CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.createErr) > 0 {
		err := m.createErr[0]
		m.createErr = m.createErr[1:]
		if err != nil {
			return nil, err
		}
	}
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	copied := *order
	m.orders = append(m.orders, &copied)
	return order, nil
}

func (m *memOrdersRepo) CreateOrderItems(ctx context.Context, items []models.OrderItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = append(m.items, items...)
	return nil
}

func (m *memOrdersRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, order := range m.orders {
		if order.ID == id {
			hydrated := *order
			for _, item := range m.items {
				if item.OrderID == id {
					hydrated.Items = append(hydrated.Items, item)
				}
			}
			return &hydrated, nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
}

func (m *memOrdersRepo) FindByIDForUser(ctx context.Context, id, userID uuid.UUID) (*models.Order, error) {
	return m.FindByID(ctx, id)
}

func (m *memOrdersRepo) ListByUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*orders.OrderList, error) {
	return &orders.OrderList{}, nil
}

func (m *memOrdersRepo) ListAll(ctx context.Context, params pagination.Params, filters orders.ListFilters) (*orders.OrderList, error) {
	return &orders.OrderList{}, nil
}

func (m *memOrdersRepo) ListBySeller(ctx context.Context, sellerID uuid.UUID, params pagination.Params) (*orders.OrderList, error) {
	return &orders.OrderList{}, nil
}

func (m *memOrdersRepo) UpdateStatusFields(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return nil
}

func (m *memOrdersRepo) ItemsForSeller(ctx context.Context, orderID, sellerID uuid.UUID) ([]models.OrderItem, error) {
	return nil, nil
}

type memCatalog struct {
	products map[uuid.UUID]models.Product
	wraps    map[uuid.UUID]models.GiftWrap
}

func (m *memCatalog) WithTx(tx *gorm.DB) catalog.Repository { return m }

func (m *memCatalog) FindProductsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	out := []models.Product{}
	for _, id := range ids {
		if p, ok := m.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memCatalog) FindGiftWrap(ctx context.Context, id uuid.UUID) (*models.GiftWrap, error) {
	if w, ok := m.wraps[id]; ok {
		return &w, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "gift wrap not found")
}

func (m *memCatalog) FindSellersByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Seller, error) {
	return nil, nil
}

func (m *memCatalog) FindSellerByID(ctx context.Context, id uuid.UUID) (*models.Seller, error) {
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "seller not found")
}

func (m *memCatalog) ListAdmins(ctx context.Context) ([]models.User, error) { return nil, nil }

func (m *memCatalog) FindUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
}

type memAddresses struct {
	owned   map[uuid.UUID]*models.Address // keyed by address id
	userID  uuid.UUID
	defAddr *models.Address
}

func (m *memAddresses) WithTx(tx *gorm.DB) address.Repository { return m }

func (m *memAddresses) Create(ctx context.Context, addr *models.Address) (*models.Address, error) {
	return addr, nil
}

func (m *memAddresses) ClearDefault(ctx context.Context, userID uuid.UUID) error { return nil }

func (m *memAddresses) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Address, error) {
	return nil, nil
}

func (m *memAddresses) FindByIDAndUser(ctx context.Context, id, userID uuid.UUID) (*models.Address, error) {
	addr, ok := m.owned[id]
	if !ok || addr.UserID != userID {
		return nil, gorm.ErrRecordNotFound
	}
	return addr, nil
}

func (m *memAddresses) FindDefault(ctx context.Context, userID uuid.UUID) (*models.Address, error) {
	return m.defAddr, nil
}

func (m *memAddresses) FindLatest(ctx context.Context, userID uuid.UUID) (*models.Address, error) {
	return m.defAddr, nil
}

type memTx struct{}

func (memTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(&gorm.DB{})
}

type memEmitter struct {
	mu     sync.Mutex
	events []outbox.DomainEvent
	err    error
}

func (m *memEmitter) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

type memNotifier struct {
	created chan *models.Order
}

func (m *memNotifier) NotifyOrderCreated(ctx context.Context, order *models.Order) {
	m.created <- order
}

type checkoutFixture struct {
	svc      Service
	repo     *memOrdersRepo
	catalog  *memCatalog
	emitter  *memEmitter
	notifier *memNotifier
	userID   uuid.UUID
	addr     *models.Address
	rose     models.Product
	lily     models.Product
	wrap     models.GiftWrap
}

func newCheckoutFixture(t *testing.T) *checkoutFixture {
	t.Helper()

	userID := uuid.New()
	addr := &models.Address{ID: uuid.New(), UserID: userID, Label: "Home", IsDefault: true}

	rose := models.Product{ID: uuid.New(), SellerID: uuid.New(), Title: "Red roses", Price: decimal.RequireFromString("75"), IsActive: true}
	lily := models.Product{ID: uuid.New(), SellerID: uuid.New(), Title: "White lilies", Price: decimal.RequireFromString("125"), IsActive: true}
	wrap := models.GiftWrap{ID: uuid.New(), Name: "Classic", Price: decimal.RequireFromString("50"), IsActive: true}

	repo := &memOrdersRepo{}
	cat := &memCatalog{
		products: map[uuid.UUID]models.Product{rose.ID: rose, lily.ID: lily},
		wraps:    map[uuid.UUID]models.GiftWrap{wrap.ID: wrap},
	}
	addrs := &memAddresses{
		owned:   map[uuid.UUID]*models.Address{addr.ID: addr},
		userID:  userID,
		defAddr: addr,
	}
	addrSvc, err := address.NewService(addrs, memTx{})
	if err != nil {
		t.Fatalf("address service: %v", err)
	}
	calc, err := pricing.NewCalculator(config.PricingConfig{
		FreeDeliveryAbove: "199",
		DeliveryFee:       "40",
		TaxRate:           "0.05",
	})
	if err != nil {
		t.Fatalf("calculator: %v", err)
	}
	emitter := &memEmitter{}
	notifier := &memNotifier{created: make(chan *models.Order, 2)}

	svc, err := NewService(repo, cat, addrSvc, addrs, calc, memTx{}, emitter, notifier, nil, nil)
	if err != nil {
		t.Fatalf("checkout service: %v", err)
	}

	return &checkoutFixture{
		svc:      svc,
		repo:     repo,
		catalog:  cat,
		emitter:  emitter,
		notifier: notifier,
		userID:   userID,
		addr:     addr,
		rose:     rose,
		lily:     lily,
		wrap:     wrap,
	}
}

func awaitCreated(t *testing.T, notifier *memNotifier) *models.Order {
	t.Helper()
	select {
	case order := <-notifier.created:
		return order
	case <-time.After(2 * time.Second):
		t.Fatalf("order-created fan-out never ran")
		return nil
	}
}

func TestPlaceOrderRejectsEmptyCart(t *testing.T) {
	t.Parallel()

	f := newCheckoutFixture(t)
	_, err := f.svc.PlaceOrder(context.Background(), PlaceOrderInput{
		UserID:        f.userID,
		PaymentMethod: enums.PaymentMethodCash,
	})
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeEmptyCart {
		t.Fatalf("expected empty cart error, got %v", err)
	}
	if len(f.repo.orders) != 0 {
		t.Fatalf("empty cart must not write")
	}
}

func TestPlaceOrderRejectsForeignAddress(t *testing.T) {
	t.Parallel()

	f := newCheckoutFixture(t)
	foreign := uuid.New()
	_, err := f.svc.PlaceOrder(context.Background(), PlaceOrderInput{
		UserID:        f.userID,
		Lines:         []LineInput{{ProductID: f.rose.ID, Qty: 2}},
		AddressID:     &foreign,
		PaymentMethod: enums.PaymentMethodCash,
	})
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestPlaceOrderRepricesFromCatalog(t *testing.T) {
	t.Parallel()

	f := newCheckoutFixture(t)

	// Client claims the roses cost 1 each; the catalog says 75.
	lie := decimal.RequireFromString("1")
	clientTotal := decimal.RequireFromString("2")
	order, err := f.svc.PlaceOrder(context.Background(), PlaceOrderInput{
		UserID:        f.userID,
		Lines:         []LineInput{{ProductID: f.rose.ID, Qty: 2, Price: &lie}},
		AddressID:     &f.addr.ID,
		PaymentMethod: enums.PaymentMethodCash,
		ClientTotal:   &clientTotal,
	})
	if err != nil {
		t.Fatalf("place order: %v", err)
	}

	// subtotal 150, fee 40, tax 7.5, total 197.5
	if !order.Subtotal.Equal(decimal.RequireFromString("150")) {
		t.Fatalf("expected subtotal 150, got %s", order.Subtotal)
	}
	if !order.DeliveryFee.Equal(decimal.RequireFromString("40")) {
		t.Fatalf("expected delivery fee 40, got %s", order.DeliveryFee)
	}
	if !order.Tax.Equal(decimal.RequireFromString("7.5")) {
		t.Fatalf("expected tax 7.5, got %s", order.Tax)
	}
	if !order.Total.Equal(decimal.RequireFromString("197.5")) {
		t.Fatalf("expected total 197.5, got %s", order.Total)
	}
	if len(order.Items) != 1 || !order.Items[0].UnitPrice.Equal(f.rose.Price) {
		t.Fatalf("item price must come from the catalog")
	}
	awaitCreated(t, f.notifier)
}

func TestPlaceOrderGiftWrapCrossesThreshold(t *testing.T) {
	t.Parallel()

	f := newCheckoutFixture(t)
	order, err := f.svc.PlaceOrder(context.Background(), PlaceOrderInput{
		UserID:        f.userID,
		Lines:         []LineInput{{ProductID: f.lily.ID, Qty: 2}},
		AddressID:     &f.addr.ID,
		PaymentMethod: enums.PaymentMethodOnline,
		Gift: GiftOptions{
			IsGift:     true,
			GiftWrapID: &f.wrap.ID,
		},
	})
	if err != nil {
		t.Fatalf("place order: %v", err)
	}

	// subtotal 250 + wrap 50 = 300 > 199 → free delivery, tax 15, total 315
	if !order.DeliveryFee.Equal(decimal.Zero) {
		t.Fatalf("expected free delivery, got %s", order.DeliveryFee)
	}
	if !order.Tax.Equal(decimal.RequireFromString("15")) {
		t.Fatalf("expected tax 15, got %s", order.Tax)
	}
	if !order.Total.Equal(decimal.RequireFromString("315")) {
		t.Fatalf("expected total 315, got %s", order.Total)
	}
	if order.GiftWrapID == nil || *order.GiftWrapID != f.wrap.ID {
		t.Fatalf("gift wrap reference lost")
	}
	awaitCreated(t, f.notifier)
}

func TestPlaceOrderSuppressesGiftFieldsWhenNotGift(t *testing.T) {
	t.Parallel()

	f := newCheckoutFixture(t)
	recipient := "Asha"
	message := "Happy birthday!"
	order, err := f.svc.PlaceOrder(context.Background(), PlaceOrderInput{
		UserID:        f.userID,
		Lines:         []LineInput{{ProductID: f.rose.ID, Qty: 1}},
		AddressID:     &f.addr.ID,
		PaymentMethod: enums.PaymentMethodCash,
		Gift: GiftOptions{
			IsGift:          false,
			RecipientName:   &recipient,
			GiftWrapID:      &f.wrap.ID,
			GreetingMessage: &message,
			ShowSenderName:  true,
		},
	})
	if err != nil {
		t.Fatalf("place order: %v", err)
	}

	if order.IsGift {
		t.Fatalf("order must not be a gift")
	}
	if order.RecipientName != nil || order.GiftWrapID != nil || order.GreetingMessage != nil {
		t.Fatalf("gift fields must be nulled server-side")
	}
	if order.ShowSenderName {
		t.Fatalf("show sender flag must be cleared")
	}
	if !order.GiftWrapFee.Equal(decimal.Zero) {
		t.Fatalf("no wrap fee for non-gift orders")
	}
	awaitCreated(t, f.notifier)
}

func TestPlaceOrderUnknownProduct(t *testing.T) {
	t.Parallel()

	f := newCheckoutFixture(t)
	_, err := f.svc.PlaceOrder(context.Background(), PlaceOrderInput{
		UserID:        f.userID,
		Lines:         []LineInput{{ProductID: uuid.New(), Qty: 1}},
		AddressID:     &f.addr.ID,
		PaymentMethod: enums.PaymentMethodCash,
	})
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestPlaceOrderRetriesNumberCollision(t *testing.T) {
	t.Parallel()

	f := newCheckoutFixture(t)
	f.repo.createErr = []error{errors.New(`duplicate key value violates unique constraint "idx_orders_order_number"`)}

	order, err := f.svc.PlaceOrder(context.Background(), PlaceOrderInput{
		UserID:        f.userID,
		Lines:         []LineInput{{ProductID: f.rose.ID, Qty: 1}},
		AddressID:     &f.addr.ID,
		PaymentMethod: enums.PaymentMethodCash,
	})
	if err != nil {
		t.Fatalf("expected retry to succeed: %v", err)
	}
	if order.OrderNumber == "" {
		t.Fatalf("order number missing")
	}
	awaitCreated(t, f.notifier)
}

func TestPlaceOrderEmitsOutboxEvent(t *testing.T) {
	t.Parallel()

	f := newCheckoutFixture(t)
	_, err := f.svc.PlaceOrder(context.Background(), PlaceOrderInput{
		UserID:        f.userID,
		Lines:         []LineInput{{ProductID: f.rose.ID, Qty: 1}, {ProductID: f.lily.ID, Qty: 1}},
		AddressID:     &f.addr.ID,
		PaymentMethod: enums.PaymentMethodCash,
	})
	if err != nil {
		t.Fatalf("place order: %v", err)
	}
	if len(f.emitter.events) != 1 {
		t.Fatalf("expected one outbox event, got %d", len(f.emitter.events))
	}
	if f.emitter.events[0].EventType != enums.EventOrderCreated {
		t.Fatalf("unexpected event type %s", f.emitter.events[0].EventType)
	}
	awaitCreated(t, f.notifier)
}
