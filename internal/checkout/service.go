package checkout

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/petalworks/petalworks-backend/internal/address"
	"github.com/petalworks/petalworks-backend/internal/catalog"
	"github.com/petalworks/petalworks-backend/internal/orders"
	"github.com/petalworks/petalworks-backend/internal/pricing"
	dbpkg "github.com/petalworks/petalworks-backend/pkg/db"
	"github.com/petalworks/petalworks-backend/pkg/db/models"
	"github.com/petalworks/petalworks-backend/pkg/enums"
	pkgerrors "github.com/petalworks/petalworks-backend/pkg/errors"
	"github.com/petalworks/petalworks-backend/pkg/logger"
	"github.com/petalworks/petalworks-backend/pkg/metrics"
	"github.com/petalworks/petalworks-backend/pkg/outbox"
	"github.com/petalworks/petalworks-backend/pkg/outbox/payloads"
)

const orderNumberAttempts = 3

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// OrderNotifier receives the fire-and-forget order-created fan-out.
type OrderNotifier interface {
	NotifyOrderCreated(ctx context.Context, order *models.Order)
}

// Service assembles orders from carts.
type Service interface {
	PlaceOrder(ctx context.Context, input PlaceOrderInput) (*models.Order, error)
}

type service struct {
	ordersRepo orders.Repository
	catalog    catalog.Repository
	addresses  address.Service
	addrRepo   address.Repository
	calculator *pricing.Calculator
	tx         txRunner
	outbox     outboxEmitter
	notifier   OrderNotifier
	logg       *logger.Logger
	metrics    *metrics.PipelineMetrics
	now        func() time.Time
}

// NewService builds the checkout service with the required dependencies.
func NewService(
	ordersRepo orders.Repository,
	catalogRepo catalog.Repository,
	addrSvc address.Service,
	addrRepo address.Repository,
	calculator *pricing.Calculator,
	tx txRunner,
	emitter outboxEmitter,
	notifier OrderNotifier,
	logg *logger.Logger,
	m *metrics.PipelineMetrics,
) (Service, error) {
	if ordersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if catalogRepo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if addrSvc == nil || addrRepo == nil {
		return nil, fmt.Errorf("address registry required")
	}
	if calculator == nil {
		return nil, fmt.Errorf("pricing calculator required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if emitter == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	if notifier == nil {
		return nil, fmt.Errorf("order notifier required")
	}
	return &service{
		ordersRepo: ordersRepo,
		catalog:    catalogRepo,
		addresses:  addrSvc,
		addrRepo:   addrRepo,
		calculator: calculator,
		tx:         tx,
		outbox:     emitter,
		notifier:   notifier,
		logg:       logg,
		metrics:    m,
		now:        time.Now,
	}, nil
}

// PlaceOrder validates the cart, reprices it from persisted product rows,
// and persists the order with its items in a single transaction. The
// notification fan-out and the pub/sub event run after commit and can never
// fail the placement.
func (s *service) PlaceOrder(ctx context.Context, input PlaceOrderInput) (*models.Order, error) {
	start := s.now()

	if err := validateInput(input); err != nil {
		return nil, err
	}

	addr, err := s.resolveAddress(ctx, input)
	if err != nil {
		return nil, err
	}

	items, subtotal, err := s.buildItems(ctx, input.Lines)
	if err != nil {
		return nil, err
	}

	gift, wrapFee, err := s.normalizeGift(ctx, input.Gift)
	if err != nil {
		return nil, err
	}

	breakdown := s.calculator.Price(subtotal, wrapFee)
	s.logClientDrift(ctx, input, breakdown)

	order := &models.Order{
		UserID:          input.UserID,
		AddressID:       &addr.ID,
		IsGift:          gift.IsGift,
		RecipientName:   gift.RecipientName,
		Occasion:        gift.Occasion,
		GiftWrapID:      gift.GiftWrapID,
		GreetingMessage: gift.GreetingMessage,
		SenderName:      gift.SenderName,
		ShowSenderName:  gift.ShowSenderName,
		Subtotal:        breakdown.Subtotal,
		GiftWrapFee:     breakdown.GiftWrapFee,
		DeliveryFee:     breakdown.DeliveryFee,
		Tax:             breakdown.Tax,
		Total:           breakdown.Total,
		Status:          enums.OrderStatusPending,
		PaymentMethod:   input.PaymentMethod,
		PaymentStatus:   enums.PaymentStatusPending,
	}

	if err := s.persistWithRetry(ctx, order, items); err != nil {
		return nil, err
	}

	hydrated, err := s.ordersRepo.FindByID(ctx, order.ID)
	if err != nil {
		// The order committed; return what we have rather than failing.
		hydrated = order
		hydrated.Items = items
	}

	s.metrics.IncOrderPlaced(string(input.PaymentMethod))
	s.metrics.ObserveCheckoutDuration(s.now().Sub(start))

	// Fan-out must survive the request context ending.
	detached := context.WithoutCancel(ctx)
	go s.notifier.NotifyOrderCreated(detached, hydrated)

	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"order_id":     hydrated.ID.String(),
			"order_number": hydrated.OrderNumber,
			"total":        hydrated.Total.StringFixed(2),
			"items":        len(items),
		})
		s.logg.Info(logCtx, "order placed")
	}

	return hydrated, nil
}

func validateInput(input PlaceOrderInput) error {
	if len(input.Lines) == 0 {
		return pkgerrors.New(pkgerrors.CodeEmptyCart, "cart is empty")
	}
	for _, line := range input.Lines {
		if line.Qty <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "line quantity must be positive").
				WithDetails(map[string]any{"productId": line.ProductID.String()})
		}
	}
	if !input.PaymentMethod.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method")
	}
	return nil
}

func (s *service) resolveAddress(ctx context.Context, input PlaceOrderInput) (*models.Address, error) {
	if input.AddressID != nil {
		addr, err := s.addrRepo.FindByIDAndUser(ctx, *input.AddressID, input.UserID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
			}
			return nil, err
		}
		return addr, nil
	}

	addr, err := s.addresses.DefaultOrLatest(ctx, input.UserID)
	if err != nil {
		return nil, err
	}
	if addr == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "select an address")
	}
	return addr, nil
}

// buildItems snapshots client lines against persisted product rows. The
// stored unit price always comes from the product row, never the client.
func (s *service) buildItems(ctx context.Context, lines []LineInput) ([]models.OrderItem, decimal.Decimal, error) {
	ids := make([]uuid.UUID, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.ProductID)
	}

	products, err := s.catalog.FindProductsByIDs(ctx, ids)
	if err != nil {
		return nil, decimal.Zero, err
	}
	byID := make(map[uuid.UUID]models.Product, len(products))
	for _, product := range products {
		byID[product.ID] = product
	}

	items := make([]models.OrderItem, 0, len(lines))
	subtotal := decimal.Zero
	for _, line := range lines {
		product, ok := byID[line.ProductID]
		if !ok {
			return nil, decimal.Zero, pkgerrors.New(pkgerrors.CodeNotFound, "product not found").
				WithDetails(map[string]any{"productId": line.ProductID.String()})
		}
		lineTotal := product.Price.Mul(decimal.NewFromInt(int64(line.Qty)))
		items = append(items, models.OrderItem{
			ProductID: product.ID,
			SellerID:  product.SellerID,
			Title:     product.Title,
			UnitPrice: product.Price,
			Qty:       line.Qty,
			LineTotal: lineTotal,
		})
		subtotal = subtotal.Add(lineTotal)
	}
	return items, subtotal, nil
}

// normalizeGift collapses any isGift=false submission to the empty gift
// block before persistence, whatever the client sent.
func (s *service) normalizeGift(ctx context.Context, gift GiftOptions) (GiftOptions, decimal.Decimal, error) {
	if !gift.IsGift {
		return GiftOptions{}, decimal.Zero, nil
	}

	wrapFee := decimal.Zero
	if gift.GiftWrapID != nil {
		wrap, err := s.catalog.FindGiftWrap(ctx, *gift.GiftWrapID)
		if err != nil {
			return GiftOptions{}, decimal.Zero, err
		}
		wrapFee = wrap.Price
	}
	return gift, wrapFee, nil
}

func (s *service) persistWithRetry(ctx context.Context, order *models.Order, items []models.OrderItem) error {
	var lastErr error
	for attempt := 0; attempt < orderNumberAttempts; attempt++ {
		order.OrderNumber = s.generateOrderNumber()
		err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			repo := s.ordersRepo.WithTx(tx)
			if _, err := repo.CreateOrder(ctx, order); err != nil {
				return err
			}
			for i := range items {
				items[i].OrderID = order.ID
			}
			if err := repo.CreateOrderItems(ctx, items); err != nil {
				return err
			}

			sellerIDs := make([]uuid.UUID, 0, len(items))
			for _, group := range orders.GroupBySeller(items) {
				sellerIDs = append(sellerIDs, group.SellerID)
			}
			event := outbox.DomainEvent{
				EventType:     enums.EventOrderCreated,
				AggregateType: enums.AggregateOrder,
				AggregateID:   order.ID,
				Version:       1,
				Actor:         &outbox.ActorRef{UserID: order.UserID, Role: string(enums.UserRoleCustomer)},
				Data: payloads.OrderCreatedEvent{
					OrderID:     order.ID,
					OrderNumber: order.OrderNumber,
					UserID:      order.UserID,
					SellerIDs:   sellerIDs,
					ItemCount:   len(items),
					Total:       order.Total,
					IsGift:      order.IsGift,
					PlacedAt:    s.now().UTC(),
				},
			}
			return s.outbox.Emit(ctx, tx, event)
		})
		if err == nil {
			return nil
		}
		lastErr = err
		if !dbpkg.IsUniqueViolation(err, "order_number") {
			return err
		}
		// Collision on the generated number, roll a new one.
		order.ID = uuid.Nil
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, lastErr, "could not allocate order number")
}

// generateOrderNumber yields a human-readable number like PW-20260115-483920.
// Uniqueness is enforced by the DB index; collisions are retried.
func (s *service) generateOrderNumber() string {
	return fmt.Sprintf("PW-%s-%06d", s.now().Format("20060102"), rand.Intn(1000000))
}

func (s *service) logClientDrift(ctx context.Context, input PlaceOrderInput, breakdown pricing.Breakdown) {
	if s.logg == nil || input.ClientTotal == nil {
		return
	}
	if input.ClientTotal.Equal(breakdown.Total) {
		return
	}
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"client_total": input.ClientTotal.StringFixed(2),
		"server_total": breakdown.Total.StringFixed(2),
	})
	s.logg.Warn(logCtx, "client-submitted total differs from server pricing")
}
