package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/petalworks/petalworks-backend/pkg/db/models"
	"github.com/petalworks/petalworks-backend/pkg/enums"
	pkgerrors "github.com/petalworks/petalworks-backend/pkg/errors"
	"github.com/petalworks/petalworks-backend/pkg/pagination"
)

func setupOrdersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	for _, schema := range []string{
		`CREATE TABLE orders (
  id TEXT PRIMARY KEY, order_number TEXT NOT NULL UNIQUE, user_id TEXT NOT NULL,
  address_id TEXT, is_gift INTEGER NOT NULL DEFAULT 0, recipient_name TEXT,
  occasion TEXT, gift_wrap_id TEXT, greeting_message TEXT, sender_name TEXT,
  show_sender_name INTEGER NOT NULL DEFAULT 0,
  subtotal NUMERIC NOT NULL, gift_wrap_fee NUMERIC NOT NULL,
  delivery_fee NUMERIC NOT NULL, tax NUMERIC NOT NULL, total NUMERIC NOT NULL,
  status TEXT NOT NULL, payment_method TEXT NOT NULL, payment_status TEXT NOT NULL,
  created_at DATETIME, updated_at DATETIME
);`,
		`CREATE TABLE order_items (
  id TEXT PRIMARY KEY, order_id TEXT NOT NULL, product_id TEXT NOT NULL,
  seller_id TEXT NOT NULL, title TEXT NOT NULL, unit_price NUMERIC NOT NULL,
  qty INTEGER NOT NULL, line_total NUMERIC NOT NULL,
  created_at DATETIME, updated_at DATETIME
);`,
	} {
		require.NoError(t, db.Exec(schema).Error)
	}
	return db
}

func seedOrder(t *testing.T, db *gorm.DB, userID uuid.UUID, number string, createdAt time.Time) *models.Order {
	t.Helper()
	order := &models.Order{
		ID:            uuid.New(),
		OrderNumber:   number,
		UserID:        userID,
		Subtotal:      decimal.RequireFromString("100"),
		GiftWrapFee:   decimal.Zero,
		DeliveryFee:   decimal.RequireFromString("40"),
		Tax:           decimal.RequireFromString("5"),
		Total:         decimal.RequireFromString("145"),
		Status:        enums.OrderStatusPending,
		PaymentMethod: enums.PaymentMethodCash,
		PaymentStatus: enums.PaymentStatusPending,
		CreatedAt:     createdAt,
		UpdatedAt:     createdAt,
	}
	require.NoError(t, db.Omit("Items", "Address").Create(order).Error)
	return order
}

func TestListByUserCursorPaging(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	userID := uuid.New()
	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	var numbers []string
	for i := 0; i < 5; i++ {
		o := seedOrder(t, db, userID, "PW-20260310-00000"+string(rune('1'+i)), base.Add(time.Duration(i)*time.Minute))
		numbers = append(numbers, o.OrderNumber)
	}
	// another user's order must never appear
	seedOrder(t, db, uuid.New(), "PW-20260310-999999", base.Add(time.Hour))

	first, err := repo.ListByUser(ctx, userID, pagination.Params{Limit: 2})
	require.NoError(t, err)
	require.Len(t, first.Orders, 2)
	require.NotNil(t, first.NextCursor)
	require.Equal(t, numbers[4], first.Orders[0].OrderNumber)
	require.Equal(t, numbers[3], first.Orders[1].OrderNumber)

	second, err := repo.ListByUser(ctx, userID, pagination.Params{Limit: 2, Cursor: *first.NextCursor})
	require.NoError(t, err)
	require.Len(t, second.Orders, 2)
	require.NotNil(t, second.NextCursor)
	require.Equal(t, numbers[2], second.Orders[0].OrderNumber)
	require.Equal(t, numbers[1], second.Orders[1].OrderNumber)

	third, err := repo.ListByUser(ctx, userID, pagination.Params{Limit: 2, Cursor: *second.NextCursor})
	require.NoError(t, err)
	require.Len(t, third.Orders, 1)
	require.Nil(t, third.NextCursor)
	require.Equal(t, numbers[0], third.Orders[0].OrderNumber)
}

func TestListByUserRejectsMalformedCursor(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)

	_, err := repo.ListByUser(context.Background(), uuid.New(), pagination.Params{Cursor: "not-a-cursor"})
	require.Error(t, err)
	require.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestListBySellerScopesItems(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	sellerA := uuid.New()
	sellerB := uuid.New()
	base := time.Date(2026, 3, 11, 9, 0, 0, 0, time.UTC)

	mixed := seedOrder(t, db, uuid.New(), "PW-20260311-000001", base)
	require.NoError(t, repo.CreateOrderItems(ctx, []models.OrderItem{
		{OrderID: mixed.ID, ProductID: uuid.New(), SellerID: sellerA, Title: "Red roses", UnitPrice: decimal.RequireFromString("75"), Qty: 1, LineTotal: decimal.RequireFromString("75")},
		{OrderID: mixed.ID, ProductID: uuid.New(), SellerID: sellerB, Title: "White lilies", UnitPrice: decimal.RequireFromString("125"), Qty: 1, LineTotal: decimal.RequireFromString("125")},
	}))

	onlyB := seedOrder(t, db, uuid.New(), "PW-20260311-000002", base.Add(time.Minute))
	require.NoError(t, repo.CreateOrderItems(ctx, []models.OrderItem{
		{OrderID: onlyB.ID, ProductID: uuid.New(), SellerID: sellerB, Title: "Orchids", UnitPrice: decimal.RequireFromString("200"), Qty: 1, LineTotal: decimal.RequireFromString("200")},
	}))

	list, err := repo.ListBySeller(ctx, sellerA, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, list.Orders, 1)
	require.Equal(t, mixed.ID, list.Orders[0].ID)
	// only the seller's own rows are hydrated
	require.Len(t, list.Orders[0].Items, 1)
	require.Equal(t, "Red roses", list.Orders[0].Items[0].Title)

	items, err := repo.ItemsForSeller(ctx, mixed.ID, sellerB)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, "White lilies", items[0].Title)
}

func TestListAllFilters(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	base := time.Date(2026, 3, 12, 9, 0, 0, 0, time.UTC)
	pending := seedOrder(t, db, uuid.New(), "PW-20260312-000001", base)
	shipped := seedOrder(t, db, uuid.New(), "PW-20260312-000002", base.Add(time.Minute))
	require.NoError(t, repo.UpdateStatusFields(ctx, shipped.ID, map[string]any{
		"status":         enums.OrderStatusOutForDelivery,
		"payment_status": enums.PaymentStatusCompleted,
	}))

	status := enums.OrderStatusPending
	list, err := repo.ListAll(ctx, pagination.Params{}, ListFilters{Status: &status})
	require.NoError(t, err)
	require.Len(t, list.Orders, 1)
	require.Equal(t, pending.ID, list.Orders[0].ID)

	paid := enums.PaymentStatusCompleted
	list, err = repo.ListAll(ctx, pagination.Params{}, ListFilters{PaymentStatus: &paid})
	require.NoError(t, err)
	require.Len(t, list.Orders, 1)
	require.Equal(t, shipped.ID, list.Orders[0].ID)
}

func TestUpdateStatusFieldsUnknownOrder(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)

	err := repo.UpdateStatusFields(context.Background(), uuid.New(), map[string]any{
		"status": enums.OrderStatusCancelled,
	})
	require.Error(t, err)
	require.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestFindByIDForUserScopesOwnership(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	owner := uuid.New()
	order := seedOrder(t, db, owner, "PW-20260313-000001", time.Date(2026, 3, 13, 9, 0, 0, 0, time.UTC))

	found, err := repo.FindByIDForUser(ctx, order.ID, owner)
	require.NoError(t, err)
	require.Equal(t, order.OrderNumber, found.OrderNumber)

	_, err = repo.FindByIDForUser(ctx, order.ID, uuid.New())
	require.Error(t, err)
	require.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}
