package stats

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/petalworks/petalworks-backend/pkg/db/models"
	"github.com/petalworks/petalworks-backend/pkg/enums"
)

// Window bounds a stats query. A nil Since means all time.
type Window struct {
	Since *time.Time
}

// PlatformStats is the admin dashboard payload.
type PlatformStats struct {
	TotalOrders      int64                       `json:"totalOrders"`
	OrdersByStatus   map[enums.OrderStatus]int64 `json:"ordersByStatus"`
	Revenue          decimal.Decimal             `json:"revenue"`
	OrdersThisMonth  int64                       `json:"ordersThisMonth"`
	RevenueThisMonth decimal.Decimal             `json:"revenueThisMonth"`
}

// SellerStats is the seller dashboard payload. Revenue figures cover only the
// seller's own line items; net applies the seller's commission.
type SellerStats struct {
	SellerID            uuid.UUID       `json:"sellerId"`
	TotalOrders         int64           `json:"totalOrders"`
	ItemsSold           int64           `json:"itemsSold"`
	GrossRevenue        decimal.Decimal `json:"grossRevenue"`
	NetRevenue          decimal.Decimal `json:"netRevenue"`
	OrdersThisMonth     int64           `json:"ordersThisMonth"`
	NetRevenueThisMonth decimal.Decimal `json:"netRevenueThisMonth"`
}

// Repository reads order data for aggregation. All methods are point-in-time
// snapshots; nothing here writes.
type Repository interface {
	CountOrdersByStatus(ctx context.Context, window Window) (map[enums.OrderStatus]int64, error)
	CountOrders(ctx context.Context, window Window) (int64, error)
	SumOrderTotals(ctx context.Context, window Window) (decimal.Decimal, error)
	ItemsForSeller(ctx context.Context, sellerID uuid.UUID, window Window) ([]models.OrderItem, error)
	CountSellerOrders(ctx context.Context, sellerID uuid.UUID, window Window) (int64, error)
}

// Service recomputes dashboard figures from persisted orders on every call.
type Service interface {
	PlatformStats(ctx context.Context) (*PlatformStats, error)
	SellerStats(ctx context.Context, sellerID uuid.UUID) (*SellerStats, error)
}
