package stats

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/petalworks/petalworks-backend/internal/orders"
	"github.com/petalworks/petalworks-backend/pkg/db/models"
)

type sellerLoader interface {
	FindSellerByID(ctx context.Context, id uuid.UUID) (*models.Seller, error)
}

type service struct {
	repo    Repository
	sellers sellerLoader
	now     func() time.Time
}

// NewService builds the stats service.
func NewService(repo Repository, sellers sellerLoader) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("stats repository required")
	}
	if sellers == nil {
		return nil, fmt.Errorf("seller loader required")
	}
	return &service{repo: repo, sellers: sellers, now: time.Now}, nil
}

func (s *service) monthStart() time.Time {
	now := s.now().UTC()
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
}

func (s *service) PlatformStats(ctx context.Context) (*PlatformStats, error) {
	all := Window{}
	since := s.monthStart()
	month := Window{Since: &since}

	byStatus, err := s.repo.CountOrdersByStatus(ctx, all)
	if err != nil {
		return nil, err
	}
	total, err := s.repo.CountOrders(ctx, all)
	if err != nil {
		return nil, err
	}
	revenue, err := s.repo.SumOrderTotals(ctx, all)
	if err != nil {
		return nil, err
	}
	monthOrders, err := s.repo.CountOrders(ctx, month)
	if err != nil {
		return nil, err
	}
	monthRevenue, err := s.repo.SumOrderTotals(ctx, month)
	if err != nil {
		return nil, err
	}

	return &PlatformStats{
		TotalOrders:      total,
		OrdersByStatus:   byStatus,
		Revenue:          revenue,
		OrdersThisMonth:  monthOrders,
		RevenueThisMonth: monthRevenue,
	}, nil
}

func (s *service) SellerStats(ctx context.Context, sellerID uuid.UUID) (*SellerStats, error) {
	seller, err := s.sellers.FindSellerByID(ctx, sellerID)
	if err != nil {
		return nil, err
	}

	all := Window{}
	since := s.monthStart()
	month := Window{Since: &since}

	items, err := s.repo.ItemsForSeller(ctx, sellerID, all)
	if err != nil {
		return nil, err
	}
	orderCount, err := s.repo.CountSellerOrders(ctx, sellerID, all)
	if err != nil {
		return nil, err
	}
	monthItems, err := s.repo.ItemsForSeller(ctx, sellerID, month)
	if err != nil {
		return nil, err
	}
	monthOrders, err := s.repo.CountSellerOrders(ctx, sellerID, month)
	if err != nil {
		return nil, err
	}

	var itemsSold int64
	for _, item := range items {
		itemsSold += int64(item.Qty)
	}

	return &SellerStats{
		SellerID:            sellerID,
		TotalOrders:         orderCount,
		ItemsSold:           itemsSold,
		GrossRevenue:        orders.GroupRevenue(items),
		NetRevenue:          orders.SellerRevenue(items, seller.CommissionPct),
		OrdersThisMonth:     monthOrders,
		NetRevenueThisMonth: orders.SellerRevenue(monthItems, seller.CommissionPct),
	}, nil
}
