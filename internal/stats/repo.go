package stats

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/petalworks/petalworks-backend/pkg/db/models"
	"github.com/petalworks/petalworks-backend/pkg/enums"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a stats repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) windowed(query *gorm.DB, column string, window Window) *gorm.DB {
	if window.Since != nil {
		query = query.Where(column+" >= ?", *window.Since)
	}
	return query
}

func (r *repository) CountOrdersByStatus(ctx context.Context, window Window) (map[enums.OrderStatus]int64, error) {
	var rows []struct {
		Status enums.OrderStatus
		Count  int64
	}
	query := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Select("status, COUNT(*) AS count").
		Group("status")
	if err := r.windowed(query, "created_at", window).Scan(&rows).Error; err != nil {
		return nil, err
	}
	counts := make(map[enums.OrderStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

func (r *repository) CountOrders(ctx context.Context, window Window) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.Order{})
	if err := r.windowed(query, "created_at", window).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// SumOrderTotals excludes cancelled orders so revenue reflects orders that
// were, or still can be, fulfilled.
func (r *repository) SumOrderTotals(ctx context.Context, window Window) (decimal.Decimal, error) {
	var row struct {
		Total decimal.Decimal
	}
	query := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Select("COALESCE(SUM(total), 0) AS total").
		Where("status <> ?", enums.OrderStatusCancelled)
	if err := r.windowed(query, "created_at", window).Scan(&row).Error; err != nil {
		return decimal.Zero, err
	}
	return row.Total, nil
}

func (r *repository) ItemsForSeller(ctx context.Context, sellerID uuid.UUID, window Window) ([]models.OrderItem, error) {
	var items []models.OrderItem
	query := r.db.WithContext(ctx).
		Model(&models.OrderItem{}).
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("order_items.seller_id = ?", sellerID).
		Where("orders.status <> ?", enums.OrderStatusCancelled)
	if err := r.windowed(query, "orders.created_at", window).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) CountSellerOrders(ctx context.Context, sellerID uuid.UUID, window Window) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).
		Model(&models.OrderItem{}).
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("order_items.seller_id = ?", sellerID).
		Where("orders.status <> ?", enums.OrderStatusCancelled).
		Distinct("order_items.order_id")
	if err := r.windowed(query, "orders.created_at", window).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
