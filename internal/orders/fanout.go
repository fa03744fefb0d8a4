package orders

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/petalworks/petalworks-backend/pkg/db/models"
)

// PlatformSellerID buckets items whose product carries no seller. The zero
// UUID never collides with a real seller row.
var PlatformSellerID = uuid.Nil

// SellerGroup is one seller's slice of an order.
type SellerGroup struct {
	SellerID uuid.UUID
	Items    []models.OrderItem
}

// GroupBySeller partitions order items by seller in one pass, preserving
// the original item order inside each group. Group order follows first
// appearance so fan-out output is deterministic.
func GroupBySeller(items []models.OrderItem) []SellerGroup {
	index := make(map[uuid.UUID]int, len(items))
	groups := make([]SellerGroup, 0, len(items))
	for _, item := range items {
		sellerID := item.SellerID
		i, ok := index[sellerID]
		if !ok {
			i = len(groups)
			index[sellerID] = i
			groups = append(groups, SellerGroup{SellerID: sellerID})
		}
		groups[i].Items = append(groups[i].Items, item)
	}
	return groups
}

// GroupRevenue sums the line totals within a group.
func GroupRevenue(items []models.OrderItem) decimal.Decimal {
	sum := decimal.Zero
	for _, item := range items {
		sum = sum.Add(item.LineTotal)
	}
	return sum
}

// SellerRevenue returns the seller's share of the group revenue after the
// platform commission. commissionPct is a percentage, so 15 leaves the
// seller 85% of gross.
func SellerRevenue(items []models.OrderItem, commissionPct decimal.Decimal) decimal.Decimal {
	gross := GroupRevenue(items)
	share := decimal.NewFromInt(1).Sub(commissionPct.Div(decimal.NewFromInt(100)))
	return gross.Mul(share).Round(2)
}
