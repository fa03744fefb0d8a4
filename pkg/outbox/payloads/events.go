package payloads

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/petalworks/petalworks-backend/pkg/enums"
)

// OrderCreatedEvent signals a new order accepted by checkout.
type OrderCreatedEvent struct {
	OrderID     uuid.UUID       `json:"order_id"`
	OrderNumber string          `json:"order_number"`
	UserID      uuid.UUID       `json:"user_id"`
	SellerIDs   []uuid.UUID     `json:"seller_ids"`
	ItemCount   int             `json:"item_count"`
	Total       decimal.Decimal `json:"total"`
	IsGift      bool            `json:"is_gift"`
	PlacedAt    time.Time       `json:"placed_at"`
}

// OrderStatusChangedEvent is emitted whenever an order moves between statuses.
type OrderStatusChangedEvent struct {
	OrderID     uuid.UUID         `json:"order_id"`
	OrderNumber string            `json:"order_number"`
	UserID      uuid.UUID         `json:"user_id"`
	From        enums.OrderStatus `json:"from"`
	To          enums.OrderStatus `json:"to"`
	ChangedAt   time.Time         `json:"changed_at"`
}
