package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/petalworks/petalworks-backend/pkg/enums"
)

// Order is the single order produced by checkout. Items may span sellers;
// the per-seller view is derived from the items at read time. The address
// is referenced by id, not copied, so historical orders render whatever the
// registry holds when refetched.
type Order struct {
	ID          uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	OrderNumber string     `gorm:"column:order_number;not null;uniqueIndex"`
	UserID      uuid.UUID  `gorm:"column:user_id;type:uuid;not null;index"`
	AddressID   *uuid.UUID `gorm:"column:address_id;type:uuid"`

	IsGift          bool       `gorm:"column:is_gift;not null;default:false"`
	RecipientName   *string    `gorm:"column:recipient_name"`
	Occasion        *string    `gorm:"column:occasion"`
	GiftWrapID      *uuid.UUID `gorm:"column:gift_wrap_id;type:uuid"`
	GreetingMessage *string    `gorm:"column:greeting_message"`
	SenderName      *string    `gorm:"column:sender_name"`
	ShowSenderName  bool       `gorm:"column:show_sender_name;not null;default:false"`

	Subtotal    decimal.Decimal `gorm:"column:subtotal;type:numeric(12,2);not null"`
	GiftWrapFee decimal.Decimal `gorm:"column:gift_wrap_fee;type:numeric(12,2);not null"`
	DeliveryFee decimal.Decimal `gorm:"column:delivery_fee;type:numeric(12,2);not null"`
	Tax         decimal.Decimal `gorm:"column:tax;type:numeric(12,2);not null"`
	Total       decimal.Decimal `gorm:"column:total;type:numeric(12,2);not null"`

	Status        enums.OrderStatus   `gorm:"column:status;type:text;not null;default:'pending'"`
	PaymentMethod enums.PaymentMethod `gorm:"column:payment_method;type:text;not null;default:'cash'"`
	PaymentStatus enums.PaymentStatus `gorm:"column:payment_status;type:text;not null;default:'pending'"`

	Items     []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Address   *Address    `gorm:"foreignKey:AddressID"`
	CreatedAt time.Time   `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time   `gorm:"column:updated_at;autoUpdateTime"`
}
