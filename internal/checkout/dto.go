package checkout

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/petalworks/petalworks-backend/pkg/enums"
)

// LineInput is one cart line as submitted by the client. Price is advisory
// only; the authoritative figure is read from the product row at placement.
type LineInput struct {
	ProductID uuid.UUID
	Qty       int
	Price     *decimal.Decimal
}

// GiftOptions is the submitted gift block. When IsGift is false every other
// field is discarded server-side regardless of what was sent.
type GiftOptions struct {
	IsGift          bool
	RecipientName   *string
	Occasion        *string
	GiftWrapID      *uuid.UUID
	GreetingMessage *string
	SenderName      *string
	ShowSenderName  bool
}

// PlaceOrderInput carries everything checkout needs.
type PlaceOrderInput struct {
	UserID        uuid.UUID
	Lines         []LineInput
	AddressID     *uuid.UUID
	PaymentMethod enums.PaymentMethod
	Gift          GiftOptions

	// Client-computed totals, kept only for drift logging.
	ClientSubtotal *decimal.Decimal
	ClientTotal    *decimal.Decimal
}
