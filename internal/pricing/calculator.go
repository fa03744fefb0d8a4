package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/petalworks/petalworks-backend/pkg/config"
)

// Breakdown is the priced result for a cart. Total always equals
// subtotal + giftWrap + deliveryFee + tax; it is computed once at checkout
// and stored, never re-derived from items afterwards.
type Breakdown struct {
	Subtotal    decimal.Decimal
	GiftWrapFee decimal.Decimal
	DeliveryFee decimal.Decimal
	Tax         decimal.Decimal
	Total       decimal.Decimal
}

// Calculator applies the platform pricing rules. It is pure and safe for
// concurrent use.
type Calculator struct {
	freeDeliveryAbove decimal.Decimal
	deliveryFee       decimal.Decimal
	taxRate           decimal.Decimal
}

// NewCalculator parses the configured pricing constants.
func NewCalculator(cfg config.PricingConfig) (*Calculator, error) {
	threshold, err := decimal.NewFromString(cfg.FreeDeliveryAbove)
	if err != nil {
		return nil, fmt.Errorf("parsing free delivery threshold %q: %w", cfg.FreeDeliveryAbove, err)
	}
	fee, err := decimal.NewFromString(cfg.DeliveryFee)
	if err != nil {
		return nil, fmt.Errorf("parsing delivery fee %q: %w", cfg.DeliveryFee, err)
	}
	rate, err := decimal.NewFromString(cfg.TaxRate)
	if err != nil {
		return nil, fmt.Errorf("parsing tax rate %q: %w", cfg.TaxRate, err)
	}
	return &Calculator{
		freeDeliveryAbove: threshold,
		deliveryFee:       fee,
		taxRate:           rate,
	}, nil
}

// Line is a quantity of a product at a server-trusted unit price.
type Line struct {
	UnitPrice decimal.Decimal
	Qty       int
}

// Subtotal sums unit price times quantity across lines.
func Subtotal(lines []Line) decimal.Decimal {
	sum := decimal.Zero
	for _, line := range lines {
		sum = sum.Add(line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Qty))))
	}
	return sum
}

// Price applies the delivery-fee threshold and tax rate to a cart subtotal
// plus an optional gift wrap charge. The threshold compares against
// subtotal plus wrap, so wrapping a cart can push it over the free line.
func (c *Calculator) Price(subtotal, giftWrapFee decimal.Decimal) Breakdown {
	base := subtotal.Add(giftWrapFee)

	fee := c.deliveryFee
	if base.GreaterThan(c.freeDeliveryAbove) {
		fee = decimal.Zero
	}

	tax := base.Mul(c.taxRate).Round(2)
	total := base.Add(fee).Add(tax)

	return Breakdown{
		Subtotal:    subtotal,
		GiftWrapFee: giftWrapFee,
		DeliveryFee: fee,
		Tax:         tax,
		Total:       total,
	}
}

// PriceLines prices a cart from its lines directly.
func (c *Calculator) PriceLines(lines []Line, giftWrapFee decimal.Decimal) Breakdown {
	return c.Price(Subtotal(lines), giftWrapFee)
}
