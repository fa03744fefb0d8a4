package controllers

import (
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/petalworks/petalworks-backend/api/responses"
	"github.com/petalworks/petalworks-backend/api/validators"
	"github.com/petalworks/petalworks-backend/internal/checkout"
	"github.com/petalworks/petalworks-backend/pkg/enums"
	pkgerrors "github.com/petalworks/petalworks-backend/pkg/errors"
	"github.com/petalworks/petalworks-backend/pkg/logger"
)

type checkoutLineRequest struct {
	ProductID string           `json:"productId" validate:"required,uuid4"`
	Quantity  int              `json:"quantity" validate:"required,min=1"`
	Price     *decimal.Decimal `json:"price,omitempty"`
}

type checkoutRequest struct {
	Items         []checkoutLineRequest `json:"items" validate:"dive"`
	AddressID     *string               `json:"addressId,omitempty" validate:"omitempty,uuid4"`
	PaymentMethod string                `json:"paymentMethod" validate:"required"`

	// Client-computed totals; advisory only.
	Subtotal *decimal.Decimal `json:"subtotal,omitempty"`
	Total    *decimal.Decimal `json:"total,omitempty"`

	IsGift          bool    `json:"isGift"`
	RecipientName   *string `json:"recipientName,omitempty" validate:"omitempty,max=128"`
	Occasion        *string `json:"occasion,omitempty" validate:"omitempty,max=64"`
	GiftWrapID      *string `json:"giftWrapId,omitempty" validate:"omitempty,uuid4"`
	GreetingMessage *string `json:"greetingMessage,omitempty" validate:"omitempty,max=200"`
	SenderName      *string `json:"senderName,omitempty" validate:"omitempty,max=128"`
	ShowSenderName  bool    `json:"showSenderName"`
}

// Checkout places an order for the caller's cart.
func Checkout(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		userID, err := callerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := checkout.PlaceOrderInput{
			UserID:         userID,
			ClientSubtotal: payload.Subtotal,
			ClientTotal:    payload.Total,
			Gift: checkout.GiftOptions{
				IsGift:          payload.IsGift,
				RecipientName:   payload.RecipientName,
				Occasion:        payload.Occasion,
				GreetingMessage: payload.GreetingMessage,
				SenderName:      payload.SenderName,
				ShowSenderName:  payload.ShowSenderName,
			},
		}

		method, err := enums.ParsePaymentMethod(strings.ToLower(strings.TrimSpace(payload.PaymentMethod)))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method"))
			return
		}
		input.PaymentMethod = method

		if payload.AddressID != nil {
			id, err := parseUUIDField(*payload.AddressID, "addressId")
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			input.AddressID = &id
		}
		if payload.GiftWrapID != nil {
			id, err := parseUUIDField(*payload.GiftWrapID, "giftWrapId")
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			input.Gift.GiftWrapID = &id
		}

		for _, item := range payload.Items {
			productID, err := parseUUIDField(item.ProductID, "productId")
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			input.Lines = append(input.Lines, checkout.LineInput{
				ProductID: productID,
				Qty:       item.Quantity,
				Price:     item.Price,
			})
		}

		order, err := svc.PlaceOrder(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]any{"order": order})
	}
}
