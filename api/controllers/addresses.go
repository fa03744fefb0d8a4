package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/petalworks/petalworks-backend/api/middleware"
	"github.com/petalworks/petalworks-backend/api/responses"
	"github.com/petalworks/petalworks-backend/api/validators"
	"github.com/petalworks/petalworks-backend/internal/address"
	pkgerrors "github.com/petalworks/petalworks-backend/pkg/errors"
	"github.com/petalworks/petalworks-backend/pkg/logger"
)

type createAddressRequest struct {
	Label     string  `json:"label" validate:"required,max=64"`
	Recipient string  `json:"recipient" validate:"max=128"`
	Phone     *string `json:"phone,omitempty" validate:"omitempty,max=20"`
	Street    string  `json:"street" validate:"required,max=256"`
	Landmark  *string `json:"landmark,omitempty" validate:"omitempty,max=128"`
	City      string  `json:"city" validate:"required,max=64"`
	State     string  `json:"state" validate:"required,max=64"`
	Pincode   string  `json:"pincode" validate:"required,max=10"`
	IsDefault bool    `json:"isDefault"`
}

// CreateAddress registers a new saved address for the caller.
func CreateAddress(svc address.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "address service unavailable"))
			return
		}

		userID, err := callerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload createAddressRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		addr, err := svc.Create(r.Context(), userID, address.CreateInput{
			Label:     payload.Label,
			Recipient: payload.Recipient,
			Phone:     payload.Phone,
			Street:    payload.Street,
			Landmark:  payload.Landmark,
			City:      payload.City,
			State:     payload.State,
			Pincode:   payload.Pincode,
			IsDefault: payload.IsDefault,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, addr)
	}
}

// ListAddresses returns the caller's saved addresses, default first.
func ListAddresses(svc address.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "address service unavailable"))
			return
		}

		userID, err := callerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		addresses, err := svc.List(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"addresses": addresses})
	}
}

func callerID(r *http.Request) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id")
	}
	return id, nil
}
