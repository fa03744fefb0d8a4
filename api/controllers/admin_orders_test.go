package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/petalworks/petalworks-backend/api/middleware"
	internalorders "github.com/petalworks/petalworks-backend/internal/orders"
	"github.com/petalworks/petalworks-backend/pkg/db/models"
	"github.com/petalworks/petalworks-backend/pkg/enums"
	"github.com/petalworks/petalworks-backend/pkg/pagination"
)

type stubOrdersService struct {
	updateFn  func(ctx context.Context, input internalorders.UpdateStatusInput) (*models.Order, error)
	listAllFn func(ctx context.Context, params pagination.Params, filters internalorders.ListFilters) (*internalorders.OrderList, error)
}

func (s stubOrdersService) UpdateStatus(ctx context.Context, input internalorders.UpdateStatusInput) (*models.Order, error) {
	if s.updateFn != nil {
		return s.updateFn(ctx, input)
	}
	return &models.Order{}, nil
}

func (s stubOrdersService) GetForUser(ctx context.Context, orderID, userID uuid.UUID) (*models.Order, error) {
	return nil, nil
}

func (s stubOrdersService) ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*internalorders.OrderList, error) {
	return nil, nil
}

func (s stubOrdersService) ListForSeller(ctx context.Context, sellerID uuid.UUID, params pagination.Params) (*internalorders.OrderList, error) {
	return nil, nil
}

func (s stubOrdersService) ListAll(ctx context.Context, params pagination.Params, filters internalorders.ListFilters) (*internalorders.OrderList, error) {
	if s.listAllFn != nil {
		return s.listAllFn(ctx, params, filters)
	}
	return &internalorders.OrderList{}, nil
}

func withOrderParam(req *http.Request, orderID uuid.UUID) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("orderId", orderID.String())
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestAdminUpdateOrderStatusPartialUpdate(t *testing.T) {
	orderID := uuid.New()
	actorID := uuid.New()

	var captured internalorders.UpdateStatusInput
	svc := stubOrdersService{
		updateFn: func(ctx context.Context, input internalorders.UpdateStatusInput) (*models.Order, error) {
			captured = input
			return &models.Order{ID: orderID, Status: enums.OrderStatusOutForDelivery}, nil
		},
	}

	req := authenticatedRequest(http.MethodPatch, "/status", `{"status": "OUT_FOR_DELIVERY"}`, actorID)
	req = req.WithContext(middleware.WithRole(req.Context(), enums.UserRoleAdmin.String()))
	req = withOrderParam(req, orderID)
	resp := httptest.NewRecorder()
	AdminUpdateOrderStatus(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if captured.OrderID != orderID {
		t.Fatalf("unexpected order id %s", captured.OrderID)
	}
	if captured.Status == nil || *captured.Status != enums.OrderStatusOutForDelivery {
		t.Fatalf("status not mapped: %+v", captured.Status)
	}
	if captured.PaymentStatus != nil {
		t.Fatalf("payment status should stay nil on partial update")
	}
	if captured.ActorUserID != actorID || captured.ActorRole != enums.UserRoleAdmin.String() {
		t.Fatalf("actor not propagated: %+v", captured)
	}
}

func TestAdminUpdateOrderStatusRejectsUnknownStatus(t *testing.T) {
	svc := stubOrdersService{
		updateFn: func(ctx context.Context, input internalorders.UpdateStatusInput) (*models.Order, error) {
			t.Fatalf("service should not be called")
			return nil, nil
		},
	}

	req := authenticatedRequest(http.MethodPatch, "/status", `{"status": "teleported"}`, uuid.New())
	req = withOrderParam(req, uuid.New())
	resp := httptest.NewRecorder()
	AdminUpdateOrderStatus(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestAdminOrdersParsesStatusFilters(t *testing.T) {
	var captured internalorders.ListFilters
	svc := stubOrdersService{
		listAllFn: func(ctx context.Context, params pagination.Params, filters internalorders.ListFilters) (*internalorders.OrderList, error) {
			captured = filters
			return &internalorders.OrderList{}, nil
		},
	}

	req := authenticatedRequest(http.MethodGet, "/?status=pending&payment_status=completed", "", uuid.New())
	resp := httptest.NewRecorder()
	AdminOrders(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if captured.Status == nil || *captured.Status != enums.OrderStatusPending {
		t.Fatalf("status filter not parsed: %+v", captured.Status)
	}
	if captured.PaymentStatus == nil || *captured.PaymentStatus != enums.PaymentStatusCompleted {
		t.Fatalf("payment status filter not parsed: %+v", captured.PaymentStatus)
	}
}

func TestAdminOrdersRejectsBadStatusFilter(t *testing.T) {
	req := authenticatedRequest(http.MethodGet, "/?status=vanished", "", uuid.New())
	resp := httptest.NewRecorder()
	AdminOrders(stubOrdersService{}, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}
