package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/petalworks/petalworks-backend/pkg/db/models"
	"github.com/petalworks/petalworks-backend/pkg/enums"
	pkgerrors "github.com/petalworks/petalworks-backend/pkg/errors"
	"github.com/petalworks/petalworks-backend/pkg/logger"
	"github.com/petalworks/petalworks-backend/pkg/metrics"
	"github.com/petalworks/petalworks-backend/pkg/outbox"
	"github.com/petalworks/petalworks-backend/pkg/outbox/payloads"
	"github.com/petalworks/petalworks-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// StatusNotifier receives fire-and-forget status change fan-out.
type StatusNotifier interface {
	NotifyStatusChanged(ctx context.Context, order *models.Order, newStatus enums.OrderStatus)
}

// UpdateStatusInput carries a partial status update. Nil fields are left
// untouched; both nil is a no-op that returns the current order.
type UpdateStatusInput struct {
	OrderID       uuid.UUID
	Status        *enums.OrderStatus
	PaymentStatus *enums.PaymentStatus
	ActorUserID   uuid.UUID
	ActorRole     string
}

// Service drives the order status lifecycle and order reads.
type Service interface {
	UpdateStatus(ctx context.Context, input UpdateStatusInput) (*models.Order, error)
	GetForUser(ctx context.Context, orderID, userID uuid.UUID) (*models.Order, error)
	ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*OrderList, error)
	ListForSeller(ctx context.Context, sellerID uuid.UUID, params pagination.Params) (*OrderList, error)
	ListAll(ctx context.Context, params pagination.Params, filters ListFilters) (*OrderList, error)
}

type service struct {
	repo     Repository
	tx       txRunner
	outbox   outboxEmitter
	notifier StatusNotifier
	logg     *logger.Logger
	metrics  *metrics.PipelineMetrics
}

// NewService builds the order service with the required dependencies.
func NewService(repo Repository, tx txRunner, emitter outboxEmitter, notifier StatusNotifier, logg *logger.Logger, m *metrics.PipelineMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if emitter == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	if notifier == nil {
		return nil, fmt.Errorf("status notifier required")
	}
	return &service{
		repo:     repo,
		tx:       tx,
		outbox:   emitter,
		notifier: notifier,
		logg:     logg,
		metrics:  m,
	}, nil
}

// UpdateStatus persists a partial status update and then fans out
// notifications. Any status may be set from any other status; operators
// rely on being able to move orders backward to fix mistakes.
func (s *service) UpdateStatus(ctx context.Context, input UpdateStatusInput) (*models.Order, error) {
	if input.Status != nil && !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status").
			WithDetails(map[string]any{"status": string(*input.Status)})
	}
	if input.PaymentStatus != nil && !input.PaymentStatus.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment status").
			WithDetails(map[string]any{"paymentStatus": string(*input.PaymentStatus)})
	}

	order, err := s.repo.FindByID(ctx, input.OrderID)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	statusChanged := false
	if input.Status != nil && *input.Status != order.Status {
		updates["status"] = *input.Status
		statusChanged = true
	}
	if input.PaymentStatus != nil && *input.PaymentStatus != order.PaymentStatus {
		updates["payment_status"] = *input.PaymentStatus
	}
	if len(updates) == 0 {
		return order, nil
	}

	previous := order.Status
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.UpdateStatusFields(ctx, order.ID, updates); err != nil {
			return err
		}
		if !statusChanged {
			return nil
		}
		event := outbox.DomainEvent{
			EventType:     enums.EventOrderStatusChanged,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Version:       1,
			Actor: &outbox.ActorRef{
				UserID: input.ActorUserID,
				Role:   input.ActorRole,
			},
			Data: payloads.OrderStatusChangedEvent{
				OrderID:     order.ID,
				OrderNumber: order.OrderNumber,
				UserID:      order.UserID,
				From:        previous,
				To:          *input.Status,
				ChangedAt:   time.Now().UTC(),
			},
		}
		return s.outbox.Emit(ctx, tx, event)
	})
	if err != nil {
		return nil, err
	}

	if input.Status != nil {
		order.Status = *input.Status
	}
	if input.PaymentStatus != nil {
		order.PaymentStatus = *input.PaymentStatus
	}

	if statusChanged {
		s.metrics.IncStatusTransition(string(order.Status))

		// Fan-out must survive the request context ending.
		detached := context.WithoutCancel(ctx)
		go s.notifier.NotifyStatusChanged(detached, order, order.Status)

		if s.logg != nil {
			logCtx := s.logg.WithFields(ctx, map[string]any{
				"order_id": order.ID.String(),
				"from":     string(previous),
				"to":       string(order.Status),
			})
			s.logg.Info(logCtx, "order status updated")
		}
	}

	return order, nil
}

func (s *service) GetForUser(ctx context.Context, orderID, userID uuid.UUID) (*models.Order, error) {
	return s.repo.FindByIDForUser(ctx, orderID, userID)
}

func (s *service) ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*OrderList, error) {
	return s.repo.ListByUser(ctx, userID, params)
}

func (s *service) ListForSeller(ctx context.Context, sellerID uuid.UUID, params pagination.Params) (*OrderList, error) {
	return s.repo.ListBySeller(ctx, sellerID, params)
}

func (s *service) ListAll(ctx context.Context, params pagination.Params, filters ListFilters) (*OrderList, error) {
	return s.repo.ListAll(ctx, params, filters)
}
