package notifications

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/petalworks/petalworks-backend/internal/orders"
	"github.com/petalworks/petalworks-backend/pkg/db/models"
	"github.com/petalworks/petalworks-backend/pkg/enums"
	"github.com/petalworks/petalworks-backend/pkg/logger"
	"github.com/petalworks/petalworks-backend/pkg/mailer"
	"github.com/petalworks/petalworks-backend/pkg/metrics"
)

// Directory resolves the people behind an order: the buyer, the sellers
// whose items it contains, and the platform admins.
type Directory interface {
	FindUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindSellersByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Seller, error)
	ListAdmins(ctx context.Context) ([]models.User, error)
}

// InboxWriter persists in-app notification rows.
type InboxWriter interface {
	Create(ctx context.Context, n *models.Notification) error
}

// Dispatcher fans out order events. Every send is best-effort: a failure is
// logged and counted, never returned to the code path that triggered it.
type Dispatcher struct {
	directory Directory
	inbox     InboxWriter
	mail      mailer.Mailer
	logg      *logger.Logger
	metrics   *metrics.PipelineMetrics
}

// NewDispatcher builds the notification dispatcher.
func NewDispatcher(directory Directory, inbox InboxWriter, mail mailer.Mailer, logg *logger.Logger, m *metrics.PipelineMetrics) (*Dispatcher, error) {
	if directory == nil {
		return nil, fmt.Errorf("recipient directory required")
	}
	if inbox == nil {
		return nil, fmt.Errorf("inbox writer required")
	}
	if mail == nil {
		return nil, fmt.Errorf("mailer required")
	}
	return &Dispatcher{
		directory: directory,
		inbox:     inbox,
		mail:      mail,
		logg:      logg,
		metrics:   m,
	}, nil
}

// NotifyOrderCreated tells the customer, every affected seller, and the
// admins about a new order. Runs after the order transaction has committed.
func (d *Dispatcher) NotifyOrderCreated(ctx context.Context, order *models.Order) {
	var errs error

	errs = multierr.Append(errs, d.notifyCustomer(ctx, order,
		fmt.Sprintf("Order %s confirmed", order.OrderNumber),
		fmt.Sprintf("Your order %s for %s has been received and is being processed.", order.OrderNumber, order.Total.StringFixed(2)),
		enums.NotificationTypeOrderPlaced,
	))

	errs = multierr.Append(errs, d.notifySellers(ctx, order, enums.NotificationTypeOrderPlaced,
		func(group orders.SellerGroup) (string, string) {
			return fmt.Sprintf("New items from order %s", order.OrderNumber), sellerBody(order, group)
		},
	))
	errs = multierr.Append(errs, d.notifyAdmins(ctx, order,
		fmt.Sprintf("New order %s", order.OrderNumber),
		fmt.Sprintf("Order %s was placed for %s across %d item(s).", order.OrderNumber, order.Total.StringFixed(2), len(order.Items)),
	))

	d.logOutcome(ctx, order, "order created fan-out complete", errs)
}

// NotifyStatusChanged tells the customer, every affected seller, and the
// admins about a lifecycle move. Each seller's message covers only the items
// they supplied.
func (d *Dispatcher) NotifyStatusChanged(ctx context.Context, order *models.Order, newStatus enums.OrderStatus) {
	message := StatusMessage(newStatus)
	var errs error

	errs = multierr.Append(errs, d.notifyCustomer(ctx, order,
		fmt.Sprintf("Order %s update", order.OrderNumber),
		message,
		enums.NotificationTypeOrderStatus,
	))

	errs = multierr.Append(errs, d.notifySellers(ctx, order, enums.NotificationTypeOrderStatus,
		func(group orders.SellerGroup) (string, string) {
			return fmt.Sprintf("Order %s is now %s", order.OrderNumber, newStatus),
				sellerStatusBody(order, group, newStatus)
		},
	))
	errs = multierr.Append(errs, d.notifyAdmins(ctx, order,
		fmt.Sprintf("Order %s is now %s", order.OrderNumber, newStatus),
		fmt.Sprintf("Order %s moved to status %s.", order.OrderNumber, newStatus),
	))

	d.logOutcome(ctx, order, "status change fan-out complete", errs)
}

func (d *Dispatcher) notifyCustomer(ctx context.Context, order *models.Order, title, body string, kind enums.NotificationType) error {
	user, err := d.directory.FindUserByID(ctx, order.UserID)
	if err != nil {
		d.metrics.IncNotification("email", "failed")
		return fmt.Errorf("resolving customer %s: %w", order.UserID, err)
	}

	var errs error
	if err := d.sendMail(ctx, user.Email, title, body); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("customer email: %w", err))
	}
	if err := d.writeInbox(ctx, user.ID, kind, title, body, order.ID); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("customer inbox: %w", err))
	}
	return errs
}

func (d *Dispatcher) notifySellers(ctx context.Context, order *models.Order, kind enums.NotificationType, render func(orders.SellerGroup) (title, body string)) error {
	groups := orders.GroupBySeller(order.Items)
	sellerIDs := make([]uuid.UUID, 0, len(groups))
	for _, group := range groups {
		if group.SellerID != orders.PlatformSellerID {
			sellerIDs = append(sellerIDs, group.SellerID)
		}
	}
	if len(sellerIDs) == 0 {
		return nil
	}

	sellers, err := d.directory.FindSellersByIDs(ctx, sellerIDs)
	if err != nil {
		d.metrics.IncNotification("email", "failed")
		return fmt.Errorf("resolving sellers: %w", err)
	}
	byID := make(map[uuid.UUID]models.Seller, len(sellers))
	for _, seller := range sellers {
		byID[seller.ID] = seller
	}

	var errs error
	for _, group := range groups {
		if group.SellerID == orders.PlatformSellerID {
			continue
		}
		seller, ok := byID[group.SellerID]
		if !ok {
			errs = multierr.Append(errs, fmt.Errorf("seller %s not found", group.SellerID))
			continue
		}

		title, body := render(group)
		if err := d.sendMail(ctx, seller.ContactEmail, title, body); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("seller %s email: %w", seller.ID, err))
		}
		if err := d.writeInbox(ctx, seller.OwnerUserID, kind, title, body, order.ID); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("seller %s inbox: %w", seller.ID, err))
		}
	}
	return errs
}

func (d *Dispatcher) notifyAdmins(ctx context.Context, order *models.Order, title, body string) error {
	admins, err := d.directory.ListAdmins(ctx)
	if err != nil {
		d.metrics.IncNotification("email", "failed")
		return fmt.Errorf("resolving admins: %w", err)
	}

	var errs error
	for _, admin := range admins {
		if err := d.sendMail(ctx, admin.Email, title, body); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("admin %s email: %w", admin.ID, err))
		}
		if err := d.writeInbox(ctx, admin.ID, enums.NotificationTypeSystem, title, body, order.ID); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("admin %s inbox: %w", admin.ID, err))
		}
	}
	return errs
}

// sellerBody renders only the seller's own slice of the order. Sellers never
// see the full order contents.
func sellerBody(order *models.Order, group orders.SellerGroup) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Order %s includes the following items from your shop:\n", order.OrderNumber)
	for _, item := range group.Items {
		fmt.Fprintf(&b, "- %s x%d at %s = %s\n", item.Title, item.Qty, item.UnitPrice.StringFixed(2), item.LineTotal.StringFixed(2))
	}
	fmt.Fprintf(&b, "Your gross total: %s\n", orders.GroupRevenue(group.Items).StringFixed(2))
	return b.String()
}

// sellerStatusBody restates the lifecycle move against the seller's own
// slice of the order.
func sellerStatusBody(order *models.Order, group orders.SellerGroup, status enums.OrderStatus) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Order %s moved to status %s.\n", order.OrderNumber, status)
	fmt.Fprintf(&b, "It includes %d item(s) from your shop:\n", len(group.Items))
	for _, item := range group.Items {
		fmt.Fprintf(&b, "- %s x%d\n", item.Title, item.Qty)
	}
	return b.String()
}

func (d *Dispatcher) sendMail(ctx context.Context, to, subject, body string) error {
	err := d.mail.Send(ctx, mailer.Message{To: to, Subject: subject, Body: body})
	if err != nil {
		d.metrics.IncNotification("email", "failed")
		return err
	}
	d.metrics.IncNotification("email", "sent")
	return nil
}

func (d *Dispatcher) writeInbox(ctx context.Context, userID uuid.UUID, kind enums.NotificationType, title, body string, orderID uuid.UUID) error {
	row := &models.Notification{
		UserID:  userID,
		Type:    kind,
		Title:   title,
		Message: body,
		OrderID: &orderID,
	}
	if err := d.inbox.Create(ctx, row); err != nil {
		d.metrics.IncNotification("inbox", "failed")
		return err
	}
	d.metrics.IncNotification("inbox", "sent")
	return nil
}

// logOutcome records the aggregate of all per-recipient failures. Errors
// stop here; the order write has already succeeded.
func (d *Dispatcher) logOutcome(ctx context.Context, order *models.Order, msg string, errs error) {
	if d.logg == nil {
		return
	}
	logCtx := d.logg.WithOrderID(ctx, order.ID.String())
	if errs != nil {
		logCtx = d.logg.WithField(logCtx, "failed_sends", len(multierr.Errors(errs)))
		d.logg.Error(logCtx, "notification fan-out finished with failures", errs)
		return
	}
	d.logg.Info(logCtx, msg)
}
