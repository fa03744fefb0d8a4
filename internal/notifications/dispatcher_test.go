package notifications

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/petalworks/petalworks-backend/pkg/db/models"
	"github.com/petalworks/petalworks-backend/pkg/enums"
	"github.com/petalworks/petalworks-backend/pkg/mailer"
)

type stubDirectory struct {
	customer *models.User
	sellers  map[uuid.UUID]models.Seller
	admins   []models.User
	userErr  error
}

func (s *stubDirectory) FindUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if s.userErr != nil {
		return nil, s.userErr
	}
	return s.customer, nil
}

func (s *stubDirectory) FindSellersByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Seller, error) {
	out := []models.Seller{}
	for _, id := range ids {
		if seller, ok := s.sellers[id]; ok {
			out = append(out, seller)
		}
	}
	return out, nil
}

func (s *stubDirectory) ListAdmins(ctx context.Context) ([]models.User, error) {
	return s.admins, nil
}

type stubInbox struct {
	mu   sync.Mutex
	rows []*models.Notification
	err  error
}

func (s *stubInbox) Create(ctx context.Context, n *models.Notification) error {
	if s.err != nil {
		return s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, n)
	return nil
}

type stubMailer struct {
	mu     sync.Mutex
	sent   []mailer.Message
	failTo map[string]error
}

func (s *stubMailer) Send(ctx context.Context, msg mailer.Message) error {
	if err, ok := s.failTo[msg.To]; ok {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, msg)
	return nil
}

func (s *stubMailer) sentTo(addr string) []mailer.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []mailer.Message{}
	for _, msg := range s.sent {
		if msg.To == addr {
			out = append(out, msg)
		}
	}
	return out
}

func orderItem(sellerID uuid.UUID, title, price string, qty int) models.OrderItem {
	unit := decimal.RequireFromString(price)
	return models.OrderItem{
		ID:        uuid.New(),
		SellerID:  sellerID,
		Title:     title,
		UnitPrice: unit,
		Qty:       qty,
		LineTotal: unit.Mul(decimal.NewFromInt(int64(qty))),
	}
}

type fixture struct {
	dispatcher *Dispatcher
	directory  *stubDirectory
	inbox      *stubInbox
	mail       *stubMailer
	order      *models.Order
	sellerA    models.Seller
	sellerB    models.Seller
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	customer := &models.User{ID: uuid.New(), Email: "buyer@example.com", Role: enums.UserRoleCustomer}
	sellerA := models.Seller{ID: uuid.New(), OwnerUserID: uuid.New(), Name: "Rose & Co", ContactEmail: "rose@example.com"}
	sellerB := models.Seller{ID: uuid.New(), OwnerUserID: uuid.New(), Name: "Lily Works", ContactEmail: "lily@example.com"}
	admin := models.User{ID: uuid.New(), Email: "admin@example.com", Role: enums.UserRoleAdmin}

	directory := &stubDirectory{
		customer: customer,
		sellers:  map[uuid.UUID]models.Seller{sellerA.ID: sellerA, sellerB.ID: sellerB},
		admins:   []models.User{admin},
	}
	inbox := &stubInbox{}
	mail := &stubMailer{failTo: map[string]error{}}

	dispatcher, err := NewDispatcher(directory, inbox, mail, nil, nil)
	if err != nil {
		t.Fatalf("new dispatcher: %v", err)
	}

	order := &models.Order{
		ID:          uuid.New(),
		OrderNumber: "PW-20260115-0001",
		UserID:      customer.ID,
		Total:       decimal.RequireFromString("315"),
		Items: []models.OrderItem{
			orderItem(sellerA.ID, "Red roses", "100", 2),
			orderItem(sellerB.ID, "White lilies", "50", 1),
			orderItem(sellerA.ID, "Vase", "25", 1),
		},
	}

	return &fixture{
		dispatcher: dispatcher,
		directory:  directory,
		inbox:      inbox,
		mail:       mail,
		order:      order,
		sellerA:    sellerA,
		sellerB:    sellerB,
	}
}

func TestNotifyOrderCreatedFansOutPerRecipient(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.dispatcher.NotifyOrderCreated(context.Background(), f.order)

	if got := f.mail.sentTo("buyer@example.com"); len(got) != 1 {
		t.Fatalf("expected 1 customer email, got %d", len(got))
	}
	if got := f.mail.sentTo("admin@example.com"); len(got) != 1 {
		t.Fatalf("expected 1 admin email, got %d", len(got))
	}

	roseEmails := f.mail.sentTo("rose@example.com")
	if len(roseEmails) != 1 {
		t.Fatalf("expected exactly 1 email to seller A, got %d", len(roseEmails))
	}
	body := roseEmails[0].Body
	if !strings.Contains(body, "Red roses") || !strings.Contains(body, "Vase") {
		t.Fatalf("seller A body missing own items: %q", body)
	}
	if strings.Contains(body, "White lilies") {
		t.Fatalf("seller A must not see seller B items")
	}
	// A's items: 100x2 + 25x1 = 225
	if !strings.Contains(body, "225.00") {
		t.Fatalf("seller A total missing: %q", body)
	}

	lilyEmails := f.mail.sentTo("lily@example.com")
	if len(lilyEmails) != 1 {
		t.Fatalf("expected exactly 1 email to seller B, got %d", len(lilyEmails))
	}
	if strings.Contains(lilyEmails[0].Body, "Red roses") {
		t.Fatalf("seller B must not see seller A items")
	}
}

func TestNotifyOrderCreatedFailureIsolation(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.mail.failTo["lily@example.com"] = errors.New("smtp refused")

	// Must not panic or propagate anything; other recipients still get mail.
	f.dispatcher.NotifyOrderCreated(context.Background(), f.order)

	if got := f.mail.sentTo("rose@example.com"); len(got) != 1 {
		t.Fatalf("seller A send must survive seller B failure")
	}
	if got := f.mail.sentTo("buyer@example.com"); len(got) != 1 {
		t.Fatalf("customer send must survive seller failure")
	}
}

func TestNotifyOrderCreatedWritesInboxRows(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.dispatcher.NotifyOrderCreated(context.Background(), f.order)

	// customer + 2 seller owners + 1 admin
	if len(f.inbox.rows) != 4 {
		t.Fatalf("expected 4 inbox rows, got %d", len(f.inbox.rows))
	}
	for _, row := range f.inbox.rows {
		if row.OrderID == nil || *row.OrderID != f.order.ID {
			t.Fatalf("inbox row missing order reference")
		}
	}
}

func TestNotifyStatusChangedUsesMessageTable(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.dispatcher.NotifyStatusChanged(context.Background(), f.order, enums.OrderStatusOutForDelivery)

	got := f.mail.sentTo("buyer@example.com")
	if len(got) != 1 {
		t.Fatalf("expected 1 customer email, got %d", len(got))
	}
	if !strings.Contains(got[0].Body, "on its way") {
		t.Fatalf("expected out-for-delivery message, got %q", got[0].Body)
	}
}

func TestNotifyStatusChangedFansOutToSellers(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.dispatcher.NotifyStatusChanged(context.Background(), f.order, enums.OrderStatusPreparing)

	roseEmails := f.mail.sentTo("rose@example.com")
	if len(roseEmails) != 1 {
		t.Fatalf("expected exactly 1 status email to seller A, got %d", len(roseEmails))
	}
	body := roseEmails[0].Body
	if !strings.Contains(body, "preparing") {
		t.Fatalf("seller A body missing new status: %q", body)
	}
	if !strings.Contains(body, "Red roses") || !strings.Contains(body, "Vase") {
		t.Fatalf("seller A body missing own items: %q", body)
	}
	if strings.Contains(body, "White lilies") {
		t.Fatalf("seller A must not see seller B items")
	}

	lilyEmails := f.mail.sentTo("lily@example.com")
	if len(lilyEmails) != 1 {
		t.Fatalf("expected exactly 1 status email to seller B, got %d", len(lilyEmails))
	}
	if strings.Contains(lilyEmails[0].Body, "Red roses") {
		t.Fatalf("seller B must not see seller A items")
	}

	// customer + 2 seller owners + 1 admin
	if len(f.inbox.rows) != 4 {
		t.Fatalf("expected 4 inbox rows, got %d", len(f.inbox.rows))
	}
	for _, row := range f.inbox.rows {
		if row.UserID == f.sellerA.OwnerUserID && row.Type != enums.NotificationTypeOrderStatus {
			t.Fatalf("seller inbox row should carry status type, got %s", row.Type)
		}
	}
}

func TestNotifyStatusChangedUnknownStatusFallsBack(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.dispatcher.NotifyStatusChanged(context.Background(), f.order, enums.OrderStatus("mystery"))

	got := f.mail.sentTo("buyer@example.com")
	if len(got) != 1 {
		t.Fatalf("expected 1 customer email, got %d", len(got))
	}
	if got[0].Body != genericStatusMessage {
		t.Fatalf("expected generic fallback, got %q", got[0].Body)
	}
}

func TestNotifyOrderCreatedSwallowsDirectoryFailure(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.directory.userErr = errors.New("db down")

	// Nothing to assert beyond "does not panic and does not propagate":
	// the dispatcher's contract is that the caller never sees an error.
	f.dispatcher.NotifyOrderCreated(context.Background(), f.order)

	if got := f.mail.sentTo("rose@example.com"); len(got) != 1 {
		t.Fatalf("seller fan-out must survive customer lookup failure")
	}
}
