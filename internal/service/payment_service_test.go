package service

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"github.com/nurpe/rentflow/internal/excel"
	"github.com/nurpe/rentflow/internal/gateway"
	"github.com/nurpe/rentflow/internal/model"
	"github.com/nurpe/rentflow/internal/queue"
	"github.com/nurpe/rentflow/internal/repository"
	"github.com/nurpe/rentflow/internal/testutil"
	"github.com/nurpe/rentflow/internal/workflow"
)

// fakeGateway treats the webhook payload as the event id and returns the queued event.
type fakeGateway struct {
	requests []gateway.CheckoutRequest
	events   map[string]*gateway.Event
	err      error
}

func (g *fakeGateway) CreateCheckoutSession(_ context.Context, req gateway.CheckoutRequest) (*gateway.CheckoutSession, error) {
	if g.err != nil {
		return nil, g.err
	}
	g.requests = append(g.requests, req)
	return &gateway.CheckoutSession{ID: "cs_test_1", URL: "https://checkout.stripe.com/c/pay/cs_test_1"}, nil
}

func (g *fakeGateway) ParseEvent(payload []byte, signature string) (*gateway.Event, error) {
	if signature != "valid" {
		return nil, gateway.ErrSignature
	}
	event, ok := g.events[string(payload)]
	if !ok {
		return nil, errors.New("unknown event")
	}
	return event, nil
}

type paymentFixture struct {
	db       *gorm.DB
	svc      *PaymentService
	gateway  *fakeGateway
	broker   *queue.MemoryBroker
	owner    model.User
	tenant   model.User
	payments []model.Payment
	paidAt   time.Time
}

func newPaymentFixture(t *testing.T) *paymentFixture {
	t.Helper()
	db := testutil.NewDB(t)
	f := &paymentFixture{
		db:      db,
		gateway: &fakeGateway{events: map[string]*gateway.Event{}},
		broker:  queue.NewMemoryBroker(),
		paidAt:  time.Date(2024, 1, 20, 10, 0, 0, 0, time.UTC),
	}
	f.owner = testutil.CreateUser(t, db, model.RoleOwner)
	f.tenant = testutil.CreateUser(t, db, model.RoleTenant)
	property := testutil.CreateProperty(t, db, f.owner.ID, "1500")
	app := testutil.CreateApplication(t, db, f.tenant.ID, property.ID, testutil.Date(2024, 1, 15), 3)

	agreement := workflow.NewAgreement(app, "https://files.example.com/lease.pdf")
	require.NoError(t, db.Create(&agreement).Error)

	payments := repository.NewPaymentRepository(db)
	require.NoError(t, payments.CreateBatch(context.Background(), workflow.BuildSchedule(workflow.PaymentPeriod{
		TenantID:       f.tenant.ID,
		AgreementID:    agreement.ID,
		Amount:         property.RentAmount,
		StartDate:      agreement.StartDate,
		RentalDuration: 3,
	})))
	require.NoError(t, db.Order("due_date ASC").Find(&f.payments).Error)
	require.Len(t, f.payments, 3)

	f.svc = NewPaymentService(
		payments,
		repository.NewAgreementRepository(db),
		repository.NewPropertyRepository(db),
		f.gateway,
		queue.NewClient(f.broker, 1),
		excel.NewGenerator(),
		zerolog.Nop(),
	)
	f.svc.now = func() time.Time { return f.paidAt }
	return f
}

func (f *paymentFixture) tenantPrincipal() model.Principal {
	return model.Principal{UserID: f.tenant.ID, Role: model.RoleTenant}
}

func (f *paymentFixture) event(id string, kind gateway.EventKind, paymentID uuid.UUID, paymentStatus string) {
	f.gateway.events[id] = &gateway.Event{
		ID:              id,
		Kind:            kind,
		SessionID:       "cs_test_1",
		PaymentStatus:   paymentStatus,
		PaymentIntentID: "pi_test_1",
		Metadata:        map[string]string{gateway.MetadataPaymentID: paymentID.String()},
	}
}

func (f *paymentFixture) reload(t *testing.T, id uuid.UUID) model.Payment {
	t.Helper()
	var payment model.Payment
	require.NoError(t, f.db.First(&payment, "id = ?", id).Error)
	return payment
}

func TestCreateCheckoutSession(t *testing.T) {
	f := newPaymentFixture(t)
	payment := f.payments[0]

	result, err := f.svc.CreateCheckoutSession(context.Background(), f.tenantPrincipal(), payment.ID)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "cs_test_1", result.SessionID)
	assert.NotEmpty(t, result.URL)

	require.Len(t, f.gateway.requests, 1)
	req := f.gateway.requests[0]
	assert.Equal(t, payment.ID, req.PaymentID)
	assert.Equal(t, f.tenant.ID, req.TenantID)
	assert.True(t, req.Amount.Equal(decimal.RequireFromString("1500")))

	stored := f.reload(t, payment.ID)
	require.NotNil(t, stored.TransactionID)
	assert.Equal(t, "cs_test_1", *stored.TransactionID)
	assert.Equal(t, model.PaymentStatusPending, stored.Status)
}

func TestCreateCheckoutSessionErrors(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateCheckoutSession(ctx, f.tenantPrincipal(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)

	stranger := model.Principal{UserID: uuid.New(), Role: model.RoleTenant}
	_, err = f.svc.CreateCheckoutSession(ctx, stranger, f.payments[0].ID)
	assert.ErrorIs(t, err, ErrPermissionDenied)

	require.NoError(t, f.db.Model(&model.Payment{}).Where("id = ?", f.payments[1].ID).Update("status", model.PaymentStatusCompleted).Error)
	_, err = f.svc.CreateCheckoutSession(ctx, f.tenantPrincipal(), f.payments[1].ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	f.gateway.err = errors.New("stripe down")
	_, err = f.svc.CreateCheckoutSession(ctx, f.tenantPrincipal(), f.payments[2].ID)
	assert.ErrorIs(t, err, ErrGateway)
}

func TestWebhookCompletesPayment(t *testing.T) {
	f := newPaymentFixture(t)
	payment := f.payments[0]
	f.event("evt_1", gateway.EventCheckoutCompleted, payment.ID, gateway.SessionPaymentStatusPaid)

	result, err := f.svc.HandleWebhookEvent(context.Background(), []byte("evt_1"), "valid")
	require.NoError(t, err)
	assert.Equal(t, WebhookApplied, result.Action)
	assert.Equal(t, payment.ID, result.PaymentID)

	stored := f.reload(t, payment.ID)
	assert.Equal(t, model.PaymentStatusCompleted, stored.Status)
	require.NotNil(t, stored.PaidDate)
	assert.True(t, stored.PaidDate.Equal(f.paidAt))
	require.NotNil(t, stored.TransactionID)
	assert.Equal(t, "pi_test_1", *stored.TransactionID)

	pending := f.broker.Pending(workflow.NotifyTopic.Queue, workflow.NotifyTopic.Name)
	require.Len(t, pending, 1)
	notify, err := workflow.NotifyTopic.Decode(pending[0])
	require.NoError(t, err)
	assert.Equal(t, f.tenant.ID, notify.NotificationDto.UserID)
	assert.Equal(t, model.NotificationTypePayment, notify.NotificationDto.Type)
}

func TestWebhookReplayIsIdempotent(t *testing.T) {
	f := newPaymentFixture(t)
	payment := f.payments[0]
	f.event("evt_1", gateway.EventAsyncPaymentSucceeded, payment.ID, gateway.SessionPaymentStatusPaid)

	_, err := f.svc.HandleWebhookEvent(context.Background(), []byte("evt_1"), "valid")
	require.NoError(t, err)
	first := f.reload(t, payment.ID)

	f.paidAt = f.paidAt.Add(time.Hour)
	result, err := f.svc.HandleWebhookEvent(context.Background(), []byte("evt_1"), "valid")
	require.NoError(t, err)
	assert.Equal(t, WebhookReplayed, result.Action)

	second := f.reload(t, payment.ID)
	assert.Equal(t, model.PaymentStatusCompleted, second.Status)
	assert.True(t, second.PaidDate.Equal(*first.PaidDate))
	assert.Len(t, f.broker.Pending(workflow.NotifyTopic.Queue, workflow.NotifyTopic.Name), 1)
}

// failingBroker refuses the first n enqueues.
type failingBroker struct {
	*queue.MemoryBroker
	failures int
}

func (b *failingBroker) Enqueue(ctx context.Context, job queue.Job) error {
	if b.failures > 0 {
		b.failures--
		return errors.New("broker down")
	}
	return b.MemoryBroker.Enqueue(ctx, job)
}

func TestWebhookSettlesWhenNotificationFails(t *testing.T) {
	f := newPaymentFixture(t)
	payment := f.payments[0]
	f.svc.producer = queue.NewClient(&failingBroker{MemoryBroker: f.broker, failures: 1}, 1)
	f.event("evt_1", gateway.EventCheckoutCompleted, payment.ID, gateway.SessionPaymentStatusPaid)

	result, err := f.svc.HandleWebhookEvent(context.Background(), []byte("evt_1"), "valid")
	require.NoError(t, err)
	assert.Equal(t, WebhookApplied, result.Action)
	assert.NotEmpty(t, result.Reason)
	assert.Equal(t, model.PaymentStatusCompleted, f.reload(t, payment.ID).Status)
	assert.Empty(t, f.broker.Pending(workflow.NotifyTopic.Queue, workflow.NotifyTopic.Name))

	result, err = f.svc.HandleWebhookEvent(context.Background(), []byte("evt_1"), "valid")
	require.NoError(t, err)
	assert.Equal(t, WebhookReplayed, result.Action)
	assert.Empty(t, f.broker.Pending(workflow.NotifyTopic.Queue, workflow.NotifyTopic.Name))
}

func TestWebhookFailsPayment(t *testing.T) {
	f := newPaymentFixture(t)
	payment := f.payments[0]
	f.event("evt_fail", gateway.EventAsyncPaymentFailed, payment.ID, "unpaid")

	result, err := f.svc.HandleWebhookEvent(context.Background(), []byte("evt_fail"), "valid")
	require.NoError(t, err)
	assert.Equal(t, WebhookApplied, result.Action)

	stored := f.reload(t, payment.ID)
	assert.Equal(t, model.PaymentStatusFailed, stored.Status)
	assert.Nil(t, stored.PaidDate)
	assert.Empty(t, f.broker.Pending(workflow.NotifyTopic.Queue, ""))
}

func TestWebhookDoesNotLeaveTerminalState(t *testing.T) {
	f := newPaymentFixture(t)
	payment := f.payments[0]
	f.event("evt_ok", gateway.EventAsyncPaymentSucceeded, payment.ID, gateway.SessionPaymentStatusPaid)
	f.event("evt_fail", gateway.EventAsyncPaymentFailed, payment.ID, "unpaid")

	_, err := f.svc.HandleWebhookEvent(context.Background(), []byte("evt_ok"), "valid")
	require.NoError(t, err)
	result, err := f.svc.HandleWebhookEvent(context.Background(), []byte("evt_fail"), "valid")
	require.NoError(t, err)
	assert.Equal(t, WebhookRejected, result.Action)
	assert.Equal(t, model.PaymentStatusCompleted, f.reload(t, payment.ID).Status)
}

func TestWebhookIgnoredEvents(t *testing.T) {
	f := newPaymentFixture(t)
	payment := f.payments[0]

	f.event("evt_unpaid", gateway.EventCheckoutCompleted, payment.ID, "unpaid")
	f.event("evt_other", gateway.EventKind("customer.created"), payment.ID, "")
	f.event("evt_unknown_payment", gateway.EventAsyncPaymentSucceeded, uuid.New(), "paid")
	f.gateway.events["evt_no_meta"] = &gateway.Event{ID: "evt_no_meta", Kind: gateway.EventAsyncPaymentSucceeded}

	for _, id := range []string{"evt_unpaid", "evt_other", "evt_unknown_payment", "evt_no_meta"} {
		t.Run(id, func(t *testing.T) {
			result, err := f.svc.HandleWebhookEvent(context.Background(), []byte(id), "valid")
			require.NoError(t, err)
			assert.Equal(t, WebhookIgnored, result.Action)
			assert.NotEmpty(t, result.Reason)
		})
	}
	assert.Equal(t, model.PaymentStatusPending, f.reload(t, payment.ID).Status)
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	f := newPaymentFixture(t)
	f.event("evt_1", gateway.EventCheckoutCompleted, f.payments[0].ID, gateway.SessionPaymentStatusPaid)

	_, err := f.svc.HandleWebhookEvent(context.Background(), []byte("evt_1"), "forged")
	assert.ErrorIs(t, err, ErrInvalidSignature)
	assert.Equal(t, model.PaymentStatusPending, f.reload(t, f.payments[0].ID).Status)
}

func TestPaymentListsByRole(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()
	f.event("evt_1", gateway.EventAsyncPaymentSucceeded, f.payments[0].ID, gateway.SessionPaymentStatusPaid)
	_, err := f.svc.HandleWebhookEvent(ctx, []byte("evt_1"), "valid")
	require.NoError(t, err)

	history, err := f.svc.History(ctx, f.tenantPrincipal())
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, f.payments[0].ID, history[0].ID)

	upcoming, err := f.svc.Upcoming(ctx, f.tenantPrincipal())
	require.NoError(t, err)
	require.Len(t, upcoming, 2)
	assert.True(t, upcoming[0].DueDate.Before(upcoming[1].DueDate))

	ownerPrincipal := model.Principal{UserID: f.owner.ID, Role: model.RoleOwner}
	ownerUpcoming, err := f.svc.Upcoming(ctx, ownerPrincipal)
	require.NoError(t, err)
	assert.Len(t, ownerUpcoming, 2)

	otherOwner := model.Principal{UserID: uuid.New(), Role: model.RoleOwner}
	none, err := f.svc.Upcoming(ctx, otherOwner)
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = f.svc.Get(ctx, ownerPrincipal, f.payments[1].ID)
	assert.NoError(t, err)
	_, err = f.svc.Get(ctx, otherOwner, f.payments[1].ID)
	assert.ErrorIs(t, err, ErrPermissionDenied)
	_, err = f.svc.Get(ctx, model.Principal{UserID: uuid.New(), Role: model.RoleTenant}, f.payments[1].ID)
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestExportPayments(t *testing.T) {
	f := newPaymentFixture(t)

	result, err := f.svc.Export(context.Background(), f.tenantPrincipal())
	require.NoError(t, err)
	assert.Equal(t, "payments_20240120.xlsx", result.FileName)

	file, err := excelize.OpenReader(bytes.NewReader(result.Content))
	require.NoError(t, err)
	defer file.Close()

	sheets := file.GetSheetList()
	require.Len(t, sheets, 2)
	assert.Equal(t, "Summary", sheets[0])

	count, err := file.GetCellValue("Summary", "B3")
	require.NoError(t, err)
	assert.Equal(t, "3", count)
}
