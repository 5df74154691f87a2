package workflow

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nurpe/rentflow/internal/model"
)

func testApplication() model.RentalApplication {
	return model.RentalApplication{
		ID:                 uuid.New(),
		TenantID:           uuid.New(),
		PropertyID:         uuid.New(),
		FullName:           "Asha Rao",
		Status:             model.ApplicationStatusPending,
		ExpectedMoveInDate: date(2024, 1, 15),
		RentalDuration:     3,
	}
}

func TestDecideApproved(t *testing.T) {
	app := testApplication()

	cmds, err := Decide(app, model.ApplicationStatusApproved)
	require.NoError(t, err)
	require.Len(t, cmds, 2)

	notify, ok := cmds[0].(Notify)
	require.True(t, ok, "notification comes first")
	assert.Equal(t, app.TenantID, notify.NotificationDto.UserID)
	assert.Equal(t, "Rental Request", notify.NotificationDto.Title)
	assert.Contains(t, notify.NotificationDto.Message, "APPROVED")
	assert.Equal(t, model.NotificationTypeApproval, notify.NotificationDto.Type)

	generate, ok := cmds[1].(GenerateAgreement)
	require.True(t, ok)
	assert.Equal(t, app.ID, generate.RentalApplication.ID)
	assert.Equal(t, model.ApplicationStatusApproved, generate.RentalApplication.Status)
}

func TestDecideRejected(t *testing.T) {
	cmds, err := Decide(testApplication(), model.ApplicationStatusRejected)
	require.NoError(t, err)
	require.Len(t, cmds, 1)

	notify := cmds[0].(Notify)
	assert.Contains(t, notify.NotificationDto.Message, "REJECTED")
	assert.Equal(t, model.NotificationTypeRejection, notify.NotificationDto.Type)
}

func TestDecidePending(t *testing.T) {
	_, err := Decide(testApplication(), model.ApplicationStatusPending)
	assert.Error(t, err)
}

func TestNewAgreement(t *testing.T) {
	app := testApplication()
	agreement := NewAgreement(app, "https://files.example.com/a.pdf")

	assert.Equal(t, app.ID, agreement.RentalApplicationID)
	assert.Equal(t, app.TenantID, agreement.TenantID)
	assert.Equal(t, app.PropertyID, agreement.PropertyID)
	assert.Equal(t, date(2024, 1, 15), agreement.StartDate)
	assert.Equal(t, date(2024, 4, 15), agreement.EndDate)
	assert.Equal(t, "https://files.example.com/a.pdf", agreement.AgreementURL)
}

func TestAgreementCreated(t *testing.T) {
	app := testApplication()
	agreement := NewAgreement(app, "https://files.example.com/a.pdf")
	agreement.ID = uuid.New()
	property := model.Property{ID: app.PropertyID, Title: "Sunny flat", RentAmount: decimal.RequireFromString("1500")}

	cmds := AgreementCreated(agreement, property, app)
	require.Len(t, cmds, 2)

	schedule := cmds[0].(SchedulePayments).CreatePaymentPeriodDto
	assert.Equal(t, agreement.ID, schedule.AgreementID)
	assert.Equal(t, app.TenantID, schedule.TenantID)
	assert.True(t, schedule.Amount.Equal(decimal.RequireFromString("1500")))
	assert.Equal(t, agreement.StartDate, schedule.StartDate)
	assert.Equal(t, 3, schedule.RentalDuration)

	notify := cmds[1].(Notify).NotificationDto
	assert.Equal(t, model.NotificationTypeAgreement, notify.Type)
	assert.Contains(t, notify.Message, agreement.AgreementURL)
}

func TestCanDecide(t *testing.T) {
	assert.True(t, CanDecide(model.ApplicationStatusPending, model.ApplicationStatusApproved))
	assert.True(t, CanDecide(model.ApplicationStatusPending, model.ApplicationStatusRejected))
	assert.False(t, CanDecide(model.ApplicationStatusPending, model.ApplicationStatusPending))
	assert.False(t, CanDecide(model.ApplicationStatusApproved, model.ApplicationStatusRejected))
	assert.False(t, CanDecide(model.ApplicationStatusRejected, model.ApplicationStatusApproved))
	assert.False(t, CanDecide(model.ApplicationStatusApproved, model.ApplicationStatusApproved))
}

func TestSettle(t *testing.T) {
	assert.Equal(t, SettlementApply, Settle(model.PaymentStatusPending, model.PaymentStatusCompleted))
	assert.Equal(t, SettlementApply, Settle(model.PaymentStatusPending, model.PaymentStatusFailed))
	assert.Equal(t, SettlementReplay, Settle(model.PaymentStatusCompleted, model.PaymentStatusCompleted))
	assert.Equal(t, SettlementReplay, Settle(model.PaymentStatusFailed, model.PaymentStatusFailed))
	assert.Equal(t, SettlementReject, Settle(model.PaymentStatusCompleted, model.PaymentStatusFailed))
	assert.Equal(t, SettlementReject, Settle(model.PaymentStatusFailed, model.PaymentStatusCompleted))
}

type recordingProducer struct {
	published []string
	failAt    int
}

func (p *recordingProducer) Publish(_ context.Context, queue, name string, _ any) error {
	if p.failAt > 0 && len(p.published)+1 == p.failAt {
		return errors.New("broker down")
	}
	p.published = append(p.published, queue+"/"+name)
	return nil
}

func TestPublishAllKeepsOrder(t *testing.T) {
	cmds, err := Decide(testApplication(), model.ApplicationStatusApproved)
	require.NoError(t, err)

	producer := &recordingProducer{}
	require.NoError(t, PublishAll(context.Background(), producer, cmds))
	assert.Equal(t, []string{NotifyTopic.Key(), AgreementTopic.Key()}, producer.published)
}

func TestPublishAllStopsAtFailure(t *testing.T) {
	cmds, err := Decide(testApplication(), model.ApplicationStatusApproved)
	require.NoError(t, err)

	producer := &recordingProducer{failAt: 2}
	err = PublishAll(context.Background(), producer, cmds)
	require.Error(t, err)
	assert.Equal(t, []string{NotifyTopic.Key()}, producer.published)
}
