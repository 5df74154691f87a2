package workflow

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nurpe/rentflow/internal/model"
)

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func TestAddMonths(t *testing.T) {
	cases := []struct {
		name  string
		start time.Time
		n     int
		want  time.Time
	}{
		{"same day next month", date(2024, 1, 15), 1, date(2024, 2, 15)},
		{"crosses year", date(2024, 11, 30), 3, date(2025, 2, 28)},
		{"clamps to leap february", date(2024, 1, 31), 1, date(2024, 2, 29)},
		{"clamps to short february", date(2023, 1, 31), 1, date(2023, 2, 28)},
		{"clamps to thirty day month", date(2024, 3, 31), 1, date(2024, 4, 30)},
		{"zero months", date(2024, 5, 10), 0, date(2024, 5, 10)},
		{"twelve months", date(2024, 2, 29), 12, date(2025, 2, 28)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, AddMonths(tc.start, tc.n))
		})
	}
}

func TestAddMonthsKeepsClock(t *testing.T) {
	start := time.Date(2024, 1, 31, 9, 30, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 2, 29, 9, 30, 0, 0, time.UTC), AddMonths(start, 1))
}

func TestLeaseEnd(t *testing.T) {
	assert.Equal(t, date(2024, 4, 15), LeaseEnd(date(2024, 1, 15), 3))
	assert.Equal(t, date(2024, 1, 15), LeaseEnd(date(2024, 1, 15), 0))
}

func TestBuildSchedule(t *testing.T) {
	period := PaymentPeriod{
		TenantID:       uuid.New(),
		AgreementID:    uuid.New(),
		Amount:         decimal.RequireFromString("1500.00"),
		StartDate:      date(2024, 1, 15),
		RentalDuration: 3,
	}

	payments := BuildSchedule(period)
	require.Len(t, payments, 3)

	wantDue := []time.Time{date(2024, 1, 15), date(2024, 2, 15), date(2024, 3, 15)}
	for i, payment := range payments {
		assert.Equal(t, wantDue[i], payment.DueDate)
		assert.True(t, payment.Amount.Equal(period.Amount))
		assert.Equal(t, model.PaymentStatusPending, payment.Status)
		assert.Equal(t, model.DefaultPaymentMethod, payment.PaymentMethod)
		assert.Equal(t, period.TenantID, payment.TenantID)
		assert.Equal(t, period.AgreementID, payment.AgreementID)
		assert.Nil(t, payment.PaidDate)
		assert.Nil(t, payment.TransactionID)
	}
}

func TestBuildScheduleEmpty(t *testing.T) {
	assert.Empty(t, BuildSchedule(PaymentPeriod{StartDate: date(2024, 1, 15)}))
	assert.Empty(t, BuildSchedule(PaymentPeriod{StartDate: date(2024, 1, 15), RentalDuration: -1}))
}
