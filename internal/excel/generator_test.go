package excel

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/nurpe/rentflow/internal/model"
)

func TestGenerateStatement(t *testing.T) {
	first, second := uuid.New(), uuid.New()
	paid := time.Date(2024, 1, 16, 0, 0, 0, 0, time.UTC)
	txn := "pi_123"
	statement := model.PaymentStatement{
		Title:       "Payments of tenant",
		GeneratedAt: time.Date(2024, 1, 20, 10, 0, 0, 0, time.UTC),
		Payments: []model.Payment{
			{AgreementID: first, Amount: decimal.RequireFromString("1500"), Status: model.PaymentStatusPending, DueDate: time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC), PaymentMethod: "stripe"},
			{AgreementID: first, Amount: decimal.RequireFromString("1500"), Status: model.PaymentStatusCompleted, DueDate: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), PaidDate: &paid, TransactionID: &txn, PaymentMethod: "stripe"},
			{AgreementID: second, Amount: decimal.RequireFromString("900.50"), Status: model.PaymentStatusFailed, DueDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), PaymentMethod: "stripe"},
		},
	}

	content, err := NewGenerator().Generate(statement)
	require.NoError(t, err)

	file, err := excelize.OpenReader(bytes.NewReader(content))
	require.NoError(t, err)
	defer file.Close()

	sheets := file.GetSheetList()
	require.Len(t, sheets, 3)
	assert.Equal(t, "Summary", sheets[0])

	cell := func(sheet, axis string) string {
		value, err := file.GetCellValue(sheet, axis)
		require.NoError(t, err)
		return value
	}
	assert.Equal(t, "Payments of tenant", cell("Summary", "B1"))
	assert.Equal(t, "3", cell("Summary", "B3"))
	assert.Equal(t, "pending", cell("Summary", "A6"))
	assert.Equal(t, "1500.00", cell("Summary", "C6"))
	assert.Equal(t, "completed", cell("Summary", "A7"))
	assert.Equal(t, "failed", cell("Summary", "A8"))
	assert.Equal(t, "900.50", cell("Summary", "C8"))

	detail := sheets[1]
	assert.Equal(t, first.String(), cell(detail, "B1"))
	assert.Equal(t, "2024-01-15", cell(detail, "A4"), "rows are ordered by due date")
	assert.Equal(t, "2024-01-16", cell(detail, "D4"))
	assert.Equal(t, "pi_123", cell(detail, "E4"))
	assert.Equal(t, "2024-02-15", cell(detail, "A5"))
}

func TestBuildSheetNameAvoidsCollisions(t *testing.T) {
	id := uuid.MustParse("0f8fad5b-d9cb-469f-a165-70867728950e")
	used := map[string]struct{}{}

	name := buildSheetName(id, used)
	assert.Equal(t, "Agreement 0f8fad5b", name)
	used[name] = struct{}{}
	assert.Equal(t, "Agreement 0f8fad5b-2", buildSheetName(id, used))
}

func TestSanitizeSheetName(t *testing.T) {
	assert.Equal(t, "a-b-c", sanitizeSheetName("a/b:c"))
	assert.Equal(t, "Sheet", sanitizeSheetName("  "))
}
