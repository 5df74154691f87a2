package excel

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/nurpe/rentflow/internal/model"
)

const summarySheet = "Summary"

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// Generate writes a payment statement: a summary sheet with totals per status and
// one sheet per agreement listing its scheduled payments.
func (g *Generator) Generate(statement model.PaymentStatement) ([]byte, error) {
	file := excelize.NewFile()
	defer file.Close()

	file.SetSheetName("Sheet1", summarySheet)
	g.writeSummary(file, summarySheet, statement)

	groups, order := groupByAgreement(statement.Payments)
	used := map[string]struct{}{summarySheet: {}}
	for _, agreementID := range order {
		sheet := buildSheetName(agreementID, used)
		used[sheet] = struct{}{}
		if _, err := file.NewSheet(sheet); err != nil {
			return nil, err
		}
		g.writeDetail(file, sheet, agreementID, groups[agreementID])
	}

	file.SetActiveSheet(0)
	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (g *Generator) writeSummary(file *excelize.File, sheet string, statement model.PaymentStatement) {
	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	totals := map[model.PaymentStatus]decimal.Decimal{}
	counts := map[model.PaymentStatus]int{}
	for _, payment := range statement.Payments {
		totals[payment.Status] = totals[payment.Status].Add(payment.Amount)
		counts[payment.Status]++
	}

	set("A1", "Statement")
	set("B1", statement.Title)
	set("A2", "Generated at")
	set("B2", formatDateTime(statement.GeneratedAt))
	set("A3", "Payments")
	set("B3", len(statement.Payments))

	tableRow := 5
	set(fmt.Sprintf("A%d", tableRow), "Status")
	set(fmt.Sprintf("B%d", tableRow), "Count")
	set(fmt.Sprintf("C%d", tableRow), "Amount")
	statuses := []model.PaymentStatus{model.PaymentStatusPending, model.PaymentStatusCompleted, model.PaymentStatusFailed}
	for i, status := range statuses {
		row := tableRow + 1 + i
		set(fmt.Sprintf("A%d", row), string(status))
		set(fmt.Sprintf("B%d", row), counts[status])
		set(fmt.Sprintf("C%d", row), totals[status].StringFixed(2))
	}

	_ = file.SetColWidth(sheet, "A", "A", 18)
	_ = file.SetColWidth(sheet, "B", "B", 24)
	_ = file.SetColWidth(sheet, "C", "C", 16)
}

func (g *Generator) writeDetail(file *excelize.File, sheet string, agreementID uuid.UUID, payments []model.Payment) {
	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	set("A1", "Agreement")
	set("B1", agreementID.String())

	tableRow := 3
	headers := []string{"Due date", "Amount", "Status", "Paid date", "Transaction", "Method"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, tableRow)
		set(cell, header)
	}

	for i, payment := range payments {
		row := tableRow + 1 + i
		set(fmt.Sprintf("A%d", row), formatDate(payment.DueDate))
		set(fmt.Sprintf("B%d", row), payment.Amount.StringFixed(2))
		set(fmt.Sprintf("C%d", row), string(payment.Status))
		set(fmt.Sprintf("D%d", row), formatOptionalDate(payment.PaidDate))
		set(fmt.Sprintf("E%d", row), formatString(payment.TransactionID))
		set(fmt.Sprintf("F%d", row), payment.PaymentMethod)
	}

	_ = file.SetColWidth(sheet, "A", "A", 14)
	_ = file.SetColWidth(sheet, "B", "C", 12)
	_ = file.SetColWidth(sheet, "D", "D", 14)
	_ = file.SetColWidth(sheet, "E", "E", 32)
}

func groupByAgreement(payments []model.Payment) (map[uuid.UUID][]model.Payment, []uuid.UUID) {
	groups := make(map[uuid.UUID][]model.Payment)
	var order []uuid.UUID
	for _, payment := range payments {
		if _, ok := groups[payment.AgreementID]; !ok {
			order = append(order, payment.AgreementID)
		}
		groups[payment.AgreementID] = append(groups[payment.AgreementID], payment)
	}
	for _, id := range order {
		rows := groups[id]
		sort.SliceStable(rows, func(i, j int) bool { return rows[i].DueDate.Before(rows[j].DueDate) })
	}
	return groups, order
}

func buildSheetName(id uuid.UUID, used map[string]struct{}) string {
	base := sanitizeSheetName("Agreement " + strings.Split(id.String(), "-")[0])
	if len(base) > 31 {
		base = base[:31]
	}

	candidate := base
	counter := 2
	for {
		if _, exists := used[candidate]; !exists {
			return candidate
		}
		suffix := fmt.Sprintf("-%d", counter)
		trimmed := base
		if len(trimmed)+len(suffix) > 31 {
			trimmed = trimmed[:31-len(suffix)]
		}
		candidate = trimmed + suffix
		counter++
	}
}

func sanitizeSheetName(value string) string {
	replacer := strings.NewReplacer(
		"[", "-",
		"]", "-",
		":", "-",
		"*", "-",
		"?", "-",
		"/", "-",
		"\\", "-",
	)
	value = strings.TrimSpace(replacer.Replace(value))
	if value == "" {
		return "Sheet"
	}
	return value
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

func formatOptionalDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatDate(*t)
}

func formatDateTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02 15:04:05")
}

func formatString(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
