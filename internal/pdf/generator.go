package pdf

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/nurpe/rentflow/internal/model"
)

var leaseTerms = []string{
	"The Tenant shall use the Property exclusively as a private residence.",
	"The Tenant shall not sublet the Property without the Landlord's written consent.",
	"The Tenant shall pay all utilities unless otherwise agreed in writing.",
	"The Tenant shall maintain the Property in good condition.",
	"The Landlord shall be responsible for major repairs and maintenance.",
	"Either party may terminate this Agreement with 30 days written notice.",
}

type Generator struct {
	fontName string
	currency string
}

func NewGenerator(currency string) *Generator {
	if currency == "" {
		currency = "INR"
	}
	return &Generator{fontName: "Helvetica", currency: strings.ToUpper(currency)}
}

// Render produces the lease agreement PDF for an approved application.
func (g *Generator) Render(doc model.AgreementDocument) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.SetTitle("Rental Agreement", true)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	generatedAt := doc.GeneratedAt
	if generatedAt.IsZero() {
		generatedAt = time.Now()
	}
	app := doc.Application
	property := doc.Property

	pdf.SetFont(g.fontName, "B", 20)
	pdf.CellFormat(0, 12, "RENTAL AGREEMENT", "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont(g.fontName, "", 11)
	pdf.MultiCell(0, 6, tr(fmt.Sprintf(
		"This Rental Agreement (\"Agreement\") is made and entered into this %s by and between:",
		formatDate(generatedAt),
	)), "", "L", false)
	pdf.Ln(3)

	section(pdf, g.fontName, "1. PARTIES")
	lines(pdf, g.fontName, tr,
		fmt.Sprintf("Landlord: %s", safeValue(doc.Owner.FullName)),
		fmt.Sprintf("Property Address: %s", safeValue(property.Address())),
	)
	pdf.Ln(2)
	lines(pdf, g.fontName, tr,
		fmt.Sprintf("Tenant: %s", safeValue(app.FullName)),
		fmt.Sprintf("Current Address: %s", safeValue(app.CurrentAddress)),
		fmt.Sprintf("Phone: %s", safeValue(app.PhoneNumber)),
		fmt.Sprintf("Email: %s", safeValue(app.Email)),
	)

	section(pdf, g.fontName, "2. PROPERTY DETAILS")
	lines(pdf, g.fontName, tr,
		fmt.Sprintf("Address: %s", safeValue(property.Address())),
		fmt.Sprintf("Type: %s", safeValue(property.PropertyType)),
		fmt.Sprintf("Bedrooms: %d", property.Bedrooms),
		fmt.Sprintf("Bathrooms: %d", property.Bathrooms),
		fmt.Sprintf("Area: %d sq.ft", property.AreaSqft),
	)

	section(pdf, g.fontName, "3. RENTAL TERMS")
	lines(pdf, g.fontName, tr,
		fmt.Sprintf("Monthly Rent: %s %s", g.currency, property.RentAmount.StringFixed(2)),
		fmt.Sprintf("Security Deposit: %s %s", g.currency, property.DepositAmount.StringFixed(2)),
		fmt.Sprintf("Rental Period: %d %s", app.RentalDuration, safeValue(string(app.RentalDurationType))),
		fmt.Sprintf("Lease Start Date: %s", formatDate(app.ExpectedMoveInDate)),
	)

	section(pdf, g.fontName, "4. OCCUPANTS")
	occupants := []string{fmt.Sprintf("Total Occupants: %d", app.NumberOfOccupants)}
	if strings.TrimSpace(app.OccupantDetails) != "" {
		occupants = append(occupants, fmt.Sprintf("Occupant Details: %s", app.OccupantDetails))
	}
	if app.HasPets {
		occupants = append(occupants, fmt.Sprintf("Pet Details: %s", safeValue(app.PetDetails)))
	}
	lines(pdf, g.fontName, tr, occupants...)

	section(pdf, g.fontName, "5. TERMS AND CONDITIONS")
	terms := make([]string, 0, len(leaseTerms))
	for i, term := range leaseTerms {
		terms = append(terms, fmt.Sprintf("%d. %s", i+1, term))
	}
	lines(pdf, g.fontName, tr, terms...)

	section(pdf, g.fontName, "6. SIGNATURES")
	pdf.Ln(8)
	signatureBlock(pdf, g.fontName, tr, "Landlord Signature", doc.Owner.FullName)
	pdf.Ln(8)
	signatureBlock(pdf, g.fontName, tr, "Tenant Signature", app.FullName)

	pdf.Ln(6)
	pdf.SetFont(g.fontName, "", 9)
	pdf.CellFormat(0, 5, fmt.Sprintf("Document generated on: %s", generatedAt.Format("02 Jan 2006 15:04 MST")), "", 1, "R", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func section(pdf *gofpdf.Fpdf, fontName, title string) {
	pdf.Ln(4)
	pdf.SetFont(fontName, "BU", 13)
	pdf.CellFormat(0, 8, title, "", 1, "L", false, 0, "")
}

func lines(pdf *gofpdf.Fpdf, fontName string, tr func(string) string, items ...string) {
	pdf.SetFont(fontName, "", 11)
	left, _, _, _ := pdf.GetMargins()
	for _, item := range items {
		pdf.SetX(left + 6)
		pdf.MultiCell(0, 6, tr(item), "", "L", false)
	}
}

func signatureBlock(pdf *gofpdf.Fpdf, fontName string, tr func(string) string, label, name string) {
	pdf.SetFont(fontName, "", 11)
	pdf.CellFormat(0, 6, "_________________________", "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, tr(fmt.Sprintf("%s (%s)", label, safeValue(name))), "", 1, "L", false, 0, "")
}

func safeValue(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("02 Jan 2006")
}
