package services

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/example/tijara/internal/models"
)

// InvoiceRenderer produces an invoice document for an order.
type InvoiceRenderer interface {
	Render(order *models.Order) ([]byte, error)
}

// PDFInvoiceRenderer renders invoices as PDF.
type PDFInvoiceRenderer struct {
	storeName string
	currency  string
}

// NewPDFInvoiceRenderer constructs a PDFInvoiceRenderer.
func NewPDFInvoiceRenderer(storeName, currency string) *PDFInvoiceRenderer {
	return &PDFInvoiceRenderer{storeName: storeName, currency: currency}
}

// Render produces the invoice PDF bytes.
func (r *PDFInvoiceRenderer) Render(order *models.Order) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, r.storeName)
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 7, fmt.Sprintf("Invoice for order %s", order.ID))
	pdf.Ln(7)
	pdf.Cell(0, 7, fmt.Sprintf("Date: %s", time.Now().Format("2006-01-02")))
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(90, 8, "Item", "1", 0, "L", false, 0, "")
	pdf.CellFormat(25, 8, "Qty", "1", 0, "R", false, 0, "")
	pdf.CellFormat(35, 8, "Price", "1", 0, "R", false, 0, "")
	pdf.CellFormat(35, 8, "Subtotal", "1", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 11)
	for _, item := range order.Items {
		pdf.CellFormat(90, 8, item.ProductName, "1", 0, "L", false, 0, "")
		pdf.CellFormat(25, 8, fmt.Sprintf("%d", item.Quantity), "1", 0, "R", false, 0, "")
		pdf.CellFormat(35, 8, fmt.Sprintf("%.2f", item.UnitPrice), "1", 0, "R", false, 0, "")
		pdf.CellFormat(35, 8, fmt.Sprintf("%.2f", item.Subtotal), "1", 1, "R", false, 0, "")
	}

	pdf.Ln(4)
	pdf.Cell(0, 7, fmt.Sprintf("Subtotal: %.2f %s", order.Subtotal, r.currency))
	pdf.Ln(7)
	if order.Discount > 0 {
		pdf.Cell(0, 7, fmt.Sprintf("Discount: -%.2f %s", order.Discount, r.currency))
		pdf.Ln(7)
	}
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Total: %.2f %s", order.Total, r.currency))

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, &ExternalServiceError{Service: "pdf", Err: err}
	}
	return buf.Bytes(), nil
}
