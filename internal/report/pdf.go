package report

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"go.uber.org/zap"

	"github.com/pakin/expense-tracker/internal/expense"
)

// ReceiptResolver resolves a stored receipt pointer into image bytes and
// the declared MIME type
type ReceiptResolver interface {
	Open(receiptURL string) (data []byte, mimeType string, err error)
}

// Page geometry in millimeters (A4 portrait)
const (
	pageMargin  = 14.0
	tableTop    = 32.0
	headerRowH  = 8.0
	bodyRowH    = 8.0
	thumbWidth  = 45.0
	thumbHeight = 60.0
	thumbPad    = 5.0
)

// Table column widths: Date, Expense, Amount, Status
var columnWidths = [4]float64{30, 87, 35, 30}

// PDFExporter renders the expense history report: a tabular section with
// per-currency summary rows, followed by receipt thumbnails flowed
// left-to-right, top-to-bottom across pages.
type PDFExporter struct {
	resolver ReceiptResolver
	today    func() time.Time
	logger   *zap.Logger
}

// NewPDFExporter creates a PDF report exporter
func NewPDFExporter(resolver ReceiptResolver, logger *zap.Logger) *PDFExporter {
	return &PDFExporter{
		resolver: resolver,
		today:    time.Now,
		logger:   logger,
	}
}

// Filename returns the report file name for today's date
func (x *PDFExporter) Filename() string {
	return fmt.Sprintf("Expense_Report_%s.pdf", x.today().UTC().Format(expense.DateLayout))
}

// Export renders the report for the given records in their current order
func (x *PDFExporter) Export(expenses []expense.Expense) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	x.drawTitle(pdf)
	endY := x.drawTable(pdf, expenses)
	x.drawReceipts(pdf, expenses, endY)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		x.logger.Error("Failed to render PDF report", zap.Error(err))
		return nil, fmt.Errorf("failed to render PDF report: %w", err)
	}

	x.logger.Info("PDF report rendered",
		zap.Int("expense_count", len(expenses)),
		zap.Int("size_bytes", buf.Len()))
	return buf.Bytes(), nil
}

func (x *PDFExporter) drawTitle(pdf *fpdf.Fpdf) {
	pdf.SetFont("Helvetica", "B", 20)
	pdf.SetTextColor(40, 40, 40)
	pdf.Text(pageMargin, 22, "Expense History Report")
}

// drawTable emits one row per record followed by one bold summary row per
// currency, repeating the column header on page overflow. Returns the y
// position below the table.
func (x *PDFExporter) drawTable(pdf *fpdf.Fpdf, expenses []expense.Expense) float64 {
	_, pageH := pdf.GetPageSize()
	limit := pageH - pageMargin

	y := tableTop
	y = x.drawTableHeader(pdf, y)

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(40, 40, 40)
	for _, e := range expenses {
		if y+bodyRowH > limit {
			pdf.AddPage()
			y = x.drawTableHeader(pdf, pageMargin)
			pdf.SetFont("Helvetica", "", 10)
			pdf.SetTextColor(40, 40, 40)
		}
		pdf.SetXY(pageMargin, y)
		pdf.CellFormat(columnWidths[0], bodyRowH, e.Date, "1", 0, "L", false, 0, "")
		pdf.CellFormat(columnWidths[1], bodyRowH, e.Name, "1", 0, "L", false, 0, "")
		pdf.CellFormat(columnWidths[2], bodyRowH, FormatAmount(e.Amount, e.Currency), "1", 0, "R", false, 0, "")
		pdf.CellFormat(columnWidths[3], bodyRowH, string(e.Status), "1", 0, "C", false, 0, "")
		y += bodyRowH
	}

	// Summary rows, one per currency, directly after the body
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(241, 245, 249)
	for _, line := range TotalLines(expenses) {
		if y+bodyRowH > limit {
			pdf.AddPage()
			y = pageMargin
		}
		pdf.SetXY(pageMargin, y)
		pdf.CellFormat(columnWidths[0]+columnWidths[1], bodyRowH,
			fmt.Sprintf("Total (%s)", line.Currency), "1", 0, "R", true, 0, "")
		pdf.CellFormat(columnWidths[2], bodyRowH, line.Formatted, "1", 0, "R", true, 0, "")
		pdf.CellFormat(columnWidths[3], bodyRowH, "", "1", 0, "C", true, 0, "")
		y += bodyRowH
	}

	return y
}

func (x *PDFExporter) drawTableHeader(pdf *fpdf.Fpdf, y float64) float64 {
	headers := [4]string{"Date", "Expense", "Amount", "Status"}
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(75, 85, 99)
	pdf.SetTextColor(255, 255, 255)
	pdf.SetXY(pageMargin, y)
	for i, h := range headers {
		pdf.CellFormat(columnWidths[i], headerRowH, h, "1", 0, "L", true, 0, "")
	}
	return y + headerRowH
}

// drawReceipts flows thumbnails inside the page margins, wrapping rows at
// the right edge and starting a new page, with a continued heading, when a
// row would run off the bottom
func (x *PDFExporter) drawReceipts(pdf *fpdf.Fpdf, expenses []expense.Expense, tableEndY float64) {
	var withReceipts []expense.Expense
	for _, e := range expenses {
		if e.ReceiptURL != "" {
			withReceipts = append(withReceipts, e)
		}
	}
	if len(withReceipts) == 0 {
		return
	}

	pageW, pageH := pdf.GetPageSize()

	curY := tableEndY + 15
	if curY > pageH-40 {
		pdf.AddPage()
		curY = pageMargin
	}

	pdf.SetTextColor(40, 40, 40)
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Text(pageMargin, curY, "Receipts")
	curY += 8

	curX := pageMargin
	for i, e := range withReceipts {
		if curX+thumbWidth > pageW-pageMargin {
			curX = pageMargin
			curY += thumbHeight + thumbPad + 10
		}
		if curY+thumbHeight+10 > pageH-pageMargin {
			pdf.AddPage()
			curY = pageMargin
			curX = pageMargin
			pdf.SetFont("Helvetica", "B", 16)
			pdf.Text(pageMargin, curY, "Receipts (continued)")
			curY += 8
		}

		x.drawThumbnail(pdf, e, i, curX, curY)
		curX += thumbWidth + thumbPad
	}
}

// drawThumbnail places one receipt image with its expense name underneath;
// an image that cannot be resolved or rendered degrades to a bordered
// placeholder box instead of aborting the export
func (x *PDFExporter) drawThumbnail(pdf *fpdf.Fpdf, e expense.Expense, index int, posX, posY float64) {
	data, mimeType, err := x.resolver.Open(e.ReceiptURL)
	if err != nil {
		x.logger.Warn("Could not resolve receipt image",
			zap.String("receipt_url", e.ReceiptURL),
			zap.Error(err))
		x.drawPlaceholder(pdf, posX, posY)
		return
	}

	name := fmt.Sprintf("receipt-%d", index)
	opts := fpdf.ImageOptions{ImageType: imageFormat(mimeType)}
	pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(data))
	if pdf.Err() {
		x.logger.Warn("Could not render receipt image",
			zap.String("receipt_url", e.ReceiptURL),
			zap.Error(pdf.Error()))
		pdf.ClearError()
		x.drawPlaceholder(pdf, posX, posY)
		return
	}
	pdf.ImageOptions(name, posX, posY, thumbWidth, thumbHeight, false, opts, 0, "")

	pdf.SetFont("Helvetica", "", 8)
	lines := pdf.SplitText(e.Name, thumbWidth)
	captionY := posY + thumbHeight + 4
	for _, line := range lines {
		pdf.Text(posX, captionY, line)
		captionY += 3.5
	}
}

func (x *PDFExporter) drawPlaceholder(pdf *fpdf.Fpdf, posX, posY float64) {
	pdf.SetDrawColor(40, 40, 40)
	pdf.Rect(posX, posY, thumbWidth, thumbHeight, "D")
	pdf.SetFont("Helvetica", "", 8)
	pdf.Text(posX+2, posY+10, "Image error")
}

// imageFormat infers the fpdf image type from the declared MIME subtype,
// defaulting to JPEG
func imageFormat(mimeType string) string {
	subtype := mimeType
	if i := strings.Index(mimeType, "/"); i >= 0 {
		subtype = mimeType[i+1:]
	}
	switch strings.ToLower(subtype) {
	case "png":
		return "PNG"
	case "gif":
		return "GIF"
	default:
		return "JPG"
	}
}
