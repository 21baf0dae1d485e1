package report

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/pakin/expense-tracker/internal/expense"
)

// XLSXExporter produces a spreadsheet rendition of the expense history with
// the same per-currency summary rows as the PDF report
type XLSXExporter struct {
	today  func() time.Time
	logger *zap.Logger
}

// NewXLSXExporter creates an XLSX report exporter
func NewXLSXExporter(logger *zap.Logger) *XLSXExporter {
	return &XLSXExporter{
		today:  time.Now,
		logger: logger,
	}
}

// Filename returns the report file name for today's date
func (x *XLSXExporter) Filename() string {
	return fmt.Sprintf("Expense_Report_%s.xlsx", x.today().UTC().Format(expense.DateLayout))
}

// Export renders the workbook for the given records in their current order
func (x *XLSXExporter) Export(expenses []expense.Expense) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Expenses"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to drop default sheet: %w", err)
	}

	headers := []string{"Date", "Expense", "Amount", "Currency", "Paid By", "Category", "Locations", "Status", "Notes"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return nil, fmt.Errorf("failed to write header: %w", err)
		}
	}

	row := 2
	for _, e := range expenses {
		values := []any{
			e.Date,
			e.Name,
			e.Amount,
			e.Currency,
			e.PaidBy,
			e.Category,
			strings.Join(e.Locations, ", "),
			string(e.Status),
			e.Notes,
		}
		for i, v := range values {
			cell, _ := excelize.CoordinatesToCellName(i+1, row)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return nil, fmt.Errorf("failed to write row %d: %w", row, err)
			}
		}
		row++
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("failed to create style: %w", err)
	}
	for _, line := range TotalLines(expenses) {
		labelCell, _ := excelize.CoordinatesToCellName(2, row)
		amountCell, _ := excelize.CoordinatesToCellName(3, row)
		if err := f.SetCellValue(sheet, labelCell, fmt.Sprintf("Total (%s)", line.Currency)); err != nil {
			return nil, fmt.Errorf("failed to write total row: %w", err)
		}
		if err := f.SetCellValue(sheet, amountCell, line.Formatted); err != nil {
			return nil, fmt.Errorf("failed to write total row: %w", err)
		}
		if err := f.SetCellStyle(sheet, labelCell, amountCell, bold); err != nil {
			return nil, fmt.Errorf("failed to style total row: %w", err)
		}
		row++
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to render workbook: %w", err)
	}

	x.logger.Info("XLSX report rendered",
		zap.Int("expense_count", len(expenses)),
		zap.Int("size_bytes", buf.Len()))
	return buf.Bytes(), nil
}
