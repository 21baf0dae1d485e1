package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/pakin/expense-tracker/internal/expense"
)

func TestXLSXExporterExport(t *testing.T) {
	x := NewXLSXExporter(zap.NewNop())
	x.today = func() time.Time {
		return time.Date(2025, 8, 31, 10, 0, 0, 0, time.UTC)
	}

	assert.Equal(t, "Expense_Report_2025-08-31.xlsx", x.Filename())

	expenses := []expense.Expense{
		{Date: "2025-06-01", Name: "Taxi", Amount: 120, Currency: "THB", PaidBy: "Me",
			Category: expense.CategoryTransport, Locations: []string{"Shark BKK"},
			Status: expense.StatusSubmitted, Notes: "airport"},
		{Date: "2025-06-02", Name: "Lunch", Amount: 30, Currency: "USD", PaidBy: "Assistant",
			Category: expense.CategoryFood, Status: expense.StatusValidated},
	}

	data, err := x.Export(expenses)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	got, err := f.GetCellValue("Expenses", "B2")
	require.NoError(t, err)
	assert.Equal(t, "Taxi", got)

	got, err = f.GetCellValue("Expenses", "G2")
	require.NoError(t, err)
	assert.Equal(t, "Shark BKK", got)

	// Summary rows follow the body in sorted currency order
	got, err = f.GetCellValue("Expenses", "B4")
	require.NoError(t, err)
	assert.Equal(t, "Total (THB)", got)

	got, err = f.GetCellValue("Expenses", "B5")
	require.NoError(t, err)
	assert.Equal(t, "Total (USD)", got)
}
