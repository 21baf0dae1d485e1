// Package report computes per-currency totals and renders the expense
// report exports. Screen totals and exported totals share the same
// grouping and formatting logic so the two can never drift.
package report

import (
	"sort"

	"github.com/pakin/expense-tracker/internal/expense"
)

// TotalsByCurrency sums amounts per currency code. Codes failing the
// 3-letter alphabetic check are bucketed under the default currency.
// Amounts are never converted across currencies.
func TotalsByCurrency(expenses []expense.Expense) map[string]float64 {
	totals := make(map[string]float64)
	for _, e := range expenses {
		key := e.Currency
		if !IsCurrencyCode(key) {
			key = expense.DefaultCurrency
		}
		totals[key] += e.Amount
	}
	return totals
}

// TotalLine is one summary row of the report footer
type TotalLine struct {
	Currency  string
	Total     float64
	Formatted string
}

// TotalLines returns the summary rows in sorted currency order so repeated
// renders are deterministic
func TotalLines(expenses []expense.Expense) []TotalLine {
	totals := TotalsByCurrency(expenses)

	codes := make([]string, 0, len(totals))
	for code := range totals {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	lines := make([]TotalLine, 0, len(codes))
	for _, code := range codes {
		lines = append(lines, TotalLine{
			Currency:  code,
			Total:     totals[code],
			Formatted: FormatAmount(totals[code], code),
		})
	}
	return lines
}
