package report

import (
	"strings"
	"unicode"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/pakin/expense-tracker/internal/expense"
)

var printer = message.NewPrinter(language.English)

// IsCurrencyCode reports whether the code is a plausible 3-letter
// ISO 4217-like code. Codes are not checked against a real currency table.
func IsCurrencyCode(code string) bool {
	if len(code) != 3 {
		return false
	}
	for _, r := range code {
		if !unicode.IsLetter(r) || r > unicode.MaxASCII {
			return false
		}
	}
	return true
}

// FormatAmount renders an amount with locale-aware currency formatting
// keyed on the (possibly-defaulted) code. When the code is unrecognized
// the result degrades to a grouped 2-decimal number, suffixed with the
// raw code if it at least looks like one.
func FormatAmount(amount float64, code string) string {
	key := code
	if !IsCurrencyCode(key) {
		key = expense.DefaultCurrency
	}

	num := printer.Sprintf("%.2f", amount)

	unit, err := currency.ParseISO(key)
	if err != nil {
		if IsCurrencyCode(code) {
			return num + " " + strings.ToUpper(code)
		}
		return num
	}

	symbol := printer.Sprint(currency.Symbol(unit))
	if symbol == "" {
		symbol = unit.String()
	}
	if endsWithLetter(symbol) {
		return symbol + " " + num
	}
	return symbol + num
}

func endsWithLetter(s string) bool {
	runes := []rune(s)
	return len(runes) > 0 && unicode.IsLetter(runes[len(runes)-1])
}
