package expense

import (
	"strings"
	"time"
)

// Validate checks a draft against the submission rules and returns a
// field-name to message map. An empty map means the draft may be submitted.
// Rules are evaluated independently, there are no cross-field rules.
func Validate(e Expense) map[string]string {
	errs := make(map[string]string)

	if strings.TrimSpace(e.Name) == "" {
		errs["expense_name"] = "Expense name is required."
	}

	if e.Date == "" {
		errs["date"] = "Date is required."
	} else if _, err := time.Parse(DateLayout, e.Date); err != nil {
		errs["date"] = "Please enter a valid date."
	}

	if e.Amount <= 0 {
		errs["amount"] = "Amount must be a positive number."
	}

	if strings.TrimSpace(e.Currency) == "" {
		errs["currency"] = "Currency is required."
	}

	if strings.TrimSpace(e.Category) == "" {
		errs["category"] = "Category is required."
	}

	if strings.TrimSpace(e.PaidBy) == "" {
		errs["paid_by"] = "Payer name is required."
	}

	return errs
}
