package expense

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validDraft() Expense {
	return Expense{
		Date:     "2025-01-01",
		Name:     "Lunch",
		Amount:   10,
		Currency: "USD",
		Category: CategoryFood,
		PaidBy:   "Me",
		Status:   StatusSubmitted,
	}
}

func TestValidate(t *testing.T) {
	t.Run("valid draft has no errors", func(t *testing.T) {
		assert.Empty(t, Validate(validDraft()))
	})

	t.Run("missing name yields exactly one error", func(t *testing.T) {
		e := validDraft()
		e.Name = ""

		errs := Validate(e)

		assert.Len(t, errs, 1)
		assert.Equal(t, "Expense name is required.", errs["expense_name"])
	})

	t.Run("rules are evaluated independently", func(t *testing.T) {
		errs := Validate(Expense{})

		assert.Len(t, errs, 6)
		assert.Contains(t, errs, "expense_name")
		assert.Contains(t, errs, "date")
		assert.Contains(t, errs, "amount")
		assert.Contains(t, errs, "currency")
		assert.Contains(t, errs, "category")
		assert.Contains(t, errs, "paid_by")
	})

	t.Run("date must be a real calendar date", func(t *testing.T) {
		e := validDraft()
		e.Date = "2025-02-30"
		assert.Equal(t, "Please enter a valid date.", Validate(e)["date"])

		e.Date = "not-a-date"
		assert.Equal(t, "Please enter a valid date.", Validate(e)["date"])

		e.Date = ""
		assert.Equal(t, "Date is required.", Validate(e)["date"])
	})

	t.Run("amount must be positive", func(t *testing.T) {
		e := validDraft()
		e.Amount = 0
		assert.Contains(t, Validate(e), "amount")

		e.Amount = -5
		assert.Contains(t, Validate(e), "amount")

		e.Amount = 0.01
		assert.NotContains(t, Validate(e), "amount")
	})

	t.Run("whitespace-only values are rejected", func(t *testing.T) {
		e := validDraft()
		e.PaidBy = "   "
		assert.Equal(t, "Payer name is required.", Validate(e)["paid_by"])
	})
}
