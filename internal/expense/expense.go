// Package expense defines the canonical expense record, its defensive
// normalization boundary and the submission validation rules.
package expense

// Status represents the reimbursement status of an expense
type Status string

const (
	StatusSubmitted  Status = "Submitted"
	StatusValidated  Status = "Validated"
	StatusReimbursed Status = "Reimbursed"
)

var validStatuses = map[Status]bool{
	StatusSubmitted:  true,
	StatusValidated:  true,
	StatusReimbursed: true,
}

// IsValid returns true if the status is one of the known values
func (s Status) IsValid() bool {
	return validStatuses[s]
}

// Category values produced by the extraction adapter. The form layer treats
// category as free text; only AI output is clamped to this set.
const (
	CategoryTransport = "Transport"
	CategoryFood      = "Food"
	CategorySupplies  = "Supplies"
	CategoryOther     = "Other"
)

var knownCategories = map[string]bool{
	CategoryTransport: true,
	CategoryFood:      true,
	CategorySupplies:  true,
	CategoryOther:     true,
}

// IsKnownCategory returns true if the category is one of the four values
// the extraction contract allows
func IsKnownCategory(category string) bool {
	return knownCategories[category]
}

// Payer values used by the extraction prompt contract. The paid_by field on
// a record itself is free text.
const (
	PayerAssistant = "Assistant"
	PayerMe        = "Me"
)

// DefaultCurrency is the fallback code for the extraction path and for
// aggregation buckets with a malformed currency
const DefaultCurrency = "THB"

// RowFallbackCurrency is the fallback code applied when decoding store rows
const RowFallbackCurrency = "USD"

// DateLayout is the ISO 8601 calendar date layout used everywhere
const DateLayout = "2006-01-02"

// LocationCatalog is the fixed set of venue tags the form offers. Values
// outside the catalog are tolerated on read.
var LocationCatalog = []string{
	"Red Dragon",
	"Mandarin",
	"Shark BKK",
	"Shark PTY",
	"Fahrenheit",
	"Bliss",
	"Geisha",
	"BB Gun",
}

// Expense is a single recorded outlay. JSON tags match the REST contract's
// snake_case row shape.
type Expense struct {
	ID         int64    `json:"id"`
	Date       string   `json:"date"`
	Name       string   `json:"expense_name"`
	Amount     float64  `json:"amount"`
	Currency   string   `json:"currency"`
	PaidBy     string   `json:"paid_by"`
	Category   string   `json:"category"`
	Locations  []string `json:"locations"`
	Status     Status   `json:"status"`
	ReceiptURL string   `json:"receipt_url"`
	Notes      string   `json:"notes"`
}

// IsDraft returns true if the record has not been accepted by the store yet
func (e Expense) IsDraft() bool {
	return e.ID == 0
}

// HasLocation returns true if the tag is present on the record
func (e Expense) HasLocation(tag string) bool {
	for _, l := range e.Locations {
		if l == tag {
			return true
		}
	}
	return false
}

// ToggleLocation adds the tag if absent and removes it if present,
// preserving set semantics
func (e *Expense) ToggleLocation(tag string) {
	for i, l := range e.Locations {
		if l == tag {
			e.Locations = append(e.Locations[:i], e.Locations[i+1:]...)
			return
		}
	}
	e.Locations = append(e.Locations, tag)
}
