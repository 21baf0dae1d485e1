package expense

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// FromRow decodes a raw, untrusted row (a store response or any other
// upstream JSON object) into a well-typed Expense. Every missing or
// mistyped field is defaulted rather than rejected; this function never
// fails. Fallbacks per field:
//
//	id          -> 0
//	date        -> ""
//	expense_name-> ""
//	amount      -> 0 (numeric strings are coerced)
//	currency    -> "USD"
//	paid_by     -> ""
//	category    -> ""
//	locations   -> empty set (tolerates array, JSON-encoded string array,
//	               or a comma-separated string)
//	status      -> "Submitted"
//	receipt_url -> ""
//	notes       -> ""
func FromRow(row map[string]any) Expense {
	e := Expense{
		ID:         asID(row["id"]),
		Date:       asString(row["date"]),
		Name:       asString(row["expense_name"]),
		Amount:     asNumber(row["amount"]),
		Currency:   asString(row["currency"]),
		PaidBy:     asString(row["paid_by"]),
		Category:   asString(row["category"]),
		Locations:  decodeLocations(row["locations"]),
		Status:     Status(asString(row["status"])),
		ReceiptURL: asString(row["receipt_url"]),
		Notes:      asString(row["notes"]),
	}
	if e.Currency == "" {
		e.Currency = RowFallbackCurrency
	}
	return Normalize(e)
}

// Normalize repairs an Expense in place of failing: unknown statuses become
// Submitted, locations become a well-formed set, non-finite amounts and
// negative ids become zero. Normalize is idempotent.
func Normalize(e Expense) Expense {
	if !e.Status.IsValid() {
		e.Status = StatusSubmitted
	}
	if e.ID < 0 {
		e.ID = 0
	}
	if math.IsNaN(e.Amount) || math.IsInf(e.Amount, 0) {
		e.Amount = 0
	}
	e.Locations = dedupe(e.Locations)
	return e
}

// asID coerces an id value to a non-negative int64
func asID(v any) int64 {
	n := asNumber(v)
	if n < 0 {
		return 0
	}
	return int64(n)
}

// asString returns the value if it is a string, else ""
func asString(v any) string {
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return s
}

// asNumber coerces numeric JSON shapes, including numeric strings, to
// float64; anything else becomes 0
func asNumber(v any) float64 {
	switch n := v.(type) {
	case float64:
		return finite(n)
	case float32:
		return finite(float64(n))
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0
		}
		return finite(f)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0
		}
		return finite(f)
	default:
		return 0
	}
}

func finite(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// decodeLocations tolerates every representation the store has ever used:
// a native array, a legacy JSON-encoded string array, or a plain
// comma-separated string. Anything else decodes to an empty set.
func decodeLocations(v any) []string {
	switch loc := v.(type) {
	case []string:
		return dedupe(loc)
	case []any:
		out := make([]string, 0, len(loc))
		for _, item := range loc {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return dedupe(out)
	case string:
		trimmed := strings.TrimSpace(loc)
		if trimmed == "" {
			return []string{}
		}
		var parsed []string
		if err := json.Unmarshal([]byte(trimmed), &parsed); err == nil {
			return dedupe(parsed)
		}
		return dedupe(strings.Split(trimmed, ","))
	default:
		return []string{}
	}
}

// dedupe trims entries, drops empties and removes duplicates while
// preserving first-seen order
func dedupe(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
