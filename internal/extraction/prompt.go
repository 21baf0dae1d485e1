package extraction

// extractionPrompt is the fixed instruction attached to every receipt. The
// model must answer with a single flat JSON object matching expenseSchema.
const extractionPrompt = `You are an expense-tracking assistant for a small business.

Analyze the receipt image and extract the expense details into a single flat JSON object.
Do not add any extra text, comments, or markdown formatting like ` + "```json" + `.

The JSON object must have these exact keys: "Date", "Expense_Name", "Amount", "Currency", "Paid_By", "Category", "Status", "Receipt_URL", "Notes".

RULES:
- "Date": the date in YYYY-MM-DD format. If missing, use today's date (timezone UTC+07:00).
- "Expense_Name": the merchant's name. Preserve accents and merchant names accurately.
- "Amount": the total amount as a number, dot as decimal separator. If the receipt has multiple line items, sum them to a single total.
- "Currency": the 3-letter currency code (e.g., THB, EUR, USD). If missing, default to "THB".
- "Paid_By": choose "Assistant" or "Me". If unknown, leave empty.
- "Category": choose one of "Transport", "Food", "Supplies", or "Other". If unknown, choose "Other".
- "Status": must always be "Submitted".
- "Receipt_URL" and "Notes": empty strings.
- Do not hallucinate: if a field is unknown, keep the value as an empty string "" or 0 for the amount.

OUTPUT: return ONLY the JSON object, no prose. The JSON must be valid and flat.`

// expenseSchema is the declared flat output schema. Responses are validated
// against it for diagnostics; violations are tolerated because every field
// is independently defaulted afterwards.
var expenseSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"Date":         map[string]any{"type": "string", "description": "Date of the expense in YYYY-MM-DD format."},
		"Expense_Name": map[string]any{"type": "string", "description": "Name of the expense or merchant."},
		"Amount":       map[string]any{"type": "number", "description": "Total amount of the expense."},
		"Currency":     map[string]any{"type": "string", "description": "Currency of the amount (e.g., THB, USD)."},
		"Paid_By":      map[string]any{"type": "string", "description": "Who paid for the expense. Must be 'Assistant' or 'Me'."},
		"Category":     map[string]any{"type": "string", "description": "Category of the expense. Must be 'Transport', 'Food', 'Supplies', or 'Other'."},
		"Status":       map[string]any{"type": "string", "description": "Initial status. Must be 'Submitted'."},
		"Receipt_URL":  map[string]any{"type": "string", "description": "Leave empty. This will be filled later."},
		"Notes":        map[string]any{"type": "string", "description": "Any additional notes about the expense. Can be empty."},
	},
	"required": []any{"Date", "Expense_Name", "Amount", "Currency", "Status"},
}
