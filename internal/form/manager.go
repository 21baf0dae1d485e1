package form

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/pakin/expense-tracker/internal/expense"
)

// Backend is the slice of the persistence client the form needs
type Backend interface {
	List(ctx context.Context) ([]expense.Expense, error)
	Create(ctx context.Context, record expense.Expense) error
	UploadReceipt(ctx context.Context, filename string, content []byte) (string, error)
	ExtractDetails(ctx context.Context, filename string, content []byte) (expense.Expense, error)
}

// PayerStore remembers recently used payer names
type PayerStore interface {
	Load() []string
	Add(name string) error
}

// FieldUpdate is a typed partial update of the draft. Nil fields are left
// untouched; ToggleLocation flips membership of one catalog tag.
type FieldUpdate struct {
	Date           *string
	Name           *string
	Amount         *float64
	Currency       *string
	PaidBy         *string
	Category       *string
	Status         *expense.Status
	Notes          *string
	ToggleLocation *string
}

// Manager orchestrates one draft at a time: extraction or manual creation,
// field edits, validation and the upload+create submission flow. Not safe
// for concurrent use; callers drive it from a single goroutine.
type Manager struct {
	backend Backend
	payers  PayerStore
	now     func() time.Time
	logger  *zap.Logger

	state       State
	draft       expense.Expense
	attachment  []byte
	attachName  string
	fieldErrors map[string]string
	lastError   string
	expenses    []expense.Expense
}

// NewManager creates a form manager in the Empty state
func NewManager(backend Backend, payers PayerStore, logger *zap.Logger) *Manager {
	return &Manager{
		backend:     backend,
		payers:      payers,
		now:         time.Now,
		logger:      logger,
		state:       StateEmpty,
		fieldErrors: map[string]string{},
		expenses:    []expense.Expense{},
	}
}

// State returns the current draft state
func (m *Manager) State() State {
	return m.state
}

// Draft returns a copy of the in-progress record
func (m *Manager) Draft() expense.Expense {
	return m.draft
}

// Expenses returns the last fetched list of persisted records
func (m *Manager) Expenses() []expense.Expense {
	return m.expenses
}

// FieldErrors returns the validation errors from the last submit attempt
func (m *Manager) FieldErrors() map[string]string {
	return m.fieldErrors
}

// LastError returns the message of the last failed operation, empty if none
func (m *Manager) LastError() string {
	return m.lastError
}

// RecentPayers returns the remembered payer names, most recent first
func (m *Manager) RecentPayers() []string {
	return m.payers.Load()
}

// Refresh re-fetches the persisted expense list. Prior state is kept on
// failure.
func (m *Manager) Refresh(ctx context.Context) error {
	expenses, err := m.backend.List(ctx)
	if err != nil {
		m.lastError = err.Error()
		return err
	}
	m.expenses = expenses
	return nil
}

// StartFromExtraction sends the receipt for AI extraction and, on success,
// installs the returned draft with the file retained as the attachment.
func (m *Manager) StartFromExtraction(ctx context.Context, filename string, content []byte) error {
	if m.state.IsBusy() {
		return ErrBusy
	}
	next, err := m.state.next(TriggerExtract)
	if err != nil {
		return err
	}

	draft, err := m.backend.ExtractDetails(ctx, filename, content)
	if err != nil {
		m.lastError = err.Error()
		return err
	}

	m.draft = draft
	m.attachment = content
	m.attachName = filename
	m.fieldErrors = map[string]string{}
	m.lastError = ""
	m.state = next

	m.logger.Info("Draft created from extraction",
		zap.String("filename", filename),
		zap.String("expense_name", draft.Name))
	return nil
}

// StartManual creates an empty draft prefilled with today's date, the
// default currency and the Submitted status.
func (m *Manager) StartManual() error {
	if m.state.IsBusy() {
		return ErrBusy
	}
	next, err := m.state.next(TriggerManualCreate)
	if err != nil {
		return err
	}

	m.draft = expense.Expense{
		Date:     m.now().Format(expense.DateLayout),
		Currency: expense.DefaultCurrency,
		Status:   expense.StatusSubmitted,
	}
	m.attachment = nil
	m.attachName = ""
	m.fieldErrors = map[string]string{}
	m.lastError = ""
	m.state = next
	return nil
}

// Update applies a partial edit to the draft and moves it to Editing
func (m *Manager) Update(update FieldUpdate) error {
	next, err := m.state.next(TriggerEdit)
	if err != nil {
		return err
	}

	if update.Date != nil {
		m.draft.Date = *update.Date
	}
	if update.Name != nil {
		m.draft.Name = *update.Name
	}
	if update.Amount != nil {
		m.draft.Amount = *update.Amount
	}
	if update.Currency != nil {
		m.draft.Currency = *update.Currency
	}
	if update.PaidBy != nil {
		m.draft.PaidBy = *update.PaidBy
	}
	if update.Category != nil {
		m.draft.Category = *update.Category
	}
	if update.Status != nil {
		m.draft.Status = *update.Status
	}
	if update.Notes != nil {
		m.draft.Notes = *update.Notes
	}
	if update.ToggleLocation != nil {
		m.draft.ToggleLocation(*update.ToggleLocation)
	}

	m.state = next
	return nil
}

// Submit validates the draft and, when clean, uploads the attachment (if
// any) and creates the record. On success the form resets to Empty and the
// list is refreshed; on failure the draft returns to Editing untouched with
// the error retained.
func (m *Manager) Submit(ctx context.Context) error {
	if m.state.IsBusy() {
		return ErrBusy
	}
	submitting, err := m.state.next(TriggerSubmit)
	if err != nil {
		return err
	}

	m.fieldErrors = expense.Validate(m.draft)
	if len(m.fieldErrors) > 0 {
		// Validation blocks the transition; the user stays in place.
		return nil
	}

	m.state = submitting
	m.lastError = ""

	if err := m.doSubmit(ctx); err != nil {
		m.lastError = err.Error()
		m.state, _ = m.state.next(TriggerFail)
		return err
	}

	m.state, _ = m.state.next(TriggerSucceed)
	m.reset()

	if err := m.Refresh(ctx); err != nil {
		m.logger.Warn("List refresh after submit failed", zap.Error(err))
	}
	return nil
}

func (m *Manager) doSubmit(ctx context.Context) error {
	record := m.draft

	if len(m.attachment) > 0 {
		pointer, err := m.backend.UploadReceipt(ctx, m.attachName, m.attachment)
		if err != nil {
			return err
		}
		record.ReceiptURL = pointer
	}

	if err := m.backend.Create(ctx, record); err != nil {
		return err
	}

	if err := m.payers.Add(record.PaidBy); err != nil {
		m.logger.Warn("Failed to remember payer", zap.Error(err))
	}

	m.logger.Info("Expense persisted",
		zap.String("expense_name", record.Name),
		zap.Float64("amount", record.Amount),
		zap.String("currency", record.Currency))
	return nil
}

// Cancel discards the draft and returns to Empty
func (m *Manager) Cancel() error {
	if m.state.IsBusy() {
		return ErrBusy
	}
	if m.state == StateEmpty {
		return nil
	}
	if _, err := m.state.next(TriggerCancel); err != nil {
		return err
	}
	m.reset()
	return nil
}

func (m *Manager) reset() {
	m.state = StateEmpty
	m.draft = expense.Expense{}
	m.attachment = nil
	m.attachName = ""
	m.fieldErrors = map[string]string{}
}

// ErrBusy is returned when an action arrives while a submission is in
// flight; it prevents duplicate concurrent submissions of the same draft.
var ErrBusy = errors.New("a submission is already in progress")
