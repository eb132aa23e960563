package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"spendtrack/internal/core"
	"spendtrack/internal/notify"
	"spendtrack/internal/storage"
)

// Sentinel errors surfaced to the HTTP layer with their API messages.
var (
	ErrExpenseNotFound = errors.New("Expense not found")
	ErrNoFields        = errors.New("No valid fields to update")
)

// LedgerService owns all owner-scoped mutations: expense CRUD, the savings
// ledger with its use/expense dual write, and the admin reset.
type LedgerService struct {
	storage  *storage.SQLiteRepository
	notifier *notify.Client // nil when no broker is configured
	now      func() time.Time
}

func NewLedgerService(st *storage.SQLiteRepository, notifier *notify.Client) *LedgerService {
	return &LedgerService{
		storage:  st,
		notifier: notifier,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// AddExpense validates the payload and persists a new expense. Nothing is
// written when validation fails.
func (s *LedgerService) AddExpense(ctx context.Context, token string, in core.ExpenseInput) (core.Expense, error) {
	if err := in.Validate(); err != nil {
		return core.Expense{}, err
	}

	now := s.now()
	e := core.Expense{Token: token, CreatedAt: now, UpdatedAt: now}
	e = in.Merge(e)
	if in.Recovered != nil {
		e.RecoveredFromSavings = *in.Recovered
	}

	created, err := s.storage.CreateExpense(ctx, e)
	if err != nil {
		return core.Expense{}, fmt.Errorf("add expense: %w", err)
	}

	s.publishEvent(ctx, created)
	return created, nil
}

// UpdateExpense merges the supplied fields onto the existing record, then
// re-validates the full merged result before persisting. Records belonging to
// other owners are indistinguishable from missing ones.
func (s *LedgerService) UpdateExpense(ctx context.Context, token, id string, in core.ExpenseInput) (core.Expense, error) {
	if in.Empty() {
		return core.Expense{}, ErrNoFields
	}

	numericID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return core.Expense{}, ErrExpenseNotFound
	}

	existing, err := s.storage.GetExpense(ctx, token, numericID)
	if errors.Is(err, storage.ErrNotFound) {
		return core.Expense{}, ErrExpenseNotFound
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("load expense: %w", err)
	}

	merged := in.Merge(existing)
	if err := core.InputFor(merged).Validate(); err != nil {
		return core.Expense{}, err
	}

	merged.UpdatedAt = s.now()
	if err := s.storage.UpdateExpense(ctx, merged); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return core.Expense{}, ErrExpenseNotFound
		}
		return core.Expense{}, fmt.Errorf("update expense: %w", err)
	}
	return merged, nil
}

// DeleteExpense removes one expense. A malformed id behaves like a miss.
func (s *LedgerService) DeleteExpense(ctx context.Context, token, id string) error {
	numericID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return ErrExpenseNotFound
	}
	err = s.storage.DeleteExpense(ctx, token, numericID)
	if errors.Is(err, storage.ErrNotFound) {
		return ErrExpenseNotFound
	}
	return err
}

// ListExpenses returns the owner's expenses, newest-created first.
func (s *LedgerService) ListExpenses(ctx context.Context, token string) ([]core.Expense, error) {
	return s.storage.ListExpenses(ctx, token)
}

// AddSaving records a type=add ledger entry dated now. Unlike expense
// validation there is no sign check on the amount.
func (s *LedgerService) AddSaving(ctx context.Context, token string, amount float64, note string) (core.SavingEntry, error) {
	entry := core.SavingEntry{
		Token:  token,
		Amount: amount,
		Type:   core.SavingAdd,
		Note:   note,
		Date:   s.now().Format(time.RFC3339),
	}
	created, err := s.storage.CreateSaving(ctx, entry)
	if err != nil {
		return core.SavingEntry{}, fmt.Errorf("add saving: %w", err)
	}
	return created, nil
}

// UseSaving records a withdrawal as two writes: a type=use ledger entry plus
// an expense flagged recovered_from_savings, so category reporting keeps
// seeing where the money went. The two writes are sequential with no
// transaction; a fault in between leaves the ledger entry committed without
// its expense.
func (s *LedgerService) UseSaving(ctx context.Context, token string, amount float64, note, category, description string) (core.SavingEntry, error) {
	if category == "" {
		category = core.RecoveredCategory
	}
	now := s.now()

	entry, err := s.storage.CreateSaving(ctx, core.SavingEntry{
		Token:  token,
		Amount: amount,
		Type:   core.SavingUse,
		Note:   note,
		Date:   now.Format(time.RFC3339),
	})
	if err != nil {
		return core.SavingEntry{}, fmt.Errorf("use saving: %w", err)
	}

	expense, err := s.storage.CreateExpense(ctx, core.Expense{
		Token:                token,
		Category:             category,
		Amount:               amount,
		Description:          description,
		Date:                 now.Format(time.RFC3339),
		RecoveredFromSavings: true,
		CreatedAt:            now,
		UpdatedAt:            now,
	})
	if err != nil {
		return core.SavingEntry{}, fmt.Errorf("record recovered expense: %w", err)
	}

	s.publishEvent(ctx, expense)
	return entry, nil
}

// ListSavings returns the owner's ledger, newest first.
func (s *LedgerService) ListSavings(ctx context.Context, token string) ([]core.SavingEntry, error) {
	return s.storage.ListSavings(ctx, token)
}

// SaveSettings upserts the owner's settings record.
func (s *LedgerService) SaveSettings(ctx context.Context, settings core.Settings) error {
	settings.UpdatedAt = s.now()
	return s.storage.SaveSettings(ctx, settings)
}

// GetSettings loads the owner's settings; found=false means the defaulted
// shape should be served.
func (s *LedgerService) GetSettings(ctx context.Context, token string) (core.Settings, bool, error) {
	return s.storage.GetSettings(ctx, token)
}

// UpdateProfile merges the supplied fields onto the owner's profile.
func (s *LedgerService) UpdateProfile(ctx context.Context, token string, name, avatar, email *string) (core.Profile, error) {
	return s.storage.UpsertProfile(ctx, token, name, avatar, email)
}

// Reset bulk-deletes the owner's expenses, savings and settings. Partial
// completion is possible; the returned counts cover what succeeded.
func (s *LedgerService) Reset(ctx context.Context, token string) (storage.ResetCounts, error) {
	return s.storage.ResetOwner(ctx, token)
}

// publishEvent hands the write to the notification broker without ever
// failing the request; the expense is already saved locally.
func (s *LedgerService) publishEvent(ctx context.Context, e core.Expense) {
	ev := notify.NewExpenseEvent(e.Token, e.Category, e.Amount, e.RecoveredFromSavings)
	if err := s.notifier.PublishExpenseEvent(ctx, ev); err != nil {
		slog.ErrorContext(ctx, "Failed to publish expense event",
			"error", err, "category", e.Category, "amount", e.Amount)
	}
}
