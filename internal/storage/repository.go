package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"spendtrack/internal/core"

	_ "modernc.org/sqlite"
)

// ErrNotFound reports an owner-scoped lookup miss.
var ErrNotFound = errors.New("record not found")

// SQLiteRepository persists all owner-scoped collections: expenses, savings,
// settings, profiles and users. It is safe for concurrent use by multiple
// in-flight requests.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository opens (creating if needed) the database at dbPath and
// runs pending migrations.
func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// ---- expenses ----

const expenseColumns = `id, token, category, amount, description, date,
	recovered_from_savings, paid_from_savings, created_at, updated_at`

func scanExpense(row interface{ Scan(...any) error }) (core.Expense, error) {
	var e core.Expense
	err := row.Scan(&e.ID, &e.Token, &e.Category, &e.Amount, &e.Description,
		&e.Date, &e.RecoveredFromSavings, &e.PaidFromSavings, &e.CreatedAt, &e.UpdatedAt)
	return e, err
}

// CreateExpense inserts e and returns it with the assigned id.
func (r *SQLiteRepository) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO expenses (token, category, amount, description, date,
			recovered_from_savings, paid_from_savings, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Token, e.Category, e.Amount, e.Description, e.Date,
		e.RecoveredFromSavings, e.PaidFromSavings, e.CreatedAt, e.UpdatedAt)
	if err != nil {
		return core.Expense{}, fmt.Errorf("insert expense: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Expense{}, fmt.Errorf("expense insert id: %w", err)
	}
	e.ID = id

	slog.InfoContext(ctx, "Expense saved",
		"id", e.ID,
		"category", e.Category,
		"amount", e.Amount,
		"recovered", e.RecoveredFromSavings)
	return e, nil
}

// GetExpense fetches one expense scoped by id and owner token.
func (r *SQLiteRepository) GetExpense(ctx context.Context, token string, id int64) (core.Expense, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE id = ? AND token = ?`, id, token)
	e, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, ErrNotFound
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense: %w", err)
	}
	return e, nil
}

// ListExpenses returns all of an owner's expenses, newest-created first.
func (r *SQLiteRepository) ListExpenses(ctx context.Context, token string) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE token = ? ORDER BY created_at DESC, id DESC`, token)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var out []core.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// UpdateExpense persists the mutable fields of e, scoped by id and token.
func (r *SQLiteRepository) UpdateExpense(ctx context.Context, e core.Expense) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE expenses
		SET category = ?, amount = ?, description = ?, date = ?, updated_at = ?
		WHERE id = ? AND token = ?`,
		e.Category, e.Amount, e.Description, e.Date, e.UpdatedAt, e.ID, e.Token)
	if err != nil {
		return fmt.Errorf("update expense: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update expense rows: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteExpense removes one expense scoped by id and token.
func (r *SQLiteRepository) DeleteExpense(ctx context.Context, token string, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM expenses WHERE id = ? AND token = ?`, id, token)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete expense rows: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ---- savings ----

// CreateSaving inserts a ledger entry and returns it with the assigned id.
func (r *SQLiteRepository) CreateSaving(ctx context.Context, s core.SavingEntry) (core.SavingEntry, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO savings (token, amount, type, note, date) VALUES (?, ?, ?, ?, ?)`,
		s.Token, s.Amount, string(s.Type), s.Note, s.Date)
	if err != nil {
		return core.SavingEntry{}, fmt.Errorf("insert saving: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.SavingEntry{}, fmt.Errorf("saving insert id: %w", err)
	}
	s.ID = id

	slog.InfoContext(ctx, "Saving entry recorded", "id", s.ID, "type", s.Type, "amount", s.Amount)
	return s, nil
}

// ListSavings returns all of an owner's ledger entries, newest first.
func (r *SQLiteRepository) ListSavings(ctx context.Context, token string) ([]core.SavingEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, token, amount, type, note, date FROM savings WHERE token = ? ORDER BY date DESC, id DESC`, token)
	if err != nil {
		return nil, fmt.Errorf("list savings: %w", err)
	}
	defer rows.Close()

	var out []core.SavingEntry
	for rows.Next() {
		var s core.SavingEntry
		if err := rows.Scan(&s.ID, &s.Token, &s.Amount, &s.Type, &s.Note, &s.Date); err != nil {
			return nil, fmt.Errorf("scan saving: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// ---- settings ----

// SaveSettings upserts the single settings record keyed by owner token.
func (r *SQLiteRepository) SaveSettings(ctx context.Context, s core.Settings) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO settings (token, income, budget, notify_budget_alert,
			notify_large_expense, notify_monthly_email, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(token) DO UPDATE SET
			income = excluded.income,
			budget = excluded.budget,
			notify_budget_alert = excluded.notify_budget_alert,
			notify_large_expense = excluded.notify_large_expense,
			notify_monthly_email = excluded.notify_monthly_email,
			updated_at = excluded.updated_at`,
		s.Token, s.Income, s.Budget, s.Notifications.BudgetAlert,
		s.Notifications.LargeExpense, s.Notifications.MonthlyEmail, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

// GetSettings loads an owner's settings. The second return value reports
// whether a record exists; absence is valid and yields the zero shape.
func (r *SQLiteRepository) GetSettings(ctx context.Context, token string) (core.Settings, bool, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT token, income, budget, notify_budget_alert, notify_large_expense,
			notify_monthly_email, updated_at
		FROM settings WHERE token = ?`, token)

	var s core.Settings
	err := row.Scan(&s.Token, &s.Income, &s.Budget, &s.Notifications.BudgetAlert,
		&s.Notifications.LargeExpense, &s.Notifications.MonthlyEmail, &s.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Settings{Token: token}, false, nil
	}
	if err != nil {
		return core.Settings{}, false, fmt.Errorf("get settings: %w", err)
	}
	return s, true, nil
}

// ---- profiles ----

// UpsertProfile merges the supplied fields onto an owner's profile, creating
// it on first write. Nil fields keep their prior values.
func (r *SQLiteRepository) UpsertProfile(ctx context.Context, token string, name, avatar, email *string) (core.Profile, error) {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO profiles (token, name, avatar, email)
		VALUES (?, COALESCE(?, ''), COALESCE(?, ''), COALESCE(?, ''))
		ON CONFLICT(token) DO UPDATE SET
			name = COALESCE(?, profiles.name),
			avatar = COALESCE(?, profiles.avatar),
			email = COALESCE(?, profiles.email)`,
		token, name, avatar, email, name, avatar, email)
	if err != nil {
		return core.Profile{}, fmt.Errorf("upsert profile: %w", err)
	}
	return r.GetProfile(ctx, token)
}

// GetProfile loads an owner's profile; a missing record yields the defaulted
// empty shape rather than an error.
func (r *SQLiteRepository) GetProfile(ctx context.Context, token string) (core.Profile, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT token, name, avatar, email FROM profiles WHERE token = ?`, token)
	var p core.Profile
	err := row.Scan(&p.Token, &p.Name, &p.Avatar, &p.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Profile{Token: token}, nil
	}
	if err != nil {
		return core.Profile{}, fmt.Errorf("get profile: %w", err)
	}
	return p, nil
}

// ---- users ----

// GetUserByGoogleID looks up the identity mapping for a Google account.
func (r *SQLiteRepository) GetUserByGoogleID(ctx context.Context, googleID string) (core.User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, google_id, token, name, email, picture, created_at, last_login
		FROM users WHERE google_id = ?`, googleID)
	var u core.User
	err := row.Scan(&u.ID, &u.GoogleID, &u.Token, &u.Name, &u.Email, &u.Picture, &u.CreatedAt, &u.LastLogin)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, ErrNotFound
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// CreateUser inserts a new identity mapping. The owner token must already be
// assigned by the caller; it is generated exactly once per identity.
func (r *SQLiteRepository) CreateUser(ctx context.Context, u core.User) (core.User, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO users (google_id, token, name, email, picture, created_at, last_login)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		u.GoogleID, u.Token, u.Name, u.Email, u.Picture, u.CreatedAt, u.LastLogin)
	if err != nil {
		return core.User{}, fmt.Errorf("insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.User{}, fmt.Errorf("user insert id: %w", err)
	}
	u.ID = id

	slog.InfoContext(ctx, "User created", "id", u.ID, "email", u.Email)
	return u, nil
}

// TouchLastLogin records a successful login for an existing identity.
func (r *SQLiteRepository) TouchLastLogin(ctx context.Context, googleID string, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET last_login = ? WHERE google_id = ?`, at, googleID)
	if err != nil {
		return fmt.Errorf("touch last login: %w", err)
	}
	return nil
}

// ---- admin ----

// ResetCounts reports how many rows each collection lost during a reset.
type ResetCounts struct {
	Expenses int64 `json:"deleted_expenses"`
	Savings  int64 `json:"deleted_savings"`
	Settings int64 `json:"deleted_settings"`
}

// ResetOwner bulk-deletes all of an owner's expenses, savings and settings.
// The three deletes run independently with no transaction: a mid-sequence
// fault leaves earlier deletions committed.
func (r *SQLiteRepository) ResetOwner(ctx context.Context, token string) (ResetCounts, error) {
	var counts ResetCounts

	res, err := r.db.ExecContext(ctx, `DELETE FROM expenses WHERE token = ?`, token)
	if err != nil {
		return counts, fmt.Errorf("reset expenses: %w", err)
	}
	counts.Expenses, _ = res.RowsAffected()

	res, err = r.db.ExecContext(ctx, `DELETE FROM savings WHERE token = ?`, token)
	if err != nil {
		return counts, fmt.Errorf("reset savings: %w", err)
	}
	counts.Savings, _ = res.RowsAffected()

	res, err = r.db.ExecContext(ctx, `DELETE FROM settings WHERE token = ?`, token)
	if err != nil {
		return counts, fmt.Errorf("reset settings: %w", err)
	}
	counts.Settings, _ = res.RowsAffected()

	slog.InfoContext(ctx, "Owner data reset",
		"expenses", counts.Expenses,
		"savings", counts.Savings,
		"settings", counts.Settings)
	return counts, nil
}
