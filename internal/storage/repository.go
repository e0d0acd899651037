package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"pennyflow/internal/core"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// SQLiteRepository is the owner-scoped persistence layer for categories,
// merchant rules, budget configuration, transactions and published
// aggregates.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
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

// --- categories ---

// ListCategories returns the owner's custom categories in stored position
// order. The stock defaults are merged in by the caller, not stored per
// owner.
func (r *SQLiteRepository) ListCategories(ctx context.Context, ownerID string) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT key, label, bucket, budget_percent, budget_amount_minor, merchant_patterns, is_default
		FROM categories WHERE owner_id = ? ORDER BY position, key`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		var c core.Category
		var patterns string
		var isDefault int
		if err := rows.Scan(&c.Key, &c.Label, (*string)(&c.Bucket), &c.BudgetPercent, &c.BudgetAmountMinor, &patterns, &isDefault); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		if patterns != "" && patterns != "[]" {
			if err := json.Unmarshal([]byte(patterns), &c.MerchantPatterns); err != nil {
				return nil, fmt.Errorf("decode merchant patterns for %s: %w", c.Key, err)
			}
		}
		c.IsDefault = isDefault != 0
		out = append(out, c)
	}
	return out, rows.Err()
}

// UpsertCategories writes custom category entries for an owner in one
// transaction. Existing keys are overwritten (last-write-wins).
func (r *SQLiteRepository) UpsertCategories(ctx context.Context, ownerID string, categories []core.Category) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for i, c := range categories {
		patterns, err := json.Marshal(c.MerchantPatterns)
		if err != nil {
			return fmt.Errorf("encode merchant patterns for %s: %w", c.Key, err)
		}
		isDefault := 0
		if c.IsDefault {
			isDefault = 1
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO categories (owner_id, key, label, bucket, budget_percent, budget_amount_minor, merchant_patterns, is_default, position)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(owner_id, key) DO UPDATE SET
				label = excluded.label,
				bucket = excluded.bucket,
				budget_percent = excluded.budget_percent,
				budget_amount_minor = excluded.budget_amount_minor,
				merchant_patterns = excluded.merchant_patterns,
				is_default = excluded.is_default,
				updated_at = CURRENT_TIMESTAMP`,
			ownerID, c.Key, c.Label, string(c.Bucket), c.BudgetPercent, c.BudgetAmountMinor, string(patterns), isDefault, i)
		if err != nil {
			return fmt.Errorf("upsert category %s: %w", c.Key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit categories: %w", err)
	}
	return nil
}

// --- merchant rules ---

func (r *SQLiteRepository) ListMerchantRules(ctx context.Context, ownerID string) ([]core.MerchantRule, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT merchant_key, category_key, category_label, category_type
		FROM merchant_rules WHERE owner_id = ? ORDER BY merchant_key`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list merchant rules: %w", err)
	}
	defer rows.Close()

	var out []core.MerchantRule
	for rows.Next() {
		rule := core.MerchantRule{OwnerID: ownerID}
		if err := rows.Scan(&rule.MerchantKey, &rule.CategoryKey, &rule.CategoryLabel, (*string)(&rule.CategoryType)); err != nil {
			return nil, fmt.Errorf("scan merchant rule: %w", err)
		}
		out = append(out, rule)
	}
	return out, rows.Err()
}

// UpsertMerchantRule writes or overwrites one learned mapping.
func (r *SQLiteRepository) UpsertMerchantRule(ctx context.Context, rule core.MerchantRule) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO merchant_rules (owner_id, merchant_key, category_key, category_label, category_type)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(owner_id, merchant_key) DO UPDATE SET
			category_key = excluded.category_key,
			category_label = excluded.category_label,
			category_type = excluded.category_type,
			updated_at = CURRENT_TIMESTAMP`,
		rule.OwnerID, rule.MerchantKey, rule.CategoryKey, rule.CategoryLabel, string(rule.CategoryType))
	if err != nil {
		return fmt.Errorf("upsert merchant rule %s: %w", rule.MerchantKey, err)
	}

	slog.InfoContext(ctx, "Merchant rule saved",
		"owner_id", rule.OwnerID,
		"merchant_key", rule.MerchantKey,
		"category_key", rule.CategoryKey)
	return nil
}

// UpsertMerchantRules applies a batch of rules in one transaction; either all
// valid rows land or none do.
func (r *SQLiteRepository) UpsertMerchantRules(ctx context.Context, ownerID string, rules []core.MerchantRule) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, rule := range rules {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO merchant_rules (owner_id, merchant_key, category_key, category_label, category_type)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(owner_id, merchant_key) DO UPDATE SET
				category_key = excluded.category_key,
				category_label = excluded.category_label,
				category_type = excluded.category_type,
				updated_at = CURRENT_TIMESTAMP`,
			ownerID, rule.MerchantKey, rule.CategoryKey, rule.CategoryLabel, string(rule.CategoryType))
		if err != nil {
			return fmt.Errorf("upsert merchant rule %s: %w", rule.MerchantKey, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit merchant rules: %w", err)
	}
	return nil
}

// --- budget configuration ---

// GetBudgetConfig loads the owner's configuration, defaulting an empty one on
// first use.
func (r *SQLiteRepository) GetBudgetConfig(ctx context.Context, ownerID string) (core.BudgetConfig, error) {
	cfg := core.NewBudgetConfig(ownerID)

	var byCategory, byBucket string
	err := r.db.QueryRowContext(ctx, `
		SELECT currency, monthly_income_minor, by_category, by_bucket
		FROM budget_config WHERE owner_id = ?`, ownerID).
		Scan(&cfg.Currency, &cfg.MonthlyIncomeMinor, &byCategory, &byBucket)
	if errors.Is(err, sql.ErrNoRows) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("get budget config: %w", err)
	}

	if err := json.Unmarshal([]byte(byCategory), &cfg.ByCategory); err != nil {
		return cfg, fmt.Errorf("decode by_category: %w", err)
	}
	if err := json.Unmarshal([]byte(byBucket), &cfg.ByBucket); err != nil {
		return cfg, fmt.Errorf("decode by_bucket: %w", err)
	}
	return cfg, nil
}

// SaveBudgetConfig persists the configuration wholesale (last-write-wins).
func (r *SQLiteRepository) SaveBudgetConfig(ctx context.Context, cfg core.BudgetConfig) error {
	byCategory, err := json.Marshal(cfg.ByCategory)
	if err != nil {
		return fmt.Errorf("encode by_category: %w", err)
	}
	byBucket, err := json.Marshal(cfg.ByBucket)
	if err != nil {
		return fmt.Errorf("encode by_bucket: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO budget_config (owner_id, currency, monthly_income_minor, by_category, by_bucket)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(owner_id) DO UPDATE SET
			currency = excluded.currency,
			monthly_income_minor = excluded.monthly_income_minor,
			by_category = excluded.by_category,
			by_bucket = excluded.by_bucket,
			updated_at = CURRENT_TIMESTAMP`,
		cfg.OwnerID, cfg.Currency, cfg.MonthlyIncomeMinor, string(byCategory), string(byBucket))
	if err != nil {
		return fmt.Errorf("save budget config: %w", err)
	}

	slog.InfoContext(ctx, "Budget config saved",
		"owner_id", cfg.OwnerID,
		"monthly_income_minor", cfg.MonthlyIncomeMinor)
	return nil
}

// --- transactions ---

const transactionColumns = `id, owner_id, amount_minor, timestamp_ms, merchant_raw, merchant_key,
	description, user_category_key, default_category_key, effective_bucket,
	anomaly_flag, anomaly_score, anomaly_reason, pot_ref`

func scanTransaction(rows interface{ Scan(...any) error }) (core.Transaction, error) {
	var tx core.Transaction
	var flag int
	err := rows.Scan(&tx.ID, &tx.OwnerID, &tx.AmountMinor, &tx.TimestampMs, &tx.MerchantRaw, &tx.MerchantKey,
		&tx.Description, &tx.UserCategoryKey, &tx.DefaultCategoryKey, (*string)(&tx.EffectiveBucket),
		&flag, &tx.AnomalyScore, &tx.AnomalyReason, &tx.PotRef)
	tx.AnomalyFlag = flag != 0
	return tx, err
}

// InsertTransactions stores records from the ingestion feed. The merchant key
// is derived here so defaulting happens once, not in every consumer.
func (r *SQLiteRepository) InsertTransactions(ctx context.Context, txs []core.Transaction) error {
	dbTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer dbTx.Rollback()

	for _, t := range txs {
		if err := t.Validate(); err != nil {
			return fmt.Errorf("validate transaction %s: %w", t.ID, err)
		}
		if t.MerchantKey == "" {
			t.MerchantKey = core.NormalizeMerchant(t.MerchantRaw)
		}
		if t.EffectiveBucket == "" {
			t.EffectiveBucket = core.BucketUnknown
		}
		flag := 0
		if t.AnomalyFlag {
			flag = 1
		}
		_, err = dbTx.ExecContext(ctx, `
			INSERT INTO transactions (`+transactionColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(owner_id, id) DO NOTHING`,
			t.ID, t.OwnerID, t.AmountMinor, t.TimestampMs, t.MerchantRaw, t.MerchantKey,
			t.Description, t.UserCategoryKey, t.DefaultCategoryKey, string(t.EffectiveBucket),
			flag, t.AnomalyScore, t.AnomalyReason, t.PotRef)
		if err != nil {
			return fmt.Errorf("insert transaction %s: %w", t.ID, err)
		}
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("commit transactions: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, ownerID, id string) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+transactionColumns+` FROM transactions WHERE owner_id = ? AND id = ?`, ownerID, id)
	tx, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return tx, fmt.Errorf("transaction %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return tx, fmt.Errorf("get transaction %s: %w", id, err)
	}
	return tx, nil
}

// ListTransactions returns all of an owner's transactions ordered by time.
func (r *SQLiteRepository) ListTransactions(ctx context.Context, ownerID string) ([]core.Transaction, error) {
	return r.queryTransactions(ctx, `
		SELECT `+transactionColumns+` FROM transactions
		WHERE owner_id = ? ORDER BY timestamp_ms, id`, ownerID)
}

// ListOwners returns every owner with at least one stored transaction, used
// by the periodic recompute sweep.
func (r *SQLiteRepository) ListOwners(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT owner_id FROM transactions ORDER BY owner_id`)
	if err != nil {
		return nil, fmt.Errorf("list owners: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var owner string
		if err := rows.Scan(&owner); err != nil {
			return nil, fmt.Errorf("scan owner: %w", err)
		}
		out = append(out, owner)
	}
	return out, rows.Err()
}

// ListTransactionsByMerchant returns the owner's transactions for one
// normalized merchant key, used when a mapping change applies to existing
// history.
func (r *SQLiteRepository) ListTransactionsByMerchant(ctx context.Context, ownerID, merchantKey string) ([]core.Transaction, error) {
	return r.queryTransactions(ctx, `
		SELECT `+transactionColumns+` FROM transactions
		WHERE owner_id = ? AND merchant_key = ? ORDER BY timestamp_ms, id`, ownerID, merchantKey)
}

func (r *SQLiteRepository) queryTransactions(ctx context.Context, query string, args ...any) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}

// SetTransactionOverride sets the explicit per-transaction category override.
func (r *SQLiteRepository) SetTransactionOverride(ctx context.Context, ownerID, id, categoryKey string, bucket core.Bucket) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE transactions SET user_category_key = ?, effective_bucket = ?
		WHERE owner_id = ? AND id = ?`, categoryKey, string(bucket), ownerID, id)
	if err != nil {
		return fmt.Errorf("set transaction override: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("transaction %s: %w", id, ErrNotFound)
	}

	slog.InfoContext(ctx, "Transaction override set",
		"owner_id", ownerID,
		"transaction_id", id,
		"category_key", categoryKey)
	return nil
}

// ResolutionUpdate carries a re-resolved default category for one transaction.
type ResolutionUpdate struct {
	TransactionID      string
	DefaultCategoryKey string
	EffectiveBucket    core.Bucket
}

// ApplyResolutions rewrites default categories in one transaction, used by
// bulk re-resolution after a mapping change.
func (r *SQLiteRepository) ApplyResolutions(ctx context.Context, ownerID string, updates []ResolutionUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, u := range updates {
		_, err = tx.ExecContext(ctx, `
			UPDATE transactions SET default_category_key = ?, effective_bucket = ?
			WHERE owner_id = ? AND id = ? AND user_category_key = ''`,
			u.DefaultCategoryKey, string(u.EffectiveBucket), ownerID, u.TransactionID)
		if err != nil {
			return fmt.Errorf("apply resolution %s: %w", u.TransactionID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit resolutions: %w", err)
	}
	return nil
}

// AnomalyUpdate carries detector output for one transaction.
type AnomalyUpdate struct {
	TransactionID string
	Flag          bool
	Score         float64
	Reason        string
}

// ApplyAnomalies clears all flags for the owner and writes the new set, so a
// recompute fully owns the anomaly state.
func (r *SQLiteRepository) ApplyAnomalies(ctx context.Context, ownerID string, updates []AnomalyUpdate) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		UPDATE transactions SET anomaly_flag = 0, anomaly_score = 0, anomaly_reason = ''
		WHERE owner_id = ? AND anomaly_flag = 1`, ownerID)
	if err != nil {
		return fmt.Errorf("clear anomalies: %w", err)
	}

	for _, u := range updates {
		flag := 0
		if u.Flag {
			flag = 1
		}
		_, err = tx.ExecContext(ctx, `
			UPDATE transactions SET anomaly_flag = ?, anomaly_score = ?, anomaly_reason = ?
			WHERE owner_id = ? AND id = ?`,
			flag, u.Score, u.Reason, ownerID, u.TransactionID)
		if err != nil {
			return fmt.Errorf("apply anomaly %s: %w", u.TransactionID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit anomalies: %w", err)
	}
	return nil
}

// --- aggregates ---

// BeginRecomputeRun allocates a monotonically increasing sequence number for
// a recompute. The sequence decides last-completed-wins at publish time.
func (r *SQLiteRepository) BeginRecomputeRun(ctx context.Context, ownerID, runID string, startedMs int64) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO recompute_runs (owner_id, run_id, started_ms) VALUES (?, ?, ?)`,
		ownerID, runID, startedMs)
	if err != nil {
		return 0, fmt.Errorf("begin recompute run: %w", err)
	}
	seq, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("recompute run sequence: %w", err)
	}
	return seq, nil
}

// PublishAggregate atomically replaces the owner's published aggregate
// document. A snapshot whose sequence is not newer than the stored one is
// discarded (a later run already won); the previous document stays intact on
// any failure.
func (r *SQLiteRepository) PublishAggregate(ctx context.Context, snap core.AnalyticsSnapshot) (bool, error) {
	doc, err := json.Marshal(snap)
	if err != nil {
		return false, fmt.Errorf("encode aggregate: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var current int64
	err = tx.QueryRowContext(ctx, `SELECT sequence FROM aggregates WHERE owner_id = ?`, snap.OwnerID).Scan(&current)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("read published sequence: %w", err)
	}
	if err == nil && current >= snap.Sequence {
		return false, nil
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO aggregates (owner_id, sequence, run_id, document, generated_ms)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(owner_id) DO UPDATE SET
			sequence = excluded.sequence,
			run_id = excluded.run_id,
			document = excluded.document,
			generated_ms = excluded.generated_ms`,
		snap.OwnerID, snap.Sequence, snap.RunID, string(doc), snap.GeneratedMs)
	if err != nil {
		return false, fmt.Errorf("publish aggregate: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit aggregate: %w", err)
	}

	slog.InfoContext(ctx, "Aggregate published",
		"owner_id", snap.OwnerID,
		"run_id", snap.RunID,
		"sequence", snap.Sequence)
	return true, nil
}

// GetAggregate returns the owner's published aggregate document.
func (r *SQLiteRepository) GetAggregate(ctx context.Context, ownerID string) (core.AnalyticsSnapshot, error) {
	var doc string
	err := r.db.QueryRowContext(ctx, `SELECT document FROM aggregates WHERE owner_id = ?`, ownerID).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return core.AnalyticsSnapshot{}, fmt.Errorf("aggregate for %s: %w", ownerID, ErrNotFound)
	}
	if err != nil {
		return core.AnalyticsSnapshot{}, fmt.Errorf("get aggregate: %w", err)
	}

	var snap core.AnalyticsSnapshot
	if err := json.Unmarshal([]byte(doc), &snap); err != nil {
		return snap, fmt.Errorf("decode aggregate: %w", err)
	}
	return snap, nil
}
