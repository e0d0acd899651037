// Package services orchestrates the categorization and rollup engine over
// SQLite and AMQP: rule edits, overrides, mapping import/export and the
// recompute lifecycle.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"pennyflow/internal/analytics"
	"pennyflow/internal/core"
	"pennyflow/internal/mappings"
	"pennyflow/internal/resolve"
	"pennyflow/internal/sheets"
	"pennyflow/internal/storage"
)

// FinanceService exposes the engine's operations to the API layer and the
// recompute worker.
type FinanceService struct {
	storage      *storage.SQLiteRepository
	publisher    RecomputePublisher
	goals        GoalStore
	mappingSheet sheets.MappingWriter
	anomaly      analytics.AnomalyConfig
	now          func() time.Time
}

func NewFinanceService(repo *storage.SQLiteRepository, publisher RecomputePublisher, goals GoalStore, anomaly analytics.AnomalyConfig) *FinanceService {
	return &FinanceService{
		storage:   repo,
		publisher: publisher,
		goals:     goals,
		anomaly:   anomaly,
		now:       time.Now,
	}
}

// Categories returns the owner's effective category table: stock defaults
// merged with the owner's custom entries.
func (s *FinanceService) Categories(ctx context.Context, ownerID string) ([]core.Category, error) {
	custom, err := s.storage.ListCategories(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("load categories: %w", err)
	}
	return core.MergeCategories(custom), nil
}

// IngestTransactions stores a batch from the transaction feed. Each record is
// resolved once on the way in so the stored effective bucket is usable before
// the next recompute lands.
func (s *FinanceService) IngestTransactions(ctx context.Context, ownerID string, txs []core.Transaction) error {
	if len(txs) == 0 {
		return nil
	}

	categories, err := s.Categories(ctx, ownerID)
	if err != nil {
		return err
	}
	rules, err := s.storage.ListMerchantRules(ctx, ownerID)
	if err != nil {
		return fmt.Errorf("load merchant rules: %w", err)
	}

	resolver := resolve.New(categories, rules)
	for i := range txs {
		txs[i].OwnerID = ownerID
		if txs[i].MerchantKey == "" {
			txs[i].MerchantKey = core.NormalizeMerchant(txs[i].MerchantRaw)
		}
		res := resolver.Resolve(txs[i])
		txs[i].DefaultCategoryKey = res.CategoryKey
		txs[i].EffectiveBucket = res.Bucket
		if err := txs[i].Validate(); err != nil {
			return fmt.Errorf("transaction %s: %w", txs[i].ID, err)
		}
	}

	if err := s.storage.InsertTransactions(ctx, txs); err != nil {
		return fmt.Errorf("store transactions: %w", err)
	}

	slog.InfoContext(ctx, "Transactions ingested",
		"owner_id", ownerID,
		"count", len(txs))

	s.requestRecompute(ctx, ownerID, "transactions_ingested")
	return nil
}

// SetTransactionCategoryOverride sets the explicit per-transaction category.
// The override always wins over merchant rules and patterns at resolution
// time. A recompute request is published so aggregates catch up.
func (s *FinanceService) SetTransactionCategoryOverride(ctx context.Context, ownerID, transactionID, categoryKey, categoryLabel string) error {
	categories, err := s.Categories(ctx, ownerID)
	if err != nil {
		return err
	}
	cat, ok := core.CategoryByKey(categories, categoryKey)
	if !ok {
		return core.NewFieldError("categoryKey", core.ErrUnknownCategory)
	}

	if err := s.storage.SetTransactionOverride(ctx, ownerID, transactionID, categoryKey, cat.Bucket); err != nil {
		return fmt.Errorf("set override: %w", err)
	}

	slog.InfoContext(ctx, "Category override set",
		"owner_id", ownerID,
		"transaction_id", transactionID,
		"category_key", categoryKey,
		"category_label", categoryLabel)

	s.requestRecompute(ctx, ownerID, "override_set")
	return nil
}

// SetMerchantMapping upserts a learned merchant rule. With applyToExisting
// the merchant's historical transactions are re-resolved immediately; without
// it only future resolutions see the new rule until a bulk recompute runs.
func (s *FinanceService) SetMerchantMapping(ctx context.Context, ownerID, merchantKey, categoryKey, categoryLabel string, categoryType core.Bucket, applyToExisting bool) error {
	rule := core.MerchantRule{
		OwnerID:       ownerID,
		MerchantKey:   core.NormalizeMerchant(merchantKey),
		CategoryKey:   categoryKey,
		CategoryLabel: categoryLabel,
		CategoryType:  categoryType,
	}
	if err := rule.Validate(); err != nil {
		return err
	}

	categories, err := s.Categories(ctx, ownerID)
	if err != nil {
		return err
	}
	if cat, ok := core.CategoryByKey(categories, categoryKey); ok {
		rule.CategoryType = cat.Bucket
		if rule.CategoryLabel == "" {
			rule.CategoryLabel = cat.Label
		}
	} else if !rule.CategoryType.Valid() {
		rule.CategoryType = core.BucketUnknown
	}

	if err := s.storage.UpsertMerchantRule(ctx, rule); err != nil {
		return fmt.Errorf("save merchant rule: %w", err)
	}

	if applyToExisting {
		if err := s.reresolveMerchant(ctx, ownerID, rule.MerchantKey, categories); err != nil {
			return fmt.Errorf("re-resolve merchant %s: %w", rule.MerchantKey, err)
		}
		s.requestRecompute(ctx, ownerID, "mapping_applied_to_existing")
	}
	return nil
}

func (s *FinanceService) reresolveMerchant(ctx context.Context, ownerID, merchantKey string, categories []core.Category) error {
	rules, err := s.storage.ListMerchantRules(ctx, ownerID)
	if err != nil {
		return fmt.Errorf("load merchant rules: %w", err)
	}
	txs, err := s.storage.ListTransactionsByMerchant(ctx, ownerID, merchantKey)
	if err != nil {
		return fmt.Errorf("load merchant transactions: %w", err)
	}

	resolver := resolve.New(categories, rules)
	updates := make([]storage.ResolutionUpdate, 0, len(txs))
	for _, tx := range txs {
		if tx.UserCategoryKey != "" {
			continue // explicit overrides stay put
		}
		res := resolver.Resolve(tx)
		updates = append(updates, storage.ResolutionUpdate{
			TransactionID:      tx.ID,
			DefaultCategoryKey: res.CategoryKey,
			EffectiveBucket:    res.Bucket,
		})
	}

	if err := s.storage.ApplyResolutions(ctx, ownerID, updates); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Re-resolved merchant transactions",
		"owner_id", ownerID,
		"merchant_key", merchantKey,
		"updated", len(updates))
	return nil
}

// ImportFinanceMappings bulk-loads merchant/category/bucket rules from CSV.
// Malformed rows are skipped and counted; valid rows are applied atomically.
func (s *FinanceService) ImportFinanceMappings(ctx context.Context, ownerID, csvText string) (mappings.ImportResult, error) {
	categories, err := s.Categories(ctx, ownerID)
	if err != nil {
		return mappings.ImportResult{}, err
	}

	parsed, err := mappings.ParseCSV(ownerID, csvText, categories)
	if err != nil {
		return mappings.ImportResult{}, fmt.Errorf("parse mapping csv: %w", err)
	}

	if len(parsed.Categories) > 0 {
		if err := s.storage.UpsertCategories(ctx, ownerID, parsed.Categories); err != nil {
			return parsed.Result, fmt.Errorf("save imported categories: %w", err)
		}
	}
	if len(parsed.Rules) > 0 {
		if err := s.storage.UpsertMerchantRules(ctx, ownerID, parsed.Rules); err != nil {
			return parsed.Result, fmt.Errorf("save imported rules: %w", err)
		}
	}

	slog.InfoContext(ctx, "Finance mappings imported",
		"owner_id", ownerID,
		"imported_rows", parsed.Result.ImportedRows,
		"skipped_rows", parsed.Result.SkippedRows)

	s.requestRecompute(ctx, ownerID, "mappings_imported")
	return parsed.Result, nil
}

// ExportMappings assembles the owner's mapping/budget export document.
func (s *FinanceService) ExportMappings(ctx context.Context, ownerID string) (mappings.Export, error) {
	categories, err := s.Categories(ctx, ownerID)
	if err != nil {
		return mappings.Export{}, err
	}
	rules, err := s.storage.ListMerchantRules(ctx, ownerID)
	if err != nil {
		return mappings.Export{}, fmt.Errorf("load merchant rules: %w", err)
	}
	cfg, err := s.storage.GetBudgetConfig(ctx, ownerID)
	if err != nil {
		return mappings.Export{}, fmt.Errorf("load budget config: %w", err)
	}
	return mappings.BuildExport(rules, categories, cfg), nil
}

// SetMappingWriter enables the optional spreadsheet export target.
func (s *FinanceService) SetMappingWriter(writer sheets.MappingWriter) {
	s.mappingSheet = writer
}

// ExportMappingsToSheet pushes the owner's current mapping export to the
// configured spreadsheet.
func (s *FinanceService) ExportMappingsToSheet(ctx context.Context, ownerID string) error {
	if s.mappingSheet == nil {
		return fmt.Errorf("no mapping sheet configured")
	}
	export, err := s.ExportMappings(ctx, ownerID)
	if err != nil {
		return err
	}
	if err := s.mappingSheet.WriteMappings(ctx, ownerID, export); err != nil {
		return fmt.Errorf("write mappings to sheet: %w", err)
	}
	return nil
}

// SaveBudgetConfig validates and persists the configuration. The
// non-authoritative side of each category entry is reconciled here, at save
// time only.
func (s *FinanceService) SaveBudgetConfig(ctx context.Context, cfg core.BudgetConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	cfg.Reconcile()
	if err := s.storage.SaveBudgetConfig(ctx, cfg); err != nil {
		return fmt.Errorf("save budget config: %w", err)
	}
	s.requestRecompute(ctx, cfg.OwnerID, "budget_changed")
	return nil
}

// GetBudgetConfig returns the owner's configuration, defaulted on first use.
func (s *FinanceService) GetBudgetConfig(ctx context.Context, ownerID string) (core.BudgetConfig, error) {
	return s.storage.GetBudgetConfig(ctx, ownerID)
}

// GetAnalytics returns the owner's published aggregate document.
func (s *FinanceService) GetAnalytics(ctx context.Context, ownerID string) (core.AnalyticsSnapshot, error) {
	return s.storage.GetAggregate(ctx, ownerID)
}

// GoalProgress computes funding state for the owner's goals from the
// external goal/pot store.
func (s *FinanceService) GoalProgress(ctx context.Context, ownerID string) ([]core.GoalProgress, error) {
	if s.goals == nil {
		return nil, nil
	}
	goals, err := s.goals.ListGoals(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	pots, err := s.goals.ListPots(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list pots: %w", err)
	}
	categories, err := s.Categories(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	cfg, err := s.storage.GetBudgetConfig(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("load budget config: %w", err)
	}
	return analytics.GoalProgress(goals, pots, categories, cfg), nil
}

// RequestRecompute publishes an asynchronous recompute request. Without an
// AMQP client the request is skipped; callers can still recompute
// synchronously.
func (s *FinanceService) RequestRecompute(ctx context.Context, ownerID, reason string) {
	s.requestRecompute(ctx, ownerID, reason)
}

func (s *FinanceService) requestRecompute(ctx context.Context, ownerID, reason string) {
	if s.publisher == nil {
		slog.WarnContext(ctx, "Recompute publisher not available, skipping request",
			"owner_id", ownerID, "reason", reason)
		return
	}
	runID := uuid.NewString()
	if err := s.publisher.PublishRecomputeRequest(ctx, ownerID, runID, reason); err != nil {
		// Aggregates are derived and disposable; a missed request only delays
		// the refresh until the next trigger.
		slog.ErrorContext(ctx, "Failed to publish recompute request",
			"owner_id", ownerID, "run_id", runID, "error", err)
	}
}

// Close releases the storage handle.
func (s *FinanceService) Close() error {
	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
			return fmt.Errorf("close storage: %w", err)
		}
	}
	return nil
}
