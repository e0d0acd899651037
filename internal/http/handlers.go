package http

import (
	"log/slog"
	"net/http"
	"strings"

	"pennyflow/internal/core"
)

type categoryResponse struct {
	Key               string   `json:"key"`
	Label             string   `json:"label"`
	Bucket            string   `json:"bucket"`
	BudgetPercent     float64  `json:"budgetPercent,omitempty"`
	BudgetAmountMinor int64    `json:"budgetAmountMinor,omitempty"`
	MerchantPatterns  []string `json:"merchantPatterns,omitempty"`
	IsDefault         bool     `json:"isDefault"`
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	owner := ownerFromRequest(r)
	if owner == "" {
		writeError(w, http.StatusBadRequest, "owner id is required")
		return
	}

	categories, err := s.service.Categories(r.Context(), owner)
	if err != nil {
		slog.ErrorContext(r.Context(), "List categories failed", "owner_id", owner, "error", err)
		writeServiceError(w, err)
		return
	}

	out := make([]categoryResponse, 0, len(categories))
	for _, c := range categories {
		out = append(out, categoryResponse{
			Key:               c.Key,
			Label:             c.Label,
			Bucket:            string(c.Bucket),
			BudgetPercent:     c.BudgetPercent,
			BudgetAmountMinor: c.BudgetAmountMinor,
			MerchantPatterns:  c.MerchantPatterns,
			IsDefault:         c.IsDefault,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

type ingestTransactionRequest struct {
	ID          string `json:"id"`
	AmountMinor int64  `json:"amountMinor"`
	TimestampMs int64  `json:"timestampMs"`
	MerchantRaw string `json:"merchantRaw"`
	Description string `json:"description"`
	PotRef      string `json:"potRef"`
}

func (s *Server) handleIngestTransactions(w http.ResponseWriter, r *http.Request) {
	owner := ownerFromRequest(r)
	if owner == "" {
		writeError(w, http.StatusBadRequest, "owner id is required")
		return
	}

	var payload []ingestTransactionRequest
	if err := readJSON(w, r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	txs := make([]core.Transaction, 0, len(payload))
	for _, in := range payload {
		txs = append(txs, core.Transaction{
			ID:          strings.TrimSpace(in.ID),
			OwnerID:     owner,
			AmountMinor: in.AmountMinor,
			TimestampMs: in.TimestampMs,
			MerchantRaw: sanitizeInput(in.MerchantRaw),
			Description: sanitizeInput(in.Description),
			PotRef:      strings.TrimSpace(in.PotRef),
		})
	}

	if err := s.service.IngestTransactions(r.Context(), owner, txs); err != nil {
		slog.ErrorContext(r.Context(), "Ingest transactions failed", "owner_id", owner, "error", err)
		writeServiceError(w, err)
		return
	}
	s.analyticsCache.Delete(owner)
	writeJSON(w, http.StatusAccepted, map[string]int{"accepted": len(txs)})
}

type setOverrideRequest struct {
	CategoryKey   string `json:"categoryKey"`
	CategoryLabel string `json:"categoryLabel"`
}

func (s *Server) handleSetOverride(w http.ResponseWriter, r *http.Request) {
	owner := ownerFromRequest(r)
	if owner == "" {
		writeError(w, http.StatusBadRequest, "owner id is required")
		return
	}
	transactionID := r.PathValue("id")

	var payload setOverrideRequest
	if err := readJSON(w, r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	err := s.service.SetTransactionCategoryOverride(r.Context(), owner, transactionID,
		strings.TrimSpace(payload.CategoryKey), sanitizeInput(payload.CategoryLabel))
	if err != nil {
		slog.ErrorContext(r.Context(), "Set override failed",
			"owner_id", owner,
			"transaction_id", transactionID,
			"error", err)
		writeServiceError(w, err)
		return
	}
	s.analyticsCache.Delete(owner)
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type setMappingRequest struct {
	MerchantKey     string `json:"merchantKey"`
	CategoryKey     string `json:"categoryKey"`
	CategoryLabel   string `json:"categoryLabel"`
	CategoryType    string `json:"categoryType"`
	ApplyToExisting bool   `json:"applyToExisting"`
}

func (s *Server) handleSetMapping(w http.ResponseWriter, r *http.Request) {
	owner := ownerFromRequest(r)
	if owner == "" {
		writeError(w, http.StatusBadRequest, "owner id is required")
		return
	}

	var payload setMappingRequest
	if err := readJSON(w, r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	err := s.service.SetMerchantMapping(r.Context(), owner,
		sanitizeInput(payload.MerchantKey),
		strings.TrimSpace(payload.CategoryKey),
		sanitizeInput(payload.CategoryLabel),
		core.ParseBucket(payload.CategoryType),
		payload.ApplyToExisting)
	if err != nil {
		slog.ErrorContext(r.Context(), "Set merchant mapping failed",
			"owner_id", owner,
			"merchant_key", payload.MerchantKey,
			"error", err)
		writeServiceError(w, err)
		return
	}
	s.analyticsCache.Delete(owner)
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleImportMappings(w http.ResponseWriter, r *http.Request) {
	owner := ownerFromRequest(r)
	if owner == "" {
		writeError(w, http.StatusBadRequest, "owner id is required")
		return
	}

	body, err := readBody(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "read request body: "+err.Error())
		return
	}
	if len(body) == 0 {
		writeError(w, http.StatusBadRequest, "empty csv body")
		return
	}

	result, err := s.service.ImportFinanceMappings(r.Context(), owner, string(body))
	if err != nil {
		slog.ErrorContext(r.Context(), "Import mappings failed", "owner_id", owner, "error", err)
		writeServiceError(w, err)
		return
	}
	s.analyticsCache.Delete(owner)
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleExportMappings(w http.ResponseWriter, r *http.Request) {
	owner := ownerFromRequest(r)
	if owner == "" {
		writeError(w, http.StatusBadRequest, "owner id is required")
		return
	}

	export, err := s.service.ExportMappings(r.Context(), owner)
	if err != nil {
		slog.ErrorContext(r.Context(), "Export mappings failed", "owner_id", owner, "error", err)
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, export)
}

func (s *Server) handleExportMappingsToSheet(w http.ResponseWriter, r *http.Request) {
	owner := ownerFromRequest(r)
	if owner == "" {
		writeError(w, http.StatusBadRequest, "owner id is required")
		return
	}

	if err := s.service.ExportMappingsToSheet(r.Context(), owner); err != nil {
		slog.ErrorContext(r.Context(), "Sheet export failed", "owner_id", owner, "error", err)
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleGetBudget(w http.ResponseWriter, r *http.Request) {
	owner := ownerFromRequest(r)
	if owner == "" {
		writeError(w, http.StatusBadRequest, "owner id is required")
		return
	}

	cfg, err := s.service.GetBudgetConfig(r.Context(), owner)
	if err != nil {
		slog.ErrorContext(r.Context(), "Get budget config failed", "owner_id", owner, "error", err)
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (s *Server) handleSaveBudget(w http.ResponseWriter, r *http.Request) {
	owner := ownerFromRequest(r)
	if owner == "" {
		writeError(w, http.StatusBadRequest, "owner id is required")
		return
	}

	var cfg core.BudgetConfig
	if err := readJSON(w, r, &cfg); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	cfg.OwnerID = owner

	if err := s.service.SaveBudgetConfig(r.Context(), cfg); err != nil {
		slog.ErrorContext(r.Context(), "Save budget config failed", "owner_id", owner, "error", err)
		writeServiceError(w, err)
		return
	}
	s.analyticsCache.Delete(owner)
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleGetAnalytics(w http.ResponseWriter, r *http.Request) {
	owner := ownerFromRequest(r)
	if owner == "" {
		writeError(w, http.StatusBadRequest, "owner id is required")
		return
	}

	if snap, found := s.analyticsCache.Get(owner); found {
		writeJSON(w, http.StatusOK, snap)
		return
	}

	snap, err := s.service.GetAnalytics(r.Context(), owner)
	if err != nil {
		slog.ErrorContext(r.Context(), "Get analytics failed", "owner_id", owner, "error", err)
		writeServiceError(w, err)
		return
	}
	s.analyticsCache.Set(owner, snap)
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleRecompute(w http.ResponseWriter, r *http.Request) {
	owner := ownerFromRequest(r)
	if owner == "" {
		writeError(w, http.StatusBadRequest, "owner id is required")
		return
	}

	snap, err := s.service.RecomputeAnalytics(r.Context(), owner)
	if err != nil {
		slog.ErrorContext(r.Context(), "Recompute failed", "owner_id", owner, "error", err)
		writeServiceError(w, err)
		return
	}
	s.analyticsCache.Delete(owner)
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleGoalProgress(w http.ResponseWriter, r *http.Request) {
	owner := ownerFromRequest(r)
	if owner == "" {
		writeError(w, http.StatusBadRequest, "owner id is required")
		return
	}

	progress, err := s.service.GoalProgress(r.Context(), owner)
	if err != nil {
		slog.ErrorContext(r.Context(), "Goal progress failed", "owner_id", owner, "error", err)
		writeServiceError(w, err)
		return
	}
	if progress == nil {
		progress = []core.GoalProgress{}
	}
	writeJSON(w, http.StatusOK, progress)
}
