package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/wonny/deepfund/internal/contracts"
	"github.com/wonny/deepfund/internal/history"
	"github.com/wonny/deepfund/pkg/logger"
)

// Summarizer produces historical summaries
type Summarizer interface {
	Summary(ctx context.Context, q history.Query) (*history.Summary, error)
}

// AnalysisHandler serves historical analysis summaries
// ⭐ SSOT: historical analysis API handler lives only here
type AnalysisHandler struct {
	service Summarizer
	logger  *logger.Logger
}

// NewAnalysisHandler creates a new analysis handler
func NewAnalysisHandler(service Summarizer, log *logger.Logger) *AnalysisHandler {
	return &AnalysisHandler{service: service, logger: log}
}

// HistoricalAnalysisRequest is the body of POST /api/historical_analysis
type HistoricalAnalysisRequest struct {
	ExpName   string `json:"exp_name"`
	Ticker    string `json:"ticker"`
	StartDate string `json:"start_date"` // YYYY-MM-DD
	EndDate   string `json:"end_date"`   // YYYY-MM-DD
}

// Query validates the request and converts it to a history query
func (req HistoricalAnalysisRequest) Query() (history.Query, error) {
	if strings.TrimSpace(req.ExpName) == "" || strings.TrimSpace(req.Ticker) == "" ||
		req.StartDate == "" || req.EndDate == "" {
		return history.Query{}, errors.New("exp_name, ticker, start_date and end_date are required")
	}

	start, err := time.Parse(contracts.DateLayout, req.StartDate)
	if err != nil {
		return history.Query{}, errors.New("invalid start_date, expected YYYY-MM-DD")
	}
	end, err := time.Parse(contracts.DateLayout, req.EndDate)
	if err != nil {
		return history.Query{}, errors.New("invalid end_date, expected YYYY-MM-DD")
	}
	if start.After(end) {
		return history.Query{}, errors.New("start_date must not be after end_date")
	}

	return history.Query{
		ExpName: strings.TrimSpace(req.ExpName),
		Ticker:  strings.TrimSpace(req.Ticker),
		Start:   start,
		End:     end,
	}, nil
}

// HistoricalAnalysis returns the daily breakdown for a ticker
// POST /api/historical_analysis
func (h *AnalysisHandler) HistoricalAnalysis(w http.ResponseWriter, r *http.Request) {
	var req HistoricalAnalysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	q, err := req.Query()
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	summary, err := h.service.Summary(r.Context(), q)
	if errors.Is(err, history.ErrExperimentNotFound) {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		h.logger.WithError(err).WithFields(map[string]interface{}{
			"exp_name": q.ExpName,
			"ticker":   q.Ticker,
		}).Error("Failed to build historical summary")
		respondError(w, http.StatusInternalServerError, "Failed to build historical summary")
		return
	}

	respondJSON(w, http.StatusOK, summary)
}
