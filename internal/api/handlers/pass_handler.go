package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/moolen/vigil/internal/api"
	"github.com/moolen/vigil/internal/loader"
	"github.com/moolen/vigil/internal/logging"
	"github.com/moolen/vigil/internal/models"
	"github.com/moolen/vigil/internal/pipeline"
)

// TransactionRow is one inline transaction in a pass request body.
type TransactionRow struct {
	Timestamp string   `json:"timestamp"`
	Status    string   `json:"status"`
	Amount    float64  `json:"amount"`
	Country   string   `json:"country,omitempty"`
	LatencyMs *float64 `json:"latency_ms,omitempty"`
}

// PassRequest triggers a detection pass over a CSV file on disk or over
// inline transaction rows. Exactly one of the two must be set.
type PassRequest struct {
	CSVPath      string           `json:"csv_path,omitempty"`
	Transactions []TransactionRow `json:"transactions,omitempty"`
}

// PassResponse summarizes a completed detection pass.
type PassResponse struct {
	Incidents       []models.Incident `json:"incidents"`
	IncidentCount   int               `json:"incident_count"`
	SeriesCount     int               `json:"series_count"`
	ExecutionTimeMs int64             `json:"execution_time_ms"`
}

// PassHandler handles POST /v1/pass requests
type PassHandler struct {
	pipeline *pipeline.Pipeline
	loader   *loader.CachingLoader
	logger   *logging.Logger
	tracer   trace.Tracer
}

// NewPassHandler creates a new handler
func NewPassHandler(p *pipeline.Pipeline, l *loader.CachingLoader, logger *logging.Logger, tracer trace.Tracer) *PassHandler {
	return &PassHandler{
		pipeline: p,
		loader:   l,
		logger:   logger,
		tracer:   tracer,
	}
}

// Handle processes detection pass requests
func (h *PassHandler) Handle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()

	var span trace.Span
	if h.tracer != nil {
		ctx, span = h.tracer.Start(ctx, "pass.Handle")
		defer span.End()
	}

	var req PassRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, string(api.ErrorCodeInvalidRequest), "invalid request body: "+err.Error())
		return
	}

	set, apiErr := h.loadSeries(&req)
	if apiErr != nil {
		if span != nil {
			span.RecordError(apiErr)
		}
		api.WriteAPIError(w, apiErr)
		return
	}

	if span != nil {
		span.SetAttributes(attribute.Int("vigil.series", len(set.Series)))
	}

	incidents, err := h.pipeline.Run(ctx, set, nil)
	if err != nil {
		if span != nil {
			span.RecordError(err)
		}
		if models.IsInputError(err) {
			api.WriteError(w, http.StatusBadRequest, string(api.ErrorCodeInvalidRequest), err.Error())
			return
		}
		h.logger.Error("Detection pass failed: %v", err)
		api.WriteError(w, http.StatusInternalServerError, string(api.ErrorCodeInternalError), err.Error())
		return
	}

	h.logger.Debug("Detection pass finished: %d incidents from %d series in %dms",
		len(incidents), len(set.Series), time.Since(startTime).Milliseconds())

	_ = api.WriteSuccess(w, PassResponse{
		Incidents:       incidents,
		IncidentCount:   len(incidents),
		SeriesCount:     len(set.Series),
		ExecutionTimeMs: time.Since(startTime).Milliseconds(),
	})
}

// loadSeries resolves the request into a series set, from a CSV path or from
// inline rows.
func (h *PassHandler) loadSeries(req *PassRequest) (*models.SeriesSet, *api.APIError) {
	switch {
	case req.CSVPath != "" && len(req.Transactions) > 0:
		return nil, api.NewValidationError("csv_path and transactions are mutually exclusive")
	case req.CSVPath != "":
		set, err := h.loader.Load(req.CSVPath)
		if err != nil {
			if models.IsInputError(err) {
				return nil, api.NewValidationError("failed to load %s: %v", req.CSVPath, err)
			}
			return nil, api.NewInternalServerError("failed to load %s: %v", req.CSVPath, err)
		}
		return set, nil
	case len(req.Transactions) > 0:
		txs := make([]loader.Transaction, 0, len(req.Transactions))
		for i, row := range req.Transactions {
			ts, err := api.ParseTimestamp(row.Timestamp, "timestamp")
			if err != nil {
				return nil, api.NewValidationError("transactions[%d]: %v", i, err)
			}
			if row.Status == "" {
				return nil, api.NewValidationError("transactions[%d]: status is required", i)
			}
			tx := loader.Transaction{
				Timestamp: ts,
				Status:    row.Status,
				Amount:    row.Amount,
				Country:   row.Country,
			}
			if row.LatencyMs != nil {
				tx.LatencyMs = *row.LatencyMs
				tx.HasLatency = true
			}
			txs = append(txs, tx)
		}
		set, err := loader.FromTransactions(txs, loader.DefaultConfig())
		if err != nil {
			return nil, api.NewValidationError("invalid transactions: %v", err)
		}
		return set, nil
	default:
		return nil, api.NewValidationError("either csv_path or transactions must be provided")
	}
}
