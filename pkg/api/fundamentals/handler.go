package fundamentals

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"value_investor/pkg/core/calc"
	"value_investor/pkg/core/config"
	"value_investor/pkg/core/ingest"
	"value_investor/pkg/core/report"
	"value_investor/pkg/models"
)

// Refresher is a Fetcher that can bypass its cache.
type Refresher interface {
	Refresh(ctx context.Context, ticker string) (*models.RawFinancials, error)
}

// Handler serves normalized fundamentals.
type Handler struct {
	fetcher ingest.Fetcher
	mapping config.Mapping
	logger  *zap.Logger
}

// NewHandler creates the handler. mapping is used read-only.
func NewHandler(fetcher ingest.Fetcher, mapping config.Mapping, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{fetcher: fetcher, mapping: mapping, logger: logger}
}

// MetricsResponse is the body of GET /api/fundamentals/{ticker}.
type MetricsResponse struct {
	Ticker    string            `json:"ticker"`
	Cadence   models.Cadence    `json:"cadence"`
	FetchedAt time.Time         `json:"fetched_at"`
	Periods   []report.Row      `json:"periods"`
	Cards     []report.CardView `json:"cards"`
	Price     *report.PriceView `json:"price,omitempty"`
	Chart     report.Chart      `json:"chart"`
}

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// Routes returns the API router wrapped in CORS.
func (h *Handler) Routes() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/api/health", h.HandleHealth).Methods(http.MethodGet)
	r.HandleFunc("/api/fundamentals/{ticker}", h.HandleMetrics).Methods(http.MethodGet)
	r.HandleFunc("/api/fundamentals/{ticker}/report", h.HandleReport).Methods(http.MethodGet)
	r.HandleFunc("/api/config/labels", h.HandleLabels).Methods(http.MethodGet)

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	})
	return c.Handler(r)
}

// HandleHealth reports liveness.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HandleLabels returns the active label map and header cards.
func (h *Handler) HandleLabels(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.mapping)
}

// HandleMetrics serves the metric table with display strings, cards and the
// chart series of the selected ?metrics= groups.
func (h *Handler) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	reqID := uuid.NewString()
	w.Header().Set("X-Request-ID", reqID)

	groups, err := report.ParseGroups(r.URL.Query().Get("metrics"))
	if err != nil {
		h.fail(w, reqID, http.StatusBadRequest, err.Error(), err)
		return
	}
	rep, table, raw, ok := h.load(w, r, reqID)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, MetricsResponse{
		Ticker:    rep.Ticker,
		Cadence:   rep.Cadence,
		FetchedAt: raw.FetchedAt,
		Periods:   rep.Rows,
		Cards:     rep.Cards,
		Price:     rep.Price,
		Chart:     report.ChartSeries(table, groups),
	})
}

// HandleReport serves the report as an HTML page.
func (h *Handler) HandleReport(w http.ResponseWriter, r *http.Request) {
	reqID := uuid.NewString()
	w.Header().Set("X-Request-ID", reqID)

	rep, _, _, ok := h.load(w, r, reqID)
	if !ok {
		return
	}
	page, err := report.Page(rep)
	if err != nil {
		h.fail(w, reqID, http.StatusInternalServerError, "report rendering failed", err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(page))
}

// load fetches and normalizes the requested ticker. On failure it has already
// written the response.
func (h *Handler) load(w http.ResponseWriter, r *http.Request, reqID string) (*report.Report, *calc.MetricTable, *models.RawFinancials, bool) {
	ticker, err := models.NormalizeTicker(mux.Vars(r)["ticker"])
	if err != nil {
		h.fail(w, reqID, http.StatusBadRequest, err.Error(), err)
		return nil, nil, nil, false
	}

	cadence := models.Annual
	if c := r.URL.Query().Get("cadence"); c != "" {
		if cadence, err = models.ParseCadence(c); err != nil {
			h.fail(w, reqID, http.StatusBadRequest, err.Error(), err)
			return nil, nil, nil, false
		}
	}

	refresh, _ := strconv.ParseBool(r.URL.Query().Get("refresh"))
	raw, err := h.fetch(r.Context(), ticker, refresh)
	if err != nil {
		h.fail(w, reqID, statusFor(err), messageFor(err), err)
		return nil, nil, nil, false
	}

	table, err := calc.Normalize(raw, cadence, h.mapping.Concepts)
	if err != nil {
		h.fail(w, reqID, statusFor(err), messageFor(err), err)
		return nil, nil, nil, false
	}
	rep := report.Build(table, calc.InfoCards(raw.Info, h.mapping.Cards))
	rep.Price = report.Quote(raw.Info)

	h.logger.Info("normalized fundamentals",
		zap.String("request_id", reqID),
		zap.String("ticker", ticker),
		zap.String("cadence", string(cadence)),
		zap.Int("periods", len(table.Periods)),
		zap.Any("unavailable", report.Unavailable(rep)))
	return rep, table, raw, true
}

func (h *Handler) fetch(ctx context.Context, ticker string, refresh bool) (*models.RawFinancials, error) {
	if refresh {
		if rf, ok := h.fetcher.(Refresher); ok {
			return rf.Refresh(ctx, ticker)
		}
	}
	return h.fetcher.Fetch(ctx, ticker)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrInvalidTicker), errors.Is(err, calc.ErrUnknownCadence):
		return http.StatusBadRequest
	case errors.Is(err, ingest.ErrNotFound), errors.Is(err, calc.ErrDataUnavailable):
		return http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusBadGateway
}

func messageFor(err error) string {
	switch statusFor(err) {
	case http.StatusNotFound:
		return "invalid ticker or no data"
	case http.StatusBadRequest:
		return err.Error()
	case http.StatusGatewayTimeout:
		return "data provider timed out"
	}
	return "data provider error"
}

func (h *Handler) fail(w http.ResponseWriter, reqID string, status int, msg string, err error) {
	h.logger.Warn("request failed",
		zap.String("request_id", reqID),
		zap.Int("status", status),
		zap.Error(err))
	writeJSON(w, status, errorResponse{Error: msg, RequestID: reqID})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
