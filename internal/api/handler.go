package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/mtlprog/coinconv/internal/converter"
	"github.com/mtlprog/coinconv/internal/domain"
	"github.com/mtlprog/coinconv/internal/notify"
)

// MarketService is the asset list the API serves from.
type MarketService interface {
	FetchTopAssets(ctx context.Context, limit int) ([]domain.Asset, error)
	Refresh(ctx context.Context) ([]domain.Asset, error)
	DefaultLimit() int
}

// Handler provides HTTP endpoints for the converter API.
type Handler struct {
	market   MarketService
	notifier notify.Notifier
}

// NewHandler creates a new API handler.
func NewHandler(market MarketService, notifier notify.Notifier) *Handler {
	if notifier == nil {
		notifier = notify.LogNotifier{}
	}
	return &Handler{market: market, notifier: notifier}
}

// ConversionRequest selects what to convert. From is an asset id in asset mode
// and ignored in fiat mode, where Fiat names the currency (USD when empty).
type ConversionRequest struct {
	Mode   string `json:"mode"`
	Amount string `json:"amount"`
	From   string `json:"from"`
	To     string `json:"to"`
	Fiat   string `json:"fiat"`
}

// ConversionResponse carries the converted amount and the rate panel.
type ConversionResponse struct {
	Mode    domain.Mode    `json:"mode"`
	Amount  string         `json:"amount"`
	Result  string         `json:"result"`
	From    string         `json:"from"`
	To      string         `json:"to"`
	Rate    converter.Rate `json:"rate"`
	Summary string         `json:"summary"`
}

// requestError is a client mistake reported as 400.
type requestError struct{ msg string }

func (e *requestError) Error() string { return e.msg }

// ListAssets handles GET /api/v1/assets.
func (h *Handler) ListAssets(w http.ResponseWriter, r *http.Request) {
	limit := h.market.DefaultLimit()
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 {
			limit = min(n, h.market.DefaultLimit())
		}
	}

	assets, err := h.market.FetchTopAssets(r.Context(), limit)
	if err != nil {
		slog.Error("failed to fetch assets", "error", err)
		writeError(w, http.StatusBadGateway, "price source unavailable")
		return
	}
	writeJSON(w, http.StatusOK, domain.FilterAssets(assets, r.URL.Query().Get("q")))
}

// ListCurrencies handles GET /api/v1/currencies.
func (h *Handler) ListCurrencies(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, domain.FiatCurrencies())
}

// ConvertQuery handles GET /api/v1/convert.
func (h *Handler) ConvertQuery(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := ConversionRequest{
		Mode:   q.Get("mode"),
		Amount: q.Get("amount"),
		From:   q.Get("from"),
		To:     q.Get("to"),
		Fiat:   q.Get("fiat"),
	}
	resp, err := h.convert(r.Context(), req)
	if err != nil {
		h.writeConvertError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Convert handles POST /api/v1/convert and announces the result.
func (h *Handler) Convert(w http.ResponseWriter, r *http.Request) {
	var req ConversionRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	resp, err := h.convert(r.Context(), req)
	if err != nil {
		h.writeConvertError(w, err)
		return
	}
	h.notifier.Notify(r.Context(), converter.ConversionCompleteTitle, resp.Summary)
	writeJSON(w, http.StatusOK, resp)
}

// RefreshAssets handles POST /api/v1/assets/refresh.
func (h *Handler) RefreshAssets(w http.ResponseWriter, r *http.Request) {
	assets, err := h.market.Refresh(r.Context())
	if err != nil {
		slog.Error("failed to refresh assets", "error", err)
		writeError(w, http.StatusBadGateway, "failed to refresh assets")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"count": len(assets)})
}

func (h *Handler) convert(ctx context.Context, req ConversionRequest) (ConversionResponse, error) {
	mode, ok := domain.ParseMode(req.Mode)
	if !ok {
		return ConversionResponse{}, &requestError{"unknown mode " + strconv.Quote(req.Mode)}
	}
	if _, ok := domain.ParseAmount(req.Amount); !ok {
		return ConversionResponse{}, &requestError{"amount must be a number"}
	}

	assets, err := h.market.FetchTopAssets(ctx, h.market.DefaultLimit())
	if err != nil {
		return ConversionResponse{}, err
	}

	state := converter.InitialState()
	state.Mode = mode
	state.SourceAmount = req.Amount

	target, ok := domain.FindAsset(assets, req.To)
	if !ok {
		return ConversionResponse{}, &requestError{"unknown target asset " + strconv.Quote(req.To)}
	}
	state.Target = &target

	from := req.From
	if mode == domain.ModeFiatToAsset {
		code := req.Fiat
		if code == "" {
			code = domain.DefaultFiat
		}
		fiat, ok := domain.LookupFiat(code)
		if !ok {
			return ConversionResponse{}, &requestError{"unknown fiat currency " + strconv.Quote(code)}
		}
		state.Fiat = fiat.Code
		from = fiat.Code
	} else {
		source, ok := domain.FindAsset(assets, req.From)
		if !ok {
			return ConversionResponse{}, &requestError{"unknown source asset " + strconv.Quote(req.From)}
		}
		state.Source = &source
	}

	rates := domain.FiatRates()
	result, _ := converter.Compute(state, rates)
	state.TargetAmount = result
	rate, _ := converter.ExchangeRate(state, rates)
	summary, _ := converter.Summary(state)

	return ConversionResponse{
		Mode:    mode,
		Amount:  req.Amount,
		Result:  result,
		From:    from,
		To:      target.ID,
		Rate:    rate,
		Summary: summary,
	}, nil
}

func (h *Handler) writeConvertError(w http.ResponseWriter, err error) {
	var reqErr *requestError
	if errors.As(err, &reqErr) {
		writeError(w, http.StatusBadRequest, reqErr.msg)
		return
	}
	slog.Error("conversion failed", "error", err)
	writeError(w, http.StatusBadGateway, "price source unavailable")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Error("failed to marshal JSON response", "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		slog.Warn("failed to write HTTP response body", "error", err)
		return
	}
	_, _ = w.Write([]byte("\n"))
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
