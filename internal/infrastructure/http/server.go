package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"pricenavi-service/internal/application"
	"pricenavi-service/internal/domain"
)

type Server struct {
	svc   *application.PriceService
	store application.Store
	btc   application.BitcoinFeed
	ping  func(context.Context) error
}

func NewServer(svc *application.PriceService, store application.Store, btc application.BitcoinFeed) *Server {
	return &Server{svc: svc, store: store, btc: btc}
}

func (s *Server) SetReadyCheck(ping func(context.Context) error) { s.ping = ping }

// GetBatchPrices handles GET /prices: one concurrent fetch across every
// registered asset. Failed symbols are counted but omitted from the payload;
// the endpoint itself only fails when the asset list cannot be loaded.
func (s *Server) GetBatchPrices(w http.ResponseWriter, r *http.Request) {
	assets, err := s.store.GetAssets(r.Context())
	if err != nil {
		writeErrorDetails(w, http.StatusInternalServerError, "failed to list assets", err)
		return
	}

	results := s.svc.GetBatchPrices(r.Context(), assets)
	prices := make([]batchEntry, 0, len(results))
	for i, res := range results {
		if res == nil {
			continue
		}
		prices = append(prices, batchEntry{
			Symbol:    res.Symbol,
			Name:      assets[i].Name,
			Type:      assets[i].Type,
			PriceUSD:  res.Price.PriceUSD,
			PriceJPY:  res.Price.PriceJPY,
			Change24h: res.Price.Change24h,
		})
	}

	writeJSON(w, http.StatusOK, batchResponse{
		Success:   true,
		Total:     len(assets),
		Fetched:   len(prices),
		Failed:    len(assets) - len(prices),
		Prices:    prices,
		Timestamp: time.Now().UTC(),
	})
}

type batchEntry struct {
	Symbol    string           `json:"symbol"`
	Name      string           `json:"name"`
	Type      domain.AssetType `json:"type"`
	PriceUSD  decimal.Decimal  `json:"price_usd"`
	PriceJPY  decimal.Decimal  `json:"price_jpy"`
	Change24h decimal.Decimal  `json:"change_24h"`
}

type batchResponse struct {
	Success   bool         `json:"success"`
	Total     int          `json:"total"`
	Fetched   int          `json:"fetched"`
	Failed    int          `json:"failed"`
	Prices    []batchEntry `json:"prices"`
	Timestamp time.Time    `json:"timestamp"`
}

// GetBitcoin handles GET /prices/bitcoin: the spot snapshot and the 7-day
// JPY chart, fetched concurrently.
func (s *Server) GetBitcoin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var (
		snap     domain.BitcoinSnapshot
		chart    []domain.ChartPoint
		snapErr  error
		chartErr error
	)
	done := make(chan struct{})
	go func() {
		defer close(done)
		chart, chartErr = s.btc.Chart(ctx, 7)
	}()
	snap, snapErr = s.btc.Snapshot(ctx)
	<-done

	if snapErr != nil {
		s.writeFetchError(w, snapErr)
		return
	}
	if chartErr != nil {
		s.writeFetchError(w, chartErr)
		return
	}

	points := make([]chartPoint, 0, len(chart))
	for _, p := range chart {
		points = append(points, chartPoint{Timestamp: p.Timestamp, Price: p.Price})
	}
	writeJSON(w, http.StatusOK, bitcoinResponse{CurrentPrice: snap, ChartData: points})
}

type chartPoint struct {
	Timestamp time.Time       `json:"timestamp"`
	Price     decimal.Decimal `json:"price"`
}

type bitcoinResponse struct {
	CurrentPrice domain.BitcoinSnapshot `json:"currentPrice"`
	ChartData    []chartPoint           `json:"chartData"`
}

// GetPrice handles GET /prices/{symbol} for any registered asset. A fetch
// here also records a history observation.
func (s *Server) GetPrice(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")
	asset, err := s.findAssetBySymbol(r.Context(), symbol)
	if err != nil {
		s.writeFetchError(w, err)
		return
	}

	price, err := s.svc.FetchAndRecord(r.Context(), asset)
	if err != nil {
		s.writeFetchError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, priceResponse{
		Symbol:    asset.Symbol,
		Name:      asset.Name,
		Type:      asset.Type,
		PriceUSD:  price.PriceUSD,
		PriceJPY:  price.PriceJPY,
		Change24h: price.Change24h,
		Timestamp: time.Now().UTC(),
	})
}

type priceResponse struct {
	Symbol    string           `json:"symbol"`
	Name      string           `json:"name"`
	Type      domain.AssetType `json:"type"`
	PriceUSD  decimal.Decimal  `json:"price_usd"`
	PriceJPY  decimal.Decimal  `json:"price_jpy"`
	Change24h decimal.Decimal  `json:"change_24h"`
	Timestamp time.Time        `json:"timestamp"`
}

// GetPriceSeries handles GET /prices/{symbol}/history?days=: the provider's
// historical series in the canonical dual-currency shape.
func (s *Server) GetPriceSeries(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")
	asset, err := s.findAssetBySymbol(r.Context(), symbol)
	if err != nil {
		s.writeFetchError(w, err)
		return
	}

	days := intQuery(r, "days", 7)
	points, err := s.svc.GetAssetHistory(r.Context(), asset.Symbol, asset.Type, days)
	if err != nil {
		s.writeFetchError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, seriesResponse{Symbol: asset.Symbol, Days: days, Points: points})
}

type seriesResponse struct {
	Symbol string               `json:"symbol"`
	Days   int                  `json:"days"`
	Points []domain.HistoryPoint `json:"points"`
}

func (s *Server) ListAssets(w http.ResponseWriter, r *http.Request) {
	assets, err := s.store.GetAssets(r.Context())
	if err != nil {
		writeErrorDetails(w, http.StatusInternalServerError, "failed to list assets", err)
		return
	}
	if assets == nil {
		assets = []domain.Asset{}
	}
	writeJSON(w, http.StatusOK, assets)
}

func (s *Server) CreateAsset(w http.ResponseWriter, r *http.Request) {
	var body domain.NewAsset
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if body.Symbol == "" || body.Name == "" {
		writeError(w, http.StatusBadRequest, "symbol and name are required")
		return
	}
	if !domain.ValidAssetType(string(body.Type)) {
		writeError(w, http.StatusBadRequest, "type must be crypto or stock")
		return
	}

	asset, err := s.store.CreateAsset(r.Context(), body)
	if errors.Is(err, application.ErrConflict) {
		writeError(w, http.StatusConflict, "asset with this symbol already exists")
		return
	}
	if err != nil {
		writeErrorDetails(w, http.StatusInternalServerError, "failed to create asset", err)
		return
	}
	writeJSON(w, http.StatusCreated, asset)
}

func (s *Server) GetAsset(w http.ResponseWriter, r *http.Request) {
	asset, err := s.store.GetAssetByID(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, application.ErrNotFound) {
		writeError(w, http.StatusNotFound, "asset not found")
		return
	}
	if err != nil {
		writeErrorDetails(w, http.StatusInternalServerError, "failed to get asset", err)
		return
	}
	writeJSON(w, http.StatusOK, asset)
}

// DeleteAsset removes the asset and, through the store's cascade, its alerts
// and price history.
func (s *Server) DeleteAsset(w http.ResponseWriter, r *http.Request) {
	err := s.store.DeleteAsset(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, application.ErrNotFound) {
		writeError(w, http.StatusNotFound, "asset not found")
		return
	}
	if err != nil {
		writeErrorDetails(w, http.StatusInternalServerError, "failed to delete asset", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) GetAssetHistory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := s.store.GetAssetByID(r.Context(), id); errors.Is(err, application.ErrNotFound) {
		writeError(w, http.StatusNotFound, "asset not found")
		return
	}

	limit := intQuery(r, "limit", 0)
	history, err := s.store.GetPriceHistory(r.Context(), id, limit)
	if err != nil {
		writeErrorDetails(w, http.StatusInternalServerError, "failed to get history", err)
		return
	}
	if history == nil {
		history = []domain.PriceHistory{}
	}
	writeJSON(w, http.StatusOK, history)
}

func (s *Server) GetAssetAlerts(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := s.store.GetAssetByID(r.Context(), id); errors.Is(err, application.ErrNotFound) {
		writeError(w, http.StatusNotFound, "asset not found")
		return
	}

	alerts, err := s.store.GetAlertsByAssetID(r.Context(), id)
	if err != nil {
		writeErrorDetails(w, http.StatusInternalServerError, "failed to list alerts", err)
		return
	}
	if alerts == nil {
		alerts = []domain.Alert{}
	}
	writeJSON(w, http.StatusOK, alerts)
}

func (s *Server) ListAlerts(w http.ResponseWriter, r *http.Request) {
	var (
		alerts []domain.Alert
		err    error
	)
	if assetID := r.URL.Query().Get("asset_id"); assetID != "" {
		alerts, err = s.store.GetAlertsByAssetID(r.Context(), assetID)
	} else {
		alerts, err = s.store.GetAlerts(r.Context())
	}
	if err != nil {
		writeErrorDetails(w, http.StatusInternalServerError, "failed to list alerts", err)
		return
	}
	if alerts == nil {
		alerts = []domain.Alert{}
	}
	writeJSON(w, http.StatusOK, alerts)
}

func (s *Server) CreateAlert(w http.ResponseWriter, r *http.Request) {
	var body domain.NewAlert
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if body.AssetID == "" {
		writeError(w, http.StatusBadRequest, "asset_id is required")
		return
	}
	if !domain.ValidAlertType(string(body.Type)) {
		writeError(w, http.StatusBadRequest, "type must be high or low")
		return
	}
	if !domain.ValidCurrency(string(body.Currency)) {
		writeError(w, http.StatusBadRequest, "currency must be JPY or USD")
		return
	}
	if !body.Threshold.IsPositive() {
		writeError(w, http.StatusBadRequest, "threshold must be positive")
		return
	}

	alert, err := s.store.CreateAlert(r.Context(), body)
	if errors.Is(err, application.ErrNotFound) {
		writeError(w, http.StatusNotFound, "asset not found")
		return
	}
	if err != nil {
		writeErrorDetails(w, http.StatusInternalServerError, "failed to create alert", err)
		return
	}
	writeJSON(w, http.StatusCreated, alert)
}

func (s *Server) UpdateAlert(w http.ResponseWriter, r *http.Request) {
	var patch domain.AlertPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if patch.Type != nil && !domain.ValidAlertType(string(*patch.Type)) {
		writeError(w, http.StatusBadRequest, "type must be high or low")
		return
	}
	if patch.Currency != nil && !domain.ValidCurrency(string(*patch.Currency)) {
		writeError(w, http.StatusBadRequest, "currency must be JPY or USD")
		return
	}

	alert, err := s.store.UpdateAlert(r.Context(), chi.URLParam(r, "id"), patch)
	if errors.Is(err, application.ErrNotFound) {
		writeError(w, http.StatusNotFound, "alert not found")
		return
	}
	if err != nil {
		writeErrorDetails(w, http.StatusInternalServerError, "failed to update alert", err)
		return
	}
	writeJSON(w, http.StatusOK, alert)
}

func (s *Server) DeleteAlert(w http.ResponseWriter, r *http.Request) {
	err := s.store.DeleteAlert(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, application.ErrNotFound) {
		writeError(w, http.StatusNotFound, "alert not found")
		return
	}
	if err != nil {
		writeErrorDetails(w, http.StatusInternalServerError, "failed to delete alert", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) findAssetBySymbol(ctx context.Context, symbol string) (domain.Asset, error) {
	assets, err := s.store.GetAssets(ctx)
	if err != nil {
		return domain.Asset{}, err
	}
	for _, a := range assets {
		if a.MatchesSymbol(symbol) {
			return a, nil
		}
	}
	return domain.Asset{}, application.ErrNotFound
}

// writeFetchError maps the domain error taxonomy onto status codes. Rate
// limit denials answer 429 with a Retry-After header; unknown assets answer
// 404; everything else is a 500 with the cause attached.
func (s *Server) writeFetchError(w http.ResponseWriter, err error) {
	var rle *domain.RateLimitError
	if errors.As(err, &rle) {
		w.Header().Set("Retry-After", strconv.Itoa(rle.RetryAfterSeconds()))
		writeErrorDetails(w, http.StatusTooManyRequests, "rate limit exceeded", err)
		return
	}
	if errors.Is(err, application.ErrNotFound) {
		writeError(w, http.StatusNotFound, "asset not found")
		return
	}
	writeErrorDetails(w, http.StatusInternalServerError, "failed to fetch price data", err)
}

func intQuery(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

func writeErrorDetails(w http.ResponseWriter, status int, msg string, err error) {
	writeJSON(w, status, errorBody{Error: msg, Details: err.Error()})
}
