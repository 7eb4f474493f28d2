package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"runtime"
	"strconv"
	"strings"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/elys-network/curveamm/internal/logger"
	"github.com/elys-network/curveamm/internal/state"
	"github.com/elys-network/curveamm/internal/types"
)

var webLogger = logger.GetForComponent("web_server")

// CallerHeader carries the identity of the caller of a state-changing request.
const CallerHeader = "X-Actor-ID"

// Program is the AMM program served over HTTP.
type Program interface {
	Handle(ctx context.Context, source types.ActorID, req types.Request) (types.Reply, error)
	Busy() bool
	Pool(id types.PoolID) (types.PoolInfo, error)
	Pools() []types.PoolInfo
	AdminFees(id types.PoolID) ([]sdkmath.LegacyDec, error)
	Stats(ctx context.Context, id types.PoolID) (types.PoolStats, error)
	QuoteExchange(ctx context.Context, id types.PoolID, i, j int, dx sdkmath.LegacyDec) (types.ExchangeQuote, error)
	QuoteAddLiquidity(ctx context.Context, id types.PoolID, amounts []sdkmath.LegacyDec) (types.AddLiquidityQuote, error)
	QuoteRemoveLiquidity(ctx context.Context, id types.PoolID, amount sdkmath.LegacyDec) (types.RemoveLiquidityQuote, error)
}

// ReceiptStore serves persisted operation receipts.
type ReceiptStore interface {
	Ping(ctx context.Context) error
	RecentReceipts(ctx context.Context, limit int) ([]types.OperationReceipt, error)
	SummarizeReceipts(ctx context.Context) ([]state.ReceiptSummary, error)
}

// WebServer exposes the program's operations, quotes and statistics
type WebServer struct {
	router   *mux.Router
	port     string
	program  Program
	receipts ReceiptStore
	server   *http.Server
}

// NewWebServer creates a new web server instance. receipts may be nil.
func NewWebServer(port string, program Program, receipts ReceiptStore) *WebServer {
	if port == "" {
		port = "8080"
	}

	server := &WebServer{
		router:   mux.NewRouter(),
		port:     port,
		program:  program,
		receipts: receipts,
	}

	server.setupRoutes()
	return server
}

// setupRoutes configures all HTTP routes
func (ws *WebServer) setupRoutes() {
	ws.router.HandleFunc("/health", ws.handleHealth).Methods("GET")
	ws.router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	api := ws.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", ws.handleHealth).Methods("GET")
	api.HandleFunc("/pools", ws.handleGetPools).Methods("GET")
	api.HandleFunc("/pools/{id}", ws.handleGetPool).Methods("GET")
	api.HandleFunc("/pools/{id}/stats", ws.handleGetStats).Methods("GET")
	api.HandleFunc("/pools/{id}/admin-fees", ws.handleGetAdminFees).Methods("GET")
	api.HandleFunc("/pools/{id}/quote/exchange", ws.handleQuoteExchange).Methods("GET")
	api.HandleFunc("/pools/{id}/quote/add-liquidity", ws.handleQuoteAddLiquidity).Methods("GET")
	api.HandleFunc("/pools/{id}/quote/remove-liquidity", ws.handleQuoteRemoveLiquidity).Methods("GET")
	api.HandleFunc("/pools/{id}/add-liquidity", ws.handleAddLiquidity).Methods("POST")
	api.HandleFunc("/pools/{id}/remove-liquidity", ws.handleRemoveLiquidity).Methods("POST")
	api.HandleFunc("/pools/{id}/exchange", ws.handleExchange).Methods("POST")
	api.HandleFunc("/receipts", ws.handleGetReceipts).Methods("GET")
	api.HandleFunc("/receipts/summary", ws.handleGetReceiptSummary).Methods("GET")

	ws.router.Use(ws.corsMiddleware)
	ws.router.Use(ws.loggingMiddleware)
}

// Handler returns the routed handler.
func (ws *WebServer) Handler() http.Handler {
	return ws.router
}

// Start starts the web server and blocks until it stops.
func (ws *WebServer) Start() error {
	webLogger.Info().Str("port", ws.port).Msg("Starting web server")

	ws.server = &http.Server{
		Addr:         ":" + ws.port,
		Handler:      ws.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	err := ws.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown gracefully stops a started server.
func (ws *WebServer) Shutdown(ctx context.Context) error {
	if ws.server == nil {
		return nil
	}
	return ws.server.Shutdown(ctx)
}

// handleHealth returns server health status
func (ws *WebServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	dbStatus := "not_configured"
	healthy := true
	if ws.receipts != nil {
		if err := ws.receipts.Ping(r.Context()); err != nil {
			webLogger.Warn().Err(err).Msg("Database health check failed")
			dbStatus = "unhealthy"
			healthy = false
		} else {
			dbStatus = "healthy"
		}
	}

	overallStatus := "OK"
	statusCode := http.StatusOK
	if !healthy {
		overallStatus = "DEGRADED"
		statusCode = http.StatusServiceUnavailable
	}

	response := map[string]interface{}{
		"status":    overallStatus,
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
		"system": map[string]interface{}{
			"version":            runtime.Version(),
			"goroutines_count":   runtime.NumGoroutine(),
			"total_alloc_bytes":  memStats.TotalAlloc,
			"heap_objects_count": memStats.HeapObjects,
			"alloc_bytes":        memStats.Alloc,
			"sys_bytes":          memStats.Sys,
			"gc_cycles":          memStats.NumGC,
		},
		"component": map[string]interface{}{
			"name":    "curveamm",
			"version": "1.0.0",
		},
		"amm_status": map[string]interface{}{
			"database":              dbStatus,
			"pools":                 len(ws.program.Pools()),
			"operation_in_progress": ws.program.Busy(),
		},
	}

	ws.writeJSONResponse(w, statusCode, response)
}

func (ws *WebServer) handleGetPools(w http.ResponseWriter, r *http.Request) {
	pools := ws.program.Pools()
	ws.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"pools": pools,
		"count": len(pools),
	})
}

func (ws *WebServer) handleGetPool(w http.ResponseWriter, r *http.Request) {
	id, ok := ws.poolID(w, r)
	if !ok {
		return
	}
	pool, err := ws.program.Pool(id)
	if err != nil {
		ws.writeDomainError(w, err)
		return
	}
	ws.writeJSONResponse(w, http.StatusOK, pool)
}

func (ws *WebServer) handleGetStats(w http.ResponseWriter, r *http.Request) {
	id, ok := ws.poolID(w, r)
	if !ok {
		return
	}
	stats, err := ws.program.Stats(r.Context(), id)
	if err != nil {
		ws.writeDomainError(w, err)
		return
	}
	ws.writeJSONResponse(w, http.StatusOK, stats)
}

func (ws *WebServer) handleGetAdminFees(w http.ResponseWriter, r *http.Request) {
	id, ok := ws.poolID(w, r)
	if !ok {
		return
	}
	fees, err := ws.program.AdminFees(id)
	if err != nil {
		ws.writeDomainError(w, err)
		return
	}
	ws.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"pool_id":    id,
		"admin_fees": fees,
	})
}

func (ws *WebServer) handleQuoteExchange(w http.ResponseWriter, r *http.Request) {
	id, ok := ws.poolID(w, r)
	if !ok {
		return
	}
	query := r.URL.Query()
	i, err := strconv.Atoi(query.Get("i"))
	if err != nil {
		ws.writeErrorResponse(w, http.StatusBadRequest, "Invalid asset index i")
		return
	}
	j, err := strconv.Atoi(query.Get("j"))
	if err != nil {
		ws.writeErrorResponse(w, http.StatusBadRequest, "Invalid asset index j")
		return
	}
	dx, err := sdkmath.LegacyNewDecFromStr(query.Get("dx"))
	if err != nil {
		ws.writeErrorResponse(w, http.StatusBadRequest, "Invalid amount dx")
		return
	}

	quote, err := ws.program.QuoteExchange(r.Context(), id, i, j, dx)
	if err != nil {
		ws.writeDomainError(w, err)
		return
	}
	ws.writeJSONResponse(w, http.StatusOK, quote)
}

func (ws *WebServer) handleQuoteAddLiquidity(w http.ResponseWriter, r *http.Request) {
	id, ok := ws.poolID(w, r)
	if !ok {
		return
	}
	raw := r.URL.Query().Get("amounts")
	if raw == "" {
		ws.writeErrorResponse(w, http.StatusBadRequest, "Missing amounts")
		return
	}
	parts := strings.Split(raw, ",")
	amounts := make([]sdkmath.LegacyDec, len(parts))
	for k, part := range parts {
		amount, err := sdkmath.LegacyNewDecFromStr(strings.TrimSpace(part))
		if err != nil {
			ws.writeErrorResponse(w, http.StatusBadRequest, "Invalid amount "+strconv.Itoa(k))
			return
		}
		amounts[k] = amount
	}

	quote, err := ws.program.QuoteAddLiquidity(r.Context(), id, amounts)
	if err != nil {
		ws.writeDomainError(w, err)
		return
	}
	ws.writeJSONResponse(w, http.StatusOK, quote)
}

func (ws *WebServer) handleQuoteRemoveLiquidity(w http.ResponseWriter, r *http.Request) {
	id, ok := ws.poolID(w, r)
	if !ok {
		return
	}
	amount, err := sdkmath.LegacyNewDecFromStr(r.URL.Query().Get("amount"))
	if err != nil {
		ws.writeErrorResponse(w, http.StatusBadRequest, "Invalid amount")
		return
	}

	quote, err := ws.program.QuoteRemoveLiquidity(r.Context(), id, amount)
	if err != nil {
		ws.writeDomainError(w, err)
		return
	}
	ws.writeJSONResponse(w, http.StatusOK, quote)
}

func (ws *WebServer) handleAddLiquidity(w http.ResponseWriter, r *http.Request) {
	var req types.AddLiquidityRequest
	ws.handleOperation(w, r, &req, func(id types.PoolID) types.Request {
		req.PoolID = id
		return req
	})
}

func (ws *WebServer) handleRemoveLiquidity(w http.ResponseWriter, r *http.Request) {
	var req types.RemoveLiquidityRequest
	ws.handleOperation(w, r, &req, func(id types.PoolID) types.Request {
		req.PoolID = id
		return req
	})
}

func (ws *WebServer) handleExchange(w http.ResponseWriter, r *http.Request) {
	var req types.ExchangeRequest
	ws.handleOperation(w, r, &req, func(id types.PoolID) types.Request {
		req.PoolID = id
		return req
	})
}

// handleOperation decodes body into dst, binds the path pool id through build
// and executes the request as the caller named in CallerHeader.
func (ws *WebServer) handleOperation(w http.ResponseWriter, r *http.Request, dst interface{}, build func(types.PoolID) types.Request) {
	id, ok := ws.poolID(w, r)
	if !ok {
		return
	}

	raw := r.Header.Get(CallerHeader)
	if raw == "" {
		ws.writeErrorResponse(w, http.StatusUnauthorized, "Missing "+CallerHeader+" header")
		return
	}
	caller, err := types.ParseActorID(raw)
	if err != nil {
		ws.writeErrorResponse(w, http.StatusBadRequest, "Invalid "+CallerHeader+" header")
		return
	}

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		ws.writeErrorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	reply, err := ws.program.Handle(r.Context(), caller, build(id))
	if err != nil {
		ws.writeDomainError(w, err)
		return
	}
	ws.writeJSONResponse(w, http.StatusOK, reply)
}

// handleGetReceipts returns recent operation receipts
func (ws *WebServer) handleGetReceipts(w http.ResponseWriter, r *http.Request) {
	if ws.receipts == nil {
		ws.writeErrorResponse(w, http.StatusNotFound, "Receipt store not configured")
		return
	}

	limit := 20
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsedLimit, err := strconv.Atoi(limitStr); err == nil && parsedLimit > 0 && parsedLimit <= 100 {
			limit = parsedLimit
		}
	}

	receipts, err := ws.receipts.RecentReceipts(r.Context(), limit)
	if err != nil {
		webLogger.Error().Err(err).Msg("Failed to get recent receipts")
		ws.writeErrorResponse(w, http.StatusInternalServerError, "Failed to retrieve receipts")
		return
	}

	ws.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"receipts": receipts,
		"count":    len(receipts),
		"limit":    limit,
	})
}

func (ws *WebServer) handleGetReceiptSummary(w http.ResponseWriter, r *http.Request) {
	if ws.receipts == nil {
		ws.writeErrorResponse(w, http.StatusNotFound, "Receipt store not configured")
		return
	}
	summary, err := ws.receipts.SummarizeReceipts(r.Context())
	if err != nil {
		webLogger.Error().Err(err).Msg("Failed to summarize receipts")
		ws.writeErrorResponse(w, http.StatusInternalServerError, "Failed to summarize receipts")
		return
	}
	ws.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"summary": summary,
	})
}

func (ws *WebServer) poolID(w http.ResponseWriter, r *http.Request) (types.PoolID, bool) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		ws.writeErrorResponse(w, http.StatusBadRequest, "Invalid pool ID")
		return 0, false
	}
	return types.PoolID(id), true
}

// writeJSONResponse writes a JSON response
func (ws *WebServer) writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		webLogger.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeErrorResponse writes an error response
func (ws *WebServer) writeErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	response := map[string]interface{}{
		"error":     true,
		"message":   message,
		"timestamp": time.Now().UTC(),
	}

	ws.writeJSONResponse(w, statusCode, response)
}

func (ws *WebServer) writeDomainError(w http.ResponseWriter, err error) {
	statusCode := StatusFor(err)
	if statusCode >= http.StatusInternalServerError {
		webLogger.Error().Err(err).Int("status", statusCode).Msg("Request failed")
	}
	ws.writeErrorResponse(w, statusCode, err.Error())
}

// corsMiddleware adds CORS headers
func (ws *WebServer) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, "+CallerHeader)

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs HTTP requests
func (ws *WebServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapper := &responseWriterWrapper{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapper, r)

		webLogger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("remote_addr", r.RemoteAddr).
			Int("status", wrapper.statusCode).
			Dur("duration", time.Since(start)).
			Msg("HTTP request")
	})
}

// responseWriterWrapper wraps http.ResponseWriter to capture status code
type responseWriterWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (w *responseWriterWrapper) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}
