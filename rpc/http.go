package rpc

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"

	"stablecore/native/assets"
	"stablecore/native/collateral"
	"stablecore/native/token"
	"stablecore/observability"
)

const (
	jsonRPCVersion  = "2.0"
	maxRequestBytes = 1 << 20 // 1 MiB
)

const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeUnauthorized   = -32001
	codeServerError    = -32000
	codeRateLimited    = -32020
)

type RPCRequest struct {
	JSONRPC string            `json:"jsonrpc"`
	ID      json.RawMessage   `json:"id"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
}

type RPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

type RPCResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Result  interface{}     `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// Server exposes the collateral engine over a single JSON-RPC endpoint.
// Mutating methods are serialized under writeMu, realizing the strict global
// operation order the engine relies on.
type Server struct {
	engine  *collateral.Engine
	stable  *token.Ledger
	bank    *assets.Ledger
	feeds   map[string]*collateral.StaticFeed
	logger  *slog.Logger
	metrics *observability.EngineMetrics

	authToken string

	writeMu sync.Mutex

	limiterMu sync.Mutex
	limiters  map[string]*rate.Limiter
}

// NewServer wires the RPC surface. feeds maps asset symbols to the static
// feeds accepting oracle price pushes; a nil map disables the push method.
func NewServer(engine *collateral.Engine, stable *token.Ledger, bank *assets.Ledger, feeds map[string]*collateral.StaticFeed, authToken string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		engine:    engine,
		stable:    stable,
		bank:      bank,
		feeds:     feeds,
		logger:    logger,
		metrics:   observability.Engine(),
		authToken: strings.TrimSpace(authToken),
		limiters:  make(map[string]*rate.Limiter),
	}
}

// Router returns the HTTP handler serving /rpc, /healthz and /metrics.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Method(http.MethodPost, "/rpc", otelhttp.NewHandler(http.HandlerFunc(s.handleRPC), "rpc"))
	return r
}

func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	if !s.allow(r.RemoteAddr) {
		writeError(w, http.StatusTooManyRequests, nil, codeRateLimited, "rate limit exceeded", nil)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBytes+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, nil, codeInvalidRequest, "unable to read request body", nil)
		return
	}
	if len(body) > maxRequestBytes {
		writeError(w, http.StatusRequestEntityTooLarge, nil, codeInvalidRequest, "request body too large", nil)
		return
	}

	var req RPCRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, nil, codeParseError, "invalid JSON-RPC request", err.Error())
		return
	}
	if req.JSONRPC != "" && req.JSONRPC != jsonRPCVersion {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "unsupported JSON-RPC version", nil)
		return
	}

	handler, ok := s.methods()[req.Method]
	if !ok {
		writeError(w, http.StatusNotFound, req.ID, codeMethodNotFound, "method not found", req.Method)
		return
	}
	if handler.mutating {
		if !s.authorized(r) {
			writeError(w, http.StatusUnauthorized, req.ID, codeUnauthorized, "unauthorized", nil)
			return
		}
		s.writeMu.Lock()
		defer s.writeMu.Unlock()
	}
	handler.fn(w, &req)
}

type methodHandler struct {
	fn       func(http.ResponseWriter, *RPCRequest)
	mutating bool
}

func (s *Server) methods() map[string]methodHandler {
	return map[string]methodHandler{
		"collateral_deposit":         {fn: s.handleDeposit, mutating: true},
		"collateral_mint":            {fn: s.handleMint, mutating: true},
		"collateral_redeem":          {fn: s.handleRedeem, mutating: true},
		"collateral_burn":            {fn: s.handleBurn, mutating: true},
		"collateral_redeemFor":       {fn: s.handleRedeemFor, mutating: true},
		"collateral_liquidate":       {fn: s.handleLiquidate, mutating: true},
		"collateral_getPosition":     {fn: s.handleGetPosition},
		"collateral_healthFactor":    {fn: s.handleHealthFactor},
		"collateral_params":          {fn: s.handleParams},
		"oracle_setPrice":            {fn: s.handleSetPrice, mutating: true},
		"token_balance":              {fn: s.handleTokenBalance},
		"token_supply":               {fn: s.handleTokenSupply},
		"assets_fund":                {fn: s.handleFund, mutating: true},
	}
}

// authorized checks the bearer token on mutating methods. An empty configured
// token leaves the surface open, which is only sane behind a private listener.
func (s *Server) authorized(r *http.Request) bool {
	if s.authToken == "" {
		return true
	}
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return false
	}
	supplied := strings.TrimSpace(strings.TrimPrefix(header, prefix))
	return subtle.ConstantTimeCompare([]byte(supplied), []byte(s.authToken)) == 1
}

func (s *Server) allow(remoteAddr string) bool {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		host = remoteAddr
	}
	s.limiterMu.Lock()
	defer s.limiterMu.Unlock()
	limiter, ok := s.limiters[host]
	if !ok {
		limiter = rate.NewLimiter(rate.Limit(50), 100)
		s.limiters[host] = limiter
	}
	return limiter.Allow()
}

func writeResult(w http.ResponseWriter, id json.RawMessage, result interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Result: result})
}

func writeError(w http.ResponseWriter, status int, id json.RawMessage, code int, message string, data interface{}) {
	// Requests whose id could not be read still answer with an explicit null
	// id per JSON-RPC 2.0.
	if len(id) == 0 {
		id = json.RawMessage("null")
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(RPCResponse{
		JSONRPC: jsonRPCVersion,
		ID:      id,
		Error:   &RPCError{Code: code, Message: message, Data: data},
	})
}

// writeEngineError maps engine aborts onto JSON-RPC errors, keeping each
// abort class distinguishable and carrying diagnostic values where the
// engine provides them.
func writeEngineError(w http.ResponseWriter, id json.RawMessage, err error) {
	var broken *collateral.BrokenHealthFactorError
	if errors.As(err, &broken) {
		writeError(w, http.StatusConflict, id, codeServerError, "health factor below minimum", map[string]string{
			"account":      broken.Account.Hex(),
			"healthFactor": broken.HealthFactor.String(),
		})
		return
	}
	switch {
	case errors.Is(err, collateral.ErrInvalidAmount),
		errors.Is(err, collateral.ErrAssetNotRegistered):
		writeError(w, http.StatusBadRequest, id, codeInvalidParams, err.Error(), nil)
	default:
		writeError(w, http.StatusConflict, id, codeServerError, err.Error(), nil)
	}
}
