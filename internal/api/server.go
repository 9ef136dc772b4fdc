package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"FeeAllocator/internal/model"
	"FeeAllocator/internal/scheduler"
)

// Controller is the engine surface exposed over HTTP.
type Controller interface {
	UpdatePrice(ctx context.Context, price float64) (float64, error)
	DistributeFees(ctx context.Context, total int64) model.DistributionResult
	ClaimAndDistribute(ctx context.Context) model.CycleResult
	FlushAccumulated(ctx context.Context) model.FlushResult
	Status() model.Status
	StartLoop(ctx context.Context, interval time.Duration) error
	StopLoop()
}

type ctxKey int

const requestIDKey ctxKey = iota

// RequestID returns the id assigned by the middleware, if any.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// Server is the local control and metrics endpoint.
type Server struct {
	router  *mux.Router
	server  *http.Server
	ctrl    Controller
	metrics http.Handler
	// loopCtx outlives requests so a loop started over HTTP keeps running.
	loopCtx context.Context
}

// NewServer builds the router. metricsHandler may be nil.
func NewServer(loopCtx context.Context, addr string, ctrl Controller, metricsHandler http.Handler) *Server {
	s := &Server{
		router:  mux.NewRouter(),
		ctrl:    ctrl,
		metrics: metricsHandler,
		loopCtx: loopCtx,
	}
	s.setupRoutes()
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) setupRoutes() {
	s.router.Use(s.requestIDMiddleware)
	s.router.Use(s.requestLoggingMiddleware)

	s.router.HandleFunc("/healthz", s.health).Methods(http.MethodGet)
	if s.metrics != nil {
		s.router.Handle("/metrics", s.metrics).Methods(http.MethodGet)
	}

	api := s.router.PathPrefix("/").Subrouter()
	api.Use(jsonContentTypeMiddleware)
	api.HandleFunc("/status", s.status).Methods(http.MethodGet)
	api.HandleFunc("/cycle", s.cycle).Methods(http.MethodPost)
	api.HandleFunc("/flush", s.flush).Methods(http.MethodPost)
	api.HandleFunc("/distribute", s.distribute).Methods(http.MethodPost)
	api.HandleFunc("/price", s.price).Methods(http.MethodPost)
	api.HandleFunc("/loop/start", s.startLoop).Methods(http.MethodPost)
	api.HandleFunc("/loop/stop", s.stopLoop).Methods(http.MethodPost)

	s.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	w.Write([]byte("ok"))
}

func (s *Server) status(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.ctrl.Status())
}

func (s *Server) cycle(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.ctrl.ClaimAndDistribute(r.Context()))
}

func (s *Server) flush(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.ctrl.FlushAccumulated(r.Context()))
}

type distributeRequest struct {
	Amount int64 `json:"amount"`
}

func (s *Server) distribute(w http.ResponseWriter, r *http.Request) {
	var req distributeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body: "+err.Error())
		return
	}
	if req.Amount < 0 {
		writeError(w, http.StatusBadRequest, "amount must not be negative")
		return
	}
	writeJSON(w, http.StatusOK, s.ctrl.DistributeFees(r.Context(), req.Amount))
}

type priceRequest struct {
	Price float64 `json:"price"`
}

// price accepts an empty body, which fetches the price from the fee source.
func (s *Server) price(w http.ResponseWriter, r *http.Request) {
	var req priceRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid body: "+err.Error())
			return
		}
	}
	p, err := s.ctrl.UpdatePrice(r.Context(), req.Price)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	st := s.ctrl.Status()
	writeJSON(w, http.StatusOK, map[string]any{
		"price":           p,
		"momentum":        st.Momentum,
		"momentum_action": st.MomentumAction,
	})
}

type loopRequest struct {
	Interval string `json:"interval"`
}

func (s *Server) startLoop(w http.ResponseWriter, r *http.Request) {
	var req loopRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body: "+err.Error())
		return
	}
	interval, err := time.ParseDuration(req.Interval)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid interval %q", req.Interval))
		return
	}
	if interval < scheduler.MinInterval {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("interval must be at least %s, got %s", scheduler.MinInterval, interval))
		return
	}
	if err := s.ctrl.StartLoop(s.loopCtx, interval); err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"running": true, "interval": interval.String()})
}

func (s *Server) stopLoop(w http.ResponseWriter, _ *http.Request) {
	s.ctrl.StopLoop()
	writeJSON(w, http.StatusOK, map[string]any{"running": false})
}

// ListenAndServe blocks until the server stops. A clean shutdown returns nil.
func (s *Server) ListenAndServe() error {
	log.Info().Str("addr", s.server.Addr).Msg("http server listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	log.Info().Msg("shutting down http server")
	return s.server.Shutdown(ctx)
}

func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()[:8]
		}
		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) requestLoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapper := &responseWrapper{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapper, r)
		log.Info().
			Str("request_id", RequestID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", wrapper.statusCode).
			Dur("elapsed", time.Since(start)).
			Str("remote", r.RemoteAddr).
			Msg("http request")
	})
}

func jsonContentTypeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("encode response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// responseWrapper captures HTTP status codes for logging.
type responseWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWrapper) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
