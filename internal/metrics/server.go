package metrics

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HealthStatus tracks liveness of the poll loop.
type HealthStatus struct {
	mu sync.RWMutex

	Symbol       string    `json:"symbol"`
	Timeframe    string    `json:"timeframe"`
	Samples      int       `json:"samples"`
	Reloading    bool      `json:"reloading"`
	LastTickTime time.Time `json:"last_tick_time"`
	StartedAt    time.Time `json:"started_at"`

	// StaleAfter marks the service degraded when no tick arrived for this long.
	StaleAfter time.Duration `json:"-"`
}

// NewHealthStatus returns a default health status.
func NewHealthStatus(staleAfter time.Duration) *HealthStatus {
	return &HealthStatus{StartedAt: time.Now(), StaleAfter: staleAfter}
}

// Update records the state after a processed tick.
func (h *HealthStatus) Update(symbol, timeframe string, samples int, reloading bool, at time.Time) {
	if h == nil {
		return
	}
	h.mu.Lock()
	h.Symbol, h.Timeframe = symbol, timeframe
	h.Samples = samples
	h.Reloading = reloading
	h.LastTickTime = at
	h.mu.Unlock()
}

// ServeHTTP handles the /healthz endpoint.
func (h *HealthStatus) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	overallStatus := "healthy"
	httpCode := http.StatusOK

	tickAge := ""
	if h.LastTickTime.IsZero() {
		overallStatus = "starting"
	} else {
		age := time.Since(h.LastTickTime)
		tickAge = age.Round(time.Millisecond).String()
		if h.StaleAfter > 0 && age > h.StaleAfter {
			overallStatus = "degraded"
			httpCode = http.StatusServiceUnavailable
		}
	}

	status := struct {
		Status       string `json:"status"`
		Uptime       string `json:"uptime"`
		Symbol       string `json:"symbol"`
		Timeframe    string `json:"timeframe"`
		Samples      int    `json:"samples"`
		Reloading    bool   `json:"reloading"`
		LastTickTime string `json:"last_tick_time"`
		TickAge      string `json:"tick_age"`
	}{
		Status:       overallStatus,
		Uptime:       time.Since(h.StartedAt).Round(time.Second).String(),
		Symbol:       h.Symbol,
		Timeframe:    h.Timeframe,
		Samples:      h.Samples,
		Reloading:    h.Reloading,
		LastTickTime: h.LastTickTime.Format(time.RFC3339),
		TickAge:      tickAge,
	}

	w.Header().Set("Content-Type", "application/json")
	if httpCode != http.StatusOK {
		w.WriteHeader(httpCode)
	}
	json.NewEncoder(w).Encode(status)
}

// Server runs an HTTP server exposing /metrics and /healthz.
type Server struct {
	addr string
	srv  *http.Server
}

// NewServer creates a metrics and health server backed by gatherer.
func NewServer(addr string, gatherer prometheus.Gatherer, health *HealthStatus) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	mux.Handle("/healthz", health)

	return &Server{
		addr: addr,
		srv: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Handler exposes the mux, mainly for tests.
func (s *Server) Handler() http.Handler { return s.srv.Handler }

// Start launches the HTTP server in a goroutine.
func (s *Server) Start() {
	go func() {
		log.Printf("[INFO] metrics server listening on %s", s.addr)
		if err := s.srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Printf("[ERROR] metrics server: %v", err)
		}
	}()
}

// Stop gracefully shuts down the metrics server.
func (s *Server) Stop(ctx context.Context) {
	if err := s.srv.Shutdown(ctx); err != nil {
		log.Printf("[WARN] metrics server shutdown: %v", err)
	}
}
