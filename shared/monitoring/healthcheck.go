package monitoring

import (
	"fmt"
	"log"
	"net/http"
)

// HealthServer exposes /health and /status for the agent processes.
type HealthServer struct {
	monitor *Monitor
	port    int
}

func NewHealthServer(monitor *Monitor, port int) *HealthServer {
	if port == 0 {
		port = 8080
	}
	return &HealthServer{
		monitor: monitor,
		port:    port,
	}
}

func (h *HealthServer) Start() {
	// Own mux: the recorder process serves websockets on another port and
	// must not share the default mux.
	mux := http.NewServeMux()
	mux.HandleFunc("/health", h.healthHandler)
	mux.HandleFunc("/status", h.statusHandler)

	log.Printf("Health check server starting on port %d", h.port)
	go func() {
		if err := http.ListenAndServe(fmt.Sprintf(":%d", h.port), mux); err != nil {
			log.Printf("Health server error: %v", err)
		}
	}()
}

func (h *HealthServer) healthHandler(w http.ResponseWriter, r *http.Request) {
	if h.monitor.IsHealthy() {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "OK - %s", h.monitor.GetStatusSummary())
		return
	}
	w.WriteHeader(http.StatusServiceUnavailable)
	fmt.Fprintf(w, "Service unhealthy - %s", h.monitor.GetStatusSummary())
}

func (h *HealthServer) statusHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "%s", h.monitor.GetStatusSummary())
}
