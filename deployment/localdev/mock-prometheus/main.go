// Command mock-prometheus serves a minimal slice of the Prometheus HTTP API
// with synthetic cluster metrics, so the engine can be run in prometheus mode
// without a real monitoring stack. Point AIOPS_PROMETHEUS_URL at it.
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"math"
	"net/http"
	"strings"
	"time"
)

func main() {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/v1/status/runtimeinfo", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]any{
			"status": "success",
			"data":   map[string]any{"startTime": time.Now().UTC().Format(time.RFC3339)},
		})
	})

	mux.HandleFunc("/api/v1/query", func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query().Get("query")
		writeJSON(w, instantVector(valueFor(query)))
	})

	logger := log.New(log.Writer(), "prom-mock ", log.LstdFlags|log.Lmicroseconds)
	srv := &http.Server{
		Addr:    ":9090",
		Handler: logRequests(logger, mux),
	}

	logger.Println("listening on :9090")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("server error: %v", err)
	}
}

// valueFor fabricates a slowly oscillating value per metric family so
// consecutive snapshots differ enough to exercise forecasting.
func valueFor(query string) float64 {
	wobble := 4 * math.Sin(float64(time.Now().Unix())/120)
	switch {
	case strings.Contains(query, "node_cpu_seconds_total"):
		return 62 + wobble
	case strings.Contains(query, "node_memory_MemAvailable_bytes"):
		return 71 + wobble/2
	case strings.Contains(query, "node_filesystem_avail_bytes"):
		return 48
	case strings.Contains(query, "node_network"):
		return 33 + wobble
	case strings.Contains(query, "ALERTS"):
		return 1
	default:
		return 0
	}
}

func instantVector(value float64) map[string]any {
	return map[string]any{
		"status": "success",
		"data": map[string]any{
			"resultType": "vector",
			"result": []map[string]any{
				{
					"metric": map[string]string{},
					"value":  []any{time.Now().Unix(), fmt.Sprintf("%.4f", value)},
				},
			},
		},
	}
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("encode error: %v", err)
	}
}

func logRequests(logger *log.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)
		logger.Printf("%s %s %d %s", r.Method, r.URL.Path, rw.status, time.Since(start))
	})
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}
