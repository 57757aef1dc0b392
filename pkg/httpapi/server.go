package httpapi

import (
	"fmt"
	"net/http"
	"time"

	"supervisor-console/pkg/engine"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// NewServer builds the local read surface: an HTTP server exposing the
// engine's materialized state and its mutation operations to presentation
// consumers that run out of process (dashboards, scripts, health checks).
func NewServer(host string, port int, eng *engine.Engine, logger *logrus.Logger) *http.Server {
	handler := NewHandler(eng, logger)

	router := mux.NewRouter()

	router.HandleFunc("/state/calls", handler.Calls).Methods("GET")
	router.HandleFunc("/state/calls/{id}", handler.CallDetail).Methods("GET")
	router.HandleFunc("/state/alerts", handler.Alerts).Methods("GET")
	router.HandleFunc("/state/metrics", handler.Metrics).Methods("GET")
	router.HandleFunc("/state/connection", handler.Connection).Methods("GET")

	router.HandleFunc("/alerts/{id}/acknowledge", handler.AcknowledgeAlert).Methods("POST")
	router.HandleFunc("/alerts/{id}/resolve", handler.ResolveAlert).Methods("POST")
	router.HandleFunc("/calls/{id}/action", handler.PerformAction).Methods("POST")

	router.HandleFunc("/healthz", handler.Health).Methods("GET")

	router.Use(loggingMiddleware(logger))

	return &http.Server{
		Addr:         fmt.Sprintf("%s:%d", host, port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

func loggingMiddleware(logger *logrus.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			next.ServeHTTP(w, r)

			logger.WithFields(logrus.Fields{
				"method":   r.Method,
				"path":     r.URL.Path,
				"duration": time.Since(start),
				"remote":   r.RemoteAddr,
			}).Debug("HTTP request processed")
		})
	}
}
