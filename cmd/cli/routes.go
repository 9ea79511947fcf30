package main

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/sguter90/airsentinel/pkg/config"
	"github.com/sguter90/airsentinel/pkg/database"
	"golang.org/x/time/rate"
)

// RouteManager handles all API routes
type RouteManager struct {
	dbManager       *database.DatabaseManager
	registryManager *RegistryManager
	cfg             config.ServerConfig
	limiter         *rate.Limiter
	logger          *slog.Logger
	Router          *mux.Router
}

// NewRouteManager creates a new RouteManager instance
func NewRouteManager(dbManager *database.DatabaseManager, registryManager *RegistryManager, cfg config.ServerConfig, logger *slog.Logger) *RouteManager {
	rm := &RouteManager{
		dbManager:       dbManager,
		registryManager: registryManager,
		cfg:             cfg,
		logger:          logger.With("component", "http"),
		Router:          mux.NewRouter(),
	}
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst < 1 {
			burst = 1
		}
		rm.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}
	return rm
}

// Setup configures all API routes
func (rm *RouteManager) Setup() {
	r := rm.Router
	r.Use(rm.registryManager.Metrics.Middleware)
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeDetail(w, http.StatusNotFound, "Not Found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeDetail(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	})

	// Health check
	r.HandleFunc("/health", rm.healthHandler).Methods("GET")
	r.Handle("/metrics", rm.registryManager.Metrics.Handler()).Methods("GET")

	sensor := r.PathPrefix("/sensor").Subrouter()
	rm.setupSensorRoutes(sensor)
}

// setupSensorRoutes configures the reading endpoints
func (rm *RouteManager) setupSensorRoutes(sensor *mux.Router) {
	sensor.HandleFunc("/processed", rm.getProcessedHandler).Methods("GET")
	sensor.HandleFunc("/aggregated", rm.getAggregatedHandler).Methods("GET")
	sensor.HandleFunc("/stream", rm.registryManager.Hub.ServeWS(rm.checkOrigin)).Methods("GET")

	// Ingest endpoints share the rate limit
	ingest := sensor.NewRoute().Subrouter()
	ingest.Use(rm.rateLimitMiddleware)
	ingest.HandleFunc("/data", rm.postReadingHandler).Methods("POST")
	ingest.HandleFunc("/data/batch", rm.postBatchHandler).Methods("POST")
}

// Handler wraps the router with CORS, panic recovery and access logging
func (rm *RouteManager) Handler(accessLog io.Writer) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins:   rm.cfg.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
		MaxAge:           3600,
	})

	var h http.Handler = c.Handler(rm.Router)
	h = handlers.RecoveryHandler(
		handlers.RecoveryLogger(recoveryLogger{rm.logger}),
		handlers.PrintRecoveryStack(true),
	)(h)
	if accessLog != nil {
		h = handlers.CombinedLoggingHandler(accessLog, h)
	}
	return h
}
