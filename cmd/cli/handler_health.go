package main

import (
	"context"
	"net/http"
	"time"
)

// healthHandler returns server health status
func (rm *RouteManager) healthHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	database := "ok"
	if err := rm.dbManager.Ping(ctx); err != nil {
		rm.logger.Warn("health check: database unavailable", "error", err)
		database = "unhealthy"
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "database": database})
}
