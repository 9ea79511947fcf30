package main

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/sguter90/airsentinel/pkg/models"
	"github.com/sguter90/airsentinel/pkg/stats"
)

const maxBodyBytes = 10 << 20

// BatchResponse lists the readings stored by a batch upload
type BatchResponse struct {
	Count int                 `json:"count"`
	Items []models.ReadingOut `json:"items"`
}

// postReadingHandler ingests a single reading; any is_anomaly in the body is ignored
func (rm *RouteManager) postReadingHandler(w http.ResponseWriter, r *http.Request) {
	var in models.ReadingIn
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&in); err != nil {
		rm.registryManager.Metrics.IngestFailed("http")
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}

	stored, err := rm.registryManager.Coordinator.Ingest(r.Context(), in.ToReading())
	if err != nil {
		rm.logger.Error("failed to ingest reading", "error", err)
		rm.registryManager.Metrics.IngestFailed("http")
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, stored.Out())
}

// postBatchHandler ingests every reading of a JSON or CSV body, chosen by Content-Type.
// Readings are ingested in order; the first failure stops the batch.
func (rm *RouteManager) postBatchHandler(w http.ResponseWriter, r *http.Request) {
	contentType := r.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/json"
	}

	p, err := rm.registryManager.ParserRegistry.ForContentType(contentType)
	if err != nil {
		writeDetail(w, http.StatusUnsupportedMediaType, err.Error())
		return
	}

	readings, err := p.Parse(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		rm.registryManager.Metrics.IngestFailed("http")
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}

	resp := BatchResponse{Items: make([]models.ReadingOut, 0, len(readings))}
	for i, reading := range readings {
		stored, err := rm.registryManager.Coordinator.Ingest(r.Context(), reading)
		if err != nil {
			rm.logger.Error("failed to ingest batch reading", "index", i, "error", err)
			rm.registryManager.Metrics.IngestFailed("http")
			writeDetail(w, http.StatusBadRequest,
				fmt.Sprintf("reading %d: %v (%d stored before failure)", i, err, resp.Count))
			return
		}
		resp.Items = append(resp.Items, stored.Out())
		resp.Count++
	}

	rm.logger.Info("batch ingested", "format", p.Format(), "count", resp.Count)
	writeJSON(w, http.StatusOK, resp)
}

// getProcessedHandler returns one page of stored readings, newest first
// Query params:
//   - page, size: paging (size at most 1000)
//   - start_date, end_date: inclusive timestamp bounds
//   - is_anomaly: true or false
//   - min_<metric>, max_<metric>: inclusive value bounds per metric
func (rm *RouteManager) getProcessedHandler(w http.ResponseWriter, r *http.Request) {
	params, err := parseReadingQueryParams(r)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}

	// Validate parameters
	if err := params.Validate(); err != nil {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := rm.dbManager.GetReadings(r.Context(), params)
	if err != nil {
		rm.logger.Error("failed to query readings", "error", err)
		writeDetail(w, http.StatusInternalServerError, "Failed to query readings")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// getAggregatedHandler summarizes the readings of the requested window
func (rm *RouteManager) getAggregatedHandler(w http.ResponseWriter, r *http.Request) {
	window, err := models.ParseTimeWindow(r.URL.Query().Get("window"))
	if err != nil {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}

	readings, err := rm.dbManager.ReadingsSince(r.Context(), window.Cutoff(time.Now()))
	if err != nil {
		rm.logger.Error("failed to load window", "window", window, "error", err)
		writeDetail(w, http.StatusInternalServerError, "Failed to aggregate readings")
		return
	}

	writeJSON(w, http.StatusOK, stats.Aggregate(readings, string(window)))
}

// parseReadingQueryParams extracts and parses query parameters from the request
func parseReadingQueryParams(r *http.Request) (models.ReadingQueryParams, error) {
	q := r.URL.Query()
	params := models.NewReadingQueryParams()

	if v := q.Get("page"); v != "" {
		page, err := strconv.Atoi(v)
		if err != nil {
			return params, fmt.Errorf("page must be an integer")
		}
		params.Page = page
	}

	if v := q.Get("size"); v != "" {
		size, err := strconv.Atoi(v)
		if err != nil {
			return params, fmt.Errorf("size must be an integer")
		}
		params.Size = size
	}

	for name, dest := range map[string]**time.Time{"start_date": &params.StartDate, "end_date": &params.EndDate} {
		if v := q.Get(name); v != "" {
			t, err := models.ParseTimestamp(v)
			if err != nil {
				return params, fmt.Errorf("%s: %w", name, err)
			}
			*dest = &t
		}
	}

	if v := q.Get("is_anomaly"); v != "" {
		flag, err := strconv.ParseBool(v)
		if err != nil {
			return params, fmt.Errorf("is_anomaly must be true or false")
		}
		params.IsAnomaly = &flag
	}

	for _, metric := range models.Metrics {
		var rng models.Range
		for _, bound := range []struct {
			name string
			dest **float64
		}{
			{"min_" + string(metric), &rng.Min},
			{"max_" + string(metric), &rng.Max},
		} {
			v := q.Get(bound.name)
			if v == "" {
				continue
			}
			f, err := strconv.ParseFloat(v, 64)
			if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
				return params, fmt.Errorf("%s must be a finite number", bound.name)
			}
			*bound.dest = &f
		}
		if rng.IsSet() {
			params.Ranges[metric] = rng
		}
	}

	return params, nil
}
