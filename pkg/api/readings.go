package api

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"github.com/sguter90/airsentinel/pkg/models"
)

// PostReading submits a reading and returns the stored record
func (c *Client) PostReading(ctx context.Context, in models.ReadingIn) (*models.ReadingOut, error) {
	body := map[string]interface{}{
		"timestamp":   in.Timestamp.UTC().Format(time.RFC3339Nano),
		"temperature": in.Temperature,
		"humidity":    in.Humidity,
		"air_quality": in.AirQuality,
	}

	resp, err := c.doRequest(ctx, "POST", "/sensor/data", body)
	if err != nil {
		return nil, err
	}

	var out models.ReadingOut
	if err := decode(resp, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ProcessedOptions filters a processed readings query; zero values are omitted
type ProcessedOptions struct {
	Page      int
	Size      int
	Start     time.Time
	End       time.Time
	IsAnomaly *bool
	Ranges    map[models.Metric]models.Range
}

func (o ProcessedOptions) values() url.Values {
	params := url.Values{}
	if o.Page > 0 {
		params.Set("page", strconv.Itoa(o.Page))
	}
	if o.Size > 0 {
		params.Set("size", strconv.Itoa(o.Size))
	}
	if !o.Start.IsZero() {
		params.Set("start_date", o.Start.UTC().Format(time.RFC3339))
	}
	if !o.End.IsZero() {
		params.Set("end_date", o.End.UTC().Format(time.RFC3339))
	}
	if o.IsAnomaly != nil {
		params.Set("is_anomaly", strconv.FormatBool(*o.IsAnomaly))
	}
	for metric, r := range o.Ranges {
		if r.Min != nil {
			params.Set("min_"+string(metric), strconv.FormatFloat(*r.Min, 'f', -1, 64))
		}
		if r.Max != nil {
			params.Set("max_"+string(metric), strconv.FormatFloat(*r.Max, 'f', -1, 64))
		}
	}
	return params
}

// GetProcessed retrieves one page of stored readings
func (c *Client) GetProcessed(ctx context.Context, opts ProcessedOptions) (*models.PaginatedResponse, error) {
	path := "/sensor/processed"
	if q := opts.values().Encode(); q != "" {
		path += "?" + q
	}

	resp, err := c.doRequest(ctx, "GET", path, nil)
	if err != nil {
		return nil, err
	}

	var page models.PaginatedResponse
	if err := decode(resp, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// GetAggregated retrieves windowed statistics; an empty window uses the server default
func (c *Client) GetAggregated(ctx context.Context, window models.TimeWindow) (*models.AggregateResult, error) {
	path := "/sensor/aggregated"
	if window != "" {
		path += "?" + url.Values{"window": {string(window)}}.Encode()
	}

	resp, err := c.doRequest(ctx, "GET", path, nil)
	if err != nil {
		return nil, err
	}

	var result models.AggregateResult
	if err := decode(resp, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
