package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sguter90/airsentinel/pkg/models"
)

const readingColumns = "id, timestamp, temperature, humidity, air_quality, is_anomaly"

const insertReadingQuery = `
        INSERT INTO sensor_data (id, timestamp, temperature, humidity, air_quality, is_anomaly)
        VALUES (?, ?, ?, ?, ?, ?)
    `

func readingArgs(r *models.Reading) []interface{} {
	return []interface{}{r.ID, r.Timestamp.UTC(), r.Temperature, r.Humidity, r.AirQuality, r.IsAnomaly}
}

// StoreReading stores a single reading, assigning an ID when missing
func (dm *DatabaseManager) StoreReading(ctx context.Context, reading *models.Reading) error {
	if reading.ID == uuid.Nil {
		reading.ID = uuid.New()
	}
	reading.Timestamp = reading.Timestamp.UTC()

	if _, err := dm.execWithHealthCheck(ctx, insertReadingQuery, readingArgs(reading)...); err != nil {
		return fmt.Errorf("failed to insert reading: %w", err)
	}
	return nil
}

// GetReading returns the reading with the given ID
func (dm *DatabaseManager) GetReading(ctx context.Context, id uuid.UUID) (models.Reading, error) {
	var reading models.Reading
	query := "SELECT " + readingColumns + " FROM sensor_data WHERE id = ?"
	if err := dm.getWithHealthCheck(ctx, &reading, query, id); err != nil {
		return models.Reading{}, err
	}
	reading.Timestamp = reading.Timestamp.UTC()
	return reading, nil
}

// RecentMetricValues returns up to limit non-missing values of a metric, newest first
func (dm *DatabaseManager) RecentMetricValues(ctx context.Context, metric models.Metric, limit int) ([]float64, error) {
	column := metric.Column()
	if column == "" {
		return nil, fmt.Errorf("unknown metric: %s", metric)
	}

	query := fmt.Sprintf(`
        SELECT %[1]s
        FROM sensor_data
        WHERE %[1]s IS NOT NULL
        ORDER BY timestamp DESC
        LIMIT ?
    `, column)

	values := []float64{}
	if err := dm.selectWithHealthCheck(ctx, &values, query, limit); err != nil {
		return nil, fmt.Errorf("failed to load recent %s values: %w", metric, err)
	}
	return values, nil
}

// buildReadingFilter renders the WHERE clause shared by the count and page queries
func buildReadingFilter(params models.ReadingQueryParams) (string, []interface{}) {
	var where strings.Builder
	args := []interface{}{}

	if params.StartDate != nil {
		where.WriteString(" AND timestamp >= ?")
		args = append(args, params.StartDate.UTC())
	}

	if params.EndDate != nil {
		where.WriteString(" AND timestamp <= ?")
		args = append(args, params.EndDate.UTC())
	}

	if params.IsAnomaly != nil {
		where.WriteString(" AND is_anomaly = ?")
		args = append(args, *params.IsAnomaly)
	}

	// fixed metric order keeps the generated SQL stable
	for _, metric := range models.Metrics {
		r, ok := params.Ranges[metric]
		if !ok {
			continue
		}
		if r.Min != nil {
			fmt.Fprintf(&where, " AND %s >= ?", metric.Column())
			args = append(args, *r.Min)
		}
		if r.Max != nil {
			fmt.Fprintf(&where, " AND %s <= ?", metric.Column())
			args = append(args, *r.Max)
		}
	}

	return where.String(), args
}

// GetReadings retrieves one page of readings matching the filters, newest first
func (dm *DatabaseManager) GetReadings(ctx context.Context, params models.ReadingQueryParams) (*models.PaginatedResponse, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	whereClause, args := buildReadingFilter(params)

	// Get total count first (before adding LIMIT/OFFSET)
	var total int
	countQuery := "SELECT COUNT(*) FROM sensor_data WHERE 1=1" + whereClause
	if err := dm.getWithHealthCheck(ctx, &total, countQuery, args...); err != nil {
		return nil, fmt.Errorf("failed to get total count: %w", err)
	}

	query := "SELECT " + readingColumns + " FROM sensor_data WHERE 1=1" + whereClause +
		" ORDER BY timestamp DESC LIMIT ? OFFSET ?"
	args = append(args, params.Size, params.Offset())

	readings := []models.Reading{}
	if err := dm.selectWithHealthCheck(ctx, &readings, query, args...); err != nil {
		return nil, fmt.Errorf("failed to query readings: %w", err)
	}

	return models.NewPaginatedResponse(readings, total, params.Page, params.Size), nil
}

// ReadingsSince returns all readings at or after cutoff, oldest first
func (dm *DatabaseManager) ReadingsSince(ctx context.Context, cutoff time.Time) ([]models.Reading, error) {
	query := "SELECT " + readingColumns + " FROM sensor_data WHERE timestamp >= ? ORDER BY timestamp ASC"

	readings := []models.Reading{}
	if err := dm.selectWithHealthCheck(ctx, &readings, query, cutoff.UTC()); err != nil {
		return nil, fmt.Errorf("failed to query readings since %s: %w", cutoff.Format(time.RFC3339), err)
	}
	for i := range readings {
		readings[i].Timestamp = readings[i].Timestamp.UTC()
	}
	return readings, nil
}

// CountReadings returns the number of stored readings
func (dm *DatabaseManager) CountReadings(ctx context.Context) (int, error) {
	var count int
	if err := dm.getWithHealthCheck(ctx, &count, "SELECT COUNT(*) FROM sensor_data"); err != nil {
		return 0, fmt.Errorf("failed to count readings: %w", err)
	}
	return count, nil
}

// ReplaceReadings deletes every stored reading and inserts the given ones in one transaction
func (dm *DatabaseManager) ReplaceReadings(ctx context.Context, readings []models.Reading) (int, error) {
	inserted := 0

	err := dm.inTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM sensor_data"); err != nil {
			return fmt.Errorf("failed to clear readings: %w", err)
		}

		stmt, err := tx.PreparexContext(ctx, tx.Rebind(insertReadingQuery))
		if err != nil {
			return fmt.Errorf("failed to prepare insert: %w", err)
		}
		defer stmt.Close()

		for i := range readings {
			r := &readings[i]
			if r.ID == uuid.Nil {
				r.ID = uuid.New()
			}
			if _, err := stmt.ExecContext(ctx, readingArgs(r)...); err != nil {
				return fmt.Errorf("failed to insert reading %d: %w", i+1, err)
			}
			inserted++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	dm.logger.Info("replaced readings", "count", inserted)
	return inserted, nil
}
