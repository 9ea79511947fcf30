package csvformat

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sguter90/airsentinel/pkg/models"
)

const timestampColumn = "timestamp"

// Parser reads readings from CSV with a header row.
// Columns are matched by name; missing metric columns are absent.
type Parser struct{}

// New creates a CSV parser
func New() *Parser {
	return &Parser{}
}

// Format returns the format identifier
func (p *Parser) Format() string {
	return "csv"
}

// ContentType returns the MIME type
func (p *Parser) ContentType() string {
	return "text/csv"
}

// Parse reads all rows of r
func (p *Parser) Parse(r io.Reader) ([]models.Reading, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("missing header row")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))] = i
	}

	tsIdx, ok := columns[timestampColumn]
	if !ok {
		return nil, fmt.Errorf("missing %q column", timestampColumn)
	}

	var readings []models.Reading
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv: %w", err)
		}
		line, _ := cr.FieldPos(0)

		if isBlank(record) {
			continue
		}

		reading, err := parseRecord(record, tsIdx, columns)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		readings = append(readings, reading)
	}

	return readings, nil
}

func parseRecord(record []string, tsIdx int, columns map[string]int) (models.Reading, error) {
	ts, err := models.ParseTimestamp(cell(record, tsIdx))
	if err != nil {
		return models.Reading{}, err
	}

	reading := models.Reading{Timestamp: ts}
	for _, m := range models.Metrics {
		idx, ok := columns[string(m)]
		if !ok {
			continue
		}
		value, err := models.ParseOptional(cell(record, idx))
		if err != nil {
			return models.Reading{}, fmt.Errorf("%s: %w", m, err)
		}
		reading.SetValue(m, value)
	}
	return reading, nil
}

func cell(record []string, idx int) string {
	if idx < len(record) {
		return record[idx]
	}
	return ""
}

func isBlank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
