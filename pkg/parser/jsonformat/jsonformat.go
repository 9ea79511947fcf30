package jsonformat

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"

	"github.com/sguter90/airsentinel/pkg/models"
)

// Parser reads a single reading object or an array of them
type Parser struct{}

// New creates a JSON parser
func New() *Parser {
	return &Parser{}
}

// Format returns the format identifier
func (p *Parser) Format() string {
	return "json"
}

// ContentType returns the MIME type
func (p *Parser) ContentType() string {
	return "application/json"
}

// Parse decodes r into readings
func (p *Parser) Parse(r io.Reader) ([]models.Reading, error) {
	br := bufio.NewReader(r)

	first, err := peekNonSpace(br)
	if err != nil {
		return nil, fmt.Errorf("empty payload")
	}

	dec := json.NewDecoder(br)

	if first != '[' {
		var in models.ReadingIn
		if err := dec.Decode(&in); err != nil {
			return nil, fmt.Errorf("invalid reading: %w", err)
		}
		return []models.Reading{in.ToReading()}, nil
	}

	var batch []models.ReadingIn
	if err := dec.Decode(&batch); err != nil {
		return nil, fmt.Errorf("invalid reading batch: %w", err)
	}

	readings := make([]models.Reading, 0, len(batch))
	for _, in := range batch {
		readings = append(readings, in.ToReading())
	}
	return readings, nil
}

func peekNonSpace(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		}
		return b, br.UnreadByte()
	}
}
