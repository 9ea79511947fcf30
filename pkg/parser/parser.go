// Package parser turns raw sensor payloads into readings.
package parser

import (
	"fmt"
	"io"
	"mime"
	"sort"
	"strings"

	"github.com/sguter90/airsentinel/pkg/models"
)

// Parser defines the interface for all payload parsers
type Parser interface {
	// Format returns the format identifier, e.g. "json"
	Format() string

	// ContentType returns the MIME type this parser handles
	ContentType() string

	// Parse reads all readings contained in r
	Parse(r io.Reader) ([]models.Reading, error)
}

// Registry holds all registered parsers
type Registry struct {
	parsers map[string]Parser
}

// NewRegistry creates a new parser registry
func NewRegistry() *Registry {
	return &Registry{
		parsers: make(map[string]Parser),
	}
}

// Register adds a parser to the registry
func (r *Registry) Register(p Parser) {
	r.parsers[p.Format()] = p
}

// Get retrieves a parser by format
func (r *Registry) Get(format string) (Parser, bool) {
	p, ok := r.parsers[format]
	return p, ok
}

// ForContentType finds the parser for a Content-Type header value
func (r *Registry) ForContentType(contentType string) (Parser, error) {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return nil, fmt.Errorf("invalid content type %q: %w", contentType, err)
	}

	for _, p := range r.parsers {
		if p.ContentType() == mediaType {
			return p, nil
		}
	}
	supported := make([]string, 0, len(r.parsers))
	for _, p := range r.All() {
		supported = append(supported, p.ContentType())
	}
	return nil, fmt.Errorf("unsupported content type %q (supported: %s)", mediaType, strings.Join(supported, ", "))
}

// All returns all registered parsers ordered by format
func (r *Registry) All() []Parser {
	parsers := make([]Parser, 0, len(r.parsers))
	for _, p := range r.parsers {
		parsers = append(parsers, p)
	}
	sort.Slice(parsers, func(i, j int) bool {
		return parsers[i].Format() < parsers[j].Format()
	})
	return parsers
}
