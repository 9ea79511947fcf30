package parser_test

import (
	"testing"

	"github.com/sguter90/airsentinel/pkg/parser"
	"github.com/sguter90/airsentinel/pkg/parser/csvformat"
	"github.com/sguter90/airsentinel/pkg/parser/jsonformat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRegistry() *parser.Registry {
	r := parser.NewRegistry()
	r.Register(jsonformat.New())
	r.Register(csvformat.New())
	return r
}

func TestRegistryGet(t *testing.T) {
	r := newRegistry()

	p, ok := r.Get("csv")
	require.True(t, ok)
	assert.Equal(t, "csv", p.Format())

	_, ok = r.Get("xml")
	assert.False(t, ok)
}

func TestRegistryAllSorted(t *testing.T) {
	all := newRegistry().All()

	require.Len(t, all, 2)
	assert.Equal(t, "csv", all[0].Format())
	assert.Equal(t, "json", all[1].Format())
}

func TestRegistryForContentTypeListsSupported(t *testing.T) {
	_, err := newRegistry().ForContentType("application/xml")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "supported: text/csv, application/json")
}

func TestRegistryForContentType(t *testing.T) {
	r := newRegistry()

	testCases := []struct {
		name        string
		contentType string
		wantFormat  string
		wantErr     bool
	}{
		{name: "json", contentType: "application/json", wantFormat: "json"},
		{name: "json with charset", contentType: "application/json; charset=utf-8", wantFormat: "json"},
		{name: "csv", contentType: "text/csv", wantFormat: "csv"},
		{name: "unsupported", contentType: "text/plain", wantErr: true},
		{name: "malformed", contentType: ";;", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p, err := r.ForContentType(tc.contentType)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantFormat, p.Format())
		})
	}
}
