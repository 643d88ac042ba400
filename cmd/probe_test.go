package cmd

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeEndpointFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "endpoint.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadEndpoint(t *testing.T) {
	path := writeEndpointFile(t, `
name: api
url: https://api.example.com
response-time-threshold: 1s
assertions:
  - path: data.count
    operator: equals
    value: 3
`)
	e, err := loadEndpoint(path)
	require.NoError(t, err)
	assert.Equal(t, http.MethodGet, e.Method)
	assert.Equal(t, 30*time.Second, e.Timeout)
	require.NotNil(t, e.ResponseTimeThreshold)
	assert.Equal(t, time.Second, *e.ResponseTimeThreshold)
	require.Len(t, e.Assertions, 1)
	assert.Equal(t, 3, e.Assertions[0].Value)

	_, err = loadEndpoint(writeEndpointFile(t, "timeout: forever"))
	assert.Error(t, err)
	_, err = loadEndpoint(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestRunProbe(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status": "up"}`))
	}))
	defer ts.Close()

	healthy, err := runProbe(context.Background(), writeEndpointFile(t, `
name: local
url: `+ts.URL+`
assertions:
  - path: status
    operator: equals
    value: up
`))
	require.NoError(t, err)
	assert.True(t, healthy)

	healthy, err = runProbe(context.Background(), writeEndpointFile(t, `
name: local
url: `+ts.URL+`
expected-status-codes: [201]
`))
	require.NoError(t, err)
	assert.False(t, healthy)
}
