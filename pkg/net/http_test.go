package net

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetHTTPClient(t *testing.T) {
	client := GetHTTPClient()
	assert.NotNil(t, client)
	assert.NotZero(t, client.Timeout)
}

func TestGetJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, clientAgent, r.Header.Get("User-Agent"))
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "healthy", "model_loaded": true})
	}))
	defer srv.Close()

	var out struct {
		Status      string `json:"status"`
		ModelLoaded bool   `json:"model_loaded"`
	}
	status, err := GetJSON(t.Context(), srv.URL, &out)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "healthy", out.Status)
	assert.True(t, out.ModelLoaded)
}

func TestPostJSON_ErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var in map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "error", "error": "bad"})
	}))
	defer srv.Close()

	var out map[string]string
	status, err := PostJSON(t.Context(), srv.URL, map[string]int{"age": 50}, &out)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "bad", out["error"])
}

func TestGetJSON_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	var out map[string]any
	status, err := GetJSON(t.Context(), srv.URL, &out)
	assert.ErrorIs(t, err, ErrorURLNotFound)
	assert.Equal(t, http.StatusNotFound, status)
}
