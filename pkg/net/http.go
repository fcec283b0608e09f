package net

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	maxIdleConns     = 10
	timeoutInSeconds = 30
	clientAgent      = "cardio-cli"
	maxResponseBytes = 1 << 20
)

var (
	reqTransport = &http.Transport{
		MaxIdleConns:          maxIdleConns,
		IdleConnTimeout:       timeoutInSeconds * time.Second,
		DisableCompression:    true,
		DisableKeepAlives:     false,
		ResponseHeaderTimeout: time.Duration(timeoutInSeconds) * time.Second,
	}

	// ErrorURLNotFound is returned for 404 responses.
	ErrorURLNotFound = errors.New("URL not found")
)

// GetHTTPClient returns the client used for all service calls.
func GetHTTPClient() *http.Client {
	return &http.Client{
		Timeout:   time.Duration(timeoutInSeconds) * time.Second,
		Transport: reqTransport,
	}
}

// GetJSON retrieves url and decodes the JSON response into target.
// It returns the response status code.
func GetJSON[T any](ctx context.Context, url string, target *T) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("error creating HTTP Get request: %w", err)
	}
	return do(req, target)
}

// PostJSON sends body as JSON to url and decodes the JSON response into
// target. Non-2xx responses that carry a JSON body are decoded too, so
// callers can read error payloads; the status code tells them apart.
func PostJSON[T any](ctx context.Context, url string, body any, target *T) (int, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return 0, fmt.Errorf("error encoding request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return 0, fmt.Errorf("error creating HTTP Post request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return do(req, target)
}

func do[T any](req *http.Request, target *T) (int, error) {
	req.Header.Set("User-Agent", clientAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := GetHTTPClient().Do(req)
	if err != nil {
		return 0, fmt.Errorf("error executing request to %s: %w", req.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return resp.StatusCode, ErrorURLNotFound
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(target); err != nil {
		return resp.StatusCode, fmt.Errorf("error decoding content (status: %d): %w", resp.StatusCode, err)
	}
	return resp.StatusCode, nil
}
