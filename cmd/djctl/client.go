package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// apiClient talks to the djmonitor HTTP command surface.
type apiClient struct {
	baseURL string
	http    *http.Client
}

func newAPIClient(baseURL string, timeout time.Duration) *apiClient {
	return &apiClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// state mirrors the GET /api/config response.
type state struct {
	Text           string `json:"text"`
	Color          string `json:"color"`
	BlinkMode      bool   `json:"blink_mode"`
	EndTimestamp   *int64 `json:"end_timestamp"`
	WarningMinutes *int   `json:"warning_minutes"`
	EndDate        string `json:"end_date"`
	EndTime        string `json:"end_time"`
}

type publication struct {
	Text      string `json:"text"`
	Color     string `json:"color"`
	BlinkMode bool   `json:"blink_mode"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (c *apiClient) state(ctx context.Context) (state, json.RawMessage, error) {
	var s state
	raw, err := c.do(ctx, http.MethodGet, "/api/config", nil, &s)
	return s, raw, err
}

func (c *apiClient) setPublication(ctx context.Context, fields map[string]any) (publication, error) {
	var p publication
	_, err := c.do(ctx, http.MethodPost, "/publication", fields, &p)
	return p, err
}

func (c *apiClient) clearPublication(ctx context.Context, fields map[string]any) (publication, error) {
	var p publication
	_, err := c.do(ctx, http.MethodDelete, "/publication", fields, &p)
	return p, err
}

func (c *apiClient) setEndTime(ctx context.Context, date, clock string, warningMinutes int) error {
	body := map[string]any{"date": date, "time": clock, "warning_minutes": warningMinutes}
	_, err := c.do(ctx, http.MethodPost, "/config/end-time", body, nil)
	return err
}

func (c *apiClient) blink(ctx context.Context, color string) error {
	_, err := c.do(ctx, http.MethodPost, "/blink", map[string]any{"color": color}, nil)
	return err
}

func (c *apiClient) do(ctx context.Context, method, path string, body any, out any) (json.RawMessage, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %w", c.baseURL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr errorResponse
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error != "" {
			return nil, fmt.Errorf("server rejected request (%d): %s", resp.StatusCode, apiErr.Error)
		}
		return nil, fmt.Errorf("server returned %s", resp.Status)
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return nil, fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return raw, nil
}
