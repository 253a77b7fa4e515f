package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bufl/ledger/internal/adapter/http/dto"
	"github.com/bufl/ledger/internal/adapter/http/middleware"
)

// apiClient calls the ledger HTTP API on behalf of one user.
type apiClient struct {
	http    *http.Client
	baseURL string
	userID  string
}

func newAPIClient(baseURL, userID string, timeout time.Duration) *apiClient {
	return &apiClient{
		http:    &http.Client{Timeout: timeout},
		baseURL: baseURL,
		userID:  userID,
	}
}

// apiError is a non-2xx answer from the API.
type apiError struct {
	Status  int
	Message string
	Details string
}

func (e *apiError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s (status %d): %s", e.Message, e.Status, e.Details)
	}
	return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
}

// do sends body as JSON and decodes a 2xx answer into out.
func (c *apiClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.userID != "" {
		req.Header.Set(middleware.UserIDHeader, c.userID)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var e dto.ErrorResponse
		if err := json.Unmarshal(data, &e); err != nil || e.Error == "" {
			return &apiError{Status: resp.StatusCode, Message: string(bytes.TrimSpace(data))}
		}
		return &apiError{Status: resp.StatusCode, Message: e.Error, Details: e.Message}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
