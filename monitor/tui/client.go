package tui

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"yt2x/types"
)

// StatusClient is a thin HTTP client for the daemon's status API.
type StatusClient struct {
	baseURL string
	client  *http.Client
}

// NewStatusClient creates a new status client
func NewStatusClient(baseURL string) *StatusClient {
	return &StatusClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

// GetStatus fetches the current loop status.
func (c *StatusClient) GetStatus() (*types.StatusResponse, error) {
	resp, err := c.client.Get(c.baseURL + "/api/status")
	if err != nil {
		return nil, fmt.Errorf("failed to get status: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(body))
	}

	var status types.StatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &status, nil
}

// SetCursor queues a cursor override.
func (c *StatusClient) SetCursor(itemID, requestedBy string) error {
	body, err := json.Marshal(map[string]string{"item_id": itemID, "requested_by": requestedBy})
	if err != nil {
		return err
	}
	resp, err := c.client.Post(c.baseURL+"/api/cursor", "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to set cursor: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, string(body))
	}
	return nil
}
