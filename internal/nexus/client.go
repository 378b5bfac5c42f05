package nexus

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/Yosodog/Nexus-AMS-Discord/internal/domain"
)

// Client talks to the Nexus AMS producer API: it fetches batches of queued
// notification commands and reports per-item delivery status back.
// The base URL and timeout are injected from config so tests can point at a
// local httptest server.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(baseURL, apiKey string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: baseURL, apiKey: apiKey, httpClient: httpClient}
}

// FetchQueue retrieves up to limit pending queue items.
// A transport failure returns a *NetworkError; an HTTP error status returns
// an *APIError. An empty batch is not an error.
func (c *Client) FetchQueue(ctx context.Context, limit int) ([]domain.QueueItem, error) {
	u := c.baseURL + "/discord/queue?limit=" + strconv.Itoa(limit)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &NetworkError{Op: "fetch queue", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body) //nolint:errcheck
		return nil, &APIError{Op: "fetch queue", StatusCode: resp.StatusCode}
	}

	var body struct {
		Data []domain.QueueItem `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode queue response: %w", err)
	}
	return body.Data, nil
}

// ReportStatus posts the delivery outcome for one queue item.
// The response body is ignored beyond the status code.
func (c *Client) ReportStatus(ctx context.Context, id string, status domain.ReportStatus) error {
	body, err := json.Marshal(map[string]string{"status": string(status)})
	if err != nil {
		return fmt.Errorf("marshal status body: %w", err)
	}

	u := c.baseURL + "/discord/queue/" + url.PathEscape(id) + "/status"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	c.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &NetworkError{Op: "report status", Err: err}
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body) //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Op: "report status", StatusCode: resp.StatusCode}
	}
	return nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}
