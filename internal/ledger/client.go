// Package ledger is the REST client for the remote ledger authority. It
// owns no business state: every call is a bounded request/response exchange
// and the authority's reply is the sole source of truth for versions,
// timestamps, and materialized children.
package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/alphaledger/ledgerd/internal/domain"
)

// Config holds the explicit per-client settings. There is no ambient
// process-wide endpoint selection; construct one Client per authority.
type Config struct {
	// BaseURL is the authority root, e.g. "https://ledger.example.com/v1".
	BaseURL string

	// SessionToken is sent as a bearer token on every request. Acquiring
	// and refreshing it is the caller's concern.
	SessionToken string

	// Timeout bounds each request/response cycle. Zero means 30s.
	Timeout time.Duration
}

// Client talks to the ledger authority.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// New creates a Client from cfg.
func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: cfg.BaseURL,
		token:   cfg.SessionToken,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// doRequest builds, sends, and reads an HTTP request against the authority
// and returns the raw response body. Non-2xx statuses are mapped onto the
// domain error taxonomy with the response body attached for diagnosis.
func (c *Client) doRequest(ctx context.Context, method, path string, query url.Values, body any) ([]byte, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	fullURL := c.baseURL + path
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if err := checkHTTPStatus(resp.StatusCode, respBody); err != nil {
		return nil, err
	}

	return respBody, nil
}

// checkHTTPStatus maps non-2xx status codes to domain errors. Version
// conflicts (409/412) get their own sentinel so retry-with-refresh logic
// can be layered by callers; everything else unclassified surfaces the
// status and body untouched.
func checkHTTPStatus(statusCode int, body []byte) error {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}

	bodyStr := string(body)
	switch statusCode {
	case http.StatusConflict, http.StatusPreconditionFailed:
		return fmt.Errorf("%w: %s", domain.ErrVersionConflict, bodyStr)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", domain.ErrNotFound, bodyStr)
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return fmt.Errorf("%w: %s", domain.ErrValidation, bodyStr)
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %s", domain.ErrUnauthorized, bodyStr)
	default:
		return fmt.Errorf("HTTP %d: %s", statusCode, bodyStr)
	}
}
