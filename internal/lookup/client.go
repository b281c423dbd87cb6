package lookup

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spec-kit/imei-service/internal/domain"
)

const (
	defaultBaseURL   = "https://api.imeicheck.net"
	defaultServiceID = 12
	defaultTimeout   = 30 * time.Second
	maxErrorBody     = 512
)

// ErrUpstreamUnavailable marks every failure to obtain a device payload.
var ErrUpstreamUnavailable = errors.New("upstream unavailable")

// UpstreamError carries the cause of a failed lookup.
type UpstreamError struct {
	StatusCode int
	Err        error
}

func (e *UpstreamError) Error() string {
	return e.Err.Error()
}

func (e *UpstreamError) Unwrap() []error {
	return []error{ErrUpstreamUnavailable, e.Err}
}

// Config configures a Client.
type Config struct {
	BaseURL   string
	APIKey    string
	ServiceID int
	Timeout   time.Duration
}

// Client talks to the third-party device identity API.
type Client struct {
	baseURL    string
	apiKey     string
	serviceID  int
	httpClient *http.Client
}

func NewClient(cfg Config) *Client {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	serviceID := cfg.ServiceID
	if serviceID <= 0 {
		serviceID = defaultServiceID
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:    baseURL,
		apiKey:     strings.TrimSpace(cfg.APIKey),
		serviceID:  serviceID,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type checkRequest struct {
	DeviceID  string `json:"deviceId"`
	ServiceID int    `json:"serviceId"`
}

// Check submits imei to the lookup service and returns the decoded payload.
func (c *Client) Check(ctx context.Context, imei domain.IMEI) (domain.LookupDetails, error) {
	payload, err := json.Marshal(checkRequest{DeviceID: imei.String(), ServiceID: c.serviceID})
	if err != nil {
		return nil, &UpstreamError{Err: fmt.Errorf("encode request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/checks", bytes.NewReader(payload))
	if err != nil {
		return nil, &UpstreamError{Err: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept-Language", "en")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &UpstreamError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &UpstreamError{
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("%d %s for url: %s: %s", resp.StatusCode, http.StatusText(resp.StatusCode), req.URL, strings.TrimSpace(string(snippet))),
		}
	}

	var details domain.LookupDetails
	if err := json.NewDecoder(resp.Body).Decode(&details); err != nil {
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return details, nil
}
