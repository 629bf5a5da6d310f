package sampleexport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	service "github.com/okian/compass-wrapped/internal/app"
	"github.com/okian/compass-wrapped/internal/domain/model"
	"github.com/okian/compass-wrapped/internal/domain/types"
)

// ErrStatus is returned for unexpected HTTP statuses.
var ErrStatus = errors.New("unexpected status")

// Client talks to a running Compass Wrapped server.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a client with the given request timeout. Requests carry
// the current trace context to the server.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		client: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   timeout,
		},
	}
}

// Health checks the liveness endpoint.
func (c *Client) Health(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodGet, "/healthz", nil, "")
	if err != nil {
		return err
	}
	_, err = readResponseBody(resp, http.StatusOK)
	return err
}

// Analyze uploads an export and returns its analysis. A 400 carrying an
// analysis body is decoded and returned together with the error.
func (c *Client) Analyze(ctx context.Context, exp *Export) (*service.AnalysisResponse, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", exp.Filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := fw.Write(exp.Data); err != nil {
		return nil, fmt.Errorf("failed to write form file: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart body: %w", err)
	}

	path := "/analytics/analyze/"
	if exp.Estimate > 0 {
		path += "?" + url.Values{"estimated_trips_per_week": {strconv.Itoa(exp.Estimate)}}.Encode()
	}
	resp, err := c.do(ctx, http.MethodPost, path, &buf, mw.FormDataContentType())
	if err != nil {
		return nil, err
	}
	body, statusErr := readResponseBody(resp, http.StatusOK)

	var out service.AnalysisResponse
	if err := json.Unmarshal(body, &out); err != nil || out.Result == nil {
		if statusErr != nil {
			return nil, statusErr
		}
		return nil, fmt.Errorf("failed to decode analysis: %w", err)
	}
	return &out, statusErr
}

// Submit posts a user stats record.
func (c *Client) Submit(ctx context.Context, stats *model.UserStats) (*types.UserStatsResponse, error) {
	data, err := json.Marshal(stats)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal user stats: %w", err)
	}
	resp, err := c.do(ctx, http.MethodPost, "/stats/user", bytes.NewReader(data), "application/json")
	if err != nil {
		return nil, err
	}
	return decodeUserStats(resp)
}

// Lookup ranks the latest record of userID.
func (c *Client) Lookup(ctx context.Context, userID string) (*types.UserStatsResponse, error) {
	resp, err := c.do(ctx, http.MethodGet, "/stats/user/"+url.PathEscape(userID), nil, "")
	if err != nil {
		return nil, err
	}
	return decodeUserStats(resp)
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("X-Request-Id", uuid.NewString())
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	return resp, nil
}

func decodeUserStats(resp *http.Response) (*types.UserStatsResponse, error) {
	body, err := readResponseBody(resp, http.StatusOK)
	if err != nil {
		return nil, err
	}
	var out types.UserStatsResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("failed to decode user stats response: %w", err)
	}
	return &out, nil
}

// readResponseBody reads and closes the response body. A status other than
// want is reported as ErrStatus alongside the body.
func readResponseBody(resp *http.Response, want int) ([]byte, error) {
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != want {
		return body, fmt.Errorf("%w: %d: %s", ErrStatus, resp.StatusCode, bytes.TrimSpace(body))
	}
	return body, nil
}
