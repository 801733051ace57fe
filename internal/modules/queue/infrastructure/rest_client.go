package infrastructure

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

const maxResponseBytes = 4 << 20

// RESTClient wraps http.Client with base URL handling to avoid duplicating boilerplate in adapters.
type RESTClient struct {
	baseURL string
	client  *http.Client
}

func NewRESTClient(baseURL string, timeout time.Duration, client *http.Client) *RESTClient {
	trimmed := strings.TrimSpace(baseURL)
	if trimmed == "" {
		trimmed = "http://localhost:3000"
	}
	trimmed = strings.TrimRight(trimmed, "/")
	if client == nil {
		client = &http.Client{Timeout: timeoutOrDefault(timeout)}
	} else if timeout > 0 && client.Timeout != timeout {
		// Never mutate the caller's client.
		copied := *client
		copied.Timeout = timeout
		client = &copied
	}
	return &RESTClient{baseURL: trimmed, client: client}
}

// URL joins endpoint onto the base URL. An empty endpoint targets the base URL itself.
func (c *RESTClient) URL(endpoint string) string {
	trimmed := strings.Trim(strings.TrimSpace(endpoint), "/")
	if trimmed == "" {
		return c.baseURL
	}
	return c.baseURL + "/" + trimmed
}

func (c *RESTClient) NewRequest(ctx context.Context, method, endpoint string, body io.Reader) (*http.Request, error) {
	return http.NewRequestWithContext(ctx, method, c.URL(endpoint), body)
}

// NewJSONRequest encodes payload and sets the JSON content headers.
func (c *RESTClient) NewJSONRequest(ctx context.Context, method, endpoint string, payload any) (*http.Request, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	req, err := c.NewRequest(ctx, method, endpoint, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func (c *RESTClient) Do(req *http.Request) (*http.Response, error) {
	return c.client.Do(req)
}

func readBody(res *http.Response) ([]byte, error) {
	return io.ReadAll(io.LimitReader(res.Body, maxResponseBytes))
}

func timeoutOrDefault(value time.Duration) time.Duration {
	if value <= 0 {
		return 10 * time.Second
	}
	return value
}

func isSuccessStatus(code int) bool {
	return code >= 200 && code < 300
}

func truncateBody(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) > 512 {
		return text[:512] + "..."
	}
	return text
}
