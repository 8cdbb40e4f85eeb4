package lamini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/zoobzio/capitan"
)

// sdkVersion is reported to the platform on every exchange.
const sdkVersion = "0.1.0"

// webClient is the transport boundary. The streaming session, pipeline
// queue, and auxiliary clients all talk to the platform through it, which
// keeps tests free of real network exchanges.
type webClient interface {
	post(ctx context.Context, url string, payload, out any) error
	get(ctx context.Context, url string, out any) error
}

// restClient performs one scoped HTTP exchange per call: the request is
// built, sent, and its connection released before returning. No connection
// state is retained between polls beyond the standard library's pooling.
type restClient struct {
	apiKey     string
	httpClient *http.Client
}

func newRestClient(apiKey string, timeout time.Duration) *restClient {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &restClient{
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *restClient) post(ctx context.Context, url string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}
	return c.do(ctx, http.MethodPost, url, bytes.NewReader(body), out)
}

func (c *restClient) get(ctx context.Context, url string, out any) error {
	return c.do(ctx, http.MethodGet, url, nil, out)
}

func (c *restClient) do(ctx context.Context, method, url string, body io.Reader, out any) error {
	startTime := time.Now()

	capitan.Info(ctx, CallStarted,
		URLKey.Field(url),
	)

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Lamini-Version", sdkVersion)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		duration := time.Since(startTime)
		capitan.Error(ctx, CallFailed,
			URLKey.Field(url),
			ErrorKey.Field(err.Error()),
			DurationMsKey.Field(int(duration.Milliseconds())),
		)
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		if os.IsTimeout(err) {
			return &APIError{Detail: "request timeout: the server did not respond in time"}
		}
		return &APIError{Detail: err.Error()}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &APIError{Detail: fmt.Sprintf("failed to read response: %v", err)}
	}

	duration := time.Since(startTime)

	if resp.StatusCode != http.StatusOK {
		typed := errorFromStatus(resp.StatusCode, errorDetail(respBody))
		capitan.Error(ctx, CallFailed,
			URLKey.Field(url),
			HTTPStatusCodeKey.Field(resp.StatusCode),
			ErrorKey.Field(typed.Error()),
			DurationMsKey.Field(int(duration.Milliseconds())),
		)
		return typed
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return &APIError{StatusCode: resp.StatusCode, Detail: fmt.Sprintf("failed to parse response: %v", err)}
		}
	}

	capitan.Info(ctx, CallCompleted,
		URLKey.Field(url),
		HTTPStatusCodeKey.Field(resp.StatusCode),
		DurationMsKey.Field(int(duration.Milliseconds())),
	)
	return nil
}

// errorDetail extracts the platform's {"detail": "..."} error body.
func errorDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return ""
	}
	return parsed.Detail
}
