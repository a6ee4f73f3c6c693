package gateway

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

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/avstrong/resortslots/internal/logger"
)

const maxBodySize = 1 << 20

type Conf struct {
	L          *logger.Logger
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
	// Backoff is multiplied by attempt squared between retries.
	Backoff time.Duration
	// HTTPClient overrides the default client built from Timeout.
	HTTPClient *http.Client
}

// Client talks to the resort's REST API. Every call runs behind one circuit
// breaker and is retried on transport errors and 5xx responses.
type Client struct {
	l          *logger.Logger
	baseURL    string
	http       *http.Client
	cb         *gobreaker.CircuitBreaker
	tracer     trace.Tracer
	maxRetries int
	backoff    time.Duration
}

type response struct {
	status int
	body   []byte
}

func New(conf Conf) *Client {
	httpClient := conf.HTTPClient
	if httpClient == nil {
		//nolint:exhaustruct
		httpClient = &http.Client{Timeout: conf.Timeout}
	}

	maxRetries := conf.MaxRetries
	if maxRetries < 1 {
		maxRetries = 1
	}

	l := conf.L

	//nolint:exhaustruct
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name: "ResortAPI",
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			l.LogInfo("Circuit breaker %s state changed from %s to %s", name, from, to)
		},
	})

	return &Client{
		l:          l,
		baseURL:    strings.TrimRight(conf.BaseURL, "/"),
		http:       httpClient,
		cb:         cb,
		tracer:     otel.Tracer("github.com/avstrong/resortslots/internal/gateway"),
		maxRetries: maxRetries,
		backoff:    conf.Backoff,
	}
}

func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	if statusErr := IsStatusError(err); statusErr != nil {
		return statusErr.Status >= http.StatusInternalServerError
	}

	return true
}

func retryWithBackoff(ctx context.Context, maxRetries int, backoff time.Duration, operation func() (*response, error)) (*response, error) {
	var lastErr error

	for attempt := 1; attempt <= maxRetries; attempt++ {
		resp, err := operation()
		if err == nil {
			return resp, nil
		}

		lastErr = err

		if !retryable(err) || attempt == maxRetries {
			break
		}

		timer := time.NewTimer(time.Duration(attempt*attempt) * backoff)

		select {
		case <-ctx.Done():
			timer.Stop()

			return nil, fmt.Errorf("retry after attempt %d: %w", attempt, ctx.Err())
		case <-timer.C:
		}
	}

	return nil, lastErr
}

func (c *Client) send(ctx context.Context, method, path string, body []byte, headers map[string]string) (*response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("Accept", "application/json")

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, &StatusError{Status: resp.StatusCode, Body: string(raw)}
	}

	return &response{status: resp.StatusCode, body: raw}, nil
}

// do performs one logical call. Only 5xx and transport failures count against
// the breaker; any 4xx is returned to the caller as a response.
func (c *Client) do(ctx context.Context, name, method, path string, payload any, headers map[string]string) (*response, error) {
	ctx, span := c.tracer.Start(ctx, name)
	defer span.End()

	span.SetAttributes(attribute.String("http.method", method), attribute.String("http.path", path))

	var body []byte

	if payload != nil {
		var err error

		body, err = json.Marshal(payload)
		if err != nil {
			span.SetStatus(codes.Error, err.Error())

			return nil, fmt.Errorf("encode %s %s payload: %w", method, path, err)
		}
	}

	result, err := c.cb.Execute(func() (interface{}, error) {
		return retryWithBackoff(ctx, c.maxRetries, c.backoff, func() (*response, error) {
			return c.send(ctx, method, path, body, headers)
		})
	})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())

		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%s %s: %w", method, path, ErrUnavailable)
		}

		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}

	resp, ok := result.(*response)
	if !ok {
		span.SetStatus(codes.Error, "unexpected result type")

		return nil, fmt.Errorf("%s %s: unexpected result type %T", method, path, result)
	}

	span.SetAttributes(attribute.Int("http.status_code", resp.status))

	if resp.status >= http.StatusBadRequest {
		span.SetStatus(codes.Error, http.StatusText(resp.status))
	} else {
		span.SetStatus(codes.Ok, "")
	}

	return resp, nil
}

func decode(resp *response, out any) error {
	if err := json.Unmarshal(resp.body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}

func expectOK(resp *response, what string) error {
	switch resp.status {
	case http.StatusOK:
		return nil
	case http.StatusNotFound:
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%s: %w", what, ErrUnauthorized)
	default:
		return fmt.Errorf("%s: %w", what, &StatusError{Status: resp.status, Body: string(resp.body)})
	}
}
