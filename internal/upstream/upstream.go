package upstream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/sony/gobreaker"
)

// Failure kinds shared by every upstream adapter. Each call maps its
// transport outcome onto exactly one of these so callers can branch with
// errors.Is without knowing which API misbehaved.
var (
	ErrUnauthorized      = errors.New("upstream: unauthorized")
	ErrRateLimited       = errors.New("upstream: rate limited")
	ErrUnreachable       = errors.New("upstream: unreachable")
	ErrMalformedResponse = errors.New("upstream: malformed response")
)

var errNoHTTPClient = errors.New("upstream: http client not configured")

// maxErrorBody bounds how much of an error body is kept for classification.
const maxErrorBody = 2048

// Config bundles the HTTP client shared by outbound calls.
type Config struct {
	Client *http.Client
}

// StatusError records a non-2xx response. Kind is one of the failure kinds
// above; Body holds a snippet of the upstream error payload so adapters can
// refine the classification (some APIs report auth failures as 400s).
type StatusError struct {
	Code int
	Kind error
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%v: status %d", e.Kind, e.Code)
}

func (e *StatusError) Unwrap() error {
	return e.Kind
}

// NewBreaker returns a circuit breaker with the settings shared by all
// upstream adapters.
func NewBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})
}

// Do executes a single HTTP request through the circuit breaker and
// classifies the outcome. It never retries; callers own retry policy.
func Do(
	ctx context.Context,
	cfg Config,
	cb *gobreaker.CircuitBreaker,
	buildRequest func() (*http.Request, error),
) (*http.Response, error) {
	if cfg.Client == nil {
		return nil, errNoHTTPClient
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}

	req, err := buildRequest()
	if err != nil {
		return nil, err
	}

	// Ensure the request obeys context cancellation.
	req = req.WithContext(ctx)

	result, err := cb.Execute(func() (interface{}, error) {
		resp, execErr := cfg.Client.Do(req)
		if execErr != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnreachable, execErr)
		}

		kind := classifyStatus(resp.StatusCode)
		if kind == nil {
			return resp, nil
		}

		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		resp.Body.Close()
		return nil, &StatusError{Code: resp.StatusCode, Kind: kind, Body: string(snippet)}
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: circuit open: %v", ErrUnreachable, err)
		}
		return nil, err
	}

	resp, ok := result.(*http.Response)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected result type from circuit breaker", ErrMalformedResponse)
	}
	return resp, nil
}

// classifyStatus maps a status code onto a failure kind, or nil for 2xx.
func classifyStatus(code int) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return ErrUnauthorized
	case code == http.StatusTooManyRequests:
		return ErrRateLimited
	case code >= 500:
		return ErrUnreachable
	default:
		return ErrMalformedResponse
	}
}

// DecodeJSON drains and decodes a response body, classifying decode
// failures as malformed.
func DecodeJSON(resp *http.Response, v interface{}) error {
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}
