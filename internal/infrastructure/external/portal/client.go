// Package portal implements the academic portal API client. It handles
// sign-in and attendance retrieval for the monitor; everything it returns is
// already mapped into domain values, so callers never see wire formats.
package portal

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/rollcall-hub/attendance-monitor/internal/domain/attendance"
	"github.com/rollcall-hub/attendance-monitor/pkg/circuitbreaker"
	"github.com/rollcall-hub/attendance-monitor/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrUnauthorized is returned when the portal rejects the credentials
	// or the bearer token has expired.
	ErrUnauthorized = errors.New("portal: unauthorized")

	// ErrNotAuthenticated is returned when a request requiring a token is
	// made before Authenticate succeeded.
	ErrNotAuthenticated = errors.New("portal: not authenticated")
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// ClientConfig contains configuration for the portal client.
type ClientConfig struct {
	// BaseURL is the portal base URL.
	BaseURL string

	// Timeout is the HTTP request timeout.
	Timeout time.Duration

	// RateLimiterConfig paces requests to the portal.
	RateLimiterConfig RateLimiterConfig

	// CircuitBreakerConfig guards against a failing portal.
	CircuitBreakerConfig circuitbreaker.Config

	// RetryConfig for transient failures.
	RetryConfig retry.Config

	// Logger for structured logging.
	Logger *slog.Logger
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig(baseURL string) ClientConfig {
	return ClientConfig{
		BaseURL:              baseURL,
		Timeout:              30 * time.Second,
		RateLimiterConfig:    DefaultRateLimiterConfig(),
		CircuitBreakerConfig: circuitbreaker.DefaultConfig("portal"),
		RetryConfig:          retry.DefaultConfig(),
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// CLIENT
// ══════════════════════════════════════════════════════════════════════════════

// Client is the portal API client.
type Client struct {
	config         ClientConfig
	httpClient     *http.Client
	logger         *slog.Logger
	rateLimiter    *RateLimiter
	circuitBreaker *circuitbreaker.CircuitBreaker
	retrier        *retry.Retrier
	mapper         *Mapper

	// Token management
	token   *TokenDTO
	tokenMu sync.RWMutex
}

// NewClient creates a new portal API client.
func NewClient(config ClientConfig) *Client {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	retrier := retry.New(
		retry.WithMaxAttempts(config.RetryConfig.MaxAttempts),
		retry.WithInitialDelay(config.RetryConfig.InitialDelay),
		retry.WithMaxDelay(config.RetryConfig.MaxDelay),
	)

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		logger:         config.Logger,
		rateLimiter:    NewRateLimiter(config.RateLimiterConfig),
		circuitBreaker: circuitbreaker.New(config.CircuitBreakerConfig),
		retrier:        retrier,
		mapper:         NewMapper(),
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// AUTHENTICATION
// ══════════════════════════════════════════════════════════════════════════════

// Authenticate signs in with email and password. The portal uses a Basic
// auth header with base64(email:password) and answers with an access token
// that is stored on the client for subsequent requests.
func (c *Client) Authenticate(ctx context.Context, email, password string) error {
	fullURL := c.config.BaseURL + "/api/v1/auth/signin"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fullURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	credentials := email + ":" + password
	encoded := base64.StdEncoding.EncodeToString([]byte(credentials))
	req.Header.Set("Authorization", "Basic "+encoded)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return ErrUnauthorized
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("auth failed with status %d: %s", resp.StatusCode, string(respBody))
	}

	var token TokenDTO
	if err := json.Unmarshal(respBody, &token); err != nil {
		return fmt.Errorf("parse auth response: %w", err)
	}
	if token.TokenType == "" {
		token.TokenType = "Bearer"
	}

	c.tokenMu.Lock()
	c.token = &token
	c.tokenMu.Unlock()

	c.logger.Debug("portal sign-in succeeded")
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// ATTENDANCE
// ══════════════════════════════════════════════════════════════════════════════

// GetCourses fetches the student's course list with attendance counters, in
// the portal's display order.
func (c *Client) GetCourses(ctx context.Context) ([]attendance.Course, error) {
	var response APIResponse[CoursesDTO]
	if err := c.doRequest(ctx, http.MethodGet, "/api/v1/attendance/courses", &response); err != nil {
		return nil, fmt.Errorf("get courses: %w", err)
	}

	if !response.Success {
		return nil, fmt.Errorf("api error: %s", response.Error)
	}

	return c.mapper.CoursesFromDTO(&response.Data)
}

// ══════════════════════════════════════════════════════════════════════════════
// INTERNAL REQUEST PIPELINE
// ══════════════════════════════════════════════════════════════════════════════

// doRequest runs one authenticated API call through the rate limiter, the
// circuit breaker, and the retrier, then decodes the JSON response into out.
func (c *Client) doRequest(ctx context.Context, method, path string, out any) error {
	c.tokenMu.RLock()
	token := c.token
	c.tokenMu.RUnlock()
	if token == nil {
		return ErrNotAuthenticated
	}

	return c.retrier.Do(ctx, func(ctx context.Context) error {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return retry.Permanent(err)
		}

		return c.circuitBreaker.Execute(ctx, func(ctx context.Context) error {
			req, err := http.NewRequestWithContext(ctx, method, c.config.BaseURL+path, nil)
			if err != nil {
				return retry.Permanent(err)
			}
			req.Header.Set("Authorization", token.TokenType+" "+token.AccessToken)
			req.Header.Set("Accept", "application/json")

			resp, err := c.httpClient.Do(req)
			if err != nil {
				// Network errors are worth retrying.
				return retry.Retryable(err)
			}
			defer resp.Body.Close()

			body, err := io.ReadAll(resp.Body)
			if err != nil {
				return retry.Retryable(err)
			}

			switch {
			case resp.StatusCode == http.StatusUnauthorized:
				return retry.Permanent(ErrUnauthorized)
			case resp.StatusCode == http.StatusTooManyRequests,
				resp.StatusCode >= http.StatusInternalServerError:
				return retry.Retryable(fmt.Errorf("portal returned status %d", resp.StatusCode))
			case resp.StatusCode != http.StatusOK:
				return retry.Permanent(fmt.Errorf("portal returned status %d: %s", resp.StatusCode, string(body)))
			}

			if err := json.Unmarshal(body, out); err != nil {
				return retry.Permanent(fmt.Errorf("parse response: %w", err))
			}
			return nil
		})
	})
}
