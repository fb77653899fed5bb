package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
	"text2phenotype.com/sdoh/logger"
	"text2phenotype.com/sdoh/types"
)

type Config struct {
	BaseURL    string        `envconfig:"SDOH_API_BASE_URL" default:"http://localhost:3000"`
	Timeout    time.Duration `envconfig:"SDOH_API_TIMEOUT" default:"10s"`
	MaxRetries int           `envconfig:"SDOH_AUTOSAVE_MAX_RETRIES" default:"3"`
	RetryDelay time.Duration `envconfig:"SDOH_AUTOSAVE_RETRY_DELAY" default:"1s"`
}

// StatusError reports a non-2xx response.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d", e.Method, e.Path, e.Code)
}

// Client talks to the screening service over HTTP.
type Client struct {
	config       Config
	baseURL      *url.URL
	httpClient   *http.Client
	clientLogger zerolog.Logger
	sleep        func(ctx context.Context, d time.Duration) error
}

func NewClientFromEnv() (*Client, error) {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		return nil, err
	}
	return NewClient(config)
}

func NewClient(config Config) (*Client, error) {
	baseURL, err := url.Parse(strings.TrimRight(config.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	return &Client{
		config:       config,
		baseURL:      baseURL,
		httpClient:   &http.Client{Timeout: config.Timeout},
		clientLogger: logger.NewLogger("Screening API client"),
		sleep:        sleepContext,
	}, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func screeningPath(token string, suffix ...string) string {
	return "/public/screening/" + url.PathEscape(token) + strings.Join(suffix, "")
}

func (c *Client) Fetch(ctx context.Context, token string) (*types.ScreeningResponse, error) {
	var response types.ScreeningResponse
	err := c.do(ctx, http.MethodGet, screeningPath(token), nil, &response)
	var statusErr *StatusError
	if errors.As(err, &statusErr) && statusErr.Code == http.StatusNotFound {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, err
	}
	return &response, nil
}

// Patch retries transport failures and server errors up to MaxRetries times,
// waiting RetryDelay × attempt between them. Other client errors are returned
// at once.
func (c *Client) Patch(ctx context.Context, token string, payload types.UpdatePayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	reqLogger := logger.WithToken(c.clientLogger, token)
	for attempt := 0; ; attempt++ {
		err = c.do(ctx, http.MethodPatch, screeningPath(token), body, nil)
		if err == nil {
			return nil
		}
		if !retryable(err) {
			reqLogger.Err(err).Msg("Autosave rejected")
			return err
		}
		if attempt >= c.config.MaxRetries {
			reqLogger.Err(err).Msgf("Autosave failed after %d attempts", attempt+1)
			return err
		}
		delay := c.config.RetryDelay * time.Duration(attempt+1)
		reqLogger.Debug().Err(err).Dur("retry_in", delay).Msg("Autosave attempt failed, retrying")
		if sleepErr := c.sleep(ctx, delay); sleepErr != nil {
			return err
		}
	}
}

func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		switch {
		case statusErr.Code >= 500:
			return true
		case statusErr.Code == http.StatusRequestTimeout, statusErr.Code == http.StatusTooManyRequests:
			return true
		}
		return false
	}
	return true
}

// Submit is not retried. Error responses that carry a submit body are
// returned as that body.
func (c *Client) Submit(ctx context.Context, token string) (*types.SubmitResponse, error) {
	var response types.SubmitResponse
	err := c.do(ctx, http.MethodPost, screeningPath(token, "/submit"), nil, &response)
	var statusErr *StatusError
	if errors.As(err, &statusErr) && statusErr.Body != "" {
		var rejected types.SubmitResponse
		if jsonErr := json.Unmarshal([]byte(statusErr.Body), &rejected); jsonErr == nil {
			return &rejected, nil
		}
	}
	if err != nil {
		return nil, err
	}
	return &response, nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, out interface{}) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.String()+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return fmt.Errorf("%s %s: %w", method, redactPath(path), urlErr.Err)
	}
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// The path contains the bearer token.
		return &StatusError{Method: method, Path: redactPath(path), Code: resp.StatusCode, Body: string(b)}
	}
	if out == nil || len(b) == 0 {
		return nil
	}
	if err = json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("decode %s response: %w", method, err)
	}
	return nil
}

func redactPath(path string) string {
	parts := strings.Split(path, "/")
	if len(parts) > 3 {
		parts[3] = "***"
	}
	return strings.Join(parts, "/")
}
