package chucknorris

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"chuck-jokes/internal/config"
	"chuck-jokes/internal/models"
	"chuck-jokes/pkg/logger"
)

const maxBodySize = 1 << 20

var ErrUnparseable = errors.New("response is not a joke")

// TransportError is returned when the API is unreachable or answers with a non-2xx status.
type TransportError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("request to %s failed: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("request to %s returned status %d", e.URL, e.StatusCode)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

type Client struct {
	cfg    config.APIConfig
	client *http.Client
}

func New(cfg config.APIConfig, opts ...Option) *Client {
	c := &Client{
		cfg: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

type Option func(*Client)

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.client = client
	}
}

// Random fetches one random joke.
func (c *Client) Random(ctx context.Context) (*models.Joke, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &TransportError{URL: c.cfg.URL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &TransportError{URL: c.cfg.URL, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, &TransportError{URL: c.cfg.URL, StatusCode: resp.StatusCode, Err: err}
	}

	var joke models.Joke
	if err := json.Unmarshal(body, &joke); err != nil {
		logger.Debug("Failed to decode joke", logger.Err(err), logger.Int("bytes", len(body)))
		return nil, fmt.Errorf("%w: %v", ErrUnparseable, err)
	}
	if joke.ID == "" {
		return nil, fmt.Errorf("%w: empty id", ErrUnparseable)
	}
	// a cut id could collide with another joke's
	if len(joke.ID) > models.MaxExternalIDLength {
		return nil, fmt.Errorf("%w: id longer than %d bytes", ErrUnparseable, models.MaxExternalIDLength)
	}

	return &joke, nil
}
