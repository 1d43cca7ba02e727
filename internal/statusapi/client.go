// Package statusapi binds the familiarity status service: an HTTP client for
// the remote service and an in-memory resolver for local runs and tests.
package statusapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/gcbaptista/go-vocab-highlighter/model"
	"github.com/gcbaptista/go-vocab-highlighter/services"
)

const (
	defaultTimeout = 10 * time.Second
	retryDelay     = 500 * time.Millisecond
	maxBodyBytes   = 4 << 20
)

// ClientOptions configures a Client.
type ClientOptions struct {
	Token      string
	Timeout    time.Duration
	HTTPClient *http.Client
	Clock      clockwork.Clock
	Logger     *slog.Logger
}

// Client talks to the remote status service over JSON/HTTP.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	clock      clockwork.Clock
	log        *slog.Logger
}

var _ services.StatusResolver = (*Client)(nil)

type queryRequest struct {
	Lemmas []string `json:"lemmas"`
}

type queryResponse struct {
	Records []model.LemmaStatusRecord `json:"records"`
}

type updateRequest struct {
	Lemma            string        `json:"lemma"`
	Status           *model.Status `json:"status,omitempty"`
	FamiliarityLevel *int          `json:"familiarity_level,omitempty"`
}

type increaseRequest struct {
	Lemma string `json:"lemma"`
}

// NewClient creates a client for the service at baseURL.
func NewClient(baseURL string, opts ClientOptions) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("statusapi: base URL cannot be empty")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.HTTPClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		opts.HTTPClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		baseURL:    baseURL,
		token:      opts.Token,
		httpClient: opts.HTTPClient,
		clock:      opts.Clock,
		log:        opts.Logger.With("adapter", "statusapi"),
	}, nil
}

// QueryStatus implements services.StatusResolver with one round trip for the
// whole lemma set.
func (c *Client) QueryStatus(ctx context.Context, lemmas []string) (map[string]model.LemmaStatusRecord, error) {
	out := make(map[string]model.LemmaStatusRecord, len(lemmas))
	if len(lemmas) == 0 {
		return out, nil
	}

	var resp queryResponse
	if err := c.post(ctx, "/status/query", queryRequest{Lemmas: lemmas}, &resp); err != nil {
		return nil, err
	}
	for _, rec := range resp.Records {
		if rec.Lemma == "" {
			continue
		}
		if _, ok := model.ParseStatus(string(rec.Status)); !ok {
			rec.Status = model.StatusUnknown
		}
		rec.FamiliarityLevel = model.ClampFamiliarity(rec.FamiliarityLevel)
		out[rec.Lemma] = rec
	}

	c.log.DebugContext(ctx, "status query",
		slog.Int("lemmas", len(lemmas)),
		slog.Int("records", len(out)))
	return out, nil
}

// UpdateStatus implements services.StatusResolver.
func (c *Client) UpdateStatus(ctx context.Context, lemma string, status *model.Status, familiarityLevel *int) (model.UpdateResult, error) {
	var res model.UpdateResult
	err := c.post(ctx, "/status/update", updateRequest{Lemma: lemma, Status: status, FamiliarityLevel: familiarityLevel}, &res)
	return res, err
}

// IncreaseFamiliarity implements services.StatusResolver.
func (c *Client) IncreaseFamiliarity(ctx context.Context, lemma string) (model.UpdateResult, error) {
	var res model.UpdateResult
	err := c.post(ctx, "/status/increase", increaseRequest{Lemma: lemma}, &res)
	return res, err
}

func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("statusapi: encode request: %w", err)
	}

	resp, err := c.doWithRetry(ctx, path, payload)
	if err != nil {
		c.log.ErrorContext(ctx, "status request failed", slog.String("path", path), slog.String("error", err.Error()))
		return fmt.Errorf("statusapi: request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("statusapi: read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("statusapi: unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("statusapi: decode json: %w", err)
	}
	return nil
}

// doWithRetry executes the request with a single retry on 5xx or network errors.
func (c *Client) doWithRetry(ctx context.Context, path string, payload []byte) (*http.Response, error) {
	resp, err := c.do(ctx, path, payload)

	shouldRetry := err != nil || (resp != nil && resp.StatusCode >= 500)
	if !shouldRetry || ctx.Err() != nil {
		return resp, err
	}

	reason := "network error"
	if err == nil {
		reason = fmt.Sprintf("status %d", resp.StatusCode)
	}
	c.log.WarnContext(ctx, "status request retry", slog.String("path", path), slog.String("reason", reason))

	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}

	select {
	case <-c.clock.After(retryDelay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return c.do(ctx, path, payload)
}

func (c *Client) do(ctx context.Context, path string, payload []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return c.httpClient.Do(req)
}
