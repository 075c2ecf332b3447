package client

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

	"github.com/cenkalti/backoff/v4"

	"github.com/goliatone/go-granola/internal/logging"
	"github.com/goliatone/go-granola/pkg/interfaces"
)

// ErrBaseURLRequired is returned when the client is built without an
// endpoint.
var ErrBaseURLRequired = errors.New("granola client: base URL is required")

// ErrCredentialsMissing is returned when no usable access token is found.
var ErrCredentialsMissing = errors.New("granola client: access token is missing")

const pageSize = 100

// Config wires the fetch client.
type Config struct {
	BaseURL string
	// Token is used directly when set; otherwise CredentialsFile is loaded.
	Token           string
	CredentialsFile string
	HTTPClient      *http.Client
	MaxRetries      uint64
	// RetryInterval seeds the exponential backoff; zero keeps the default.
	RetryInterval time.Duration
	Timeout       time.Duration
	Logger        interfaces.Logger
}

// Client fetches documents from the Granola get-documents endpoint with
// exponential retry. The core never sees this type; it satisfies the
// DocumentFetcher boundary and nothing more.
type Client struct {
	baseURL       string
	token         string
	http          *http.Client
	maxRetries    uint64
	retryInterval time.Duration
	logger        interfaces.Logger
}

// New builds a fetch client, loading credentials when no token is supplied.
func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, ErrBaseURLRequired
	}
	token := cfg.Token
	if token == "" {
		if cfg.CredentialsFile == "" {
			return nil, ErrCredentialsMissing
		}
		loaded, err := LoadAccessToken(cfg.CredentialsFile)
		if err != nil {
			return nil, err
		}
		token = loaded
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NoOp()
	}
	return &Client{
		baseURL:       cfg.BaseURL,
		token:         token,
		http:          httpClient,
		maxRetries:    cfg.MaxRetries,
		retryInterval: cfg.RetryInterval,
		logger:        logger,
	}, nil
}

type pageRequest struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

type pageResponse struct {
	Docs []*interfaces.Document `json:"docs"`
}

// FetchDocuments pages through the endpoint until a short page signals the
// end of the collection.
func (c *Client) FetchDocuments(ctx context.Context) ([]*interfaces.Document, error) {
	var docs []*interfaces.Document
	for offset := 0; ; offset += pageSize {
		page, err := c.fetchPage(ctx, offset)
		if err != nil {
			return nil, err
		}
		docs = append(docs, page...)
		if len(page) < pageSize {
			break
		}
	}
	c.logger.Debug("client.fetch.complete", "documents", len(docs))
	return docs, nil
}

// fetchPage requests one page, retrying transient failures with exponential
// backoff. Client-side errors (4xx) and payload validation failures are
// permanent.
func (c *Client) fetchPage(ctx context.Context, offset int) ([]*interfaces.Document, error) {
	var page []*interfaces.Document
	operation := func() error {
		result, err := c.requestPage(ctx, offset)
		if err != nil {
			return err
		}
		page = result
		return nil
	}

	policy := backoff.NewExponentialBackOff()
	if c.retryInterval > 0 {
		policy.InitialInterval = c.retryInterval
	}
	wrapped := backoff.WithContext(backoff.WithMaxRetries(policy, c.maxRetries), ctx)
	if err := backoff.Retry(operation, wrapped); err != nil {
		return nil, err
	}
	return page, nil
}

func (c *Client) requestPage(ctx context.Context, offset int) ([]*interfaces.Document, error) {
	body, err := json.Marshal(pageRequest{Limit: pageSize, Offset: offset})
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("granola client: network request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("granola client: network read failed: %w", err)
	}
	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("granola client: network error: status %d", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, backoff.Permanent(fmt.Errorf("granola client: request rejected: status %d", resp.StatusCode))
	}

	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, backoff.Permanent(fmt.Errorf("granola client: invalid response payload: %w", err))
	}
	if err := payloadSchema.Validate(decoded); err != nil {
		return nil, backoff.Permanent(fmt.Errorf("granola client: response payload failed validation: %w", err))
	}

	var page pageResponse
	if err := json.Unmarshal(raw, &page); err != nil {
		return nil, backoff.Permanent(fmt.Errorf("granola client: invalid response payload: %w", err))
	}
	return page.Docs, nil
}

var _ interfaces.DocumentFetcher = (*Client)(nil)
