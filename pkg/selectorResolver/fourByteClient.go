package selectorResolver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type SignatureKind string

const (
	SignatureKind_Function SignatureKind = "function"
	SignatureKind_Event    SignatureKind = "event"
)

var (
	// ErrRateLimited is returned for HTTP 429 and may be retried.
	ErrRateLimited = errors.New("signature lookup was rate limited")
	// ErrUnexpectedStatus is returned for any other non-200 status and is not retried.
	ErrUnexpectedStatus = errors.New("signature lookup returned an unexpected status")
)

// IsRetryable reports whether a failed lookup may succeed when tried again.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	return !errors.Is(err, ErrUnexpectedStatus) && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

type FourByteClientConfig struct {
	FunctionUrl string
	EventUrl    string
	Timeout     time.Duration
}

type SignatureResult struct {
	Id            int64  `json:"id"`
	TextSignature string `json:"text_signature"`
}

type SignatureResponse struct {
	Count   int                `json:"count"`
	Results []*SignatureResult `json:"results"`
}

// FourByteClient looks selectors up in a 4byte-directory style API.
type FourByteClient struct {
	httpClient *http.Client
	config     *FourByteClientConfig
	logger     *zap.Logger
}

func DefaultHttpClient(timeout time.Duration) *http.Client {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &http.Client{
		Timeout: timeout,
	}
}

func NewFourByteClient(cfg *FourByteClientConfig, l *zap.Logger) *FourByteClient {
	return &FourByteClient{
		httpClient: DefaultHttpClient(cfg.Timeout),
		config:     cfg,
		logger:     l,
	}
}

func (c *FourByteClient) SetHttpClient(client *http.Client) {
	c.httpClient = client
}

func (c *FourByteClient) baseUrl(kind SignatureKind) string {
	if kind == SignatureKind_Event {
		return c.config.EventUrl
	}
	return c.config.FunctionUrl
}

// Lookup resolves one selector.
//
// Returns:
//   - string: "<selector>(unknown)" when the directory has no candidate, the only
//     candidate, or the candidate with the lowest id when there are several
//   - error: ErrRateLimited, ErrUnexpectedStatus, or a transport/decode error
func (c *FourByteClient) Lookup(ctx context.Context, kind SignatureKind, selector string) (string, error) {
	url := c.baseUrl(kind) + selector

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("accept", "application/json")

	c.logger.Sugar().Debugw("Making signature lookup request",
		zap.String("url", url),
		zap.String("kind", string(kind)),
		zap.String("selector", selector),
	)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return "", errors.Wrapf(ErrRateLimited, "selector %s", selector)
	}
	if resp.StatusCode != http.StatusOK {
		return "", errors.Wrapf(ErrUnexpectedStatus, "selector %s: status %d: %s", selector, resp.StatusCode, string(body))
	}

	var response SignatureResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return pickSignature(selector, &response), nil
}

func pickSignature(selector string, response *SignatureResponse) string {
	var best *SignatureResult
	for _, r := range response.Results {
		if r == nil || r.TextSignature == "" {
			continue
		}
		if best == nil || r.Id < best.Id {
			best = r
		}
	}
	if response.Count == 0 || best == nil {
		return fmt.Sprintf("%s(unknown)", selector)
	}
	return best.TextSignature
}
