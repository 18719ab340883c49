// Package provider holds the two ports.ProviderGateway implementations
// (providera, providerb) and the stdlib http.Client wiring shared between
// them. Grounded on the bat-go clients.SimpleHTTPClient pattern
// (libs/clients/client.go): a thin JSON-in/JSON-out wrapper around
// *http.Client, with upstream failures classified into the domain's
// ProviderError taxonomy rather than leaking raw net/http errors.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	domainerrors "github.com/ficore/vaswallet/internal/domain/errors"
)

// CallTimeout is the per-call budget §4.5/§5 puts on every provider HTTP
// call, enforced both by the http.Client and by honoring the caller's ctx -
// whichever fires first wins.
const CallTimeout = 12 * time.Second

// Client wraps http.Client for one provider's base URL, classifying
// transport/4xx/5xx failures per the ProviderGateway contract's documented
// error mapping.
type Client struct {
	BaseURL  *url.URL
	Provider string
	http     *http.Client
	logger   *slog.Logger
}

// NewClient builds a Client bound to baseURL with the shared 12s timeout.
func NewClient(providerName, baseURL string, logger *slog.Logger) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base url for provider %s: %w", providerName, err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		BaseURL:  u,
		Provider: providerName,
		http:     &http.Client{Timeout: CallTimeout},
		logger:   logger,
	}, nil
}

// DoRaw issues the request like DoJSON but skips status-code
// classification, returning whatever status and body came back verbatim.
// Provider B's vend quirk (§4.5: a 200 with an unreadable body, or a 403
// carrying success keywords in its body, both mean success) needs the raw
// response to apply its own success test rather than DoJSON's 2xx rule.
func (c *Client) DoRaw(ctx context.Context, method, path, authHeader string, body interface{}) (*http.Response, []byte, error) {
	resolved := c.BaseURL.ResolveReference(&url.URL{Path: path})

	var buf io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, nil, fmt.Errorf("encode request body: %w", err)
		}
		buf = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, resolved.String(), buf)
	if err != nil {
		return nil, nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("accept", "application/json")
	if body != nil {
		req.Header.Set("content-type", "application/json")
	}
	if authHeader != "" {
		req.Header.Set("authorization", authHeader)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, nil, &domainerrors.ProviderError{
			Kind:     domainerrors.ProviderUnreachable,
			Provider: c.Provider,
			Reason:   err.Error(),
			Err:      err,
		}
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, _ := io.ReadAll(resp.Body)
	return resp, respBody, nil
}

// DoJSON issues method to path (resolved against BaseURL), JSON-encoding
// body (nil for none) and JSON-decoding the response into out (nil to
// discard). bearer, if non-empty, is sent as "Authorization: Bearer ...".
// Non-2xx responses and transport failures are both surfaced as
// *domainerrors.ProviderError, classified per the gateway contract.
func (c *Client) DoJSON(ctx context.Context, method, path, bearer string, body, out interface{}) (*http.Response, []byte, error) {
	authHeader := ""
	if bearer != "" {
		authHeader = "Bearer " + bearer
	}
	return c.doJSONAuth(ctx, method, path, authHeader, body, out)
}

// DoJSONAuth is DoJSON with the full "Authorization" header value supplied
// verbatim, for providers whose auth scheme isn't "Bearer" (Provider B uses
// "Token <apiKey>", §6).
func (c *Client) DoJSONAuth(ctx context.Context, method, path, authHeader string, body, out interface{}) (*http.Response, []byte, error) {
	return c.doJSONAuth(ctx, method, path, authHeader, body, out)
}

func (c *Client) doJSONAuth(ctx context.Context, method, path, authHeader string, body, out interface{}) (*http.Response, []byte, error) {
	resolved := c.BaseURL.ResolveReference(&url.URL{Path: path})

	var buf io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, nil, fmt.Errorf("encode request body: %w", err)
		}
		buf = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, resolved.String(), buf)
	if err != nil {
		return nil, nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("accept", "application/json")
	if body != nil {
		req.Header.Set("content-type", "application/json")
	}
	if authHeader != "" {
		req.Header.Set("authorization", authHeader)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, nil, &domainerrors.ProviderError{
			Kind:     domainerrors.ProviderUnreachable,
			Provider: c.Provider,
			Reason:   err.Error(),
			Err:      err,
		}
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp, nil, &domainerrors.ProviderError{
			Kind:     domainerrors.ProviderUnreachable,
			Provider: c.Provider,
			Reason:   "failed reading response body: " + err.Error(),
			Err:      err,
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		kind := domainerrors.ProviderFailed
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			kind = domainerrors.ProviderRejected
		}
		c.logger.Warn("provider call failed",
			"provider", c.Provider, "status", resp.StatusCode, "path", path, "body", string(respBody))
		return resp, respBody, &domainerrors.ProviderError{
			Kind:     kind,
			Provider: c.Provider,
			Reason:   fmt.Sprintf("status %d: %s", resp.StatusCode, string(respBody)),
		}
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return resp, respBody, &domainerrors.ProviderError{
				Kind:     domainerrors.ProviderFailed,
				Provider: c.Provider,
				Reason:   "failed decoding response body: " + err.Error(),
				Err:      err,
			}
		}
	}

	return resp, respBody, nil
}
