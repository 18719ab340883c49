// Package providerb implements ports.ProviderGateway for Provider B: a
// single-step vend-only provider, no separate auth exchange, no biller
// catalog, no requery. Grounded on the bat-go zebpay client
// (libs/clients/zebpay/client.go) for a minimal single-endpoint gateway
// shape, adapted here for Provider B's documented success-detection quirk
// (§4.5): a 200 response with a body that doesn't parse as JSON, or a 403
// whose body nonetheless carries success keywords, both count as success.
package providerb

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/ficore/vaswallet/internal/application/ports"
	domainerrors "github.com/ficore/vaswallet/internal/domain/errors"
	"github.com/ficore/vaswallet/internal/infrastructure/provider"
)

// successKeywords are looked for, case-insensitively, in a non-200 vend
// response body before treating the call as failed (§4.5's documented
// quirk: Provider B sometimes answers a successful vend with HTTP 403).
var successKeywords = []string{"successful", "success", "approved"}

// Client implements ports.ProviderGateway against Provider B's single vend
// endpoint. apiKey is sent as a static bearer token on every call - there is
// no token exchange step to cache.
type Client struct {
	http   *provider.Client
	apiKey string
}

// NewClient builds a Provider B gateway client bound to baseURL.
func NewClient(baseURL, apiKey string, logger *slog.Logger) (*Client, error) {
	httpClient, err := provider.NewClient("PROVIDER_B", baseURL, logger)
	if err != nil {
		return nil, err
	}
	return &Client{http: httpClient, apiKey: apiKey}, nil
}

// Authenticate - Provider B has no separate auth step; the Orchestrator
// treats this as non-fatal and vends without a cached token (§4.5).
func (c *Client) Authenticate(ctx context.Context) (string, time.Duration, error) {
	return "", 0, domainerrors.ErrProviderHasNoAuthStep
}

// ListBillers - Provider B has no biller catalog; its products are
// pre-configured in the Router's code-translation table (§4.4), not
// fetched live.
func (c *Client) ListBillers(ctx context.Context, token string, category ports.BillerCategory) ([]ports.Biller, error) {
	return nil, nil
}

// ListProducts - see ListBillers.
func (c *Client) ListProducts(ctx context.Context, token string, billerCode string) ([]ports.BillerProduct, error) {
	return nil, nil
}

// ValidateCustomer - Provider B does not require pre-vend validation; no
// network call is made.
func (c *Client) ValidateCustomer(ctx context.Context, token, productCode, customerID string) (*ports.CustomerValidation, error) {
	return &ports.CustomerValidation{RequireValidationRef: false}, nil
}

type vendRequest struct {
	ProductCode string `json:"productCode"`
	CustomerID  string `json:"customerId"`
	Amount      int64  `json:"amount"`
	Reference   string `json:"reference"`
}

type vendResponse struct {
	TransactionReference string `json:"transactionReference"`
	ProductName          string `json:"productName"`
	Amount               int64  `json:"amount"`
	Commission           int64  `json:"commission"`
}

// Vend performs Provider B's single POST vend call and applies the
// documented success quirk before falling back to normal status
// classification.
func (c *Client) Vend(ctx context.Context, token string, req ports.VendRequest) (*ports.VendResult, error) {
	resp, body, err := c.http.DoRaw(ctx, "POST", "/vend", "Token "+c.apiKey, vendRequest{
		ProductCode: req.ProductCode,
		CustomerID:  req.CustomerID,
		Amount:      req.AmountMinorUnits,
		Reference:   req.VendReference,
	})
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == 200 {
		var decoded vendResponse
		if jsonErr := json.NewDecoder(bytes.NewReader(body)).Decode(&decoded); jsonErr != nil {
			// Documented quirk: 200 with an unreadable body still means success.
			return &ports.VendResult{
				Status:               ports.VendStatusSuccess,
				TransactionReference: req.VendReference,
				VendReference:        req.VendReference,
				VendAmountMinorUnits: req.AmountMinorUnits,
			}, nil
		}
		return &ports.VendResult{
			Status:               ports.VendStatusSuccess,
			TransactionReference: decoded.TransactionReference,
			VendReference:        req.VendReference,
			ProductName:          decoded.ProductName,
			VendAmountMinorUnits: decoded.Amount,
			CommissionMinorUnits: decoded.Commission,
		}, nil
	}

	if resp.StatusCode == 403 && containsSuccessKeyword(body) {
		return &ports.VendResult{
			Status:               ports.VendStatusSuccess,
			TransactionReference: req.VendReference,
			VendReference:        req.VendReference,
			VendAmountMinorUnits: req.AmountMinorUnits,
		}, nil
	}

	kind := domainerrors.ProviderFailed
	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		kind = domainerrors.ProviderRejected
	}
	return nil, &domainerrors.ProviderError{
		Kind:     kind,
		Provider: "PROVIDER_B",
		Reason:   string(body),
	}
}

func containsSuccessKeyword(body []byte) bool {
	lower := strings.ToLower(string(body))
	for _, kw := range successKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// Requery - Provider B does not support polling a vend's status; the
// Orchestrator's sleep-then-requery sequence never runs for this provider
// because Vend never returns VendStatusInProgress here.
func (c *Client) Requery(ctx context.Context, token, vendReference string) (*ports.VendResult, error) {
	return nil, domainerrors.ErrProviderHasNoRequery
}

var _ ports.ProviderGateway = (*Client)(nil)
