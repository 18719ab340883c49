// Package providera implements ports.ProviderGateway for Provider A, the
// multi-step bill-pay provider (§4.5): bearer auth, biller/product catalog
// browsing, customer validation, vend, and requery. Grounded on the bat-go
// bitflyer client (libs/clients/bitflyer/client.go) for the
// authenticate-then-bearer-authorize shape.
package providera

import (
	"context"
	"log/slog"
	"time"

	"github.com/ficore/vaswallet/internal/application/ports"
	"github.com/ficore/vaswallet/internal/infrastructure/provider"
)

// Client implements ports.ProviderGateway against Provider A's REST API.
type Client struct {
	http      *provider.Client
	apiKey    string
	apiSecret string
}

// NewClient builds a Provider A gateway client bound to baseURL.
func NewClient(baseURL, apiKey, apiSecret string, logger *slog.Logger) (*Client, error) {
	httpClient, err := provider.NewClient("PROVIDER_A", baseURL, logger)
	if err != nil {
		return nil, err
	}
	return &Client{http: httpClient, apiKey: apiKey, apiSecret: apiSecret}, nil
}

type authRequest struct {
	APIKey    string `json:"apiKey"`
	APISecret string `json:"apiSecret"`
}

type authResponse struct {
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expiresInSeconds"`
}

// Authenticate performs §4.5 step 1: exchange the configured API
// credentials for a bearer token. Callers normally go through the
// ports.TokenCache instead of calling this directly on every purchase.
func (c *Client) Authenticate(ctx context.Context) (string, time.Duration, error) {
	var resp authResponse
	_, _, err := c.http.DoJSON(ctx, "POST", "/auth", "", authRequest{APIKey: c.apiKey, APISecret: c.apiSecret}, &resp)
	if err != nil {
		return "", 0, err
	}
	return resp.Token, time.Duration(resp.ExpiresIn) * time.Second, nil
}

type billerResponse struct {
	BillerCode string `json:"billerCode"`
	Name       string `json:"name"`
}

// ListBillers performs §4.5 step 2: GET billers by category.
func (c *Client) ListBillers(ctx context.Context, token string, category ports.BillerCategory) ([]ports.Biller, error) {
	var resp []billerResponse
	_, _, err := c.http.DoJSON(ctx, "GET", "/billers?category="+string(category), token, nil, &resp)
	if err != nil {
		return nil, err
	}
	billers := make([]ports.Biller, len(resp))
	for i, b := range resp {
		billers[i] = ports.Biller{BillerCode: b.BillerCode, Name: b.Name}
	}
	return billers, nil
}

type productResponse struct {
	ProductCode string `json:"productCode"`
	Name        string `json:"name"`
	Amount      int64  `json:"amount"`
}

// ListProducts performs §4.5 step 3: GET products for one biller.
func (c *Client) ListProducts(ctx context.Context, token string, billerCode string) ([]ports.BillerProduct, error) {
	var resp []productResponse
	_, _, err := c.http.DoJSON(ctx, "GET", "/billers/"+billerCode+"/products", token, nil, &resp)
	if err != nil {
		return nil, err
	}
	products := make([]ports.BillerProduct, len(resp))
	for i, p := range resp {
		products[i] = ports.BillerProduct{ProductCode: p.ProductCode, Name: p.Name, Amount: p.Amount}
	}
	return products, nil
}

type validateCustomerRequest struct {
	ProductCode string `json:"productCode"`
	CustomerID  string `json:"customerId"`
}

type validateCustomerResponse struct {
	ValidationReference  string `json:"validationReference"`
	RequireValidationRef bool   `json:"requireValidationRef"`
	CustomerName         string `json:"customerName"`
}

// ValidateCustomer performs §4.5 step 4: POST validate-customer.
func (c *Client) ValidateCustomer(ctx context.Context, token, productCode, customerID string) (*ports.CustomerValidation, error) {
	var resp validateCustomerResponse
	_, _, err := c.http.DoJSON(ctx, "POST", "/validate-customer", token,
		validateCustomerRequest{ProductCode: productCode, CustomerID: customerID}, &resp)
	if err != nil {
		return nil, err
	}
	return &ports.CustomerValidation{
		ValidationReference:  resp.ValidationReference,
		RequireValidationRef: resp.RequireValidationRef,
		CustomerName:         resp.CustomerName,
	}, nil
}

type vendRequest struct {
	ProductCode         string `json:"productCode"`
	CustomerID          string `json:"customerId"`
	Amount              int64  `json:"amount"`
	Reference           string `json:"reference"`
	ValidationReference string `json:"validationReference,omitempty"`
}

type vendResponse struct {
	Status               string `json:"status"`
	TransactionReference string `json:"transactionReference"`
	VendReference        string `json:"vendReference"`
	ProductName          string `json:"productName"`
	Amount               int64  `json:"amount"`
	Commission           int64  `json:"commission"`
}

func (r vendResponse) toResult() *ports.VendResult {
	return &ports.VendResult{
		Status:               ports.VendStatus(r.Status),
		TransactionReference: r.TransactionReference,
		VendReference:        r.VendReference,
		ProductName:          r.ProductName,
		VendAmountMinorUnits: r.Amount,
		CommissionMinorUnits: r.Commission,
	}
}

// Vend performs §4.5 step 5: POST vend. A response of IN_PROGRESS is
// returned as-is; the Orchestrator owns the sleep-then-requery sequence.
func (c *Client) Vend(ctx context.Context, token string, req ports.VendRequest) (*ports.VendResult, error) {
	var resp vendResponse
	_, _, err := c.http.DoJSON(ctx, "POST", "/vend", token, vendRequest{
		ProductCode:         req.ProductCode,
		CustomerID:          req.CustomerID,
		Amount:              req.AmountMinorUnits,
		Reference:           req.VendReference,
		ValidationReference: req.ValidationReference,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return resp.toResult(), nil
}

// Requery performs §4.5 step 6: GET requery?reference=.
func (c *Client) Requery(ctx context.Context, token, vendReference string) (*ports.VendResult, error) {
	var resp vendResponse
	_, _, err := c.http.DoJSON(ctx, "GET", "/requery?reference="+vendReference, token, nil, &resp)
	if err != nil {
		return nil, err
	}
	return resp.toResult(), nil
}

var _ ports.ProviderGateway = (*Client)(nil)
