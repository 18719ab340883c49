package purchase

import (
	"context"
	"sort"

	"github.com/ficore/vaswallet/internal/application/dtos"
	"github.com/ficore/vaswallet/internal/application/ports"
	"github.com/ficore/vaswallet/internal/domain/errors"
	"github.com/ficore/vaswallet/internal/domain/router"
)

// CatalogUseCase serves the read-only browse endpoints (§6 GET
// /purchase/networks/{airtime|data}, /purchase/data-plans/{network},
// /purchase/data-plan-types/{network}). It talks to the same
// ports.ProviderGateway map and router.Router the Orchestrator uses, but
// never mutates a wallet or transaction - these are catalogue lookups, not
// purchases.
type CatalogUseCase struct {
	router     *router.Router
	gateways   map[router.Provider]ports.ProviderGateway
	tokenCache ports.TokenCache
	// networksByCategory lists the networks the app exposes for a given
	// product category; the provider catalog only speaks in biller codes,
	// so the network/display-name mapping is carried here per §6's
	// "provider-derived network list with fallback".
	networksByCategory map[ports.BillerCategory][]NetworkOption
	// planTypesByNetwork mirrors the router's own table (network -> labels)
	// for the plan-type enumeration endpoint.
	planTypesByNetwork map[string][]string
}

// NetworkOption is one network entry returned by the networks endpoint.
type NetworkOption struct {
	Code string
	Name string
}

// NewCatalogUseCase builds a CatalogUseCase. networksByCategory and
// planTypesByNetwork are the static fallback tables used when a provider's
// live catalog call fails (§6: "fallback" is explicit in the route's
// purpose for both networks and data-plans endpoints).
func NewCatalogUseCase(
	r *router.Router,
	gateways map[router.Provider]ports.ProviderGateway,
	tokenCache ports.TokenCache,
	networksByCategory map[ports.BillerCategory][]NetworkOption,
	planTypesByNetwork map[string][]string,
) *CatalogUseCase {
	return &CatalogUseCase{
		router:             r,
		gateways:           gateways,
		tokenCache:         tokenCache,
		networksByCategory: networksByCategory,
		planTypesByNetwork: planTypesByNetwork,
	}
}

// ListNetworks returns the networks available for category ("airtime" or
// "data"), preferring Provider-A's live biller list and falling back to the
// static table on any provider failure.
func (uc *CatalogUseCase) ListNetworks(ctx context.Context, category ports.BillerCategory) ([]dtos.NetworkDTO, error) {
	fallback := uc.networksByCategory[category]

	gw, ok := uc.gateways[router.ProviderA]
	if !ok {
		return toNetworkDTOs(fallback), nil
	}

	token, err := uc.tokenFor(ctx, router.ProviderA, gw)
	if err != nil {
		return toNetworkDTOs(fallback), nil
	}

	billers, err := gw.ListBillers(ctx, token, category)
	if err != nil || len(billers) == 0 {
		return toNetworkDTOs(fallback), nil
	}

	options := make([]NetworkOption, 0, len(billers))
	for _, b := range billers {
		options = append(options, NetworkOption{Code: b.BillerCode, Name: b.Name})
	}
	return toNetworkDTOs(options), nil
}

// ListDataPlans returns the data plans for network, querying Provider-A's
// live product list first and falling back to Provider-B's pre-configured
// set (via the router's code-translation table) when the primary call
// fails (§6: "fallback to alternate").
func (uc *CatalogUseCase) ListDataPlans(ctx context.Context, network string) ([]dtos.DataPlanDTO, error) {
	gwA, ok := uc.gateways[router.ProviderA]
	if ok {
		token, err := uc.tokenFor(ctx, router.ProviderA, gwA)
		if err == nil {
			products, err := gwA.ListProducts(ctx, token, network)
			if err == nil && len(products) > 0 {
				return toDataPlanDTOs(products), nil
			}
		}
	}

	gwB, ok := uc.gateways[router.ProviderB]
	if !ok {
		return nil, errors.NewDomainError("PLANS_UNAVAILABLE", "no data plan catalog is available for this network", nil)
	}
	products, err := gwB.ListProducts(ctx, "", network)
	if err != nil {
		return nil, err
	}
	return toDataPlanDTOs(products), nil
}

// ListDataPlanTypes enumerates the plan-family labels known for network
// (e.g. "regular", "all_plans", "gifting", "share"), per the router's
// static table (§4.4) - these are the labels the client uses to pick a
// routing decision, not a live provider call.
func (uc *CatalogUseCase) ListDataPlanTypes(ctx context.Context, network string) ([]string, error) {
	types := uc.planTypesByNetwork[network]
	sorted := append([]string(nil), types...)
	sort.Strings(sorted)
	return sorted, nil
}

func (uc *CatalogUseCase) tokenFor(ctx context.Context, provider router.Provider, gw ports.ProviderGateway) (string, error) {
	cacheKey := string(provider)
	if token, found, err := uc.tokenCache.Get(ctx, cacheKey); err == nil && found {
		return token, nil
	}
	token, ttl, err := gw.Authenticate(ctx)
	if err != nil {
		if err == errors.ErrProviderHasNoAuthStep {
			return "", nil
		}
		return "", err
	}
	_ = uc.tokenCache.Set(ctx, cacheKey, token, ttl)
	return token, nil
}

func toNetworkDTOs(options []NetworkOption) []dtos.NetworkDTO {
	result := make([]dtos.NetworkDTO, len(options))
	for i, o := range options {
		result[i] = dtos.NetworkDTO{Code: o.Code, Name: o.Name}
	}
	return result
}

func toDataPlanDTOs(products []ports.BillerProduct) []dtos.DataPlanDTO {
	result := make([]dtos.DataPlanDTO, len(products))
	for i, p := range products {
		result[i] = dtos.DataPlanDTO{Code: p.ProductCode, Name: p.Name, AmountMinorUnits: p.Amount}
	}
	return result
}
