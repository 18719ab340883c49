// Package router implements the Provider Router (§4.4): a deterministic,
// no-silent-fallback mapping from a user's plan-type choice to a VAS
// provider and that provider's product code.
package router

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/ficore/vaswallet/internal/domain/errors"
)

// Provider identifies one of the two VAS providers the router can route to.
type Provider string

const (
	ProviderA Provider = "PROVIDER_A"
	ProviderB Provider = "PROVIDER_B"
)

// ProductKind distinguishes the two routable product families.
type ProductKind string

const (
	ProductAirtime ProductKind = "AIRTIME"
	ProductData    ProductKind = "DATA"
)

// planTypeSuffix prefixes that route to Provider B (shared-bundle and
// gifting product families); anything else for data routes to Provider A.
const (
	suffixShare   = "_share"
	suffixGifting = "_gifting"
)

// RouteDecision is the outcome of routing a purchase request: which
// provider to call and the product code in that provider's vocabulary.
type RouteDecision struct {
	Provider       Provider
	ProductCode    string
	FallbackTo     Provider // zero value if no fallback is permitted
	AllowsFallback bool
}

// Router routes purchase requests per spec §4.4's fixed table; it holds no
// mutable state and is safe for concurrent use.
type Router struct {
	// planTypesByNetwork lists every known plan-type label per network, used
	// to compose the "alternatives" list on a ProviderUnavailableError.
	planTypesByNetwork map[string][]string
	// codeTranslation is a bidirectional map between Provider-A and
	// Provider-B product codes, keyed "A:<code>" or "B:<code>".
	codeTranslation map[string]string
}

// New creates a Router seeded with the known plan-type catalogue (network ->
// plan-type labels, used only to build alternative-suggestion lists) and a
// bidirectional product-code translation table.
func New(planTypesByNetwork map[string][]string, codeTranslation map[string]string) *Router {
	if planTypesByNetwork == nil {
		planTypesByNetwork = make(map[string][]string)
	}
	if codeTranslation == nil {
		codeTranslation = make(map[string]string)
	}
	return &Router{
		planTypesByNetwork: planTypesByNetwork,
		codeTranslation:    codeTranslation,
	}
}

// RouteAirtime always routes to Provider A primary, with Provider B
// permitted as fallback — the one product family where cross-provider
// fallback is allowed.
func (r *Router) RouteAirtime(network string) RouteDecision {
	return RouteDecision{
		Provider:       ProviderA,
		ProductCode:    network,
		FallbackTo:     ProviderB,
		AllowsFallback: true,
	}
}

// RouteData routes a data purchase by the explicit planType prefix the user
// chose. There is no fallback: a failure on the routed provider surfaces a
// typed ProviderUnavailableError naming the other plan types available for
// the network so the caller can offer those instead.
func (r *Router) RouteData(planType, network, planID string) (RouteDecision, error) {
	provider := r.providerForPlanType(planType)

	productCode, err := r.translateProductCode(planID, provider)
	if err != nil {
		return RouteDecision{}, err
	}

	return RouteDecision{
		Provider:       provider,
		ProductCode:    productCode,
		AllowsFallback: false,
	}, nil
}

// providerForPlanType implements the fixed table from §4.4: "*_share" and
// "*_gifting" suffixes route to Provider B; everything else (regular,
// all-plans, or a bare network id) routes to Provider A.
func (r *Router) providerForPlanType(planType string) Provider {
	lower := strings.ToLower(planType)
	if strings.HasSuffix(lower, suffixShare) || strings.HasSuffix(lower, suffixGifting) {
		return ProviderB
	}
	return ProviderA
}

// Alternatives returns the other plan-type labels available for a network,
// excluding the one that just failed, for use in a ProviderUnavailableError.
func (r *Router) Alternatives(network, excludePlanType string) []string {
	all := r.planTypesByNetwork[strings.ToUpper(network)]
	alternatives := make([]string, 0, len(all))
	for _, planType := range all {
		if !strings.EqualFold(planType, excludePlanType) {
			alternatives = append(alternatives, planType)
		}
	}
	return alternatives
}

// Unavailable builds the typed error the Orchestrator surfaces when a
// routed data provider fails (§4.4: "no implicit provider fallback on data").
func (r *Router) Unavailable(planType, network string) *errors.ProviderUnavailableError {
	return &errors.ProviderUnavailableError{
		PlanType:     planType,
		Network:      network,
		Alternatives: r.Alternatives(network, planType),
	}
}

// sizeDurationPattern extracts a size (MB/GB) and duration (day/week/month)
// token from a plan code or name, e.g. "1GB-30D" -> size="1GB" duration="30D".
var sizeDurationPattern = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(MB|GB)\D*?(\d+)\s*(DAY|DAYS|WEEK|WEEKS|MONTH|MONTHS|D|W|M)\b`)

// translateProductCode resolves planID (in the *other* provider's code
// vocabulary, as carried on the client's cached plan list) to a product
// code in the target provider's vocabulary. It tries the explicit
// bidirectional map first; on a miss it falls back to parsing size/duration
// out of the code and composing the target shape. An unresolvable code
// fails fast rather than silently guessing.
func (r *Router) translateProductCode(planID string, target Provider) (string, error) {
	// planID may already be a native code for the target provider.
	nativeKey := codeKey(target, planID)
	if _, isNative := r.codeTranslation[nativeKey]; isNative {
		return planID, nil
	}

	other := otherProvider(target)
	sourceKey := codeKey(other, planID)
	if translated, ok := r.codeTranslation[sourceKey]; ok {
		return translated, nil
	}

	composed, ok := composeFromPattern(planID, target)
	if !ok {
		return "", fmt.Errorf("provider router: unresolvable product code %q for %s", planID, target)
	}
	return composed, nil
}

func otherProvider(p Provider) Provider {
	if p == ProviderA {
		return ProviderB
	}
	return ProviderA
}

func codeKey(provider Provider, code string) string {
	prefix := "A"
	if provider == ProviderB {
		prefix = "B"
	}
	return prefix + ":" + strings.ToUpper(code)
}

// composeFromPattern extracts size/duration from the source code and
// composes the target provider's code shape: "<SIZE><UNIT>_<DURATION><D>"
// for Provider A, "<SIZE><UNIT>-<DURATION>D" for Provider B. This mirrors
// the naming convention both providers are observed to use for plan codes.
func composeFromPattern(planID string, target Provider) (string, bool) {
	match := sizeDurationPattern.FindStringSubmatch(planID)
	if match == nil {
		return "", false
	}
	size, unit, durationDigits := match[1], strings.ToUpper(match[2]), match[3]

	days, err := strconv.Atoi(durationDigits)
	if err != nil {
		return "", false
	}

	switch target {
	case ProviderA:
		return fmt.Sprintf("%s%s_%dD", size, unit, days), true
	case ProviderB:
		return fmt.Sprintf("%s%s-%dD", size, unit, days), true
	default:
		return "", false
	}
}
