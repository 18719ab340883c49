package router_test

import (
	"testing"

	"github.com/ficore/vaswallet/internal/domain/errors"
	"github.com/ficore/vaswallet/internal/domain/router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter() *router.Router {
	planTypes := map[string][]string{
		"MTN": {"regular", "mtn_share", "mtn_gifting"},
	}
	translation := map[string]string{
		"A:1GB_30D": "1GB-30D",
		"B:1GB-30D": "1GB_30D",
	}
	return router.New(planTypes, translation)
}

func TestRouteAirtime_AlwaysProviderAWithFallback(t *testing.T) {
	r := newTestRouter()
	decision := r.RouteAirtime("MTN")

	assert.Equal(t, router.ProviderA, decision.Provider)
	assert.True(t, decision.AllowsFallback)
	assert.Equal(t, router.ProviderB, decision.FallbackTo)
}

func TestRouteData_RegularRoutesToProviderA(t *testing.T) {
	r := newTestRouter()
	decision, err := r.RouteData("regular", "MTN", "1GB_30D")

	require.NoError(t, err)
	assert.Equal(t, router.ProviderA, decision.Provider)
	assert.False(t, decision.AllowsFallback)
	assert.Equal(t, "1GB_30D", decision.ProductCode)
}

func TestRouteData_ShareSuffixRoutesToProviderB(t *testing.T) {
	r := newTestRouter()
	decision, err := r.RouteData("mtn_share", "MTN", "1GB_30D")

	require.NoError(t, err)
	assert.Equal(t, router.ProviderB, decision.Provider)
	assert.Equal(t, "1GB-30D", decision.ProductCode)
}

func TestRouteData_GiftingSuffixRoutesToProviderB(t *testing.T) {
	r := newTestRouter()
	decision, err := r.RouteData("mtn_gifting", "MTN", "1GB_30D")

	require.NoError(t, err)
	assert.Equal(t, router.ProviderB, decision.Provider)
}

func TestRouteData_NoFallbackEver(t *testing.T) {
	r := newTestRouter()
	decision, err := r.RouteData("regular", "MTN", "1GB_30D")

	require.NoError(t, err)
	assert.False(t, decision.AllowsFallback)
}

func TestTranslateProductCode_ExplicitMapHit(t *testing.T) {
	r := newTestRouter()
	decision, err := r.RouteData("mtn_share", "MTN", "1GB_30D")

	require.NoError(t, err)
	assert.Equal(t, "1GB-30D", decision.ProductCode)
}

func TestTranslateProductCode_AlreadyNativeCode(t *testing.T) {
	r := newTestRouter()
	decision, err := r.RouteData("mtn_share", "MTN", "1GB-30D")

	require.NoError(t, err)
	assert.Equal(t, "1GB-30D", decision.ProductCode)
}

func TestTranslateProductCode_PatternFallback(t *testing.T) {
	r := newTestRouter()
	decision, err := r.RouteData("mtn_share", "MTN", "2GB 7 Days")

	require.NoError(t, err)
	assert.Equal(t, "2GB-7D", decision.ProductCode)
}

func TestTranslateProductCode_UnresolvableFailsFast(t *testing.T) {
	r := newTestRouter()
	_, err := r.RouteData("mtn_share", "MTN", "totally-unrecognized-code")

	assert.Error(t, err)
}

func TestAlternatives_ExcludesFailedPlanType(t *testing.T) {
	r := newTestRouter()
	alternatives := r.Alternatives("MTN", "regular")

	assert.NotContains(t, alternatives, "regular")
	assert.Contains(t, alternatives, "mtn_share")
	assert.Contains(t, alternatives, "mtn_gifting")
}

func TestUnavailable_BuildsTypedError(t *testing.T) {
	r := newTestRouter()
	err := r.Unavailable("regular", "MTN")

	var target *errors.ProviderUnavailableError
	assert.ErrorAs(t, err, &target)
	assert.Equal(t, "regular", target.PlanType)
	assert.Equal(t, "MTN", target.Network)
	assert.NotContains(t, target.Alternatives, "regular")
}
