package markettest

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tidemark/marketd/internal/core/market"
)

// RequireApplied asserts that an action result indicates success.
func RequireApplied(t *testing.T, res *market.ApplyResult) {
	t.Helper()
	require.True(t, res.Result.IsSuccess(),
		"Expected mesSUCCESS, got %s: %s", res.Result, res.Message)
	require.True(t, res.Applied, "Expected action to be applied")
}

// RequireFail asserts that an action failed with a specific result code.
func RequireFail(t *testing.T, res *market.ApplyResult, expected market.Result) {
	t.Helper()
	require.False(t, res.Applied,
		"Expected failure with %s, but action was applied", expected)
	require.Equal(t, expected, res.Result,
		"Expected %s, got %s: %s", expected, res.Result, res.Message)
}

// RequireBalance asserts an account's balance in a currency.
func RequireBalance(t *testing.T, env *Env, account, currency string, expected uint64) {
	t.Helper()
	actual := env.Balance(account, currency)
	require.Equal(t, expected, actual,
		"Account %s balance mismatch in %s: expected %d, got %d",
		account, currency, expected, actual)
}

// RequireEvent asserts that the result emitted an event of the given type
// and returns it.
func RequireEvent(t *testing.T, res *market.ApplyResult, eventType string) market.Event {
	t.Helper()
	for _, ev := range res.Events {
		if ev.EventType() == eventType {
			return ev
		}
	}
	require.Failf(t, "missing event", "Expected a %s event, got %v", eventType, res.Events)
	return nil
}

// RequireNoEvent asserts that no event of the given type was emitted.
func RequireNoEvent(t *testing.T, res *market.ApplyResult, eventType string) {
	t.Helper()
	for _, ev := range res.Events {
		require.NotEqual(t, eventType, ev.EventType(),
			"Unexpected %s event", eventType)
	}
}
