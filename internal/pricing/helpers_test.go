package pricing

import (
	"testing"

	"storefront/internal/domain/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// prices builds PriceFields from literal amounts.
func prices(kv map[string]string) models.PriceFields {
	out := models.PriceFields{}
	for k, v := range kv {
		out[k] = dec(v)
	}
	return out
}

func assertAmount(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	if !dec(want).Equal(got) {
		assert.Fail(t, "amount mismatch", "want %s, got %s %v", want, got.String(), msgAndArgs)
	}
}
