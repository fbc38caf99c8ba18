package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEnv_Defaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	env, err := ParseEnv(v)
	require.NoError(t, err)
	assert.Equal(t, ":8080", env.AppAddr)
	assert.Equal(t, 10*time.Minute, env.Payment.Freshness)
	assert.Equal(t, "badger", env.Payment.AttemptStore)
	assert.Equal(t, 5*time.Minute, env.Redis.ItemTTL)
	assert.Equal(t, "non_zero", env.Pricing.WeekendPolicy)
}

func TestLoadEnv_EnvironmentOverrides(t *testing.T) {
	t.Setenv("APP_ADDR", ":9090")
	t.Setenv("PAYMENT_ATTEMPT_STORE", "Redis")
	t.Setenv("PAYMENT_FRESHNESS", "5m")
	t.Setenv("PRICING_WEEKEND_POLICY", "when_set")

	env, err := LoadEnv()
	require.NoError(t, err)
	assert.Equal(t, ":9090", env.AppAddr)
	assert.Equal(t, "redis", env.Payment.AttemptStore)
	assert.Equal(t, 5*time.Minute, env.Payment.Freshness)
	assert.Equal(t, "when_set", env.Pricing.WeekendPolicy)
}
