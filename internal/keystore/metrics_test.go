package keystore

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterMetrics_Idempotent(t *testing.T) {
	reg := prometheus.NewRegistry()
	require.NoError(t, RegisterMetrics(reg))
	require.NoError(t, RegisterMetrics(reg))

	validationKeys.Set(3)
	assert.Equal(t, float64(3), testutil.ToFloat64(validationKeys))

	n, err := testutil.GatherAndCount(reg, "certkeys_validation_keys", "certkeys_rotations_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestParseRefreshMode(t *testing.T) {
	cases := map[string]RefreshMode{
		"":          RefreshOnDemand,
		"on_demand": RefreshOnDemand,
		"On-Demand": RefreshOnDemand,
		"startup":   RefreshOnStartup,
		" interval": RefreshInterval,
	}
	for in, want := range cases {
		got, err := ParseRefreshMode(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseRefreshMode("cron")
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestOptionsNormalize(t *testing.T) {
	o := Options{Identity: " id.example.com ", Mode: RefreshInterval, RefreshEvery: -1}
	require.NoError(t, o.normalize())
	assert.Equal(t, "id.example.com", o.Identity)
	assert.Equal(t, defaultRefreshEvery, o.RefreshEvery)
	assert.Equal(t, defaultQueryTimeout, o.QueryTimeout)
	assert.Equal(t, defaultRejectionTTL, o.RejectionTTL)
	assert.NotNil(t, o.Now)

	o = Options{Identity: "id.example.com"}
	require.NoError(t, o.normalize())
	assert.Equal(t, RefreshOnDemand, o.Mode)
	assert.Zero(t, o.RefreshEvery)
}
