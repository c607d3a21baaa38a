package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "DEBUG", "CURRENCY", "SIM_TICK", "SIM_SPEEDUP", "DEFAULT_PEAK_START", "DEFAULT_PEAK_END", "DEFAULT_TOTAL_PORTS"} {
		t.Setenv(k, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "4000", cfg.ServerPort)
	assert.False(t, cfg.Debug)
	assert.Equal(t, "INR", cfg.Currency)
	assert.Equal(t, time.Second, cfg.SimTick)
	assert.Equal(t, 60.0, cfg.SimSpeedup)
	assert.Equal(t, 18, cfg.DefaultPeakStart)
	assert.Equal(t, 21, cfg.DefaultPeakEnd)
	assert.Equal(t, 4, cfg.DefaultTotalPorts)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("DEBUG", "true")
	t.Setenv("CURRENCY", "USD")
	t.Setenv("SIM_TICK", "250ms")
	t.Setenv("SIM_SPEEDUP", "120")
	t.Setenv("DEFAULT_PEAK_START", "17")
	t.Setenv("DEFAULT_TOTAL_PORTS", "bogus")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.ServerPort)
	assert.True(t, cfg.Debug)
	assert.Equal(t, "USD", cfg.Currency)
	assert.Equal(t, 250*time.Millisecond, cfg.SimTick)
	assert.Equal(t, 120.0, cfg.SimSpeedup)
	assert.Equal(t, 17, cfg.DefaultPeakStart)
	assert.Equal(t, 4, cfg.DefaultTotalPorts)
}
