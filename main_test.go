package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadConfig()
	require.NoError(t, err)

	assert.Equal(t, 8000, cfg.Port)
	assert.Equal(t, 6060, cfg.AdminPort)
	assert.Equal(t, "static/bidder-info", cfg.BidderInfoDir)
	assert.Contains(t, cfg.Adapters, "dspx")
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("PBS_PORT", "9000")
	t.Setenv("PBS_STATUS_RESPONSE", "ready")

	cfg, err := loadConfig()
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, "ready", cfg.StatusResponse)
}

func TestLoadConfigRejectsSharedPorts(t *testing.T) {
	t.Setenv("PBS_ADMIN_PORT", "8000")

	_, err := loadConfig()
	assert.Error(t, err)
}
