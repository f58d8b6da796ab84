package config

import (
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEnv_OverridesOnlySetVariables(t *testing.T) {
	var cfg Config
	cfg.LoadDefaults()

	parseEnv(&cfg, envconfig.MapLookuper(map[string]string{
		"BULLETIN_SERVER_ADDR":     "gw.internal:7000",
		"BULLETIN_PAGE_SIZE":       "30",
		"BULLETIN_REQUEST_TIMEOUT": "2s",
		"BULLETIN_S3_BUCKET":       "images",
	}))

	assert.Equal(t, "gw.internal:7000", cfg.ServerEndpointAddr)
	assert.Equal(t, 30, cfg.PageSize)
	assert.Equal(t, 2*time.Second, cfg.RequestTimeout)
	assert.Equal(t, "images", cfg.S3Bucket)
	assert.Equal(t, "bulletin.db", cfg.DatabasePath, "unset variables keep defaults")
}

func TestParseEnv_PanicsOnMalformedValue(t *testing.T) {
	var cfg Config
	require.Panics(t, func() {
		parseEnv(&cfg, envconfig.MapLookuper(map[string]string{"BULLETIN_PAGE_SIZE": "many"}))
	})
}
