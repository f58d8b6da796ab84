package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTemp(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func Test_parseJson_SourcesAndPrecedence(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	path := writeTemp(t, "bulletin.json", `{
		// gateway settings
		"server_endpoint_addr": "www.example:9000",
		"request_timeout": "4s",
		"page_size": 20,
	}`)

	t.Run("loads JSONC from -config", func(t *testing.T) {
		os.Args = []string{"testbin", "-config", path}

		cfg := &Config{}
		cfg.LoadDefaults()
		parseJson(cfg)

		assert.Equal(t, "www.example:9000", cfg.ServerEndpointAddr)
		assert.Equal(t, 4*time.Second, cfg.RequestTimeout)
		assert.Equal(t, 20, cfg.PageSize)
		assert.Equal(t, "grpc", cfg.CollectionsBackend, "fields absent from the file are kept")
	})

	t.Run("no flag leaves config untouched", func(t *testing.T) {
		os.Args = []string{"testbin"}

		cfg := &Config{ServerEndpointAddr: "defaults:1234", PageSize: 3}
		parseJson(cfg)

		assert.Equal(t, "defaults:1234", cfg.ServerEndpointAddr)
		assert.Equal(t, 3, cfg.PageSize)
	})

	t.Run("invalid JSON panics", func(t *testing.T) {
		bad := writeTemp(t, "bad.json", `{ this is not valid json`)
		os.Args = []string{"testbin", "-c", bad}

		require.Panics(t, func() { parseJson(&Config{}) })
	})

	t.Run("missing file panics", func(t *testing.T) {
		os.Args = []string{"testbin", "-c", filepath.Join(t.TempDir(), "nope.json")}

		require.Panics(t, func() { parseJson(&Config{}) })
	})
}
