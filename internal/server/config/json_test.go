package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseJson_OverlaysValues(t *testing.T) {
	origArgs := os.Args
	defer func() { os.Args = origArgs }()

	dir := t.TempDir()
	path := filepath.Join(dir, "conf.json")
	data := `{
		"endpoint_addr_http": ":7070",
		"database_dsn": "postgres://x/y",
		"access_token_validity_duration": "2m",
		"snapshot_cache_ttl": "30s"
	}`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	os.Args = []string{"cmd", "-c", path}

	config := &Config{}
	config.LoadDefaults()
	parseJson(config)

	assert.Equal(t, ":7070", config.EndpointAddrHTTP)
	assert.Equal(t, "postgres://x/y", config.DatabaseDSN)
	assert.Equal(t, 2*time.Minute, config.AccessTokenValidityDuration)
	assert.Equal(t, 30*time.Second, config.SnapshotCacheTTL)
	// untouched fields keep their defaults
	assert.Equal(t, "secretKey", config.SecretKey)
}

func TestParseJson_NoFileFlagIsNoop(t *testing.T) {
	origArgs := os.Args
	defer func() { os.Args = origArgs }()

	os.Args = []string{"cmd"}

	config := &Config{}
	config.LoadDefaults()
	parseJson(config)

	assert.Equal(t, ":8080", config.EndpointAddrHTTP)
}

func TestParseJson_MalformedFilePanics(t *testing.T) {
	origArgs := os.Args
	defer func() { os.Args = origArgs }()

	dir := t.TempDir()
	path := filepath.Join(dir, "conf.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	os.Args = []string{"cmd", "-c", path}

	config := &Config{}
	assert.Panics(t, func() { parseJson(config) })
}
