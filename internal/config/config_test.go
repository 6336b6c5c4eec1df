package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`{"jwt": {"secret": "s3cret"}}`))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, StoreBadger, cfg.Store.Driver)
	assert.Equal(t, "data/arena", cfg.Store.Path)
	assert.Equal(t, 60, cfg.JWT.TTL)
	assert.Equal(t, 60, cfg.RateLimit.WritesPerMinute)
}

// TestParseExpandsVariables verifies ${VAR} references in the file.
func TestParseExpandsVariables(t *testing.T) {
	t.Setenv("TEST_MONGO_URI", "mongodb://db:27017/?replicaSet=rs0")
	t.Setenv("TEST_JWT_SECRET", "from-env")

	cfg, err := Parse([]byte(`{
		"store": {"driver": "mongodb", "uri": "${TEST_MONGO_URI}", "database": "arena_test"},
		"jwt": {"secret": "${TEST_JWT_SECRET}"}
	}`))
	require.NoError(t, err)
	assert.Equal(t, "mongodb://db:27017/?replicaSet=rs0", cfg.Store.URI)
	assert.Equal(t, "from-env", cfg.JWT.Secret)
}

// TestParseEnvOverlay verifies ARENA_* variables win over the file.
func TestParseEnvOverlay(t *testing.T) {
	t.Setenv("ARENA_SERVER_PORT", "9090")
	t.Setenv("ARENA_STORE_DRIVER", "sqlite")
	t.Setenv("ARENA_STORE_PATH", "/tmp/arena.db")

	cfg, err := Parse([]byte(`{"server": {"port": 8000}, "jwt": {"secret": "x"}}`))
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, StoreSQLite, cfg.Store.Driver)
	assert.Equal(t, "/tmp/arena.db", cfg.Store.Path)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"missing secret", `{}`},
		{"unknown driver", `{"store": {"driver": "redis"}, "jwt": {"secret": "x"}}`},
		{"mongo without uri", `{"store": {"driver": "mongodb"}, "jwt": {"secret": "x"}}`},
		{"sqlite without path", `{"store": {"driver": "sqlite", "path": ""}, "jwt": {"secret": "x"}}`},
		{"bad port", `{"server": {"port": 70000}, "jwt": {"secret": "x"}}`},
		{"bad json", `{"server":`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CONFIG_DIR", dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.test.json"),
		[]byte(`{"store": {"driver": "sqlite", "path": "arena.db"}, "jwt": {"secret": "x"}}`), 0o600))

	cfg, err := Load("test")
	require.NoError(t, err)
	assert.Equal(t, "test", cfg.Environment)
	assert.Equal(t, StoreSQLite, cfg.Store.Driver)

	_, err = Load("missing")
	assert.Error(t, err)
}

func TestGetEnv(t *testing.T) {
	t.Setenv("ARENA_ENV", "")
	assert.Equal(t, "dev", GetEnv())

	t.Setenv("ARENA_ENV", "prod")
	assert.Equal(t, "prod", GetEnv())
}
