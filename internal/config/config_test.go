package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigured(t *testing.T) {
	tests := []struct {
		name     string
		clientID string
		want     bool
	}{
		{name: "real credentials", clientID: "1234-real-client", want: true},
		{name: "empty", clientID: "", want: false},
		{name: "placeholder", clientID: "your_twitter_client_id", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := ProviderConfig{ClientID: tt.clientID, ClientSecret: "secret"}
			assert.Equal(t, tt.want, cfg.Configured())
		})
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, StoreBackendMemory, cfg.Store.Backend)

	twitter := cfg.Provider("twitter")
	assert.Equal(t, "https://api.twitter.com/2/oauth2/token", twitter.TokenURL)
	assert.Equal(t, "tweet.read users.read offline.access", twitter.Scopes)
	assert.False(t, twitter.Configured())

	sketchfab := cfg.Provider("sketchfab")
	assert.Equal(t, "https://sketchfab.com/oauth2/token/", sketchfab.TokenURL)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("TOKEN_BROKER_SERVER_PORT", "9999")
	t.Setenv("TOKEN_BROKER_STORE_BACKEND", "memory")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9999, cfg.Server.Port)
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	t.Setenv("TOKEN_BROKER_STORE_BACKEND", "etcd")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRedisBackendRequiresAddr(t *testing.T) {
	t.Setenv("TOKEN_BROKER_STORE_BACKEND", "redis")

	_, err := Load()
	assert.Error(t, err)

	t.Setenv("TOKEN_BROKER_STORE_REDIS_ADDR", "localhost:6379")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "localhost:6379", cfg.Store.Redis.Addr)
}

func TestMissingProviderIsUnconfigured(t *testing.T) {
	cfg := &Config{}
	assert.False(t, cfg.Provider("nonexistent").Configured())
}
