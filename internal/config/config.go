package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Version information - set by GoReleaser during build
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// GetVersionInfo returns a formatted version string
func GetVersionInfo() string {
	return fmt.Sprintf("tokenbroker version %s, commit %s, built at %s", version, commit, date)
}

type Config struct {
	Server    ServerConfig              `mapstructure:"server"`
	Logging   LoggingConfig             `mapstructure:"logging"`
	Store     StoreConfig               `mapstructure:"store"`
	Providers map[string]ProviderConfig `mapstructure:"providers"`
}

type ServerConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	RequestTimeout string `mapstructure:"request_timeout"`
}

type LoggingConfig struct {
	Level             string `mapstructure:"level"`
	Format            string `mapstructure:"format"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`
	OutputPath        string `mapstructure:"output_path"`
	AppendToFile      bool   `mapstructure:"append_to_file"`
	DisableConsole    bool   `mapstructure:"disable_console"`
}

// StoreBackend selects the token store implementation.
type StoreBackend string

const (
	StoreBackendMemory StoreBackend = "memory"
	StoreBackendRedis  StoreBackend = "redis"
)

type StoreConfig struct {
	Backend StoreBackend `mapstructure:"backend"`
	Redis   RedisConfig  `mapstructure:"redis"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// ProviderConfig holds the OAuth endpoints and credentials for one provider.
type ProviderConfig struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	RedirectURI  string `mapstructure:"redirect_uri"`
	AuthorizeURL string `mapstructure:"authorize_url"`
	TokenURL     string `mapstructure:"token_url"`
	APIBaseURL   string `mapstructure:"api_base_url"`
	Scopes       string `mapstructure:"scopes"`
}

// Configured reports whether real credentials are present. Empty or
// placeholder client ids ("your_twitter_client_id" etc.) put the adapter in
// synthetic-token mode so the flow can be exercised without live credentials.
func (p ProviderConfig) Configured() bool {
	if p.ClientID == "" {
		return false
	}
	return !strings.HasPrefix(p.ClientID, "your_")
}

// Provider returns the configuration for the named provider. A missing entry
// yields the zero value, which adapters treat as unconfigured.
func (c *Config) Provider(name string) ProviderConfig {
	return c.Providers[name]
}

// InitFlags initializes command line flags (without parsing)
func InitFlags() {
	pflag.String("config", "", "Path to an additional config file")
	pflag.Int("port", 0, "HTTP listen port (overrides config)")
	// Note: no pflag.Parse() here as it's called in main.go
}

func Load() (*Config, error) {
	viper.Reset() // Ensure clean state

	viper.SetEnvPrefix("TOKEN_BROKER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if err := viper.BindPFlags(pflag.CommandLine); err != nil {
		return nil, err
	}

	setDefaults()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("/etc/tokenbroker")

	if err := viper.ReadInConfig(); err != nil {
		// Defaults plus environment variables form a complete
		// configuration; only a malformed file is fatal.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	if extra := viper.GetString("config"); extra != "" {
		viper.SetConfigFile(extra)
		// Merge the extra file (overrides overlapping keys)
		if err := viper.MergeInConfig(); err != nil {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	if port := viper.GetInt("port"); port != 0 {
		config.Server.Port = port
	}

	switch config.Store.Backend {
	case StoreBackendMemory, StoreBackendRedis:
	default:
		return nil, fmt.Errorf("unsupported store backend: %q", config.Store.Backend)
	}
	if config.Store.Backend == StoreBackendRedis && config.Store.Redis.Addr == "" {
		return nil, fmt.Errorf("store.redis.addr is required when store.backend is redis")
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.request_timeout", "10s")

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "console")

	viper.SetDefault("store.backend", string(StoreBackendMemory))
	// Empty defaults register the keys so TOKEN_BROKER_* environment
	// variables are visible to Unmarshal.
	viper.SetDefault("store.redis.addr", "")
	viper.SetDefault("store.redis.password", "")
	viper.SetDefault("store.redis.db", 0)

	// Public endpoints for the built-in providers. Credentials always come
	// from config files or TOKEN_BROKER_* environment variables.
	for _, name := range []string{"sketchfab", "google", "twitter"} {
		viper.SetDefault("providers."+name+".client_id", "")
		viper.SetDefault("providers."+name+".client_secret", "")
		viper.SetDefault("providers."+name+".redirect_uri", "")
	}

	viper.SetDefault("providers.sketchfab.authorize_url", "https://sketchfab.com/oauth2/authorize/")
	viper.SetDefault("providers.sketchfab.token_url", "https://sketchfab.com/oauth2/token/")
	viper.SetDefault("providers.sketchfab.api_base_url", "https://sketchfab.com/v2/")

	viper.SetDefault("providers.google.authorize_url", "https://accounts.google.com/o/oauth2/v2/auth")
	viper.SetDefault("providers.google.token_url", "https://oauth2.googleapis.com/token")
	viper.SetDefault("providers.google.api_base_url", "https://www.googleapis.com/oauth2/v1/")
	viper.SetDefault("providers.google.scopes", "openid email profile")

	viper.SetDefault("providers.twitter.authorize_url", "https://twitter.com/i/oauth2/authorize")
	viper.SetDefault("providers.twitter.token_url", "https://api.twitter.com/2/oauth2/token")
	viper.SetDefault("providers.twitter.api_base_url", "https://api.twitter.com/2/users/me")
	viper.SetDefault("providers.twitter.scopes", "tweet.read users.read offline.access")
}
