package store

import (
	"fmt"

	"github.com/averlon/tokenbroker/internal/config"
	"go.uber.org/fx"
)

// New builds the Store selected by the configuration.
func New(cfg *config.Config) (Store, error) {
	switch cfg.Store.Backend {
	case config.StoreBackendMemory:
		return NewMemoryStore(), nil
	case config.StoreBackendRedis:
		return NewRedisStore(cfg.Store.Redis)
	default:
		return nil, fmt.Errorf("unsupported store backend: %q", cfg.Store.Backend)
	}
}

// Module provides the token store dependencies
var Module = fx.Module("store",
	fx.Provide(
		New,
	),
)
