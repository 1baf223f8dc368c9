package providers

import (
	"github.com/averlon/tokenbroker/internal/config"
	"github.com/averlon/tokenbroker/internal/oauth/pkce"
	"github.com/averlon/tokenbroker/internal/requester"
	"go.uber.org/fx"
)

// NewDefaultRegistry builds a registry containing the built-in providers.
// The PKCE tracker is shared across all adapters created for a PKCE
// provider so verifiers registered at authorize time resolve at callback
// time.
func NewDefaultRegistry(cfg *config.Config, client requester.Client, tracker *pkce.Tracker) *Registry {
	r := NewRegistry()
	r.Register(sketchfabName, func() Provider {
		return NewSketchfab(cfg.Provider(sketchfabName), client)
	})
	r.Register(googleName, func() Provider {
		return NewGoogle(cfg.Provider(googleName), client)
	})
	r.Register(twitterName, func() Provider {
		return NewTwitter(cfg.Provider(twitterName), client, tracker)
	})
	return r
}

// Module provides the provider registry dependencies
var Module = fx.Module("providers",
	fx.Provide(
		pkce.NewTracker,
		NewDefaultRegistry,
	),
)
