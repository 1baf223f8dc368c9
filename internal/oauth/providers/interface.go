package providers

import (
	"context"

	"github.com/averlon/tokenbroker/internal/oauth/models"
)

// Provider defines the four-operation contract every OAuth provider adapter
// must implement
type Provider interface {
	// Name returns the lowercase provider identifier used by the registry
	Name() string

	// AuthorizationURL builds the provider's authorize endpoint URL.
	// PKCE providers generate and register their verifier/challenge pair
	// before returning.
	AuthorizationURL() (string, error)

	// ExchangeCode exchanges an authorization code for tokens. PKCE
	// providers resolve a missing codeVerifier from state.
	ExchangeCode(ctx context.Context, code, codeVerifier, state string) (*models.TokenResponse, error)

	// Refresh exchanges a refresh token for a new access token. Adapters
	// for providers that do not reissue a refresh token must carry the
	// original one forward in the response.
	Refresh(ctx context.Context, refreshToken string) (*models.TokenResponse, error)

	// UserInfo fetches and normalizes profile data using the access token
	// as a bearer credential. Tokens-only providers return
	// ErrUserInfoNotSupported, which callers treat as a valid terminal
	// step.
	UserInfo(ctx context.Context, accessToken string) (*models.UserInfo, error)
}
