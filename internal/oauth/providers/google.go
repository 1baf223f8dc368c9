package providers

import (
	"context"
	"net/url"
	"time"

	"github.com/averlon/tokenbroker/internal/config"
	"github.com/averlon/tokenbroker/internal/logger"
	"github.com/averlon/tokenbroker/internal/oauth/models"
	"github.com/averlon/tokenbroker/internal/requester"
	"golang.org/x/oauth2"
)

const googleName = "google"

const googleDefaultExpiry = 3600

// Google implements the offline-access authorization-code flow. The adapter
// is tokens-only: UserInfo is intentionally unsupported so clients use the
// tokens directly instead of relying on an unreliable upstream profile
// endpoint.
type Google struct {
	cfg          config.ProviderConfig
	client       requester.Client
	oauth2Config *oauth2.Config
	now          func() time.Time
}

// NewGoogle creates a Google adapter
func NewGoogle(cfg config.ProviderConfig, client requester.Client) *Google {
	return &Google{
		cfg:    cfg,
		client: client,
		oauth2Config: &oauth2.Config{
			ClientID:    cfg.ClientID,
			RedirectURL: cfg.RedirectURI,
			Scopes:      splitScopes(cfg.Scopes),
			Endpoint: oauth2.Endpoint{
				AuthURL:  cfg.AuthorizeURL,
				TokenURL: cfg.TokenURL,
			},
		},
		now: time.Now,
	}
}

// Name returns the provider identifier used by the registry
func (p *Google) Name() string {
	return googleName
}

// AuthorizationURL builds the Google authorize URL. Offline access plus a
// forced consent prompt are required for Google to issue a refresh token.
func (p *Google) AuthorizationURL() (string, error) {
	return p.oauth2Config.AuthCodeURL(
		"",
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
	), nil
}

// ExchangeCode exchanges an authorization code for tokens. Google does not
// use PKCE; codeVerifier and state are ignored.
func (p *Google) ExchangeCode(ctx context.Context, code, codeVerifier, state string) (*models.TokenResponse, error) {
	if codeVerifier != "" {
		logger.Warn("code verifier provided but google does not use pkce, ignoring")
	}

	if !p.cfg.Configured() {
		logger.Warn("google credentials not configured, returning synthetic token")
		return syntheticToken(googleName, googleDefaultExpiry, p.cfg.Scopes, p.now()), nil
	}

	form := url.Values{
		"grant_type":    {"authorization_code"},
		"code":          {code},
		"client_id":     {p.cfg.ClientID},
		"client_secret": {p.cfg.ClientSecret},
		"redirect_uri":  {p.cfg.RedirectURI},
	}

	body, err := postToken(ctx, p.client, googleName, p.cfg.TokenURL, form)
	if err != nil {
		return nil, err
	}
	return decodeTokenResponse(googleName, body, googleDefaultExpiry, "")
}

// Refresh exchanges a refresh token for a new access token. Google never
// returns a refresh token in the refresh flow, so the original is carried
// forward to keep the stored record refreshable.
func (p *Google) Refresh(ctx context.Context, refreshToken string) (*models.TokenResponse, error) {
	if !p.cfg.Configured() {
		logger.Warn("google credentials not configured, returning synthetic token")
		return syntheticToken(googleName, googleDefaultExpiry, p.cfg.Scopes, p.now()), nil
	}

	form := url.Values{
		"grant_type":    {"refresh_token"},
		"client_id":     {p.cfg.ClientID},
		"client_secret": {p.cfg.ClientSecret},
		"refresh_token": {refreshToken},
	}

	body, err := postToken(ctx, p.client, googleName, p.cfg.TokenURL, form)
	if err != nil {
		return nil, err
	}
	return decodeTokenResponse(googleName, body, googleDefaultExpiry, refreshToken)
}

// UserInfo is not supported for Google; the exchange is the terminal step
// and clients consume the returned tokens directly.
func (p *Google) UserInfo(ctx context.Context, accessToken string) (*models.UserInfo, error) {
	return nil, ErrUserInfoNotSupported
}
