package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/averlon/tokenbroker/internal/config"
	"github.com/averlon/tokenbroker/internal/logger"
	"github.com/averlon/tokenbroker/internal/oauth/models"
	"github.com/averlon/tokenbroker/internal/requester"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

const sketchfabName = "sketchfab"

const sketchfabDefaultExpiry = 3600

// Sketchfab implements the simple authorization-code flow: no PKCE, no
// provider-specific authorize parameters.
type Sketchfab struct {
	cfg          config.ProviderConfig
	client       requester.Client
	oauth2Config *oauth2.Config
	now          func() time.Time
}

// NewSketchfab creates a Sketchfab adapter
func NewSketchfab(cfg config.ProviderConfig, client requester.Client) *Sketchfab {
	return &Sketchfab{
		cfg:    cfg,
		client: client,
		oauth2Config: &oauth2.Config{
			ClientID:    cfg.ClientID,
			RedirectURL: cfg.RedirectURI,
			Endpoint: oauth2.Endpoint{
				AuthURL:  cfg.AuthorizeURL,
				TokenURL: cfg.TokenURL,
			},
		},
		now: time.Now,
	}
}

// Name returns the provider identifier used by the registry
func (p *Sketchfab) Name() string {
	return sketchfabName
}

// AuthorizationURL builds the Sketchfab authorize URL
func (p *Sketchfab) AuthorizationURL() (string, error) {
	return p.oauth2Config.AuthCodeURL(""), nil
}

// ExchangeCode exchanges an authorization code for tokens
func (p *Sketchfab) ExchangeCode(ctx context.Context, code, codeVerifier, state string) (*models.TokenResponse, error) {
	if !p.cfg.Configured() {
		logger.Warn("sketchfab credentials not configured, returning synthetic token")
		return syntheticToken(sketchfabName, sketchfabDefaultExpiry, p.cfg.Scopes, p.now()), nil
	}

	form := url.Values{
		"grant_type":    {"authorization_code"},
		"code":          {code},
		"client_id":     {p.cfg.ClientID},
		"client_secret": {p.cfg.ClientSecret},
		"redirect_uri":  {p.cfg.RedirectURI},
	}

	body, err := postToken(ctx, p.client, sketchfabName, p.cfg.TokenURL, form)
	if err != nil {
		return nil, err
	}
	return decodeTokenResponse(sketchfabName, body, sketchfabDefaultExpiry, "")
}

// Refresh exchanges a refresh token for a new access token
func (p *Sketchfab) Refresh(ctx context.Context, refreshToken string) (*models.TokenResponse, error) {
	if !p.cfg.Configured() {
		logger.Warn("sketchfab credentials not configured, returning synthetic token")
		return syntheticToken(sketchfabName, sketchfabDefaultExpiry, p.cfg.Scopes, p.now()), nil
	}

	form := url.Values{
		"grant_type":    {"refresh_token"},
		"client_id":     {p.cfg.ClientID},
		"client_secret": {p.cfg.ClientSecret},
		"refresh_token": {refreshToken},
	}

	body, err := postToken(ctx, p.client, sketchfabName, p.cfg.TokenURL, form)
	if err != nil {
		return nil, err
	}
	return decodeTokenResponse(sketchfabName, body, sketchfabDefaultExpiry, refreshToken)
}

// UserInfo fetches the Sketchfab profile for the token's owner
func (p *Sketchfab) UserInfo(ctx context.Context, accessToken string) (*models.UserInfo, error) {
	if !p.cfg.Configured() {
		logger.Warn("sketchfab credentials not configured, returning synthetic user info")
		return p.syntheticUserInfo(), nil
	}

	body, err := getBearer(ctx, p.client, sketchfabName, p.cfg.APIBaseURL+"users/me", accessToken)
	if err != nil {
		return nil, err
	}

	var user struct {
		UID        string `json:"uid"`
		Username   string `json:"username"`
		Email      string `json:"email"`
		ProfileURL string `json:"profileUrl"`
		Avatar     struct {
			URL string `json:"url"`
		} `json:"avatar"`
	}
	if err := json.Unmarshal(body, &user); err != nil {
		return nil, fmt.Errorf("%s: failed to decode user info: %w", sketchfabName, err)
	}

	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		logger.Warn("failed to preserve raw sketchfab payload", zap.Error(err))
	}

	return &models.UserInfo{
		ID:         user.UID,
		Username:   user.Username,
		Email:      user.Email,
		ProfileURL: user.ProfileURL,
		AvatarURL:  user.Avatar.URL,
		RawData:    raw,
	}, nil
}

func (p *Sketchfab) syntheticUserInfo() *models.UserInfo {
	return &models.UserInfo{
		ID:         "sf-0000000000",
		Username:   "mock_sketchfab_user",
		Email:      "mock.sketchfab.user@example.com",
		ProfileURL: "https://sketchfab.com/mock_sketchfab_user",
		AvatarURL:  "https://media.sketchfab.com/avatars/mock.jpg",
		RawData: map[string]any{
			"uid":      "sf-0000000000",
			"username": "mock_sketchfab_user",
		},
		Synthetic: true,
	}
}
