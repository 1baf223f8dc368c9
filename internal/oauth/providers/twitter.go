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
	"github.com/averlon/tokenbroker/internal/oauth/pkce"
	"github.com/averlon/tokenbroker/internal/requester"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

const twitterName = "twitter"

const twitterDefaultExpiry = 7200

// Twitter implements the PKCE (S256) authorization-code flow. Each
// AuthorizationURL call binds a fresh verifier to the state embedded in the
// URL via the shared tracker; the callback resolves it back during code
// exchange.
type Twitter struct {
	cfg          config.ProviderConfig
	client       requester.Client
	tracker      *pkce.Tracker
	oauth2Config *oauth2.Config
	now          func() time.Time
}

// NewTwitter creates a Twitter adapter backed by the given PKCE tracker
func NewTwitter(cfg config.ProviderConfig, client requester.Client, tracker *pkce.Tracker) *Twitter {
	return &Twitter{
		cfg:     cfg,
		client:  client,
		tracker: tracker,
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
func (p *Twitter) Name() string {
	return twitterName
}

// AuthorizationURL builds the Twitter authorize URL with PKCE parameters and
// registers the verifier under the generated state before returning.
func (p *Twitter) AuthorizationURL() (string, error) {
	state, err := newState()
	if err != nil {
		return "", err
	}

	verifier, challenge, err := pkce.NewVerifier()
	if err != nil {
		return "", err
	}

	p.tracker.Register(state, verifier)

	return p.oauth2Config.AuthCodeURL(
		state,
		oauth2.SetAuthURLParam("code_challenge", challenge),
		oauth2.SetAuthURLParam("code_challenge_method", "S256"),
	), nil
}

// ExchangeCode exchanges an authorization code for tokens. If codeVerifier
// is absent it is resolved from state via the tracker; a verifier is usable
// at most once.
func (p *Twitter) ExchangeCode(ctx context.Context, code, codeVerifier, state string) (*models.TokenResponse, error) {
	if !p.cfg.Configured() {
		logger.Warn("twitter credentials not configured, returning synthetic token")
		return syntheticToken(twitterName, twitterDefaultExpiry, p.cfg.Scopes, p.now()), nil
	}

	if codeVerifier == "" && state != "" {
		if v, ok := p.tracker.Resolve(state); ok {
			codeVerifier = v
		}
	}
	if codeVerifier == "" {
		return nil, fmt.Errorf("%s: %w", twitterName, ErrMissingPKCEVerifier)
	}

	form := url.Values{
		"grant_type":    {"authorization_code"},
		"code":          {code},
		"client_id":     {p.cfg.ClientID},
		"client_secret": {p.cfg.ClientSecret},
		"redirect_uri":  {p.cfg.RedirectURI},
		"code_verifier": {codeVerifier},
	}

	body, err := postToken(ctx, p.client, twitterName, p.cfg.TokenURL, form)
	if err != nil {
		return nil, err
	}
	return decodeTokenResponse(twitterName, body, twitterDefaultExpiry, "")
}

// Refresh exchanges a refresh token for a new access token, carrying the
// original refresh token forward when Twitter omits one.
func (p *Twitter) Refresh(ctx context.Context, refreshToken string) (*models.TokenResponse, error) {
	if !p.cfg.Configured() {
		logger.Warn("twitter credentials not configured, returning synthetic token")
		return syntheticToken(twitterName, twitterDefaultExpiry, p.cfg.Scopes, p.now()), nil
	}

	form := url.Values{
		"grant_type":    {"refresh_token"},
		"client_id":     {p.cfg.ClientID},
		"client_secret": {p.cfg.ClientSecret},
		"refresh_token": {refreshToken},
	}

	body, err := postToken(ctx, p.client, twitterName, p.cfg.TokenURL, form)
	if err != nil {
		return nil, err
	}
	return decodeTokenResponse(twitterName, body, twitterDefaultExpiry, refreshToken)
}

// UserInfo fetches the Twitter profile for the token's owner. Twitter wraps
// the payload in a data envelope and withholds email without an extra scope.
func (p *Twitter) UserInfo(ctx context.Context, accessToken string) (*models.UserInfo, error) {
	if !p.cfg.Configured() {
		logger.Warn("twitter credentials not configured, returning synthetic user info")
		return p.syntheticUserInfo(), nil
	}

	endpoint := p.cfg.APIBaseURL + "?user.fields=id,name,username,profile_image_url"
	body, err := getBearer(ctx, p.client, twitterName, endpoint, accessToken)
	if err != nil {
		return nil, err
	}

	var envelope struct {
		Data struct {
			ID              string `json:"id"`
			Name            string `json:"name"`
			Username        string `json:"username"`
			ProfileImageURL string `json:"profile_image_url"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("%s: failed to decode user info: %w", twitterName, err)
	}

	var raw map[string]any
	if rawErr := json.Unmarshal(body, &raw); rawErr != nil {
		logger.Warn("failed to preserve raw twitter payload", zap.Error(rawErr))
	} else if data, ok := raw["data"].(map[string]any); ok {
		raw = data
	}

	user := envelope.Data
	return &models.UserInfo{
		ID:         user.ID,
		Username:   user.Username,
		ProfileURL: "https://twitter.com/" + user.Username,
		AvatarURL:  user.ProfileImageURL,
		RawData:    raw,
	}, nil
}

func (p *Twitter) syntheticUserInfo() *models.UserInfo {
	return &models.UserInfo{
		ID:         "1234567890",
		Username:   "mock_twitter_user",
		ProfileURL: "https://twitter.com/mock_twitter_user",
		AvatarURL:  "https://pbs.twimg.com/profile_images/mock_image.jpg",
		RawData: map[string]any{
			"id":       "1234567890",
			"name":     "Mock Twitter User",
			"username": "mock_twitter_user",
		},
		Synthetic: true,
	}
}
