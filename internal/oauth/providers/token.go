package providers

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/averlon/tokenbroker/internal/oauth/models"
	"github.com/averlon/tokenbroker/internal/requester"
)

// tokenPayload matches the wire shape of an OAuth token endpoint response.
// Scope stays raw because providers disagree on whether it is a string or a
// list.
type tokenPayload struct {
	AccessToken  string          `json:"access_token"`
	TokenType    string          `json:"token_type"`
	ExpiresIn    int64           `json:"expires_in"`
	RefreshToken string          `json:"refresh_token"`
	Scope        json.RawMessage `json:"scope"`
}

// decodeTokenResponse parses a token endpoint body into the normalized
// response. defaultExpiresIn fills a missing expires_in; fallbackRefresh is
// carried forward when the provider omits refresh_token (the refresh-flow
// contract for providers that do not reissue one).
func decodeTokenResponse(provider string, body []byte, defaultExpiresIn int64, fallbackRefresh string) (*models.TokenResponse, error) {
	var payload tokenPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%s: failed to decode token response: %w", provider, err)
	}
	if payload.AccessToken == "" {
		return nil, fmt.Errorf("%s: token response missing access_token", provider)
	}

	scope, err := normalizeScope(payload.Scope)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", provider, err)
	}

	resp := &models.TokenResponse{
		AccessToken:  payload.AccessToken,
		TokenType:    payload.TokenType,
		ExpiresIn:    payload.ExpiresIn,
		RefreshToken: payload.RefreshToken,
		Scope:        scope,
	}
	if resp.TokenType == "" {
		resp.TokenType = "Bearer"
	}
	if resp.ExpiresIn == 0 {
		resp.ExpiresIn = defaultExpiresIn
	}
	if resp.RefreshToken == "" {
		resp.RefreshToken = fallbackRefresh
	}
	return resp, nil
}

// normalizeScope flattens a scope that may arrive as a JSON string or a
// JSON list into a single space-joined string.
func normalizeScope(raw json.RawMessage) (string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}

	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return strings.Join(list, " "), nil
	}

	return "", fmt.Errorf("unexpected scope format: %s", raw)
}

// postToken submits a form-encoded request to a token endpoint and applies
// the shared failure policy: transport failures become TransportError,
// non-2xx responses become ProviderError with the body intact.
func postToken(ctx context.Context, client requester.Client, provider, tokenURL string, form url.Values) ([]byte, error) {
	resp, err := client.PostForm(ctx, tokenURL, form)
	if err != nil {
		return nil, &TransportError{Provider: provider, Err: err}
	}
	if !resp.OK() {
		return nil, &ProviderError{Provider: provider, StatusCode: resp.StatusCode, Body: resp.Body}
	}
	return resp.Body, nil
}

// getBearer performs an authenticated GET against a provider API endpoint
// under the same failure policy as postToken.
func getBearer(ctx context.Context, client requester.Client, provider, endpoint, accessToken string) ([]byte, error) {
	headers := map[string]string{
		"Authorization": "Bearer " + accessToken,
	}
	resp, err := client.Get(ctx, endpoint, headers)
	if err != nil {
		return nil, &TransportError{Provider: provider, Err: err}
	}
	if !resp.OK() {
		return nil, &ProviderError{Provider: provider, StatusCode: resp.StatusCode, Body: resp.Body}
	}
	return resp.Body, nil
}

// syntheticToken fabricates a clearly-tagged token for adapters running
// without real credentials. The Synthetic flag is metadata; the value fields
// look like a normal token so clients can exercise the full flow.
func syntheticToken(provider string, expiresIn int64, scope string, now time.Time) *models.TokenResponse {
	ts := now.Unix()
	return &models.TokenResponse{
		AccessToken:  fmt.Sprintf("mock_%s_access_token_%d", provider, ts),
		TokenType:    "Bearer",
		ExpiresIn:    expiresIn,
		RefreshToken: fmt.Sprintf("mock_%s_refresh_token_%d", provider, ts),
		Scope:        scope,
		Synthetic:    true,
	}
}

// splitScopes turns a space-delimited scope string into the slice shape
// oauth2.Config expects.
func splitScopes(scopes string) []string {
	return strings.Fields(scopes)
}

// newState generates an opaque correlation token for the authorize redirect.
func newState() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
