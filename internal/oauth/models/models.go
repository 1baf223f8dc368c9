package models

// TokenResponse is the normalized outward-facing token shape returned from
// a code exchange or a refresh. ExpiresIn is relative seconds as issued by
// the provider; the broker converts it to an absolute expiry at store time.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	RefreshToken string `json:"refresh_token,omitempty"`
	Scope        string `json:"scope,omitempty"`

	// Synthetic marks a token fabricated for unconfigured credentials.
	// It is metadata only and never part of the values a client checks
	// for validity.
	Synthetic bool `json:"synthetic,omitempty"`
}

// TokenRecord is the stored credential state for one (user, provider) pair.
// At most one record exists per pair; records are replaced whole, never
// partially updated.
type TokenRecord struct {
	UserID       string `json:"user_id"`
	Provider     string `json:"provider"`
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	RefreshToken string `json:"refresh_token,omitempty"`
	Scope        string `json:"scope,omitempty"`
	ExpiresAt    int64  `json:"expires_at"` // Unix timestamp, issue time + ExpiresIn
}

// UserInfo is the provider-agnostic profile projection. RawData preserves
// the provider payload for forward compatibility.
type UserInfo struct {
	ID         string         `json:"id"`
	Username   string         `json:"username"`
	Email      string         `json:"email,omitempty"`
	ProfileURL string         `json:"profile_url,omitempty"`
	AvatarURL  string         `json:"avatar_url,omitempty"`
	RawData    map[string]any `json:"raw_data,omitempty"`

	Synthetic bool `json:"synthetic,omitempty"`
}

// RefreshRequest is the payload of the explicit refresh endpoint.
type RefreshRequest struct {
	UserID       string `json:"user_id"`
	RefreshToken string `json:"refresh_token"`
}
