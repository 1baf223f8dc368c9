package providers

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeTokenResponse(t *testing.T) {
	tests := []struct {
		name             string
		body             string
		defaultExpiresIn int64
		fallbackRefresh  string
		wantErr          bool
		wantAccess       string
		wantType         string
		wantExpiresIn    int64
		wantRefresh      string
		wantScope        string
	}{
		{
			name:          "complete response",
			body:          `{"access_token":"at","token_type":"bearer","expires_in":7200,"refresh_token":"rt","scope":"read"}`,
			wantAccess:    "at",
			wantType:      "bearer",
			wantExpiresIn: 7200,
			wantRefresh:   "rt",
			wantScope:     "read",
		},
		{
			name:             "missing expires_in uses default",
			body:             `{"access_token":"at"}`,
			defaultExpiresIn: 3600,
			wantAccess:       "at",
			wantType:         "Bearer",
			wantExpiresIn:    3600,
		},
		{
			name:            "missing refresh_token carries fallback forward",
			body:            `{"access_token":"at","expires_in":100}`,
			fallbackRefresh: "original-rt",
			wantAccess:      "at",
			wantType:        "Bearer",
			wantExpiresIn:   100,
			wantRefresh:     "original-rt",
		},
		{
			name:          "issued refresh_token wins over fallback",
			body:          `{"access_token":"at","expires_in":100,"refresh_token":"new-rt"}`,
			wantAccess:    "at",
			wantType:      "Bearer",
			wantExpiresIn: 100,
			wantRefresh:   "new-rt",
		},
		{
			name:          "scope as list is space-joined",
			body:          `{"access_token":"at","expires_in":100,"scope":["tweet.read","users.read"]}`,
			wantAccess:    "at",
			wantType:      "Bearer",
			wantExpiresIn: 100,
			wantScope:     "tweet.read users.read",
		},
		{
			name:    "missing access_token is an error",
			body:    `{"token_type":"bearer"}`,
			wantErr: true,
		},
		{
			name:    "malformed body is an error",
			body:    `not json`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeTokenResponse("test", []byte(tt.body), tt.defaultExpiresIn, tt.fallbackRefresh)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantAccess, got.AccessToken)
			assert.Equal(t, tt.wantType, got.TokenType)
			assert.Equal(t, tt.wantExpiresIn, got.ExpiresIn)
			assert.Equal(t, tt.wantRefresh, got.RefreshToken)
			assert.Equal(t, tt.wantScope, got.Scope)
			assert.False(t, got.Synthetic)
		})
	}
}

func TestNormalizeScope(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{name: "absent", raw: "", want: ""},
		{name: "null", raw: "null", want: ""},
		{name: "string", raw: `"read write"`, want: "read write"},
		{name: "list", raw: `["read","write"]`, want: "read write"},
		{name: "empty list", raw: `[]`, want: ""},
		{name: "number", raw: `42`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := normalizeScope(json.RawMessage(tt.raw))
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSyntheticToken(t *testing.T) {
	now := time.Unix(1700000000, 0)
	got := syntheticToken("twitter", 7200, "tweet.read", now)

	assert.Equal(t, "mock_twitter_access_token_1700000000", got.AccessToken)
	assert.Equal(t, "mock_twitter_refresh_token_1700000000", got.RefreshToken)
	assert.Equal(t, "Bearer", got.TokenType)
	assert.Equal(t, int64(7200), got.ExpiresIn)
	assert.Equal(t, "tweet.read", got.Scope)
	assert.True(t, got.Synthetic)
}
