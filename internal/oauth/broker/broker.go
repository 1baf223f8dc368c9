// Package broker implements the token lifecycle engine: it is the only
// component that touches both the provider adapters and the token store.
package broker

import (
	"context"
	"errors"
	"time"

	"github.com/averlon/tokenbroker/internal/logger"
	"github.com/averlon/tokenbroker/internal/oauth/models"
	"github.com/averlon/tokenbroker/internal/oauth/providers"
	"github.com/averlon/tokenbroker/internal/oauth/store"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// RefreshWindow is how close to expiry a stored token may get before
// GetToken refreshes it transparently. Callers are guaranteed either a
// token valid for at least this long, or no token at all.
const RefreshWindow = 60 * time.Second

// ErrTokenNotFound indicates no stored token exists for the (user,
// provider) pair. Distinct from a provider error.
var ErrTokenNotFound = errors.New("no token found for user and provider")

// Broker orchestrates token storage, retrieval with near-expiry
// auto-refresh, and deletion.
type Broker struct {
	store    store.Store
	registry *providers.Registry
	group    singleflight.Group
	now      func() time.Time
}

// New creates a Broker over the given store and provider registry
func New(tokenStore store.Store, registry *providers.Registry) *Broker {
	return &Broker{
		store:    tokenStore,
		registry: registry,
		now:      time.Now,
	}
}

// StoreToken converts a normalized token response into a record with an
// absolute expiry and writes it, replacing any prior record for the key.
func (b *Broker) StoreToken(ctx context.Context, userID, providerName string, token *models.TokenResponse) error {
	record := &models.TokenRecord{
		UserID:       userID,
		Provider:     providerName,
		AccessToken:  token.AccessToken,
		TokenType:    token.TokenType,
		ExpiresIn:    token.ExpiresIn,
		RefreshToken: token.RefreshToken,
		Scope:        token.Scope,
		ExpiresAt:    b.now().Unix() + token.ExpiresIn,
	}
	return b.store.Put(ctx, record)
}

// GetToken returns the current record for the key, refreshing it
// transparently when it is within RefreshWindow of expiry. A record that
// cannot be refreshed is deleted and (nil, nil) is returned: callers never
// receive a credential on the edge of expiry.
func (b *Broker) GetToken(ctx context.Context, userID, providerName string) (*models.TokenRecord, error) {
	record, err := b.store.Get(ctx, userID, providerName)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, nil
	}
	if b.fresh(record) {
		return record, nil
	}

	// Concurrent callers for the same key share one refresh; the provider
	// sees a single request.
	result, err, _ := b.group.Do(userID+"|"+providerName, func() (any, error) {
		current, err := b.store.Get(ctx, userID, providerName)
		if err != nil {
			return nil, err
		}
		if current == nil {
			return (*models.TokenRecord)(nil), nil
		}
		if b.fresh(current) {
			// Another caller already refreshed while we waited.
			return current, nil
		}
		return b.refreshExpiring(ctx, userID, providerName, current)
	})
	if err != nil {
		return nil, err
	}
	return result.(*models.TokenRecord), nil
}

// DeleteToken removes the record for the key; idempotent.
func (b *Broker) DeleteToken(ctx context.Context, userID, providerName string) error {
	return b.store.Delete(ctx, userID, providerName)
}

// Refresh performs an explicit, caller-requested refresh. It requires an
// existing stored record for the key and replaces it on success.
func (b *Broker) Refresh(ctx context.Context, userID, providerName, refreshToken string) (*models.TokenResponse, error) {
	existing, err := b.store.Get(ctx, userID, providerName)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, ErrTokenNotFound
	}

	adapter, err := b.registry.Create(providerName)
	if err != nil {
		return nil, err
	}

	token, err := adapter.Refresh(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	if err := b.StoreToken(ctx, userID, providerName, token); err != nil {
		return nil, err
	}
	return token, nil
}

// UserInfo fetches profile data for the key's stored token, with the
// auto-refresh guarantee of GetToken applied first.
func (b *Broker) UserInfo(ctx context.Context, userID, providerName string) (*models.UserInfo, error) {
	adapter, err := b.registry.Create(providerName)
	if err != nil {
		return nil, err
	}

	record, err := b.GetToken(ctx, userID, providerName)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, ErrTokenNotFound
	}

	return adapter.UserInfo(ctx, record.AccessToken)
}

func (b *Broker) fresh(record *models.TokenRecord) bool {
	return time.Unix(record.ExpiresAt, 0).Sub(b.now()) > RefreshWindow
}

// refreshExpiring replaces a near-expiry record via the provider's refresh
// flow. Any failure degrades to "no token": the stale record is deleted so
// the caller can restart the authorization flow cleanly. The only exception
// is caller cancellation, which must not mutate the store.
func (b *Broker) refreshExpiring(ctx context.Context, userID, providerName string, current *models.TokenRecord) (*models.TokenRecord, error) {
	log := logger.With(
		zap.String("user_id", userID),
		zap.String("provider", providerName),
	)

	if current.RefreshToken == "" {
		log.Warn("token expiring with no refresh token, deleting record")
		if err := b.store.Delete(ctx, userID, providerName); err != nil {
			return nil, err
		}
		return nil, nil
	}

	adapter, err := b.registry.Create(providerName)
	if err != nil {
		log.Warn("stored token references unknown provider, deleting record", zap.Error(err))
		if err := b.store.Delete(ctx, userID, providerName); err != nil {
			return nil, err
		}
		return nil, nil
	}

	token, err := adapter.Refresh(ctx, current.RefreshToken)
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		log.Warn("token refresh failed, deleting stale record", zap.Error(err))
		if err := b.store.Delete(ctx, userID, providerName); err != nil {
			return nil, err
		}
		return nil, nil
	}

	if err := b.StoreToken(ctx, userID, providerName, token); err != nil {
		return nil, err
	}
	return b.store.Get(ctx, userID, providerName)
}
