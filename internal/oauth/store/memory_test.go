package store

import (
	"context"
	"testing"

	"github.com/averlon/tokenbroker/internal/oauth/models"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecord(userID, provider string) *models.TokenRecord {
	return &models.TokenRecord{
		UserID:       userID,
		Provider:     provider,
		AccessToken:  "access-" + provider,
		TokenType:    "Bearer",
		ExpiresIn:    3600,
		RefreshToken: "refresh-" + provider,
		Scope:        "read write",
		ExpiresAt:    1700000000,
	}
}

func TestMemoryStorePutGet(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	want := sampleRecord("alice", "sketchfab")
	require.NoError(t, s.Put(ctx, want))

	got, err := s.Get(ctx, "alice", "sketchfab")
	require.NoError(t, err)
	require.NotNil(t, got)

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("record mismatch (-want +got):\n%s", diff)
	}
}

func TestMemoryStoreGetMissing(t *testing.T) {
	s := NewMemoryStore()

	got, err := s.Get(context.Background(), "nobody", "sketchfab")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemoryStorePutReplaces(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	first := sampleRecord("alice", "twitter")
	require.NoError(t, s.Put(ctx, first))

	second := sampleRecord("alice", "twitter")
	second.AccessToken = "rotated"
	require.NoError(t, s.Put(ctx, second))

	got, err := s.Get(ctx, "alice", "twitter")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "rotated", got.AccessToken)
}

func TestMemoryStoreKeysAreIndependent(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, sampleRecord("alice", "sketchfab")))
	require.NoError(t, s.Put(ctx, sampleRecord("alice", "twitter")))
	require.NoError(t, s.Put(ctx, sampleRecord("bob", "sketchfab")))

	require.NoError(t, s.Delete(ctx, "alice", "sketchfab"))

	got, err := s.Get(ctx, "alice", "sketchfab")
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = s.Get(ctx, "alice", "twitter")
	require.NoError(t, err)
	assert.NotNil(t, got)

	got, err = s.Get(ctx, "bob", "sketchfab")
	require.NoError(t, err)
	assert.NotNil(t, got)
}

func TestMemoryStoreDeleteIdempotent(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Delete(ctx, "nobody", "google"))
	require.NoError(t, s.Delete(ctx, "nobody", "google"))
}

func TestMemoryStoreGetReturnsCopy(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, sampleRecord("alice", "google")))

	got, err := s.Get(ctx, "alice", "google")
	require.NoError(t, err)
	got.AccessToken = "mutated by caller"

	again, err := s.Get(ctx, "alice", "google")
	require.NoError(t, err)
	assert.Equal(t, "access-google", again.AccessToken)
}
