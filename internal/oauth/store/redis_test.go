package store

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/go-cmp/cmp"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s := NewRedisStoreWithClient(client)
	t.Cleanup(func() {
		_ = s.Close()
	})
	return s, mr
}

func TestRedisStorePutGet(t *testing.T) {
	s, _ := newTestRedisStore(t)
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

func TestRedisStoreKeyLayout(t *testing.T) {
	s, mr := newTestRedisStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, sampleRecord("alice", "twitter")))

	assert.True(t, mr.Exists("token:alice:twitter"))
}

func TestRedisStoreRecordsDoNotExpire(t *testing.T) {
	s, mr := newTestRedisStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, sampleRecord("alice", "google")))

	// The broker owns expiry; a storage TTL would drop the refresh token.
	assert.Equal(t, int64(0), int64(mr.TTL("token:alice:google")))
}

func TestRedisStoreGetMissing(t *testing.T) {
	s, _ := newTestRedisStore(t)

	got, err := s.Get(context.Background(), "nobody", "sketchfab")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisStorePutReplaces(t *testing.T) {
	s, _ := newTestRedisStore(t)
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

func TestRedisStoreDeleteIdempotent(t *testing.T) {
	s, _ := newTestRedisStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, sampleRecord("alice", "sketchfab")))
	require.NoError(t, s.Delete(ctx, "alice", "sketchfab"))
	require.NoError(t, s.Delete(ctx, "alice", "sketchfab"))

	got, err := s.Get(ctx, "alice", "sketchfab")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisStoreCorruptValue(t *testing.T) {
	s, mr := newTestRedisStore(t)

	require.NoError(t, mr.Set("token:alice:sketchfab", "not json"))

	_, err := s.Get(context.Background(), "alice", "sketchfab")
	assert.Error(t, err)
}
