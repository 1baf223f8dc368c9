package pkce

import (
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChallengeRFC7636Vector(t *testing.T) {
	// Appendix B of RFC 7636.
	verifier := "dBjftJeZ4CVP-mB92K27uhbUJU1p1r_wW1gFWFOEjXk"
	assert.Equal(t, "E9Melhoa2OwvFrEMTJguCHaoeK1t8URWbuGJSstw-cM", Challenge(verifier))
}

func TestNewVerifierShape(t *testing.T) {
	alphanumeric := regexp.MustCompile(`^[a-zA-Z0-9]+$`)

	for i := 0; i < 50; i++ {
		verifier, challenge, err := NewVerifier()
		require.NoError(t, err)

		assert.Regexp(t, alphanumeric, verifier)
		assert.GreaterOrEqual(t, len(verifier), 43)
		assert.LessOrEqual(t, len(verifier), 128)
		assert.Equal(t, Challenge(verifier), challenge)
	}
}

func TestNewVerifierUnique(t *testing.T) {
	a, _, err := NewVerifier()
	require.NoError(t, err)
	b, _, err := NewVerifier()
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestResolveIsOneShot(t *testing.T) {
	tracker := NewTracker()
	tracker.Register("state-1", "verifier-1")

	got, ok := tracker.Resolve("state-1")
	require.True(t, ok)
	assert.Equal(t, "verifier-1", got)

	_, ok = tracker.Resolve("state-1")
	assert.False(t, ok, "second resolve must report not-found")
}

func TestRegisterOverwriteRestartsFlow(t *testing.T) {
	tracker := NewTracker()
	tracker.Register("state-1", "old-verifier")
	tracker.Register("state-1", "new-verifier")

	got, ok := tracker.Resolve("state-1")
	require.True(t, ok)
	assert.Equal(t, "new-verifier", got)
}

func TestResolveUnknownState(t *testing.T) {
	tracker := NewTracker()
	_, ok := tracker.Resolve("never-registered")
	assert.False(t, ok)
}

func TestResolveExactlyOnceUnderConcurrency(t *testing.T) {
	tracker := NewTracker()
	tracker.Register("state-1", "verifier-1")

	const callers = 32
	var wg sync.WaitGroup
	var hits int32
	results := make(chan bool, callers)

	wg.Add(callers)
	for i := 0; i < callers; i++ {
		go func() {
			defer wg.Done()
			_, ok := tracker.Resolve("state-1")
			results <- ok
		}()
	}
	wg.Wait()
	close(results)

	for ok := range results {
		if ok {
			hits++
		}
	}
	assert.Equal(t, int32(1), hits, "exactly one caller may win the verifier")
}

func TestExpiredEntriesResolveAsNotFound(t *testing.T) {
	tracker := NewTrackerWithTTL(time.Minute)
	base := time.Now()
	tracker.now = func() time.Time { return base }

	tracker.Register("state-1", "verifier-1")

	tracker.now = func() time.Time { return base.Add(2 * time.Minute) }
	_, ok := tracker.Resolve("state-1")
	assert.False(t, ok)
}

func TestRegisterReapsAbandonedFlows(t *testing.T) {
	tracker := NewTrackerWithTTL(time.Minute)
	base := time.Now()
	tracker.now = func() time.Time { return base }

	tracker.Register("abandoned-1", "v1")
	tracker.Register("abandoned-2", "v2")
	require.Equal(t, 2, tracker.Len())

	tracker.now = func() time.Time { return base.Add(5 * time.Minute) }
	tracker.Register("fresh", "v3")

	assert.Equal(t, 1, tracker.Len(), "expired entries are reaped on register")
}
