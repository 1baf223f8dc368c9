// Package pkce implements the RFC 7636 (S256) verifier/challenge primitives
// and the one-shot state binding used during authorization.
package pkce

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"regexp"
	"sync"
	"time"
)

// DefaultTTL bounds how long an abandoned authorization attempt may occupy
// the tracker. Legitimate flows complete within seconds.
const DefaultTTL = 10 * time.Minute

// verifierBytes is the amount of randomness drawn per verifier. 48 bytes
// encode to 64 base64 characters, which stays above the RFC minimum of 43
// even after non-alphanumeric characters are stripped.
const verifierBytes = 48

var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9]+`)

// NewVerifier generates a code verifier and its S256 challenge.
func NewVerifier() (verifier, challenge string, err error) {
	b := make([]byte, verifierBytes)
	if _, err := rand.Read(b); err != nil {
		return "", "", fmt.Errorf("failed to generate code verifier: %w", err)
	}

	verifier = nonAlphanumeric.ReplaceAllString(base64.RawURLEncoding.EncodeToString(b), "")
	return verifier, Challenge(verifier), nil
}

// Challenge derives the S256 code challenge for a verifier: URL-safe base64
// of SHA-256(verifier), without padding.
func Challenge(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

type entry struct {
	verifier  string
	createdAt time.Time
}

// Tracker binds a one-time code verifier to the authorization attempt that
// generated it, keyed by the state embedded in the authorize URL. It is safe
// for concurrent use.
type Tracker struct {
	mu      sync.Mutex
	entries map[string]entry
	ttl     time.Duration
	now     func() time.Time
}

// NewTracker creates a Tracker with the default entry TTL.
func NewTracker() *Tracker {
	return NewTrackerWithTTL(DefaultTTL)
}

// NewTrackerWithTTL creates a Tracker whose entries expire after ttl.
func NewTrackerWithTTL(ttl time.Duration) *Tracker {
	return &Tracker{
		entries: make(map[string]entry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Register stores the verifier under state. Overwriting an existing state is
// allowed and treated as a flow restart. Expired entries are reaped here so
// abandoned flows cannot accumulate without bound.
func (t *Tracker) Register(state, verifier string) {
	now := t.now()

	t.mu.Lock()
	defer t.mu.Unlock()

	for s, e := range t.entries {
		if now.Sub(e.createdAt) > t.ttl {
			delete(t.entries, s)
		}
	}
	t.entries[state] = entry{verifier: verifier, createdAt: now}
}

// Resolve removes and returns the verifier for state. The removal is atomic
// with the lookup: a second Resolve for the same state reports not-found,
// even under concurrent callback delivery. Expired entries resolve as
// not-found.
func (t *Tracker) Resolve(state string) (string, bool) {
	now := t.now()

	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.entries[state]
	if !ok {
		return "", false
	}
	delete(t.entries, state)

	if now.Sub(e.createdAt) > t.ttl {
		return "", false
	}
	return e.verifier, true
}

// Len reports the number of pending authorization attempts.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}
