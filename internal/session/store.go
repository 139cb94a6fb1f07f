// Package session persists OAuth session snapshots for the web service so a
// returning browser can resume with its stored access token.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dropDatabas3/oauthflow/internal/cache"
	"github.com/dropDatabas3/oauthflow/internal/oauth"
)

const keyPrefix = "session:"

// Store keeps snapshots in a cache.Client, keyed by browser session id.
type Store struct {
	c          cache.Client
	defaultTTL time.Duration
	now        func() time.Time
}

// NewStore returns a store. defaultTTL applies to sessions without a token
// expiration; authorized sessions live until their token expires.
func NewStore(c cache.Client, defaultTTL time.Duration) *Store {
	return &Store{c: c, defaultTTL: defaultTTL, now: time.Now}
}

// Load returns the stored snapshot, or ok=false when none exists.
func (s *Store) Load(ctx context.Context, id string) (oauth.Session, bool, error) {
	raw, err := s.c.Get(ctx, keyPrefix+id)
	if cache.IsNotFound(err) {
		return oauth.Session{}, false, nil
	}
	if err != nil {
		return oauth.Session{}, false, fmt.Errorf("session: load %s: %w", id, err)
	}
	var snap oauth.Session
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		return oauth.Session{}, false, fmt.Errorf("session: decode %s: %w", id, err)
	}
	return snap, true, nil
}

// Save stores snap under id.
func (s *Store) Save(ctx context.Context, id string, snap oauth.Session) error {
	b, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("session: encode %s: %w", id, err)
	}
	if err := s.c.Set(ctx, keyPrefix+id, string(b), s.ttlFor(snap)); err != nil {
		return fmt.Errorf("session: save %s: %w", id, err)
	}
	return nil
}

// Delete removes the snapshot stored under id.
func (s *Store) Delete(ctx context.Context, id string) error {
	return s.c.Delete(ctx, keyPrefix+id)
}

// Ping checks the backing cache.
func (s *Store) Ping(ctx context.Context) error { return s.c.Ping(ctx) }

func (s *Store) ttlFor(snap oauth.Session) time.Duration {
	if snap.Authorized && !snap.AccessTokenExpiration.IsZero() {
		if d := snap.AccessTokenExpiration.Sub(s.now()); d > 0 {
			return d
		}
	}
	return s.defaultTTL
}
