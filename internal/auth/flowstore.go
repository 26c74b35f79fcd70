package auth

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"sync"
	"time"
)

// flowTTL bounds how long a started OAuth handshake stays redeemable. A user
// who parks on the consent screen longer than this has to start over.
const flowTTL = 10 * time.Minute

// flow holds the server-side half of an in-progress OAuth handshake: the
// PKCE verifier for OAuth 2.0 flows, or the request-token secret for
// OAuth 1.0a flows. Secret is reused to carry the linking user's ID in
// OAuth 1.0a flows where the key is the request token.
type flow struct {
	verifier string
	secret   string
	userID   string
	expires  time.Time
}

// FlowStore keeps pending OAuth handshakes in memory, keyed by state (2.0)
// or request token (1.0a). Entries are single-use: Take removes on read, so
// a replayed callback finds nothing. Suitable for a single-process server;
// a multi-instance deployment would need a shared store.
type FlowStore struct {
	mu    sync.Mutex
	flows map[string]flow
}

// NewFlowStore creates an empty FlowStore.
func NewFlowStore() *FlowStore {
	return &FlowStore{flows: make(map[string]flow)}
}

// NewState returns a fresh random state value for an OAuth 2.0 flow.
func NewState() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("auth: generating state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// PutVerifier records the PKCE verifier for a state, valid for flowTTL.
func (s *FlowStore) PutVerifier(state, verifier string) {
	s.put(state, flow{verifier: verifier, expires: time.Now().Add(flowTTL)})
}

// TakeVerifier removes and returns the verifier for a state. The bool is
// false when the state is unknown or expired.
func (s *FlowStore) TakeVerifier(state string) (string, bool) {
	f, ok := s.take(state)
	return f.verifier, ok
}

// PutRequestSecret records an OAuth 1.0a request-token secret along with the
// ID of the user linking their account.
func (s *FlowStore) PutRequestSecret(requestToken, secret, userID string) {
	s.put(requestToken, flow{secret: secret, userID: userID, expires: time.Now().Add(flowTTL)})
}

// TakeRequestSecret removes and returns the secret and linking user for a
// request token.
func (s *FlowStore) TakeRequestSecret(requestToken string) (secret, userID string, ok bool) {
	f, ok := s.take(requestToken)
	return f.secret, f.userID, ok
}

func (s *FlowStore) put(key string, f flow) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Opportunistic sweep keeps the map from accumulating abandoned flows.
	now := time.Now()
	for k, v := range s.flows {
		if now.After(v.expires) {
			delete(s.flows, k)
		}
	}

	s.flows[key] = f
}

func (s *FlowStore) take(key string) (flow, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.flows[key]
	if !ok {
		return flow{}, false
	}
	delete(s.flows, key)

	if time.Now().After(f.expires) {
		return flow{}, false
	}
	return f, true
}
