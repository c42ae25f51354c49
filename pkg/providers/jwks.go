package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	jose "gopkg.in/go-jose/go-jose.v2"
	"gopkg.in/go-jose/go-jose.v2/jwt"
)

// jwksRefreshInterval bounds how often the remote key set is refetched when
// the cached copy keeps serving lookups.
const jwksRefreshInterval = time.Hour

// jwksCache is a per-provider-instance cache of remote JWKS key sets. It is
// a performance cache, not a correctness one: concurrent first-use may fetch
// the same document more than once, which is harmless since the fetch is
// idempotent. A signing key missing from the cached set triggers one forced
// refetch before the verification fails (key rotation).
type jwksCache struct {
	client *http.Client

	mu   sync.Mutex
	sets map[string]*cachedKeySet
}

type cachedKeySet struct {
	keys      *jose.JSONWebKeySet
	fetchedAt time.Time
}

func newJWKSCache(client *http.Client) *jwksCache {
	return &jwksCache{
		client: client,
		sets:   make(map[string]*cachedKeySet),
	}
}

func (c *jwksCache) keySet(ctx context.Context, uri string, forceRefresh bool) (*jose.JSONWebKeySet, error) {
	c.mu.Lock()
	cached, ok := c.sets[uri]
	c.mu.Unlock()

	if ok && !forceRefresh && time.Since(cached.fetchedAt) < jwksRefreshInterval {
		return cached.keys, nil
	}

	keys, err := c.fetch(ctx, uri)
	if err != nil {
		// Serve the stale set rather than failing the request when we have
		// one and the caller did not demand a refresh.
		if ok && !forceRefresh {
			return cached.keys, nil
		}
		return nil, err
	}

	c.mu.Lock()
	c.sets[uri] = &cachedKeySet{keys: keys, fetchedAt: time.Now()}
	c.mu.Unlock()
	return keys, nil
}

func (c *jwksCache) fetch(ctx context.Context, uri string) (*jose.JSONWebKeySet, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching jwks from %s: %w", uri, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &ProviderAPIError{Endpoint: uri, StatusCode: resp.StatusCode, Body: string(body)}
	}

	var keys jose.JSONWebKeySet
	if err := json.Unmarshal(body, &keys); err != nil {
		return nil, fmt.Errorf("decoding jwks from %s: %w", uri, err)
	}
	return &keys, nil
}

// verifyIDToken checks the id_token signature against the remote JWKS and
// audience-checks the claims against the (de-mangled) client id. A signature
// or audience failure is fatal; the caller must not fall back to unverified
// claims.
func verifyIDToken(ctx context.Context, cache *jwksCache, jwksURI, idToken, clientID string) (map[string]any, error) {
	parsed, err := jwt.ParseSigned(idToken)
	if err != nil {
		return nil, fmt.Errorf("parsing id_token: %w", err)
	}

	var claims map[string]any
	keys, err := cache.keySet(ctx, jwksURI, false)
	if err != nil {
		return nil, err
	}
	if err := parsed.Claims(keys, &claims); err != nil {
		// The signing key may have rotated out of the cached set.
		keys, refreshErr := cache.keySet(ctx, jwksURI, true)
		if refreshErr != nil {
			return nil, refreshErr
		}
		claims = nil
		if err := parsed.Claims(keys, &claims); err != nil {
			return nil, fmt.Errorf("id_token signature verification failed: %w", err)
		}
	}

	if !audienceMatches(claims["aud"], clientID) {
		return nil, fmt.Errorf("id_token audience does not match the client id")
	}
	return claims, nil
}

func audienceMatches(aud any, clientID string) bool {
	switch v := aud.(type) {
	case string:
		return v == clientID
	case []any:
		for _, entry := range v {
			if s, ok := entry.(string); ok && s == clientID {
				return true
			}
		}
	}
	return false
}
