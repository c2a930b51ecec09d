package oidc

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwk"
)

type cachedSet struct {
	keys    jwk.Set
	expires time.Time
}

// JWKSManager fetches key sets and caches them per URL.
type JWKSManager struct {
	mu         sync.RWMutex
	cache      map[string]cachedSet
	ttl        time.Duration
	httpClient *http.Client
	now        func() time.Time
}

// NewJWKSManager caches key sets for one hour.
func NewJWKSManager() *JWKSManager {
	return &JWKSManager{
		cache:      make(map[string]cachedSet),
		ttl:        time.Hour,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		now:        time.Now,
	}
}

// GetJWKS returns the cached set for jwksURL, refetching after expiry.
func (m *JWKSManager) GetJWKS(ctx context.Context, jwksURL string) (jwk.Set, error) {
	m.mu.RLock()
	entry, ok := m.cache[jwksURL]
	m.mu.RUnlock()
	if ok && m.now().Before(entry.expires) {
		return entry.keys, nil
	}

	keys, err := jwk.Fetch(ctx, jwksURL, jwk.WithHTTPClient(m.httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch JWKS: %w", err)
	}

	m.mu.Lock()
	m.cache[jwksURL] = cachedSet{keys: keys, expires: m.now().Add(m.ttl)}
	m.mu.Unlock()

	return keys, nil
}
