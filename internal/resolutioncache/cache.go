// Package resolutioncache memoizes resolved access profiles in front of the
// resolvers. The cache consumes the invalidation contract: it implements
// invalidation.Notifier and drops every key a mutation reports stale, so a
// department-wide revoke evicts every member's entry, not only the actor's.
package resolutioncache

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"

	"planhub/backend/internal/invalidation"
	"planhub/backend/internal/orgaccess"
	"planhub/backend/internal/permission"
	"planhub/backend/internal/projectaccess"
)

// DefaultMaxEntries bounds the cache when config does not say otherwise.
const DefaultMaxEntries = 16384

// Cache is an LRU over resolved profiles, keyed by (user, scope).
type Cache struct {
	entries *lru.Cache[invalidation.Key, any]
}

// New returns a Cache holding at most maxEntries profiles.
func New(maxEntries int) (*Cache, error) {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	entries, err := lru.New[invalidation.Key, any](maxEntries)
	if err != nil {
		return nil, err
	}
	return &Cache{entries: entries}, nil
}

// Invalidate drops every listed key. Implements invalidation.Notifier.
func (c *Cache) Invalidate(_ context.Context, keys []invalidation.Key) error {
	for _, k := range keys {
		c.entries.Remove(k)
	}
	return nil
}

// Len returns the number of cached profiles.
func (c *Cache) Len() int {
	return c.entries.Len()
}

// OrgResolver is the org resolver interface the cache fronts.
type OrgResolver interface {
	ResolvePermissions(ctx context.Context, userID, orgID string) (*orgaccess.OrgAccess, error)
}

// CachedOrgResolver memoizes org resolutions in the shared cache.
type CachedOrgResolver struct {
	inner OrgResolver
	cache *Cache
}

// NewOrgResolver wraps inner with the cache.
func NewOrgResolver(inner OrgResolver, cache *Cache) *CachedOrgResolver {
	return &CachedOrgResolver{inner: inner, cache: cache}
}

// ResolvePermissions returns the cached profile when present, resolving and
// storing it otherwise. Errors are never cached.
func (r *CachedOrgResolver) ResolvePermissions(ctx context.Context, userID, orgID string) (*orgaccess.OrgAccess, error) {
	key := invalidation.OrgKey(userID, orgID)
	if v, ok := r.cache.entries.Get(key); ok {
		return v.(*orgaccess.OrgAccess), nil
	}
	access, err := r.inner.ResolvePermissions(ctx, userID, orgID)
	if err != nil {
		return nil, err
	}
	r.cache.entries.Add(key, access)
	return access, nil
}

// HasPermission reports whether the user holds key in the organization,
// through the cache.
func (r *CachedOrgResolver) HasPermission(ctx context.Context, userID, orgID string, key permission.Key) (bool, error) {
	if !permission.ValidOrgKey(key) {
		return false, nil
	}
	access, err := r.ResolvePermissions(ctx, userID, orgID)
	if err != nil {
		return false, err
	}
	return access.HasAccess && access.Permissions.Has(key), nil
}

// ProjectResolver is the project resolver interface the cache fronts.
type ProjectResolver interface {
	ResolveAccess(ctx context.Context, userID, projectID string) (*projectaccess.ProjectAccess, error)
}

// CachedProjectResolver memoizes project resolutions in the shared cache.
// Only the hint-deriving path is cached; resolutions with a caller-supplied
// authority hint bypass the cache because the hint is outside the
// invalidation contract.
type CachedProjectResolver struct {
	inner ProjectResolver
	cache *Cache
}

// NewProjectResolver wraps inner with the cache.
func NewProjectResolver(inner ProjectResolver, cache *Cache) *CachedProjectResolver {
	return &CachedProjectResolver{inner: inner, cache: cache}
}

// ResolveAccess returns the cached profile when present, resolving and
// storing it otherwise. Errors are never cached.
func (r *CachedProjectResolver) ResolveAccess(ctx context.Context, userID, projectID string) (*projectaccess.ProjectAccess, error) {
	key := invalidation.ProjectKey(userID, projectID)
	if v, ok := r.cache.entries.Get(key); ok {
		return v.(*projectaccess.ProjectAccess), nil
	}
	access, err := r.inner.ResolveAccess(ctx, userID, projectID)
	if err != nil {
		return nil, err
	}
	r.cache.entries.Add(key, access)
	return access, nil
}
