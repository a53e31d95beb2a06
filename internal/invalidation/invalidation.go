// Package invalidation defines the cache-invalidation contract of the
// resolution core. Every administrative mutation enumerates the set of
// (user, scope) resolutions it makes stale and returns that set before
// reporting success; caches in front of the resolvers consume the keys.
package invalidation

import "context"

// ScopeType identifies which resolver's cache a key addresses.
type ScopeType string

const (
	ScopeOrg     ScopeType = "org"
	ScopeProject ScopeType = "project"
)

// Key names one cached resolution: the access profile of one user in one
// scope.
type Key struct {
	UserID    string    `json:"user_id"`
	ScopeType ScopeType `json:"scope_type"`
	ScopeID   string    `json:"scope_id"`
}

// OrgKey returns the invalidation key for a user's org resolution.
func OrgKey(userID, orgID string) Key {
	return Key{UserID: userID, ScopeType: ScopeOrg, ScopeID: orgID}
}

// ProjectKey returns the invalidation key for a user's project resolution.
func ProjectKey(userID, projectID string) Key {
	return Key{UserID: userID, ScopeType: ScopeProject, ScopeID: projectID}
}

// Dedupe returns keys with duplicates removed, preserving first-seen order.
// Fan-out enumeration walks overlapping member lists, so duplicates are
// common.
func Dedupe(keys []Key) []Key {
	seen := make(map[Key]struct{}, len(keys))
	out := keys[:0]
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}

// Notifier delivers invalidation keys to a cache. Delivery is best-effort
// from the mutation's point of view: the authoritative contract is the key
// set returned by the mutation itself.
type Notifier interface {
	Invalidate(ctx context.Context, keys []Key) error
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(ctx context.Context, keys []Key) error

func (f NotifierFunc) Invalidate(ctx context.Context, keys []Key) error {
	return f(ctx, keys)
}

// Noop is a Notifier that discards keys. Used when no cache is wired.
var Noop Notifier = NotifierFunc(func(context.Context, []Key) error { return nil })
