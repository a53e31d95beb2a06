package resolutioncache

import (
	"context"
	"errors"
	"testing"

	"planhub/backend/internal/invalidation"
	"planhub/backend/internal/orgaccess"
	"planhub/backend/internal/permission"
	"planhub/backend/internal/projectaccess"
)

// countingOrgResolver implements OrgResolver for tests.
type countingOrgResolver struct {
	calls  int
	access *orgaccess.OrgAccess
	err    error
}

func (r *countingOrgResolver) ResolvePermissions(ctx context.Context, userID, orgID string) (*orgaccess.OrgAccess, error) {
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	return r.access, nil
}

// countingProjectResolver implements ProjectResolver for tests.
type countingProjectResolver struct {
	calls  int
	access *projectaccess.ProjectAccess
}

func (r *countingProjectResolver) ResolveAccess(ctx context.Context, userID, projectID string) (*projectaccess.ProjectAccess, error) {
	r.calls++
	return r.access, nil
}

func TestCachedOrgResolver_HitAndInvalidate(t *testing.T) {
	cache, err := New(8)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	inner := &countingOrgResolver{access: &orgaccess.OrgAccess{
		HasAccess:   true,
		Permissions: permission.NewSet(permission.OrgBillingView),
	}}
	r := NewOrgResolver(inner, cache)
	ctx := context.Background()

	if _, err := r.ResolvePermissions(ctx, "user-1", "org-1"); err != nil {
		t.Fatalf("ResolvePermissions: %v", err)
	}
	if _, err := r.ResolvePermissions(ctx, "user-1", "org-1"); err != nil {
		t.Fatalf("ResolvePermissions: %v", err)
	}
	if inner.calls != 1 {
		t.Errorf("inner calls = %d, want 1 (second read from cache)", inner.calls)
	}

	if err := cache.Invalidate(ctx, []invalidation.Key{invalidation.OrgKey("user-1", "org-1")}); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	if _, err := r.ResolvePermissions(ctx, "user-1", "org-1"); err != nil {
		t.Fatalf("ResolvePermissions: %v", err)
	}
	if inner.calls != 2 {
		t.Errorf("inner calls = %d, want 2 after invalidation", inner.calls)
	}
}

func TestCachedOrgResolver_ErrorsNotCached(t *testing.T) {
	cache, _ := New(8)
	inner := &countingOrgResolver{err: errors.New("store down")}
	r := NewOrgResolver(inner, cache)
	ctx := context.Background()

	if _, err := r.ResolvePermissions(ctx, "user-1", "org-1"); err == nil {
		t.Fatal("ResolvePermissions: want error")
	}
	inner.err = nil
	inner.access = &orgaccess.OrgAccess{HasAccess: true, Permissions: permission.NewSet()}
	if _, err := r.ResolvePermissions(ctx, "user-1", "org-1"); err != nil {
		t.Fatalf("ResolvePermissions after recovery: %v", err)
	}
	if inner.calls != 2 {
		t.Errorf("inner calls = %d, want 2: the failed resolution must not be cached", inner.calls)
	}
}

func TestCachedOrgResolver_HasPermissionUnknownKey(t *testing.T) {
	cache, _ := New(8)
	inner := &countingOrgResolver{access: &orgaccess.OrgAccess{HasAccess: true, Permissions: permission.OrgUniverse()}}
	r := NewOrgResolver(inner, cache)

	ok, err := r.HasPermission(context.Background(), "user-1", "org-1", permission.Key("FUTURE"))
	if err != nil || ok {
		t.Errorf("HasPermission(unknown) = (%v, %v), want (false, nil)", ok, err)
	}
	if inner.calls != 0 {
		t.Error("unknown key reached the inner resolver")
	}
}

func TestCachedProjectResolver_FanOutEviction(t *testing.T) {
	cache, _ := New(8)
	inner := &countingProjectResolver{access: &projectaccess.ProjectAccess{
		HasAccess:   true,
		Permissions: permission.NewSet(permission.ProjectTaskView),
	}}
	r := NewProjectResolver(inner, cache)
	ctx := context.Background()

	// Two users warm the cache for the same project.
	r.ResolveAccess(ctx, "user-1", "proj-1")
	r.ResolveAccess(ctx, "user-2", "proj-1")
	if cache.Len() != 2 {
		t.Fatalf("cache len = %d, want 2", cache.Len())
	}

	// A team-wide mutation fans out to both members.
	cache.Invalidate(ctx, []invalidation.Key{
		invalidation.ProjectKey("user-1", "proj-1"),
		invalidation.ProjectKey("user-2", "proj-1"),
	})
	if cache.Len() != 0 {
		t.Errorf("cache len = %d after fan-out invalidation, want 0", cache.Len())
	}

	r.ResolveAccess(ctx, "user-1", "proj-1")
	if inner.calls != 3 {
		t.Errorf("inner calls = %d, want 3", inner.calls)
	}
}

func TestCacheScopesDoNotCollide(t *testing.T) {
	cache, _ := New(8)
	orgInner := &countingOrgResolver{access: &orgaccess.OrgAccess{HasAccess: true, Permissions: permission.NewSet()}}
	projInner := &countingProjectResolver{access: &projectaccess.ProjectAccess{HasAccess: true, Permissions: permission.NewSet()}}
	ctx := context.Background()

	// Same user, same raw ID, different scopes: both entries must coexist.
	NewOrgResolver(orgInner, cache).ResolvePermissions(ctx, "user-1", "scope-1")
	NewProjectResolver(projInner, cache).ResolveAccess(ctx, "user-1", "scope-1")
	if cache.Len() != 2 {
		t.Errorf("cache len = %d, want 2 distinct entries per scope type", cache.Len())
	}
}

func TestNew_DefaultSize(t *testing.T) {
	cache, err := New(0)
	if err != nil {
		t.Fatalf("New(0): %v", err)
	}
	if cache.Len() != 0 {
		t.Errorf("fresh cache len = %d, want 0", cache.Len())
	}
}
