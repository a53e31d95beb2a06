// Package routes maps resolved permission sets onto the navigable route keys
// a caller may see. The predicate table below is the only path from
// permissions to navigation: the projector and the per-route guard both
// evaluate it, so a key shown in navigation is always accepted by the guard
// of the route it names.
package routes

import (
	"planhub/backend/internal/permission"
)

// Key identifies one navigable application section.
type Key string

// Organization-scoped route keys.
const (
	OrgDashboard   Key = "org.dashboard"
	OrgMembers     Key = "org.members"
	OrgDepartments Key = "org.departments"
	OrgAudit       Key = "org.audit"
	OrgBilling     Key = "org.billing"
	OrgSettings    Key = "org.settings"
)

// Project-scoped route keys.
const (
	ProjectOverview    Key = "project.overview"
	ProjectTasks       Key = "project.tasks"
	ProjectBoard       Key = "project.board"
	ProjectSprints     Key = "project.sprints"
	ProjectTeams       Key = "project.teams"
	ProjectMembers     Key = "project.members"
	ProjectPermissions Key = "project.permissions"
	ProjectSettings    Key = "project.settings"
)

// predicate decides whether a permission set may enter a route. anyOf lists
// the keys of which at least one must be held; an empty anyOf means the route
// is visible to anyone who has access to the scope at all.
type predicate struct {
	anyOf []permission.Key
}

type entry struct {
	key  Key
	pred predicate
}

func (p predicate) allows(perms permission.Set) bool {
	if len(p.anyOf) == 0 {
		return true
	}
	return perms.HasAny(p.anyOf...)
}

// orgTable and projectTable are the single source of truth for route gating.
// Order determines the order keys are emitted in, matching navigation order.
var orgTable = []entry{
	{OrgDashboard, predicate{}},
	{OrgMembers, predicate{anyOf: []permission.Key{permission.OrgMembersManage}}},
	{OrgDepartments, predicate{anyOf: []permission.Key{permission.OrgDepartmentsManage}}},
	{OrgAudit, predicate{anyOf: []permission.Key{permission.OrgAuditView}}},
	{OrgBilling, predicate{anyOf: []permission.Key{permission.OrgBillingView, permission.OrgBillingManage}}},
	{OrgSettings, predicate{anyOf: []permission.Key{permission.OrgSettingsManage}}},
}

var projectTable = []entry{
	{ProjectOverview, predicate{}},
	{ProjectTasks, predicate{anyOf: []permission.Key{permission.ProjectTaskView, permission.ProjectTaskCreate, permission.ProjectTaskEdit, permission.ProjectTaskDelete}}},
	{ProjectBoard, predicate{anyOf: []permission.Key{permission.ProjectTaskView, permission.ProjectTaskEdit}}},
	{ProjectSprints, predicate{anyOf: []permission.Key{permission.ProjectSprintView, permission.ProjectSprintCreate, permission.ProjectSprintEdit, permission.ProjectSprintDelete}}},
	{ProjectTeams, predicate{anyOf: []permission.Key{permission.ProjectManageTeams}}},
	{ProjectMembers, predicate{anyOf: []permission.Key{permission.ProjectManageMembers, permission.ProjectMemberInvite, permission.ProjectMemberRemove}}},
	{ProjectPermissions, predicate{anyOf: []permission.Key{permission.ProjectManagePermissions}}},
	{ProjectSettings, predicate{anyOf: []permission.Key{permission.ProjectSettings}}},
}

// ProjectOrgRoutes returns the organization route keys visible to a caller
// holding perms. The caller must already have scope access; NoAccess callers
// get no keys at all and must be filtered before projection.
func ProjectOrgRoutes(perms permission.Set) []Key {
	return project(orgTable, perms)
}

// ProjectProjectRoutes returns the project route keys visible to a caller
// holding perms.
func ProjectProjectRoutes(perms permission.Set) []Key {
	return project(projectTable, perms)
}

// AllowedOrg reports whether perms may enter the org route key. Route
// handlers gate on this; it reads the same table the projector emits from.
func AllowedOrg(key Key, perms permission.Set) bool {
	return allowed(orgTable, key, perms)
}

// AllowedProject reports whether perms may enter the project route key.
func AllowedProject(key Key, perms permission.Set) bool {
	return allowed(projectTable, key, perms)
}

// OrgKeys returns every org route key in navigation order.
func OrgKeys() []Key {
	return keysOf(orgTable)
}

// ProjectKeys returns every project route key in navigation order.
func ProjectKeys() []Key {
	return keysOf(projectTable)
}

func project(table []entry, perms permission.Set) []Key {
	out := make([]Key, 0, len(table))
	for _, e := range table {
		if e.pred.allows(perms) {
			out = append(out, e.key)
		}
	}
	return out
}

func allowed(table []entry, key Key, perms permission.Set) bool {
	for _, e := range table {
		if e.key == key {
			return e.pred.allows(perms)
		}
	}
	return false
}

func keysOf(table []entry) []Key {
	out := make([]Key, 0, len(table))
	for _, e := range table {
		out = append(out, e.key)
	}
	return out
}

// Strings converts route keys to plain strings for API responses.
func Strings(keys []Key) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = string(k)
	}
	return out
}
