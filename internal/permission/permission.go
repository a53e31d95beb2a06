// Package permission defines the closed permission-key vocabularies for the
// organization and project scopes. Keys are a deploy-time schema: grants read
// from storage may carry keys this build does not know, and those are dropped
// at the repository boundary rather than matched loosely.
package permission

// Key is one grantable capability, scoped to an organization or a project.
type Key string

// Organization-scoped permission keys.
const (
	OrgDepartmentsManage Key = "DEPARTMENTS_MANAGE"
	OrgMembersManage     Key = "MEMBERS_MANAGE"
	OrgWorkspaceCreate   Key = "WORKSPACE_CREATE"
	OrgAuditView         Key = "AUDIT_VIEW"
	OrgBillingView       Key = "BILLING_VIEW"
	OrgBillingManage     Key = "BILLING_MANAGE"
	OrgSettingsManage    Key = "SETTINGS_MANAGE"
)

// Project-scoped permission keys. Management keys gate the write-side
// administrative operations; the dotted keys gate task/sprint/member CRUD.
const (
	ProjectManageTeams       Key = "MANAGE_TEAMS"
	ProjectManagePermissions Key = "MANAGE_PERMISSIONS"
	ProjectManageMembers     Key = "MANAGE_MEMBERS"
	ProjectTaskView          Key = "task.view"
	ProjectTaskCreate        Key = "task.create"
	ProjectTaskEdit          Key = "task.edit"
	ProjectTaskDelete        Key = "task.delete"
	ProjectSprintView        Key = "sprint.view"
	ProjectSprintCreate      Key = "sprint.create"
	ProjectSprintEdit        Key = "sprint.edit"
	ProjectSprintDelete      Key = "sprint.delete"
	ProjectMemberInvite      Key = "member.invite"
	ProjectMemberRemove      Key = "member.remove"
	ProjectSettings          Key = "project.settings"
)

var orgUniverse = []Key{
	OrgDepartmentsManage,
	OrgMembersManage,
	OrgWorkspaceCreate,
	OrgAuditView,
	OrgBillingView,
	OrgBillingManage,
	OrgSettingsManage,
}

var projectUniverse = []Key{
	ProjectManageTeams,
	ProjectManagePermissions,
	ProjectManageMembers,
	ProjectTaskView,
	ProjectTaskCreate,
	ProjectTaskEdit,
	ProjectTaskDelete,
	ProjectSprintView,
	ProjectSprintCreate,
	ProjectSprintEdit,
	ProjectSprintDelete,
	ProjectMemberInvite,
	ProjectMemberRemove,
	ProjectSettings,
}

var orgKnown = keySet(orgUniverse)
var projectKnown = keySet(projectUniverse)

func keySet(keys []Key) map[Key]struct{} {
	m := make(map[Key]struct{}, len(keys))
	for _, k := range keys {
		m[k] = struct{}{}
	}
	return m
}

// OrgUniverse returns the full organization permission-key universe.
// The returned set is owned by the caller.
func OrgUniverse() Set {
	return NewSet(orgUniverse...)
}

// ProjectUniverse returns the full project permission-key universe.
// The returned set is owned by the caller.
func ProjectUniverse() Set {
	return NewSet(projectUniverse...)
}

// ValidOrgKey reports whether k is in the organization vocabulary.
func ValidOrgKey(k Key) bool {
	_, ok := orgKnown[k]
	return ok
}

// ValidProjectKey reports whether k is in the project vocabulary.
func ValidProjectKey(k Key) bool {
	_, ok := projectKnown[k]
	return ok
}
