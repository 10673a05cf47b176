package models

import "time"

// Permission names one of the customizable organization capabilities.
type Permission string

const (
	PermCreateProject       Permission = "create_project"
	PermDeleteProject       Permission = "delete_project"
	PermCreateTask          Permission = "create_task"
	PermDeleteTask          Permission = "delete_task"
	PermAssignTask          Permission = "assign_task"
	PermViewAllTasks        Permission = "view_all_tasks"
	PermViewUnassignedTasks Permission = "view_unassigned_tasks"
	PermCreateLabel         Permission = "create_label"
	PermDeleteLabel         Permission = "delete_label"
	PermManageTimer         Permission = "manage_timer"
	PermInviteMembers       Permission = "invite_members"
	PermRemoveMembers       Permission = "remove_members"
	PermChangeMemberRoles   Permission = "change_member_roles"
)

// AllPermissions lists every customizable capability.
var AllPermissions = []Permission{
	PermCreateProject,
	PermDeleteProject,
	PermCreateTask,
	PermDeleteTask,
	PermAssignTask,
	PermViewAllTasks,
	PermViewUnassignedTasks,
	PermCreateLabel,
	PermDeleteLabel,
	PermManageTimer,
	PermInviteMembers,
	PermRemoveMembers,
	PermChangeMemberRoles,
}

// PermissionMatrix maps role -> permission -> granted. Owners are never
// stored; the owner role is granted everything implicitly.
type PermissionMatrix map[Role]map[Permission]bool

// Granted looks up a grant, defaulting to false for anything unset.
func (m PermissionMatrix) Granted(role Role, perm Permission) bool {
	grants, ok := m[role]
	if !ok {
		return false
	}
	return grants[perm]
}

// DefaultPermissionMatrix returns the documented defaults applied when
// an organization has no stored overrides. Every grant is true unless
// listed false here.
func DefaultPermissionMatrix() PermissionMatrix {
	matrix := PermissionMatrix{}
	for _, role := range []Role{RoleAdmin, RoleModerator, RoleMember} {
		grants := make(map[Permission]bool, len(AllPermissions))
		for _, perm := range AllPermissions {
			grants[perm] = true
		}
		matrix[role] = grants
	}

	denied := map[Role][]Permission{
		RoleAdmin: {
			PermRemoveMembers,
			PermChangeMemberRoles,
		},
		RoleModerator: {
			PermDeleteProject,
			PermDeleteLabel,
			PermInviteMembers,
			PermRemoveMembers,
			PermChangeMemberRoles,
		},
		RoleMember: {
			PermCreateProject,
			PermDeleteProject,
			PermDeleteTask,
			PermAssignTask,
			PermViewUnassignedTasks,
			PermCreateLabel,
			PermDeleteLabel,
			PermInviteMembers,
			PermRemoveMembers,
			PermChangeMemberRoles,
		},
	}
	for role, perms := range denied {
		for _, perm := range perms {
			matrix[role][perm] = false
		}
	}

	return matrix
}

// Merge overlays stored grants onto the defaults so permissions added
// after a row was written still resolve to their documented default.
func (m PermissionMatrix) Merge(overrides PermissionMatrix) PermissionMatrix {
	merged := PermissionMatrix{}
	for role, grants := range m {
		copied := make(map[Permission]bool, len(grants))
		for perm, granted := range grants {
			copied[perm] = granted
		}
		merged[role] = copied
	}
	for role, grants := range overrides {
		if _, ok := merged[role]; !ok {
			merged[role] = make(map[Permission]bool, len(grants))
		}
		for perm, granted := range grants {
			merged[role][perm] = granted
		}
	}
	return merged
}

// OrgPermissions is the per-organization override record for non-owner
// role capabilities. At most one row per organization.
type OrgPermissions struct {
	ID             uint64           `gorm:"primarykey" json:"id"`
	OrganizationID uint64           `gorm:"uniqueIndex;not null" json:"organization_id"`
	Grants         PermissionMatrix `gorm:"serializer:json" json:"grants"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`

	// Relations
	Organization Organization `gorm:"foreignKey:OrganizationID" json:"organization,omitempty"`
}
