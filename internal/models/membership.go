package models

import "time"

// Role is the privilege level of a user inside an organization or a
// project. The two scopes are independent role spaces but share the
// same value set and ordering.
type Role string

const (
	RoleOwner     Role = "owner"
	RoleAdmin     Role = "admin"
	RoleModerator Role = "moderator"
	RoleMember    Role = "member"
)

var roleRank = map[Role]int{
	RoleMember:    1,
	RoleModerator: 2,
	RoleAdmin:     3,
	RoleOwner:     4,
}

// Valid reports whether r is one of the four known roles.
func (r Role) Valid() bool {
	_, ok := roleRank[r]
	return ok
}

// AtLeast reports whether r carries at least the privilege of other.
func (r Role) AtLeast(other Role) bool {
	return roleRank[r] >= roleRank[other]
}

// Membership binds a user to an organization with a role. The partial
// unique index admits at most one owner row per organization; a
// concurrent second promotion surfaces as a constraint violation.
type Membership struct {
	OrganizationID uint64    `gorm:"primarykey;index:idx_memberships_org_role,priority:1;uniqueIndex:idx_memberships_one_owner,where:role = 'owner'" json:"organization_id"`
	UserID         uint64    `gorm:"primarykey" json:"user_id"`
	Role           Role      `gorm:"type:varchar(20);not null;index:idx_memberships_org_role,priority:2" json:"role"`
	JoinedAt       time.Time `json:"joined_at"`

	// Relations
	Organization Organization `gorm:"foreignKey:OrganizationID" json:"organization,omitempty"`
	User         User         `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
