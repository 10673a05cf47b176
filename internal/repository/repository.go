package repository

import (
	"github.com/navflow/navflow-api/internal/models"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(user *models.User) error

	// FindByID finds a user by ID
	FindByID(id uint64) (*models.User, error)

	// FindByEmail finds a user by email, case-insensitively
	FindByEmail(email string) (*models.User, error)

	// FindByUsername finds a user by username, case-insensitively
	FindByUsername(username string) (*models.User, error)

	// FindByUsernames finds users matching any of the given usernames,
	// case-insensitively
	FindByUsernames(usernames []string) ([]models.User, error)

	// Update updates a user
	Update(user *models.User) error

	// Delete removes a user row permanently
	Delete(id uint64) error
}

// OrganizationRepository defines the interface for organization,
// membership, and permission-override data access
type OrganizationRepository interface {
	// Create creates a new organization
	Create(org *models.Organization) error

	// FindByID finds an organization by ID
	FindByID(id uint64) (*models.Organization, error)

	// Update updates an organization
	Update(org *models.Organization) error

	// Delete deletes an organization and all related data
	Delete(id uint64) error

	// AddMember adds a member to an organization
	AddMember(member *models.Membership) error

	// RemoveMember removes a member from an organization
	RemoveMember(organizationID, userID uint64) error

	// FindMember finds a specific organization member
	FindMember(organizationID, userID uint64) (*models.Membership, error)

	// UpdateMemberRole changes a member's role
	UpdateMemberRole(organizationID, userID uint64, role models.Role) error

	// ListMembers lists all members of an organization
	ListMembers(organizationID uint64) ([]models.Membership, error)

	// ListMembersByUserID lists all organizations a user is a member of
	ListMembersByUserID(userID uint64) ([]models.Membership, error)

	// ListMembersWithRoles lists members of an organization holding any
	// of the given roles
	ListMembersWithRoles(organizationID uint64, roles []models.Role) ([]models.Membership, error)

	// CountOwners counts members with the owner role
	CountOwners(organizationID uint64) (int64, error)

	// FindPermissions finds the organization's permission overrides
	FindPermissions(organizationID uint64) (*models.OrgPermissions, error)

	// CreatePermissions creates a permission override record
	CreatePermissions(perms *models.OrgPermissions) error

	// UpdatePermissions updates a permission override record
	UpdatePermissions(perms *models.OrgPermissions) error
}

// InvitationRepository defines the interface for invitation data access
type InvitationRepository interface {
	// Create creates a new invitation
	Create(inv *models.Invitation) error

	// FindByID finds an invitation by ID with relations preloaded
	FindByID(id uint64) (*models.Invitation, error)

	// FindPending finds the pending invitation for a user in an organization
	FindPending(organizationID, userID uint64) (*models.Invitation, error)

	// Update updates an invitation
	Update(inv *models.Invitation) error

	// ListForUser lists invitations received by a user
	ListForUser(userID uint64, status *models.InvitationStatus) ([]models.Invitation, error)

	// ListForOrganization lists invitations sent within an organization
	ListForOrganization(organizationID uint64, status *models.InvitationStatus) ([]models.Invitation, error)
}

// ProjectFilter holds filtering options for listing projects
type ProjectFilter struct {
	OrganizationID *uint64
	Status         *models.ProjectStatus
	MemberID       uint64
	Page           int
	PageSize       int
}

// ProjectRepository defines the interface for project, project-role,
// section, and label data access
type ProjectRepository interface {
	// Create creates a new project
	Create(project *models.Project) error

	// FindByID finds a project by ID
	FindByID(id uint64) (*models.Project, error)

	// FindByName finds a project by name within an organization
	FindByName(organizationID uint64, name string) (*models.Project, error)

	// List retrieves projects the member can see, with pagination
	List(filter ProjectFilter) ([]models.Project, int64, error)

	// Update updates a project
	Update(project *models.Project) error

	// Delete deletes a project and all related data
	Delete(id uint64) error

	// AddRole adds a project role binding
	AddRole(role *models.ProjectRole) error

	// FindRole finds a user's role in a project
	FindRole(projectID, userID uint64) (*models.ProjectRole, error)

	// UpdateRole changes a user's role in a project
	UpdateRole(projectID, userID uint64, role models.Role) error

	// RemoveRole removes a user's role binding from a project
	RemoveRole(projectID, userID uint64) error

	// ListRoles lists all role bindings of a project
	ListRoles(projectID uint64) ([]models.ProjectRole, error)

	// ListProjectIDsForUser lists the IDs of projects the user belongs to
	ListProjectIDsForUser(userID uint64) ([]uint64, error)

	// CountOwners counts role bindings with the owner role
	CountOwners(projectID uint64) (int64, error)

	// CreateSection creates a task section
	CreateSection(section *models.TaskSection) error

	// FindSection finds a section by ID
	FindSection(id uint64) (*models.TaskSection, error)

	// ListSections lists a project's sections ordered by position
	ListSections(projectID uint64) ([]models.TaskSection, error)

	// DeleteSection removes a section
	DeleteSection(id uint64) error

	// FirstDefaultSection returns the project's first default section
	FirstDefaultSection(projectID uint64) (*models.TaskSection, error)

	// CreateLabel creates a task label
	CreateLabel(label *models.TaskLabel) error

	// FindLabel finds a label by ID
	FindLabel(id uint64) (*models.TaskLabel, error)

	// ListLabels lists a project's labels
	ListLabels(projectID uint64) ([]models.TaskLabel, error)

	// DeleteLabel removes a label
	DeleteLabel(id uint64) error
}

// TaskFilter holds filtering options for listing tasks
type TaskFilter struct {
	ProjectIDs     []uint64
	Status         *models.TaskStatus
	Priority       *models.TaskPriority
	AssignedToID   *uint64
	UnassignedOnly bool
	SectionID      *uint64
	Page           int
	PageSize       int
}

// TaskRepository defines the interface for task and comment data access
type TaskRepository interface {
	// Create creates a new task
	Create(task *models.Task) error

	// FindByID finds an active task by ID with optional preloading
	FindByID(id uint64, preload ...string) (*models.Task, error)

	// FindByIDUnscoped finds a task by ID, including soft-deleted rows
	FindByIDUnscoped(id uint64) (*models.Task, error)

	// FindAllByIDs finds the active tasks matching the given IDs
	FindAllByIDs(ids []uint64) ([]models.Task, error)

	// List retrieves active tasks with filtering and pagination
	List(filter TaskFilter) ([]models.Task, int64, error)

	// Update updates a task
	Update(task *models.Task) error

	// SoftDelete marks a task deleted without removing the row
	SoftDelete(id uint64) error

	// MoveSectionTasks moves every task in a section to another section
	MoveSectionTasks(fromSectionID, toSectionID uint64) error

	// CreateComment creates a comment on a task
	CreateComment(comment *models.TaskComment) error

	// ListComments lists a task's comments oldest first
	ListComments(taskID uint64) ([]models.TaskComment, error)
}

// AuditFilter holds filtering options for listing audit logs
type AuditFilter struct {
	OrganizationIDs []uint64
	UserID          *uint64
	Action          *models.AuditAction
	ContentType     *string
	Page            int
	PageSize        int
}

// AuditLogRepository defines the interface for audit log data access.
// Rows are append-only; there is deliberately no update or delete.
type AuditLogRepository interface {
	// Create appends an audit log row
	Create(entry *models.AuditLog) error

	// List retrieves audit logs newest first with filtering and pagination
	List(filter AuditFilter) ([]models.AuditLog, int64, error)
}

// NotificationRepository defines the interface for notification data access
type NotificationRepository interface {
	// Create creates a notification
	Create(n *models.Notification) error

	// CreateBatch creates several notifications at once
	CreateBatch(ns []models.Notification) error

	// FindByID finds a notification by ID
	FindByID(id uint64) (*models.Notification, error)

	// ListForUser lists a user's notifications newest first
	ListForUser(userID uint64, unreadOnly bool, page, pageSize int) ([]models.Notification, int64, error)

	// CountUnread counts a user's unread notifications
	CountUnread(userID uint64) (int64, error)

	// MarkRead marks one of the user's notifications read
	MarkRead(id, userID uint64) error

	// MarkAllRead marks all of the user's notifications read and
	// returns how many rows changed
	MarkAllRead(userID uint64) (int64, error)

	// Update updates a notification
	Update(n *models.Notification) error

	// FindInvitationAction finds the user's pending actionable
	// notification for an invitation
	FindInvitationAction(userID, invitationID uint64) (*models.Notification, error)
}
