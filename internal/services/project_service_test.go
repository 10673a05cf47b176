package services

import (
	"testing"
	"time"

	"github.com/navflow/navflow-api/internal/models"
	"github.com/navflow/navflow-api/internal/repository"
	"github.com/stretchr/testify/require"
)

func TestCreateProjectSeedsDefaults(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "alice")
	org := env.createOrg(t, "Acme", owner.ID)

	project := env.createProject(t, org.ID, owner.ID, "Website")

	role, err := env.permissions.ProjectRole(project.ID, owner.ID)
	require.NoError(t, err)
	require.Equal(t, models.RoleOwner, role)

	sections, err := env.projects.ListSections(project.ID, owner.ID)
	require.NoError(t, err)
	require.Len(t, sections, 4)
	require.Equal(t, "To Do", sections[0].Name)
	require.Equal(t, "Done", sections[3].Name)
	for _, s := range sections {
		require.True(t, s.IsDefault)
	}
}

func TestCreateProjectDuplicateNameScopedToOrg(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "alice")
	org := env.createOrg(t, "Acme", owner.ID)
	other := env.createOrg(t, "Globex", owner.ID)

	env.createProject(t, org.ID, owner.ID, "Website")

	_, err := env.projects.CreateProject(CreateProjectInput{
		OrganizationID: org.ID, CreatorID: owner.ID, Name: "Website",
	})
	require.ErrorIs(t, err, ErrDuplicateProjectName)

	// Same name is fine in a different organization.
	env.createProject(t, other.ID, owner.ID, "Website")
}

func TestCreateProjectRequiresCapability(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "alice")
	member := env.createUser(t, "bob")
	org := env.createOrg(t, "Acme", owner.ID)
	env.addMember(t, org.ID, member.ID, models.RoleMember)

	_, err := env.projects.CreateProject(CreateProjectInput{
		OrganizationID: org.ID, CreatorID: member.ID, Name: "Website",
	})
	require.ErrorIs(t, err, ErrPermissionDenied)
}

func TestProjectVisibilityRequiresBinding(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "alice")
	member := env.createUser(t, "bob")
	org := env.createOrg(t, "Acme", owner.ID)
	env.addMember(t, org.ID, member.ID, models.RoleMember)

	project := env.createProject(t, org.ID, owner.ID, "Website")

	// Organization membership alone does not open the project.
	_, err := env.projects.GetProject(project.ID, member.ID)
	require.ErrorIs(t, err, ErrNotProjectMember)

	env.addProjectMember(t, project.ID, member.ID, models.RoleMember)
	got, err := env.projects.GetProject(project.ID, member.ID)
	require.NoError(t, err)
	require.Equal(t, project.ID, got.ID)
}

func TestOrgOwnerSeesEveryProject(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "alice")
	admin := env.createUser(t, "bob")
	org := env.createOrg(t, "Acme", owner.ID)
	env.addMember(t, org.ID, admin.ID, models.RoleAdmin)

	project := env.createProject(t, org.ID, admin.ID, "Website")

	// The org owner holds no explicit binding yet reaches the project.
	got, err := env.projects.GetProject(project.ID, owner.ID)
	require.NoError(t, err)
	require.Equal(t, project.ID, got.ID)

	members, err := env.projects.ListMembers(project.ID, owner.ID)
	require.NoError(t, err)
	require.Len(t, members, 1)
	require.Equal(t, admin.ID, members[0].UserID)
}

func TestAddProjectMember(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "alice")
	member := env.createUser(t, "bob")
	outsider := env.createUser(t, "carol")
	org := env.createOrg(t, "Acme", owner.ID)
	env.addMember(t, org.ID, member.ID, models.RoleMember)

	project := env.createProject(t, org.ID, owner.ID, "Website")

	pr, err := env.projects.AddMember(project.ID, owner.ID, member.ID, models.RoleModerator)
	require.NoError(t, err)
	require.Equal(t, models.RoleModerator, pr.Role)

	_, err = env.projects.AddMember(project.ID, owner.ID, member.ID, models.RoleMember)
	require.ErrorIs(t, err, ErrProjectMemberExists)

	// Project membership requires parent-organization membership.
	_, err = env.projects.AddMember(project.ID, owner.ID, outsider.ID, models.RoleMember)
	require.ErrorIs(t, err, ErrTargetNotOrgMember)

	// One owner per project.
	_, err = env.projects.AddMember(project.ID, owner.ID, outsider.ID, models.RoleOwner)
	require.ErrorIs(t, err, ErrTargetNotOrgMember)
	env.addMember(t, org.ID, outsider.ID, models.RoleMember)
	_, err = env.projects.AddMember(project.ID, owner.ID, outsider.ID, models.RoleOwner)
	require.ErrorIs(t, err, ErrDuplicateProjectOwner)
}

func TestUpdateProjectMemberRole(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "alice")
	member := env.createUser(t, "bob")
	org := env.createOrg(t, "Acme", owner.ID)
	env.addMember(t, org.ID, member.ID, models.RoleMember)
	project := env.createProject(t, org.ID, owner.ID, "Website")
	env.addProjectMember(t, project.ID, member.ID, models.RoleMember)

	require.NoError(t, env.projects.UpdateMemberRole(project.ID, owner.ID, member.ID, models.RoleAdmin))

	role, err := env.permissions.ProjectRole(project.ID, member.ID)
	require.NoError(t, err)
	require.Equal(t, models.RoleAdmin, role)

	// The owner binding never changes hands through a role update.
	err = env.projects.UpdateMemberRole(project.ID, owner.ID, owner.ID, models.RoleAdmin)
	require.ErrorIs(t, err, ErrCannotRemoveProjectOwner)

	err = env.projects.UpdateMemberRole(project.ID, owner.ID, member.ID, models.RoleOwner)
	require.ErrorIs(t, err, ErrDuplicateProjectOwner)
}

func TestRemoveProjectMember(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "alice")
	member := env.createUser(t, "bob")
	org := env.createOrg(t, "Acme", owner.ID)
	env.addMember(t, org.ID, member.ID, models.RoleMember)
	project := env.createProject(t, org.ID, owner.ID, "Website")
	env.addProjectMember(t, project.ID, member.ID, models.RoleMember)

	// Members may leave on their own.
	require.NoError(t, env.projects.RemoveMember(project.ID, member.ID, member.ID))
	_, err := env.permissions.ProjectRole(project.ID, member.ID)
	require.ErrorIs(t, err, ErrNotProjectMember)

	err = env.projects.RemoveMember(project.ID, owner.ID, owner.ID)
	require.ErrorIs(t, err, ErrCannotRemoveProjectOwner)
}

func TestSections(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "alice")
	org := env.createOrg(t, "Acme", owner.ID)
	project := env.createProject(t, org.ID, owner.ID, "Website")

	section, err := env.projects.CreateSection(project.ID, owner.ID, "Blocked", 10)
	require.NoError(t, err)
	require.False(t, section.IsDefault)

	_, err = env.projects.CreateSection(project.ID, owner.ID, "Blocked", 11)
	require.ErrorIs(t, err, ErrDuplicateSectionName)

	_, err = env.projects.CreateSection(project.ID, owner.ID, "  ", 12)
	require.ErrorIs(t, err, ErrInvalidSectionName)
}

func TestDeleteSectionMovesTasks(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "alice")
	org := env.createOrg(t, "Acme", owner.ID)
	project := env.createProject(t, org.ID, owner.ID, "Website")

	section, err := env.projects.CreateSection(project.ID, owner.ID, "Blocked", 10)
	require.NoError(t, err)

	task, err := env.tasks.CreateTask(CreateTaskInput{
		ProjectID: project.ID,
		CreatorID: owner.ID,
		Title:     "Fix login",
		SectionID: &section.ID,
	})
	require.NoError(t, err)
	require.Equal(t, section.ID, *task.SectionID)

	require.NoError(t, env.projects.DeleteSection(project.ID, owner.ID, section.ID))

	// Orphaned tasks land in the first default section.
	reloaded, err := env.tasks.GetTask(task.ID, owner.ID)
	require.NoError(t, err)
	first, err := env.projectRepo.FirstDefaultSection(project.ID)
	require.NoError(t, err)
	require.Equal(t, first.ID, *reloaded.SectionID)

	sections, err := env.projects.ListSections(project.ID, owner.ID)
	require.NoError(t, err)
	require.Len(t, sections, 4)

	err = env.projects.DeleteSection(project.ID, owner.ID, sections[0].ID)
	require.ErrorIs(t, err, ErrCannotDeleteDefaultSection)
}

func TestLabels(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "alice")
	member := env.createUser(t, "bob")
	org := env.createOrg(t, "Acme", owner.ID)
	env.addMember(t, org.ID, member.ID, models.RoleMember)
	project := env.createProject(t, org.ID, owner.ID, "Website")
	env.addProjectMember(t, project.ID, member.ID, models.RoleMember)

	label, err := env.projects.CreateLabel(project.ID, owner.ID, "bug", "#ff0000")
	require.NoError(t, err)
	require.Equal(t, "bug", label.Name)

	_, err = env.projects.CreateLabel(project.ID, owner.ID, "bug", "#00ff00")
	require.ErrorIs(t, err, ErrDuplicateLabelName)

	// Members lack the label capabilities by default.
	_, err = env.projects.CreateLabel(project.ID, member.ID, "ui", "#0000ff")
	require.ErrorIs(t, err, ErrPermissionDenied)
	err = env.projects.DeleteLabel(project.ID, member.ID, label.ID)
	require.ErrorIs(t, err, ErrPermissionDenied)

	require.NoError(t, env.projects.DeleteLabel(project.ID, owner.ID, label.ID))

	labels, err := env.projects.ListLabels(project.ID, owner.ID)
	require.NoError(t, err)
	require.Empty(t, labels)
}

func TestListProjects(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "alice")
	member := env.createUser(t, "bob")
	org := env.createOrg(t, "Acme", owner.ID)
	env.addMember(t, org.ID, member.ID, models.RoleMember)

	website := env.createProject(t, org.ID, owner.ID, "Website")
	env.createProject(t, org.ID, owner.ID, "Backend")
	env.addProjectMember(t, website.ID, member.ID, models.RoleMember)

	// A plain member only sees projects they are bound to.
	projects, total, err := env.projects.ListProjects(member.ID, repository.ProjectFilter{})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Len(t, projects, 1)
	require.Equal(t, website.ID, projects[0].ID)

	// The org owner sees both.
	_, total, err = env.projects.ListProjects(owner.ID, repository.ProjectFilter{})
	require.NoError(t, err)
	require.EqualValues(t, 2, total)
}

func TestDeleteProject(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "alice")
	admin := env.createUser(t, "bob")
	org := env.createOrg(t, "Acme", owner.ID)
	env.addMember(t, org.ID, admin.ID, models.RoleAdmin)
	project := env.createProject(t, org.ID, owner.ID, "Website")
	env.addProjectMember(t, project.ID, admin.ID, models.RoleAdmin)

	// Only the project owner may delete, and deletion is audited.
	err := env.projects.DeleteProject(project.ID, admin.ID)
	require.ErrorIs(t, err, ErrPermissionDenied)

	require.NoError(t, env.projects.DeleteProject(project.ID, owner.ID))

	_, err = env.projects.GetProject(project.ID, owner.ID)
	require.ErrorIs(t, err, ErrProjectNotFound)

	logs := env.auditLogs(t, org.ID)
	last := logs[len(logs)-1]
	require.Equal(t, models.AuditDelete, last.Action)
	require.Equal(t, models.ContentTypeProject, last.ContentType)
}

func TestSecondProjectOwnerRowViolatesConstraint(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "alice")
	member := env.createUser(t, "bob")
	org := env.createOrg(t, "Acme", owner.ID)
	env.addMember(t, org.ID, member.ID, models.RoleMember)
	project := env.createProject(t, org.ID, owner.ID, "Website")

	// A second owner row must be rejected by the partial unique index
	// even when it bypasses the service-level count.
	err := env.db.Create(&models.ProjectRole{
		ProjectID:  project.ID,
		UserID:     member.ID,
		Role:       models.RoleOwner,
		AssignedAt: time.Now(),
	}).Error
	require.True(t, repository.IsUniqueViolation(err))
	require.True(t, repository.IsUniqueViolationOn(err, "idx_project_roles_one_owner", "project_roles.project_id"))

	// The same binding with a non-owner role is accepted.
	require.NoError(t, env.db.Create(&models.ProjectRole{
		ProjectID:  project.ID,
		UserID:     member.ID,
		Role:       models.RoleModerator,
		AssignedAt: time.Now(),
	}).Error)
}
