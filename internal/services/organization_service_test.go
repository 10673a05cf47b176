package services

import (
	"testing"
	"time"

	"github.com/navflow/navflow-api/internal/models"
	"github.com/navflow/navflow-api/internal/repository"
	"github.com/stretchr/testify/require"
)

func TestCreateOrganizationMakesCreatorOwner(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "alice")

	org := env.createOrg(t, "Acme", owner.ID)

	role, err := env.permissions.OrgRole(org.ID, owner.ID)
	require.NoError(t, err)
	require.Equal(t, models.RoleOwner, role)

	logs := env.auditLogs(t, org.ID)
	require.Len(t, logs, 1)
	require.Equal(t, models.AuditCreate, logs[0].Action)
	require.Equal(t, models.ContentTypeOrganization, logs[0].ContentType)
	require.Equal(t, org.ID, logs[0].ObjectID)
}

func TestCreateOrganizationValidation(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "alice")

	_, err := env.orgs.CreateOrganization(CreateOrganizationInput{Name: "   ", OwnerID: owner.ID})
	require.ErrorIs(t, err, ErrInvalidOrganizationName)

	env.createOrg(t, "Acme", owner.ID)
	_, err = env.orgs.CreateOrganization(CreateOrganizationInput{Name: "Acme", OwnerID: owner.ID})
	require.ErrorIs(t, err, ErrDuplicateOrganizationName)
}

func TestChangeMemberRole(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "alice")
	member := env.createUser(t, "bob")
	org := env.createOrg(t, "Acme", owner.ID)
	env.addMember(t, org.ID, member.ID, models.RoleMember)

	m, err := env.orgs.ChangeMemberRole(org.ID, owner.ID, member.ID, models.RoleAdmin)
	require.NoError(t, err)
	require.Equal(t, models.RoleAdmin, m.Role)

	logs := env.auditLogs(t, org.ID)
	last := logs[len(logs)-1]
	require.Equal(t, models.AuditUpdate, last.Action)
	require.Equal(t, models.ContentTypeMembership, last.ContentType)
	require.Contains(t, last.Changes, "role")
}

func TestChangeMemberRoleRejectsSecondOwner(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "alice")
	member := env.createUser(t, "bob")
	org := env.createOrg(t, "Acme", owner.ID)
	env.addMember(t, org.ID, member.ID, models.RoleAdmin)

	_, err := env.orgs.ChangeMemberRole(org.ID, owner.ID, member.ID, models.RoleOwner)
	require.ErrorIs(t, err, ErrDuplicateOwner)

	// The existing owner keeps the seat.
	role, err := env.permissions.OrgRole(org.ID, owner.ID)
	require.NoError(t, err)
	require.Equal(t, models.RoleOwner, role)
}

func TestChangeMemberRoleRequiresPermission(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "alice")
	member := env.createUser(t, "bob")
	other := env.createUser(t, "carol")
	org := env.createOrg(t, "Acme", owner.ID)
	env.addMember(t, org.ID, member.ID, models.RoleMember)
	env.addMember(t, org.ID, other.ID, models.RoleMember)

	_, err := env.orgs.ChangeMemberRole(org.ID, other.ID, member.ID, models.RoleModerator)
	require.ErrorIs(t, err, ErrPermissionDenied)

	outsider := env.createUser(t, "dave")
	_, err = env.orgs.ChangeMemberRole(org.ID, outsider.ID, member.ID, models.RoleModerator)
	require.ErrorIs(t, err, ErrNotOrganizationMember)
}

func TestRemoveMember(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "alice")
	member := env.createUser(t, "bob")
	org := env.createOrg(t, "Acme", owner.ID)
	env.addMember(t, org.ID, member.ID, models.RoleMember)

	require.NoError(t, env.orgs.RemoveMember(org.ID, owner.ID, member.ID))

	_, err := env.permissions.OrgRole(org.ID, member.ID)
	require.ErrorIs(t, err, ErrNotOrganizationMember)
}

func TestRemoveMemberGuards(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "alice")
	admin := env.createUser(t, "bob")
	org := env.createOrg(t, "Acme", owner.ID)
	env.addMember(t, org.ID, admin.ID, models.RoleAdmin)

	_, err := env.orgs.UpdatePermissionMatrix(org.ID, owner.ID, models.PermissionMatrix{
		models.RoleAdmin: {models.PermRemoveMembers: true},
	})
	require.NoError(t, err)

	// Nobody removes the owner, and nobody removes themselves.
	err = env.orgs.RemoveMember(org.ID, admin.ID, owner.ID)
	require.ErrorIs(t, err, ErrCannotRemoveOwner)

	err = env.orgs.RemoveMember(org.ID, owner.ID, owner.ID)
	require.ErrorIs(t, err, ErrCannotRemoveYourself)
}

func TestDeleteOrganizationRequiresOwner(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "alice")
	admin := env.createUser(t, "bob")
	org := env.createOrg(t, "Acme", owner.ID)
	env.addMember(t, org.ID, admin.ID, models.RoleAdmin)

	err := env.orgs.DeleteOrganization(org.ID, admin.ID)
	require.ErrorIs(t, err, ErrPermissionDenied)

	require.NoError(t, env.orgs.DeleteOrganization(org.ID, owner.ID))

	_, _, err = env.orgs.GetOrganizationWithMembers(org.ID)
	require.ErrorIs(t, err, ErrOrganizationNotFound)

	var count int64
	require.NoError(t, env.db.Model(&models.Membership{}).
		Where("organization_id = ?", org.ID).Count(&count).Error)
	require.Zero(t, count)
}

func TestPermissionMatrixDefaultsAndOverrides(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "alice")
	member := env.createUser(t, "bob")
	org := env.createOrg(t, "Acme", owner.ID)
	env.addMember(t, org.ID, member.ID, models.RoleMember)

	matrix, err := env.orgs.GetPermissionMatrix(org.ID, owner.ID)
	require.NoError(t, err)
	require.True(t, matrix.Granted(models.RoleMember, models.PermCreateTask))
	require.False(t, matrix.Granted(models.RoleMember, models.PermDeleteTask))
	require.False(t, matrix.Granted(models.RoleAdmin, models.PermChangeMemberRoles))

	_, err = env.orgs.UpdatePermissionMatrix(org.ID, owner.ID, models.PermissionMatrix{
		models.RoleMember: {models.PermDeleteTask: true},
	})
	require.NoError(t, err)

	ok, err := env.permissions.HasOrgPermission(org.ID, member.ID, models.PermDeleteTask)
	require.NoError(t, err)
	require.True(t, ok)

	// Untouched grants keep their defaults after an override is stored.
	ok, err = env.permissions.HasOrgPermission(org.ID, member.ID, models.PermCreateTask)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestUpdatePermissionMatrixRejectsUnknownPermission(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "alice")
	org := env.createOrg(t, "Acme", owner.ID)

	_, err := env.orgs.UpdatePermissionMatrix(org.ID, owner.ID, models.PermissionMatrix{
		models.RoleMember: {"launch_rockets": true},
	})
	require.ErrorIs(t, err, ErrInvalidPermission)
}

func TestUpdatePermissionMatrixOwnerOnly(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "alice")
	admin := env.createUser(t, "bob")
	org := env.createOrg(t, "Acme", owner.ID)
	env.addMember(t, org.ID, admin.ID, models.RoleAdmin)

	_, err := env.orgs.UpdatePermissionMatrix(org.ID, admin.ID, models.PermissionMatrix{
		models.RoleMember: {models.PermDeleteTask: true},
	})
	require.ErrorIs(t, err, ErrPermissionDenied)
}

func TestChangeMemberRoleCannotDemoteOwner(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "alice")
	org := env.createOrg(t, "Acme", owner.ID)

	// Demoting the owner would leave the organization ownerless.
	_, err := env.orgs.ChangeMemberRole(org.ID, owner.ID, owner.ID, models.RoleAdmin)
	require.ErrorIs(t, err, ErrCannotRemoveOwner)

	role, err := env.permissions.OrgRole(org.ID, owner.ID)
	require.NoError(t, err)
	require.Equal(t, models.RoleOwner, role)
}

func TestSecondOwnerRowViolatesConstraint(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")
	org := env.createOrg(t, "Acme", owner.ID)

	// A second owner row must be rejected by the partial unique index
	// even when it bypasses the service-level count.
	err := env.db.Create(&models.Membership{
		OrganizationID: org.ID,
		UserID:         bob.ID,
		Role:           models.RoleOwner,
		JoinedAt:       time.Now(),
	}).Error
	require.True(t, repository.IsUniqueViolation(err))

	// Non-owner rows for the same organization are unaffected.
	require.NoError(t, env.db.Create(&models.Membership{
		OrganizationID: org.ID,
		UserID:         bob.ID,
		Role:           models.RoleAdmin,
		JoinedAt:       time.Now(),
	}).Error)
}
