package services

import (
	"testing"

	"github.com/navflow/navflow-api/internal/models"
	"github.com/stretchr/testify/require"
)

func TestMarkRead(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "alice")
	invitee := env.createUser(t, "bob")
	org := env.createOrg(t, "Acme", owner.ID)
	env.invite(t, org.ID, owner.ID, "bob", models.RoleMember)

	ns, total, err := env.notifications.List(invitee.ID, false, 0, 0)
	require.NoError(t, err)
	require.EqualValues(t, 1, total)

	require.NoError(t, env.notifications.MarkRead(ns[0].ID, invitee.ID))

	count, err := env.notifications.UnreadCount(invitee.ID)
	require.NoError(t, err)
	require.Zero(t, count)

	// Someone else's notification reads as missing.
	err = env.notifications.MarkRead(ns[0].ID, owner.ID)
	require.ErrorIs(t, err, ErrNotificationNotFound)

	err = env.notifications.MarkRead(99999, invitee.ID)
	require.ErrorIs(t, err, ErrNotificationNotFound)
}

func TestMarkAllReadIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "alice")
	invitee := env.createUser(t, "bob")
	org := env.createOrg(t, "Acme", owner.ID)
	other := env.createOrg(t, "Globex", owner.ID)
	env.invite(t, org.ID, owner.ID, "bob", models.RoleMember)
	env.invite(t, other.ID, owner.ID, "bob", models.RoleMember)

	changed, err := env.notifications.MarkAllRead(invitee.ID)
	require.NoError(t, err)
	require.EqualValues(t, 2, changed)

	changed, err = env.notifications.MarkAllRead(invitee.ID)
	require.NoError(t, err)
	require.Zero(t, changed)
}

func TestListUnreadOnly(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "alice")
	invitee := env.createUser(t, "bob")
	org := env.createOrg(t, "Acme", owner.ID)
	other := env.createOrg(t, "Globex", owner.ID)
	env.invite(t, org.ID, owner.ID, "bob", models.RoleMember)
	env.invite(t, other.ID, owner.ID, "bob", models.RoleMember)

	ns, _, err := env.notifications.List(invitee.ID, false, 0, 0)
	require.NoError(t, err)
	require.NoError(t, env.notifications.MarkRead(ns[0].ID, invitee.ID))

	unread, total, err := env.notifications.List(invitee.ID, true, 0, 0)
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Len(t, unread, 1)
}

func TestRespondToInvitationNotification(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "alice")
	invitee := env.createUser(t, "bob")
	org := env.createOrg(t, "Acme", owner.ID)
	env.invite(t, org.ID, owner.ID, "bob", models.RoleModerator)

	ns := env.notificationsFor(t, invitee.ID)
	require.Len(t, ns, 1)

	resolved, err := env.notifications.RespondToInvitation(ns[0].ID, invitee.ID, true)
	require.NoError(t, err)
	require.Equal(t, models.ActionAccepted, resolved.ActionStatus)
	require.True(t, resolved.IsRead)

	role, err := env.permissions.OrgRole(org.ID, invitee.ID)
	require.NoError(t, err)
	require.Equal(t, models.RoleModerator, role)

	// A resolved carrier cannot be responded to again.
	_, err = env.notifications.RespondToInvitation(ns[0].ID, invitee.ID, false)
	require.ErrorIs(t, err, ErrNotificationNotActionable)
}

func TestRespondToInvitationDecline(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "alice")
	invitee := env.createUser(t, "bob")
	org := env.createOrg(t, "Acme", owner.ID)
	env.invite(t, org.ID, owner.ID, "bob", models.RoleMember)

	ns := env.notificationsFor(t, invitee.ID)
	require.Len(t, ns, 1)

	resolved, err := env.notifications.RespondToInvitation(ns[0].ID, invitee.ID, false)
	require.NoError(t, err)
	require.Equal(t, models.ActionDeclined, resolved.ActionStatus)

	_, err = env.permissions.OrgRole(org.ID, invitee.ID)
	require.ErrorIs(t, err, ErrNotOrganizationMember)
}

func TestRespondToInvitationGuards(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "alice")
	invitee := env.createUser(t, "bob")
	stranger := env.createUser(t, "carol")
	org := env.createOrg(t, "Acme", owner.ID)
	env.invite(t, org.ID, owner.ID, "bob", models.RoleMember)

	ns := env.notificationsFor(t, invitee.ID)
	require.Len(t, ns, 1)

	_, err := env.notifications.RespondToInvitation(ns[0].ID, stranger.ID, true)
	require.ErrorIs(t, err, ErrNotificationNotFound)

	// A plain informational notification carries no action.
	env.recorder.Notify(env.db, models.Notification{
		UserID: invitee.ID,
		Type:   models.NotificationTaskComment,
		Title:  "New comment",
	})
	plain := env.notificationsFor(t, invitee.ID)
	require.Len(t, plain, 2)
	_, err = env.notifications.RespondToInvitation(plain[1].ID, invitee.ID, true)
	require.ErrorIs(t, err, ErrNotificationNotActionable)
}
