package services

import (
	"testing"
	"time"

	"github.com/navflow/navflow-api/internal/models"
	"github.com/stretchr/testify/require"
)

// taskTestEnv wires an org with an owner, a project moderator, and two
// plain project members, with task visibility scoped to own tasks.
type taskTestEnv struct {
	*testEnv
	owner   *models.User
	mod     *models.User
	bob     *models.User
	carol   *models.User
	org     *models.Organization
	project *models.Project
}

func newTaskTestEnv(t *testing.T) *taskTestEnv {
	t.Helper()

	env := newTestEnv(t)
	owner := env.createUser(t, "alice")
	mod := env.createUser(t, "mallory")
	bob := env.createUser(t, "bob")
	carol := env.createUser(t, "carol")

	org := env.createOrg(t, "Acme", owner.ID)
	env.addMember(t, org.ID, mod.ID, models.RoleModerator)
	env.addMember(t, org.ID, bob.ID, models.RoleMember)
	env.addMember(t, org.ID, carol.ID, models.RoleMember)

	project := env.createProject(t, org.ID, owner.ID, "Website")
	env.addProjectMember(t, project.ID, mod.ID, models.RoleModerator)
	env.addProjectMember(t, project.ID, bob.ID, models.RoleMember)
	env.addProjectMember(t, project.ID, carol.ID, models.RoleMember)

	_, err := env.orgs.UpdatePermissionMatrix(org.ID, owner.ID, models.PermissionMatrix{
		models.RoleModerator: {models.PermViewAllTasks: false},
		models.RoleMember:    {models.PermViewAllTasks: false},
	})
	require.NoError(t, err)

	return &taskTestEnv{
		testEnv: env,
		owner:   owner,
		mod:     mod,
		bob:     bob,
		carol:   carol,
		org:     org,
		project: project,
	}
}

func TestCreateTaskDefaults(t *testing.T) {
	env := newTaskTestEnv(t)

	task, err := env.tasks.CreateTask(CreateTaskInput{
		ProjectID: env.project.ID,
		CreatorID: env.mod.ID,
		Title:     "  Fix login  ",
	})
	require.NoError(t, err)
	require.Equal(t, "Fix login", task.Title)
	require.Equal(t, models.TaskStatusTodo, task.Status)
	require.Equal(t, models.TaskPriorityMedium, task.Priority)
	require.Equal(t, "mallory", task.AuthorSnapshot.Username)

	// Unset section falls back to the project's first default section.
	first, err := env.projectRepo.FirstDefaultSection(env.project.ID)
	require.NoError(t, err)
	require.NotNil(t, task.SectionID)
	require.Equal(t, first.ID, *task.SectionID)

	logs := env.auditLogs(t, env.org.ID)
	last := logs[len(logs)-1]
	require.Equal(t, models.AuditCreate, last.Action)
	require.Equal(t, models.ContentTypeTask, last.ContentType)
	require.Equal(t, task.ID, last.ObjectID)
}

func TestCreateTaskPermissions(t *testing.T) {
	env := newTaskTestEnv(t)

	// Project members below moderator cannot create tasks.
	_, err := env.tasks.CreateTask(CreateTaskInput{
		ProjectID: env.project.ID, CreatorID: env.bob.ID, Title: "Nope",
	})
	require.ErrorIs(t, err, ErrPermissionDenied)

	outsider := env.createUser(t, "dave")
	_, err = env.tasks.CreateTask(CreateTaskInput{
		ProjectID: env.project.ID, CreatorID: outsider.ID, Title: "Nope",
	})
	require.ErrorIs(t, err, ErrNotProjectMember)

	_, err = env.tasks.CreateTask(CreateTaskInput{
		ProjectID: env.project.ID, CreatorID: env.mod.ID, Title: "   ",
	})
	require.ErrorIs(t, err, ErrInvalidTaskTitle)
}

func TestCreateTaskAssignee(t *testing.T) {
	env := newTaskTestEnv(t)

	task, err := env.tasks.CreateTask(CreateTaskInput{
		ProjectID:    env.project.ID,
		CreatorID:    env.mod.ID,
		Title:        "Fix login",
		AssignedToID: &env.bob.ID,
	})
	require.NoError(t, err)
	require.Equal(t, "bob", task.AssignedToSnapshot.Username)

	ns := env.notificationsFor(t, env.bob.ID)
	require.Len(t, ns, 1)
	require.Equal(t, models.NotificationTaskAssigned, ns[0].Type)

	// Assignees must hold a project role.
	outsider := env.createUser(t, "dave")
	_, err = env.tasks.CreateTask(CreateTaskInput{
		ProjectID:    env.project.ID,
		CreatorID:    env.mod.ID,
		Title:        "Another",
		AssignedToID: &outsider.ID,
	})
	require.ErrorIs(t, err, ErrAssigneeNotProjectMember)
}

func TestTaskVisibility(t *testing.T) {
	env := newTaskTestEnv(t)

	assigned, err := env.tasks.CreateTask(CreateTaskInput{
		ProjectID: env.project.ID, CreatorID: env.mod.ID, Title: "Assigned", AssignedToID: &env.bob.ID,
	})
	require.NoError(t, err)
	unassigned, err := env.tasks.CreateTask(CreateTaskInput{
		ProjectID: env.project.ID, CreatorID: env.mod.ID, Title: "Unassigned",
	})
	require.NoError(t, err)

	// Assignee and creator see their own tasks.
	_, err = env.tasks.GetTask(assigned.ID, env.bob.ID)
	require.NoError(t, err)
	_, err = env.tasks.GetTask(assigned.ID, env.mod.ID)
	require.NoError(t, err)

	// A hidden task is indistinguishable from a missing one.
	_, err = env.tasks.GetTask(assigned.ID, env.carol.ID)
	require.ErrorIs(t, err, ErrTaskNotFound)
	_, err = env.tasks.GetTask(unassigned.ID, env.carol.ID)
	require.ErrorIs(t, err, ErrTaskNotFound)

	// view_unassigned_tasks opens unassigned tasks but not others'.
	_, err = env.orgs.UpdatePermissionMatrix(env.org.ID, env.owner.ID, models.PermissionMatrix{
		models.RoleMember: {models.PermViewUnassignedTasks: true},
	})
	require.NoError(t, err)
	_, err = env.tasks.GetTask(unassigned.ID, env.carol.ID)
	require.NoError(t, err)
	_, err = env.tasks.GetTask(assigned.ID, env.carol.ID)
	require.ErrorIs(t, err, ErrTaskNotFound)

	// The org owner sees everything.
	_, err = env.tasks.GetTask(assigned.ID, env.owner.ID)
	require.NoError(t, err)
}

func TestListTasksScoping(t *testing.T) {
	env := newTaskTestEnv(t)

	for _, in := range []CreateTaskInput{
		{ProjectID: env.project.ID, CreatorID: env.mod.ID, Title: "For bob", AssignedToID: &env.bob.ID},
		{ProjectID: env.project.ID, CreatorID: env.mod.ID, Title: "For carol", AssignedToID: &env.carol.ID},
		{ProjectID: env.project.ID, CreatorID: env.mod.ID, Title: "Backlog"},
	} {
		_, err := env.tasks.CreateTask(in)
		require.NoError(t, err)
	}

	// Without view_all_tasks the listing collapses to the caller's own.
	tasks, total, err := env.tasks.ListTasks(env.bob.ID, ListTasksInput{ProjectID: env.project.ID})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Equal(t, "For bob", tasks[0].Title)

	// Unassigned listing without the capability yields nothing.
	tasks, total, err = env.tasks.ListTasks(env.bob.ID, ListTasksInput{
		ProjectID: env.project.ID, UnassignedOnly: true,
	})
	require.NoError(t, err)
	require.Zero(t, total)
	require.Empty(t, tasks)

	// The owner sees the whole board.
	_, total, err = env.tasks.ListTasks(env.owner.ID, ListTasksInput{ProjectID: env.project.ID})
	require.NoError(t, err)
	require.EqualValues(t, 3, total)
}

func TestListMyTasks(t *testing.T) {
	env := newTaskTestEnv(t)

	other := env.createProject(t, env.org.ID, env.owner.ID, "Backend")
	env.addProjectMember(t, other.ID, env.bob.ID, models.RoleMember)

	_, err := env.tasks.CreateTask(CreateTaskInput{
		ProjectID: env.project.ID, CreatorID: env.mod.ID, Title: "Website work", AssignedToID: &env.bob.ID,
	})
	require.NoError(t, err)
	_, err = env.tasks.CreateTask(CreateTaskInput{
		ProjectID: other.ID, CreatorID: env.owner.ID, Title: "Backend work", AssignedToID: &env.bob.ID,
	})
	require.NoError(t, err)

	_, total, err := env.tasks.ListMyTasks(env.bob.ID, nil, 0, 0)
	require.NoError(t, err)
	require.EqualValues(t, 2, total)
}

func TestUpdateTaskAuditsOnlyChanges(t *testing.T) {
	env := newTaskTestEnv(t)

	task, err := env.tasks.CreateTask(CreateTaskInput{
		ProjectID: env.project.ID, CreatorID: env.mod.ID, Title: "Fix login",
	})
	require.NoError(t, err)

	title := "Fix login flow"
	samePriority := models.TaskPriorityMedium
	updated, err := env.tasks.UpdateTask(task.ID, env.mod.ID, UpdateTaskInput{
		Title:    &title,
		Priority: &samePriority,
	})
	require.NoError(t, err)
	require.Equal(t, title, updated.Title)

	logs := env.auditLogs(t, env.org.ID)
	last := logs[len(logs)-1]
	require.Equal(t, models.AuditUpdate, last.Action)
	require.Contains(t, last.Changes, "title")
	require.NotContains(t, last.Changes, "priority")
}

func TestUpdateTaskStatusStampsCompletion(t *testing.T) {
	env := newTaskTestEnv(t)

	task, err := env.tasks.CreateTask(CreateTaskInput{
		ProjectID: env.project.ID, CreatorID: env.mod.ID, Title: "Fix login",
	})
	require.NoError(t, err)
	require.Nil(t, task.CompletedAt)

	done := models.TaskStatusDone
	updated, err := env.tasks.UpdateTask(task.ID, env.mod.ID, UpdateTaskInput{Status: &done})
	require.NoError(t, err)
	require.NotNil(t, updated.CompletedAt)

	todo := models.TaskStatusTodo
	updated, err = env.tasks.UpdateTask(task.ID, env.mod.ID, UpdateTaskInput{Status: &todo})
	require.NoError(t, err)
	require.Nil(t, updated.CompletedAt)
}

func TestUpdateTaskNoChangesNoAudit(t *testing.T) {
	env := newTaskTestEnv(t)

	task, err := env.tasks.CreateTask(CreateTaskInput{
		ProjectID: env.project.ID, CreatorID: env.mod.ID, Title: "Fix login",
	})
	require.NoError(t, err)

	before := len(env.auditLogs(t, env.org.ID))

	sameTitle := "Fix login"
	_, err = env.tasks.UpdateTask(task.ID, env.mod.ID, UpdateTaskInput{Title: &sameTitle})
	require.NoError(t, err)

	require.Len(t, env.auditLogs(t, env.org.ID), before)
}

func TestAssignTask(t *testing.T) {
	env := newTaskTestEnv(t)

	task, err := env.tasks.CreateTask(CreateTaskInput{
		ProjectID: env.project.ID, CreatorID: env.mod.ID, Title: "Fix login",
	})
	require.NoError(t, err)

	assigned, err := env.tasks.AssignTask(task.ID, env.mod.ID, &env.bob.ID)
	require.NoError(t, err)
	require.Equal(t, "bob", assigned.AssignedToSnapshot.Username)

	ns := env.notificationsFor(t, env.bob.ID)
	require.Len(t, ns, 1)
	require.Equal(t, models.NotificationTaskAssigned, ns[0].Type)

	// Unassigning clears the snapshot.
	unassigned, err := env.tasks.AssignTask(task.ID, env.mod.ID, nil)
	require.NoError(t, err)
	require.Nil(t, unassigned.AssignedToID)
	require.Empty(t, unassigned.AssignedToSnapshot.Username)

	// Plain members lack assign_task by default.
	_, err = env.tasks.AssignTask(task.ID, env.bob.ID, &env.bob.ID)
	require.ErrorIs(t, err, ErrPermissionDenied)
}

func TestDeleteTaskIsSoft(t *testing.T) {
	env := newTaskTestEnv(t)

	task, err := env.tasks.CreateTask(CreateTaskInput{
		ProjectID: env.project.ID, CreatorID: env.mod.ID, Title: "Fix login",
	})
	require.NoError(t, err)

	require.NoError(t, env.tasks.DeleteTask(task.ID, env.mod.ID))

	_, err = env.tasks.GetTask(task.ID, env.owner.ID)
	require.ErrorIs(t, err, ErrTaskNotFound)

	// The row survives for history.
	var count int64
	require.NoError(t, env.db.Unscoped().Model(&models.Task{}).
		Where("id = ?", task.ID).Count(&count).Error)
	require.EqualValues(t, 1, count)

	logs := env.auditLogs(t, env.org.ID)
	last := logs[len(logs)-1]
	require.Equal(t, models.AuditDelete, last.Action)
	require.Equal(t, models.ContentTypeTask, last.ContentType)
}

func TestComments(t *testing.T) {
	env := newTaskTestEnv(t)

	task, err := env.tasks.CreateTask(CreateTaskInput{
		ProjectID: env.project.ID, CreatorID: env.mod.ID, Title: "Fix login", AssignedToID: &env.bob.ID,
	})
	require.NoError(t, err)

	comment, err := env.tasks.AddComment(task.ID, env.bob.ID, "ping @carol and @nobody about this")
	require.NoError(t, err)
	require.Equal(t, []string{"carol", "nobody"}, comment.Mentions)
	require.Equal(t, "bob", comment.AuthorSnapshot.Username)

	// carol is mentioned; the task author hears about the comment; the
	// commenting assignee hears nothing.
	carolNs := env.notificationsFor(t, env.carol.ID)
	require.Len(t, carolNs, 1)
	require.Equal(t, models.NotificationMention, carolNs[0].Type)

	modNs := env.notificationsFor(t, env.mod.ID)
	require.Len(t, modNs, 1)
	require.Equal(t, models.NotificationTaskComment, modNs[0].Type)

	bobNs := env.notificationsFor(t, env.bob.ID)
	require.Len(t, bobNs, 1) // only the earlier assignment

	comments, err := env.tasks.ListComments(task.ID, env.bob.ID)
	require.NoError(t, err)
	require.Len(t, comments, 1)

	_, err = env.tasks.AddComment(task.ID, env.bob.ID, "   ")
	require.ErrorIs(t, err, ErrInvalidComment)
}

func TestTimer(t *testing.T) {
	env := newTaskTestEnv(t)

	task, err := env.tasks.CreateTask(CreateTaskInput{
		ProjectID: env.project.ID, CreatorID: env.mod.ID, Title: "Fix login", AssignedToID: &env.bob.ID,
	})
	require.NoError(t, err)

	_, err = env.tasks.StopTimer(task.ID, env.bob.ID)
	require.ErrorIs(t, err, ErrTimerNotRunning)

	started, err := env.tasks.StartTimer(task.ID, env.bob.ID)
	require.NoError(t, err)
	require.True(t, started.IsTimerRunning)
	require.NotNil(t, started.TimerStartedAt)

	_, err = env.tasks.StartTimer(task.ID, env.bob.ID)
	require.ErrorIs(t, err, ErrTimerAlreadyRunning)

	// Backdate the running timer so the stop folds in elapsed minutes.
	past := time.Now().Add(-10 * time.Minute)
	require.NoError(t, env.db.Model(&models.Task{}).
		Where("id = ?", task.ID).Update("timer_started_at", past).Error)

	stopped, err := env.tasks.StopTimer(task.ID, env.bob.ID)
	require.NoError(t, err)
	require.False(t, stopped.IsTimerRunning)
	require.Nil(t, stopped.TimerStartedAt)
	require.GreaterOrEqual(t, stopped.TimeSpentMinutes, 10)

	added, err := env.tasks.AddTime(task.ID, env.bob.ID, 30)
	require.NoError(t, err)
	require.Equal(t, stopped.TimeSpentMinutes+30, added.TimeSpentMinutes)

	_, err = env.tasks.AddTime(task.ID, env.bob.ID, 0)
	require.ErrorIs(t, err, ErrInvalidTimeSpent)
}

func TestReorderTasksIsAtomic(t *testing.T) {
	env := newTaskTestEnv(t)

	first, err := env.tasks.CreateTask(CreateTaskInput{
		ProjectID: env.project.ID, CreatorID: env.mod.ID, Title: "First",
	})
	require.NoError(t, err)
	second, err := env.tasks.CreateTask(CreateTaskInput{
		ProjectID: env.project.ID, CreatorID: env.mod.ID, Title: "Second",
	})
	require.NoError(t, err)

	elsewhere := env.createProject(t, env.org.ID, env.owner.ID, "Backend")
	foreign, err := env.tasks.CreateTask(CreateTaskInput{
		ProjectID: elsewhere.ID, CreatorID: env.owner.ID, Title: "Foreign",
	})
	require.NoError(t, err)

	// A batch touching a task outside the project is rejected whole.
	err = env.tasks.ReorderTasks(env.project.ID, env.mod.ID, []ReorderColumn{
		{Status: models.TaskStatusInProgress, TaskIDs: []uint64{first.ID, foreign.ID}},
	})
	require.ErrorIs(t, err, ErrTaskNotFound)

	reloaded, err := env.tasks.GetTask(first.ID, env.owner.ID)
	require.NoError(t, err)
	require.Equal(t, models.TaskStatusTodo, reloaded.Status)

	err = env.tasks.ReorderTasks(env.project.ID, env.mod.ID, []ReorderColumn{
		{Status: models.TaskStatusDone, TaskIDs: []uint64{second.ID, first.ID}},
	})
	require.NoError(t, err)

	reloaded, err = env.tasks.GetTask(second.ID, env.owner.ID)
	require.NoError(t, err)
	require.Equal(t, models.TaskStatusDone, reloaded.Status)
	require.NotNil(t, reloaded.CompletedAt)
	require.Equal(t, 0, reloaded.Position)

	reloaded, err = env.tasks.GetTask(first.ID, env.owner.ID)
	require.NoError(t, err)
	require.Equal(t, 1, reloaded.Position)
}
