package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/navflow/navflow-api/internal/database"
	"github.com/navflow/navflow-api/internal/models"
	"github.com/navflow/navflow-api/internal/repository"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type testEnv struct {
	db *gorm.DB

	userRepo    repository.UserRepository
	orgRepo     repository.OrganizationRepository
	inviteRepo  repository.InvitationRepository
	projectRepo repository.ProjectRepository
	taskRepo    repository.TaskRepository
	auditRepo   repository.AuditLogRepository
	notifRepo   repository.NotificationRepository

	permissions   *PermissionService
	recorder      *Recorder
	auth          *AuthService
	orgs          *OrganizationService
	invitations   *InvitationService
	projects      *ProjectService
	tasks         *TaskService
	notifications *NotificationService
	audits        *AuditService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, database.MigrateModels(db))
	require.NoError(t, database.AddIndexes(db))
	database.SetDB(db)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	env := &testEnv{
		db:          db,
		userRepo:    repository.NewUserRepository(db),
		orgRepo:     repository.NewOrganizationRepository(db),
		inviteRepo:  repository.NewInvitationRepository(db),
		projectRepo: repository.NewProjectRepository(db),
		taskRepo:    repository.NewTaskRepository(db),
		auditRepo:   repository.NewAuditLogRepository(db),
		notifRepo:   repository.NewNotificationRepository(db),
	}

	env.recorder = NewRecorder(nil)
	env.permissions = NewPermissionService(env.orgRepo, env.projectRepo)
	env.auth = NewAuthService(db, env.userRepo, env.orgRepo, env.recorder)
	env.orgs = NewOrganizationService(db, env.orgRepo, env.userRepo, env.permissions, env.recorder)
	env.invitations = NewInvitationService(db, env.inviteRepo, env.orgRepo, env.userRepo, env.permissions, env.recorder)
	env.projects = NewProjectService(db, env.projectRepo, env.orgRepo, env.userRepo, env.permissions, env.recorder)
	env.tasks = NewTaskService(db, env.taskRepo, env.projectRepo, env.userRepo, env.permissions, env.recorder)
	env.notifications = NewNotificationService(env.notifRepo, env.invitations)
	env.audits = NewAuditService(env.auditRepo, env.orgRepo, env.permissions)

	return env
}

// Fixtures

func (env *testEnv) createUser(t *testing.T, username string) *models.User {
	t.Helper()

	hashed, err := bcrypt.GenerateFromPassword([]byte("supersecret"), bcrypt.MinCost)
	require.NoError(t, err)

	user := &models.User{
		Email:        fmt.Sprintf("%s@example.com", username),
		Username:     username,
		PasswordHash: string(hashed),
	}
	require.NoError(t, env.userRepo.Create(user))
	return user
}

func (env *testEnv) createOrg(t *testing.T, name string, ownerID uint64) *models.Organization {
	t.Helper()

	org, err := env.orgs.CreateOrganization(CreateOrganizationInput{
		Name:    name,
		OwnerID: ownerID,
	})
	require.NoError(t, err)
	return org
}

func (env *testEnv) addMember(t *testing.T, orgID, userID uint64, role models.Role) {
	t.Helper()

	require.NoError(t, env.orgRepo.AddMember(&models.Membership{
		OrganizationID: orgID,
		UserID:         userID,
		Role:           role,
		JoinedAt:       time.Now(),
	}))
}

func (env *testEnv) createProject(t *testing.T, orgID, creatorID uint64, name string) *models.Project {
	t.Helper()

	project, err := env.projects.CreateProject(CreateProjectInput{
		OrganizationID: orgID,
		CreatorID:      creatorID,
		Name:           name,
	})
	require.NoError(t, err)
	return project
}

func (env *testEnv) addProjectMember(t *testing.T, projectID, userID uint64, role models.Role) {
	t.Helper()

	require.NoError(t, env.projectRepo.AddRole(&models.ProjectRole{
		ProjectID:  projectID,
		UserID:     userID,
		Role:       role,
		AssignedAt: time.Now(),
	}))
}

func (env *testEnv) auditLogs(t *testing.T, orgID uint64) []models.AuditLog {
	t.Helper()

	var logs []models.AuditLog
	require.NoError(t, env.db.Where("organization_id = ?", orgID).
		Order("id ASC").Find(&logs).Error)
	return logs
}

func (env *testEnv) notificationsFor(t *testing.T, userID uint64) []models.Notification {
	t.Helper()

	var ns []models.Notification
	require.NoError(t, env.db.Where("user_id = ?", userID).
		Order("id ASC").Find(&ns).Error)
	return ns
}
