package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/navflow/navflow-api/internal/constants"
	"github.com/navflow/navflow-api/internal/models"
	"github.com/navflow/navflow-api/internal/repository"
	"github.com/navflow/navflow-api/internal/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrDuplicateEmail        = errors.New("email already registered")
	ErrDuplicateUsername     = errors.New("username already taken")
	ErrInvalidUsernameFormat = errors.New("username must be 3-30 characters of letters, digits, and underscores")
	ErrPasswordTooShort      = errors.New("password too short")
	ErrEmailRequired         = errors.New("email is required")
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrAccountDeactivated    = errors.New("account has been deactivated")
	ErrUserNotFound          = errors.New("user not found")
	ErrFailedToHashPassword  = errors.New("failed to hash password")
)

// AuthService owns the identity store: registration, authentication,
// and the user soft/hard delete lifecycle.
type AuthService struct {
	db       *gorm.DB
	userRepo repository.UserRepository
	orgRepo  repository.OrganizationRepository
	recorder *Recorder
}

// NewAuthService creates a new AuthService
func NewAuthService(db *gorm.DB, userRepo repository.UserRepository, orgRepo repository.OrganizationRepository, recorder *Recorder) *AuthService {
	return &AuthService{
		db:       db,
		userRepo: userRepo,
		orgRepo:  orgRepo,
		recorder: recorder,
	}
}

// RegisterInput represents the required information to create a new user.
type RegisterInput struct {
	Email     string
	Username  string
	Password  string
	FirstName string
	LastName  string
}

// Register creates a new user. Email and username are unique after
// case normalization; the unique indexes are the final arbiter for
// concurrent registration races.
func (s *AuthService) Register(input RegisterInput) (*models.User, error) {
	email := strings.TrimSpace(strings.ToLower(input.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, ErrEmailRequired
	}

	username := strings.TrimSpace(input.Username)
	if !utils.ValidUsername(username) {
		return nil, ErrInvalidUsernameFormat
	}

	if len(input.Password) < constants.MinPasswordLength {
		return nil, ErrPasswordTooShort
	}

	if _, err := s.userRepo.FindByEmail(email); err == nil {
		return nil, ErrDuplicateEmail
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	if _, err := s.userRepo.FindByUsername(username); err == nil {
		return nil, ErrDuplicateUsername
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, ErrFailedToHashPassword
	}

	user := &models.User{
		Email:        email,
		Username:     username,
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		PasswordHash: string(hashed),
	}

	if err := s.userRepo.Create(user); err != nil {
		if repository.IsUniqueViolation(err) {
			// A concurrent registration won the race; report whichever
			// field collided.
			if _, lookupErr := s.userRepo.FindByUsername(username); lookupErr == nil {
				return nil, ErrDuplicateUsername
			}
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// Authenticate verifies credentials. The identifier is treated as an
// email when it contains '@', otherwise as a username; both resolve
// case-insensitively.
func (s *AuthService) Authenticate(identifier, password string) (*models.User, error) {
	var (
		user *models.User
		err  error
	)
	if strings.Contains(identifier, "@") {
		user, err = s.userRepo.FindByEmail(identifier)
	} else {
		user, err = s.userRepo.FindByUsername(identifier)
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	if user.IsDeleted {
		return nil, ErrAccountDeactivated
	}

	return user, nil
}

// GetUser retrieves a user by ID.
func (s *AuthService) GetUser(id uint64) (*models.User, error) {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// SoftDelete deactivates an account without removing any rows. The
// user can no longer authenticate but all references stay intact.
func (s *AuthService) SoftDelete(userID uint64) error {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to find user: %w", err)
	}

	if user.IsDeleted {
		return nil
	}

	now := time.Now()
	user.IsDeleted = true
	user.DeactivatedAt = &now
	if err := s.userRepo.Update(user); err != nil {
		return fmt.Errorf("failed to deactivate user: %w", err)
	}
	return nil
}

// HardDelete removes the user row permanently. Memberships and project
// roles cascade away, while tasks and comments the user authored or was
// assigned to keep the identity snapshot frozen at write time, with
// their deleted flags set. One audit row is written per organization
// the user belonged to, and remaining admins and owners of each are
// notified.
func (s *AuthService) HardDelete(userID uint64) error {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to find user: %w", err)
	}

	memberships, err := s.orgRepo.ListMembersByUserID(userID)
	if err != nil {
		return fmt.Errorf("failed to list memberships: %w", err)
	}

	var notifications []models.Notification
	for _, m := range memberships {
		admins, err := s.orgRepo.ListMembersWithRoles(m.OrganizationID, []models.Role{models.RoleOwner, models.RoleAdmin})
		if err != nil {
			return fmt.Errorf("failed to list organization admins: %w", err)
		}
		for _, admin := range admins {
			if admin.UserID == userID {
				continue
			}
			notifications = append(notifications, models.Notification{
				UserID:  admin.UserID,
				Type:    models.NotificationMemberDeleted,
				Title:   "Member account deleted",
				Message: fmt.Sprintf("%s's account was deleted and removed from the organization", user.Username),
			})
		}
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		assignedSnapshot := map[string]any{
			"assigned_to_username": user.Username,
			"assigned_to_name":     user.FullName(),
			"assigned_to_deleted":  true,
			"assigned_to_id":       nil,
		}
		if err := tx.Unscoped().Model(&models.Task{}).
			Where("assigned_to_id = ?", userID).
			Updates(assignedSnapshot).Error; err != nil {
			return fmt.Errorf("failed to freeze assignee snapshots: %w", err)
		}

		authorSnapshot := map[string]any{
			"author_username": user.Username,
			"author_name":     user.FullName(),
			"author_deleted":  true,
			"created_by_id":   nil,
		}
		if err := tx.Unscoped().Model(&models.Task{}).
			Where("created_by_id = ?", userID).
			Updates(authorSnapshot).Error; err != nil {
			return fmt.Errorf("failed to freeze task author snapshots: %w", err)
		}

		commentSnapshot := map[string]any{
			"author_username": user.Username,
			"author_name":     user.FullName(),
			"author_deleted":  true,
			"author_id":       nil,
		}
		if err := tx.Model(&models.TaskComment{}).
			Where("author_id = ?", userID).
			Updates(commentSnapshot).Error; err != nil {
			return fmt.Errorf("failed to freeze comment author snapshots: %w", err)
		}

		if err := tx.Model(&models.Project{}).
			Where("created_by_id = ?", userID).
			Update("created_by_id", nil).Error; err != nil {
			return fmt.Errorf("failed to detach created projects: %w", err)
		}

		if err := tx.Where("user_id = ?", userID).Delete(&models.ProjectRole{}).Error; err != nil {
			return fmt.Errorf("failed to remove project roles: %w", err)
		}
		if err := tx.Where("user_id = ?", userID).Delete(&models.Membership{}).Error; err != nil {
			return fmt.Errorf("failed to remove memberships: %w", err)
		}
		if err := tx.Where("invited_user_id = ? OR invited_by_id = ?", userID, userID).
			Delete(&models.Invitation{}).Error; err != nil {
			return fmt.Errorf("failed to remove invitations: %w", err)
		}
		if err := tx.Where("user_id = ?", userID).Delete(&models.Notification{}).Error; err != nil {
			return fmt.Errorf("failed to remove notifications: %w", err)
		}
		if err := tx.Model(&models.AuditLog{}).
			Where("user_id = ?", userID).
			Update("user_id", nil).Error; err != nil {
			return fmt.Errorf("failed to detach audit logs: %w", err)
		}

		for _, m := range memberships {
			entry := AuditEntry{
				OrganizationID: m.OrganizationID,
				Action:         models.AuditDelete,
				ContentType:    models.ContentTypeUser,
				ObjectID:       user.ID,
				ObjectName:     user.Username,
				Changes: models.ChangeSet{
					"is_deleted": {"false", "true"},
				},
			}
			if err := s.recorder.Record(tx, entry); err != nil {
				return err
			}
		}

		return tx.Delete(&models.User{}, userID).Error
	})
	if err != nil {
		return err
	}

	s.recorder.Notify(s.db, notifications...)
	return nil
}
