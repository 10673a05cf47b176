package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/navflow/navflow-api/internal/models"
	"github.com/navflow/navflow-api/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrInvitationNotFound         = errors.New("invitation not found")
	ErrNotInvitedUser             = errors.New("invitation belongs to another user")
	ErrAlreadyMember              = errors.New("user is already a member of this organization")
	ErrDuplicatePendingInvitation = errors.New("user already has a pending invitation to this organization")
	ErrCannotInviteYourself       = errors.New("cannot invite yourself")
	ErrCannotInviteAsOwner        = errors.New("cannot invite a user as owner")
	ErrInvitationAlreadyResponded = errors.New("invitation has already been responded to")
	ErrInvitedUserNotFound        = errors.New("invited user not found")
)

// InvitationService drives the organization invitation state machine:
// pending -> accepted | declined | expired.
type InvitationService struct {
	db          *gorm.DB
	inviteRepo  repository.InvitationRepository
	orgRepo     repository.OrganizationRepository
	userRepo    repository.UserRepository
	permissions *PermissionService
	recorder    *Recorder
}

// NewInvitationService creates a new InvitationService
func NewInvitationService(db *gorm.DB, inviteRepo repository.InvitationRepository, orgRepo repository.OrganizationRepository, userRepo repository.UserRepository, permissions *PermissionService, recorder *Recorder) *InvitationService {
	return &InvitationService{
		db:          db,
		inviteRepo:  inviteRepo,
		orgRepo:     orgRepo,
		userRepo:    userRepo,
		permissions: permissions,
		recorder:    recorder,
	}
}

// CreateInvitationInput represents parameters to invite a user by username.
type CreateInvitationInput struct {
	OrganizationID uint64
	InviterID      uint64
	Username       string
	Role           models.Role
}

// CreateInvitation invites a user to the organization. The pending
// partial unique index is the final arbiter against duplicate-pending
// races. The invitee receives an actionable notification.
func (s *InvitationService) CreateInvitation(input CreateInvitationInput) (*models.Invitation, error) {
	if !input.Role.Valid() {
		return nil, ErrInvalidRole
	}
	if input.Role == models.RoleOwner {
		return nil, ErrCannotInviteAsOwner
	}

	if err := s.permissions.RequireOrgPermission(input.OrganizationID, input.InviterID, models.PermInviteMembers); err != nil {
		return nil, err
	}

	invited, err := s.userRepo.FindByUsername(input.Username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvitedUserNotFound
		}
		return nil, fmt.Errorf("failed to find invited user: %w", err)
	}

	if invited.ID == input.InviterID {
		return nil, ErrCannotInviteYourself
	}

	if _, err := s.orgRepo.FindMember(input.OrganizationID, invited.ID); err == nil {
		return nil, ErrAlreadyMember
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to verify membership: %w", err)
	}

	if _, err := s.inviteRepo.FindPending(input.OrganizationID, invited.ID); err == nil {
		return nil, ErrDuplicatePendingInvitation
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check pending invitations: %w", err)
	}

	org, err := s.orgRepo.FindByID(input.OrganizationID)
	if err != nil {
		return nil, fmt.Errorf("failed to find organization: %w", err)
	}

	inviter, err := s.userRepo.FindByID(input.InviterID)
	if err != nil {
		return nil, fmt.Errorf("failed to find inviter: %w", err)
	}

	inv := &models.Invitation{
		OrganizationID: input.OrganizationID,
		InvitedUserID:  invited.ID,
		InvitedByID:    input.InviterID,
		Role:           input.Role,
		Status:         models.InvitationPending,
	}
	if err := s.inviteRepo.Create(inv); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, ErrDuplicatePendingInvitation
		}
		return nil, fmt.Errorf("failed to create invitation: %w", err)
	}

	s.recorder.Notify(s.db, models.Notification{
		UserID:       invited.ID,
		Type:         models.NotificationInvitation,
		Title:        fmt.Sprintf("Invitation to join %s", org.Name),
		Message:      fmt.Sprintf("%s invited you to join %s as %s", inviter.Username, org.Name, inv.Role),
		ActionStatus: models.ActionPending,
		ActionData: map[string]any{
			"invitation_id":   inv.ID,
			"organization_id": org.ID,
			"role":            string(inv.Role),
		},
	})

	return inv, nil
}

// Accept transitions a pending invitation to accepted and creates the
// membership. If the invitee joined through another path in the
// meantime, the invitation expires instead and ErrAlreadyMember is
// returned.
func (s *InvitationService) Accept(invitationID, userID uint64) (*models.Invitation, error) {
	inv, err := s.loadForResponse(invitationID, userID)
	if err != nil {
		return nil, err
	}

	now := time.Now()

	if _, err := s.orgRepo.FindMember(inv.OrganizationID, userID); err == nil {
		inv.Status = models.InvitationExpired
		inv.RespondedAt = &now
		if updateErr := s.inviteRepo.Update(inv); updateErr != nil {
			return nil, fmt.Errorf("failed to expire invitation: %w", updateErr)
		}
		s.resolveActionNotification(inv, models.ActionDeclined)
		return nil, ErrAlreadyMember
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to verify membership: %w", err)
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		repo := repository.NewOrganizationRepository(tx)
		member := &models.Membership{
			OrganizationID: inv.OrganizationID,
			UserID:         userID,
			Role:           inv.Role,
			JoinedAt:       now,
		}
		if err := repo.AddMember(member); err != nil {
			if repository.IsUniqueViolation(err) {
				return ErrAlreadyMember
			}
			return fmt.Errorf("failed to create membership: %w", err)
		}

		inv.Status = models.InvitationAccepted
		inv.RespondedAt = &now
		if err := repository.NewInvitationRepository(tx).Update(inv); err != nil {
			return fmt.Errorf("failed to update invitation: %w", err)
		}

		return s.recorder.Record(tx, AuditEntry{
			OrganizationID: inv.OrganizationID,
			UserID:         &userID,
			Action:         models.AuditCreate,
			ContentType:    models.ContentTypeMembership,
			ObjectID:       userID,
			ObjectName:     inv.InvitedUser.Username,
			Changes: models.ChangeSet{
				"role": {"", string(inv.Role)},
			},
		})
	})
	if err != nil {
		return nil, err
	}

	s.resolveActionNotification(inv, models.ActionAccepted)
	s.recorder.Notify(s.db, models.Notification{
		UserID:  inv.InvitedByID,
		Type:    models.NotificationInvitationAccepted,
		Title:   "Invitation accepted",
		Message: fmt.Sprintf("%s accepted your invitation to %s", inv.InvitedUser.Username, inv.Organization.Name),
	})

	return inv, nil
}

// Decline transitions a pending invitation to declined and notifies
// the inviter.
func (s *InvitationService) Decline(invitationID, userID uint64) (*models.Invitation, error) {
	inv, err := s.loadForResponse(invitationID, userID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	inv.Status = models.InvitationDeclined
	inv.RespondedAt = &now
	if err := s.inviteRepo.Update(inv); err != nil {
		return nil, fmt.Errorf("failed to update invitation: %w", err)
	}

	s.resolveActionNotification(inv, models.ActionDeclined)
	s.recorder.Notify(s.db, models.Notification{
		UserID:  inv.InvitedByID,
		Type:    models.NotificationInvitationDeclined,
		Title:   "Invitation declined",
		Message: fmt.Sprintf("%s declined your invitation to %s", inv.InvitedUser.Username, inv.Organization.Name),
	})

	return inv, nil
}

// Expire transitions a pending invitation to expired. Policy-driven,
// invoked out of band rather than by the invitee.
func (s *InvitationService) Expire(invitationID uint64) (*models.Invitation, error) {
	inv, err := s.inviteRepo.FindByID(invitationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvitationNotFound
		}
		return nil, fmt.Errorf("failed to find invitation: %w", err)
	}
	if inv.Status != models.InvitationPending {
		return nil, ErrInvitationAlreadyResponded
	}

	now := time.Now()
	inv.Status = models.InvitationExpired
	inv.RespondedAt = &now
	if err := s.inviteRepo.Update(inv); err != nil {
		return nil, fmt.Errorf("failed to expire invitation: %w", err)
	}

	s.resolveActionNotification(inv, models.ActionDeclined)
	return inv, nil
}

// ListForUser lists invitations received by a user.
func (s *InvitationService) ListForUser(userID uint64, status *models.InvitationStatus) ([]models.Invitation, error) {
	invitations, err := s.inviteRepo.ListForUser(userID, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list invitations: %w", err)
	}
	return invitations, nil
}

// ListForOrganization lists invitations in an organization. Requires
// the invite_members capability.
func (s *InvitationService) ListForOrganization(orgID, actorID uint64, status *models.InvitationStatus) ([]models.Invitation, error) {
	if err := s.permissions.RequireOrgPermission(orgID, actorID, models.PermInviteMembers); err != nil {
		return nil, err
	}
	invitations, err := s.inviteRepo.ListForOrganization(orgID, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list invitations: %w", err)
	}
	return invitations, nil
}

// loadForResponse loads an invitation and checks it can be responded
// to by userID: it must belong to them and still be pending.
func (s *InvitationService) loadForResponse(invitationID, userID uint64) (*models.Invitation, error) {
	inv, err := s.inviteRepo.FindByID(invitationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvitationNotFound
		}
		return nil, fmt.Errorf("failed to find invitation: %w", err)
	}

	if inv.InvitedUserID != userID {
		return nil, ErrNotInvitedUser
	}
	if inv.Status != models.InvitationPending {
		return nil, ErrInvitationAlreadyResponded
	}

	return inv, nil
}

// resolveActionNotification flips the invitee's actionable notification
// once the invitation has been responded to. Best-effort.
func (s *InvitationService) resolveActionNotification(inv *models.Invitation, status models.ActionStatus) {
	repo := repository.NewNotificationRepository(s.db)
	n, err := repo.FindInvitationAction(inv.InvitedUserID, inv.ID)
	if err != nil {
		return
	}
	n.ActionStatus = status
	n.IsRead = true
	_ = repo.Update(n)
}
