package models

import (
	"strings"
	"time"
)

type User struct {
	ID            uint64     `gorm:"primarykey" json:"id"`
	Email         string     `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Username      string     `gorm:"type:varchar(30);uniqueIndex;not null" json:"username"`
	FirstName     string     `gorm:"type:varchar(150)" json:"first_name"`
	LastName      string     `gorm:"type:varchar(150)" json:"last_name"`
	PasswordHash  string     `gorm:"type:varchar(255);not null" json:"-"`
	IsDeleted     bool       `gorm:"not null;default:false" json:"is_deleted"`
	DeactivatedAt *time.Time `json:"deactivated_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`

	// Relations
	Memberships   []Membership   `gorm:"foreignKey:UserID" json:"-"`
	ProjectRoles  []ProjectRole  `gorm:"foreignKey:UserID" json:"-"`
	Notifications []Notification `gorm:"foreignKey:UserID" json:"-"`
}

// FullName returns the display name, falling back to the username when
// no profile name is set.
func (u *User) FullName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Username
	}
	return name
}

// Snapshot freezes the user's identity for denormalization onto tasks
// and comments, so later deletion of the account never breaks history.
func (u *User) Snapshot() ActorSnapshot {
	return ActorSnapshot{
		Username: u.Username,
		Name:     u.FullName(),
	}
}

// ActorSnapshot is a frozen copy of a user's identity captured at write
// time. Deleted is flipped when the source account is hard-deleted.
type ActorSnapshot struct {
	Username string `gorm:"type:varchar(30)" json:"username"`
	Name     string `gorm:"type:varchar(255)" json:"name"`
	Deleted  bool   `gorm:"not null;default:false" json:"deleted"`
}
