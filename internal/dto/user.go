package dto

import "github.com/navflow/navflow-api/internal/models"

// UserDTO represents a user in API responses
type UserDTO struct {
	ID        uint64 `json:"id"`
	Email     string `json:"email,omitempty"`
	Username  string `json:"username"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Name      string `json:"name"`
}

// ActorDTO represents a denormalized actor snapshot in API responses.
// It stays valid after the source account is gone.
type ActorDTO struct {
	Username string `json:"username"`
	Name     string `json:"name"`
	Deleted  bool   `json:"deleted"`
}

// ToUserDTO converts a User model to UserDTO
func ToUserDTO(user models.User) UserDTO {
	return UserDTO{
		ID:        user.ID,
		Username:  user.Username,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Name:      user.FullName(),
	}
}

// ToCurrentUserDTO converts a User model to UserDTO including the
// email, which only the account holder sees.
func ToCurrentUserDTO(user models.User) UserDTO {
	dto := ToUserDTO(user)
	dto.Email = user.Email
	return dto
}

// ToActorDTO converts an ActorSnapshot to ActorDTO
func ToActorDTO(s models.ActorSnapshot) ActorDTO {
	return ActorDTO{
		Username: s.Username,
		Name:     s.Name,
		Deleted:  s.Deleted,
	}
}
