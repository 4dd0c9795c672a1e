package httpapi

import (
	"time"

	"pintlog-backend-go/internal/models"
	"pintlog-backend-go/internal/services"
)

type IdentityDTO struct {
	ID       string   `json:"id"`
	Username string   `json:"username"`
	Roles    []string `json:"roles"`
	IsAdmin  bool     `json:"isAdmin"`
}

func toIdentityDTO(identity services.Identity) IdentityDTO {
	roles := identity.Roles
	if roles == nil {
		roles = []string{}
	}
	return IdentityDTO{
		ID:       identity.UserID,
		Username: identity.Username,
		Roles:    roles,
		IsAdmin:  identity.IsAdmin(),
	}
}

type UserDTO struct {
	ID             string     `json:"id"`
	Username       string     `json:"username"`
	CreatedAt      time.Time  `json:"createdAt"`
	NightModeUntil *time.Time `json:"nightModeUntil,omitempty"`
}

func toUserDTO(user models.User) UserDTO {
	return UserDTO{
		ID:             user.ID,
		Username:       user.Username,
		CreatedAt:      user.CreatedAt,
		NightModeUntil: user.NightModeUntil,
	}
}
