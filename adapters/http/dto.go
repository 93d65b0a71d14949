package http

import (
	"time"

	"github.com/mlazarev/accounts-api/internal/domain/user"
)

type TokensRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type UserDataDTO struct {
	UUID     string  `json:"uuid"`
	Username *string `json:"username"`
	Email    *string `json:"email"`
}

type TokensResponse struct {
	UserData UserDataDTO `json:"user_data"`
	Access   string      `json:"access"`
	Refresh  string      `json:"refresh"`
}

type AccessTokenResponse struct {
	AccessToken string `json:"access_token"`
}

type UserDTO struct {
	ID         int64          `json:"id"`
	UUID       string         `json:"uuid"`
	Meta       map[string]any `json:"meta"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	Username   *string        `json:"username"`
	Email      *string        `json:"email"`
	Phone      *string        `json:"phone"`
	Gender     *string        `json:"gender"`
	Birthday   *time.Time     `json:"birthday"`
	FirstName  *string        `json:"first_name"`
	MiddleName *string        `json:"middle_name"`
	LastName   *string        `json:"last_name"`
	IsActive   bool           `json:"is_active"`
}

// PageResponse is the pagination envelope: total count plus the page, with
// optional prev/next links.
type PageResponse struct {
	Count   int64     `json:"count"`
	Results []UserDTO `json:"results"`
	Prev    *string   `json:"prev,omitempty"`
	Next    *string   `json:"next,omitempty"`
}

type UpsertUserRequest struct {
	Email      string         `json:"email" binding:"required,email"`
	Meta       map[string]any `json:"meta"`
	Username   *string        `json:"username"`
	Phone      *string        `json:"phone"`
	Gender     *string        `json:"gender"`
	Birthday   *time.Time     `json:"birthday"`
	FirstName  *string        `json:"first_name"`
	MiddleName *string        `json:"middle_name"`
	LastName   *string        `json:"last_name"`
}

func ToUserDTO(u *user.User) UserDTO {
	return UserDTO{
		ID:         u.ID,
		UUID:       u.UUID.String(),
		Meta:       u.Meta,
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
		Username:   u.Username,
		Email:      u.Email,
		Phone:      u.Phone,
		Gender:     u.Gender,
		Birthday:   u.Birthday,
		FirstName:  u.FirstName,
		MiddleName: u.MiddleName,
		LastName:   u.LastName,
		IsActive:   u.IsActive,
	}
}

func ToUserDataDTO(u *user.User) UserDataDTO {
	return UserDataDTO{
		UUID:     u.UUID.String(),
		Username: u.Username,
		Email:    u.Email,
	}
}
