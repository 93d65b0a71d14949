package user

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/mlazarev/accounts-api/pkg/pgrepo"
)

// User is the account record, decoupled from its storage representation.
// Meta is merged shallowly on update, never replaced wholesale.
type User struct {
	ID             int64          `json:"id"`
	UUID           uuid.UUID      `json:"uuid"`
	Meta           map[string]any `json:"meta"`
	Secret         string         `json:"-"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	Username       *string        `json:"username"`
	PasswordHashed *string        `json:"-"`
	Email          *string        `json:"email"`
	Phone          *string        `json:"phone"`
	Gender         *string        `json:"gender"`
	Birthday       *time.Time     `json:"birthday"`
	FirstName      *string        `json:"first_name"`
	MiddleName     *string        `json:"middle_name"`
	LastName       *string        `json:"last_name"`
	IsActive       bool           `json:"is_active"`
}

// EmailValue returns the email or "" when unset.
func (u *User) EmailValue() string {
	if u.Email == nil {
		return ""
	}
	return *u.Email
}

// UsernameValue returns the username or "" when unset.
func (u *User) UsernameValue() string {
	if u.Username == nil {
		return ""
	}
	return *u.Username
}

type Repository interface {
	Count(ctx context.Context, filter pgrepo.Filter) (int64, error)
	Exists(ctx context.Context, filter pgrepo.Filter) (bool, error)
	GetFirst(ctx context.Context, filter pgrepo.Filter) (*User, error)
	GetList(ctx context.Context, filter pgrepo.Filter, orderBy []string, limit, offset int) ([]*User, error)
	GetFirstPartial(ctx context.Context, fields []string, filter pgrepo.Filter) (map[string]any, error)
	GetListPartial(ctx context.Context, fields []string, filter pgrepo.Filter, orderBy []string, limit, offset int) ([]map[string]any, error)
	Create(ctx context.Context, data pgrepo.Data) (*User, error)
	Update(ctx context.Context, filter pgrepo.Filter, data pgrepo.Data, returnUpdated bool) (*User, error)
	UpdateByObj(ctx context.Context, u *User, data pgrepo.Data) (*User, error)
	GetOrCreate(ctx context.Context, filter pgrepo.Filter, data pgrepo.Data) (*User, error)
	UpdateOrCreate(ctx context.Context, field string, value any, data pgrepo.Data) (*User, error)
	Delete(ctx context.Context, filter pgrepo.Filter) (bool, error)
}
