package persistence

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mlazarev/accounts-api/internal/domain/user"
	"github.com/mlazarev/accounts-api/pkg/auth"
	"github.com/mlazarev/accounts-api/pkg/pgrepo"
)

const userSecretLength = 24

var userColumns = []string{
	"id",
	"uuid",
	"meta",
	"secret",
	"created_at",
	"updated_at",
	"username",
	"password_hashed",
	"email",
	"phone",
	"gender",
	"birthday",
	"first_name",
	"middle_name",
	"last_name",
	"is_active",
}

var usersDescriptor = pgrepo.MustDescriptor("users", userColumns, []string{"-id"})

type postgresUserRepo struct {
	*pgrepo.Repository[user.User]
}

func NewPostgresUserRepo(db *pgxpool.Pool) user.Repository {
	return &postgresUserRepo{
		Repository: pgrepo.New(db, usersDescriptor, scanUser,
			pgrepo.WithCreateDefaults[user.User](userCreateDefaults),
		),
	}
}

// userCreateDefaults assigns uuid and secret when the caller did not
// provide them. Runs on a copy of the payload.
func userCreateDefaults(data pgrepo.Data) pgrepo.Data {
	if _, ok := data["uuid"]; !ok {
		data["uuid"] = uuid.New()
	}
	if _, ok := data["secret"]; !ok {
		data["secret"] = auth.GenerateString(userSecretLength)
	}
	return data
}

func (r *postgresUserRepo) UpdateByObj(ctx context.Context, u *user.User, data pgrepo.Data) (*user.User, error) {
	return r.Repository.UpdateByID(ctx, u.ID, data)
}

func scanUser(row pgx.Row) (*user.User, error) {
	u := &user.User{}
	var metaBytes []byte

	err := row.Scan(
		&u.ID,
		&u.UUID,
		&metaBytes,
		&u.Secret,
		&u.CreatedAt,
		&u.UpdatedAt,
		&u.Username,
		&u.PasswordHashed,
		&u.Email,
		&u.Phone,
		&u.Gender,
		&u.Birthday,
		&u.FirstName,
		&u.MiddleName,
		&u.LastName,
		&u.IsActive,
	)
	if err != nil {
		return nil, err
	}

	if len(metaBytes) > 0 {
		if err := json.Unmarshal(metaBytes, &u.Meta); err != nil {
			return nil, fmt.Errorf("failed to unmarshal user meta: %w", err)
		}
	}
	if u.Meta == nil {
		u.Meta = map[string]any{}
	}
	return u, nil
}
