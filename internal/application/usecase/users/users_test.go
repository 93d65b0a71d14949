package users

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mlazarev/accounts-api/internal/domain/user"
	"github.com/mlazarev/accounts-api/pkg/apperror"
	"github.com/mlazarev/accounts-api/pkg/auth"
	"github.com/mlazarev/accounts-api/pkg/logger"
	"github.com/mlazarev/accounts-api/pkg/pgrepo"
)

// fakeUserRepo keeps users in a slice; just enough behavior for the
// service paths under test.
type fakeUserRepo struct {
	users []*user.User

	nextID        int64
	lastUpdateObj *user.User
	lastUpdate    pgrepo.Data
}

func (f *fakeUserRepo) match(filter pgrepo.Filter, u *user.User) bool {
	for key, value := range filter {
		switch key {
		case "email":
			if u.Email == nil || *u.Email != value.(string) {
				return false
			}
		case "uuid":
			if u.UUID.String() != value.(string) {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func (f *fakeUserRepo) GetFirst(_ context.Context, filter pgrepo.Filter) (*user.User, error) {
	for _, u := range f.users {
		if f.match(filter, u) {
			return u, nil
		}
	}
	return nil, nil
}

func (f *fakeUserRepo) GetList(_ context.Context, filter pgrepo.Filter, _ []string, limit, offset int) ([]*user.User, error) {
	matched := make([]*user.User, 0)
	for _, u := range f.users {
		if f.match(filter, u) {
			matched = append(matched, u)
		}
	}
	if offset > len(matched) {
		offset = len(matched)
	}
	matched = matched[offset:]
	if limit > 0 && limit < len(matched) {
		matched = matched[:limit]
	}
	return matched, nil
}

func (f *fakeUserRepo) Count(_ context.Context, filter pgrepo.Filter) (int64, error) {
	var count int64
	for _, u := range f.users {
		if f.match(filter, u) {
			count++
		}
	}
	return count, nil
}

func (f *fakeUserRepo) Create(_ context.Context, data pgrepo.Data) (*user.User, error) {
	f.nextID++
	u := &user.User{
		ID:        f.nextID,
		UUID:      uuid.New(),
		Meta:      map[string]any{},
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
		IsActive:  true,
	}
	if email, ok := data["email"].(string); ok {
		u.Email = &email
	}
	if meta, ok := data["meta"].(map[string]any); ok {
		u.Meta = meta
	}
	f.users = append(f.users, u)
	return u, nil
}

func (f *fakeUserRepo) UpdateByObj(_ context.Context, u *user.User, data pgrepo.Data) (*user.User, error) {
	f.lastUpdateObj = u
	f.lastUpdate = data
	if meta, ok := data["meta"].(map[string]any); ok {
		u.Meta = meta
	}
	u.UpdatedAt = time.Now()
	return u, nil
}

func (f *fakeUserRepo) Exists(context.Context, pgrepo.Filter) (bool, error) { return false, nil }
func (f *fakeUserRepo) GetFirstPartial(context.Context, []string, pgrepo.Filter) (map[string]any, error) {
	return nil, nil
}
func (f *fakeUserRepo) GetListPartial(context.Context, []string, pgrepo.Filter, []string, int, int) ([]map[string]any, error) {
	return nil, nil
}
func (f *fakeUserRepo) Update(context.Context, pgrepo.Filter, pgrepo.Data, bool) (*user.User, error) {
	return nil, nil
}
func (f *fakeUserRepo) GetOrCreate(context.Context, pgrepo.Filter, pgrepo.Data) (*user.User, error) {
	return nil, nil
}
func (f *fakeUserRepo) UpdateOrCreate(context.Context, string, any, pgrepo.Data) (*user.User, error) {
	return nil, nil
}
func (f *fakeUserRepo) Delete(context.Context, pgrepo.Filter) (bool, error) { return false, nil }

func seedUser(t *testing.T, repo *fakeUserRepo, email, password string, meta map[string]any) *user.User {
	t.Helper()
	u, err := repo.Create(context.Background(), pgrepo.Data{"email": email, "meta": meta})
	require.NoError(t, err)
	hash, err := auth.HashPassword(password)
	require.NoError(t, err)
	u.PasswordHashed = &hash
	return u
}

func newTestService(repo *fakeUserRepo) *Service {
	return NewService(repo, logger.NewNop(), 25)
}

func TestGetAuthenticatedUser(t *testing.T) {
	ctx := context.Background()

	t.Run("malformed email fails validation with the offending value", func(t *testing.T) {
		svc := newTestService(&fakeUserRepo{})

		_, err := svc.GetAuthenticatedUser(ctx, "not-an-email", "whatever")
		require.Error(t, err)
		assert.ErrorIs(t, err, apperror.ErrValidation)
		assert.Contains(t, err.Error(), "not-an-email")
	})

	t.Run("valid credentials", func(t *testing.T) {
		repo := &fakeUserRepo{}
		seeded := seedUser(t, repo, "alice@example.com", "correct-horse", nil)
		svc := newTestService(repo)

		u, err := svc.GetAuthenticatedUser(ctx, "alice@example.com", "correct-horse")
		require.NoError(t, err)
		assert.Equal(t, seeded.ID, u.ID)
	})

	t.Run("wrong password and unknown email fail identically", func(t *testing.T) {
		repo := &fakeUserRepo{}
		seedUser(t, repo, "alice@example.com", "correct-horse", nil)
		svc := newTestService(repo)

		_, errWrongPass := svc.GetAuthenticatedUser(ctx, "alice@example.com", "wrong")
		_, errNoUser := svc.GetAuthenticatedUser(ctx, "bob@example.com", "correct-horse")

		require.Error(t, errWrongPass)
		require.Error(t, errNoUser)
		assert.ErrorIs(t, errWrongPass, apperror.ErrUnauthorized)
		assert.ErrorIs(t, errNoUser, apperror.ErrUnauthorized)
		// non-enumerable: the caller can't tell which factor failed
		assert.Equal(t, errWrongPass.Error(), errNoUser.Error())
	})
}

func TestGetUsers(t *testing.T) {
	ctx := context.Background()
	repo := &fakeUserRepo{}
	seedUser(t, repo, "u1@example.com", "pass", nil)
	seedUser(t, repo, "u2@example.com", "pass", nil)
	svc := newTestService(repo)

	list, total, err := svc.GetUsers(ctx, nil, nil, 0, 0)
	require.NoError(t, err)
	assert.Len(t, list, 2)
	assert.EqualValues(t, 2, total)

	list, total, err = svc.GetUsers(ctx, pgrepo.Filter{"email": "u1@example.com"}, nil, 0, 0)
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.EqualValues(t, 1, total)
}

func TestUpdateOrCreateUser(t *testing.T) {
	ctx := context.Background()

	t.Run("creates when email is unknown", func(t *testing.T) {
		repo := &fakeUserRepo{}
		svc := newTestService(repo)

		u, err := svc.UpdateOrCreateUser(ctx, pgrepo.Data{
			"email": "new@example.com",
			"meta":  map[string]any{"source": "import"},
		})
		require.NoError(t, err)
		assert.Equal(t, "new@example.com", *u.Email)
		assert.Equal(t, map[string]any{"source": "import"}, u.Meta)
	})

	t.Run("merges meta on update instead of replacing it", func(t *testing.T) {
		repo := &fakeUserRepo{}
		existing := seedUser(t, repo, "alice@example.com", "pass", map[string]any{"kept": "old", "shared": "old"})
		svc := newTestService(repo)

		u, err := svc.UpdateOrCreateUser(ctx, pgrepo.Data{
			"email": "alice@example.com",
			"meta":  map[string]any{"shared": "new", "added": "new"},
		})
		require.NoError(t, err)
		assert.Equal(t, existing.ID, u.ID)
		assert.Equal(t, existing, repo.lastUpdateObj)

		merged, ok := repo.lastUpdate["meta"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "old", merged["kept"])
		assert.Equal(t, "new", merged["shared"])
		assert.Equal(t, "new", merged["added"])
	})

	t.Run("missing email is rejected", func(t *testing.T) {
		svc := newTestService(&fakeUserRepo{})

		_, err := svc.UpdateOrCreateUser(ctx, pgrepo.Data{"meta": map[string]any{}})
		assert.ErrorIs(t, err, apperror.ErrInvalidInput)
	})
}
