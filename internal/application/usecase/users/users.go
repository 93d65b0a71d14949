package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/mlazarev/accounts-api/internal/domain/user"
	"github.com/mlazarev/accounts-api/pkg/apperror"
	"github.com/mlazarev/accounts-api/pkg/auth"
	"github.com/mlazarev/accounts-api/pkg/logger"
	"github.com/mlazarev/accounts-api/pkg/pgrepo"
)

// ErrInvalidCredentials is deliberately generic: it never reveals whether
// the email existed or the password was wrong.
var ErrInvalidCredentials = errors.New("email or password is incorrect")

// Service orchestrates the users repository for authentication and
// profile retrieval use cases.
type Service struct {
	repo      user.Repository
	logger    logger.Logger
	validate  *validator.Validate
	batchSize int
}

func NewService(repo user.Repository, log logger.Logger, batchSize int) *Service {
	return &Service{
		repo:      repo,
		logger:    log,
		validate:  validator.New(),
		batchSize: batchSize,
	}
}

// GetAuthenticatedUser looks a user up by a syntactically valid email and
// verifies the password. is_active is intentionally not consulted here.
func (s *Service) GetAuthenticatedUser(ctx context.Context, email, password string) (*user.User, error) {
	if err := s.validate.Var(email, "required,email"); err != nil {
		return nil, apperror.NewValidation(fmt.Sprintf("%q is not a valid email address", email), err)
	}

	u, err := s.repo.GetFirst(ctx, pgrepo.Filter{"email": email})
	if err != nil {
		return nil, err
	}
	if u == nil || u.PasswordHashed == nil || !auth.CheckPasswordHash(password, *u.PasswordHashed) {
		s.logger.Info("authentication rejected", zap.String("email", email))
		return nil, apperror.NewUnauthorized(ErrInvalidCredentials.Error(), nil)
	}
	return u, nil
}

// GetUsers lists users and counts the total under the same filter, so the
// page and the count never disagree.
func (s *Service) GetUsers(ctx context.Context, filter pgrepo.Filter, orderBy []string, limit, offset int) ([]*user.User, int64, error) {
	if limit <= 0 {
		limit = s.batchSize
	}
	if offset < 0 {
		offset = 0
	}

	list, err := s.repo.GetList(ctx, filter, orderBy, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// UpdateOrCreateUser upserts by email. On update, incoming meta keys are
// merged over the stored map instead of replacing it.
func (s *Service) UpdateOrCreateUser(ctx context.Context, data pgrepo.Data) (*user.User, error) {
	email, ok := data["email"]
	if !ok {
		return nil, apperror.NewInvalidInput("email is required", nil)
	}

	row, err := s.repo.GetFirst(ctx, pgrepo.Filter{"email": email})
	if err != nil {
		return nil, err
	}
	if row == nil {
		return s.repo.Create(ctx, data)
	}

	payload := make(pgrepo.Data, len(data))
	for k, v := range data {
		payload[k] = v
	}
	if incoming, ok := payload["meta"].(map[string]any); ok {
		merged := make(map[string]any, len(row.Meta)+len(incoming))
		for k, v := range row.Meta {
			merged[k] = v
		}
		for k, v := range incoming {
			merged[k] = v
		}
		payload["meta"] = merged
	}
	return s.repo.UpdateByObj(ctx, row, payload)
}

// GetByField fetches a single user by an exact field match.
func (s *Service) GetByField(ctx context.Context, field string, value any) (*user.User, error) {
	return s.repo.GetFirst(ctx, pgrepo.Filter{field: value})
}

// GetFirst exposes filtered single-row lookup to the transport layer.
func (s *Service) GetFirst(ctx context.Context, filter pgrepo.Filter) (*user.User, error) {
	return s.repo.GetFirst(ctx, filter)
}
