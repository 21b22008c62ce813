package users

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"github.com/apifoundry/apifoundry/internal/models"
)

// ErrInvalidCredentials is returned when the email is unknown or the password
// does not match. Callers cannot distinguish the two cases.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Service encapsulates directory lookups and credential checks
type Service struct {
	repo Repository
}

func NewService(r Repository) *Service {
	return &Service{repo: r}
}

// Authenticate verifies the email/password pair against the directory and
// returns the matching user.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if u == nil || u.PasswordHash == "" {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// Register creates or updates a directory entry with a freshly hashed password.
func (s *Service) Register(ctx context.Context, sub, email, name, password string, roles []string) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	u := &models.User{
		Sub:          sub,
		Email:        email,
		Name:         name,
		Roles:        roles,
		PasswordHash: string(hash),
	}
	return s.repo.UpsertBySub(ctx, u)
}

func (s *Service) GetBySub(ctx context.Context, sub string) (*models.User, error) {
	return s.repo.GetBySub(ctx, sub)
}
