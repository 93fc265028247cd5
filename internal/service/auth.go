// Package service provides the business logic of the application,
// delegating persistence to repository interfaces.
package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/atinyakov/scrollie/internal/models"
)

// AccountRepository defines the persistence operations
// required by the authentication service.
type AccountRepository interface {
	// AddAccount stores a new registration record.
	// Returns models.ErrEmailTaken if the email is already registered.
	AddAccount(ctx context.Context, acc models.Account) (*models.Account, error)
	// FindAccountByEmail returns the registration record for email
	// or an error matching models.ErrNotFound.
	FindAccountByEmail(ctx context.Context, email string) (*models.Account, error)
	// ActiveUser returns the logged-in user or models.ErrNotLoggedIn.
	ActiveUser(ctx context.Context) (*models.User, error)
	// SetActiveUser makes u the logged-in user.
	SetActiveUser(ctx context.Context, u models.User) error
	// ClearActiveUser logs the current user out.
	ClearActiveUser(ctx context.Context) error
}

// RegisterInput holds the fields of a registration request.
type RegisterInput struct {
	Name     string `json:"name" validate:"required,min=2"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// AuthService implements registration and login by delegating
// to an AccountRepository.
type AuthService struct {
	// repo performs the data-layer operations.
	repo     AccountRepository
	validate *validator.Validate
	logger   *zap.Logger
	// cost is the bcrypt work factor.
	cost int
}

// NewAuthService constructs a new AuthService using the provided repository.
func NewAuthService(repo AccountRepository, logger *zap.Logger) *AuthService {
	return &AuthService{repo: repo, validate: newValidator(), logger: logger, cost: bcrypt.DefaultCost}
}

// Register creates an account on the free plan. It does not log the user in.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	if err := check(s.validate, in); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return nil, err
	}
	limits, _ := models.LimitsFor(models.PlanFree)
	acc, err := s.repo.AddAccount(ctx, models.Account{
		User: models.User{
			Name:   in.Name,
			Email:  in.Email,
			Plan:   models.PlanFree,
			Limits: limits,
		},
		PasswordHash: hash,
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("user registered", zap.String("user_id", acc.ID))
	return &acc.User, nil
}

// Login checks the credentials and makes the account the active user.
// Unknown emails and wrong passwords both yield models.ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, error) {
	acc, err := s.repo.FindAccountByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, models.ErrNotFound) {
		return nil, models.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword(acc.PasswordHash, []byte(password)); err != nil {
		return nil, models.ErrInvalidCredentials
	}
	if err := s.repo.SetActiveUser(ctx, acc.User); err != nil {
		return nil, err
	}
	s.logger.Info("user logged in", zap.String("user_id", acc.ID))
	return &acc.User, nil
}

// Logout clears the active user.
func (s *AuthService) Logout(ctx context.Context) error {
	return s.repo.ClearActiveUser(ctx)
}

// Current returns the active user or models.ErrNotLoggedIn.
func (s *AuthService) Current(ctx context.Context) (*models.User, error) {
	return s.repo.ActiveUser(ctx)
}
