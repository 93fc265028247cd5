package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/atinyakov/scrollie/internal/models"
)

type mockAccountRepo struct {
	AddAccountFunc         func(ctx context.Context, acc models.Account) (*models.Account, error)
	FindAccountByEmailFunc func(ctx context.Context, email string) (*models.Account, error)
	ActiveUserFunc         func(ctx context.Context) (*models.User, error)
	SetActiveUserFunc      func(ctx context.Context, u models.User) error
	ClearActiveUserFunc    func(ctx context.Context) error
}

func (m *mockAccountRepo) AddAccount(ctx context.Context, acc models.Account) (*models.Account, error) {
	return m.AddAccountFunc(ctx, acc)
}
func (m *mockAccountRepo) FindAccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	return m.FindAccountByEmailFunc(ctx, email)
}
func (m *mockAccountRepo) ActiveUser(ctx context.Context) (*models.User, error) {
	return m.ActiveUserFunc(ctx)
}
func (m *mockAccountRepo) SetActiveUser(ctx context.Context, u models.User) error {
	return m.SetActiveUserFunc(ctx, u)
}
func (m *mockAccountRepo) ClearActiveUser(ctx context.Context) error {
	return m.ClearActiveUserFunc(ctx)
}

func newTestAuthService(repo AccountRepository) *AuthService {
	s := NewAuthService(repo, zap.NewNop())
	s.cost = bcrypt.MinCost
	return s
}

func hashed(t *testing.T, password string) []byte {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return h
}

func TestRegister_Success(t *testing.T) {
	var stored models.Account
	repo := &mockAccountRepo{
		AddAccountFunc: func(ctx context.Context, acc models.Account) (*models.Account, error) {
			stored = acc
			acc.ID = "user-42"
			return &acc, nil
		},
	}
	svc := newTestAuthService(repo)

	u, err := svc.Register(context.Background(), RegisterInput{Name: " Ada ", Email: "ada@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "user-42", u.ID)
	assert.Equal(t, "Ada", u.Name)
	assert.Equal(t, models.PlanFree, u.Plan)
	assert.Equal(t, models.Usage{}, u.Usage)
	assert.Equal(t, models.Limits{Slideshows: 5, Carousels: 10}, u.Limits)

	assert.NotEqual(t, []byte("secret1"), stored.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword(stored.PasswordHash, []byte("secret1")))
}

func TestRegister_Validation(t *testing.T) {
	repo := &mockAccountRepo{
		AddAccountFunc: func(ctx context.Context, acc models.Account) (*models.Account, error) {
			t.Fatal("AddAccount must not be called for invalid input")
			return nil, nil
		},
	}
	svc := newTestAuthService(repo)

	_, err := svc.Register(context.Background(), RegisterInput{Name: "A", Email: "not-an-email", Password: "123"})
	require.ErrorIs(t, err, ErrInvalidInput)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "name")
	assert.Contains(t, verr.Fields, "email")
	assert.Contains(t, verr.Fields, "password")
	assert.Equal(t, "must be at least 6 characters", verr.Fields["password"])
}

func TestRegister_EmailTaken(t *testing.T) {
	repo := &mockAccountRepo{
		AddAccountFunc: func(ctx context.Context, acc models.Account) (*models.Account, error) {
			return nil, models.ErrEmailTaken
		},
	}
	_, err := newTestAuthService(repo).Register(context.Background(), RegisterInput{Name: "Ada", Email: "ada@example.com", Password: "secret1"})
	assert.ErrorIs(t, err, models.ErrEmailTaken)
}

func TestLogin(t *testing.T) {
	acc := &models.Account{
		User:         models.User{ID: "user-1", Email: "ada@example.com", Plan: models.PlanPro},
		PasswordHash: hashed(t, "secret1"),
	}

	tests := []struct {
		name     string
		email    string
		password string
		findErr  error
		wantErr  error
		wantSet  bool
	}{
		{name: "success", email: "ada@example.com", password: "secret1", wantSet: true},
		{name: "wrong password", email: "ada@example.com", password: "nope", wantErr: models.ErrInvalidCredentials},
		{name: "unknown email", email: "bob@example.com", password: "secret1", findErr: fmt.Errorf("account: %w", models.ErrNotFound), wantErr: models.ErrInvalidCredentials},
		{name: "store failure", email: "ada@example.com", password: "secret1", findErr: errors.New("disk"), wantErr: errors.New("disk")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set := false
			repo := &mockAccountRepo{
				FindAccountByEmailFunc: func(ctx context.Context, email string) (*models.Account, error) {
					if tt.findErr != nil {
						return nil, tt.findErr
					}
					return acc, nil
				},
				SetActiveUserFunc: func(ctx context.Context, u models.User) error {
					set = true
					assert.Equal(t, "user-1", u.ID)
					return nil
				},
			}
			u, err := newTestAuthService(repo).Login(context.Background(), tt.email, tt.password)
			if tt.wantErr != nil {
				require.Error(t, err)
				if errors.Is(tt.wantErr, models.ErrInvalidCredentials) {
					assert.ErrorIs(t, err, models.ErrInvalidCredentials)
				} else {
					assert.EqualError(t, err, tt.wantErr.Error())
				}
				assert.False(t, set)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, models.PlanPro, u.Plan)
			assert.Equal(t, tt.wantSet, set)
		})
	}
}

func TestLogoutAndCurrent(t *testing.T) {
	cleared := false
	repo := &mockAccountRepo{
		ClearActiveUserFunc: func(ctx context.Context) error {
			cleared = true
			return nil
		},
		ActiveUserFunc: func(ctx context.Context) (*models.User, error) {
			return nil, models.ErrNotLoggedIn
		},
	}
	svc := newTestAuthService(repo)

	require.NoError(t, svc.Logout(context.Background()))
	assert.True(t, cleared)

	_, err := svc.Current(context.Background())
	assert.ErrorIs(t, err, models.ErrNotLoggedIn)
}
