package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/atinyakov/scrollie/internal/models"
)

type mockUserUpdater struct {
	UpdateActiveUserFunc func(ctx context.Context, fn func(*models.User) error) (*models.User, error)
}

func (m *mockUserUpdater) UpdateActiveUser(ctx context.Context, fn func(*models.User) error) (*models.User, error) {
	return m.UpdateActiveUserFunc(ctx, fn)
}

// applyTo returns an updater that runs fn against a copy of u.
func applyTo(u models.User) *mockUserUpdater {
	return &mockUserUpdater{
		UpdateActiveUserFunc: func(ctx context.Context, fn func(*models.User) error) (*models.User, error) {
			if err := fn(&u); err != nil {
				return nil, err
			}
			return &u, nil
		},
	}
}

func TestChangePlan_KeepsUsage(t *testing.T) {
	start := models.User{ID: "user-1", Plan: models.PlanFree, Usage: models.Usage{Slideshows: 4, Carousels: 9}, Limits: models.Limits{Slideshows: 5, Carousels: 10}}
	svc := NewPlanService(applyTo(start), zap.NewNop())

	u, err := svc.ChangePlan(context.Background(), models.PlanPremium)
	require.NoError(t, err)
	assert.Equal(t, models.PlanPremium, u.Plan)
	assert.Equal(t, models.Limits{Slideshows: 999, Carousels: 999}, u.Limits)
	assert.Equal(t, start.Usage, u.Usage)
}

func TestChangePlan_Downgrade(t *testing.T) {
	start := models.User{ID: "user-1", Plan: models.PlanPro, Usage: models.Usage{Slideshows: 12}, Limits: models.Limits{Slideshows: 20, Carousels: 30}}
	u, err := NewPlanService(applyTo(start), zap.NewNop()).ChangePlan(context.Background(), models.PlanFree)
	require.NoError(t, err)
	assert.False(t, u.CanCreate(models.Slideshow))
	assert.True(t, u.CanCreate(models.Carousel))
}

func TestChangePlan_Unknown(t *testing.T) {
	repo := &mockUserUpdater{
		UpdateActiveUserFunc: func(ctx context.Context, fn func(*models.User) error) (*models.User, error) {
			t.Fatal("store must not be touched for an unknown plan")
			return nil, nil
		},
	}
	_, err := NewPlanService(repo, zap.NewNop()).ChangePlan(context.Background(), "enterprise")
	assert.ErrorIs(t, err, models.ErrUnknownPlan)
}

func TestChangePlan_NotLoggedIn(t *testing.T) {
	repo := &mockUserUpdater{
		UpdateActiveUserFunc: func(ctx context.Context, fn func(*models.User) error) (*models.User, error) {
			return nil, models.ErrNotLoggedIn
		},
	}
	_, err := NewPlanService(repo, zap.NewNop()).ChangePlan(context.Background(), models.PlanPro)
	assert.ErrorIs(t, err, models.ErrNotLoggedIn)
}
