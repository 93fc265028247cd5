package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/atinyakov/scrollie/internal/models"
)

// ActiveUserUpdater persists changes to the logged-in user.
type ActiveUserUpdater interface {
	UpdateActiveUser(ctx context.Context, fn func(*models.User) error) (*models.User, error)
}

// PlanService switches the active user between subscription tiers.
// No payment is taken.
type PlanService struct {
	repo   ActiveUserUpdater
	logger *zap.Logger
}

// NewPlanService constructs a PlanService.
func NewPlanService(repo ActiveUserUpdater, logger *zap.Logger) *PlanService {
	return &PlanService{repo: repo, logger: logger}
}

// ChangePlan replaces the plan and its limits. Usage counters are kept, so
// after a downgrade the user may already be at or above the new limits.
func (s *PlanService) ChangePlan(ctx context.Context, plan models.Plan) (*models.User, error) {
	limits, ok := models.LimitsFor(plan)
	if !ok {
		return nil, fmt.Errorf("%w: %q", models.ErrUnknownPlan, plan)
	}
	u, err := s.repo.UpdateActiveUser(ctx, func(u *models.User) error {
		u.Plan = plan
		u.Limits = limits
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("plan changed", zap.String("user_id", u.ID), zap.String("plan", string(plan)))
	return u, nil
}
