package service

import (
	"cmp"
	"context"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/atinyakov/scrollie/internal/models"
)

// ProjectRepository defines the persistence operations on projects.
type ProjectRepository interface {
	ListProjects(ctx context.Context) ([]models.Project, error)
	GetProject(ctx context.Context, id string) (*models.Project, error)
	UpdateProject(ctx context.Context, id string, fn func(*models.Project) error) (*models.Project, error)
	DeleteProject(ctx context.Context, id string) error
}

// ListFilter narrows ProjectService.List.
type ListFilter struct {
	// Type keeps only projects of this type when set.
	Type models.ProjectType
	// Query keeps projects whose title contains it, ignoring case.
	Query string
	// Limit caps the result when positive.
	Limit int
}

// ProjectPatch is a partial update. Nil fields are left unchanged. When
// Images or Slides is set, it replaces the whole content list.
type ProjectPatch struct {
	Title       *string                `json:"title" validate:"omitnil,min=2"`
	Description *string                `json:"description" validate:"omitnil,min=10"`
	Template    *string                `json:"template" validate:"omitnil,min=1"`
	Images      []models.CarouselImage `json:"images" validate:"omitempty,dive"`
	Slides      []models.Slide         `json:"slides" validate:"omitempty,dive"`
}

// ProjectService reads and edits stored projects.
type ProjectService struct {
	repo     ProjectRepository
	validate *validator.Validate
	logger   *zap.Logger
}

// NewProjectService constructs a ProjectService.
func NewProjectService(repo ProjectRepository, logger *zap.Logger) *ProjectService {
	return &ProjectService{repo: repo, validate: newValidator(), logger: logger}
}

// List returns the matching projects, most recently updated first.
func (s *ProjectService) List(ctx context.Context, f ListFilter) ([]models.Project, error) {
	all, err := s.repo.ListProjects(ctx)
	if err != nil {
		return nil, err
	}
	query := strings.ToLower(strings.TrimSpace(f.Query))
	out := make([]models.Project, 0, len(all))
	for _, p := range all {
		if f.Type != "" && p.Type != f.Type {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(p.Title), query) {
			continue
		}
		out = append(out, p)
	}
	slices.SortStableFunc(out, func(a, b models.Project) int {
		return cmp.Compare(b.UpdatedAt.UnixNano(), a.UpdatedAt.UnixNano())
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

// Get returns one project.
func (s *ProjectService) Get(ctx context.Context, id string) (*models.Project, error) {
	return s.repo.GetProject(ctx, id)
}

// Delete removes one project. Usage counters are not decremented.
func (s *ProjectService) Delete(ctx context.Context, id string) error {
	if err := s.repo.DeleteProject(ctx, id); err != nil {
		return err
	}
	s.logger.Info("project deleted", zap.String("project_id", id))
	return nil
}

// Update applies patch to the project.
func (s *ProjectService) Update(ctx context.Context, id string, patch ProjectPatch) (*models.Project, error) {
	if err := check(s.validate, patch); err != nil {
		return nil, err
	}
	return s.repo.UpdateProject(ctx, id, func(p *models.Project) error {
		if patch.Title != nil {
			p.Title = strings.TrimSpace(*patch.Title)
		}
		if patch.Description != nil {
			p.Description = strings.TrimSpace(*patch.Description)
		}
		if patch.Template != nil {
			if !p.Type.HasTemplate(*patch.Template) {
				return fieldError("template", "must be one of "+strings.Join(p.Type.Templates(), " "))
			}
			p.Template = *patch.Template
		}
		if patch.Images != nil || patch.Slides != nil {
			return p.ReplaceContent(patch.Images, patch.Slides)
		}
		return nil
	})
}

// AddItem appends a placeholder image or slide.
func (s *ProjectService) AddItem(ctx context.Context, id string) (*models.Project, error) {
	return s.repo.UpdateProject(ctx, id, func(p *models.Project) error {
		p.AddItem()
		return nil
	})
}

// UpdateItem replaces the item at index.
func (s *ProjectService) UpdateItem(ctx context.Context, id string, index int, item models.ContentItem) (*models.Project, error) {
	return s.repo.UpdateProject(ctx, id, func(p *models.Project) error {
		return p.SetItem(index, item)
	})
}

// RemoveItem deletes the item at index.
func (s *ProjectService) RemoveItem(ctx context.Context, id string, index int) (*models.Project, error) {
	return s.repo.UpdateProject(ctx, id, func(p *models.Project) error {
		return p.RemoveItem(index)
	})
}

// MoveItem swaps the item at index with its neighbour in direction d.
func (s *ProjectService) MoveItem(ctx context.Context, id string, index int, d models.Direction) (*models.Project, error) {
	if d != models.Up && d != models.Down {
		return nil, fieldError("direction", "must be one of up down")
	}
	return s.repo.UpdateProject(ctx, id, func(p *models.Project) error {
		return p.MoveItem(index, d)
	})
}

// AddBullet appends a placeholder bullet to a slide.
func (s *ProjectService) AddBullet(ctx context.Context, id string, index int) (*models.Project, error) {
	return s.repo.UpdateProject(ctx, id, func(p *models.Project) error {
		return p.AddBullet(index)
	})
}

// UpdateBullet replaces one bullet of a slide.
func (s *ProjectService) UpdateBullet(ctx context.Context, id string, index, bullet int, text string) (*models.Project, error) {
	return s.repo.UpdateProject(ctx, id, func(p *models.Project) error {
		return p.SetBullet(index, bullet, text)
	})
}

// RemoveBullet deletes one bullet of a slide, keeping at least one.
func (s *ProjectService) RemoveBullet(ctx context.Context, id string, index, bullet int) (*models.Project, error) {
	return s.repo.UpdateProject(ctx, id, func(p *models.Project) error {
		return p.RemoveBullet(index, bullet)
	})
}
