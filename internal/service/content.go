package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/atinyakov/scrollie/internal/generator"
	"github.com/atinyakov/scrollie/internal/models"
)

// ProjectCreator persists generated projects against the active user's quota.
type ProjectCreator interface {
	ActiveUser(ctx context.Context) (*models.User, error)
	CreateProjectCounted(ctx context.Context, p models.Project) (*models.Project, *models.User, error)
}

// Generator produces content for a brief.
type Generator interface {
	Generate(ctx context.Context, req generator.Request) (*generator.Result, error)
}

// CreateInput holds the fields of a creation request.
type CreateInput struct {
	Title       string             `json:"title" validate:"required,min=2"`
	Description string             `json:"description" validate:"required,min=10"`
	Template    string             `json:"template" validate:"required"`
	Count       int                `json:"count" validate:"min=1,max=25"`
	Type        models.ProjectType `json:"type" validate:"oneof=slideshow carousel"`
}

// Generation reports how the content of a new project was obtained.
type Generation struct {
	// Outcome is generated, malformed, provider_error or timeout.
	Outcome generator.Outcome `json:"status"`
	// Reason describes why placeholder content was used.
	Reason string `json:"reason,omitempty"`
}

// Created is the result of ContentService.Create.
type Created struct {
	Project    *models.Project `json:"project"`
	User       *models.User    `json:"user"`
	Generation Generation      `json:"generation"`
}

// ContentService creates new projects: it checks the usage limit, generates
// the content and stores the project while counting it.
type ContentService struct {
	repo     ProjectCreator
	gen      Generator
	validate *validator.Validate
	logger   *zap.Logger
}

// NewContentService constructs a ContentService.
func NewContentService(repo ProjectCreator, gen Generator, logger *zap.Logger) *ContentService {
	return &ContentService{repo: repo, gen: gen, validate: newValidator(), logger: logger}
}

// Create validates in, rejects it if the active user has reached the limit
// for in.Type, generates the content and persists the project. A rejected
// request performs no generation and no writes.
func (s *ContentService) Create(ctx context.Context, in CreateInput) (*Created, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	if err := check(s.validate, in); err != nil {
		return nil, err
	}
	if !in.Type.HasTemplate(in.Template) {
		return nil, fieldError("template", "must be one of "+strings.Join(in.Type.Templates(), " "))
	}

	user, err := s.repo.ActiveUser(ctx)
	if err != nil {
		return nil, err
	}
	if !user.CanCreate(in.Type) {
		return nil, models.NewLimitError(*user, in.Type)
	}

	res, err := s.gen.Generate(ctx, generator.Request{
		Title:       in.Title,
		Description: in.Description,
		Template:    in.Template,
		Count:       in.Count,
		Type:        in.Type,
	})
	if err != nil {
		return nil, err
	}

	p, u, err := s.repo.CreateProjectCounted(ctx, models.Project{
		Title:       in.Title,
		Description: in.Description,
		Template:    in.Template,
		Type:        in.Type,
		Images:      res.Images,
		Slides:      res.Slides,
	})
	if err != nil {
		if !errors.Is(err, models.ErrLimitReached) {
			s.logger.Error("failed to store project", zap.String("type", string(in.Type)), zap.Error(err))
		}
		return nil, err
	}

	gen := Generation{Outcome: res.Outcome}
	if res.Err != nil {
		gen.Reason = res.Err.Error()
	}
	s.logger.Info("project created",
		zap.String("project_id", p.ID),
		zap.String("type", string(p.Type)),
		zap.Int("items", p.Len()),
		zap.String("generation", string(res.Outcome)),
	)
	return &Created{Project: p, User: u, Generation: gen}, nil
}
