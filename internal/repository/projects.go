package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/atinyakov/scrollie/internal/kv"
	"github.com/atinyakov/scrollie/internal/models"
)

// projectList is the stored collection with its elements kept as raw JSON,
// so elements that an operation does not touch are written back unchanged.
type projectList struct {
	raw     []json.RawMessage
	version int64
}

func (r *Repository) loadProjects(ctx context.Context) (projectList, error) {
	var l projectList
	v, err := r.load(ctx, KeyProjects, &l.raw)
	if err != nil {
		return projectList{}, err
	}
	l.version = v
	return l, nil
}

func (l projectList) write() (kv.Write, error) {
	raw := l.raw
	if raw == nil {
		raw = []json.RawMessage{}
	}
	return encode(KeyProjects, l.version, raw)
}

// indexOf returns the position of the project with the given id, or -1.
func (l projectList) indexOf(id string) (int, error) {
	for i, raw := range l.raw {
		var head struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(raw, &head); err != nil {
			return -1, fmt.Errorf("decode project %d: %w", i, err)
		}
		if head.ID == id {
			return i, nil
		}
	}
	return -1, nil
}

func (l projectList) decode(i int) (models.Project, error) {
	var p models.Project
	if err := json.Unmarshal(l.raw[i], &p); err != nil {
		return models.Project{}, fmt.Errorf("decode project %d: %w", i, err)
	}
	return p, nil
}

// ListProjects returns every stored project in storage order.
func (r *Repository) ListProjects(ctx context.Context) ([]models.Project, error) {
	l, err := r.loadProjects(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.Project, 0, len(l.raw))
	for i := range l.raw {
		p, err := l.decode(i)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// GetProject returns the project with the given id or models.ErrNotFound.
func (r *Repository) GetProject(ctx context.Context, id string) (*models.Project, error) {
	l, err := r.loadProjects(ctx)
	if err != nil {
		return nil, err
	}
	i, err := l.indexOf(id)
	if err != nil {
		return nil, err
	}
	if i < 0 {
		return nil, fmt.Errorf("project %s: %w", id, models.ErrNotFound)
	}
	p, err := l.decode(i)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// prepareNew assigns a collision-free id and fresh timestamps to p.
func (r *Repository) prepareNew(l projectList, p *models.Project) error {
	if p.ID == "" {
		p.ID = NewProjectID()
	}
	for {
		i, err := l.indexOf(p.ID)
		if err != nil {
			return err
		}
		if i < 0 {
			break
		}
		p.ID = NewProjectID()
	}
	now := r.now()
	p.CreatedAt = now
	p.UpdatedAt = now
	return nil
}

func appendProject(l projectList, p models.Project) (projectList, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return projectList{}, fmt.Errorf("encode project: %w", err)
	}
	l.raw = append(slices.Clip(l.raw), b)
	return l, nil
}

// CreateProject appends p to the collection without touching usage counters.
func (r *Repository) CreateProject(ctx context.Context, p models.Project) (*models.Project, error) {
	var created models.Project
	err := r.withRetry(ctx, func() error {
		l, err := r.loadProjects(ctx)
		if err != nil {
			return err
		}
		created = p.Clone()
		if err := r.prepareNew(l, &created); err != nil {
			return err
		}
		if l, err = appendProject(l, created); err != nil {
			return err
		}
		w, err := l.write()
		if err != nil {
			return err
		}
		return r.store.Apply(ctx, w)
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// CreateProjectCounted appends p and increments the active user's usage for
// p.Type in a single atomic write. The usage limit is checked against the
// state being written, so concurrent creators can never exceed it.
func (r *Repository) CreateProjectCounted(ctx context.Context, p models.Project) (*models.Project, *models.User, error) {
	var (
		created models.Project
		user    models.User
	)
	err := r.withRetry(ctx, func() error {
		active, err := r.loadActive(ctx)
		if err != nil {
			return err
		}
		if !active.user.CanCreate(p.Type) {
			return models.NewLimitError(active.user, p.Type)
		}
		accounts, err := r.loadAccounts(ctx)
		if err != nil {
			return err
		}
		l, err := r.loadProjects(ctx)
		if err != nil {
			return err
		}

		created = p.Clone()
		if err := r.prepareNew(l, &created); err != nil {
			return err
		}
		if l, err = appendProject(l, created); err != nil {
			return err
		}

		user = active.user
		user.Usage.Increment(p.Type)

		writes, err := r.userWrites(active, accounts, user)
		if err != nil {
			return err
		}
		pw, err := l.write()
		if err != nil {
			return err
		}
		return r.store.Apply(ctx, append(writes, pw)...)
	})
	if err != nil {
		return nil, nil, err
	}
	return &created, &user, nil
}

// UpdateProject applies fn to a copy of the stored project and saves it with
// a refreshed UpdatedAt. The id and CreatedAt cannot be changed by fn.
func (r *Repository) UpdateProject(ctx context.Context, id string, fn func(*models.Project) error) (*models.Project, error) {
	var updated models.Project
	err := r.withRetry(ctx, func() error {
		l, err := r.loadProjects(ctx)
		if err != nil {
			return err
		}
		i, err := l.indexOf(id)
		if err != nil {
			return err
		}
		if i < 0 {
			return fmt.Errorf("project %s: %w", id, models.ErrNotFound)
		}
		current, err := l.decode(i)
		if err != nil {
			return err
		}

		updated = current.Clone()
		if err := fn(&updated); err != nil {
			return err
		}
		updated.ID = current.ID
		updated.CreatedAt = current.CreatedAt
		updated.UpdatedAt = r.now()
		if updated.UpdatedAt.Before(updated.CreatedAt) {
			updated.UpdatedAt = updated.CreatedAt
		}

		b, err := json.Marshal(updated)
		if err != nil {
			return fmt.Errorf("encode project: %w", err)
		}
		l.raw = slices.Clone(l.raw)
		l.raw[i] = b
		w, err := l.write()
		if err != nil {
			return err
		}
		return r.store.Apply(ctx, w)
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteProject removes the project with the given id. All other elements
// are written back exactly as they were read.
func (r *Repository) DeleteProject(ctx context.Context, id string) error {
	return r.withRetry(ctx, func() error {
		l, err := r.loadProjects(ctx)
		if err != nil {
			return err
		}
		i, err := l.indexOf(id)
		if err != nil {
			return err
		}
		if i < 0 {
			return fmt.Errorf("project %s: %w", id, models.ErrNotFound)
		}
		l.raw = slices.Delete(slices.Clone(l.raw), i, i+1)
		w, err := l.write()
		if err != nil {
			return err
		}
		return r.store.Apply(ctx, w)
	})
}
