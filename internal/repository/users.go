package repository

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/atinyakov/scrollie/internal/kv"
	"github.com/atinyakov/scrollie/internal/models"
)

type activeState struct {
	user    models.User
	version int64
}

type accountsState struct {
	list    []models.Account
	version int64
}

func (r *Repository) loadActive(ctx context.Context) (activeState, error) {
	var s activeState
	v, err := r.load(ctx, KeyActiveUser, &s.user)
	if err != nil {
		return activeState{}, err
	}
	if v == 0 {
		return activeState{}, models.ErrNotLoggedIn
	}
	s.version = v
	return s, nil
}

func (r *Repository) loadAccounts(ctx context.Context) (accountsState, error) {
	var s accountsState
	v, err := r.load(ctx, KeyRegisteredUsers, &s.list)
	if err != nil {
		return accountsState{}, err
	}
	s.version = v
	return s, nil
}

// userWrites stores user as the active user and mirrors its plan, usage and
// limits into the matching registration record, if there is one.
func (r *Repository) userWrites(active activeState, accounts accountsState, user models.User) ([]kv.Write, error) {
	uw, err := encode(KeyActiveUser, active.version, user)
	if err != nil {
		return nil, err
	}
	writes := []kv.Write{uw}

	i := slices.IndexFunc(accounts.list, func(a models.Account) bool { return a.ID == user.ID })
	if i < 0 {
		return writes, nil
	}
	list := slices.Clone(accounts.list)
	list[i].Plan = user.Plan
	list[i].Usage = user.Usage
	list[i].Limits = user.Limits
	aw, err := encode(KeyRegisteredUsers, accounts.version, list)
	if err != nil {
		return nil, err
	}
	return append(writes, aw), nil
}

// ActiveUser returns the logged-in user or models.ErrNotLoggedIn.
func (r *Repository) ActiveUser(ctx context.Context) (*models.User, error) {
	s, err := r.loadActive(ctx)
	if err != nil {
		return nil, err
	}
	return &s.user, nil
}

// SetActiveUser makes u the logged-in user, replacing any previous one.
func (r *Repository) SetActiveUser(ctx context.Context, u models.User) error {
	return r.withRetry(ctx, func() error {
		e, err := r.store.Get(ctx, KeyActiveUser)
		if err != nil {
			return fmt.Errorf("read %s: %w", KeyActiveUser, err)
		}
		w, err := encode(KeyActiveUser, e.Version, u)
		if err != nil {
			return err
		}
		return r.store.Apply(ctx, w)
	})
}

// ClearActiveUser logs the current user out. Logging out twice is not an error.
func (r *Repository) ClearActiveUser(ctx context.Context) error {
	return r.withRetry(ctx, func() error {
		e, err := r.store.Get(ctx, KeyActiveUser)
		if err != nil {
			return fmt.Errorf("read %s: %w", KeyActiveUser, err)
		}
		if !e.Exists() {
			return nil
		}
		return r.store.Apply(ctx, kv.Write{Key: KeyActiveUser, Version: e.Version})
	})
}

// UpdateActiveUser applies fn to the active user and saves the result both as
// the active user and in its registration record. The id cannot be changed.
func (r *Repository) UpdateActiveUser(ctx context.Context, fn func(*models.User) error) (*models.User, error) {
	var updated models.User
	err := r.withRetry(ctx, func() error {
		active, err := r.loadActive(ctx)
		if err != nil {
			return err
		}
		accounts, err := r.loadAccounts(ctx)
		if err != nil {
			return err
		}
		updated = active.user
		if err := fn(&updated); err != nil {
			return err
		}
		updated.ID = active.user.ID
		writes, err := r.userWrites(active, accounts, updated)
		if err != nil {
			return err
		}
		return r.store.Apply(ctx, writes...)
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// AddAccount appends a registration record. Emails are unique ignoring case.
func (r *Repository) AddAccount(ctx context.Context, acc models.Account) (*models.Account, error) {
	var added models.Account
	err := r.withRetry(ctx, func() error {
		accounts, err := r.loadAccounts(ctx)
		if err != nil {
			return err
		}
		added = acc
		if added.ID == "" {
			added.ID = NewUserID()
		}
		for _, a := range accounts.list {
			if strings.EqualFold(a.Email, added.Email) {
				return models.ErrEmailTaken
			}
		}
		for slices.ContainsFunc(accounts.list, func(a models.Account) bool { return a.ID == added.ID }) {
			added.ID = NewUserID()
		}
		list := append(slices.Clip(accounts.list), added)
		w, err := encode(KeyRegisteredUsers, accounts.version, list)
		if err != nil {
			return err
		}
		return r.store.Apply(ctx, w)
	})
	if err != nil {
		return nil, err
	}
	return &added, nil
}

// FindAccountByEmail looks a registration record up ignoring case.
func (r *Repository) FindAccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	accounts, err := r.loadAccounts(ctx)
	if err != nil {
		return nil, err
	}
	for _, a := range accounts.list {
		if strings.EqualFold(a.Email, email) {
			return &a, nil
		}
	}
	return nil, fmt.Errorf("account %s: %w", email, models.ErrNotFound)
}
