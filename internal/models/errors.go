package models

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrNotLoggedIn        = errors.New("not logged in")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUnknownPlan        = errors.New("unknown plan")
	ErrLimitReached       = errors.New("usage limit reached")
	ErrIndexOutOfRange    = errors.New("index out of range")
	ErrLastBullet         = errors.New("a slide needs at least one bullet")
	ErrWrongProjectType   = errors.New("operation not supported for this project type")
	ErrEmptyContent       = errors.New("project content cannot be empty")
)

// LimitError describes a rejected creation. It matches ErrLimitReached.
type LimitError struct {
	Plan   Plan
	Type   ProjectType
	Usage  Usage
	Limits Limits
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("%s plan limit for %ss reached (%d/%d)",
		e.Plan, e.Type, e.Usage.For(e.Type), e.Limits.For(e.Type))
}

func (e *LimitError) Unwrap() error { return ErrLimitReached }

// NewLimitError builds the rejection for user u creating a project of type t.
func NewLimitError(u User, t ProjectType) *LimitError {
	return &LimitError{Plan: u.Plan, Type: t, Usage: u.Usage, Limits: u.Limits}
}
