// Package models defines the core data structures for users, plans and projects.
package models

import (
	"slices"
	"time"
)

// Plan identifies a subscription tier.
type Plan string

const (
	// PlanFree is assigned to every newly registered user.
	PlanFree Plan = "free"
	// PlanPro is the middle tier.
	PlanPro Plan = "pro"
	// PlanPremium is presented as unlimited; its stored limits are a large sentinel.
	PlanPremium Plan = "premium"
)

// UnlimitedSentinel is the ceiling stored for premium plans.
const UnlimitedSentinel = 999

var planLimits = map[Plan]Limits{
	PlanFree:    {Slideshows: 5, Carousels: 10},
	PlanPro:     {Slideshows: 20, Carousels: 30},
	PlanPremium: {Slideshows: UnlimitedSentinel, Carousels: UnlimitedSentinel},
}

// LimitsFor returns the ceilings of the given plan.
// The second value is false for an unknown plan.
func LimitsFor(p Plan) (Limits, bool) {
	l, ok := planLimits[p]
	return l, ok
}

// ProjectType discriminates the shape of a project's content list.
type ProjectType string

const (
	// Slideshow projects carry Slides.
	Slideshow ProjectType = "slideshow"
	// Carousel projects carry Images.
	Carousel ProjectType = "carousel"
)

// Valid reports whether t is a known project type.
func (t ProjectType) Valid() bool {
	return t == Slideshow || t == Carousel
}

var templates = map[ProjectType][]string{
	Carousel:  {"minimal", "bold", "colorful", "elegant", "modern"},
	Slideshow: {"minimal", "corporate", "creative", "professional", "modern"},
}

// Templates lists the visual templates offered for t.
func (t ProjectType) Templates() []string {
	return slices.Clone(templates[t])
}

// HasTemplate reports whether name is one of the templates offered for t.
func (t ProjectType) HasTemplate(name string) bool {
	return slices.Contains(templates[t], name)
}

// Usage counts the projects a user has created per type.
type Usage struct {
	Slideshows int `json:"slideshows"`
	Carousels  int `json:"carousels"`
}

// For returns the counter for the given project type.
func (u Usage) For(t ProjectType) int {
	if t == Slideshow {
		return u.Slideshows
	}
	return u.Carousels
}

// Increment bumps the counter for the given project type by one.
func (u *Usage) Increment(t ProjectType) {
	if t == Slideshow {
		u.Slideshows++
		return
	}
	u.Carousels++
}

// Limits holds per-type ceilings.
type Limits struct {
	Slideshows int `json:"slideshows"`
	Carousels  int `json:"carousels"`
}

// For returns the ceiling for the given project type.
func (l Limits) For(t ProjectType) int {
	if t == Slideshow {
		return l.Slideshows
	}
	return l.Carousels
}

// User is the active profile as seen by the rest of the application.
type User struct {
	// ID is the opaque identifier of the user.
	ID string `json:"id"`
	// Name is the display name.
	Name string `json:"name"`
	// Email is the login address.
	Email string `json:"email"`
	// Plan is the current subscription tier.
	Plan Plan `json:"plan"`
	// Usage counts created projects per type.
	Usage Usage `json:"usage"`
	// Limits holds the plan ceilings.
	Limits Limits `json:"limits"`
}

// CanCreate reports whether the user is still below the limit for t.
func (u User) CanCreate(t ProjectType) bool {
	return u.Usage.For(t) < u.Limits.For(t)
}

// Account is a registration record: the user plus its credentials.
type Account struct {
	User
	// PasswordHash is the bcrypt hash of the user's password.
	PasswordHash []byte `json:"passwordHash"`
}

// CarouselImage is one image description of a carousel.
type CarouselImage struct {
	Title   string `json:"title" validate:"required"`
	Caption string `json:"caption" validate:"required"`
}

// Slide is one slide of a slideshow.
type Slide struct {
	Title   string   `json:"title" validate:"required"`
	Content []string `json:"content" validate:"min=1,dive,required"`
}

// Project is a generated slideshow or carousel.
type Project struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Template    string          `json:"template"`
	Type        ProjectType     `json:"type"`
	Images      []CarouselImage `json:"images,omitempty"`
	Slides      []Slide         `json:"slides,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}
