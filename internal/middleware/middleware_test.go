package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/atinyakov/scrollie/internal/models"
)

// dummyHandler is a placeholder that records if it was called and the context it received.
type dummyHandler struct {
	called bool
	ctx    context.Context
}

func (d *dummyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	d.called = true
	d.ctx = r.Context()
	w.WriteHeader(http.StatusOK)
}

type lookupFunc func(ctx context.Context) (*models.User, error)

func (f lookupFunc) Current(ctx context.Context) (*models.User, error) { return f(ctx) }

func TestRequireUser_LoggedIn(t *testing.T) {
	dummy := &dummyHandler{}
	h := RequireUser(lookupFunc(func(context.Context) (*models.User, error) {
		return &models.User{ID: "user-1"}, nil
	}), zap.NewNop())(dummy)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/me", nil))

	require.True(t, dummy.called)
	assert.Equal(t, http.StatusOK, rec.Code)
	u, ok := UserFromContext(dummy.ctx)
	require.True(t, ok)
	assert.Equal(t, "user-1", u.ID)
}

func TestRequireUser_NotLoggedIn(t *testing.T) {
	dummy := &dummyHandler{}
	h := RequireUser(lookupFunc(func(context.Context) (*models.User, error) {
		return nil, models.ErrNotLoggedIn
	}), zap.NewNop())(dummy)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/projects", nil))

	assert.False(t, dummy.called)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"not logged in"}`, rec.Body.String())
}

func TestRequireUser_StoreFailure(t *testing.T) {
	dummy := &dummyHandler{}
	h := RequireUser(lookupFunc(func(context.Context) (*models.User, error) {
		return nil, errors.New("redis down")
	}), zap.NewNop())(dummy)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/projects", nil))

	assert.False(t, dummy.called)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestUserFromContext_Empty(t *testing.T) {
	_, ok := UserFromContext(context.Background())
	assert.False(t, ok)
}

func TestWithRequestLogging(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	h := WithRequestLogging(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/logout", nil))

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "POST", fields["method"])
	assert.Equal(t, "/api/logout", fields["path"])
	assert.EqualValues(t, http.StatusTeapot, fields["status"])
	assert.EqualValues(t, len("short and stout"), fields["bytes"])
}

func TestWithRequestLogging_DefaultStatus(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	h := WithRequestLogging(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, 1, logs.Len())
	assert.EqualValues(t, http.StatusOK, logs.All()[0].ContextMap()["status"])
}
