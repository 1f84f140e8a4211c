package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cristianortiz/eventauction/internal/user/domain"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryUsers map[uuid.UUID]*domain.User

func (m memoryUsers) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	if u, ok := m[id]; ok {
		return u, nil
	}
	return nil, domain.ErrUserNotFound
}

func (m memoryUsers) Exists(_ context.Context, id uuid.UUID) (bool, error) {
	_, ok := m[id]
	return ok, nil
}

func (m memoryUsers) Register(_ context.Context, id uuid.UUID) (*domain.User, error) {
	if u, ok := m[id]; ok {
		return u, nil
	}
	u := &domain.User{ID: id, CreatedAt: time.Now()}
	m[id] = u
	return u, nil
}

func TestRegisterAndGet(t *testing.T) {
	users := memoryUsers{}
	app := fiber.New()
	NewUserHandler(users).RegisterRoutes(app)

	req := httptest.NewRequest(http.MethodPost, "/api/users", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created userResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	resp.Body.Close()
	assert.NotEqual(t, uuid.Nil, created.ID)
	assert.Len(t, users, 1)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/users/"+created.ID.String(), nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/users/"+uuid.NewString(), nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}
