package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/pet-adoption/internal/api/http/handlers"
	"github.com/spec-kit/pet-adoption/internal/auth"
	"github.com/spec-kit/pet-adoption/internal/config"
	"github.com/spec-kit/pet-adoption/internal/events"
	"github.com/spec-kit/pet-adoption/internal/observability"
	"github.com/spec-kit/pet-adoption/internal/repository/memory"
	"github.com/spec-kit/pet-adoption/internal/service"
	"github.com/spec-kit/pet-adoption/internal/storage"
)

type testServer struct {
	app        *fiber.App
	adminToken string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store := memory.NewStore()
	dispatcher := events.NewInMemoryDispatcher(nil)
	metrics := observability.NewMetrics()

	cfg := config.Config{Auth: config.AuthConfig{JWTSecret: "router-secret", AccessTokenTTLMinutes: 60, BcryptCost: 4}}
	authSvc, err := service.NewAuthService(cfg, store)
	require.NoError(t, err)
	_, err = authSvc.EnsureAdmin(context.Background(), "Admin", "admin@example.com", "adminpass1")
	require.NoError(t, err)

	uploads := filepath.Join(t.TempDir(), "uploads")
	images, err := storage.NewLocalImageStore(uploads, "/uploads")
	require.NoError(t, err)

	app := NewApp(AppOptions{Name: "test", Metrics: metrics, CORSAllowOrigins: "https://shelter.example"}, RouteConfig{
		Health:         handlers.NewHealthHandler("test", "dev", nil, nil, metrics),
		Auth:           handlers.NewAuthHandler(authSvc),
		Pets:           handlers.NewPetsHandler(service.NewPetService(service.PetDependencies{Store: store, Images: images, Dispatcher: dispatcher, MaxImageBytes: 1 << 20})),
		Adoptions:      handlers.NewAdoptionsHandler(service.NewAdoptionService(store, dispatcher)),
		AuthMiddleware: auth.NewAuthMiddleware(authSvc.TokenManager()),
		UploadsPrefix:  images.Prefix(),
		UploadsDir:     images.Dir(),
	})

	srv := &testServer{app: app}
	var login struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	srv.doJSON(t, http.MethodPost, "/auth/login", "", map[string]any{"email": "admin@example.com", "password": "adminpass1"}, http.StatusOK, &login)
	srv.adminToken = login.Data.Token
	return srv
}

func (s *testServer) do(t *testing.T, req *http.Request, token string) (int, []byte) {
	t.Helper()
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, body
}

func (s *testServer) doJSON(t *testing.T, method, path, token string, payload any, wantStatus int, out any) []byte {
	t.Helper()
	var reader io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if payload != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	status, body := s.do(t, req, token)
	require.Equal(t, wantStatus, status, "%s %s: %s", method, path, body)
	if out != nil {
		require.NoError(t, json.Unmarshal(body, out))
	}
	return body
}

func (s *testServer) register(t *testing.T, email string) string {
	t.Helper()
	var out struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	s.doJSON(t, http.MethodPost, "/auth/register", "", map[string]any{"name": "Person", "email": email, "password": "password123"}, http.StatusCreated, &out)
	return out.Data.Token
}

func (s *testServer) createPet(t *testing.T, name string) string {
	t.Helper()
	var out struct {
		Data struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		} `json:"data"`
	}
	s.doJSON(t, http.MethodPost, "/pets", s.adminToken, map[string]any{"name": name, "species": "Dog", "breed": "Beagle", "age": 3}, http.StatusCreated, &out)
	require.Equal(t, "AVAILABLE", out.Data.Status)
	return out.Data.ID
}

type errorBody struct {
	Error struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func (s *testServer) expectError(t *testing.T, method, path, token string, payload any, status int, code string) {
	t.Helper()
	var out errorBody
	s.doJSON(t, method, path, token, payload, status, &out)
	assert.Equal(t, code, out.Error.Code)
}

func TestRouter_AdoptionLifecycle(t *testing.T) {
	srv := newTestServer(t)
	petID := srv.createPet(t, "Rex")
	alice := srv.register(t, "alice@example.com")
	bob := srv.register(t, "bob@example.com")

	var applied struct {
		Data struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		} `json:"data"`
	}
	srv.doJSON(t, http.MethodPost, "/adoptions/"+petID, alice, nil, http.StatusOK, &applied)
	assert.Equal(t, "PENDING", applied.Data.Status)

	var pet struct {
		Data struct {
			Status string `json:"status"`
		} `json:"data"`
	}
	srv.doJSON(t, http.MethodGet, "/pets/"+petID, "", nil, http.StatusOK, &pet)
	assert.Equal(t, "PENDING", pet.Data.Status)

	srv.expectError(t, http.MethodPost, "/adoptions/"+petID, alice, nil, http.StatusConflict, "CONFLICT")
	srv.expectError(t, http.MethodPost, "/adoptions/"+petID, bob, nil, http.StatusConflict, "INVALID_STATE")
	srv.expectError(t, http.MethodDelete, "/pets/"+petID, srv.adminToken, nil, http.StatusConflict, "CONFLICT")

	srv.expectError(t, http.MethodPut, "/adoptions/"+applied.Data.ID, alice, map[string]any{"status": "APPROVED"}, http.StatusForbidden, "FORBIDDEN")
	srv.doJSON(t, http.MethodPut, "/adoptions/"+applied.Data.ID, srv.adminToken, map[string]any{"status": "approved"}, http.StatusOK, nil)
	srv.expectError(t, http.MethodPut, "/adoptions/"+applied.Data.ID, srv.adminToken, map[string]any{"status": "REJECTED"}, http.StatusConflict, "CONFLICT")

	srv.doJSON(t, http.MethodGet, "/pets/"+petID, "", nil, http.StatusOK, &pet)
	assert.Equal(t, "ADOPTED", pet.Data.Status)

	var mine struct {
		Data []struct {
			Status string `json:"status"`
			Pet    *struct {
				Name string `json:"name"`
			} `json:"pet"`
		} `json:"data"`
	}
	srv.doJSON(t, http.MethodGet, "/adoptions/me", alice, nil, http.StatusOK, &mine)
	require.Len(t, mine.Data, 1)
	assert.Equal(t, "APPROVED", mine.Data[0].Status)
	require.NotNil(t, mine.Data[0].Pet)
	assert.Equal(t, "Rex", mine.Data[0].Pet.Name)

	srv.expectError(t, http.MethodGet, "/adoptions", alice, nil, http.StatusForbidden, "FORBIDDEN")
	var all struct {
		Data []struct {
			User struct {
				Email string `json:"email"`
			} `json:"user"`
		} `json:"data"`
	}
	srv.doJSON(t, http.MethodGet, "/adoptions", srv.adminToken, nil, http.StatusOK, &all)
	require.Len(t, all.Data, 1)
	assert.Equal(t, "alice@example.com", all.Data[0].User.Email)
}

func TestRouter_AccessControl(t *testing.T) {
	srv := newTestServer(t)
	user := srv.register(t, "user@example.com")
	petID := srv.createPet(t, "Rex")

	srv.expectError(t, http.MethodPost, "/pets", "", map[string]any{"name": "X", "species": "Cat"}, http.StatusUnauthorized, "UNAUTHORIZED")
	srv.expectError(t, http.MethodPost, "/pets", user, map[string]any{"name": "X", "species": "Cat"}, http.StatusForbidden, "FORBIDDEN")
	srv.expectError(t, http.MethodPost, "/pets", "not-a-token", map[string]any{"name": "X", "species": "Cat"}, http.StatusUnauthorized, "UNAUTHORIZED")
	srv.expectError(t, http.MethodPost, "/adoptions/"+petID, srv.adminToken, nil, http.StatusForbidden, "FORBIDDEN")
	srv.expectError(t, http.MethodGet, "/adoptions/me", "", nil, http.StatusUnauthorized, "UNAUTHORIZED")

	srv.doJSON(t, http.MethodGet, "/adoptions/me", srv.adminToken, nil, http.StatusOK, nil)
}

func TestRouter_NonAdminCannotDeletePet(t *testing.T) {
	srv := newTestServer(t)
	user := srv.register(t, "user@example.com")
	petID := srv.createPet(t, "Rex")

	var before, after struct {
		Data map[string]any `json:"data"`
	}
	srv.doJSON(t, http.MethodGet, "/pets/"+petID, "", nil, http.StatusOK, &before)

	srv.expectError(t, http.MethodDelete, "/pets/"+petID, user, nil, http.StatusForbidden, "FORBIDDEN")
	srv.expectError(t, http.MethodDelete, "/pets/"+petID, "", nil, http.StatusUnauthorized, "UNAUTHORIZED")

	srv.doJSON(t, http.MethodGet, "/pets/"+petID, "", nil, http.StatusOK, &after)
	assert.Equal(t, before.Data, after.Data)
	assert.Equal(t, "AVAILABLE", after.Data["status"])
}

func TestRouter_CORSPreflight(t *testing.T) {
	srv := newTestServer(t)

	preflight := func(origin string) *http.Response {
		req := httptest.NewRequest(http.MethodOptions, "/pets", nil)
		req.Header.Set(fiber.HeaderOrigin, origin)
		req.Header.Set(fiber.HeaderAccessControlRequestMethod, http.MethodPost)
		req.Header.Set(fiber.HeaderAccessControlRequestHeaders, "Authorization, Content-Type")
		resp, err := srv.app.Test(req, -1)
		require.NoError(t, err)
		t.Cleanup(func() { _ = resp.Body.Close() })
		return resp
	}

	resp := preflight("https://shelter.example")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "https://shelter.example", resp.Header.Get(fiber.HeaderAccessControlAllowOrigin))
	assert.Contains(t, resp.Header.Get(fiber.HeaderAccessControlAllowHeaders), "Authorization")
	assert.Contains(t, resp.Header.Get(fiber.HeaderAccessControlAllowMethods), http.MethodDelete)

	resp = preflight("https://elsewhere.example")
	assert.Empty(t, resp.Header.Get(fiber.HeaderAccessControlAllowOrigin))

	req := httptest.NewRequest(http.MethodGet, "/pets", nil)
	req.Header.Set(fiber.HeaderOrigin, "https://shelter.example")
	simple, err := srv.app.Test(req, -1)
	require.NoError(t, err)
	defer simple.Body.Close()
	assert.Equal(t, http.StatusOK, simple.StatusCode)
	assert.Equal(t, "https://shelter.example", simple.Header.Get(fiber.HeaderAccessControlAllowOrigin))
}

func TestRouter_PetCatalog(t *testing.T) {
	srv := newTestServer(t)
	for _, name := range []string{"Alpha", "Bravo", "Charlie"} {
		srv.createPet(t, name)
	}

	var list struct {
		Data []struct {
			Name string `json:"name"`
		} `json:"data"`
		Meta struct {
			Page  int `json:"page"`
			Limit int `json:"limit"`
			Total int `json:"total"`
		} `json:"meta"`
	}
	srv.doJSON(t, http.MethodGet, "/pets?limit=2&page=2", "", nil, http.StatusOK, &list)
	assert.Equal(t, 3, list.Meta.Total)
	assert.Equal(t, 2, list.Meta.Page)
	require.Len(t, list.Data, 1)
	assert.Equal(t, "Charlie", list.Data[0].Name)

	srv.doJSON(t, http.MethodGet, "/pets?search=rav", "", nil, http.StatusOK, &list)
	require.Len(t, list.Data, 1)
	assert.Equal(t, "Bravo", list.Data[0].Name)

	srv.expectError(t, http.MethodGet, "/pets/not-a-uuid", "", nil, http.StatusNotFound, "NOT_FOUND")

	var invalid errorBody
	srv.doJSON(t, http.MethodPost, "/pets", srv.adminToken, map[string]any{"name": "", "species": "Dog", "age": -2}, http.StatusBadRequest, &invalid)
	assert.Equal(t, "VALIDATION_FAILED", invalid.Error.Code)
	assert.Contains(t, invalid.Error.Details, "name")
	assert.Contains(t, invalid.Error.Details, "age")
}

func TestRouter_UpdateIgnoresStatus(t *testing.T) {
	srv := newTestServer(t)
	petID := srv.createPet(t, "Rex")

	var out struct {
		Data struct {
			Name   string `json:"name"`
			Status string `json:"status"`
		} `json:"data"`
	}
	srv.doJSON(t, http.MethodPut, "/pets/"+petID, srv.adminToken,
		map[string]any{"name": "Rex II", "species": "Dog", "age": 4, "status": "ADOPTED"}, http.StatusOK, &out)
	assert.Equal(t, "Rex II", out.Data.Name)
	assert.Equal(t, "AVAILABLE", out.Data.Status)
}

func TestRouter_MultipartImageUpload(t *testing.T) {
	srv := newTestServer(t)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	require.NoError(t, writer.WriteField("name", "Pixel"))
	require.NoError(t, writer.WriteField("species", "Cat"))
	require.NoError(t, writer.WriteField("age", "1"))
	partHeader := textproto.MIMEHeader{}
	partHeader.Set("Content-Disposition", `form-data; name="image"; filename="pixel.png"`)
	partHeader.Set("Content-Type", "image/png")
	part, err := writer.CreatePart(partHeader)
	require.NoError(t, err)
	_, err = part.Write([]byte("\x89PNG fake"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/pets", &buf)
	req.Header.Set(fiber.HeaderContentType, writer.FormDataContentType())
	status, body := srv.do(t, req, srv.adminToken)
	require.Equal(t, http.StatusCreated, status, string(body))

	var out struct {
		Data struct {
			ImageURL *string `json:"image_url"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(body, &out))
	require.NotNil(t, out.Data.ImageURL)

	status, image := srv.do(t, httptest.NewRequest(http.MethodGet, *out.Data.ImageURL, nil), "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "\x89PNG fake", string(image))
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	srv := newTestServer(t)

	var ready struct {
		Status       string            `json:"status"`
		Dependencies map[string]string `json:"dependencies"`
	}
	srv.doJSON(t, http.MethodGet, "/health/ready", "", nil, http.StatusOK, &ready)
	assert.Equal(t, "ready", ready.Status)
	assert.Equal(t, "disabled", ready.Dependencies["postgres"])

	srv.expectError(t, http.MethodGet, "/does-not-exist", "", nil, http.StatusNotFound, "NOT_FOUND")

	var metrics struct {
		Data struct {
			Requests map[string]int64 `json:"requests"`
		} `json:"data"`
	}
	srv.doJSON(t, http.MethodGet, "/metrics", "", nil, http.StatusOK, &metrics)
	assert.NotEmpty(t, metrics.Data.Requests)
}
