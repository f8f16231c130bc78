package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	httpapi "github.com/spec-kit/support-desk/internal/api/http"
	"github.com/spec-kit/support-desk/internal/api/http/handlers"
	"github.com/spec-kit/support-desk/internal/auth"
	"github.com/spec-kit/support-desk/internal/config"
	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/observability"
	"github.com/spec-kit/support-desk/internal/repository"
	"github.com/spec-kit/support-desk/internal/service"
)

type testEnv struct {
	app   *fiber.App
	store *repository.MemoryStore
	auth  *service.AuthService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := repository.NewMemory()
	authService := service.NewAuthService(config.AuthConfig{
		JWTSecret:             "test-secret",
		AccessTokenTTLMinutes: 60,
		BcryptCost:            4,
	}, store)
	ticketService := service.NewTicketService(service.TicketDependencies{Store: store})

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	logger := zap.NewNop()
	metrics := observability.NewMetrics()
	httpapi.RegisterMiddlewares(app, logger, metrics, 5*time.Second)
	httpapi.RegisterRoutes(app, httpapi.RouteConfig{
		Health:         handlers.NewHealthHandler("support-desk", "test", nil, nil),
		Users:          handlers.NewUsersHandler(authService),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		AuthMiddleware: auth.NewMiddleware(authService.TokenManager()),
	})
	return &testEnv{app: app, store: store, auth: authService}
}

func (e *testEnv) token(t *testing.T, role domain.Role) string {
	t.Helper()
	email := fmt.Sprintf("%s@example.com", role)
	user, err := e.auth.Register(context.Background(), "Test "+string(role), email, "hunter22", role)
	require.NoError(t, err)
	token, _, err := e.auth.TokenManager().GenerateToken(user.ID, user.Role)
	require.NoError(t, err)
	return token
}

func (e *testEnv) request(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var payload map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	return payload
}

func createTicketPayload() map[string]any {
	return map[string]any{
		"title":           "Printer jam on floor 3",
		"description":     "Paper tray 2 keeps jamming.",
		"requester_name":  "Dana Smith",
		"requester_email": "dana@example.com",
	}
}

func TestTicketRoutesRequireToken(t *testing.T) {
	env := newTestEnv(t)

	resp := env.request(t, http.MethodPost, "/tickets", "", createTicketPayload())
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	body := decodeBody(t, resp)
	errObj, ok := body["error"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "UNAUTHENTICATED", errObj["code"])

	resp = env.request(t, http.MethodGet, "/tickets", "garbage-token", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestCreateAndFetchTicket(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, domain.RoleAgent)

	resp := env.request(t, http.MethodPost, "/tickets", token, createTicketPayload())
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeBody(t, resp)["data"].(map[string]any)
	assert.Equal(t, float64(domain.FirstTicketNumber), created["number"])
	assert.Equal(t, "open", created["status"])

	id := created["id"].(string)
	resp = env.request(t, http.MethodGet, "/tickets/"+id, token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	fetched := decodeBody(t, resp)["data"].(map[string]any)
	assert.Equal(t, id, fetched["id"])
	assert.Equal(t, "Printer jam on floor 3", fetched["title"])
}

func TestCreateTicketRejectsInvalidPayload(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, domain.RoleAgent)

	payload := createTicketPayload()
	payload["requester_email"] = "not-an-email"
	resp := env.request(t, http.MethodPost, "/tickets", token, payload)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	errObj := decodeBody(t, resp)["error"].(map[string]any)
	assert.Equal(t, "VALIDATION_FAILED", errObj["code"])
}

func TestUpdateStatusRoute(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, domain.RoleAgent)

	resp := env.request(t, http.MethodPost, "/tickets", token, createTicketPayload())
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	id := decodeBody(t, resp)["data"].(map[string]any)["id"].(string)

	resp = env.request(t, http.MethodPatch, "/tickets/"+id+"/status", token, map[string]any{"status": "closed"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated := decodeBody(t, resp)["data"].(map[string]any)
	assert.Equal(t, "closed", updated["status"])

	resp = env.request(t, http.MethodPatch, "/tickets/"+id+"/status", token, map[string]any{"status": "archived"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUpdateAssigneeRouteRejectsUnknownUser(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, domain.RoleAgent)

	resp := env.request(t, http.MethodPost, "/tickets", token, createTicketPayload())
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	id := decodeBody(t, resp)["data"].(map[string]any)["id"].(string)

	resp = env.request(t, http.MethodPatch, "/tickets/"+id+"/assignee", token,
		map[string]any{"assignee_id": "00000000-0000-0000-0000-000000000000"})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	errObj := decodeBody(t, resp)["error"].(map[string]any)
	assert.Equal(t, "INVALID_ASSIGNEE", errObj["code"])
}

func TestAuditRouteIsAdminOnly(t *testing.T) {
	env := newTestEnv(t)
	agentToken := env.token(t, domain.RoleAgent)
	adminToken := env.token(t, domain.RoleAdmin)

	resp := env.request(t, http.MethodPost, "/tickets", agentToken, createTicketPayload())
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	id := decodeBody(t, resp)["data"].(map[string]any)["id"].(string)

	resp = env.request(t, http.MethodPost, "/tickets/"+id+"/messages", agentToken, map[string]any{"body": "On it."})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = env.request(t, http.MethodGet, "/tickets/"+id+"/audit", agentToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	resp = env.request(t, http.MethodGet, "/tickets/"+id+"/audit", adminToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	events := decodeBody(t, resp)["data"].([]any)
	require.Len(t, events, 2)
	first := events[0].(map[string]any)
	second := events[1].(map[string]any)
	assert.Equal(t, "ticket_created", first["kind"])
	assert.Equal(t, "message_added", second["kind"])
}

func TestListRoutePaginates(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, domain.RoleAgent)

	for i := 0; i < 25; i++ {
		payload := createTicketPayload()
		payload["title"] = fmt.Sprintf("Ticket %02d", i)
		resp := env.request(t, http.MethodPost, "/tickets", token, payload)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		resp.Body.Close()
	}

	resp := env.request(t, http.MethodGet, "/tickets?page=2", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, float64(25), body["total"])
	assert.Equal(t, float64(2), body["page"])
	assert.Len(t, body["data"].([]any), 5)
}

func TestHealthLive(t *testing.T) {
	env := newTestEnv(t)

	resp := env.request(t, http.MethodGet, "/health/live", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "alive", body["status"])
}

func TestRegisterAndLoginFlow(t *testing.T) {
	env := newTestEnv(t)

	resp := env.request(t, http.MethodPost, "/auth/register", "", map[string]any{
		"name":     "Dana Smith",
		"email":    "dana@example.com",
		"password": "hunter22",
		"role":     "admin",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	registered := decodeBody(t, resp)["data"].(map[string]any)
	assert.Equal(t, "admin", registered["role"])

	resp = env.request(t, http.MethodPost, "/auth/login", "", map[string]any{
		"email":    "dana@example.com",
		"password": "hunter22",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data := decodeBody(t, resp)["data"].(map[string]any)
	authData := data["auth"].(map[string]any)
	token := authData["token"].(string)
	require.NotEmpty(t, token)

	resp = env.request(t, http.MethodGet, "/me", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	me := decodeBody(t, resp)["data"].(map[string]any)
	assert.Equal(t, "dana@example.com", me["email"])
}
