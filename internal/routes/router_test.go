package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-api/internal/config"
	domainUser "storefront-api/internal/domain/user"
	"storefront-api/internal/infrastructure/database/memory"
	"storefront-api/internal/notify"
	addressUsecase "storefront-api/internal/usecase/address"
	userUsecase "storefront-api/internal/usecase/user"
	"storefront-api/pkg/utils"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	utils.SetPasswordParams(utils.PasswordParams{Memory: 64, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32})
	os.Exit(m.Run())
}

type outbox struct {
	mu   sync.Mutex
	msgs []notify.PasswordResetMessage
}

func (o *outbox) SendPasswordReset(_ context.Context, msg notify.PasswordResetMessage) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.msgs = append(o.msgs, msg)
	return nil
}

func (o *outbox) last(t *testing.T) string {
	t.Helper()
	o.mu.Lock()
	defer o.mu.Unlock()
	require.NotEmpty(t, o.msgs)
	return o.msgs[len(o.msgs)-1].Token
}

type testServer struct {
	t      *testing.T
	router *gin.Engine
	store  *memory.Store
	outbox *outbox
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	cfg := &config.Config{
		Server:        config.ServerConfig{Environment: "test"},
		JWT:           config.JWTConfig{Secret: "0123456789abcdef0123456789abcdef", ExpiryHours: 24},
		PasswordReset: config.PasswordResetConfig{TTLMinutes: 15},
		RateLimit:     config.RateLimitConfig{GeneralRPS: 1000, GeneralBurst: 1000, AuthRPS: 1000, AuthBurst: 1000},
		CORS: config.CORSConfig{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE"},
			AllowedHeaders: []string{"Authorization", "Content-Type"},
		},
	}

	store := memory.NewStore()
	box := &outbox{}
	tokens := utils.NewTokenManager(cfg.JWT.Secret, cfg.JWT.TTL())
	users := userUsecase.NewService(store.Users(), tokens, box, cfg)

	router := SetupRoutes(cfg, Services{
		Users:     users,
		Addresses: addressUsecase.NewService(store.Addresses()),
		Tokens:    tokens,
		Store:     store,
	})

	return &testServer{t: t, router: router, store: store, outbox: box}
}

type envelope struct {
	Error   bool            `json:"error"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type response struct {
	status int
	env    envelope
}

func (r response) decode(t *testing.T, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(r.env.Data, v))
}

func (s *testServer) do(method, path, token string, body any) response {
	s.t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var env envelope
	require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return response{status: w.Code, env: env}
}

type authData struct {
	User struct {
		ID       uuid.UUID `json:"id"`
		Email    string    `json:"email"`
		Role     string    `json:"role"`
		IsActive bool      `json:"isActive"`
	} `json:"user"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (s *testServer) register(email, password string) authData {
	s.t.Helper()
	res := s.do(http.MethodPost, "/api/v1/auth/register", "", gin.H{"email": email, "password": password})
	require.Equal(s.t, http.StatusCreated, res.status, res.env.Message)

	var data authData
	res.decode(s.t, &data)
	return data
}

type addressData struct {
	ID        uuid.UUID `json:"id"`
	Type      string    `json:"type"`
	City      string    `json:"city"`
	IsDefault bool      `json:"isDefault"`
}

func addressBody(typ string, isDefault bool) gin.H {
	return gin.H{
		"type":       typ,
		"firstName":  "Ann",
		"lastName":   "Smith",
		"street":     "1 Main St",
		"city":       "Springfield",
		"state":      "IL",
		"postalCode": "62701",
		"country":    "US",
		"isDefault":  isDefault,
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	res := s.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, res.status)
	assert.False(t, res.env.Error)
	assert.Equal(t, "Server is running", res.env.Message)
}

func TestUnknownRouteUsesEnvelope(t *testing.T) {
	s := newTestServer(t)

	res := s.do(http.MethodGet, "/api/v1/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, res.status)
	assert.True(t, res.env.Error)
	assert.Equal(t, "Route not found", res.env.Message)
}

func TestRegisterLoginRefresh(t *testing.T) {
	s := newTestServer(t)

	reg := s.register("ann@example.com", "secret1")
	assert.Equal(t, "ann@example.com", reg.User.Email)
	assert.Equal(t, "USER", reg.User.Role)
	assert.NotEmpty(t, reg.Token)

	dup := s.do(http.MethodPost, "/api/v1/auth/register", "", gin.H{"email": "ann@example.com", "password": "secret1"})
	assert.Equal(t, http.StatusBadRequest, dup.status)
	assert.Equal(t, "User with this email already exists", dup.env.Message)

	login := s.do(http.MethodPost, "/api/v1/auth/login", "", gin.H{"email": "ann@example.com", "password": "secret1"})
	require.Equal(t, http.StatusOK, login.status)
	var session authData
	login.decode(t, &session)
	assert.Equal(t, reg.User.ID, session.User.ID)

	bad := s.do(http.MethodPost, "/api/v1/auth/login", "", gin.H{"email": "ann@example.com", "password": "nope123"})
	assert.Equal(t, http.StatusUnauthorized, bad.status)
	assert.Equal(t, "Invalid email or password", bad.env.Message)

	refresh := s.do(http.MethodPost, "/api/v1/auth/refresh", session.Token, nil)
	require.Equal(t, http.StatusOK, refresh.status)
	var refreshed struct {
		Token string `json:"token"`
	}
	refresh.decode(t, &refreshed)
	assert.NotEmpty(t, refreshed.Token)

	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodPost, "/api/v1/auth/refresh", "", nil).status)
}

func TestValidationErrorsCarryFieldMessages(t *testing.T) {
	s := newTestServer(t)

	res := s.do(http.MethodPost, "/api/v1/auth/register", "", gin.H{"email": "not-an-email", "password": "123"})
	assert.Equal(t, http.StatusBadRequest, res.status)
	assert.Equal(t, "Validation failed", res.env.Message)

	var data struct {
		Errors map[string]string `json:"errors"`
	}
	res.decode(t, &data)
	assert.Equal(t, "Invalid email format", data.Errors["email"])
	assert.Equal(t, "Password must be at least 6 characters long", data.Errors["password"])
}

func TestMalformedBody(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid request body")
}

func TestDeactivationRevokesSessionsImmediately(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	admin := s.register("admin@example.com", "secret1")
	require.NoError(t, s.store.Users().SetRole(ctx, admin.User.ID, domainUser.RoleAdmin))
	ann := s.register("ann@example.com", "secret1")

	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/v1/users/profile", ann.Token, nil).status)

	forbidden := s.do(http.MethodGet, "/api/v1/admin/users", ann.Token, nil)
	assert.Equal(t, http.StatusForbidden, forbidden.status)
	assert.Equal(t, "Forbidden", forbidden.env.Message)

	list := s.do(http.MethodGet, "/api/v1/admin/users", admin.Token, nil)
	require.Equal(t, http.StatusOK, list.status)
	var users struct {
		Users []struct {
			ID uuid.UUID `json:"id"`
		} `json:"users"`
	}
	list.decode(t, &users)
	assert.Len(t, users.Users, 2)

	status := s.do(http.MethodPatch, "/api/v1/admin/users/"+ann.User.ID.String()+"/status", admin.Token, gin.H{"isActive": false})
	require.Equal(t, http.StatusOK, status.status, status.env.Message)

	revoked := s.do(http.MethodGet, "/api/v1/users/profile", ann.Token, nil)
	assert.Equal(t, http.StatusUnauthorized, revoked.status)
	assert.Equal(t, "User not found or inactive", revoked.env.Message)

	login := s.do(http.MethodPost, "/api/v1/auth/login", "", gin.H{"email": "ann@example.com", "password": "secret1"})
	assert.Equal(t, http.StatusUnauthorized, login.status)
	assert.Equal(t, "Account is deactivated", login.env.Message)

	self := s.do(http.MethodPatch, "/api/v1/admin/users/"+admin.User.ID.String()+"/status", admin.Token, gin.H{"isActive": false})
	assert.Equal(t, http.StatusBadRequest, self.status)

	missing := s.do(http.MethodPatch, "/api/v1/admin/users/"+uuid.NewString()+"/status", admin.Token, gin.H{"isActive": true})
	assert.Equal(t, http.StatusNotFound, missing.status)
}

func TestProfileUpdateConflict(t *testing.T) {
	s := newTestServer(t)
	ann := s.register("ann@example.com", "secret1")
	s.register("bob@example.com", "secret1")

	empty := s.do(http.MethodPut, "/api/v1/users/profile", ann.Token, gin.H{})
	assert.Equal(t, http.StatusBadRequest, empty.status)

	conflict := s.do(http.MethodPut, "/api/v1/users/profile", ann.Token, gin.H{"email": "bob@example.com"})
	assert.Equal(t, http.StatusConflict, conflict.status)
	assert.Equal(t, "Email already in use", conflict.env.Message)

	ok := s.do(http.MethodPut, "/api/v1/users/profile", ann.Token, gin.H{"firstName": "Ann"})
	require.Equal(t, http.StatusOK, ok.status)
	var data struct {
		User struct {
			FirstName *string `json:"firstName"`
		} `json:"user"`
	}
	ok.decode(t, &data)
	require.NotNil(t, data.User.FirstName)
	assert.Equal(t, "Ann", *data.User.FirstName)
}

func TestPasswordResetFlow(t *testing.T) {
	s := newTestServer(t)
	s.register("ann@example.com", "secret1")

	unknown := s.do(http.MethodPost, "/api/v1/auth/forgot-password", "", gin.H{"email": "ghost@example.com"})
	known := s.do(http.MethodPost, "/api/v1/auth/forgot-password", "", gin.H{"email": "ann@example.com"})
	assert.Equal(t, http.StatusOK, unknown.status)
	assert.Equal(t, http.StatusOK, known.status)
	assert.Equal(t, unknown.env.Message, known.env.Message)

	token := s.outbox.last(t)

	reset := s.do(http.MethodPost, "/api/v1/auth/reset-password", "", gin.H{"token": token, "newPassword": "brandnew"})
	require.Equal(t, http.StatusOK, reset.status, reset.env.Message)

	again := s.do(http.MethodPost, "/api/v1/auth/reset-password", "", gin.H{"token": token, "newPassword": "another1"})
	assert.Equal(t, http.StatusBadRequest, again.status)
	assert.Equal(t, "Invalid or expired token", again.env.Message)

	login := s.do(http.MethodPost, "/api/v1/auth/login", "", gin.H{"email": "ann@example.com", "password": "brandnew"})
	assert.Equal(t, http.StatusOK, login.status)
}

func TestChangePassword(t *testing.T) {
	s := newTestServer(t)
	ann := s.register("ann@example.com", "secret1")

	wrong := s.do(http.MethodPost, "/api/v1/users/change-password", ann.Token, gin.H{"currentPassword": "nope123", "newPassword": "secret2"})
	assert.Equal(t, http.StatusUnauthorized, wrong.status)

	ok := s.do(http.MethodPost, "/api/v1/users/change-password", ann.Token, gin.H{"currentPassword": "secret1", "newPassword": "secret2"})
	assert.Equal(t, http.StatusOK, ok.status)

	login := s.do(http.MethodPost, "/api/v1/auth/login", "", gin.H{"email": "ann@example.com", "password": "secret2"})
	assert.Equal(t, http.StatusOK, login.status)
}

func TestAddressEndpoints(t *testing.T) {
	s := newTestServer(t)
	ann := s.register("ann@example.com", "secret1")
	bob := s.register("bob@example.com", "secret1")

	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/api/v1/addresses", "", nil).status)

	created := s.do(http.MethodPost, "/api/v1/addresses", ann.Token, addressBody("SHIPPING", true))
	require.Equal(t, http.StatusCreated, created.status, created.env.Message)
	var first struct {
		Address addressData `json:"address"`
	}
	created.decode(t, &first)
	assert.True(t, first.Address.IsDefault)

	second := s.do(http.MethodPost, "/api/v1/addresses", ann.Token, addressBody("SHIPPING", false))
	require.Equal(t, http.StatusCreated, second.status)
	var other struct {
		Address addressData `json:"address"`
	}
	second.decode(t, &other)

	promoted := s.do(http.MethodPut, "/api/v1/addresses/"+other.Address.ID.String()+"/default", ann.Token, nil)
	require.Equal(t, http.StatusOK, promoted.status)

	list := s.do(http.MethodGet, "/api/v1/addresses", ann.Token, nil)
	require.Equal(t, http.StatusOK, list.status)
	var listed struct {
		Addresses []addressData `json:"addresses"`
	}
	list.decode(t, &listed)
	require.Len(t, listed.Addresses, 2)
	defaults := 0
	for _, a := range listed.Addresses {
		if a.IsDefault {
			defaults++
			assert.Equal(t, other.Address.ID, a.ID)
		}
	}
	assert.Equal(t, 1, defaults)

	path := "/api/v1/addresses/" + first.Address.ID.String()
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, path, bob.Token, nil).status)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodPut, path, bob.Token, gin.H{"city": "X"}).status)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodDelete, path, bob.Token, nil).status)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/api/v1/addresses/not-a-uuid", ann.Token, nil).status)

	updated := s.do(http.MethodPut, path, ann.Token, gin.H{"city": "Shelbyville"})
	require.Equal(t, http.StatusOK, updated.status)
	var changed struct {
		Address addressData `json:"address"`
	}
	updated.decode(t, &changed)
	assert.Equal(t, "Shelbyville", changed.Address.City)

	invalid := s.do(http.MethodPost, "/api/v1/addresses", ann.Token, addressBody("HOME", false))
	assert.Equal(t, http.StatusBadRequest, invalid.status)

	assert.Equal(t, http.StatusOK, s.do(http.MethodDelete, path, ann.Token, nil).status)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, path, ann.Token, nil).status)
}
