package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/passop/passop-api/internal/core/domain"
	"github.com/passop/passop-api/internal/core/service"
	"github.com/passop/passop-api/internal/infrastructure/config"
	"github.com/passop/passop-api/internal/infrastructure/token"
)

const testSecret = "router-test-secret"

// memoryStore backs both repositories with maps so the router runs against
// the real services without MongoDB.
type memoryStore struct {
	mu          sync.Mutex
	users       map[string]*domain.User
	credentials []*domain.Credential
	seq         int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{users: make(map[string]*domain.User)}
}

func (s *memoryStore) nextID() string {
	s.seq++
	return fmt.Sprintf("%024x", s.seq)
}

type memoryUsers struct{ *memoryStore }

func (r memoryUsers) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[email]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

func (r memoryUsers) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.Email]; ok {
		return nil, domain.ErrUserExists
	}
	clone := *user
	clone.ID = r.nextID()
	r.users[clone.Email] = &clone
	out := clone
	return &out, nil
}

type memoryCredentials struct{ *memoryStore }

func (r memoryCredentials) Create(_ context.Context, c *domain.Credential) (*domain.Credential, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *c
	clone.ID = r.nextID()
	r.credentials = append(r.credentials, &clone)
	out := clone
	return &out, nil
}

func (r memoryCredentials) ListByOwner(_ context.Context, ownerID string) ([]*domain.Credential, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Credential
	for _, c := range r.credentials {
		if c.OwnerID == ownerID {
			clone := *c
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r memoryCredentials) DeleteByOwner(_ context.Context, ownerID, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, c := range r.credentials {
		if c.ID == id && c.OwnerID == ownerID {
			r.credentials = append(r.credentials[:i], r.credentials[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func newTestRouter(t *testing.T) (*echo.Echo, *memoryStore) {
	t.Helper()
	return newTestRouterWithHTTP(t, config.HTTPConfig{})
}

func newTestRouterWithHTTP(t *testing.T, httpCfg config.HTTPConfig) (*echo.Echo, *memoryStore) {
	t.Helper()
	store := newMemoryStore()
	tokens, err := token.NewManager(testSecret, 0)
	require.NoError(t, err)

	e := NewRouter(Deps{
		AuthService:       service.NewAuthService(memoryUsers{store}, tokens, nil, zerolog.Nop()),
		CredentialService: service.NewCredentialService(memoryCredentials{store}, zerolog.Nop()),
		Tokens:            tokens,
		HTTP:              httpCfg,
		Logger:            zerolog.Nop(),
	})
	return e, store
}

func do(e *echo.Echo, method, path, body, bearer string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if bearer != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func message(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body["message"]
}

func registerAndLogin(t *testing.T, e *echo.Echo, email string) string {
	t.Helper()
	rec := do(e, http.MethodPost, "/api/auth/register",
		fmt.Sprintf(`{"name":"user","email":%q,"password":"pw-%s"}`, email, email), "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(e, http.MethodPost, "/api/auth/login",
		fmt.Sprintf(`{"email":%q,"password":"pw-%s"}`, email, email), "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func listCredentials(t *testing.T, e *echo.Echo, bearer string) []map[string]any {
	t.Helper()
	rec := do(e, http.MethodGet, "/passwords", "", bearer)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var items []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &items))
	require.NotNil(t, items)
	return items
}

func TestRouter_RegisterTwice(t *testing.T) {
	e, _ := newTestRouter(t)
	body := `{"name":"Alice","email":"alice@example.com","password":"secret"}`

	rec := do(e, http.MethodPost, "/api/auth/register", body, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "User registered successfully", message(t, rec))

	rec = do(e, http.MethodPost, "/api/auth/register", body, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "User already exists", message(t, rec))
}

func TestRouter_LoginFailuresAreIdentical(t *testing.T) {
	e, _ := newTestRouter(t)
	require.Equal(t, http.StatusOK, do(e, http.MethodPost, "/api/auth/register",
		`{"name":"Alice","email":"alice@example.com","password":"secret"}`, "").Code)

	wrongPass := do(e, http.MethodPost, "/api/auth/login", `{"email":"alice@example.com","password":"nope"}`, "")
	unknown := do(e, http.MethodPost, "/api/auth/login", `{"email":"ghost@example.com","password":"nope"}`, "")

	assert.Equal(t, http.StatusBadRequest, wrongPass.Code)
	assert.Equal(t, wrongPass.Code, unknown.Code)
	assert.Equal(t, wrongPass.Body.String(), unknown.Body.String())
	assert.Equal(t, "Invalid credentials", message(t, wrongPass))
}

func TestRouter_CredentialLifecycle(t *testing.T) {
	e, _ := newTestRouter(t)
	alice := registerAndLogin(t, e, "alice@example.com")
	bob := registerAndLogin(t, e, "bob@example.com")

	rec := do(e, http.MethodPost, "/add", `{"site":"example.com","username":"alice","password":"hunter2"}`, alice)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Password Saved", message(t, rec))

	items := listCredentials(t, e, alice)
	require.Len(t, items, 1)
	assert.Equal(t, "example.com", items[0]["site"])
	assert.Equal(t, "alice", items[0]["username"])
	assert.Equal(t, "hunter2", items[0]["password"])
	id, _ := items[0]["_id"].(string)
	require.NotEmpty(t, id)

	assert.Empty(t, listCredentials(t, e, bob))

	// Deleting someone else's record answers 200 and changes nothing.
	rec = do(e, http.MethodDelete, "/delete/"+id, "", bob)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Deleted Successfully", message(t, rec))
	assert.Len(t, listCredentials(t, e, alice), 1)

	rec = do(e, http.MethodDelete, "/delete/"+id, "", alice)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, listCredentials(t, e, alice))

	rec = do(e, http.MethodDelete, "/delete/"+id, "", alice)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_CredentialRoutesRequireToken(t *testing.T) {
	e, store := newTestRouter(t)

	rec := do(e, http.MethodPost, "/add", `{"site":"s","username":"u","password":"p"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "No token provided", message(t, rec))
	assert.Empty(t, store.credentials)

	rec = do(e, http.MethodGet, "/passwords", "", "garbage")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid token", message(t, rec))

	rec = do(e, http.MethodDelete, "/delete/abc", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_ExpiredToken(t *testing.T) {
	e, _ := newTestRouter(t)

	past := time.Now().Add(-8 * 24 * time.Hour)
	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, token.Claims{
		UserID: "000000000000000000000001",
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(past),
			ExpiresAt: jwt.NewNumericDate(past.Add(token.DefaultTTL)),
		},
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	rec := do(e, http.MethodGet, "/passwords", "", expired)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid token", message(t, rec))
}

func TestRouter_Health(t *testing.T) {
	e, _ := newTestRouter(t)

	rec := do(e, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = do(e, http.MethodGet, "/health/ready", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(e, http.MethodGet, "/metrics", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_UnknownRoute(t *testing.T) {
	e, _ := newTestRouter(t)

	rec := do(e, http.MethodGet, "/nope", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NotEmpty(t, message(t, rec))
}

func TestRouter_AuthRateLimit(t *testing.T) {
	// A rate this low never refills during the test, so only the burst passes.
	e, _ := newTestRouterWithHTTP(t, config.HTTPConfig{AuthRateLimit: 0.001})
	body := `{"email":"ghost@example.com","password":"nope"}`

	for i := 0; i < authRateBurst; i++ {
		rec := do(e, http.MethodPost, "/api/auth/login", body, "")
		require.Equal(t, http.StatusBadRequest, rec.Code, "request %d", i)
	}

	rec := do(e, http.MethodPost, "/api/auth/login", body, "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "Too many requests", message(t, rec))

	rec = do(e, http.MethodPost, "/api/auth/register",
		`{"name":"Alice","email":"alice@example.com","password":"secret"}`, "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	// Credential routes sit outside the limited group.
	rec = do(e, http.MethodGet, "/passwords", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
