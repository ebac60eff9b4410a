package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/good-yellow-bee/projectboard/internal/api/health"
	"github.com/good-yellow-bee/projectboard/internal/auth"
	"github.com/good-yellow-bee/projectboard/internal/projects"
	"github.com/good-yellow-bee/projectboard/internal/storage/storagetest"
	"github.com/good-yellow-bee/projectboard/internal/users"
)

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *Error          `json:"error"`
}

type testEnv struct {
	t      *testing.T
	srv    *Server
	server *httptest.Server
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := storagetest.Open(t)

	userService := users.NewService(store, nil, auth.NewLockoutTracker(3, time.Minute))
	userService.SetHasher(auth.Hasher{Cost: bcrypt.MinCost})

	cfg := &Config{
		Address:         ":0",
		JWTSecret:       []byte("test-jwt-secret-32-bytes-long!!"),
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 24 * time.Hour,
		RateLimitPerIP:  100,
	}
	srv, err := New(cfg, store, userService, projects.NewService(store), nil)
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return &testEnv{t: t, srv: srv, server: ts}
}

// call sends body as JSON and decodes the envelope. out may be nil.
func (e *testEnv) call(method, path, token string, body any, out any) (int, *Error) {
	e.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(e.t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, e.server.URL+path, &buf)
	require.NoError(e.t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(e.t, err)
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return resp.StatusCode, nil
	}
	var env envelope
	require.NoError(e.t, json.NewDecoder(resp.Body).Decode(&env))
	if out != nil && len(env.Data) > 0 {
		require.NoError(e.t, json.Unmarshal(env.Data, out))
	}
	return resp.StatusCode, env.Error
}

func (e *testEnv) signUp(first, email string) {
	e.t.Helper()
	status, apiErr := e.call(http.MethodPost, "/api/v1/users", "", SignUpRequest{
		FirstName: first, LastName: "Tester", Email: email, Password: "secret123",
	}, nil)
	require.Equal(e.t, http.StatusCreated, status, "%v", apiErr)
}

func (e *testEnv) token(email string) TokenResponse {
	e.t.Helper()
	var tokens TokenResponse
	status, apiErr := e.call(http.MethodPost, "/api/v1/auth/token", "", TokenRequest{Email: email, Password: "secret123"}, &tokens)
	require.Equal(e.t, http.StatusOK, status, "%v", apiErr)
	return tokens
}

func (e *testEnv) createProject(token, name string) ProjectResponse {
	e.t.Helper()
	var p ProjectResponse
	status, apiErr := e.call(http.MethodPost, "/api/v1/projects", token, ProjectRequest{Name: &name}, &p)
	require.Equal(e.t, http.StatusCreated, status, "%v", apiErr)
	return p
}

func TestNewValidatesArguments(t *testing.T) {
	_, err := New(nil, nil, nil, nil, nil)
	assert.Error(t, err)

	store := storagetest.Open(t)
	us := users.NewService(store, nil, nil)
	_, err = New(&Config{}, store, us, projects.NewService(store), nil)
	assert.ErrorContains(t, err, "JWT secret")
}

func TestConfigDefaults(t *testing.T) {
	var cfg Config
	cfg.SetDefaults()
	assert.Equal(t, ":3000", cfg.Address)
	assert.Equal(t, 15*time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.RefreshTokenTTL)
	assert.Equal(t, 20, cfg.RateLimitPerIP)
}

func TestSignUpValidation(t *testing.T) {
	env := newTestEnv(t)
	env.signUp("Aaron", "aaron@example.com")

	status, apiErr := env.call(http.MethodPost, "/api/v1/users", "", SignUpRequest{
		FirstName: "Other", LastName: "Person", Email: "aaron@example.com", Password: "secret123",
	}, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	require.NotNil(t, apiErr)
	assert.Equal(t, ErrCodeValidationFailed, apiErr.Code)
	assert.Equal(t, []string{"has already been taken"}, apiErr.Fields["email"])
}

func TestTokenLifecycle(t *testing.T) {
	env := newTestEnv(t)
	env.signUp("Aaron", "aaron@example.com")

	status, apiErr := env.call(http.MethodPost, "/api/v1/auth/token", "", TokenRequest{Email: "aaron@example.com", Password: "wrong"}, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, ErrCodeUnauthorized, apiErr.Code)

	tokens := env.token("aaron@example.com")
	assert.Equal(t, "Bearer", tokens.TokenType)
	assert.Equal(t, 900, tokens.ExpiresIn)

	var me UserResponse
	status, _ = env.call(http.MethodGet, "/api/v1/me", tokens.AccessToken, nil, &me)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "aaron@example.com", me.Email)

	// Rotation invalidates the presented refresh token.
	var rotated TokenResponse
	status, _ = env.call(http.MethodPost, "/api/v1/auth/refresh", "", RefreshRequest{RefreshToken: tokens.RefreshToken}, &rotated)
	require.Equal(t, http.StatusOK, status)
	assert.NotEqual(t, tokens.RefreshToken, rotated.RefreshToken)

	status, apiErr = env.call(http.MethodPost, "/api/v1/auth/refresh", "", RefreshRequest{RefreshToken: tokens.RefreshToken}, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, ErrInvalidToken.Message, apiErr.Message)

	status, _ = env.call(http.MethodPost, "/api/v1/auth/logout", "", RefreshRequest{RefreshToken: rotated.RefreshToken}, nil)
	assert.Equal(t, http.StatusNoContent, status)

	status, _ = env.call(http.MethodPost, "/api/v1/auth/refresh", "", RefreshRequest{RefreshToken: rotated.RefreshToken}, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestTokenBadRequests(t *testing.T) {
	env := newTestEnv(t)

	status, apiErr := env.call(http.MethodPost, "/api/v1/auth/token", "", TokenRequest{Email: "aaron@example.com"}, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, ErrCodeBadRequest, apiErr.Code)

	status, _ = env.call(http.MethodPost, "/api/v1/auth/refresh", "", RefreshRequest{}, nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestAccountLockout(t *testing.T) {
	env := newTestEnv(t)
	env.signUp("Aaron", "aaron@example.com")

	for i := 0; i < 3; i++ {
		status, _ := env.call(http.MethodPost, "/api/v1/auth/token", "", TokenRequest{Email: "aaron@example.com", Password: "wrong"}, nil)
		assert.Equal(t, http.StatusUnauthorized, status)
	}

	// Locked even with the right password.
	status, apiErr := env.call(http.MethodPost, "/api/v1/auth/token", "", TokenRequest{Email: "aaron@example.com", Password: "secret123"}, nil)
	assert.Equal(t, http.StatusTooManyRequests, status)
	assert.Equal(t, ErrCodeAccountLocked, apiErr.Code)
}

func TestProjectsRequireToken(t *testing.T) {
	env := newTestEnv(t)

	status, _ := env.call(http.MethodGet, "/api/v1/projects", "", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = env.call(http.MethodGet, "/api/v1/projects", "not-a-jwt", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestProjectLifecycle(t *testing.T) {
	env := newTestEnv(t)
	env.signUp("Aaron", "aaron@example.com")
	token := env.token("aaron@example.com").AccessToken

	blank := ""
	status, apiErr := env.call(http.MethodPost, "/api/v1/projects", token, ProjectRequest{Name: &blank}, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Contains(t, apiErr.Fields, "name")

	project := env.createProject(token, "Test Project")
	assert.NotEmpty(t, project.ID)
	assert.False(t, project.Completed)
	path := "/api/v1/projects/" + project.ID

	var list []ProjectResponse
	status, _ = env.call(http.MethodGet, "/api/v1/projects", token, nil, &list)
	assert.Equal(t, http.StatusOK, status)
	require.Len(t, list, 1)

	name, due := "Renamed", "2000-01-01"
	var updated ProjectResponse
	status, _ = env.call(http.MethodPatch, path, token, ProjectRequest{Name: &name, DueOn: &due}, &updated)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Renamed", updated.Name)
	assert.Equal(t, "2000-01-01", updated.DueOn)
	assert.True(t, updated.Late)

	bad := "31/12/2000"
	status, apiErr = env.call(http.MethodPatch, path, token, ProjectRequest{DueOn: &bad}, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Contains(t, apiErr.Fields, "due_on")

	var completed ProjectResponse
	status, _ = env.call(http.MethodPatch, path+"/complete", token, nil, &completed)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, completed.Completed)
	assert.False(t, completed.Late)

	var detail ProjectDetailResponse
	status, _ = env.call(http.MethodPost, path+"/tasks", token, TaskRequest{Name: "Write specs"}, &detail)
	require.Equal(t, http.StatusCreated, status)
	require.Len(t, detail.Tasks, 1)
	assert.Equal(t, "Aaron", detail.Owner.FirstName)

	status, _ = env.call(http.MethodPatch, path+"/tasks/"+detail.Tasks[0].ID+"/toggle", token, nil, &detail)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, detail.Tasks[0].Done)

	status, apiErr = env.call(http.MethodPost, path+"/notes", token, NoteRequest{Message: " "}, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Contains(t, apiErr.Fields, "message")

	for _, msg := range []string{"This is the first note.", "This is the second note."} {
		status, _ = env.call(http.MethodPost, path+"/notes", token, NoteRequest{Message: msg}, &detail)
		require.Equal(t, http.StatusCreated, status)
	}
	assert.Len(t, detail.Notes, 2)

	var found NotesResponse
	status, _ = env.call(http.MethodGet, path+"/notes?term=FIRST", token, nil, &found)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 1, found.Count)
	assert.Equal(t, "This is the first note.", found.Notes[0].Message)

	status, _ = env.call(http.MethodGet, "/api/v1/notes?term=note", token, nil, &found)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 2, found.Count)

	status, _ = env.call(http.MethodDelete, path+"/notes/"+found.Notes[0].ID, token, nil, nil)
	assert.Equal(t, http.StatusNoContent, status)

	status, _ = env.call(http.MethodDelete, path, token, nil, nil)
	assert.Equal(t, http.StatusNoContent, status)

	status, apiErr = env.call(http.MethodGet, path, token, nil, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, ErrCodeNotFound, apiErr.Code)
}

func TestNonOwnerIsForbidden(t *testing.T) {
	env := newTestEnv(t)
	env.signUp("Aaron", "aaron@example.com")
	env.signUp("Jane", "jane@example.com")
	owner := env.token("aaron@example.com").AccessToken
	other := env.token("jane@example.com").AccessToken

	project := env.createProject(owner, "Private")
	path := "/api/v1/projects/" + project.ID

	name := "Hijacked"
	for _, tc := range []struct {
		method, path string
		body         any
	}{
		{http.MethodGet, path, nil},
		{http.MethodPatch, path, ProjectRequest{Name: &name}},
		{http.MethodPatch, path + "/complete", nil},
		{http.MethodDelete, path, nil},
		{http.MethodPost, path + "/tasks", TaskRequest{Name: "x"}},
		{http.MethodGet, path + "/notes", nil},
	} {
		status, apiErr := env.call(tc.method, tc.path, other, tc.body, nil)
		assert.Equal(t, http.StatusForbidden, status, "%s %s", tc.method, tc.path)
		if assert.NotNil(t, apiErr) {
			assert.Equal(t, ErrCodeForbidden, apiErr.Code)
		}
	}

	var detail ProjectDetailResponse
	status, _ := env.call(http.MethodGet, path, owner, nil, &detail)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Private", detail.Name)
	assert.False(t, detail.Completed)
	assert.Empty(t, detail.Tasks)
}

func TestHealthAndHeaders(t *testing.T) {
	env := newTestEnv(t)

	resp, err := http.Get(env.server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	var body health.HealthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, "ok", body.Checks["database"])

	env.srv.RegisterHealthChecker(health.NewFuncChecker("queue", func(context.Context) error {
		return errors.New("down")
	}))
	ready, err := http.Get(env.server.URL + "/health/ready")
	require.NoError(t, err)
	ready.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, ready.StatusCode)
}

func TestUnknownAPIRoute(t *testing.T) {
	env := newTestEnv(t)
	status, apiErr := env.call(http.MethodGet, "/api/v1/nothing", "", nil, nil)
	assert.Equal(t, http.StatusNotFound, status)
	require.NotNil(t, apiErr)
	assert.Equal(t, ErrCodeNotFound, apiErr.Code)
}

func TestWebUIMountedAtRoot(t *testing.T) {
	store := storagetest.Open(t)
	us := users.NewService(store, nil, nil)
	web := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("web:" + r.URL.Path))
	})
	srv, err := New(&Config{JWTSecret: []byte("secret")}, store, us, projects.NewService(store), web)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/projects", nil))
	assert.Equal(t, "web:/projects", rec.Body.String())

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.Contains(t, rec.Body.String(), "live")
}

func TestServeShutsDownOnCancel(t *testing.T) {
	env := newTestEnv(t)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- env.srv.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/health/live")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
