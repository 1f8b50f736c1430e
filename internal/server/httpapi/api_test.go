package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"github.com/dmitrijs2005/taskkeeper/internal/logging"
	"github.com/dmitrijs2005/taskkeeper/internal/server/auth"
	"github.com/dmitrijs2005/taskkeeper/internal/server/credentials"
	"github.com/dmitrijs2005/taskkeeper/internal/server/repositories/labels"
	"github.com/dmitrijs2005/taskkeeper/internal/server/repositories/tasks"
	"github.com/dmitrijs2005/taskkeeper/internal/server/repositories/users"
	"github.com/dmitrijs2005/taskkeeper/internal/server/services"
	"github.com/dmitrijs2005/taskkeeper/internal/server/storage"
	"github.com/dmitrijs2005/taskkeeper/internal/server/storage/document"
	"github.com/dmitrijs2005/taskkeeper/internal/server/storage/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fakeStatus struct {
	backend  storage.Backend
	degraded bool
}

func (f fakeStatus) Backend() storage.Backend { return f.backend }
func (f fakeStatus) Degraded() bool           { return f.degraded }

type testEnv struct {
	h      http.Handler
	tokens *auth.TokenService
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()
	st := storage.New(memory.New(document.Unique{Collection: common.UsersCollection, Field: "email"}))
	tokens := auth.NewTokenService([]byte("test-secret"), time.Minute)
	log := logging.Nop()

	us := services.NewUserService(users.NewDocumentRepository(st.Users()), credentials.NewHasher(bcrypt.MinCost), tokens, log)
	ts := services.NewTaskService(tasks.NewDocumentRepository(st.Tasks()), log)
	ls := services.NewLabelService(labels.NewDocumentRepository(st.Labels()))

	api := New(us, ts, ls, st, log)
	return &testEnv{h: api.Router([]string{"http://localhost:3000"}), tokens: tokens}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func (e *testEnv) signupAndLogin(t *testing.T, email string) string {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/signup", "", map[string]string{"username": "alice", "email": email, "password": "hunter22"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = e.do(t, http.MethodPost, "/login", "", map[string]string{"email": email, "password": "hunter22"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return decode[loginResponse](t, rec).AccessToken
}

func TestHealth(t *testing.T) {
	api := New(nil, nil, nil, fakeStatus{backend: storage.BackendMemory, degraded: true}, logging.Nop())
	h := api.Router(nil)

	for _, path := range []string{"/", "/healthz"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusOK, rec.Code)

		got := decode[healthResponse](t, rec)
		assert.Equal(t, healthResponse{Status: "healthy", Storage: "memory", Degraded: true}, got)
		assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))
	}
}

func TestSignupLoginMe(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, http.MethodPost, "/signup", "", map[string]string{"username": "alice", "email": "alice@example.com", "password": "hunter22"})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "mock_id_1", decode[signupResponse](t, rec).UserID)

	rec = e.do(t, http.MethodPost, "/signup", "", map[string]string{"username": "alice", "email": "alice@example.com", "password": "hunter22"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = e.do(t, http.MethodPost, "/signup", "", map[string]string{"username": "al", "email": "al@example.com", "password": "hunter22"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = e.do(t, http.MethodPost, "/login", "", map[string]string{"email": "alice@example.com", "password": "wrongpass"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid credentials", decode[errorResponse](t, rec).Error)

	rec = e.do(t, http.MethodPost, "/login", "", map[string]string{"email": "nobody@example.com", "password": "hunter22"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = e.do(t, http.MethodPost, "/login", "", map[string]string{"email": "alice@example.com", "password": "hunter22"})
	require.Equal(t, http.StatusOK, rec.Code)
	login := decode[loginResponse](t, rec)
	assert.Equal(t, "bearer", login.TokenType)
	assert.Equal(t, int64(60), login.ExpiresIn)
	assert.Equal(t, "mock_id_1", login.UserID)

	rec = e.do(t, http.MethodGet, "/me", login.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	me := decode[map[string]any](t, rec)
	assert.Equal(t, "mock_id_1", me["id"])
	assert.Equal(t, "alice@example.com", me["email"])
	assert.NotContains(t, me, "password")
	assert.NotContains(t, me, "PasswordHash")

	rec = e.do(t, http.MethodPost, "/logout", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthenticator(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, http.MethodGet, "/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))

	rec = e.do(t, http.MethodGet, "/api/tasks", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// A valid token for a user this backend has never seen.
	token, err := e.tokens.Issue("mock_id_99", "ghost@example.com")
	require.NoError(t, err)
	rec = e.do(t, http.MethodGet, "/me", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTasksAndLabels(t *testing.T) {
	e := newEnv(t)
	token := e.signupAndLogin(t, "alice@example.com")

	rec := e.do(t, http.MethodPost, "/api/tasks", token, map[string]any{
		"title": "write report", "priority": "High", "deadline": "2026-12-24", "start_time": "09:00",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	taskID := decode[createTaskResponse](t, rec).TaskID
	assert.Equal(t, "mock_id_1", taskID)

	rec = e.do(t, http.MethodPost, "/api/tasks", token, map[string]any{"title": "x", "priority": "Urgent", "deadline": "2026-12-24"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = e.do(t, http.MethodPost, "/api/tasks", token, map[string]any{"title": "x", "priority": "Low", "deadline": "soon"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = e.do(t, http.MethodPut, "/api/tasks/"+taskID, token, map[string]any{})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "No updates provided", decode[messageResponse](t, rec).Message)

	rec = e.do(t, http.MethodPut, "/api/tasks/"+taskID, token, map[string]any{"completed": true, "deadline": "2027-01-02T10:00:00"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Task updated", decode[messageResponse](t, rec).Message)

	rec = e.do(t, http.MethodPut, "/api/tasks/mock_id_42", token, map[string]any{"completed": true})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = e.do(t, http.MethodPost, "/api/labels", token, map[string]string{"name": "work"})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "mock_id_1", decode[createLabelResponse](t, rec).LabelID)

	rec = e.do(t, http.MethodPatch, "/api/tasks/"+taskID+"/labels", token, map[string]any{"labels": []string{"work"}})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = e.do(t, http.MethodGet, "/api/tasks", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[[]map[string]any](t, rec)
	require.Len(t, list, 1)
	assert.Equal(t, taskID, list[0]["id"])
	assert.Equal(t, true, list[0]["completed"])
	assert.Equal(t, []any{"work"}, list[0]["labels"])
	assert.Equal(t, "2027-01-02T10:00:00Z", list[0]["deadline"])

	rec = e.do(t, http.MethodGet, "/api/labels", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]map[string]any](t, rec), 1)

	// Another user sees none of it.
	other := e.signupAndLogin(t, "bob@example.com")
	rec = e.do(t, http.MethodGet, "/api/tasks", other, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]\n", rec.Body.String())
	rec = e.do(t, http.MethodDelete, "/api/tasks/"+taskID, other, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = e.do(t, http.MethodDelete, "/api/tasks/"+taskID, token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestInvalidJSON(t *testing.T) {
	e := newEnv(t)
	req := httptest.NewRequest(http.MethodPost, "/signup", bytes.NewBufferString("{"))
	rec := httptest.NewRecorder()
	e.h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestNotFoundAndMethodNotAllowed(t *testing.T) {
	e := newEnv(t)
	assert.Equal(t, http.StatusNotFound, e.do(t, http.MethodGet, "/nope", "", nil).Code)
	assert.Equal(t, http.StatusMethodNotAllowed, e.do(t, http.MethodGet, "/signup", "", nil).Code)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{common.ErrorInvalidInput, http.StatusBadRequest},
		{common.ErrorAlreadyExists, http.StatusConflict},
		{common.ErrorInvalidCredentials, http.StatusUnauthorized},
		{common.ErrorUnauthenticated, http.StatusUnauthorized},
		{common.ErrorNotFound, http.StatusNotFound},
		{common.ErrorStorage, http.StatusInternalServerError},
		{context.Canceled, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}
