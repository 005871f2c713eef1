package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"account-api/internal/apperror"
	"account-api/internal/domain"
	"account-api/internal/service"
)

type mockUserRepo struct {
	usersByID    map[string]domain.User
	usersByEmail map[string]string
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{
		usersByID:    make(map[string]domain.User),
		usersByEmail: make(map[string]string),
	}
}

func (m *mockUserRepo) Create(_ context.Context, user domain.User) error {
	m.usersByID[user.ID] = user
	m.usersByEmail[user.Email] = user.ID
	return nil
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (domain.User, error) {
	id, ok := m.usersByEmail[email]
	if !ok {
		return domain.User{}, pgx.ErrNoRows
	}
	return m.usersByID[id], nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (domain.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return domain.User{}, apperror.NewCast("id", id)
	}
	user, ok := m.usersByID[id]
	if !ok {
		return domain.User{}, pgx.ErrNoRows
	}
	return user, nil
}

func (m *mockUserRepo) GetByIDAndToken(_ context.Context, id, token string) (domain.User, error) {
	user, ok := m.usersByID[id]
	if !ok {
		return domain.User{}, pgx.ErrNoRows
	}
	for _, t := range user.Tokens {
		if t == token {
			return user, nil
		}
	}
	return domain.User{}, pgx.ErrNoRows
}

func (m *mockUserRepo) Update(_ context.Context, user domain.User) (domain.User, error) {
	stored, ok := m.usersByID[user.ID]
	if !ok {
		return domain.User{}, pgx.ErrNoRows
	}
	stored.Password = user.Password
	stored.FirstName = user.FirstName
	stored.LastName = user.LastName
	stored.UpdatedAt = time.Now().UTC()
	m.usersByID[user.ID] = stored
	return stored, nil
}

func (m *mockUserRepo) AppendToken(_ context.Context, id, token string) error {
	user, ok := m.usersByID[id]
	if !ok {
		return pgx.ErrNoRows
	}
	user.Tokens = append(user.Tokens, token)
	m.usersByID[id] = user
	return nil
}

func (m *mockUserRepo) RemoveToken(_ context.Context, id, token string) error {
	user, ok := m.usersByID[id]
	if !ok {
		return pgx.ErrNoRows
	}
	kept := user.Tokens[:0]
	for _, t := range user.Tokens {
		if t != token {
			kept = append(kept, t)
		}
	}
	user.Tokens = kept
	m.usersByID[id] = user
	return nil
}

func setupRouter(repo *mockUserRepo) *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()
	tokens := service.NewTokenService("secret", time.Hour, 7*24*time.Hour)
	userSvc := service.NewUserService(logger, repo, tokens)
	h := NewUserHandler(logger, userSvc)
	return NewRouter(logger, false, nil, h, AuthMiddleware(tokens, repo))
}

func performRequest(r http.Handler, method, path string, body any, token string) *httptest.ResponseRecorder {
	var payload []byte
	if body != nil {
		payload, _ = json.Marshal(body)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	return body
}

var registerBody = map[string]any{
	"email":     "user@example.com",
	"password":  "password123",
	"firstName": "Test",
	"lastName":  "User",
}

func registerUser(t *testing.T, r http.Handler) {
	t.Helper()
	rec := performRequest(r, http.MethodPost, "/api/users/register", registerBody, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
}

func loginUser(t *testing.T, r http.Handler) string {
	t.Helper()
	rec := performRequest(r, http.MethodPost, "/api/users/login", map[string]any{
		"email":    "user@example.com",
		"password": "password123",
	}, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	token, _ := body["token"].(string)
	if token == "" {
		t.Fatalf("login: expected token, got %s", rec.Body.String())
	}
	return token
}

func TestRegister_CreatesSanitizedUser(t *testing.T) {
	r := setupRouter(newMockUserRepo())

	rec := performRequest(r, http.MethodPost, "/api/users/register", registerBody, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	body := decodeBody(t, rec)
	if body["message"] != "User created successfully" {
		t.Fatalf("unexpected message: %v", body["message"])
	}
	data, ok := body["data"].(map[string]any)
	if !ok {
		t.Fatalf("expected data object, got %s", rec.Body.String())
	}
	if data["email"] != "user@example.com" {
		t.Fatalf("unexpected email: %v", data["email"])
	}
	if _, leaked := data["password"]; leaked {
		t.Fatalf("password leaked in response")
	}
	if _, leaked := data["tokens"]; leaked {
		t.Fatalf("tokens leaked in response")
	}
}

func TestRegister_DuplicateEmailConflicts(t *testing.T) {
	r := setupRouter(newMockUserRepo())
	registerUser(t, r)

	rec := performRequest(r, http.MethodPost, "/api/users/register", registerBody, "")
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["message"] != "This user is already exist" {
		t.Fatalf("unexpected message: %v", body["message"])
	}
}

func TestRegister_EmptyFields(t *testing.T) {
	r := setupRouter(newMockUserRepo())

	rec := performRequest(r, http.MethodPost, "/api/users/register", map[string]any{
		"email":     "",
		"password":  "",
		"firstName": "",
		"lastName":  "",
	}, "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}

	body := decodeBody(t, rec)
	fields, ok := body["errors"].(map[string]any)
	if !ok {
		t.Fatalf("expected errors map, got %s", rec.Body.String())
	}
	if len(fields) != 4 {
		t.Fatalf("expected 4 field errors, got %d: %v", len(fields), fields)
	}
	for _, field := range []string{"email", "password", "firstName", "lastName"} {
		if _, ok := fields[field]; !ok {
			t.Fatalf("missing error for %s: %v", field, fields)
		}
	}
}

func TestRegister_InvalidEmailAndShortFields(t *testing.T) {
	r := setupRouter(newMockUserRepo())

	rec := performRequest(r, http.MethodPost, "/api/users/register", map[string]any{
		"email":     "not-an-email",
		"password":  "short",
		"firstName": "A",
		"lastName":  "User",
	}, "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}

	fields, ok := decodeBody(t, rec)["errors"].(map[string]any)
	if !ok {
		t.Fatalf("expected errors map, got %s", rec.Body.String())
	}
	if fields["email"] != "Invalid email" {
		t.Fatalf("unexpected email error: %v", fields["email"])
	}
	if fields["password"] != "Password is required" {
		t.Fatalf("unexpected password error: %v", fields["password"])
	}
	if fields["firstName"] != "Too Short!" {
		t.Fatalf("unexpected firstName error: %v", fields["firstName"])
	}
	if _, ok := fields["lastName"]; ok {
		t.Fatalf("lastName should be valid: %v", fields)
	}
}

func TestLogin_TokenAcceptedByGate(t *testing.T) {
	r := setupRouter(newMockUserRepo())
	registerUser(t, r)
	token := loginUser(t, r)

	rec := performRequest(r, http.MethodGet, "/api/users/me", nil, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	user, ok := body["user"].(map[string]any)
	if !ok || user["email"] != "user@example.com" {
		t.Fatalf("unexpected user: %s", rec.Body.String())
	}
}

func TestLogin_ReturnsFutureExpiry(t *testing.T) {
	r := setupRouter(newMockUserRepo())
	registerUser(t, r)

	rec := performRequest(r, http.MethodPost, "/api/users/login", map[string]any{
		"email":    "user@example.com",
		"password": "password123",
	}, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	expiresIn, ok := body["expiresIn"].(float64)
	if !ok || int64(expiresIn) <= time.Now().Unix() {
		t.Fatalf("expected future expiry, got %v", body["expiresIn"])
	}
}

func TestLogin_FailuresIndistinguishable(t *testing.T) {
	r := setupRouter(newMockUserRepo())
	registerUser(t, r)

	wrongPass := performRequest(r, http.MethodPost, "/api/users/login", map[string]any{
		"email":    "user@example.com",
		"password": "wrongpass123",
	}, "")
	unknown := performRequest(r, http.MethodPost, "/api/users/login", map[string]any{
		"email":    "nobody@example.com",
		"password": "password123",
	}, "")

	if wrongPass.Code != http.StatusUnauthorized || unknown.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401/401, got %d/%d", wrongPass.Code, unknown.Code)
	}
	if wrongPass.Body.String() != unknown.Body.String() {
		t.Fatalf("login failures distinguishable: %s vs %s", wrongPass.Body.String(), unknown.Body.String())
	}
	if decodeBody(t, wrongPass)["message"] != "Unable to login" {
		t.Fatalf("unexpected message: %s", wrongPass.Body.String())
	}
}

func TestLogout_RevokesToken(t *testing.T) {
	r := setupRouter(newMockUserRepo())
	registerUser(t, r)
	token := loginUser(t, r)

	rec := performRequest(r, http.MethodGet, "/api/users/logout", nil, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if decodeBody(t, rec)["status"] != "success" {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}

	// El token sigue firmado y sin expirar, pero ya no está en la lista.
	rec = performRequest(r, http.MethodGet, "/api/users/me", nil, token)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 after logout, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestUpdateMe_RequiresAField(t *testing.T) {
	repo := newMockUserRepo()
	r := setupRouter(repo)
	registerUser(t, r)
	token := loginUser(t, r)

	// Un body vacío y uno con solo campos no reconocidos (el email es
	// inmutable por esta vía) fallan igual.
	for _, payload := range []map[string]any{
		{},
		{"email": "new@example.com"},
	} {
		rec := performRequest(r, http.MethodPatch, "/api/users/me", payload, token)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("payload %v: expected 400, got %d: %s", payload, rec.Code, rec.Body.String())
		}
		fields, ok := decodeBody(t, rec)["errors"].(map[string]any)
		if !ok {
			t.Fatalf("expected errors map, got %s", rec.Body.String())
		}
		if _, ok := fields["all"]; !ok {
			t.Fatalf("expected catch-all error, got %v", fields)
		}
	}

	id := repo.usersByEmail["user@example.com"]
	if repo.usersByID[id].Email != "user@example.com" {
		t.Fatalf("email changed via self update")
	}
}

func TestUpdateMe_SingleFieldPersists(t *testing.T) {
	repo := newMockUserRepo()
	r := setupRouter(repo)
	registerUser(t, r)
	token := loginUser(t, r)

	rec := performRequest(r, http.MethodPatch, "/api/users/me", map[string]any{
		"firstName": "Updated",
	}, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	user, ok := body["user"].(map[string]any)
	if !ok || user["firstName"] != "Updated" {
		t.Fatalf("unexpected user: %s", rec.Body.String())
	}

	id := repo.usersByEmail["user@example.com"]
	if repo.usersByID[id].FirstName != "Updated" {
		t.Fatalf("update not persisted")
	}
	if repo.usersByID[id].LastName != "User" {
		t.Fatalf("unrelated field changed")
	}
}

func TestUpdateByAdmin_Matrix(t *testing.T) {
	repo := newMockUserRepo()
	r := setupRouter(repo)
	registerUser(t, r)
	token := loginUser(t, r)

	id := repo.usersByEmail["user@example.com"]
	payload := map[string]any{"firstName": "New", "lastName": "Name"}

	rec := performRequest(r, http.MethodPatch, "/api/users/"+id, payload, token)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin, got %d: %s", rec.Code, rec.Body.String())
	}
	if decodeBody(t, rec)["message"] != "Not allowed" {
		t.Fatalf("unexpected message: %s", rec.Body.String())
	}

	// Promover a admin directamente en el repositorio.
	admin := repo.usersByID[id]
	admin.Roles = append(admin.Roles, domain.RoleAdmin)
	repo.usersByID[id] = admin

	rec = performRequest(r, http.MethodPatch, "/api/users/"+uuid.NewString(), payload, token)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown id, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = performRequest(r, http.MethodPatch, "/api/users/abc", payload, token)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed id, got %d: %s", rec.Code, rec.Body.String())
	}
	if decodeBody(t, rec)["message"] != "Invalid value for id: abc!" {
		t.Fatalf("unexpected message: %s", rec.Body.String())
	}

	rec = performRequest(r, http.MethodPatch, "/api/users/"+id, payload, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["message"] != "User updated" {
		t.Fatalf("unexpected message: %s", rec.Body.String())
	}
	if repo.usersByID[id].FirstName != "New" {
		t.Fatalf("admin update not persisted")
	}
}

func TestUnmatchedRoutesReturn404(t *testing.T) {
	r := setupRouter(newMockUserRepo())

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/unknown"},
		{http.MethodDelete, "/api/users/register"},
		{http.MethodPost, "/"},
	} {
		rec := performRequest(r, tc.method, tc.path, nil, "")
		if rec.Code != http.StatusNotFound {
			t.Fatalf("%s %s: expected 404, got %d", tc.method, tc.path, rec.Code)
		}
		if decodeBody(t, rec)["message"] != "Not found path" {
			t.Fatalf("%s %s: unexpected body %s", tc.method, tc.path, rec.Body.String())
		}
	}
}
