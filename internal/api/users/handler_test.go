package users

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/calm-red-fox/siteops/internal/api/middleware"
	"github.com/calm-red-fox/siteops/internal/models"
	"github.com/calm-red-fox/siteops/internal/storage"
)

type mockUserRepository struct {
	users []*models.User
}

func (m *mockUserRepository) Create(ctx context.Context, user *models.User) error {
	m.users = append(m.users, user)
	return nil
}

func (m *mockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	for _, u := range m.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, nil
}

func (m *mockUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	for _, u := range m.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, nil
}

func (m *mockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (m *mockUserRepository) Update(ctx context.Context, user *models.User) error {
	for i, u := range m.users {
		if u.ID == user.ID {
			m.users[i] = user
		}
	}
	return nil
}

func (m *mockUserRepository) Delete(ctx context.Context, id string) error {
	for i, u := range m.users {
		if u.ID == id {
			m.users = append(m.users[:i], m.users[i+1:]...)
			return nil
		}
	}
	return models.ErrNotFound
}

func (m *mockUserRepository) List(ctx context.Context) ([]*models.User, error) { return m.users, nil }
func (m *mockUserRepository) Count(ctx context.Context) (int64, error) {
	return int64(len(m.users)), nil
}

type mockStorage struct {
	userRepo *mockUserRepository
}

func (m *mockStorage) Open() error                                 { return nil }
func (m *mockStorage) Close() error                                { return nil }
func (m *mockStorage) Migrate() error                              { return nil }
func (m *mockStorage) EnsureAdminUser() error                      { return nil }
func (m *mockStorage) Users() storage.UserRepository               { return m.userRepo }
func (m *mockStorage) Projects() storage.ProjectRepository         { return nil }
func (m *mockStorage) WorkItems() storage.WorkItemRepository       { return nil }
func (m *mockStorage) TimeSessions() storage.TimeSessionRepository { return nil }
func (m *mockStorage) Costs() storage.CostRepository               { return nil }
func (m *mockStorage) Vehicles() storage.VehicleRepository         { return nil }
func (m *mockStorage) Photos() storage.WorkPhotoRepository         { return nil }
func (m *mockStorage) Docs() storage.DocsRepository                { return nil }

func newMockStorage() (*mockStorage, *mockUserRepository) {
	repo := &mockUserRepository{}
	return &mockStorage{userRepo: repo}, repo
}

func newTestHandler(store storage.Storage) *Handler {
	return NewHandler(store, zap.NewNop().Sugar())
}

func asUser(req *http.Request, userID string, role models.Role) *http.Request {
	return req.WithContext(middleware.WithIdentity(req.Context(), userID, "someone", role))
}

func withURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func testUser(id, username, email string, role models.Role) *models.User {
	now := time.Now()
	return &models.User{
		ID: id, Username: username, Email: email, Role: role,
		CreatedAt: now, UpdatedAt: now,
	}
}

func TestCreate_Success(t *testing.T) {
	mockStore, repo := newMockStorage()
	handler := newTestHandler(mockStore)

	body := `{"username": "mario", "email": "mario@example.com", "password": "Yellowhat123", "first_name": "Mario", "role": "worker"}`
	req := httptest.NewRequest("POST", "/api/v1/users", strings.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d; body: %s", rec.Code, http.StatusCreated, rec.Body.String())
	}
	if len(repo.users) != 1 {
		t.Fatalf("stored users = %d, want 1", len(repo.users))
	}
	if repo.users[0].Role != models.RoleWorker {
		t.Errorf("role = %q, want worker", repo.users[0].Role)
	}
	if repo.users[0].PasswordHash == "Yellowhat123" {
		t.Error("password stored in clear")
	}
}

func TestCreate_UsernameConflict(t *testing.T) {
	mockStore, repo := newMockStorage()
	repo.users = []*models.User{testUser("user-1", "mario", "mario@example.com", models.RoleWorker)}

	handler := newTestHandler(mockStore)
	body := `{"username": "mario", "email": "other@example.com", "password": "Yellowhat123", "role": "worker"}`
	req := httptest.NewRequest("POST", "/api/v1/users", strings.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusConflict)
	}
}

func TestCreate_WeakPassword(t *testing.T) {
	mockStore, _ := newMockStorage()
	handler := newTestHandler(mockStore)

	body := `{"username": "mario", "email": "mario@example.com", "password": "short", "role": "worker"}`
	req := httptest.NewRequest("POST", "/api/v1/users", strings.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestCreate_BadRole(t *testing.T) {
	mockStore, _ := newMockStorage()
	handler := newTestHandler(mockStore)

	body := `{"username": "mario", "email": "mario@example.com", "password": "Yellowhat123", "role": "superuser"}`
	req := httptest.NewRequest("POST", "/api/v1/users", strings.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestUpdate_RoleChangeByNonAdminForbidden(t *testing.T) {
	mockStore, repo := newMockStorage()
	repo.users = []*models.User{testUser("user-1", "mario", "mario@example.com", models.RoleWorker)}

	handler := newTestHandler(mockStore)
	body := `{"role": "admin"}`
	req := httptest.NewRequest("PUT", "/api/v1/users/user-1", strings.NewReader(body))
	req = asUser(req, "user-1", models.RoleWorker)
	req = withURLParam(req, "id", "user-1")
	rec := httptest.NewRecorder()

	handler.Update(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusForbidden)
	}
}

func TestUpdate_AdminCannotDemoteSelf(t *testing.T) {
	mockStore, repo := newMockStorage()
	repo.users = []*models.User{testUser("admin-1", "boss", "boss@example.com", models.RoleAdmin)}

	handler := newTestHandler(mockStore)
	body := `{"role": "worker"}`
	req := httptest.NewRequest("PUT", "/api/v1/users/admin-1", strings.NewReader(body))
	req = asUser(req, "admin-1", models.RoleAdmin)
	req = withURLParam(req, "id", "admin-1")
	rec := httptest.NewRecorder()

	handler.Update(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestUpdate_Names(t *testing.T) {
	mockStore, repo := newMockStorage()
	repo.users = []*models.User{testUser("user-1", "mario", "mario@example.com", models.RoleWorker)}

	handler := newTestHandler(mockStore)
	body := `{"first_name": "Mario", "last_name": "Bianchi"}`
	req := httptest.NewRequest("PUT", "/api/v1/users/user-1", strings.NewReader(body))
	req = asUser(req, "user-1", models.RoleWorker)
	req = withURLParam(req, "id", "user-1")
	rec := httptest.NewRecorder()

	handler.Update(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d; body: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	if repo.users[0].FirstName != "Mario" || repo.users[0].LastName != "Bianchi" {
		t.Errorf("names = %q %q, want Mario Bianchi", repo.users[0].FirstName, repo.users[0].LastName)
	}
}

func TestDelete_SelfRejected(t *testing.T) {
	mockStore, repo := newMockStorage()
	repo.users = []*models.User{testUser("admin-1", "boss", "boss@example.com", models.RoleAdmin)}

	handler := newTestHandler(mockStore)
	req := httptest.NewRequest("DELETE", "/api/v1/users/admin-1", nil)
	req = asUser(req, "admin-1", models.RoleAdmin)
	req = withURLParam(req, "id", "admin-1")
	rec := httptest.NewRecorder()

	handler.Delete(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if len(repo.users) != 1 {
		t.Errorf("own account deleted")
	}
}

func TestGetCurrentUser(t *testing.T) {
	mockStore, repo := newMockStorage()
	repo.users = []*models.User{testUser("user-1", "mario", "mario@example.com", models.RoleWorker)}

	handler := newTestHandler(mockStore)
	req := httptest.NewRequest("GET", "/api/v1/users/me", nil)
	req = asUser(req, "user-1", models.RoleWorker)
	rec := httptest.NewRecorder()

	handler.GetCurrentUser(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var resp struct {
		Data *UserResponse `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Data.Username != "mario" {
		t.Errorf("username = %q, want mario", resp.Data.Username)
	}
}

func TestChangePassword(t *testing.T) {
	mockStore, repo := newMockStorage()
	hash, err := bcrypt.GenerateFromPassword([]byte("OldSecret123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	user := testUser("user-1", "mario", "mario@example.com", models.RoleWorker)
	user.PasswordHash = string(hash)
	repo.users = []*models.User{user}

	handler := newTestHandler(mockStore)

	// Wrong current password
	body := `{"current_password": "Nonsense123", "new_password": "NewSecret456"}`
	req := httptest.NewRequest("PUT", "/api/v1/users/me/password", strings.NewReader(body))
	req = asUser(req, "user-1", models.RoleWorker)
	rec := httptest.NewRecorder()

	handler.ChangePassword(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}

	// Correct current password
	body = `{"current_password": "OldSecret123", "new_password": "NewSecret456"}`
	req = httptest.NewRequest("PUT", "/api/v1/users/me/password", strings.NewReader(body))
	req = asUser(req, "user-1", models.RoleWorker)
	rec = httptest.NewRecorder()

	handler.ChangePassword(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d; body: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	if bcrypt.CompareHashAndPassword([]byte(repo.users[0].PasswordHash), []byte("NewSecret456")) != nil {
		t.Errorf("new password not stored")
	}
}
