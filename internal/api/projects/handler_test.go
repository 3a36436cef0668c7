package projects

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

	"github.com/calm-red-fox/siteops/internal/models"
	"github.com/calm-red-fox/siteops/internal/storage"
)

// Mock repositories

type mockProjectRepository struct {
	projects     []*models.Project
	getByIDError error
	createError  error
	listError    error
}

func (m *mockProjectRepository) Create(ctx context.Context, project *models.Project) error {
	if m.createError != nil {
		return m.createError
	}
	m.projects = append(m.projects, project)
	return nil
}

func (m *mockProjectRepository) GetByID(ctx context.Context, id string) (*models.Project, error) {
	if m.getByIDError != nil {
		return nil, m.getByIDError
	}
	for _, p := range m.projects {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, nil
}

func (m *mockProjectRepository) GetByName(ctx context.Context, name string) (*models.Project, error) {
	for _, p := range m.projects {
		if p.Name == name {
			return p, nil
		}
	}
	return nil, nil
}

func (m *mockProjectRepository) Update(ctx context.Context, project *models.Project) error {
	for i, p := range m.projects {
		if p.ID == project.ID {
			m.projects[i] = project
		}
	}
	return nil
}

func (m *mockProjectRepository) Delete(ctx context.Context, id string) error {
	for i, p := range m.projects {
		if p.ID == id {
			m.projects = append(m.projects[:i], m.projects[i+1:]...)
			return nil
		}
	}
	return models.ErrNotFound
}

func (m *mockProjectRepository) List(ctx context.Context) ([]*models.Project, error) {
	if m.listError != nil {
		return nil, m.listError
	}
	return m.projects, nil
}

func (m *mockProjectRepository) ListRecent(ctx context.Context, limit int) ([]*models.Project, error) {
	if limit > len(m.projects) {
		limit = len(m.projects)
	}
	return m.projects[:limit], nil
}

func (m *mockProjectRepository) Count(ctx context.Context) (int64, error) {
	return int64(len(m.projects)), nil
}

type mockStorage struct {
	projectRepo *mockProjectRepository
}

func (m *mockStorage) Open() error                              { return nil }
func (m *mockStorage) Close() error                             { return nil }
func (m *mockStorage) Migrate() error                           { return nil }
func (m *mockStorage) EnsureAdminUser() error                   { return nil }
func (m *mockStorage) Users() storage.UserRepository            { return nil }
func (m *mockStorage) Projects() storage.ProjectRepository      { return m.projectRepo }
func (m *mockStorage) WorkItems() storage.WorkItemRepository    { return nil }
func (m *mockStorage) TimeSessions() storage.TimeSessionRepository { return nil }
func (m *mockStorage) Costs() storage.CostRepository            { return nil }
func (m *mockStorage) Vehicles() storage.VehicleRepository      { return nil }
func (m *mockStorage) Photos() storage.WorkPhotoRepository      { return nil }
func (m *mockStorage) Docs() storage.DocsRepository             { return nil }

func newMockStorage() (*mockStorage, *mockProjectRepository) {
	repo := &mockProjectRepository{}
	return &mockStorage{projectRepo: repo}, repo
}

func newTestHandler(store storage.Storage) *Handler {
	return NewHandler(store, zap.NewNop().Sugar())
}

func withURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestList(t *testing.T) {
	mockStore, mockRepo := newMockStorage()
	now := time.Now()
	mockRepo.projects = []*models.Project{
		{ID: "proj-1", Name: "Cantiere Nord", Status: models.ProjectActive, CreatedAt: now, UpdatedAt: now},
		{ID: "proj-2", Name: "Cantiere Sud", Status: models.ProjectActive, CreatedAt: now, UpdatedAt: now},
	}

	handler := newTestHandler(mockStore)
	req := httptest.NewRequest("GET", "/api/v1/projects", nil)
	rec := httptest.NewRecorder()

	handler.List(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var resp struct {
		Data []*models.Project `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Data) != 2 {
		t.Errorf("items count = %d, want 2", len(resp.Data))
	}
}

func TestCreate_Success(t *testing.T) {
	mockStore, mockRepo := newMockStorage()
	handler := newTestHandler(mockStore)

	body := `{"name": "Villa Rossi", "client_name": "Rossi SRL", "budget_eur": 120000}`
	req := httptest.NewRequest("POST", "/api/v1/projects", strings.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d; body: %s", rec.Code, http.StatusCreated, rec.Body.String())
	}

	var resp struct {
		Data *models.Project `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Data.Name != "Villa Rossi" {
		t.Errorf("name = %q, want 'Villa Rossi'", resp.Data.Name)
	}
	if resp.Data.Status != models.ProjectActive {
		t.Errorf("status = %q, want active", resp.Data.Status)
	}
	if len(mockRepo.projects) != 1 {
		t.Errorf("stored projects = %d, want 1", len(mockRepo.projects))
	}
}

func TestCreate_NameConflict(t *testing.T) {
	mockStore, mockRepo := newMockStorage()
	now := time.Now()
	mockRepo.projects = []*models.Project{
		{ID: "proj-1", Name: "Existing", CreatedAt: now, UpdatedAt: now},
	}

	handler := newTestHandler(mockStore)
	body := `{"name": "Existing"}`
	req := httptest.NewRequest("POST", "/api/v1/projects", strings.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusConflict)
	}
}

func TestCreate_MissingName(t *testing.T) {
	mockStore, _ := newMockStorage()
	handler := newTestHandler(mockStore)

	body := `{"client_name": "Rossi SRL"}`
	req := httptest.NewRequest("POST", "/api/v1/projects", strings.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestGetByID_Found(t *testing.T) {
	mockStore, mockRepo := newMockStorage()
	now := time.Now()
	mockRepo.projects = []*models.Project{
		{ID: "proj-1", Name: "Cantiere Nord", CreatedAt: now, UpdatedAt: now},
	}

	handler := newTestHandler(mockStore)
	req := httptest.NewRequest("GET", "/api/v1/projects/proj-1", nil)
	req = withURLParam(req, "id", "proj-1")
	rec := httptest.NewRecorder()

	handler.GetByID(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestGetByID_NotFound(t *testing.T) {
	mockStore, _ := newMockStorage()
	handler := newTestHandler(mockStore)

	req := httptest.NewRequest("GET", "/api/v1/projects/missing", nil)
	req = withURLParam(req, "id", "missing")
	rec := httptest.NewRecorder()

	handler.GetByID(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestUpdate_PartialFields(t *testing.T) {
	mockStore, mockRepo := newMockStorage()
	now := time.Now()
	mockRepo.projects = []*models.Project{
		{ID: "proj-1", Name: "Cantiere Nord", ClientName: "ACME", Status: models.ProjectActive, CreatedAt: now, UpdatedAt: now},
	}

	handler := newTestHandler(mockStore)
	body := `{"status": "paused"}`
	req := httptest.NewRequest("PUT", "/api/v1/projects/proj-1", strings.NewReader(body))
	req = withURLParam(req, "id", "proj-1")
	rec := httptest.NewRecorder()

	handler.Update(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d; body: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	if mockRepo.projects[0].Status != models.ProjectPaused {
		t.Errorf("status = %q, want paused", mockRepo.projects[0].Status)
	}
	if mockRepo.projects[0].ClientName != "ACME" {
		t.Errorf("client name changed on partial update: %q", mockRepo.projects[0].ClientName)
	}
}

func TestUpdate_BadStatus(t *testing.T) {
	mockStore, mockRepo := newMockStorage()
	now := time.Now()
	mockRepo.projects = []*models.Project{
		{ID: "proj-1", Name: "Cantiere Nord", Status: models.ProjectActive, CreatedAt: now, UpdatedAt: now},
	}

	handler := newTestHandler(mockStore)
	body := `{"status": "archived"}`
	req := httptest.NewRequest("PUT", "/api/v1/projects/proj-1", strings.NewReader(body))
	req = withURLParam(req, "id", "proj-1")
	rec := httptest.NewRecorder()

	handler.Update(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestDelete(t *testing.T) {
	mockStore, mockRepo := newMockStorage()
	now := time.Now()
	mockRepo.projects = []*models.Project{
		{ID: "proj-1", Name: "Cantiere Nord", CreatedAt: now, UpdatedAt: now},
	}

	handler := newTestHandler(mockStore)
	req := httptest.NewRequest("DELETE", "/api/v1/projects/proj-1", nil)
	req = withURLParam(req, "id", "proj-1")
	rec := httptest.NewRecorder()

	handler.Delete(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNoContent)
	}
	if len(mockRepo.projects) != 0 {
		t.Errorf("stored projects = %d, want 0", len(mockRepo.projects))
	}
}
