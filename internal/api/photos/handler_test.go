package photos

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

	"github.com/calm-red-fox/siteops/internal/api/middleware"
	"github.com/calm-red-fox/siteops/internal/models"
	"github.com/calm-red-fox/siteops/internal/storage"
)

type mockPhotoRepository struct {
	photos []*models.WorkPhoto
}

func (m *mockPhotoRepository) Create(ctx context.Context, photo *models.WorkPhoto) error {
	m.photos = append(m.photos, photo)
	return nil
}

func (m *mockPhotoRepository) ListByProject(ctx context.Context, projectID string) ([]*models.WorkPhoto, error) {
	var out []*models.WorkPhoto
	for _, p := range m.photos {
		if p.ProjectID == projectID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockPhotoRepository) Delete(ctx context.Context, id string) error { return nil }

type mockProjectRepository struct {
	projects []*models.Project
}

func (m *mockProjectRepository) Create(ctx context.Context, project *models.Project) error { return nil }
func (m *mockProjectRepository) GetByID(ctx context.Context, id string) (*models.Project, error) {
	for _, p := range m.projects {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, nil
}
func (m *mockProjectRepository) GetByName(ctx context.Context, name string) (*models.Project, error) {
	return nil, nil
}
func (m *mockProjectRepository) Update(ctx context.Context, project *models.Project) error { return nil }
func (m *mockProjectRepository) Delete(ctx context.Context, id string) error               { return nil }
func (m *mockProjectRepository) List(ctx context.Context) ([]*models.Project, error)       { return m.projects, nil }
func (m *mockProjectRepository) ListRecent(ctx context.Context, limit int) ([]*models.Project, error) {
	return m.projects, nil
}
func (m *mockProjectRepository) Count(ctx context.Context) (int64, error) {
	return int64(len(m.projects)), nil
}

type mockStorage struct {
	photoRepo   *mockPhotoRepository
	projectRepo *mockProjectRepository
}

func (m *mockStorage) Open() error                                 { return nil }
func (m *mockStorage) Close() error                                { return nil }
func (m *mockStorage) Migrate() error                              { return nil }
func (m *mockStorage) EnsureAdminUser() error                      { return nil }
func (m *mockStorage) Users() storage.UserRepository               { return nil }
func (m *mockStorage) Projects() storage.ProjectRepository         { return m.projectRepo }
func (m *mockStorage) WorkItems() storage.WorkItemRepository       { return nil }
func (m *mockStorage) TimeSessions() storage.TimeSessionRepository { return nil }
func (m *mockStorage) Costs() storage.CostRepository               { return nil }
func (m *mockStorage) Vehicles() storage.VehicleRepository         { return nil }
func (m *mockStorage) Photos() storage.WorkPhotoRepository         { return m.photoRepo }
func (m *mockStorage) Docs() storage.DocsRepository                { return nil }

func newMockStorage() (*mockStorage, *mockPhotoRepository) {
	photoRepo := &mockPhotoRepository{}
	projectRepo := &mockProjectRepository{
		projects: []*models.Project{{ID: "proj-1", Name: "Cantiere Nord"}},
	}
	return &mockStorage{photoRepo: photoRepo, projectRepo: projectRepo}, photoRepo
}

func withURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestCreate_Success(t *testing.T) {
	mockStore, repo := newMockStorage()
	handler := NewHandler(mockStore, zap.NewNop().Sugar())

	body := `{"url": "https://files.example/site.jpg", "description": "getto fondazioni"}`
	req := httptest.NewRequest("POST", "/api/v1/projects/proj-1/photos", strings.NewReader(body))
	req = req.WithContext(middleware.WithIdentity(req.Context(), "worker-1", "mario", models.RoleWorker))
	req = withURLParam(req, "id", "proj-1")
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d; body: %s", rec.Code, http.StatusCreated, rec.Body.String())
	}
	if len(repo.photos) != 1 {
		t.Fatalf("stored photos = %d, want 1", len(repo.photos))
	}
	if repo.photos[0].UserID != "worker-1" {
		t.Errorf("user = %q, want worker-1", repo.photos[0].UserID)
	}
}

func TestCreate_MissingURL(t *testing.T) {
	mockStore, _ := newMockStorage()
	handler := NewHandler(mockStore, zap.NewNop().Sugar())

	body := `{"description": "senza foto"}`
	req := httptest.NewRequest("POST", "/api/v1/projects/proj-1/photos", strings.NewReader(body))
	req = withURLParam(req, "id", "proj-1")
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestCreate_ProjectMissing(t *testing.T) {
	mockStore, _ := newMockStorage()
	handler := NewHandler(mockStore, zap.NewNop().Sugar())

	body := `{"url": "https://files.example/site.jpg"}`
	req := httptest.NewRequest("POST", "/api/v1/projects/missing/photos", strings.NewReader(body))
	req = withURLParam(req, "id", "missing")
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestListByProject(t *testing.T) {
	mockStore, repo := newMockStorage()
	repo.photos = []*models.WorkPhoto{
		{ID: "photo-1", ProjectID: "proj-1", UserID: "worker-1", URL: "https://files.example/a.jpg", CreatedAt: time.Now()},
		{ID: "photo-2", ProjectID: "proj-2", UserID: "worker-1", URL: "https://files.example/b.jpg", CreatedAt: time.Now()},
	}

	handler := NewHandler(mockStore, zap.NewNop().Sugar())
	req := httptest.NewRequest("GET", "/api/v1/projects/proj-1/photos", nil)
	req = withURLParam(req, "id", "proj-1")
	rec := httptest.NewRecorder()

	handler.ListByProject(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var resp struct {
		Data []*models.WorkPhoto `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Data) != 1 || resp.Data[0].ID != "photo-1" {
		t.Errorf("got %d photos, want only the project's own", len(resp.Data))
	}
}
