package docs

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

// Mock repository

type mockDocsRepository struct {
	folders    []*models.UserFolder
	files      []*models.UserFile
	broadcasts []*models.BroadcastDoc
}

func (m *mockDocsRepository) CreateFolder(ctx context.Context, folder *models.UserFolder) error {
	m.folders = append(m.folders, folder)
	return nil
}

func (m *mockDocsRepository) GetFolder(ctx context.Context, id string) (*models.UserFolder, error) {
	for _, f := range m.folders {
		if f.ID == id {
			return f, nil
		}
	}
	return nil, nil
}

func (m *mockDocsRepository) ListRootFolders(ctx context.Context, ownerID string) ([]*models.UserFolder, error) {
	var out []*models.UserFolder
	for _, f := range m.folders {
		if f.OwnerID == ownerID && f.ParentID == nil {
			out = append(out, f)
		}
	}
	return out, nil
}

func (m *mockDocsRepository) ListChildFolders(ctx context.Context, folderID string) ([]*models.UserFolder, error) {
	var out []*models.UserFolder
	for _, f := range m.folders {
		if f.ParentID != nil && *f.ParentID == folderID {
			out = append(out, f)
		}
	}
	return out, nil
}

func (m *mockDocsRepository) CreateFile(ctx context.Context, file *models.UserFile) error {
	m.files = append(m.files, file)
	return nil
}

func (m *mockDocsRepository) GetFile(ctx context.Context, id string) (*models.UserFile, error) {
	for _, f := range m.files {
		if f.ID == id {
			return f, nil
		}
	}
	return nil, nil
}

func (m *mockDocsRepository) ListFilesByFolder(ctx context.Context, folderID string) ([]*models.UserFile, error) {
	var out []*models.UserFile
	for _, f := range m.files {
		if f.FolderID == folderID {
			out = append(out, f)
		}
	}
	return out, nil
}

func (m *mockDocsRepository) MarkRead(ctx context.Context, id string, at time.Time) error {
	for _, f := range m.files {
		if f.ID == id && f.ReadAt == nil {
			t := at
			f.ReadAt = &t
		}
	}
	return nil
}

func (m *mockDocsRepository) Acknowledge(ctx context.Context, id string, at time.Time) error {
	for _, f := range m.files {
		if f.ID == id && f.RequiresAck && f.AckAt == nil {
			t := at
			f.AckAt = &t
		}
	}
	return nil
}

func (m *mockDocsRepository) CreateBroadcast(ctx context.Context, doc *models.BroadcastDoc) error {
	m.broadcasts = append(m.broadcasts, doc)
	return nil
}

func (m *mockDocsRepository) ListBroadcasts(ctx context.Context) ([]*models.BroadcastDoc, error) {
	return m.broadcasts, nil
}

type mockStorage struct {
	docsRepo *mockDocsRepository
}

func (m *mockStorage) Open() error                                 { return nil }
func (m *mockStorage) Close() error                                { return nil }
func (m *mockStorage) Migrate() error                              { return nil }
func (m *mockStorage) EnsureAdminUser() error                      { return nil }
func (m *mockStorage) Users() storage.UserRepository               { return nil }
func (m *mockStorage) Projects() storage.ProjectRepository         { return nil }
func (m *mockStorage) WorkItems() storage.WorkItemRepository       { return nil }
func (m *mockStorage) TimeSessions() storage.TimeSessionRepository { return nil }
func (m *mockStorage) Costs() storage.CostRepository               { return nil }
func (m *mockStorage) Vehicles() storage.VehicleRepository         { return nil }
func (m *mockStorage) Photos() storage.WorkPhotoRepository         { return nil }
func (m *mockStorage) Docs() storage.DocsRepository                { return m.docsRepo }

func newMockStorage() (*mockStorage, *mockDocsRepository) {
	repo := &mockDocsRepository{}
	return &mockStorage{docsRepo: repo}, repo
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

func testFolder(id, ownerID, name string, parentID *string) *models.UserFolder {
	return &models.UserFolder{ID: id, OwnerID: ownerID, Name: name, ParentID: parentID, CreatedAt: time.Now()}
}

func testFile(id, ownerID, folderID string, requiresAck bool) *models.UserFile {
	return &models.UserFile{
		ID: id, OwnerID: ownerID, FolderID: folderID, Title: "Busta paga",
		FileURL: "https://files.example/payslip.pdf", Category: models.FilePayslip,
		RequiresAck: requiresAck, CreatedAt: time.Now(),
	}
}

func TestListRootFolders_OwnOnly(t *testing.T) {
	mockStore, repo := newMockStorage()
	repo.folders = []*models.UserFolder{
		testFolder("fold-1", "worker-1", "Buste paga", nil),
		testFolder("fold-2", "worker-2", "Contratti", nil),
	}

	handler := newTestHandler(mockStore)
	req := httptest.NewRequest("GET", "/api/v1/docs/folders", nil)
	req = asUser(req, "worker-1", models.RoleWorker)
	rec := httptest.NewRecorder()

	handler.ListRootFolders(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var resp struct {
		Data []*models.UserFolder `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Data) != 1 || resp.Data[0].ID != "fold-1" {
		t.Errorf("got %d folders, want only the caller's", len(resp.Data))
	}
}

func TestCreateFolder_ForeignParentForbidden(t *testing.T) {
	mockStore, repo := newMockStorage()
	repo.folders = []*models.UserFolder{testFolder("fold-1", "worker-2", "Contratti", nil)}

	handler := newTestHandler(mockStore)
	body := `{"name": "2026", "parent_id": "fold-1"}`
	req := httptest.NewRequest("POST", "/api/v1/docs/folders", strings.NewReader(body))
	req = asUser(req, "worker-1", models.RoleWorker)
	rec := httptest.NewRecorder()

	handler.CreateFolder(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusForbidden)
	}
}

func TestGetFolder_WithChildrenAndFiles(t *testing.T) {
	mockStore, repo := newMockStorage()
	root := "fold-1"
	repo.folders = []*models.UserFolder{
		testFolder(root, "worker-1", "Buste paga", nil),
		testFolder("fold-2", "worker-1", "2026", &root),
	}
	repo.files = []*models.UserFile{testFile("file-1", "worker-1", root, false)}

	handler := newTestHandler(mockStore)
	req := httptest.NewRequest("GET", "/api/v1/docs/folders/fold-1", nil)
	req = asUser(req, "worker-1", models.RoleWorker)
	req = withURLParam(req, "id", "fold-1")
	rec := httptest.NewRecorder()

	handler.GetFolder(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var resp struct {
		Data struct {
			Folder  *models.UserFolder   `json:"folder"`
			Folders []*models.UserFolder `json:"folders"`
			Files   []*models.UserFile   `json:"files"`
		} `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Data.Folders) != 1 || len(resp.Data.Files) != 1 {
		t.Errorf("children = %d, files = %d, want 1 and 1", len(resp.Data.Folders), len(resp.Data.Files))
	}
}

func TestGetFolder_OtherOwnerForbidden(t *testing.T) {
	mockStore, repo := newMockStorage()
	repo.folders = []*models.UserFolder{testFolder("fold-1", "worker-2", "Contratti", nil)}

	handler := newTestHandler(mockStore)
	req := httptest.NewRequest("GET", "/api/v1/docs/folders/fold-1", nil)
	req = asUser(req, "worker-1", models.RoleWorker)
	req = withURLParam(req, "id", "fold-1")
	rec := httptest.NewRecorder()

	handler.GetFolder(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusForbidden)
	}
}

func TestGetFile_StampsFirstRead(t *testing.T) {
	mockStore, repo := newMockStorage()
	repo.files = []*models.UserFile{testFile("file-1", "worker-1", "fold-1", false)}

	handler := newTestHandler(mockStore)
	req := httptest.NewRequest("GET", "/api/v1/docs/files/file-1", nil)
	req = asUser(req, "worker-1", models.RoleWorker)
	req = withURLParam(req, "id", "file-1")
	rec := httptest.NewRecorder()

	handler.GetFile(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if repo.files[0].ReadAt == nil {
		t.Fatalf("read_at not stamped on first view")
	}

	first := *repo.files[0].ReadAt

	// Second view keeps the original stamp.
	req = httptest.NewRequest("GET", "/api/v1/docs/files/file-1", nil)
	req = asUser(req, "worker-1", models.RoleWorker)
	req = withURLParam(req, "id", "file-1")
	rec = httptest.NewRecorder()

	handler.GetFile(rec, req)

	if !repo.files[0].ReadAt.Equal(first) {
		t.Errorf("read_at changed on second view")
	}
}

func TestGetFile_OtherOwnerForbidden(t *testing.T) {
	mockStore, repo := newMockStorage()
	repo.files = []*models.UserFile{testFile("file-1", "worker-2", "fold-1", false)}

	handler := newTestHandler(mockStore)
	req := httptest.NewRequest("GET", "/api/v1/docs/files/file-1", nil)
	req = asUser(req, "worker-1", models.RoleWorker)
	req = withURLParam(req, "id", "file-1")
	rec := httptest.NewRecorder()

	handler.GetFile(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusForbidden)
	}
}

func TestAcknowledge(t *testing.T) {
	mockStore, repo := newMockStorage()
	repo.files = []*models.UserFile{testFile("file-1", "worker-1", "fold-1", true)}

	handler := newTestHandler(mockStore)
	req := httptest.NewRequest("POST", "/api/v1/docs/files/file-1/ack", nil)
	req = asUser(req, "worker-1", models.RoleWorker)
	req = withURLParam(req, "id", "file-1")
	rec := httptest.NewRecorder()

	handler.Acknowledge(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if repo.files[0].AckAt == nil {
		t.Errorf("ack_at not stamped")
	}
}

func TestAcknowledge_NotRequiredIsNoOp(t *testing.T) {
	mockStore, repo := newMockStorage()
	repo.files = []*models.UserFile{testFile("file-1", "worker-1", "fold-1", false)}

	handler := newTestHandler(mockStore)
	req := httptest.NewRequest("POST", "/api/v1/docs/files/file-1/ack", nil)
	req = asUser(req, "worker-1", models.RoleWorker)
	req = withURLParam(req, "id", "file-1")
	rec := httptest.NewRecorder()

	handler.Acknowledge(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if repo.files[0].AckAt != nil {
		t.Errorf("ack_at stamped on file that does not require it")
	}
}

func TestCreateBroadcast(t *testing.T) {
	mockStore, repo := newMockStorage()
	handler := newTestHandler(mockStore)

	body := `{"title": "Chiusura ferragosto", "body": "Cantieri chiusi dal 12 al 16."}`
	req := httptest.NewRequest("POST", "/api/v1/docs/broadcasts", strings.NewReader(body))
	req = asUser(req, "staff-1", models.RoleStaff)
	rec := httptest.NewRecorder()

	handler.CreateBroadcast(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d; body: %s", rec.Code, http.StatusCreated, rec.Body.String())
	}
	if len(repo.broadcasts) != 1 {
		t.Fatalf("stored broadcasts = %d, want 1", len(repo.broadcasts))
	}
	if repo.broadcasts[0].CreatedBy == nil || *repo.broadcasts[0].CreatedBy != "staff-1" {
		t.Errorf("creator not recorded")
	}
}
