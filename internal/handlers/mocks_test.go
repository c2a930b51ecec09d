package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/benvon/lockin/internal/database"
	"github.com/benvon/lockin/internal/heatmap"
	"github.com/benvon/lockin/internal/models"
	"github.com/benvon/lockin/internal/queue"
	"github.com/benvon/lockin/internal/request"
	"github.com/benvon/lockin/internal/services/hype"
	"github.com/benvon/lockin/internal/services/insights"
	"github.com/benvon/lockin/internal/services/oidc"
	"github.com/benvon/lockin/internal/stats"
	"github.com/benvon/lockin/internal/storage"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

var (
	_ database.TaskRepositoryInterface    = (*mockTaskRepo)(nil)
	_ database.WorkLogRepositoryInterface = (*mockWorkLogRepo)(nil)
	_ database.SessionRepositoryInterface = (*mockSessionRepo)(nil)
	_ database.ProfileRepositoryInterface = (*mockProfileRepo)(nil)
	_ JobEnqueuer                         = (*mockEnqueuer)(nil)
	_ StatsInvalidator                    = (*mockInvalidator)(nil)
	_ StatsService                        = (*mockStatsService)(nil)
	_ LoginConfigSource                   = (*mockLoginSource)(nil)
	_ storage.BlobStore                   = (*mockBlobStore)(nil)
	_ hype.Provider                       = (*mockHypeProvider)(nil)
)

type mockTaskRepo struct {
	listByUser   func(ctx context.Context, userID uuid.UUID) ([]*models.Task, error)
	create       func(ctx context.Context, task *models.Task) error
	getByID      func(ctx context.Context, userID, id uuid.UUID) (*models.Task, error)
	setCompleted func(ctx context.Context, userID, id uuid.UUID, completed bool) (*models.Task, error)
	delete       func(ctx context.Context, userID, id uuid.UUID) error
}

func (m *mockTaskRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Task, error) {
	return m.listByUser(ctx, userID)
}

func (m *mockTaskRepo) Create(ctx context.Context, task *models.Task) error {
	return m.create(ctx, task)
}

func (m *mockTaskRepo) GetByID(ctx context.Context, userID, id uuid.UUID) (*models.Task, error) {
	return m.getByID(ctx, userID, id)
}

func (m *mockTaskRepo) SetCompleted(ctx context.Context, userID, id uuid.UUID, completed bool) (*models.Task, error) {
	return m.setCompleted(ctx, userID, id, completed)
}

func (m *mockTaskRepo) Delete(ctx context.Context, userID, id uuid.UUID) error {
	return m.delete(ctx, userID, id)
}

type mockWorkLogRepo struct {
	listByUser  func(ctx context.Context, userID uuid.UUID) ([]*models.WorkLog, error)
	upsert      func(ctx context.Context, log *models.WorkLog) error
	hoursByUser func(ctx context.Context, userID uuid.UUID) (map[string]float64, error)
}

func (m *mockWorkLogRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.WorkLog, error) {
	return m.listByUser(ctx, userID)
}

func (m *mockWorkLogRepo) Upsert(ctx context.Context, log *models.WorkLog) error {
	return m.upsert(ctx, log)
}

func (m *mockWorkLogRepo) HoursByUser(ctx context.Context, userID uuid.UUID) (map[string]float64, error) {
	return m.hoursByUser(ctx, userID)
}

type mockSessionRepo struct {
	start      func(ctx context.Context, userID uuid.UUID, startedAt time.Time) (*models.FocusSession, error)
	finish     func(ctx context.Context, userID, id uuid.UUID, endedAt time.Time, idleSeconds int) (*models.FocusSession, error)
	listByUser func(ctx context.Context, userID uuid.UUID, limit int) ([]*models.FocusSession, error)
	closeStale func(ctx context.Context, cutoff time.Time) (int64, error)
}

func (m *mockSessionRepo) Start(ctx context.Context, userID uuid.UUID, startedAt time.Time) (*models.FocusSession, error) {
	return m.start(ctx, userID, startedAt)
}

func (m *mockSessionRepo) Finish(ctx context.Context, userID, id uuid.UUID, endedAt time.Time, idleSeconds int) (*models.FocusSession, error) {
	return m.finish(ctx, userID, id, endedAt, idleSeconds)
}

func (m *mockSessionRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*models.FocusSession, error) {
	return m.listByUser(ctx, userID, limit)
}

func (m *mockSessionRepo) CloseStale(ctx context.Context, cutoff time.Time) (int64, error) {
	return m.closeStale(ctx, cutoff)
}

type mockProfileRepo struct {
	getOrCreate func(ctx context.Context, userID uuid.UUID, email string) (*models.Profile, error)
	update      func(ctx context.Context, userID uuid.UUID, patch database.ProfilePatch) (*models.Profile, error)
}

func (m *mockProfileRepo) GetOrCreate(ctx context.Context, userID uuid.UUID, email string) (*models.Profile, error) {
	return m.getOrCreate(ctx, userID, email)
}

func (m *mockProfileRepo) Update(ctx context.Context, userID uuid.UUID, patch database.ProfilePatch) (*models.Profile, error) {
	return m.update(ctx, userID, patch)
}

type mockEnqueuer struct {
	enqueue func(ctx context.Context, job *queue.Job) error
}

func (m *mockEnqueuer) Enqueue(ctx context.Context, job *queue.Job) error {
	return m.enqueue(ctx, job)
}

type mockInvalidator struct {
	invalidate func(ctx context.Context, userID uuid.UUID) error
}

func (m *mockInvalidator) Invalidate(ctx context.Context, userID uuid.UUID) error {
	return m.invalidate(ctx, userID)
}

type mockStatsService struct {
	report  func(ctx context.Context, userID uuid.UUID, q insights.Query) (*stats.Report, error)
	heatmap func(ctx context.Context, userID uuid.UUID, year int) (*heatmap.Grid, error)
	rng     func(ctx context.Context, userID uuid.UUID, days, offset int, loc *time.Location) ([]stats.Day, error)
}

func (m *mockStatsService) Report(ctx context.Context, userID uuid.UUID, q insights.Query) (*stats.Report, error) {
	return m.report(ctx, userID, q)
}

func (m *mockStatsService) Heatmap(ctx context.Context, userID uuid.UUID, year int) (*heatmap.Grid, error) {
	return m.heatmap(ctx, userID, year)
}

func (m *mockStatsService) Range(ctx context.Context, userID uuid.UUID, days, offset int, loc *time.Location) ([]stats.Day, error) {
	return m.rng(ctx, userID, days, offset, loc)
}

type mockLoginSource struct {
	getLoginConfig func(ctx context.Context, providerName string) (*oidc.LoginConfig, error)
}

func (m *mockLoginSource) GetLoginConfig(ctx context.Context, providerName string) (*oidc.LoginConfig, error) {
	return m.getLoginConfig(ctx, providerName)
}

type mockBlobStore struct {
	upload    func(ctx context.Context, bucket, objectPath string, r io.Reader, contentType string) error
	publicURL func(bucket, objectPath string) string
}

func (m *mockBlobStore) Upload(ctx context.Context, bucket, objectPath string, r io.Reader, contentType string) error {
	return m.upload(ctx, bucket, objectPath, r, contentType)
}

func (m *mockBlobStore) PublicURL(bucket, objectPath string) string {
	return m.publicURL(bucket, objectPath)
}

type mockHypeProvider struct {
	hype func(ctx context.Context, goal string) (string, error)
}

func (m *mockHypeProvider) Hype(ctx context.Context, goal string) (string, error) {
	return m.hype(ctx, goal)
}

func testUser() *models.User {
	return &models.User{ID: uuid.New(), Email: "grinder@example.com"}
}

// serve routes req through a router built by register, with user attached
// when non-nil.
func serve(t *testing.T, register func(*mux.Router), req *http.Request, user *models.User) *httptest.ResponseRecorder {
	t.Helper()
	r := mux.NewRouter()
	register(r)
	if user != nil {
		req = req.WithContext(request.WithUser(req.Context(), user))
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func jsonRequest(method, path string, body any) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// decodeData unwraps the success envelope into dst.
func decodeData(t *testing.T, w *httptest.ResponseRecorder, dst any) {
	t.Helper()
	var env struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(w.Body).Decode(&env); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if !env.Success {
		t.Fatalf("success = false, body data = %s", env.Data)
	}
	if err := json.Unmarshal(env.Data, dst); err != nil {
		t.Fatalf("Failed to decode data: %v", err)
	}
}
