package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spec-kit/pengaduan-service/internal/api/http/handlers"
	"github.com/spec-kit/pengaduan-service/internal/auth"
	"github.com/spec-kit/pengaduan-service/internal/config"
	"github.com/spec-kit/pengaduan-service/internal/domain"
	"github.com/spec-kit/pengaduan-service/internal/events"
	"github.com/spec-kit/pengaduan-service/internal/observability"
	"github.com/spec-kit/pengaduan-service/internal/persistence"
	"github.com/spec-kit/pengaduan-service/internal/repository"
	"github.com/spec-kit/pengaduan-service/internal/service"
	"github.com/spec-kit/pengaduan-service/internal/storage"
)

type memUserRepo struct {
	nextID int64
	users  map[int64]*domain.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{nextID: 1, users: make(map[int64]*domain.User)}
}

func (r *memUserRepo) Create(_ context.Context, user *domain.User) error {
	user.ID = r.nextID
	r.nextID++
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *memUserRepo) Update(_ context.Context, user *domain.User) error {
	if _, ok := r.users[user.ID]; !ok {
		return pgx.ErrNoRows
	}
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *memUserRepo) GetByID(_ context.Context, id int64) (*domain.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *user
	return &clone, nil
}

func (r *memUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, user := range r.users {
		if strings.EqualFold(user.Email, email) {
			clone := *user
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *memUserRepo) List(_ context.Context, _ repository.UserFilter) ([]domain.User, error) {
	out := make([]domain.User, 0, len(r.users))
	for _, user := range r.users {
		out = append(out, *user)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memUserRepo) Count(_ context.Context, _ repository.UserFilter) (int64, error) {
	return int64(len(r.users)), nil
}

func (r *memUserRepo) Stats(_ context.Context) (*repository.UserStats, error) {
	stats := &repository.UserStats{}
	for _, user := range r.users {
		stats.Total++
		if user.IsActive {
			stats.Active++
		}
		if user.Role == domain.RoleAdmin {
			stats.Admin++
		} else {
			stats.Masyarakat++
		}
	}
	return stats, nil
}

type memComplaintRepo struct {
	nextID     int64
	complaints map[int64]*domain.Complaint
}

func newMemComplaintRepo() *memComplaintRepo {
	return &memComplaintRepo{nextID: 1, complaints: make(map[int64]*domain.Complaint)}
}

func (r *memComplaintRepo) Create(_ context.Context, complaint *domain.Complaint) error {
	complaint.ID = r.nextID
	r.nextID++
	clone := *complaint
	r.complaints[complaint.ID] = &clone
	return nil
}

func (r *memComplaintRepo) Update(_ context.Context, complaint *domain.Complaint) error {
	if _, ok := r.complaints[complaint.ID]; !ok {
		return pgx.ErrNoRows
	}
	clone := *complaint
	r.complaints[complaint.ID] = &clone
	return nil
}

func (r *memComplaintRepo) Delete(_ context.Context, id int64) error {
	if _, ok := r.complaints[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.complaints, id)
	return nil
}

func (r *memComplaintRepo) GetByID(_ context.Context, id int64) (*domain.Complaint, error) {
	complaint, ok := r.complaints[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *complaint
	return &clone, nil
}

func (r *memComplaintRepo) matches(complaint *domain.Complaint, filter repository.ComplaintFilter) bool {
	if filter.UserID != nil {
		if complaint.UserID == nil || *complaint.UserID != *filter.UserID {
			return false
		}
	}
	if filter.Status != nil && complaint.Status != *filter.Status {
		return false
	}
	if filter.Category != nil && complaint.Category != *filter.Category {
		return false
	}
	return true
}

func (r *memComplaintRepo) ListWithFilter(_ context.Context, filter repository.ComplaintFilter) ([]domain.Complaint, error) {
	var out []domain.Complaint
	for _, complaint := range r.complaints {
		if r.matches(complaint, filter) {
			out = append(out, *complaint)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memComplaintRepo) Count(_ context.Context, filter repository.ComplaintFilter) (int64, error) {
	var total int64
	for _, complaint := range r.complaints {
		if r.matches(complaint, filter) {
			total++
		}
	}
	return total, nil
}

func (r *memComplaintRepo) CountByStatus(_ context.Context, userID *int64) ([]repository.StatusCount, error) {
	counts := make(map[domain.ComplaintStatus]int64)
	for _, complaint := range r.complaints {
		if userID != nil {
			if complaint.UserID == nil || *complaint.UserID != *userID {
				continue
			}
		}
		counts[complaint.Status]++
	}
	out := make([]repository.StatusCount, 0, len(counts))
	for status, count := range counts {
		out = append(out, repository.StatusCount{Status: status, Count: count})
	}
	return out, nil
}

func (r *memComplaintRepo) CountByCategory(_ context.Context) ([]repository.CategoryCount, error) {
	counts := make(map[domain.ComplaintCategory]int64)
	for _, complaint := range r.complaints {
		counts[complaint.Category]++
	}
	out := make([]repository.CategoryCount, 0, len(counts))
	for category, count := range counts {
		out = append(out, repository.CategoryCount{Category: category, Count: count})
	}
	return out, nil
}

func (r *memComplaintRepo) ListRecent(_ context.Context, limit int) ([]domain.Complaint, error) {
	all, _ := r.ListWithFilter(context.Background(), repository.ComplaintFilter{})
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

var (
	metricsOnce   sync.Once
	sharedMetrics *observability.Metrics
)

// collectors register on the global prometheus registry, so build them once
func testMetrics() *observability.Metrics {
	metricsOnce.Do(func() {
		sharedMetrics = observability.NewMetrics()
	})
	return sharedMetrics
}

const testUploadLimitBytes = 5 * 1024 * 1024

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	return newTestAppWithLogger(t, zap.NewNop())
}

func newTestAppWithLogger(t *testing.T, logger *zap.Logger) *fiber.App {
	t.Helper()

	userRepo := newMemUserRepo()
	complaintRepo := newMemComplaintRepo()
	uploadCfg := config.UploadConfig{Dir: t.TempDir(), MaxSizeBytes: testUploadLimitBytes}
	photoStore, err := storage.NewDiskStore(uploadCfg)
	require.NoError(t, err)

	identity := service.NewIdentityService(config.AuthConfig{
		JWTSecret:             "test-secret",
		AccessTokenTTLMinutes: 60,
		BcryptCost:            4,
	}, userRepo)
	complaints := service.NewComplaintService(service.ComplaintDependencies{
		ComplaintRepo: complaintRepo,
		Photos:        photoStore,
		Dispatcher:    events.NewInMemoryDispatcher(nil),
	})

	appCfg := config.AppConfig{
		Name:           "pengaduan-service",
		Env:            "test",
		AllowedOrigins: []string{"http://localhost:3000"},
	}
	app := NewApp(appCfg, uploadCfg)
	RegisterMiddlewares(app, appCfg, logger, testMetrics())
	RegisterRoutes(app, RouterDependencies{
		Health:     handlers.NewHealthHandler("pengaduan-service", "test", &persistence.Postgres{}, &persistence.Redis{}),
		Users:      handlers.NewUsersHandler(identity),
		Complaints: handlers.NewComplaintsHandler(complaints),
		Reports:    handlers.NewReportsHandler(complaints),
		Auth:       auth.NewAuthMiddleware(identity.TokenManager(), userRepo),
		UploadDir:  uploadCfg.Dir,
	})
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, body any) (int, map[string]any) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var parsed map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&parsed))
	return resp.StatusCode, parsed
}

func registerAndLogin(t *testing.T, app *fiber.App, email, role string) string {
	t.Helper()

	status, _ := doJSON(t, app, fiber.MethodPost, "/api/users/register", "", map[string]any{
		"email":    email,
		"password": "rahasia123",
		"role":     role,
	})
	require.Equal(t, http.StatusCreated, status)

	status, body := doJSON(t, app, fiber.MethodPost, "/api/users/login", "", map[string]any{
		"email":    email,
		"password": "rahasia123",
	})
	require.Equal(t, http.StatusOK, status)

	data := body["data"].(map[string]any)
	return data["token"].(string)
}

func complaintPayload() map[string]any {
	return map[string]any{
		"nama":      "Budi Santoso",
		"nomor_hp":  "081234567890",
		"kategori":  "Infrastruktur",
		"deskripsi": "Jalan berlubang di depan pasar",
		"lokasi":    "Jl. Merdeka No. 1",
	}
}

func TestRegisterAndLoginFlow(t *testing.T) {
	app := newTestApp(t)

	status, body := doJSON(t, app, fiber.MethodPost, "/api/users/register", "", map[string]any{
		"email":    "warga@example.com",
		"password": "rahasia123",
	})
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "User berhasil didaftarkan", body["message"])
	data := body["data"].(map[string]any)
	assert.Equal(t, "masyarakat", data["role"])
	assert.NotContains(t, data, "password")

	status, body = doJSON(t, app, fiber.MethodPost, "/api/users/login", "", map[string]any{
		"email":    "warga@example.com",
		"password": "rahasia123",
	})
	require.Equal(t, http.StatusOK, status)
	loginData := body["data"].(map[string]any)
	assert.NotEmpty(t, loginData["token"])
}

func TestProtectedRouteRequiresToken(t *testing.T) {
	app := newTestApp(t)

	status, body := doJSON(t, app, fiber.MethodGet, "/api/users/profile", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Token akses diperlukan", body["message"])
}

func TestComplaintLifecycle(t *testing.T) {
	app := newTestApp(t)
	citizenToken := registerAndLogin(t, app, "warga@example.com", "masyarakat")
	adminToken := registerAndLogin(t, app, "admin@example.com", "admin")

	status, body := doJSON(t, app, fiber.MethodPost, "/api/pengaduan", citizenToken, complaintPayload())
	require.Equal(t, http.StatusCreated, status)
	created := body["data"].(map[string]any)
	assert.Equal(t, "pending", created["status"])
	assert.Equal(t, "infrastruktur", created["kategori"])
	complaintID := int64(created["id"].(float64))

	// pending cannot jump straight to selesai
	status, body = doJSON(t, app, fiber.MethodPut,
		fmt.Sprintf("/api/pengaduan/%d/status", complaintID), adminToken,
		map[string]any{"status": "selesai"})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, false, body["success"])

	status, body = doJSON(t, app, fiber.MethodPut,
		fmt.Sprintf("/api/pengaduan/%d/status", complaintID), adminToken,
		map[string]any{"status": "diproses"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "diproses", body["data"].(map[string]any)["status"])

	// citizens may not triage
	status, _ = doJSON(t, app, fiber.MethodPut,
		fmt.Sprintf("/api/pengaduan/%d/status", complaintID), citizenToken,
		map[string]any{"status": "selesai"})
	assert.Equal(t, http.StatusForbidden, status)

	// complaint reads are public, with or without a token
	status, body = doJSON(t, app, fiber.MethodGet,
		fmt.Sprintf("/api/pengaduan/%d", complaintID), "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["success"])

	status, _ = doJSON(t, app, fiber.MethodGet,
		fmt.Sprintf("/api/pengaduan/%d", complaintID), citizenToken, nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestUploadWithinPhotoLimit(t *testing.T) {
	app := newTestApp(t)
	token := registerAndLogin(t, app, "warga@example.com", "masyarakat")

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	for field, value := range complaintPayload() {
		require.NoError(t, form.WriteField(field, value.(string)))
	}
	part, err := form.CreateFormFile("foto", "jalan-berlubang.jpg")
	require.NoError(t, err)
	// larger than fiber's 4MB default body limit, inside the 5MB photo cap
	_, err = part.Write(bytes.Repeat([]byte("x"), 9*512*1024))
	require.NoError(t, err)
	require.NoError(t, form.Close())

	req := httptest.NewRequest(fiber.MethodPost, "/api/pengaduan", &buf)
	req.Header.Set("Content-Type", form.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	data := body["data"].(map[string]any)
	assert.NotEmpty(t, data["foto"])
}

func TestRequestLogRecordsErrorStatus(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	app := newTestAppWithLogger(t, zap.New(core))

	status, _ := doJSON(t, app, fiber.MethodGet, "/api/users/profile", "", nil)
	require.Equal(t, http.StatusUnauthorized, status)

	entries := logs.FilterMessage("request").All()
	require.NotEmpty(t, entries)
	fields := entries[len(entries)-1].ContextMap()
	assert.Equal(t, int64(http.StatusUnauthorized), fields["status"])
}

func TestListScopedToCitizen(t *testing.T) {
	app := newTestApp(t)
	firstToken := registerAndLogin(t, app, "satu@example.com", "masyarakat")
	secondToken := registerAndLogin(t, app, "dua@example.com", "masyarakat")
	adminToken := registerAndLogin(t, app, "admin@example.com", "admin")

	status, _ := doJSON(t, app, fiber.MethodPost, "/api/pengaduan", firstToken, complaintPayload())
	require.Equal(t, http.StatusCreated, status)
	status, _ = doJSON(t, app, fiber.MethodPost, "/api/pengaduan", secondToken, complaintPayload())
	require.Equal(t, http.StatusCreated, status)

	status, body := doJSON(t, app, fiber.MethodGet, "/api/pengaduan", firstToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["data"].([]any), 1)
	pagination := body["pagination"].(map[string]any)
	assert.Equal(t, float64(1), pagination["totalItems"])

	status, body = doJSON(t, app, fiber.MethodGet, "/api/pengaduan", adminToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["data"].([]any), 2)
}

func TestLaporanHidesForeignRows(t *testing.T) {
	app := newTestApp(t)
	ownerToken := registerAndLogin(t, app, "satu@example.com", "masyarakat")
	otherToken := registerAndLogin(t, app, "dua@example.com", "masyarakat")

	status, body := doJSON(t, app, fiber.MethodPost, "/api/user/laporan", ownerToken, complaintPayload())
	require.Equal(t, http.StatusCreated, status)
	complaintID := int64(body["data"].(map[string]any)["id"].(float64))

	status, _ = doJSON(t, app, fiber.MethodGet,
		fmt.Sprintf("/api/user/laporan/%d", complaintID), ownerToken, nil)
	assert.Equal(t, http.StatusOK, status)

	status, body = doJSON(t, app, fiber.MethodGet,
		fmt.Sprintf("/api/user/laporan/%d", complaintID), otherToken, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Laporan tidak ditemukan atau Anda tidak memiliki akses", body["message"])

	// anonymous access is refused outright
	status, _ = doJSON(t, app, fiber.MethodGet, "/api/user/laporan", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestStaticListsArePublic(t *testing.T) {
	app := newTestApp(t)

	status, body := doJSON(t, app, fiber.MethodGet, "/api/pengaduan/kategori/list", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["data"].([]any), 7)

	status, body = doJSON(t, app, fiber.MethodGet, "/api/pengaduan/status/list", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["data"].([]any), 4)
}

func TestUnknownEndpoint(t *testing.T) {
	app := newTestApp(t)

	status, body := doJSON(t, app, fiber.MethodGet, "/api/tidak-ada", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Endpoint tidak ditemukan", body["message"])
}

func TestAdminOnlyUserListing(t *testing.T) {
	app := newTestApp(t)
	citizenToken := registerAndLogin(t, app, "warga@example.com", "masyarakat")
	adminToken := registerAndLogin(t, app, "admin@example.com", "admin")

	status, _ := doJSON(t, app, fiber.MethodGet, "/api/users", citizenToken, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, body := doJSON(t, app, fiber.MethodGet, "/api/users", adminToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["data"].([]any), 2)
}
