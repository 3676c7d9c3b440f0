package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/skyvault/backend/internal/config"
	"github.com/skyvault/backend/internal/database"
	"github.com/skyvault/backend/internal/middleware"
	"github.com/skyvault/backend/internal/services"
	"github.com/skyvault/backend/internal/storage"
	"github.com/skyvault/backend/pkg/logger"
	"github.com/skyvault/backend/pkg/utils"
	"gorm.io/gorm"
)

type testEnv struct {
	app   *fiber.App
	db    *gorm.DB
	store *fakeObjectStore
}

var testSetupOnce sync.Once

// fakeObjectStore stands in for the bucket so handler tests can exercise the
// presign/stream/delete contract without a network.
type fakeObjectStore struct {
	mu          sync.Mutex
	objects     map[string][]byte
	contentType map[string]string
	deleted     []string
	failDelete  bool
}

func newFakeObjectStore() *fakeObjectStore {
	return &fakeObjectStore{
		objects:     map[string][]byte{},
		contentType: map[string]string{},
	}
}

func (f *fakeObjectStore) put(key string, data []byte, contentType string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = data
	f.contentType[key] = contentType
}

func (f *fakeObjectStore) deletedKeys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.deleted...)
}

func (f *fakeObjectStore) PresignedPutURL(ctx context.Context, objectName string, expiry time.Duration) (string, error) {
	return "https://objects.test/" + objectName + "?method=put", nil
}

func (f *fakeObjectStore) PresignedGetURL(ctx context.Context, objectName string, expiry time.Duration, contentType, contentDisposition string) (string, error) {
	return "https://objects.test/" + objectName + "?method=get", nil
}

func (f *fakeObjectStore) Open(ctx context.Context, objectName string) (io.ReadCloser, storage.ObjectInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[objectName]
	if !ok {
		return nil, storage.ObjectInfo{}, fmt.Errorf("object %s does not exist", objectName)
	}
	info := storage.ObjectInfo{Size: int64(len(data)), ContentType: f.contentType[objectName]}
	return io.NopCloser(bytes.NewReader(data)), info, nil
}

func (f *fakeObjectStore) Delete(ctx context.Context, objectName string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failDelete {
		return fmt.Errorf("simulated delete failure for %s", objectName)
	}
	delete(f.objects, objectName)
	f.deleted = append(f.deleted, objectName)
	return nil
}

func (f *fakeObjectStore) EnsureBucket(ctx context.Context) error { return nil }

func (f *fakeObjectStore) SetupCORS(ctx context.Context) error { return nil }

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	testSetupOnce.Do(func() {
		logger.Init()
		utils.ConfigureJWT("test-secret", 24)
	})

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed opening in-memory sqlite database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed getting sql.DB from gorm: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	if err := database.Migrate(db); err != nil {
		t.Fatalf("failed migrating models: %v", err)
	}

	store := newFakeObjectStore()

	namespaceService := services.NewNamespaceService(db)
	objectService := services.NewObjectService(db, store, config.UploadConfig{
		PutURLExpiry: 10 * time.Minute,
		GetURLExpiry: 1 * time.Hour,
	})

	authHandler := NewAuthHandler(db)
	filesHandler := NewFilesHandler(namespaceService, objectService)
	setupHandler := NewSetupHandler(store)

	app := fiber.New(fiber.Config{BodyLimit: 10 * 1024 * 1024})
	app.Use(recover.New(recover.Config{EnableStackTrace: true}))
	app.Use(middleware.CORS())
	app.Use(middleware.RequestLogger())
	app.Use(middleware.SecurityLogger())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ok"})
	})

	app.Get("/raw/:fileId", filesHandler.Raw)

	api := app.Group("/api")

	authRoutes := api.Group("/auth")
	authRoutes.Post("/setup", authHandler.Setup)
	authRoutes.Post("/login", authHandler.Login)
	authRoutes.Get("/status", authHandler.Status)

	fileRoutes := api.Group("/files", middleware.RequireAuth)
	fileRoutes.Get("/", filesHandler.List)
	fileRoutes.Post("/folder", filesHandler.CreateFolder)
	fileRoutes.Post("/upload", filesHandler.UploadInit)
	fileRoutes.Post("/upload/complete", filesHandler.UploadComplete)
	fileRoutes.Post("/download", filesHandler.DownloadURL)
	fileRoutes.Post("/delete", filesHandler.Delete)

	setupRoutes := api.Group("/setup", middleware.RequireAuth)
	setupRoutes.Post("/cors", setupHandler.ConfigureCORS)

	return &testEnv{app: app, db: db, store: store}
}

// setupAdmin runs the first-time password setup and logs in, returning a
// session token for Bearer auth.
func setupAdmin(t *testing.T, env *testEnv) string {
	t.Helper()

	resp := performJSONRequest(t, env.app, http.MethodPost, "/api/auth/setup", map[string]any{
		"password": "correct horse battery staple",
	}, nil)
	assertStatus(t, resp, http.StatusOK)
	resp.Body.Close()

	resp = performJSONRequest(t, env.app, http.MethodPost, "/api/auth/login", map[string]any{
		"password": "correct horse battery staple",
	}, nil)
	body := decodeJSONMap(t, resp)
	assertStatus(t, resp, http.StatusOK)

	data, ok := body["data"].(map[string]any)
	if !ok {
		t.Fatalf("expected login data object, got %+v", body)
	}
	token, ok := data["token"].(string)
	if !ok || token == "" {
		t.Fatalf("expected login to return a token, got %+v", data)
	}
	return token
}

func authHeaders(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

func performRequest(t *testing.T, app *fiber.App, method, path string, body io.Reader, headers map[string]string) *http.Response {
	t.Helper()

	req := httptest.NewRequest(method, path, body)
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := app.Test(req, int((10 * time.Second).Milliseconds()))
	if err != nil {
		t.Fatalf("request %s %s failed: %v", method, path, err)
	}

	return resp
}

func performJSONRequest(t *testing.T, app *fiber.App, method, path string, payload any, headers map[string]string) *http.Response {
	t.Helper()

	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("failed to marshal payload: %v", err)
		}
		body = bytes.NewReader(encoded)
	}

	requestHeaders := map[string]string{}
	for key, value := range headers {
		requestHeaders[key] = value
	}
	if payload != nil {
		requestHeaders["Content-Type"] = "application/json"
	}

	return performRequest(t, app, method, path, body, requestHeaders)
}

func decodeJSONMap(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed reading response body: %v", err)
	}

	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		t.Fatalf("failed decoding JSON response: %v body=%q", err, string(raw))
	}

	return payload
}

func assertStatus(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Fatalf("expected status %d, got %d", expected, resp.StatusCode)
	}
}

func assertEnvelopeError(t *testing.T, body map[string]any, expected string) {
	t.Helper()
	if success, _ := body["success"].(bool); success {
		t.Fatalf("expected success=false, got %+v", body)
	}
	if got, _ := body["error"].(string); got != expected {
		t.Fatalf("expected error %q, got %q", expected, got)
	}
}
