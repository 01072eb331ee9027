package app

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
	"go.uber.org/zap"

	"studioapi/internal/config"
)

func testConfig() *config.AppConfig {
	return &config.AppConfig{
		BodyLimitMB:      10,
		CORSAllowOrigins: "http://localhost:3000",
		StoreDriver:      config.StorePostgres,
		Media: config.MediaConfig{
			Driver:            config.MediaCloudinary,
			MaxUploadMB:       5,
			UploadConcurrency: 2,
			Cloudinary:        config.CloudinaryConfig{CloudName: "demo", APIKey: "key", APISecret: "secret", Folder: "studio"},
		},
		Cache: config.CacheConfig{TTLSec: 30},
		Auth: config.AuthConfig{
			JWTSecret:          strings.Repeat("k", 32),
			TokenTTLMin:        60,
			Issuer:             "studio-admin",
			CookieName:         "admin_token",
			LoginRateMax:       5,
			LoginRateWindowSec: 60,
		},
		Retention: config.RetentionConfig{Hero: 5, Reels: 12},
	}
}

func newTestApp(t *testing.T) (*App, sqlmock.Sqlmock) {
	t.Helper()
	db, dbMock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	a, err := New(context.Background(), testConfig(), zap.NewNop(), PostgresStore(db))
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, a.Close(context.Background())) })
	return a, dbMock
}

func TestNewWiresRoutes(t *testing.T) {
	a, dbMock := newTestApp(t)
	app, err := a.Fiber()
	require.NoError(t, err)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	dbMock.ExpectPing()
	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/themes/haldi", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	for _, target := range []string{"/api/hero", "/api/wedding-gallery", "/api/sections", "/api/admins"} {
		req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(`{}`))
		req.Header.Set("Content-Type", "application/json")
		resp, err = app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, target)
	}

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), `http_requests_total{method="GET",path="/healthz",status="200"} 1`)
	assert.Contains(t, string(body), `http_requests_total{method="POST",path="/api/hero",status="401"} 1`)

	require.NoError(t, dbMock.ExpectationsWereMet())
}

func TestPrunableKinds(t *testing.T) {
	a, _ := newTestApp(t)
	assert.Equal(t, []string{"hero", "reels"}, a.PrunableKinds())
}

func TestPrune(t *testing.T) {
	a, dbMock := newTestApp(t)

	dbMock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM "content_hero"`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	got, err := a.Prune(context.Background(), "hero")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"hero": 0}, got)

	_, err = a.Prune(context.Background(), "guestbook")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown content kind "guestbook"`)

	require.NoError(t, dbMock.ExpectationsWereMet())
}

func TestEnsureAdminSkippedWithoutEmail(t *testing.T) {
	a, dbMock := newTestApp(t)
	require.NoError(t, a.EnsureAdmin(context.Background()))
	require.NoError(t, dbMock.ExpectationsWereMet())
}

func TestNewRejectsUnknownMediaDriver(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	cfg := testConfig()
	cfg.Media.Driver = "ftp"
	a, err := New(context.Background(), cfg, zap.NewNop(), PostgresStore(db))
	if a != nil {
		a.Close(context.Background())
	}
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unsupported MEDIA_DRIVER "ftp"`)
}

func TestNewOnMongo(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("prune counts the collection", func(mt *mtest.T) {
		a, err := New(context.Background(), testConfig(), zap.NewNop(), MongoStore(mt.Client, mt.DB))
		require.NoError(mt, err)
		defer a.Close(context.Background())

		mt.AddMockResponses(mtest.CreateCursorResponse(0, "studio.reels", mtest.FirstBatch,
			bson.D{{Key: "n", Value: int32(4)}}))

		got, err := a.Prune(context.Background(), "reels")
		require.NoError(mt, err)
		assert.Equal(mt, map[string]int{"reels": 0}, got)
	})
}
