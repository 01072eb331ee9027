package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"studioapi/docs"
	"studioapi/internal/auth"
	"studioapi/internal/config"
	"studioapi/internal/http/middleware"
	"studioapi/internal/model"
	"studioapi/internal/service"
	serviceMocks "studioapi/internal/service/mocks"
	"studioapi/internal/storage"
	"studioapi/internal/theme"
)

func newApp() *fiber.App {
	return fiber.New(fiber.Config{ErrorHandler: ErrorHandler()})
}

func decodeError(t *testing.T, resp *http.Response) errorPayload {
	t.Helper()
	var body errorPayload
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return req
}

func TestHealthCheck(t *testing.T) {
	db, dbMock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	app := newApp()
	app.Get("/health", HealthCheck(db))

	t.Run("healthy", func(t *testing.T) {
		dbMock.ExpectPing().WillReturnError(nil)

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]string
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "healthy", body["status"])
	})

	t.Run("unhealthy", func(t *testing.T) {
		dbMock.ExpectPing().WillReturnError(errors.New("db error"))

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
		assert.Equal(t, "SERVICE_UNAVAILABLE", decodeError(t, resp).Error.Code)
	})
}

func TestLivenessProbe(t *testing.T) {
	app := newApp()
	app.Get("/healthz", LivenessProbe())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	resp, _ := app.Test(req)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestSwaggerDocKeepsConfiguredHost(t *testing.T) {
	prev := docs.SwaggerInfo.Host
	docs.SwaggerInfo.Host = "studio.example"
	t.Cleanup(func() { docs.SwaggerInfo.Host = prev })

	app := newApp()
	RegisterRoutes(app, Deps{})

	req := httptest.NewRequest(http.MethodGet, "/swagger/doc.json", nil)
	req.Host = "attacker.test"
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var doc struct {
		Host string `json:"host"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&doc))
	assert.Equal(t, "studio.example", doc.Host)
	assert.Equal(t, "studio.example", docs.SwaggerInfo.Host)
}

func TestListContent(t *testing.T) {
	mockSvc := &serviceMocks.MockContentService[model.Hero]{KindName: model.KindHero}
	app := newApp()
	app.Get("/hero", ListContent[model.Hero](mockSvc))

	t.Run("success with filter", func(t *testing.T) {
		expected := &service.ListResult[model.Hero]{
			Items: []model.Hero{{Base: model.Base{ID: uuid.NewString()}, Title: "Golden hour"}},
			Total: 1,
			Limit: 5,
		}
		params := service.ListParams{Limit: 5, Sort: "oldest", Filter: map[string]string{"category": "Haldi"}}
		mockSvc.On("List", mock.Anything, params).Return(expected, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/hero?limit=5&sort=oldest&category=Haldi", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var body map[string]any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.EqualValues(t, 1, body["total"])
		assert.Len(t, body["data"], 1)
	})

	t.Run("invalid limit", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/hero?limit=abc", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "INVALID_LIMIT", decodeError(t, resp).Error.Code)
	})

	t.Run("negative offset", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/hero?offset=-1", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "INVALID_OFFSET", decodeError(t, resp).Error.Code)
	})

	t.Run("unknown filter", func(t *testing.T) {
		mockSvc.On("List", mock.Anything, mock.Anything).
			Return(nil, service.ErrInvalidFilter).Once()

		req := httptest.NewRequest(http.MethodGet, "/hero?colour=red", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "INVALID_FILTER", decodeError(t, resp).Error.Code)
	})

	mockSvc.AssertExpectations(t)
}

func TestGetContent(t *testing.T) {
	mockSvc := &serviceMocks.MockContentService[model.Hero]{KindName: model.KindHero}
	app := newApp()
	app.Get("/hero/:id", GetContent[model.Hero](mockSvc))

	t.Run("invalid id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/hero/not-a-uuid", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "INVALID_ID", decodeError(t, resp).Error.Code)
	})

	t.Run("not found", func(t *testing.T) {
		id := uuid.NewString()
		mockSvc.On("Get", mock.Anything, id).Return(nil, service.ErrNotFound).Once()

		req := httptest.NewRequest(http.MethodGet, "/hero/"+id, nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "NOT_FOUND", decodeError(t, resp).Error.Code)
	})

	t.Run("success", func(t *testing.T) {
		id := uuid.NewString()
		mockSvc.On("Get", mock.Anything, id).
			Return(&model.Hero{Base: model.Base{ID: id}, Title: "Vows"}, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/hero/"+id, nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var got model.Hero
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
		assert.Equal(t, "Vows", got.Title)
	})
}

func TestCreateContent(t *testing.T) {
	mockSvc := &serviceMocks.MockContentService[model.Hero]{KindName: model.KindHero}
	app := newApp()
	app.Post("/hero", CreateContent[model.Hero](mockSvc))

	t.Run("created", func(t *testing.T) {
		mockSvc.On("Create", mock.Anything, mock.MatchedBy(func(h *model.Hero) bool {
			return h.Title == "First look"
		})).Return(&model.Hero{Base: model.Base{ID: uuid.NewString()}, Title: "First look"}, nil).Once()

		resp, _ := app.Test(jsonRequest(http.MethodPost, "/hero", `{"title":"First look"}`))

		assert.Equal(t, http.StatusCreated, resp.StatusCode)
	})

	t.Run("validation error", func(t *testing.T) {
		mockSvc.On("Create", mock.Anything, mock.AnythingOfType("*model.Hero")).
			Return(nil, &model.ValidationError{Field: "media", Message: "is required"}).Once()

		resp, _ := app.Test(jsonRequest(http.MethodPost, "/hero", `{"title":"No media"}`))

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		body := decodeError(t, resp)
		assert.Equal(t, "VALIDATION_ERROR", body.Error.Code)
		assert.Equal(t, "media: is required", body.Error.Message)
	})

	t.Run("malformed body", func(t *testing.T) {
		resp, _ := app.Test(jsonRequest(http.MethodPost, "/hero", `{"title":`))

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "BAD_REQUEST", decodeError(t, resp).Error.Code)
	})

	t.Run("storage down", func(t *testing.T) {
		mockSvc.On("Create", mock.Anything, mock.AnythingOfType("*model.Hero")).
			Return(nil, storage.ErrUnavailable).Once()

		resp, _ := app.Test(jsonRequest(http.MethodPost, "/hero", `{"title":"x"}`))

		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	})

	mockSvc.AssertExpectations(t)
}

func TestUpdateAndPatchContent(t *testing.T) {
	mockSvc := &serviceMocks.MockContentService[model.Hero]{KindName: model.KindHero}
	app := newApp()
	app.Put("/hero/:id", UpdateContent[model.Hero](mockSvc))
	app.Patch("/hero/:id", PatchContent[model.Hero](mockSvc))
	id := uuid.NewString()

	t.Run("put replaces", func(t *testing.T) {
		mockSvc.On("Update", mock.Anything, id, mock.MatchedBy(func(h *model.Hero) bool {
			return h.Title == "Replaced"
		})).Return(&model.Hero{Base: model.Base{ID: id}, Title: "Replaced"}, nil).Once()

		resp, _ := app.Test(jsonRequest(http.MethodPut, "/hero/"+id, `{"title":"Replaced"}`))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("patch forwards the raw body", func(t *testing.T) {
		patch := `{"subtitle":"At dusk"}`
		mockSvc.On("Patch", mock.Anything, id, []byte(patch)).
			Return(&model.Hero{Base: model.Base{ID: id}, Subtitle: "At dusk"}, nil).Once()

		resp, _ := app.Test(jsonRequest(http.MethodPatch, "/hero/"+id, patch))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("patch rejects non-object", func(t *testing.T) {
		mockSvc.On("Patch", mock.Anything, id, []byte(`[1]`)).
			Return(nil, service.ErrInvalidPatch).Once()

		resp, _ := app.Test(jsonRequest(http.MethodPatch, "/hero/"+id, `[1]`))

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "BAD_REQUEST", decodeError(t, resp).Error.Code)
	})

	mockSvc.AssertExpectations(t)
}

func TestDeleteContent(t *testing.T) {
	mockSvc := &serviceMocks.MockContentService[model.Hero]{KindName: model.KindHero}
	app := newApp()
	app.Delete("/hero/:id", DeleteContent[model.Hero](mockSvc))

	id := uuid.NewString()
	mockSvc.On("Delete", mock.Anything, id).Return(nil).Once()

	req := httptest.NewRequest(http.MethodDelete, "/hero/"+id, nil)
	resp, _ := app.Test(req)

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	mockSvc.AssertExpectations(t)
}

func TestContentRoutesGuardWrites(t *testing.T) {
	mockSvc := &serviceMocks.MockContentService[model.Reel]{KindName: model.KindReels}
	app := newApp()
	deny := func(c *fiber.Ctx) error { return fiber.NewError(fiber.StatusUnauthorized) }
	ContentRoutes[model.Reel](mockSvc).Register(app.Group("/api"), deny)

	mockSvc.On("List", mock.Anything, mock.Anything).
		Return(&service.ListResult[model.Reel]{Items: []model.Reel{}}, nil).Once()

	resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/api/reels", nil))
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = app.Test(jsonRequest(http.MethodPost, "/api/reels", `{}`))
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	id := uuid.NewString()
	for _, method := range []string{http.MethodPut, http.MethodPatch, http.MethodDelete} {
		resp, _ := app.Test(jsonRequest(method, "/api/reels/"+id, `{}`))
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, method)
		assert.Equal(t, "UNAUTHORIZED", decodeError(t, resp).Error.Code)
	}

	mockSvc.AssertExpectations(t)
}

func testAuthConfig() config.AuthConfig {
	return config.AuthConfig{CookieName: "admin_token", CookieSecure: true}
}

func withClaims(claims *auth.Claims) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals(middleware.ClaimsLocalKey, claims)
		return c.Next()
	}
}

func TestLogin(t *testing.T) {
	mockSvc := new(serviceMocks.MockAuthService)
	app := newApp()
	app.Post("/login", Login(mockSvc, testAuthConfig()))

	t.Run("sets the session cookie", func(t *testing.T) {
		expires := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
		mockSvc.On("Login", mock.Anything, "owner@example.com", "s3cret-pass").Return(&service.Session{
			Token:     "signed.jwt.token",
			ExpiresAt: expires,
			Admin:     model.AdminView{ID: uuid.NewString(), Email: "owner@example.com"},
		}, nil).Once()

		resp, _ := app.Test(jsonRequest(http.MethodPost, "/login",
			`{"email":"owner@example.com","password":"s3cret-pass"}`))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var cookie *http.Cookie
		for _, c := range resp.Cookies() {
			if c.Name == "admin_token" {
				cookie = c
			}
		}
		require.NotNil(t, cookie)
		assert.Equal(t, "signed.jwt.token", cookie.Value)
		assert.True(t, cookie.HttpOnly)
		assert.True(t, cookie.Secure)
		assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)

		var body sessionResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "owner@example.com", body.Admin.Email)
	})

	t.Run("wrong credentials", func(t *testing.T) {
		mockSvc.On("Login", mock.Anything, "owner@example.com", "nope-nope").
			Return(nil, service.ErrInvalidCredentials).Once()

		resp, _ := app.Test(jsonRequest(http.MethodPost, "/login",
			`{"email":"owner@example.com","password":"nope-nope"}`))

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "INVALID_CREDENTIALS", decodeError(t, resp).Error.Code)
		assert.Empty(t, resp.Cookies())
	})

	t.Run("missing fields", func(t *testing.T) {
		resp, _ := app.Test(jsonRequest(http.MethodPost, "/login", `{"email":"owner@example.com"}`))

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	mockSvc.AssertExpectations(t)
}

func TestLogoutClearsCookie(t *testing.T) {
	mockSvc := new(serviceMocks.MockAuthService)
	claims := &auth.Claims{RegisteredClaims: jwt.RegisteredClaims{ID: "jti-1", Subject: uuid.NewString()}}
	app := newApp()
	app.Post("/logout", withClaims(claims), Logout(mockSvc, testAuthConfig()))

	mockSvc.On("Logout", mock.Anything, claims).Return(nil).Once()

	resp, _ := app.Test(httptest.NewRequest(http.MethodPost, "/logout", nil))

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	require.Len(t, resp.Cookies(), 1)
	assert.Empty(t, resp.Cookies()[0].Value)
	mockSvc.AssertExpectations(t)
}

func TestDeleteAdminPassesActor(t *testing.T) {
	mockSvc := new(serviceMocks.MockAuthService)
	actor := uuid.NewString()
	target := uuid.NewString()
	claims := &auth.Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: actor}}
	app := newApp()
	app.Delete("/admins/:id", withClaims(claims), DeleteAdmin(mockSvc))

	mockSvc.On("DeleteAdmin", mock.Anything, actor, target).Return(nil).Once()
	mockSvc.On("DeleteAdmin", mock.Anything, actor, actor).Return(service.ErrConflict).Once()

	resp, _ := app.Test(httptest.NewRequest(http.MethodDelete, "/admins/"+target, nil))
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = app.Test(httptest.NewRequest(http.MethodDelete, "/admins/"+actor, nil))
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "CONFLICT", decodeError(t, resp).Error.Code)

	mockSvc.AssertExpectations(t)
}

func multipartRequest(t *testing.T, folder string, files map[string]string) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for name, content := range files {
		part, err := writer.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	if folder != "" {
		require.NoError(t, writer.WriteField("folder", folder))
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/media", body)
	req.Header.Set(fiber.HeaderContentType, writer.FormDataContentType())
	return req
}

func TestUploadMedia(t *testing.T) {
	mockSvc := new(serviceMocks.MockMediaService)
	app := newApp()
	app.Post("/media", UploadMedia(mockSvc))

	t.Run("uploads every file", func(t *testing.T) {
		assets := []model.Asset{
			{URL: "https://cdn.example.com/a.jpg", PublicID: "gallery/a"},
			{URL: "https://cdn.example.com/b.jpg", PublicID: "gallery/b"},
		}
		mockSvc.On("Upload", mock.Anything, "gallery", mock.MatchedBy(func(files []service.UploadFile) bool {
			if len(files) != 2 {
				return false
			}
			rc, err := files[0].Open()
			if err != nil {
				return false
			}
			defer rc.Close()
			return files[0].Size > 0
		})).Return(assets, nil).Once()

		req := multipartRequest(t, "gallery", map[string]string{"a.jpg": "aaaa", "b.jpg": "bbbb"})
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		var body struct {
			Data []model.Asset `json:"data"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Len(t, body.Data, 2)
	})

	t.Run("unsupported type", func(t *testing.T) {
		mockSvc.On("Upload", mock.Anything, "gallery", mock.Anything).
			Return(nil, service.ErrUnsupportedMedia).Once()

		resp, _ := app.Test(multipartRequest(t, "gallery", map[string]string{"notes.txt": "hello"}))

		assert.Equal(t, http.StatusUnsupportedMediaType, resp.StatusCode)
		assert.Equal(t, "UNSUPPORTED_MEDIA", decodeError(t, resp).Error.Code)
	})

	t.Run("not multipart", func(t *testing.T) {
		resp, _ := app.Test(jsonRequest(http.MethodPost, "/media", `{}`))

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	mockSvc.AssertExpectations(t)
}

func TestDeleteMedia(t *testing.T) {
	mockSvc := new(serviceMocks.MockMediaService)
	app := newApp()
	app.Delete("/media", DeleteMedia(mockSvc))

	asset := model.Asset{URL: "https://cdn.example.com/a.jpg", PublicID: "gallery/a"}
	mockSvc.On("Delete", mock.Anything, []model.Asset{asset}).Return(nil).Once()

	resp, _ := app.Test(jsonRequest(http.MethodDelete, "/media",
		`{"assets":[{"url":"https://cdn.example.com/a.jpg","public_id":"gallery/a"}]}`))
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = app.Test(jsonRequest(http.MethodDelete, "/media", `{"assets":[]}`))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	mockSvc.AssertExpectations(t)
}

func TestLookupTheme(t *testing.T) {
	reg, err := theme.Default()
	require.NoError(t, err)
	app := newApp()
	app.Get("/themes/:category", LookupTheme(reg))

	t.Run("normalized match", func(t *testing.T) {
		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/themes/Pre%20Wedding", nil))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var body themeResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "pre-wedding", body.Category)
		assert.True(t, body.Matched)
		assert.Equal(t, "pre-wedding", body.Theme.Name)
	})

	t.Run("unknown falls back to default", func(t *testing.T) {
		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/themes/birthday", nil))

		var body themeResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.False(t, body.Matched)
		assert.Equal(t, "classic", body.Theme.Name)
	})
}

type stubSections struct {
	stories []model.Story
	err     error
}

func (s stubSections) Stories(_ context.Context, _ string) ([]model.Story, error) {
	return s.stories, s.err
}

func TestSectionStories(t *testing.T) {
	app := newApp()
	app.Get("/ok/:id/stories", SectionStories(stubSections{stories: []model.Story{{Title: "Asha & Dev"}}}))
	app.Get("/missing/:id/stories", SectionStories(stubSections{err: service.ErrNotFound}))
	id := uuid.NewString()

	resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/ok/"+id+"/stories", nil))
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = app.Test(httptest.NewRequest(http.MethodGet, "/missing/"+id+"/stories", nil))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSettings(t *testing.T) {
	app := newApp()
	svc := &stubSettings{current: model.Settings{SiteName: "Studio"}}
	app.Get("/settings", GetSettings(svc))
	app.Put("/settings", UpdateSettings(svc))

	resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/settings", nil))
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = app.Test(jsonRequest(http.MethodPut, "/settings", `{"site_name":"Lumen Studio"}`))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Lumen Studio", svc.current.SiteName)
}

type stubSettings struct {
	current model.Settings
}

func (s *stubSettings) Get(context.Context) (*model.Settings, error) {
	out := s.current
	return &out, nil
}

func (s *stubSettings) Update(_ context.Context, next *model.Settings) (*model.Settings, error) {
	s.current = *next
	return next, nil
}

func TestErrorHandler(t *testing.T) {
	app := newApp()
	app.Get("/boom", func(c *fiber.Ctx) error { return errors.New("boom") })
	app.Get("/limited", func(c *fiber.Ctx) error { return fiber.NewError(fiber.StatusTooManyRequests) })

	resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "INTERNAL_ERROR", decodeError(t, resp).Error.Code)

	resp, _ = app.Test(httptest.NewRequest(http.MethodGet, "/limited", nil))
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "TOO_MANY_REQUESTS", decodeError(t, resp).Error.Code)

	resp, _ = app.Test(httptest.NewRequest(http.MethodGet, "/nowhere", nil))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
