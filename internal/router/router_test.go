package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/campus-portal-api/internal/auth"
	"github.com/noah-isme/campus-portal-api/internal/config"
	"github.com/noah-isme/campus-portal-api/internal/database"
	"github.com/noah-isme/campus-portal-api/internal/handler"
	"github.com/noah-isme/campus-portal-api/internal/middleware"
	"github.com/noah-isme/campus-portal-api/internal/models"
	"github.com/noah-isme/campus-portal-api/internal/repository"
	"github.com/noah-isme/campus-portal-api/internal/router"
	"github.com/noah-isme/campus-portal-api/internal/service"
	"github.com/noah-isme/campus-portal-api/internal/storage"
)

type testServer struct {
	app        *fiber.App
	db         *gorm.DB
	uploadsDir string
}

func newTestServer(t *testing.T) testServer {
	t.Helper()

	dsn := fmt.Sprintf("file:router_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := database.OpenSQLite(dsn)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	logger := zerolog.Nop()
	validate := validator.New(validator.WithRequiredStructEnabled())
	cfg := config.Config{AppName: "Campus Portal API", AppEnv: "test", AuthRateLimit: 100, AuthRateWindow: time.Minute}
	tokens := auth.NewTokenService(auth.TokenConfig{Secret: "router-secret", Issuer: "campus-test", TTL: time.Hour})

	users := repository.NewUserRepository(db)
	events := repository.NewEventRepository(db)
	surveys := repository.NewSurveyRepository(db)
	complaints := repository.NewComplaintRepository(db)
	files := repository.NewFileRepository(db)
	activity := service.NewActivityService(repository.NewActivityLogRepository(db), logger)

	uploadsDir := t.TempDir()
	local, err := storage.NewLocal(uploadsDir, "/uploads/files", logger)
	require.NoError(t, err)
	images := service.NewImageUploader(local, 1, logger)

	app := fiber.New()
	router.Register(app, cfg, router.Dependencies{
		AuthHandler:      handler.NewAuthHandler(service.NewAuthService(users, tokens, validate, logger), logger),
		UserHandler:      handler.NewUserHandler(service.NewUserService(users, activity, validate, logger), logger),
		ProfileHandler:   handler.NewProfileHandler(service.NewProfileService(users, events, complaints, surveys, images, validate, logger), logger),
		DashboardHandler: handler.NewDashboardHandler(service.NewDashboardService(repository.NewStatsRepository(db), nil, 0, logger), service.NewFeedService(events, surveys, files, nil, 0, logger), logger),
		EventHandler:     handler.NewEventHandler(service.NewEventService(events, activity, images, validate, logger), service.NewRegistrationService(repository.NewAdmissionStore(db), nil, logger), logger),
		SurveyHandler:    handler.NewSurveyHandler(service.NewSurveyService(surveys, activity, validate, logger), service.NewSurveySubmissionService(surveys, repository.NewSubmissionStore(db), nil, validate, logger), logger),
		ArticleHandler:   handler.NewArticleHandler(service.NewArticleService(repository.NewArticleRepository(db), activity, validate, logger), logger),
		ComplaintHandler: handler.NewComplaintHandler(service.NewComplaintService(complaints, activity, nil, validate, logger), logger),
		FileHandler:      handler.NewFileHandler(service.NewFileService(nil, files, activity, 1, logger), logger),
		ActivityHandler:  handler.NewAdminActivityHandler(activity, logger),
		Authenticate:     middleware.Authenticate(auth.NewVerifier(tokens, users), logger),
		Database:         sqlDB,
	})

	return testServer{app: app, db: db, uploadsDir: uploadsDir}
}

func (s testServer) seedStaff(t *testing.T, username string, role models.Role) {
	t.Helper()
	hash, err := auth.HashPassword("staff-password")
	require.NoError(t, err)
	require.NoError(t, s.db.Create(&models.User{
		FullName:     strings.ToUpper(username[:1]) + username[1:],
		Username:     username,
		Email:        username + "@campus.test",
		PasswordHash: hash,
		Role:         role,
	}).Error)
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Details json.RawMessage `json:"details"`
}

func (s testServer) do(t *testing.T, method, path, token string, body interface{}) (int, envelope, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}

	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var env envelope
	require.NoError(t, json.Unmarshal(raw, &env), string(raw))
	return resp.StatusCode, env, raw
}

type formFile struct {
	field   string
	name    string
	content []byte
}

func (s testServer) doMultipart(t *testing.T, method, path, token string, fields map[string]string, file *formFile) (int, envelope) {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}
	if file != nil {
		part, err := writer.CreateFormFile(file.field, file.name)
		require.NoError(t, err)
		_, err = part.Write(file.content)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(method, path, body)
	req.Header.Set(fiber.HeaderContentType, writer.FormDataContentType())
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}

	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var env envelope
	require.NoError(t, json.Unmarshal(raw, &env), string(raw))
	return resp.StatusCode, env
}

func (s testServer) login(t *testing.T, identifier, password string) string {
	t.Helper()
	status, env, _ := s.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"identifier": identifier, "password": password})
	require.Equal(t, http.StatusOK, status, env.Message)

	var data struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	return data.Token
}

func (s testServer) registerStudent(t *testing.T, username string) string {
	t.Helper()
	status, env, _ := s.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"full_name":     "Student " + username,
		"username":      username,
		"email":         username + "@campus.test",
		"password":      "student-password",
		"academic_year": "2026/2027",
		"country":       "Indonesia",
	})
	require.Equal(t, http.StatusCreated, status, env.Message)
	return s.login(t, username, "student-password")
}

func compileSchema(t *testing.T, name string) *jsonschema.Schema {
	t.Helper()
	path, err := filepath.Abs(filepath.Join("testdata", name))
	require.NoError(t, err)
	schema, err := jsonschema.NewCompiler().Compile("file://" + path)
	require.NoError(t, err)
	return schema
}

func validateAgainst(t *testing.T, schema *jsonschema.Schema, raw []byte) {
	t.Helper()
	var payload interface{}
	require.NoError(t, json.Unmarshal(raw, &payload))
	require.NoError(t, schema.Validate(payload))
}

func TestHealthReportsDatabase(t *testing.T) {
	server := newTestServer(t)

	status, env, _ := server.do(t, http.MethodGet, "/api/v1/health", "", nil)
	require.Equal(t, http.StatusOK, status)
	require.True(t, env.Success)
	require.Contains(t, string(env.Data), `"database":"ok"`)
}

func TestAuthenticationAndRoleGates(t *testing.T) {
	server := newTestServer(t)
	server.seedStaff(t, "admin", models.RoleAdmin)
	server.seedStaff(t, "editor", models.RoleEditor)

	student := server.registerStudent(t, "alice")
	admin := server.login(t, "admin", "staff-password")
	editor := server.login(t, "editor@campus.test", "staff-password")

	status, env, _ := server.do(t, http.MethodGet, "/api/v1/users", "", nil)
	require.Equal(t, http.StatusUnauthorized, status)
	require.False(t, env.Success)

	status, _, _ = server.do(t, http.MethodGet, "/api/v1/users", "not-a-token", nil)
	require.Equal(t, http.StatusUnauthorized, status)

	status, _, _ = server.do(t, http.MethodGet, "/api/v1/users", student, nil)
	require.Equal(t, http.StatusForbidden, status)

	status, _, _ = server.do(t, http.MethodGet, "/api/v1/users", editor, nil)
	require.Equal(t, http.StatusForbidden, status)

	status, env, _ = server.do(t, http.MethodGet, "/api/v1/users", admin, nil)
	require.Equal(t, http.StatusOK, status)
	require.True(t, env.Success)

	status, _, _ = server.do(t, http.MethodGet, "/api/v1/content/articles", editor, nil)
	require.Equal(t, http.StatusOK, status)

	status, _, _ = server.do(t, http.MethodGet, "/api/v1/admin/activity", editor, nil)
	require.Equal(t, http.StatusForbidden, status)

	status, _, _ = server.do(t, http.MethodGet, "/api/v1/profile/me", student, nil)
	require.Equal(t, http.StatusOK, status)
}

func TestLoginErrorsAndContract(t *testing.T) {
	server := newTestServer(t)
	server.registerStudent(t, "alice")

	status, env, _ := server.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"identifier": "alice", "password": "wrong"})
	require.Equal(t, http.StatusUnauthorized, status)
	require.False(t, env.Success)

	status, env, _ = server.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{"username": "x"})
	require.Equal(t, http.StatusBadRequest, status)
	require.NotEmpty(t, env.Details)

	status, _, raw := server.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"identifier": "alice", "password": "student-password"})
	require.Equal(t, http.StatusOK, status)
	validateAgainst(t, compileSchema(t, "login.schema.json"), raw)

	reason := "harassment"
	require.NoError(t, server.db.Model(&models.User{}).Where("username = ?", "alice").
		Updates(map[string]interface{}{"is_banned": true, "ban_reason": reason}).Error)

	status, _, raw = server.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"identifier": "alice", "password": "student-password"})
	require.Equal(t, http.StatusForbidden, status)
	require.Contains(t, string(raw), reason)
}

func TestEventRegistrationOverHTTP(t *testing.T) {
	server := newTestServer(t)
	server.seedStaff(t, "admin", models.RoleAdmin)
	admin := server.login(t, "admin", "staff-password")
	alice := server.registerStudent(t, "alice")
	bob := server.registerStudent(t, "bob")

	start := time.Now().UTC().Add(30 * 24 * time.Hour).Truncate(time.Second)
	status, env, _ := server.do(t, http.MethodPost, "/api/v1/events", admin, map[string]interface{}{
		"title":                 "Career Fair",
		"start_time":            start,
		"end_time":              start.Add(4 * time.Hour),
		"registration_deadline": start.Add(-24 * time.Hour),
		"max_attendees":         1,
	})
	require.Equal(t, http.StatusCreated, status, env.Message)
	var event struct {
		ID uint `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &event))

	status, _, _ = server.do(t, http.MethodPost, "/api/v1/events", alice, map[string]interface{}{"title": "Sneaky"})
	require.Equal(t, http.StatusForbidden, status)

	path := fmt.Sprintf("/api/v1/student/events/%d/register", event.ID)
	status, _, _ = server.do(t, http.MethodPost, path, alice, nil)
	require.Equal(t, http.StatusCreated, status)

	status, env, _ = server.do(t, http.MethodPost, path, alice, nil)
	require.Equal(t, http.StatusConflict, status)
	require.Equal(t, "you are already registered for this event", env.Message)

	status, env, _ = server.do(t, http.MethodPost, path, bob, nil)
	require.Equal(t, http.StatusConflict, status)
	require.Equal(t, service.ErrEventFull.Error(), env.Message)

	status, _, _ = server.do(t, http.MethodPost, "/api/v1/student/events/999/register", bob, nil)
	require.Equal(t, http.StatusNotFound, status)

	status, _, _ = server.do(t, http.MethodPost, "/api/v1/student/events/abc/register", bob, nil)
	require.Equal(t, http.StatusBadRequest, status)

	status, _, raw := server.do(t, http.MethodGet, "/api/v1/student/events", alice, nil)
	require.Equal(t, http.StatusOK, status)
	validateAgainst(t, compileSchema(t, "event_list.schema.json"), raw)
	require.Contains(t, string(raw), `"is_registered":true`)
}

func TestClosedRegistrationIsConflict(t *testing.T) {
	server := newTestServer(t)
	server.seedStaff(t, "admin", models.RoleAdmin)
	alice := server.registerStudent(t, "alice")

	var organizer models.User
	require.NoError(t, server.db.Where("username = ?", "admin").First(&organizer).Error)

	start := time.Now().UTC().Add(2 * time.Hour)
	closed := models.Event{
		Title:                "Last-minute seminar",
		StartTime:            start,
		EndTime:              start.Add(time.Hour),
		RegistrationDeadline: time.Now().UTC().Add(-time.Hour),
		OrganizerID:          organizer.ID,
		Status:               models.EventStatusPublished,
	}
	require.NoError(t, server.db.Omit("Organizer").Create(&closed).Error)

	status, env, _ := server.do(t, http.MethodPost, fmt.Sprintf("/api/v1/student/events/%d/register", closed.ID), alice, nil)
	require.Equal(t, http.StatusConflict, status)
	require.Equal(t, "registration deadline has passed", env.Message)
}

func TestSurveySubmissionOverHTTP(t *testing.T) {
	server := newTestServer(t)
	server.seedStaff(t, "admin", models.RoleAdmin)
	admin := server.login(t, "admin", "staff-password")
	alice := server.registerStudent(t, "alice")

	status, env, _ := server.do(t, http.MethodPost, "/api/v1/surveys", admin, map[string]interface{}{
		"title":  "Library feedback",
		"status": "active",
		"questions": []map[string]interface{}{
			{"question_text": "Opening hours OK?", "question_type": "single_choice", "options": []string{"Yes", "No"}},
		},
	})
	require.Equal(t, http.StatusCreated, status, env.Message)

	var survey struct {
		ID        uint `json:"id"`
		Questions []struct {
			ID      uint `json:"id"`
			Options []struct {
				ID uint `json:"id"`
			} `json:"options"`
		} `json:"questions"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &survey))

	surveyPath := fmt.Sprintf("/api/v1/student/surveys/%d", survey.ID)
	status, _, _ = server.do(t, http.MethodGet, surveyPath, alice, nil)
	require.Equal(t, http.StatusOK, status)

	answers := map[string]interface{}{"answers": []map[string]interface{}{
		{"question_id": survey.Questions[0].ID, "option_id": survey.Questions[0].Options[0].ID},
	}}
	status, _, _ = server.do(t, http.MethodPost, surveyPath+"/submit", alice, answers)
	require.Equal(t, http.StatusCreated, status)

	status, _, _ = server.do(t, http.MethodPost, surveyPath+"/submit", alice, answers)
	require.Equal(t, http.StatusConflict, status)

	status, env, _ = server.do(t, http.MethodGet, surveyPath, alice, nil)
	require.Equal(t, http.StatusForbidden, status)
	require.Equal(t, "you have already completed this survey", env.Message)

	bob := server.registerStudent(t, "bob")
	status, _, _ = server.do(t, http.MethodPost, surveyPath+"/submit", bob, map[string]interface{}{"answers": []map[string]interface{}{
		{"question_id": survey.Questions[0].ID, "option_id": 424242},
	}})
	require.Equal(t, http.StatusBadRequest, status)

	require.NoError(t, server.db.Model(&models.Survey{}).Where("id = ?", survey.ID).Update("status", models.SurveyStatusClosed).Error)
	status, env, _ = server.do(t, http.MethodPost, surveyPath+"/submit", alice, answers)
	require.Equal(t, http.StatusConflict, status)
	require.Equal(t, "you have already submitted this survey", env.Message)
}

func TestFileUploadWithoutStorageIsUnavailable(t *testing.T) {
	server := newTestServer(t)
	server.seedStaff(t, "admin", models.RoleAdmin)
	admin := server.login(t, "admin", "staff-password")

	body := &bytes.Buffer{}
	body.WriteString("--boundary\r\nContent-Disposition: form-data; name=\"file\"; filename=\"a.pdf\"\r\nContent-Type: application/pdf\r\n\r\n%PDF-1.4\n%%EOF\n\r\n--boundary--\r\n")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/files/upload", body)
	req.Header.Set(fiber.HeaderContentType, "multipart/form-data; boundary=boundary")
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+admin)

	resp, err := server.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestProtectedGroupsRequireVerifier(t *testing.T) {
	app := fiber.New()
	router.Register(app, config.Config{AppName: "Campus Portal API"}, router.Dependencies{})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/users", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/health", nil).WithContext(context.Background()))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "Campus Portal API", resp.Header.Get("X-Application"))
}

var pngHeader = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), make([]byte, 64)...)

func TestProfilePictureUpload(t *testing.T) {
	server := newTestServer(t)
	alice := server.registerStudent(t, "alice")

	status, env := server.doMultipart(t, http.MethodPost, "/api/v1/profile/picture", alice, nil,
		&formFile{field: "profile_picture", name: "Me.PNG", content: pngHeader})
	require.Equal(t, http.StatusOK, status, env.Message)

	var user struct {
		ProfileImageURL string `json:"profile_image_url"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &user))
	require.True(t, strings.HasPrefix(user.ProfileImageURL, "/uploads/files/avatar-"), user.ProfileImageURL)
	require.True(t, strings.HasSuffix(user.ProfileImageURL, "-me.png"), user.ProfileImageURL)

	_, err := os.Stat(filepath.Join(server.uploadsDir, filepath.Base(user.ProfileImageURL)))
	require.NoError(t, err)

	status, env, _ = server.do(t, http.MethodGet, "/api/v1/profile/me", alice, nil)
	require.Equal(t, http.StatusOK, status)
	require.Contains(t, string(env.Data), user.ProfileImageURL)

	status, env = server.doMultipart(t, http.MethodPost, "/api/v1/profile/picture", alice, nil,
		&formFile{field: "profile_picture", name: "notes.png", content: []byte("just some text")})
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, "file type not supported", env.Message)

	status, env = server.doMultipart(t, http.MethodPost, "/api/v1/profile/picture", alice, nil,
		&formFile{field: "profile_picture", name: "syllabus.pdf", content: []byte("%PDF-1.4\n%%EOF\n")})
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, "file type not supported", env.Message)

	status, _ = server.doMultipart(t, http.MethodPost, "/api/v1/profile/picture", alice, map[string]string{"note": "no file"}, nil)
	require.Equal(t, http.StatusBadRequest, status)

	status, _ = server.doMultipart(t, http.MethodPost, "/api/v1/profile/picture", "", nil,
		&formFile{field: "profile_picture", name: "me.png", content: pngHeader})
	require.Equal(t, http.StatusUnauthorized, status)
}

func TestEventCoverUpload(t *testing.T) {
	server := newTestServer(t)
	server.seedStaff(t, "admin", models.RoleAdmin)
	admin := server.login(t, "admin", "staff-password")

	start := time.Now().UTC().Add(30 * 24 * time.Hour).Truncate(time.Second)
	payload, err := json.Marshal(map[string]interface{}{
		"title":                 "Art Exhibition",
		"start_time":            start,
		"end_time":              start.Add(4 * time.Hour),
		"registration_deadline": start.Add(-24 * time.Hour),
	})
	require.NoError(t, err)

	status, env := server.doMultipart(t, http.MethodPost, "/api/v1/events", admin, map[string]string{"data": string(payload)},
		&formFile{field: "cover_image_upload", name: "poster.png", content: pngHeader})
	require.Equal(t, http.StatusCreated, status, env.Message)

	var event struct {
		ID            uint   `json:"id"`
		Title         string `json:"title"`
		CoverImageURL string `json:"cover_image_url"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &event))
	require.Equal(t, "Art Exhibition", event.Title)
	require.True(t, strings.HasPrefix(event.CoverImageURL, "/uploads/files/cover-"), event.CoverImageURL)
	firstCover := filepath.Join(server.uploadsDir, filepath.Base(event.CoverImageURL))
	_, err = os.Stat(firstCover)
	require.NoError(t, err)

	path := fmt.Sprintf("/api/v1/events/%d", event.ID)
	status, env = server.doMultipart(t, http.MethodPut, path, admin, map[string]string{"data": `{"location":"Gallery 2"}`},
		&formFile{field: "cover_image_upload", name: "poster-v2.png", content: pngHeader})
	require.Equal(t, http.StatusOK, status, env.Message)
	require.NoError(t, json.Unmarshal(env.Data, &event))
	require.True(t, strings.HasSuffix(event.CoverImageURL, "-poster-v2.png"), event.CoverImageURL)
	_, err = os.Stat(firstCover)
	require.True(t, os.IsNotExist(err))

	status, env = server.doMultipart(t, http.MethodPut, path, admin, nil,
		&formFile{field: "cover_image_upload", name: "poster.gif", content: []byte("plain text")})
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, "file type not supported", env.Message)

	status, env, _ = server.do(t, http.MethodGet, path, admin, nil)
	require.Equal(t, http.StatusOK, status)
	require.Contains(t, string(env.Data), "Gallery 2")
	require.Contains(t, string(env.Data), "-poster-v2.png")
}
