package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/m1z23r/drift/pkg/drift"
	driftmw "github.com/m1z23r/drift/pkg/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dimitrije/jsoncrack-api/internal/models"
	"github.com/dimitrije/jsoncrack-api/internal/services"
	"github.com/dimitrije/jsoncrack-api/internal/testutil"
	"github.com/dimitrije/jsoncrack-api/pkg/dto"
)

func setupShareTest(t *testing.T) (*testutil.MockShareService, *ShareHandler) {
	t.Helper()
	mockShareService := new(testutil.MockShareService)
	handler := NewShareHandler(mockShareService, 2*1024*1024, nil, false)
	return mockShareService, handler
}

func jsonRequest(method, path string, body any) *http.Request {
	jsonBody, _ := json.Marshal(body)
	req := httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) dto.ErrorResponse {
	t.Helper()
	var resp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestShareHandler_Create_Success(t *testing.T) {
	mockShareService, handler := setupShareTest(t)

	share := &models.Share{
		Slug:       "abcDEF1234",
		Type:       models.ShareTypeJSON,
		Content:    `{"a":1}`,
		Mode:       models.ModeTree,
		AccessType: models.AccessViewer,
	}
	mockShareService.On("Create", mock.Anything, services.ShareInput{
		Type:    models.ShareTypeJSON,
		Content: `{"a":1}`,
		Mode:    models.ModeTree,
	}).Return(share, nil)

	app := drift.New()
	app.Use(driftmw.BodyParser())
	app.Post("/share", handler.Create)

	content := `{"a":1}`
	req := jsonRequest(http.MethodPost, "/share", dto.CreateShareRequest{Content: &content, Type: "json", Mode: "tree"})
	rec := httptest.NewRecorder()

	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var response dto.CreateShareResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, "abcDEF1234", response.Slug)
	assert.Equal(t, "tree", response.Mode)
	assert.Equal(t, "json", response.Type)
	assert.Equal(t, "viewer", response.AccessType)
	assert.NotContains(t, rec.Body.String(), "content")

	mockShareService.AssertExpectations(t)
}

func TestShareHandler_Create_LegacyJSONField(t *testing.T) {
	mockShareService, handler := setupShareTest(t)

	mockShareService.On("Create", mock.Anything, mock.MatchedBy(func(in services.ShareInput) bool {
		return in.Content == "hello" && in.Type == models.ShareTypeText
	})).Return(&models.Share{Slug: "abcDEF1234", Type: models.ShareTypeText, Mode: models.ModeFormatter}, nil)

	app := drift.New()
	app.Use(driftmw.BodyParser())
	app.Post("/share", handler.Create)

	req := jsonRequest(http.MethodPost, "/share", map[string]any{"json": "hello", "type": "text"})
	rec := httptest.NewRecorder()

	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	mockShareService.AssertExpectations(t)
}

func TestShareHandler_Create_ValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		body map[string]any
	}{
		{"private without password", map[string]any{"content": "x", "type": "text", "isPrivate": true}},
		{"short password", map[string]any{"content": "x", "type": "text", "isPrivate": true, "password": "abc"}},
		{"json without mode", map[string]any{"content": "{}"}},
		{"bad mode", map[string]any{"content": "{}", "mode": "grid"}},
		{"bad type", map[string]any{"content": "x", "type": "xml", "mode": "tree"}},
		{"bad slug", map[string]any{"content": "x", "type": "text", "slug": "no-dashes"}},
		{"bad access type", map[string]any{"content": "x", "type": "text", "accessType": "owner"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockShareService, handler := setupShareTest(t)

			app := drift.New()
			app.Use(driftmw.BodyParser())
			app.Post("/share", handler.Create)

			rec := httptest.NewRecorder()
			app.ServeHTTP(rec, jsonRequest(http.MethodPost, "/share", tt.body))

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			resp := decodeError(t, rec)
			assert.False(t, resp.Success)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.NotEmpty(t, resp.Details)
			mockShareService.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestShareHandler_Create_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"conflict", services.ErrSlugTaken, http.StatusConflict},
		{"core validation", &services.ValidationError{Field: "content", Reason: "must be valid JSON"}, http.StatusBadRequest},
		{"internal", errors.New("db down"), http.StatusInternalServerError},
		{"exhausted", services.ErrSlugExhausted, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockShareService, handler := setupShareTest(t)
			mockShareService.On("Create", mock.Anything, mock.Anything).Return(nil, tt.err)

			app := drift.New()
			app.Use(driftmw.BodyParser())
			app.Post("/share", handler.Create)

			rec := httptest.NewRecorder()
			app.ServeHTTP(rec, jsonRequest(http.MethodPost, "/share", map[string]any{"content": "x", "type": "text", "slug": "mySlug01"}))

			assert.Equal(t, tt.status, rec.Code)
			resp := decodeError(t, rec)
			assert.False(t, resp.Success)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestShareHandler_InternalErrorMaskedInProduction(t *testing.T) {
	mockShareService := new(testutil.MockShareService)
	handler := NewShareHandler(mockShareService, 1024, nil, true)
	mockShareService.On("GetMetadata", mock.Anything, "abcdef1234").Return(nil, errors.New("connection refused to 10.0.0.5"))

	app := drift.New()
	app.Get("/share/:slug", handler.GetMetadata)

	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/share/abcdef1234", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal Server Error", decodeError(t, rec).Error)
}

func TestShareHandler_GetMetadata_Private(t *testing.T) {
	mockShareService, handler := setupShareTest(t)
	mockShareService.On("GetMetadata", mock.Anything, "abcdef1234").Return(&services.ShareView{
		Type:       models.ShareTypeText,
		Slug:       "abcdef1234",
		IsPrivate:  true,
		AccessType: models.AccessViewer,
		Mode:       models.ModeFormatter,
	}, nil)

	app := drift.New()
	app.Get("/share/:slug", handler.GetMetadata)

	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/share/abcdef1234", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body, "data")
	assert.Nil(t, body["data"])
	assert.Equal(t, true, body["isPrivate"])
	assert.Equal(t, "viewer", body["accessType"])
}

func TestShareHandler_GetMetadata_InvalidSlug(t *testing.T) {
	mockShareService, handler := setupShareTest(t)

	app := drift.New()
	app.Get("/share/:slug", handler.GetMetadata)

	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/share/abc", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	mockShareService.AssertNotCalled(t, "GetMetadata", mock.Anything, mock.Anything)
}

func TestShareHandler_GetMetadata_NotFound(t *testing.T) {
	mockShareService, handler := setupShareTest(t)
	mockShareService.On("GetMetadata", mock.Anything, "abcdef1234").Return(nil, services.ErrShareNotFound)

	app := drift.New()
	app.Get("/share/:slug", handler.GetMetadata)

	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/share/abcdef1234", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, http.StatusNotFound, decodeError(t, rec).StatusCode)
}

func TestShareHandler_Unlock(t *testing.T) {
	mockShareService, handler := setupShareTest(t)
	mockShareService.On("Unlock", mock.Anything, "abcdef1234", "pass").Return(&services.ShareView{
		Type:      models.ShareTypeText,
		Data:      "hello",
		Slug:      "abcdef1234",
		IsPrivate: true,
	}, nil)
	mockShareService.On("Unlock", mock.Anything, "abcdef1234", "nope").Return(nil, services.ErrInvalidPassword)

	app := drift.New()
	app.Use(driftmw.BodyParser())
	app.Post("/share/:slug", handler.Unlock)

	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, jsonRequest(http.MethodPost, "/share/abcdef1234", dto.UnlockShareRequest{Password: "pass"}))
	assert.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "hello", body["data"])

	rec = httptest.NewRecorder()
	app.ServeHTTP(rec, jsonRequest(http.MethodPost, "/share/abcdef1234", dto.UnlockShareRequest{Password: "nope"}))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	app.ServeHTTP(rec, jsonRequest(http.MethodPost, "/share/abcdef1234", map[string]any{}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	mockShareService.AssertExpectations(t)
}

func TestShareHandler_Update(t *testing.T) {
	mockShareService, handler := setupShareTest(t)
	mockShareService.On("Update", mock.Anything, "abcdef1234", mock.MatchedBy(func(in services.ShareInput) bool {
		return in.Content == "new" && in.Type == models.ShareTypeText
	})).Return(false, nil)

	app := drift.New()
	app.Use(driftmw.BodyParser())
	app.Put("/share/:slug", handler.Update)

	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, jsonRequest(http.MethodPut, "/share/abcdef1234", map[string]any{"content": "new", "type": "text"}))

	assert.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "abcdef1234", body["slug"])
	assert.NotContains(t, body, "created")
	mockShareService.AssertExpectations(t)
}

func TestShareHandler_Update_Upsert(t *testing.T) {
	mockShareService, handler := setupShareTest(t)
	mockShareService.On("Update", mock.Anything, "newSlug01", mock.Anything).Return(true, nil)

	app := drift.New()
	app.Use(driftmw.BodyParser())
	app.Put("/share/:slug", handler.Update)

	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, jsonRequest(http.MethodPut, "/share/newSlug01", map[string]any{"content": "x", "type": "text"}))

	assert.Equal(t, http.StatusOK, rec.Code)
	var response dto.UpdateShareResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.True(t, response.Success)
	assert.True(t, response.Created)
}

func TestShareHandler_Update_InvalidTransition(t *testing.T) {
	mockShareService, handler := setupShareTest(t)
	mockShareService.On("Update", mock.Anything, "abcdef1234", mock.Anything).Return(false, services.ErrInvalidTransition)

	app := drift.New()
	app.Use(driftmw.BodyParser())
	app.Put("/share/:slug", handler.Update)

	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, jsonRequest(http.MethodPut, "/share/abcdef1234", map[string]any{"content": "x", "type": "text", "isPrivate": false}))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "cannot change a private link to public", decodeError(t, rec).Error)
}

func multipartRequest(t *testing.T, path, field, filename string, content []byte, extra map[string]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if field != "" {
		part, err := w.CreateFormFile(field, filename)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	for k, v := range extra {
		require.NoError(t, w.WriteField(k, v))
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestShareHandler_Upload(t *testing.T) {
	mockShareService, handler := setupShareTest(t)
	mockShareService.On("CreateFromUpload", mock.Anything, []byte(`{"k":"v"}`), models.ShareType("")).
		Return(&models.Share{Slug: "upl0aded01"}, nil)

	app := drift.New()
	app.Post("/upload", handler.Upload)

	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, multipartRequest(t, "/upload", "file", "data.json", []byte(`{"k":"v"}`), nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	var response dto.UploadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, "upl0aded01", response.Slug)
	mockShareService.AssertExpectations(t)
}

func TestShareHandler_Upload_TextType(t *testing.T) {
	mockShareService, handler := setupShareTest(t)
	mockShareService.On("CreateFromUpload", mock.Anything, []byte("notes"), models.ShareTypeText).
		Return(&models.Share{Slug: "upl0aded02"}, nil)

	app := drift.New()
	app.Post("/upload", handler.Upload)

	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, multipartRequest(t, "/upload", "file", "notes.txt", []byte("notes"), map[string]string{"type": "text"}))

	assert.Equal(t, http.StatusOK, rec.Code)
	mockShareService.AssertExpectations(t)
}

func TestShareHandler_Upload_NoFile(t *testing.T) {
	mockShareService, handler := setupShareTest(t)

	app := drift.New()
	app.Post("/upload", handler.Upload)

	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, multipartRequest(t, "/upload", "", "", nil, map[string]string{"type": "json"}))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, []string{"No file provided"}, decodeError(t, rec).Details)
	mockShareService.AssertNotCalled(t, "CreateFromUpload", mock.Anything, mock.Anything, mock.Anything)
}

func TestShareHandler_Upload_TooLarge(t *testing.T) {
	mockShareService := new(testutil.MockShareService)
	handler := NewShareHandler(mockShareService, 16, nil, false)

	app := drift.New()
	app.Post("/upload", handler.Upload)

	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, multipartRequest(t, "/upload", "file", "big.json", []byte(`"`+strings.Repeat("a", 64)+`"`), nil))

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	mockShareService.AssertNotCalled(t, "CreateFromUpload", mock.Anything, mock.Anything, mock.Anything)
}

func TestShareHandler_GetRaw(t *testing.T) {
	mockShareService, handler := setupShareTest(t)
	mockShareService.On("GetRaw", mock.Anything, "abcdef1234", "").Return(nil, services.ErrPasswordRequired)
	mockShareService.On("GetRaw", mock.Anything, "abcdef1234", "pass").Return(map[string]any{"a": json.Number("1")}, nil)

	app := drift.New()
	app.Get("/:slug", handler.GetRaw)

	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/abcdef1234", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "password is required", decodeError(t, rec).Error)

	rec = httptest.NewRecorder()
	app.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/abcdef1234?password=pass", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"a":1}`, rec.Body.String())

	mockShareService.AssertExpectations(t)
}
