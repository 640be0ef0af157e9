package handlers_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mapforge/internal/storage"
)

func multipartUpload(t *testing.T, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("CreateFormFile returned error: %v", err)
	}
	if _, err := fw.Write([]byte(content)); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func TestOSMUpload(t *testing.T) {
	app, handler := newTestApp(t, false, nil)
	uploads, err := storage.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore returned error: %v", err)
	}
	app.Uploads = uploads

	body, contentType := multipartUpload(t, "my_area.osm", "<osm version=\"0.6\"></osm>")
	req := httptest.NewRequest(http.MethodPost, "/v1/osm", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201; body=%s", rec.Code, rec.Body.String())
	}
	var resp struct {
		CustomOSM string `json:"custom_osm"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Unmarshal returned error: %v", err)
	}
	if !strings.HasPrefix(resp.CustomOSM, "custom_osm_") || !strings.HasSuffix(resp.CustomOSM, ".osm") {
		t.Fatalf("custom_osm = %q", resp.CustomOSM)
	}
	if _, err := os.Stat(filepath.Join(uploads.BasePath(), resp.CustomOSM)); err != nil {
		t.Fatalf("stored file missing: %v", err)
	}
}

func TestOSMUploadRejectsWrongExtension(t *testing.T) {
	app, handler := newTestApp(t, false, nil)
	uploads, err := storage.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore returned error: %v", err)
	}
	app.Uploads = uploads

	body, contentType := multipartUpload(t, "map.xml", "<osm/>")
	req := httptest.NewRequest(http.MethodPost, "/v1/osm", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestOSMUploadDisabled(t *testing.T) {
	_, handler := newTestApp(t, false, nil)

	body, contentType := multipartUpload(t, "map.osm", "<osm/>")
	req := httptest.NewRequest(http.MethodPost, "/v1/osm", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}
