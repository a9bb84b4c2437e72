package handlers

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"foodanalyzer/internal/config"
	"foodanalyzer/internal/dto"
	"foodanalyzer/internal/logger"
	"foodanalyzer/internal/repository/sqlite"
	"foodanalyzer/internal/services"
	"foodanalyzer/internal/services/storage"
	"foodanalyzer/internal/services/vision"
)

// stubTransport plays back a canned response or error for the vision client.
type stubTransport struct {
	response *http.Response
	err      error
	calls    int
}

func (s *stubTransport) Do(req *http.Request) (*http.Response, error) {
	s.calls++
	if req.Body != nil {
		io.Copy(io.Discard, req.Body)
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.response, nil
}

func verdictResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

type testEnv struct {
	cfg     *config.Config
	logger  *logger.Logger
	manager *services.Manager
}

// newTestEnv wires a full pipeline (client, store, repository) around the
// given transport, rooted in temp directories.
func newTestEnv(t *testing.T, apiKey string, transport vision.Doer) *testEnv {
	t.Helper()

	cfg := config.Load()
	cfg.APIKey = apiKey
	cfg.Model = config.DefaultModel
	cfg.Prompt = config.DefaultPrompt
	cfg.LogDirectory = t.TempDir()
	cfg.PhotosDir = t.TempDir()
	cfg.MaxUploadSize = 20 * 1024 * 1024

	log := logger.NewLogger(cfg)

	db, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	manager := services.NewManager(
		vision.NewClient(cfg, transport, log),
		storage.NewPhotoStore(cfg.PhotosDir, 2),
		sqlite.NewAnalysisRepository(db),
		nil,
		cfg.Model,
		log,
	)

	return &testEnv{cfg: cfg, logger: log, manager: manager}
}

func pngBody(t *testing.T, w, h int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 100, A: 255})
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png encode: %v", err)
	}
	return buf.Bytes()
}

func decodeErrorResponse(t *testing.T, rec *httptest.ResponseRecorder) dto.ErrorResponse {
	t.Helper()

	var resp dto.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Response is not an error payload: %v (%s)", err, rec.Body.String())
	}
	return resp
}

func TestAnalyzeHandler_MethodNotAllowed(t *testing.T) {
	env := newTestEnv(t, "sk-or-v1-test", &stubTransport{})
	handler := AnalyzeHandler(env.manager, env.cfg, env.logger)

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/api/analyze", nil))

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected 405, got %d", rec.Code)
	}
}

func TestAnalyzeHandler_RejectsNonImage(t *testing.T) {
	transport := &stubTransport{}
	env := newTestEnv(t, "sk-or-v1-test", transport)
	handler := AnalyzeHandler(env.manager, env.cfg, env.logger)

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodPost, "/api/analyze", strings.NewReader("not an image")))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", rec.Code)
	}
	if resp := decodeErrorResponse(t, rec); resp.Kind != "input" {
		t.Errorf("Expected input error kind, got %q", resp.Kind)
	}
	if transport.calls != 0 {
		t.Errorf("Rejected upload should never reach the provider, got %d calls", transport.calls)
	}
}

func TestAnalyzeHandler_RawBodySuccess(t *testing.T) {
	env := newTestEnv(t, "sk-or-v1-test", &stubTransport{
		response: verdictResponse(200, `{"choices":[{"message":{"content":"Safe to eat"}}]}`),
	})
	handler := AnalyzeHandler(env.manager, env.cfg, env.logger)

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodPost, "/api/analyze", bytes.NewReader(pngBody(t, 64, 64))))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var result dto.AnalysisResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("Response is not an analysis result: %v", err)
	}
	if result.Verdict != "Safe to eat" {
		t.Errorf("Expected verdict %q, got %q", "Safe to eat", result.Verdict)
	}
	if result.Source != "upload" {
		t.Errorf("Expected source upload, got %q", result.Source)
	}
	if result.Filename == "" {
		t.Error("Expected the stored photo filename in the result")
	}

	// The analysis should now be in the history.
	record, err := env.manager.GetRepository().GetByFilename(result.Filename)
	if err != nil {
		t.Fatalf("History lookup failed: %v", err)
	}
	if record == nil {
		t.Error("Analysis not recorded in history")
	}
}

func TestAnalyzeHandler_MultipartSuccess(t *testing.T) {
	env := newTestEnv(t, "sk-or-v1-test", &stubTransport{
		response: verdictResponse(200, `{"choices":[{"message":{"content":"ok"}}]}`),
	})
	handler := AnalyzeHandler(env.manager, env.cfg, env.logger)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("photo", "lunch.png")
	if err != nil {
		t.Fatalf("CreateFormFile failed: %v", err)
	}
	part.Write(pngBody(t, 64, 64))
	writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/analyze", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestAnalyzeHandler_MissingCredential(t *testing.T) {
	transport := &stubTransport{}
	env := newTestEnv(t, "", transport)
	handler := AnalyzeHandler(env.manager, env.cfg, env.logger)

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodPost, "/api/analyze", bytes.NewReader(pngBody(t, 32, 32))))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("Expected 500, got %d", rec.Code)
	}
	resp := decodeErrorResponse(t, rec)
	if resp.Kind != "config" {
		t.Errorf("Expected config error kind, got %q", resp.Kind)
	}
	if !strings.Contains(resp.Error, "OPENROUTER_API_KEY") {
		t.Errorf("Error message should name the missing variable, got %q", resp.Error)
	}
	if transport.calls != 0 {
		t.Errorf("Missing credential should fail before any provider call, got %d", transport.calls)
	}
}

func TestAnalyzeHandler_ProviderError(t *testing.T) {
	env := newTestEnv(t, "sk-or-v1-test", &stubTransport{
		response: verdictResponse(429, "rate limited"),
	})
	handler := AnalyzeHandler(env.manager, env.cfg, env.logger)

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodPost, "/api/analyze", bytes.NewReader(pngBody(t, 32, 32))))

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("Expected 502, got %d", rec.Code)
	}
	resp := decodeErrorResponse(t, rec)
	if resp.Kind != "provider" {
		t.Errorf("Expected provider error kind, got %q", resp.Kind)
	}
	if resp.Status != 429 {
		t.Errorf("Expected upstream status 429, got %d", resp.Status)
	}
	if resp.Body != "rate limited" {
		t.Errorf("Expected upstream body passthrough, got %q", resp.Body)
	}
}

func TestAnalyzeHandler_TransportError(t *testing.T) {
	env := newTestEnv(t, "sk-or-v1-test", &stubTransport{
		err: io.ErrUnexpectedEOF,
	})
	handler := AnalyzeHandler(env.manager, env.cfg, env.logger)

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodPost, "/api/analyze", bytes.NewReader(pngBody(t, 32, 32))))

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("Expected 502, got %d", rec.Code)
	}
	if resp := decodeErrorResponse(t, rec); resp.Kind != "transport" {
		t.Errorf("Expected transport error kind, got %q", resp.Kind)
	}
}

func TestAnalyzeHandler_OversizedUpload(t *testing.T) {
	transport := &stubTransport{}
	env := newTestEnv(t, "sk-or-v1-test", transport)
	env.cfg.MaxUploadSize = 1024
	handler := AnalyzeHandler(env.manager, env.cfg, env.logger)

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodPost, "/api/analyze", bytes.NewReader(make([]byte, 4096))))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400 for oversized upload, got %d", rec.Code)
	}
	if transport.calls != 0 {
		t.Errorf("Oversized upload should never reach the provider, got %d calls", transport.calls)
	}
}
