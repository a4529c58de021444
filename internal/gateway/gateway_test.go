package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/foxseedlab/mensetsukin/internal/config"
	"github.com/foxseedlab/mensetsukin/internal/interview"
	"github.com/foxseedlab/mensetsukin/internal/resume"
	"github.com/foxseedlab/mensetsukin/internal/transcriber"
	"github.com/foxseedlab/mensetsukin/internal/webhook"
)

type fakeExtractor struct {
	text string
	err  error
}

func (f *fakeExtractor) ExtractText(_ []byte) (string, error) {
	return f.text, f.err
}

type fakeTranscriber struct {
	text string
	err  error
}

func (f *fakeTranscriber) Transcribe(_ context.Context, audio io.Reader) (string, error) {
	_, _ = io.Copy(io.Discard, audio)
	return f.text, f.err
}

type fakeCompleter struct {
	replies []string
	err     error
	calls   int
}

func (f *fakeCompleter) Complete(_ context.Context, _ []interview.Turn) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	if len(f.replies) == 0 {
		return "Tell me more.", nil
	}
	reply := f.replies[0]
	f.replies = f.replies[1:]
	return reply, nil
}

type noopSender struct{}

func (noopSender) SendTranscript(_ context.Context, _ webhook.InterviewCompletedPayload) error {
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		Env:                          "test",
		MaxCompletionCallsPerSession: 20,
		SessionIdleTimeoutMin:        30,
		MaxUploadBytes:               10 << 20,
	}
}

func newTestHandler(extractor resume.TextExtractor, stt transcriber.Transcriber, completer interview.Completer) http.Handler {
	cfg := testConfig()
	interviews := interview.NewManager(cfg, completer, noopSender{})
	return NewHandler(cfg, extractor, stt, interviews).Routes()
}

func multipartBody(t *testing.T, fields map[string]string, fileField, filename string, fileBody []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	if fileField != "" {
		fw, err := mw.CreateFormFile(fileField, filename)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := fw.Write(fileBody); err != nil {
			t.Fatalf("write file body: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func doUpload(t *testing.T, handler http.Handler) turnResponse {
	t.Helper()
	body, contentType := multipartBody(t, nil, "file", "resume.pdf", []byte("%PDF-fake"))
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("upload returned %d: %s", rec.Code, rec.Body.String())
	}
	var res turnResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode upload response: %v", err)
	}
	return res
}

func TestUpload_StartsInterview(t *testing.T) {
	handler := newTestHandler(
		&fakeExtractor{text: "Experienced in Python and SQL."},
		&fakeTranscriber{},
		&fakeCompleter{replies: []string{"Welcome! Please introduce yourself."}},
	)

	res := doUpload(t, handler)
	if res.SessionID == "" {
		t.Fatal("expected a session id")
	}
	if res.Response != "Welcome! Please introduce yourself." {
		t.Fatalf("unexpected Response: %q", res.Response)
	}
	if res.UserResponse != "" {
		t.Fatalf("expected empty User_response, got %q", res.UserResponse)
	}
}

func TestUpload_NoExtractableText(t *testing.T) {
	completer := &fakeCompleter{}
	handler := newTestHandler(&fakeExtractor{err: resume.ErrNoText}, &fakeTranscriber{}, completer)

	body, contentType := multipartBody(t, nil, "file", "resume.pdf", []byte("%PDF-fake"))
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), msgNoExtractableText) {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
	if completer.calls != 0 {
		t.Fatal("completer should not be contacted without text")
	}
}

func TestUpload_NoRecognizedSkills(t *testing.T) {
	handler := newTestHandler(
		&fakeExtractor{text: "I enjoy gardening and watercolor painting."},
		&fakeTranscriber{},
		&fakeCompleter{},
	)

	body, contentType := multipartBody(t, nil, "file", "resume.pdf", []byte("%PDF-fake"))
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), msgNoRecognizedSkills) {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestUpload_CompletionFailure(t *testing.T) {
	handler := newTestHandler(
		&fakeExtractor{text: "Python developer."},
		&fakeTranscriber{},
		&fakeCompleter{err: interview.ErrCompletionFailed},
	)

	body, contentType := multipartBody(t, nil, "file", "resume.pdf", []byte("%PDF-fake"))
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "error") {
		t.Fatalf("expected structured error, got %s", rec.Body.String())
	}
}

func doTranscribe(t *testing.T, handler http.Handler, path, sessionID string) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartBody(t, map[string]string{"session_id": sessionID}, "file", "answer.wav", []byte("RIFF..."))
	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestTranscribe_AdvancesInterview(t *testing.T) {
	handler := newTestHandler(
		&fakeExtractor{text: "Python developer."},
		&fakeTranscriber{text: "I have five years of experience."},
		&fakeCompleter{replies: []string{"Welcome!", "What is a decorator in Python?"}},
	)
	up := doUpload(t, handler)

	rec := doTranscribe(t, handler, "/transcribe", up.SessionID)
	if rec.Code != http.StatusOK {
		t.Fatalf("transcribe returned %d: %s", rec.Code, rec.Body.String())
	}
	var res turnResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if res.Response != "What is a decorator in Python?" {
		t.Fatalf("unexpected Response: %q", res.Response)
	}
	if res.UserResponse != "I have five years of experience." {
		t.Fatalf("unexpected User_response: %q", res.UserResponse)
	}
	if res.TranscribedText != "I have five years of experience." {
		t.Fatalf("unexpected transcribed_text: %q", res.TranscribedText)
	}
	if res.InterviewComplete {
		t.Fatal("interview should not be complete")
	}
}

func TestEvaluateAlias_MatchesTranscribe(t *testing.T) {
	handler := newTestHandler(
		&fakeExtractor{text: "Python developer."},
		&fakeTranscriber{text: "An answer."},
		&fakeCompleter{replies: []string{"Welcome!", "Next question?"}},
	)
	up := doUpload(t, handler)

	rec := doTranscribe(t, handler, "/evaluate", up.SessionID)
	if rec.Code != http.StatusOK {
		t.Fatalf("evaluate returned %d: %s", rec.Code, rec.Body.String())
	}
}

func TestTranscribe_SpeechNotRecognized(t *testing.T) {
	completer := &fakeCompleter{replies: []string{"Welcome!"}}
	handler := newTestHandler(
		&fakeExtractor{text: "Python developer."},
		&fakeTranscriber{err: transcriber.ErrUnintelligible},
		completer,
	)
	up := doUpload(t, handler)
	callsAfterUpload := completer.calls

	rec := doTranscribe(t, handler, "/transcribe", up.SessionID)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), msgSpeechNotRecognized) {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
	// The failed capture must not have touched session state.
	if completer.calls != callsAfterUpload {
		t.Fatal("completer contacted despite recognition failure")
	}
}

func TestTranscribe_ServiceUnavailable(t *testing.T) {
	handler := newTestHandler(
		&fakeExtractor{text: "Python developer."},
		&fakeTranscriber{err: transcriber.ErrServiceUnavailable},
		&fakeCompleter{replies: []string{"Welcome!"}},
	)
	up := doUpload(t, handler)

	rec := doTranscribe(t, handler, "/transcribe", up.SessionID)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), msgSpeechUnavailable) {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestTranscribe_UnknownSession(t *testing.T) {
	handler := newTestHandler(
		&fakeExtractor{text: "Python developer."},
		&fakeTranscriber{text: "hi"},
		&fakeCompleter{},
	)

	rec := doTranscribe(t, handler, "/transcribe", "does-not-exist")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestTranscribe_TerminalTurnAndAfter(t *testing.T) {
	handler := newTestHandler(
		&fakeExtractor{text: "Python developer."},
		&fakeTranscriber{text: "My final answer."},
		&fakeCompleter{replies: []string{"Welcome!", "2118785"}},
	)
	up := doUpload(t, handler)

	rec := doTranscribe(t, handler, "/transcribe", up.SessionID)
	if rec.Code != http.StatusOK {
		t.Fatalf("terminal turn returned %d: %s", rec.Code, rec.Body.String())
	}
	var res turnResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !res.InterviewComplete {
		t.Fatal("expected interview_complete")
	}
	if strings.Contains(res.Response, "2118785") {
		t.Fatalf("sentinel leaked to the client: %q", res.Response)
	}

	rec = doTranscribe(t, handler, "/transcribe", up.SessionID)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 after interview end, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), msgInterviewEnded) {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestFeedback_AfterInterviewEnds(t *testing.T) {
	handler := newTestHandler(
		&fakeExtractor{text: "Python developer."},
		&fakeTranscriber{text: "My final answer."},
		&fakeCompleter{replies: []string{"Welcome!", "2118785", "[{\"question\":\"q\",\"answer\":\"a\",\"feedback\":\"f\",\"score\":8}]"}},
	)
	up := doUpload(t, handler)
	doTranscribe(t, handler, "/transcribe", up.SessionID)

	body, contentType := multipartBody(t, map[string]string{"session_id": up.SessionID}, "", "", nil)
	req := httptest.NewRequest(http.MethodPost, "/feedback", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("feedback returned %d: %s", rec.Code, rec.Body.String())
	}
	var res feedbackResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	var items []map[string]any
	if err := json.Unmarshal(res.Feedback, &items); err != nil {
		t.Fatalf("feedback is not a JSON array: %v", err)
	}
	if len(items) != 1 || items[0]["score"] != float64(8) {
		t.Fatalf("unexpected feedback: %v", items)
	}
}

func TestFeedback_RejectedWhileRunning(t *testing.T) {
	handler := newTestHandler(
		&fakeExtractor{text: "Python developer."},
		&fakeTranscriber{},
		&fakeCompleter{replies: []string{"Welcome!"}},
	)
	up := doUpload(t, handler)

	body, contentType := multipartBody(t, map[string]string{"session_id": up.SessionID}, "", "", nil)
	req := httptest.NewRequest(http.MethodPost, "/feedback", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestCORS_Preflight(t *testing.T) {
	handler := newTestHandler(&fakeExtractor{}, &fakeTranscriber{}, &fakeCompleter{})

	req := httptest.NewRequest(http.MethodOptions, "/upload", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatal("missing CORS headers")
	}
}

func TestHealthz(t *testing.T) {
	handler := newTestHandler(&fakeExtractor{}, &fakeTranscriber{}, &fakeCompleter{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
