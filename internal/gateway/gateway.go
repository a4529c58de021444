package gateway

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/foxseedlab/mensetsukin/internal/config"
	"github.com/foxseedlab/mensetsukin/internal/interview"
	"github.com/foxseedlab/mensetsukin/internal/resume"
	"github.com/foxseedlab/mensetsukin/internal/transcriber"
)

const (
	msgNoExtractableText   = "No text could be extracted. Ensure the PDF contains selectable text."
	msgNoRecognizedSkills  = "No relevant skills found in the resume."
	msgInterviewerOffline  = "The interviewer is temporarily unavailable. Please try again."
	msgRepeatLastAnswer    = "The interviewer is temporarily unavailable. Please repeat your last answer."
	msgSpeechNotRecognized = "Speech not recognized"
	msgSpeechUnavailable   = "Speech-to-text service unavailable"
	msgUnknownSession      = "Unknown interview session"
	msgInterviewEnded      = "Interview already ended"
	msgInterviewRunning    = "Interview is still in progress"
	msgProcessingError     = "Could not process the request"
)

// Handler adapts the interview session core to HTTP. It holds no session
// state of its own; everything lives in the interview manager.
type Handler struct {
	cfg         *config.Config
	extractor   resume.TextExtractor
	transcriber transcriber.Transcriber
	interviews  *interview.Manager
}

func NewHandler(cfg *config.Config, extractor resume.TextExtractor, stt transcriber.Transcriber, interviews *interview.Manager) *Handler {
	return &Handler{
		cfg:         cfg,
		extractor:   extractor,
		transcriber: stt,
		interviews:  interviews,
	}
}

func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /upload", h.handleUpload)
	mux.HandleFunc("POST /transcribe", h.handleTranscribe)
	// Kept for clients built against the earlier endpoint name.
	mux.HandleFunc("POST /evaluate", h.handleTranscribe)
	mux.HandleFunc("POST /feedback", h.handleFeedback)
	mux.HandleFunc("GET /healthz", h.handleHealthz)
	return withCORS(mux)
}

type turnResponse struct {
	SessionID         string `json:"session_id"`
	Response          string `json:"Response"`
	UserResponse      string `json:"User_response"`
	TranscribedText   string `json:"transcribed_text,omitempty"`
	InterviewComplete bool   `json:"interview_complete,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type feedbackResponse struct {
	SessionID string          `json:"session_id"`
	Feedback  json.RawMessage `json:"feedback"`
}

func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxUploadBytes)

	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Missing resume file")
		return
	}
	defer func() {
		_ = file.Close()
	}()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, msgProcessingError)
		return
	}

	text, err := h.extractor.ExtractText(data)
	if err != nil || strings.TrimSpace(text) == "" {
		if err != nil && !errors.Is(err, resume.ErrNoText) {
			slog.Warn("resume text extraction failed", "error", err)
		}
		writeError(w, http.StatusUnprocessableEntity, msgNoExtractableText)
		return
	}

	skills := resume.ExtractSkills(text, resume.DefaultVocabulary)
	if len(skills) == 0 {
		writeError(w, http.StatusUnprocessableEntity, msgNoRecognizedSkills)
		return
	}

	res, err := h.interviews.Start(r.Context(), skills)
	if err != nil {
		slog.Error("failed to start interview session", "error", err)
		writeError(w, http.StatusBadGateway, msgInterviewerOffline)
		return
	}

	slog.Info("interview started from resume upload", "session_id", res.SessionID, "skills", skills)
	writeJSON(w, http.StatusOK, turnResponse{
		SessionID:    res.SessionID,
		Response:     res.InterviewerText,
		UserResponse: "",
	})
}

func (h *Handler) handleTranscribe(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxUploadBytes)

	sessionID := r.FormValue("session_id")
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "Missing session_id")
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Missing audio file")
		return
	}
	defer func() {
		_ = file.Close()
	}()

	text, err := h.transcriber.Transcribe(r.Context(), file)
	if err != nil {
		// The session transcript is untouched; the candidate can simply
		// record again.
		switch {
		case errors.Is(err, transcriber.ErrUnintelligible):
			writeError(w, http.StatusUnprocessableEntity, msgSpeechNotRecognized)
		case errors.Is(err, transcriber.ErrServiceUnavailable):
			slog.Error("transcription failed", "error", err, "session_id", sessionID)
			writeError(w, http.StatusBadGateway, msgSpeechUnavailable)
		default:
			slog.Error("transcription failed", "error", err, "session_id", sessionID)
			writeError(w, http.StatusInternalServerError, msgProcessingError)
		}
		return
	}

	res, err := h.interviews.Advance(r.Context(), sessionID, text)
	if err != nil {
		h.writeAdvanceError(w, sessionID, err)
		return
	}

	writeJSON(w, http.StatusOK, turnResponse{
		SessionID:         res.SessionID,
		Response:          res.InterviewerText,
		UserResponse:      res.CandidateText,
		TranscribedText:   text,
		InterviewComplete: res.Done,
	})
}

func (h *Handler) writeAdvanceError(w http.ResponseWriter, sessionID string, err error) {
	switch {
	case errors.Is(err, interview.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, msgUnknownSession)
	case errors.Is(err, interview.ErrSessionAlreadyEnded):
		writeError(w, http.StatusConflict, msgInterviewEnded)
	default:
		slog.Error("failed to advance interview", "error", err, "session_id", sessionID)
		writeError(w, http.StatusBadGateway, msgRepeatLastAnswer)
	}
}

func (h *Handler) handleFeedback(w http.ResponseWriter, r *http.Request) {
	sessionID := r.FormValue("session_id")
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "Missing session_id")
		return
	}

	raw, err := h.interviews.Feedback(r.Context(), sessionID)
	if err != nil {
		switch {
		case errors.Is(err, interview.ErrSessionNotFound):
			writeError(w, http.StatusNotFound, msgUnknownSession)
		case errors.Is(err, interview.ErrSessionNotFinished):
			writeError(w, http.StatusConflict, msgInterviewRunning)
		default:
			slog.Error("failed to evaluate interview", "error", err, "session_id", sessionID)
			writeError(w, http.StatusBadGateway, msgInterviewerOffline)
		}
		return
	}

	feedback := json.RawMessage(raw)
	if !json.Valid(feedback) {
		// The model occasionally ignores the JSON-only instruction; pass the
		// text through as a quoted string rather than failing the request.
		quoted, err := json.Marshal(raw)
		if err != nil {
			writeError(w, http.StatusBadGateway, msgProcessingError)
			return
		}
		feedback = quoted
	}
	writeJSON(w, http.StatusOK, feedbackResponse{SessionID: sessionID, Feedback: feedback})
}

func (h *Handler) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// withCORS mirrors the permissive policy of the original deployment: the
// browser frontend is served from a different origin.
func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
