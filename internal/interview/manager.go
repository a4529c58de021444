package interview

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/foxseedlab/mensetsukin/internal/config"
	"github.com/foxseedlab/mensetsukin/internal/webhook"
	"github.com/google/uuid"
)

const (
	idleSweepInterval  = time.Minute
	webhookSendTimeout = 15 * time.Second
)

// Manager is the session registry. Each session owns an independent
// transcript keyed by an opaque ID; nothing is shared across candidates and
// nothing survives a process restart.
type Manager struct {
	cfg       *config.Config
	completer Completer
	notifier  webhook.Sender
	now       func() time.Time

	mu       sync.Mutex
	sessions map[string]*session
}

func NewManager(cfg *config.Config, completer Completer, notifier webhook.Sender) *Manager {
	return &Manager{
		cfg:       cfg,
		completer: completer,
		notifier:  notifier,
		now:       time.Now,
		sessions:  make(map[string]*session),
	}
}

// Start renders the system instruction from the skill set, requests the
// opening interviewer utterance, and registers a new session. On completion
// failure no session is registered, so a retry starts from a clean slate.
func (m *Manager) Start(ctx context.Context, skills []string) (*TurnResult, error) {
	if len(skills) == 0 {
		return nil, ErrNoSkills
	}

	transcript := []Turn{{Role: RoleSystem, Text: renderInstruction(skills)}}
	reply, err := m.completer.Complete(ctx, transcript)
	if err != nil {
		return nil, err
	}
	opening, done := detectTermination(reply)
	if done || opening == "" {
		return nil, ErrCompletionFailed
	}

	s := &session{
		id:              uuid.NewString(),
		transcript:      append(transcript, Turn{Role: RoleInterviewer, Text: opening}),
		completionCalls: 1,
		lastActivity:    m.now(),
	}

	m.mu.Lock()
	m.sessions[s.id] = s
	active := len(m.sessions)
	m.mu.Unlock()

	slog.Info("interview session started", "session_id", s.id, "skills", len(skills), "active_sessions", active)
	return &TurnResult{SessionID: s.id, InterviewerText: opening, CandidateText: ""}, nil
}

// Advance appends the candidate's utterance (when non-empty), requests the
// next interviewer utterance, and inspects it for the termination sentinel.
// A completion failure leaves the transcript untouched, so re-issuing the
// same call is safe.
func (m *Manager) Advance(ctx context.Context, sessionID, candidateText string) (*TurnResult, error) {
	candidateText = strings.TrimSpace(candidateText)

	m.mu.Lock()
	s, ok := m.sessions[sessionID]
	if !ok {
		m.mu.Unlock()
		return nil, ErrSessionNotFound
	}
	if s.terminated {
		m.mu.Unlock()
		return nil, ErrSessionAlreadyEnded
	}
	if s.completionCalls >= m.cfg.MaxCompletionCallsPerSession {
		// Backstop: the sentinel never arrived, end the interview locally.
		s.terminated = true
		s.lastActivity = m.now()
		payload := m.completedPayloadLocked(s)
		m.mu.Unlock()
		slog.Warn("interview forced to end by completion call cap", "session_id", sessionID, "cap", m.cfg.MaxCompletionCallsPerSession)
		go m.notifyCompleted(payload)
		return &TurnResult{SessionID: sessionID, CandidateText: candidateText, Done: true}, nil
	}

	prompt := s.snapshotTranscript()
	if candidateText != "" {
		prompt = append(prompt, Turn{Role: RoleCandidate, Text: candidateText})
	}
	m.mu.Unlock()

	reply, err := m.completer.Complete(ctx, prompt)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	if s.terminated {
		// Evicted or capped by a concurrent sweep while the call was in
		// flight; do not reopen.
		m.mu.Unlock()
		return nil, ErrSessionAlreadyEnded
	}
	s.completionCalls++
	s.lastActivity = m.now()
	if candidateText != "" {
		s.transcript = append(s.transcript, Turn{Role: RoleCandidate, Text: candidateText})
	}

	text, done := detectTermination(reply)
	if done {
		s.terminated = true
		if text != "" {
			s.transcript = append(s.transcript, Turn{Role: RoleInterviewer, Text: text})
		}
		calls := s.completionCalls
		payload := m.completedPayloadLocked(s)
		m.mu.Unlock()
		slog.Info("interview session completed", "session_id", sessionID, "completion_calls", calls)
		go m.notifyCompleted(payload)
		return &TurnResult{SessionID: sessionID, InterviewerText: text, CandidateText: candidateText, Done: true}, nil
	}

	s.transcript = append(s.transcript, Turn{Role: RoleInterviewer, Text: text})
	m.mu.Unlock()
	return &TurnResult{SessionID: sessionID, InterviewerText: text, CandidateText: candidateText}, nil
}

// Feedback runs one evaluation completion over the finished transcript. The
// stored transcript is read-only at this point and is not modified.
func (m *Manager) Feedback(ctx context.Context, sessionID string) (string, error) {
	m.mu.Lock()
	s, ok := m.sessions[sessionID]
	if !ok {
		m.mu.Unlock()
		return "", ErrSessionNotFound
	}
	if !s.terminated {
		m.mu.Unlock()
		return "", ErrSessionNotFinished
	}
	prompt := append([]Turn{{Role: RoleSystem, Text: feedbackInstruction}}, s.conversationTurns()...)
	m.mu.Unlock()

	raw, err := m.completer.Complete(ctx, prompt)
	if err != nil {
		return "", err
	}
	return stripCodeFence(raw), nil
}

// Transcript returns a copy of a session's transcript.
func (m *Manager) Transcript(sessionID string) ([]Turn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s.snapshotTranscript(), nil
}

// SweepIdleSessions evicts sessions with no activity past the configured
// idle timeout until ctx is canceled.
func (m *Manager) SweepIdleSessions(ctx context.Context) {
	ticker := time.NewTicker(idleSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if evicted := m.evictIdle(m.now()); evicted > 0 {
				slog.Info("evicted idle interview sessions", "count", evicted)
			}
		}
	}
}

func (m *Manager) evictIdle(now time.Time) int {
	maxIdle := time.Duration(m.cfg.SessionIdleTimeoutMin) * time.Minute
	m.mu.Lock()
	defer m.mu.Unlock()
	evicted := 0
	for id, s := range m.sessions {
		if now.Sub(s.lastActivity) > maxIdle {
			delete(m.sessions, id)
			evicted++
		}
	}
	return evicted
}

func (m *Manager) completedPayloadLocked(s *session) webhook.InterviewCompletedPayload {
	turns := make([]webhook.InterviewTurn, 0, len(s.transcript))
	lines := make([]string, 0, len(s.transcript))
	for _, t := range s.conversationTurns() {
		turns = append(turns, webhook.InterviewTurn{Role: string(t.Role), Text: t.Text})
		lines = append(lines, string(t.Role)+": "+t.Text)
	}
	return webhook.InterviewCompletedPayload{
		SchemaVersion: webhook.InterviewWebhookSchemaVersion,
		SessionID:     s.id,
		EndedAt:       m.now().UTC().Format(time.RFC3339),
		TurnCount:     len(turns),
		Turns:         turns,
		Transcript:    strings.Join(lines, "\n"),
	}
}

func (m *Manager) notifyCompleted(payload webhook.InterviewCompletedPayload) {
	ctx, cancel := context.WithTimeout(context.Background(), webhookSendTimeout)
	defer cancel()
	if err := m.notifier.SendTranscript(ctx, payload); err != nil {
		slog.Error("failed to send interview transcript webhook", "error", err, "session_id", payload.SessionID)
	}
}
