package interview

import "time"

// session is one candidate's interview: its transcript, the completion-call
// budget, and the terminal flag. All fields are guarded by the Manager's
// mutex; callers serialize Advance per session.
type session struct {
	id              string
	transcript      []Turn
	completionCalls int
	terminated      bool
	lastActivity    time.Time
}

func (s *session) snapshotTranscript() []Turn {
	out := make([]Turn, len(s.transcript))
	copy(out, s.transcript)
	return out
}

// conversationTurns returns the candidate/interviewer exchange without the
// system instruction.
func (s *session) conversationTurns() []Turn {
	out := make([]Turn, 0, len(s.transcript))
	for _, t := range s.transcript {
		if t.Role == RoleSystem {
			continue
		}
		out = append(out, t)
	}
	return out
}
