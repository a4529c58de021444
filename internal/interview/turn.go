package interview

import "context"

type Role string

const (
	RoleSystem      Role = "system"
	RoleCandidate   Role = "candidate"
	RoleInterviewer Role = "interviewer"
)

// Turn is one role-tagged unit of text in a session transcript. Transcripts
// are append-only: once a turn is in, it is never edited or removed.
type Turn struct {
	Role Role
	Text string
}

// Completer produces a single text completion for an ordered transcript.
// Implementations make exactly one external call per invocation and must not
// mutate the transcript.
type Completer interface {
	Complete(ctx context.Context, transcript []Turn) (string, error)
}

// TurnResult is the uniform shape returned by Start and Advance. Done marks
// the structured end-of-interview signal; when set, InterviewerText holds an
// optional closing remark and no further turns are accepted.
type TurnResult struct {
	SessionID       string
	InterviewerText string
	CandidateText   string
	Done            bool
}
