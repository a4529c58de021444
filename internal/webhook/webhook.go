package webhook

import "context"

const InterviewWebhookSchemaVersion = 1

type InterviewTurn struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

type InterviewCompletedPayload struct {
	SchemaVersion int             `json:"schema_version"`
	SessionID     string          `json:"session_id"`
	EndedAt       string          `json:"end_at"`
	TurnCount     int             `json:"turn_count"`
	Turns         []InterviewTurn `json:"turns"`
	Transcript    string          `json:"transcript"`
}

type Sender interface {
	SendTranscript(ctx context.Context, payload InterviewCompletedPayload) error
}
