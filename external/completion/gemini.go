package completion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/foxseedlab/mensetsukin/internal/interview"
	"google.golang.org/genai"
)

// kickoffText is sent when the transcript holds only the system instruction;
// the Gemini API rejects a request with no conversation contents.
const kickoffText = "Begin the interview."

type GeminiCompleter struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

func NewGeminiCompleter(ctx context.Context, apiKey, model string, timeout time.Duration) (*GeminiCompleter, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return &GeminiCompleter{client: client, model: model, timeout: timeout}, nil
}

// Complete sends the ordered transcript to Gemini and returns the first
// textual response. Exactly one external call per invocation; the transcript
// is only read. All provider failures collapse into ErrCompletionFailed.
func (g *GeminiCompleter) Complete(ctx context.Context, transcript []interview.Turn) (string, error) {
	if len(transcript) == 0 {
		return "", fmt.Errorf("%w: transcript is empty", interview.ErrCompletionFailed)
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	var system *genai.Content
	contents := make([]*genai.Content, 0, len(transcript))
	for _, turn := range transcript {
		switch turn.Role {
		case interview.RoleSystem:
			system = &genai.Content{Parts: []*genai.Part{{Text: turn.Text}}}
		case interview.RoleCandidate:
			contents = append(contents, &genai.Content{
				Role:  genai.RoleUser,
				Parts: []*genai.Part{{Text: turn.Text}},
			})
		case interview.RoleInterviewer:
			contents = append(contents, &genai.Content{
				Role:  genai.RoleModel,
				Parts: []*genai.Part{{Text: turn.Text}},
			})
		}
	}
	if len(contents) == 0 {
		contents = append(contents, &genai.Content{
			Role:  genai.RoleUser,
			Parts: []*genai.Part{{Text: kickoffText}},
		})
	}

	cfg := &genai.GenerateContentConfig{}
	if system != nil {
		cfg.SystemInstruction = system
	}

	slog.Debug("gemini generate content request", "model", g.model, "contents", len(contents))
	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("%w: generate content: %v", interview.ErrCompletionFailed, err)
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(text)
		}
	}

	output := strings.TrimSpace(builder.String())
	if output == "" {
		return "", fmt.Errorf("%w: provider returned empty response", interview.ErrCompletionFailed)
	}
	return output, nil
}
