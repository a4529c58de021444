package transcriber

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"cloud.google.com/go/auth/credentials"
	speech "cloud.google.com/go/speech/apiv2"
	speechpb "cloud.google.com/go/speech/apiv2/speechpb"
	"github.com/foxseedlab/mensetsukin/internal/transcriber"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	speechAPIEndpointPort = 443
	// The Recognize RPC only accepts inline audio up to this size.
	maxInlineAudioBytes = 10 << 20
)

type CloudSpeechConfig struct {
	ProjectID       string
	CredentialsJSON string
	Language        string
	Location        string
	Model           string
	Timeout         time.Duration
}

type CloudSpeechTranscriber struct {
	projectID       string
	credentialsJSON string
	language        string
	location        string
	model           string
	timeout         time.Duration
}

func NewCloudSpeechTranscriber(cfg CloudSpeechConfig) transcriber.Transcriber {
	return &CloudSpeechTranscriber{
		projectID:       cfg.ProjectID,
		credentialsJSON: cfg.CredentialsJSON,
		language:        cfg.Language,
		location:        strings.TrimSpace(cfg.Location),
		model:           strings.TrimSpace(cfg.Model),
		timeout:         cfg.Timeout,
	}
}

func (t *CloudSpeechTranscriber) Transcribe(ctx context.Context, audio io.Reader) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	content, err := spoolAudio(audio)
	if err != nil {
		return "", err
	}
	slog.Debug("recognizing audio", "audio_bytes", len(content), "location", t.location, "language", t.language, "model", t.model)

	creds, err := credentials.DetectDefault(&credentials.DetectOptions{
		CredentialsJSON: []byte(t.credentialsJSON),
		Scopes:          []string{"https://www.googleapis.com/auth/cloud-platform"},
	})
	if err != nil {
		return "", fmt.Errorf("%w: detect credentials: %v", transcriber.ErrServiceUnavailable, err)
	}

	opts := []option.ClientOption{
		option.WithAuthCredentials(creds),
	}
	if t.location != "global" {
		opts = append(opts, option.WithEndpoint(fmt.Sprintf("%s-speech.googleapis.com:%d", t.location, speechAPIEndpointPort)))
	}

	client, err := speech.NewClient(ctx, opts...)
	if err != nil {
		return "", fmt.Errorf("%w: create speech client: %v", transcriber.ErrServiceUnavailable, err)
	}
	defer func() {
		_ = client.Close()
	}()

	recognizer := fmt.Sprintf("projects/%s/locations/%s/recognizers/_", t.projectID, t.location)
	resp, err := client.Recognize(ctx, &speechpb.RecognizeRequest{
		Recognizer: recognizer,
		Config: &speechpb.RecognitionConfig{
			Model:         t.model,
			LanguageCodes: []string{t.language},
			DecodingConfig: &speechpb.RecognitionConfig_AutoDecodingConfig{
				AutoDecodingConfig: &speechpb.AutoDetectDecodingConfig{},
			},
			Features: &speechpb.RecognitionFeatures{EnableAutomaticPunctuation: true},
		},
		AudioSource: &speechpb.RecognizeRequest_Content{Content: content},
	})
	if err != nil {
		return "", classifyRecognizeError(err)
	}

	parts := make([]string, 0, len(resp.GetResults()))
	for _, result := range resp.GetResults() {
		if len(result.GetAlternatives()) == 0 {
			continue
		}
		text := strings.TrimSpace(result.GetAlternatives()[0].GetTranscript())
		if text != "" {
			parts = append(parts, text)
		}
	}
	if len(parts) == 0 {
		return "", transcriber.ErrUnintelligible
	}
	return strings.Join(parts, " "), nil
}

// spoolAudio drains the request stream to a temporary file so the inline
// size limit can be enforced before the audio is buffered for the RPC. The
// file is removed on every exit path.
func spoolAudio(audio io.Reader) ([]byte, error) {
	f, err := os.CreateTemp("", "mensetsukin-audio-*")
	if err != nil {
		return nil, fmt.Errorf("%w: create audio spool: %v", transcriber.ErrServiceUnavailable, err)
	}
	defer func() {
		_ = f.Close()
		_ = os.Remove(f.Name())
	}()

	n, err := io.Copy(f, io.LimitReader(audio, maxInlineAudioBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: spool audio: %v", transcriber.ErrServiceUnavailable, err)
	}
	if n == 0 {
		return nil, transcriber.ErrUnintelligible
	}
	if n > maxInlineAudioBytes {
		return nil, fmt.Errorf("%w: audio exceeds %d bytes", transcriber.ErrServiceUnavailable, maxInlineAudioBytes)
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("%w: rewind audio spool: %v", transcriber.ErrServiceUnavailable, err)
	}
	content, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("%w: read audio spool: %v", transcriber.ErrServiceUnavailable, err)
	}
	return content, nil
}

func classifyRecognizeError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: recognize timed out", transcriber.ErrServiceUnavailable)
	}
	if st, ok := status.FromError(err); ok && st.Code() == codes.InvalidArgument {
		// Undecodable audio is a property of the input, not the service.
		return fmt.Errorf("%w: %s", transcriber.ErrUnintelligible, st.Message())
	}
	return fmt.Errorf("%w: %v", transcriber.ErrServiceUnavailable, err)
}
