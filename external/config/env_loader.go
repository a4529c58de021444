package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	internalconfig "github.com/foxseedlab/mensetsukin/internal/config"
)

type envConfig struct {
	Env                          string `env:"ENV" envDefault:"production"`
	HTTPListenAddr               string `env:"HTTP_LISTEN_ADDR" envDefault:":8000"`
	GeminiAPIKey                 string `env:"GEMINI_API_KEY,required"`
	GeminiModel                  string `env:"GEMINI_MODEL" envDefault:"gemini-2.0-flash"`
	GoogleCloudProjectID         string `env:"GOOGLE_CLOUD_PROJECT_ID,required"`
	GoogleCloudCredentialsJSON   string `env:"GOOGLE_CLOUD_CREDENTIALS_JSON,required"`
	GoogleCloudSpeechLocation    string `env:"GOOGLE_CLOUD_SPEECH_LOCATION" envDefault:"global"`
	GoogleCloudSpeechModel       string `env:"GOOGLE_CLOUD_SPEECH_MODEL" envDefault:"latest_short"`
	TranscribeLanguage           string `env:"TRANSCRIBE_LANGUAGE" envDefault:"en-US"`
	CompletionTimeoutSec         int    `env:"COMPLETION_TIMEOUT_SEC" envDefault:"30"`
	TranscribeTimeoutSec         int    `env:"TRANSCRIBE_TIMEOUT_SEC" envDefault:"30"`
	MaxCompletionCallsPerSession int    `env:"MAX_COMPLETION_CALLS_PER_SESSION" envDefault:"20"`
	SessionIdleTimeoutMin        int    `env:"SESSION_IDLE_TIMEOUT_MIN" envDefault:"30"`
	MaxUploadBytes               int64  `env:"MAX_UPLOAD_BYTES" envDefault:"10485760"`
	TranscriptWebhookURL         string `env:"TRANSCRIPT_WEBHOOK_URL"`
}

func Load() (*internalconfig.Config, error) {
	var raw envConfig
	if err := env.Parse(&raw); err != nil {
		return nil, fmt.Errorf("environment variables are invalid or missing: %w", err)
	}

	cfg := &internalconfig.Config{
		Env:                          raw.Env,
		HTTPListenAddr:               raw.HTTPListenAddr,
		GeminiAPIKey:                 raw.GeminiAPIKey,
		GeminiModel:                  raw.GeminiModel,
		GoogleCloudProjectID:         raw.GoogleCloudProjectID,
		GoogleCloudCredentialsJSON:   raw.GoogleCloudCredentialsJSON,
		GoogleCloudSpeechLocation:    raw.GoogleCloudSpeechLocation,
		GoogleCloudSpeechModel:       raw.GoogleCloudSpeechModel,
		TranscribeLanguage:           raw.TranscribeLanguage,
		CompletionTimeoutSec:         raw.CompletionTimeoutSec,
		TranscribeTimeoutSec:         raw.TranscribeTimeoutSec,
		MaxCompletionCallsPerSession: raw.MaxCompletionCallsPerSession,
		SessionIdleTimeoutMin:        raw.SessionIdleTimeoutMin,
		MaxUploadBytes:               raw.MaxUploadBytes,
		TranscriptWebhookURL:         raw.TranscriptWebhookURL,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
