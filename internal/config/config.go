package config

import "fmt"

type Config struct {
	Env                          string
	HTTPListenAddr               string
	GeminiAPIKey                 string
	GeminiModel                  string
	GoogleCloudProjectID         string
	GoogleCloudCredentialsJSON   string
	GoogleCloudSpeechLocation    string
	GoogleCloudSpeechModel       string
	TranscribeLanguage           string
	CompletionTimeoutSec         int
	TranscribeTimeoutSec         int
	MaxCompletionCallsPerSession int
	SessionIdleTimeoutMin        int
	MaxUploadBytes               int64
	TranscriptWebhookURL         string
}

func (c *Config) Validate() error {
	for _, req := range c.requiredFieldChecks() {
		if req.value == "" {
			return fmt.Errorf("%s is required", req.name)
		}
	}
	if c.CompletionTimeoutSec <= 0 {
		return fmt.Errorf("COMPLETION_TIMEOUT_SEC must be positive, got %d", c.CompletionTimeoutSec)
	}
	if c.TranscribeTimeoutSec <= 0 {
		return fmt.Errorf("TRANSCRIBE_TIMEOUT_SEC must be positive, got %d", c.TranscribeTimeoutSec)
	}
	if c.MaxCompletionCallsPerSession <= 0 {
		return fmt.Errorf("MAX_COMPLETION_CALLS_PER_SESSION must be positive, got %d", c.MaxCompletionCallsPerSession)
	}
	if c.SessionIdleTimeoutMin <= 0 {
		return fmt.Errorf("SESSION_IDLE_TIMEOUT_MIN must be positive, got %d", c.SessionIdleTimeoutMin)
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be positive, got %d", c.MaxUploadBytes)
	}
	return nil
}

type requiredEnvField struct {
	name  string
	value string
}

func (c *Config) requiredFieldChecks() []requiredEnvField {
	return []requiredEnvField{
		{name: "HTTP_LISTEN_ADDR", value: c.HTTPListenAddr},
		{name: "GEMINI_API_KEY", value: c.GeminiAPIKey},
		{name: "GEMINI_MODEL", value: c.GeminiModel},
		{name: "GOOGLE_CLOUD_PROJECT_ID", value: c.GoogleCloudProjectID},
		{name: "GOOGLE_CLOUD_CREDENTIALS_JSON", value: c.GoogleCloudCredentialsJSON},
		{name: "TRANSCRIBE_LANGUAGE", value: c.TranscribeLanguage},
	}
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}
