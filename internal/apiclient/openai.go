package apiclient

import (
	"errors"
	"net/http"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAIConfig configures an OpenAI SDK client.
type OpenAIConfig struct {
	APIKey string

	// BaseURL is optional. Set it for Azure OpenAI or compatible servers.
	BaseURL string

	// HTTPClient carries the timeout and rate limiter.
	HTTPClient *http.Client
}

// NewOpenAI creates an SDK client. The SDK retries temporary failures
// itself, DefaultRetries times.
func NewOpenAI(cfg OpenAIConfig) openai.Client {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(DefaultRetries),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}
	return openai.NewClient(opts...)
}

// OpenAIError converts SDK API errors to *StatusError so every adapter
// reports upstream failures the same way. Other errors pass through.
func OpenAIError(err error) error {
	var apiErr *openai.Error
	if !errors.As(err, &apiErr) {
		return err
	}
	msg := apiErr.Message
	if msg == "" {
		msg = apiErr.Error()
	}
	return &StatusError{Provider: "openai", Status: apiErr.StatusCode, Message: msg}
}
