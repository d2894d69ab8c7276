package providers

import (
	"context"
	"errors"
)

var (
	// ErrRateLimited marks a transient quota or rate-limit rejection that may be retried.
	ErrRateLimited = errors.New("rate limited by provider")
	// ErrJSONModeUnsupported marks a model that rejected structured JSON output.
	ErrJSONModeUnsupported = errors.New("model does not support JSON mode")
)

// Config represents the configuration for an LLM provider
type Config struct {
	Model       string
	Temperature float64
	Prompt      string
	APIKey      string
	// ImageJPEG is the base64 JPEG payload sent alongside the prompt.
	ImageJPEG string
	// JSON asks the provider to constrain its output to a JSON object.
	JSON bool
}

// Provider defines the interface for an LLM provider
type Provider interface {
	ExtractText(ctx context.Context, config Config) (string, error)
}

// Names lists the provider identifiers accepted by translation settings.
var Names = []string{"gemini", "openai", "ollama"}
