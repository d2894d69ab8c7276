package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/manhwa-tools/manhwa-translator/internal/providers"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

// OpenAI is a provider for OpenAI-compatible chat completion APIs
type OpenAI struct {
	opts []option.RequestOption
}

// New returns a new OpenAI provider. OPENAI_BASE_URL selects a compatible endpoint.
func New(opts ...option.RequestOption) *OpenAI {
	return &OpenAI{opts: opts}
}

// ExtractText sends the prompt and optional page image as one user message
func (o *OpenAI) ExtractText(ctx context.Context, config providers.Config) (string, error) {
	apiKey := config.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return "", fmt.Errorf("OPENAI_API_KEY environment variable not set")
	}

	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithRequestTimeout(120 * time.Second),
		// retries are handled by the translation builder
		option.WithMaxRetries(0),
	}
	if baseURL := os.Getenv("OPENAI_BASE_URL"); baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	client := openai.NewClient(append(opts, o.opts...)...)

	parts := []openai.ChatCompletionContentPartUnionParam{openai.TextContentPart(config.Prompt)}
	if config.ImageJPEG != "" {
		parts = append(parts, openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
			URL: "data:image/jpeg;base64," + config.ImageJPEG,
		}))
	}

	params := openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(parts),
		},
		Model:       config.Model,
		Temperature: openai.Float(config.Temperature),
	}
	if config.JSON {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		}
	}

	resp, err := client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", classify(err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices returned from OpenAI")
	}

	return resp.Choices[0].Message.Content, nil
}

func classify(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == http.StatusTooManyRequests:
			return fmt.Errorf("%w: %v", providers.ErrRateLimited, err)
		case apiErr.StatusCode == http.StatusBadRequest && strings.Contains(err.Error(), "response_format"):
			return fmt.Errorf("%w: %v", providers.ErrJSONModeUnsupported, err)
		}
	}
	return fmt.Errorf("failed to create chat completion: %w", err)
}
