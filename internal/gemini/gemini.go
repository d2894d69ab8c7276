package gemini

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/manhwa-tools/manhwa-translator/internal/models"
	"github.com/manhwa-tools/manhwa-translator/internal/providers"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Gemini is a provider for Google Gemini
type Gemini struct {
	opts []option.ClientOption
}

// New returns a new Gemini provider. Extra client options are appended after the API key.
func New(opts ...option.ClientOption) *Gemini {
	return &Gemini{opts: opts}
}

// ExtractText sends the prompt and optional page image to Gemini and returns the text of the first candidate
func (g *Gemini) ExtractText(ctx context.Context, config providers.Config) (string, error) {
	apiKey := config.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	if apiKey == "" {
		return "", fmt.Errorf("GEMINI_API_KEY environment variable not set")
	}

	client, err := genai.NewClient(ctx, append([]option.ClientOption{option.WithAPIKey(apiKey)}, g.opts...)...)
	if err != nil {
		return "", fmt.Errorf("failed to create new gemini client: %w", err)
	}
	defer client.Close()

	model := client.GenerativeModel(config.Model)
	model.SetTemperature(float32(config.Temperature))
	if config.JSON {
		model.ResponseMIMEType = "application/json"
		model.ResponseSchema = translationSchema
	}

	parts := []genai.Part{}
	if config.ImageJPEG != "" {
		data, err := base64.StdEncoding.DecodeString(config.ImageJPEG)
		if err != nil {
			return "", fmt.Errorf("failed to decode image payload: %w", err)
		}
		parts = append(parts, genai.ImageData("jpeg", data))
	}
	parts = append(parts, genai.Text(config.Prompt))

	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		return "", classify(err)
	}

	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates returned from Gemini")
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("empty content returned from Gemini")
	}

	var text strings.Builder
	for _, part := range candidate.Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			text.WriteString(string(txt))
		}
	}
	if text.Len() == 0 {
		return "", fmt.Errorf("unexpected response format from Gemini")
	}
	return text.String(), nil
}

// classify maps transport errors onto the provider sentinels.
func classify(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == 429:
			return fmt.Errorf("%w: %v", providers.ErrRateLimited, err)
		case apiErr.Code == 400 && strings.Contains(apiErr.Message, "JSON mode"):
			return fmt.Errorf("%w: %v", providers.ErrJSONModeUnsupported, err)
		}
	}
	if s, ok := status.FromError(err); ok && s.Code() == codes.ResourceExhausted {
		return fmt.Errorf("%w: %v", providers.ErrRateLimited, err)
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "429"), strings.Contains(msg, "RESOURCE_EXHAUSTED"), strings.Contains(strings.ToLower(msg), "quota"):
		return fmt.Errorf("%w: %v", providers.ErrRateLimited, err)
	case strings.Contains(msg, "400") && strings.Contains(msg, "JSON mode"):
		return fmt.Errorf("%w: %v", providers.ErrJSONModeUnsupported, err)
	}
	return fmt.Errorf("failed to generate content: %w", err)
}

var translationSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"blocks": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"type": {Type: genai.TypeString, Enum: blockTypes()},
					"text": {Type: genai.TypeString},
				},
				Required: []string{"type", "text"},
			},
		},
		"newTerms": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"original":    {Type: genai.TypeString},
					"translation": {Type: genai.TypeString},
					"category":    {Type: genai.TypeString, Enum: categories()},
				},
				Required: []string{"original", "translation", "category"},
			},
		},
	},
	Required: []string{"blocks", "newTerms"},
}

func blockTypes() []string {
	out := make([]string, len(models.BlockTypes))
	for i, t := range models.BlockTypes {
		out[i] = string(t)
	}
	return out
}

func categories() []string {
	out := make([]string, len(models.Categories))
	for i, c := range models.Categories {
		out[i] = string(c)
	}
	return out
}
