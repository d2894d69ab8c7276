package translation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"time"

	"github.com/manhwa-tools/manhwa-translator/internal/config"
	"github.com/manhwa-tools/manhwa-translator/internal/gemini"
	"github.com/manhwa-tools/manhwa-translator/internal/ollama"
	"github.com/manhwa-tools/manhwa-translator/internal/openai"
	"github.com/manhwa-tools/manhwa-translator/internal/providers"
)

const (
	DefaultProvider    = "gemini"
	DefaultTemperature = 0.3

	defaultMaxRetries = 3
	backoffBase       = 2 * time.Second
	backoffJitter     = time.Second
)

// Builder turns a Request into a provider call and parses the reply.
type Builder struct {
	provider    providers.Provider
	model       string
	temperature float64
	maxRetries  int
	sleep       func(ctx context.Context, d time.Duration) error
	jitter      func() time.Duration
}

// Option configures a Builder.
type Option func(*Builder)

func WithModel(model string) Option {
	return func(b *Builder) { b.model = model }
}

func WithTemperature(t float64) Option {
	return func(b *Builder) { b.temperature = t }
}

func WithMaxRetries(n int) Option {
	return func(b *Builder) { b.maxRetries = n }
}

// WithSleep replaces the wait between rate-limit retries.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(b *Builder) { b.sleep = sleep }
}

// WithJitter replaces the random component of the backoff delay.
func WithJitter(jitter func() time.Duration) Option {
	return func(b *Builder) { b.jitter = jitter }
}

func NewBuilder(provider providers.Provider, opts ...Option) *Builder {
	b := &Builder{
		provider:    provider,
		model:       DefaultModel(DefaultProvider),
		temperature: DefaultTemperature,
		maxRetries:  defaultMaxRetries,
		sleep:       sleepContext,
		jitter: func() time.Duration {
			return time.Duration(rand.Int64N(int64(backoffJitter)))
		},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Translate calls the provider for one page. Rate-limit rejections are retried
// with exponential backoff; every other failure is returned at once.
func (b *Builder) Translate(ctx context.Context, req Request) (Result, error) {
	cfg := providers.Config{
		Model:       b.model,
		Temperature: b.temperature,
		Prompt:      BuildPrompt(req),
		APIKey:      req.APIKey,
		ImageJPEG:   req.ImageJPEG,
		JSON:        true,
	}

	for attempt := 0; ; attempt++ {
		raw, err := b.provider.ExtractText(ctx, cfg)
		if err == nil {
			return ParseResult(raw)
		}
		if !errors.Is(err, providers.ErrRateLimited) {
			return Result{}, err
		}
		if attempt >= b.maxRetries {
			return Result{}, fmt.Errorf("%w after %d retries: %v", ErrRateLimitExhausted, b.maxRetries, err)
		}

		delay := Backoff(attempt+1, b.jitter())
		slog.Warn("Rate limit hit, retrying", "attempt", attempt+1, "delay", delay, "project", req.Project)
		if err := b.sleep(ctx, delay); err != nil {
			return Result{}, err
		}
	}
}

// Backoff returns the wait before retry n (1-based): 2^n * 2s plus jitter.
func Backoff(n int, jitter time.Duration) time.Duration {
	return time.Duration(1<<n)*backoffBase + jitter
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// ForSettings builds a Builder for the provider, model and temperature in s.
// An empty model selects the provider's default.
func ForSettings(s config.Settings, opts ...Option) (*Builder, error) {
	provider, err := ProviderFor(s.Provider)
	if err != nil {
		return nil, err
	}
	model := s.Model
	if model == "" {
		model = DefaultModel(s.Provider)
	}
	base := []Option{WithModel(model), WithTemperature(s.Temperature)}
	return NewBuilder(provider, append(base, opts...)...), nil
}

// ProviderFor returns the provider registered under name.
func ProviderFor(name string) (providers.Provider, error) {
	switch name {
	case "", "gemini":
		return gemini.New(), nil
	case "openai":
		return openai.New(), nil
	case "ollama":
		return ollama.New(), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", name)
	}
}

// DefaultModel returns the model used for provider when none is configured.
func DefaultModel(provider string) string {
	switch provider {
	case "openai":
		if model := os.Getenv("OPENAI_MODEL"); model != "" {
			return model
		}
		return "gpt-4o"
	case "ollama":
		if model := os.Getenv("OLLAMA_MODEL"); model != "" {
			return model
		}
		return "qwen2.5vl:7b"
	default:
		if model := os.Getenv("GEMINI_MODEL"); model != "" {
			return model
		}
		return "gemini-3-flash-preview"
	}
}
