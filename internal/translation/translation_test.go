package translation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/manhwa-tools/manhwa-translator/internal/config"
	"github.com/manhwa-tools/manhwa-translator/internal/models"
	"github.com/manhwa-tools/manhwa-translator/internal/providers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedProvider struct {
	replies []string
	errs    []error
	configs []providers.Config
}

func (p *scriptedProvider) ExtractText(_ context.Context, cfg providers.Config) (string, error) {
	i := len(p.configs)
	p.configs = append(p.configs, cfg)
	var reply string
	var err error
	if i < len(p.replies) {
		reply = p.replies[i]
	}
	if i < len(p.errs) {
		err = p.errs[i]
	}
	return reply, err
}

func noWait(delays *[]time.Duration) Option {
	return WithSleep(func(_ context.Context, d time.Duration) error {
		*delays = append(*delays, d)
		return nil
	})
}

func TestParseResult(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    Result
		wantErr bool
	}{
		{
			name: "fenced json",
			raw:  "```json\n{\"blocks\":[{\"type\":\"dialogue\",\"text\":\"سلام\"}],\"newTerms\":[{\"original\":\"Jin-Woo\",\"translation\":\"جین-وو\",\"category\":\"Names\"}]}\n```",
			want: Result{
				Blocks:        []models.TranslationBlock{{Type: models.BlockDialogue, Text: "سلام"}},
				DetectedTerms: []models.DetectedTerm{{Original: "Jin-Woo", Translation: "جین-وو", Category: models.CategoryNames}},
			},
		},
		{
			name: "missing arrays decode as empty",
			raw:  "{}",
			want: Result{Blocks: []models.TranslationBlock{}, DetectedTerms: []models.DetectedTerm{}},
		},
		{
			name: "blank terms are dropped",
			raw:  `{"blocks":[{"type":"sfx","text":"BOOM"}],"newTerms":[{"original":" ","translation":"x"}]}`,
			want: Result{Blocks: []models.TranslationBlock{{Type: models.BlockSFX, Text: "BOOM"}}, DetectedTerms: []models.DetectedTerm{}},
		},
		{name: "not json", raw: "Sorry, I cannot help with that.", wantErr: true},
		{name: "empty", raw: "```", wantErr: true},
		{name: "unknown block type", raw: `{"blocks":[{"type":"caption","text":"x"}]}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseResult(tt.raw)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrMalformedResponse)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuildPrompt(t *testing.T) {
	prompt := BuildPrompt(Request{
		Genre:           models.GenreWuxia,
		Glossary:        []models.GlossaryItem{{Term: "Murim", Translation: "موریم"}},
		Project:         "Return of the Blossoming Blade",
		PreviousContext: "I will",
	})

	assert.Contains(t, prompt, Tone(models.GenreWuxia))
	assert.Contains(t, prompt, "- Murim -> موریم")
	assert.Contains(t, prompt, `"I will"`)
	assert.Contains(t, prompt, "Project: Return of the Blossoming Blade")

	bare := BuildPrompt(Request{Genre: "unknown"})
	assert.Contains(t, bare, Tone(models.GenreGeneral))
	assert.NotContains(t, bare, "previous page was")
	assert.NotContains(t, bare, "Strict glossary")
}

func TestTranslateSendsJSONRequest(t *testing.T) {
	p := &scriptedProvider{replies: []string{`{"blocks":[{"type":"thought","text":"..."}],"newTerms":[]}`}}
	b := NewBuilder(p, WithModel("m"), WithTemperature(0.5))

	res, err := b.Translate(context.Background(), Request{ImageJPEG: "AAAA", APIKey: "k"})
	require.NoError(t, err)
	assert.Len(t, res.Blocks, 1)

	require.Len(t, p.configs, 1)
	cfg := p.configs[0]
	assert.True(t, cfg.JSON)
	assert.Equal(t, "m", cfg.Model)
	assert.Equal(t, 0.5, cfg.Temperature)
	assert.Equal(t, "AAAA", cfg.ImageJPEG)
	assert.Equal(t, "k", cfg.APIKey)
}

func TestTranslateRetriesRateLimit(t *testing.T) {
	var delays []time.Duration
	p := &scriptedProvider{
		errs:    []error{providers.ErrRateLimited, providers.ErrRateLimited, nil},
		replies: []string{"", "", `{"blocks":[],"newTerms":[]}`},
	}
	b := NewBuilder(p, noWait(&delays), WithJitter(func() time.Duration { return 0 }))

	_, err := b.Translate(context.Background(), Request{})
	require.NoError(t, err)
	assert.Equal(t, []time.Duration{4 * time.Second, 8 * time.Second}, delays)
}

func TestTranslateRateLimitExhausted(t *testing.T) {
	var delays []time.Duration
	limited := errors.Join(providers.ErrRateLimited, errors.New("429"))
	p := &scriptedProvider{errs: []error{limited, limited, limited, limited, limited}}
	b := NewBuilder(p, noWait(&delays), WithJitter(func() time.Duration { return 0 }))

	_, err := b.Translate(context.Background(), Request{})
	assert.ErrorIs(t, err, ErrRateLimitExhausted)
	assert.Len(t, p.configs, 4, "one call plus three retries")
	assert.Equal(t, []time.Duration{4 * time.Second, 8 * time.Second, 16 * time.Second}, delays)
}

func TestTranslateDoesNotRetryOtherErrors(t *testing.T) {
	tests := []struct {
		name    string
		p       *scriptedProvider
		wantErr error
	}{
		{
			name:    "malformed reply",
			p:       &scriptedProvider{replies: []string{"not json"}},
			wantErr: ErrMalformedResponse,
		},
		{
			name:    "json mode rejected",
			p:       &scriptedProvider{errs: []error{providers.ErrJSONModeUnsupported}},
			wantErr: providers.ErrJSONModeUnsupported,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var delays []time.Duration
			_, err := NewBuilder(tt.p, noWait(&delays)).Translate(context.Background(), Request{})
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Len(t, tt.p.configs, 1)
			assert.Empty(t, delays)
		})
	}
}

func TestTranslateStopsWaitingOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := &scriptedProvider{errs: []error{providers.ErrRateLimited}}

	_, err := NewBuilder(p).Translate(ctx, Request{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBackoffWithinJitterBounds(t *testing.T) {
	for n := 1; n <= 3; n++ {
		d := Backoff(n, 999*time.Millisecond)
		low := time.Duration(1<<n) * 2 * time.Second
		assert.GreaterOrEqual(t, d, low)
		assert.Less(t, d, low+time.Second)
	}
}

func TestProviderFor(t *testing.T) {
	for _, name := range providers.Names {
		p, err := ProviderFor(name)
		require.NoError(t, err, name)
		assert.NotNil(t, p)
	}
	_, err := ProviderFor("claude")
	assert.Error(t, err)

	t.Setenv("GEMINI_MODEL", "")
	assert.Equal(t, "gemini-3-flash-preview", DefaultModel("gemini"))
	t.Setenv("OPENAI_MODEL", "gpt-4.1")
	assert.Equal(t, "gpt-4.1", DefaultModel("openai"))
}

func TestForSettings(t *testing.T) {
	t.Setenv("OLLAMA_MODEL", "")
	s := config.Defaults()
	s.Provider = "ollama"
	s.Model = ""
	s.Temperature = 0.5

	b, err := ForSettings(s)
	require.NoError(t, err)
	assert.Equal(t, "qwen2.5vl:7b", b.model)
	assert.Equal(t, 0.5, b.temperature)

	s.Model = "llava"
	b, err = ForSettings(s, WithMaxRetries(1))
	require.NoError(t, err)
	assert.Equal(t, "llava", b.model)
	assert.Equal(t, 1, b.maxRetries)

	s.Provider = "claude"
	_, err = ForSettings(s)
	assert.Error(t, err)
}
