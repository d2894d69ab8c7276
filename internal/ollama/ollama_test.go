package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/manhwa-tools/manhwa-translator/internal/providers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractText(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		config     providers.Config
		want       string
		wantErr    error
		wantImages bool
	}{
		{
			name:       "image and json format",
			status:     http.StatusOK,
			body:       `{"response":"{\"blocks\":[]}"}`,
			config:     providers.Config{Model: "llava", Prompt: "p", ImageJPEG: "AAAA", JSON: true},
			want:       `{"blocks":[]}`,
			wantImages: true,
		},
		{
			name:   "text only",
			status: http.StatusOK,
			body:   `{"response":"hello"}`,
			config: providers.Config{Model: "llava", Prompt: "p"},
			want:   "hello",
		},
		{
			name:    "busy server is rate limited",
			status:  http.StatusServiceUnavailable,
			body:    "busy",
			config:  providers.Config{Model: "llava", Prompt: "p"},
			wantErr: providers.ErrRateLimited,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got map[string]any
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/api/generate", r.URL.Path)
				require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			o := New()
			o.BaseURL = srv.URL
			text, err := o.ExtractText(context.Background(), tt.config)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, text)
			_, hasImages := got["images"]
			assert.Equal(t, tt.wantImages, hasImages)
			if tt.config.JSON {
				assert.Equal(t, "json", got["format"])
			}
		})
	}
}
