// Package config persists user settings, including the translation credential.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/manhwa-tools/manhwa-translator/internal/models"
)

var (
	ErrMissingCredential = errors.New("API key not found; set it with `config set-key` or MANHWA_API_KEY")
	ErrUnknownKey        = errors.New("unknown settings key")
)

const (
	configFileName = "config.toml"
	appDirName     = "manhwa-translator"
)

// Settings is the explicit configuration threaded into translation runs.
type Settings struct {
	APIKey      string       `toml:"api_key" json:"api_key"`
	Provider    string       `toml:"provider" json:"provider"`
	Model       string       `toml:"model" json:"model"`
	Temperature float64      `toml:"temperature" json:"temperature"`
	Genre       models.Genre `toml:"genre" json:"genre"`
	Project     string       `toml:"project" json:"project"`
	// ImageProxy is prefixed to an image URL when the direct fetch fails.
	ImageProxy string `toml:"image_proxy" json:"image_proxy"`
	// RedisURL enables the shared encoded-pixel cache when set.
	RedisURL  string `toml:"redis_url" json:"redis_url"`
	UploadDir string `toml:"upload_dir" json:"upload_dir"`
}

// Defaults returns the settings written on first load.
func Defaults() Settings {
	return Settings{
		Provider:    "gemini",
		Model:       "gemini-3-flash-preview",
		Temperature: 0.3,
		Genre:       models.GenreGeneral,
		Project:     "Default",
		ImageProxy:  "https://corsproxy.io/?",
		UploadDir:   "uploads",
	}
}

// RequiresCredential reports whether the provider needs an API key.
func (s Settings) RequiresCredential() bool {
	return s.Provider != "ollama"
}

// Credential returns the API key, or ErrMissingCredential when one is needed and absent.
func (s Settings) Credential() (string, error) {
	if s.APIKey == "" && s.RequiresCredential() {
		return "", ErrMissingCredential
	}
	return s.APIKey, nil
}

// DefaultPath returns <UserConfigDir>/manhwa-translator/config.toml.
func DefaultPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("unable to locate user config dir: %w", err)
	}
	return filepath.Join(configDir, appDirName, configFileName), nil
}

// Load reads settings from path, writing defaults there when the file is
// missing, then applies environment overrides.
func Load(path string) (Settings, error) {
	settings, err := Read(path)
	if err != nil {
		return Settings{}, err
	}
	applyEnv(&settings)
	return settings, nil
}

// Read is Load without environment overrides. Use it before Save so
// overrides are not persisted.
func Read(path string) (Settings, error) {
	settings := Defaults()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		if err := Save(path, settings); err != nil {
			return Settings{}, fmt.Errorf("save default settings: %w", err)
		}
	case err != nil:
		return Settings{}, fmt.Errorf("read settings: %w", err)
	default:
		if err := toml.Unmarshal(data, &settings); err != nil {
			return Settings{}, fmt.Errorf("parse settings %s: %w", path, err)
		}
	}
	return settings, nil
}

// Save writes settings to path, creating the parent directory.
func Save(path string, settings Settings) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}

	data, err := toml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}

func applyEnv(s *Settings) {
	if p := os.Getenv("MANHWA_PROVIDER"); p != "" && p != s.Provider {
		s.Provider = p
		s.Model = ""
	}
	if m := os.Getenv("MANHWA_MODEL"); m != "" {
		s.Model = m
	}
	if key := os.Getenv("MANHWA_API_KEY"); key != "" {
		s.APIKey = key
	} else if s.APIKey == "" {
		switch s.Provider {
		case "openai":
			s.APIKey = os.Getenv("OPENAI_API_KEY")
		case "gemini", "":
			s.APIKey = os.Getenv("GEMINI_API_KEY")
		}
	}
	if u := os.Getenv("REDIS_URL"); u != "" && s.RedisURL == "" {
		s.RedisURL = u
	}
}

// Keys lists the names accepted by Set.
var Keys = []string{"api_key", "provider", "model", "temperature", "genre", "project", "image_proxy", "redis_url", "upload_dir"}

// Set assigns one setting by its TOML key.
func (s *Settings) Set(key, value string) error {
	value = strings.TrimSpace(value)
	switch key {
	case "api_key":
		s.APIKey = value
	case "provider":
		if value != s.Provider {
			// the previous provider's model name means nothing to the new one
			s.Model = ""
		}
		s.Provider = value
	case "model":
		s.Model = value
	case "temperature":
		t, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("temperature: %w", err)
		}
		s.Temperature = t
	case "genre":
		s.Genre = models.ParseGenre(value)
	case "project":
		s.Project = value
	case "image_proxy":
		s.ImageProxy = value
	case "redis_url":
		s.RedisURL = value
	case "upload_dir":
		s.UploadDir = value
	default:
		return fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
	return nil
}

// Masked returns a copy safe to print, with the credential shortened.
func (s Settings) Masked() Settings {
	if len(s.APIKey) > 8 {
		s.APIKey = s.APIKey[:4] + strings.Repeat("*", len(s.APIKey)-8) + s.APIKey[len(s.APIKey)-4:]
	} else if s.APIKey != "" {
		s.APIKey = "****"
	}
	return s
}
