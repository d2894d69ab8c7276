package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"slices"

	"github.com/manhwa-tools/manhwa-translator/internal/config"
)

// HandleGetConfig returns the settings with the credential masked.
func (h *Handler) HandleGetConfig(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, configView(h.currentSettings()))
}

// HandleUpdateConfig applies a map of settings keys to values and persists
// the result. Either every key applies or none does.
func (h *Handler) HandleUpdateConfig(w http.ResponseWriter, r *http.Request) {
	var req map[string]string
	if !h.decodeJSON(w, r, &req) {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for key := range req {
		if !slices.Contains(config.Keys, key) {
			h.writeErr(w, fmt.Errorf("%w: %q", config.ErrUnknownKey, key))
			return
		}
	}

	next := h.settings
	if err := applySettings(&next, req); err != nil {
		h.writeErr(w, err)
		return
	}
	if h.settingsPath != "" {
		// the file copy is updated separately so environment overrides stay out of it
		stored, err := config.Read(h.settingsPath)
		if err == nil {
			err = applySettings(&stored, req)
		}
		if err == nil {
			err = config.Save(h.settingsPath, stored)
		}
		if err != nil {
			h.writeErr(w, err)
			return
		}
	}
	h.settings = next

	slog.Info("Settings updated", "provider", next.Provider, "model", next.Model)
	h.writeJSON(w, configView(next))
}

// applySettings sets keys in config.Keys order, which puts provider before
// model so a new model survives a provider switch in the same request.
func applySettings(s *config.Settings, req map[string]string) error {
	for _, key := range config.Keys {
		value, ok := req[key]
		if !ok {
			continue
		}
		if err := s.Set(key, value); err != nil {
			return err
		}
	}
	return nil
}

type settingsView struct {
	config.Settings
	HasAPIKey bool `json:"has_api_key"`
}

func configView(s config.Settings) settingsView {
	_, err := s.Credential()
	return settingsView{Settings: s.Masked(), HasAPIKey: err == nil && s.APIKey != ""}
}
