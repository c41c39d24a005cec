// Package settings handles the user-editable application settings.
package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	appName          = "evervoice"
	settingsFileName = "settings.json"

	DefaultMaxDurationMinutes = 5
	DefaultLanguage           = "de"
	DefaultGlobalHotkey       = "Ctrl+Shift+R"

	maxDurationLimitMinutes = 180
)

// CustomAction is a user-configured button that posts the transcription to
// an external service.
type CustomAction struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Settings is the persisted user configuration.
type Settings struct {
	// MaxDurationMinutes caps a single recording session.
	MaxDurationMinutes int `json:"maxDuration"`
	// APIKey authenticates against the transcription/summarization API.
	APIKey string `json:"apiKey,omitempty"`
	// Language is the ISO 639-1 transcription language code.
	Language string `json:"language"`
	// CustomActions are external service buttons.
	CustomActions []CustomAction `json:"customActions"`
	// GlobalHotkey overrides the default recording toggle combo.
	GlobalHotkey string `json:"globalHotkey,omitempty"`
}

func Defaults() Settings {
	return Settings{
		MaxDurationMinutes: DefaultMaxDurationMinutes,
		Language:           DefaultLanguage,
		CustomActions:      []CustomAction{},
	}
}

// Path returns the settings file location under the user config dir.
func Path() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("get user config dir: %w", err)
	}
	return filepath.Join(dir, appName, settingsFileName), nil
}

// Load reads settings from path, returning defaults when the file does
// not exist yet.
func Load(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Defaults(), nil
		}
		return Settings{}, fmt.Errorf("read settings: %w", err)
	}

	s := Defaults()
	if err := json.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("unmarshal settings: %w", err)
	}
	if s.Language == "" {
		s.Language = DefaultLanguage
	}
	if s.CustomActions == nil {
		s.CustomActions = []CustomAction{}
	}
	return s, nil
}

// Save validates and persists the settings.
func (s Settings) Save(path string) error {
	if err := s.Validate(); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}

// Validate checks value ranges and the hotkey format.
func (s Settings) Validate() error {
	if s.MaxDurationMinutes <= 0 {
		return errors.New("max duration must be greater than 0")
	}
	if s.MaxDurationMinutes > maxDurationLimitMinutes {
		return fmt.Errorf("max duration cannot exceed %d minutes", maxDurationLimitMinutes)
	}
	if s.GlobalHotkey != "" {
		if err := ValidateHotkeyFormat(s.GlobalHotkey); err != nil {
			return err
		}
	}
	return nil
}

// EffectiveGlobalHotkey returns the configured hotkey or the default.
func (s Settings) EffectiveGlobalHotkey() string {
	if s.GlobalHotkey != "" {
		return s.GlobalHotkey
	}
	return DefaultGlobalHotkey
}

// MaxDurationSeconds converts the configured budget for the tracker.
func (s Settings) MaxDurationSeconds() int {
	return s.MaxDurationMinutes * 60
}

var validModifiers = map[string]bool{
	"Ctrl":  true,
	"Alt":   true,
	"Shift": true,
	"Meta":  true,
}

var validSpecialKeys = map[string]bool{
	"Space": true, "Tab": true, "Enter": true, "Escape": true,
	"Backspace": true, "Delete": true, "Insert": true,
	"Home": true, "End": true, "PageUp": true, "PageDown": true,
	"Up": true, "Down": true, "Left": true, "Right": true,
	"F1": true, "F2": true, "F3": true, "F4": true, "F5": true, "F6": true,
	"F7": true, "F8": true, "F9": true, "F10": true, "F11": true, "F12": true,
}

// ValidateHotkeyFormat checks a combo of the form Modifier+...+Key, with at
// least one modifier from Ctrl/Alt/Shift/Meta and a final single-character
// or special key.
func ValidateHotkeyFormat(hotkey string) error {
	if hotkey == "" {
		return errors.New("hotkey cannot be empty")
	}

	parts := strings.Split(hotkey, "+")
	if len(parts) < 2 {
		return errors.New("hotkey must have at least one modifier and a key")
	}

	hasModifier := false
	hasKey := false
	for i, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			return errors.New("hotkey contains empty segment")
		}

		if validModifiers[part] {
			hasModifier = true
			continue
		}
		if i == len(parts)-1 {
			if len(part) == 1 || validSpecialKeys[part] {
				hasKey = true
				continue
			}
			return fmt.Errorf("invalid key: %s", part)
		}
		return fmt.Errorf("invalid modifier: %s", part)
	}

	if !hasModifier {
		return errors.New("hotkey must have at least one modifier (Ctrl, Alt, Shift, Meta)")
	}
	if !hasKey {
		return errors.New("hotkey must end with a valid key")
	}
	return nil
}
