// Package hotkey binds a system-wide key combination to the recording
// toggle using gohook.
package hotkey

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	hook "github.com/robotn/gohook"
)

// Manager owns the global event hook. Only one combination is active
// at a time; registering a new one replaces the previous binding.
type Manager struct {
	mu      sync.Mutex
	running bool
	log     *slog.Logger
}

func NewManager(log *slog.Logger) *Manager {
	if log == nil {
		log = slog.Default()
	}
	return &Manager{log: log}
}

// Register parses the combination and starts the hook loop in the
// background. The trigger callback runs on its own goroutine so a slow
// handler never stalls event delivery.
func (m *Manager) Register(combo string, onTrigger func()) error {
	keys, err := ParseCombo(combo)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		hook.End()
		m.running = false
	}

	hook.Register(hook.KeyDown, keys, func(hook.Event) {
		go onTrigger()
	})

	events := hook.Start()
	go func() {
		<-hook.Process(events)
		m.log.Debug("hotkey event loop stopped", "combo", combo)
	}()
	m.running = true
	m.log.Info("global hotkey registered", "combo", combo)
	return nil
}

// Unregister stops the hook loop. Safe to call when nothing is
// registered.
func (m *Manager) Unregister() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.running {
		return
	}
	hook.End()
	m.running = false
}

// ParseCombo translates a settings-style combination like
// "Ctrl+Shift+R" into the lowercase key names gohook expects. The last
// part must be a key, everything before it a modifier.
func ParseCombo(combo string) ([]string, error) {
	parts := strings.Split(combo, "+")
	if len(parts) < 2 {
		return nil, fmt.Errorf("hotkey %q must combine at least one modifier with a key", combo)
	}

	keys := make([]string, 0, len(parts))
	for i, part := range parts {
		part = strings.TrimSpace(part)
		last := i == len(parts)-1

		if name, ok := modifierNames[part]; ok {
			if last {
				return nil, fmt.Errorf("hotkey %q must end with a key, not a modifier", combo)
			}
			keys = append(keys, name)
			continue
		}
		if !last {
			return nil, fmt.Errorf("invalid modifier %q in hotkey %q", part, combo)
		}

		name, err := keyName(part)
		if err != nil {
			return nil, err
		}
		keys = append(keys, name)
	}

	// gohook matches the trigger key first, then the held modifiers.
	ordered := make([]string, 0, len(keys))
	ordered = append(ordered, keys[len(keys)-1])
	ordered = append(ordered, keys[:len(keys)-1]...)
	return ordered, nil
}

var modifierNames = map[string]string{
	"Ctrl":  "ctrl",
	"Alt":   "alt",
	"Shift": "shift",
	"Meta":  "cmd",
}

var specialKeyNames = map[string]string{
	"Space":     "space",
	"Tab":       "tab",
	"Enter":     "enter",
	"Escape":    "esc",
	"Backspace": "backspace",
	"Delete":    "delete",
	"Insert":    "insert",
	"Home":      "home",
	"End":       "end",
	"PageUp":    "pageup",
	"PageDown":  "pagedown",
	"Up":        "up",
	"Down":      "down",
	"Left":      "left",
	"Right":     "right",
}

func keyName(part string) (string, error) {
	if name, ok := specialKeyNames[part]; ok {
		return name, nil
	}
	if len(part) == 1 {
		c := part[0]
		if c >= 'A' && c <= 'Z' || c >= 'a' && c <= 'z' || c >= '0' && c <= '9' {
			return strings.ToLower(part), nil
		}
	}
	if len(part) == 2 || len(part) == 3 {
		if part[0] == 'F' || part[0] == 'f' {
			lower := strings.ToLower(part)
			for n := 1; n <= 12; n++ {
				if lower == fmt.Sprintf("f%d", n) {
					return lower, nil
				}
			}
		}
	}
	return "", fmt.Errorf("invalid key %q in hotkey", part)
}
