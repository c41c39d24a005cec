package settings

import "sync"

// Manager holds the live settings and serializes updates. Providers read
// through it at call time, so a saved API key or language change applies
// to the next request without rewiring anything.
type Manager struct {
	mu      sync.RWMutex
	path    string
	current Settings
}

func NewManager(path string) (*Manager, error) {
	loaded, err := Load(path)
	if err != nil {
		return nil, err
	}
	return &Manager{path: path, current: loaded}, nil
}

func (m *Manager) Get() Settings {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Update validates, persists and swaps in the new settings. The previous
// settings stay active when persistence fails.
func (m *Manager) Update(next Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := next.Save(m.path); err != nil {
		return err
	}
	m.current = next
	return nil
}
