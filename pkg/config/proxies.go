package config

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

const (
	// SectionIDProxies is the identifier for the proxy credentials section
	SectionIDProxies = "proxies"
)

// ProxyEntry holds the credentials for one proxy type.
type ProxyEntry struct {
	Server   string
	Username string
	Password string
	Bypass   string
}

// ProxySection stores proxy credentials keyed by proxy type name.
type ProxySection struct {
	entries map[string]ProxyEntry
	mu      sync.RWMutex
}

// NewProxySection creates an empty proxy section.
func NewProxySection() *ProxySection {
	return &ProxySection{entries: make(map[string]ProxyEntry)}
}

// ID returns the section identifier.
func (s *ProxySection) ID() string {
	return SectionIDProxies
}

// Title returns the section title.
func (s *ProxySection) Title() string {
	return "Proxies"
}

// Description returns the section description.
func (s *ProxySection) Description() string {
	return "Proxy credentials per proxy type. PROXY_<TYPE>_* environment variables take precedence."
}

// Data returns the current configuration data.
func (s *ProxySection) Data() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data := make(map[string]any, len(s.entries))
	for name, e := range s.entries {
		data[name] = map[string]any{
			"server":   e.Server,
			"username": e.Username,
			"password": e.Password,
			"bypass":   e.Bypass,
		}
	}
	return data
}

// SetData replaces the stored entries with the provided data.
func (s *ProxySection) SetData(data map[string]any) error {
	if data == nil {
		return nil
	}

	entries := make(map[string]ProxyEntry, len(data))
	for name, raw := range data {
		fields, ok := raw.(map[string]any)
		if !ok {
			return fmt.Errorf("proxy %q: expected an object, got %T", name, raw)
		}
		var e ProxyEntry
		e.Server, _ = fields["server"].(string)
		e.Username, _ = fields["username"].(string)
		e.Password, _ = fields["password"].(string)
		e.Bypass, _ = fields["bypass"].(string)
		entries[normalizeProxyName(name)] = e
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = entries
	return nil
}

// Validate validates the current configuration.
func (s *ProxySection) Validate() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for name, e := range s.entries {
		if name == "" || name == "none" {
			return fmt.Errorf("invalid proxy type name %q", name)
		}
		if strings.ContainsAny(name, " =") {
			return fmt.Errorf("proxy type name %q contains invalid characters", name)
		}
		if e.Server == "" {
			return fmt.Errorf("proxy %q has no server", name)
		}
	}
	return nil
}

// Reset removes all entries.
func (s *ProxySection) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]ProxyEntry)
}

// Get returns the entry for a proxy type.
func (s *ProxySection) Get(name string) (ProxyEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[normalizeProxyName(name)]
	return e, ok
}

// Set stores the entry for a proxy type.
func (s *ProxySection) Set(name string, e ProxyEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[normalizeProxyName(name)] = e
}

// Remove deletes the entry for a proxy type.
func (s *ProxySection) Remove(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, normalizeProxyName(name))
}

// Names returns the configured proxy types in sorted order.
func (s *ProxySection) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.entries))
	for name := range s.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func normalizeProxyName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
