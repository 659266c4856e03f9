package config

import (
	"fmt"
	"strings"
	"sync"

	"github.com/entrhq/pagefetch/pkg/launch"
	"github.com/entrhq/pagefetch/pkg/logging"
)

const (
	// SectionIDService is the identifier for the service settings section
	SectionIDService = "service"

	// DefaultEndpoint is the automation service used when nothing is configured
	DefaultEndpoint = launch.DefaultEndpoint

	// EndpointEnvVar overrides the configured endpoint
	EndpointEnvVar = "PAGEFETCH_ENDPOINT"
)

// ServiceSection holds the automation service settings.
type ServiceSection struct {
	Endpoint       string
	DefaultTimeout float64 // milliseconds, 0 keeps the request default
	LogLevel       string
	mu             sync.RWMutex
}

// NewServiceSection creates a service section with default settings.
func NewServiceSection() *ServiceSection {
	return &ServiceSection{
		Endpoint: DefaultEndpoint,
		LogLevel: logging.LevelInfo.String(),
	}
}

// ID returns the section identifier.
func (s *ServiceSection) ID() string {
	return SectionIDService
}

// Title returns the section title.
func (s *ServiceSection) Title() string {
	return "Automation Service"
}

// Description returns the section description.
func (s *ServiceSection) Description() string {
	return "Where browsers are reached, the fallback navigation timeout and the log level."
}

// Data returns the current configuration data.
func (s *ServiceSection) Data() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return map[string]any{
		"endpoint":        s.Endpoint,
		"default_timeout": s.DefaultTimeout,
		"log_level":       s.LogLevel,
	}
}

// SetData updates the configuration from the provided data.
func (s *ServiceSection) SetData(data map[string]any) error {
	if data == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if endpoint, ok := data["endpoint"].(string); ok {
		s.Endpoint = endpoint
	}

	switch timeout := data["default_timeout"].(type) {
	case float64:
		s.DefaultTimeout = timeout
	case int:
		s.DefaultTimeout = float64(timeout)
	case nil:
	default:
		return fmt.Errorf("default_timeout must be a number, got %T", timeout)
	}

	if level, ok := data["log_level"].(string); ok {
		s.LogLevel = level
	}

	return nil
}

// Validate validates the current configuration.
func (s *ServiceSection) Validate() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.Endpoint != "" && !strings.Contains(s.Endpoint, "://") {
		return fmt.Errorf("endpoint %q has no scheme", s.Endpoint)
	}
	if s.DefaultTimeout < 0 {
		return fmt.Errorf("default_timeout must not be negative")
	}
	switch strings.ToLower(s.LogLevel) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("unknown log_level %q", s.LogLevel)
	}
	return nil
}

// Reset resets the section to default configuration.
func (s *ServiceSection) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Endpoint = DefaultEndpoint
	s.DefaultTimeout = 0
	s.LogLevel = logging.LevelInfo.String()
}

// GetEndpoint returns the configured endpoint.
func (s *ServiceSection) GetEndpoint() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Endpoint
}

// SetEndpoint sets the endpoint.
func (s *ServiceSection) SetEndpoint(endpoint string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Endpoint = endpoint
}

// GetDefaultTimeout returns the fallback navigation timeout in milliseconds.
func (s *ServiceSection) GetDefaultTimeout() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.DefaultTimeout
}

// GetLogLevel returns the configured log level.
func (s *ServiceSection) GetLogLevel() logging.Level {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return logging.ParseLevel(s.LogLevel)
}
