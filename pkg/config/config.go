package config

import (
	"sync"
)

var (
	// globalManager is the singleton configuration manager instance
	globalManager *Manager
	globalMu      sync.Mutex
)

// Initialize creates the global configuration manager backed by the settings
// file at configPath (or the default location when empty) and loads it.
func Initialize(configPath string) error {
	globalMu.Lock()
	defer globalMu.Unlock()

	store, err := NewFileStore(configPath)
	if err != nil {
		return err
	}

	manager := NewManager(store)

	if err := manager.RegisterSection(NewServiceSection()); err != nil {
		return err
	}

	if err := manager.RegisterSection(NewProxySection()); err != nil {
		return err
	}

	if err := manager.LoadAll(); err != nil {
		return err
	}

	globalManager = manager
	return nil
}

// Global returns the global configuration manager.
// Panics if Initialize has not been called.
func Global() *Manager {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalManager == nil {
		panic("config not initialized: call config.Initialize first")
	}

	return globalManager
}

// IsInitialized returns true if the global configuration has been initialized.
func IsInitialized() bool {
	globalMu.Lock()
	defer globalMu.Unlock()
	return globalManager != nil
}

// GetService returns the service section from global config.
// Returns nil if config is not initialized.
func GetService() *ServiceSection {
	if !IsInitialized() {
		return nil
	}

	section, ok := Global().GetSection(SectionIDService)
	if !ok {
		return nil
	}

	service, ok := section.(*ServiceSection)
	if !ok {
		return nil
	}

	return service
}

// GetProxies returns the proxies section from global config.
// Returns nil if config is not initialized.
func GetProxies() *ProxySection {
	if !IsInitialized() {
		return nil
	}

	section, ok := Global().GetSection(SectionIDProxies)
	if !ok {
		return nil
	}

	proxies, ok := section.(*ProxySection)
	if !ok {
		return nil
	}

	return proxies
}
