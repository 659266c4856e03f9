package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/pagefetch/pkg/logging"
)

func resetGlobal(t *testing.T) {
	t.Helper()
	globalMu.Lock()
	globalManager = nil
	globalMu.Unlock()
	t.Cleanup(func() {
		globalMu.Lock()
		globalManager = nil
		globalMu.Unlock()
	})
}

func TestInitialize(t *testing.T) {
	resetGlobal(t)

	assert.False(t, IsInitialized())
	assert.Nil(t, GetService())
	assert.Nil(t, GetProxies())

	require.NoError(t, Initialize(filepath.Join(t.TempDir(), "settings.json")))
	assert.True(t, IsInitialized())

	service := GetService()
	require.NotNil(t, service)
	assert.Equal(t, DefaultEndpoint, service.GetEndpoint())
	assert.Equal(t, logging.LevelInfo, service.GetLogLevel())

	proxies := GetProxies()
	require.NotNil(t, proxies)
	assert.Empty(t, proxies.Names())

	sections := Global().GetSections()
	require.Len(t, sections, 2)
	assert.Equal(t, SectionIDService, sections[0].ID())
	assert.Equal(t, SectionIDProxies, sections[1].ID())
}

func TestGlobalPanicsWhenUninitialized(t *testing.T) {
	resetGlobal(t)
	assert.Panics(t, func() { Global() })
}

func TestManager_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")

	store, err := NewFileStore(path)
	require.NoError(t, err)
	m := NewManager(store)
	require.NoError(t, m.RegisterSection(NewServiceSection()))
	require.NoError(t, m.RegisterSection(NewProxySection()))

	section, ok := m.GetSection(SectionIDService)
	require.True(t, ok)
	service := section.(*ServiceSection)
	service.SetEndpoint("ws://browsers.internal:3000")
	require.NoError(t, service.SetData(map[string]any{"default_timeout": 30000.0, "log_level": "debug"}))

	section, _ = m.GetSection(SectionIDProxies)
	section.(*ProxySection).Set("Residential", ProxyEntry{Server: "http://res:8080", Username: "u", Password: "p"})

	require.NoError(t, m.SaveAll())

	store2, err := NewFileStore(path)
	require.NoError(t, err)
	m2 := NewManager(store2)
	service2 := NewServiceSection()
	proxies2 := NewProxySection()
	require.NoError(t, m2.RegisterSection(service2))
	require.NoError(t, m2.RegisterSection(proxies2))
	require.NoError(t, m2.LoadAll())

	assert.Equal(t, "ws://browsers.internal:3000", service2.GetEndpoint())
	assert.Equal(t, 30000.0, service2.GetDefaultTimeout())
	assert.Equal(t, logging.LevelDebug, service2.GetLogLevel())

	entry, ok := proxies2.Get("residential")
	require.True(t, ok)
	assert.Equal(t, ProxyEntry{Server: "http://res:8080", Username: "u", Password: "p"}, entry)
}

func TestManager_RegisterDuplicate(t *testing.T) {
	store, err := NewFileStore(filepath.Join(t.TempDir(), "settings.json"))
	require.NoError(t, err)
	m := NewManager(store)

	require.NoError(t, m.RegisterSection(NewServiceSection()))
	assert.Error(t, m.RegisterSection(NewServiceSection()))
	assert.Same(t, store, m.Store())
}

func TestManager_SaveAllRejectsInvalid(t *testing.T) {
	store, err := NewFileStore(filepath.Join(t.TempDir(), "settings.json"))
	require.NoError(t, err)
	m := NewManager(store)
	proxies := NewProxySection()
	require.NoError(t, m.RegisterSection(proxies))

	proxies.Set("dc", ProxyEntry{Username: "only-user"})
	assert.Error(t, m.SaveAll())
	assert.False(t, store.IsModified())
}

func TestServiceSection(t *testing.T) {
	t.Run("validate", func(t *testing.T) {
		s := NewServiceSection()
		require.NoError(t, s.Validate())

		s.SetEndpoint("localhost:3000")
		assert.Error(t, s.Validate())

		s.Reset()
		require.NoError(t, s.SetData(map[string]any{"log_level": "verbose"}))
		assert.Error(t, s.Validate())

		s.Reset()
		require.NoError(t, s.SetData(map[string]any{"default_timeout": -1.0}))
		assert.Error(t, s.Validate())
	})

	t.Run("rejects non-numeric timeout", func(t *testing.T) {
		s := NewServiceSection()
		assert.Error(t, s.SetData(map[string]any{"default_timeout": "soon"}))
	})

	t.Run("reset restores defaults", func(t *testing.T) {
		s := NewServiceSection()
		s.SetEndpoint("ws://elsewhere:1")
		s.Reset()
		assert.Equal(t, DefaultEndpoint, s.GetEndpoint())
		assert.Zero(t, s.GetDefaultTimeout())
	})
}

func TestProxySection(t *testing.T) {
	t.Run("set data normalizes names", func(t *testing.T) {
		s := NewProxySection()
		require.NoError(t, s.SetData(map[string]any{
			" DataCenter ": map[string]any{"server": "http://dc:1", "bypass": ".local"},
		}))

		e, ok := s.Get("datacenter")
		require.True(t, ok)
		assert.Equal(t, "http://dc:1", e.Server)
		assert.Equal(t, ".local", e.Bypass)
		assert.Equal(t, []string{"datacenter"}, s.Names())
	})

	t.Run("set data rejects non-object entries", func(t *testing.T) {
		s := NewProxySection()
		assert.Error(t, s.SetData(map[string]any{"dc": "http://dc:1"}))
	})

	t.Run("validate rejects reserved name", func(t *testing.T) {
		s := NewProxySection()
		s.Set("none", ProxyEntry{Server: "http://x:1"})
		assert.Error(t, s.Validate())
	})

	t.Run("remove", func(t *testing.T) {
		s := NewProxySection()
		s.Set("dc", ProxyEntry{Server: "http://dc:1"})
		s.Remove("DC")
		_, ok := s.Get("dc")
		assert.False(t, ok)
	})
}
