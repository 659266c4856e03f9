package driver

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/pagefetch/pkg/request"
	"github.com/entrhq/pagefetch/pkg/session"
)

var _ session.Driver = (*Playwright)(nil)

func TestOptional(t *testing.T) {
	assert.Nil(t, optional(""))
	require.NotNil(t, optional("localhost"))
	assert.Equal(t, "localhost", *optional("localhost"))
}

func TestShutdownWithoutInitialize(t *testing.T) {
	assert.NoError(t, NewPlaywright().Shutdown())
}

// integrationEndpoint returns the automation service to test against, or
// skips the test when none is available.
func integrationEndpoint(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	endpoint := os.Getenv("PAGEFETCH_ENDPOINT")
	if endpoint == "" {
		t.Skip("PAGEFETCH_ENDPOINT not set")
	}
	return endpoint
}

func TestPlaywright_Integration(t *testing.T) {
	endpoint := integrationEndpoint(t)

	drv := NewPlaywright()
	defer drv.Shutdown()

	orch := session.New(drv, session.WithEndpoint(endpoint))

	t.Run("fetches a page", func(t *testing.T) {
		cfg := request.Normalize(request.RawConfig{
			URL:    "https://example.com",
			Script: "1%2B1",
		})

		res := orch.Run(cfg)
		require.True(t, res.OK(), res.Error)
		assert.GreaterOrEqual(t, res.StatusCode, 200)
		assert.Less(t, res.StatusCode, 600)
		assert.NotEmpty(t, res.Body)
		assert.EqualValues(t, 2, res.EvalResult)
	})

	t.Run("throwing script fails", func(t *testing.T) {
		cfg := request.Normalize(request.RawConfig{
			URL:    "https://example.com",
			Script: "(()%3D%3E%7Bthrow%20new%20Error('boom')%7D)()",
		})

		res := orch.Run(cfg)
		assert.False(t, res.OK())
		assert.Equal(t, 500, res.StatusCode)
		assert.Empty(t, res.Body)
	})
}
