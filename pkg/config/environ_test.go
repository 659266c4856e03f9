package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProxyVars(t *testing.T) {
	section := NewProxySection()
	section.Set("residential", ProxyEntry{Server: "http://res:8080", Username: "settings-user", Password: "pw"})

	vars := ProxyVars(section, []string{
		"HOME=/root",
		"PROXY_RESIDENTIAL_USERNAME=env-user",
		"PROXY_DC_SERVER=http://dc:3128",
		"MALFORMED",
	})

	assert.Equal(t, map[string]string{
		"PROXY_RESIDENTIAL_SERVER":   "http://res:8080",
		"PROXY_RESIDENTIAL_USERNAME": "env-user",
		"PROXY_RESIDENTIAL_PASSWORD": "pw",
		"PROXY_DC_SERVER":            "http://dc:3128",
	}, vars)
}

func TestProxyVars_NilSection(t *testing.T) {
	vars := ProxyVars(nil, []string{"PROXY_X_SERVER=http://x:1"})
	assert.Equal(t, map[string]string{"PROXY_X_SERVER": "http://x:1"}, vars)
}

func TestResolveEndpoint(t *testing.T) {
	env := func(v string) func(string) string {
		return func(key string) string {
			if key == EndpointEnvVar {
				return v
			}
			return ""
		}
	}
	section := NewServiceSection()
	section.SetEndpoint("ws://settings:3000")

	assert.Equal(t, "ws://flag:3000", ResolveEndpoint("ws://flag:3000", section, env("ws://env:3000")))
	assert.Equal(t, "ws://env:3000", ResolveEndpoint("", section, env("ws://env:3000")))
	assert.Equal(t, "ws://settings:3000", ResolveEndpoint("", section, env("")))
	assert.Equal(t, DefaultEndpoint, ResolveEndpoint("", nil, nil))

	section.SetEndpoint("")
	assert.Equal(t, DefaultEndpoint, ResolveEndpoint("", section, env("")))
}
