package config

import (
	"strings"

	"github.com/entrhq/pagefetch/pkg/launch"
)

const proxyVarPrefix = "PROXY_"

// ProxyVars flattens the proxy section into PROXY_<TYPE>_<FIELD> variables
// and overlays matching entries from environ (KEY=VALUE form, as returned by
// os.Environ). Environment values win. A nil section contributes nothing.
func ProxyVars(section *ProxySection, environ []string) map[string]string {
	vars := make(map[string]string)

	if section != nil {
		for _, name := range section.Names() {
			e, _ := section.Get(name)
			put(vars, launch.VarName(name, launch.FieldServer), e.Server)
			put(vars, launch.VarName(name, launch.FieldUsername), e.Username)
			put(vars, launch.VarName(name, launch.FieldPassword), e.Password)
			put(vars, launch.VarName(name, launch.FieldBypass), e.Bypass)
		}
	}

	for _, kv := range environ {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(key, proxyVarPrefix) {
			continue
		}
		vars[key] = value
	}
	return vars
}

func put(vars map[string]string, key, value string) {
	if value != "" {
		vars[key] = value
	}
}

// ResolveEndpoint picks the automation service endpoint. Precedence: the
// explicit value, then the PAGEFETCH_ENDPOINT variable, then settings, then
// DefaultEndpoint.
func ResolveEndpoint(explicit string, section *ServiceSection, getenv func(string) string) string {
	if explicit != "" {
		return explicit
	}
	if getenv != nil {
		if v := getenv(EndpointEnvVar); v != "" {
			return v
		}
	}
	if section != nil {
		if v := section.GetEndpoint(); v != "" {
			return v
		}
	}
	return DefaultEndpoint
}
