package launch

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/entrhq/pagefetch/pkg/request"
)

// DefaultEndpoint is the automation service address used when none is configured.
const DefaultEndpoint = "ws://127.0.0.1:3000"

// Credential field suffixes used in proxy variable names.
const (
	FieldServer   = "SERVER"
	FieldUsername = "USERNAME"
	FieldPassword = "PASSWORD"
	FieldBypass   = "BYPASS"
)

// Builder derives launch Parameters from a request.Config.
//
// Proxy credentials are looked up in a variable map supplied at construction
// (normally built from settings and the process environment) so that Build
// stays a pure function of its inputs.
type Builder struct {
	vars map[string]string
}

// NewBuilder creates a builder over a copy of vars.
func NewBuilder(vars map[string]string) *Builder {
	copied := make(map[string]string, len(vars))
	for k, v := range vars {
		copied[k] = v
	}
	return &Builder{vars: copied}
}

// VarName returns the variable name holding one credential field for a
// proxy type, e.g. PROXY_RESIDENTIAL_SERVER.
func VarName(proxyType, field string) string {
	return fmt.Sprintf("PROXY_%s_%s", strings.ToUpper(proxyType), field)
}

// Credentials resolves the proxy credentials for proxyType. Missing
// variables resolve to empty strings. It returns nil for "none" and for an
// empty type.
func (b *Builder) Credentials(proxyType string) *ProxyCredentials {
	proxyType = strings.TrimSpace(proxyType)
	if proxyType == "" || strings.EqualFold(proxyType, request.ProxyNone) {
		return nil
	}
	return &ProxyCredentials{
		Server:   b.vars[VarName(proxyType, FieldServer)],
		Username: b.vars[VarName(proxyType, FieldUsername)],
		Password: b.vars[VarName(proxyType, FieldPassword)],
		Bypass:   b.vars[VarName(proxyType, FieldBypass)],
	}
}

// Build computes the launch parameters for cfg, applying the feature rules
// of the requested browser family.
func (b *Builder) Build(cfg request.Config) Parameters {
	proxy := b.Credentials(cfg.ProxyType)

	var variant Variant
	switch ParseFamily(cfg.Browser) {
	case FamilyFirefox:
		variant = Firefox{Proxy: proxy}
	case FamilyWebKit:
		variant = WebKit{}
	default:
		variant = Chromium{
			Proxy:    proxy,
			Stealth:  cfg.Stealth,
			BlockAds: cfg.BlockAds,
		}
	}

	return Parameters{
		Headless: cfg.Headless,
		Variant:  variant,
	}
}

// Descriptor builds the connection address for the automation service:
// <endpoint>/<family>/playwright?launch=<json>. A path or query already
// present on endpoint is kept.
func Descriptor(endpoint string, params Parameters) (string, error) {
	encoded, err := json.Marshal(params)
	if err != nil {
		return "", fmt.Errorf("failed to encode launch parameters: %w", err)
	}

	u, err := url.Parse(strings.TrimSpace(endpoint))
	if err != nil {
		return "", fmt.Errorf("invalid endpoint %q: %w", endpoint, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("invalid endpoint %q: scheme and host are required", endpoint)
	}

	u.Path = strings.TrimRight(u.Path, "/") + "/" + string(params.Family()) + "/playwright"
	u.RawPath = ""

	query := u.Query()
	query.Set("launch", string(encoded))
	u.RawQuery = query.Encode()
	return u.String(), nil
}
