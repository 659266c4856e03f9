// Package launch derives per-family browser launch parameters and the
// automation service connection descriptor.
package launch

import (
	"encoding/json"
	"strings"
)

// Family identifies a browser engine family offered by the automation service.
type Family string

const (
	// FamilyChromium supports proxies, stealth and ad blocking
	FamilyChromium Family = "chromium"

	// FamilyFirefox supports proxies only
	FamilyFirefox Family = "firefox"

	// FamilyWebKit supports none of the optional launch features
	FamilyWebKit Family = "webkit"
)

// ParseFamily resolves a browser name to a Family. Unknown names fall back
// to FamilyChromium.
func ParseFamily(name string) Family {
	switch Family(strings.ToLower(strings.TrimSpace(name))) {
	case FamilyFirefox:
		return FamilyFirefox
	case FamilyWebKit:
		return FamilyWebKit
	default:
		return FamilyChromium
	}
}

// ProxyCredentials describes the upstream proxy a browser context routes through.
type ProxyCredentials struct {
	Server   string `json:"server"`
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
	Bypass   string `json:"bypass,omitempty"`
}

// Variant carries the launch options a single browser family supports.
// Chromium, Firefox and WebKit are the only implementations.
type Variant interface {
	Family() Family
	proxy() *ProxyCredentials
}

// Chromium is the full-featured variant.
type Chromium struct {
	Proxy    *ProxyCredentials
	Stealth  bool
	BlockAds bool
}

// Firefox accepts a proxy but no stealth or ad-block switches.
type Firefox struct {
	Proxy *ProxyCredentials
}

// WebKit runs without a proxy and without optional features.
type WebKit struct{}

func (Chromium) Family() Family { return FamilyChromium }
func (Firefox) Family() Family  { return FamilyFirefox }
func (WebKit) Family() Family   { return FamilyWebKit }

func (c Chromium) proxy() *ProxyCredentials { return c.Proxy }
func (f Firefox) proxy() *ProxyCredentials  { return f.Proxy }
func (WebKit) proxy() *ProxyCredentials     { return nil }

// Parameters is the launch configuration derived from a request. It is
// computed once before any remote call and not modified afterwards.
type Parameters struct {
	Headless bool
	Variant  Variant
}

// Family returns the browser family the parameters target.
func (p Parameters) Family() Family {
	if p.Variant == nil {
		return FamilyChromium
	}
	return p.Variant.Family()
}

// Proxy returns the proxy the browser context should use, or nil.
func (p Parameters) Proxy() *ProxyCredentials {
	if p.Variant == nil {
		return nil
	}
	return p.Variant.proxy()
}

// ProxyIncomplete reports whether a proxy is attached but has no server,
// which happens when the credential source had no entry for the proxy type.
func (p Parameters) ProxyIncomplete() bool {
	proxy := p.Proxy()
	return proxy != nil && proxy.Server == ""
}

type wireParameters struct {
	Headless bool              `json:"headless"`
	Proxy    *ProxyCredentials `json:"proxy,omitempty"`
	Stealth  *bool             `json:"stealth,omitempty"`
	BlockAds *bool             `json:"blockAds,omitempty"`
}

// MarshalJSON flattens the variant so that only the fields supported by the
// family appear in the serialized form.
func (p Parameters) MarshalJSON() ([]byte, error) {
	wire := wireParameters{
		Headless: p.Headless,
		Proxy:    p.Proxy(),
	}
	if c, ok := p.Variant.(Chromium); ok {
		wire.Stealth = &c.Stealth
		wire.BlockAds = &c.BlockAds
	}
	return json.Marshal(wire)
}
