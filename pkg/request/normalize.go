package request

import (
	"math"
	"net"
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/idna"
)

// Normalize coerces a RawConfig into a canonical Config.
//
// Normalize never fails: values that cannot be interpreted fall back to the
// field's default, so a malformed request still produces a session whose
// failure is reported through the result envelope.
func Normalize(raw RawConfig) Config {
	cfg := Config{
		URL:              normalizeURL(raw.URL),
		ProxyType:        strings.ToLower(strings.TrimSpace(raw.ProxyType)),
		Browser:          strings.ToLower(strings.TrimSpace(raw.Browser)),
		Headless:         toBool(raw.Headless, DefaultHeadless),
		Stealth:          toBool(raw.Stealth, false),
		BlockAds:         toBool(raw.BlockAds, false),
		Timeout:          toMillis(raw.Timeout, DefaultTimeout),
		BlockedResources: SplitList(raw.BlockedResources),
		BlockedURLs:      compact(raw.BlockedURLs),
		WaitUntil:        ParseWaitUntil(raw.WaitUntil),
		Script:           raw.Script,
		ViewSource:       toBool(raw.ViewSource, false),
		Screenshot:       toBool(raw.Screenshot, false),
		WaitDelay:        toMillis(raw.WaitDelay, 0),
		WaitForSelector:  strings.TrimSpace(raw.WaitForSelector),
	}

	if cfg.ProxyType == "" {
		cfg.ProxyType = ProxyNone
	}
	if cfg.Browser == "" {
		cfg.Browser = DefaultBrowser
	}

	return cfg
}

// ParseWaitUntil maps the accepted spellings of a lifecycle event to a
// WaitUntil. Unknown values resolve to DefaultWaitUntil.
func ParseWaitUntil(s string) WaitUntil {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "load":
		return WaitLoad
	case "dom-ready", "domready", "domcontentloaded":
		return WaitDOMContentLoaded
	case "network-idle", "networkidle":
		return WaitNetworkIdle
	case "commit":
		return WaitCommit
	default:
		return DefaultWaitUntil
	}
}

// SplitList splits a comma-separated category list, trimming and
// lower-casing entries and dropping empty ones.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func compact(items []string) []string {
	var out []string
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func toBool(v any, def bool) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(b))
		if err != nil {
			return def
		}
		return parsed
	default:
		return def
	}
}

// toMillis accepts the numeric types produced by YAML and JSON decoders as
// well as numeric strings. Non-positive and non-finite values resolve to def;
// values above MaxTimeout are clamped to it.
func toMillis(v any, def float64) float64 {
	var ms float64
	switch n := v.(type) {
	case int:
		ms = float64(n)
	case int64:
		ms = float64(n)
	case uint64:
		ms = float64(n)
	case float64:
		ms = n
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return def
		}
		ms = parsed
	default:
		return def
	}
	if ms <= 0 || math.IsNaN(ms) || math.IsInf(ms, 0) {
		return def
	}
	return math.Min(ms, MaxTimeout)
}

// normalizeURL converts internationalized host names to their ASCII form.
// URLs that do not parse are returned trimmed but otherwise unchanged.
func normalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if isASCII(raw) {
		return raw
	}

	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}

	host, err := idna.Lookup.ToASCII(u.Hostname())
	if err != nil {
		return raw
	}
	if port := u.Port(); port != "" {
		host = net.JoinHostPort(host, port)
	}
	u.Host = host
	return u.String()
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
