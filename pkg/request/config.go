package request

// WaitUntil is the navigation lifecycle event a fetch waits for.
type WaitUntil string

const (
	// WaitLoad waits for the load event
	WaitLoad WaitUntil = "load"

	// WaitDOMContentLoaded waits for DOMContentLoaded (default)
	WaitDOMContentLoaded WaitUntil = "domcontentloaded"

	// WaitNetworkIdle waits until there are no network connections for 500ms
	WaitNetworkIdle WaitUntil = "networkidle"

	// WaitCommit waits until the response is received and the document starts loading
	WaitCommit WaitUntil = "commit"
)

// ProxyNone disables proxying for a fetch.
const ProxyNone = "none"

// Default values applied by Normalize.
const (
	DefaultTimeout   = 60000.0 // 60 seconds in milliseconds
	DefaultBrowser   = "chromium"
	DefaultWaitUntil = WaitDOMContentLoaded
	DefaultHeadless  = true
)

// MaxTimeout caps every millisecond duration in a Config (24 hours).
const MaxTimeout = 24 * 60 * 60 * 1000.0

// Config is the canonical description of a single fetch.
// It is a value type; a session never mutates the Config it was started with.
type Config struct {
	// URL is the page to fetch
	URL string

	// ProxyType names the proxy credential set to use, or "none"
	ProxyType string

	// Browser is the engine family (chromium, firefox, webkit)
	Browser string

	// Headless controls whether the remote browser runs without a window
	Headless bool

	// Stealth requests fingerprint evasion (chromium only)
	Stealth bool

	// BlockAds requests the service's ad blocker (chromium only)
	BlockAds bool

	// Timeout is the overall page operation budget in milliseconds
	Timeout float64

	// BlockedResources lists resource categories to abort (image, stylesheet, ...)
	BlockedResources []string

	// BlockedURLs lists glob patterns of request URLs to abort
	BlockedURLs []string

	// WaitUntil is the lifecycle event navigation waits for
	WaitUntil WaitUntil

	// Script is a percent-encoded expression evaluated after navigation
	Script string

	// ViewSource fetches the page through the view-source: scheme
	ViewSource bool

	// Screenshot captures a full-page PNG
	Screenshot bool

	// WaitDelay is a fixed delay in milliseconds applied after navigation
	WaitDelay float64

	// WaitForSelector is a CSS selector that must appear before capture
	WaitForSelector string
}

// RawConfig is the loosely-typed form of a fetch request as it arrives from
// YAML files, JSON payloads or command-line flags. Boolean and numeric fields
// accept either native values or their string spellings.
type RawConfig struct {
	URL              string   `yaml:"url" json:"url"`
	ProxyType        string   `yaml:"proxy_type" json:"proxy_type"`
	Browser          string   `yaml:"browser" json:"browser"`
	Headless         any      `yaml:"headless" json:"headless"`
	Stealth          any      `yaml:"stealth" json:"stealth"`
	BlockAds         any      `yaml:"block_ads" json:"block_ads"`
	Timeout          any      `yaml:"timeout" json:"timeout"`
	BlockedResources string   `yaml:"blocked_resources" json:"blocked_resources"`
	BlockedURLs      []string `yaml:"blocked_urls" json:"blocked_urls"`
	WaitUntil        string   `yaml:"wait_until" json:"wait_until"`
	Script           string   `yaml:"script" json:"script"`
	ViewSource       any      `yaml:"view_source" json:"view_source"`
	Screenshot       any      `yaml:"screenshot" json:"screenshot"`
	WaitDelay        any      `yaml:"wait_delay" json:"wait_delay"`
	WaitForSelector  string   `yaml:"wait_for_selector" json:"wait_for_selector"`
}
