// Package main provides the pagefetch command: it fetches one page through a
// remote browser automation service and prints the result envelope as JSON.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	appconfig "github.com/entrhq/pagefetch/pkg/config"
	"github.com/entrhq/pagefetch/pkg/driver"
	"github.com/entrhq/pagefetch/pkg/envelope"
	"github.com/entrhq/pagefetch/pkg/logging"
	"github.com/entrhq/pagefetch/pkg/request"
	"github.com/entrhq/pagefetch/pkg/session"
)

const version = "0.1.0"

// CLIConfig holds command-line configuration
type CLIConfig struct {
	RequestFile   string
	SettingsFile  string
	Endpoint      string
	OutputFile    string
	ScreenshotOut string
	LogLevel      string
	ShowVersion   bool

	// Request fields. Only flags set on the command line are applied.
	URL        string
	Browser    string
	Proxy      string
	Block      string
	BlockURLs  stringList
	WaitUntil  string
	Timeout    float64
	Script     string
	Selector   string
	Delay      float64
	ViewSource bool
	Screenshot bool
	Headless   bool
	Stealth    bool
	BlockAds   bool
	set        map[string]bool
}

// stringList collects a repeatable flag.
type stringList []string

func (s *stringList) String() string { return fmt.Sprint(*s) }

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

func main() {
	config, err := parseFlags(flag.CommandLine, os.Args[1:])
	if err != nil {
		os.Exit(2)
	}

	if config.ShowVersion {
		fmt.Printf("pagefetch v%s\n", version)
		return
	}

	result, err := run(config)
	if err != nil {
		log.Printf("pagefetch: %v", err)
		os.Exit(1)
	}
	if !result.OK() {
		os.Exit(1)
	}
}

// parseFlags parses command line flags
func parseFlags(fs *flag.FlagSet, args []string) (*CLIConfig, error) {
	config := &CLIConfig{}

	fs.StringVar(&config.RequestFile, "request", "", "Path to a request file (YAML)")
	fs.StringVar(&config.SettingsFile, "settings", "", "Path to the settings file (default ~/.pagefetch/settings.json)")
	fs.StringVar(&config.Endpoint, "endpoint", "", "Automation service endpoint (overrides "+appconfig.EndpointEnvVar+" and settings)")
	fs.StringVar(&config.OutputFile, "output", "-", "Where to write the result envelope ('-' for stdout)")
	fs.StringVar(&config.ScreenshotOut, "screenshot-out", "", "Also write the screenshot PNG to this file")
	fs.StringVar(&config.LogLevel, "log-level", "", "Log level: debug, info, warn or error (default from settings)")
	fs.BoolVar(&config.ShowVersion, "version", false, "Show version and exit")

	fs.StringVar(&config.URL, "url", "", "URL to fetch")
	fs.StringVar(&config.Browser, "browser", request.DefaultBrowser, "Browser family: chromium, firefox or webkit")
	fs.StringVar(&config.Proxy, "proxy", request.ProxyNone, "Proxy type, resolved through PROXY_<TYPE>_* variables")
	fs.StringVar(&config.Block, "block", "", "Comma-separated resource categories to block (e.g. image,font)")
	fs.Var(&config.BlockURLs, "block-url", "URL glob pattern to block (repeatable)")
	fs.StringVar(&config.WaitUntil, "wait-until", string(request.DefaultWaitUntil), "Navigation wait condition: load, domcontentloaded, networkidle or commit")
	fs.Float64Var(&config.Timeout, "timeout", request.DefaultTimeout, "Navigation timeout in milliseconds")
	fs.StringVar(&config.Script, "script", "", "URL-encoded script to evaluate after navigation")
	fs.StringVar(&config.Selector, "selector", "", "CSS selector to wait for after navigation")
	fs.Float64Var(&config.Delay, "delay", 0, "Milliseconds to wait after navigation")
	fs.BoolVar(&config.ViewSource, "view-source", false, "Fetch the view-source: rendering of the URL")
	fs.BoolVar(&config.Screenshot, "screenshot", false, "Capture a full-page screenshot")
	fs.BoolVar(&config.Headless, "headless", request.DefaultHeadless, "Run the browser headless")
	fs.BoolVar(&config.Stealth, "stealth", false, "Enable stealth mode (chromium only)")
	fs.BoolVar(&config.BlockAds, "block-ads", false, "Enable ad blocking (chromium only)")

	fs.Usage = func() {
		out := fs.Output()
		fmt.Fprintf(out, "pagefetch - fetch a page through a remote browser service\n\n")
		fmt.Fprintf(out, "Usage: pagefetch [options]\n\n")
		fmt.Fprintf(out, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(out, "\nExamples:\n")
		fmt.Fprintf(out, "  pagefetch -url https://example.com -block image,font\n\n")
		fmt.Fprintf(out, "  pagefetch -request fetch.yaml -screenshot -screenshot-out page.png\n\n")
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	config.set = make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { config.set[f.Name] = true })
	return config, nil
}

// run performs one fetch and writes its envelope. A failure envelope is
// written like any other; the returned error covers setup and output only.
func run(cliConfig *CLIConfig) (envelope.Result, error) {
	if err := appconfig.Initialize(cliConfig.SettingsFile); err != nil {
		return envelope.Result{}, fmt.Errorf("failed to initialize settings: %w", err)
	}
	service := appconfig.GetService()

	level := service.GetLogLevel()
	if cliConfig.LogLevel != "" {
		level = logging.ParseLevel(cliConfig.LogLevel)
	}
	logger, err := logging.NewLogger("pagefetch", level)
	if err != nil {
		log.Printf("pagefetch: file logging unavailable: %v", err)
	}
	defer logger.Close()

	raw, err := loadRequest(cliConfig)
	if err != nil {
		return envelope.Result{}, err
	}
	if raw.Timeout == nil && service.GetDefaultTimeout() > 0 {
		raw.Timeout = service.GetDefaultTimeout()
	}
	cfg := request.Normalize(raw)
	if cfg.URL == "" {
		return envelope.Result{}, fmt.Errorf("a URL is required (-url or url: in the request file)")
	}

	drv := driver.NewPlaywright()
	defer func() {
		if err := drv.Shutdown(); err != nil {
			logger.Warnf("%v", err)
		}
	}()

	orch := session.New(drv,
		session.WithEndpoint(appconfig.ResolveEndpoint(cliConfig.Endpoint, service, os.Getenv)),
		session.WithProxyVars(appconfig.ProxyVars(appconfig.GetProxies(), os.Environ())),
		session.WithLogger(logger),
	)

	result := orch.Run(cfg)

	if cliConfig.ScreenshotOut != "" && len(result.Screenshot) > 0 {
		if err := os.WriteFile(cliConfig.ScreenshotOut, result.Screenshot, 0644); err != nil {
			return result, fmt.Errorf("failed to write screenshot: %w", err)
		}
	}

	if err := writeResult(cliConfig.OutputFile, result); err != nil {
		return result, err
	}
	return result, nil
}

func writeResult(path string, result envelope.Result) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	data = append(data, '\n')

	if path == "" || path == "-" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write result: %w", err)
	}
	return nil
}
