package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/entrhq/pagefetch/pkg/request"
)

// loadRequest reads the request file, if any, and applies the request flags
// given on the command line on top of it.
func loadRequest(cliConfig *CLIConfig) (request.RawConfig, error) {
	var raw request.RawConfig
	if cliConfig.RequestFile != "" {
		var err error
		if raw, err = loadRequestFromFile(cliConfig.RequestFile); err != nil {
			return raw, err
		}
	}
	applyFlags(&raw, cliConfig)
	return raw, nil
}

// loadRequestFromFile decodes a YAML request file
func loadRequestFromFile(path string) (request.RawConfig, error) {
	var raw request.RawConfig

	data, err := os.ReadFile(path)
	if err != nil {
		return raw, fmt.Errorf("failed to read request file: %w", err)
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return raw, fmt.Errorf("failed to parse request file: %w", err)
	}
	return raw, nil
}

// applyFlags copies explicitly set flags into raw. Flags left at their
// defaults do not override the request file; with no file the normalizer
// supplies the same defaults.
func applyFlags(raw *request.RawConfig, c *CLIConfig) {
	if c.set["url"] {
		raw.URL = c.URL
	}
	if c.set["browser"] {
		raw.Browser = c.Browser
	}
	if c.set["proxy"] {
		raw.ProxyType = c.Proxy
	}
	if c.set["block"] {
		raw.BlockedResources = c.Block
	}
	if c.set["block-url"] {
		raw.BlockedURLs = append(raw.BlockedURLs, c.BlockURLs...)
	}
	if c.set["wait-until"] {
		raw.WaitUntil = c.WaitUntil
	}
	if c.set["timeout"] {
		raw.Timeout = c.Timeout
	}
	if c.set["script"] {
		raw.Script = c.Script
	}
	if c.set["selector"] {
		raw.WaitForSelector = c.Selector
	}
	if c.set["delay"] {
		raw.WaitDelay = c.Delay
	}
	if c.set["view-source"] {
		raw.ViewSource = c.ViewSource
	}
	if c.set["screenshot"] {
		raw.Screenshot = c.Screenshot
	}
	if c.set["headless"] {
		raw.Headless = c.Headless
	}
	if c.set["stealth"] {
		raw.Stealth = c.Stealth
	}
	if c.set["block-ads"] {
		raw.BlockAds = c.BlockAds
	}
}
