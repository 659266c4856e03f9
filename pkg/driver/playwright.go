// Package driver connects the session orchestrator to a remote browser
// service through Playwright.
package driver

import (
	"fmt"
	"io"
	"sync"

	"github.com/playwright-community/playwright-go"

	"github.com/entrhq/pagefetch/pkg/envelope"
	"github.com/entrhq/pagefetch/pkg/intercept"
	"github.com/entrhq/pagefetch/pkg/launch"
	"github.com/entrhq/pagefetch/pkg/request"
	"github.com/entrhq/pagefetch/pkg/session"
)

// catchAll matches every request issued by a page.
const catchAll = "**/*"

// Playwright implements session.Driver on top of playwright-go. Browsers are
// never launched locally; every connection goes to a remote service.
type Playwright struct {
	mu          sync.Mutex
	pw          *playwright.Playwright
	initialized bool
}

// NewPlaywright creates a driver. The Playwright runtime starts on first use.
func NewPlaywright() *Playwright {
	return &Playwright{}
}

// Initialize installs (if needed) and starts the Playwright driver process.
// Browser binaries are not installed since browsers run remotely.
func (d *Playwright) Initialize() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.initialized {
		return nil
	}

	opts := &playwright.RunOptions{
		SkipInstallBrowsers: true,
		Verbose:             false,
		Stdout:              io.Discard,
		Stderr:              io.Discard,
	}

	if err := playwright.Install(opts); err != nil {
		return fmt.Errorf("failed to install playwright: %w", err)
	}

	pw, err := playwright.Run(opts)
	if err != nil {
		return fmt.Errorf("failed to start playwright: %w", err)
	}

	d.pw = pw
	d.initialized = true
	return nil
}

// Shutdown stops the Playwright driver process.
func (d *Playwright) Shutdown() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.initialized || d.pw == nil {
		return nil
	}
	if err := d.pw.Stop(); err != nil {
		return fmt.Errorf("failed to stop playwright: %w", err)
	}
	d.initialized = false
	d.pw = nil
	return nil
}

func (d *Playwright) browserType(family launch.Family) (playwright.BrowserType, error) {
	if err := d.Initialize(); err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	switch family {
	case launch.FamilyFirefox:
		return d.pw.Firefox, nil
	case launch.FamilyWebKit:
		return d.pw.WebKit, nil
	default:
		return d.pw.Chromium, nil
	}
}

// Connect dials the automation service at descriptor.
func (d *Playwright) Connect(family launch.Family, descriptor string, timeout float64) (session.Browser, error) {
	bt, err := d.browserType(family)
	if err != nil {
		return nil, err
	}

	b, err := bt.Connect(descriptor, playwright.BrowserTypeConnectOptions{
		Timeout: playwright.Float(timeout),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s service: %w", family, err)
	}
	return &browser{b: b}, nil
}

type browser struct {
	b playwright.Browser
}

func (b *browser) NewContext(params launch.Parameters) (session.BrowserContext, error) {
	opts := playwright.BrowserNewContextOptions{}
	if proxy := params.Proxy(); proxy != nil {
		opts.Proxy = &playwright.Proxy{
			Server:   proxy.Server,
			Username: optional(proxy.Username),
			Password: optional(proxy.Password),
			Bypass:   optional(proxy.Bypass),
		}
	}

	c, err := b.b.NewContext(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create context: %w", err)
	}
	return &browserContext{c: c}, nil
}

func (b *browser) IsConnected() bool {
	return b.b.IsConnected()
}

func (b *browser) Close() error {
	return b.b.Close()
}

type browserContext struct {
	c playwright.BrowserContext
}

func (c *browserContext) NewPage() (session.Page, error) {
	p, err := c.c.NewPage()
	if err != nil {
		return nil, fmt.Errorf("failed to create page: %w", err)
	}
	return &page{p: p}, nil
}

func (c *browserContext) Cookies() ([]envelope.Cookie, error) {
	cookies, err := c.c.Cookies()
	if err != nil {
		return nil, fmt.Errorf("failed to read cookies: %w", err)
	}

	out := make([]envelope.Cookie, 0, len(cookies))
	for _, ck := range cookies {
		cookie := envelope.Cookie{
			Name:     ck.Name,
			Value:    ck.Value,
			Domain:   ck.Domain,
			Path:     ck.Path,
			Expires:  ck.Expires,
			HTTPOnly: ck.HttpOnly,
			Secure:   ck.Secure,
		}
		if ck.SameSite != nil {
			cookie.SameSite = string(*ck.SameSite)
		}
		out = append(out, cookie)
	}
	return out, nil
}

func (c *browserContext) Close() error {
	return c.c.Close()
}

type page struct {
	p playwright.Page
}

func (p *page) SetDefaultTimeout(timeout float64) {
	p.p.SetDefaultTimeout(timeout)
}

func (p *page) Route(handler func(intercept.Route)) error {
	return p.p.Route(catchAll, func(r playwright.Route) {
		handler(route{r: r})
	})
}

func (p *page) Unroute() error {
	return p.p.Unroute(catchAll)
}

func (p *page) Listen(l session.Listeners) func() {
	onCrash := func(playwright.Page) {
		if l.OnCrash != nil {
			l.OnCrash()
		}
	}
	onClose := func(playwright.Page) {
		if l.OnClose != nil {
			l.OnClose()
		}
	}
	onDialog := func(d playwright.Dialog) {
		if l.OnDialog != nil {
			l.OnDialog(d)
		}
	}

	p.p.On("crash", onCrash)
	p.p.On("close", onClose)
	p.p.On("dialog", onDialog)

	return func() {
		p.p.RemoveListener("crash", onCrash)
		p.p.RemoveListener("close", onClose)
		p.p.RemoveListener("dialog", onDialog)
	}
}

func (p *page) Goto(url string, waitUntil request.WaitUntil) (*session.Response, error) {
	state := playwright.WaitUntilState(waitUntil)
	resp, err := p.p.Goto(url, playwright.PageGotoOptions{
		WaitUntil: &state,
	})
	if err != nil {
		return nil, fmt.Errorf("navigation failed: %w", err)
	}
	if resp == nil {
		return nil, nil
	}

	headers, err := resp.AllHeaders()
	if err != nil {
		headers = resp.Headers()
	}
	return &session.Response{
		Status:  resp.Status(),
		Headers: headers,
	}, nil
}

func (p *page) WaitForSelector(selector string, timeout float64) error {
	_, err := p.p.WaitForSelector(selector, playwright.PageWaitForSelectorOptions{
		Timeout: playwright.Float(timeout),
	})
	if err != nil {
		return fmt.Errorf("wait for %q failed: %w", selector, err)
	}
	return nil
}

func (p *page) Evaluate(expression string) (any, error) {
	v, err := p.p.Evaluate(expression)
	if err != nil {
		return nil, fmt.Errorf("script execution failed: %w", err)
	}
	return v, nil
}

func (p *page) Screenshot(timeout float64) ([]byte, error) {
	shot, err := p.p.Screenshot(playwright.PageScreenshotOptions{
		FullPage: playwright.Bool(true),
		Timeout:  playwright.Float(timeout),
	})
	if err != nil {
		return nil, fmt.Errorf("screenshot failed: %w", err)
	}
	return shot, nil
}

func (p *page) URL() string {
	return p.p.URL()
}

func (p *page) Content() (string, error) {
	return p.p.Content()
}

func (p *page) Close() error {
	return p.p.Close()
}

type route struct {
	r playwright.Route
}

func (r route) ResourceType() string { return r.r.Request().ResourceType() }
func (r route) URL() string          { return r.r.Request().URL() }
func (r route) Abort() error         { return r.r.Abort() }
func (r route) Continue() error      { return r.r.Continue() }

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
