package session

import (
	"errors"
	"sync"

	"github.com/entrhq/pagefetch/pkg/envelope"
	"github.com/entrhq/pagefetch/pkg/intercept"
	"github.com/entrhq/pagefetch/pkg/launch"
	"github.com/entrhq/pagefetch/pkg/request"
)

// recorder keeps an ordered log of calls made against the fakes.
type recorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *recorder) add(call string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call)
}

func (r *recorder) list() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

type fakeDriver struct {
	rec        *recorder
	browser    *fakeBrowser
	connectErr error
	panicMsg   string

	family     launch.Family
	descriptor string
}

func newFakeDriver() *fakeDriver {
	rec := &recorder{}
	page := &fakePage{
		rec:     rec,
		url:     "https://example.com/final",
		content: "<html><body>hello</body></html>",
		closed:  make(chan struct{}),
		resp: &Response{
			Status:  200,
			Headers: map[string]string{"content-type": "text/html"},
		},
	}
	bctx := &fakeContext{
		rec:     rec,
		page:    page,
		cookies: []envelope.Cookie{{Name: "sid", Value: "abc", Domain: "example.com", Path: "/"}},
	}
	browser := &fakeBrowser{rec: rec, ctx: bctx, connected: true}
	return &fakeDriver{rec: rec, browser: browser}
}

func (d *fakeDriver) page() *fakePage { return d.browser.ctx.page }

func (d *fakeDriver) Connect(family launch.Family, descriptor string, timeout float64) (Browser, error) {
	if d.panicMsg != "" {
		panic(d.panicMsg)
	}
	d.family = family
	d.descriptor = descriptor
	d.rec.add("connect")
	if d.connectErr != nil {
		return nil, d.connectErr
	}
	return d.browser, nil
}

type fakeBrowser struct {
	rec       *recorder
	ctx       *fakeContext
	params     launch.Parameters
	mu         sync.Mutex
	connected  bool
	closeErr   error
	contextErr error
}

func (b *fakeBrowser) NewContext(params launch.Parameters) (BrowserContext, error) {
	b.params = params
	b.rec.add("new-context")
	if b.contextErr != nil {
		return nil, b.contextErr
	}
	return b.ctx, nil
}

func (b *fakeBrowser) IsConnected() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.connected
}

func (b *fakeBrowser) disconnect() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.connected = false
}

func (b *fakeBrowser) Close() error {
	b.rec.add("browser.close")
	b.disconnect()
	return b.closeErr
}

type fakeContext struct {
	rec        *recorder
	page       *fakePage
	cookies    []envelope.Cookie
	closeErr   error
	pageErr    error
	cookiesErr error
}

func (c *fakeContext) NewPage() (Page, error) {
	c.rec.add("new-page")
	if c.pageErr != nil {
		return nil, c.pageErr
	}
	return c.page, nil
}

func (c *fakeContext) Cookies() ([]envelope.Cookie, error) {
	if c.cookiesErr != nil {
		return nil, c.cookiesErr
	}
	return c.cookies, nil
}

func (c *fakeContext) Close() error {
	c.rec.add("context.close")
	return c.closeErr
}

type fakeDialog struct {
	kind      string
	dismissed bool
	mu        sync.Mutex
}

func (d *fakeDialog) Type() string    { return d.kind }
func (d *fakeDialog) Message() string { return "are you sure?" }
func (d *fakeDialog) Dismiss() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dismissed = true
	return nil
}

type fakeRoute struct {
	resourceType string
	url          string
	decision     string
}

func (r *fakeRoute) ResourceType() string { return r.resourceType }
func (r *fakeRoute) URL() string          { return r.url }
func (r *fakeRoute) Abort() error         { r.decision = "abort"; return nil }
func (r *fakeRoute) Continue() error      { r.decision = "continue"; return nil }

type fakePage struct {
	rec *recorder

	mu             sync.Mutex
	handler        func(intercept.Route)
	listeners      *Listeners
	defaultTimeout float64
	closeOnce      sync.Once
	closed         chan struct{}
	closeErr       error

	url     string
	content string
	resp    *Response

	// gotoFn overrides navigation; it receives the page to drive events.
	gotoFn   func(p *fakePage) (*Response, error)
	gotoURL  string
	waitedOn request.WaitUntil

	selectorTimeout   float64
	screenshotTimeout float64
	evalResult        any
	evalErr           error
	evaluated         string
	selectorErr       error
	screenshotErr     error
	contentErr        error
}

func (p *fakePage) SetDefaultTimeout(timeout float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.defaultTimeout = timeout
}

func (p *fakePage) Route(handler func(intercept.Route)) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rec.add("route")
	p.handler = handler
	return nil
}

func (p *fakePage) Unroute() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rec.add("unroute")
	p.handler = nil
	return nil
}

func (p *fakePage) Listen(l Listeners) func() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rec.add("listen")
	p.listeners = &l
	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		p.rec.add("detach")
		p.listeners = nil
	}
}

// request simulates a sub-request passing through the installed route.
func (p *fakePage) request(resourceType, url string) string {
	p.mu.Lock()
	handler := p.handler
	p.mu.Unlock()
	if handler == nil {
		return "unrouted"
	}
	route := &fakeRoute{resourceType: resourceType, url: url}
	handler(route)
	return route.decision
}

func (p *fakePage) emit(fn func(l *Listeners)) {
	p.mu.Lock()
	l := p.listeners
	p.mu.Unlock()
	if l != nil {
		fn(l)
	}
}

func (p *fakePage) Goto(url string, waitUntil request.WaitUntil) (*Response, error) {
	p.mu.Lock()
	p.gotoURL = url
	p.waitedOn = waitUntil
	p.mu.Unlock()
	p.rec.add("goto")
	if p.gotoFn != nil {
		return p.gotoFn(p)
	}
	return p.resp, nil
}

func (p *fakePage) WaitForSelector(selector string, timeout float64) error {
	p.selectorTimeout = timeout
	p.rec.add("wait-selector:" + selector)
	return p.selectorErr
}

func (p *fakePage) Evaluate(expression string) (any, error) {
	p.evaluated = expression
	p.rec.add("evaluate")
	return p.evalResult, p.evalErr
}

func (p *fakePage) Screenshot(timeout float64) ([]byte, error) {
	p.screenshotTimeout = timeout
	p.rec.add("screenshot")
	if p.screenshotErr != nil {
		return nil, p.screenshotErr
	}
	return []byte("png"), nil
}

func (p *fakePage) URL() string { return p.url }

func (p *fakePage) Content() (string, error) {
	if p.contentErr != nil {
		return "", p.contentErr
	}
	return p.content, nil
}

func (p *fakePage) Close() error {
	p.rec.add("page.close")
	p.closeOnce.Do(func() { close(p.closed) })
	return p.closeErr
}

// blockUntilClosed simulates a navigation that hangs until teardown.
func blockUntilClosed(p *fakePage) (*Response, error) {
	<-p.closed
	return nil, errors.New("target closed")
}
