package session

import (
	"github.com/entrhq/pagefetch/pkg/envelope"
	"github.com/entrhq/pagefetch/pkg/intercept"
	"github.com/entrhq/pagefetch/pkg/launch"
	"github.com/entrhq/pagefetch/pkg/request"
)

// Driver opens connections to the automation service.
type Driver interface {
	// Connect dials descriptor for the given family. timeout is in milliseconds.
	Connect(family launch.Family, descriptor string, timeout float64) (Browser, error)
}

// Browser is one connection to the automation service.
type Browser interface {
	NewContext(params launch.Parameters) (BrowserContext, error)
	IsConnected() bool
	Close() error
}

// BrowserContext is an isolated browsing environment within a connection.
type BrowserContext interface {
	NewPage() (Page, error)
	Cookies() ([]envelope.Cookie, error)
	Close() error
}

// Response is the main-frame response observed during navigation.
type Response struct {
	Status  int
	Headers map[string]string
}

// Dialog is a native blocking dialog (alert, confirm, prompt, beforeunload).
type Dialog interface {
	Type() string
	Message() string
	Dismiss() error
}

// Listeners receive page events. Callbacks arrive on the driver's event
// goroutine, concurrently with the session.
type Listeners struct {
	OnCrash  func()
	OnClose  func()
	OnDialog func(Dialog)
}

// Page is a single tab inside a BrowserContext. Timeouts are in milliseconds.
type Page interface {
	SetDefaultTimeout(timeout float64)

	// Route installs handler for every request issued by the page.
	Route(handler func(intercept.Route)) error
	// Unroute removes the handler installed by Route.
	Unroute() error

	// Listen subscribes l and returns a function that unsubscribes it.
	Listen(l Listeners) (detach func())

	// Goto navigates and returns the main response, or nil when the
	// navigation produced none.
	Goto(url string, waitUntil request.WaitUntil) (*Response, error)
	WaitForSelector(selector string, timeout float64) error
	Evaluate(expression string) (any, error)
	Screenshot(timeout float64) ([]byte, error)

	URL() string
	Content() (string, error)
	Close() error
}
