package session

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/entrhq/pagefetch/pkg/envelope"
	"github.com/entrhq/pagefetch/pkg/intercept"
	"github.com/entrhq/pagefetch/pkg/launch"
	"github.com/entrhq/pagefetch/pkg/logging"
	"github.com/entrhq/pagefetch/pkg/request"
)

const viewSourcePrefix = "view-source:"

// release is one teardown step registered when a resource is acquired.
type release struct {
	name string
	fn   func() error
}

// session drives a single fetch from connect to teardown.
type session struct {
	cfg    request.Config
	params launch.Parameters
	orch   *Orchestrator
	log    *logging.Logger

	state    atomic.Int32
	releases []release

	// events carries the first crash or close signal; later ones are dropped
	events   chan error
	detached atomic.Bool
}

func newSession(cfg request.Config, params launch.Parameters, orch *Orchestrator, log *logging.Logger) *session {
	return &session{
		cfg:    cfg,
		params: params,
		orch:   orch,
		log:    log,
		events: make(chan error, 1),
	}
}

func (s *session) current() State {
	return State(s.state.Load())
}

func (s *session) enter(next State) {
	prev := State(s.state.Swap(int32(next)))
	s.log.Debugf("%s -> %s", prev, next)
}

// fail tags err with kind and the current state and logs it.
func (s *session) fail(kind Kind, err error) error {
	var serr *Error
	if errors.As(err, &serr) {
		return err
	}
	serr = &Error{Kind: kind, State: s.current(), Err: err}
	s.log.Errorf("%v", serr)
	return serr
}

// acquire registers a release step. Steps run in reverse order of
// registration during teardown.
func (s *session) acquire(name string, fn func() error) {
	s.releases = append(s.releases, release{name: name, fn: fn})
}

func (s *session) teardown() {
	s.enter(StateTearingDown)
	for i := len(s.releases) - 1; i >= 0; i-- {
		s.releaseOne(s.releases[i])
	}
	s.releases = nil
	s.enter(StateDone)
}

func (s *session) releaseOne(r release) {
	defer func() {
		if p := recover(); p != nil {
			s.log.Warnf("releasing %s panicked: %v", r.name, p)
		}
	}()
	if err := r.fn(); err != nil {
		s.log.Warnf("failed to release %s: %v", r.name, err)
		return
	}
	s.log.Debugf("released %s", r.name)
}

// await runs op and waits for it, for the first page event, or for the
// watchdog, whichever comes first. budget is in milliseconds.
//
// When an event or the watchdog wins, op keeps running until teardown
// closes the resource it is blocked on; its result is discarded.
func (s *session) await(kind Kind, budget float64, op func() error) error {
	done := make(chan error, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				done <- fmt.Errorf("panic: %v", p)
			}
		}()
		done <- op()
	}()

	limit := millis(budget) + s.orch.grace
	timer := time.NewTimer(limit)
	defer timer.Stop()

	select {
	case err := <-done:
		if err != nil {
			return s.fail(kind, err)
		}
		return nil
	case err := <-s.events:
		return err
	case <-timer.C:
		return s.fail(kind, fmt.Errorf("timed out after %v", limit))
	}
}

// sleep waits for d unless a page event arrives first.
func (s *session) sleep(d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case err := <-s.events:
		return err
	}
}

// signal records a terminal page event. Only the first one is kept.
func (s *session) signal(kind Kind, err error) {
	if s.detached.Load() {
		return
	}
	serr := s.fail(kind, err)
	select {
	case s.events <- serr:
	default:
	}
}

func (s *session) listeners() Listeners {
	return Listeners{
		OnCrash: func() {
			s.signal(KindCrash, errors.New("page crashed"))
		},
		OnClose: func() {
			if s.detached.Load() {
				return
			}
			s.log.Warnf("page was closed externally")
			s.signal(KindClose, errors.New("page closed unexpectedly"))
		},
		OnDialog: func(d Dialog) {
			if s.detached.Load() {
				return
			}
			s.log.Infof("dismissing %s dialog: %q", d.Type(), d.Message())
			if err := d.Dismiss(); err != nil {
				s.log.Warnf("failed to dismiss dialog: %v", err)
			}
		},
	}
}

// run executes the session. Teardown always happens before run returns.
func (s *session) run() (capture envelope.Capture, err error) {
	defer s.teardown()

	policy, err := intercept.New(s.cfg.BlockedResources, s.cfg.BlockedURLs, s.log)
	if err != nil {
		return capture, s.fail(KindConfig, err)
	}

	timeout := s.cfg.Timeout
	if timeout <= 0 {
		timeout = request.DefaultTimeout
	}

	page, bctx, err := s.open(policy, timeout)
	if err != nil {
		return capture, err
	}

	resp, err := s.navigate(page, timeout)
	if err != nil {
		return capture, err
	}
	capture.StatusCode = resp.Status
	capture.Headers = resp.Headers

	if err := s.postActions(page, timeout, &capture); err != nil {
		return capture, err
	}

	if err := s.capture(page, bctx, timeout, &capture); err != nil {
		return capture, err
	}

	if !policy.Empty() {
		aborted, continued := policy.Stats()
		s.log.Debugf("interception: %d aborted, %d continued", aborted, continued)
	}
	return capture, nil
}

// open performs Connecting, ContextReady and PageReady.
func (s *session) open(policy *intercept.Interceptor, timeout float64) (Page, BrowserContext, error) {
	s.enter(StateConnecting)
	descriptor, err := launch.Descriptor(s.orch.endpoint, s.params)
	if err != nil {
		return nil, nil, s.fail(KindConnection, err)
	}

	// A connection that completes after the watchdog fired is closed by the
	// stage goroutine itself; one that completes before is owned by teardown.
	var (
		mu      sync.Mutex
		browser Browser
		gaveUp  bool
	)
	err = s.await(KindConnection, timeout, func() error {
		b, err := s.orch.driver.Connect(s.params.Family(), descriptor, timeout)
		if err != nil {
			return err
		}
		mu.Lock()
		defer mu.Unlock()
		if gaveUp {
			s.log.Warnf("closing connection established after connect timed out")
			return b.Close()
		}
		browser = b
		return nil
	})
	mu.Lock()
	gaveUp = true
	conn := browser
	mu.Unlock()

	if conn != nil {
		s.acquire("connection", func() error {
			if !conn.IsConnected() {
				s.log.Debugf("connection already closed")
				return nil
			}
			return conn.Close()
		})
	}
	if err != nil {
		return nil, nil, err
	}

	s.enter(StateContextReady)
	var bctx BrowserContext
	err = s.await(KindContext, timeout, func() error {
		c, err := conn.NewContext(s.params)
		bctx = c
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	s.acquire("context", bctx.Close)

	s.enter(StatePageReady)
	var page Page
	err = s.await(KindPage, timeout, func() error {
		p, err := bctx.NewPage()
		page = p
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	s.acquire("page", page.Close)

	if !policy.Empty() {
		if err := s.await(KindPage, timeout, func() error { return page.Route(policy.Handle) }); err != nil {
			return nil, nil, err
		}
		s.acquire("route", page.Unroute)
	}

	detach := page.Listen(s.listeners())
	s.acquire("listeners", func() error {
		s.detached.Store(true)
		detach()
		return nil
	})

	page.SetDefaultTimeout(timeout)
	return page, bctx, nil
}

func (s *session) navigate(page Page, timeout float64) (Response, error) {
	s.enter(StateNavigating)

	target := s.cfg.URL
	if s.cfg.ViewSource {
		target = viewSourcePrefix + target
	}

	var resp *Response
	err := s.await(KindNavigation, timeout, func() error {
		r, err := page.Goto(target, s.cfg.WaitUntil)
		resp = r
		return err
	})
	if err != nil {
		return Response{}, err
	}

	if resp == nil {
		s.log.Infof("navigation to %s produced no response", target)
		return Response{Headers: map[string]string{}}, nil
	}
	return *resp, nil
}

func (s *session) postActions(page Page, timeout float64, capture *envelope.Capture) error {
	s.enter(StatePostActions)

	if s.cfg.WaitDelay > 0 {
		if err := s.sleep(millis(s.cfg.WaitDelay)); err != nil {
			return err
		}
	}

	if sel := s.cfg.WaitForSelector; sel != "" {
		err := s.await(KindSelectorTimeout, timeout, func() error {
			return page.WaitForSelector(sel, timeout)
		})
		if err != nil {
			return err
		}
	}

	if s.cfg.Script != "" {
		script, err := url.PathUnescape(s.cfg.Script)
		if err != nil {
			return s.fail(KindScript, fmt.Errorf("failed to decode script: %w", err))
		}

		var value any
		err = s.await(KindScript, timeout, func() error {
			v, err := page.Evaluate(script)
			value = v
			return err
		})
		if err != nil {
			return err
		}
		capture.EvalResult = value
		capture.HasEval = true
	}

	if s.cfg.Screenshot {
		budget := timeout / 2
		var shot []byte
		err := s.await(KindScreenshot, budget, func() error {
			b, err := page.Screenshot(budget)
			shot = b
			return err
		})
		if err != nil {
			return err
		}
		capture.Screenshot = shot
	}

	return nil
}

func (s *session) capture(page Page, bctx BrowserContext, timeout float64, capture *envelope.Capture) error {
	s.enter(StateCapturing)

	capture.URL = page.URL()

	var body string
	err := s.await(KindCapture, timeout, func() error {
		b, err := page.Content()
		body = b
		return err
	})
	if err != nil {
		return err
	}

	var cookies []envelope.Cookie
	err = s.await(KindCapture, timeout, func() error {
		c, err := bctx.Cookies()
		cookies = c
		return err
	})
	if err != nil {
		return err
	}

	capture.Body = body
	capture.Cookies = cookies
	return nil
}

// millis converts a millisecond budget to a Duration, capped at
// request.MaxTimeout.
func millis(ms float64) time.Duration {
	if math.IsNaN(ms) || ms > request.MaxTimeout {
		ms = request.MaxTimeout
	}
	return time.Duration(ms * float64(time.Millisecond))
}
