package session

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/entrhq/pagefetch/pkg/envelope"
	"github.com/entrhq/pagefetch/pkg/launch"
	"github.com/entrhq/pagefetch/pkg/logging"
	"github.com/entrhq/pagefetch/pkg/request"
)

const (
	// DefaultGrace is how long the watchdog waits past a stage's own budget
	// before declaring the stage hung
	DefaultGrace = 5 * time.Second
)

// Orchestrator runs fetch sessions against an automation service.
// It holds no per-session state and is safe for concurrent use.
type Orchestrator struct {
	driver   Driver
	builder  *launch.Builder
	endpoint string
	grace    time.Duration
	logger   *logging.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithEndpoint sets the automation service address.
func WithEndpoint(endpoint string) Option {
	return func(o *Orchestrator) {
		if endpoint != "" {
			o.endpoint = endpoint
		}
	}
}

// WithProxyVars sets the PROXY_<TYPE>_* variables used to resolve proxy credentials.
func WithProxyVars(vars map[string]string) Option {
	return func(o *Orchestrator) {
		o.builder = launch.NewBuilder(vars)
	}
}

// WithGrace sets the watchdog slack added to every stage budget.
func WithGrace(grace time.Duration) Option {
	return func(o *Orchestrator) {
		o.grace = grace
	}
}

// WithLogger sets the logger sessions derive their loggers from.
func WithLogger(logger *logging.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// New creates an orchestrator that connects through driver.
func New(driver Driver, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		driver:   driver,
		builder:  launch.NewBuilder(nil),
		endpoint: launch.DefaultEndpoint,
		grace:    DefaultGrace,
		logger:   logging.Discard(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run fetches the page described by cfg and returns its result.
//
// Run never panics and never returns an error: every failure, including
// failures of the driver itself, is reported as a failure envelope carrying
// the requested URL. All remote resources acquired by the session are
// released before Run returns.
func (o *Orchestrator) Run(cfg request.Config) (result envelope.Result) {
	id := uuid.New().String()[:8]
	log := o.logger.Named(id)

	defer func() {
		if r := recover(); r != nil {
			log.Errorf("session panicked: %v", r)
			result = envelope.Failure(cfg.URL, &Error{Kind: KindInternal, State: StateDone, Err: fmt.Errorf("%v", r)})
		}
	}()

	params := o.builder.Build(cfg)
	log.Infof("fetching %s with %s (proxy=%s, headless=%t)", cfg.URL, params.Family(), cfg.ProxyType, params.Headless)
	if params.ProxyIncomplete() {
		log.Warnf("proxy type %q has no server configured; continuing with empty credentials", cfg.ProxyType)
	}

	s := newSession(cfg, params, o, log)
	capture, err := s.run()
	if err != nil {
		return envelope.Failure(cfg.URL, err)
	}

	log.Infof("fetched %s (status %d, %d bytes)", capture.URL, capture.StatusCode, len(capture.Body))
	return envelope.Success(capture)
}
