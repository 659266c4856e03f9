// Package intercept decides, per outgoing sub-request, whether a page may
// load it.
package intercept

import (
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/gobwas/glob"
)

// Decision is the outcome for one intercepted request.
type Decision int

const (
	// Continue lets the request proceed unchanged
	Continue Decision = iota

	// Abort fails the request before it leaves the browser
	Abort
)

func (d Decision) String() string {
	if d == Abort {
		return "abort"
	}
	return "continue"
}

// Route is an intercepted request awaiting a decision. Exactly one of Abort
// or Continue must be called.
type Route interface {
	ResourceType() string
	URL() string
	Abort() error
	Continue() error
}

// Logger is the logging surface the interceptor needs.
type Logger interface {
	Debugf(format string, v ...interface{})
	Warnf(format string, v ...interface{})
}

// Interceptor applies a block policy made of resource categories and URL
// glob patterns.
//
// When the decision itself fails the request is continued.
type Interceptor struct {
	categories map[string]struct{}
	patterns   []glob.Glob
	logger     Logger

	aborted   atomic.Int64
	continued atomic.Int64
}

// New compiles a policy. Categories are matched case-insensitively against
// the request's resource type; patterns use gobwas/glob syntax against the
// full request URL.
func New(categories, urlPatterns []string, logger Logger) (*Interceptor, error) {
	i := &Interceptor{
		categories: make(map[string]struct{}, len(categories)),
		logger:     logger,
	}
	for _, c := range categories {
		i.categories[strings.ToLower(strings.TrimSpace(c))] = struct{}{}
	}
	for _, p := range urlPatterns {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid blocked URL pattern %q: %w", p, err)
		}
		i.patterns = append(i.patterns, g)
	}
	return i, nil
}

// Empty reports whether the policy blocks nothing.
func (i *Interceptor) Empty() bool {
	return len(i.categories) == 0 && len(i.patterns) == 0
}

// Decide returns the decision for a request of the given type and URL.
func (i *Interceptor) Decide(resourceType, url string) Decision {
	if _, blocked := i.categories[strings.ToLower(resourceType)]; blocked {
		return Abort
	}
	for _, g := range i.patterns {
		if g.Match(url) {
			return Abort
		}
	}
	return Continue
}

// Handle settles route according to the policy.
func (i *Interceptor) Handle(route Route) {
	decision, url, err := i.decideRoute(route)
	if err != nil {
		i.logger.Warnf("interception decision failed for %s, continuing: %v", url, err)
		decision = Continue
	}

	switch decision {
	case Abort:
		i.aborted.Add(1)
		if err := route.Abort(); err != nil {
			i.logger.Warnf("failed to abort %s: %v", url, err)
		}
	default:
		i.continued.Add(1)
		if err := route.Continue(); err != nil {
			i.logger.Debugf("failed to continue %s: %v", url, err)
		}
	}
}

func (i *Interceptor) decideRoute(route Route) (decision Decision, url string, err error) {
	defer func() {
		if r := recover(); r != nil {
			decision = Continue
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	url = route.URL()
	resourceType := route.ResourceType()
	decision = i.Decide(resourceType, url)
	if decision == Abort {
		i.logger.Debugf("blocking %s request %s", resourceType, url)
	}
	return decision, url, nil
}

// Stats returns how many requests were aborted and continued.
func (i *Interceptor) Stats() (aborted, continued int64) {
	return i.aborted.Load(), i.continued.Load()
}
