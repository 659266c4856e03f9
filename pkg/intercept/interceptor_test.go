package intercept

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/pagefetch/pkg/logging"
)

type fakeRoute struct {
	resourceType string
	url          string
	abortErr     error
	panicOnType  bool

	aborted   int
	continued int
}

func (r *fakeRoute) ResourceType() string {
	if r.panicOnType {
		panic("request detached")
	}
	return r.resourceType
}
func (r *fakeRoute) URL() string     { return r.url }
func (r *fakeRoute) Abort() error    { r.aborted++; return r.abortErr }
func (r *fakeRoute) Continue() error { r.continued++; return nil }

func newInterceptor(t *testing.T, categories, patterns []string) *Interceptor {
	t.Helper()
	i, err := New(categories, patterns, logging.Discard())
	require.NoError(t, err)
	return i
}

func TestDecide_Categories(t *testing.T) {
	i := newInterceptor(t, []string{"image", "Font"}, nil)

	assert.Equal(t, Abort, i.Decide("image", "https://cdn.example/a.png"))
	assert.Equal(t, Abort, i.Decide("font", "https://cdn.example/a.woff"))
	assert.Equal(t, Continue, i.Decide("stylesheet", "https://cdn.example/a.css"))
	assert.Equal(t, Continue, i.Decide("document", "https://example.com/"))
}

func TestDecide_URLPatterns(t *testing.T) {
	i := newInterceptor(t, nil, []string{"*doubleclick.net*", "https://example.com/*.js"})

	assert.Equal(t, Abort, i.Decide("script", "https://ad.doubleclick.net/x"))
	assert.Equal(t, Abort, i.Decide("script", "https://example.com/app.js"))
	assert.Equal(t, Continue, i.Decide("script", "https://example.org/app.js"))
}

func TestNew_InvalidPattern(t *testing.T) {
	_, err := New(nil, []string{"[unterminated"}, logging.Discard())
	assert.Error(t, err)
}

func TestEmpty(t *testing.T) {
	assert.True(t, newInterceptor(t, nil, nil).Empty())
	assert.False(t, newInterceptor(t, []string{"media"}, nil).Empty())
}

func TestHandle_SettlesEachRouteOnce(t *testing.T) {
	i := newInterceptor(t, []string{"image"}, nil)

	img := &fakeRoute{resourceType: "image", url: "https://example.com/a.png"}
	css := &fakeRoute{resourceType: "stylesheet", url: "https://example.com/a.css"}
	i.Handle(img)
	i.Handle(css)

	assert.Equal(t, 1, img.aborted)
	assert.Zero(t, img.continued)
	assert.Equal(t, 1, css.continued)
	assert.Zero(t, css.aborted)

	aborted, continued := i.Stats()
	assert.Equal(t, int64(1), aborted)
	assert.Equal(t, int64(1), continued)
}

func TestHandle_DecisionErrorContinues(t *testing.T) {
	i := newInterceptor(t, []string{"image"}, nil)
	route := &fakeRoute{url: "https://example.com/a.png", panicOnType: true}

	assert.NotPanics(t, func() { i.Handle(route) })
	assert.Equal(t, 1, route.continued)
	assert.Zero(t, route.aborted)
}

func TestHandle_AbortFailureDoesNotContinue(t *testing.T) {
	i := newInterceptor(t, []string{"image"}, nil)
	route := &fakeRoute{resourceType: "image", url: "https://example.com/a.png", abortErr: errors.New("route already handled")}

	i.Handle(route)
	assert.Equal(t, 1, route.aborted)
	assert.Zero(t, route.continued)
}
