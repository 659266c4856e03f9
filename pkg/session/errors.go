package session

import "fmt"

// Kind classifies why a session failed.
type Kind string

const (
	KindConfig          Kind = "ConfigError"
	KindConnection      Kind = "ConnectionError"
	KindContext         Kind = "ContextError"
	KindPage            Kind = "PageError"
	KindNavigation      Kind = "NavigationError"
	KindScript          Kind = "ScriptError"
	KindSelectorTimeout Kind = "SelectorTimeoutError"
	KindScreenshot      Kind = "ScreenshotError"
	KindCapture         Kind = "CaptureError"
	KindCrash           Kind = "CrashError"
	KindClose           Kind = "CloseError"
	KindInternal        Kind = "InternalError"
)

// Error is a session failure tagged with its kind and the state it
// occurred in.
type Error struct {
	Kind  Kind
	State State
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s during %s: %v", e.Kind, e.State, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
