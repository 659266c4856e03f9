// Package envelope normalizes every fetch outcome into a single Result shape.
package envelope

import (
	"encoding/json"
	"net/http"
)

// FailureStatus is the status code carried by every failure result.
const FailureStatus = http.StatusInternalServerError

// Cookie is a cookie from the browser context's jar.
type Cookie struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	Domain   string  `json:"domain"`
	Path     string  `json:"path"`
	Expires  float64 `json:"expires"`
	HTTPOnly bool    `json:"httpOnly"`
	Secure   bool    `json:"secure"`
	SameSite string  `json:"sameSite,omitempty"`
}

// Capture holds the data gathered by a successful session.
type Capture struct {
	URL        string
	StatusCode int
	Body       string
	Headers    map[string]string
	Cookies    []Cookie
	Screenshot []byte
	EvalResult any
	HasEval    bool
}

// Result is the outcome of one fetch. It is either a success (Error empty)
// or a failure (Error set, StatusCode 500, no captured data).
type Result struct {
	URL        string            `json:"url"`
	StatusCode int               `json:"status_code"`
	Body       string            `json:"body"`
	Headers    map[string]string `json:"headers"`
	Cookies    []Cookie          `json:"cookies"`
	Screenshot []byte            `json:"screenshot,omitempty"`
	EvalResult any               `json:"eval_result,omitempty"`
	Error      string            `json:"error,omitempty"`
}

// Success builds a success result from captured session data.
// Missing headers and cookies are reported as empty collections.
func Success(c Capture) Result {
	headers := c.Headers
	if headers == nil {
		headers = map[string]string{}
	}
	cookies := c.Cookies
	if cookies == nil {
		cookies = []Cookie{}
	}

	r := Result{
		URL:        c.URL,
		StatusCode: c.StatusCode,
		Body:       c.Body,
		Headers:    headers,
		Cookies:    cookies,
		Screenshot: c.Screenshot,
	}
	if c.HasEval {
		r.EvalResult = c.EvalResult
	}
	return r
}

// Failure builds a failure result for the originally requested URL.
func Failure(requestedURL string, err error) Result {
	msg := "unknown error"
	if err != nil && err.Error() != "" {
		msg = err.Error()
	}
	return Result{
		URL:        requestedURL,
		StatusCode: FailureStatus,
		Error:      msg,
	}
}

// OK reports whether the result is a success.
func (r Result) OK() bool {
	return r.Error == ""
}

type successJSON struct {
	URL        string            `json:"url"`
	StatusCode int               `json:"status_code"`
	Body       string            `json:"body"`
	Headers    map[string]string `json:"headers"`
	Cookies    []Cookie          `json:"cookies"`
	Screenshot []byte            `json:"screenshot,omitempty"`
	EvalResult any               `json:"eval_result,omitempty"`
}

type failureJSON struct {
	URL        string `json:"url"`
	StatusCode int    `json:"status_code"`
	Error      string `json:"error"`
}

// MarshalJSON emits one of the two envelope shapes. A success always carries
// body, headers and cookies; a failure carries only url, status_code and
// error.
func (r Result) MarshalJSON() ([]byte, error) {
	if !r.OK() {
		return json.Marshal(failureJSON{
			URL:        r.URL,
			StatusCode: r.StatusCode,
			Error:      r.Error,
		})
	}

	headers := r.Headers
	if headers == nil {
		headers = map[string]string{}
	}
	cookies := r.Cookies
	if cookies == nil {
		cookies = []Cookie{}
	}
	return json.Marshal(successJSON{
		URL:        r.URL,
		StatusCode: r.StatusCode,
		Body:       r.Body,
		Headers:    headers,
		Cookies:    cookies,
		Screenshot: r.Screenshot,
		EvalResult: r.EvalResult,
	})
}
