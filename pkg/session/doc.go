// Package session runs single page fetches against a remote browser
// automation service.
//
// # Lifecycle
//
// Every call to Orchestrator.Run owns one session, which moves through these
// states:
//
//  1. Connecting: dial the service with a descriptor carrying the launch parameters
//  2. ContextReady: create a browser context (the proxy is applied here)
//  3. PageReady: open a page, install request interception and event listeners
//  4. Navigating: go to the URL and record status and headers
//  5. PostActions: delay, wait for a selector, evaluate a script, take a screenshot
//  6. Capturing: read the final URL, the rendered body and the cookie jar
//  7. TearingDown: release everything acquired, in reverse order
//
// # Events
//
// Page crashes and external closes are delivered on a one-slot channel; the
// first one ends the session. Dialogs are dismissed as they appear. Each stage
// also runs under a watchdog of its timeout plus a grace period, so a stage
// that never returns still ends in a failure result.
//
// # Results
//
// Run never returns an error. Failures become envelope.Result values with
// status 500 and a message naming the error kind and the state it occurred in.
package session
