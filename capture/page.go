// Package capture resolves preview placeholders into downloaded or
// captured artifacts, driving one authenticated browser page per
// project.
//
// The page handle is an externally supplied collaborator: the
// orchestrator gets the session past the CAPTCHA gate before handing a
// usable Page to Capture. Within one project, targets are processed
// strictly sequentially — the legacy site is postback-driven and
// stateful, and popup bookkeeping is only unambiguous one click at a
// time. Across projects, separate Capture calls may run in parallel on
// separate browser contexts.
package capture

import (
	"context"
	"errors"
)

// ErrPageUnusable signals that the shared page handle itself broke
// (browser crash, lost websocket). It is the only error Capture
// propagates; the orchestrator should abort the project rather than
// retry individual artifacts.
var ErrPageUnusable = errors.New("capture: page handle unusable")

// ErrEmptyArtifact is returned by the store when asked to persist an
// empty body.
var ErrEmptyArtifact = errors.New("capture: empty artifact body")

// FetchResult is the outcome of an HTTP GET, in-session or plain.
// FinalURL is the post-redirect URL when the client followed redirects
// and exposes it; empty otherwise.
type FetchResult struct {
	Status      int
	ContentType string
	Body        []byte
	FinalURL    string
}

// Element is a resolved locator on a live page.
type Element interface {
	// Attribute returns the attribute value, or "" when absent.
	Attribute(ctx context.Context, name string) (string, error)
	Click(ctx context.Context) error
	Text(ctx context.Context) (string, error)
}

// Page is the browser page handle contract consumed by this package.
// Implementations live elsewhere (capture/browser provides a rod-backed
// one); tests use fakes.
type Page interface {
	// URL returns the page's current URL. For pages opened via OpenTab
	// or WaitOpen this is the post-redirect URL.
	URL() string

	// Resolve locates an element by CSS selector or visible text, with
	// the wait bounded by ctx.
	Resolve(ctx context.Context, hint string) (Element, error)

	// WaitOpen arms a popup listener. Call it before Click, then invoke
	// the returned function to wait (bounded by ctx) for the window the
	// click opened.
	WaitOpen() func(ctx context.Context) (Page, error)

	// OpenTab opens a new tab in the same session, navigates, and waits
	// for load, all bounded by ctx.
	OpenTab(ctx context.Context, url string) (Page, error)

	HTML(ctx context.Context) (string, error)
	Screenshot(ctx context.Context) ([]byte, error)

	// Dismiss closes an inline modal via its close button, falling back
	// to an Escape keypress.
	Dismiss(ctx context.Context) error

	// Fetch issues an HTTP GET inside the page's session (same cookies).
	Fetch(ctx context.Context, url string) (*FetchResult, error)

	Close() error
}

// Downloader is the plain, unauthenticated HTTP fallback. It is a
// constructor-injected capability, not a runtime probe: callers that
// want no network fallback inject one that always errors.
type Downloader interface {
	// Fetch GETs rawURL, following redirects; relative URLs resolve
	// against referer.
	Fetch(ctx context.Context, rawURL, referer string) (*FetchResult, error)
}
