package capture

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"strings"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/microcosm-cc/bluemonday"
	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/openrera/rerapipe/schema"
)

// noteElementNotFound is the finalization note for placeholders whose
// locator never resolved; such placeholders are excluded from all
// network activity.
const noteElementNotFound = "Preview element not found"

// Config configures a Capturer.
type Config struct {
	// Store receives downloaded/captured files. Required.
	Store *Store

	// Downloader is the plain-HTTP fallback. Defaults to a resty-backed
	// client with a 30s timeout.
	Downloader Downloader

	// SelectorTimeout bounds locator resolution. Default: 3s.
	SelectorTimeout time.Duration
	// NavTimeout bounds tab navigation and in-session fetches. Default: 20s.
	NavTimeout time.Duration
	// PopupTimeout bounds the popup-vs-modal race after a click. Default: 5s.
	PopupTimeout time.Duration
	// Politeness is the minimum delay between navigations against the
	// stateful legacy site. Default: 500ms.
	Politeness time.Duration

	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.Downloader == nil {
		c.Downloader = NewHTTPDownloader(30 * time.Second)
	}
	if c.SelectorTimeout <= 0 {
		c.SelectorTimeout = 3 * time.Second
	}
	if c.NavTimeout <= 0 {
		c.NavTimeout = 20 * time.Second
	}
	if c.PopupTimeout <= 0 {
		c.PopupTimeout = 5 * time.Second
	}
	if c.Politeness <= 0 {
		c.Politeness = 500 * time.Millisecond
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Capturer resolves preview placeholders against a live page.
type Capturer struct {
	cfg       Config
	limiter   *rate.Limiter
	sanitizer *bluemonday.Policy
	dedup     *gocache.Cache
}

type cachedFile struct {
	path string
	typ  schema.ArtifactType
}

// New creates a Capturer.
func New(cfg Config) (*Capturer, error) {
	cfg.defaults()
	if cfg.Store == nil {
		return nil, fmt.Errorf("capture: store is required")
	}
	return &Capturer{
		cfg:       cfg,
		limiter:   rate.NewLimiter(rate.Every(cfg.Politeness), 1),
		sanitizer: bluemonday.UGCPolicy(),
		dedup:     gocache.New(15*time.Minute, 30*time.Minute),
	}, nil
}

// Capture resolves every placeholder and returns a complete map: each
// entry ends finalized, either with at least one stored file or with a
// notes trail explaining why not. The only returned error is
// ErrPageUnusable; individual artifact failures never propagate.
func (c *Capturer) Capture(ctx context.Context, page Page, placeholders map[string]schema.PreviewArtifact) (map[string]schema.PreviewArtifact, error) {
	out := make(map[string]schema.PreviewArtifact, len(placeholders))
	if len(placeholders) == 0 {
		return out, nil
	}
	if page == nil {
		return nil, fmt.Errorf("%w: nil page", ErrPageUnusable)
	}

	keys := make([]string, 0, len(placeholders))
	for k := range placeholders {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	// Phase 1: target discovery. Fast, no heavy navigation; placeholders
	// whose locator cannot be resolved finalize immediately.
	var targets []target
	for _, k := range keys {
		t, finalized := c.discover(ctx, page, placeholders[k])
		if finalized {
			out[k] = t.art
			continue
		}
		targets = append(targets, t)
	}

	// Phase 2: sequential resolution against the single shared session.
	for _, t := range targets {
		if err := c.limiter.Wait(ctx); err != nil {
			out[t.art.FieldKey] = t.art.Fail("run cancelled before resolution: " + err.Error())
			continue
		}

		var art schema.PreviewArtifact
		switch t.kind {
		case targetURL:
			art = c.resolveURL(ctx, page, t)
		default:
			art = c.resolveClick(ctx, page, t)
		}
		if !art.Finalized() {
			art = art.Fail("no acquisition strategy succeeded")
		}
		out[t.art.FieldKey] = art
	}
	return out, nil
}

type targetKind int

const (
	targetURL targetKind = iota
	targetClick
)

type target struct {
	kind targetKind
	url  string
	art  schema.PreviewArtifact
}

// discover classifies one placeholder into a url or click target. The
// second return is true when the placeholder finalized during discovery.
func (c *Capturer) discover(ctx context.Context, page Page, art schema.PreviewArtifact) (target, bool) {
	hint := strings.TrimSpace(art.Hint)

	if strings.HasPrefix(hint, "http://") || strings.HasPrefix(hint, "https://") {
		return target{kind: targetURL, url: hint, art: art.WithNote("target: direct URL hint")}, false
	}

	rctx, cancel := context.WithTimeout(ctx, c.cfg.SelectorTimeout)
	defer cancel()

	el, err := page.Resolve(rctx, hint)
	if err != nil {
		c.cfg.Logger.Debug("capture: locator unresolved", "key", art.FieldKey, "hint", hint)
		return target{art: art.Fail(noteElementNotFound)}, true
	}

	href, err := el.Attribute(rctx, "href")
	if err == nil && isNavigable(href) {
		abs := resolveRef(page.URL(), href)
		return target{kind: targetURL, url: abs, art: art.WithNote("target: href " + abs)}, false
	}
	return target{kind: targetClick, art: art.WithNote("target: click " + hint)}, false
}

// resolveURL opens the target in a new tab, records the post-redirect
// URL (the pre-redirect one is frequently a same-page bounce), and runs
// the download chain. The tab is closed regardless of outcome.
func (c *Capturer) resolveURL(ctx context.Context, page Page, t target) schema.PreviewArtifact {
	navCtx, cancel := context.WithTimeout(ctx, c.cfg.NavTimeout)
	defer cancel()

	tab, err := page.OpenTab(navCtx, t.url)
	if err != nil {
		// The session couldn't navigate; the plain-HTTP fallback may
		// still reach the document.
		art := t.art.WithNote("navigation failed: " + err.Error())
		return c.download(ctx, nil, art.WithTarget(t.url), t.url, page.URL())
	}
	defer tab.Close()

	art := t.art.WithTarget(tab.URL()).WithNote("navigated: " + tab.URL())
	return c.download(ctx, tab, art, tab.URL(), page.URL())
}

// resolveClick clicks the locator and races a popup window against an
// inline modal: a popup is treated like a url target once it appears;
// on timeout the same-page modal is captured and dismissed.
func (c *Capturer) resolveClick(ctx context.Context, page Page, t target) schema.PreviewArtifact {
	rctx, cancel := context.WithTimeout(ctx, c.cfg.SelectorTimeout)
	defer cancel()

	el, err := page.Resolve(rctx, t.art.Hint)
	if err != nil {
		return t.art.Fail("preview element disappeared before click")
	}

	waitPopup := page.WaitOpen()
	if err := el.Click(rctx); err != nil {
		return t.art.Fail("click failed: " + err.Error())
	}

	popupCtx, cancelPopup := context.WithTimeout(ctx, c.cfg.PopupTimeout)
	defer cancelPopup()

	popup, err := waitPopup(popupCtx)
	if err == nil && popup != nil {
		defer popup.Close()
		art := t.art.WithTarget(popup.URL()).WithNote("popup opened: " + popup.URL())
		return c.download(ctx, popup, art, popup.URL(), page.URL())
	}

	art := t.art.WithNote("no popup within timeout; capturing inline modal")
	return c.captureModal(ctx, page, art)
}

// captureModal saves the modal's sanitized HTML, a markdown rendition
// for QA diffing, and a best-effort screenshot, then dismisses it.
func (c *Capturer) captureModal(ctx context.Context, page Page, art schema.PreviewArtifact) schema.PreviewArtifact {
	hctx, cancel := context.WithTimeout(ctx, c.cfg.NavTimeout)
	defer cancel()

	rendered, err := page.HTML(hctx)
	if err != nil {
		return art.Fail("modal capture failed: " + err.Error())
	}

	clean := c.sanitizer.Sanitize(rendered)
	path, err := c.cfg.Store.Save(art.FieldKey, ".html", []byte(clean))
	if err != nil {
		return art.Fail("modal save failed: " + err.Error())
	}
	art = art.WithFile(path, schema.ArtifactHTML).WithNote("saved modal HTML: " + path)

	if md, err := htmltomarkdown.ConvertString(clean); err == nil && strings.TrimSpace(md) != "" {
		if mdPath, err := c.cfg.Store.Save(art.FieldKey, ".md", []byte(md)); err == nil {
			art = art.WithFile(mdPath, schema.ArtifactHTML).WithNote("saved markdown rendition: " + mdPath)
		}
	}

	if shot, err := page.Screenshot(hctx); err == nil && len(shot) > 0 {
		if shotPath, err := c.cfg.Store.Save(art.FieldKey, ".png", shot); err == nil {
			art = art.WithFile(shotPath, schema.ArtifactImage).WithNote("saved modal screenshot: " + shotPath)
		}
	}

	if err := page.Dismiss(hctx); err != nil {
		art = art.WithNote("modal dismiss failed: " + err.Error())
	}
	return art.AsCaptured()
}

// resolveRef resolves href against base, returning href unchanged when
// either side fails to parse.
func resolveRef(base, href string) string {
	b, err := url.Parse(base)
	if err != nil {
		return href
	}
	r, err := url.Parse(href)
	if err != nil {
		return href
	}
	return b.ResolveReference(r).String()
}

// isNavigable reports whether an href can be fetched directly, as
// opposed to javascript:, mailto:, tel:, or a bare fragment.
func isNavigable(href string) bool {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return false
	}
	lower := strings.ToLower(href)
	for _, p := range []string{"javascript:", "mailto:", "tel:", "about:"} {
		if strings.HasPrefix(lower, p) {
			return false
		}
	}
	return true
}
