package browser

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/openrera/rerapipe/capture"
)

// pageHandle adapts a rod page to the capture.Page contract.
type pageHandle struct {
	page *rod.Page
}

// NewPage opens a stealth page in the managed browser and navigates to
// url. The returned handle is the project's capture context; the caller
// is responsible for getting the session past any CAPTCHA gate before
// handing it to capture.
func (m *Manager) NewPage(ctx context.Context, url string) (capture.Page, error) {
	m.mu.Lock()
	b, err := m.browserLocked()
	m.mu.Unlock()
	if err != nil {
		return nil, err
	}

	page, err := stealth.Page(b)
	if err != nil {
		return nil, fmt.Errorf("browser: create page: %w", err)
	}

	navCtx, cancel := context.WithTimeout(ctx, m.cfg.PageTimeout)
	defer cancel()

	if err := page.Context(navCtx).Navigate(url); err != nil {
		page.Close()
		return nil, fmt.Errorf("browser: navigate %s: %w", url, err)
	}
	if err := page.Context(navCtx).WaitLoad(); err != nil {
		m.cfg.Logger.Warn("browser: wait load timeout", "url", url, "error", err)
	}
	return &pageHandle{page: page}, nil
}

func (p *pageHandle) URL() string {
	info, err := p.page.Info()
	if err != nil {
		return ""
	}
	return info.URL
}

// selectorLike reports whether a hint is a CSS selector rather than
// literal button text.
func selectorLike(hint string) bool {
	return strings.HasPrefix(hint, "#") || strings.HasPrefix(hint, ".") ||
		strings.ContainsAny(hint, "[]>")
}

func (p *pageHandle) Resolve(ctx context.Context, hint string) (capture.Element, error) {
	page := p.page.Context(ctx)

	if selectorLike(hint) {
		el, err := page.Element(hint)
		if err != nil {
			return nil, fmt.Errorf("browser: selector %q: %w", hint, err)
		}
		return &elementHandle{el: el}, nil
	}

	pattern := "/^\\s*" + regexp.QuoteMeta(hint) + "\\s*$/i"
	el, err := page.ElementR("a, button, input[type=button], input[type=submit]", pattern)
	if err != nil {
		return nil, fmt.Errorf("browser: text locator %q: %w", hint, err)
	}
	return &elementHandle{el: el}, nil
}

func (p *pageHandle) WaitOpen() func(ctx context.Context) (capture.Page, error) {
	wait := p.page.WaitOpen()
	return func(ctx context.Context) (capture.Page, error) {
		type result struct {
			page *rod.Page
			err  error
		}
		ch := make(chan result, 1)
		go func() {
			popup, err := wait()
			ch <- result{popup, err}
		}()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case r := <-ch:
			if r.err != nil {
				return nil, r.err
			}
			// Bounded wait only; the popup is usable even when load
			// never settles.
			_ = r.page.Context(ctx).WaitLoad()
			return &pageHandle{page: r.page}, nil
		}
	}
}

func (p *pageHandle) OpenTab(ctx context.Context, url string) (capture.Page, error) {
	tab, err := p.page.Browser().Page(proto.TargetCreateTarget{URL: ""})
	if err != nil {
		return nil, fmt.Errorf("browser: open tab: %w", err)
	}
	if err := tab.Context(ctx).Navigate(url); err != nil {
		tab.Close()
		return nil, fmt.Errorf("browser: navigate %s: %w", url, err)
	}
	// Bounded wait only; a slow-loading document page is still usable.
	_ = tab.Context(ctx).WaitLoad()
	return &pageHandle{page: tab}, nil
}

func (p *pageHandle) HTML(ctx context.Context) (string, error) {
	return p.page.Context(ctx).HTML()
}

func (p *pageHandle) Screenshot(ctx context.Context) ([]byte, error) {
	return p.page.Context(ctx).Screenshot(false, nil)
}

// Dismiss closes an inline modal: a visible close control when one
// exists, an Escape keypress otherwise.
func (p *pageHandle) Dismiss(ctx context.Context) error {
	page := p.page.Context(ctx)

	for _, sel := range []string{".close", "button.close", "[aria-label=Close]", "[aria-label=close]"} {
		if el, err := page.Element(sel); err == nil {
			if err := el.Click(proto.InputMouseButtonLeft, 1); err == nil {
				return nil
			}
		}
	}
	if el, err := page.ElementR("a, button, input", "/^\\s*close\\s*$/i"); err == nil {
		if err := el.Click(proto.InputMouseButtonLeft, 1); err == nil {
			return nil
		}
	}
	return page.Keyboard.Press(input.Escape)
}

// Fetch issues a GET inside the page's session. Rod exposes only the
// body; the content type is sniffed by the caller's classifier.
func (p *pageHandle) Fetch(ctx context.Context, url string) (*capture.FetchResult, error) {
	body, err := p.page.Context(ctx).GetResource(url)
	if err != nil {
		return nil, fmt.Errorf("browser: session fetch %s: %w", url, err)
	}
	return &capture.FetchResult{Status: 200, Body: body}, nil
}

func (p *pageHandle) Close() error {
	return p.page.Close()
}

// elementHandle adapts a rod element.
type elementHandle struct {
	el *rod.Element
}

func (e *elementHandle) Attribute(ctx context.Context, name string) (string, error) {
	v, err := e.el.Context(ctx).Attribute(name)
	if err != nil {
		return "", err
	}
	if v == nil {
		return "", nil
	}
	return *v, nil
}

func (e *elementHandle) Click(ctx context.Context) error {
	return e.el.Context(ctx).Click(proto.InputMouseButtonLeft, 1)
}

func (e *elementHandle) Text(ctx context.Context) (string, error) {
	return e.el.Context(ctx).Text()
}
