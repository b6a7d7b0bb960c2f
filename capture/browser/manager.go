// Package browser provides the rod-backed implementation of the
// capture.Page contract, plus Chrome lifecycle management.
//
// One Manager owns one Chrome process (or a connection to a remote
// instance). Each project capture gets its own page, so capture calls
// for different projects can run in parallel while each stays
// sequential internally.
package browser

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
)

// Config configures the browser Manager.
type Config struct {
	// RemoteURL is the websocket URL of an external Chrome. Empty means
	// launch a local headless Chrome.
	RemoteURL string `yaml:"remote_url"`

	// RecycleAfter is the maximum Chrome process lifetime before the
	// next page request triggers a relaunch. Default: 2h.
	RecycleAfter time.Duration `yaml:"recycle_after"`

	// PageTimeout bounds initial navigation of new pages. Default: 30s.
	PageTimeout time.Duration `yaml:"page_timeout"`

	Logger *slog.Logger `yaml:"-"`
}

func (c *Config) defaults() {
	if c.RecycleAfter <= 0 {
		c.RecycleAfter = 2 * time.Hour
	}
	if c.PageTimeout <= 0 {
		c.PageTimeout = 30 * time.Second
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Manager owns the Chrome lifecycle.
type Manager struct {
	cfg     Config
	mu      sync.Mutex
	browser *rod.Browser
	lnch    *launcher.Launcher
	startAt time.Time
	closed  bool
}

// NewManager creates a Manager; Chrome launches lazily on first use.
func NewManager(cfg Config) *Manager {
	cfg.defaults()
	return &Manager{cfg: cfg}
}

// browserLocked returns a healthy browser handle, launching or
// recycling as needed. Caller holds m.mu.
func (m *Manager) browserLocked() (*rod.Browser, error) {
	if m.closed {
		return nil, fmt.Errorf("browser: manager is closed")
	}
	if m.browser != nil && time.Since(m.startAt) > m.cfg.RecycleAfter {
		m.cfg.Logger.Info("browser: recycling", "uptime", time.Since(m.startAt))
		m.teardownLocked()
	}
	if m.browser == nil {
		if err := m.launchLocked(); err != nil {
			return nil, err
		}
	}
	return m.browser, nil
}

func (m *Manager) launchLocked() error {
	wsURL := m.cfg.RemoteURL
	if wsURL == "" {
		l := launcher.New().
			Headless(true).
			Set("disable-blink-features", "AutomationControlled")
		u, err := l.Launch()
		if err != nil {
			return fmt.Errorf("browser: launch: %w", err)
		}
		m.lnch = l
		wsURL = u
		m.cfg.Logger.Info("browser: launched local chrome", "url", wsURL)
	} else {
		m.cfg.Logger.Info("browser: connecting to remote", "url", wsURL)
	}

	b := rod.New().ControlURL(wsURL)
	if err := b.Connect(); err != nil {
		m.cleanupLauncherLocked()
		return fmt.Errorf("browser: connect: %w", err)
	}
	if err := b.IgnoreCertErrors(true); err != nil {
		m.cfg.Logger.Warn("browser: ignore cert errors failed", "error", err)
	}
	m.browser = b
	m.startAt = time.Now()
	return nil
}

// Recycle forces a Chrome restart, e.g. between large project batches.
func (m *Manager) Recycle(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return fmt.Errorf("browser: manager is closed")
	}
	m.teardownLocked()
	return m.launchLocked()
}

// Close shuts down Chrome.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.teardownLocked()
	return nil
}

func (m *Manager) teardownLocked() {
	if m.browser != nil {
		if err := m.browser.Close(); err != nil {
			m.cfg.Logger.Warn("browser: close failed", "error", err)
		}
		m.browser = nil
	}
	m.cleanupLauncherLocked()
}

func (m *Manager) cleanupLauncherLocked() {
	if m.lnch != nil {
		m.lnch.Cleanup()
		m.lnch = nil
	}
}
