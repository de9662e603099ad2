// Package scraper extracts product facts from the remote catalog's rendered
// pages. The remote markup is unstable, so every field is located through an
// ordered list of selector candidates with a bounded retry budget.
package scraper

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// Session is one live browser page that can be pointed at product pages.
// A single session is reused for a whole batch cycle, so the setup cost is
// amortized across all products.
type Session interface {
	// Visit navigates the page to the given URL and waits for it to settle.
	Visit(ctx context.Context, url string) error
	// ProbeText queries one selector and returns its text on a non-empty match.
	ProbeText(selector string) (string, bool)
	// SaveSnapshot persists the current page markup for diagnostics.
	SaveSnapshot(label string) error
	// Close releases the page and its browser.
	Close()
}

// SessionFactory opens scraping sessions.
type SessionFactory interface {
	OpenSession(ctx context.Context) (Session, error)
}

// BrowserFactory launches headless Chromium sessions via rod.
type BrowserFactory struct {
	headless    bool
	snapshotDir string
	log         *slog.Logger
}

// NewBrowserFactory creates a factory. Failure snapshots are written under
// snapshotDir.
func NewBrowserFactory(headless bool, snapshotDir string, log *slog.Logger) *BrowserFactory {
	return &BrowserFactory{
		headless:    headless,
		snapshotDir: snapshotDir,
		log:         log,
	}
}

// OpenSession launches a browser and opens one blank page. The returned
// session must be closed on every exit path.
func (f *BrowserFactory) OpenSession(ctx context.Context) (Session, error) {
	l := launcher.New().Headless(f.headless).Logger(io.Discard)
	if bin := os.Getenv("ROD_BROWSER_BIN"); bin != "" {
		l = l.Bin(bin)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("connect browser: %w", err)
	}

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		_ = browser.Close()
		l.Cleanup()
		return nil, fmt.Errorf("open page: %w", err)
	}

	err = page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:  1920,
		Height: 1080,
	})
	if err != nil {
		_ = page.Close()
		_ = browser.Close()
		l.Cleanup()
		return nil, fmt.Errorf("set viewport: %w", err)
	}

	return &browserSession{
		launcher:    l,
		browser:     browser,
		page:        page,
		snapshotDir: f.snapshotDir,
		log:         f.log,
	}, nil
}

type browserSession struct {
	launcher    *launcher.Launcher
	browser     *rod.Browser
	page        *rod.Page
	snapshotDir string
	log         *slog.Logger
}

func (s *browserSession) Visit(ctx context.Context, url string) error {
	page := s.page.Context(ctx)
	if err := page.Navigate(url); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}

	timed := page.Timeout(15 * time.Second)
	if err := timed.WaitStable(time.Second); err == nil {
		_ = timed.WaitDOMStable(2*time.Second, 0.1)
	}
	return nil
}

func (s *browserSession) ProbeText(selector string) (string, bool) {
	elems, err := s.page.Timeout(2 * time.Second).Elements(selector)
	if err != nil || len(elems) == 0 {
		return "", false
	}
	text, err := elems[0].Text()
	if err != nil || text == "" {
		return "", false
	}
	return text, true
}

func (s *browserSession) SaveSnapshot(label string) error {
	html, err := s.page.HTML()
	if err != nil {
		return fmt.Errorf("read page html: %w", err)
	}

	if err := os.MkdirAll(s.snapshotDir, 0o750); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}

	name := fmt.Sprintf("%s_%d.html", label, time.Now().UnixNano())
	path := filepath.Join(s.snapshotDir, name)
	if err := os.WriteFile(path, []byte(html), 0o640); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}

	s.log.Debug("saved failure snapshot", "path", path)
	return nil
}

func (s *browserSession) Close() {
	_ = s.page.Close()
	_ = s.browser.Close()
	s.launcher.Cleanup()
}
