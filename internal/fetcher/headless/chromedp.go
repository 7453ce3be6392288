// Package headless renders pages in a headless Chrome session via chromedp.
package headless

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/JakeFAU/page-archiver/internal/archive"
	"github.com/JakeFAU/page-archiver/internal/htmlrewrite"
	"github.com/JakeFAU/page-archiver/internal/pattern"
)

const (
	// DefaultTimeout bounds a fetch when the caller passes no timeout.
	DefaultTimeout = 30 * time.Second
	// DefaultUserAgent mimics a desktop Chrome build.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	hideWebdriverScript = `Object.defineProperty(navigator, 'webdriver', {get: () => undefined})`
)

// Config controls the behavior of the headless fetcher.
type Config struct {
	UserAgent    string
	ExecPath     string
	Headless     bool
	NoSandbox    bool
	WindowWidth  int
	WindowHeight int
	// SettleDelay is waited after the network goes idle, inside the timeout.
	SettleDelay time.Duration
	// AllowErrorStatus archives pages whose main document returned >= 400.
	AllowErrorStatus    bool
	AbsolutizeResources bool
	HideWebdriver       bool
}

// DefaultConfig returns the settings used by the CLI when nothing is overridden.
func DefaultConfig() Config {
	return Config{
		UserAgent:           DefaultUserAgent,
		Headless:            true,
		NoSandbox:           true,
		WindowWidth:         1920,
		WindowHeight:        1080,
		SettleDelay:         500 * time.Millisecond,
		AbsolutizeResources: true,
		HideWebdriver:       true,
	}
}

// Fetcher implements archive.Fetcher. Every Fetch starts its own browser
// process and tears it down before returning.
type Fetcher struct {
	cfg    Config
	logger *zap.Logger
	// allocate starts the browser allocator; replaced in tests.
	allocate func(ctx context.Context, opts ...chromedp.ExecAllocatorOption) (context.Context, context.CancelFunc)
}

// NewChromedp creates a headless fetcher backed by chromedp.
func NewChromedp(cfg Config, logger *zap.Logger) (*Fetcher, error) {
	if cfg.WindowWidth < 0 || cfg.WindowHeight < 0 {
		return nil, fmt.Errorf("window size must be >= 0")
	}
	if cfg.SettleDelay < 0 {
		return nil, fmt.Errorf("settle delay must be >= 0")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fetcher{
		cfg:      cfg,
		logger:   logger,
		allocate: chromedp.NewExecAllocator,
	}, nil
}

// Fetch navigates to rawURL, waits for the network to go idle, and returns the
// serialized DOM. The whole browser session is bounded by timeout. Errors wrap
// archive.ErrFetchTimeout, archive.ErrNavigation, archive.ErrBrowserCrash, or
// archive.ErrCanceled.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string, timeout time.Duration) (archive.Page, error) {
	if err := checkURL(rawURL); err != nil {
		return archive.Page{}, err
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	logger := f.logger.With(zap.String("url", pattern.Redact(rawURL)), zap.Duration("timeout", timeout))

	fetchCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	allocCtx, allocCancel := f.allocate(fetchCtx, f.allocatorOptions()...)
	defer allocCancel()

	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	defer browserCancel()

	watch := newSessionWatch()
	chromedp.ListenTarget(browserCtx, watch.handle)

	start := time.Now()
	if err := chromedp.Run(browserCtx); err != nil {
		logger.Warn("browser start failed", zap.Error(err))
		return archive.Page{}, classify(fetchCtx, err, watch, false)
	}
	logger.Debug("browser started", zap.Duration("elapsed", time.Since(start)))

	var html, finalURL string
	if err := chromedp.Run(browserCtx, f.actions(rawURL, watch, &html, &finalURL)); err != nil {
		logger.Warn("browser fetch failed", zap.Error(err))
		return archive.Page{}, classify(fetchCtx, err, watch, true)
	}

	status, docURL := watch.document()
	switch {
	case docURL != "" && finalURL == "":
		finalURL = docURL
	case finalURL == "":
		finalURL = rawURL
	}
	if status == 0 {
		status = http.StatusOK
	}
	if status >= http.StatusBadRequest && !f.cfg.AllowErrorStatus {
		return archive.Page{}, fmt.Errorf("%w: %s returned HTTP %d", archive.ErrNavigation, pattern.Redact(rawURL), status)
	}

	body := []byte(html)
	if f.cfg.AbsolutizeResources {
		rewritten, err := htmlrewrite.AbsolutizeResources(body, finalURL)
		if err != nil {
			logger.Warn("resource rewrite failed; keeping rendered html", zap.Error(err))
		} else {
			body = rewritten
		}
	}

	page := archive.Page{
		URL:        rawURL,
		FinalURL:   finalURL,
		StatusCode: status,
		HTML:       body,
		Duration:   time.Since(start),
	}
	logger.Info("page rendered",
		zap.String("final_url", page.FinalURL),
		zap.Int("status", page.StatusCode),
		zap.Int("bytes", len(page.HTML)),
		zap.Duration("duration", page.Duration),
	)
	return page, nil
}

func (f *Fetcher) actions(rawURL string, watch *sessionWatch, html, finalURL *string) chromedp.Tasks {
	tasks := chromedp.Tasks{
		f.sessionSetupAction(),
		chromedp.ActionFunc(func(context.Context) error {
			watch.arm()
			return nil
		}),
		chromedp.Navigate(rawURL),
		watch.waitIdle(),
	}
	if f.cfg.SettleDelay > 0 {
		tasks = append(tasks, chromedp.Sleep(f.cfg.SettleDelay))
	}
	return append(tasks,
		chromedp.Location(finalURL),
		chromedp.OuterHTML("html", html, chromedp.ByQuery),
	)
}

func (f *Fetcher) sessionSetupAction() chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		if err := network.Enable().Do(ctx); err != nil {
			return fmt.Errorf("enable network domain: %w", err)
		}
		if err := page.Enable().Do(ctx); err != nil {
			return fmt.Errorf("enable page domain: %w", err)
		}
		if err := page.SetLifecycleEventsEnabled(true).Do(ctx); err != nil {
			return fmt.Errorf("enable lifecycle events: %w", err)
		}
		if f.cfg.UserAgent != "" {
			if err := emulation.SetUserAgentOverride(f.cfg.UserAgent).Do(ctx); err != nil {
				return fmt.Errorf("set user-agent: %w", err)
			}
		}
		if f.cfg.HideWebdriver {
			if _, err := page.AddScriptToEvaluateOnNewDocument(hideWebdriverScript).Do(ctx); err != nil {
				return fmt.Errorf("install webdriver override: %w", err)
			}
		}
		return nil
	})
}

func (f *Fetcher) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption(nil), chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts,
		chromedp.Flag("headless", f.cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("hide-scrollbars", true),
		chromedp.Flag("enable-automation", false),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-infobars", true),
		chromedp.Flag("disable-notifications", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if f.cfg.NoSandbox {
		opts = append(opts, chromedp.NoSandbox)
	}
	if f.cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(f.cfg.UserAgent))
	}
	if f.cfg.WindowWidth > 0 && f.cfg.WindowHeight > 0 {
		opts = append(opts, chromedp.WindowSize(f.cfg.WindowWidth, f.cfg.WindowHeight))
	}
	if f.cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(f.cfg.ExecPath))
	}
	return opts
}

func checkURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%w: %v", archive.ErrInvalidURL, err)
	}
	scheme := strings.ToLower(u.Scheme)
	if (scheme != "http" && scheme != "https") || u.Hostname() == "" {
		return fmt.Errorf("%w: %q", archive.ErrInvalidURL, rawURL)
	}
	return nil
}

// classify maps a chromedp failure onto the fetch error kinds. started reports
// whether the browser process came up.
func classify(ctx context.Context, err error, watch *sessionWatch, started bool) error {
	switch {
	case watch.hasCrashed():
		return fmt.Errorf("%w: renderer crashed: %v", archive.ErrBrowserCrash, err)
	case errors.Is(ctx.Err(), context.DeadlineExceeded), errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %v", archive.ErrFetchTimeout, err)
	case errors.Is(ctx.Err(), context.Canceled):
		return fmt.Errorf("%w: %v", archive.ErrCanceled, err)
	case !started:
		return fmt.Errorf("%w: start browser: %v", archive.ErrBrowserCrash, err)
	default:
		return fmt.Errorf("%w: %v", archive.ErrNavigation, err)
	}
}

var _ archive.Fetcher = (*Fetcher)(nil)
