package headless

import (
	"context"
	"errors"
	"sync"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/inspector"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// Lifecycle event names emitted by Chrome when lifecycle events are enabled.
const (
	lifecycleInit              = "init"
	lifecycleNetworkAlmostIdle = "networkAlmostIdle"
)

var errTargetCrashed = errors.New("target crashed")

// sessionWatch observes target events for one browser session: the main
// frame's lifecycle, the main document response, and renderer crashes.
// Events seen before arm are ignored so the initial about:blank document
// cannot satisfy the idle wait.
type sessionWatch struct {
	mu        sync.Mutex
	armed     bool
	mainFrame cdp.FrameID
	loader    cdp.LoaderID
	status    int
	docURL    string
	idle      chan struct{}
	idleOnce  sync.Once
	crash     chan struct{}
	crashOnce sync.Once
}

func newSessionWatch() *sessionWatch {
	return &sessionWatch{
		idle:  make(chan struct{}),
		crash: make(chan struct{}),
	}
}

func (w *sessionWatch) arm() {
	w.mu.Lock()
	w.armed = true
	w.mu.Unlock()
}

func (w *sessionWatch) handle(ev any) {
	switch e := ev.(type) {
	case *inspector.EventTargetCrashed:
		w.crashOnce.Do(func() { close(w.crash) })
	case *page.EventLifecycleEvent:
		w.lifecycle(e)
	case *network.EventResponseReceived:
		w.response(e)
	}
}

func (w *sessionWatch) lifecycle(e *page.EventLifecycleEvent) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.armed {
		return
	}
	switch e.Name {
	case lifecycleInit:
		// The first document started after arming belongs to the main frame;
		// later inits on that frame are redirects or script navigations.
		if w.mainFrame == "" {
			w.mainFrame = e.FrameID
		}
		if e.FrameID == w.mainFrame {
			w.loader = e.LoaderID
		}
	case lifecycleNetworkAlmostIdle:
		if w.mainFrame != "" && e.FrameID == w.mainFrame && e.LoaderID == w.loader {
			w.idleOnce.Do(func() { close(w.idle) })
		}
	}
}

func (w *sessionWatch) response(e *network.EventResponseReceived) {
	if e.Type != network.ResourceTypeDocument || e.Response == nil {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.armed || w.docURL != "" {
		return
	}
	w.status = int(e.Response.Status)
	w.docURL = e.Response.URL
}

// document returns the status and URL of the first main document response.
func (w *sessionWatch) document() (int, string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.status, w.docURL
}

func (w *sessionWatch) hasCrashed() bool {
	select {
	case <-w.crash:
		return true
	default:
		return false
	}
}

// waitIdle blocks until the main frame reports networkAlmostIdle, the
// renderer crashes, or ctx ends.
func (w *sessionWatch) waitIdle() chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		select {
		case <-w.idle:
			return nil
		case <-w.crash:
			return errTargetCrashed
		case <-ctx.Done():
			return ctx.Err()
		}
	})
}
