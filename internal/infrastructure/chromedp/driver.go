// Package chromedp drives a real Chrome through the DevTools protocol and
// satisfies portal.Driver.
package chromedp

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/example/court-scheduler/internal/domain/portal"
)

type Options struct {
	Headless bool
	// ExecPath overrides the Chrome binary used for a local browser.
	ExecPath string
	// RemoteURL attaches to an already running browser (ws:// or http://host:9222)
	// instead of starting one.
	RemoteURL string
	// NavigateTimeout bounds a single page load.
	NavigateTimeout time.Duration
	// ActionTimeout bounds a click, keystroke or read on an already located
	// element. chromedp waits for such a node to become visible, so a node
	// that never shows would otherwise hold the run until ctx ends.
	ActionTimeout time.Duration
	Log           *zap.Logger
}

// Driver owns one browser tab. Close releases it and, for a local browser,
// stops the process.
type Driver struct {
	tab             context.Context
	cancelTab       context.CancelFunc
	cancelAlloc     context.CancelFunc
	navigateTimeout time.Duration
	actionTimeout   time.Duration
	log             *zap.Logger
}

func New(ctx context.Context, opts Options) (*Driver, error) {
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}

	var alloc context.Context
	var cancelAlloc context.CancelFunc
	if opts.RemoteURL != "" {
		alloc, cancelAlloc = chromedp.NewRemoteAllocator(ctx, opts.RemoteURL)
	} else {
		flags := append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", opts.Headless),
			chromedp.WindowSize(1366, 900),
		)
		if opts.ExecPath != "" {
			flags = append(flags, chromedp.ExecPath(opts.ExecPath))
		}
		alloc, cancelAlloc = chromedp.NewExecAllocator(ctx, flags...)
	}

	sugar := log.Sugar()
	tab, cancelTab := chromedp.NewContext(alloc,
		chromedp.WithLogf(sugar.Debugf),
		chromedp.WithErrorf(sugar.Warnf),
	)
	// the first Run starts the browser
	if err := chromedp.Run(tab); err != nil {
		cancelTab()
		cancelAlloc()
		return nil, fmt.Errorf("start browser: %w", err)
	}

	nt := opts.NavigateTimeout
	if nt <= 0 {
		nt = 30 * time.Second
	}
	at := opts.ActionTimeout
	if at <= 0 {
		at = portal.DefaultTimeouts().Element
	}
	return &Driver{
		tab:             tab,
		cancelTab:       cancelTab,
		cancelAlloc:     cancelAlloc,
		navigateTimeout: nt,
		actionTimeout:   at,
		log:             log,
	}, nil
}

func (d *Driver) Close() {
	d.cancelTab()
	d.cancelAlloc()
}

func (d *Driver) Navigate(ctx context.Context, url string) error {
	return d.run(ctx, d.navigateTimeout, chromedp.Navigate(url))
}

func (d *Driver) Locate(ctx context.Context, selector string, timeout time.Duration) (portal.Element, error) {
	var nodes []*cdp.Node
	err := d.run(ctx, timeout, chromedp.Nodes(selector, &nodes, chromedp.ByQuery))
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, fmt.Errorf("%w: %s", portal.ErrTimeout, selector)
	}
	return element{nodes[0]}, nil
}

func (d *Driver) ListElements(ctx context.Context, selector string) ([]portal.Element, error) {
	var nodes []*cdp.Node
	err := d.run(ctx, d.actionTimeout, chromedp.Nodes(selector, &nodes, chromedp.ByQueryAll, chromedp.AtLeast(0)))
	if err != nil {
		return nil, err
	}
	out := make([]portal.Element, len(nodes))
	for i, n := range nodes {
		out[i] = element{n}
	}
	return out, nil
}

func (d *Driver) Click(ctx context.Context, el portal.Element) error {
	id, err := nodeID(el)
	if err != nil {
		return err
	}
	return d.run(ctx, d.actionTimeout, chromedp.Click(id, chromedp.ByNodeID))
}

func (d *Driver) SendKeys(ctx context.Context, el portal.Element, text string) error {
	id, err := nodeID(el)
	if err != nil {
		return err
	}
	return d.run(ctx, d.actionTimeout, chromedp.SendKeys(id, text, chromedp.ByNodeID))
}

func (d *Driver) ReadText(ctx context.Context, el portal.Element) (string, error) {
	id, err := nodeID(el)
	if err != nil {
		return "", err
	}
	// innerText is what the member sees; hidden descendants are left out.
	var text string
	if err := d.run(ctx, d.actionTimeout, chromedp.JavascriptAttribute(id, "innerText", &text, chromedp.ByNodeID)); err != nil {
		return "", err
	}
	return trimText(text), nil
}

// Screenshot writes a full-page PNG into dir and returns its path.
func (d *Driver) Screenshot(ctx context.Context, dir, name string) (string, error) {
	var buf []byte
	if err := d.run(ctx, 10*time.Second, chromedp.FullScreenshot(&buf, 90)); err != nil {
		return "", fmt.Errorf("capture screenshot: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, name+".png")
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		return "", err
	}
	d.log.Info("screenshot saved", zap.String("path", path))
	return path, nil
}

// run executes actions on the tab. The tab context carries the browser, so
// the caller's ctx is joined in by cancellation only. A zero timeout means no
// limit beyond ctx.
func (d *Driver) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(d.tab)
	defer cancel()
	if timeout > 0 {
		runCtx, cancel = context.WithTimeout(runCtx, timeout)
		defer cancel()
	}
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := chromedp.Run(runCtx, actions...)
	switch {
	case err == nil:
		return nil
	case ctx.Err() != nil:
		return ctx.Err()
	case errors.Is(err, context.DeadlineExceeded):
		return portal.ErrTimeout
	}
	return err
}

// trimText collapses whitespace the way rendered text reads on screen.
func trimText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

type element struct{ node *cdp.Node }

func (e element) ID() string { return strconv.FormatInt(int64(e.node.NodeID), 10) }

func nodeID(el portal.Element) ([]cdp.NodeID, error) {
	e, ok := el.(element)
	if !ok {
		return nil, fmt.Errorf("chromedp: foreign element %T", el)
	}
	return []cdp.NodeID{e.node.NodeID}, nil
}

var _ portal.Driver = (*Driver)(nil)
