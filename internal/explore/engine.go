package explore

import (
	"context"
	"errors"
	"fmt"
	"log"

	"settingscout/internal/device"
	"settingscout/internal/inspector"
)

var (
	// ErrNodeNotFound: a row could not be located after scrolling. Non-fatal.
	ErrNodeNotFound = errors.New("explore: node not found")
	// ErrActionUnverified: tapping a row never changed the UI tree. Non-fatal.
	ErrActionUnverified = errors.New("explore: action unverified")
	// ErrInspectionUnavailable: the page inspector produced no
	// classification. Fatal for the frame.
	ErrInspectionUnavailable = errors.New("explore: inspection unavailable")
	// ErrSubtreeFailure: a generic-layout descent failed; propagated to
	// every ancestor.
	ErrSubtreeFailure = errors.New("explore: subtree failure")
)

// Outcome is the result of exploring one screen.
type Outcome struct {
	Success  bool
	WasPopup bool
	Err      error
}

// Engine walks the settings tree depth-first. It owns the device session
// and is not safe for concurrent use.
type Engine struct {
	Device    device.Driver
	Inspector inspector.Inspector
	Store     *Store
	Locator   *Locator
	Verifier  *Verifier
	Opts      Options
	Wait      WaitFunc
	Logger    *log.Logger
}

// NewEngine wires a Locator and Verifier configured from opts. A nil wait
// uses Sleep, a nil logger log.Default().
func NewEngine(d device.Driver, insp inspector.Inspector, store *Store, opts Options, wait WaitFunc, logger *log.Logger) *Engine {
	if wait == nil {
		wait = Sleep
	}
	if logger == nil {
		logger = log.Default()
	}
	if store == nil {
		store = NewStore()
	}
	return &Engine{
		Device:    d,
		Inspector: insp,
		Store:     store,
		Locator: &Locator{
			Device:      d,
			MaxAttempts: opts.LocateAttempts,
			Delay:       opts.LocateDelay,
			Swipe:       opts.LocateSwipe,
			Wait:        wait,
			Logger:      logger,
		},
		Verifier: &Verifier{
			Device:     d,
			MaxRetries: opts.TapRetries,
			Settle:     opts.TapSettle,
			Wait:       wait,
			Logger:     logger,
		},
		Opts:   opts,
		Wait:   wait,
		Logger: logger,
	}
}

// Explore classifies the current screen, records its switches, descends
// into every layout row and returns once the screen is exhausted. The
// caller is responsible for navigating back from this screen.
func (e *Engine) Explore(ctx context.Context, path *Path) Outcome {
	page, err := e.Inspector.Inspect(ctx, e.Device)
	e.Wait(ctx, e.Opts.InspectSettle)
	if err != nil || page == nil {
		if err == nil {
			err = inspector.ErrNoClassification
		}
		e.Logger.Printf("explore depth=%d: inspection failed: %v", path.Len(), err)
		return Outcome{Err: fmt.Errorf("%w: %w", ErrInspectionUnavailable, err)}
	}

	if !page.IsPopup {
		e.scrollForContent(ctx)
	}
	e.harvest(path, page)

	for _, l := range page.Layouts {
		if out, abort := e.descendLayout(ctx, path, l); abort {
			return out
		}
	}
	for _, l := range page.Personalization.Layouts {
		e.descendPersonalization(ctx, path, l)
	}
	return Outcome{Success: true, WasPopup: page.IsPopup}
}

func (e *Engine) scrollForContent(ctx context.Context) {
	for i := 0; i < e.Opts.ExploreScrolls; i++ {
		if err := swipeOnce(ctx, e.Device, e.Opts.ExploreSwipe); err != nil {
			e.Logger.Printf("explore: content scroll failed: %v", err)
			return
		}
		e.Wait(ctx, e.Opts.ExploreSettle)
	}
}

func (e *Engine) harvest(path *Path, page *inspector.Page) {
	prefix := path.Snapshot()
	for _, sw := range page.Switches {
		e.Store.RecordSwitch(prefix, sw)
	}
	for _, sw := range page.Personalization.Switches {
		e.Store.RecordPersonalitySwitch(prefix, sw)
	}
	if n := len(page.Switches) + len(page.Personalization.Switches); n > 0 {
		e.Logger.Printf("explore depth=%d: recorded %d switches", path.Len(), n)
	}
}

// descendLayout visits one generic layout row. abort is true when the
// subtree failed and the caller must stop iterating its siblings.
func (e *Engine) descendLayout(ctx context.Context, path *Path, l inspector.Layout) (out Outcome, abort bool) {
	node, found := e.Locator.Locate(ctx, l.Text)
	if !found {
		e.Logger.Printf("explore: skip %q: %v", l.Text, ErrNodeNotFound)
		if err := swipeOnce(ctx, e.Device, e.Opts.SkipSwipe); err != nil {
			e.Logger.Printf("explore: skip scroll failed: %v", err)
		}
		e.Wait(ctx, e.Opts.SkipSettle)
		return Outcome{}, false
	}

	pop := path.Push(Node{Text: l.Text})
	defer pop()

	x, y := node.Bounds.Center()
	if !e.Verifier.TapAndVerify(ctx, x, y) {
		e.Logger.Printf("explore: skip %q: %v", l.Text, ErrActionUnverified)
		return Outcome{}, false
	}
	e.Wait(ctx, e.Opts.PostTapSettle)

	sub := e.Explore(ctx, path)
	e.returnFrom(ctx, sub.WasPopup)
	if !sub.Success {
		return Outcome{Err: fmt.Errorf("%w under %q: %w", ErrSubtreeFailure, l.Text, sub.Err)}, true
	}
	return Outcome{Success: true}, false
}

// descendPersonalization records a personalization layout and, when
// enabled, explores it. Failures below it are logged and absorbed.
func (e *Engine) descendPersonalization(ctx context.Context, path *Path, l inspector.Layout) {
	node, found := e.Locator.Locate(ctx, l.Text)
	if !found {
		return
	}
	pop := path.Push(Node{Text: l.Text})
	defer pop()
	e.Store.RecordPersonalityLayout(path.Snapshot())

	if !e.Opts.PersonalizationDescent {
		return
	}
	x, y := node.Bounds.Center()
	if !e.Verifier.TapAndVerify(ctx, x, y) {
		e.Logger.Printf("explore: personalization %q: %v", l.Text, ErrActionUnverified)
		return
	}
	e.Wait(ctx, e.Opts.PostTapSettle)

	sub := e.Explore(ctx, path)
	e.returnFrom(ctx, sub.WasPopup)
	if !sub.Success {
		e.Logger.Printf("explore: personalization %q failed, continuing: %v", l.Text, sub.Err)
	}
}

// returnFrom navigates back to the parent screen. A popup is first
// dismissed with a tap near the top; back is pressed only if that tap left
// the tree unchanged.
func (e *Engine) returnFrom(ctx context.Context, wasPopup bool) {
	if wasPopup && e.dismissPopup(ctx) {
		e.Wait(ctx, e.Opts.BackSettle)
		return
	}
	if err := e.Device.PressBack(ctx); err != nil {
		e.Logger.Printf("explore: back failed: %v", err)
	}
	e.Wait(ctx, e.Opts.BackSettle)
}

func (e *Engine) dismissPopup(ctx context.Context) bool {
	before, err := e.Device.DumpTree(ctx)
	if err != nil {
		e.Logger.Printf("explore: popup dump failed: %v", err)
		return false
	}
	w, h, err := e.Device.WindowSize(ctx)
	if err != nil {
		e.Logger.Printf("explore: window size failed: %v", err)
		return false
	}
	if err := e.Device.Tap(ctx, w/2, int(float64(h)*e.Opts.PopupDismissY)); err != nil {
		e.Logger.Printf("explore: popup dismiss tap failed: %v", err)
		return false
	}
	e.Wait(ctx, e.Opts.PopupSettle)
	after, err := e.Device.DumpTree(ctx)
	if err != nil {
		e.Logger.Printf("explore: popup dump failed: %v", err)
		return false
	}
	return after != before
}

// Run explores from a seeded entry prefix. The push/pop balance of the path
// is checked once the walk returns.
func (e *Engine) Run(ctx context.Context, prefix []Node) Outcome {
	path := NewPath(prefix...)
	out := e.Explore(ctx, path)
	if pushes, pops := path.Balance(); pushes != pops || path.Len() != len(prefix) {
		e.Logger.Printf("explore: path imbalance: pushes=%d pops=%d len=%d", pushes, pops, path.Len())
	}
	e.Logger.Printf("explore: finished success=%v records=%d", out.Success, e.Store.Len())
	return out
}
