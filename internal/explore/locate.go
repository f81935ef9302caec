package explore

import (
	"context"
	"log"
	"time"

	"settingscout/internal/device"
)

// Locator resolves a label to an on-screen node, scrolling when needed.
type Locator struct {
	Device      device.Driver
	MaxAttempts int
	Delay       time.Duration
	Swipe       Swipe
	Wait        WaitFunc
	Logger      *log.Logger
}

// Locate looks for an exact text match, then an exact description match.
// When neither is on screen it swipes once and waits, up to MaxAttempts
// times. found=false means the caller should skip the row.
func (l *Locator) Locate(ctx context.Context, text string) (Node, bool) {
	if text == "" {
		return Node{}, false
	}
	wait := l.Wait
	if wait == nil {
		wait = Sleep
	}
	for attempt := 0; attempt < l.MaxAttempts; attempt++ {
		if n, ok := l.lookup(ctx, text); ok {
			return n, true
		}
		if err := swipeOnce(ctx, l.Device, l.Swipe); err != nil {
			l.logf("locate %q: swipe failed: %v", text, err)
		}
		wait(ctx, l.Delay)
	}
	return Node{}, false
}

func (l *Locator) lookup(ctx context.Context, text string) (Node, bool) {
	raw, err := l.Device.DumpTree(ctx)
	if err != nil {
		l.logf("locate %q: dump failed: %v", text, err)
		return Node{}, false
	}
	h, err := device.ParseHierarchy(raw)
	if err != nil {
		l.logf("locate %q: %v", text, err)
		return Node{}, false
	}
	e, ok := h.FindByText(text)
	if !ok {
		e, ok = h.FindByDescription(text)
	}
	if !ok {
		return Node{}, false
	}
	b := e.Bounds
	return Node{Text: e.Text, Description: e.Description, Bounds: &b}, true
}

func (l *Locator) logf(format string, args ...any) {
	if l.Logger != nil {
		l.Logger.Printf(format, args...)
	}
}
