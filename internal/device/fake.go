package device

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"image"
	"image/png"
	"strings"
	"sync"
	"time"
)

// FakeRow is a tappable row on a simulated screen.
type FakeRow struct {
	Text        string
	Description string
	Bounds      Rect
	// Target is the screen pushed when the row is tapped; empty means the
	// tap has no visible effect.
	Target string
	// RevealAfter hides the row until that many swipes happened on the screen.
	RevealAfter int
	// IgnoreTaps swallows the first N taps on the row.
	IgnoreTaps int
}

// FakeScreen is one node of the simulated app's navigation graph.
type FakeScreen struct {
	Name  string
	Rows  []FakeRow
	Popup bool
	// DismissOnOutsideTap pops a popup when a tap lands outside every row.
	DismissOnOutsideTap bool
}

type fakeFrame struct {
	name   string
	swipes int
}

// Fake is an in-memory Driver over a graph of screens. It is deterministic
// and records every action, which makes it suitable for traversal tests.
type Fake struct {
	mu      sync.Mutex
	width   int
	height  int
	pkg     string
	root    string
	screens map[string]*FakeScreen
	stack   []fakeFrame
	ignored map[string]int

	Taps    int
	Swipes  int
	Backs   int
	Dumps   int
	Actions []string
}

// NewFake builds a 1080x2400 device showing root.
func NewFake(root string, screens ...*FakeScreen) *Fake {
	f := &Fake{
		width:   1080,
		height:  2400,
		pkg:     "com.example.app",
		root:    root,
		screens: make(map[string]*FakeScreen, len(screens)),
		ignored: map[string]int{},
	}
	for _, s := range screens {
		f.screens[s.Name] = s
	}
	f.stack = []fakeFrame{{name: root}}
	return f
}

// Current returns the name of the screen on top of the back stack.
func (f *Fake) Current() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.top().name
}

// Depth returns the size of the back stack.
func (f *Fake) Depth() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.stack)
}

func (f *Fake) top() *fakeFrame {
	return &f.stack[len(f.stack)-1]
}

func (f *Fake) visibleRows() []FakeRow {
	fr := f.top()
	s := f.screens[fr.name]
	if s == nil {
		return nil
	}
	out := make([]FakeRow, 0, len(s.Rows))
	for _, r := range s.Rows {
		if r.RevealAfter <= fr.swipes {
			out = append(out, r)
		}
	}
	return out
}

func (f *Fake) record(format string, args ...any) {
	f.Actions = append(f.Actions, fmt.Sprintf(format, args...))
}

// Screenshot returns a tiny PNG whose colour is derived from the screen name.
func (f *Fake) Screenshot(context.Context) ([]byte, error) {
	f.mu.Lock()
	name := f.top().name
	f.mu.Unlock()
	var shade uint8
	for i := 0; i < len(name); i++ {
		shade += name[i]
	}
	img := image.NewGray(image.Rect(0, 0, 8, 16))
	for i := range img.Pix {
		img.Pix[i] = shade
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (f *Fake) DumpTree(context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Dumps++
	var b strings.Builder
	fmt.Fprintf(&b, `<?xml version='1.0' encoding='UTF-8' standalone='yes' ?><hierarchy rotation="0">`)
	fmt.Fprintf(&b, `<node text="" content-desc="%s" class="android.widget.FrameLayout" package="%s" clickable="false" bounds="[0,0][%d,%d]">`,
		xmlEscape(fmt.Sprintf("%s#%d", f.top().name, len(f.stack))), f.pkg, f.width, f.height)
	for _, r := range f.visibleRows() {
		fmt.Fprintf(&b, `<node text="%s" content-desc="%s" class="android.widget.TextView" package="%s" clickable="true" bounds="%s"/>`,
			xmlEscape(r.Text), xmlEscape(r.Description), f.pkg, r.Bounds.String())
	}
	b.WriteString(`</node></hierarchy>`)
	return b.String(), nil
}

func (f *Fake) Tap(_ context.Context, x, y int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Taps++
	f.record("tap %d,%d", x, y)
	for _, r := range f.visibleRows() {
		if !r.Bounds.Contains(x, y) {
			continue
		}
		key := f.top().name + "/" + r.Text
		if f.ignored[key] < r.IgnoreTaps {
			f.ignored[key]++
			return nil
		}
		if r.Target != "" {
			f.stack = append(f.stack, fakeFrame{name: r.Target})
		}
		return nil
	}
	if s := f.screens[f.top().name]; s != nil && s.Popup && s.DismissOnOutsideTap && len(f.stack) > 1 {
		f.stack = f.stack[:len(f.stack)-1]
	}
	return nil
}

func (f *Fake) Swipe(_ context.Context, x1, y1, x2, y2 int, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Swipes++
	f.top().swipes++
	f.record("swipe %d,%d->%d,%d", x1, y1, x2, y2)
	return nil
}

func (f *Fake) PressBack(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Backs++
	f.record("back")
	if len(f.stack) > 1 {
		f.stack = f.stack[:len(f.stack)-1]
	}
	return nil
}

func (f *Fake) WindowSize(context.Context) (int, int, error) {
	return f.width, f.height, nil
}

func (f *Fake) CurrentApp(context.Context) (App, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return App{Package: f.pkg, Activity: f.top().name}, nil
}

func (f *Fake) AppStart(_ context.Context, pkg string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pkg = pkg
	f.stack = []fakeFrame{{name: f.root}}
	f.record("start %s", pkg)
	return nil
}

func (f *Fake) AppStop(_ context.Context, pkg string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("stop %s", pkg)
	return nil
}

// SetPackage changes the package reported by CurrentApp, simulating a jump
// into another app.
func (f *Fake) SetPackage(pkg string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pkg = pkg
}

func xmlEscape(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}
