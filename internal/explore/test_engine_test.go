package explore

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"settingscout/internal/device"
	"settingscout/internal/inspector"
	"settingscout/internal/tester"
)

var errVisionDown = errors.New("vision backend down")

// row places the n-th row of a fake screen well below the popup dismiss point.
func row(n int, text, target string) device.FakeRow {
	top := 600 + n*200
	return device.FakeRow{Text: text, Bounds: device.Rect{Left: 0, Top: top, Right: 1080, Bottom: top + 150}, Target: target}
}

type harness struct {
	dev    *device.Fake
	engine *Engine
	path   *Path
}

// newHarness builds an engine over a fake device. Screens listed in failing
// make the inspector error; screens without a page classify as empty.
func newHarness(pages map[string]*inspector.Page, failing map[string]bool, opts Options, screens ...*device.FakeScreen) *harness {
	dev := device.NewFake(screens[0].Name, screens...)
	insp := inspector.Func(func(_ context.Context, _ device.Driver) (*inspector.Page, error) {
		name := dev.Current()
		if failing[name] {
			return nil, errVisionDown
		}
		if p, ok := pages[name]; ok {
			return p, nil
		}
		return &inspector.Page{}, nil
	})
	logger := log.New(io.Discard, "", 0)
	return &harness{
		dev:    dev,
		engine: NewEngine(dev, insp, nil, opts, NoWait, logger),
		path:   NewPath(),
	}
}

func (h *harness) explore(t *testing.T) Outcome {
	t.Helper()
	out := h.engine.Explore(context.Background(), h.path)
	pushes, pops := h.path.Balance()
	tester.Eq(t, pushes, pops, "push/pop balance")
	tester.Eq(t, h.path.Len(), 0, "path restored")
	return out
}

func texts(nodes []Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.Text
	}
	return out
}

func TestExploreNestedSwitchPaths(t *testing.T) {
	h := newHarness(map[string]*inspector.Page{
		"privacy": {
			Switches: []inspector.Switch{{Text: "Location", CurrentState: "off", RecommendedState: "on", Analysis: "needed for maps"}},
			Layouts:  []inspector.Layout{{Text: "Advanced"}},
		},
		"advanced": {
			Switches: []inspector.Switch{{Text: "Ad ID", CurrentState: "on", RecommendedState: "off", Analysis: "tracking"}},
		},
	}, nil, DefaultOptions(),
		&device.FakeScreen{Name: "privacy", Rows: []device.FakeRow{row(0, "Location", ""), row(1, "Advanced", "advanced")}},
		&device.FakeScreen{Name: "advanced", Rows: []device.FakeRow{row(0, "Ad ID", "")}},
	)

	out := h.explore(t)
	require.True(t, out.Success)
	require.NoError(t, out.Err)

	recs := h.engine.Store.Switches()
	require.Len(t, recs, 2)
	assert.Equal(t, []string{"Location"}, texts(recs[0].Path))
	assert.Equal(t, []string{"Advanced", "Ad ID"}, texts(recs[1].Path))
	assert.Nil(t, recs[1].Path[0].Switch)
	require.NotNil(t, recs[1].Path[1].Switch)
	assert.Equal(t, "off", recs[1].Path[1].Switch.RecommendedState)

	assert.Equal(t, 1, h.dev.Backs)
	assert.Equal(t, "privacy", h.dev.Current())
	assert.Equal(t, 2*DefaultOptions().ExploreScrolls, h.dev.Swipes)
}

func TestExploreSeededPrefixIsKept(t *testing.T) {
	h := newHarness(map[string]*inspector.Page{
		"privacy": {Switches: []inspector.Switch{{Text: "Contacts", CurrentState: "on", RecommendedState: "off"}}},
	}, nil, DefaultOptions(),
		&device.FakeScreen{Name: "privacy"},
	)
	me := Node{Text: "Me", Bounds: &device.Rect{Left: 10, Top: 20, Right: 30, Bottom: 40}}

	out := h.engine.Run(context.Background(), []Node{me, {Text: "Settings"}})
	require.True(t, out.Success)

	rep := h.engine.Store.Finalize()
	require.Len(t, rep.PrivacySwitches, 3)
	assert.Equal(t, "[10,20][30,40]", rep.PrivacySwitches[0].Bounds)
	assert.Equal(t, "Settings", rep.PrivacySwitches[1].Text)
	assert.Equal(t, "off", rep.PrivacySwitches[2].RecommendedState)
}

func TestExplorePopupDismissedByOutsideTap(t *testing.T) {
	for _, tc := range []struct {
		name      string
		dismiss   bool
		wantBacks int
	}{
		{name: "dismissed", dismiss: true, wantBacks: 0},
		{name: "sticky", dismiss: false, wantBacks: 1},
	} {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(map[string]*inspector.Page{
				"privacy": {Layouts: []inspector.Layout{{Text: "Share usage data"}}},
				"dialog": {
					IsPopup:  true,
					Switches: []inspector.Switch{{Text: "Send diagnostics", CurrentState: "on", RecommendedState: "off"}},
				},
			}, nil, DefaultOptions(),
				&device.FakeScreen{Name: "privacy", Rows: []device.FakeRow{row(0, "Share usage data", "dialog")}},
				&device.FakeScreen{Name: "dialog", Popup: true, DismissOnOutsideTap: tc.dismiss},
			)

			out := h.explore(t)
			require.True(t, out.Success)
			assert.False(t, out.WasPopup)
			assert.Equal(t, tc.wantBacks, h.dev.Backs)
			assert.Equal(t, "privacy", h.dev.Current())
			// popups are not scrolled
			assert.Equal(t, DefaultOptions().ExploreScrolls, h.dev.Swipes)
			assert.Contains(t, h.dev.Actions, "tap 540,266")

			recs := h.engine.Store.Switches()
			require.Len(t, recs, 1)
			assert.Equal(t, []string{"Share usage data", "Send diagnostics"}, texts(recs[0].Path))
		})
	}
}

func TestExploreSubtreeFailurePropagates(t *testing.T) {
	h := newHarness(map[string]*inspector.Page{
		"d1": {
			Switches: []inspector.Switch{{Text: "S1"}},
			Layouts:  []inspector.Layout{{Text: "A"}, {Text: "Z"}},
		},
		"d2": {
			Switches: []inspector.Switch{{Text: "S2"}},
			Layouts:  []inspector.Layout{{Text: "B"}},
		},
		"z": {Switches: []inspector.Switch{{Text: "SZ"}}},
	}, map[string]bool{"d3": true}, DefaultOptions(),
		&device.FakeScreen{Name: "d1", Rows: []device.FakeRow{row(0, "A", "d2"), row(1, "Z", "z")}},
		&device.FakeScreen{Name: "d2", Rows: []device.FakeRow{row(0, "B", "d3")}},
		&device.FakeScreen{Name: "d3"},
		&device.FakeScreen{Name: "z"},
	)

	out := h.explore(t)
	tester.False(t, out.Success, "root must fail")
	tester.ErrIs(t, out.Err, ErrSubtreeFailure)
	tester.ErrIs(t, out.Err, ErrInspectionUnavailable)
	tester.ErrIs(t, out.Err, errVisionDown)

	recs := h.engine.Store.Switches()
	tester.Len(t, recs, 2, "records above the failure are kept")
	tester.Eq(t, texts(recs[0].Path), []string{"S1"})
	tester.Eq(t, texts(recs[1].Path), []string{"A", "S2"})

	tester.Eq(t, h.dev.Backs, 2)
	tester.Eq(t, h.dev.Current(), "d1")
	for _, a := range h.dev.Actions {
		tester.True(t, a != "tap 540,875", "sibling Z must not be visited")
	}
}

func TestExploreRootInspectionFailure(t *testing.T) {
	h := newHarness(nil, map[string]bool{"root": true}, DefaultOptions(), &device.FakeScreen{Name: "root"})

	out := h.explore(t)
	tester.False(t, out.Success)
	tester.ErrIs(t, out.Err, ErrInspectionUnavailable)
	tester.Eq(t, h.engine.Store.Len(), 0)
	tester.Eq(t, h.dev.Swipes, 0)
}

func TestExploreNilPageIsInspectionFailure(t *testing.T) {
	dev := device.NewFake("root", &device.FakeScreen{Name: "root"})
	insp := inspector.Func(func(context.Context, device.Driver) (*inspector.Page, error) { return nil, nil })
	e := NewEngine(dev, insp, nil, DefaultOptions(), NoWait, log.New(io.Discard, "", 0))

	out := e.Explore(context.Background(), NewPath())
	tester.False(t, out.Success)
	tester.ErrIs(t, out.Err, inspector.ErrNoClassification)
}

func TestExplorePersonalizationFailureIsAbsorbed(t *testing.T) {
	h := newHarness(map[string]*inspector.Page{
		"privacy": {
			Personalization: inspector.Personalization{
				Switches: []inspector.Switch{{Text: "Personalized ads", CurrentState: "on", RecommendedState: "off"}},
				Layouts:  []inspector.Layout{{Text: "Ad preferences"}, {Text: "Interests"}},
			},
		},
		"interests": {Switches: []inspector.Switch{{Text: "Use activity", CurrentState: "on", RecommendedState: "off"}}},
	}, map[string]bool{"adprefs": true}, DefaultOptions(),
		&device.FakeScreen{Name: "privacy", Rows: []device.FakeRow{row(0, "Ad preferences", "adprefs"), row(1, "Interests", "interests")}},
		&device.FakeScreen{Name: "adprefs"},
		&device.FakeScreen{Name: "interests"},
	)

	out := h.explore(t)
	require.True(t, out.Success)
	require.NoError(t, out.Err)

	layouts := h.engine.Store.PersonalityLayouts()
	require.Len(t, layouts, 2)
	assert.Equal(t, "Ad preferences", layouts[0].Text)
	assert.Equal(t, []string{"Interests"}, texts(layouts[1].Path))

	require.Len(t, h.engine.Store.PersonalitySwitches(), 1)
	recs := h.engine.Store.Switches()
	require.Len(t, recs, 1)
	assert.Equal(t, []string{"Interests", "Use activity"}, texts(recs[0].Path))
	assert.Equal(t, 2, h.dev.Backs)
}

func TestExplorePersonalizationRecordedWithoutDescent(t *testing.T) {
	opts := DefaultOptions()
	opts.PersonalizationDescent = false
	h := newHarness(map[string]*inspector.Page{
		"privacy": {Personalization: inspector.Personalization{Layouts: []inspector.Layout{{Text: "Ad preferences"}, {Text: "Missing"}}}},
	}, nil, opts,
		&device.FakeScreen{Name: "privacy", Rows: []device.FakeRow{row(0, "Ad preferences", "adprefs")}},
		&device.FakeScreen{Name: "adprefs"},
	)

	out := h.explore(t)
	require.True(t, out.Success)
	assert.Len(t, h.engine.Store.PersonalityLayouts(), 1)
	assert.Zero(t, h.dev.Taps)
	assert.Zero(t, h.dev.Backs)
}

func TestExploreSkipsUnlocatedRow(t *testing.T) {
	opts := DefaultOptions()
	h := newHarness(map[string]*inspector.Page{
		"privacy": {Layouts: []inspector.Layout{{Text: "Ghost"}, {Text: "Permissions"}}},
		"perms":   {Switches: []inspector.Switch{{Text: "Camera", CurrentState: "on", RecommendedState: "off"}}},
	}, nil, opts,
		&device.FakeScreen{Name: "privacy", Rows: []device.FakeRow{row(0, "Permissions", "perms")}},
		&device.FakeScreen{Name: "perms"},
	)

	out := h.explore(t)
	require.True(t, out.Success)
	recs := h.engine.Store.Switches()
	require.Len(t, recs, 1)
	assert.Equal(t, []string{"Permissions", "Camera"}, texts(recs[0].Path))
	// content scrolls on both screens, the locator budget and one skip swipe
	assert.Equal(t, 2*opts.ExploreScrolls+opts.LocateAttempts+1, h.dev.Swipes)
}

func TestExploreUnverifiedTapRollsBackPath(t *testing.T) {
	opts := DefaultOptions()
	h := newHarness(map[string]*inspector.Page{
		"privacy": {Layouts: []inspector.Layout{{Text: "About"}, {Text: "Permissions"}}},
		"perms":   {Switches: []inspector.Switch{{Text: "Camera"}}},
	}, nil, opts,
		&device.FakeScreen{Name: "privacy", Rows: []device.FakeRow{row(0, "About", ""), row(1, "Permissions", "perms")}},
		&device.FakeScreen{Name: "perms"},
	)

	out := h.explore(t)
	require.True(t, out.Success)
	recs := h.engine.Store.Switches()
	require.Len(t, recs, 1)
	assert.Equal(t, []string{"Permissions", "Camera"}, texts(recs[0].Path))
	assert.Equal(t, opts.TapRetries+1, h.dev.Taps)
	assert.Equal(t, 1, h.dev.Backs)
}

func TestExploreRetriedTapIsVerified(t *testing.T) {
	r := row(0, "Permissions", "perms")
	r.IgnoreTaps = 1
	h := newHarness(map[string]*inspector.Page{
		"privacy": {Layouts: []inspector.Layout{{Text: "Permissions"}}},
		"perms":   {Switches: []inspector.Switch{{Text: "Camera"}}},
	}, nil, DefaultOptions(),
		&device.FakeScreen{Name: "privacy", Rows: []device.FakeRow{r}},
		&device.FakeScreen{Name: "perms"},
	)

	out := h.explore(t)
	require.True(t, out.Success)
	assert.Equal(t, 2, h.dev.Taps)
	assert.Len(t, h.engine.Store.Switches(), 1)
}

func TestExploreLocatesRowRevealedByScrolling(t *testing.T) {
	opts := DefaultOptions()
	r := row(0, "Permissions", "perms")
	r.RevealAfter = opts.ExploreScrolls + 2
	h := newHarness(map[string]*inspector.Page{
		"privacy": {Layouts: []inspector.Layout{{Text: "Permissions"}}},
		"perms":   {Switches: []inspector.Switch{{Text: "Camera"}}},
	}, nil, opts,
		&device.FakeScreen{Name: "privacy", Rows: []device.FakeRow{r}},
		&device.FakeScreen{Name: "perms"},
	)

	out := h.explore(t)
	require.True(t, out.Success)
	assert.Len(t, h.engine.Store.Switches(), 1)
	assert.Equal(t, 2*opts.ExploreScrolls+2, h.dev.Swipes)
}
