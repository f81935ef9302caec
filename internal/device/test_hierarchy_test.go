package device

import (
	"context"
	"testing"

	"settingscout/internal/tester"
)

const sampleDump = `<?xml version='1.0' encoding='UTF-8' standalone='yes' ?>
<hierarchy rotation="0">
  <node index="0" text="" resource-id="" class="android.widget.FrameLayout" package="com.example" content-desc="" clickable="false" bounds="[0,0][1080,2400]">
    <node index="0" text="Privacy" resource-id="com.example:id/row" class="android.widget.TextView" package="com.example" content-desc="" clickable="true" bounds="[0,300][1080,420]" />
    <node index="1" text="" resource-id="" class="android.widget.ImageView" package="com.example" content-desc="Settings" clickable="true" bounds="[960,80][1040,160]">
      <node index="0" text="Privacy" class="android.widget.TextView" package="com.example" content-desc="" clickable="false" bounds="[0,0][0,0]" />
    </node>
  </node>
</hierarchy>`

func TestParseHierarchyFlattensInDocumentOrder(t *testing.T) {
	h, err := ParseHierarchy(sampleDump)
	tester.NoErr(t, err)
	tester.Len(t, h.Elements, 4)
	tester.Eq(t, h.Elements[1].Text, "Privacy")
	tester.Eq(t, h.Elements[1].Bounds, Rect{Left: 0, Top: 300, Right: 1080, Bottom: 420})
	tester.Eq(t, h.Elements[2].Description, "Settings")
}

func TestHierarchyFindByTextReturnsFirstMatch(t *testing.T) {
	h, err := ParseHierarchy(sampleDump)
	tester.NoErr(t, err)
	e, ok := h.FindByText("Privacy")
	tester.True(t, ok, "privacy row found")
	tester.Eq(t, e.ResourceID, "com.example:id/row")

	e, ok = h.FindByDescription("Settings")
	tester.True(t, ok, "settings icon found")
	x, y := e.Bounds.Center()
	tester.Eq(t, [2]int{x, y}, [2]int{1000, 120})

	_, ok = h.FindByText("Missing")
	tester.False(t, ok, "missing text must not match")
}

func TestHierarchyClickableSkipsEmptyBounds(t *testing.T) {
	h, err := ParseHierarchy(sampleDump)
	tester.NoErr(t, err)
	tester.Len(t, h.Clickable(), 2)
}

func TestParseHierarchyRejectsGarbage(t *testing.T) {
	_, err := ParseHierarchy("not xml")
	tester.True(t, err != nil, "expected parse error")
}

func TestParseBounds(t *testing.T) {
	r, err := ParseBounds("[10,20][110,220]")
	tester.NoErr(t, err)
	tester.Eq(t, r.String(), "[10,20][110,220]")
	tester.True(t, r.Contains(10, 20), "top-left is inside")
	tester.False(t, r.Contains(110, 220), "bottom-right is exclusive")

	_, err = ParseBounds("10,20,110,220")
	tester.True(t, err != nil, "expected malformed bounds error")
}

func TestFakeNavigatesAndDismissesPopups(t *testing.T) {
	ctx := context.Background()
	f := NewFake("home",
		&FakeScreen{Name: "home", Rows: []FakeRow{
			{Text: "Ads", Bounds: Rect{0, 500, 1080, 600}, Target: "consent"},
			{Text: "Later", Bounds: Rect{0, 700, 1080, 800}, RevealAfter: 1},
		}},
		&FakeScreen{Name: "consent", Popup: true, DismissOnOutsideTap: true},
	)
	before, _ := f.DumpTree(ctx)
	h, err := ParseHierarchy(before)
	tester.NoErr(t, err)
	_, ok := h.FindByText("Later")
	tester.False(t, ok, "hidden until swiped")

	tester.NoErr(t, f.Tap(ctx, 540, 550))
	tester.Eq(t, f.Current(), "consent")
	tester.NoErr(t, f.Tap(ctx, 540, 266))
	tester.Eq(t, f.Current(), "home")

	tester.NoErr(t, f.Swipe(ctx, 540, 2000, 540, 600, 0))
	after, _ := f.DumpTree(ctx)
	h, err = ParseHierarchy(after)
	tester.NoErr(t, err)
	_, ok = h.FindByText("Later")
	tester.True(t, ok, "revealed after one swipe")
	tester.Eq(t, f.Taps, 2)
}
