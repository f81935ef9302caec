package explore

import (
	"context"
	"testing"

	"settingscout/internal/device"
	"settingscout/internal/tester"
)

func newLocator(dev device.Driver, attempts int) *Locator {
	return &Locator{
		Device:      dev,
		MaxAttempts: attempts,
		Swipe:       DefaultOptions().LocateSwipe,
		Wait:        NoWait,
	}
}

func TestLocateBoundedAttempts(t *testing.T) {
	dev := device.NewFake("s", &device.FakeScreen{Name: "s", Rows: []device.FakeRow{row(0, "Other", "")}})

	_, ok := newLocator(dev, 4).Locate(context.Background(), "Missing")
	tester.False(t, ok)
	tester.Eq(t, dev.Swipes, 4)
	tester.Eq(t, dev.Dumps, 4)
	tester.Eq(t, dev.Actions[0], "swipe 540,2160->540,600")
}

func TestLocateFallsBackToDescription(t *testing.T) {
	dev := device.NewFake("s", &device.FakeScreen{Name: "s", Rows: []device.FakeRow{
		{Description: "Privacy", Bounds: device.Rect{Left: 0, Top: 100, Right: 200, Bottom: 180}},
	}})

	n, ok := newLocator(dev, 3).Locate(context.Background(), "Privacy")
	tester.True(t, ok)
	tester.Eq(t, n.Description, "Privacy")
	tester.Eq(t, *n.Bounds, device.Rect{Left: 0, Top: 100, Right: 200, Bottom: 180})
	tester.Eq(t, dev.Swipes, 0)
}

func TestLocateEmptyTextNeverMatches(t *testing.T) {
	dev := device.NewFake("s", &device.FakeScreen{Name: "s", Rows: []device.FakeRow{row(0, "", "")}})

	_, ok := newLocator(dev, 3).Locate(context.Background(), "")
	tester.False(t, ok)
	tester.Eq(t, dev.Dumps, 0)
}

func TestVerifierReportsUnchangedTree(t *testing.T) {
	dev := device.NewFake("s",
		&device.FakeScreen{Name: "s", Rows: []device.FakeRow{row(0, "Dead", ""), row(1, "Live", "t")}},
		&device.FakeScreen{Name: "t"},
	)
	v := &Verifier{Device: dev, MaxRetries: 2, Wait: NoWait}

	tester.False(t, v.TapAndVerify(context.Background(), 540, 675))
	tester.Eq(t, dev.Taps, 2)
	tester.True(t, v.TapAndVerify(context.Background(), 540, 875))
	tester.Eq(t, dev.Current(), "t")
}
