package explore

import (
	"context"
	"log"
	"time"

	"settingscout/internal/device"
)

// Verifier taps a coordinate and checks that the UI tree changed.
//
// A tap that lands on a screen structurally identical to the previous one
// is indistinguishable from a missed tap and is reported as unverified.
type Verifier struct {
	Device     device.Driver
	MaxRetries int
	Settle     time.Duration
	Wait       WaitFunc
	Logger     *log.Logger
}

// TapAndVerify compares the tree dumped before the first tap against the
// tree after each attempt and returns true on the first difference.
func (v *Verifier) TapAndVerify(ctx context.Context, x, y int) bool {
	wait := v.Wait
	if wait == nil {
		wait = Sleep
	}
	before, err := v.Device.DumpTree(ctx)
	if err != nil {
		v.logf("verify: dump before tap failed: %v", err)
		return false
	}
	for attempt := 1; attempt <= v.MaxRetries; attempt++ {
		if err := v.Device.Tap(ctx, x, y); err != nil {
			v.logf("verify: tap (%d,%d) attempt %d failed: %v", x, y, attempt, err)
			continue
		}
		wait(ctx, v.Settle)
		after, err := v.Device.DumpTree(ctx)
		if err != nil {
			v.logf("verify: dump after tap failed: %v", err)
			continue
		}
		if after != before {
			return true
		}
	}
	return false
}

func (v *Verifier) logf(format string, args ...any) {
	if v.Logger != nil {
		v.Logger.Printf(format, args...)
	}
}
