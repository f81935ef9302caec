package explore

import (
	"context"
	"time"

	"settingscout/internal/device"
)

// Swipe is a vertical gesture at the horizontal centre of the screen, with
// start and end expressed as fractions of the screen height.
type Swipe struct {
	FromY    float64       `yaml:"from_y"`
	ToY      float64       `yaml:"to_y"`
	Duration time.Duration `yaml:"duration"`
}

// Options are the traversal tunables. Every wait is a fixed settle delay
// applied after a state-changing action.
type Options struct {
	// Exploratory scrolls performed on non-popup screens before harvesting.
	ExploreScrolls int           `yaml:"explore_scrolls"`
	ExploreSwipe   Swipe         `yaml:"explore_swipe"`
	ExploreSettle  time.Duration `yaml:"explore_settle"`
	InspectSettle  time.Duration `yaml:"inspect_settle"`

	LocateAttempts int           `yaml:"locate_attempts"`
	LocateSwipe    Swipe         `yaml:"locate_swipe"`
	LocateDelay    time.Duration `yaml:"locate_delay"`

	// SkipSwipe is issued once when a generic layout row cannot be located.
	SkipSwipe  Swipe         `yaml:"skip_swipe"`
	SkipSettle time.Duration `yaml:"skip_settle"`

	TapRetries    int           `yaml:"tap_retries"`
	TapSettle     time.Duration `yaml:"tap_settle"`
	PostTapSettle time.Duration `yaml:"post_tap_settle"`

	// PopupDismissY is the height fraction of the dismiss tap.
	PopupDismissY float64       `yaml:"popup_dismiss_y"`
	PopupSettle   time.Duration `yaml:"popup_settle"`
	BackSettle    time.Duration `yaml:"back_settle"`

	PersonalizationDescent bool `yaml:"personalization_descent"`
}

func DefaultOptions() Options {
	return Options{
		ExploreScrolls: 5,
		ExploreSwipe:   Swipe{FromY: 0.3, ToY: 0.8, Duration: 500 * time.Millisecond},
		ExploreSettle:  800 * time.Millisecond,
		InspectSettle:  500 * time.Millisecond,

		LocateAttempts: 10,
		LocateSwipe:    Swipe{FromY: 0.9, ToY: 0.25, Duration: 300 * time.Millisecond},
		LocateDelay:    500 * time.Millisecond,

		SkipSwipe:  Swipe{FromY: 0.8, ToY: 0.1, Duration: 300 * time.Millisecond},
		SkipSettle: 500 * time.Millisecond,

		TapRetries:    2,
		TapSettle:     time.Second,
		PostTapSettle: time.Second,

		PopupDismissY: 1.0 / 9.0,
		PopupSettle:   2 * time.Second,
		BackSettle:    time.Second,

		PersonalizationDescent: true,
	}
}

// WaitFunc blocks for d to let the UI settle.
type WaitFunc func(ctx context.Context, d time.Duration)

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// NoWait returns immediately; tests use it with in-memory devices.
func NoWait(context.Context, time.Duration) {}

func swipeOnce(ctx context.Context, d device.Driver, s Swipe) error {
	w, h, err := d.WindowSize(ctx)
	if err != nil {
		return err
	}
	x := w / 2
	return d.Swipe(ctx, x, int(float64(h)*s.FromY), x, int(float64(h)*s.ToY), s.Duration)
}
