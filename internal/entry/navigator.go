package entry

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"settingscout/internal/artifact"
	"settingscout/internal/device"
	"settingscout/internal/explore"
)

// Stage is one hop from the launch screen towards the settings tree.
type Stage struct {
	Name     string
	Text     string
	Detector Detector
}

// DefaultStages goes to the personal center, then to its settings icon.
func DefaultStages(personal, settings Detector) []Stage {
	return []Stage{
		{Name: "personal", Text: "我的", Detector: personal},
		{Name: "settings", Text: "设置", Detector: settings},
	}
}

// Navigator taps through the entry stages and reports the path it took.
type Navigator struct {
	Device device.Driver
	Stages []Stage
	// Store receives a screenshot after every tap; nil disables it.
	Store  artifact.Store
	RunID  string
	Settle time.Duration
	Wait   explore.WaitFunc
	Now    func() time.Time
	Logger *log.Logger
}

func NewNavigator(d device.Driver, stages []Stage, store artifact.Store, runID string, logger *log.Logger) *Navigator {
	if logger == nil {
		logger = log.Default()
	}
	return &Navigator{
		Device: d,
		Stages: stages,
		Store:  store,
		RunID:  runID,
		Settle: 2 * time.Second,
		Wait:   explore.Sleep,
		Now:    time.Now,
		Logger: logger,
	}
}

// Navigate runs every stage in order. A stage whose icon is not detected is
// skipped. Any other failure, from the device or the detector, stops
// navigation and returns the prefix collected so far together with the
// error.
func (n *Navigator) Navigate(ctx context.Context) ([]explore.Node, error) {
	var prefix []explore.Node
	w, h, err := n.Device.WindowSize(ctx)
	if err != nil {
		return prefix, fmt.Errorf("entry: window size: %w", err)
	}
	for _, st := range n.Stages {
		shot, err := n.Device.Screenshot(ctx)
		if err != nil {
			return prefix, fmt.Errorf("entry: %s: screenshot: %w", st.Name, err)
		}
		det, err := st.Detector.Detect(ctx, shot)
		if errors.Is(err, ErrNoDetection) {
			n.Logger.Printf("entry: %s: no icon found", st.Name)
			continue
		}
		if err != nil {
			return prefix, fmt.Errorf("entry: %s: detect: %w", st.Name, err)
		}
		r := det.Rect(w, h)
		x, y := r.Center()
		n.Logger.Printf("entry: %s: %q at %s, tapping (%d,%d)", st.Name, det.Label, r, x, y)
		if err := n.Device.Tap(ctx, x, y); err != nil {
			return prefix, fmt.Errorf("entry: %s: tap: %w", st.Name, err)
		}
		prefix = append(prefix, explore.Node{Text: st.Text, Bounds: &r})
		n.wait(ctx)
		n.saveScreenshot(ctx, st.Name)
	}
	return prefix, nil
}

func (n *Navigator) wait(ctx context.Context) {
	if n.Wait == nil {
		explore.Sleep(ctx, n.Settle)
		return
	}
	n.Wait(ctx, n.Settle)
}

func (n *Navigator) saveScreenshot(ctx context.Context, stage string) {
	if n.Store == nil {
		return
	}
	shot, err := n.Device.Screenshot(ctx)
	if err != nil {
		n.Logger.Printf("entry: %s: post-tap screenshot: %v", stage, err)
		return
	}
	now := time.Now
	if n.Now != nil {
		now = n.Now
	}
	path := fmt.Sprintf("screens/%s_clicked_%d.png", stage, now().Unix())
	if err := n.Store.Put(ctx, n.RunID, path, shot); err != nil {
		n.Logger.Printf("entry: %s: store screenshot: %v", stage, err)
	}
}
