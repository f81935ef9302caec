// Package baseline is a keyword-driven random explorer used as a point of
// comparison for the depth-first traversal.
package baseline

import (
	"context"
	"fmt"
	"io"
	"log"
	"math/rand"
	"strings"
	"time"

	"settingscout/internal/device"
	"settingscout/internal/explore"
	"settingscout/internal/util/jsonutil"
)

// DefaultKeywords select rows that plausibly lead towards privacy settings.
var DefaultKeywords = []string{
	"我", "设置", "隐私", "个性化", "推荐", "广告", "私密", "消息", "权限", "内容",
	"仅我自己", "管理", "直播", "电商", "找到我的方式", "服务", "更多",
}

// DefaultExcluded keeps the explorer away from logout, login and account
// deletion.
var DefaultExcluded = []string{"退出", "登录", "注销"}

const (
	ActionClick            = "CLICK"
	ActionSwipeDown        = "SWIPE_DOWN"
	ActionBackFromExternal = "BACK_FROM_EXTERNAL"
	ActionBackFromStuck    = "BACK_FROM_STUCK"
)

// Device is what the explorer drives.
type Device interface {
	device.Driver
	device.AppController
}

// Action is one line of the JSONL action log. Element fields are null for
// actions that did not target an element.
type Action struct {
	Timestamp    float64 `json:"timestamp"`
	Step         int     `json:"step"`
	ActionType   string  `json:"action_type"`
	Activity     string  `json:"activity"`
	ElementText  *string `json:"element_text"`
	ElementID    *string `json:"element_id"`
	ElementDesc  *string `json:"element_desc"`
	ElementClass *string `json:"element_class"`
}

// Stats summarizes a run.
type Stats struct {
	Steps   int
	Actions map[string]int
}

type Explorer struct {
	Device   Device
	Package  string
	Duration time.Duration
	// MaxSteps stops the run early when positive.
	MaxSteps   int
	Keywords   []string
	Excluded   []string
	StuckLimit int
	Rand       *rand.Rand

	LaunchSettle time.Duration
	StepSettle   time.Duration
	BackSettle   time.Duration
	Wait         explore.WaitFunc
	Now          func() time.Time

	Log    io.Writer
	Logger *log.Logger
}

// New returns an explorer with the usual timings and a fixed seed.
func New(d Device, pkg string, duration time.Duration, out io.Writer, logger *log.Logger) *Explorer {
	if logger == nil {
		logger = log.Default()
	}
	return &Explorer{
		Device:       d,
		Package:      pkg,
		Duration:     duration,
		Keywords:     DefaultKeywords,
		Excluded:     DefaultExcluded,
		StuckLimit:   3,
		Rand:         rand.New(rand.NewSource(42)),
		LaunchSettle: 3 * time.Second,
		StepSettle:   500 * time.Millisecond,
		BackSettle:   time.Second,
		Wait:         explore.Sleep,
		Now:          time.Now,
		Log:          out,
		Logger:       logger,
	}
}

// Run launches the app and explores until the duration elapses, MaxSteps is
// reached or ctx is done. The app is stopped on return.
func (e *Explorer) Run(ctx context.Context) (Stats, error) {
	stats := Stats{Actions: map[string]int{}}
	if err := e.Device.AppStart(ctx, e.Package); err != nil {
		return stats, fmt.Errorf("baseline: start %s: %w", e.Package, err)
	}
	defer func() {
		if err := e.Device.AppStop(context.WithoutCancel(ctx), e.Package); err != nil {
			e.Logger.Printf("baseline: stop %s: %v", e.Package, err)
		}
	}()
	e.Wait(ctx, e.LaunchSettle)

	start := e.Now()
	var lastDump string
	stuck := 0
	for e.Now().Sub(start) < e.Duration && ctx.Err() == nil {
		if e.MaxSteps > 0 && stats.Steps >= e.MaxSteps {
			break
		}
		stats.Steps++
		step := stats.Steps

		app, err := e.Device.CurrentApp(ctx)
		if err != nil {
			return stats, fmt.Errorf("baseline: current app: %w", err)
		}
		activity := firstNonEmpty(app.Activity, "UnknownActivity")

		if app.Package != e.Package {
			e.record(&stats, step, ActionBackFromExternal, activity, nil)
			if err := e.Device.PressBack(ctx); err != nil {
				return stats, err
			}
			e.Wait(ctx, e.BackSettle)
			if now, err := e.Device.CurrentApp(ctx); err == nil && now.Package != e.Package {
				if err := e.Device.AppStart(ctx, e.Package); err != nil {
					return stats, fmt.Errorf("baseline: relaunch %s: %w", e.Package, err)
				}
			}
			continue
		}

		dump, err := e.Device.DumpTree(ctx)
		if err != nil {
			return stats, fmt.Errorf("baseline: dump: %w", err)
		}
		if dump == lastDump {
			stuck++
		} else {
			stuck = 0
		}
		lastDump = dump

		if stuck >= e.StuckLimit {
			e.record(&stats, step, ActionBackFromStuck, activity, nil)
			if err := e.Device.PressBack(ctx); err != nil {
				return stats, err
			}
			stuck = 0
			e.Wait(ctx, e.BackSettle)
			continue
		}

		h, err := device.ParseHierarchy(dump)
		if err != nil {
			return stats, err
		}
		if el, ok := e.pick(h.Clickable()); ok {
			e.record(&stats, step, ActionClick, activity, &el)
			x, y := el.Bounds.Center()
			err = e.Device.Tap(ctx, x, y)
		} else {
			e.record(&stats, step, ActionSwipeDown, activity, nil)
			err = e.swipeDown(ctx)
		}
		if err != nil {
			return stats, err
		}
		e.Wait(ctx, e.StepSettle)
	}
	e.Logger.Printf("baseline: %d steps, actions=%v", stats.Steps, stats.Actions)
	return stats, nil
}

// pick chooses uniformly among clickable elements whose text or description
// contains a keyword and no excluded word.
func (e *Explorer) pick(elems []device.Element) (device.Element, bool) {
	var matches []device.Element
	for _, el := range elems {
		combined := el.Text + " " + el.Description
		if containsAny(combined, e.Excluded) {
			continue
		}
		if containsAny(combined, e.Keywords) {
			matches = append(matches, el)
		}
	}
	if len(matches) == 0 {
		return device.Element{}, false
	}
	return matches[e.Rand.Intn(len(matches))], true
}

// swipeDown drags from 20% to 80% of the screen height.
func (e *Explorer) swipeDown(ctx context.Context) error {
	w, h, err := e.Device.WindowSize(ctx)
	if err != nil {
		return err
	}
	return e.Device.Swipe(ctx, w/2, h/5, w/2, h*4/5, 300*time.Millisecond)
}

func (e *Explorer) record(stats *Stats, step int, kind, activity string, el *device.Element) {
	stats.Actions[kind]++
	if e.Log == nil {
		return
	}
	a := Action{
		Timestamp:  float64(e.Now().UnixNano()) / 1e9,
		Step:       step,
		ActionType: kind,
		Activity:   activity,
	}
	if el != nil {
		a.ElementText = &el.Text
		a.ElementID = &el.ResourceID
		a.ElementDesc = &el.Description
		a.ElementClass = &el.Class
	}
	line, err := jsonutil.MarshalNoEscape(a)
	if err != nil {
		e.Logger.Printf("baseline: encode action: %v", err)
		return
	}
	if _, err := e.Log.Write(append(line, '\n')); err != nil {
		e.Logger.Printf("baseline: write action log: %v", err)
	}
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if w != "" && strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
