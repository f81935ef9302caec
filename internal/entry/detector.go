package entry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"settingscout/internal/device"
	"settingscout/internal/llm"
)

// ErrNoDetection means the detector found no matching icon on the screen.
var ErrNoDetection = errors.New("entry: no detection")

// Scale is the coordinate range of detection boxes.
const Scale = 1000

// Detection is one located icon. Box is [y1, x1, y2, x2] on a 0..Scale grid.
type Detection struct {
	Box   [4]int `json:"box_2d"`
	Label string `json:"label"`
}

// Rect converts the normalized box to pixels for a w x h screen.
func (d Detection) Rect(w, h int) device.Rect {
	return device.Rect{
		Left:   d.Box[1] * w / Scale,
		Top:    d.Box[0] * h / Scale,
		Right:  d.Box[3] * w / Scale,
		Bottom: d.Box[2] * h / Scale,
	}
}

func (d Detection) valid() bool {
	for _, v := range d.Box {
		if v < 0 || v > Scale {
			return false
		}
	}
	return d.Box[2] > d.Box[0] && d.Box[3] > d.Box[1]
}

// Detector finds one entry-point icon in a screenshot.
type Detector interface {
	Detect(ctx context.Context, screenshot []byte) (*Detection, error)
}

const personalPrompt = `Find the element of this mobile app screenshot that opens the user's personal
center ("Me", "My", "Profile", "Account", "More", a person-shaped icon). It is usually in the
bottom navigation bar, most often bottom right, sometimes top left. Keep the box tight around the
icon and its label.

Answer with JSON only:
[{"box_2d": [y1, x1, y2, x2], "label": "personal icon/text"}]
Coordinates are normalized to 0-1000. Answer [] when there is no such element.`

const settingsPrompt = `Find the settings entry of this mobile app screenshot: a gear or hexagon icon,
or an icon labelled "Settings", usually top right. If there is no settings icon, find the menu
icon made of three horizontal lines instead, preferring the top right and top left corners. Keep
the box tight around the icon.

Answer with JSON only:
[{"box_2d": [y1, x1, y2, x2], "label": "setting icon" or "menu icon"}]
Coordinates are normalized to 0-1000. Answer [] when there is neither.`

// IconDetector asks a vision model to locate an icon described by Prompt.
type IconDetector struct {
	LLM           llm.Client
	Prompt        string
	Phase         string
	MaxImageBytes int
}

func NewPersonalDetector(cli llm.Client) *IconDetector {
	return &IconDetector{LLM: cli, Prompt: personalPrompt, Phase: "entry.personal", MaxImageBytes: llm.DefaultMaxImageBytes}
}

func NewSettingsDetector(cli llm.Client) *IconDetector {
	return &IconDetector{LLM: cli, Prompt: settingsPrompt, Phase: "entry.settings", MaxImageBytes: llm.DefaultMaxImageBytes}
}

func (d *IconDetector) Detect(ctx context.Context, screenshot []byte) (*Detection, error) {
	img, err := llm.CompressImage(screenshot, d.MaxImageBytes)
	if err != nil {
		return nil, err
	}
	raw, err := d.LLM.GenerateJSON(llm.WithPhase(ctx, d.Phase), d.Prompt, img)
	if err != nil {
		return nil, fmt.Errorf("entry: %s: %w", d.Phase, err)
	}
	return ParseDetection(raw)
}

// ParseDetection accepts a list of detections or a single object and
// returns the first one with a usable box.
func ParseDetection(raw json.RawMessage) (*Detection, error) {
	var list []Detection
	if err := json.Unmarshal(raw, &list); err != nil {
		var one Detection
		if err2 := json.Unmarshal(raw, &one); err2 != nil {
			return nil, fmt.Errorf("%w: %v", llm.ErrInvalidJSON, err)
		}
		list = []Detection{one}
	}
	for _, d := range list {
		if d.valid() {
			return &d, nil
		}
	}
	return nil, ErrNoDetection
}
