package inspector

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"settingscout/internal/device"
	"settingscout/internal/llm"
	"settingscout/internal/util/jsonutil"
)

const classifyPrompt = `You are auditing the privacy settings of a mobile app. The attached image is a
screenshot of the screen currently displayed.

Classify the screen and answer with one JSON object, no prose:
{
  "isPopup": bool,              // true when a modal dialog, sheet or overlay covers the page
  "switches": [                 // privacy-related toggles visible on the screen
    {"text": str, "current_state": "on"|"off", "recommended_state": "on"|"off", "analysis": str}
  ],
  "personalization": {
    "switches": [ ...same shape, toggles about personalized ads or recommendations... ],
    "layouts":  [ {"text": str} ]   // rows leading to ad/content personalization pages
  },
  "layouts": [ {"text": str} ]      // other rows that open privacy, permission or account settings pages
}

Rules:
- "text" must be the exact label shown on screen so it can be found in the UI tree.
- recommended_state is the privacy-preserving state; analysis explains it in one sentence.
- Do not list logout, account deletion, login, payment or external links as layouts.
- Use empty arrays when nothing applies.`

// Vision classifies screenshots with a vision model.
type Vision struct {
	LLM           llm.Client
	MaxImageBytes int
	Logger        *log.Logger
}

func NewVision(cli llm.Client, logger *log.Logger) *Vision {
	if logger == nil {
		logger = log.Default()
	}
	return &Vision{LLM: cli, MaxImageBytes: llm.DefaultMaxImageBytes, Logger: logger}
}

// rawPage keeps every top-level field optional so an empty reply can be told
// apart from a screen with nothing on it.
type rawPage struct {
	IsPopup         *bool            `json:"isPopup"`
	Switches        []Switch         `json:"switches"`
	Personalization *Personalization `json:"personalization"`
	Layouts         []Layout         `json:"layouts"`
}

func (v *Vision) Inspect(ctx context.Context, d device.Driver) (*Page, error) {
	shot, err := d.Screenshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("inspector: screenshot: %w", err)
	}
	img, err := llm.CompressImage(shot, v.MaxImageBytes)
	if err != nil {
		return nil, err
	}
	raw, err := v.LLM.GenerateJSON(llm.WithPhase(ctx, "inspect"), classifyPrompt, img)
	if err != nil {
		return nil, fmt.Errorf("inspector: classify: %w", err)
	}
	page, err := ParsePage(raw)
	if err != nil {
		return nil, err
	}
	v.Logger.Printf("inspect: popup=%v switches=%d personalization=%d/%d layouts=%d",
		page.IsPopup, len(page.Switches), len(page.Personalization.Switches),
		len(page.Personalization.Layouts), len(page.Layouts))
	return page, nil
}

// ParsePage decodes a classification reply. Entries without text are dropped
// and missing arrays become empty; a reply with no known field at all is
// ErrNoClassification.
func ParsePage(raw json.RawMessage) (*Page, error) {
	var rp rawPage
	if err := jsonutil.UnmarshalFlex(raw, &rp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoClassification, err)
	}
	if rp.IsPopup == nil && rp.Switches == nil && rp.Personalization == nil && rp.Layouts == nil {
		return nil, ErrNoClassification
	}
	p := &Page{
		Switches: cleanSwitches(rp.Switches),
		Layouts:  cleanLayouts(rp.Layouts),
	}
	if rp.IsPopup != nil {
		p.IsPopup = *rp.IsPopup
	}
	if rp.Personalization != nil {
		p.Personalization.Switches = cleanSwitches(rp.Personalization.Switches)
		p.Personalization.Layouts = cleanLayouts(rp.Personalization.Layouts)
	} else {
		p.Personalization = Personalization{Switches: []Switch{}, Layouts: []Layout{}}
	}
	return p, nil
}

func cleanSwitches(in []Switch) []Switch {
	out := make([]Switch, 0, len(in))
	for _, s := range in {
		s.Text = strings.TrimSpace(s.Text)
		if s.Text == "" {
			continue
		}
		s.CurrentState = strings.ToLower(strings.TrimSpace(s.CurrentState))
		s.RecommendedState = strings.ToLower(strings.TrimSpace(s.RecommendedState))
		out = append(out, s)
	}
	return out
}

func cleanLayouts(in []Layout) []Layout {
	out := make([]Layout, 0, len(in))
	for _, l := range in {
		l.Text = strings.TrimSpace(l.Text)
		if l.Text == "" {
			continue
		}
		out = append(out, l)
	}
	return out
}
