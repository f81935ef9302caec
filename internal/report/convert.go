package report

import "fmt"

// Step is a replay step addressed by bounds.
type Step struct {
	Bounds   string `json:"bounds"`
	Turnback string `json:"turnback"`
}

// SwitchStep is a replay step addressed by text.
type SwitchStep struct {
	Text     string `json:"text"`
	Turnback string `json:"turnback"`
}

// ReplayConfig is the deduplicated form consumed by the replay tooling.
type ReplayConfig struct {
	Steps  []Step       `json:"steps"`
	Switch []SwitchStep `json:"switch"`
}

type flatItem struct {
	text   string
	bounds string
}

// Convert deduplicates a report by (text, bounds) and splits it into steps
// (entries with bounds) and switches (text-only entries). Order is layouts,
// then personality switches, then privacy switches.
func Convert(rep Report) ReplayConfig {
	items := make([]flatItem, 0, len(rep.PrivacySwitches)+len(rep.Personality.PersonalitySwitches)+len(rep.Personality.PersonalityLayouts))
	for _, n := range rep.Personality.PersonalityLayouts {
		items = append(items, flatItem{text: n.Text, bounds: n.Bounds})
	}
	for _, n := range rep.Personality.PersonalitySwitches {
		items = append(items, flatItem{text: n.Text, bounds: n.Bounds})
	}
	for _, n := range rep.PrivacySwitches {
		items = append(items, flatItem{text: n.Text, bounds: n.Bounds})
	}

	out := ReplayConfig{Steps: []Step{}, Switch: []SwitchStep{}}
	seen := make(map[string]struct{}, len(items))
	for _, it := range items {
		key := fmt.Sprintf("%s_%s", it.text, it.bounds)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		switch {
		case it.bounds != "":
			out.Steps = append(out.Steps, Step{Bounds: it.bounds, Turnback: "false"})
		case it.text != "":
			out.Switch = append(out.Switch, SwitchStep{Text: it.text, Turnback: "false"})
		}
	}
	return out
}
