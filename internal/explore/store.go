package explore

import (
	"settingscout/internal/inspector"
	"settingscout/internal/report"
)

// SwitchRecord is a toggle together with the path that reached it. Path
// ends with the switch node itself and never aliases the live stack.
type SwitchRecord struct {
	inspector.Switch
	Path []Node
}

// LayoutRecord is a personalization layout row and the path ending at it.
type LayoutRecord struct {
	Text string
	Path []Node
}

// Store accumulates discovery records in discovery order. Records are never
// removed or deduplicated here.
type Store struct {
	switches            []SwitchRecord
	personalitySwitches []SwitchRecord
	personalityLayouts  []LayoutRecord
}

func NewStore() *Store {
	return &Store{}
}

func switchRecord(prefix []Node, sw inspector.Switch) SwitchRecord {
	path := make([]Node, 0, len(prefix)+1)
	path = append(path, cloneNodes(prefix)...)
	s := sw
	path = append(path, Node{Text: sw.Text, Switch: &s})
	return SwitchRecord{Switch: sw, Path: path}
}

// RecordSwitch stores prefix + [sw] as a privacy switch.
func (s *Store) RecordSwitch(prefix []Node, sw inspector.Switch) {
	s.switches = append(s.switches, switchRecord(prefix, sw))
}

// RecordPersonalitySwitch stores prefix + [sw] as a personalization switch.
func (s *Store) RecordPersonalitySwitch(prefix []Node, sw inspector.Switch) {
	s.personalitySwitches = append(s.personalitySwitches, switchRecord(prefix, sw))
}

// RecordPersonalityLayout stores a path whose last node is the layout row.
func (s *Store) RecordPersonalityLayout(path []Node) {
	var text string
	if len(path) > 0 {
		text = path[len(path)-1].Text
	}
	s.personalityLayouts = append(s.personalityLayouts, LayoutRecord{Text: text, Path: cloneNodes(path)})
}

func (s *Store) Switches() []SwitchRecord {
	return cloneSwitchRecords(s.switches)
}

func (s *Store) PersonalitySwitches() []SwitchRecord {
	return cloneSwitchRecords(s.personalitySwitches)
}

func (s *Store) PersonalityLayouts() []LayoutRecord {
	out := make([]LayoutRecord, len(s.personalityLayouts))
	for i, r := range s.personalityLayouts {
		out[i] = LayoutRecord{Text: r.Text, Path: cloneNodes(r.Path)}
	}
	return out
}

// Len is the total number of records of every kind.
func (s *Store) Len() int {
	return len(s.switches) + len(s.personalitySwitches) + len(s.personalityLayouts)
}

func cloneSwitchRecords(in []SwitchRecord) []SwitchRecord {
	out := make([]SwitchRecord, len(in))
	for i, r := range in {
		out[i] = SwitchRecord{Switch: r.Switch, Path: cloneNodes(r.Path)}
	}
	return out
}

// Finalize flattens every record path, in discovery order, into a report.
func (s *Store) Finalize() report.Report {
	rep := report.New()
	for _, r := range s.switches {
		rep.PrivacySwitches = append(rep.PrivacySwitches, flattenPath(r.Path)...)
	}
	for _, r := range s.personalitySwitches {
		rep.Personality.PersonalitySwitches = append(rep.Personality.PersonalitySwitches, flattenPath(r.Path)...)
	}
	for _, r := range s.personalityLayouts {
		for _, n := range r.Path {
			ln := report.LayoutNode{Text: n.Text}
			if n.Bounds != nil {
				ln.Bounds = n.Bounds.String()
			}
			rep.Personality.PersonalityLayouts = append(rep.Personality.PersonalityLayouts, ln)
		}
	}
	return rep
}

func flattenPath(path []Node) []report.PathNode {
	out := make([]report.PathNode, 0, len(path))
	for _, n := range path {
		pn := report.PathNode{Text: n.Text}
		if n.Bounds != nil {
			pn.Bounds = n.Bounds.String()
		}
		if n.Switch != nil {
			pn.SwitchState = &report.SwitchState{
				CurrentState:     n.Switch.CurrentState,
				RecommendedState: n.Switch.RecommendedState,
				Analysis:         n.Switch.Analysis,
			}
		}
		out = append(out, pn)
	}
	return out
}
