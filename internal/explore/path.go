package explore

import (
	"settingscout/internal/device"
	"settingscout/internal/inspector"
)

// Node identifies one step of a navigation path. Bounds is optional: rows
// found during traversal are recorded by text only. Switch is set on the
// terminal node of a switch record.
type Node struct {
	Text        string
	Description string
	Bounds      *device.Rect
	Switch      *inspector.Switch
}

func (n Node) clone() Node {
	if n.Bounds != nil {
		b := *n.Bounds
		n.Bounds = &b
	}
	if n.Switch != nil {
		s := *n.Switch
		n.Switch = &s
	}
	return n
}

func cloneNodes(in []Node) []Node {
	out := make([]Node, len(in))
	for i, n := range in {
		out[i] = n.clone()
	}
	return out
}

// Path is the live root-to-current stack owned by a single traversal.
// Entries are added with Push, which hands back the matching pop.
type Path struct {
	nodes  []Node
	pushes int
	pops   int
}

// NewPath seeds the stack with an entry prefix. Seeded nodes are not
// counted as pushes.
func NewPath(prefix ...Node) *Path {
	return &Path{nodes: cloneNodes(prefix)}
}

// Push appends n and returns a function that removes it again. The returned
// function is idempotent, so it can be both deferred and called early.
func (p *Path) Push(n Node) (pop func()) {
	depth := len(p.nodes)
	p.nodes = append(p.nodes, n.clone())
	p.pushes++
	done := false
	return func() {
		if done {
			return
		}
		done = true
		p.nodes = p.nodes[:depth]
		p.pops++
	}
}

func (p *Path) Len() int { return len(p.nodes) }

// Snapshot returns a deep copy of the current stack.
func (p *Path) Snapshot() []Node {
	return cloneNodes(p.nodes)
}

// Balance returns how many pushes and pops happened so far.
func (p *Path) Balance() (pushes, pops int) {
	return p.pushes, p.pops
}
