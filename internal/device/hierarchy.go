package device

import (
	"encoding/xml"
	"fmt"
	"strings"
)

// Element is one node of a dumped UI hierarchy.
type Element struct {
	Text        string `json:"text,omitempty"`
	Description string `json:"description,omitempty"`
	ResourceID  string `json:"resource_id,omitempty"`
	Class       string `json:"class,omitempty"`
	Package     string `json:"package,omitempty"`
	Clickable   bool   `json:"clickable"`
	Bounds      Rect   `json:"bounds"`
}

// Hierarchy is the flattened, document-ordered view of a uiautomator dump.
type Hierarchy struct {
	Elements []Element
}

type xmlNode struct {
	Text        string    `xml:"text,attr"`
	ContentDesc string    `xml:"content-desc,attr"`
	ResourceID  string    `xml:"resource-id,attr"`
	Class       string    `xml:"class,attr"`
	Package     string    `xml:"package,attr"`
	Clickable   string    `xml:"clickable,attr"`
	Bounds      string    `xml:"bounds,attr"`
	Children    []xmlNode `xml:"node"`
}

type xmlHierarchy struct {
	XMLName xml.Name  `xml:"hierarchy"`
	Nodes   []xmlNode `xml:"node"`
}

// ParseHierarchy decodes a uiautomator XML dump. Nodes whose bounds cannot
// be parsed keep a zero Rect.
func ParseHierarchy(raw string) (*Hierarchy, error) {
	var doc xmlHierarchy
	if err := xml.Unmarshal([]byte(strings.TrimSpace(raw)), &doc); err != nil {
		return nil, fmt.Errorf("device: parse hierarchy: %w", err)
	}
	h := &Hierarchy{}
	var walk func(nodes []xmlNode)
	walk = func(nodes []xmlNode) {
		for _, n := range nodes {
			r, _ := ParseBounds(n.Bounds)
			h.Elements = append(h.Elements, Element{
				Text:        n.Text,
				Description: n.ContentDesc,
				ResourceID:  n.ResourceID,
				Class:       n.Class,
				Package:     n.Package,
				Clickable:   n.Clickable == "true",
				Bounds:      r,
			})
			walk(n.Children)
		}
	}
	walk(doc.Nodes)
	return h, nil
}

// FindByText returns the first element whose text equals text exactly.
func (h *Hierarchy) FindByText(text string) (Element, bool) {
	return h.find(func(e Element) bool { return e.Text == text })
}

// FindByDescription returns the first element whose content description
// equals desc exactly.
func (h *Hierarchy) FindByDescription(desc string) (Element, bool) {
	return h.find(func(e Element) bool { return e.Description == desc })
}

// Clickable returns every clickable element with a non-empty area.
func (h *Hierarchy) Clickable() []Element {
	if h == nil {
		return nil
	}
	out := make([]Element, 0, len(h.Elements))
	for _, e := range h.Elements {
		if e.Clickable && !e.Bounds.Empty() {
			out = append(out, e)
		}
	}
	return out
}

func (h *Hierarchy) find(match func(Element) bool) (Element, bool) {
	if h == nil || len(h.Elements) == 0 {
		return Element{}, false
	}
	for _, e := range h.Elements {
		if match(e) {
			return e, true
		}
	}
	return Element{}, false
}
