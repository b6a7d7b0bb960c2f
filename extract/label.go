package extract

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/openrera/rerapipe/schema"
)

// fieldFromLabel resolves an explicit <label> element into a field using
// the value-resolution priority chain. Whichever strategy resolves first
// wins; later strategies are not attempted.
func (w *walker) fieldFromLabel(labelNode *html.Node) (f schema.FieldRecord) {
	label := fieldLabel(nodeText(labelNode))

	// (a) sibling table cell text.
	if p := labelNode.Parent; p != nil && (p.DataAtom == atom.Td || p.DataAtom == atom.Th) {
		if next := nextElementSibling(p); next != nil && (next.DataAtom == atom.Td || next.DataAtom == atom.Th) {
			return w.buildField(label, next)
		}
	}

	// (b) following inline sibling text nodes.
	if value, links, trigger := inlineSiblingValue(labelNode); value != "" || len(links) > 0 {
		f = schema.FieldRecord{Label: label, Links: links}
		if trigger != nil {
			if hint, ok := previewTrigger(trigger); ok {
				f.PreviewPresent = true
				f.PreviewHint = hint
			}
		}
		f.ValueType, f.Value = inferType(value, links)
		return f
	}

	// (c) nearest form control's rendered value.
	if ctrl := w.controlForLabel(labelNode); ctrl != nil {
		value := controlValue(ctrl)
		f = schema.FieldRecord{Label: label}
		f.ValueType, f.Value = inferType(value, nil)
		return f
	}

	// (d) parent-container text with the label text subtracted.
	if p := labelNode.Parent; p != nil {
		parentText := collapse(nodeText(p))
		labelText := collapse(nodeText(labelNode))
		value := collapse(strings.Replace(parentText, labelText, "", 1))
		value = strings.TrimPrefix(value, ":")
		value = strings.TrimSpace(value)
		f = schema.FieldRecord{Label: label, Links: collectLinks(p)}
		if hint, ok := previewTrigger(p); ok {
			f.PreviewPresent = true
			f.PreviewHint = hint
		}
		f.ValueType, f.Value = inferType(value, f.Links)
		return f
	}

	f = schema.FieldRecord{Label: label, ValueType: schema.ValueUnknown}
	return f
}

// inlineSiblingValue collects text from the label's following inline
// siblings, stopping at the first block-level element. It also returns
// the first anchor-like sibling so preview triggers placed directly
// after a label are detected.
func inlineSiblingValue(labelNode *html.Node) (string, []string, *html.Node) {
	var parts []string
	var links []string
	var trigger *html.Node
	seen := make(map[string]bool)

	for s := labelNode.NextSibling; s != nil; s = s.NextSibling {
		switch s.Type {
		case html.TextNode:
			if t := collapse(s.Data); t != "" {
				parts = append(parts, t)
			}
		case html.ElementNode:
			if isBlockLevel(s) {
				goto done
			}
			switch s.DataAtom {
			case atom.Input, atom.Select, atom.Textarea:
				// Controls belong to the next strategy.
				goto done
			case atom.Br:
				continue
			}
			if t := collapse(nodeText(s)); t != "" {
				parts = append(parts, t)
			}
			for _, href := range collectLinks(s) {
				if !seen[href] {
					seen[href] = true
					links = append(links, href)
				}
			}
			if trigger == nil && (s.DataAtom == atom.A || s.DataAtom == atom.Button) {
				trigger = s
			}
		}
	}
done:
	value := strings.TrimSpace(strings.TrimPrefix(strings.Join(parts, " "), ":"))
	return collapse(value), links, trigger
}

// controlForLabel finds the control a label refers to: its for=
// attribute when present, otherwise the first control under the label's
// parent container.
func (w *walker) controlForLabel(labelNode *html.Node) *html.Node {
	if id := attr(labelNode, "for"); id != "" {
		sel := w.doc.Find("#" + id)
		if len(sel.Nodes) > 0 {
			n := sel.Get(0)
			switch n.DataAtom {
			case atom.Input, atom.Select, atom.Textarea:
				return n
			}
		}
	}
	if p := labelNode.Parent; p != nil {
		return firstControl(p)
	}
	return nil
}

func nextElementSibling(n *html.Node) *html.Node {
	for s := n.NextSibling; s != nil; s = s.NextSibling {
		if s.Type == html.ElementNode {
			return s
		}
	}
	return nil
}
