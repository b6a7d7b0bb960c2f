// Package extract recovers label/value pairs from legacy registry pages.
//
// The registry's markup is not machine-friendly: label/value pairs appear
// as table rows, as <label> elements next to inline text, or as static
// ASP.NET form controls. The extractor walks the document once, in
// document order, resolving each label-bearing node to a section (nearest
// preceding heading), a value (first strategy that resolves wins), links,
// an inferred value type, and an optional preview trigger.
//
// Extraction never fails on malformed content: absent values degrade to
// UNKNOWN records. The only fatal condition is input that cannot be
// parsed into a DOM at all.
package extract

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/openrera/rerapipe/schema"
)

// Extract parses one HTML document into an ordered, lossless
// section/field dump. sourceID is a logical run key carried into the
// result, not necessarily a filesystem path.
func Extract(htmlText, sourceID string) (*schema.RawExtractedProject, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlText))
	if err != nil {
		return nil, fmt.Errorf("extract: parse %s: %w", sourceID, err)
	}

	w := &walker{doc: doc}
	for _, root := range doc.Nodes {
		w.walk(root)
	}

	return &schema.RawExtractedProject{
		SourceFile: sourceID,
		Sections:   w.sections,
	}, nil
}

// walker accumulates sections while traversing the DOM in document order.
type walker struct {
	doc      *goquery.Document
	sections []schema.SectionRecord
	heading  string
}

func (w *walker) addField(f schema.FieldRecord) {
	title := w.heading
	if title == "" {
		title = schema.GeneralSection
	}
	if len(w.sections) == 0 || w.sections[len(w.sections)-1].Title != title {
		w.sections = append(w.sections, schema.SectionRecord{Title: title})
	}
	s := &w.sections[len(w.sections)-1]
	s.Fields = append(s.Fields, f)
}

func (w *walker) walk(n *html.Node) {
	if n.Type == html.ElementNode {
		switch n.DataAtom {
		case atom.Script, atom.Style, atom.Noscript, atom.Head:
			return
		case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
			if t := collapse(nodeText(n)); t != "" {
				w.heading = t
			}
			return
		case atom.B, atom.Strong, atom.Em:
			if isHeadingLike(n) {
				w.heading = collapse(nodeText(n))
				return
			}
		case atom.Label:
			w.addField(w.fieldFromLabel(n))
			return
		case atom.Table:
			w.walkTable(n)
			return
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		w.walk(c)
	}
}

// isHeadingLike reports whether a bold/emphasis node is being used as a
// section heading in this legacy markup. Bolds inside table cells,
// labels, or anchors are values, and a bold ending in ":" is an inline
// label, not a heading.
func isHeadingLike(n *html.Node) bool {
	if p := n.Parent; p != nil {
		switch p.DataAtom {
		case atom.Td, atom.Th, atom.Label, atom.A,
			atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
			return false
		}
	}
	t := collapse(nodeText(n))
	if t == "" || len(t) > 120 {
		return false
	}
	return !strings.HasSuffix(t, ":")
}

// walkTable pairs each row's cells into label/value fields. A
// single-cell row acts as an in-table section heading when its text is
// short; otherwise its contents are walked normally (nested tables,
// stray labels). Only the table's own rows are paired here; rows of
// nested tables are reached through walkSingleCell, never twice.
func (w *walker) walkTable(table *html.Node) {
	for _, row := range tableRows(table) {
		cells := elementChildren(row, atom.Td, atom.Th)
		if len(cells) == 0 {
			continue
		}
		if len(cells) == 1 {
			w.walkSingleCell(cells[0])
			continue
		}
		for i := 0; i+1 < len(cells); i += 2 {
			label := fieldLabel(nodeText(cells[i]))
			if label == "" {
				continue
			}
			w.addField(w.buildField(label, cells[i+1]))
		}
	}
}

// tableRows returns the rows whose nearest ancestor table is this one,
// in document order. The legacy markup nests layout tables routinely,
// and a nested table's rows belong to that table alone.
func tableRows(table *html.Node) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode {
				switch c.DataAtom {
				case atom.Table:
					continue
				case atom.Tr:
					out = append(out, c)
				}
			}
			walk(c)
		}
	}
	walk(table)
	return out
}

func (w *walker) walkSingleCell(cell *html.Node) {
	if containsElement(cell, atom.Table) || containsElement(cell, atom.Label) {
		for c := cell.FirstChild; c != nil; c = c.NextSibling {
			w.walk(c)
		}
		return
	}
	t := collapse(nodeText(cell))
	if t != "" && len(t) <= 120 && !strings.HasSuffix(t, ":") {
		w.heading = t
	}
}

// buildField resolves a value node into a complete FieldRecord: value
// text, links, inferred type, and preview trigger.
func (w *walker) buildField(label string, valueNode *html.Node) schema.FieldRecord {
	value := collapse(nodeText(valueNode))
	if value == "" && valueNode != nil {
		if ctrl := firstControl(valueNode); ctrl != nil {
			value = controlValue(ctrl)
		}
	}

	var links []string
	if valueNode != nil {
		links = collectLinks(valueNode)
	}

	f := schema.FieldRecord{Label: label, Links: links}
	if valueNode != nil {
		if hint, ok := previewTrigger(valueNode); ok {
			f.PreviewPresent = true
			f.PreviewHint = hint
		}
	}
	f.ValueType, f.Value = inferType(value, links)
	return f
}

// fieldLabel collapses whitespace and trims the trailing colon the
// registry appends to most labels.
func fieldLabel(s string) string {
	return strings.TrimSpace(strings.TrimSuffix(collapse(s), ":"))
}

// collapse normalizes runs of whitespace to single spaces and trims, so
// a whitespace-only value degrades to absent rather than an empty string.
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
