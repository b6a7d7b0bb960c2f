package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// nodeText collects the visible text of a subtree, skipping scripts and
// styles. Form controls contribute nothing here; their rendered value is
// read separately by controlValue.
func nodeText(n *html.Node) string {
	if n == nil {
		return ""
	}
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			t := strings.TrimSpace(n.Data)
			if t != "" {
				if sb.Len() > 0 {
					sb.WriteByte(' ')
				}
				sb.WriteString(t)
			}
			return
		}
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Script, atom.Style, atom.Noscript,
				atom.Select, atom.Textarea, atom.Input:
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

// elementDescendants returns all descendant elements with the given atom,
// in document order.
func elementDescendants(n *html.Node, a atom.Atom) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && c.DataAtom == a {
				out = append(out, c)
			}
			walk(c)
		}
	}
	walk(n)
	return out
}

// elementChildren returns the direct element children matching any of
// the given atoms.
func elementChildren(n *html.Node, atoms ...atom.Atom) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		for _, a := range atoms {
			if c.DataAtom == a {
				out = append(out, c)
				break
			}
		}
	}
	return out
}

func containsElement(n *html.Node, a atom.Atom) bool {
	return len(elementDescendants(n, a)) > 0
}

// firstControl returns the first form control under n, if any.
func firstControl(n *html.Node) *html.Node {
	var found *html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if found != nil {
			return
		}
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Input, atom.Select, atom.Textarea:
				found = n
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return found
}

// controlValue reads the rendered value of a static form control:
// input[value], the selected option's text (first option when none is
// marked selected), or textarea text.
func controlValue(ctrl *html.Node) string {
	switch ctrl.DataAtom {
	case atom.Input:
		return collapse(attr(ctrl, "value"))
	case atom.Textarea:
		return collapse(rawText(ctrl))
	case atom.Select:
		options := elementDescendants(ctrl, atom.Option)
		for _, o := range options {
			if _, ok := lookupAttr(o, "selected"); ok {
				return collapse(rawText(o))
			}
		}
		if len(options) > 0 {
			return collapse(rawText(options[0]))
		}
	}
	return ""
}

// rawText collects text nodes without the control-skipping of nodeText.
func rawText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

// collectLinks gathers every href under n, de-duplicated and
// order-preserving.
func collectLinks(n *html.Node) []string {
	var links []string
	seen := make(map[string]bool)
	sel := goquery.NewDocumentFromNode(n).Find("a[href]")
	sel.Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || seen[href] {
			return
		}
		seen[href] = true
		links = append(links, href)
	})
	return links
}

func attr(n *html.Node, key string) string {
	v, _ := lookupAttr(n, key)
	return v
}

func lookupAttr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func isBlockLevel(n *html.Node) bool {
	switch n.DataAtom {
	case atom.Div, atom.P, atom.Table, atom.Tr, atom.Td, atom.Th,
		atom.Ul, atom.Ol, atom.Li, atom.Form, atom.Fieldset, atom.Section,
		atom.Article, atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
		return true
	}
	return false
}
