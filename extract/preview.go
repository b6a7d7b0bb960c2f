package extract

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// previewVocabulary is the small set of visible texts that mark a
// button/link as a document preview trigger rather than a value.
var previewVocabulary = map[string]bool{
	"preview":  true,
	"view":     true,
	"download": true,
}

// previewTrigger scans a value subtree for a preview trigger and returns
// the hint used later to resolve it: a CSS selector when the trigger
// carries an id or class, else its literal visible text, else its href
// when directly navigable.
func previewTrigger(n *html.Node) (string, bool) {
	t := findTrigger(n)
	if t == nil {
		return "", false
	}
	if id := attr(t, "id"); id != "" {
		return "#" + id, true
	}
	if class := attr(t, "class"); class != "" {
		if first := strings.Fields(class); len(first) > 0 {
			return "." + first[0], true
		}
	}
	if text := collapse(nodeText(t)); text != "" {
		return text, true
	}
	if text := collapse(attr(t, "value")); text != "" {
		return text, true
	}
	if href := attr(t, "href"); isNavigable(href) {
		return href, true
	}
	return "", false
}

func findTrigger(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && isTrigger(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := findTrigger(c); t != nil {
			return t
		}
	}
	return nil
}

func isTrigger(n *html.Node) bool {
	switch n.DataAtom {
	case atom.A:
		text := strings.ToLower(collapse(nodeText(n)))
		if previewVocabulary[text] {
			return true
		}
		href := strings.TrimSpace(attr(n, "href"))
		// A bare postback anchor is a trigger even without vocabulary text.
		return strings.HasPrefix(strings.ToLower(href), "javascript:") || href == "#"
	case atom.Button:
		return previewVocabulary[strings.ToLower(collapse(nodeText(n)))]
	case atom.Input:
		typ := strings.ToLower(attr(n, "type"))
		if typ != "button" && typ != "submit" && typ != "image" {
			return false
		}
		return previewVocabulary[strings.ToLower(collapse(attr(n, "value")))]
	}
	return false
}

// isNavigable reports whether an href can be fetched directly, as
// opposed to javascript:, mailto:, tel:, or a bare fragment.
func isNavigable(href string) bool {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return false
	}
	lower := strings.ToLower(href)
	for _, p := range []string{"javascript:", "mailto:", "tel:", "about:"} {
		if strings.HasPrefix(lower, p) {
			return false
		}
	}
	return true
}
