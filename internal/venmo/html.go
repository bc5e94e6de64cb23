package venmo

import (
	"strings"

	"golang.org/x/net/html"
)

// noteTemplateHTML walks the known notification-template layout: the note
// sits in the third paragraph of the first div inside a th, within a table
// nested in a center element of an outer table.
func noteTemplateHTML(c noteContext) (string, bool) {
	doc := parseHTML(c.html)
	if doc == nil {
		return "", false
	}
	for _, table := range findAll(doc, "table") {
		for _, center := range findAll(table, "center") {
			for _, inner := range findAll(center, "table") {
				for _, th := range findAll(inner, "th") {
					divs := findAll(th, "div")
					if len(divs) == 0 {
						continue
					}
					paragraphs := findAll(divs[0], "p")
					if len(paragraphs) < 3 {
						continue
					}
					note := strings.TrimSpace(textContent(paragraphs[2]))
					if len(note) > 3 && !containsAnyFold(note, c.excluded) &&
						!strings.Contains(strings.ToLower(note), "paid you") {
						return note, true
					}
				}
			}
		}
	}
	return "", false
}

// noteAnyParagraph scans every paragraph in the HTML body for the first one
// that does not look like template boilerplate.
func noteAnyParagraph(c noteContext) (string, bool) {
	doc := parseHTML(c.html)
	if doc == nil {
		return "", false
	}
	for _, p := range findAll(doc, "p") {
		note := strings.TrimSpace(textContent(p))
		lower := strings.ToLower(note)
		if len(note) > 5 &&
			!containsAnyFold(note, c.excluded) &&
			!strings.Contains(lower, "paid you") &&
			!strings.Contains(lower, "venmo") &&
			!strings.Contains(note, "$") &&
			!strings.Contains(lower, "http") {
			return note, true
		}
	}
	return "", false
}

func parseHTML(s string) *html.Node {
	if s == "" {
		return nil
	}
	doc, err := html.Parse(strings.NewReader(s))
	if err != nil {
		return nil
	}
	return doc
}

// findAll returns every descendant element with the given tag, in document
// order.
func findAll(root *html.Node, tag string) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && c.Data == tag {
				out = append(out, c)
			}
			walk(c)
		}
	}
	walk(root)
	return out
}

// textContent concatenates the text nodes under n, the way a browser's
// textContent does.
func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}
