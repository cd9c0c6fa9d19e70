package jobsuche

import (
	"strings"

	"golang.org/x/net/html"
)

// htmlToText flattens listing descriptions that arrive as HTML fragments.
// Plain text passes through unchanged so its line breaks survive.
func htmlToText(s string) string {
	if !strings.Contains(s, "<") {
		return html.UnescapeString(s)
	}

	doc, err := html.Parse(strings.NewReader(s))
	if err != nil {
		return s
	}

	var builder strings.Builder
	newline := func() {
		if builder.Len() > 0 && !strings.HasSuffix(builder.String(), "\n") {
			builder.WriteString("\n")
		}
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style":
				return
			case "br":
				newline()
				return
			}
		}
		if n.Type == html.TextNode {
			val := strings.TrimSpace(n.Data)
			if val != "" {
				if builder.Len() > 0 && !strings.HasSuffix(builder.String(), "\n") {
					builder.WriteString(" ")
				}
				builder.WriteString(val)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode && isBlock(n.Data) {
			newline()
		}
	}
	walk(doc)
	return strings.TrimSpace(builder.String())
}

func isBlock(tag string) bool {
	switch tag {
	case "p", "div", "li", "ul", "ol", "h1", "h2", "h3", "h4", "h5", "h6", "tr", "table":
		return true
	}
	return false
}
