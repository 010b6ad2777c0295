package render

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

var reSpaces = regexp.MustCompile(`\s+`)

var blockElements = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true,
	"dd": true, "details": true, "div": true, "dl": true, "dt": true,
	"fieldset": true, "figcaption": true, "figure": true, "footer": true,
	"form": true, "h1": true, "h2": true, "h3": true, "h4": true, "h5": true,
	"h6": true, "header": true, "hr": true, "li": true, "main": true,
	"nav": true, "ol": true, "p": true, "pre": true, "section": true,
	"summary": true, "table": true, "td": true, "th": true, "tr": true,
	"ul": true,
}

var hiddenElements = map[string]bool{
	"head": true, "noscript": true, "script": true, "style": true,
	"template": true, "svg": true,
}

// VisibleText approximates the browser's innerText: block elements
// start new lines, whitespace inside a line collapses to one space.
func VisibleText(node *html.Node) string {
	var b strings.Builder

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			b.WriteString(reSpaces.ReplaceAllString(n.Data, " "))
			return
		case html.CommentNode:
			return
		case html.ElementNode:
			if hiddenElements[n.Data] {
				return
			}
			if n.Data == "br" {
				b.WriteByte('\n')
				return
			}
		}

		block := n.Type == html.ElementNode && blockElements[n.Data]
		if block {
			b.WriteByte('\n')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if block {
			b.WriteByte('\n')
		}
	}
	walk(node)

	lines := strings.Split(b.String(), "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}

	return strings.Join(out, "\n")
}
