package fetch

import (
	"io"
	"strings"

	"golang.org/x/net/html"
)

// Elements whose subtrees carry no readable content. Navigation and page
// chrome are dropped along with code.
var skippedElements = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"nav":      true,
	"footer":   true,
	"header":   true,
	"title":    true,
	"iframe":   true,
}

// extractDoc parses markup and returns the document title and its visible
// text with whitespace collapsed.
func extractDoc(r io.Reader) (title, body string, err error) {
	doc, err := html.Parse(r)
	if err != nil {
		return "", "", err
	}

	title = strings.TrimSpace(extractTitle(doc))

	var sb strings.Builder
	collectText(doc, &sb)
	body = strings.Join(strings.Fields(sb.String()), " ")

	return title, body, nil
}

func extractTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "title" {
		if n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
			return n.FirstChild.Data
		}
		return ""
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := extractTitle(c); t != "" {
			return t
		}
	}
	return ""
}

func collectText(n *html.Node, sb *strings.Builder) {
	if n.Type == html.ElementNode && skippedElements[n.Data] {
		return
	}
	if n.Type == html.TextNode {
		sb.WriteString(n.Data)
		sb.WriteString(" ")
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, sb)
	}
}
