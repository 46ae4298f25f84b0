package duckduckgo

import (
	"strings"

	"golang.org/x/net/html"
)

// hasClass reports whether the element's class attribute contains the
// given class token.
func hasClass(n *html.Node, class string) bool {
	for _, token := range strings.Fields(attrValue(n, "class")) {
		if token == class {
			return true
		}
	}
	return false
}

// findByClass returns the first descendant element with the given tag and
// class token, or nil.
func findByClass(n *html.Node, tag, class string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag && hasClass(n, class) {
		return n
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if found := findByClass(child, tag, class); found != nil {
			return found
		}
	}
	return nil
}

// attrValue returns the value of the named attribute, or "".
func attrValue(n *html.Node, name string) string {
	for _, attr := range n.Attr {
		if attr.Key == name {
			return attr.Val
		}
	}
	return ""
}

// innerText concatenates all text nodes under n.
func innerText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n)
	return sb.String()
}

// collapseSpace trims the text and collapses runs of whitespace to single
// spaces.
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
