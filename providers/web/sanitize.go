// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package web

import (
	"strings"

	"golang.org/x/net/html"
)

// minParagraphRunes filters out stubs like "Read more" or bare dates.
const minParagraphRunes = 20

// skippedElements never contribute readable text.
var skippedElements = map[string]struct{}{
	"script":   {},
	"style":    {},
	"nav":      {},
	"header":   {},
	"footer":   {},
	"aside":    {},
	"noscript": {},
	"iframe":   {},
	"form":     {},
}

// contentSelector identifies a likely main-content container.
type contentSelector struct {
	tag   string
	id    string
	class string
}

// contentSelectors are tried in order; the first match wins.
var contentSelectors = []contentSelector{
	{tag: "article"},
	{tag: "main"},
	{id: "content"},
	{class: "content"},
	{class: "post"},
	{class: "article"},
	{class: "entry"},
}

// extractContent reduces a parsed page to its title and readable text.
// Text comes from paragraphs of the main-content container (or the whole
// body when no container matches); pages without substantial paragraphs
// fall back to the container's collapsed text.
func extractContent(doc *html.Node) (title, text string) {
	if node := findElement(doc, "title"); node != nil {
		title = collapseSpace(innerText(node))
	}

	container := findElement(doc, "body")
	if container == nil {
		container = doc
	}
	for _, sel := range contentSelectors {
		if node := findBySelector(container, sel); node != nil {
			container = node
			break
		}
	}

	paragraphs := harvestParagraphs(container)
	if len(paragraphs) > 0 {
		return title, strings.Join(paragraphs, "\n\n")
	}
	return title, collapseSpace(readableText(container))
}

// harvestParagraphs collects the collapsed text of each substantial <p>
// under the container, in document order.
func harvestParagraphs(container *html.Node) []string {
	var paragraphs []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if _, skip := skippedElements[n.Data]; skip {
				return
			}
			if n.Data == "p" {
				if text := collapseSpace(innerText(n)); len([]rune(text)) > minParagraphRunes {
					paragraphs = append(paragraphs, text)
				}
				return
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(container)
	return paragraphs
}

// readableText concatenates text nodes, skipping non-content elements.
func readableText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if _, skip := skippedElements[n.Data]; skip {
				return
			}
		}
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			sb.WriteString(" ")
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n)
	return sb.String()
}

// findElement returns the first element with the given tag, or nil.
func findElement(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if found := findElement(child, tag); found != nil {
			return found
		}
	}
	return nil
}

// findBySelector returns the first element matching the selector, or nil.
func findBySelector(n *html.Node, sel contentSelector) *html.Node {
	if n.Type == html.ElementNode && matchesSelector(n, sel) {
		return n
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if found := findBySelector(child, sel); found != nil {
			return found
		}
	}
	return nil
}

func matchesSelector(n *html.Node, sel contentSelector) bool {
	if sel.tag != "" {
		return n.Data == sel.tag
	}
	if sel.id != "" {
		return attrValue(n, "id") == sel.id
	}
	return hasClass(n, sel.class)
}

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
