package scrapers

import (
	"strings"

	"golang.org/x/net/html"
)

// Utility functions for HTML parsing

// hasClass matches className case-insensitively as a substring of the
// class attribute, so "venue" also matches "event-venue__name".
func hasClass(node *html.Node, className string) bool {
	for _, attr := range node.Attr {
		if attr.Key == "class" && strings.Contains(strings.ToLower(attr.Val), className) {
			return true
		}
	}
	return false
}

func hasAttribute(node *html.Node, attrName string) bool {
	for _, attr := range node.Attr {
		if attr.Key == attrName {
			return true
		}
	}
	return false
}

func getAttribute(node *html.Node, attrName string) string {
	for _, attr := range node.Attr {
		if attr.Key == attrName {
			return attr.Val
		}
	}
	return ""
}

// findNode returns the first element in document order matching match.
func findNode(node *html.Node, match func(*html.Node) bool) *html.Node {
	if node.Type == html.ElementNode && match(node) {
		return node
	}

	for c := node.FirstChild; c != nil; c = c.NextSibling {
		if result := findNode(c, match); result != nil {
			return result
		}
	}

	return nil
}

func findNodes(node *html.Node, match func(*html.Node) bool) []*html.Node {
	var nodes []*html.Node

	var find func(*html.Node)
	find = func(n *html.Node) {
		if n.Type == html.ElementNode && match(n) {
			nodes = append(nodes, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			find(c)
		}
	}

	find(node)
	return nodes
}

func findNodeByClass(node *html.Node, className string) *html.Node {
	return findNode(node, func(n *html.Node) bool { return hasClass(n, className) })
}

func findNodeByTag(node *html.Node, tagName string) *html.Node {
	return findNode(node, func(n *html.Node) bool { return n.Data == tagName })
}

func findNodeByAttribute(node *html.Node, attrName string) *html.Node {
	return findNode(node, func(n *html.Node) bool { return hasAttribute(n, attrName) })
}

// metaContent returns the content of the first <meta property=...> or
// <meta name=...> tag for key.
func metaContent(doc *html.Node, key string) string {
	meta := findNode(doc, func(n *html.Node) bool {
		return n.Data == "meta" && (getAttribute(n, "property") == key || getAttribute(n, "name") == key)
	})
	if meta == nil {
		return ""
	}
	return strings.TrimSpace(getAttribute(meta, "content"))
}

func getTextContent(node *html.Node) string {
	if node.Type == html.TextNode {
		return node.Data
	}

	var text strings.Builder
	for c := node.FirstChild; c != nil; c = c.NextSibling {
		text.WriteString(getTextContent(c))
	}

	return text.String()
}
