package testsupport

import (
	"strings"
	"testing"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ParseHTML parses a rendered fragment and returns a root holding its
// nodes.
func ParseHTML(t *testing.T, markup string) *html.Node {
	t.Helper()

	root := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(markup), root)
	if err != nil {
		t.Fatalf("parse html: %v", err)
	}
	for _, node := range nodes {
		root.AppendChild(node)
	}
	return root
}

// FindAll returns the element nodes below root matching match, in
// document order.
func FindAll(root *html.Node, match func(*html.Node) bool) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && match(n) {
			out = append(out, n)
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(root)
	return out
}

// FindByID returns the element with id or nil.
func FindByID(root *html.Node, id string) *html.Node {
	found := FindAll(root, func(n *html.Node) bool { return Attr(n, "id") == id })
	if len(found) == 0 {
		return nil
	}
	return found[0]
}

// MustFindByID fails the test when no element carries id.
func MustFindByID(t *testing.T, root *html.Node, id string) *html.Node {
	t.Helper()

	node := FindByID(root, id)
	if node == nil {
		t.Fatalf("no element with id %q", id)
	}
	return node
}

// FindByName returns the elements whose name attribute is name.
func FindByName(root *html.Node, name string) []*html.Node {
	return FindAll(root, func(n *html.Node) bool { return Attr(n, "name") == name })
}

// FindByClass returns the elements carrying class.
func FindByClass(root *html.Node, class string) []*html.Node {
	return FindAll(root, func(n *html.Node) bool {
		for _, c := range strings.Fields(Attr(n, "class")) {
			if c == class {
				return true
			}
		}
		return false
	})
}

// Attr returns the attribute key of n, or "".
func Attr(n *html.Node, key string) string {
	if n == nil {
		return ""
	}
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

// HasAttr reports whether n carries key, with or without a value.
func HasAttr(n *html.Node, key string) bool {
	if n == nil {
		return false
	}
	for _, attr := range n.Attr {
		if attr.Key == key {
			return true
		}
	}
	return false
}

// Text returns the collapsed text content of n.
func Text(n *html.Node) string {
	if n == nil {
		return ""
	}
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.TextNode {
			b.WriteString(node.Data)
		}
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(b.String()), " ")
}
