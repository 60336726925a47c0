package report

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var tableAtoms = map[atom.Atom]bool{
	atom.Table:    true,
	atom.Caption:  true,
	atom.Thead:    true,
	atom.Tbody:    true,
	atom.Tfoot:    true,
	atom.Tr:       true,
	atom.Th:       true,
	atom.Td:       true,
	atom.Colgroup: true,
	atom.Col:      true,
	atom.Br:       true,
}

var keptAttrs = map[string]bool{
	"colspan": true,
	"rowspan": true,
}

// SanitizeTable reduces service-provided table markup to plain table
// structure. Unknown elements are unwrapped, keeping their text; scripts
// and styles are dropped with their content; only colspan and rowspan
// attributes survive.
func SanitizeTable(markup string) (string, error) {
	ctx := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(markup), ctx)
	if err != nil {
		return "", fmt.Errorf("parsing table markup: %w", err)
	}
	var buf bytes.Buffer
	for _, n := range nodes {
		if err := writeClean(&buf, n); err != nil {
			return "", err
		}
	}
	return buf.String(), nil
}

func writeClean(buf *bytes.Buffer, n *html.Node) error {
	switch n.Type {
	case html.TextNode:
		buf.WriteString(html.EscapeString(n.Data))
		return nil
	case html.ElementNode:
	default:
		return nil
	}
	if n.DataAtom == atom.Script || n.DataAtom == atom.Style {
		return nil
	}
	if !tableAtoms[n.DataAtom] {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if err := writeClean(buf, c); err != nil {
				return err
			}
		}
		return nil
	}

	clean := &html.Node{Type: html.ElementNode, Data: n.Data, DataAtom: n.DataAtom}
	for _, a := range n.Attr {
		if keptAttrs[strings.ToLower(a.Key)] && a.Namespace == "" {
			clean.Attr = append(clean.Attr, html.Attribute{Key: a.Key, Val: a.Val})
		}
	}
	// Render open and close tags separately so children go through the filter.
	var tag bytes.Buffer
	if err := html.Render(&tag, clean); err != nil {
		return err
	}
	open, closing := splitTag(tag.String(), n.Data)
	buf.WriteString(open)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if err := writeClean(buf, c); err != nil {
			return err
		}
	}
	buf.WriteString(closing)
	return nil
}

// splitTag splits "<td a="b"></td>" into its open and close tags. Void
// elements render without a close tag.
func splitTag(rendered, name string) (string, string) {
	closing := "</" + name + ">"
	if strings.HasSuffix(rendered, closing) {
		return strings.TrimSuffix(rendered, closing), closing
	}
	return rendered, ""
}
