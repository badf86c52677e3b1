// Package xmlenc converts ordered tag trees into indented XML documents and
// reads flat XML documents back into field maps.
package xmlenc

import (
	"strings"
)

// Prolog is the XML declaration emitted at the top of request documents.
const Prolog = `<?xml version="1.0" encoding="UTF-8"?>`

// Node is a value in an ordered tree: Text, Raw or Map.
type Node interface {
	isNode()
}

// Text is a leaf value. It is escaped on output and omitted when empty.
type Text string

// Raw is a literal XML line written as is, without a tag.
type Raw string

// Entry is one tag in a Map. Raw values ignore Tag.
type Entry struct {
	Tag   string
	Value Node
}

// Map is an ordered mapping of tag name to node.
type Map []Entry

func (Text) isNode() {}
func (Raw) isNode()  {}
func (Map) isNode()  {}

var escaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#39;",
)

// Escape replaces &, <, >, and quote characters with character entities.
func Escape(s string) string {
	return escaper.Replace(s)
}

// Encode renders doc as XML, two spaces of indent per nesting level.
// Entries whose value is nil, an empty Text or an empty Map are omitted.
func Encode(doc Map) string {
	var b strings.Builder
	encodeMap(&b, doc, 0)
	return b.String()
}

func encodeMap(b *strings.Builder, m Map, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, e := range m {
		switch v := e.Value.(type) {
		case Raw:
			b.WriteString(indent)
			b.WriteString(string(v))
			b.WriteByte('\n')
		case Map:
			if len(v) == 0 {
				continue
			}
			b.WriteString(indent)
			b.WriteString("<" + e.Tag + ">\n")
			encodeMap(b, v, depth+1)
			b.WriteString(indent)
			b.WriteString("</" + e.Tag + ">\n")
		case Text:
			if v == "" {
				continue
			}
			b.WriteString(indent)
			b.WriteString("<" + e.Tag + ">" + Escape(string(v)) + "</" + e.Tag + ">\n")
		}
	}
}
