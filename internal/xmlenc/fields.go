package xmlenc

import (
	"bytes"
	"encoding/xml"
	"io"

	"github.com/cockroachdb/errors"
	"golang.org/x/net/html/charset"
)

// ErrNoRoot is returned when a document has no root element.
var ErrNoRoot = errors.New("xml document has no root element")

// ParseFields reads a document and returns the text of each direct child of
// the root element, keyed by local tag name. Text of nested elements is
// folded into their top-level child. When a tag repeats, the first one wins.
// Values are returned untrimmed. Documents declaring a non-UTF-8 encoding
// are decoded to UTF-8 first.
func ParseFields(data []byte) (map[string]string, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.CharsetReader = charset.NewReaderLabel

	fields := make(map[string]string)
	depth := 0
	rootSeen := false
	rootClosed := false
	var current string
	var text bytes.Buffer

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "parse xml")
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if rootClosed {
				return nil, errors.Newf("unexpected element <%s> after root", t.Name.Local)
			}
			depth++
			switch depth {
			case 1:
				rootSeen = true
			case 2:
				current = t.Name.Local
				text.Reset()
			}
		case xml.EndElement:
			if depth == 2 {
				if _, dup := fields[current]; !dup {
					fields[current] = text.String()
				}
			}
			depth--
			if depth == 0 {
				rootClosed = true
			}
		case xml.CharData:
			if depth >= 2 {
				text.Write(t)
			} else if depth == 0 && len(bytes.TrimSpace(t)) > 0 {
				return nil, errors.New("text outside root element")
			}
		}
	}

	if !rootSeen {
		return nil, ErrNoRoot
	}
	return fields, nil
}
