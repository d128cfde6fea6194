// pkg/telemetry/xml.go - fallback extraction from phase elements anywhere in the XML tree.

package telemetry

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/windowsadmins/wasetupreport/pkg/phase"
	"golang.org/x/net/html/charset"
)

// element is a minimal XML tree node. Text holds the character data that
// precedes the first child element.
type element struct {
	Local    string
	Attrs    []xml.Attr
	Children []*element
	Text     string
}

// ExtractXML parses content as XML and returns one Entry per phase element
// found at any depth. Matching ignores namespaces and case. When a phase
// occurs more than once the last element wins, while entries keep the order
// in which each phase was first seen.
func ExtractXML(content []byte) ([]Entry, error) {
	root, err := parseTree(content)
	if err != nil {
		return nil, err
	}

	var order []string
	found := make(map[string]*element)
	walk(root, func(e *element) {
		name, ok := phase.Canonical(e.Local)
		if !ok {
			return
		}
		if _, seen := found[name]; !seen {
			order = append(order, name)
		}
		found[name] = e
	})

	entries := make([]Entry, 0, len(order))
	for _, name := range order {
		e := found[name]
		entry := Entry{
			Phase:     name,
			StartTime: textOrAttr(e, "StartTime"),
			EndTime:   textOrAttr(e, "EndTime"),
		}
		if tick := textOrAttr(e, "TickCount"); tick != nil {
			entry.TickCount = *tick
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func parseTree(content []byte) (*element, error) {
	dec := xml.NewDecoder(bytes.NewReader(content))
	dec.CharsetReader = charsetReader

	var (
		root  *element
		stack []*element
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parsing XML: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			e := &element{Local: t.Name.Local, Attrs: t.Attr}
			if len(stack) > 0 {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, e)
			} else if root == nil {
				root = e
			} else {
				return nil, errors.New("parsing XML: junk after document element")
			}
			stack = append(stack, e)
		case xml.EndElement:
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(stack) == 0 {
				if len(bytes.TrimSpace(t)) > 0 {
					return nil, errors.New("parsing XML: text outside document element")
				}
				continue
			}
			if top := stack[len(stack)-1]; len(top.Children) == 0 {
				top.Text += string(t)
			}
		}
	}

	if root == nil {
		return nil, errors.New("parsing XML: no element found")
	}
	return root, nil
}

// charsetReader handles the encoding declaration. Content has already been
// transcoded to UTF-8 when it carried a UTF-16 byte order mark.
func charsetReader(label string, input io.Reader) (io.Reader, error) {
	if strings.HasPrefix(strings.ToLower(label), "utf-16") {
		return input, nil
	}
	return charset.NewReaderLabel(label, input)
}

func walk(e *element, fn func(*element)) {
	fn(e)
	for _, c := range e.Children {
		walk(c, fn)
	}
}

// textOrAttr reads a field from the first direct child element with a
// matching name (case-insensitive) when its text is non-empty, else from a
// matching attribute.
func textOrAttr(e *element, key string) *string {
	for _, c := range e.Children {
		if strings.EqualFold(c.Local, key) {
			if text := strings.TrimSpace(c.Text); text != "" {
				return &text
			}
			break
		}
	}
	for _, a := range e.Attrs {
		if strings.EqualFold(a.Name.Local, key) {
			if v := strings.TrimSpace(a.Value); v != "" {
				return &v
			}
		}
	}
	return nil
}
