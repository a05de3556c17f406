package vector

import (
	"encoding/xml"
	"io"
	"regexp"
	"strings"

	"golang.org/x/text/encoding/htmlindex"

	"github.com/matzehuels/reefgrid/pkg/errors"
)

// Parser turns markup into a Document.
type Parser interface {
	Name() string
	Parse(markup string, f Filter) (Document, error)
}

// DefaultParsers is the order Parse tries parsers in.
var DefaultParsers = []Parser{XMLParser{}, ScanParser{}}

// Parse extracts rectangles using the first parser that yields at least
// one. It never fails: when every parser comes up empty the returned
// Document has no rects, which tells callers to use the raster strategy.
// The last parser error, if any, is kept in Document.Err.
func Parse(markup string, f Filter, parsers ...Parser) Document {
	if strings.TrimSpace(markup) == "" {
		return Document{}
	}
	if len(parsers) == 0 {
		parsers = DefaultParsers
	}

	var last Document
	var lastErr error
	for _, p := range parsers {
		doc, err := p.Parse(markup, f)
		if err != nil {
			lastErr = err
			continue
		}
		if len(doc.Rects) > 0 {
			doc.Err = lastErr
			return doc
		}
		last = doc
	}
	last.Err = lastErr
	return last
}

// =============================================================================
// Structured parser
// =============================================================================

// XMLParser walks the element tree with encoding/xml. Rectangles anywhere
// in the tree are collected; the view box is read from the root element.
type XMLParser struct{}

// Name implements Parser.
func (XMLParser) Name() string { return "xml" }

// Parse implements Parser. Malformed markup is a PARSE_MALFORMED error.
func (XMLParser) Parse(markup string, f Filter) (Document, error) {
	dec := xml.NewDecoder(strings.NewReader(markup))
	dec.CharsetReader = charsetReader

	doc := Document{Method: "xml"}
	var stack []attrs
	root := false

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Document{}, errors.Wrap(errors.ErrCodeParseMalformed, err, "decode markup")
		}

		switch t := tok.(type) {
		case xml.StartElement:
			a := attrsOf(t.Attr)
			if !root {
				root = true
				if sp, ok := parseViewBox(a["viewBox"]); ok {
					doc.Space = &sp
				}
			}
			stack = append(stack, a)
			if t.Name.Local == "rect" {
				if r, ok := a.rect(f); ok {
					r.Group = groupOf(stack)
					doc.Rects = append(doc.Rects, r)
				}
			}
		case xml.EndElement:
			stack = stack[:len(stack)-1]
		}
	}

	if !root {
		return Document{}, errors.New(errors.ErrCodeParseMalformed, "markup has no root element")
	}
	return doc, nil
}

// groupOf resolves the group of the innermost element of stack. An explicit
// data-group anywhere on the ancestor chain wins; otherwise the nearest id,
// including the element's own, is used.
func groupOf(stack []attrs) string {
	for i := len(stack) - 1; i >= 0; i-- {
		if g := stack[i]["data-group"]; g != "" {
			return g
		}
	}
	for i := len(stack) - 1; i >= 0; i-- {
		if id := stack[i]["id"]; id != "" {
			return id
		}
	}
	return ""
}

func attrsOf(list []xml.Attr) attrs {
	a := make(attrs, len(list))
	for _, at := range list {
		a[at.Name.Local] = at.Value
	}
	return a
}

func charsetReader(label string, input io.Reader) (io.Reader, error) {
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, err
	}
	return enc.NewDecoder().Reader(input), nil
}

// =============================================================================
// Textual scan
// =============================================================================

var (
	rectTagRe = regexp.MustCompile(`(?is)<rect\b[^>]*>`)
	attrRe    = regexp.MustCompile(`([A-Za-z_][-A-Za-z0-9_:.]*)\s*=\s*(?:"([^"]*)"|'([^']*)')`)
	viewBoxRe = regexp.MustCompile(`viewBox\s*=\s*["']([^"']+)["']`)
)

// ScanParser finds <rect> tags with regular expressions. It tolerates
// markup that is not well-formed XML but cannot see the element tree, so
// rectangles it returns carry no group.
type ScanParser struct{}

// Name implements Parser.
func (ScanParser) Name() string { return "scan" }

// Parse implements Parser. It never returns an error.
func (ScanParser) Parse(markup string, f Filter) (Document, error) {
	doc := Document{Method: "scan"}
	for _, tag := range rectTagRe.FindAllString(markup, -1) {
		a := make(attrs)
		for _, m := range attrRe.FindAllStringSubmatch(tag, -1) {
			v := m[2]
			if v == "" {
				v = m[3]
			}
			a[m[1]] = v
		}
		if r, ok := a.rect(f); ok {
			doc.Rects = append(doc.Rects, r)
		}
	}
	if m := viewBoxRe.FindStringSubmatch(markup); m != nil {
		if sp, ok := parseViewBox(m[1]); ok {
			doc.Space = &sp
		}
	}
	return doc, nil
}
