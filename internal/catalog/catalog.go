// Package catalog loads per-locale resource catalogs and resolves strings
// through a culture fallback chain.
package catalog

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
)

const rootElement = "root"

// Catalog is one locale's key to string table. It is read-only once parsed.
type Catalog struct {
	path    string
	entries map[string]string
}

// Path returns the document the catalog was parsed from.
func (c *Catalog) Path() string {
	if c == nil {
		return ""
	}
	return c.path
}

// Len returns the number of defined keys.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.entries)
}

// Lookup answers root/data[name=key]/value. Keys are case-sensitive; an
// empty value is a valid hit.
func (c *Catalog) Lookup(key string) (string, bool) {
	if c == nil {
		return "", false
	}
	v, ok := c.entries[key]
	return v, ok
}

type dataElement struct {
	Name  string  `xml:"name,attr"`
	Value *string `xml:"value"`
}

// LoadFile reads and parses the resource document at path.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ParseError{Path: path, Cause: err}
	}
	c, err := Parse(data)
	if err != nil {
		var pe *ParseError
		if errors.As(err, &pe) {
			pe.Path = path
		}
		return nil, err
	}
	c.path = path
	return c, nil
}

// Parse decodes a resx-style document:
//
//	<root><data name="Key"><value>Text</value></data></root>
//
// Elements other than data are skipped. The first data element for a key
// wins; a data element without a value child does not define its key.
func Parse(data []byte) (*Catalog, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	c := &Catalog{entries: make(map[string]string)}

	depth := 0
	sawRoot := false
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &ParseError{Cause: err}
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if depth == 0 {
				if t.Name.Local != rootElement {
					return nil, &ParseError{Cause: fmt.Errorf("unexpected root element <%s>", t.Name.Local)}
				}
				sawRoot = true
				depth++
				continue
			}
			if depth == 1 && t.Name.Local == "data" {
				var d dataElement
				if err := dec.DecodeElement(&d, &t); err != nil {
					return nil, &ParseError{Cause: err}
				}
				if d.Value == nil {
					continue
				}
				if _, exists := c.entries[d.Name]; !exists {
					c.entries[d.Name] = *d.Value
				}
				continue
			}
			if err := dec.Skip(); err != nil {
				return nil, &ParseError{Cause: err}
			}
		case xml.EndElement:
			depth--
		}
	}

	if !sawRoot {
		return nil, &ParseError{Cause: errors.New("document has no root element")}
	}
	return c, nil
}
