package markdown

import (
	"bufio"
	"bytes"
	"fmt"
	"strings"

	"github.com/adrg/frontmatter"
)

// Header holds the key/value pairs of a document's header block. Keys are
// lower-cased; values are trimmed and unquoted.
type Header map[string]string

// Get returns the value for key, treating blank values as absent.
func (h Header) Get(key string) (string, bool) {
	v, ok := h[key]
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// headerFormat recognizes a header fenced by two "---" lines. The block is
// parsed line by line rather than as YAML: lines without a colon are ignored
// and values may contain further colons.
var headerFormat = frontmatter.NewFormat("---", "---", unmarshalHeader)

// SplitHeader separates the optional header block at the start of raw from
// the body. Without a header the whole input is returned as the body.
func SplitHeader(raw string) (Header, string) {
	h := Header{}
	body, err := frontmatter.Parse(strings.NewReader(raw), &h, headerFormat)
	if err != nil {
		return Header{}, raw
	}
	return h, string(body)
}

func unmarshalHeader(data []byte, v any) error {
	h, ok := v.(*Header)
	if !ok {
		return fmt.Errorf("header: unsupported target %T", v)
	}
	if *h == nil {
		*h = Header{}
	}
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		key, value, found := strings.Cut(sc.Text(), ":")
		if !found {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		if key == "" {
			continue
		}
		(*h)[key] = Unquote(strings.TrimSpace(value))
	}
	return sc.Err()
}

// Unquote strips one layer of matching single or double quotes.
func Unquote(s string) string {
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if (first == '"' || first == '\'') && first == last {
			return s[1 : len(s)-1]
		}
	}
	return s
}
