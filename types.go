package pubgen

import (
	"strings"
	"time"
)

// OutputExt is the extension of every rendered page.
const OutputExt = ".html"

// Record is one published document. Content is the rendered body and never
// reaches the index; it only lives in the standalone page.
type Record struct {
	ID          int
	Title       string
	Slug        string
	Link        string
	Summary     string
	Date        time.Time
	DateDisplay string
	Tags        []string
	Author      string
	Content     string
}

// SetSlug sets the slug and keeps Link in step with it.
func (r *Record) SetSlug(slug string) {
	r.Slug = slug
	r.Link = slug + OutputExt
}

// Valid reports whether the record has both a title and content.
func (r Record) Valid() bool {
	return strings.TrimSpace(r.Title) != "" && strings.TrimSpace(r.Content) != ""
}
