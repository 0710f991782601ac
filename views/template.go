package views

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/a-h/templ"
)

// ErrTemplate is returned for page templates missing a placeholder.
var ErrTemplate = errors.New("invalid page template")

// Placeholders recognized in a page template. All of them are required.
const (
	PlaceholderTitle       = "{{ARTICLE_TITLE}}"
	PlaceholderSummary     = "{{ARTICLE_SUMMARY}}"
	PlaceholderContent     = "{{ARTICLE_CONTENT}}"
	PlaceholderTags        = "{{ARTICLE_TAGS}}"
	PlaceholderAuthor      = "{{ARTICLE_AUTHOR}}"
	PlaceholderDate        = "{{ARTICLE_DATE}}"
	PlaceholderDateDisplay = "{{ARTICLE_DATE_DISPLAY}}"
)

var requiredPlaceholders = []string{
	PlaceholderTitle,
	PlaceholderSummary,
	PlaceholderContent,
	PlaceholderTags,
	PlaceholderAuthor,
	PlaceholderDate,
	PlaceholderDateDisplay,
}

// Template is a user-supplied HTML skeleton with {{ARTICLE_*}} placeholders.
type Template struct {
	text string
}

// ParseTemplate validates that text carries every placeholder.
func ParseTemplate(text string) (*Template, error) {
	var missing []string
	for _, p := range requiredPlaceholders {
		if !strings.Contains(text, p) {
			missing = append(missing, p)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing %s", ErrTemplate, strings.Join(missing, ", "))
	}
	return &Template{text: text}, nil
}

// Component fills the template for p in a single pass, so values that
// happen to contain placeholders are left alone.
func (t *Template) Component(p Page) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		r := strings.NewReplacer(
			PlaceholderTitle, templ.EscapeString(p.Title),
			PlaceholderSummary, templ.EscapeString(p.Summary),
			PlaceholderContent, p.Content,
			PlaceholderTags, TagsHTML(p.Tags),
			PlaceholderAuthor, templ.EscapeString(p.Author),
			PlaceholderDateDisplay, templ.EscapeString(p.DateDisplay),
			PlaceholderDate, p.Date,
		)
		_, err := r.WriteString(w, t.text)
		return err
	})
}
