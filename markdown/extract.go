package markdown

import (
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

// DateLayout is the machine form of a calendar date.
const DateLayout = "2006-01-02"

const (
	DefaultAuthor             = "Sept3rd"
	DefaultSummaryPlaceholder = "暂无摘要"
	DefaultDateDisplayLayout  = "2006年01月02日"

	summaryLimit = 100
)

var (
	reTitle      = regexp.MustCompile(`(?m)^#[ \t]+(.+)$`)
	reQuote      = regexp.MustCompile(`(?m)^>[ \t]*(.+)$`)
	reParagraphs = regexp.MustCompile(`\n\s*\n`)
	reEmphasis   = regexp.MustCompile("[*_`#>-]")
	reExtension  = regexp.MustCompile(`\.[^.]+$`)
	reTagBracket = regexp.MustCompile(`[\[\]]`)
	reTagSep     = regexp.MustCompile(`[,;]`)
)

// Metadata is everything derived from a document except the rendered body.
type Metadata struct {
	Title       string
	Summary     string
	Date        time.Time
	DateDisplay string
	Tags        []string
	Author      string
}

// Extractor derives Metadata from raw documents. The zero value is usable and
// falls back to the package defaults.
type Extractor struct {
	Author             string
	SummaryPlaceholder string
	DateDisplayLayout  string
	Now                func() time.Time
	Logger             *slog.Logger
}

// Extract splits raw into header and body and resolves every metadata field.
// filename is only used for the title fallback.
func (e *Extractor) Extract(raw, filename string) (Metadata, string) {
	header, body := SplitHeader(raw)
	date := e.date(header)
	meta := Metadata{
		Title:       Title(header, body, filename),
		Summary:     Summary(header, body, e.placeholder()),
		Date:        date,
		DateDisplay: date.Format(e.displayLayout()),
		Tags:        Tags(header),
		Author:      e.author(header),
	}
	return meta, body
}

// Title resolves the title: header, first level-1 heading, then filename.
func Title(h Header, body, filename string) string {
	if v, ok := h.Get("title"); ok {
		return v
	}
	if m := reTitle.FindStringSubmatch(body); m != nil {
		if t := strings.TrimSpace(m[1]); t != "" {
			return t
		}
	}
	if filename == "" {
		return ""
	}
	name := reExtension.ReplaceAllString(filepath.Base(filename), "")
	return strings.NewReplacer("-", " ", "_", " ").Replace(name)
}

// Summary resolves the summary: header summary or description, first
// blockquote line, first plain paragraph, then placeholder.
func Summary(h Header, body, placeholder string) string {
	if v, ok := h.Get("summary"); ok {
		return v
	}
	if v, ok := h.Get("description"); ok {
		return v
	}
	if m := reQuote.FindStringSubmatch(body); m != nil {
		if s := strings.TrimSpace(m[1]); s != "" {
			return s
		}
	}
	for _, p := range reParagraphs.Split(body, -1) {
		p = strings.TrimSpace(p)
		if p == "" || strings.HasPrefix(p, "#") {
			continue
		}
		clean := strings.TrimSpace(reEmphasis.ReplaceAllString(p, ""))
		if clean == "" {
			continue
		}
		return truncate(clean, summaryLimit)
	}
	return placeholder
}

// Tags splits the header tags on commas or semicolons, dropping brackets
// and empty entries. Order is preserved; duplicates are kept.
func Tags(h Header) []string {
	tags := []string{}
	v, ok := h.Get("tags")
	if !ok {
		return tags
	}
	for _, part := range reTagSep.Split(reTagBracket.ReplaceAllString(v, ""), -1) {
		if t := strings.TrimSpace(Unquote(strings.TrimSpace(part))); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

func (e *Extractor) date(h Header) time.Time {
	v, ok := h.Get("date")
	if ok {
		d, err := time.Parse(DateLayout, v)
		if err == nil {
			return d
		}
		e.logger().Warn("unparseable header date, using today", slog.String("date", v), slog.Any("error", err))
	}
	return Today(e.Now)
}

func (e *Extractor) author(h Header) string {
	if v, ok := h.Get("author"); ok {
		return v
	}
	if e.Author != "" {
		return e.Author
	}
	return DefaultAuthor
}

func (e *Extractor) placeholder() string {
	if e.SummaryPlaceholder != "" {
		return e.SummaryPlaceholder
	}
	return DefaultSummaryPlaceholder
}

func (e *Extractor) displayLayout() string {
	if e.DateDisplayLayout != "" {
		return e.DateDisplayLayout
	}
	return DefaultDateDisplayLayout
}

func (e *Extractor) logger() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.Default()
}

// Today truncates now() to a calendar date in UTC.
func Today(now func() time.Time) time.Time {
	if now == nil {
		now = time.Now
	}
	y, m, d := now().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	r := []rune(s)
	return string(r[:limit]) + "..."
}
