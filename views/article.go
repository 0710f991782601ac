package views

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

// Article is the built-in article page.
func Article(cfg SiteConfig, p Page) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		pw := &pageWriter{w: w}
		pw.raw(`<!DOCTYPE html>
<html lang="zh-CN">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>`)
		pw.text(p.Title)
		if cfg.Name != "" {
			pw.raw(" | ")
			pw.text(cfg.Name)
		}
		pw.raw("</title>\n")
		pw.raw(`<meta name="description" content="`)
		pw.text(p.Summary)
		pw.raw(`">` + "\n")
		pw.raw(`<meta name="author" content="`)
		pw.text(p.Author)
		pw.raw(`">` + "\n")
		pw.raw(`<script type="application/ld+json">`)
		pw.raw(BlogPostingJsonLD(cfg, p))
		pw.raw("</script>\n</head>\n<body>\n<article>\n<header>\n<h1>")
		pw.text(p.Title)
		pw.raw("</h1>\n<div class=\"article-meta\">\n")
		pw.raw(`<time class="date" datetime="`)
		pw.text(p.Date)
		pw.raw(`">`)
		pw.text(p.DateDisplay)
		pw.raw("</time>\n")
		pw.raw(`<span class="author">`)
		pw.text(p.Author)
		pw.raw("</span>\n</div>\n")
		pw.raw(`<div class="article-tags">`)
		pw.raw(TagsHTML(p.Tags))
		pw.raw("</div>\n")
		pw.raw(`<p class="summary">`)
		pw.text(p.Summary)
		pw.raw("</p>\n</header>\n")
		pw.raw(`<div class="article-content">` + "\n")
		pw.raw(p.Content)
		pw.raw("</div>\n</article>\n</body>\n</html>\n")
		return pw.err
	})
}

// pageWriter keeps the first write error so components can write freely.
type pageWriter struct {
	w   io.Writer
	err error
}

func (pw *pageWriter) raw(s string) {
	if pw.err != nil {
		return
	}
	_, pw.err = io.WriteString(pw.w, s)
}

func (pw *pageWriter) text(s string) {
	pw.raw(templ.EscapeString(s))
}
