package views

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

// NotFound is the preview server's 404 page.
func NotFound(cfg SiteConfig) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		pw := &pageWriter{w: w}
		pw.raw("<!DOCTYPE html>\n<html lang=\"zh-CN\">\n<head>\n<meta charset=\"UTF-8\">\n<title>Not found")
		if cfg.Name != "" {
			pw.raw(" | ")
			pw.text(cfg.Name)
		}
		pw.raw("</title>\n</head>\n<body>\n<h1>404</h1>\n<p>Page not found.</p>\n<p><a href=\"/\">Back to the index</a></p>\n</body>\n</html>\n")
		return pw.err
	})
}
