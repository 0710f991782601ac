// Package scaffold provides embedded static assets: the glue code written
// around a fresh article index, and the site skeleton used by pubgen new.
package scaffold

import (
	"embed"
	"io"
	"text/template"
)

// Templates contains the site skeleton. Files use Go text/template syntax
// and have a .tmpl suffix.
//
//go:embed all:templates
var Templates embed.FS

//go:embed index/articles.js.tmpl
var indexSource string

var indexTemplate = template.Must(template.New("articles.js").Parse(indexSource))

// IndexData is passed to the index glue template.
type IndexData struct {
	// DataBlock is the full declaration, e.g. `const articles = [...];`.
	DataBlock string
	// LinkPrefix is prepended to each article link, e.g. "html/".
	LinkPrefix string
}

// RenderIndex writes a complete index artifact: the data declaration
// followed by the static glue code.
func RenderIndex(w io.Writer, data IndexData) error {
	return indexTemplate.Execute(w, data)
}
