package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	flag "github.com/spf13/pflag"

	"github.com/eringen/pubgen"
	"github.com/eringen/pubgen/markdown"
	"github.com/eringen/pubgen/scaffold"
)

// scaffoldData holds the template variables passed to every scaffold template.
type scaffoldData struct {
	SiteName string
	Author   string
}

// NewCmd returns the new command.
func NewCmd() *Command {
	var (
		siteName string
		author   string
	)
	fset := flag.NewFlagSet("new", flag.ContinueOnError)
	fset.StringVar(&siteName, "name", "", "site name (default derived from the directory)")
	fset.StringVar(&author, "author", markdown.DefaultAuthor, "default author")

	return &Command{
		Flags: fset,
		Usage: "new [flags] <dir>",
		Short: "Create a new site",
		Long:  "Create a site skeleton: pubgen.json, index.html, a sample post and an empty js/articles.js.",
		Exec: func(_ context.Context, out, errOut io.Writer, args []string) error {
			if len(args) != 1 {
				return errors.New("expected exactly one directory")
			}
			return runNew(out, newLogger(errOut, false), args[0], siteName, author)
		},
	}
}

func runNew(out io.Writer, logger *slog.Logger, dir, siteName, author string) error {
	if _, err := os.Stat(dir); err == nil {
		return fmt.Errorf("directory %q already exists", dir)
	}
	if siteName == "" {
		siteName = toTitle(filepath.Base(dir))
	}
	data := scaffoldData{SiteName: siteName, Author: author}

	fmt.Fprintf(out, "Creating new pubgen site: %s\n\n", dir)

	root := "templates"
	err := fs.WalkDir(scaffold.Templates, root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		outPath := strings.TrimSuffix(filepath.Join(dir, relPath), ".tmpl")

		if d.IsDir() {
			return os.MkdirAll(outPath, 0o755)
		}

		content, err := scaffold.Templates.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		tmpl, err := template.New(filepath.Base(path)).Funcs(templateFuncs).Parse(string(content))
		if err != nil {
			return fmt.Errorf("parse template %s: %w", path, err)
		}
		if err := writeTemplate(outPath, tmpl, data); err != nil {
			return err
		}
		fmt.Fprintf(out, "  created %s\n", outPath)
		return nil
	})
	if err != nil {
		return err
	}

	cfg := pubgen.DefaultConfig()
	cfg.SiteDir = dir
	cfg.Author = author
	store := pubgen.NewIndexStore(cfg, logger)
	if err := store.Persist(nil); err != nil {
		return fmt.Errorf("write index: %w", err)
	}
	fmt.Fprintf(out, "  created %s\n", store.Path())

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Done! Next steps:")
	fmt.Fprintln(out)
	fmt.Fprintf(out, "  cd %s\n", dir)
	fmt.Fprintln(out, "  pubgen build posts/*.md")
	fmt.Fprintln(out, "  pubgen serve")
	return nil
}

// templateFuncs are available to every scaffold template. json quotes a
// value as a JSON literal.
var templateFuncs = template.FuncMap{
	"json": func(v any) (string, error) {
		b, err := json.Marshal(v)
		return string(b), err
	},
}

func writeTemplate(path string, tmpl *template.Template, data scaffoldData) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	if err := tmpl.Execute(f, data); err != nil {
		return fmt.Errorf("execute template %s: %w", path, err)
	}
	return f.Close()
}

// toTitle converts a hyphenated or lowercase name to a title-case string.
// e.g. "my-blog" -> "My Blog", "myblog" -> "Myblog"
func toTitle(s string) string {
	parts := strings.Split(s, "-")
	for i, p := range parts {
		if len(p) > 0 {
			parts[i] = strings.ToUpper(p[:1]) + p[1:]
		}
	}
	return strings.Join(parts, " ")
}
