package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	flag "github.com/spf13/pflag"

	"github.com/eringen/pubgen"
	"github.com/eringen/pubgen/markdown"
)

// CatalogCmd returns the catalog command.
func CatalogCmd() *Command {
	var (
		site     siteFlags
		tag      string
		listTags bool
		sync     bool
	)
	fs := flag.NewFlagSet("catalog", flag.ContinueOnError)
	site.register(fs)
	fs.StringVar(&tag, "tag", "", "only list articles with this tag")
	fs.BoolVar(&listTags, "tags", false, "list tags instead of articles")
	fs.BoolVar(&sync, "sync", false, "refresh the catalog from the index first")

	return &Command{
		Flags: fs,
		Usage: "catalog [flags]",
		Short: "Query the SQLite catalog",
		Long:  "List articles (newest first) or tags from the catalog configured by catalog_path.",
		Exec: func(_ context.Context, out, errOut io.Writer, _ []string) error {
			cfg, err := site.load(pubgen.Config{})
			if err != nil {
				return err
			}
			if cfg.CatalogPath == "" {
				return errors.New("catalog_path is not configured")
			}
			cat, err := pubgen.NewCatalog(cfg.Resolve(cfg.CatalogPath))
			if err != nil {
				return fmt.Errorf("open catalog: %w", err)
			}
			defer cat.Close()

			if sync {
				records, err := pubgen.NewIndexStore(cfg, site.logger(errOut)).Load()
				if err != nil {
					return err
				}
				if err := cat.Sync(records); err != nil {
					return fmt.Errorf("sync catalog: %w", err)
				}
			}

			if listTags {
				tags, err := cat.ListTags()
				if err != nil {
					return err
				}
				for _, t := range tags {
					fmt.Fprintln(out, t)
				}
				return nil
			}

			records, err := cat.ListRecords(tag)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			for _, r := range records {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", r.ID, r.Date.Format(markdown.DateLayout), r.Slug, r.Title, strings.Join(r.Tags, ","))
			}
			return tw.Flush()
		},
	}
}
