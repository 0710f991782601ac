package main

import (
	"context"
	"io"
	"log/slog"
	"time"

	flag "github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/eringen/pubgen"
)

// ServeCmd returns the serve command.
func ServeCmd() *Command {
	var (
		site siteFlags
		addr string
	)
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	site.register(fs)
	fs.StringVar(&addr, "addr", "", "listen address (default :3000)")

	return &Command{
		Flags: fs,
		Usage: "serve [flags]",
		Short: "Preview the site over HTTP",
		Long: `Serve the site directory, a JSON view of the article index under /api/,
an RSS feed at /feed.xml, a sitemap at /sitemap.xml and Prometheus metrics
at /metrics.`,
		Exec: func(ctx context.Context, _, errOut io.Writer, _ []string) error {
			cfg, err := site.load(pubgen.Config{Addr: addr})
			if err != nil {
				return err
			}
			logger := site.logger(errOut)
			srv := pubgen.NewServer(cfg, logger)

			g, gctx := errgroup.WithContext(ctx)
			g.Go(srv.Start)
			g.Go(func() error {
				<-gctx.Done()
				logger.Info("shutting down preview server")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := srv.Shutdown(shutdownCtx); err != nil {
					logger.Error("server shutdown failed", slog.Any("error", err))
					return err
				}
				return nil
			})
			return g.Wait()
		},
	}
}
