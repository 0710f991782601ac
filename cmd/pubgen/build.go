package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	flag "github.com/spf13/pflag"

	"github.com/eringen/pubgen"
)

var errBatchFailed = errors.New("some documents failed")

// BuildCmd returns the build command.
func BuildCmd() *Command {
	var (
		site        siteFlags
		author      string
		metricsFile string
	)
	fs := flag.NewFlagSet("build", flag.ContinueOnError)
	site.register(fs)
	fs.StringVar(&author, "author", "", "default author for documents without one")
	fs.StringVar(&metricsFile, "metrics-file", "", "write Prometheus metrics for the run to this file")

	return &Command{
		Flags: fs,
		Usage: "build [flags] <file.md>...",
		Short: "Render documents and add them to the index",
		Long: `Render each markdown document into a standalone page and prepend it to the
article index. Documents are processed in order; a failing document is
reported and the batch continues. Exits non-zero if any document failed.`,
		Exec: func(ctx context.Context, out, errOut io.Writer, args []string) error {
			if len(args) == 0 {
				return errors.New("no input files")
			}
			cfg, err := site.load(pubgen.Config{Author: author})
			if err != nil {
				return err
			}
			p, err := pubgen.NewPipeline(cfg, site.logger(errOut))
			if err != nil {
				return err
			}
			registry := prometheus.NewRegistry()
			if metricsFile != "" {
				p.SetMetrics(pubgen.NewMetrics(registry))
			}
			sum := p.Run(ctx, args, func(res pubgen.Result) {
				fmt.Fprintln(out, res)
			})
			fmt.Fprintln(out, sum)
			if metricsFile != "" {
				if err := prometheus.WriteToTextfile(metricsFile, registry); err != nil {
					return fmt.Errorf("write metrics: %w", err)
				}
			}
			if sum.Failed > 0 || sum.Aborted {
				return errBatchFailed
			}
			return nil
		},
	}
}
