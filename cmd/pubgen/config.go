package main

import (
	"context"
	"fmt"
	"io"

	flag "github.com/spf13/pflag"

	"github.com/eringen/pubgen"
)

// ConfigCmd returns the config command.
func ConfigCmd() *Command {
	var site siteFlags
	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	site.register(fs)

	return &Command{
		Flags: fs,
		Usage: "config [flags]",
		Short: "Print the effective configuration",
		Exec: func(_ context.Context, out, _ io.Writer, _ []string) error {
			cfg, err := site.load(pubgen.Config{})
			if err != nil {
				return err
			}
			text, err := pubgen.FormatConfig(cfg)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, text)
			return nil
		},
	}
}
