package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/eringen/pubgen"
)

// Command is one pubgen subcommand.
type Command struct {
	Flags *flag.FlagSet

	// Usage starts with the command name, e.g. "build [flags] <file.md>...".
	Usage string
	Short string
	Long  string

	Exec func(ctx context.Context, out, errOut io.Writer, args []string) error
}

// Name returns the command name (first word of Usage).
func (c *Command) Name() string {
	name, _, _ := strings.Cut(c.Usage, " ")
	return name
}

// HelpLine returns the short help line for the main usage display.
func (c *Command) HelpLine() string {
	return fmt.Sprintf("  %-24s %s", c.Usage, c.Short)
}

// PrintHelp prints the full help output for "pubgen <cmd> --help".
func (c *Command) PrintHelp(w io.Writer) {
	fmt.Fprintln(w, "Usage: pubgen", c.Usage)
	fmt.Fprintln(w)
	desc := c.Long
	if desc == "" {
		desc = c.Short
	}
	fmt.Fprintln(w, desc)

	if c.Flags.HasFlags() {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Flags:")
		var buf strings.Builder
		c.Flags.SetOutput(&buf)
		c.Flags.PrintDefaults()
		fmt.Fprint(w, buf.String())
	}
}

// Run parses flags and executes the command. Returns the exit code.
func (c *Command) Run(ctx context.Context, out, errOut io.Writer, args []string) int {
	c.Flags.SetOutput(io.Discard)

	if err := c.Flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			c.PrintHelp(out)
			return 0
		}
		fmt.Fprintln(errOut, "error:", err)
		fmt.Fprintln(errOut)
		c.PrintHelp(errOut)
		return 1
	}

	if err := c.Exec(ctx, out, errOut, c.Flags.Args()); err != nil {
		fmt.Fprintln(errOut, "error:", err)
		return 1
	}
	return 0
}

// siteFlags are shared by every command that works on an existing site.
type siteFlags struct {
	configPath string
	siteDir    string
	verbose    bool
}

func (f *siteFlags) register(fs *flag.FlagSet) {
	fs.StringVarP(&f.configPath, "config", "c", "", "config file (default $PUBGEN_CONFIG or ./pubgen.json)")
	fs.StringVar(&f.siteDir, "site-dir", "", "site root directory")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "enable debug logging")
}

// load resolves the configuration. --site-dir replaces the working
// directory both as the config lookup location and as the site root.
func (f *siteFlags) load(overrides pubgen.Config) (pubgen.Config, error) {
	workDir, err := os.Getwd()
	if err != nil {
		return pubgen.Config{}, fmt.Errorf("cannot get working directory: %w", err)
	}
	if f.siteDir != "" {
		if workDir, err = filepath.Abs(f.siteDir); err != nil {
			return pubgen.Config{}, err
		}
		overrides.SiteDir = workDir
	}
	configPath := f.configPath
	if configPath == "" {
		configPath = pubgen.EnvOr("PUBGEN_CONFIG", "")
	}
	if configPath != "" {
		if configPath, err = filepath.Abs(configPath); err != nil {
			return pubgen.Config{}, err
		}
	}
	return pubgen.LoadConfig(workDir, configPath, overrides)
}

func (f *siteFlags) logger(w io.Writer) *slog.Logger {
	return newLogger(w, f.verbose)
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
