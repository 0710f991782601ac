package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Stdout, os.Stderr, os.Args)
	stop()
	os.Exit(code)
}

// run dispatches args[1] to a subcommand and returns the exit code.
func run(ctx context.Context, out, errOut io.Writer, args []string) int {
	if len(args) < 2 {
		printUsage(errOut)
		return 1
	}

	switch args[1] {
	case "version":
		fmt.Fprintf(out, "pubgen %s\n", version)
		return 0
	case "help", "-h", "--help":
		printUsage(out)
		return 0
	}

	for _, cmd := range commands() {
		if cmd.Name() == args[1] {
			return cmd.Run(ctx, out, errOut, args[2:])
		}
	}

	fmt.Fprintf(errOut, "Unknown command: %s\n\n", args[1])
	printUsage(errOut)
	return 1
}

func commands() []*Command {
	return []*Command{
		BuildCmd(),
		NewCmd(),
		ServeCmd(),
		CatalogCmd(),
		ConfigCmd(),
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, `pubgen - Publish markdown articles into a static site and its article index

Usage:
  pubgen <command> [arguments]

Commands:`)
	for _, cmd := range commands() {
		fmt.Fprintln(w, cmd.HelpLine())
	}
	fmt.Fprintln(w, `  version                  Print the pubgen version
  help                     Show this help message

Examples:
  pubgen new myblog
  pubgen build -c myblog/pubgen.json myblog/posts/*.md
  pubgen serve --site-dir myblog`)
}
