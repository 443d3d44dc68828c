// Package main is the arbor command line: batch access to the structural
// buffer for formatting, find-replace, breadcrumbs, workspace search and
// diagnostics.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/xonecas/arbor/internal/config"
	"github.com/xonecas/arbor/internal/language"
)

var version = "dev"

// errUsage reports a malformed command line.
var errUsage = errors.New("usage")

type env struct {
	ctx context.Context
	cfg *config.Config
	reg *language.Registry
}

type command struct {
	name  string
	usage string
	run   func(e *env, args []string) error
}

var commands = []command{
	{"format", "format FILE...", runFormat},
	{"replace", "replace [-mode m] [-literal] [-case] [-word] [-w] SEARCH REPLACEMENT FILE...", runReplace},
	{"breadcrumbs", "breadcrumbs FILE LINE", runBreadcrumbs},
	{"grep", "grep [-root dir] [-max n] PATTERN", runGrep},
	{"check", "check FILE", runCheck},
	{"spans", "spans FILE", runSpans},
	{"history", "history FILE", runHistory},
	{"revert", "revert FILE", runRevert},
}

func main() {
	os.Exit(run())
}

func run() int {
	var configPath string
	var showVersion bool
	flag.StringVar(&configPath, "config", "", "Path to configuration file")
	flag.StringVar(&configPath, "c", "", "Path to configuration file (shorthand)")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.Usage = usage
	flag.Parse()

	if showVersion {
		fmt.Printf("arbor %s\n", version)
		return 0
	}
	if flag.NArg() == 0 {
		usage()
		return 2
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	setupLogging(cfg.Log.Level)

	reg := language.NewRegistry()
	cfg.Apply(reg)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	e := &env{ctx: ctx, cfg: cfg, reg: reg}

	name, args := flag.Arg(0), flag.Args()[1:]
	for _, c := range commands {
		if c.name != name {
			continue
		}
		if err := c.run(e, args); err != nil {
			if errors.Is(err, errUsage) {
				fmt.Fprintf(os.Stderr, "Usage: arbor %s\n", c.usage)
				return 2
			}
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		return 0
	}
	fmt.Fprintf(os.Stderr, "Error: unknown command %q\n\n", name)
	usage()
	return 2
}

func usage() {
	fmt.Fprintf(os.Stderr, "arbor - structural text buffer tools\n\n")
	fmt.Fprintf(os.Stderr, "Usage: arbor [options] COMMAND [args]\n\n")
	fmt.Fprintf(os.Stderr, "Options:\n")
	flag.PrintDefaults()
	fmt.Fprintf(os.Stderr, "\nCommands:\n")
	for _, c := range commands {
		fmt.Fprintf(os.Stderr, "  %s\n", c.usage)
	}
}

func setupLogging(level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.WarnLevel
	}
	zerolog.SetGlobalLevel(lvl)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
}
