// Command edison is the thin CLI binding over the core packages: it
// parses flags, resolves the repository root and session identity,
// wires the generic entity engine to concrete Task/Session backends,
// and dispatches to the relevant operation. The CLI itself owns no
// business logic (spec.md §1) — every decision lives in internal/*.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/edison-dev/edison/internal/config"
)

// Version is set via ldflags at build time.
var Version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "edison: %v\n", err)
		os.Exit(exitCodeFor(err))
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "edison",
		Short:         "Edison coordinates multiple agents working one repository",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to edison.toml")

	app := &appContext{configPathFlag: &configPath}

	root.AddCommand(
		newSessionCmd(app),
		newTaskCmd(app),
		newQACmd(app),
		newComposeCmd(app),
	)
	return root
}

// appContext lazily loads config and the path resolver once per
// invocation, shared across subcommands via closures.
type appContext struct {
	configPathFlag *string
}

func (a *appContext) loadConfig() (*config.Config, error) {
	return config.Load(*a.configPathFlag)
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
