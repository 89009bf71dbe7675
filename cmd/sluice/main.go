package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ajitpratap0/sluice/pkg/env"
	"github.com/ajitpratap0/sluice/pkg/logger"

	// Register every built-in connector
	_ "github.com/ajitpratap0/sluice/pkg/connector/all"
)

var version = "0.1.0"

func main() {
	os.Exit(execute(os.Args[1:]))
}

// execute runs the CLI and turns every failure, panics included, into a
// non-zero exit code.
func execute(args []string) (code int) {
	defer func() {
		if r := recover(); r != nil {
			logger.Get().Error("unhandled panic", zap.Any("panic", r), zap.Stack("stack"))
			code = 2
		}
		_ = logger.Sync()
	}()

	// Load .env file if it exists
	_ = godotenv.Load()

	root := newRootCmd()
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		logger.Get().Error("sluice failed", zap.Error(err))
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

type globalFlags struct {
	logLevel string
	console  bool
}

func newRootCmd() *cobra.Command {
	var flags globalFlags

	root := &cobra.Command{
		Use:   "sluice",
		Short: "Sluice - declarative extract-load job runner",
		Long: `Sluice runs extract-load jobs described in YAML.

Job, source and target documents are located through environment variables:
  ` + env.VarName(env.JobsConfig) + `     job list (required)
  ` + env.VarName(env.SourcesConfig) + `  shared source connectors
  ` + env.VarName(env.TargetsConfig) + `  shared target connectors
  ` + env.VarName(env.LogPath) + `        directory receiving a daily log file`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogging(flags, env.Resolve())
		},
	}
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	root.PersistentFlags().BoolVar(&flags.console, "log-console", false, "Human readable log lines instead of JSON")

	root.AddCommand(newVersionCmd(), newListCmd(), newRunCmd(), newDebugCmd())
	return root
}

func setupLogging(flags globalFlags, e env.Environment) error {
	cfg := logger.Config{
		Level:       flags.logLevel,
		Encoding:    "json",
		OutputPaths: []string{"stderr"},
	}
	if flags.console {
		cfg.Encoding = "console"
	}
	if dir, ok := e.LogPath(); ok {
		cfg.Dir = dir
	}
	return logger.Init(cfg)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Sluice v%s\n", version)
			fmt.Fprintf(out, "Go version: %s\n", runtime.Version())
			fmt.Fprintf(out, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}
