package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"loom/internal/version"
)

// errSilent reports failure through the exit code only; the command has
// already printed what went wrong.
var errSilent = errors.New("")

var rootCmd = &cobra.Command{
	Use:   "loom",
	Short: "Formatter for JSON, JSONC, JSON5 and Markdown",
	Long:  `loom lays documents out with a Wadler-style pretty printer and keeps every comment`,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if err := setupColor(cmd); err != nil {
			return err
		}
		traceCleanup, err := setupTracing(cmd)
		if err != nil {
			return err
		}
		profCleanup, err := setupProfiling(cmd)
		if err != nil {
			traceCleanup()
			return err
		}
		cleanups = append(cleanups, profCleanup, traceCleanup)
		return nil
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

// cleanups run after the command in order, also when it fails.
var cleanups []func()

func runCleanups() {
	for _, fn := range cleanups {
		fn()
	}
	cleanups = nil
}

func init() {
	// Устанавливаем версию для автоматического флага --version
	rootCmd.Version = version.Version

	rootCmd.AddCommand(fmtCmd)
	rootCmd.AddCommand(irCmd)
	rootCmd.AddCommand(lspCmd)
	rootCmd.AddCommand(versionCmd)

	// Глобальные флаги
	pf := rootCmd.PersistentFlags()
	pf.String("color", "auto", "colorize output (auto|on|off)")
	pf.Bool("quiet", false, "suppress non-essential output")
	pf.Bool("timings", false, "show timing information")
	pf.Int("max-diagnostics", 100, "maximum number of diagnostics to show per file")
	pf.String("config", "", "use this configuration file instead of discovering loom.toml")

	pf.String("trace", "", "write trace events to this file (- for stderr)")
	pf.String("trace-level", "off", "trace level (off|error|file|phase|debug)")
	pf.String("trace-mode", "ring", "trace storage (stream|ring|both)")
	pf.String("trace-format", "auto", "trace output format (auto|text|ndjson|chrome)")
	pf.Int("trace-ring-size", 4096, "events kept in ring mode")
	pf.Duration("trace-heartbeat", 0, "emit a heartbeat event at this interval")

	pf.String("cpu-profile", "", "write a CPU profile to this file")
	pf.String("mem-profile", "", "write a heap profile to this file")
	pf.String("runtime-trace", "", "write a Go runtime trace to this file")
}

// main executes the root command and exits with status 1 when it fails.
func main() {
	err := rootCmd.Execute()
	runCleanups()
	if err != nil {
		if !errors.Is(err, errSilent) {
			fmt.Fprintf(os.Stderr, "loom: %v\n", err)
		}
		os.Exit(1)
	}
}

// isTerminal проверяет, является ли файл терминалом
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
