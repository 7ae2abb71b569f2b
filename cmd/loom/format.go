package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"loom/internal/driver"
)

var fmtCmd = &cobra.Command{
	Use:   "fmt [flags] <path|-> [path...]",
	Short: "Format JSON, JSONC, JSON5 and Markdown files",
	Long: `Format files in place. Directories are walked for known extensions.
Use - to read from stdin and write the result to stdout.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runFmt,
}

func init() {
	fmtCmd.Flags().Bool("check", false, "check if files are properly formatted")
	fmtCmd.Flags().String("format", "text", "output format (text|short|json)")
	fmtCmd.Flags().Bool("stdout", false, "print formatted code to stdout instead of rewriting files")
	fmtCmd.Flags().Bool("diff", false, "print a unified diff of the changes")
	fmtCmd.Flags().Bool("verify", false, "format the output again and report unstable results")
	fmtCmd.Flags().Int("jobs", 0, "max parallel workers (0=auto)")
	fmtCmd.Flags().Bool("cache", false, "skip files the disk cache knows are formatted")
	fmtCmd.Flags().String("cache-dir", "", "cache location (default: user cache dir)")
	fmtCmd.Flags().Bool("clear-cache", false, "drop every cache entry before formatting")
	fmtCmd.Flags().String("ui", "auto", "progress view (auto|on|off)")
	fmtCmd.Flags().String("lang", "", "force a language (json|jsonc|json5|prose)")
	fmtCmd.Flags().String("stdin-filepath", "", "path used to pick language and config for stdin")
	addOverrideFlags(fmtCmd)
}

type fmtFlags struct {
	check, stdout, diff, verify bool
	output                      string
	quiet, timings              bool
	maxDiagnostics              int
}

func (f fmtFlags) mode() driver.Mode {
	switch {
	case f.check, f.diff:
		return driver.ModeCheck
	case f.stdout:
		return driver.ModeStdout
	}
	return driver.ModeWrite
}

func readFmtFlags(cmd *cobra.Command) (fmtFlags, error) {
	var (
		f   fmtFlags
		err error
	)
	flags := cmd.Flags()
	if f.check, err = flags.GetBool("check"); err != nil {
		return f, err
	}
	if f.stdout, err = flags.GetBool("stdout"); err != nil {
		return f, err
	}
	if f.diff, err = flags.GetBool("diff"); err != nil {
		return f, err
	}
	if f.verify, err = flags.GetBool("verify"); err != nil {
		return f, err
	}
	if f.output, err = flags.GetString("format"); err != nil {
		return f, err
	}
	root := cmd.Root().PersistentFlags()
	if f.quiet, err = root.GetBool("quiet"); err != nil {
		return f, err
	}
	if f.timings, err = root.GetBool("timings"); err != nil {
		return f, err
	}
	if f.maxDiagnostics, err = root.GetInt("max-diagnostics"); err != nil {
		return f, err
	}

	if f.stdout && f.check {
		return f, fmt.Errorf("fmt: --stdout cannot be used with --check")
	}
	switch f.output {
	case "text", "short":
	case "json":
		if f.stdout {
			return f, fmt.Errorf("fmt: --stdout is only supported with text output")
		}
	default:
		return f, fmt.Errorf("fmt: unsupported output format %q", f.output)
	}
	return f, nil
}

func runFmt(cmd *cobra.Command, args []string) error {
	flags, err := readFmtFlags(cmd)
	if err != nil {
		return err
	}
	opts, err := buildFormatOptions(cmd, flags)
	if err != nil {
		return err
	}

	if len(args) == 1 && args[0] == "-" {
		return runFmtStdin(cmd, flags, opts)
	}

	uiValue, err := cmd.Flags().GetString("ui")
	if err != nil {
		return err
	}
	ui, err := readUIMode(uiValue)
	if err != nil {
		return err
	}

	var results []driver.FormatResult
	if flags.output != "json" && !flags.stdout && shouldUseTUI(ui, countHint(args)) {
		results, err = runFormatWithUI(cmd.Context(), "loom fmt", args, opts)
	} else {
		results, err = driver.FormatPaths(cmd.Context(), args, opts)
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	errOut := cmd.ErrOrStderr()
	var summary fmtSummary
	switch flags.output {
	case "json":
		summary, err = renderFmtJSON(out, results, flags)
		if err != nil {
			return err
		}
	default:
		summary = renderFmtText(out, errOut, results, flags)
	}
	if flags.timings {
		printTimings(errOut, results)
	}
	return summary.err(flags.check)
}

func buildFormatOptions(cmd *cobra.Command, flags fmtFlags) (driver.FormatOptions, error) {
	opts := driver.FormatOptions{
		Mode:           flags.mode(),
		Diff:           flags.diff,
		Verify:         flags.verify,
		MaxDiagnostics: flags.maxDiagnostics,
	}
	var err error
	if opts.Jobs, err = cmd.Flags().GetInt("jobs"); err != nil {
		return opts, err
	}
	if opts.Language, err = cmd.Flags().GetString("lang"); err != nil {
		return opts, err
	}
	if opts.Overrides, err = readOverrides(cmd); err != nil {
		return opts, err
	}
	if opts.Config, err = loadConfig(cmd); err != nil {
		return opts, err
	}
	useCache, err := cmd.Flags().GetBool("cache")
	if err != nil {
		return opts, err
	}
	if useCache {
		dir, err := cmd.Flags().GetString("cache-dir")
		if err != nil {
			return opts, err
		}
		if dir != "" {
			opts.Cache, err = driver.OpenDiskCacheAt(dir)
		} else {
			opts.Cache, err = driver.OpenDiskCache("loom")
		}
		if err != nil {
			return opts, fmt.Errorf("fmt: open cache: %w", err)
		}
		if err := tidyCache(cmd, opts.Cache); err != nil {
			return opts, err
		}
	}
	return opts, nil
}

// entries written longer ago are pruned when the cache opens
const cacheMaxAge = 30 * 24 * time.Hour

func tidyCache(cmd *cobra.Command, cache *driver.DiskCache) error {
	clearAll, err := cmd.Flags().GetBool("clear-cache")
	if err != nil {
		return err
	}
	if clearAll {
		if err := cache.Clear(); err != nil {
			return fmt.Errorf("fmt: clear cache: %w", err)
		}
		return nil
	}
	if _, err := cache.Prune(cacheMaxAge); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "fmt: prune cache %s: %v\n", cache.Dir(), err)
	}
	return nil
}

// runFmtStdin formats standard input. The output is the formatted text,
// a diff with --diff, or nothing with --check.
func runFmtStdin(cmd *cobra.Command, flags fmtFlags, opts driver.FormatOptions) error {
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return fmt.Errorf("fmt: read stdin: %w", err)
	}
	path, err := cmd.Flags().GetString("stdin-filepath")
	if err != nil {
		return err
	}
	name := path
	if path == "" {
		if opts.Language == "" {
			return errors.New("fmt: reading stdin needs --lang or --stdin-filepath")
		}
		name, path = "<stdin>", "stdin"
	}
	// configuration is discovered next to the named file, or in the working directory
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	res := driver.FormatSource(cmd.Context(), path, data, opts)
	res.Path = name

	out := cmd.OutOrStdout()
	errOut := cmd.ErrOrStderr()
	if flags.output == "json" {
		summary, err := renderFmtJSON(out, []driver.FormatResult{res}, flags)
		if err != nil {
			return err
		}
		return summary.err(flags.check)
	}
	reportDiagnostics(errOut, &res, flags)
	if res.Err != nil {
		fmt.Fprintf(errOut, "fmt: %s: %v\n", res.Path, res.Err)
		return errSilent
	}
	switch {
	case flags.diff:
		_, _ = io.WriteString(out, res.Diff)
	case flags.check:
	default:
		_, _ = out.Write(res.Formatted)
	}
	if flags.check && res.Changed {
		return fmt.Errorf("fmt: formatting changes required")
	}
	return nil
}

// countHint is the number of arguments, or a large value when any of
// them is a directory.
func countHint(args []string) int {
	for _, a := range args {
		if info, err := os.Stat(a); err == nil && info.IsDir() {
			return autoUIThreshold
		}
	}
	return len(args)
}
