package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"loom/internal/driver"
	"loom/internal/lsp"
)

var lspCmd = &cobra.Command{
	Use:          "lsp",
	Short:        "Run the loom language server over stdio",
	SilenceUsage: true,
	RunE:         runLSP,
}

func init() {
	lspCmd.Flags().Duration("debounce", 0, "delay before diagnostics are recomputed (default 200ms)")
	lspCmd.Flags().Bool("cache", false, "use the disk cache for formatting requests")
	addOverrideFlags(lspCmd)
}

func runLSP(cmd *cobra.Command, _ []string) error {
	debounce, err := cmd.Flags().GetDuration("debounce")
	if err != nil {
		return err
	}
	useCache, err := cmd.Flags().GetBool("cache")
	if err != nil {
		return err
	}
	maxDiagnostics, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil {
		return err
	}
	overrides, err := readOverrides(cmd)
	if err != nil {
		return err
	}
	opts := lsp.ServerOptions{
		Debounce:       debounce,
		Overrides:      overrides,
		MaxDiagnostics: maxDiagnostics,
		Log:            os.Stderr,
	}
	if useCache {
		if opts.Cache, err = driver.OpenDiskCache("loom"); err != nil {
			return fmt.Errorf("lsp: open cache: %w", err)
		}
	}

	server := lsp.NewServer(os.Stdin, os.Stdout, opts)
	if err := server.Run(cmd.Context()); err != nil {
		if errors.Is(err, lsp.ErrExit) {
			return nil
		}
		if errors.Is(err, lsp.ErrExitWithoutShutdown) {
			return fmt.Errorf("lsp exit without shutdown")
		}
		return err
	}
	return nil
}
