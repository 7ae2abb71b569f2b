package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"loom/internal/config"
	"loom/internal/format"
	"loom/internal/ir"
	"loom/internal/lang"
	"loom/internal/printer"
	"loom/internal/source"
)

var irCmd = &cobra.Command{
	Use:   "ir [flags] <file>",
	Short: "Dump the layout document built for a file",
	Long: `Print the intermediate layout document the formatter builds for a file,
either as readable text or as a msgpack snapshot for golden tests.`,
	Args: cobra.ExactArgs(1),
	RunE: runIR,
}

func init() {
	irCmd.Flags().String("format", "text", "output format (text|msgpack)")
	irCmd.Flags().String("lang", "", "force a language (json|jsonc|json5|prose)")
	irCmd.Flags().StringP("output", "o", "", "write to this file instead of stdout")
	addOverrideFlags(irCmd)
}

func runIR(cmd *cobra.Command, args []string) error {
	outputFormat, err := cmd.Flags().GetString("format")
	if err != nil {
		return err
	}
	if outputFormat != "text" && outputFormat != "msgpack" {
		return fmt.Errorf("ir: unsupported output format %q", outputFormat)
	}
	langName, err := cmd.Flags().GetString("lang")
	if err != nil {
		return err
	}
	outPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	overrides, err := readOverrides(cmd)
	if err != nil {
		return err
	}

	path := args[0]
	registry := lang.Default()
	var l format.Language
	if langName != "" {
		l, err = registry.ByName(langName)
	} else {
		l, err = registry.ForPath(path)
	}
	if err != nil {
		return err
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg == nil {
		if cfg, err = config.Discover(filepath.Dir(path)); err != nil {
			return err
		}
	}
	opts, err := cfg.Options(l.Name(), overrides)
	if err != nil {
		return err
	}

	fs := source.NewFileSet()
	id, err := fs.Load(path)
	if err != nil {
		return err
	}
	res, err := format.FormatFile(cmd.Context(), l, fs.Get(id), opts)
	if err != nil {
		return err
	}
	if res.Unchanged {
		return fmt.Errorf("ir: %s has comments that cannot be placed; no document was printed", path)
	}

	var data []byte
	switch outputFormat {
	case "msgpack":
		if data, err = ir.Snapshot(res.Document); err != nil {
			return err
		}
	default:
		dbg := ir.Debug(&res.Document, res.IDs)
		printed, err := printer.Print(&dbg, opts.Printer)
		if err != nil {
			return err
		}
		data = append(printed.Code, '\n')
	}

	if outPath != "" {
		return os.WriteFile(outPath, data, 0o644)
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}
