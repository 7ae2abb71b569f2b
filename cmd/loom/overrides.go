package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"loom/internal/config"
	"loom/internal/format"
)

// addOverrideFlags registers the option flags that beat any configuration
// file.
func addOverrideFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.Int("print-width", 0, "maximum line width")
	f.String("indent-style", "", "indentation (space|tab)")
	f.Int("indent-width", 0, "columns per indentation level")
	f.Int("tab-width", 0, "columns a tab counts for")
	f.String("line-ending", "", "line endings (lf|crlf|cr|auto)")
	f.String("quote-style", "", "JSON5 string quotes (double|single|preserve)")
	f.String("trailing-comma", "", "trailing commas in JSONC/JSON5 (none|es5|all)")
	f.String("prose-wrap", "", "Markdown paragraph wrapping (preserve|always)")
}

// readOverrides collects the flags the user actually set.
func readOverrides(cmd *cobra.Command) (config.Settings, error) {
	var s config.Settings
	f := cmd.Flags()
	ints := []struct {
		name string
		dst  **int
	}{
		{"print-width", &s.PrintWidth},
		{"indent-width", &s.IndentWidth},
		{"tab-width", &s.TabWidth},
	}
	for _, it := range ints {
		if !f.Changed(it.name) {
			continue
		}
		v, err := f.GetInt(it.name)
		if err != nil {
			return config.Settings{}, err
		}
		if v <= 0 {
			return config.Settings{}, fmt.Errorf("--%s must be positive", it.name)
		}
		*it.dst = config.Int(v)
	}
	strs := []struct {
		name string
		dst  **string
	}{
		{"indent-style", &s.IndentStyle},
		{"line-ending", &s.LineEnding},
		{"quote-style", &s.QuoteStyle},
		{"trailing-comma", &s.TrailingComma},
		{"prose-wrap", &s.ProseWrap},
	}
	for _, st := range strs {
		if !f.Changed(st.name) {
			continue
		}
		v, err := f.GetString(st.name)
		if err != nil {
			return config.Settings{}, err
		}
		*st.dst = config.String(v)
	}
	if _, err := s.Apply(format.DefaultOptions()); err != nil {
		return config.Settings{}, err
	}
	return s, nil
}

// loadConfig honours --config; nil means per-directory discovery.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, err := cmd.Root().PersistentFlags().GetString("config")
	if err != nil {
		return nil, fmt.Errorf("failed to get config flag: %w", err)
	}
	if path == "" {
		return nil, nil
	}
	return config.Load(path)
}
