package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"loom/internal/format"
	"loom/internal/printer"
)

// ErrConfig wraps every problem found in a configuration file or flag.
var ErrConfig = errors.New("invalid configuration")

// Settings is one layer of options. A nil field leaves the value of the
// layer below untouched.
type Settings struct {
	PrintWidth    *int    `toml:"print_width" yaml:"print_width" json:"printWidth,omitempty"`
	IndentStyle   *string `toml:"indent_style" yaml:"indent_style" json:"indentStyle,omitempty"`
	IndentWidth   *int    `toml:"indent_width" yaml:"indent_width" json:"indentWidth,omitempty"`
	TabWidth      *int    `toml:"tab_width" yaml:"tab_width" json:"tabWidth,omitempty"`
	LineEnding    *string `toml:"line_ending" yaml:"line_ending" json:"lineEnding,omitempty"`
	QuoteStyle    *string `toml:"quote_style" yaml:"quote_style" json:"quoteStyle,omitempty"`
	TrailingComma *string `toml:"trailing_comma" yaml:"trailing_comma" json:"trailingComma,omitempty"`
	ProseWrap     *string `toml:"prose_wrap" yaml:"prose_wrap" json:"proseWrap,omitempty"`
}

// IsZero reports whether the layer sets nothing.
func (s Settings) IsZero() bool { return s == Settings{} }

// Apply writes the set fields of s over opts.
func (s Settings) Apply(opts format.Options) (format.Options, error) {
	var err error
	if s.PrintWidth != nil {
		opts.Printer.PrintWidth = *s.PrintWidth
	}
	if s.IndentWidth != nil {
		opts.Printer.IndentWidth = *s.IndentWidth
	}
	if s.TabWidth != nil {
		opts.Printer.TabWidth = *s.TabWidth
	}
	if s.IndentStyle != nil {
		if opts.Printer.IndentStyle, err = printer.ParseIndentStyle(*s.IndentStyle); err != nil {
			return opts, err
		}
	}
	if s.LineEnding != nil {
		opts.KeepLineEnding = strings.EqualFold(strings.TrimSpace(*s.LineEnding), "auto")
		if !opts.KeepLineEnding {
			if opts.Printer.LineEnding, err = printer.ParseLineEnding(*s.LineEnding); err != nil {
				return opts, err
			}
		}
	}
	if s.QuoteStyle != nil {
		if opts.QuoteStyle, err = format.ParseQuoteStyle(*s.QuoteStyle); err != nil {
			return opts, err
		}
	}
	if s.TrailingComma != nil {
		if opts.TrailingComma, err = format.ParseTrailingComma(*s.TrailingComma); err != nil {
			return opts, err
		}
	}
	if s.ProseWrap != nil {
		if opts.ProseWrap, err = format.ParseProseWrap(*s.ProseWrap); err != nil {
			return opts, err
		}
	}
	return opts, opts.Printer.Validate()
}

// Config is a loaded configuration file. It is not modified after Load.
type Config struct {
	// Path is empty when no file was found.
	Path      string
	global    Settings
	languages map[string]Settings
	unknown   []string
}

// Unknown lists keys the file set that loom does not read.
func (c *Config) Unknown() []string {
	if c == nil {
		return nil
	}
	return slices.Clone(c.unknown)
}

// Options resolves the options for one language: defaults, then the
// global keys, then the language table, then overrides.
func (c *Config) Options(language string, overrides Settings) (format.Options, error) {
	opts := format.DefaultOptions()
	var err error
	if c != nil {
		if opts, err = c.global.Apply(opts); err != nil {
			return opts, c.wrap("", err)
		}
		if s, ok := c.languages[tableFor(language)]; ok {
			if opts, err = s.Apply(opts); err != nil {
				return opts, c.wrap(tableFor(language), err)
			}
		}
	}
	if opts, err = overrides.Apply(opts); err != nil {
		return opts, fmt.Errorf("%w: %w", ErrConfig, err)
	}
	return opts, nil
}

func (c *Config) wrap(table string, err error) error {
	if table != "" {
		return fmt.Errorf("%w: %s: [%s]: %w", ErrConfig, c.Path, table, err)
	}
	return fmt.Errorf("%w: %s: %w", ErrConfig, c.Path, err)
}

// tableFor maps language names to their table: every JSON dialect reads
// [json].
func tableFor(language string) string {
	if strings.HasPrefix(language, "json") {
		return "json"
	}
	return language
}

// Int is a helper for building override layers from flags.
func Int(v int) *int { return &v }

// String is a helper for building override layers from flags.
func String(v string) *string { return &v }
