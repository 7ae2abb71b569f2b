package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"loom/internal/format"
)

const (
	TomlName = "loom.toml"
	YamlName = ".loom.yaml"
)

type fileLayout struct {
	Settings `yaml:",inline"`
	JSON     Settings `toml:"json" yaml:"json"`
	Prose    Settings `toml:"prose" yaml:"prose"`
}

// Find walks up from startDir to the first directory holding loom.toml or
// .loom.yaml. loom.toml wins when both exist.
func Find(startDir string) (path string, ok bool, err error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	if info, statErr := os.Stat(dir); statErr == nil && !info.IsDir() {
		dir = filepath.Dir(dir)
	}
	for {
		for _, name := range []string{TomlName, YamlName} {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate, true, nil
			} else if !errors.Is(err, os.ErrNotExist) {
				return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// Discover finds and loads the configuration governing startDir. No file
// is not an error: the returned Config only has defaults.
func Discover(startDir string) (*Config, error) {
	path, ok, err := Find(startDir)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &Config{}, nil
	}
	return Load(path)
}

// Load reads a configuration file; the extension picks the syntax.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfig, err)
	}
	var cfg *Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		cfg, err = parseYAML(data)
	default:
		cfg, err = parseTOML(data)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrConfig, path, err)
	}
	cfg.Path = path
	return cfg, nil
}

func parseTOML(data []byte) (*Config, error) {
	var raw fileLayout
	meta, err := toml.Decode(string(data), &raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}
	cfg := &Config{global: raw.Settings, languages: map[string]Settings{}}
	if meta.IsDefined("json") {
		cfg.languages["json"] = raw.JSON
	}
	if meta.IsDefined("prose") {
		cfg.languages["prose"] = raw.Prose
	}
	for _, key := range meta.Undecoded() {
		cfg.unknown = append(cfg.unknown, key.String())
	}
	return cfg, cfg.check()
}

func parseYAML(data []byte) (*Config, error) {
	var raw fileLayout
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	cfg := &Config{global: raw.Settings, languages: map[string]Settings{}}
	if !raw.JSON.IsZero() {
		cfg.languages["json"] = raw.JSON
	}
	if !raw.Prose.IsZero() {
		cfg.languages["prose"] = raw.Prose
	}
	return cfg, cfg.check()
}

func (c *Config) check() error {
	if err := checkLayer("", c.global); err != nil {
		return err
	}
	for name, s := range c.languages {
		if err := checkLayer(name, s); err != nil {
			return err
		}
	}
	return nil
}

func checkLayer(table string, s Settings) error {
	prefix := ""
	if table != "" {
		prefix = "[" + table + "]."
	}
	for _, f := range []struct {
		name string
		v    *int
	}{{"print_width", s.PrintWidth}, {"indent_width", s.IndentWidth}, {"tab_width", s.TabWidth}} {
		if f.v != nil && *f.v <= 0 {
			return fmt.Errorf("%s%s must be positive, got %d", prefix, f.name, *f.v)
		}
	}
	if _, err := s.Apply(format.DefaultOptions()); err != nil {
		return fmt.Errorf("%s%w", prefix, err)
	}
	return nil
}
