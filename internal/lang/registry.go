// Package lang registers the languages the formatter knows about.
package lang

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"loom/internal/format"
	"loom/internal/lang/jsonc"
	"loom/internal/lang/prose"
)

// Registry maps file extensions to languages.
type Registry struct {
	byExt  map[string]format.Language
	byName map[string]format.Language
}

func NewRegistry(langs ...format.Language) *Registry {
	r := &Registry{byExt: make(map[string]format.Language), byName: make(map[string]format.Language)}
	for _, l := range langs {
		r.Register(l)
	}
	return r
}

// Default returns the built-in languages.
func Default() *Registry {
	return NewRegistry(
		jsonc.New(jsonc.JSON),
		jsonc.New(jsonc.JSONC),
		jsonc.New(jsonc.JSON5),
		prose.New(),
	)
}

// Register adds l; a later language wins an extension.
func (r *Registry) Register(l format.Language) {
	r.byName[l.Name()] = l
	for _, ext := range l.Extensions() {
		r.byExt[strings.ToLower(ext)] = l
	}
}

// ForPath picks the language by the extension of path.
func (r *Registry) ForPath(path string) (format.Language, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if l, ok := r.byExt[ext]; ok {
		return l, nil
	}
	return nil, fmt.Errorf("%w: %s", format.ErrUnknownLanguage, path)
}

// ByName finds a language by name, e.g. "jsonc".
func (r *Registry) ByName(name string) (format.Language, error) {
	if l, ok := r.byName[strings.ToLower(name)]; ok {
		return l, nil
	}
	return nil, fmt.Errorf("%w: %q", format.ErrUnknownLanguage, name)
}

// Supports reports whether path has a registered extension.
func (r *Registry) Supports(path string) bool {
	_, ok := r.byExt[strings.ToLower(filepath.Ext(path))]
	return ok
}

// Extensions lists the registered extensions, sorted.
func (r *Registry) Extensions() []string {
	out := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		out = append(out, ext)
	}
	slices.Sort(out)
	return out
}

// Names lists the registered language names, sorted.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.byName))
	for name := range r.byName {
		out = append(out, name)
	}
	slices.Sort(out)
	return out
}
