package lsp

import (
	"encoding/json"

	"loom/internal/config"
)

type lspSettings struct {
	Loom loomSettings `json:"loom"`
}

// loomSettings are client-side overrides. They sit above the project
// configuration file and the server's own overrides.
type loomSettings struct {
	config.Settings
	Trace *bool `json:"trace,omitempty"`
}

func (s *Server) handleDidChangeConfiguration(msg *rpcMessage) error {
	if len(msg.Params) == 0 {
		return nil
	}
	var params didChangeConfigurationParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return nil
	}
	if s.applySettings(params.Settings) {
		s.scheduleDiagnostics(s.openURIs()...)
	}
	return nil
}

// applySettings reports whether anything affecting formatting changed.
func (s *Server) applySettings(raw json.RawMessage) bool {
	if len(raw) == 0 {
		return false
	}
	var settings lspSettings
	if err := json.Unmarshal(raw, &settings); err != nil {
		s.logf("ignoring settings: %v", err)
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if settings.Loom.Trace != nil {
		s.traceLSP = *settings.Loom.Trace
	}
	changed := !s.client.IsZero() || !settings.Loom.Settings.IsZero()
	s.client = settings.Loom.Settings
	return changed
}

// mergeSettings layers top over base field by field.
func mergeSettings(base, top config.Settings) config.Settings {
	out := base
	if top.PrintWidth != nil {
		out.PrintWidth = top.PrintWidth
	}
	if top.IndentStyle != nil {
		out.IndentStyle = top.IndentStyle
	}
	if top.IndentWidth != nil {
		out.IndentWidth = top.IndentWidth
	}
	if top.TabWidth != nil {
		out.TabWidth = top.TabWidth
	}
	if top.LineEnding != nil {
		out.LineEnding = top.LineEnding
	}
	if top.QuoteStyle != nil {
		out.QuoteStyle = top.QuoteStyle
	}
	if top.TrailingComma != nil {
		out.TrailingComma = top.TrailingComma
	}
	if top.ProseWrap != nil {
		out.ProseWrap = top.ProseWrap
	}
	return out
}

// currentOverrides combines server flags with client settings.
func (s *Server) currentOverrides() config.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return mergeSettings(s.overrides, s.client)
}

func (s *Server) currentTrace() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.traceLSP
}
