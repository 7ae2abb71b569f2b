package lsp

import (
	"encoding/json"
	"path/filepath"

	"loom/internal/config"
)

// document is a snapshot of an open buffer. Results computed for one
// snapshot are published only while it is still the current one.
type document struct {
	uri        string
	text       string
	version    int
	languageID string
}

func (d document) current(other document) bool {
	return d.version == other.version && d.text == other.text
}

func decode[T any](raw json.RawMessage) (T, bool) {
	var v T
	if len(raw) == 0 {
		return v, false
	}
	err := json.Unmarshal(raw, &v)
	return v, err == nil
}

func (s *Server) document(uri string) (document, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[uri]
	return doc, ok
}

func (s *Server) openURIs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.docs))
	for uri := range s.docs {
		out = append(out, uri)
	}
	return out
}

func (s *Server) handleDidOpen(msg *rpcMessage) error {
	params, ok := decode[didOpenTextDocumentParams](msg.Params)
	uri := canonicalURI(params.TextDocument.URI)
	if !ok || uri == "" {
		return nil
	}
	s.mu.Lock()
	s.docs[uri] = document{
		uri:        uri,
		text:       params.TextDocument.Text,
		version:    params.TextDocument.Version,
		languageID: params.TextDocument.LanguageID,
	}
	s.mu.Unlock()
	s.scheduleDiagnostics(uri)
	return nil
}

func (s *Server) handleDidChange(msg *rpcMessage) error {
	params, ok := decode[didChangeTextDocumentParams](msg.Params)
	uri := canonicalURI(params.TextDocument.URI)
	if !ok || uri == "" {
		return nil
	}
	s.mu.Lock()
	doc, open := s.docs[uri]
	if !open {
		s.mu.Unlock()
		return nil
	}
	doc.text = applyChanges(doc.text, params.ContentChanges)
	doc.version = params.TextDocument.Version
	s.docs[uri] = doc
	trace := s.traceLSP
	s.mu.Unlock()
	if trace {
		s.logf("didChange: uri=%s version=%d changes=%d", uri, doc.version, len(params.ContentChanges))
	}
	s.scheduleDiagnostics(uri)
	return nil
}

func (s *Server) handleDidSave(msg *rpcMessage) error {
	params, ok := decode[didSaveTextDocumentParams](msg.Params)
	uri := canonicalURI(params.TextDocument.URI)
	if !ok || uri == "" {
		return nil
	}
	s.mu.Lock()
	if doc, open := s.docs[uri]; open && params.Text != nil {
		doc.text = *params.Text
		s.docs[uri] = doc
	}
	s.mu.Unlock()
	// a saved loom.toml changes the options of every open document
	if base := filepath.Base(uriToPath(uri)); base == config.TomlName || base == config.YamlName {
		s.scheduleDiagnostics(s.openURIs()...)
		return nil
	}
	s.scheduleDiagnostics(uri)
	return nil
}

func (s *Server) handleDidClose(msg *rpcMessage) error {
	params, ok := decode[didCloseTextDocumentParams](msg.Params)
	uri := canonicalURI(params.TextDocument.URI)
	if !ok || uri == "" {
		return nil
	}
	s.mu.Lock()
	delete(s.docs, uri)
	delete(s.pending, uri)
	_, hadDiagnostics := s.published[uri]
	delete(s.published, uri)
	s.mu.Unlock()
	if hadDiagnostics {
		if err := s.sendPublish(uri, nil, nil); err != nil {
			s.logf("failed to clear diagnostics: %v", err)
		}
	}
	return nil
}
