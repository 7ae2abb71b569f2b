package lsp

import (
	"context"
	"errors"
	"path/filepath"
	"sort"
	"time"

	"loom/internal/diag"
	"loom/internal/driver"
	"loom/internal/format"
	"loom/internal/source"
)

// scheduleDiagnostics queues uris and restarts the debounce timer.
func (s *Server) scheduleDiagnostics(uris ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, uri := range uris {
		s.pending[uri] = struct{}{}
	}
	s.diagSeq++
	seq := s.diagSeq
	if s.debounceTimer != nil {
		s.debounceTimer.Stop()
	}
	s.debounceTimer = time.AfterFunc(s.debounce, func() {
		s.runDiagnostics(seq)
	})
}

// runDiagnostics formats every queued document and publishes what the
// engine reported. A newer schedule supersedes seq.
func (s *Server) runDiagnostics(seq uint64) {
	s.mu.Lock()
	if seq != s.diagSeq || s.shutdownRequested {
		s.mu.Unlock()
		return
	}
	ctx := s.baseCtx
	docs := make([]document, 0, len(s.pending))
	for uri := range s.pending {
		if doc, ok := s.docs[uri]; ok {
			docs = append(docs, doc)
		}
	}
	clear(s.pending)
	s.mu.Unlock()

	sort.Slice(docs, func(i, j int) bool { return docs[i].uri < docs[j].uri })
	for _, doc := range docs {
		if ctx.Err() != nil {
			return
		}
		list, ok := s.diagnose(ctx, doc)
		if !ok {
			continue
		}
		s.publishDiagnostics(doc, list)
	}
}

// stopDiagnostics cancels the pending timer and any run in flight.
func (s *Server) stopDiagnostics() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.debounceTimer != nil {
		s.debounceTimer.Stop()
	}
	if s.diagCancel != nil {
		s.diagCancel()
	}
}

func (s *Server) diagnose(ctx context.Context, doc document) ([]lspDiagnostic, bool) {
	path, opts := s.formatOptions(doc)
	opts.Cache = nil
	res := driver.FormatSource(ctx, path, []byte(doc.text), opts)
	if errors.Is(res.Err, format.ErrUnknownLanguage) {
		return nil, false
	}
	list := make([]lspDiagnostic, 0, len(res.Diagnostics)+1)
	for _, d := range res.Diagnostics {
		list = append(list, toLSPDiagnostic(res.File, d))
	}
	if res.Err != nil && !errors.Is(res.Err, format.ErrParse) {
		list = append(list, lspDiagnostic{Severity: 1, Source: "loom", Message: res.Err.Error()})
	}
	return list, true
}

// publishDiagnostics drops results computed for an outdated text.
func (s *Server) publishDiagnostics(doc document, list []lspDiagnostic) {
	s.mu.Lock()
	current, open := s.docs[doc.uri]
	if !open || !current.current(doc) {
		s.mu.Unlock()
		return
	}
	if len(list) > 0 {
		s.published[doc.uri] = struct{}{}
	} else {
		delete(s.published, doc.uri)
	}
	trace := s.traceLSP
	s.mu.Unlock()
	if trace {
		s.logf("publishDiagnostics: uri=%s version=%d count=%d", doc.uri, doc.version, len(list))
	}
	version := doc.version
	if err := s.sendPublish(doc.uri, &version, list); err != nil {
		s.logf("failed to publish diagnostics: %v", err)
	}
}

func (s *Server) clearPublishedDiagnostics() {
	s.mu.Lock()
	uris := make([]string, 0, len(s.published))
	for uri := range s.published {
		uris = append(uris, uri)
	}
	clear(s.published)
	s.mu.Unlock()
	sort.Strings(uris)
	for _, uri := range uris {
		if err := s.sendPublish(uri, nil, nil); err != nil {
			s.logf("failed to clear diagnostics: %v", err)
		}
	}
}

// formatOptions resolves the path used for language and configuration
// lookup. Documents without a usable path fall back to their language id
// and the workspace configuration.
func (s *Server) formatOptions(doc document) (string, driver.FormatOptions) {
	path := uriToPath(doc.uri)
	opts := driver.FormatOptions{
		Mode:           driver.ModeStdout,
		Registry:       s.registry,
		Overrides:      s.currentOverrides(),
		Cache:          s.cache,
		MaxDiagnostics: s.maxDiagnostics,
	}
	if path == "" || !s.registry.Supports(path) {
		opts.Language = languageForID(doc.languageID)
	}
	if path == "" {
		s.mu.Lock()
		root := s.workspaceRoot
		s.mu.Unlock()
		if root == "" {
			root = "."
		}
		path = filepath.Join(root, "untitled")
	}
	return path, opts
}

func toLSPDiagnostic(file *source.File, d diag.Diagnostic) lspDiagnostic {
	return lspDiagnostic{
		Range:    rangeForSpan(file, d.Primary),
		Severity: lspSeverity(d.Severity),
		Code:     d.Code.ID(),
		Source:   "loom",
		Message:  d.Message,
	}
}

func lspSeverity(sev diag.Severity) int {
	switch sev {
	case diag.SevError:
		return 1
	case diag.SevWarning:
		return 2
	default:
		return 3
	}
}
