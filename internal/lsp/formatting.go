package lsp

import (
	"encoding/json"
	"errors"
	"path/filepath"

	"loom/internal/config"
	"loom/internal/driver"
	"loom/internal/format"
	"loom/internal/source"
)

func (s *Server) handleFormatting(msg *rpcMessage) error {
	var params documentFormattingParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return s.sendError(msg.ID, codeInvalidParams, "invalid params")
	}
	doc, ok := s.document(canonicalURI(params.TextDocument.URI))
	if !ok {
		return s.sendResponse(msg.ID, nil)
	}
	path, opts := s.formatOptions(doc)
	res := driver.FormatSource(s.context(), path, []byte(doc.text), opts)
	switch {
	case errors.Is(res.Err, format.ErrUnknownLanguage):
		return s.sendResponse(msg.ID, nil)
	case res.Err != nil:
		return s.sendError(msg.ID, codeRequestFailed, res.Err.Error())
	}
	return s.sendResponse(msg.ID, wholeDocumentEdits(doc.text, res.Formatted, res.Changed))
}

func (s *Server) handleRangeFormatting(msg *rpcMessage) error {
	var params documentRangeFormattingParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return s.sendError(msg.ID, codeInvalidParams, "invalid params")
	}
	doc, ok := s.document(canonicalURI(params.TextDocument.URI))
	if !ok {
		return s.sendResponse(msg.ID, nil)
	}
	l, file, opts, err := s.prepare(doc)
	if errors.Is(err, format.ErrUnknownLanguage) {
		return s.sendResponse(msg.ID, nil)
	}
	if err != nil {
		return s.sendError(msg.ID, codeRequestFailed, err.Error())
	}
	span := source.Span{
		File:  file.ID,
		Start: fileOffset(file, params.Range.Start),
		End:   fileOffset(file, params.Range.End),
	}
	edit, ok, err := format.FormatRange(s.context(), l, file, opts, span)
	if err != nil {
		return s.sendError(msg.ID, codeRequestFailed, err.Error())
	}
	if !ok || string(file.Slice(edit.Span)) == edit.Text {
		return s.sendResponse(msg.ID, []textEdit{})
	}
	return s.sendResponse(msg.ID, []textEdit{{Range: rangeForSpan(file, edit.Span), NewText: edit.Text}})
}

// handleMapCursor formats the whole document and reports where the given
// position lands in the output, together with the edit producing it.
func (s *Server) handleMapCursor(msg *rpcMessage) error {
	var params mapCursorParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return s.sendError(msg.ID, codeInvalidParams, "invalid params")
	}
	doc, ok := s.document(canonicalURI(params.TextDocument.URI))
	if !ok {
		return s.sendResponse(msg.ID, nil)
	}
	l, file, opts, err := s.prepare(doc)
	if errors.Is(err, format.ErrUnknownLanguage) {
		return s.sendResponse(msg.ID, nil)
	}
	if err != nil {
		return s.sendError(msg.ID, codeRequestFailed, err.Error())
	}
	res, err := format.FormatFile(s.context(), l, file, opts)
	if err != nil {
		return s.sendError(msg.ID, codeRequestFailed, err.Error())
	}
	if res.Unchanged {
		return s.sendResponse(msg.ID, mapCursorResult{Position: params.Position, Edits: []textEdit{}})
	}
	off := res.Map.MapOffset(fileOffset(file, params.Position))
	changed := string(res.Code) != doc.text
	return s.sendResponse(msg.ID, mapCursorResult{
		Position: positionForOffset(res.Code, off),
		Edits:    wholeDocumentEdits(doc.text, res.Code, changed),
	})
}

// prepare resolves the language, options and source file of doc the same
// way the driver does for files on disk.
func (s *Server) prepare(doc document) (format.Language, *source.File, format.Options, error) {
	path, dopts := s.formatOptions(doc)
	var (
		l   format.Language
		err error
	)
	if dopts.Language != "" {
		l, err = s.registry.ByName(dopts.Language)
	} else {
		l, err = s.registry.ForPath(path)
	}
	if err != nil {
		return nil, nil, format.Options{}, err
	}
	cfg, err := config.Discover(filepath.Dir(path))
	if err != nil {
		return nil, nil, format.Options{}, err
	}
	opts, err := cfg.Options(l.Name(), dopts.Overrides)
	if err != nil {
		return nil, nil, format.Options{}, err
	}
	fs := source.NewFileSet()
	file := fs.Get(fs.AddVirtual(path, []byte(doc.text)))
	return l, file, opts, nil
}

func wholeDocumentEdits(before string, after []byte, changed bool) []textEdit {
	if !changed {
		return []textEdit{}
	}
	return []textEdit{{Range: fullRange(before), NewText: string(after)}}
}
