package lsp

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"
)

func newTestServer(t *testing.T) (*Server, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	server := NewServer(bytes.NewReader(nil), &out, ServerOptions{Debounce: time.Hour, Log: io.Discard})
	t.Cleanup(server.stopDiagnostics)
	return server, &out
}

func call(t *testing.T, server *Server, method string, id int, params any) error {
	t.Helper()
	msg := &rpcMessage{JSONRPC: "2.0", Method: method}
	if params != nil {
		payload, err := json.Marshal(params)
		if err != nil {
			t.Fatalf("marshal params: %v", err)
		}
		msg.Params = payload
	}
	if id > 0 {
		msg.ID = json.RawMessage(strconv.Itoa(id))
	}
	return server.handleMessage(msg)
}

func messages(t *testing.T, out *bytes.Buffer) []rpcMessage {
	t.Helper()
	reader := bufio.NewReader(bytes.NewReader(out.Bytes()))
	var list []rpcMessage
	for {
		payload, err := readMessage(reader)
		if errors.Is(err, io.EOF) {
			return list
		}
		if err != nil {
			t.Fatalf("read message: %v", err)
		}
		var msg rpcMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			t.Fatalf("decode message: %v", err)
		}
		list = append(list, msg)
	}
}

func lastResult(t *testing.T, out *bytes.Buffer, into any) {
	t.Helper()
	list := messages(t, out)
	if len(list) == 0 {
		t.Fatal("no messages written")
	}
	last := list[len(list)-1]
	if last.Error != nil {
		t.Fatalf("unexpected error response: %+v", *last.Error)
	}
	if err := json.Unmarshal(last.Result, into); err != nil {
		t.Fatalf("decode result %s: %v", last.Result, err)
	}
}

func openDoc(t *testing.T, server *Server, name, languageID, text string) string {
	t.Helper()
	uri := pathToURI(filepath.Join(t.TempDir(), name))
	err := call(t, server, "textDocument/didOpen", 0, didOpenTextDocumentParams{
		TextDocument: textDocumentItem{URI: uri, LanguageID: languageID, Version: 1, Text: text},
	})
	if err != nil {
		t.Fatalf("didOpen: %v", err)
	}
	return uri
}

func flushDiagnostics(server *Server) {
	server.mu.Lock()
	seq := server.diagSeq
	if server.debounceTimer != nil {
		server.debounceTimer.Stop()
	}
	server.mu.Unlock()
	server.runDiagnostics(seq)
}

func TestInitializeCapabilities(t *testing.T) {
	server, out := newTestServer(t)
	if err := call(t, server, "initialize", 1, initializeParams{RootURI: pathToURI(t.TempDir())}); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	var result initializeResult
	lastResult(t, out, &result)
	caps := result.Capabilities
	if !caps.DocumentFormattingProvider || !caps.DocumentRangeFormattingProvider || !caps.Experimental.MapCursor {
		t.Fatalf("unexpected capabilities: %+v", caps)
	}
	if result.ServerInfo.Name != "loom" {
		t.Fatalf("unexpected server info: %+v", result.ServerInfo)
	}
}

func TestFormattingWholeDocument(t *testing.T) {
	server, out := newTestServer(t)
	text := "{\"a\":1,\n\"b\":[1,2,3]}"
	uri := openDoc(t, server, "a.json", "json", text)

	if err := call(t, server, "textDocument/formatting", 2, documentFormattingParams{TextDocument: textDocumentIdentifier{URI: uri}}); err != nil {
		t.Fatalf("formatting: %v", err)
	}
	var edits []textEdit
	lastResult(t, out, &edits)
	if len(edits) != 1 {
		t.Fatalf("expected one edit, got %d", len(edits))
	}
	if edits[0].NewText != "{ \"a\": 1, \"b\": [1, 2, 3] }\n" {
		t.Fatalf("unexpected text %q", edits[0].NewText)
	}
	want := lspRange{End: position{Line: 1, Character: 12}}
	if edits[0].Range != want {
		t.Fatalf("unexpected range %+v", edits[0].Range)
	}
}

func TestFormattingAlreadyFormatted(t *testing.T) {
	server, out := newTestServer(t)
	uri := openDoc(t, server, "a.json", "json", "[1, 2]\n")
	if err := call(t, server, "textDocument/formatting", 2, documentFormattingParams{TextDocument: textDocumentIdentifier{URI: uri}}); err != nil {
		t.Fatalf("formatting: %v", err)
	}
	var edits []textEdit
	lastResult(t, out, &edits)
	if len(edits) != 0 {
		t.Fatalf("expected no edits, got %+v", edits)
	}
}

func TestFormattingParseErrorFails(t *testing.T) {
	server, out := newTestServer(t)
	uri := openDoc(t, server, "a.json", "json", `{"a": 1`)
	if err := call(t, server, "textDocument/formatting", 2, documentFormattingParams{TextDocument: textDocumentIdentifier{URI: uri}}); err != nil {
		t.Fatalf("formatting: %v", err)
	}
	list := messages(t, out)
	last := list[len(list)-1]
	if last.Error == nil || last.Error.Code != codeRequestFailed {
		t.Fatalf("expected request failure, got %+v", last)
	}
}

func TestFormattingUnknownLanguage(t *testing.T) {
	server, out := newTestServer(t)
	uri := openDoc(t, server, "notes.txt", "plaintext", "hello")
	if err := call(t, server, "textDocument/formatting", 2, documentFormattingParams{TextDocument: textDocumentIdentifier{URI: uri}}); err != nil {
		t.Fatalf("formatting: %v", err)
	}
	list := messages(t, out)
	if last := list[len(list)-1]; last.Error != nil || string(last.Result) != "null" {
		t.Fatalf("expected null result, got %+v", last)
	}
}

func TestFormattingUntitledUsesLanguageID(t *testing.T) {
	server, out := newTestServer(t)
	uri := "untitled:Untitled-1"
	err := call(t, server, "textDocument/didOpen", 0, didOpenTextDocumentParams{
		TextDocument: textDocumentItem{URI: uri, LanguageID: "jsonc", Version: 1, Text: "[1,2]"},
	})
	if err != nil {
		t.Fatalf("didOpen: %v", err)
	}
	if err := call(t, server, "textDocument/formatting", 2, documentFormattingParams{TextDocument: textDocumentIdentifier{URI: uri}}); err != nil {
		t.Fatalf("formatting: %v", err)
	}
	var edits []textEdit
	lastResult(t, out, &edits)
	if len(edits) != 1 || edits[0].NewText != "[1, 2]\n" {
		t.Fatalf("unexpected edits %+v", edits)
	}
}

func TestClientSettingsOverrideWidth(t *testing.T) {
	server, out := newTestServer(t)
	uri := openDoc(t, server, "a.json", "json", `{"a":1,"b":2}`)
	settings := map[string]any{"settings": map[string]any{"loom": map[string]any{"printWidth": 10}}}
	if err := call(t, server, "workspace/didChangeConfiguration", 0, settings); err != nil {
		t.Fatalf("didChangeConfiguration: %v", err)
	}
	if err := call(t, server, "textDocument/formatting", 2, documentFormattingParams{TextDocument: textDocumentIdentifier{URI: uri}}); err != nil {
		t.Fatalf("formatting: %v", err)
	}
	var edits []textEdit
	lastResult(t, out, &edits)
	if len(edits) != 1 || edits[0].NewText != "{\n  \"a\": 1,\n  \"b\": 2\n}\n" {
		t.Fatalf("unexpected edits %+v", edits)
	}
}

func TestRangeFormatting(t *testing.T) {
	server, out := newTestServer(t)
	uri := openDoc(t, server, "a.json", "json", `{"a":1,"b":[1,2,3]}`)
	params := documentRangeFormattingParams{
		TextDocument: textDocumentIdentifier{URI: uri},
		Range:        lspRange{Start: position{Character: 11}, End: position{Character: 18}},
	}
	if err := call(t, server, "textDocument/rangeFormatting", 3, params); err != nil {
		t.Fatalf("rangeFormatting: %v", err)
	}
	var edits []textEdit
	lastResult(t, out, &edits)
	if len(edits) != 1 {
		t.Fatalf("expected one edit, got %+v", edits)
	}
	if edits[0].NewText != "[1, 2, 3]" {
		t.Fatalf("unexpected text %q", edits[0].NewText)
	}
	if edits[0].Range != params.Range {
		t.Fatalf("unexpected range %+v", edits[0].Range)
	}
}

func TestMapCursor(t *testing.T) {
	server, out := newTestServer(t)
	uri := openDoc(t, server, "a.json", "json", `{"a":1}`)
	params := mapCursorParams{TextDocument: textDocumentIdentifier{URI: uri}, Position: position{Character: 5}}
	if err := call(t, server, "loom/mapCursor", 4, params); err != nil {
		t.Fatalf("mapCursor: %v", err)
	}
	var result mapCursorResult
	lastResult(t, out, &result)
	if result.Position != (position{Character: 7}) {
		t.Fatalf("unexpected position %+v", result.Position)
	}
	if len(result.Edits) != 1 || result.Edits[0].NewText != "{ \"a\": 1 }\n" {
		t.Fatalf("unexpected edits %+v", result.Edits)
	}
}

func TestPublishDiagnostics(t *testing.T) {
	server, out := newTestServer(t)
	uri := openDoc(t, server, "a.json", "json", "{\n  \"a\": [1 2]\n}")
	flushDiagnostics(server)

	list := messages(t, out)
	if len(list) != 1 || list[0].Method != "textDocument/publishDiagnostics" {
		t.Fatalf("expected one publish, got %+v", list)
	}
	var params publishDiagnosticsParams
	if err := json.Unmarshal(list[0].Params, &params); err != nil {
		t.Fatalf("decode params: %v", err)
	}
	if params.URI != uri || params.Version == nil || *params.Version != 1 {
		t.Fatalf("unexpected publish target %+v", params)
	}
	found := false
	for _, got := range params.Diagnostics {
		if got.Severity == 1 && strings.HasPrefix(got.Code, "SYN") && got.Range.Start.Line == 1 {
			found = true
		}
		if got.Source != "loom" {
			t.Fatalf("unexpected source %q", got.Source)
		}
	}
	if !found {
		t.Fatalf("expected a syntax error on line 2, got %+v", params.Diagnostics)
	}
}

func TestPublishSkipsStaleText(t *testing.T) {
	server, out := newTestServer(t)
	uri := openDoc(t, server, "a.json", "json", `{"a": [1 2]}`)
	doc, _ := server.document(uri)
	err := call(t, server, "textDocument/didChange", 0, didChangeTextDocumentParams{
		TextDocument:   versionedTextDocumentIdentifier{URI: uri, Version: 2},
		ContentChanges: []textDocumentContentChangeEvent{{Text: "[]"}},
	})
	if err != nil {
		t.Fatalf("didChange: %v", err)
	}
	server.publishDiagnostics(doc, []lspDiagnostic{{Message: "stale"}})
	if list := messages(t, out); len(list) != 0 {
		t.Fatalf("stale diagnostics were published: %+v", list)
	}
}

func TestDidCloseClearsDiagnostics(t *testing.T) {
	server, out := newTestServer(t)
	uri := openDoc(t, server, "a.json", "json", `{"a" 1}`)
	flushDiagnostics(server)
	out.Reset()
	if err := call(t, server, "textDocument/didClose", 0, didCloseTextDocumentParams{TextDocument: textDocumentIdentifier{URI: uri}}); err != nil {
		t.Fatalf("didClose: %v", err)
	}
	list := messages(t, out)
	if len(list) != 1 {
		t.Fatalf("expected clearing publish, got %+v", list)
	}
	var params publishDiagnosticsParams
	if err := json.Unmarshal(list[0].Params, &params); err != nil {
		t.Fatalf("decode params: %v", err)
	}
	if params.URI != uri || len(params.Diagnostics) != 0 {
		t.Fatalf("unexpected publish %+v", params)
	}
}

func TestShutdownAndExit(t *testing.T) {
	server, out := newTestServer(t)
	if err := call(t, server, "exit", 0, nil); !errors.Is(err, ErrExitWithoutShutdown) {
		t.Fatalf("expected ErrExitWithoutShutdown, got %v", err)
	}
	if err := call(t, server, "shutdown", 1, nil); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if err := call(t, server, "textDocument/formatting", 2, documentFormattingParams{}); err != nil {
		t.Fatalf("request after shutdown: %v", err)
	}
	list := messages(t, out)
	if len(list) != 2 || list[1].Error == nil || list[1].Error.Code != codeInvalidRequest {
		t.Fatalf("expected invalid request after shutdown, got %+v", list)
	}
	if err := call(t, server, "exit", 0, nil); !errors.Is(err, ErrExit) {
		t.Fatalf("expected ErrExit, got %v", err)
	}
}

func TestUnknownMethod(t *testing.T) {
	server, out := newTestServer(t)
	if err := call(t, server, "textDocument/hover", 7, nil); err != nil {
		t.Fatalf("hover: %v", err)
	}
	list := messages(t, out)
	if len(list) != 1 || list[0].Error == nil || list[0].Error.Code != codeMethodNotFound {
		t.Fatalf("expected method not found, got %+v", list)
	}
	if err := call(t, server, "$/cancelRequest", 0, nil); err != nil {
		t.Fatalf("notification: %v", err)
	}
	if got := messages(t, out); len(got) != 1 {
		t.Fatalf("notifications must not be answered, got %+v", got)
	}
}

func TestRunOverStdio(t *testing.T) {
	uri := pathToURI(filepath.Join(t.TempDir(), "a.md"))
	var in bytes.Buffer
	frame := func(v any) {
		payload, err := json.Marshal(v)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		if err := writeMessage(&in, payload); err != nil {
			t.Fatalf("frame: %v", err)
		}
	}
	frame(map[string]any{"jsonrpc": "2.0", "id": 1, "method": "initialize", "params": map[string]any{}})
	frame(map[string]any{"jsonrpc": "2.0", "method": "textDocument/didOpen", "params": didOpenTextDocumentParams{
		TextDocument: textDocumentItem{URI: uri, LanguageID: "markdown", Version: 1, Text: "#   Title\n\n\n\ntext\n"},
	}})
	frame(map[string]any{"jsonrpc": "2.0", "id": 2, "method": "textDocument/formatting", "params": documentFormattingParams{
		TextDocument: textDocumentIdentifier{URI: uri},
	}})
	frame(map[string]any{"jsonrpc": "2.0", "id": 3, "method": "shutdown"})
	frame(map[string]any{"jsonrpc": "2.0", "method": "exit"})

	var out bytes.Buffer
	server := NewServer(&in, &out, ServerOptions{Debounce: time.Hour, Log: io.Discard})
	if err := server.Run(t.Context()); !errors.Is(err, ErrExit) {
		t.Fatalf("expected ErrExit, got %v", err)
	}
	list := messages(t, &out)
	if len(list) != 3 {
		t.Fatalf("expected three responses, got %d", len(list))
	}
	var edits []textEdit
	if err := json.Unmarshal(list[1].Result, &edits); err != nil {
		t.Fatalf("decode edits: %v", err)
	}
	if len(edits) != 1 || edits[0].NewText != "# Title\n\ntext\n" {
		t.Fatalf("unexpected edits %+v", edits)
	}
}
