package lsp

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"loom/internal/config"
	"loom/internal/driver"
	"loom/internal/lang"
	"loom/internal/version"
)

var (
	// ErrExit signals a graceful shutdown after receiving "exit".
	ErrExit = errors.New("lsp exit")
	// ErrExitWithoutShutdown signals an "exit" without a preceding "shutdown".
	ErrExitWithoutShutdown = errors.New("lsp exit without shutdown")
)

// ServerOptions configures LSP server behavior.
type ServerOptions struct {
	Debounce time.Duration
	// Registry defaults to lang.Default().
	Registry *lang.Registry
	// Overrides apply on top of the project configuration, below client
	// settings.
	Overrides      config.Settings
	Cache          *driver.DiskCache
	MaxDiagnostics int
	// Log receives server logs; os.Stderr when nil.
	Log io.Writer
}

// Server handles stdio JSON-RPC for the loom language server.
type Server struct {
	in     *bufio.Reader
	out    *bufio.Writer
	sendMu sync.Mutex
	mu     sync.Mutex

	docs      map[string]document
	published map[string]struct{}
	pending   map[string]struct{}

	workspaceRoot     string
	shutdownRequested bool
	debounce          time.Duration
	debounceTimer     *time.Timer
	diagCancel        context.CancelFunc
	diagSeq           uint64

	registry       *lang.Registry
	cache          *driver.DiskCache
	overrides      config.Settings
	client         config.Settings
	maxDiagnostics int
	traceLSP       bool
	baseCtx        context.Context
	log            io.Writer
}

// NewServer constructs a new LSP server.
func NewServer(in io.Reader, out io.Writer, opts ServerOptions) *Server {
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = 200 * time.Millisecond
	}
	registry := opts.Registry
	if registry == nil {
		registry = lang.Default()
	}
	maxDiagnostics := opts.MaxDiagnostics
	if maxDiagnostics <= 0 {
		maxDiagnostics = 100
	}
	log := opts.Log
	if log == nil {
		log = os.Stderr
	}
	return &Server{
		in:             bufio.NewReader(in),
		out:            bufio.NewWriter(out),
		docs:           make(map[string]document),
		published:      make(map[string]struct{}),
		pending:        make(map[string]struct{}),
		debounce:       debounce,
		registry:       registry,
		cache:          opts.Cache,
		overrides:      opts.Overrides,
		maxDiagnostics: maxDiagnostics,
		baseCtx:        context.Background(),
		log:            log,
	}
}

// Run serves LSP requests until exit or EOF.
func (s *Server) Run(ctx context.Context) error {
	s.mu.Lock()
	s.baseCtx, s.diagCancel = context.WithCancel(ctx)
	s.mu.Unlock()
	defer s.stopDiagnostics()
	for {
		payload, err := readMessage(s.in)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		var msg rpcMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			s.logf("failed to parse message: %v", err)
			if err := s.sendError(nil, codeParseError, "parse error"); err != nil {
				return err
			}
			continue
		}
		if msg.Method == "" {
			continue
		}
		if err := s.handleMessage(&msg); err != nil {
			return err
		}
	}
}

func (s *Server) handleMessage(msg *rpcMessage) error {
	if s.currentTrace() {
		start := time.Now()
		defer func() { s.logf("%s handled in %s", msg.Method, time.Since(start)) }()
	}
	s.mu.Lock()
	down := s.shutdownRequested
	s.mu.Unlock()
	if down && msg.Method != "exit" {
		if msg.isRequest() {
			return s.sendError(msg.ID, codeInvalidRequest, "server is shutting down")
		}
		return nil
	}
	if msg.Method == "exit" {
		if down {
			return ErrExit
		}
		return ErrExitWithoutShutdown
	}
	if h, ok := handlers[msg.Method]; ok {
		return h(s, msg)
	}
	if msg.isRequest() {
		return s.sendError(msg.ID, codeMethodNotFound, "method not found")
	}
	return nil
}

var handlers = map[string]func(*Server, *rpcMessage) error{
	"initialize":                       (*Server).handleInitialize,
	"initialized":                      func(*Server, *rpcMessage) error { return nil },
	"shutdown":                         (*Server).handleShutdown,
	"workspace/didChangeConfiguration": (*Server).handleDidChangeConfiguration,
	"textDocument/didOpen":             (*Server).handleDidOpen,
	"textDocument/didChange":           (*Server).handleDidChange,
	"textDocument/didSave":             (*Server).handleDidSave,
	"textDocument/didClose":            (*Server).handleDidClose,
	"textDocument/formatting":          (*Server).handleFormatting,
	"textDocument/rangeFormatting":     (*Server).handleRangeFormatting,
	"loom/mapCursor":                   (*Server).handleMapCursor,
}

func (s *Server) handleInitialize(msg *rpcMessage) error {
	params, ok := decode[initializeParams](msg.Params)
	if !ok && len(msg.Params) > 0 {
		return s.sendError(msg.ID, codeInvalidParams, "invalid params")
	}
	root := workspaceRootOf(params)
	s.mu.Lock()
	s.workspaceRoot = root
	s.mu.Unlock()
	if len(params.InitializationOptions) > 0 {
		s.applySettings(params.InitializationOptions)
	}

	result := initializeResult{
		Capabilities: serverCapabilities{
			TextDocumentSync: textDocumentSyncOptions{
				OpenClose: true,
				Change:    2,
				Save: saveOptions{
					IncludeText: true,
				},
			},
			DocumentFormattingProvider:      true,
			DocumentRangeFormattingProvider: true,
			Experimental:                    experimentalCaps{MapCursor: true},
		},
		ServerInfo: serverInfo{Name: "loom", Version: version.Plain()},
	}
	return s.sendResponse(msg.ID, result)
}

// workspaceRootOf picks rootUri, then rootPath, then the first workspace
// folder. Untitled buffers resolve their configuration from this root.
func workspaceRootOf(params initializeParams) string {
	root := uriToPath(params.RootURI)
	if root == "" {
		root = params.RootPath
	}
	if root == "" && len(params.WorkspaceFolders) > 0 {
		root = uriToPath(params.WorkspaceFolders[0].URI)
	}
	if root == "" {
		return ""
	}
	if abs, err := filepath.Abs(root); err == nil {
		return abs
	}
	return root
}

func (s *Server) handleShutdown(msg *rpcMessage) error {
	s.mu.Lock()
	s.shutdownRequested = true
	s.mu.Unlock()
	s.stopDiagnostics()
	s.clearPublishedDiagnostics()
	return s.sendResponse(msg.ID, nil)
}

func (s *Server) sendResponse(id json.RawMessage, result any) error {
	msg := map[string]any{
		"jsonrpc": "2.0",
		"id":      json.RawMessage(id),
		"result":  result,
	}
	return s.send(msg)
}

func (s *Server) sendError(id json.RawMessage, code int, message string) error {
	if len(id) == 0 {
		id = json.RawMessage("null")
	}
	msg := map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"error": rpcError{
			Code:    code,
			Message: message,
		},
	}
	return s.send(msg)
}

func (s *Server) sendPublish(uri string, version *int, list []lspDiagnostic) error {
	if list == nil {
		list = []lspDiagnostic{}
	}
	msg := map[string]any{
		"jsonrpc": "2.0",
		"method":  "textDocument/publishDiagnostics",
		"params": publishDiagnosticsParams{
			URI:         uri,
			Version:     version,
			Diagnostics: list,
		},
	}
	return s.send(msg)
}

func (s *Server) send(msg any) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	if err := writeMessage(s.out, payload); err != nil {
		return err
	}
	return s.out.Flush()
}

func (s *Server) logf(format string, args ...any) {
	fmt.Fprintf(s.log, "lsp: "+format+"\n", args...)
}

func (s *Server) context() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.baseCtx
}
