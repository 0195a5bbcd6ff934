// Copyright © 2024 The Quill authors

// Package lsp implements a Language Server Protocol server over the
// analysis service.  It provides diagnostics, hover, go-to-definition,
// references, highlights, completion, signature help, document symbols,
// rename, call hierarchy, folding, semantic tokens, quick fixes and
// formatting.
package lsp

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/luthersystems/quill/query"
	"github.com/luthersystems/quill/service"
	"github.com/rs/zerolog"
	"github.com/tliron/glsp"
	glspserver "github.com/tliron/glsp/server"

	protocol "github.com/tliron/glsp/protocol_3_16"
)

const serverName = "quill-lsp"

// DefaultDebounce is the delay between the last change to a document and
// its re-analysis.
const DefaultDebounce = 300 * time.Millisecond

// Server is the quill language server.
type Server struct {
	handler  protocol.Handler
	glspSrv  *glspserver.Server
	docs     *DocumentStore
	svc      *service.Service
	logger   zerolog.Logger
	rootURI  string
	rootPath string

	// External formatter reading the document on stdin.
	formatCmd []string

	// Debouncer for didChange notifications.
	debounceMu    sync.Mutex
	debounce      map[string]*time.Timer
	debounceDelay time.Duration

	// Context for sending notifications (captured from latest request).
	notifyMu sync.Mutex
	notify   glsp.NotifyFunc

	// exitFn is called on the LSP exit notification. Defaults to os.Exit.
	// Overridable for testing.
	exitFn func(int)

	// analyzeFn analyzes a document. Defaults to the service's Analyze.
	// Overridable for testing.
	analyzeFn func(ctx context.Context, uri, text string) (*service.AnalyzeResult, error)
}

// Option configures the LSP server.
type Option func(*Server)

// WithService sets the service analyzing open documents.
func WithService(svc *service.Service) Option {
	return func(s *Server) { s.svc = svc }
}

// WithLogger sets the server logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// WithDebounce sets the delay before a changed document is re-analyzed.
func WithDebounce(d time.Duration) Option {
	return func(s *Server) { s.debounceDelay = d }
}

// WithFormatCommand sets the program used for textDocument/formatting.  The
// document is written to its stdin and the formatted text read from its
// stdout.
func WithFormatCommand(argv []string) Option {
	return func(s *Server) { s.formatCmd = argv }
}

// New creates a new language server.
func New(opts ...Option) *Server {
	s := &Server{
		docs:          NewDocumentStore(),
		logger:        zerolog.Nop(),
		debounce:      make(map[string]*time.Timer),
		debounceDelay: DefaultDebounce,
		exitFn:        os.Exit,
	}
	for _, o := range opts {
		o(s)
	}
	if s.svc == nil {
		s.svc = service.New(service.WithLogger(s.logger))
	}
	s.analyzeFn = s.svc.Analyze

	s.handler = protocol.Handler{
		Initialize:  s.initialize,
		Initialized: s.initialized,
		Shutdown:    s.shutdown,
		Exit:        s.exit,
		SetTrace:    s.setTrace,

		TextDocumentDidOpen:   s.textDocumentDidOpen,
		TextDocumentDidChange: s.textDocumentDidChange,
		TextDocumentDidSave:   s.textDocumentDidSave,
		TextDocumentDidClose:  s.textDocumentDidClose,

		TextDocumentHover:              s.textDocumentHover,
		TextDocumentDefinition:         s.textDocumentDefinition,
		TextDocumentCompletion:         s.textDocumentCompletion,
		TextDocumentReferences:         s.textDocumentReferences,
		TextDocumentDocumentHighlight:  s.textDocumentDocumentHighlight,
		TextDocumentDocumentSymbol:     s.textDocumentDocumentSymbol,
		TextDocumentRename:             s.textDocumentRename,
		TextDocumentPrepareRename:      s.textDocumentPrepareRename,
		TextDocumentFormatting:         s.textDocumentFormatting,
		TextDocumentSignatureHelp:      s.textDocumentSignatureHelp,
		TextDocumentCodeAction:         s.textDocumentCodeAction,
		TextDocumentFoldingRange:       s.textDocumentFoldingRange,
		TextDocumentSemanticTokensFull: s.textDocumentSemanticTokensFull,
		WorkspaceSymbol:                s.workspaceSymbol,

		TextDocumentPrepareCallHierarchy: s.textDocumentPrepareCallHierarchy,
		CallHierarchyIncomingCalls:       s.callHierarchyIncomingCalls,
		CallHierarchyOutgoingCalls:       s.callHierarchyOutgoingCalls,
	}

	s.glspSrv = glspserver.NewServer(&s.handler, serverName, false)
	return s
}

// RunStdio starts the server using stdio transport.
func (s *Server) RunStdio() error {
	return s.glspSrv.RunStdio()
}

// RunTCP starts the server listening on the given address.
func (s *Server) RunTCP(addr string) error {
	return s.glspSrv.RunTCP(addr)
}

// initialize handles the LSP initialize request.
func (s *Server) initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	s.captureNotify(ctx)

	if params.RootURI != nil {
		s.rootURI = *params.RootURI
		s.rootPath = uriToPath(s.rootURI)
	} else if params.RootPath != nil {
		s.rootPath = *params.RootPath
		s.rootURI = pathToURI(s.rootPath)
	}
	s.logger.Info().Str("root", s.rootPath).Msg("initialize")

	capabilities := s.handler.CreateServerCapabilities()

	// Override text document sync to full.
	syncKind := protocol.TextDocumentSyncKindFull
	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: boolPtr(true),
		Change:    &syncKind,
		Save:      &protocol.SaveOptions{IncludeText: boolPtr(false)},
	}

	capabilities.CompletionProvider = &protocol.CompletionOptions{
		TriggerCharacters: []string{"."},
	}

	capabilities.RenameProvider = &protocol.RenameOptions{
		PrepareProvider: boolPtr(true),
	}

	capabilities.SignatureHelpProvider = &protocol.SignatureHelpOptions{
		TriggerCharacters:   []string{"(", ","},
		RetriggerCharacters: []string{")"},
	}

	capabilities.SemanticTokensProvider = &protocol.SemanticTokensOptions{
		Legend: semanticTokenLegend(),
		Full:   true,
	}

	if len(s.formatCmd) == 0 {
		capabilities.DocumentFormattingProvider = nil
	}

	version := "0.1.0"
	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    serverName,
			Version: &version,
		},
	}, nil
}

func (s *Server) initialized(ctx *glsp.Context, _ *protocol.InitializedParams) error {
	s.captureNotify(ctx)
	return nil
}

// shutdown handles the LSP shutdown request.
func (s *Server) shutdown(_ *glsp.Context) error {
	// Cancel any pending debounce timers.
	s.debounceMu.Lock()
	for _, t := range s.debounce {
		t.Stop()
	}
	s.debounce = make(map[string]*time.Timer)
	s.debounceMu.Unlock()

	return nil
}

// exit handles the LSP exit notification by terminating the process.
func (s *Server) exit(_ *glsp.Context) error {
	s.exitFn(0)
	return nil
}

// setTrace handles the $/setTrace notification (required by some clients).
func (s *Server) setTrace(_ *glsp.Context, _ *protocol.SetTraceParams) error {
	return nil
}

// ensureAnalysis returns the snapshot of the document's current content,
// analyzing it first if needed.  When the analysis fails the document's
// previous snapshot is returned, or nil if it has none; the failure is
// logged.
func (s *Server) ensureAnalysis(doc *Document) (service.ID, *query.Snapshot) {
	doc.mu.Lock()
	defer doc.mu.Unlock()
	if doc.snap != nil {
		return doc.id, doc.snap
	}
	ctx := s.logger.WithContext(context.Background())
	res, err := s.analyzeFn(ctx, doc.URI, doc.Content)
	if err != nil {
		s.logger.Warn().Err(err).Str("uri", doc.URI).Msg("serving previous snapshot")
		return s.latest(doc.URI)
	}
	snap, err := s.svc.Snapshot(res.ID)
	if err != nil {
		s.logger.Error().Err(err).Str("uri", doc.URI).Msg("snapshot evicted")
		return "", nil
	}
	doc.id, doc.snap = res.ID, snap
	return doc.id, doc.snap
}

// latest returns the newest snapshot the service holds for uri.
func (s *Server) latest(uri string) (service.ID, *query.Snapshot) {
	id, ok := s.svc.Latest(uri)
	if !ok {
		return "", nil
	}
	snap, err := s.svc.Snapshot(id)
	if err != nil {
		return "", nil
	}
	return id, snap
}

// lookup returns the open document at uri and its analysis.
func (s *Server) lookup(uri string) (*Document, service.ID, *query.Snapshot) {
	doc := s.docs.Get(uri)
	if doc == nil {
		return nil, "", nil
	}
	id, snap := s.ensureAnalysis(doc)
	return doc, id, snap
}

// captureNotify stores the notification function from the context for
// async use (e.g., publishing diagnostics after a debounce).
func (s *Server) captureNotify(ctx *glsp.Context) {
	s.notifyMu.Lock()
	s.notify = ctx.Notify
	s.notifyMu.Unlock()
}

// sendNotification sends a notification to the client.
func (s *Server) sendNotification(method string, params any) {
	s.notifyMu.Lock()
	fn := s.notify
	s.notifyMu.Unlock()
	if fn != nil {
		fn(method, params)
	}
}

func boolPtr(b bool) *bool {
	return &b
}
