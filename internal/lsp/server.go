package lsp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dshills/datacard/internal/align"
	"github.com/dshills/datacard/internal/datacard"
	"github.com/dshills/datacard/internal/engine/buffer"
	"github.com/dshills/datacard/internal/lint"
	"github.com/dshills/datacard/internal/vocab"
)

// ServerName is reported in the initialize response and as the source of
// published diagnostics.
const ServerName = "datacard"

// defaultCacheSize bounds the number of cached analyses.
const defaultCacheSize = 64

// ServerStatus is the lifecycle state of a Server.
type ServerStatus int32

const (
	ServerStatusStarting ServerStatus = iota
	ServerStatusReady
	ServerStatusShuttingDown
)

// String returns a human-readable status name.
func (s ServerStatus) String() string {
	switch s {
	case ServerStatusStarting:
		return "starting"
	case ServerStatusReady:
		return "ready"
	case ServerStatusShuttingDown:
		return "shutting down"
	default:
		return "unknown"
	}
}

// Server is a language server for datacards speaking LSP over a single
// stream pair. Messages are handled one at a time in arrival order.
type Server struct {
	transport *Transport
	documents *DocumentManager
	logger    *zap.Logger

	vocab   *vocab.Vocabulary
	aligner *align.Aligner
	linter  *lint.Engine
	version string

	status atomic.Int32

	requests      map[string]requestHandler
	notifications map[string]notificationHandler
}

type requestHandler func(ctx context.Context, params json.RawMessage) (any, error)

type notificationHandler func(ctx context.Context, params json.RawMessage) error

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger. A nil logger is ignored.
func WithLogger(l *zap.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithVocabulary sets the keyword vocabulary used for completion and hover.
func WithVocabulary(v *vocab.Vocabulary) Option {
	return func(s *Server) {
		if v != nil {
			s.vocab = v
		}
	}
}

// WithAligner sets the aligner used for formatting.
func WithAligner(a *align.Aligner) Option {
	return func(s *Server) {
		if a != nil {
			s.aligner = a
		}
	}
}

// WithLinter sets the lint engine used to produce diagnostics. The caller
// keeps ownership and must close it.
func WithLinter(e *lint.Engine) Option {
	return func(s *Server) {
		if e != nil {
			s.linter = e
		}
	}
}

// WithVersion sets the version reported to clients.
func WithVersion(v string) Option {
	return func(s *Server) {
		s.version = v
	}
}

// NewServer creates a server reading requests from r and writing to w.
func NewServer(r io.Reader, w io.Writer, opts ...Option) *Server {
	s := &Server{
		transport: NewTransport(r, w),
		documents: NewDocumentManager(defaultCacheSize),
		logger:    zap.NewNop(),
		aligner:   align.New(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(zap.String("session", uuid.NewString()))
	if s.vocab == nil {
		s.vocab = vocab.MustDefault()
	}
	if s.linter == nil {
		s.linter = lint.NewEngine(lint.WithAligner(s.aligner), lint.WithLogger(s.logger))
	}

	s.requests = map[string]requestHandler{
		"initialize":                  s.handleInitialize,
		"shutdown":                    s.handleShutdown,
		"textDocument/completion":     s.handleCompletion,
		"textDocument/hover":          s.handleHover,
		"textDocument/foldingRange":   s.handleFoldingRange,
		"textDocument/documentSymbol": s.handleDocumentSymbol,
		"textDocument/formatting":     s.handleFormatting,
	}
	s.notifications = map[string]notificationHandler{
		"initialized":            func(context.Context, json.RawMessage) error { return nil },
		"textDocument/didOpen":   s.handleDidOpen,
		"textDocument/didChange": s.handleDidChange,
		"textDocument/didClose":  s.handleDidClose,
		"textDocument/didSave":   func(context.Context, json.RawMessage) error { return nil },
		"$/cancelRequest":        func(context.Context, json.RawMessage) error { return nil },
		"$/setTrace":             func(context.Context, json.RawMessage) error { return nil },
	}
	return s
}

// Status returns the lifecycle state.
func (s *Server) Status() ServerStatus {
	return ServerStatus(s.status.Load())
}

// Documents returns the open-document store.
func (s *Server) Documents() *DocumentManager {
	return s.documents
}

// Run serves messages until the stream ends, ctx is cancelled or the client
// sends exit. It returns nil when exit follows shutdown or the stream ends,
// and ErrExitWithoutShutdown when exit arrives first.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("language server started")
	defer s.logger.Info("language server stopped")

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		msg, err := s.transport.Read()
		switch {
		case err == nil:
		case errors.Is(err, io.EOF):
			return nil
		case errors.Is(err, ErrInvalidMessage):
			s.logger.Warn("invalid message", zap.Error(err))
			if rerr := s.transport.ReplyError(nil, &RPCError{Code: CodeParseError, Message: err.Error()}); rerr != nil {
				return rerr
			}
			continue
		default:
			return fmt.Errorf("read message: %w", err)
		}

		if msg.Method == "exit" {
			if s.Status() == ServerStatusShuttingDown {
				return nil
			}
			return ErrExitWithoutShutdown
		}

		if msg.IsRequest() {
			if err := s.dispatchRequest(ctx, msg); err != nil {
				return err
			}
			continue
		}
		s.dispatchNotification(ctx, msg)
	}
}

func (s *Server) dispatchRequest(ctx context.Context, msg *Message) error {
	log := s.logger.With(zap.String("method", msg.Method))

	switch s.Status() {
	case ServerStatusStarting:
		if msg.Method != "initialize" {
			return s.transport.ReplyError(msg.ID, &RPCError{
				Code:    CodeServerNotInitialized,
				Message: "server not initialized",
			})
		}
	case ServerStatusShuttingDown:
		return s.transport.ReplyError(msg.ID, &RPCError{
			Code:    CodeInvalidRequest,
			Message: ErrShutdown.Error(),
		})
	}

	h, ok := s.requests[msg.Method]
	if !ok {
		log.Debug("method not found")
		return s.transport.ReplyError(msg.ID, &RPCError{
			Code:    CodeMethodNotFound,
			Message: "method not found: " + msg.Method,
		})
	}

	result, err := h(ctx, msg.Params)
	if err != nil {
		log.Debug("request failed", zap.Error(err))
		return s.transport.ReplyError(msg.ID, toRPCError(err))
	}
	return s.transport.Reply(msg.ID, result)
}

func (s *Server) dispatchNotification(ctx context.Context, msg *Message) {
	log := s.logger.With(zap.String("method", msg.Method))

	if s.Status() != ServerStatusReady {
		log.Debug("notification dropped", zap.Stringer("status", s.Status()))
		return
	}
	h, ok := s.notifications[msg.Method]
	if !ok {
		log.Debug("notification ignored")
		return
	}
	if err := h(ctx, msg.Params); err != nil {
		log.Warn("notification failed", zap.Error(err))
	}
}

func decodeParams(params json.RawMessage, v any) error {
	if len(params) == 0 {
		return &RPCError{Code: CodeInvalidParams, Message: "missing params"}
	}
	if err := json.Unmarshal(params, v); err != nil {
		return &RPCError{Code: CodeInvalidParams, Message: err.Error()}
	}
	return nil
}

// --- Lifecycle ---

func (s *Server) handleInitialize(_ context.Context, params json.RawMessage) (any, error) {
	var p InitializeParams
	if len(params) > 0 {
		if err := decodeParams(params, &p); err != nil {
			return nil, err
		}
	}
	if s.Status() != ServerStatusStarting {
		return nil, &RPCError{Code: CodeInvalidRequest, Message: "server already initialized"}
	}
	s.status.Store(int32(ServerStatusReady))
	s.logger.Info("initialized", zap.Int("clientPid", p.ProcessID), zap.String("root", string(p.RootURI)))

	return InitializeResult{
		Capabilities: ServerCapabilities{
			TextDocumentSync:           TextDocumentSyncKindFull,
			CompletionProvider:         &CompletionOptions{},
			HoverProvider:              true,
			FoldingRangeProvider:       true,
			DocumentSymbolProvider:     true,
			DocumentFormattingProvider: true,
		},
		ServerInfo: &InitializeServerInfo{Name: ServerName, Version: s.version},
	}, nil
}

func (s *Server) handleShutdown(context.Context, json.RawMessage) (any, error) {
	s.status.Store(int32(ServerStatusShuttingDown))
	s.logger.Info("shutdown requested", zap.Int("openDocuments", s.documents.Count()))
	return nil, nil
}

// --- Document sync ---

func (s *Server) handleDidOpen(ctx context.Context, params json.RawMessage) error {
	var p DidOpenTextDocumentParams
	if err := decodeParams(params, &p); err != nil {
		return err
	}
	doc := s.documents.Open(p.TextDocument)
	s.logger.Debug("document opened", zap.String("uri", string(doc.URI)), zap.Int("version", doc.Version))
	return s.publish(ctx, doc.URI, doc.Version)
}

func (s *Server) handleDidChange(ctx context.Context, params json.RawMessage) error {
	var p DidChangeTextDocumentParams
	if err := decodeParams(params, &p); err != nil {
		return err
	}
	doc, err := s.documents.Change(p.TextDocument.URI, p.TextDocument.Version, p.ContentChanges)
	if err != nil {
		return err
	}
	return s.publish(ctx, doc.URI, doc.Version)
}

func (s *Server) handleDidClose(_ context.Context, params json.RawMessage) error {
	var p DidCloseTextDocumentParams
	if err := decodeParams(params, &p); err != nil {
		return err
	}
	if err := s.documents.Close(p.TextDocument.URI); err != nil {
		return err
	}
	return s.transport.Notify("textDocument/publishDiagnostics", PublishDiagnosticsParams{
		URI:         p.TextDocument.URI,
		Diagnostics: []Diagnostic{},
	})
}

// publish lints the document and sends its diagnostics, followed by the
// datacard/detected notification.
func (s *Server) publish(ctx context.Context, uri DocumentURI, version int) error {
	snap, an, err := s.documents.Snapshot(uri)
	if err != nil {
		return err
	}

	found, err := s.linter.CheckAnalyzed(ctx, snap, an)
	if err != nil {
		// Rule failures are reported in the log; whatever the rules did
		// produce is still published.
		s.logger.Warn("lint rules failed", zap.String("uri", string(uri)), zap.Error(err))
	}

	diags := make([]Diagnostic, 0, len(found))
	for _, d := range found {
		diags = append(diags, Diagnostic{
			Range:    lineRange(snap, d.StartLine, d.EndLine),
			Severity: DiagnosticSeverity(d.Severity),
			Code:     d.Code,
			Source:   ServerName,
			Message:  d.Message,
		})
	}
	if err := s.transport.Notify("textDocument/publishDiagnostics", PublishDiagnosticsParams{
		URI:         uri,
		Version:     version,
		Diagnostics: diags,
	}); err != nil {
		return err
	}

	header, ok := an.Header()
	if !ok {
		header = -1
	}
	return s.transport.Notify(MethodDetected, DetectedParams{
		URI:        uri,
		Detected:   an.Recognized(),
		Strict:     datacard.DetectStrict(snap),
		HeaderLine: header,
	})
}

// --- Language features ---

func (s *Server) handleCompletion(_ context.Context, params json.RawMessage) (any, error) {
	var p CompletionParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	snap, an, err := s.documents.Snapshot(p.TextDocument.URI)
	if err != nil {
		return nil, err
	}

	pt := toPoint(snap, p.Position)
	line := snap.LineText(pt.Line)
	start, _ := wordAt(line, pt.Column)
	prefix := line[start:min(pt.Column, len(line))]

	section := an.Section(pt.Line)
	ranked := RankKeywords(s.vocab, section, prefix)
	return CompletionList{Items: completionItems(ranked, section)}, nil
}

func (s *Server) handleHover(_ context.Context, params json.RawMessage) (any, error) {
	var p HoverParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	snap, an, err := s.documents.Snapshot(p.TextDocument.URI)
	if err != nil {
		return nil, err
	}

	pt := toPoint(snap, p.Position)
	line := snap.LineText(pt.Line)
	start, end := wordAt(line, pt.Column)
	if start == end {
		return nil, nil
	}

	section := an.Section(pt.Line)
	var b strings.Builder
	word := line[start:end]
	if kw, ok := s.vocab.Lookup(word); ok {
		fmt.Fprintf(&b, "**%s**", kw.Name)
		if kw.Description != "" {
			fmt.Fprintf(&b, "\n\n%s", kw.Description)
		}
		b.WriteString("\n\n")
	}
	fmt.Fprintf(&b, "_%s_", section)

	rng := Range{
		Start: fromPoint(snap, buffer.Point{Line: pt.Line, Column: start}),
		End:   fromPoint(snap, buffer.Point{Line: pt.Line, Column: end}),
	}
	return Hover{
		Contents: MarkupContent{Kind: MarkupKindMarkdown, Value: b.String()},
		Range:    &rng,
	}, nil
}

func (s *Server) handleFoldingRange(_ context.Context, params json.RawMessage) (any, error) {
	var p FoldingRangeParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	_, an, err := s.documents.Snapshot(p.TextDocument.URI)
	if err != nil {
		return nil, err
	}

	folds := an.FoldingRanges()
	out := make([]FoldingRange, len(folds))
	for i, f := range folds {
		out[i] = FoldingRange{StartLine: f.StartLine, EndLine: f.EndLine, Kind: FoldingRangeKindRegion}
	}
	return out, nil
}

func (s *Server) handleDocumentSymbol(_ context.Context, params json.RawMessage) (any, error) {
	var p DocumentSymbolParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	snap, an, err := s.documents.Snapshot(p.TextDocument.URI)
	if err != nil {
		return nil, err
	}

	symbols := an.Outline()
	out := make([]DocumentSymbol, len(symbols))
	for i, sym := range symbols {
		kind := SymbolKindNamespace
		if sym.Section == datacard.SectionHeader {
			kind = SymbolKindModule
		}
		rng := lineRange(snap, sym.StartLine, sym.EndLine)
		out[i] = DocumentSymbol{
			Name:           sym.Name,
			Detail:         fmt.Sprintf("lines %d-%d", sym.StartLine+1, sym.EndLine+1),
			Kind:           kind,
			Range:          rng,
			SelectionRange: lineRange(snap, sym.StartLine, sym.StartLine),
		}
	}
	return out, nil
}

// handleFormatting aligns the Processes and Systematics blocks. The open
// document is not modified; the client applies the returned edit and sends
// didChange.
func (s *Server) handleFormatting(_ context.Context, params json.RawMessage) (any, error) {
	var p DocumentFormattingParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	snap, an, err := s.documents.Snapshot(p.TextDocument.URI)
	if err != nil {
		return nil, err
	}

	res, err := s.aligner.AlignAnalyzed(snap, an)
	if err != nil {
		return nil, &RPCError{Code: CodeRequestFailed, Message: err.Error()}
	}
	for _, w := range res.Warnings {
		s.logger.Debug("alignment warning", zap.Stringer("warning", w))
	}
	if !res.Changed {
		return []TextEdit{}, nil
	}
	return []TextEdit{{
		Range:   lineRange(snap, res.Edit.StartLine, res.Edit.EndLine),
		NewText: res.Edit.NewText,
	}}, nil
}
