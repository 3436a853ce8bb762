// Package lsp serves filter diagnostics to editors over the Language
// Server Protocol. Programs are filtered in dry-run mode: the material file
// is never rewritten and the GUI is never signalled.
package lsp

import (
	"bytes"
	"context"
	"net/url"
	"path/filepath"
	"strings"
	"sync"

	"github.com/tliron/commonlog"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"

	"github.com/LinuxCNC/linuxcnc-sub008/diag"
	"github.com/LinuxCNC/linuxcnc-sub008/filter"
	"github.com/LinuxCNC/linuxcnc-sub008/halsync"
	"github.com/LinuxCNC/linuxcnc-sub008/material"
)

const lsName = "plasmac-filter"

var log = commonlog.GetLogger("plasmac.lsp")

// DatabaseFunc opens the material database for one analysis.
type DatabaseFunc func() *material.Database

type Server struct {
	handler  protocol.Handler
	server   *server.Server
	version  string
	database DatabaseFunc
	opts     filter.Options

	mu   sync.Mutex
	docs map[string]string
}

func NewServer(version string, database DatabaseFunc, opts filter.Options) *Server {
	opts.DryRun = true
	opts.Port = halsync.Nop{}
	ls := &Server{
		version:  version,
		database: database,
		opts:     opts,
		docs:     make(map[string]string),
	}

	ls.handler = protocol.Handler{
		Initialize:            ls.initialize,
		Initialized:           ls.initialized,
		Shutdown:              ls.shutdown,
		SetTrace:              ls.setTrace,
		TextDocumentDidOpen:   ls.textDocumentDidOpen,
		TextDocumentDidChange: ls.textDocumentDidChange,
		TextDocumentDidClose:  ls.textDocumentDidClose,
		TextDocumentDidSave:   ls.textDocumentDidSave,
	}

	ls.server = server.NewServer(&ls.handler, lsName, false)

	return ls
}

func (ls *Server) RunStdio() error {
	return ls.server.RunStdio()
}

func (ls *Server) initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	capabilities := ls.handler.CreateServerCapabilities()

	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: boolPtr(true),
		Change:    syncKindPtr(protocol.TextDocumentSyncKindFull),
		Save: &protocol.SaveOptions{
			IncludeText: boolPtr(true),
		},
	}

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    lsName,
			Version: &ls.version,
		},
	}, nil
}

func (ls *Server) initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	return nil
}

func (ls *Server) shutdown(ctx *glsp.Context) error {
	return nil
}

func (ls *Server) setTrace(ctx *glsp.Context, params *protocol.SetTraceParams) error {
	protocol.SetTraceValue(params.Value)
	return nil
}

func (ls *Server) textDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	ls.update(ctx, params.TextDocument.URI, params.TextDocument.Text)
	return nil
}

func (ls *Server) textDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	if len(params.ContentChanges) > 0 {
		change := params.ContentChanges[len(params.ContentChanges)-1]
		if textChange, ok := change.(protocol.TextDocumentContentChangeEventWhole); ok {
			ls.update(ctx, params.TextDocument.URI, textChange.Text)
		}
	}
	return nil
}

func (ls *Server) textDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	ls.mu.Lock()
	delete(ls.docs, params.TextDocument.URI)
	ls.mu.Unlock()
	ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         params.TextDocument.URI,
		Diagnostics: []protocol.Diagnostic{},
	})
	return nil
}

func (ls *Server) textDocumentDidSave(ctx *glsp.Context, params *protocol.DidSaveTextDocumentParams) error {
	if params.Text != nil {
		ls.update(ctx, params.TextDocument.URI, *params.Text)
		return nil
	}
	ls.mu.Lock()
	text, ok := ls.docs[params.TextDocument.URI]
	ls.mu.Unlock()
	if ok {
		ls.update(ctx, params.TextDocument.URI, text)
	}
	return nil
}

func (ls *Server) update(ctx *glsp.Context, uri, text string) {
	ls.mu.Lock()
	ls.docs[uri] = text
	ls.mu.Unlock()

	diagnostics, err := ls.Analyze(context.Background(), uri, text)
	if err != nil {
		log.Warningf("analyze %s: %s", uri, err)
		return
	}
	ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diagnostics,
	})
}

// Analyze filters text and returns its diagnostics positioned on the
// source lines that caused them.
func (ls *Server) Analyze(ctx context.Context, uri, text string) ([]protocol.Diagnostic, error) {
	name := uri
	if path, err := uriToPath(uri); err == nil {
		name = path
	}
	res, err := filter.New(ls.database(), ls.opts).Run(ctx, name, bytes.NewBufferString(text))
	if err != nil {
		return nil, err
	}
	return toDiagnostics(res.Diag, strings.Split(text, "\n")), nil
}

func toDiagnostics(sink *diag.Sink, lines []string) []protocol.Diagnostic {
	out := []protocol.Diagnostic{}
	source := lsName
	for _, d := range sink.All() {
		line := d.SourceLine - 1
		if line < 0 {
			line = 0
		}
		width := 0
		if line < len(lines) {
			width = len(strings.TrimRight(lines[line], "\r"))
		}

		severity := protocol.DiagnosticSeverityWarning
		if d.Kind.IsError() {
			severity = protocol.DiagnosticSeverityError
		}
		message := d.Kind.Message()
		if d.Detail != "" {
			message += ": " + d.Detail
		}

		out = append(out, protocol.Diagnostic{
			Range: protocol.Range{
				Start: protocol.Position{Line: protocol.UInteger(line)},
				End:   protocol.Position{Line: protocol.UInteger(line), Character: protocol.UInteger(width)},
			},
			Severity: &severity,
			Code:     &protocol.IntegerOrString{Value: d.Kind.Label()},
			Source:   &source,
			Message:  message,
		})
	}
	return out
}

func uriToPath(uri string) (string, error) {
	if strings.HasPrefix(uri, "file://") {
		parsed, err := url.Parse(uri)
		if err != nil {
			return "", err
		}
		return filepath.Clean(parsed.Path), nil
	}
	return uri, nil
}

func boolPtr(b bool) *bool {
	return &b
}

func syncKindPtr(k protocol.TextDocumentSyncKind) *protocol.TextDocumentSyncKind {
	return &k
}
