package main

import (
	"flag"
	"strings"

	"datacode/internal/lsp"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"
)

const (
	lsName  = "datacode-lsp"
	version = "0.1"
	fileExt = ".dc"
)

var store = lsp.NewStore()
var handler protocol.Handler

func main() {
	verbosity := flag.Int("v", 0, "log verbosity")
	logFile := flag.String("log", "", "log file (default stderr)")
	flag.Parse()

	var path *string
	if *logFile != "" {
		path = logFile
	}
	commonlog.Configure(*verbosity, path)

	handler = protocol.Handler{
		Initialize:                 initialize,
		Initialized:                initialized,
		Shutdown:                   shutdown,
		TextDocumentDidOpen:        textDocumentDidOpen,
		TextDocumentDidChange:      textDocumentDidChange,
		TextDocumentDidSave:        textDocumentDidSave,
		TextDocumentDidClose:       textDocumentDidClose,
		TextDocumentDefinition:     textDocumentDefinition,
		TextDocumentDocumentSymbol: textDocumentDocumentSymbol,
		TextDocumentCompletion:     textDocumentCompletion,
		TextDocumentHover:          textDocumentHover,
	}

	srv := server.NewServer(&handler, lsName, *verbosity > 1)
	if err := srv.RunStdio(); err != nil {
		commonlog.GetLogger(lsName).Errorf("server stopped: %s", err)
	}
}

func capabilities() protocol.ServerCapabilities {
	full := protocol.TextDocumentSyncKindFull
	return protocol.ServerCapabilities{
		TextDocumentSync: &protocol.TextDocumentSyncOptions{
			OpenClose: &protocol.True,
			Change:    &full,
			Save:      protocol.SaveOptions{IncludeText: &protocol.False},
		},
		DefinitionProvider:     true,
		DocumentSymbolProvider: true,
		CompletionProvider:     &protocol.CompletionOptions{},
		HoverProvider:          true,
	}
}

func initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	return protocol.InitializeResult{
		Capabilities: capabilities(),
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    lsName,
			Version: ptrString(version),
		},
	}, nil
}

func initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	return nil
}

func shutdown(ctx *glsp.Context) error {
	protocol.SetTraceValue(protocol.TraceValueOff)
	return nil
}

func textDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	uri := string(params.TextDocument.URI)
	publishDiagnostics(ctx, uri, store.Set(uri, params.TextDocument.Text))
	return nil
}

func textDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	if len(params.ContentChanges) == 0 {
		return nil
	}
	text, ok := extractFullText(params.ContentChanges[len(params.ContentChanges)-1])
	if !ok {
		return nil
	}
	uri := string(params.TextDocument.URI)
	publishDiagnostics(ctx, uri, store.Set(uri, text))
	return nil
}

func textDocumentDidSave(ctx *glsp.Context, params *protocol.DidSaveTextDocumentParams) error {
	uri := string(params.TextDocument.URI)
	if doc, ok := store.Get(uri); ok {
		publishDiagnostics(ctx, uri, doc)
	}
	return nil
}

func textDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	uri := string(params.TextDocument.URI)
	store.Delete(uri)
	publishDiagnostics(ctx, uri, nil)
	return nil
}

func textDocumentDefinition(ctx *glsp.Context, params *protocol.DefinitionParams) (any, error) {
	doc, ok := store.Get(string(params.TextDocument.URI))
	if !ok {
		return nil, nil
	}
	if loc, ok := lsp.Definition(doc, params.Position); ok {
		return []protocol.Location{loc}, nil
	}
	return nil, nil
}

func textDocumentDocumentSymbol(ctx *glsp.Context, params *protocol.DocumentSymbolParams) (any, error) {
	doc, ok := store.Get(string(params.TextDocument.URI))
	if !ok {
		return []protocol.DocumentSymbol{}, nil
	}
	return lsp.DocumentSymbols(doc), nil
}

func textDocumentCompletion(ctx *glsp.Context, params *protocol.CompletionParams) (any, error) {
	doc, ok := store.Get(string(params.TextDocument.URI))
	if !ok {
		return nil, nil
	}
	items := lsp.CompletionItems(doc, params.Position)
	if len(items) == 0 {
		return nil, nil
	}
	return items, nil
}

func textDocumentHover(ctx *glsp.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	doc, ok := store.Get(string(params.TextDocument.URI))
	if !ok {
		return nil, nil
	}
	return lsp.HoverAt(doc, params.Position), nil
}

// publishDiagnostics sends the parse errors of doc; a nil doc or a file
// that is not a script clears them.
func publishDiagnostics(ctx *glsp.Context, uri string, doc *lsp.Document) {
	diags := []protocol.Diagnostic{}
	if doc != nil && isScript(uri) {
		diags = lsp.ToLspDiagnostics(doc.Text, doc.Diagnostics)
	}
	ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, &protocol.PublishDiagnosticsParams{
		URI:         protocol.DocumentUri(uri),
		Diagnostics: diags,
	})
}

func isScript(uri string) bool {
	return strings.HasSuffix(strings.ToLower(uri), fileExt)
}

func extractFullText(change any) (string, bool) {
	switch typed := change.(type) {
	case protocol.TextDocumentContentChangeEventWhole:
		return typed.Text, true
	case protocol.TextDocumentContentChangeEvent:
		return typed.Text, true
	default:
		return "", false
	}
}

func ptrString(s string) *string { return &s }
