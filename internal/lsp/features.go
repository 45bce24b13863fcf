package lsp

import (
	"fmt"
	"sort"
	"strings"

	"datacode/internal/ast"
	"datacode/internal/builtins"
	"datacode/internal/token"

	protocol "github.com/tliron/glsp/protocol_3_16"
)

// symbol is a name the document defines.
type symbol struct {
	name   string
	kind   protocol.SymbolKind
	detail string
	line   int
	col    int
	params []string
}

// collectSymbols finds function definitions and assignments anywhere in
// the program. The first definition of a name wins.
func collectSymbols(prog *ast.Program) []symbol {
	if prog == nil {
		return nil
	}
	var out []symbol
	seen := map[string]bool{}
	add := func(s symbol) {
		if s.name == "" || seen[s.name] {
			return
		}
		seen[s.name] = true
		out = append(out, s)
	}
	ast.Inspect(prog, func(n ast.Node) bool {
		switch st := n.(type) {
		case *ast.FunctionStatement:
			if st.Name == nil {
				return true
			}
			params := make([]string, 0, len(st.Parameters))
			for _, p := range st.Parameters {
				params = append(params, p.Value)
			}
			add(symbol{
				name:   st.Name.Value,
				kind:   protocol.SymbolKindFunction,
				detail: functionSignature(st.Name.Value, params),
				line:   st.Name.Token.Line,
				col:    st.Name.Token.Col,
				params: params,
			})
		case *ast.AssignStatement:
			if st.Name == nil {
				return true
			}
			detail := "variable"
			if st.Scope != ast.ScopeNone {
				detail = st.Scope.String() + " variable"
			}
			add(symbol{
				name:   st.Name.Value,
				kind:   protocol.SymbolKindVariable,
				detail: detail,
				line:   st.Name.Token.Line,
				col:    st.Name.Token.Col,
			})
		}
		return true
	})
	return out
}

func functionSignature(name string, params []string) string {
	return fmt.Sprintf("%s(%s)", name, strings.Join(params, ", "))
}

// DocumentSymbols lists the functions and variables defined in doc.
func DocumentSymbols(doc *Document) []protocol.DocumentSymbol {
	syms := collectSymbols(doc.Program)
	out := make([]protocol.DocumentSymbol, 0, len(syms))
	for _, s := range syms {
		r := nameRange(doc.Text, s.line, s.col, s.name)
		detail := s.detail
		out = append(out, protocol.DocumentSymbol{
			Name:           s.name,
			Detail:         &detail,
			Kind:           s.kind,
			Range:          r,
			SelectionRange: r,
		})
	}
	return out
}

// Definition locates where the name under pos is defined in doc.
func Definition(doc *Document, pos protocol.Position) (protocol.Location, bool) {
	word, _ := wordAt(doc.Text, pos)
	if word == "" {
		return protocol.Location{}, false
	}
	for _, s := range collectSymbols(doc.Program) {
		if s.name == word {
			return protocol.Location{
				URI:   protocol.DocumentUri(doc.URI),
				Range: nameRange(doc.Text, s.line, s.col, s.name),
			}, true
		}
	}
	return protocol.Location{}, false
}

// CompletionItems offers keywords, builtins and the document's own names
// that start with the word being typed at pos.
func CompletionItems(doc *Document, pos protocol.Position) []protocol.CompletionItem {
	_, prefix := wordAt(doc.Text, pos)
	var items []protocol.CompletionItem
	seen := map[string]bool{}
	add := func(label string, kind protocol.CompletionItemKind, detail, doc string) {
		if seen[label] || !strings.HasPrefix(label, prefix) {
			return
		}
		seen[label] = true
		item := protocol.CompletionItem{Label: label, Kind: &kind}
		if detail != "" {
			item.Detail = &detail
		}
		if doc != "" {
			item.Documentation = protocol.MarkupContent{Kind: protocol.MarkupKindMarkdown, Value: doc}
		}
		items = append(items, item)
	}

	for _, s := range collectSymbols(doc.Program) {
		kind := protocol.CompletionItemKindVariable
		if s.kind == protocol.SymbolKindFunction {
			kind = protocol.CompletionItemKindFunction
		}
		add(s.name, kind, s.detail, "")
	}
	for _, info := range builtins.Infos() {
		add(info.Name, protocol.CompletionItemKindFunction, info.Signature, info.Doc)
	}
	keywords := token.Keywords()
	sort.Strings(keywords)
	for _, kw := range keywords {
		add(kw, protocol.CompletionItemKindKeyword, "", "")
	}
	return items
}

// HoverAt describes the function under pos. User functions shadow
// builtins of the same name, as they do at run time.
func HoverAt(doc *Document, pos protocol.Position) *protocol.Hover {
	word, _ := wordAt(doc.Text, pos)
	if word == "" {
		return nil
	}
	var body string
	for _, s := range collectSymbols(doc.Program) {
		if s.name == word && s.kind == protocol.SymbolKindFunction {
			body = "```datacode\nfunction " + s.detail + "\n```"
			break
		}
	}
	if body == "" {
		for _, info := range builtins.Infos() {
			if info.Name == word {
				body = "```datacode\n" + info.Signature + "\n```\n\n" + info.Doc
				break
			}
		}
	}
	if body == "" {
		return nil
	}
	return &protocol.Hover{
		Contents: protocol.MarkupContent{Kind: protocol.MarkupKindMarkdown, Value: body},
	}
}
