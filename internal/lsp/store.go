package lsp

import (
	"datacode/internal/ast"
	"datacode/internal/diag"
	"datacode/internal/lint"
	"datacode/internal/parser"

	"github.com/sasha-s/go-deadlock"
)

// Document is an open file together with its last parse.
type Document struct {
	URI         string
	Text        string
	Program     *ast.Program
	Diagnostics []diag.Diagnostic
}

// Store keeps the open documents. Handlers run concurrently, so every
// access goes through the lock.
type Store struct {
	mu   deadlock.RWMutex
	docs map[string]*Document
}

func NewStore() *Store {
	return &Store{docs: map[string]*Document{}}
}

// Set replaces the text of uri and parses it. Lint findings are added
// only when the text parses cleanly.
func (s *Store) Set(uri, text string) *Document {
	prog, diags := parser.Parse(text)
	if len(diags) == 0 {
		diags = lint.Run(prog)
	}
	doc := &Document{URI: uri, Text: text, Program: prog, Diagnostics: diags}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[uri] = doc
	return doc
}

func (s *Store) Get(uri string) (*Document, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.docs[uri]
	return d, ok
}

func (s *Store) Delete(uri string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, uri)
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}
