// Package ast implements the minimal lexer and recursive-descent parser
// used to drive the codegen core end-to-end in tests. The full
// front-end lives outside this module; this package exists only so
// the core's behavior can be exercised from source text without it.
package ast

import "fmt"

// Parse lexes and parses a complete source buffer, returning the file
// node, the token stream (tokens with their line numbers; the comments
// Lex collects are dropped), and any syntax errors encountered.
func Parse(src []byte) (*Node, *TokenStream, error) {
	ts, _, err := Lex(src)
	if err != nil {
		return nil, nil, err
	}
	p := NewParser(ts)
	file, errs := p.ParseFile()
	if len(errs) > 0 {
		return file, ts, fmt.Errorf("%s", errs[0])
	}
	return file, ts, nil
}
