// Package keyvalues parses Valve's brace-delimited KeyValues text format, the
// syntax shared by map sources (.vmf) and material definitions (.vmt).
//
// A document is a sequence of pairs. A pair is either a key followed by a
// string value or a key followed by a block in braces. Keys may repeat, tokens
// may be quoted or bare, "//" starts a comment, and a bracketed platform
// conditional such as [$X360] may trail a value or block key.
package keyvalues

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Node is one key with either a string value or a block of children
type Node struct {
	Key      string
	Value    string
	Children []*Node
	Line     int
	block    bool
}

// IsBlock reports whether the node holds children instead of a value
func (n *Node) IsBlock() bool { return n.block }

// Get returns the value of the first non-block child whose key matches,
// ignoring case.
func (n *Node) Get(key string) (string, bool) {
	for _, c := range n.Children {
		if !c.block && strings.EqualFold(c.Key, key) {
			return c.Value, true
		}
	}
	return "", false
}

// Blocks returns every child block whose key matches, ignoring case
func (n *Node) Blocks(key string) []*Node {
	var out []*Node
	for _, c := range n.Children {
		if c.block && strings.EqualFold(c.Key, key) {
			out = append(out, c)
		}
	}
	return out
}

// Walk visits n and all descendants depth first
func (n *Node) Walk(fn func(*Node)) {
	fn(n)
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

// ErrUnexpectedEOF is returned when input ends inside a pair or block
var ErrUnexpectedEOF = errors.New("unexpected end of input")

// SyntaxError reports malformed input with its position
type SyntaxError struct {
	Line    int
	Message string
	Wrapped error
}

func (e *SyntaxError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("keyvalues: line %d: %s: %v", e.Line, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("keyvalues: line %d: %s", e.Line, e.Message)
}

func (e *SyntaxError) Unwrap() error {
	return e.Wrapped
}

// IsSyntaxError checks if an error is a keyvalues syntax error
func IsSyntaxError(err error) bool {
	var se *SyntaxError
	return errors.As(err, &se)
}

// Parse reads a whole document and returns its top-level pairs
func Parse(r io.Reader) ([]*Node, error) {
	p := &parser{lex: newLexer(r)}
	return p.parseList(false)
}

// ParseString is a convenience wrapper over Parse
func ParseString(s string) ([]*Node, error) {
	return Parse(strings.NewReader(s))
}

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokString
	tokOpen
	tokClose
	tokConditional
)

type token struct {
	kind tokenKind
	text string
	line int
}

type lexer struct {
	r    *bufio.Reader
	line int
	peek *token
}

func newLexer(r io.Reader) *lexer {
	return &lexer{r: bufio.NewReader(r), line: 1}
}

func (l *lexer) readRune() (rune, bool) {
	c, _, err := l.r.ReadRune()
	if err != nil {
		return 0, false
	}
	if c == '\n' {
		l.line++
	}
	return c, true
}

func (l *lexer) unread(c rune) {
	_ = l.r.UnreadRune()
	if c == '\n' {
		l.line--
	}
}

// Peek returns the next token without consuming it
func (l *lexer) Peek() (token, error) {
	if l.peek == nil {
		t, err := l.scan()
		if err != nil {
			return token{}, err
		}
		l.peek = &t
	}
	return *l.peek, nil
}

// Next consumes and returns the next token
func (l *lexer) Next() (token, error) {
	if l.peek != nil {
		t := *l.peek
		l.peek = nil
		return t, nil
	}
	return l.scan()
}

func (l *lexer) scan() (token, error) {
	for {
		c, ok := l.readRune()
		if !ok {
			return token{kind: tokEOF, line: l.line}, nil
		}
		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n' || c == '\uFEFF':
			continue
		case c == '/':
			next, ok := l.readRune()
			if ok && next == '/' {
				l.skipLine()
				continue
			}
			if ok {
				l.unread(next)
			}
			return l.bare(c)
		case c == '{':
			return token{kind: tokOpen, text: "{", line: l.line}, nil
		case c == '}':
			return token{kind: tokClose, text: "}", line: l.line}, nil
		case c == '"':
			return l.quoted()
		case c == '[':
			return l.conditional()
		default:
			return l.bare(c)
		}
	}
}

func (l *lexer) skipLine() {
	for {
		c, ok := l.readRune()
		if !ok || c == '\n' {
			return
		}
	}
}

func (l *lexer) quoted() (token, error) {
	start := l.line
	var b strings.Builder
	for {
		c, ok := l.readRune()
		if !ok {
			return token{}, &SyntaxError{Line: start, Message: "unterminated quoted string", Wrapped: ErrUnexpectedEOF}
		}
		if c == '"' {
			return token{kind: tokString, text: b.String(), line: start}, nil
		}
		// escape sequences are off for files, so Windows paths survive
		b.WriteRune(c)
	}
}

func (l *lexer) bare(first rune) (token, error) {
	start := l.line
	var b strings.Builder
	b.WriteRune(first)
	for {
		c, ok := l.readRune()
		if !ok {
			break
		}
		if c == ' ' || c == '\t' || c == '\r' || c == '\n' || c == '{' || c == '}' || c == '"' {
			l.unread(c)
			break
		}
		b.WriteRune(c)
	}
	return token{kind: tokString, text: b.String(), line: start}, nil
}

func (l *lexer) conditional() (token, error) {
	start := l.line
	var b strings.Builder
	for {
		c, ok := l.readRune()
		if !ok {
			return token{}, &SyntaxError{Line: start, Message: "unterminated conditional", Wrapped: ErrUnexpectedEOF}
		}
		if c == ']' {
			return token{kind: tokConditional, text: b.String(), line: start}, nil
		}
		b.WriteRune(c)
	}
}

type parser struct {
	lex *lexer
}

func (p *parser) parseList(nested bool) ([]*Node, error) {
	var nodes []*Node
	for {
		t, err := p.lex.Next()
		if err != nil {
			return nil, err
		}
		switch t.kind {
		case tokEOF:
			if nested {
				return nil, &SyntaxError{Line: t.line, Message: "missing closing brace", Wrapped: ErrUnexpectedEOF}
			}
			return nodes, nil
		case tokClose:
			if !nested {
				return nil, &SyntaxError{Line: t.line, Message: "unbalanced closing brace"}
			}
			return nodes, nil
		case tokOpen:
			return nil, &SyntaxError{Line: t.line, Message: "block without a key"}
		case tokConditional:
			continue
		}

		node, err := p.parsePair(t)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
	}
}

func (p *parser) parsePair(key token) (*Node, error) {
	node := &Node{Key: key.text, Line: key.line}
	t, err := p.lex.Next()
	if err != nil {
		return nil, err
	}
	if t.kind == tokConditional {
		t, err = p.lex.Next()
		if err != nil {
			return nil, err
		}
	}
	switch t.kind {
	case tokString:
		node.Value = t.text
		if err := p.skipConditional(); err != nil {
			return nil, err
		}
		return node, nil
	case tokOpen:
		node.block = true
		children, err := p.parseList(true)
		if err != nil {
			return nil, err
		}
		node.Children = children
		return node, nil
	case tokEOF:
		return nil, &SyntaxError{Line: key.line, Message: fmt.Sprintf("key %q has no value", key.text), Wrapped: ErrUnexpectedEOF}
	default:
		return nil, &SyntaxError{Line: t.line, Message: fmt.Sprintf("unexpected %q after key %q", t.text, key.text)}
	}
}

func (p *parser) skipConditional() error {
	t, err := p.lex.Peek()
	if err != nil {
		return err
	}
	if t.kind == tokConditional {
		_, err = p.lex.Next()
	}
	return err
}
