package render

import (
	"errors"
	"io"
	"strings"

	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
)

// token is a lexer token with its 1-based source position.
type token struct {
	tt   css.TokenType
	text string
	line int
	col  int
}

// pos is a 1-based source position.
type pos struct {
	file string
	line int
	col  int
}

type node interface{ isNode() }

type declNode struct {
	pos
	prop  string
	value string
}

type ruleNode struct {
	pos
	selectors []string
	body      []node
}

type atNode struct {
	pos
	name     string // "@media"
	prelude  string // "screen and (min-width: 40em)"
	hasBlock bool
	body     []node
}

func (*declNode) isNode() {}
func (*ruleNode) isNode() {}
func (*atNode) isNode()   {}

// tokenize lexes src and drops "//" line comments.
func tokenize(file, src string) ([]token, error) {
	lexer := css.NewLexer(parse.NewInputString(src))

	var toks []token
	line, col := 1, 1
	for {
		tt, data := lexer.Next()
		if tt == css.ErrorToken {
			if err := lexer.Err(); err != nil && !errors.Is(err, io.EOF) {
				return nil, &CompileError{Kind: "ParseError", File: file, Line: line, Column: col, Message: err.Error()}
			}
			break
		}
		text := string(data)
		toks = append(toks, token{tt: tt, text: text, line: line, col: col})
		for _, r := range text {
			if r == '\n' {
				line++
				col = 1
			} else {
				col++
			}
		}
	}
	return stripLineComments(toks), nil
}

// stripLineComments removes Stylus "//" comments: two adjacent "/" delimiters up to
// the end of the line.
func stripLineComments(toks []token) []token {
	out := toks[:0]
	for i := 0; i < len(toks); i++ {
		t := toks[i]
		if isDelim(t, "/") && i+1 < len(toks) && isDelim(toks[i+1], "/") &&
			toks[i+1].line == t.line && toks[i+1].col == t.col+1 {
			for i < len(toks) && !(toks[i].tt == css.WhitespaceToken && strings.Contains(toks[i].text, "\n")) {
				i++
			}
			if i < len(toks) {
				out = append(out, toks[i])
			}
			continue
		}
		out = append(out, t)
	}
	return out
}

func isDelim(t token, s string) bool {
	return t.tt == css.DelimToken && t.text == s
}

func isTrivia(t token) bool {
	switch t.tt {
	case css.WhitespaceToken, css.CommentToken, css.CDOToken, css.CDCToken:
		return true
	}
	return false
}

// parser builds the node tree for one file.
type parser struct {
	file string
	toks []token
	i    int
}

func (p *parser) errorAt(t token, msg string) error {
	return &CompileError{Kind: "ParseError", File: p.file, Line: t.line, Column: t.col, Message: msg}
}

func (p *parser) eofToken() token {
	if len(p.toks) == 0 {
		return token{line: 1, col: 1}
	}
	last := p.toks[len(p.toks)-1]
	return token{line: last.line, col: last.col + len(last.text)}
}

func (p *parser) skipTrivia() {
	for p.i < len(p.toks) && isTrivia(p.toks[p.i]) {
		p.i++
	}
}

// parseBody parses items until EOF (top level) or the matching "}" (nested).
func (p *parser) parseBody(nested bool) ([]node, error) {
	var items []node
	for {
		p.skipTrivia()
		if p.i >= len(p.toks) {
			if nested {
				return nil, p.errorAt(p.eofToken(), "unexpected end of input, missing '}'")
			}
			return items, nil
		}

		t := p.toks[p.i]
		switch {
		case t.tt == css.RightBraceToken:
			if !nested {
				return nil, p.errorAt(t, "unexpected '}'")
			}
			p.i++
			return items, nil
		case t.tt == css.SemicolonToken:
			p.i++
		case t.tt == css.AtKeywordToken:
			at, err := p.parseAtRule()
			if err != nil {
				return nil, err
			}
			items = append(items, at)
		default:
			n, err := p.parseRuleOrDecl(nested)
			if err != nil {
				return nil, err
			}
			if n != nil {
				items = append(items, n)
			}
		}
	}
}

// collect gathers tokens up to the first top-level "{", ";" or "}". The terminator
// is left unconsumed.
func (p *parser) collect() []token {
	var out []token
	depth := 0
	for p.i < len(p.toks) {
		t := p.toks[p.i]
		switch t.tt {
		case css.LeftParenthesisToken, css.FunctionToken, css.LeftBracketToken:
			depth++
		case css.RightParenthesisToken, css.RightBracketToken:
			if depth > 0 {
				depth--
			}
		case css.LeftBraceToken, css.SemicolonToken, css.RightBraceToken:
			if depth == 0 {
				return out
			}
		}
		out = append(out, t)
		p.i++
	}
	return out
}

func (p *parser) parseRuleOrDecl(nested bool) (node, error) {
	start := p.toks[p.i]
	toks := p.collect()

	if p.i < len(p.toks) && p.toks[p.i].tt == css.LeftBraceToken {
		p.i++
		selectors := splitSelectors(toks)
		if len(selectors) == 0 {
			return nil, p.errorAt(start, "missing selector before '{'")
		}
		body, err := p.parseBody(true)
		if err != nil {
			return nil, err
		}
		return &ruleNode{pos: pos{p.file, start.line, start.col}, selectors: selectors, body: body}, nil
	}

	if !nested {
		if p.i >= len(p.toks) {
			return nil, p.errorAt(p.eofToken(), "expected '{' after selector")
		}
		return nil, p.errorAt(p.toks[p.i], "expected '{' after selector")
	}
	if p.i < len(p.toks) && p.toks[p.i].tt == css.SemicolonToken {
		p.i++
	}

	colon := -1
	for j, t := range toks {
		if t.tt == css.ColonToken {
			colon = j
			break
		}
	}
	if colon < 0 {
		return nil, p.errorAt(start, "expected ':' in declaration")
	}
	prop := joinTokens(toks[:colon])
	value := joinTokens(toks[colon+1:])
	if prop == "" {
		return nil, p.errorAt(start, "missing property name")
	}
	if value == "" {
		return nil, p.errorAt(start, "missing value for property "+prop)
	}
	return &declNode{pos: pos{p.file, start.line, start.col}, prop: prop, value: value}, nil
}

func (p *parser) parseAtRule() (*atNode, error) {
	start := p.toks[p.i]
	p.i++
	name := strings.ToLower(start.text)

	var prelude []token
	if lineStatements[name] {
		prelude = p.collectLine()
	} else {
		prelude = p.collect()
	}
	at := &atNode{
		pos:     pos{p.file, start.line, start.col},
		name:    name,
		prelude: joinTokens(prelude),
	}

	if p.i >= len(p.toks) {
		return at, nil
	}
	switch p.toks[p.i].tt {
	case css.SemicolonToken:
		p.i++
	case css.LeftBraceToken:
		p.i++
		body, err := p.parseBody(true)
		if err != nil {
			return nil, err
		}
		at.hasBlock = true
		at.body = body
	}
	return at, nil
}

// lineStatements are at-rules that stylus terminates at the end of the line when
// the semicolon is omitted.
var lineStatements = map[string]bool{
	"@import":  true,
	"@require": true,
	"@charset": true,
}

// collectLine gathers tokens up to ";" or the end of the line.
func (p *parser) collectLine() []token {
	var out []token
	for p.i < len(p.toks) {
		t := p.toks[p.i]
		if t.tt == css.SemicolonToken || t.tt == css.RightBraceToken {
			return out
		}
		if t.tt == css.WhitespaceToken && strings.Contains(t.text, "\n") {
			return out
		}
		out = append(out, t)
		p.i++
	}
	return out
}

// joinTokens renders tokens as text with comments dropped and whitespace runs
// collapsed to one space.
func joinTokens(toks []token) string {
	var b strings.Builder
	space := false
	for _, t := range toks {
		switch t.tt {
		case css.CommentToken:
			continue
		case css.WhitespaceToken:
			space = true
			continue
		}
		if space && b.Len() > 0 {
			b.WriteByte(' ')
		}
		space = false
		b.WriteString(t.text)
	}
	return b.String()
}

// splitSelectors splits a selector list on top-level commas.
func splitSelectors(toks []token) []string {
	var out []string
	depth := 0
	startIdx := 0
	flush := func(end int) {
		if s := joinTokens(toks[startIdx:end]); s != "" {
			out = append(out, s)
		}
	}
	for j, t := range toks {
		switch t.tt {
		case css.LeftParenthesisToken, css.FunctionToken, css.LeftBracketToken:
			depth++
		case css.RightParenthesisToken, css.RightBracketToken:
			if depth > 0 {
				depth--
			}
		case css.CommaToken:
			if depth == 0 {
				flush(j)
				startIdx = j + 1
			}
		}
	}
	flush(len(toks))
	return out
}
