package render

import (
	"strconv"
	"strings"
)

// outItem is a flattened rule, at-rule block or at-rule statement.
type outItem interface{ isOut() }

type outRule struct {
	pos
	selectors []string
	decls     []*declNode
}

type outAt struct {
	pos
	header   string
	block    bool
	decls    []*declNode
	children []outItem
}

func (*outRule) isOut() {}
func (*outAt) isOut()   {}

// flatten resolves nesting: nested selectors are joined with their parents and
// at-rules found inside a rule bubble up around a copy of the parent selector.
// Declarations are picked up by the enclosing rule, not here.
func flatten(items []node, parents []string) ([]outItem, error) {
	var out []outItem
	for _, n := range items {
		switch n := n.(type) {
		case *ruleNode:
			sub, err := flattenRule(n, parents)
			if err != nil {
				return nil, err
			}
			out = append(out, sub...)
		case *atNode:
			sub, err := flattenAt(n, parents)
			if err != nil {
				return nil, err
			}
			out = append(out, sub)
		}
	}
	return out, nil
}

func flattenRule(r *ruleNode, parents []string) ([]outItem, error) {
	selectors := combineSelectors(parents, r.selectors)
	decls := directDecls(r.body)

	var out []outItem
	if len(decls) > 0 {
		out = append(out, &outRule{pos: r.pos, selectors: selectors, decls: decls})
	}
	nested, err := flatten(r.body, selectors)
	if err != nil {
		return nil, err
	}
	return append(out, nested...), nil
}

func flattenAt(a *atNode, parents []string) (*outAt, error) {
	header := a.name
	if a.prelude != "" {
		header += " " + a.prelude
	}
	out := &outAt{pos: a.pos, header: header, block: a.hasBlock}
	if !a.hasBlock {
		return out, nil
	}

	decls := directDecls(a.body)
	if len(parents) > 0 && len(decls) > 0 {
		out.children = append(out.children, &outRule{pos: a.pos, selectors: parents, decls: decls})
	} else {
		out.decls = decls
	}

	rest := make([]node, 0, len(a.body))
	for _, n := range a.body {
		if _, ok := n.(*declNode); !ok {
			rest = append(rest, n)
		}
	}
	children, err := flatten(rest, parents)
	if err != nil {
		return nil, err
	}
	out.children = append(out.children, children...)
	return out, nil
}

func directDecls(body []node) []*declNode {
	var decls []*declNode
	for _, n := range body {
		if d, ok := n.(*declNode); ok {
			decls = append(decls, d)
		}
	}
	return decls
}

func combineSelectors(parents, selectors []string) []string {
	if len(parents) == 0 {
		return selectors
	}
	out := make([]string, 0, len(parents)*len(selectors))
	for _, p := range parents {
		for _, s := range selectors {
			if strings.Contains(s, "&") {
				out = append(out, strings.ReplaceAll(s, "&", p))
			} else {
				out = append(out, p+" "+s)
			}
		}
	}
	return out
}

// emitter writes CSS while tracking the generated position for sourcemaps.
type emitter struct {
	b        strings.Builder
	line     int // 0-based
	col      int // 0-based
	compress bool
	linenos  bool
	maps     *mapBuilder
}

func (e *emitter) write(s string) {
	e.b.WriteString(s)
	for _, r := range s {
		if r == '\n' {
			e.line++
			e.col = 0
		} else {
			e.col++
		}
	}
}

func (e *emitter) mark(p pos) {
	if e.maps != nil {
		e.maps.add(e.line, e.col, p.file, p.line-1, p.col-1)
	}
}

func (e *emitter) lineComment(indent string, p pos) {
	if e.linenos {
		e.write(indent + "/* line " + strconv.Itoa(p.line) + " : " + p.file + " */\n")
	}
}

func (e *emitter) items(items []outItem, depth int) {
	for _, it := range items {
		switch it := it.(type) {
		case *outRule:
			e.rule(it, depth)
		case *outAt:
			e.at(it, depth)
		}
	}
}

func (e *emitter) rule(r *outRule, depth int) {
	if e.compress {
		e.mark(r.pos)
		e.write(strings.Join(r.selectors, ",") + "{")
		e.compressedDecls(r.decls)
		e.write("}")
		return
	}

	indent := strings.Repeat("  ", depth)
	e.lineComment(indent, r.pos)
	e.write(indent)
	e.mark(r.pos)
	e.write(strings.Join(r.selectors, ",\n"+indent) + " {\n")
	e.decls(r.decls, indent+"  ")
	e.write(indent + "}\n")
}

func (e *emitter) at(a *outAt, depth int) {
	if e.compress {
		e.mark(a.pos)
		if !a.block {
			e.write(a.header + ";")
			return
		}
		e.write(a.header + "{")
		e.compressedDecls(a.decls)
		e.items(a.children, depth+1)
		e.write("}")
		return
	}

	indent := strings.Repeat("  ", depth)
	if !a.block {
		e.write(indent)
		e.mark(a.pos)
		e.write(a.header + ";\n")
		return
	}
	if len(a.decls) > 0 {
		e.lineComment(indent, a.pos)
	}
	e.write(indent)
	e.mark(a.pos)
	e.write(a.header + " {\n")
	e.decls(a.decls, indent+"  ")
	e.items(a.children, depth+1)
	e.write(indent + "}\n")
}

func (e *emitter) decls(decls []*declNode, indent string) {
	for _, d := range decls {
		e.write(indent)
		e.mark(d.pos)
		e.write(d.prop + ": " + d.value + ";\n")
	}
}

func (e *emitter) compressedDecls(decls []*declNode) {
	for i, d := range decls {
		if i > 0 {
			e.write(";")
		}
		e.mark(d.pos)
		e.write(d.prop + ":" + d.value)
	}
}
