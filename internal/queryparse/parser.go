package queryparse

import "fmt"

// ParseError reports a specific grammar violation, per spec §4.7 ("Parser
// errors are specific").
type ParseError struct {
	Message string
}

func (e *ParseError) Error() string { return "queryparse: " + e.Message }

// Parser builds a boolean query tree from lexed tokens, per the grammar of
// spec §4.7:
//
//	expr    := term (op term)*
//	op      := "AND" | "OR" | ε   (ε = implicit AND)
//	term    := "NOT" term | FIELD ":" atom | atom
//	atom    := WORD | QUOTE | PHRASE | "(" expr ")"
type Parser struct {
	lex  *Lexer
	next Token
}

// Parse tokenizes and parses text into a query tree.
func Parse(text string) (Node, error) {
	p := &Parser{lex: NewLexer(text)}
	p.advance()
	node, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.next.Kind != TokEOF {
		return nil, &ParseError{fmt.Sprintf("unexpected token %q", p.next.Text)}
	}
	return node, nil
}

func (p *Parser) advance() { p.next = p.lex.Next() }

func (p *Parser) parseExpr() (Node, error) {
	first, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	children := []Node{first}
	isOr := []bool{}

	for {
		switch {
		case p.next.Kind == TokOperator && p.next.Text == "AND":
			p.advance()
			isOr = append(isOr, false)
		case p.next.Kind == TokOperator && p.next.Text == "OR":
			p.advance()
			isOr = append(isOr, true)
		case p.startsTerm():
			isOr = append(isOr, false) // implicit AND
		default:
			return foldExpr(children, isOr), nil
		}
		next, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		children = append(children, next)
	}
}

// foldExpr builds a left-to-right tree where runs of AND bind into one
// AndNode and OR separates top-level AndNode groups, matching typical
// boolean-query precedence (AND binds tighter than OR).
func foldExpr(children []Node, isOr []bool) Node {
	if len(children) == 1 {
		return children[0]
	}
	var orGroups [][]Node
	current := []Node{children[0]}
	for i, or := range isOr {
		if or {
			orGroups = append(orGroups, current)
			current = []Node{children[i+1]}
		} else {
			current = append(current, children[i+1])
		}
	}
	orGroups = append(orGroups, current)

	toNode := func(group []Node) Node {
		if len(group) == 1 {
			return group[0]
		}
		return &AndNode{Children: group}
	}
	if len(orGroups) == 1 {
		return toNode(orGroups[0])
	}
	or := &OrNode{}
	for _, g := range orGroups {
		or.Children = append(or.Children, toNode(g))
	}
	return or
}

func (p *Parser) startsTerm() bool {
	switch p.next.Kind {
	case TokWord, TokPhrase, TokQuote, TokField, TokLParen:
		return true
	case TokOperator:
		return p.next.Text == "NOT"
	default:
		return false
	}
}

func (p *Parser) parseTerm() (Node, error) {
	if p.next.Kind == TokOperator && p.next.Text == "NOT" {
		p.advance()
		child, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		return &NotNode{Child: child}, nil
	}
	if p.next.Kind == TokField {
		field := fieldFromName[p.next.Text]
		p.advance()
		if p.next.Kind != TokColon {
			return nil, &ParseError{"Expected ':'"}
		}
		p.advance()
		return p.parseAtom(field)
	}
	return p.parseAtom(FieldNone)
}

func (p *Parser) parseAtom(field Field) (Node, error) {
	switch p.next.Kind {
	case TokWord:
		t := p.next.Text
		p.advance()
		return &TermNode{Field: field, Kind: AtomWord, Text: t}, nil
	case TokPhrase:
		t := p.next.Text
		p.advance()
		return &TermNode{Field: field, Kind: AtomPhrase, Text: t}, nil
	case TokQuote:
		t := p.next.Text
		p.advance()
		return &TermNode{Field: field, Kind: AtomQuote, Text: t}, nil
	case TokLParen:
		p.advance()
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if p.next.Kind != TokRParen {
			return nil, &ParseError{"Expected ')'"}
		}
		p.advance()
		return inner, nil
	default:
		return nil, &ParseError{fmt.Sprintf("Expected atom, got %q", p.next.Text)}
	}
}
