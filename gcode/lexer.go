package gcode

// Lexer splits the normalized code portion of a line into tokens. The
// input is expected to be lower case with spaces removed.
type Lexer struct {
	input  []byte
	pos    int
	line   int
	column int
}

func NewLexer(input []byte, line int) *Lexer {
	return &Lexer{
		input:  input,
		pos:    0,
		line:   line,
		column: 1,
	}
}

func (l *Lexer) Position() Position {
	return Position{
		Line:   l.line,
		Offset: l.pos,
		Column: l.column,
	}
}

func (l *Lexer) peek() byte {
	if l.pos >= len(l.input) {
		return 0
	}
	return l.input[l.pos]
}

func (l *Lexer) peekN(n int) byte {
	if l.pos+n >= len(l.input) {
		return 0
	}
	return l.input[l.pos+n]
}

func (l *Lexer) advance() byte {
	if l.pos >= len(l.input) {
		return 0
	}
	ch := l.input[l.pos]
	l.pos++
	l.column++
	return ch
}

func (l *Lexer) NextToken() Token {
	start := l.Position()

	if l.pos >= len(l.input) {
		return Token{Kind: TokenEOF, Span: Span{Start: start, End: start}}
	}

	ch := l.peek()

	switch {
	case isLetter(ch):
		return l.scanWord(start)
	case ch == '#':
		l.scanParameter()
		return l.token(TokenParameter, start)
	case ch == '[':
		if !l.scanBracket() {
			return l.token(TokenError, start)
		}
		return l.token(TokenExpression, start)
	case ch == '=':
		l.advance()
		return l.token(TokenAssign, start)
	case ch == '$':
		l.advance()
		if l.peek() == '-' {
			l.advance()
		}
		for isDigit(l.peek()) {
			l.advance()
		}
		return l.token(TokenSpindle, start)
	}

	l.advance()
	return l.token(TokenOther, start)
}

func (l *Lexer) token(kind TokenKind, start Position) Token {
	end := l.Position()
	return Token{
		Kind:    kind,
		Span:    Span{Start: start, End: end},
		Literal: string(l.input[start.Offset:end.Offset]),
	}
}

func (l *Lexer) scanWord(start Position) Token {
	letter := l.peek()
	next := l.peekN(1)

	switch {
	case isDigit(next) || next == '.' || next == '-' || next == '+':
		l.advance()
		if l.peek() == '-' || l.peek() == '+' {
			l.advance()
		}
		for isDigit(l.peek()) || l.peek() == '.' {
			l.advance()
		}
		tok := l.token(TokenWord, start)
		tok.Letter = letter
		tok.Value = tok.Literal[1:]
		return tok
	case next == '[':
		l.advance()
		kind := TokenWordExpr
		if !l.scanBracket() {
			kind = TokenError
		}
		tok := l.token(kind, start)
		tok.Letter = letter
		tok.Value = tok.Literal[1:]
		return tok
	case next == '#':
		l.advance()
		l.scanParameter()
		tok := l.token(TokenWordExpr, start)
		tok.Letter = letter
		tok.Value = tok.Literal[1:]
		return tok
	}

	// keywords such as sub, endsub, call or if
	for isLetter(l.peek()) {
		l.advance()
	}
	return l.token(TokenOther, start)
}

func (l *Lexer) scanParameter() {
	l.advance()
	switch {
	case l.peek() == '<':
		for l.peek() != 0 && l.peek() != '>' {
			l.advance()
		}
		if l.peek() == '>' {
			l.advance()
		}
	case l.peek() == '[':
		l.scanBracket()
	default:
		for isDigit(l.peek()) {
			l.advance()
		}
	}
}

// scanBracket consumes a balanced [...] group and reports whether the
// closing bracket was found.
func (l *Lexer) scanBracket() bool {
	depth := 0
	for l.peek() != 0 {
		switch l.advance() {
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return true
			}
		}
	}
	return false
}

// Lex returns every token of code, not including the trailing EOF.
func Lex(code string) []Token {
	lexer := NewLexer([]byte(code), 0)
	var tokens []Token
	for {
		tok := lexer.NextToken()
		if tok.Kind == TokenEOF {
			return tokens
		}
		tokens = append(tokens, tok)
	}
}

func isLetter(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}
