package gcode

import (
	"strings"
)

// Line is one normalized input line. Code is lower case with all spaces
// removed; Comment is kept verbatim including its delimiter.
type Line struct {
	Number    int
	Raw       string
	Code      string
	Comment   string
	IsComment bool

	tokens []Token
}

// Normalize prepares a raw input line for analysis. It never fails:
// anything it does not understand is carried through unchanged.
func Normalize(raw string, number int) Line {
	l := Line{Number: number, Raw: raw}

	text := strings.TrimSpace(raw)
	text = stripLineNumber(text)

	if text == "" {
		return l
	}
	if text[0] == ';' || text[0] == '(' {
		l.IsComment = true
		l.Comment = text
		return l
	}

	code := text
	if i := strings.IndexAny(text, ";("); i >= 0 {
		code = text[:i]
		l.Comment = strings.TrimSpace(text[i:])
	}
	code = strings.TrimRight(strings.TrimSpace(code), ".")
	code = strings.ReplaceAll(strings.ToLower(code), " ", "")
	code = strings.ReplaceAll(code, "\t", "")

	return l.WithCode(stripLeadingZeros(code))
}

func stripLineNumber(text string) string {
	if len(text) < 2 || (text[0] != 'n' && text[0] != 'N') || !isDigit(text[1]) {
		return text
	}
	i := 1
	for i < len(text) && (isDigit(text[i]) || text[i] == '.' || text[i] == ' ') {
		i++
	}
	return text[i:]
}

// stripLeadingZeros rewrites g01 as g1 and m03 as m3, leaving g0 and m0
// untouched.
func stripLeadingZeros(code string) string {
	tokens := Lex(code)
	changed := false
	for i, tok := range tokens {
		if tok.Kind != TokenWord || (tok.Letter != 'g' && tok.Letter != 'm') {
			continue
		}
		v := tok.Value
		for len(v) > 1 && v[0] == '0' && isDigit(v[1]) {
			v = v[1:]
		}
		if v != tok.Value {
			tokens[i].Value = v
			tokens[i].Literal = string(tok.Letter) + v
			changed = true
		}
	}
	if !changed {
		return code
	}
	return Join(tokens)
}

// Join concatenates token literals back into code.
func Join(tokens []Token) string {
	var sb strings.Builder
	for _, tok := range tokens {
		sb.WriteString(tok.Literal)
	}
	return sb.String()
}

// WithCode returns a copy of the line with its code replaced and
// re-tokenized.
func (l Line) WithCode(code string) Line {
	l.Code = code
	l.tokens = Lex(code)
	return l
}

// WithComment returns a copy of the line with comment replacing the
// existing comment.
func (l Line) WithComment(comment string) Line {
	l.Comment = comment
	return l
}

func (l Line) IsBlank() bool {
	return l.Code == "" && l.Comment == ""
}

func (l Line) Tokens() []Token {
	return l.tokens
}

func (l Line) String() string {
	switch {
	case l.Code == "":
		return l.Comment
	case l.Comment == "":
		return l.Code
	}
	return l.Code + " " + l.Comment
}

// Word returns the first word with the given address letter.
func (l Line) Word(letter byte) (Token, bool) {
	for _, tok := range l.tokens {
		if tok.IsWord(letter) {
			return tok, true
		}
	}
	return Token{}, false
}

// Has reports whether the line contains the word letter+value, with value
// compared as text after normalization (so Has('g', "90.1") is distinct
// from Has('g', "90")).
func (l Line) Has(letter byte, value string) bool {
	for _, tok := range l.tokens {
		if tok.Kind == TokenWord && tok.Letter == letter && tok.Value == value {
			return true
		}
	}
	return false
}

// HasAny reports whether any word uses one of the given letters.
func (l Line) HasAny(letters string) bool {
	for _, tok := range l.tokens {
		if (tok.Kind == TokenWord || tok.Kind == TokenWordExpr) && strings.IndexByte(letters, tok.Letter) >= 0 {
			return true
		}
	}
	return false
}

// Spindle returns the $n spindle selector of the line, if any.
func (l Line) Spindle() (string, bool) {
	for _, tok := range l.tokens {
		if tok.Kind == TokenSpindle {
			return tok.Literal[1:], true
		}
	}
	return "", false
}

// Assignment is a parameter assignment such as #<holes>=4.
type Assignment struct {
	Name  string
	Value string
}

// ParseAssignment recognizes lines of the form #<name>=value or #n=value.
func ParseAssignment(l Line) (Assignment, bool) {
	tokens := l.tokens
	if len(tokens) < 2 || tokens[0].Kind != TokenParameter || tokens[1].Kind != TokenAssign {
		return Assignment{}, false
	}
	name := strings.TrimPrefix(tokens[0].Literal, "#")
	name = strings.TrimSuffix(strings.TrimPrefix(name, "<"), ">")
	return Assignment{Name: name, Value: Join(tokens[2:])}, true
}
