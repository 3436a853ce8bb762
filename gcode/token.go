package gcode

import "strconv"

type Position struct {
	Line   int
	Offset int
	Column int
}

type Span struct {
	Start Position
	End   Position
}

type TokenKind int

const (
	TokenEOF TokenKind = iota
	TokenError

	// A letter followed by a literal number, e.g. g1 or x-1.5.
	TokenWord
	// A letter followed by an expression or parameter, e.g. x[#1+2].
	TokenWordExpr

	TokenParameter
	TokenAssign
	TokenExpression
	TokenSpindle
	TokenOther
)

var tokenKindNames = map[TokenKind]string{
	TokenEOF:        "EOF",
	TokenError:      "Error",
	TokenWord:       "Word",
	TokenWordExpr:   "WordExpr",
	TokenParameter:  "Parameter",
	TokenAssign:     "Assign",
	TokenExpression: "Expression",
	TokenSpindle:    "Spindle",
	TokenOther:      "Other",
}

func (k TokenKind) String() string {
	if name, ok := tokenKindNames[k]; ok {
		return name
	}
	return "Unknown"
}

// Token is a lexical unit of the code portion of a G-code line. For words
// Letter holds the lower-case address letter and Value the text after it.
type Token struct {
	Kind    TokenKind
	Span    Span
	Literal string
	Letter  byte
	Value   string
}

// Number parses the value of a literal word.
func (t Token) Number() (float64, bool) {
	if t.Kind != TokenWord {
		return 0, false
	}
	v, err := strconv.ParseFloat(t.Value, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func (t Token) IsWord(letter byte) bool {
	return (t.Kind == TokenWord || t.Kind == TokenWordExpr) && t.Letter == letter
}
