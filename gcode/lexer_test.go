package gcode

import (
	"testing"
)

func TestLexerKinds(t *testing.T) {
	tests := []struct {
		input string
		kinds []TokenKind
	}{
		{"g1x10", []TokenKind{TokenWord, TokenWord}},
		{"x[#1+2]", []TokenKind{TokenWordExpr}},
		{"#<holes>=4", []TokenKind{TokenParameter, TokenAssign, TokenWord}},
		{"m3$0s1", []TokenKind{TokenWord, TokenSpindle, TokenWord}},
		{"o100sub", []TokenKind{TokenWord, TokenOther}},
		{"[1+2", []TokenKind{TokenError}},
		{"%", []TokenKind{TokenOther}},
		{"g53g0z[#<_ini[axis_z]max_limit>-5]", []TokenKind{TokenWord, TokenWord, TokenWordExpr}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			tokens := Lex(tt.input)
			if len(tokens) != len(tt.kinds) {
				t.Fatalf("len(tokens) = %d, want %d (%v)", len(tokens), len(tt.kinds), tokens)
			}
			for i, tok := range tokens {
				if tok.Kind != tt.kinds[i] {
					t.Errorf("tokens[%d].Kind = %v, want %v", i, tok.Kind, tt.kinds[i])
				}
			}
			if got := Join(tokens); got != tt.input {
				t.Errorf("Join = %q, want %q", got, tt.input)
			}
		})
	}
}

func TestLexerPositions(t *testing.T) {
	lexer := NewLexer([]byte("g2x-1.5"), 7)

	tok := lexer.NextToken()
	if tok.Span.Start.Column != 1 || tok.Span.End.Column != 3 {
		t.Errorf("g2 span = %v, want columns 1..3", tok.Span)
	}
	tok = lexer.NextToken()
	if tok.Letter != 'x' || tok.Value != "-1.5" {
		t.Errorf("word = %c%s, want x-1.5", tok.Letter, tok.Value)
	}
	if tok.Span.Start.Line != 7 {
		t.Errorf("Line = %d, want 7", tok.Span.Start.Line)
	}
	if tok = lexer.NextToken(); tok.Kind != TokenEOF {
		t.Errorf("Kind = %v, want EOF", tok.Kind)
	}
}
