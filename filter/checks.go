package filter

import (
	"strings"

	"github.com/LinuxCNC/linuxcnc-sub008/gcode"
)

// illegalCharacters returns why a line cannot be valid G-code, or "" if
// it may be. Semicolon comments are never checked.
func illegalCharacters(l gcode.Line) string {
	text := l.Code + l.Comment
	if l.IsComment {
		text = l.Comment
	}
	code := strings.ReplaceAll(strings.ReplaceAll(text, " ", ""), "\t", "")
	if code == "" || code[0] == ';' {
		return ""
	}

	var reason string
	switch {
	case len(code) == 1 && !strings.ContainsAny(code, "/;%"):
		reason = "single character line with invalid character"
	case strings.Contains(code, "(") && code[len(code)-1] != ')' && !strings.Contains(code, ";"),
		code[len(code)-1] == ')' && !strings.Contains(code, "("):
		reason = "comment is missing a parenthesis"
	case len(code) > 1 && isAlpha(code[0]) && isAlpha(code[1]):
		reason = "line starts with two alpha characters"
	case !isAlpha(code[0]) && !strings.ContainsRune("/;(#@^%", rune(code[0])):
		reason = "invalid first character"
	}
	if reason == "" && code[0] == '#' {
		reason = checkParameter(code)
	}
	return reason
}

func checkParameter(code string) string {
	code = strings.TrimLeft(code, "#")
	if i := strings.Index(code, "("); i >= 0 {
		code = code[:i]
	}
	left, right, ok := strings.Cut(code, "=")
	switch {
	case !ok:
		return "parameter is missing equals sign"
	case left == "" || right == "":
		return "parameter has no value"
	case left[0] == '<' && !strings.Contains(left, ">"):
		return "named parameter is missing a chevron"
	case left[0] != '<' && !allDigits(left):
		return "numbered parameter is not a number"
	}
	return ""
}

func isAlpha(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}
