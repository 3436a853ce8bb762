package gcode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		code      string
		comment   string
		isComment bool
	}{
		{"lower case and spaces", "G01 X 10.5 Y-2", "g1x10.5y-2", "", false},
		{"line number", "N120 G00 X1", "g0x1", "", false},
		{"line number with decimals", "n10.2 M03 $0 S1", "m3$0s1", "", false},
		{"trailing comment kept verbatim", "G0 X1 (Move To Start)", "g0x1", "(Move To Start)", false},
		{"semicolon comment", "M5 ; Torch Off", "m5", "; Torch Off", false},
		{"full line comment", "  (o=1, nu=2)  ", "", "(o=1, nu=2)", true},
		{"semicolon line", ";conversational block", "", ";conversational block", true},
		{"trailing period", "G1 X10.", "g1x10", "", false},
		{"g0 untouched", "G0 X0", "g0x0", "", false},
		{"double zero", "M00", "m0", "", false},
		{"g90.1 untouched", "G90.1", "g90.1", "", false},
		{"parameter", "#<holes> = 4", "#<holes>=4", "", false},
		{"blank", "   ", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := Normalize(tt.raw, 1)
			assert.Equal(t, tt.code, l.Code)
			assert.Equal(t, tt.comment, l.Comment)
			assert.Equal(t, tt.isComment, l.IsComment)
		})
	}
}

func TestLineString(t *testing.T) {
	l := Normalize("G02 X1 Y2 I0 J-5 (hole)", 3)
	assert.Equal(t, "g2x1y2i0j-5 (hole)", l.String())
	assert.Equal(t, 3, l.Number)

	assert.Equal(t, "(only)", Normalize("(only)", 1).String())
	assert.Equal(t, "m5", Normalize("M5", 1).String())
}

func TestLineWords(t *testing.T) {
	l := Normalize("G3 X1.5 Y-2 I#1 J[2*3] F#<_hal[plasmac.cut-feed-rate]>", 1)

	x, ok := l.Word('x')
	require.True(t, ok)
	v, ok := x.Number()
	require.True(t, ok)
	assert.Equal(t, 1.5, v)

	i, ok := l.Word('i')
	require.True(t, ok)
	assert.Equal(t, TokenWordExpr, i.Kind)
	_, ok = i.Number()
	assert.False(t, ok)

	j, _ := l.Word('j')
	assert.Equal(t, "[2*3]", j.Value)

	f, _ := l.Word('f')
	assert.Equal(t, "#<_hal[plasmac.cut-feed-rate]>", f.Value)

	assert.True(t, l.Has('g', "3"))
	assert.False(t, l.Has('g', "2"))
	assert.True(t, l.HasAny("xy"))
	assert.False(t, l.HasAny("z"))
}

func TestLineSpindle(t *testing.T) {
	l := Normalize("M3 $1 S1", 1)
	s, ok := l.Spindle()
	require.True(t, ok)
	assert.Equal(t, "1", s)
	assert.True(t, l.Has('m', "3"))
	assert.True(t, l.Has('s', "1"))

	_, ok = Normalize("M3 S1", 1).Spindle()
	assert.False(t, ok)
}

func TestParseAssignment(t *testing.T) {
	tests := []struct {
		raw   string
		name  string
		value string
		ok    bool
	}{
		{"#<holes>=4", "holes", "4", true},
		{"#<h_diameter> = 12.5", "h_diameter", "12.5", true},
		{"#<pierce-only>=1", "pierce-only", "1", true},
		{"#100=[#1+2]", "100", "[#1+2]", true},
		{"g1x1", "", "", false},
		{"#<holes>", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			a, ok := ParseAssignment(Normalize(tt.raw, 1))
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.name, a.Name)
			assert.Equal(t, tt.value, a.Value)
		})
	}
}
