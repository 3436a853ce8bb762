package filter

import (
	"strings"

	"github.com/LinuxCNC/linuxcnc-sub008/gcode"
)

const zCommented = " Z axis commented out)"

// rewriteZ comments out Z motion. A line that only moves Z is emitted as a
// comment and commented is true; otherwise the z word is moved into a
// trailing comment.
func (c *compiler) rewriteZ(l gcode.Line) (gcode.Line, bool) {
	if !l.HasAny("xyabcuvw") {
		out := "(" + l.Code + zCommented
		if l.Comment != "" {
			out += " " + l.Comment
		}
		c.emit(out)
		return l, true
	}

	var kept []gcode.Token
	var moved []string
	for _, tok := range l.Tokens() {
		if tok.IsWord('z') {
			moved = append(moved, tok.Literal)
			continue
		}
		kept = append(kept, tok)
	}
	comment := "(" + strings.Join(moved, " ") + zCommented
	if l.Comment != "" {
		comment += " " + l.Comment
	}
	return l.WithCode(gcode.Join(kept)).WithComment(comment), false
}
