package filter

import (
	"strconv"
	"strings"

	"github.com/LinuxCNC/linuxcnc-sub008/diag"
	"github.com/LinuxCNC/linuxcnc-sub008/gcode"
	"github.com/LinuxCNC/linuxcnc-sub008/material"
)

// compiler is pass 2: it validates each line against the state built up so
// far and emits the rewritten program.
type compiler struct {
	opts  Options
	db    *material.Database
	st    *State
	edits map[int]EditResult

	out        []string
	pending    []diag.Diagnostic
	emittedAt  int
	codeLines  int
	feedWarned map[int]bool

	pierce  pierceState
	extents Extents
	stats   Stats
}

func newCompiler(db *material.Database, opts Options, edits map[int]EditResult) *compiler {
	st := newState(opts.MachineUnits, opts.InitialMaterial)
	st.PierceOnly = opts.PierceOnly
	return &compiler{
		opts:       opts,
		db:         db,
		st:         st,
		edits:      edits,
		feedWarned: make(map[int]bool),
	}
}

// inject appends a line the filter generated.
func (c *compiler) inject(s string) {
	c.out = append(c.out, s)
	c.st.LineNumber = len(c.out)
}

// emit appends the line that stands for the current input line.
func (c *compiler) emit(s string) {
	c.inject(s)
	c.emittedAt = len(c.out)
}

func (c *compiler) report(kind diag.Kind, detail string) {
	c.pending = append(c.pending, diag.Diagnostic{Kind: kind, Detail: detail})
}

// flush stamps the diagnostics of an input line with the output line that
// replaced it, or the next output line if it was dropped.
func (c *compiler) flush(source int) {
	line := c.emittedAt
	if line == 0 {
		line = len(c.out) + 1
	}
	for _, d := range c.pending {
		d.Line = line
		d.SourceLine = source
		c.st.Diag.Add(d)
	}
	c.pending = c.pending[:0]
	c.emittedAt = 0
}

func (c *compiler) compile(lines []gcode.Line) {
	for _, l := range lines {
		c.process(l)
		c.flush(l.Number)
	}
	if c.st.PierceOnly {
		c.finishPierce()
	}
}

func (c *compiler) process(l gcode.Line) {
	if l.IsBlank() {
		if !c.st.PierceOnly || c.pierce.count == 0 {
			c.emit("")
		}
		return
	}

	if l.IsComment {
		c.comment(l)
		return
	}

	if reason := illegalCharacters(l); reason != "" {
		c.emit(";" + l.String() + " |" + reason)
		c.report(diag.InvalidCharacters, reason)
		return
	}
	c.codeLines++

	if a, ok := gcode.ParseAssignment(l); ok && c.directive(a) {
		c.emit(l.String())
		return
	}

	if c.st.PierceOnly {
		c.pierceLine(l)
		return
	}
	c.code(l)
}

func (c *compiler) comment(l gcode.Line) {
	if material.IsDirective(l.Comment) {
		c.materialDirective(l)
		return
	}
	if reason := illegalCharacters(l); reason != "" {
		c.emit(";" + l.Comment + " |" + reason)
		c.report(diag.InvalidCharacters, reason)
		return
	}
	if strings.HasPrefix(strings.ToLower(l.Comment), ";conversational block") {
		c.st.ConvBlock = true
	}
	if c.st.PierceOnly && c.pierce.count > 0 {
		return
	}
	c.emit(l.Comment)
}

func (c *compiler) code(l gcode.Line) {
	st := c.st

	if strings.Contains(l.Code, "[axis_z]max_limit") {
		return
	}

	l = c.modalPrefix(l)
	isMotion := l.Has('g', "0") || l.Has('g', "1")
	isArc := l.Has('g', "2") || l.Has('g', "3")

	c.trackModes(l)
	l = c.cutterComp(l)

	if l.HasAny("z") && !st.ZAxisBypass {
		var commented bool
		l, commented = c.rewriteZ(l)
		if commented {
			return
		}
	}

	if (isMotion || isArc) && l.HasAny("xy") {
		if !st.ZAxisSetupDone && !st.ZAxisBypass {
			c.inject(c.zSetupLine())
			st.ZAxisSetupDone = true
		}
		st.FirstMove = true
	}

	if l.Has('m', "3") {
		c.spindleOn(l)
	}
	c.torchWords(l)

	if l.Has('m', "66") && st.OffsetCompActive {
		c.report(diag.MaterialChangeUnderCompensation, "")
	}
	if l.Has('m', "190") {
		c.materialChange(l)
	}

	if isArc && c.arc(l) {
		return
	}

	if isMotion {
		if st.HoleActive {
			c.inject(velocityRestore)
			st.HoleActive = false
		}
		if st.OverburnPending && st.Incremental {
			l = c.fixOverburnIncremental(l)
		}
		st.OverburnPending = false
	}

	l = c.checkFeed(l)

	if c.isProgramEnd(l) {
		c.programEnd()
		c.emit(l.String())
		return
	}

	c.trackPosition(l)
	c.emit(l.String())

	if l.Has('m', "5") {
		c.spindleOff()
	}
}

// modalPrefix adds the active motion mode to lines that only carry axis
// words.
func (c *compiler) modalPrefix(l gcode.Line) gcode.Line {
	if tokens := l.Tokens(); len(tokens) > 0 && isAxisWord(tokens[0]) && c.st.LastMotion != "" {
		l = l.WithCode("g" + c.st.LastMotion + l.Code)
	}
	for _, tok := range l.Tokens() {
		if tok.Kind == gcode.TokenWord && tok.Letter == 'g' {
			switch tok.Value {
			case "0", "1", "2", "3":
				c.st.LastMotion = tok.Value
			}
		}
	}
	return l
}

func (c *compiler) trackModes(l gcode.Line) {
	st := c.st
	switch {
	case l.Has('g', "20"):
		st.setUnits(Inches)
	case l.Has('g', "21"):
		st.setUnits(Millimetres)
	}
	if l.Has('g', "90") {
		st.Incremental = false
	}
	if l.Has('g', "91") {
		st.Incremental = true
	}
	if l.Has('g', "90.1") {
		st.ArcAbsolute = true
	}
	if l.Has('g', "91.1") {
		st.ArcAbsolute = false
		st.IncrementalArcDeclared = true
	}
	if l.Has('g', "64") {
		st.PathBlendSet = true
	}
	if l.Has('g', "92") {
		c.report(diag.G92OffsetNotAllowed, "")
	}
}

func (c *compiler) zSetupLine() string {
	return "g53 g0 z[[#<_ini[axis_z]max_limit> - " + strconv.FormatFloat(c.opts.ZMaxOffset, 'f', -1, 64) +
		"] * " + formatNumber(c.st.UnitMultiplier) + "] (Z just below max height)"
}

func (c *compiler) spindleOn(l gcode.Line) {
	st := c.st
	if !st.FirstMove {
		c.report(diag.SpindleOnBeforeMotion, "")
	}
	switch spindle, _ := l.Spindle(); spindle {
	case "1":
		st.Scribing = true
	case "2":
		st.Spotting = true
	}
	if !st.PathBlendSet {
		c.inject("g64 p" + formatNumber(st.BlendTolerance))
		st.PathBlendSet = true
	}
	c.extents.add(st.LastX, st.LastY)
}

func (c *compiler) torchWords(l gcode.Line) {
	p, ok := l.Word('p')
	if !ok || p.Value != "3" {
		return
	}
	switch {
	case l.Has('m', "62"), l.Has('m', "64"):
		c.st.TorchEnabled = false
	case l.Has('m', "63"), l.Has('m', "65"):
		c.st.TorchEnabled = true
	}
}

const (
	velocityRestore       = "m67 e3 q0 (arc complete, velocity 100%)"
	velocityRestoreNow    = "m68 e3 q0 (arc complete, velocity 100%)"
	torchEnable           = "m65 p3 (enable torch)"
	holeSensingOff        = "#<holes>=0 (disable hole sensing)"
	abortLine             = "M2 (End due to GCode error)"
	filteredMarker        = ";qtplasmac filtered g-code file"
	pierceOnlyEnd         = "M2 (END)"
	ignoredSpotting       = "(Ignoring spotting operation as pierce-only is active)"
	ignoredScribing       = "(Ignoring scribing operation as pierce-only is active)"
	temporaryMaterialNote = ";temporary material #"
)

func (c *compiler) spindleOff() {
	st := c.st
	st.FirstMove = false
	if st.HoleActive {
		c.inject(velocityRestoreNow)
		st.HoleActive = false
	}
	if !st.TorchEnabled {
		c.inject(torchEnable)
		st.TorchEnabled = true
	}
	st.Spotting = false
}

func (c *compiler) isProgramEnd(l gcode.Line) bool {
	if l.Has('m', "2") || l.Has('m', "30") {
		return true
	}
	// a leading % only marks the start of the program
	return l.Code == "%" && c.codeLines > 1
}

func (c *compiler) programEnd() {
	st := c.st
	if st.HoleActive {
		c.inject(velocityRestoreNow)
		st.HoleActive = false
	}
	if !st.TorchEnabled {
		c.inject(torchEnable)
		st.TorchEnabled = true
	}
	if st.HoleMode.Enabled() {
		c.inject(holeSensingOff)
		st.HoleMode = HoleOff
	}
}

// trackPosition follows the programmed X/Y position through explicit
// numeric words.
func (c *compiler) trackPosition(l gcode.Line) {
	if l.Has('g', "53") || l.Has('g', "28") || l.Has('g', "30") || l.Has('g', "92") {
		return
	}
	st := c.st
	if x, ok := l.Word('x'); ok {
		if v, ok := x.Number(); ok {
			if st.Incremental {
				st.LastX += v
			} else {
				st.LastX = v
			}
		}
	}
	if y, ok := l.Word('y'); ok {
		if v, ok := y.Number(); ok {
			if st.Incremental {
				st.LastY += v
			} else {
				st.LastY = v
			}
		}
	}
}

func isAxisWord(tok gcode.Token) bool {
	if tok.Kind != gcode.TokenWord && tok.Kind != gcode.TokenWordExpr {
		return false
	}
	return strings.IndexByte("xyzabcuvw", tok.Letter) >= 0
}

// replaceWord swaps the literal of the first word with the given letter.
func replaceWord(l gcode.Line, letter byte, literal string) gcode.Line {
	tokens := append([]gcode.Token(nil), l.Tokens()...)
	for i, tok := range tokens {
		if tok.IsWord(letter) {
			tokens[i].Literal = literal
			return l.WithCode(gcode.Join(tokens))
		}
	}
	return l
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func fixed(v float64, precision int) string {
	s := strconv.FormatFloat(v, 'f', precision, 64)
	if s == "-"+strconv.FormatFloat(0, 'f', precision, 64) {
		return s[1:]
	}
	return s
}
