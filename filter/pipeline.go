// Package filter rewrites a plasma G-code program before it reaches the
// motion controller.
//
// A run has two passes over the normalized program. The first applies
// every inline material directive to the material database so that the
// second, which validates and rewrites each line, sees the final set of
// materials.
package filter

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/tliron/commonlog"

	"github.com/LinuxCNC/linuxcnc-sub008/diag"
	"github.com/LinuxCNC/linuxcnc-sub008/gcode"
	"github.com/LinuxCNC/linuxcnc-sub008/halsync"
	"github.com/LinuxCNC/linuxcnc-sub008/material"
	"github.com/LinuxCNC/linuxcnc-sub008/metrics"
)

var log = commonlog.GetLogger("plasmac.filter")

type Options struct {
	MachineUnits    Units
	KerfPolicy      KerfPolicy
	PierceOnly      bool
	InitialMaterial int
	ZMaxOffset      float64
	// GUI selects the HAL pins named in generated code: "axis" or
	// anything else for qtplasmac.
	GUI string

	// Port receives the first material and pierce extents at the end of
	// a run. Nil means no GUI is listening.
	Port halsync.Port
	// DryRun skips publishing to Port.
	DryRun  bool
	Metrics *metrics.Recorder
}

// Extents is the bounding box of every pierce point.
type Extents struct {
	MinX, MaxX float64
	MinY, MaxY float64
	Valid      bool
}

func (e *Extents) add(x, y float64) {
	if !e.Valid {
		*e = Extents{MinX: x, MaxX: x, MinY: y, MaxY: y, Valid: true}
		return
	}
	e.MinX = math.Min(e.MinX, x)
	e.MaxX = math.Max(e.MaxX, x)
	e.MinY = math.Min(e.MinY, y)
	e.MaxY = math.Max(e.MaxY, y)
}

type Stats struct {
	LinesRead     int
	Holes         int
	Overburns     int
	Pierces       int
	MaterialEdits int
}

// Result is a filtered program together with everything found while
// filtering it.
type Result struct {
	Lines       []string
	Diag        *diag.Sink
	Aborted     bool
	PierceOnly  bool
	Passthrough bool
	Extents     Extents
	Stats       Stats
	Phase       Phase
}

// WriteTo writes the filtered program. A program with errors is preceded
// by an m2 so the controller refuses to run it.
func (r *Result) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)
	var n int64
	write := func(s string) {
		m, _ := bw.WriteString(s)
		n += int64(m)
		m, _ = bw.WriteString("\n")
		n += int64(m)
	}

	if r.Aborted {
		write(abortLine)
	}
	for _, line := range r.Lines {
		write(line)
	}
	if !r.Passthrough {
		write(filteredMarker)
	}
	return n, bw.Flush()
}

type Pipeline struct {
	db    *material.Database
	opts  Options
	phase Phase
}

func New(db *material.Database, opts Options) *Pipeline {
	if opts.Port == nil {
		opts.Port = halsync.Nop{}
	}
	return &Pipeline{db: db, opts: opts}
}

func (p *Pipeline) Phase() Phase {
	return p.phase
}

// Run filters the program read from r. name is the program's file name;
// run-from-line programs and programs that were already filtered are
// passed through untouched. The returned error is only for I/O failures:
// problems with the program itself are reported in Result.Diag.
func (p *Pipeline) Run(ctx context.Context, name string, r io.Reader) (*Result, error) {
	timer := metrics.NewTimer()
	raw, err := readLines(r)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}

	if filepath.Base(name) == "rfl.ngc" || hasMarker(raw) {
		log.Infof("%s: passing through unchanged", name)
		p.phase = Done
		return &Result{Lines: raw, Diag: diag.NewSink(), Passthrough: true, Phase: Done}, nil
	}

	lines := make([]gcode.Line, len(raw))
	for i, text := range raw {
		lines[i] = gcode.Normalize(text, i+1)
	}

	p.phase = ScanningMaterialEdits
	loadErr := p.db.Load()
	if loadErr != nil {
		log.Errorf("%s", loadErr)
	}
	edits := p.scanMaterialEdits(ctx, lines)

	p.phase = ValidatingAndCompiling
	c := newCompiler(p.db, p.opts, edits)
	if loadErr != nil {
		c.report(diag.MaterialFileError, loadErr.Error())
		c.flush(1)
	}
	c.stats.MaterialEdits = countApplied(edits)
	c.compile(lines)

	res := &Result{
		Lines:      c.out,
		Diag:       c.st.Diag,
		Aborted:    c.st.Diag.HasErrors(),
		PierceOnly: c.st.PierceOnly,
		Extents:    c.extents,
		Stats:      c.stats,
	}
	res.Stats.LinesRead = len(raw)
	if res.PierceOnly {
		p.phase = PierceOnlyEmit
	} else {
		p.phase = FullEmit
	}
	if res.Aborted {
		res.Diag.Shift(1)
	}

	if !p.opts.DryRun {
		p.publish(ctx, c.st, res)
	}

	p.opts.Metrics.RecordLines(len(raw), len(res.Lines))
	p.opts.Metrics.RecordDiagnostics(res.Diag)
	p.opts.Metrics.RecordRun(timer.Duration())
	log.Infof("%s: %d lines in, %d out, %d errors, %d warnings", name, len(raw), len(res.Lines),
		len(res.Diag.Errors()), len(res.Diag.Warnings()))

	p.phase = Done
	res.Phase = Done
	return res, nil
}

func (p *Pipeline) publish(ctx context.Context, st *State, res *Result) {
	if st.FirstMaterialSet {
		if err := halsync.PublishMaterial(ctx, p.opts.Port, st.FirstMaterial); err != nil {
			log.Warningf("publish material: %s", err)
		}
	}
	if !res.Extents.Valid {
		return
	}
	for pin, v := range map[halsync.Pin]float64{
		halsync.PinPierceXMin: res.Extents.MinX,
		halsync.PinPierceXMax: res.Extents.MaxX,
		halsync.PinPierceYMin: res.Extents.MinY,
		halsync.PinPierceYMax: res.Extents.MaxY,
	} {
		if err := p.opts.Port.Set(ctx, pin, strconv.FormatFloat(v, 'f', -1, 64)); err != nil {
			log.Warningf("publish %s: %s", pin, err)
		}
	}
}

func readLines(r io.Reader) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		lines = append(lines, strings.TrimRight(scanner.Text(), "\r"))
	}
	return lines, scanner.Err()
}

func hasMarker(lines []string) bool {
	for _, line := range lines {
		if strings.Contains(strings.ToLower(line), filteredMarker) {
			return true
		}
	}
	return false
}

func countApplied(edits map[int]EditResult) int {
	n := 0
	for _, e := range edits {
		if e.Err == nil {
			n++
		}
	}
	return n
}
