package filter

import (
	"context"
	"errors"
	"strconv"

	"github.com/LinuxCNC/linuxcnc-sub008/diag"
	"github.com/LinuxCNC/linuxcnc-sub008/gcode"
	"github.com/LinuxCNC/linuxcnc-sub008/halsync"
	"github.com/LinuxCNC/linuxcnc-sub008/material"
)

// EditResult is the outcome of one material directive applied in pass 1.
type EditResult struct {
	Op       material.Op
	Number   int
	Kind     diag.Kind
	Err      error
	TimedOut bool
	// SyncErr is set when the GUI could not be signalled for a reason
	// other than a timeout. The edit itself was applied.
	SyncErr error
}

// scanMaterialEdits applies every material directive before the first
// m2/m30 to the database. Results are keyed by input line.
func (p *Pipeline) scanMaterialEdits(ctx context.Context, lines []gcode.Line) map[int]EditResult {
	results := make(map[int]EditResult)
	units := p.opts.MachineUnits

	for _, l := range lines {
		if l.Has('m', "2") || l.Has('m', "30") {
			break
		}
		switch {
		case l.Has('g', "20"):
			units = Inches
		case l.Has('g', "21"):
			units = Millimetres
		}
		if !l.IsComment || !material.IsDirective(l.Comment) {
			continue
		}

		res := p.applyDirective(ctx, l.Comment, multiplier(p.opts.MachineUnits, units))
		results[l.Number] = res
		if res.SyncErr != nil {
			log.Warningf("line %d: %s", l.Number, res.SyncErr)
		}
		if res.Err == nil {
			p.opts.Metrics.RecordMaterialEdit(res.Op.String())
		} else {
			log.Warningf("line %d: %s", l.Number, res.Err)
		}
	}
	return results
}

func (p *Pipeline) applyDirective(ctx context.Context, comment string, mult float64) EditResult {
	d, err := material.ParseDirective(comment)
	if err != nil {
		return EditResult{Kind: diag.MalformedMaterialDirective, Err: err}
	}
	d.ToMachineUnits(mult)
	rec := d.Record
	res := EditResult{Op: d.Op, Number: rec.Number}

	switch d.Op {
	case material.OpTemporary:
		rec.Number = p.db.NextTemporary()
		if rec.Name == "" {
			rec.Name = "Temporary " + strconv.Itoa(rec.Number)
		}
		res.Number = rec.Number
		err = p.db.AddTemporary(ctx, rec)
	case material.OpAdd:
		err = p.db.Add(ctx, rec)
	case material.OpEdit:
		err = p.db.Edit(ctx, rec)
	}

	switch {
	case err == nil:
	case errors.Is(err, halsync.ErrTimedOut):
		res.TimedOut = true
	case errors.Is(err, material.ErrSync):
		res.TimedOut = true
		res.SyncErr = err
	case errors.Is(err, material.ErrNumberInUse):
		res.Kind, res.Err = diag.MaterialNumberInUse, err
	default:
		res.Kind, res.Err = diag.MaterialFileError, err
	}
	return res
}
