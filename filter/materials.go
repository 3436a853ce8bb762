package filter

import (
	"math"
	"strconv"

	"github.com/LinuxCNC/linuxcnc-sub008/diag"
	"github.com/LinuxCNC/linuxcnc-sub008/gcode"
	"github.com/LinuxCNC/linuxcnc-sub008/material"
)

// materialChange validates an m190 against the material database.
func (c *compiler) materialChange(l gcode.Line) {
	p, ok := l.Word('p')
	if !ok {
		c.report(diag.MaterialNotSpecified, "")
		return
	}
	v, ok := p.Number()
	if !ok || v != math.Trunc(v) || v < -1 {
		c.report(diag.InvalidMaterialNumber, "P"+p.Value)
		return
	}

	n := int(v)
	if n == -1 {
		return
	}
	if _, found := c.db.Lookup(n); !found && n < material.TemporaryBase {
		c.report(diag.MaterialNotFound, "Material #"+strconv.Itoa(n))
		return
	}
	c.st.setMaterial(n)
}

// materialDirective emits a material directive line along with the result
// of applying it in pass 1.
func (c *compiler) materialDirective(l gcode.Line) {
	res, ok := c.edits[l.Number]
	if !ok {
		c.emit(l.Comment)
		return
	}
	if res.Err != nil {
		c.emit(l.Comment)
		c.report(res.Kind, res.Err.Error())
		return
	}
	switch {
	case res.SyncErr != nil:
		c.report(diag.MaterialReloadTimeout, res.SyncErr.Error())
	case res.TimedOut:
		c.report(diag.MaterialReloadTimeout, "")
	}

	if res.Op != material.OpTemporary {
		c.emit(l.Comment)
		return
	}
	c.inject(temporaryMaterialNote + strconv.Itoa(res.Number))
	c.emit(l.Comment)
	c.inject("m190 p" + strconv.Itoa(res.Number))
	c.inject("m66 p3 l3 q1")
	c.st.setMaterial(res.Number)
}
