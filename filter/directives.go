package filter

import (
	"strconv"

	"github.com/LinuxCNC/linuxcnc-sub008/diag"
	"github.com/LinuxCNC/linuxcnc-sub008/gcode"
)

// directive applies a filter directive assignment. It reports false for
// ordinary parameter assignments.
func (c *compiler) directive(a gcode.Assignment) bool {
	st := c.st
	switch a.Name {
	case "holes":
		mode, ok := ParseHoleMode(a.Value)
		if !ok {
			c.report(diag.InvalidDirectiveValue, "#<holes>="+a.Value)
			return true
		}
		st.HoleMode = mode
	case "h_diameter", "m_diameter", "i_diameter":
		v, err := strconv.ParseFloat(a.Value, 64)
		if err != nil || v < 0 {
			c.report(diag.InvalidDiameterWord, "#<"+a.Name+">="+a.Value)
			return true
		}
		st.MinDiameter = v
		st.CustomDiameter = true
		if a.Name != "h_diameter" {
			c.report(diag.DeprecatedUnitsDirective, "#<"+a.Name+">")
		}
	case "h_velocity":
		v, err := strconv.ParseFloat(a.Value, 64)
		if err != nil || v < 0 || v > 100 {
			c.report(diag.InvalidDirectiveValue, "#<h_velocity>="+a.Value)
			return true
		}
		st.HoleVelocity = v
	case "oclength":
		v, err := strconv.ParseFloat(a.Value, 64)
		if err != nil || v < 0 {
			c.report(diag.InvalidDirectiveValue, "#<oclength>="+a.Value)
			return true
		}
		st.OvercutLength = v
		st.CustomLength = true
	case "pierce-only":
		on, ok := parseSwitch(a.Value)
		if !ok {
			c.report(diag.InvalidDirectiveValue, "#<pierce-only>="+a.Value)
			return true
		}
		if !on {
			// pierce only mode is sticky once entered
			return true
		}
		if st.Scribing {
			c.report(diag.PierceInvalidWhileScribing, "")
			return true
		}
		st.PierceOnly = true
	case "keep-z-motion":
		on, ok := parseSwitch(a.Value)
		if !ok {
			c.report(diag.InvalidDirectiveValue, "#<keep-z-motion>="+a.Value)
			return true
		}
		st.ZAxisBypass = on
	default:
		return false
	}
	return true
}

func parseSwitch(value string) (bool, bool) {
	switch value {
	case "1", "1.0":
		return true, true
	case "0", "0.0":
		return false, true
	}
	return false, false
}
