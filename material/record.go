package material

import (
	"fmt"
	"strconv"
	"strings"
)

// TemporaryBase is the first number handed out to materials defined
// inline with (o=0, ...).
const TemporaryBase = 1000000

// Record is one cutting recipe.
type Record struct {
	Number           int
	Name             string
	KerfWidth        float64
	THCEnable        bool
	PierceHeight     float64
	PierceDelay      float64
	PuddleJumpHeight float64
	PuddleJumpDelay  float64
	CutHeight        float64
	CutFeedRate      float64
	CutAmps          float64
	CutVolts         float64
	PauseAtEnd       float64
	GasPressure      float64
	CutMode          int
}

func (r Record) IsTemporary() bool {
	return r.Number >= TemporaryBase
}

func sectionName(number int) string {
	return "MATERIAL_NUMBER_" + strconv.Itoa(number)
}

func parseSectionName(name string) (int, bool, error) {
	if !strings.HasPrefix(name, "MATERIAL_NUMBER_") {
		return 0, false, nil
	}
	n, err := strconv.Atoi(strings.TrimPrefix(name, "MATERIAL_NUMBER_"))
	if err != nil {
		return 0, true, fmt.Errorf("section %s: invalid material number", name)
	}
	return n, true, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatBool(v bool) string {
	if v {
		return "1"
	}
	return "0"
}

// fields lists the material file keys in the order they are written.
func (r Record) fields() [][2]string {
	return [][2]string{
		{"NAME", r.Name},
		{"KERF_WIDTH", formatFloat(r.KerfWidth)},
		{"THC", formatBool(r.THCEnable)},
		{"PIERCE_HEIGHT", formatFloat(r.PierceHeight)},
		{"PIERCE_DELAY", formatFloat(r.PierceDelay)},
		{"PUDDLE_JUMP_HEIGHT", formatFloat(r.PuddleJumpHeight)},
		{"PUDDLE_JUMP_DELAY", formatFloat(r.PuddleJumpDelay)},
		{"CUT_HEIGHT", formatFloat(r.CutHeight)},
		{"CUT_SPEED", formatFloat(r.CutFeedRate)},
		{"CUT_AMPS", formatFloat(r.CutAmps)},
		{"CUT_VOLTS", formatFloat(r.CutVolts)},
		{"PAUSE_AT_END", formatFloat(r.PauseAtEnd)},
		{"GAS_PRESSURE", formatFloat(r.GasPressure)},
		{"CUT_MODE", strconv.Itoa(r.CutMode)},
	}
}

// Block renders the record as a material file section followed by a blank
// line.
func (r Record) Block() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s]\n", sectionName(r.Number))
	for _, f := range r.fields() {
		fmt.Fprintf(&sb, "%-18s = %s\n", f[0], f[1])
	}
	sb.WriteString("\n")
	return sb.String()
}

// setField assigns a material file key; unknown keys are ignored.
func (r *Record) setField(key, value string) error {
	value = strings.TrimSpace(value)
	if key == "NAME" {
		r.Name = value
		return nil
	}

	var target *float64
	switch key {
	case "KERF_WIDTH":
		target = &r.KerfWidth
	case "PIERCE_HEIGHT":
		target = &r.PierceHeight
	case "PIERCE_DELAY":
		target = &r.PierceDelay
	case "PUDDLE_JUMP_HEIGHT":
		target = &r.PuddleJumpHeight
	case "PUDDLE_JUMP_DELAY":
		target = &r.PuddleJumpDelay
	case "CUT_HEIGHT":
		target = &r.CutHeight
	case "CUT_SPEED":
		target = &r.CutFeedRate
	case "CUT_AMPS":
		target = &r.CutAmps
	case "CUT_VOLTS":
		target = &r.CutVolts
	case "PAUSE_AT_END":
		target = &r.PauseAtEnd
	case "GAS_PRESSURE":
		target = &r.GasPressure
	case "THC", "CUT_MODE":
	default:
		return nil
	}

	if value == "" {
		return nil
	}
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("%s: invalid number %q", key, value)
	}
	switch key {
	case "THC":
		r.THCEnable = v != 0
	case "CUT_MODE":
		r.CutMode = int(v)
	default:
		*target = v
	}
	return nil
}
