package material

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrMalformedDirective = errors.New("malformed material directive")

// Op is the action requested by a material directive.
type Op int

const (
	OpTemporary Op = iota
	OpAdd
	OpEdit
)

func (o Op) String() string {
	switch o {
	case OpTemporary:
		return "temporary"
	case OpAdd:
		return "add"
	case OpEdit:
		return "edit"
	}
	return "op(" + strconv.Itoa(int(o)) + ")"
}

// Directive is an inline material definition such as
// (o=1, nu=5, na=3mm Mild Steel, ph=3.8, pd=0.1, ch=1.5, fr=2800).
type Directive struct {
	Op     Op
	Record Record
}

// IsDirective reports whether a comment is a material directive.
func IsDirective(comment string) bool {
	compact := strings.ToLower(strings.ReplaceAll(comment, " ", ""))
	return strings.HasPrefix(compact, "(o=")
}

// ParseDirective parses a material directive. Every op needs ph, pd, ch and
// fr; add and edit also need nu and na.
func ParseDirective(comment string) (Directive, error) {
	body := strings.TrimSpace(comment)
	body = strings.TrimPrefix(body, "(")
	body = strings.TrimSuffix(body, ")")

	values := make(map[string]string)
	for _, part := range strings.Split(body, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, value, ok := strings.Cut(part, "=")
		if !ok {
			return Directive{}, fmt.Errorf("%w: %q has no value", ErrMalformedDirective, part)
		}
		values[strings.ToLower(strings.TrimSpace(key))] = strings.TrimSpace(value)
	}

	var d Directive
	switch values["o"] {
	case "0":
		d.Op = OpTemporary
	case "1":
		d.Op = OpAdd
	case "2":
		d.Op = OpEdit
	default:
		return Directive{}, fmt.Errorf("%w: invalid option o=%s", ErrMalformedDirective, values["o"])
	}

	required := []string{"ph", "pd", "ch", "fr"}
	if d.Op != OpTemporary {
		required = append(required, "nu", "na")
	}
	for _, key := range required {
		if values[key] == "" {
			return Directive{}, fmt.Errorf("%w: missing %s", ErrMalformedDirective, key)
		}
	}

	rec := &d.Record
	if d.Op != OpTemporary {
		n, err := strconv.Atoi(values["nu"])
		if err != nil || n < 1 {
			return Directive{}, fmt.Errorf("%w: invalid material number %q", ErrMalformedDirective, values["nu"])
		}
		rec.Number = n
	}
	rec.Name = values["na"]

	numbers := []struct {
		key    string
		target *float64
	}{
		{"ph", &rec.PierceHeight},
		{"pd", &rec.PierceDelay},
		{"ch", &rec.CutHeight},
		{"fr", &rec.CutFeedRate},
		{"kw", &rec.KerfWidth},
		{"jh", &rec.PuddleJumpHeight},
		{"jd", &rec.PuddleJumpDelay},
		{"ca", &rec.CutAmps},
		{"cv", &rec.CutVolts},
		{"pe", &rec.PauseAtEnd},
		{"gp", &rec.GasPressure},
	}
	for _, n := range numbers {
		raw, ok := values[n.key]
		if !ok {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return Directive{}, fmt.Errorf("%w: %s=%s is not a number", ErrMalformedDirective, n.key, raw)
		}
		*n.target = v
	}

	if raw, ok := values["th"]; ok {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return Directive{}, fmt.Errorf("%w: th=%s is not a number", ErrMalformedDirective, raw)
		}
		rec.THCEnable = v != 0
	}
	if raw, ok := values["cm"]; ok {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return Directive{}, fmt.Errorf("%w: cm=%s is not an integer", ErrMalformedDirective, raw)
		}
		rec.CutMode = v
	}
	return d, nil
}

// ToMachineUnits converts the length and feed values of a directive
// written in file units. multiplier converts machine units to file units.
func (d *Directive) ToMachineUnits(multiplier float64) {
	if multiplier == 0 || multiplier == 1 {
		return
	}
	d.Record.PierceHeight /= multiplier
	d.Record.CutHeight /= multiplier
	d.Record.CutFeedRate /= multiplier
	d.Record.KerfWidth /= multiplier
}
