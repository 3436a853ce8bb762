package filter

import (
	"strconv"

	"github.com/LinuxCNC/linuxcnc-sub008/diag"
)

type Units int

const (
	Millimetres Units = iota
	Inches
)

func (u Units) String() string {
	if u == Inches {
		return "inch"
	}
	return "mm"
}

// HoleMode is the value of the #<holes> directive.
type HoleMode int

const (
	HoleOff HoleMode = iota
	HoleVelocity
	HoleVelocityOvercut
	HoleVelocityArcs
	HoleVelocityArcsOvercut
)

// ParseHoleMode maps a #<holes> value to a mode. Unknown values, including
// the legacy 5, switch hole sensing off.
func ParseHoleMode(value string) (HoleMode, bool) {
	n, err := strconv.Atoi(value)
	if err != nil {
		f, ferr := strconv.ParseFloat(value, 64)
		if ferr != nil || f != float64(int(f)) {
			return HoleOff, false
		}
		n = int(f)
	}
	if n < int(HoleOff) || n > int(HoleVelocityArcsOvercut) {
		return HoleOff, true
	}
	return HoleMode(n), true
}

func (m HoleMode) Enabled() bool {
	return m != HoleOff
}

func (m HoleMode) Overcut() bool {
	return m == HoleVelocityOvercut || m == HoleVelocityArcsOvercut
}

// Arcs reports whether open arcs below the diameter threshold are slowed
// as well as holes.
func (m HoleMode) Arcs() bool {
	return m == HoleVelocityArcs || m == HoleVelocityArcsOvercut
}

// KerfPolicy decides whether the material kerf width is added to the arc
// diameter before it is compared with the hole threshold.
type KerfPolicy int

const (
	KerfApplied KerfPolicy = iota
	KerfIgnored
)

func ParseKerfPolicy(s string) KerfPolicy {
	if s == "ignored" {
		return KerfIgnored
	}
	return KerfApplied
}

type Phase int

const (
	ScanningMaterialEdits Phase = iota
	ValidatingAndCompiling
	PierceOnlyEmit
	FullEmit
	Done
)

var phaseNames = map[Phase]string{
	ScanningMaterialEdits:  "ScanningMaterialEdits",
	ValidatingAndCompiling: "ValidatingAndCompiling",
	PierceOnlyEmit:         "PierceOnlyEmit",
	FullEmit:               "FullEmit",
	Done:                   "Done",
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return "Unknown"
}

// State is everything the compiler knows about the program at the current
// line. It is owned by a single run.
type State struct {
	MachineUnits   Units
	Units          Units
	Precision      int
	UnitMultiplier float64

	MinDiameter    float64
	OvercutLength  float64
	BlendTolerance float64
	CustomDiameter bool
	CustomLength   bool
	HoleMode       HoleMode
	HoleVelocity   float64

	LastX, LastY     float64
	TorchEnabled     bool
	HoleActive       bool
	OffsetCompActive bool

	CurrentMaterial  int
	FirstMaterial    int
	FirstMaterialSet bool

	PierceOnly bool
	Scribing   bool
	Spotting   bool

	ZAxisSetupDone bool
	ZAxisBypass    bool

	Incremental            bool
	ArcAbsolute            bool
	IncrementalArcDeclared bool

	FirstMove    bool
	PathBlendSet bool
	ConvBlock    bool
	LastMotion   string

	// Offset of the machine from the programmed hole end after an
	// overburn, applied to the next incremental move.
	OverburnX, OverburnY float64
	OverburnPending      bool

	LineNumber int
	Diag       *diag.Sink
}

func newState(machine Units, material int) *State {
	st := &State{
		MachineUnits:    machine,
		HoleVelocity:    60,
		TorchEnabled:    true,
		CurrentMaterial: material,
		Diag:            diag.NewSink(),
	}
	st.setUnits(machine)
	return st
}

type unitDefaults struct {
	precision     int
	minDiameter   float64
	overcutLength float64
	blend         float64
}

var (
	metricDefaults   = unitDefaults{precision: 4, minDiameter: 32, overcutLength: 4, blend: 0.1}
	imperialDefaults = unitDefaults{precision: 6, minDiameter: 1.26, overcutLength: 0.157, blend: 0.004}
)

func (u Units) defaults() unitDefaults {
	if u == Inches {
		return imperialDefaults
	}
	return metricDefaults
}

// multiplier converts machine units to file units.
func multiplier(machine, file Units) float64 {
	switch {
	case machine == file:
		return 1
	case machine == Inches:
		return 25.4
	default:
		return 0.03937
	}
}

func (st *State) setUnits(u Units) {
	d := u.defaults()
	st.Units = u
	st.Precision = d.precision
	st.BlendTolerance = d.blend
	st.UnitMultiplier = multiplier(st.MachineUnits, u)
	if !st.CustomDiameter {
		st.MinDiameter = d.minDiameter
	}
	if !st.CustomLength {
		st.OvercutLength = d.overcutLength
	}
}

func (st *State) setMaterial(n int) {
	st.CurrentMaterial = n
	if !st.FirstMaterialSet {
		st.FirstMaterial = n
		st.FirstMaterialSet = true
	}
}
