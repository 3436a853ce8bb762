package diag

import (
	"sort"
)

// Diagnostic is one problem found in a program. Line is the line of the
// emitted program the problem refers to; SourceLine is the line of the
// input file.
type Diagnostic struct {
	Kind       Kind   `json:"kind" yaml:"kind"`
	Line       int    `json:"line" yaml:"line"`
	SourceLine int    `json:"source_line" yaml:"source_line"`
	Detail     string `json:"detail,omitempty" yaml:"detail,omitempty"`
}

func (d Diagnostic) Severity() Severity {
	return d.Kind.Severity()
}

// Sink collects diagnostics for a single run.
type Sink struct {
	diags []Diagnostic
	shift int
}

func NewSink() *Sink {
	return &Sink{}
}

func (s *Sink) Add(d Diagnostic) {
	s.diags = append(s.diags, d)
}

// HasErrors reports whether any hard error was recorded.
func (s *Sink) HasErrors() bool {
	for _, d := range s.diags {
		if d.Kind.IsError() {
			return true
		}
	}
	return false
}

// Shift offsets every reported output line, used when a line is
// prepended to the emitted program after the fact.
func (s *Sink) Shift(n int) {
	s.shift += n
}

// All returns the diagnostics in the order they were recorded, with output
// lines shifted.
func (s *Sink) All() []Diagnostic {
	out := make([]Diagnostic, len(s.diags))
	for i, d := range s.diags {
		d.Line += s.shift
		out[i] = d
	}
	return out
}

func (s *Sink) Errors() []Diagnostic {
	return s.filter(true)
}

func (s *Sink) Warnings() []Diagnostic {
	return s.filter(false)
}

func (s *Sink) filter(errors bool) []Diagnostic {
	var out []Diagnostic
	for _, d := range s.All() {
		if d.Kind.IsError() == errors {
			out = append(out, d)
		}
	}
	return out
}

func (s *Sink) Len() int {
	return len(s.diags)
}

// ByKind returns the diagnostics grouped by kind, each group in line
// order.
func (s *Sink) ByKind() map[Kind][]Diagnostic {
	groups := make(map[Kind][]Diagnostic)
	for _, d := range s.All() {
		groups[d.Kind] = append(groups[d.Kind], d)
	}
	for _, g := range groups {
		sort.SliceStable(g, func(i, j int) bool { return g[i].Line < g[j].Line })
	}
	return groups
}

// Lines returns the distinct output lines that carry a diagnostic.
func (s *Sink) Lines() []int {
	return s.collect(func(d Diagnostic) int { return d.Line })
}

// SourceLines is Lines numbered by input line.
func (s *Sink) SourceLines() []int {
	return s.collect(func(d Diagnostic) int { return d.SourceLine })
}

func (s *Sink) collect(line func(Diagnostic) int) []int {
	seen := make(map[int]bool)
	var lines []int
	for _, d := range s.All() {
		n := line(d)
		if !seen[n] {
			seen[n] = true
			lines = append(lines, n)
		}
	}
	sort.Ints(lines)
	return lines
}
