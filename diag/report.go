package diag

import (
	"encoding"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Report is the end of run summary handed to the operator.
type Report struct {
	File     string       `json:"file" yaml:"file"`
	Aborted  bool         `json:"aborted" yaml:"aborted"`
	Errors   []Diagnostic `json:"errors,omitempty" yaml:"errors,omitempty"`
	Warnings []Diagnostic `json:"warnings,omitempty" yaml:"warnings,omitempty"`

	groups map[Kind][]Diagnostic
}

func NewReport(file string, s *Sink) *Report {
	return &Report{
		File:     file,
		Aborted:  s.HasErrors(),
		Errors:   s.Errors(),
		Warnings: s.Warnings(),
		groups:   s.ByKind(),
	}
}

func (r *Report) Empty() bool {
	return len(r.Errors) == 0 && len(r.Warnings) == 0
}

type Encoder interface {
	encoding.TextMarshaler
	Encode(r *Report) error
}

// NewEncoder returns the encoder for format, one of text, json or yaml.
func NewEncoder(format string, w io.Writer) (Encoder, error) {
	switch format {
	case "", "text":
		return NewTextEncoder(w), nil
	case "json":
		return NewJSONEncoder(w), nil
	case "yaml", "yml":
		return NewYAMLEncoder(w), nil
	}
	return nil, fmt.Errorf("unknown report format %q", format)
}

type TextEncoder struct {
	w      io.Writer
	report *Report
}

func NewTextEncoder(w io.Writer) *TextEncoder {
	return &TextEncoder{w: w}
}

func (e *TextEncoder) Encode(r *Report) error {
	e.report = r
	return write(e.w, e)
}

func (e *TextEncoder) MarshalText() ([]byte, error) {
	var sb strings.Builder
	r := e.report
	if len(r.Errors) > 0 {
		fmt.Fprintf(&sb, "G-Code errors in %s:\n\n", r.File)
		e.writeGroups(&sb, true)
	}
	if len(r.Warnings) > 0 {
		fmt.Fprintf(&sb, "G-Code warnings in %s:\n\n", r.File)
		e.writeGroups(&sb, false)
	}
	return []byte(sb.String()), nil
}

func (e *TextEncoder) writeGroups(sb *strings.Builder, errors bool) {
	for _, kind := range Kinds() {
		group := e.report.groups[kind]
		if len(group) == 0 || kind.IsError() != errors {
			continue
		}
		sb.WriteString(kind.Message())
		sb.WriteString("\n")
		if hasDetail(group) {
			for _, d := range group {
				fmt.Fprintf(sb, "Line %d: %s\n", d.Line, d.Detail)
			}
		} else if len(group) == 1 {
			fmt.Fprintf(sb, "Line: %d\n", group[0].Line)
		} else {
			lines := make([]string, len(group))
			for i, d := range group {
				lines[i] = strconv.Itoa(d.Line)
			}
			fmt.Fprintf(sb, "Lines: %s\n", strings.Join(lines, ", "))
		}
		sb.WriteString("\n")
	}
}

func hasDetail(group []Diagnostic) bool {
	for _, d := range group {
		if d.Detail != "" {
			return true
		}
	}
	return false
}

type JSONEncoder struct {
	w      io.Writer
	report *Report
}

func NewJSONEncoder(w io.Writer) *JSONEncoder {
	return &JSONEncoder{w: w}
}

func (e *JSONEncoder) Encode(r *Report) error {
	e.report = r
	return write(e.w, e)
}

func (e *JSONEncoder) MarshalText() ([]byte, error) {
	data, err := json.MarshalIndent(e.report, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

type YAMLEncoder struct {
	w      io.Writer
	report *Report
}

func NewYAMLEncoder(w io.Writer) *YAMLEncoder {
	return &YAMLEncoder{w: w}
}

func (e *YAMLEncoder) Encode(r *Report) error {
	e.report = r
	return write(e.w, e)
}

func (e *YAMLEncoder) MarshalText() ([]byte, error) {
	return yaml.Marshal(e.report)
}

func write(w io.Writer, m encoding.TextMarshaler) error {
	text, err := m.MarshalText()
	if err != nil {
		return err
	}
	_, err = w.Write(text)
	return err
}
