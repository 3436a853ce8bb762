package diag

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestKindSeverity(t *testing.T) {
	tests := []struct {
		kind Kind
		want Severity
	}{
		{UnsupportedDistanceMode, SeverityError},
		{MaterialNotFound, SeverityError},
		{G92OffsetNotAllowed, SeverityError},
		{DeprecatedUnitsDirective, SeverityWarning},
		{FeedRateMismatch, SeverityWarning},
		{InvalidDirectiveValue, SeverityWarning},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.kind.Severity())
		})
	}
}

func TestKindText(t *testing.T) {
	for _, kind := range Kinds() {
		text, err := kind.MarshalText()
		require.NoError(t, err)

		var got Kind
		require.NoError(t, got.UnmarshalText(text))
		assert.Equal(t, kind, got)
		assert.NotEqual(t, kind.String(), kind.Message(), "kind %v has no message", kind)
	}
	assert.Equal(t, "feed_rate_mismatch", FeedRateMismatch.Label())
}

func TestSink(t *testing.T) {
	s := NewSink()
	assert.False(t, s.HasErrors())

	s.Add(Diagnostic{Kind: HoleDirectionSuspicious, Line: 7, SourceLine: 5})
	assert.False(t, s.HasErrors())

	s.Add(Diagnostic{Kind: MaterialNotFound, Line: 3, SourceLine: 3})
	s.Add(Diagnostic{Kind: MaterialNotFound, Line: 2, SourceLine: 2})
	assert.True(t, s.HasErrors())
	assert.Len(t, s.Errors(), 2)
	assert.Len(t, s.Warnings(), 1)

	groups := s.ByKind()
	require.Len(t, groups[MaterialNotFound], 2)
	assert.Equal(t, 2, groups[MaterialNotFound][0].Line)

	s.Shift(1)
	assert.Equal(t, []int{3, 4, 8}, s.Lines())
	assert.Equal(t, []int{2, 3, 5}, s.SourceLines())
	assert.Equal(t, 5, s.All()[0].SourceLine)
}

func newTestSink() *Sink {
	s := NewSink()
	s.Add(Diagnostic{Kind: MaterialNotFound, Line: 4, SourceLine: 4, Detail: "Material #99"})
	s.Add(Diagnostic{Kind: HoleDirectionSuspicious, Line: 9, SourceLine: 8})
	s.Add(Diagnostic{Kind: HoleDirectionSuspicious, Line: 12, SourceLine: 11})
	return s
}

func TestTextEncoder(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewTextEncoder(&buf).Encode(NewReport("plate.ngc", newTestSink())))

	want := "G-Code errors in plate.ngc:\n\n" +
		"Material not in material table\n" +
		"Line 4: Material #99\n\n" +
		"G-Code warnings in plate.ngc:\n\n" +
		"This cut appears to be a hole, did you mean to cut it clockwise?\n" +
		"Lines: 9, 12\n\n"
	assert.Equal(t, want, buf.String())
}

func TestStructuredEncoders(t *testing.T) {
	r := NewReport("plate.ngc", newTestSink())

	var jbuf bytes.Buffer
	require.NoError(t, NewJSONEncoder(&jbuf).Encode(r))
	var decoded struct {
		File     string `json:"file"`
		Aborted  bool   `json:"aborted"`
		Warnings []struct {
			Kind string `json:"kind"`
			Line int    `json:"line"`
		} `json:"warnings"`
	}
	require.NoError(t, json.Unmarshal(jbuf.Bytes(), &decoded))
	assert.True(t, decoded.Aborted)
	require.Len(t, decoded.Warnings, 2)
	assert.Equal(t, "hole_direction_suspicious", decoded.Warnings[0].Kind)

	var ybuf bytes.Buffer
	require.NoError(t, NewYAMLEncoder(&ybuf).Encode(r))
	var ydecoded struct {
		File   string       `yaml:"file"`
		Errors []Diagnostic `yaml:"errors"`
	}
	require.NoError(t, yaml.Unmarshal(ybuf.Bytes(), &ydecoded))
	assert.Equal(t, "plate.ngc", ydecoded.File)
	require.Len(t, ydecoded.Errors, 1)
	assert.Equal(t, MaterialNotFound, ydecoded.Errors[0].Kind)

	_, err := NewEncoder("xml", &ybuf)
	assert.Error(t, err)
}

func TestWriteLineFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gcode_errors.txt")
	require.NoError(t, WriteLineFile(path, newTestSink()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "4\n8\n11\n", string(data))
}
