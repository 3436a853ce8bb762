package material

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LinuxCNC/linuxcnc-sub008/halsync"
)

const sampleFile = `# plasmac material file
# the material numbers must be in sequential order

[MATERIAL_NUMBER_1]
NAME               = 3mm Mild Steel
KERF_WIDTH         = 1.5
THC                = 1
PIERCE_HEIGHT      = 3.8
PIERCE_DELAY       = 0.1
PUDDLE_JUMP_HEIGHT = 0
PUDDLE_JUMP_DELAY  = 0
CUT_HEIGHT         = 1.5
CUT_SPEED          = 2800
CUT_AMPS           = 45
CUT_VOLTS          = 110
PAUSE_AT_END       = 0
GAS_PRESSURE       = 0
CUT_MODE           = 1

[MATERIAL_NUMBER_5]
NAME               = 6mm Aluminium
KERF_WIDTH         = 1.8
THC                = 0
PIERCE_HEIGHT      = 4
PIERCE_DELAY       = 0.4
PUDDLE_JUMP_HEIGHT = 0
PUDDLE_JUMP_DELAY  = 0
CUT_HEIGHT         = 1.5
CUT_SPEED          = 1900
CUT_AMPS           = 65
CUT_VOLTS          = 120
PAUSE_AT_END       = 0
GAS_PRESSURE       = 0
CUT_MODE           = 1

`

func writeSample(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "plasma_material.cfg")
	require.NoError(t, os.WriteFile(path, []byte(sampleFile), 0o644))
	return path
}

type recordingPort struct {
	sets    []halsync.Pin
	timeout bool
	setErr  error
}

func (p *recordingPort) Set(ctx context.Context, pin halsync.Pin, value string) error {
	p.sets = append(p.sets, pin)
	return p.setErr
}

func (p *recordingPort) WaitAck(ctx context.Context, pin halsync.Pin, timeout time.Duration) error {
	if p.timeout {
		return halsync.ErrTimedOut
	}
	return nil
}

func TestLoad(t *testing.T) {
	path := writeSample(t)
	prefs := filepath.Join(filepath.Dir(path), "plasma.prefs")
	require.NoError(t, os.WriteFile(prefs, []byte("[PLASMA_PARAMETERS]\nCut feed rate = 4000\nKerf width = 1.2\n"), 0o644))

	db, err := Load(path, WithPrefs(prefs))
	require.NoError(t, err)

	def, ok := db.Lookup(0)
	require.True(t, ok)
	assert.Equal(t, 4000.0, def.CutFeedRate)
	assert.Equal(t, 1.2, def.KerfWidth)

	rec, ok := db.Lookup(1)
	require.True(t, ok)
	assert.Equal(t, "3mm Mild Steel", rec.Name)
	assert.True(t, rec.THCEnable)
	assert.Equal(t, 2800.0, rec.CutFeedRate)
	assert.Equal(t, 1, rec.CutMode)

	_, ok = db.Lookup(2)
	assert.False(t, ok)

	numbers := []int{}
	for _, r := range db.Records() {
		numbers = append(numbers, r.Number)
	}
	assert.Equal(t, []int{0, 1, 5}, numbers)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.cfg"))
	assert.ErrorIs(t, err, ErrMaterialFile)

	path := filepath.Join(t.TempDir(), "bad.cfg")
	require.NoError(t, os.WriteFile(path, []byte("[MATERIAL_NUMBER_x]\nNAME = bad\n"), 0o644))
	_, err = Load(path)
	assert.ErrorIs(t, err, ErrMaterialFile)

	require.NoError(t, os.WriteFile(path, []byte("[MATERIAL_NUMBER_2]\nCUT_SPEED = fast\n"), 0o644))
	_, err = Load(path)
	assert.ErrorIs(t, err, ErrMaterialFile)
}

func TestLoadMissingPrefs(t *testing.T) {
	db, err := Load(writeSample(t), WithPrefs("/nonexistent/plasma.prefs"))
	require.NoError(t, err)
	def, _ := db.Lookup(0)
	assert.Zero(t, def.CutFeedRate)
}

func TestRewriteRoundTrip(t *testing.T) {
	path := writeSample(t)
	port := &recordingPort{}
	db, err := Load(path, WithSync(port, time.Second))
	require.NoError(t, err)

	rec := Record{
		Number:       3,
		Name:         "10mm Stainless",
		KerfWidth:    2.1,
		THCEnable:    true,
		PierceHeight: 5,
		PierceDelay:  1.25,
		CutHeight:    2,
		CutFeedRate:  850,
		CutAmps:      85,
		CutVolts:     140,
		GasPressure:  5.5,
		CutMode:      2,
	}
	require.NoError(t, db.Add(context.Background(), rec))
	assert.Equal(t, []halsync.Pin{halsync.PinMaterialReload}, port.sets)

	reloaded, err := Load(path)
	require.NoError(t, err)
	got, ok := reloaded.Lookup(3)
	require.True(t, ok)
	assert.Equal(t, rec, got)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.Less(t, strings.Index(text, "[MATERIAL_NUMBER_1]"), strings.Index(text, "[MATERIAL_NUMBER_3]"))
	assert.Less(t, strings.Index(text, "[MATERIAL_NUMBER_3]"), strings.Index(text, "[MATERIAL_NUMBER_5]"))
	assert.Contains(t, text, "PUDDLE_JUMP_HEIGHT = 0\n")
	assert.True(t, strings.HasPrefix(text, "# plasmac material file\n"))

	backup, err := os.ReadFile(path + ".bkp")
	require.NoError(t, err)
	assert.Equal(t, sampleFile, string(backup))
}

func TestRewriteReplace(t *testing.T) {
	path := writeSample(t)
	db, err := Load(path)
	require.NoError(t, err)

	rec, _ := db.Lookup(5)
	err = db.Add(context.Background(), rec)
	assert.ErrorIs(t, err, ErrNumberInUse)

	rec.CutFeedRate = 2100
	rec.Name = "6mm Aluminium (fast)"
	require.NoError(t, db.Edit(context.Background(), rec))

	got, _ := db.Lookup(5)
	assert.Equal(t, 2100.0, got.CutFeedRate)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(data), "[MATERIAL_NUMBER_5]"))
	assert.NotContains(t, string(data), "CUT_SPEED          = 1900")
}

func TestRewriteAppendsAndCreates(t *testing.T) {
	path := writeSample(t)
	db, err := Load(path)
	require.NoError(t, err)

	require.NoError(t, db.Add(context.Background(), Record{Number: 9, Name: "Last"}))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(string(data), "CUT_MODE           = 0\n\n"))
	assert.NotContains(t, string(data), "\n\n\n")

	fresh := filepath.Join(t.TempDir(), "new_material.cfg")
	db = NewDatabase(fresh)
	require.NoError(t, db.Add(context.Background(), Record{Number: 1, Name: "First"}))
	got, ok := db.Lookup(1)
	require.True(t, ok)
	assert.Equal(t, "First", got.Name)
}

func TestRewriteTimeout(t *testing.T) {
	path := writeSample(t)
	db, err := Load(path, WithSync(&recordingPort{timeout: true}, time.Millisecond))
	require.NoError(t, err)

	err = db.Add(context.Background(), Record{Number: 7, Name: "Slow"})
	assert.ErrorIs(t, err, halsync.ErrTimedOut)
	assert.ErrorIs(t, err, ErrSync)

	_, ok := db.Lookup(7)
	assert.True(t, ok, "record is stored even when the GUI does not answer")
}

func TestRewriteSyncFailure(t *testing.T) {
	path := writeSample(t)
	port := &recordingPort{setErr: errors.New("halcmd: pin not found")}
	tmp := filepath.Join(t.TempDir(), "temp_material")
	db, err := Load(path, WithTemporaryFile(tmp), WithSync(port, time.Millisecond))
	require.NoError(t, err)

	err = db.Add(context.Background(), Record{Number: 7, Name: "Unsignalled"})
	assert.ErrorIs(t, err, ErrSync)
	assert.NotErrorIs(t, err, ErrMaterialFile)
	_, ok := db.Lookup(7)
	assert.True(t, ok)

	err = db.AddTemporary(context.Background(), Record{Number: TemporaryBase, Name: "Temporary"})
	assert.ErrorIs(t, err, ErrSync)
	assert.NotErrorIs(t, err, ErrMaterialFile)
}

func TestRewriteKeepsFileMode(t *testing.T) {
	path := writeSample(t)
	require.NoError(t, os.Chmod(path, 0o640))
	db, err := Load(path)
	require.NoError(t, err)

	require.NoError(t, db.Add(context.Background(), Record{Number: 9, Name: "Mode"}))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o640), info.Mode().Perm())
}

func TestDryRun(t *testing.T) {
	path := writeSample(t)
	port := &recordingPort{}
	db, err := Load(path, WithDryRun(), WithSync(port, time.Second))
	require.NoError(t, err)

	require.NoError(t, db.Add(context.Background(), Record{Number: 2, Name: "Dry"}))
	_, ok := db.Lookup(2)
	assert.True(t, ok)
	assert.Empty(t, port.sets)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, sampleFile, string(data))
}

func TestAddTemporary(t *testing.T) {
	path := writeSample(t)
	tmp := filepath.Join(t.TempDir(), "qtplasmac", "temp_material")
	port := &recordingPort{}
	db, err := Load(path, WithTemporaryFile(tmp), WithSync(port, time.Second))
	require.NoError(t, err)

	n := db.NextTemporary()
	assert.Equal(t, TemporaryBase, n)
	require.NoError(t, db.AddTemporary(context.Background(), Record{Number: n, Name: "Temporary 1000000", CutFeedRate: 1500}))
	assert.Equal(t, TemporaryBase+1, db.NextTemporary())
	assert.Equal(t, []halsync.Pin{halsync.PinMaterialTemp}, port.sets)

	data, err := os.ReadFile(tmp)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "[MATERIAL_NUMBER_1000000]\n"))
	assert.Contains(t, string(data), "CUT_SPEED          = 1500\n")

	require.NoError(t, db.Load())
	_, ok := db.Lookup(n)
	assert.True(t, ok, "temporary materials survive a reload")
}

func TestParseDirective(t *testing.T) {
	tests := []struct {
		name    string
		comment string
		op      Op
		number  int
		feed    float64
		wantErr bool
	}{
		{"add", "(o=1, nu=5, na=3mm Mild, ph=3.8, pd=0.1, ch=1.5, fr=2800, kw=1.5, th=1, cm=1)", OpAdd, 5, 2800, false},
		{"edit", "(o=2,nu=7,na=Thin,ph=3,pd=0,ch=1,fr=4000)", OpEdit, 7, 4000, false},
		{"temporary without number", "(o=0, ph=3, pd=0.2, ch=1, fr=3000)", OpTemporary, 0, 3000, false},
		{"upper case keys", "(O=1, NU=2, NA=X, PH=1, PD=1, CH=1, FR=100)", OpAdd, 2, 100, false},
		{"missing fr", "(o=1, nu=5, na=x, ph=3.8, pd=0.1, ch=1.5)", 0, 0, 0, true},
		{"missing name", "(o=2, nu=5, ph=3.8, pd=0.1, ch=1.5, fr=1)", 0, 0, 0, true},
		{"bad option", "(o=3, ph=1, pd=1, ch=1, fr=1)", 0, 0, 0, true},
		{"bad number", "(o=1, nu=five, na=x, ph=1, pd=1, ch=1, fr=1)", 0, 0, 0, true},
		{"bad value", "(o=0, ph=high, pd=1, ch=1, fr=1)", 0, 0, 0, true},
		{"no equals", "(o=0, ph=1, pd=1, ch=1, fr=1, junk)", 0, 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.True(t, IsDirective(tt.comment))
			d, err := ParseDirective(tt.comment)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrMalformedDirective)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.op, d.Op)
			assert.Equal(t, tt.number, d.Record.Number)
			assert.Equal(t, tt.feed, d.Record.CutFeedRate)
		})
	}

	assert.False(t, IsDirective("(just a comment)"))
}

func TestDirectiveDefaults(t *testing.T) {
	d, err := ParseDirective("(o=1, nu=5, na=Name With Case, ph=3.8, pd=0.1, ch=1.5, fr=2800)")
	require.NoError(t, err)
	assert.Equal(t, "Name With Case", d.Record.Name)
	assert.Zero(t, d.Record.KerfWidth)
	assert.Zero(t, d.Record.CutAmps)
	assert.False(t, d.Record.THCEnable)
	assert.Zero(t, d.Record.CutMode)
}

func TestDirectiveToMachineUnits(t *testing.T) {
	d, err := ParseDirective("(o=0, ph=0.15, pd=0.1, ch=0.06, fr=100, kw=0.06, jh=50)")
	require.NoError(t, err)

	d.ToMachineUnits(0.03937)
	assert.InDelta(t, 3.81, d.Record.PierceHeight, 0.001)
	assert.InDelta(t, 2540, d.Record.CutFeedRate, 0.5)
	assert.InDelta(t, 1.524, d.Record.KerfWidth, 0.001)
	assert.Equal(t, 0.1, d.Record.PierceDelay)
	assert.Equal(t, 50.0, d.Record.PuddleJumpHeight)
}
