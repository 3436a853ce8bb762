package halsync

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHalcmd struct {
	mu    sync.Mutex
	calls []string
	pins  map[string]string
	// ackAfter is the number of getp calls before a pin reads as cleared
	ackAfter int
	gets     int
}

func (f *fakeHalcmd) run(ctx context.Context, args ...string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, strings.Join(args, " "))
	switch args[0] {
	case "setp":
		f.pins[args[1]] = args[2]
	case "getp":
		f.gets++
		if f.ackAfter >= 0 && f.gets > f.ackAfter {
			f.pins[args[1]] = "0"
		}
		return f.pins[args[1]], nil
	}
	return "", nil
}

func newFakeHAL(t *testing.T, ackAfter int) (*HAL, *fakeHalcmd) {
	h, err := NewHAL("halcmd -s", QtPlasmaCPins, time.Millisecond)
	require.NoError(t, err)
	fake := &fakeHalcmd{pins: map[string]string{}, ackAfter: ackAfter}
	h.run = fake.run
	return h, fake
}

func TestNewHAL(t *testing.T) {
	h, err := NewHAL(`"/opt/linuxcnc/bin/halcmd" -k`, AxisPins, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"/opt/linuxcnc/bin/halcmd", "-k"}, h.command)
	assert.Equal(t, 100*time.Millisecond, h.interval)

	_, err = NewHAL("", AxisPins, 0)
	assert.Error(t, err)
	_, err = NewHAL(`"unterminated`, AxisPins, 0)
	assert.Error(t, err)
}

func TestHALRequestReload(t *testing.T) {
	h, fake := newFakeHAL(t, 2)

	require.NoError(t, RequestReload(context.Background(), h, time.Second))
	assert.Equal(t, "setp qtplasmac.material_reload 1", fake.calls[0])
	assert.Equal(t, "getp qtplasmac.material_reload", fake.calls[1])
	assert.Equal(t, 3, fake.gets)
}

func TestHALWaitAckTimeout(t *testing.T) {
	h, _ := newFakeHAL(t, -1)

	err := RequestTemporary(context.Background(), h, 1000000, 20*time.Millisecond)
	assert.ErrorIs(t, err, ErrTimedOut)
}

func TestHALUnknownPin(t *testing.T) {
	h, err := NewHAL("halcmd", AxisPins, 0)
	require.NoError(t, err)
	assert.Error(t, h.Set(context.Background(), PinPierceXMin, "1"))
}

func TestPublishMaterial(t *testing.T) {
	h, fake := newFakeHAL(t, 0)
	require.NoError(t, PublishMaterial(context.Background(), h, 3))
	assert.Equal(t, "3", fake.pins["qtplasmac.material_change_number"])
}

func TestIsCleared(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"0", true},
		{"0.0", true},
		{"FALSE", true},
		{"", true},
		{"1", false},
		{"TRUE", false},
		{"junk", false},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			assert.Equal(t, tt.want, isCleared(tt.value))
		})
	}
}

func TestFlagDirAcknowledged(t *testing.T) {
	dir := t.TempDir()
	f := NewFlagDir(dir)
	ctx := context.Background()

	require.NoError(t, f.Set(ctx, PinMaterialReload, "1"))
	path := filepath.Join(dir, "material-reload")

	go func() {
		time.Sleep(20 * time.Millisecond)
		os.Remove(path)
	}()

	require.NoError(t, f.WaitAck(ctx, PinMaterialReload, 2*time.Second))
}

func TestFlagDirWrittenZero(t *testing.T) {
	dir := t.TempDir()
	f := NewFlagDir(dir)
	ctx := context.Background()

	require.NoError(t, f.Set(ctx, PinMaterialTemp, "1"))
	go func() {
		time.Sleep(20 * time.Millisecond)
		os.WriteFile(filepath.Join(dir, "material-temp"), []byte("0\n"), 0o644)
	}()

	require.NoError(t, f.WaitAck(ctx, PinMaterialTemp, 2*time.Second))
}

func TestFlagDirTimeout(t *testing.T) {
	dir := t.TempDir()
	f := NewFlagDir(dir)
	ctx := context.Background()

	require.NoError(t, f.Set(ctx, PinMaterialReload, "1"))
	err := f.WaitAck(ctx, PinMaterialReload, 30*time.Millisecond)
	assert.ErrorIs(t, err, ErrTimedOut)
}

func TestNop(t *testing.T) {
	require.NoError(t, RequestReload(context.Background(), Nop{}, 0))
}
