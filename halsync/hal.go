package halsync

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/mattn/go-shellwords"
	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("plasmac.halsync")

// QtPlasmaCPins are the pin names exported by the qtplasmac GUI.
var QtPlasmaCPins = map[Pin]string{
	PinMaterialReload: "qtplasmac.material_reload",
	PinMaterialTemp:   "qtplasmac.material_temp",
	PinMaterialChange: "qtplasmac.material_change_number",
	PinCutType:        "qtplasmac.cut_type",
	PinPierceXMin:     "qtplasmac.x_min_pierce_extent",
	PinPierceXMax:     "qtplasmac.x_max_pierce_extent",
	PinPierceYMin:     "qtplasmac.y_min_pierce_extent",
	PinPierceYMax:     "qtplasmac.y_max_pierce_extent",
}

// AxisPins are the pin names exported by the plasmac AXIS GUI.
var AxisPins = map[Pin]string{
	PinMaterialReload: "axisui.material-reload",
	PinMaterialTemp:   "axisui.material-temp",
	PinMaterialChange: "axisui.material-change-number",
	PinCutType:        "axisui.cut-type",
}

// HAL talks to the GUI through halcmd getp/setp.
type HAL struct {
	command  []string
	pins     map[Pin]string
	interval time.Duration
	run      func(ctx context.Context, args ...string) (string, error)
}

// NewHAL parses command (for example "halcmd" or "/usr/bin/halcmd -k")
// into an argument vector.
func NewHAL(command string, pins map[Pin]string, interval time.Duration) (*HAL, error) {
	args, err := shellwords.Parse(command)
	if err != nil {
		return nil, fmt.Errorf("parse hal command %q: %w", command, err)
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("empty hal command")
	}
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	h := &HAL{command: args, pins: pins, interval: interval}
	h.run = h.exec
	return h, nil
}

func (h *HAL) exec(ctx context.Context, args ...string) (string, error) {
	argv := append(append([]string{}, h.command[1:]...), args...)
	cmd := exec.CommandContext(ctx, h.command[0], argv...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%s %s: %w: %s", h.command[0], strings.Join(argv, " "), err, strings.TrimSpace(stderr.String()))
	}
	return strings.TrimSpace(stdout.String()), nil
}

func (h *HAL) name(pin Pin) (string, error) {
	name, ok := h.pins[pin]
	if !ok {
		return "", fmt.Errorf("no hal pin for %s", pin)
	}
	return name, nil
}

func (h *HAL) Set(ctx context.Context, pin Pin, value string) error {
	name, err := h.name(pin)
	if err != nil {
		return err
	}
	log.Debugf("setp %s %s", name, value)
	_, err = h.run(ctx, "setp", name, value)
	return err
}

func (h *HAL) Get(ctx context.Context, pin Pin) (string, error) {
	name, err := h.name(pin)
	if err != nil {
		return "", err
	}
	return h.run(ctx, "getp", name)
}

// WaitAck polls pin until the GUI resets it to zero.
func (h *HAL) WaitAck(ctx context.Context, pin Pin, timeout time.Duration) error {
	return poll(ctx, h.interval, timeout, func() (bool, error) {
		value, err := h.Get(ctx, pin)
		if err != nil {
			return false, err
		}
		return isCleared(value), nil
	})
}

func isCleared(value string) bool {
	value = strings.TrimSpace(value)
	switch strings.ToLower(value) {
	case "", "false":
		return true
	case "true":
		return false
	}
	v, err := strconv.ParseFloat(value, 64)
	return err == nil && v == 0
}
