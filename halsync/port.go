// Package halsync signals the machine GUI that material data changed and
// waits for it to acknowledge.
package halsync

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"
)

var ErrTimedOut = errors.New("timed out waiting for acknowledgement")

// Pin names a value shared with the GUI.
type Pin int

const (
	PinMaterialReload Pin = iota
	PinMaterialTemp
	PinMaterialChange
	PinCutType
	PinPierceXMin
	PinPierceXMax
	PinPierceYMin
	PinPierceYMax
)

func (p Pin) String() string {
	switch p {
	case PinMaterialReload:
		return "material-reload"
	case PinMaterialTemp:
		return "material-temp"
	case PinMaterialChange:
		return "material-change-number"
	case PinCutType:
		return "cut-type"
	case PinPierceXMin:
		return "pierce-x-min"
	case PinPierceXMax:
		return "pierce-x-max"
	case PinPierceYMin:
		return "pierce-y-min"
	case PinPierceYMax:
		return "pierce-y-max"
	}
	return "pin(" + strconv.Itoa(int(p)) + ")"
}

// Port is the synchronization channel to the GUI. Set publishes a value;
// WaitAck blocks until the GUI clears pin or timeout elapses, in which case
// it returns ErrTimedOut.
type Port interface {
	Set(ctx context.Context, pin Pin, value string) error
	WaitAck(ctx context.Context, pin Pin, timeout time.Duration) error
}

// RequestReload asks the GUI to reload the material file.
func RequestReload(ctx context.Context, p Port, timeout time.Duration) error {
	if err := p.Set(ctx, PinMaterialReload, "1"); err != nil {
		return fmt.Errorf("request material reload: %w", err)
	}
	return p.WaitAck(ctx, PinMaterialReload, timeout)
}

// RequestTemporary asks the GUI to load temporary material number from
// the temporary material file.
func RequestTemporary(ctx context.Context, p Port, number int, timeout time.Duration) error {
	if err := p.Set(ctx, PinMaterialTemp, strconv.Itoa(number)); err != nil {
		return fmt.Errorf("request temporary material: %w", err)
	}
	return p.WaitAck(ctx, PinMaterialTemp, timeout)
}

// PublishMaterial tells the GUI which material the program starts with.
func PublishMaterial(ctx context.Context, p Port, number int) error {
	if err := p.Set(ctx, PinMaterialChange, strconv.Itoa(number)); err != nil {
		return fmt.Errorf("publish material %d: %w", number, err)
	}
	return nil
}

type Nop struct{}

func (Nop) Set(ctx context.Context, pin Pin, value string) error { return nil }

func (Nop) WaitAck(ctx context.Context, pin Pin, timeout time.Duration) error { return nil }

// poll calls check every interval until it reports done, the timeout
// elapses, or ctx is cancelled.
func poll(ctx context.Context, interval, timeout time.Duration, check func() (bool, error)) error {
	if done, err := check(); err != nil || done {
		return err
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			return ErrTimedOut
		case <-ticker.C:
			if done, err := check(); err != nil || done {
				return err
			}
		}
	}
}
