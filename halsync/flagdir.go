package halsync

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// FlagDir exchanges values through one small file per pin in a directory,
// for GUIs that are not running inside HAL. A request is acknowledged
// when the GUI removes the file or writes 0 to it.
type FlagDir struct {
	Dir string
}

func NewFlagDir(dir string) *FlagDir {
	return &FlagDir{Dir: dir}
}

func (f *FlagDir) path(pin Pin) string {
	return filepath.Join(f.Dir, pin.String())
}

func (f *FlagDir) Set(ctx context.Context, pin Pin, value string) error {
	if err := os.MkdirAll(f.Dir, 0o755); err != nil {
		return fmt.Errorf("create flag directory: %w", err)
	}
	if err := os.WriteFile(f.path(pin), []byte(value+"\n"), 0o644); err != nil {
		return fmt.Errorf("write flag %s: %w", pin, err)
	}
	return nil
}

func (f *FlagDir) cleared(pin Pin) (bool, error) {
	data, err := os.ReadFile(f.path(pin))
	if errors.Is(err, os.ErrNotExist) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("read flag %s: %w", pin, err)
	}
	v := strings.TrimSpace(string(data))
	return v == "" || isCleared(v), nil
}

func (f *FlagDir) WaitAck(ctx context.Context, pin Pin, timeout time.Duration) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch flag directory: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(f.Dir); err != nil {
		return fmt.Errorf("watch %s: %w", f.Dir, err)
	}

	// the GUI may have answered before the watch was in place
	if done, err := f.cleared(pin); err != nil || done {
		return err
	}

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	target := f.path(pin)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			return ErrTimedOut
		case err, ok := <-watcher.Errors:
			if !ok {
				return ErrTimedOut
			}
			log.Warningf("flag watcher: %s", err)
		case event, ok := <-watcher.Events:
			if !ok {
				return ErrTimedOut
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if done, err := f.cleared(pin); err != nil || done {
				return err
			}
		}
	}
}
