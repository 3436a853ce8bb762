package material

import (
	"fmt"
	"os"
	"path/filepath"
)

// writeTemporary writes the single temporary material the GUI picks up
// when signalled. The file uses the material file layout.
func writeTemporary(path string, rec Record) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(rec.Block()), 0o644); err != nil {
		return fmt.Errorf("write temporary material: %w", err)
	}
	return nil
}
