package diag

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// WriteLineFile writes the input line of every diagnostic, one per line,
// so the operator's editor can highlight them in the original program. An empty file is written
// when there is nothing to report.
func WriteLineFile(path string, s *Sink) error {
	var sb strings.Builder
	for _, line := range s.SourceLines() {
		sb.WriteString(strconv.Itoa(line))
		sb.WriteString("\n")
	}
	if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
		return fmt.Errorf("write error lines: %w", err)
	}
	return nil
}
