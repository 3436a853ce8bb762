package material

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// rewriteFile writes rec into the material file at path. Sections stay in
// number order: an existing section is replaced in place and a new one is
// inserted before the first higher numbered section.
func rewriteFile(path string, rec Record) error {
	mode := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}

	source := path + ".bkp"
	if err := copyFile(path, source); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("backup %s: %w", path, err)
		}
		source = ""
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".material-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := bufio.NewWriter(tmp)
	if err := streamRewrite(source, w, rec); err != nil {
		tmp.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", tmp.Name(), err)
	}
	if err := tmp.Chmod(mode); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod %s: %w", tmp.Name(), err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}

// streamRewrite copies source to w with rec merged in. An empty source
// means there is no material file yet.
func streamRewrite(source string, w *bufio.Writer, rec Record) error {
	if source == "" {
		_, err := w.WriteString(rec.Block())
		return err
	}
	f, err := os.Open(source)
	if err != nil {
		return fmt.Errorf("open %s: %w", source, err)
	}
	defer f.Close()

	written := false
	skipping := false
	lastBlank := true
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)

		if strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]") {
			skipping = false
			number, ok, _ := parseSectionName(strings.Trim(trimmed, "[]"))
			if ok && !written && number >= rec.Number {
				if _, err := w.WriteString(rec.Block()); err != nil {
					return err
				}
				written = true
				if number == rec.Number {
					skipping = true
					continue
				}
			}
		}
		if skipping {
			continue
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
		lastBlank = trimmed == ""
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read %s: %w", source, err)
	}

	if !written {
		block := rec.Block()
		if !lastBlank {
			block = "\n" + block
		}
		if _, err := w.WriteString(block); err != nil {
			return err
		}
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
