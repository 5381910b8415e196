package trace

import (
	"fmt"
	"os"
	"path/filepath"
)

// WriteFile writes the canonical form of t to path. The bytes land in a
// temp file in the same directory first, so readers never see a partial
// trace.
func WriteFile(path string, t ActionTrace) error {
	data, err := t.CanonicalJSON()
	if err != nil {
		return fmt.Errorf("encoding trace: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating trace dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp.*")
	if err != nil {
		return fmt.Errorf("creating temp trace: %w", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		_ = tmp.Close()
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("writing trace: %w", err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		return fmt.Errorf("writing trace: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("syncing trace: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing trace: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("committing trace: %w", err)
	}
	committed = true
	return nil
}
