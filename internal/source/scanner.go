package source

import (
	"os"
	"path/filepath"
	"strings"
)

// ScanDir walks the flightrec data directory and discovers all JSONL event
// logs under its sessions/ subdirectory.
func ScanDir(dataDir string) ([]DiscoveredFile, error) {
	sessionsDir := filepath.Join(dataDir, "sessions")

	info, err := os.Stat(sessionsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	if !info.IsDir() {
		return nil, nil
	}

	var files []DiscoveredFile

	err = filepath.WalkDir(sessionsDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil //nolint:nilerr // intentionally skip unreadable entries
		}
		if d.IsDir() {
			return nil
		}
		if filepath.Ext(path) != ".jsonl" {
			return nil
		}

		files = append(files, DiscoveredFile{
			Path:      path,
			SessionID: strings.TrimSuffix(d.Name(), ".jsonl"),
		})
		return nil
	})

	return files, err
}
