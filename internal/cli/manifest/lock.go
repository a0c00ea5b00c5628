package manifest

import (
	"os"
	"path/filepath"

	pkgmanifest "github.com/pirakansa/depot/pkg/manifest"
	"gopkg.in/yaml.v3"
)

const LockFileName = pkgmanifest.LockFileName

// LockFile records the packages resolved into a resolved root.
type LockFile struct {
	Version  string               `yaml:"version"`
	Packages map[string]LockEntry `yaml:"packages"`
}

// LockEntry stores package-level resolution metadata.
type LockEntry struct {
	Version       string   `yaml:"version,omitempty"`
	Source        string   `yaml:"source,omitempty"`
	ArchiveDigest string   `yaml:"archive_digest,omitempty"`
	CheckFiles    []string `yaml:"check_files,omitempty"`
	PURL          string   `yaml:"purl,omitempty"`
	RunID         string   `yaml:"run_id,omitempty"`
	ResolvedAt    string   `yaml:"resolved_at"`
}

func LoadLock(path string) (*LockFile, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &LockFile{Version: "v1", Packages: map[string]LockEntry{}}, nil
		}
		return nil, err
	}
	var lock LockFile
	if err := yaml.Unmarshal(b, &lock); err != nil {
		return nil, err
	}
	if lock.Version == "" {
		lock.Version = "v1"
	}
	if lock.Packages == nil {
		lock.Packages = map[string]LockEntry{}
	}
	return &lock, nil
}

func SaveLock(path string, lock *LockFile) error {
	if lock.Version == "" {
		lock.Version = "v1"
	}
	if lock.Packages == nil {
		lock.Packages = map[string]LockEntry{}
	}
	b, err := yaml.Marshal(lock)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}
