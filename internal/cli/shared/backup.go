package shared

import (
	"fmt"
	"os"
	"time"
)

// BackupFile copies the file at path to "<path>.<timestamp>.bak" and
// returns the backup path. A missing file is not backed up and yields "".
func BackupFile(path string, now time.Time) (string, error) {
	content, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	backupPath := fmt.Sprintf("%s.%s.bak", path, now.Format("20060102150405"))
	if err := os.WriteFile(backupPath, content, info.Mode().Perm()); err != nil {
		return "", err
	}
	return backupPath, nil
}
