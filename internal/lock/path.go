package lock

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
)

// lockFilePath returns the lock file for a project. It lives in
// $XDG_RUNTIME_DIR when set and in the temp directory otherwise.
func lockFilePath(projectPath string) string {
	dir := os.Getenv("XDG_RUNTIME_DIR")
	if dir == "" {
		dir = os.TempDir()
	}
	projectHash := fmt.Sprintf("%x", sha256.Sum256([]byte(projectPath)))[:16]
	return filepath.Join(dir, fmt.Sprintf("gitstamp-%s.lock", projectHash))
}
