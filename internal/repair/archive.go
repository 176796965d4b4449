package repair

// archive.go implements the lost/ quarantine directory (spec §4.5):
// files removed from consideration are renamed aside, never re-read.

import (
	"path/filepath"

	"github.com/localitydb/lgrepair/internal/logging"
	"github.com/localitydb/lgrepair/internal/vfs"
)

// archiveFile moves dir/name to dir/lost/name, creating lost/ if needed.
// Failures are logged, never fatal to the caller — per spec, rename
// errors must not abort the repair.
func archiveFile(env vfs.FS, dir, name string, logger logging.Logger) {
	lostDir := filepath.Join(dir, lostDirName)
	if err := env.MkdirAll(lostDir, 0o755); err != nil {
		logger.Warnf("[repair] mkdir %s: %v", lostDir, err)
		return
	}

	oldPath := filepath.Join(dir, name)
	newPath := filepath.Join(lostDir, name)
	if err := env.Rename(oldPath, newPath); err != nil {
		logger.Warnf("[repair] archive %s -> %s: %v", oldPath, newPath, err)
		return
	}
	logger.Infof("[repair] archived %s", oldPath)
}
