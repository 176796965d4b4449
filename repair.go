package lgrepair

// repair.go exposes the package's single entry point.

import "github.com/localitydb/lgrepair/internal/repair"

// Repair attempts to recover a database rooted at dbname whose MANIFEST
// and/or CURRENT file is missing, truncated, or otherwise unusable. It
// rebuilds a fresh descriptor for every locality group in opts.ExistLgList
// from whatever tables can still be opened and whatever WAL records can
// still be read, archiving anything it chooses not to trust rather than
// deleting it.
//
// Repair makes a best effort per locality group: a failure repairing one
// locality group does not stop the others from being attempted, and the
// first such failure is what Repair returns.
func Repair(dbname string, opts *Options) error {
	return repair.Run(dbname, opts)
}
