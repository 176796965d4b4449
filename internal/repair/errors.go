package repair

import "errors"

// Sentinel errors returned by Run. Callers compare with errors.Is.
var (
	// ErrNotFound is returned when the database directory is empty or
	// does not exist.
	ErrNotFound = errors.New("lgrepair: not found")

	// ErrCorruption marks an error that made some file unusable but did
	// not by itself abort the repair.
	ErrCorruption = errors.New("lgrepair: corruption")

	// ErrInvalidArgument is returned for malformed options or arguments.
	ErrInvalidArgument = errors.New("lgrepair: invalid argument")
)
