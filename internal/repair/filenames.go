package repair

// filenames.go classifies and builds the on-disk names the repairer reads
// and writes. Naming conventions mirror the engine's own file layout (see
// the teacher's internal/version version_set.go manifestFilePath/
// setCurrentFile and db/db.go logFileName, db/flush.go sstFileName), with
// one deliberate difference: log file numbers are rendered in lowercase
// hex rather than decimal, per this engine's root-level WAL naming.

import (
	"fmt"
	"strconv"
	"strings"
)

// fileType classifies a directory entry by its name.
type fileType int

const (
	fileTypeUnknown fileType = iota
	fileTypeCurrent
	fileTypeLog
	fileTypeDescriptor
	fileTypeTable
	fileTypeTemp
)

const currentFileName = "CURRENT"
const lostDirName = "lost"

// parseFileName classifies name and extracts its embedded file number, if
// any. ok is false for names that don't match any known convention; the
// caller is expected to silently ignore those (spec §4.1: "unknown names
// are ignored, to tolerate concurrent or stale artifacts").
func parseFileName(name string) (t fileType, number uint64, ok bool) {
	switch {
	case name == currentFileName:
		return fileTypeCurrent, 0, true

	case strings.HasPrefix(name, "MANIFEST-"):
		n, err := strconv.ParseUint(name[len("MANIFEST-"):], 10, 64)
		if err != nil {
			return fileTypeUnknown, 0, false
		}
		return fileTypeDescriptor, n, true

	case strings.HasSuffix(name, ".log"):
		n, err := strconv.ParseUint(strings.TrimSuffix(name, ".log"), 16, 64)
		if err != nil {
			return fileTypeUnknown, 0, false
		}
		return fileTypeLog, n, true

	case strings.HasSuffix(name, ".sst"):
		n, err := strconv.ParseUint(strings.TrimSuffix(name, ".sst"), 10, 64)
		if err != nil {
			return fileTypeUnknown, 0, false
		}
		return fileTypeTable, n, true

	case strings.HasSuffix(name, ".dbtmp"):
		n, err := strconv.ParseUint(strings.TrimSuffix(name, ".dbtmp"), 10, 64)
		if err != nil {
			return fileTypeUnknown, 0, false
		}
		return fileTypeTemp, n, true

	default:
		return fileTypeUnknown, 0, false
	}
}

func logFileName(number uint64) string {
	return fmt.Sprintf("%016x.log", number)
}

func tableFileName(number uint64) string {
	return fmt.Sprintf("%06d.sst", number)
}

func descriptorFileName(number uint64) string {
	return fmt.Sprintf("MANIFEST-%06d", number)
}

// lgDirName returns the name of the subdirectory holding a locality
// group's own tables and descriptor.
func lgDirName(lgID uint32) string {
	return strconv.FormatUint(uint64(lgID), 10)
}
