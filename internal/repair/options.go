package repair

// options.go defines the configuration surface for a repair run.
//
// Reference: RocksDB v10.7.5 include/rocksdb/options.h (the subset
// Repairer reads) and db/repair.cc.

import (
	"github.com/localitydb/lgrepair/internal/checksum"
	"github.com/localitydb/lgrepair/internal/comparator"
	"github.com/localitydb/lgrepair/internal/compression"
	"github.com/localitydb/lgrepair/internal/logging"
	"github.com/localitydb/lgrepair/internal/table"
	"github.com/localitydb/lgrepair/internal/vfs"
)

// Options configures a repair run. See spec §6's "Recognized options" table.
type Options struct {
	// Env is the filesystem abstraction used for all directory enumeration
	// and file open/rename/remove/size operations. If nil, vfs.Default()
	// (the real OS filesystem) is used.
	Env vfs.FS

	// Comparator defines the user-key ordering recorded into every
	// synthesized descriptor. If nil, comparator.Default() is used.
	Comparator comparator.Comparator

	// FilterBitsPerKey controls the Bloom filter built into every table the
	// repairer writes. 0 disables filters.
	FilterBitsPerKey int

	// InfoLog receives progress and corruption messages. If nil, messages
	// are discarded.
	InfoLog logging.Logger

	// TableCache is an optional, caller-owned table cache, shared across
	// every locality group. It is only safe to share across locality
	// groups that are known not to reuse file numbers; with more than one
	// locality group this module allocates its own cache per group instead
	// and leaves TableCache untouched (see the comment in Run). There
	// is no separate block-cache handle: block caching is owned by the
	// table cache's readers, so TableCache also stands in for that option.
	TableCache *table.TableCache

	// Compression is the compression codec applied to tables the repairer
	// builds from recovered memtables.
	Compression compression.Type

	// ChecksumType is the block checksum algorithm used in tables the
	// repairer builds.
	ChecksumType checksum.Type

	// ExistLgList is the sorted set of locality-group ids expected to exist
	// under dbname. If empty, defaults to {0} (a single, unpartitioned
	// locality group).
	ExistLgList []uint32
}

// DefaultOptions returns Options with sensible defaults: the OS filesystem,
// bytewise comparator, a 10-bits-per-key filter, no compression, XXH3
// checksums, and a single locality group {0}.
func DefaultOptions() *Options {
	return &Options{
		FilterBitsPerKey: 10,
		Compression:      compression.NoCompression,
		ChecksumType:     checksum.TypeXXH3,
	}
}

// resolved returns a copy of opts with every optional field given a
// concrete default, so the rest of the package never has to nil-check.
func resolved(opts *Options) *Options {
	if opts == nil {
		opts = DefaultOptions()
	}
	out := *opts
	if out.Env == nil {
		out.Env = vfs.Default()
	}
	if out.Comparator == nil {
		out.Comparator = comparator.Default()
	}
	if out.InfoLog == nil {
		out.InfoLog = logging.Discard
	}
	if out.ChecksumType == 0 {
		out.ChecksumType = checksum.TypeXXH3
	}
	if len(out.ExistLgList) == 0 {
		out.ExistLgList = []uint32{0}
	}
	return &out
}
