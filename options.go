package lgrepair

// options.go implements the configuration surface for the repairer.
//
// Reference: RocksDB v10.7.5 include/rocksdb/options.h (Options relevant to
// Repairer construction) and db/repair.cc (the option fields RepairDB reads).

import (
	"github.com/localitydb/lgrepair/internal/checksum"
	"github.com/localitydb/lgrepair/internal/compression"
	"github.com/localitydb/lgrepair/internal/logging"
	"github.com/localitydb/lgrepair/internal/repair"
)

// Logger is an alias for the logging.Logger interface.
// This allows callers to pass their own logger implementation.
type Logger = logging.Logger

// CompressionType is an alias for the compression type used when building
// recovered tables.
type CompressionType = compression.Type

// Compression type constants.
const (
	CompressionNone   = compression.NoCompression
	CompressionSnappy = compression.SnappyCompression
	CompressionZstd   = compression.ZstdCompression
	CompressionLZ4    = compression.LZ4Compression
)

// ChecksumType is an alias for the checksum type used when building
// recovered tables.
type ChecksumType = checksum.Type

// Checksum type constants.
const (
	ChecksumTypeCRC32C = checksum.TypeCRC32C
	ChecksumTypeXXH3   = checksum.TypeXXH3
)

// Options configures a repair run.
//
// Fields cover spec.md §6's "Recognized options" table (TableCache also
// stands in for the block cache), plus Compression and ChecksumType for the
// tables the repairer builds. The struct itself lives in internal/repair so
// that package can use it without importing this root package back.
type Options = repair.Options

// DefaultOptions returns Options with sensible defaults: the OS filesystem,
// bytewise comparator, a 10-bits-per-key filter, no compression, XXH3
// checksums, and a single locality group {0}.
func DefaultOptions() *Options {
	return repair.DefaultOptions()
}
