package lgrepair

// comparator.go re-exports the key comparison abstraction used throughout
// the repairer: the descriptor records a comparator name, and table scans
// must order keys the same way the engine that wrote them did.
//
// Reference: RocksDB v10.7.5
//   - include/rocksdb/comparator.h

import "github.com/localitydb/lgrepair/internal/comparator"

// Comparator defines a total ordering over keys.
type Comparator = comparator.Comparator

// BytewiseComparator is the default comparator, comparing keys lexicographically.
type BytewiseComparator = comparator.Bytewise

// DefaultComparator returns the default bytewise comparator.
func DefaultComparator() Comparator {
	return comparator.Default()
}
