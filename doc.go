/*
Package lgrepair recovers a locality-group-partitioned LSM-tree database
whose descriptor (MANIFEST/CURRENT) is missing or unusable.

A database managed this way splits its key space across one or more
locality groups, each an independent sub-LSM living in its own numbered
subdirectory under the database root, sharing a single WAL stream and
sequence-number space at the root. Repair rebuilds each locality group's
descriptor independently from whatever tables it can still open and
whatever WAL records it can still read, quarantining anything it chooses
not to trust into a lost/ subdirectory rather than deleting it.

# Usage

	err := lgrepair.Repair("/path/to/db", lgrepair.DefaultOptions())

Callers that partition their key space across more than one locality
group must list every expected group id in Options.ExistLgList.

# Compatibility

The on-disk table, WAL, and descriptor formats mirror the RocksDB/LevelDB
family; see internal/dbformat and internal/manifest.

Reference: RocksDB v10.7.5 db/repair.cc (RepairDB), generalized to more
than one locality group per database.
*/
package lgrepair
