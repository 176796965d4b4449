package repair

// tablescan.go implements §4.2's table scan: open a table through the
// table cache, walk it first to last, and recover the key range and
// maximum sequence number a lost descriptor would otherwise have carried.

import (
	"fmt"
	"path/filepath"

	"github.com/localitydb/lgrepair/internal/dbformat"
	"github.com/localitydb/lgrepair/internal/manifest"
)

// scanTable opens table `number` under lg.dir, scans it end to end, and
// returns its recovered metadata. ok is false when the table must be
// archived instead of referenced from the new descriptor (scan error or
// zero parseable keys) — the caller is responsible for the archival.
func (lg *lgRepair) scanTable(number uint64) (info tableInfo, ok bool, scanErr error) {
	path := filepath.Join(lg.dir, tableFileName(number))

	stat, err := lg.env.Stat(path)
	if err != nil {
		return tableInfo{}, false, fmt.Errorf("stat %s: %w", path, err)
	}
	fileSize := stat.Size()

	reader, err := lg.tableCache.Get(number, path)
	if err != nil {
		return tableInfo{}, false, fmt.Errorf("open table %d: %w", number, err)
	}
	defer lg.tableCache.Release(number)

	iter := reader.NewIterator()

	var smallest, largest []byte
	var maxSeq dbformat.SequenceNumber
	parsedCount := 0

	for iter.SeekToFirst(); iter.Valid(); iter.Next() {
		key := iter.Key()
		parsed, err := dbformat.ParseInternalKey(key)
		if err != nil {
			lg.logger.Warnf("[repair] lg=%d table=%d: unparsable key skipped: %v", lg.id, number, err)
			continue
		}

		if parsedCount == 0 {
			smallest = append([]byte(nil), key...)
		}
		largest = append([]byte(nil), key...)
		if parsed.Sequence > maxSeq {
			maxSeq = parsed.Sequence
		}
		parsedCount++
	}

	if err := iter.Error(); err != nil {
		return tableInfo{}, false, fmt.Errorf("%w: lg=%d table=%d: scan error: %v", ErrCorruption, lg.id, number, err)
	}

	if parsedCount == 0 {
		return tableInfo{}, false, fmt.Errorf("%w: lg=%d table=%d: sst is empty", ErrCorruption, lg.id, number)
	}

	meta := manifest.NewFileMetaData()
	meta.FD = manifest.NewFileDescriptor(number, 0, uint64(fileSize))
	meta.FD.SmallestSeqno = 0
	meta.FD.LargestSeqno = manifest.SequenceNumber(maxSeq)
	meta.Smallest = smallest
	meta.Largest = largest

	return tableInfo{meta: meta, maxSequence: maxSeq}, true, nil
}
