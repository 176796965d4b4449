package repair

// repair.go implements the top-level coordinator orchestration of spec
// §4: discover files, extract surviving table metadata, replay the
// shared WAL stream, and write one fresh descriptor per locality group.

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/localitydb/lgrepair/internal/table"
)

// Run repairs the database rooted at dbname according to opts, creating
// one lgRepair per locality group named in opts.ExistLgList (defaulting
// to just group 0, per resolved's zero-value handling).
func Run(dbname string, opts *Options) error {
	if dbname == "" {
		return fmt.Errorf("%w: empty database path", ErrInvalidArgument)
	}
	opts = resolved(opts)

	dr := &DbRepair{
		dbname:    dbname,
		options:   opts,
		env:       opts.Env,
		cmp:       opts.Comparator,
		logger:    opts.InfoLog,
		repairers: make(map[uint32]*lgRepair),
	}
	defer dr.close()

	ids := append([]uint32(nil), opts.ExistLgList...)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	dr.lgIDs = ids

	// The root directory must be validated before anything is created
	// under it: MkdirAll would otherwise paper over a missing or empty
	// dbname by conjuring it into existence, making ErrNotFound
	// unreachable (see DESIGN.md).
	if err := dr.findRootFiles(); err != nil {
		return err
	}

	// A table cache is only safe to share when there is exactly one
	// locality group: TableCache.Get keys solely by file number, and
	// every LG numbers its own tables starting at 1, so sharing across
	// more than one LG risks a cache collision (see DESIGN.md).
	var shared *table.TableCache
	if len(ids) == 1 && opts.TableCache != nil {
		shared = opts.TableCache
	}

	for _, id := range ids {
		lgDir := filepath.Join(dbname, lgDirName(id))
		if err := opts.Env.MkdirAll(lgDir, 0o755); err != nil {
			return fmt.Errorf("lg=%d: create directory: %w", id, err)
		}
		dr.repairers[id] = newLgRepair(dbname, id, opts, shared)
	}

	for _, id := range dr.lgIDs {
		if err := dr.repairers[id].findFiles(); err != nil {
			return fmt.Errorf("lg=%d: %w", id, err)
		}
	}

	dr.extractMetadata()
	dr.convertLogs()

	return dr.writeDescriptors()
}

// findRootFiles enumerates dbname for root-level WAL files. It is the
// only place that validates dbname itself: a nonexistent directory, or
// one that exists but holds nothing findFiles recognizes, both mean
// there is no database here to repair.
func (dr *DbRepair) findRootFiles() error {
	names, err := dr.env.ListDir(dr.dbname)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrNotFound, dr.dbname)
		}
		return fmt.Errorf("list %s: %w", dr.dbname, err)
	}

	classified := 0
	for _, name := range names {
		t, number, ok := parseFileName(name)
		if !ok {
			continue
		}
		classified++
		if t == fileTypeLog {
			dr.logFiles = append(dr.logFiles, number)
		}
	}
	if classified == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, dr.dbname)
	}
	sort.Slice(dr.logFiles, func(i, j int) bool { return dr.logFiles[i] < dr.logFiles[j] })
	return nil
}

// extractMetadata scans every LG's tables and folds the highest
// recovered sequence number into the coordinator's own view, used only
// to seed lastSequence before any WAL has been replayed.
func (dr *DbRepair) extractMetadata() {
	for _, id := range dr.lgIDs {
		lg := dr.repairers[id]
		lg.extractMetadata()
		if lg.maxSequence > dr.lastSequence {
			dr.lastSequence = lg.maxSequence
		}
	}
}

// writeDescriptors attempts every LG regardless of earlier failures and
// returns the first one encountered, per spec §6: a failure in one
// locality group must not prevent the others from being repaired.
func (dr *DbRepair) writeDescriptors() error {
	var firstErr error
	for _, id := range dr.lgIDs {
		lg := dr.repairers[id]
		if err := lg.writeDescriptor(); err != nil {
			dr.logger.Warnf("[repair] lg=%d: write descriptor: %v", id, err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (dr *DbRepair) close() {
	for _, lg := range dr.repairers {
		lg.close()
	}
}
