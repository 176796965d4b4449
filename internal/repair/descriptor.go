package repair

// descriptor.go implements §4.4: synthesizing a fresh descriptor from
// recovered table metadata and installing it atomically, grounded on the
// teacher's VersionSet.LogAndApply/setCurrentFile sequence (version_set.go):
// write the new MANIFEST, sync it, only then point CURRENT at it.

import (
	"fmt"
	"path/filepath"

	"github.com/localitydb/lgrepair/internal/dbformat"
	"github.com/localitydb/lgrepair/internal/manifest"
	"github.com/localitydb/lgrepair/internal/wal"
)

// writeDescriptor builds a VersionEdit from this LG's retained tables and
// installs it as the sole descriptor for lg.dir, per spec §4.4.
func (lg *lgRepair) writeDescriptor() error {
	edit := lg.buildVersionEdit()
	encoded := edit.EncodeTo()

	finalName := descriptorFileName(1)
	finalPath := filepath.Join(lg.dir, finalName)
	tempPath := filepath.Join(lg.dir, finalName+".dbtmp")

	f, err := lg.env.Create(tempPath)
	if err != nil {
		return fmt.Errorf("lg=%d: create descriptor: %w", lg.id, err)
	}

	w := wal.NewWriter(f, 1, false /* not recyclable */)
	if _, err := w.AddRecord(encoded); err != nil {
		_ = f.Close()
		_ = lg.env.Remove(tempPath)
		return fmt.Errorf("lg=%d: write descriptor: %w", lg.id, err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = lg.env.Remove(tempPath)
		return fmt.Errorf("lg=%d: sync descriptor: %w", lg.id, err)
	}
	if err := f.Close(); err != nil {
		_ = lg.env.Remove(tempPath)
		return fmt.Errorf("lg=%d: close descriptor: %w", lg.id, err)
	}

	// The new descriptor is durably on disk; only now are the manifests it
	// replaces safe to quarantine. A failure below must not have archived
	// them, so this happens after every step that can still fail cleanly
	// by just removing the temp file.
	for _, name := range lg.manifests {
		archiveFile(lg.env, lg.dir, name, lg.logger)
	}

	if err := lg.env.Rename(tempPath, finalPath); err != nil {
		return fmt.Errorf("lg=%d: install descriptor: %w", lg.id, err)
	}
	if err := lg.env.SyncDir(lg.dir); err != nil {
		return fmt.Errorf("lg=%d: sync dir after descriptor install: %w", lg.id, err)
	}

	if err := lg.writeCurrentFile(finalName); err != nil {
		return fmt.Errorf("lg=%d: %w", lg.id, err)
	}

	lg.logger.Infof("[repair] lg=%d: wrote %s referencing %d table(s)", lg.id, finalName, len(lg.tables))
	return nil
}

// buildVersionEdit assembles the comparator name, next_file_number,
// last_sequence (the max over retained tables, not the replay cursor),
// and one AddFile per retained table, all at level 0 — a repaired
// database starts compaction-naive, per spec §4.4.
func (lg *lgRepair) buildVersionEdit() *manifest.VersionEdit {
	edit := manifest.NewVersionEdit()
	edit.SetComparatorName(lg.cmp.Name())
	edit.SetLogNumber(0)
	edit.SetNextFileNumber(lg.nextFileNumber)

	var lastSeq dbformat.SequenceNumber
	for _, info := range lg.tables {
		edit.AddFile(0, info.meta)
		if info.maxSequence > lastSeq {
			lastSeq = info.maxSequence
		}
	}
	edit.SetLastSequence(manifest.SequenceNumber(lastSeq))
	return edit
}

// writeCurrentFile rewrites lg.dir/CURRENT to name manifestName, the
// atomic commit point of the whole install (spec §4.4 step 5): write a
// temp file, sync it, rename it over CURRENT, then sync the directory so
// the rename itself is durable.
func (lg *lgRepair) writeCurrentFile(manifestName string) error {
	currentPath := filepath.Join(lg.dir, currentFileName)
	tempPath := currentPath + ".dbtmp"

	f, err := lg.env.Create(tempPath)
	if err != nil {
		return fmt.Errorf("create CURRENT.tmp: %w", err)
	}
	if _, err := f.Write([]byte(manifestName + "\n")); err != nil {
		_ = f.Close()
		_ = lg.env.Remove(tempPath)
		return fmt.Errorf("write CURRENT.tmp: %w", err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = lg.env.Remove(tempPath)
		return fmt.Errorf("sync CURRENT.tmp: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = lg.env.Remove(tempPath)
		return fmt.Errorf("close CURRENT.tmp: %w", err)
	}
	if err := lg.env.Rename(tempPath, currentPath); err != nil {
		_ = lg.env.Remove(tempPath)
		return fmt.Errorf("rename CURRENT: %w", err)
	}
	if err := lg.env.SyncDir(lg.dir); err != nil {
		return fmt.Errorf("sync dir after CURRENT: %w", err)
	}
	return nil
}
