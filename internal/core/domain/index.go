package domain

import (
	"path/filepath"
	"sort"
	"time"
)

// RootReport summarises the scan of one storage root.
type RootReport struct {
	// Root is the storage root that was scanned.
	Root string

	// Clips is the number of clips found under the root.
	Clips int

	// Err is set when the root could not be scanned at all.
	Err error

	// Skipped lists subtrees that could not be read.
	Skipped []SubtreeError
}

// Failed reports whether the root could not be scanned.
func (r RootReport) Failed() bool {
	return r.Err != nil
}

// StorageIndex is an immutable snapshot of every clip found across a set of
// storage roots. A rescan builds a new index; an existing index never
// changes, so it can be shared freely between goroutines.
type StorageIndex struct {
	clips   []Clip
	byID    map[string]int
	byDir   map[string]int
	reports []RootReport
	builtAt time.Time
}

// NewStorageIndex builds an index. Clips sharing a directory are kept once
// (first occurrence wins) and the result is ordered by ClipLess.
func NewStorageIndex(clips []Clip, reports []RootReport, builtAt time.Time) *StorageIndex {
	seen := make(map[string]struct{}, len(clips))
	unique := make([]Clip, 0, len(clips))
	for _, c := range clips {
		key := filepath.Clean(c.Dir)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, c)
	}
	sort.SliceStable(unique, func(i, j int) bool {
		return ClipLess(unique[i], unique[j])
	})

	idx := &StorageIndex{
		clips:   unique,
		byID:    make(map[string]int, len(unique)),
		byDir:   make(map[string]int, len(unique)),
		reports: append([]RootReport(nil), reports...),
		builtAt: builtAt,
	}
	for i, c := range unique {
		idx.byID[c.ID] = i
		idx.byDir[filepath.Clean(c.Dir)] = i
	}
	return idx
}

// EmptyIndex returns an index with no clips and no reports.
func EmptyIndex() *StorageIndex {
	return NewStorageIndex(nil, nil, time.Time{})
}

// Clips returns the ordered clips. The returned slice is a copy.
func (x *StorageIndex) Clips() []Clip {
	return append([]Clip(nil), x.clips...)
}

// Len returns the number of clips.
func (x *StorageIndex) Len() int {
	return len(x.clips)
}

// Empty reports whether no clips were found.
func (x *StorageIndex) Empty() bool {
	return len(x.clips) == 0
}

// At returns the clip at position i in index order.
func (x *StorageIndex) At(i int) (Clip, bool) {
	if i < 0 || i >= len(x.clips) {
		return Clip{}, false
	}
	return x.clips[i], true
}

// Clip looks a clip up by ID.
func (x *StorageIndex) Clip(id string) (Clip, bool) {
	i, ok := x.byID[id]
	if !ok {
		return Clip{}, false
	}
	return x.clips[i], true
}

// ClipByDir looks a clip up by its directory.
func (x *StorageIndex) ClipByDir(dir string) (Clip, bool) {
	i, ok := x.byDir[filepath.Clean(dir)]
	if !ok {
		return Clip{}, false
	}
	return x.clips[i], true
}

// Reports returns one report per scanned root.
func (x *StorageIndex) Reports() []RootReport {
	return append([]RootReport(nil), x.reports...)
}

// Failures returns the reports of roots that could not be scanned.
func (x *StorageIndex) Failures() []RootReport {
	var failed []RootReport
	for _, r := range x.reports {
		if r.Failed() {
			failed = append(failed, r)
		}
	}
	return failed
}

// Partial reports whether at least one root failed.
func (x *StorageIndex) Partial() bool {
	return len(x.Failures()) > 0
}

// BuiltAt returns when the index was built.
func (x *StorageIndex) BuiltAt() time.Time {
	return x.builtAt
}

// ScanRun records one completed scan for history.
type ScanRun struct {
	// ID uniquely identifies the run.
	ID string

	// StartedAt is when the scan began.
	StartedAt time.Time

	// EndedAt is when the scan finished.
	EndedAt time.Time

	// Roots are the storage roots that were scanned.
	Roots []string

	// Clips is the number of clips in the resulting index.
	Clips int

	// Failures is the number of roots that could not be scanned.
	Failures int

	// Error is set when the scan did not produce an index.
	Error string
}

// Duration returns how long the scan took.
func (r ScanRun) Duration() time.Duration {
	return r.EndedAt.Sub(r.StartedAt)
}
