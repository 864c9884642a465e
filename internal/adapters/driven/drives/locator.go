// Package drives finds TeslaCam storage on mounted volumes.
package drives

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/shirou/gopsutil/v4/disk"

	"github.com/custodia-labs/camdeck/internal/core/ports/driven"
	"github.com/custodia-labs/camdeck/internal/logger"
)

// Ensure Locator implements the interface.
var _ driven.StorageLocator = (*Locator)(nil)

// FolderName is the folder a car writes its clips into.
const FolderName = "TeslaCam"

// Usage is the space on the volume holding a root.
type Usage struct {
	Path        string
	Fstype      string
	Total       uint64
	Free        uint64
	UsedPercent float64
}

// Locator looks for a TeslaCam folder in the working directory and at the
// top of every mounted volume.
type Locator struct {
	workDir string
	mounts  func(ctx context.Context) ([]string, error)
	usage   func(ctx context.Context, path string) (*disk.UsageStat, error)
	logger  *logger.Logger
}

// NewLocator creates a locator. workDir defaults to the process working
// directory.
func NewLocator(workDir string, log *logger.Logger) *Locator {
	if workDir == "" {
		if wd, err := os.Getwd(); err == nil {
			workDir = wd
		}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Locator{
		workDir: workDir,
		mounts:  mountpoints,
		usage:   disk.UsageWithContext,
		logger:  log,
	}
}

// Locate returns every TeslaCam folder that exists right now. A failure to
// list volumes is logged and the working directory is still checked.
func (l *Locator) Locate(ctx context.Context) ([]string, error) {
	var candidates []string
	if l.workDir != "" {
		candidates = append(candidates, filepath.Join(l.workDir, FolderName))
	}

	mounts, err := l.mounts(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		l.logger.Warn("Listing volumes: %v", err)
	}
	for _, m := range mounts {
		candidates = append(candidates, filepath.Join(m, FolderName))
	}

	seen := make(map[string]bool)
	var roots []string
	for _, c := range candidates {
		c = filepath.Clean(c)
		if seen[c] {
			continue
		}
		seen[c] = true
		if info, err := os.Stat(c); err == nil && info.IsDir() {
			l.logger.Debug("Found storage at %s", c)
			roots = append(roots, c)
		}
	}
	return roots, nil
}

// Usage reports free space on the volume holding path.
func (l *Locator) Usage(ctx context.Context, path string) (Usage, error) {
	st, err := l.usage(ctx, path)
	if err != nil {
		return Usage{}, fmt.Errorf("disk usage of %s: %w", path, err)
	}
	return Usage{
		Path:        path,
		Fstype:      st.Fstype,
		Total:       st.Total,
		Free:        st.Free,
		UsedPercent: st.UsedPercent,
	}, nil
}

// mountpoints lists physical volumes, sorted.
func mountpoints(ctx context.Context) ([]string, error) {
	parts, err := disk.PartitionsWithContext(ctx, false)
	if err != nil {
		return nil, err
	}
	mounts := make([]string, 0, len(parts))
	for _, p := range parts {
		if p.Mountpoint != "" {
			mounts = append(mounts, p.Mountpoint)
		}
	}
	sort.Strings(mounts)
	return mounts, nil
}
