package services

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/custodia-labs/camdeck/internal/core/domain"
	"github.com/custodia-labs/camdeck/internal/logger"
)

// ClipID derives a stable clip identifier from its directory.
func ClipID(dir string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("file://"+filepath.ToSlash(dir))).String()
}

// Assembler turns directories into clips.
type Assembler struct {
	logger *logger.Logger
}

// NewAssembler creates an assembler.
func NewAssembler(log *logger.Logger) *Assembler {
	if log == nil {
		log = logger.Nop()
	}
	return &Assembler{logger: log}
}

// MapClip builds a clip from the segments directly inside dir.
// Returns nil and no error when dir holds no valid chunks.
//
// The clip timestamp comes from a timestamp in the directory name when
// there is one, otherwise from event.json, otherwise it stays unresolved.
func (a *Assembler) MapClip(dir string) (*domain.Clip, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", dir, err)
	}

	chunks, err := GroupChunks(abs)
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return nil, nil
	}

	base := filepath.Base(abs)
	clip := &domain.Clip{
		ID:     ClipID(abs),
		Dir:    abs,
		Name:   base,
		Chunks: chunks,
	}
	if ts, ok := domain.ParseDirTimestamp(base); ok {
		clip.Timestamp = ts
		clip.Name = ts.Format(domain.DisplayTimeLayout)
	}

	clip.Event = a.readEvent(abs)
	if !clip.HasTimestamp() && clip.Event != nil {
		clip.Timestamp = clip.Event.Timestamp
	}

	thumb := filepath.Join(abs, domain.ThumbnailFileName)
	if info, err := os.Stat(thumb); err == nil && info.Mode().IsRegular() {
		clip.ThumbnailPath = thumb
	}

	a.logger.Debug("Clip %q: %d chunks from %s", clip.Name, len(chunks), abs)
	return clip, nil
}

func (a *Assembler) readEvent(dir string) *domain.EventMetadata {
	path := filepath.Join(dir, domain.EventFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			a.logger.Warn("Reading %s: %v", path, err)
		}
		return nil
	}
	ev, ok := domain.ParseEvent(data)
	if !ok {
		a.logger.Debug("Ignoring unreadable %s", path)
		return nil
	}
	return ev
}

// Discover walks root and every directory beneath it, returning each
// directory that forms a clip. Subtrees that cannot be read are skipped and
// reported; the walk carries on. The error is non-nil only when root itself
// cannot be read or ctx is cancelled.
func (a *Assembler) Discover(ctx context.Context, root string) ([]domain.Clip, []domain.SubtreeError, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, nil, &domain.RootError{Root: root, Err: err}
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, nil, rootError(abs, err)
	}
	if !info.IsDir() {
		return nil, nil, &domain.RootError{Root: abs, Err: fmt.Errorf("%w: not a directory", domain.ErrInvalidInput)}
	}

	var (
		clips   []domain.Clip
		skipped []domain.SubtreeError
	)
	err = filepath.WalkDir(abs, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if walkErr != nil {
			if path == abs {
				return rootError(abs, walkErr)
			}
			a.logger.Warn("Skipping %s: %v", path, walkErr)
			skipped = append(skipped, domain.SubtreeError{Path: path, Err: walkErr})
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}

		clip, err := a.MapClip(path)
		if err != nil {
			if path == abs {
				return rootError(abs, err)
			}
			a.logger.Warn("Skipping %s: %v", path, err)
			skipped = append(skipped, domain.SubtreeError{Path: path, Err: err})
			return filepath.SkipDir
		}
		if clip != nil {
			clip.Root = abs
			clips = append(clips, *clip)
		}
		return nil
	})
	if err != nil {
		var rerr *domain.RootError
		if errors.As(err, &rerr) {
			return nil, nil, rerr
		}
		return nil, nil, err
	}
	return clips, skipped, nil
}

func rootError(root string, err error) *domain.RootError {
	if errors.Is(err, fs.ErrPermission) {
		err = fmt.Errorf("%w: %w", domain.ErrAccessDenied, err)
	}
	return &domain.RootError{Root: root, Err: err}
}
