package services

import (
	"errors"
	"io"
	"iter"
	"os"
	"path/filepath"

	"github.com/custodia-labs/camdeck/internal/core/domain"
)

// scanBatchSize is how many directory entries are read per call.
const scanBatchSize = 64

// ScanSegments lists the segments directly inside dir. The directory is
// read lazily in batches as the sequence is consumed. Files whose names do
// not match the segment pattern are skipped silently; subdirectories are
// never entered.
//
// If the directory cannot be read the sequence yields the error once and
// ends.
func ScanSegments(dir string) iter.Seq2[domain.Segment, error] {
	return func(yield func(domain.Segment, error) bool) {
		f, err := os.Open(dir)
		if err != nil {
			yield(domain.Segment{}, err)
			return
		}
		defer f.Close()

		for {
			entries, err := f.ReadDir(scanBatchSize)
			for _, e := range entries {
				if e.IsDir() {
					continue
				}
				seg, ok := domain.NewSegment(filepath.Join(dir, e.Name()))
				if !ok {
					continue
				}
				if !yield(seg, nil) {
					return
				}
			}
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield(domain.Segment{}, err)
				return
			}
		}
	}
}
