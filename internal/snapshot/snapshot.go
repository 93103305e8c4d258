// Package snapshot writes annotated frames to disk with sequential names.
package snapshot

import (
	"fmt"
	"path/filepath"

	"github.com/andresmejia3/facecam/internal/utils"
	"gocv.io/x/gocv"
)

// DefaultDir is where snapshots are written unless overridden.
const DefaultDir = "outputs"

const filePattern = "webcam_faces_snapshot_%d.jpg"

// Writer saves snapshots as <dir>/webcam_faces_snapshot_<n>.jpg. n starts
// at 1 and only advances after a successful write. A Writer is not safe
// for concurrent use.
type Writer struct {
	dir  string
	next int
}

// NewWriter creates dir if needed and returns a Writer starting at 1.
func NewWriter(dir string) (*Writer, error) {
	if err := utils.EnsureDir(dir); err != nil {
		return nil, fmt.Errorf("failed to create snapshot directory: %w", err)
	}
	return &Writer{dir: dir, next: 1}, nil
}

// Dir returns the output directory.
func (w *Writer) Dir() string { return w.dir }

// Next returns the sequence number the next Save will use.
func (w *Writer) Next() int { return w.next }

// Path returns the file path for sequence number n.
func (w *Writer) Path(n int) string {
	return filepath.Join(w.dir, fmt.Sprintf(filePattern, n))
}

// Save JPEG-encodes img to the next path and returns the path and the
// sequence number used.
func (w *Writer) Save(img gocv.Mat) (string, int, error) {
	if img.Empty() {
		return "", 0, fmt.Errorf("refusing to save an empty frame")
	}
	n := w.next
	path := w.Path(n)
	if ok := gocv.IMWrite(path, img); !ok {
		return "", 0, fmt.Errorf("failed to encode snapshot %s", path)
	}
	w.next++
	return path, n, nil
}
