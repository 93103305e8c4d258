package types

import (
	"image"
	"time"
)

// FaceResult is a single face found in a frame, with the eyes found inside it.
type FaceResult struct {
	Index int             // 1-based, detector order
	Label string          // "Face #<Index>"
	Rect  image.Rectangle // frame coordinates
	Eyes  []image.Rectangle
}

// FrameReport summarises the detections of one annotated frame
type FrameReport struct {
	Faces []FaceResult
}

// FaceCount returns the number of faces in the report.
func (r FrameReport) FaceCount() int {
	return len(r.Faces)
}

// EyeCount returns the number of eyes across all faces.
func (r FrameReport) EyeCount() int {
	n := 0
	for _, f := range r.Faces {
		n += len(f.Eyes)
	}
	return n
}

// Snapshot is a saved annotated frame as recorded in the snapshot log
type Snapshot struct {
	ID        int64
	SessionID string
	Seq       int
	Path      string
	FaceCount int
	EyeCount  int
	TakenAt   time.Time
}
