package annotate

import (
	"bytes"
	"image"
	"testing"

	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

// fakeDetector returns canned rectangles and records what it was asked to scan.
type fakeDetector struct {
	rects  []image.Rectangle
	panics bool

	calls  int
	sizes  []image.Point
	params []Params
}

func (f *fakeDetector) DetectMultiScaleWithParams(img gocv.Mat, scale float64, minNeighbors, flags int, minSize, maxSize image.Point) []image.Rectangle {
	f.calls++
	f.sizes = append(f.sizes, image.Pt(img.Cols(), img.Rows()))
	f.params = append(f.params, Params{ScaleFactor: scale, MinNeighbors: minNeighbors, MinSize: minSize})
	if f.panics {
		panic("detector exploded")
	}
	return f.rects
}

func blankFrame(t *testing.T) gocv.Mat {
	t.Helper()
	m := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), 480, 640, gocv.MatTypeCV8UC3)
	require.False(t, m.Empty())
	return m
}

// bgrAt returns the BGR triple at (x, y).
func bgrAt(m gocv.Mat, x, y int) [3]uint8 {
	v := m.GetVecbAt(y, x)
	return [3]uint8{v[0], v[1], v[2]}
}

func TestLabels(t *testing.T) {
	require.Equal(t, "Face #1", FaceLabel(1))
	require.Equal(t, "Face #12", FaceLabel(12))
	require.Equal(t, "Faces: 0", SummaryLabel(0))
	require.Equal(t, "Faces: 3", SummaryLabel(3))
	require.Equal(t, "eye", EyeLabel)
}

func TestAnnotate_NoFaces(t *testing.T) {
	frame := blankFrame(t)
	defer frame.Close()

	face := &fakeDetector{}
	eye := &fakeDetector{}
	out, report := New(face, eye).Annotate(frame)
	defer out.Close()

	require.Equal(t, 0, report.FaceCount())
	require.Empty(t, report.Faces)
	require.Equal(t, 1, face.calls)
	require.Equal(t, 0, eye.calls, "eye detector must only run inside faces")
	// The summary overlay is drawn even with zero faces
	require.False(t, bytes.Equal(frame.ToBytes(), out.ToBytes()))
}

func TestAnnotate_DetectionParameters(t *testing.T) {
	frame := blankFrame(t)
	defer frame.Close()

	face := &fakeDetector{rects: []image.Rectangle{image.Rect(200, 150, 300, 250)}}
	eye := &fakeDetector{}
	out, _ := New(face, eye).Annotate(frame)
	defer out.Close()

	require.Equal(t, []Params{{1.1, 5, image.Pt(60, 60)}}, face.params)
	require.Equal(t, []Params{{1.1, 5, image.Pt(20, 20)}}, eye.params)
}

func TestAnnotate_FaceWithTwoEyes(t *testing.T) {
	frame := blankFrame(t)
	defer frame.Close()
	before := frame.ToBytes()

	faceRect := image.Rect(200, 150, 300, 250) // 100x100
	eyes := []image.Rectangle{
		image.Rect(15, 20, 45, 50), // 30x30, face-local
		image.Rect(55, 20, 85, 50),
	}
	face := &fakeDetector{rects: []image.Rectangle{faceRect}}
	eye := &fakeDetector{rects: eyes}

	out, report := New(face, eye).Annotate(frame)
	defer out.Close()

	require.Len(t, report.Faces, 1)
	got := report.Faces[0]
	require.Equal(t, 1, got.Index)
	require.Equal(t, "Face #1", got.Label)
	require.Equal(t, faceRect, got.Rect)
	require.Equal(t, eyes, got.Eyes)
	require.Equal(t, 2, report.EyeCount())

	// Eyes were searched in the face's sub-region only
	require.Equal(t, []image.Point{image.Pt(100, 100)}, eye.sizes)
	for _, e := range got.Eyes {
		require.True(t, e.In(image.Rect(0, 0, 100, 100)), "eye %v outside face region", e)
	}

	// Source frame is untouched
	require.True(t, bytes.Equal(before, frame.ToBytes()))

	// Face border is green, eye border is blue at the face offset
	require.Equal(t, [3]uint8{0, 255, 0}, bgrAt(out, faceRect.Min.X+50, faceRect.Min.Y))
	eyeTop := eyes[0].Add(faceRect.Min)
	require.Equal(t, [3]uint8{255, 0, 0}, bgrAt(out, eyeTop.Min.X+15, eyeTop.Min.Y))
}

func TestAnnotate_FaceWithoutEyes(t *testing.T) {
	frame := blankFrame(t)
	defer frame.Close()

	faceRect := image.Rect(300, 200, 400, 300)
	out, report := New(&fakeDetector{rects: []image.Rectangle{faceRect}}, &fakeDetector{}).Annotate(frame)
	defer out.Close()

	require.Len(t, report.Faces, 1)
	require.Empty(t, report.Faces[0].Eyes)
	require.Equal(t, [3]uint8{0, 255, 0}, bgrAt(out, faceRect.Min.X+50, faceRect.Min.Y))
}

func TestAnnotate_LabelsFollowDetectorOrder(t *testing.T) {
	frame := blankFrame(t)
	defer frame.Close()

	// Right-most first: labels must not be re-sorted spatially
	rects := []image.Rectangle{
		image.Rect(500, 300, 580, 380),
		image.Rect(100, 100, 180, 180),
		image.Rect(300, 50, 380, 130),
	}
	out, report := New(&fakeDetector{rects: rects}, &fakeDetector{}).Annotate(frame)
	defer out.Close()

	require.Len(t, report.Faces, 3)
	for i, f := range report.Faces {
		require.Equal(t, i+1, f.Index)
		require.Equal(t, FaceLabel(i+1), f.Label)
		require.Equal(t, rects[i], f.Rect)
	}
}

func TestAnnotate_PanickingDetectorIsSkipped(t *testing.T) {
	frame := blankFrame(t)
	defer frame.Close()

	t.Run("face pass", func(t *testing.T) {
		out, report := New(&fakeDetector{panics: true}, &fakeDetector{}).Annotate(frame)
		defer out.Close()
		require.Equal(t, 0, report.FaceCount())
	})

	t.Run("eye pass", func(t *testing.T) {
		face := &fakeDetector{rects: []image.Rectangle{image.Rect(200, 150, 300, 250)}}
		out, report := New(face, &fakeDetector{panics: true}).Annotate(frame)
		defer out.Close()
		require.Equal(t, 1, report.FaceCount())
		require.Empty(t, report.Faces[0].Eyes)
	})
}

func TestAnnotate_FaceClippedToFrame(t *testing.T) {
	frame := blankFrame(t)
	defer frame.Close()

	eye := &fakeDetector{}
	face := &fakeDetector{rects: []image.Rectangle{image.Rect(600, 440, 700, 540)}}
	out, report := New(face, eye).Annotate(frame)
	defer out.Close()

	require.Equal(t, 1, report.FaceCount())
	require.Equal(t, []image.Point{image.Pt(40, 40)}, eye.sizes)
}
