// Package annotate runs face and eye detection on a frame and draws the
// results onto a copy of it.
package annotate

import (
	"fmt"
	"image"
	"image/color"

	"github.com/andresmejia3/facecam/internal/log"
	"github.com/andresmejia3/facecam/internal/types"
	"gocv.io/x/gocv"
)

// Detector finds objects in a single-channel image. *gocv.CascadeClassifier satisfies it.
type Detector interface {
	DetectMultiScaleWithParams(img gocv.Mat, scale float64, minNeighbors, flags int, minSize, maxSize image.Point) []image.Rectangle
}

// Params are the multi-scale detection parameters for one detector.
type Params struct {
	ScaleFactor  float64
	MinNeighbors int
	MinSize      image.Point
}

var (
	FaceParams = Params{ScaleFactor: 1.1, MinNeighbors: 5, MinSize: image.Pt(60, 60)}
	EyeParams  = Params{ScaleFactor: 1.1, MinNeighbors: 5, MinSize: image.Pt(20, 20)}
)

// Colours are RGBA; gocv converts them to OpenCV's BGR order when drawing.
var (
	FaceColor    = color.RGBA{R: 0, G: 255, B: 0, A: 0}
	EyeColor     = color.RGBA{R: 0, G: 0, B: 255, A: 0}
	SummaryColor = color.RGBA{R: 255, G: 255, B: 0, A: 0}
)

const EyeLabel = "eye"

// SummaryOrigin is where the "Faces: N" overlay is drawn.
var SummaryOrigin = image.Pt(10, 30)

// FaceLabel returns the label for the i-th face (1-based).
func FaceLabel(i int) string {
	return fmt.Sprintf("Face #%d", i)
}

// SummaryLabel returns the face count overlay text.
func SummaryLabel(n int) string {
	return fmt.Sprintf("Faces: %d", n)
}

// Annotator draws face and eye detections. It holds no per-frame state.
type Annotator struct {
	Face       Detector
	Eye        Detector
	FaceParams Params
	EyeParams  Params
}

// New returns an Annotator using the default face and eye parameters.
func New(face, eye Detector) *Annotator {
	return &Annotator{
		Face:       face,
		Eye:        eye,
		FaceParams: FaceParams,
		EyeParams:  EyeParams,
	}
}

// Annotate detects faces in frame, eyes inside each face, and returns an
// annotated clone together with a report. frame is left untouched; the
// caller must Close the returned Mat.
func (a *Annotator) Annotate(frame gocv.Mat) (gocv.Mat, types.FrameReport) {
	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(frame, &gray, gocv.ColorBGRToGray)

	annotated := frame.Clone()
	bounds := image.Rect(0, 0, gray.Cols(), gray.Rows())

	faces := detect(a.Face, gray, a.FaceParams, "face")
	report := types.FrameReport{Faces: make([]types.FaceResult, 0, len(faces))}

	for i, r := range faces {
		face := types.FaceResult{Index: i + 1, Label: FaceLabel(i + 1), Rect: r}

		gocv.Rectangle(&annotated, r, FaceColor, 2)
		gocv.PutTextWithParams(&annotated, face.Label, image.Pt(r.Min.X, r.Min.Y-10),
			gocv.FontHersheySimplex, 0.6, FaceColor, 2, gocv.LineAA, false)

		roi := r.Intersect(bounds)
		if roi.Empty() {
			report.Faces = append(report.Faces, face)
			continue
		}

		// Both regions share storage with their parents: drawing into
		// roiColor lands in annotated at the face's offset.
		roiGray := gray.Region(roi)
		roiColor := annotated.Region(roi)

		face.Eyes = detect(a.Eye, roiGray, a.EyeParams, "eye")
		for _, e := range face.Eyes {
			gocv.Rectangle(&roiColor, e, EyeColor, 2)
			gocv.PutTextWithParams(&roiColor, EyeLabel, image.Pt(e.Min.X, e.Min.Y-5),
				gocv.FontHersheySimplex, 0.4, EyeColor, 1, gocv.LineAA, false)
		}

		roiColor.Close()
		roiGray.Close()
		report.Faces = append(report.Faces, face)
	}

	gocv.PutTextWithParams(&annotated, SummaryLabel(report.FaceCount()), SummaryOrigin,
		gocv.FontHersheySimplex, 0.8, SummaryColor, 2, gocv.LineAA, false)

	log.Debug("frame annotated", "faces", report.FaceCount(), "eyes", report.EyeCount())
	return annotated, report
}

// detect runs one detection pass. A panic inside the detector skips the
// pass for this frame only.
func detect(d Detector, img gocv.Mat, p Params, kind string) (rects []image.Rectangle) {
	if d == nil {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			log.Warn("detector pass skipped", "kind", kind, "panic", r)
			rects = nil
		}
	}()
	return d.DetectMultiScaleWithParams(img, p.ScaleFactor, p.MinNeighbors, 0, p.MinSize, image.Pt(0, 0))
}
