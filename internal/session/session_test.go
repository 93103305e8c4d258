package session

import (
	"bytes"
	"context"
	"errors"
	"image"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/andresmejia3/facecam/internal/annotate"
	"github.com/andresmejia3/facecam/internal/camera"
	"github.com/andresmejia3/facecam/internal/snapshot"
	"github.com/andresmejia3/facecam/internal/types"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

// scriptedSource yields `frames` blank frames, then fails.
type scriptedSource struct {
	frames int
	reads  int
	closed int
}

func (s *scriptedSource) Read(dst *gocv.Mat) bool {
	if s.reads >= s.frames {
		return false
	}
	s.reads++
	blank := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), 240, 320, gocv.MatTypeCV8UC3)
	defer blank.Close()
	blank.CopyTo(dst)
	return true
}

func (s *scriptedSource) Close() error {
	s.closed++
	return nil
}

// scriptedDisplay returns keys in order, then -1 forever.
type scriptedDisplay struct {
	keys   []int
	shown  int
	polls  []time.Duration
	closed int
}

func (d *scriptedDisplay) Show(img gocv.Mat) { d.shown++ }

func (d *scriptedDisplay) PollKey(wait time.Duration) int {
	d.polls = append(d.polls, wait)
	if len(d.keys) == 0 {
		return -1
	}
	k := d.keys[0]
	d.keys = d.keys[1:]
	return k
}

func (d *scriptedDisplay) Close() error {
	d.closed++
	return nil
}

type oneFaceDetector struct{ rects []image.Rectangle }

func (f oneFaceDetector) DetectMultiScaleWithParams(img gocv.Mat, scale float64, minNeighbors, flags int, minSize, maxSize image.Point) []image.Rectangle {
	return f.rects
}

type memRecorder struct {
	started, ended []string
	snaps          []types.Snapshot
	failInsert     bool
}

func (m *memRecorder) StartSession(ctx context.Context, id string, cameraID int) error {
	m.started = append(m.started, id)
	return nil
}

func (m *memRecorder) InsertSnapshot(ctx context.Context, snap types.Snapshot) (int64, error) {
	if m.failInsert {
		return 0, errors.New("db down")
	}
	m.snaps = append(m.snaps, snap)
	return int64(len(m.snaps)), nil
}

func (m *memRecorder) EndSession(ctx context.Context, id string) error {
	m.ended = append(m.ended, id)
	return nil
}

type fixture struct {
	src  *scriptedSource
	disp *scriptedDisplay
	rec  *memRecorder
	out  *bytes.Buffer
	dir  string
	sess *Session
}

func newFixture(t *testing.T, frames int, keys []int) *fixture {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "outputs")
	w, err := snapshot.NewWriter(dir)
	require.NoError(t, err)

	f := &fixture{
		src:  &scriptedSource{frames: frames},
		disp: &scriptedDisplay{keys: keys},
		rec:  &memRecorder{},
		out:  &bytes.Buffer{},
		dir:  dir,
	}
	face := oneFaceDetector{rects: []image.Rectangle{image.Rect(100, 80, 200, 180)}}
	eyes := oneFaceDetector{rects: []image.Rectangle{image.Rect(10, 20, 40, 50), image.Rect(60, 20, 90, 50)}}

	f.sess, err = New(Config{
		ID:        "session-1",
		Source:    f.src,
		Display:   f.disp,
		Annotator: annotate.New(face, eyes),
		Snapshots: w,
		Recorder:  f.rec,
		Out:       f.out,
	})
	require.NoError(t, err)
	return f
}

func TestRun_QuitKey(t *testing.T) {
	f := newFixture(t, 10, []int{-1, -1, 'q'})

	require.NoError(t, f.sess.Run(context.Background()))
	require.Equal(t, 3, f.sess.Frames())
	require.Equal(t, 3, f.disp.shown)
	require.Equal(t, 1, f.src.closed)
	require.Equal(t, 1, f.disp.closed)
	require.Contains(t, f.out.String(), "Webcam released, windows closed.")
	for _, p := range f.disp.polls {
		require.Equal(t, KeyPollInterval, p)
	}
}

func TestRun_SaveTwiceThenQuit(t *testing.T) {
	f := newFixture(t, 10, []int{'s', 'x', 's', 'q'})

	require.NoError(t, f.sess.Run(context.Background()))

	want := []string{
		filepath.Join(f.dir, "webcam_faces_snapshot_1.jpg"),
		filepath.Join(f.dir, "webcam_faces_snapshot_2.jpg"),
	}
	require.Equal(t, want, f.sess.Saved())
	for _, p := range want {
		_, err := os.Stat(p)
		require.NoError(t, err)
		require.Contains(t, f.out.String(), "📸 Saved snapshot to "+p)
	}

	require.Equal(t, []string{"session-1"}, f.rec.started)
	require.Equal(t, []string{"session-1"}, f.rec.ended)
	require.Len(t, f.rec.snaps, 2)
	require.Equal(t, 1, f.rec.snaps[0].Seq)
	require.Equal(t, 2, f.rec.snaps[1].Seq)
	require.Equal(t, 1, f.rec.snaps[0].FaceCount)
	require.Equal(t, 2, f.rec.snaps[0].EyeCount)
}

func TestRun_ReadFailureStillCleansUp(t *testing.T) {
	f := newFixture(t, 2, nil)

	err := f.sess.Run(context.Background())
	require.Error(t, err)
	require.True(t, errors.Is(err, camera.ErrFrameRead))
	require.Equal(t, 2, f.sess.Frames())
	require.Equal(t, 1, f.src.closed)
	require.Equal(t, 1, f.disp.closed)
	require.Equal(t, []string{"session-1"}, f.rec.ended)

	out := f.out.String()
	require.Contains(t, out, "Failed to read frame from webcam.")
	// Warning is printed before cleanup
	require.Less(t, strings.Index(out, "Failed to read frame"), strings.Index(out, "Webcam released"))
}

func TestRun_CancelledContext(t *testing.T) {
	f := newFixture(t, 10, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, f.sess.Run(ctx))
	require.Equal(t, 0, f.sess.Frames())
	require.Equal(t, 1, f.src.closed)
	require.Equal(t, 1, f.disp.closed)
}

func TestRun_RecorderFailureIsNotFatal(t *testing.T) {
	f := newFixture(t, 10, []int{'s', 'q'})
	f.rec.failInsert = true

	require.NoError(t, f.sess.Run(context.Background()))
	require.Len(t, f.sess.Saved(), 1)
}

func TestNew_RequiresCollaborators(t *testing.T) {
	_, err := New(Config{})
	require.Error(t, err)
}
