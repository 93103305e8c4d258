// Package session runs the interactive capture, annotate, display and
// poll loop.
package session

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/andresmejia3/facecam/internal/camera"
	"github.com/andresmejia3/facecam/internal/log"
	"github.com/andresmejia3/facecam/internal/snapshot"
	"github.com/andresmejia3/facecam/internal/types"
	"github.com/schollz/progressbar/v3"
	"gocv.io/x/gocv"
)

// KeyPollInterval is how long each iteration waits for input.
const KeyPollInterval = time.Millisecond

// FrameSource produces frames. *camera.Session satisfies it.
type FrameSource interface {
	Read(dst *gocv.Mat) bool
	Close() error
}

// Display shows frames and polls the keyboard. *Window satisfies it.
type Display interface {
	Show(img gocv.Mat)
	PollKey(d time.Duration) int
	Close() error
}

// FrameAnnotator turns a captured frame into an annotated copy.
// *annotate.Annotator satisfies it.
type FrameAnnotator interface {
	Annotate(frame gocv.Mat) (gocv.Mat, types.FrameReport)
}

// Recorder persists the snapshot log. *store.Store satisfies it.
type Recorder interface {
	StartSession(ctx context.Context, sessionID string, cameraID int) error
	InsertSnapshot(ctx context.Context, snap types.Snapshot) (int64, error)
	EndSession(ctx context.Context, sessionID string) error
}

// Config wires a Session. Recorder, Progress and Out are optional.
type Config struct {
	ID        string
	CameraID  int
	Source    FrameSource
	Display   Display
	Annotator FrameAnnotator
	Snapshots *snapshot.Writer
	Recorder  Recorder
	Progress  *progressbar.ProgressBar
	Out       io.Writer
}

// Session owns the camera and window for the duration of Run.
type Session struct {
	cfg    Config
	out    io.Writer
	bar    *progressbar.ProgressBar
	frames int
	saved  []string
}

// New validates cfg and returns a Session.
func New(cfg Config) (*Session, error) {
	if cfg.Source == nil || cfg.Display == nil || cfg.Annotator == nil || cfg.Snapshots == nil {
		return nil, fmt.Errorf("session requires a source, display, annotator and snapshot writer")
	}
	s := &Session{cfg: cfg, out: cfg.Out, bar: cfg.Progress}
	if s.out == nil {
		s.out = os.Stdout
	}
	if s.bar == nil {
		s.bar = progressbar.NewOptions(-1, progressbar.OptionSetWriter(io.Discard))
	}
	return s, nil
}

// Frames returns the number of frames processed so far.
func (s *Session) Frames() int { return s.frames }

// Saved returns the snapshot paths written so far, in order.
func (s *Session) Saved() []string { return s.saved }

// Run loops until the quit key, a read failure or ctx cancellation.
// The source and display are released on every exit path. A read
// failure returns an error wrapping camera.ErrFrameRead; quitting and
// cancellation return nil.
func (s *Session) Run(ctx context.Context) error {
	defer s.cleanup()

	if s.cfg.Recorder != nil {
		if err := s.cfg.Recorder.StartSession(ctx, s.cfg.ID, s.cfg.CameraID); err != nil {
			log.Warn("snapshot log unavailable, continuing without it", "err", err)
			s.cfg.Recorder = nil
		}
	}

	frame := gocv.NewMat()
	defer frame.Close()

	for {
		select {
		case <-ctx.Done():
			log.Info("capture loop cancelled", "frames", s.frames)
			return nil
		default:
		}

		if !s.cfg.Source.Read(&frame) {
			fmt.Fprintln(s.out, "\n⚠️  Failed to read frame from webcam.")
			return fmt.Errorf("%w after %d frames", camera.ErrFrameRead, s.frames)
		}
		s.frames++

		if quit := s.step(ctx, frame); quit {
			return nil
		}
	}
}

// step annotates, shows and handles input for one frame.
func (s *Session) step(ctx context.Context, frame gocv.Mat) bool {
	annotated, report := s.cfg.Annotator.Annotate(frame)
	defer annotated.Close()

	s.cfg.Display.Show(annotated)
	s.bar.Add(1)

	switch ClassifyKey(s.cfg.Display.PollKey(KeyPollInterval)) {
	case ActionQuit:
		return true
	case ActionSave:
		s.save(ctx, annotated, report)
	}
	return false
}

func (s *Session) save(ctx context.Context, annotated gocv.Mat, report types.FrameReport) {
	path, seq, err := s.cfg.Snapshots.Save(annotated)
	if err != nil {
		fmt.Fprintf(s.out, "\n⚠️  Failed to save snapshot: %v\n", err)
		return
	}
	s.saved = append(s.saved, path)
	fmt.Fprintf(s.out, "\n📸 Saved snapshot to %s\n", path)

	if s.cfg.Recorder == nil {
		return
	}
	snap := types.Snapshot{
		SessionID: s.cfg.ID,
		Seq:       seq,
		Path:      path,
		FaceCount: report.FaceCount(),
		EyeCount:  report.EyeCount(),
	}
	if _, err := s.cfg.Recorder.InsertSnapshot(ctx, snap); err != nil {
		log.Warn("failed to record snapshot", "path", path, "err", err)
	}
}

func (s *Session) cleanup() {
	s.bar.Finish()

	if err := s.cfg.Source.Close(); err != nil {
		log.Warn("failed to release camera", "err", err)
	}
	if err := s.cfg.Display.Close(); err != nil {
		log.Warn("failed to close window", "err", err)
	}
	if s.cfg.Recorder != nil {
		// The run context may already be cancelled (Ctrl+C); still close out the session row
		if err := s.cfg.Recorder.EndSession(context.Background(), s.cfg.ID); err != nil {
			log.Warn("failed to close session record", "err", err)
		}
	}

	fmt.Fprintln(s.out, "\n✅ Webcam released, windows closed.")
}
