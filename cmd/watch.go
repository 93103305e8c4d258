package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/andresmejia3/facecam/internal/annotate"
	"github.com/andresmejia3/facecam/internal/camera"
	"github.com/andresmejia3/facecam/internal/cascade"
	"github.com/andresmejia3/facecam/internal/log"
	"github.com/andresmejia3/facecam/internal/session"
	"github.com/andresmejia3/facecam/internal/snapshot"
	"github.com/andresmejia3/facecam/internal/utils"
	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var watchOpts Options

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Detect faces and eyes on the live webcam feed ('q' quits, 's' saves a snapshot)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		return runWatch(cmd.Context(), watchOpts)
	},
}

func init() {
	addWatchFlags(watchCmd, &watchOpts)
	rootCmd.AddCommand(watchCmd)
}

// runWatch loads the cascades, opens the camera and hands both to the capture loop.
func runWatch(ctx context.Context, opts Options) error {
	if err := validateWatchOptions(opts); err != nil {
		utils.ShowError("Invalid options", err)
		return err
	}

	fmt.Println("=== OpenCV Face + Eye Detection (Haar, Webcam) ===")

	// 1. Output directory first, so it exists even if loading fails
	writer, err := snapshot.NewWriter(opts.OutputDir)
	if err != nil {
		utils.ShowError("Failed to prepare output directory", err)
		return err
	}

	// 2. Models (fail fast, before touching the camera)
	pair, err := cascade.Load(opts.FaceModel, opts.EyeModel)
	if err != nil {
		utils.ShowError("Error loading cascades", err)
		return err
	}
	defer pair.Close()

	// 3. Camera
	cam, err := camera.Open(opts.CameraID)
	if err != nil {
		utils.ShowError("Could not open webcam", err)
		return err
	}
	fmt.Println("✅ Webcam opened.")
	fmt.Println("Controls: 'q' → quit, 's' → save snapshot")

	sessionID := uuid.NewString()
	log.Debug("capture session starting", "session", sessionID, "camera", opts.CameraID)

	cfg := session.Config{
		ID:        sessionID,
		CameraID:  opts.CameraID,
		Source:    cam,
		Display:   session.NewWindow(session.WindowTitle),
		Annotator: annotate.New(pair.Face(), pair.Eye()),
		Snapshots: writer,
		Progress:  newFrameCounter(opts.NoProgress),
	}
	// Only set when connected: a nil *store.Store would be a non-nil interface
	if DB != nil {
		cfg.Recorder = DB
	}

	sess, err := session.New(cfg)
	if err != nil {
		cam.Close()
		cfg.Display.Close()
		return err
	}

	if err := sess.Run(ctx); err != nil {
		return err
	}
	log.Info("capture session finished", "frames", sess.Frames(), "snapshots", len(sess.Saved()))
	return nil
}

// newFrameCounter returns a spinner counting processed frames on Stderr.
func newFrameCounter(hidden bool) *progressbar.ProgressBar {
	var w io.Writer = os.Stderr
	if hidden {
		w = io.Discard
	}
	return progressbar.NewOptions(-1,
		progressbar.OptionSetDescription("🎥 Frames"),
		progressbar.OptionSetWriter(w),
		progressbar.OptionShowCount(),
	)
}

// validateWatchOptions rejects flag values that cannot work before any resource is opened.
func validateWatchOptions(opts Options) error {
	if opts.CameraID < 0 {
		return fmt.Errorf("camera index must be >= 0, got %d", opts.CameraID)
	}
	if opts.FaceModel == "" || opts.EyeModel == "" {
		return fmt.Errorf("both --face-model and --eye-model are required")
	}
	if opts.OutputDir == "" {
		return fmt.Errorf("--output must not be empty")
	}
	return nil
}
