package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/andresmejia3/facecam/internal/cascade"
	"github.com/andresmejia3/facecam/internal/log"
	"github.com/andresmejia3/facecam/internal/snapshot"
	"github.com/andresmejia3/facecam/internal/store"
	"github.com/spf13/cobra"
)

// Options holds shared configuration for watch, detect and reset commands
type Options struct {
	CameraID   int
	FaceModel  string
	EyeModel   string
	OutputDir  string
	NoProgress bool
}

var (
	// DB is the optional snapshot log shared by subcommands
	DB *store.Store
	// dbURL is the connection string
	dbURL string
	// logLevel is the slog level name
	logLevel string
)

// Version is the application version.
const Version = "0.1.0"

var rootOpts Options

var rootCmd = &cobra.Command{
	Use:     "facecam",
	Short:   "Live webcam face + eye detection with Haar cascades",
	Version: Version, // This enables the --version flag
	Args:    cobra.NoArgs,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if logLevel == "" {
			logLevel = os.Getenv("FACECAM_LOG_LEVEL")
		}
		log.Init(logLevel)

		url := resolveDBURL(dbURL)
		if url == "" {
			// No database configured: snapshots are only written to disk
			return nil
		}

		var err error
		// Use the command's context (which will be cancellable) for the connection
		DB, err = store.New(cmd.Context(), url)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if DB != nil {
			// Use Background here because the main context might be cancelled already (due to Ctrl+C)
			// and we still need to send the "Close" command to the DB.
			DB.Close(context.Background())
			DB = nil
		}
	},
	// Running without a subcommand starts the live view
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		return runWatch(cmd.Context(), rootOpts)
	},
}

// resolveDBURL returns the explicit flag value, or a URL built from the
// POSTGRES_* environment, or "" when no database is configured.
func resolveDBURL(flag string) string {
	if flag != "" {
		return flag
	}
	host := os.Getenv("POSTGRES_HOST")
	if host == "" {
		return ""
	}
	user := os.Getenv("POSTGRES_USER")
	pass := os.Getenv("POSTGRES_PASSWORD")
	name := os.Getenv("POSTGRES_DB")
	port := os.Getenv("POSTGRES_PORT")
	if port == "" {
		port = "5432"
	}
	if name == "" {
		name = "facecam"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s", user, pass, host, port, name)
}

func Execute() {
	// Create a context that listens for Ctrl+C (SIGINT) or Kill (SIGTERM)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// This tells Cobra not to print the version in the help text, which is cleaner.
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
	rootCmd.SilenceErrors = true

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	// PersistentPostRun is skipped when a command fails
	if DB != nil {
		DB.Close(context.Background())
		DB = nil
	}
	stop()
	os.Exit(ExitCode(err))
}

// addCaptureFlags registers the model and output flags shared by watch, detect and the root command.
func addCaptureFlags(cmd *cobra.Command, opts *Options) {
	cmd.Flags().StringVar(&opts.FaceModel, "face-model", cascade.DefaultFacePath, "Path to the face Haar cascade")
	cmd.Flags().StringVar(&opts.EyeModel, "eye-model", cascade.DefaultEyePath, "Path to the eye Haar cascade")
	cmd.Flags().StringVarP(&opts.OutputDir, "output", "o", snapshot.DefaultDir, "Directory for snapshots and annotated images")
}

func addWatchFlags(cmd *cobra.Command, opts *Options) {
	addCaptureFlags(cmd, opts)
	cmd.Flags().IntVarP(&opts.CameraID, "camera", "c", 0, "Camera device index")
	cmd.Flags().BoolVar(&opts.NoProgress, "no-progress", false, "Hide the frame counter spinner")
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbURL, "db", "", "PostgreSQL connection string for the snapshot log (default: built from POSTGRES_* env, or disabled)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (default: $FACECAM_LOG_LEVEL or info)")
	addWatchFlags(rootCmd, &rootOpts)
}
