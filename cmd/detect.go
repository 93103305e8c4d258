package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/andresmejia3/facecam/internal/annotate"
	"github.com/andresmejia3/facecam/internal/cascade"
	"github.com/andresmejia3/facecam/internal/types"
	"github.com/andresmejia3/facecam/internal/utils"
	"github.com/spf13/cobra"
	"gocv.io/x/gocv"
)

var detectOpts Options

var detectCmd = &cobra.Command{
	Use:   "detect <image_path>",
	Short: "Annotate faces and eyes in a still image",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		return runDetect(cmd.Context(), args[0], detectOpts)
	},
}

func init() {
	addCaptureFlags(detectCmd, &detectOpts)
	rootCmd.AddCommand(detectCmd)
}

func runDetect(ctx context.Context, imagePath string, opts Options) error {
	if !utils.FileExists(imagePath) {
		err := fmt.Errorf("no such file: %s", imagePath)
		utils.ShowError("Input file does not exist", err)
		return err
	}

	pair, err := cascade.Load(opts.FaceModel, opts.EyeModel)
	if err != nil {
		utils.ShowError("Error loading cascades", err)
		return err
	}
	defer pair.Close()

	img := gocv.IMRead(imagePath, gocv.IMReadColor)
	defer img.Close()
	if img.Empty() {
		err := fmt.Errorf("could not decode %s", imagePath)
		utils.ShowError("Failed to read image", err)
		return err
	}

	fmt.Fprintln(os.Stderr, "🔍 Detecting faces...")
	annotated, report := annotate.New(pair.Face(), pair.Eye()).Annotate(img)
	defer annotated.Close()

	if err := utils.EnsureDir(opts.OutputDir); err != nil {
		utils.ShowError("Failed to prepare output directory", err)
		return err
	}
	outPath := annotatedPath(opts.OutputDir, imagePath)
	if ok := gocv.IMWrite(outPath, annotated); !ok {
		err := fmt.Errorf("could not encode %s", outPath)
		utils.ShowError("Failed to write annotated image", err)
		return err
	}

	printReport(os.Stdout, report)
	fmt.Printf("📸 Saved annotated image to %s\n", outPath)
	return nil
}

// annotatedPath returns <dir>/<input stem>_annotated.jpg.
func annotatedPath(dir, imagePath string) string {
	base := filepath.Base(imagePath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(dir, stem+"_annotated.jpg")
}

func printReport(out io.Writer, report types.FrameReport) {
	if report.FaceCount() == 0 {
		fmt.Fprintln(out, "❌ No faces detected in the provided image.")
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "FACE\tX\tY\tWIDTH\tHEIGHT\tEYES")
	fmt.Fprintln(w, "----\t-\t-\t-----\t------\t----")
	for _, f := range report.Faces {
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t%d\n", f.Label, f.Rect.Min.X, f.Rect.Min.Y, f.Rect.Dx(), f.Rect.Dy(), len(f.Eyes))
	}
	w.Flush()
	fmt.Fprintf(out, "\n%s, %d eye(s)\n", annotate.SummaryLabel(report.FaceCount()), report.EyeCount())
}
