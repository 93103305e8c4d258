package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/andresmejia3/facecam/internal/utils"
	"github.com/spf13/cobra"
)

var errNoDatabase = errors.New("no snapshot log configured (use --db or POSTGRES_HOST)")

var snapshotsLimit int

var snapshotsCmd = &cobra.Command{
	Use:   "snapshots",
	Short: "List snapshots recorded in the snapshot log",
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		return runSnapshots(cmd.Context(), snapshotsLimit)
	},
}

func init() {
	snapshotsCmd.Flags().IntVarP(&snapshotsLimit, "limit", "n", 20, "Maximum number of snapshots to show (0 = all)")
	rootCmd.AddCommand(snapshotsCmd)
}

func runSnapshots(ctx context.Context, limit int) error {
	if DB == nil {
		utils.ShowError("Cannot list snapshots", errNoDatabase)
		return errNoDatabase
	}

	snaps, err := DB.ListSnapshots(ctx, limit)
	if err != nil {
		utils.ShowError("Failed to list snapshots", err)
		return err
	}

	if len(snaps) == 0 {
		fmt.Println("No snapshots found in database.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "SESSION\tSEQ\tFACES\tEYES\tTAKEN\tPATH")
	fmt.Fprintln(w, "-------\t---\t-----\t----\t-----\t----")

	for _, s := range snaps {
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%s\t%s\n", shortID(s.SessionID), s.Seq, s.FaceCount, s.EyeCount, s.TakenAt.Local().Format("2006-01-02 15:04:05"), s.Path)
	}
	w.Flush()
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
