package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/andresmejia3/facecam/internal/snapshot"
	"github.com/andresmejia3/facecam/internal/utils"
	"github.com/spf13/cobra"
)

var (
	resetLog   bool
	resetFiles bool
	resetDir   string
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset system state (Snapshot log, Snapshot files)",
	Long:  "Clears all data. By default, it resets everything. Use flags to clear specific components.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		// If no flags are set, default to clearing EVERYTHING
		if !resetLog && !resetFiles {
			resetLog = true
			resetFiles = true
		}

		reader := bufio.NewReader(os.Stdin)

		if resetLog {
			if DB == nil {
				fmt.Println("⏭️  No snapshot log configured, skipping database.")
			} else if confirm(reader, os.Stdout, "⚠️  Are you sure you want to DROP all snapshot log tables?") {
				fmt.Println("🗑️  Clearing Snapshot Log...")
				if err := DB.Reset(cmd.Context()); err != nil {
					utils.ShowError("Failed to reset database", err)
					return err
				}
			}
		}

		if resetFiles {
			if confirm(reader, os.Stdout, fmt.Sprintf("⚠️  Are you sure you want to delete everything in %s?", resetDir)) {
				fmt.Println("🗑️  Clearing Snapshot Files...")
				removeDir(resetDir)
			}
		}

		fmt.Println("✨ System Reset Complete.")
		return nil
	},
}

func init() {
	resetCmd.Flags().BoolVar(&resetLog, "log", false, "Clear the PostgreSQL snapshot log")
	resetCmd.Flags().BoolVar(&resetFiles, "files", false, "Clear saved snapshots and annotated images")
	resetCmd.Flags().StringVarP(&resetDir, "output", "o", snapshot.DefaultDir, "Snapshot directory to clear")
	rootCmd.AddCommand(resetCmd)
}

func confirm(r *bufio.Reader, w io.Writer, prompt string) bool {
	fmt.Fprintf(w, "%s [y/N]: ", prompt)
	res, _ := r.ReadString('\n')
	res = strings.TrimSpace(strings.ToLower(res))
	return res == "y" || res == "yes"
}

func removeDir(path string) {
	if err := os.RemoveAll(path); err != nil {
		fmt.Fprintf(os.Stderr, "⚠️  Failed to remove %s: %v\n", path, err)
	}
}
