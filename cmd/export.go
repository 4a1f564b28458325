package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"ripple/midi"
)

func init() {
	rootCmd.AddCommand(exportCmd)
}

var exportCmd = &cobra.Command{
	Use:   "export <id> <file.mid>",
	Short: "Export a recording as a Standard MIDI File",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid id %q", args[0])
		}

		lib, err := openLibrary()
		if err != nil {
			return err
		}
		defer lib.Close()

		rec, err := lib.Get(id)
		if err != nil {
			return fmt.Errorf("recording %d: %w", id, err)
		}

		f, err := os.Create(args[1])
		if err != nil {
			return err
		}
		if err := midi.Export(rec, cfg.Channel(), f); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %q (%d events, %.1fs) to %s\n", rec.Name, len(rec.Events), rec.Duration, args[1])
		return nil
	},
}
