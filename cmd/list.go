package cmd

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(listCmd)
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved recordings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		lib, err := openLibrary()
		if err != nil {
			return err
		}
		defer lib.Close()

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tDURATION\tEVENTS\tPRESET\tCREATED")
		for _, rec := range lib.List() {
			fmt.Fprintf(w, "%d\t%s\t%.1fs\t%d\t%s\t%s\n",
				rec.ID, rec.Name, rec.Duration, len(rec.Events), rec.PresetOrDefault(),
				time.UnixMilli(rec.ID).Format("2006-01-02 15:04"))
		}
		return w.Flush()
	},
}
