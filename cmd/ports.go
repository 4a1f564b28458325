package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"ripple/midi"
)

var watchPorts bool

func init() {
	portsCmd.Flags().BoolVar(&watchPorts, "watch", false, "keep polling and report hot-plugged ports")
	rootCmd.AddCommand(portsCmd)
}

var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "List MIDI ports",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		defer midi.CloseDriver()
		out := cmd.OutOrStdout()

		if watchPorts {
			ctx, stop := signalContext()
			defer stop()
			w := midi.NewWatcher()
			go w.Run(ctx)
			fmt.Fprintln(out, "watching for MIDI ports, Ctrl+C to exit")
			for ev := range w.Events() {
				dir := "in "
				if ev.Output {
					dir = "out"
				}
				fmt.Fprintf(out, "[%s] %s %-12s %s\n", time.Now().Format("15:04:05"), dir, ev.Type, ev.Name)
			}
			return nil
		}

		ports, err := midi.Ports()
		if err != nil {
			return fmt.Errorf("%w (try: sudo killall coreaudiod midiserver)", err)
		}
		fmt.Fprintln(out, "=== MIDI Input Ports ===")
		for i, p := range ports.In {
			fmt.Fprintf(out, "  %d: %s\n", i, p)
		}
		fmt.Fprintln(out, "\n=== MIDI Output Ports ===")
		for i, p := range ports.Out {
			fmt.Fprintf(out, "  %d: %s\n", i, p)
		}
		return nil
	},
}
