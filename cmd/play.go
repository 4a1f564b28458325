package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"ripple/midi"
	"ripple/playback"
)

func init() {
	playCmd.Flags().StringVar(&midiOut, "midi-out", "", "MIDI output port (default from config, else the first port)")
	rootCmd.AddCommand(playCmd)
}

var playCmd = &cobra.Command{
	Use:   "play <id>",
	Short: "Play a saved recording on a local MIDI output",
	Args:  cobra.ExactArgs(1),
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

		defer midi.CloseDriver()
		out, err := midi.OpenOutput(firstNonEmpty(midiOut, cfg.MIDI.OutputPort), cfg.Channel())
		if err != nil {
			return err
		}
		defer out.Close()

		sched := playback.NewScheduler(out, nil)
		defer sched.Close()
		if err := sched.Start(rec); err != nil {
			return err
		}

		ctx, stop := signalContext()
		defer stop()

		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "playing %q on %s\n", rec.Name, out.Name())
		for {
			select {
			case <-ctx.Done():
				fmt.Fprintln(w)
				return sched.Stop()
			case <-sched.Updates():
				st := sched.Status()
				if st.State == playback.Idle {
					fmt.Fprintln(w, "\rdone          ")
					return nil
				}
				fmt.Fprintf(w, "\r%5.1f / %.1fs", st.Elapsed, st.Duration)
			}
		}
	},
}
