package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // autoregisters driver
	"go.uber.org/zap"

	"ripple/config"
	"ripple/debug"
	"ripple/midi"
	"ripple/session"
	"ripple/store"
	"ripple/theme"
	"ripple/timeline"
	"ripple/tui"
)

var (
	cfgPath   string
	debugFlag bool
	serverURL string
	midiIn    string
	midiOut   string

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "ripple",
	Short: "Client for the ripple therapy glove",
	Long: `ripple talks to the glove server, shows which fingers are bent, records
performances and lets you edit them on a per-finger timeline.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load(cfgPath)
		if err != nil {
			return err
		}
		cfg = c
		if debugFlag || cfg.Debug {
			if err := debug.Enable(""); err != nil {
				return fmt.Errorf("debug log: %w", err)
			}
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTUI()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "config file (default ~/.config/ripple/config.json)")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "write a debug log to ~/.config/ripple/debug.log")
	rootCmd.Flags().StringVar(&serverURL, "server", "", "glove server websocket URL")
	rootCmd.Flags().StringVar(&midiIn, "keyboard", "", "MIDI input to use as a finger source")
	rootCmd.Flags().StringVar(&midiOut, "midi-out", "", "MIDI output for local previews")
}

func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}

func openLibrary() (*store.Library, error) {
	b, err := store.OpenBackend(cfg.Storage.Backend, cfg.Storage.Path)
	if err != nil {
		return nil, err
	}
	return store.Open(b)
}

// signalContext is cancelled on Ctrl+C
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func runTUI() error {
	lib, err := openLibrary()
	if err != nil {
		return err
	}
	defer lib.Close()

	th, err := theme.Load(cfg.UI.Palette)
	if err != nil {
		return err
	}

	url := cfg.Server.URL
	if serverURL != "" {
		url = serverURL
	}

	opts := tui.Options{
		Library:     lib,
		Theme:       th,
		ServerURL:   url,
		AutoConnect: cfg.Server.AutoConnect || serverURL != "",
		Scale:       timeline.Scale(cfg.UI.Scale),
	}

	if name := firstNonEmpty(midiIn, cfg.MIDI.InputPort); name != "" {
		kb, err := midi.ListenKeyboard(name)
		if err != nil {
			fmt.Fprintf(os.Stderr, "keyboard disabled: %v\n", err)
		} else {
			defer kb.Close()
			opts.Keyboard = kb
		}
	}
	if name := firstNonEmpty(midiOut, cfg.MIDI.OutputPort); name != "" {
		out, err := midi.OpenOutput(name, cfg.Channel())
		if err != nil {
			fmt.Fprintf(os.Stderr, "MIDI previews disabled: %v\n", err)
		} else {
			defer out.Close()
			opts.Output = out
		}
	}
	if opts.Keyboard != nil || opts.Output != nil {
		defer midi.CloseDriver()
	}

	ctrl := session.NewController(nil, 0)
	if cfg.UI.LastPreset != "" {
		ctrl.State.CurrentPreset = cfg.UI.LastPreset
	}
	opts.Controller = ctrl

	p := tea.NewProgram(tui.NewModel(opts), tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		return err
	}

	cfg.UI.LastPreset = ctrl.State.CurrentPreset
	if err := cfg.Save(cfgPath); err != nil {
		debug.L().Warn("save config", zap.Error(err))
	}
	return nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
