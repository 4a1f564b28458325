package midi

import (
	"fmt"
	"io"
	"math"

	"gitlab.com/gomidi/midi/v2/smf"

	"ripple/recording"
)

// ExportBPM is the tempo exported files are written at
const ExportBPM = 120

// TicksPerQuarter is the exported time resolution
const TicksPerQuarter = 960

func secondsToTicks(s float64) uint32 {
	return uint32(math.Round(s * TicksPerQuarter * ExportBPM / 60))
}

// Export writes rec as a single track Standard MIDI File
func Export(rec recording.Recording, channel uint8, w io.Writer) error {
	sm := smf.New()
	sm.TimeFormat = smf.MetricTicks(TicksPerQuarter)

	var track smf.Track
	track.Add(0, smf.MetaMeter(4, 4))
	track.Add(0, smf.MetaTempo(ExportBPM))

	var last uint32
	for _, ev := range Schedule(rec, channel) {
		abs := secondsToTicks(ev.At.Seconds())
		track.Add(abs-last, ev.Message())
		last = abs
	}

	end := secondsToTicks(rec.Duration)
	if end < last {
		end = last
	}
	track.Close(end - last)

	if err := sm.Add(track); err != nil {
		return fmt.Errorf("add track: %w", err)
	}
	if _, err := sm.WriteTo(w); err != nil {
		return fmt.Errorf("write smf: %w", err)
	}
	return nil
}
