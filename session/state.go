package session

import (
	"maps"
	"slices"

	"ripple/protocol"
	"ripple/recording"
	"ripple/sound"
)

// Tutorial is the progress through the current tutorial
type Tutorial struct {
	Current    string
	Name       string
	Step       int
	Total      int
	NextFinger recording.Finger
	Sequence   []recording.Finger
	Completed  bool
}

// State mirrors what the glove server has told us
type State struct {
	Connected     bool
	Calibrated    bool
	Active        []recording.Finger
	Presets       map[string]protocol.Preset
	Tutorials     map[string]protocol.TutorialInfo
	Drums         []string
	CurrentPreset string
	CustomTypes   map[recording.Finger]sound.Kind
	Threshold     float64
	Mode          string
	Tutorial      Tutorial
	Recording     bool
	Pending       *recording.Recording
	LastError     string
}

// NewState returns the state shown before the server has said anything
func NewState() *State {
	return &State{
		Presets:       DefaultPresets(),
		Tutorials:     DefaultTutorials(),
		Drums:         slices.Clone(sound.Drums),
		CurrentPreset: recording.DefaultPreset,
		CustomTypes:   defaultCustomTypes(),
		Threshold:     DefaultThreshold,
		Mode:          ModePlay,
	}
}

// Mapping returns the current preset's finger mapping
func (s *State) Mapping() map[recording.Finger]string {
	return maps.Clone(s.Presets[s.CurrentPreset].Mapping)
}

// IsActive reports whether the server last reported f as bent
func (s *State) IsActive(f recording.Finger) bool {
	return slices.Contains(s.Active, f)
}

// Apply folds one server message into the state
func (s *State) Apply(msg protocol.Inbound) {
	switch m := msg.(type) {
	case protocol.Init:
		if len(m.Presets) > 0 {
			s.Presets = clonePresets(m.Presets)
		}
		if len(m.Drums) > 0 {
			s.Drums = slices.Clone(m.Drums)
		}
		if len(m.Tutorials) > 0 {
			s.Tutorials = maps.Clone(m.Tutorials)
		}
		s.CurrentPreset = m.State.CurrentPreset
		if s.CurrentPreset == "" {
			s.CurrentPreset = recording.DefaultPreset
		}
		s.Connected = m.State.Connected
		s.Calibrated = m.State.Calibrated
		if m.State.Threshold > 0 {
			s.Threshold = m.State.Threshold
		}
		s.applyCustomTypes(m.CustomTypes)

	case protocol.Status:
		s.Connected = m.Connected
		if m.Calibrated != nil {
			s.Calibrated = *m.Calibrated
		}
		if !s.Connected {
			s.Active = nil
		}

	case protocol.Calibrated:
		s.Calibrated = true

	case protocol.Fingers:
		s.Active = slices.Clone(m.Active)

	case protocol.PresetChanged:
		s.CurrentPreset = m.Preset

	case protocol.MappingUpdated:
		s.setCustom(m.Finger, m.Identifier())
		s.applyCustomTypes(m.CustomTypes)

	case protocol.ModeChanged:
		s.Mode = m.Mode
		if m.Mode == ModePlay {
			s.Tutorial = Tutorial{}
		}

	case protocol.TutorialStarted:
		s.Mode = ModeTutorial
		s.Tutorial = Tutorial{
			Current:    m.Tutorial,
			Name:       m.Name,
			Total:      m.Total,
			NextFinger: m.NextFinger,
			Sequence:   slices.Clone(m.Sequence),
		}

	case protocol.TutorialProgress:
		s.Tutorial.Step = m.Step
		s.Tutorial.NextFinger = m.NextFinger

	case protocol.TutorialComplete:
		s.Tutorial.Completed = true
		s.Tutorial.NextFinger = ""

	case protocol.TutorialReset:
		s.Tutorial.Step = 0
		s.Tutorial.NextFinger = m.NextFinger
		s.Tutorial.Completed = false
		if m.Total > 0 {
			s.Tutorial.Total = m.Total
		}

	case protocol.RecordingStarted:
		s.Recording = true

	case protocol.RecordingStopped:
		s.Recording = false
		if rec, err := recording.Accept(m.Recording); err == nil {
			s.Pending = &rec
		}

	case protocol.Error:
		s.LastError = m.Message
	}
}

// ExitTutorial returns to play mode locally
func (s *State) ExitTutorial() {
	s.Mode = ModePlay
	s.Tutorial = Tutorial{}
}

// TakePending hands out the pending recording once
func (s *State) TakePending() (recording.Recording, bool) {
	if s.Pending == nil {
		return recording.Recording{}, false
	}
	rec := *s.Pending
	s.Pending = nil
	return rec, true
}

// Disconnected resets what the socket closing invalidates
func (s *State) Disconnected() {
	s.Connected = false
	s.Calibrated = false
	s.Active = nil
}

func (s *State) setCustom(f recording.Finger, id string) {
	p := s.Presets[CustomPreset]
	p.Mapping = maps.Clone(p.Mapping)
	if p.Mapping == nil {
		p.Mapping = make(map[recording.Finger]string)
	}
	p.Mapping[f] = id
	if p.Name == "" {
		p.Name = "Custom"
	}
	s.Presets[CustomPreset] = p
}

func (s *State) applyCustomTypes(types map[recording.Finger]string) {
	for f, k := range types {
		s.CustomTypes[f] = sound.Kind(k)
	}
}
