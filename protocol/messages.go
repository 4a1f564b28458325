package protocol

import (
	"encoding/json"
	"fmt"

	"ripple/recording"
	"ripple/sound"
)

// Message types sent by the glove server
const (
	TypeInit             = "init"
	TypeStatus           = "status"
	TypeCalibrated       = "calibrated"
	TypeFingers          = "fingers"
	TypePresetChanged    = "preset_changed"
	TypeMappingUpdated   = "mapping_updated"
	TypeThresholdChanged = "threshold_changed"
	TypeModeChanged      = "mode_changed"
	TypeTutorialStarted  = "tutorial_started"
	TypeTutorialProgress = "tutorial_progress"
	TypeTutorialComplete = "tutorial_complete"
	TypeTutorialReset    = "tutorial_reset"
	TypeRecordingStarted = "recording_started"
	TypeRecordingStopped = "recording_stopped"
	TypePlaybackStopped  = "playback_stopped"
	TypeError            = "error"
)

// Inbound is any decoded server message
type Inbound interface {
	MessageType() string
}

// Preset is a named finger mapping
type Preset struct {
	Name       string                      `json:"name"`
	Mapping    map[recording.Finger]string `json:"mapping"`
	Instrument string                      `json:"instrument,omitempty"`
}

// TutorialInfo describes an available tutorial
type TutorialInfo struct {
	Name       string `json:"name"`
	Difficulty string `json:"difficulty"`
	Length     int    `json:"length"`
}

// ServerState is the state snapshot sent with init
type ServerState struct {
	Connected     bool    `json:"connected"`
	Calibrated    bool    `json:"calibrated"`
	CurrentPreset string  `json:"current_preset"`
	Threshold     float64 `json:"threshold,omitempty"`
	Mode          string  `json:"mode,omitempty"`
}

type Init struct {
	Presets     map[string]Preset           `json:"presets"`
	Drums       []string                    `json:"drums,omitempty"`
	Chords      []string                    `json:"chords,omitempty"`
	Instruments []string                    `json:"instruments,omitempty"`
	Tutorials   map[string]TutorialInfo     `json:"tutorials"`
	State       ServerState                 `json:"state"`
	CustomTypes map[recording.Finger]string `json:"custom_types,omitempty"`
}

type Status struct {
	Connected  bool  `json:"connected"`
	Calibrated *bool `json:"calibrated,omitempty"`
}

type Calibrated struct {
	Baselines map[string]int `json:"baselines"`
}

type Fingers struct {
	Active []recording.Finger `json:"active"`
}

type PresetChanged struct {
	Preset string `json:"preset"`
}

// MappingUpdated confirms a finger's new sound. Older servers send it as "chord".
type MappingUpdated struct {
	Finger      recording.Finger            `json:"finger"`
	Sound       string                      `json:"sound"`
	Chord       string                      `json:"chord,omitempty"`
	CustomTypes map[recording.Finger]string `json:"custom_types,omitempty"`
}

// Identifier returns the confirmed sound identifier
func (m MappingUpdated) Identifier() string {
	if m.Sound != "" {
		return m.Sound
	}
	return m.Chord
}

type ThresholdChanged struct{}

type ModeChanged struct {
	Mode string `json:"mode"`
}

type TutorialStarted struct {
	Tutorial   string             `json:"tutorial"`
	Name       string             `json:"name"`
	Sequence   []recording.Finger `json:"sequence"`
	Total      int                `json:"total"`
	NextFinger recording.Finger   `json:"next_finger"`
}

type TutorialProgress struct {
	Step       int              `json:"step"`
	NextFinger recording.Finger `json:"next_finger"`
}

type TutorialComplete struct {
	Tutorial string `json:"tutorial"`
}

type TutorialReset struct {
	NextFinger recording.Finger `json:"next_finger"`
	Total      int              `json:"total"`
}

type RecordingStarted struct{}

// RecordingStopped carries the captured payload {events, duration}
type RecordingStopped struct {
	Recording recording.Recording `json:"recording"`
}

type PlaybackStopped struct{}

type Error struct {
	Message string `json:"message"`
}

// Unknown is a message type this client does not understand
type Unknown struct {
	Type string
	Raw  json.RawMessage
}

func (Init) MessageType() string             { return TypeInit }
func (Status) MessageType() string           { return TypeStatus }
func (Calibrated) MessageType() string       { return TypeCalibrated }
func (Fingers) MessageType() string          { return TypeFingers }
func (PresetChanged) MessageType() string    { return TypePresetChanged }
func (MappingUpdated) MessageType() string   { return TypeMappingUpdated }
func (ThresholdChanged) MessageType() string { return TypeThresholdChanged }
func (ModeChanged) MessageType() string      { return TypeModeChanged }
func (TutorialStarted) MessageType() string  { return TypeTutorialStarted }
func (TutorialProgress) MessageType() string { return TypeTutorialProgress }
func (TutorialComplete) MessageType() string { return TypeTutorialComplete }
func (TutorialReset) MessageType() string    { return TypeTutorialReset }
func (RecordingStarted) MessageType() string { return TypeRecordingStarted }
func (RecordingStopped) MessageType() string { return TypeRecordingStopped }
func (PlaybackStopped) MessageType() string  { return TypePlaybackStopped }
func (Error) MessageType() string            { return TypeError }
func (u Unknown) MessageType() string        { return u.Type }

func (e Error) Error() string { return e.Message }

// Decode parses one server message. Unrecognised types decode to Unknown.
func Decode(data []byte) (Inbound, error) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}

	switch env.Type {
	case TypeInit:
		return decodeAs[Init](data)
	case TypeStatus:
		return decodeAs[Status](data)
	case TypeCalibrated:
		return decodeAs[Calibrated](data)
	case TypeFingers:
		return decodeAs[Fingers](data)
	case TypePresetChanged:
		return decodeAs[PresetChanged](data)
	case TypeMappingUpdated:
		return decodeAs[MappingUpdated](data)
	case TypeThresholdChanged:
		return ThresholdChanged{}, nil
	case TypeModeChanged:
		return decodeAs[ModeChanged](data)
	case TypeTutorialStarted:
		return decodeAs[TutorialStarted](data)
	case TypeTutorialProgress:
		return decodeAs[TutorialProgress](data)
	case TypeTutorialComplete:
		return decodeAs[TutorialComplete](data)
	case TypeTutorialReset:
		return decodeAs[TutorialReset](data)
	case TypeRecordingStarted:
		return RecordingStarted{}, nil
	case TypeRecordingStopped:
		return decodeAs[RecordingStopped](data)
	case TypePlaybackStopped:
		return PlaybackStopped{}, nil
	case TypeError:
		return decodeAs[Error](data)
	default:
		return Unknown{Type: env.Type, Raw: json.RawMessage(data)}, nil
	}
}

func decodeAs[T Inbound](data []byte) (Inbound, error) {
	var msg T
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("decode %s: %w", msg.MessageType(), err)
	}
	return msg, nil
}

// Command is an outbound request. Only the fields relevant to Type are set.
type Command struct {
	Type      string             `json:"type"`
	Preset    string             `json:"preset,omitempty"`
	Tutorial  string             `json:"tutorial,omitempty"`
	Mode      string             `json:"mode,omitempty"`
	Finger    recording.Finger   `json:"finger,omitempty"`
	Sound     string             `json:"sound,omitempty"`
	SoundType string             `json:"sound_type,omitempty"`
	Value     *float64           `json:"value,omitempty"`
	Recording *PlaybackRecording `json:"recording,omitempty"`
}

// PlaybackRecording is the body of a playback command
type PlaybackRecording struct {
	Events []recording.Event `json:"events"`
	Preset string            `json:"preset"`
}

func Connect() Command        { return Command{Type: "connect"} }
func Disconnect() Command     { return Command{Type: "disconnect"} }
func Calibrate() Command      { return Command{Type: "calibrate"} }
func ResetTutorial() Command  { return Command{Type: "reset_tutorial"} }
func StartRecording() Command { return Command{Type: "start_recording"} }
func StopRecording() Command  { return Command{Type: "stop_recording"} }
func StopPlayback() Command   { return Command{Type: "stop_playback"} }

func SetPreset(preset string) Command {
	return Command{Type: "set_preset", Preset: preset}
}

func SetMode(mode string) Command {
	return Command{Type: "set_mode", Mode: mode}
}

func StartTutorial(id string) Command {
	return Command{Type: "start_tutorial", Tutorial: id}
}

// Audition asks the server to sound one finger's mapping
func Audition(f recording.Finger) Command {
	return Command{Type: "test_sound", Finger: f}
}

func SetThreshold(v float64) Command {
	return Command{Type: "set_threshold", Value: &v}
}

// SetMapping is the mapping-edit command: finger, encoded identifier and its kind
func SetMapping(f recording.Finger, s sound.Sound) Command {
	return Command{Type: "set_mapping", Finger: f, Sound: s.String(), SoundType: string(s.Kind)}
}

// Playback asks the server to play rec's events with its preset
func Playback(rec recording.Recording) Command {
	events := rec.Snapshot()
	if events == nil {
		events = []recording.Event{}
	}
	return Command{Type: "playback", Recording: &PlaybackRecording{Events: events, Preset: rec.PresetOrDefault()}}
}
