package protocol

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ripple/recording"
	"ripple/sound"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Inbound
	}{
		{"status", `{"type":"status","connected":true}`, Status{Connected: true}},
		{"fingers", `{"type":"fingers","active":["thumb","ring"]}`, Fingers{Active: []recording.Finger{recording.Thumb, recording.Ring}}},
		{"preset", `{"type":"preset_changed","preset":"drums"}`, PresetChanged{Preset: "drums"}},
		{"threshold", `{"type":"threshold_changed"}`, ThresholdChanged{}},
		{"progress", `{"type":"tutorial_progress","step":3,"next_finger":"middle"}`, TutorialProgress{Step: 3, NextFinger: recording.Middle}},
		{"playback stopped", `{"type":"playback_stopped"}`, PlaybackStopped{}},
		{"error", `{"type":"error","message":"no device"}`, Error{Message: "no device"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode([]byte(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeInit(t *testing.T) {
	input := `{"type":"init","presets":{"piano":{"name":"Piano","mapping":{"thumb":"C_oct4"},"instrument":"piano"}},
		"tutorials":{"scale":{"name":"Scale","difficulty":"easy","length":5}},
		"state":{"connected":false,"calibrated":false,"current_preset":"piano"}}`

	got, err := Decode([]byte(input))
	require.NoError(t, err)
	hello, ok := got.(Init)
	require.True(t, ok)
	assert.Equal(t, "C_oct4", hello.Presets["piano"].Mapping[recording.Thumb])
	assert.Equal(t, 5, hello.Tutorials["scale"].Length)
	assert.Equal(t, "piano", hello.State.CurrentPreset)
}

func TestDecodeRecordingStopped(t *testing.T) {
	input := `{"type":"recording_stopped","recording":{"events":[{"time":0.4,"fingers":["thumb"],"sounds":[{"finger":"thumb","sound":"C_oct4"}]}],"duration":1.2}}`

	got, err := Decode([]byte(input))
	require.NoError(t, err)
	msg := got.(RecordingStopped)
	require.Len(t, msg.Recording.Events, 1)
	assert.Equal(t, "C_oct4", msg.Recording.Events[0].Sound(recording.Thumb))
	assert.Equal(t, 1.2, msg.Recording.Duration)
}

func TestDecodeUnknownAndMalformed(t *testing.T) {
	got, err := Decode([]byte(`{"type":"firmware","v":2}`))
	require.NoError(t, err)
	assert.Equal(t, "firmware", got.MessageType())
	assert.IsType(t, Unknown{}, got)

	_, err = Decode([]byte(`not json`))
	assert.Error(t, err)

	_, err = Decode([]byte(`{"type":"fingers","active":"thumb"}`))
	assert.Error(t, err)
}

func TestMappingUpdatedFallsBackToChord(t *testing.T) {
	got, err := Decode([]byte(`{"type":"mapping_updated","finger":"index","chord":"Am"}`))
	require.NoError(t, err)
	assert.Equal(t, "Am", got.(MappingUpdated).Identifier())
}

func encode(t *testing.T, cmd Command) map[string]any {
	t.Helper()
	data, err := json.Marshal(cmd)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func TestCommandShapes(t *testing.T) {
	assert.Equal(t, map[string]any{"type": "connect"}, encode(t, Connect()))
	assert.Equal(t, map[string]any{"type": "set_threshold", "value": 0.0}, encode(t, SetThreshold(0)))
	assert.Equal(t, map[string]any{"type": "test_sound", "finger": "pinky"}, encode(t, Audition(recording.Pinky)))

	chord := sound.Sound{Kind: sound.KindChord, Base: "C_maj", Octave: 4, Inversion: 1}
	assert.Equal(t, map[string]any{
		"type":       "set_mapping",
		"finger":     "index",
		"sound":      "C_maj_inv1_oct4",
		"sound_type": "chord",
	}, encode(t, SetMapping(recording.Index, chord)))
}

func TestPlaybackCommand(t *testing.T) {
	e, err := recording.NewEvent(1, map[recording.Finger]string{recording.Thumb: "kick"})
	require.NoError(t, err)
	rec := recording.New([]recording.Event{e}, 5)

	out := encode(t, Playback(rec))
	body := out["recording"].(map[string]any)
	assert.Equal(t, "piano", body["preset"])
	assert.Len(t, body["events"], 1)

	out = encode(t, Playback(recording.Recording{Preset: "drums"}))
	body = out["recording"].(map[string]any)
	assert.Equal(t, []any{}, body["events"])
	assert.Equal(t, "drums", body["preset"])
}

// fakeServer sends init on connect, forwards every command to received and
// answers stop_playback with playback_stopped.
func fakeServer(t *testing.T, received chan<- Command) *httptest.Server {
	upgrader := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		conn.WriteJSON(map[string]any{"type": "init", "state": map[string]any{"connected": true, "current_preset": "piano"}})
		for {
			var cmd Command
			if err := conn.ReadJSON(&cmd); err != nil {
				return
			}
			received <- cmd
			if cmd.Type == "stop_playback" {
				conn.WriteJSON(map[string]any{"type": "playback_stopped"})
			}
		}
	}))
}

func wsURL(s *httptest.Server) string {
	return "ws" + strings.TrimPrefix(s.URL, "http")
}

func next(t *testing.T, c *Client) Inbound {
	t.Helper()
	select {
	case msg, ok := <-c.Inbound():
		require.True(t, ok, "inbound closed")
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
		return nil
	}
}

func TestClientRoundTrip(t *testing.T) {
	received := make(chan Command, 4)
	srv := fakeServer(t, received)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c, err := Dial(ctx, wsURL(srv))
	require.NoError(t, err)
	defer c.Close()

	hello, ok := next(t, c).(Init)
	require.True(t, ok)
	assert.True(t, hello.State.Connected)

	require.NoError(t, c.Send(SetPreset("drums")))
	require.NoError(t, c.Send(StopPlayback()))

	assert.Equal(t, SetPreset("drums"), <-received)
	assert.Equal(t, "stop_playback", (<-received).Type)
	assert.IsType(t, PlaybackStopped{}, next(t, c))
}

func TestClientClosedDropsSends(t *testing.T) {
	srv := fakeServer(t, make(chan Command, 4))
	defer srv.Close()

	c, err := Dial(context.Background(), wsURL(srv))
	require.NoError(t, err)
	require.NoError(t, c.Close())

	assert.False(t, c.Open())
	assert.ErrorIs(t, c.Send(Connect()), ErrClosed)

	select {
	case <-c.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("read loop did not exit")
	}
}

func TestClientStopsOnContextCancel(t *testing.T) {
	srv := fakeServer(t, make(chan Command, 4))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	c, err := Dial(ctx, wsURL(srv))
	require.NoError(t, err)

	cancel()
	select {
	case <-c.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("read loop did not exit after cancel")
	}
	assert.False(t, c.Open())
}

func TestDialFailure(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err := Dial(ctx, "ws://127.0.0.1:1/ws")
	assert.Error(t, err)
}
