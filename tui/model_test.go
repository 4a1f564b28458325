package tui

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ripple/midi"
	"ripple/protocol"
	"ripple/recording"
	"ripple/session"
	"ripple/store"
	"ripple/widgets"
)

type fakeSender struct {
	mu   sync.Mutex
	sent []protocol.Command
}

func (f *fakeSender) Send(cmd protocol.Command) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, cmd)
	return nil
}

func (f *fakeSender) last() protocol.Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		return protocol.Command{}
	}
	return f.sent[len(f.sent)-1]
}

func newTestModel(t *testing.T) (Model, *fakeSender, *store.Library) {
	t.Helper()
	sender := &fakeSender{}
	ctrl := session.NewController(nil, time.Millisecond)
	ctrl.SetSender(sender)
	t.Cleanup(ctrl.Close)

	lib, err := store.Open(store.NewJSONBackend(filepath.Join(t.TempDir(), "recs.json")))
	require.NoError(t, err)
	t.Cleanup(func() { lib.Close() })

	m := NewModel(Options{Controller: ctrl, Library: lib})
	m.width = 80
	return m, sender, lib
}

func press(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func send(m Model, msgs ...tea.Msg) Model {
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		m = next.(Model)
	}
	return m
}

func performance(t *testing.T, times ...float64) recording.Recording {
	t.Helper()
	var r recording.Recording
	for _, tm := range times {
		e, err := recording.NewEvent(tm, map[recording.Finger]string{recording.Thumb: "C_oct4"})
		require.NoError(t, err)
		r.Insert(e)
	}
	return r
}

func TestServerRecordingOpensSaveModal(t *testing.T) {
	m, sender, lib := newTestModel(t)
	m.client = &protocol.Client{}

	m = send(m, press("r"))
	assert.Equal(t, "start_recording", sender.last().Type)

	m = send(m,
		inboundMsg{protocol.RecordingStarted{}},
		inboundMsg{protocol.RecordingStopped{Recording: performance(t, 0.5, 1.5)}},
	)
	require.Equal(t, modalSaveNew, m.modal)

	m = send(m, press("enter"))
	assert.Equal(t, modalSaveNew, m.modal, "blank names are refused")
	assert.NotEmpty(t, m.modalErr)
	assert.Equal(t, 0, lib.Len())

	m = send(m, press("evening"), press("enter"))
	assert.Equal(t, modalNone, m.modal)
	require.Equal(t, 1, lib.Len())
	assert.Equal(t, "evening", lib.List()[0].Name)
	assert.Len(t, lib.List()[0].Events, 2)
}

func TestEmptyServerRecordingIsDropped(t *testing.T) {
	m, _, _ := newTestModel(t)
	m.client = &protocol.Client{}
	m = send(m, inboundMsg{protocol.RecordingStopped{Recording: recording.Recording{Duration: 4}}})
	assert.Equal(t, modalNone, m.modal)
}

func TestLocalCaptureFromKeyboard(t *testing.T) {
	m, sender, lib := newTestModel(t)
	m.keyboard = midi.NewKeyboard()
	defer m.keyboard.Close()

	m = send(m, press("r"))
	assert.True(t, m.capture.Running())
	assert.Empty(t, sender.last().Type, "nothing goes to the server")

	m = send(m, frameMsg{recording.Thumb}, frameMsg{recording.Thumb, recording.Ring}, press("r"))
	assert.False(t, m.capture.Running())
	require.Equal(t, modalSaveNew, m.modal)
	require.Len(t, m.pending.Events, 2)
	assert.Equal(t, "F", m.pending.Events[1].Sound(recording.Ring))

	m = send(m, press("esc"))
	assert.Equal(t, modalNone, m.modal)
	assert.Equal(t, 0, lib.Len())
}

func TestLocalCaptureWithoutFramesIsDiscarded(t *testing.T) {
	m, _, _ := newTestModel(t)
	m.keyboard = midi.NewKeyboard()
	defer m.keyboard.Close()

	m = send(m, press("r"), press("r"))
	assert.Equal(t, modalNone, m.modal)
	assert.NotEmpty(t, m.notice)
}

func TestPlaybackNeedsConnection(t *testing.T) {
	m, sender, lib := newTestModel(t)
	rec, err := lib.Add("scale", performance(t, 1, 2))
	require.NoError(t, err)

	m = send(m, press("l"), press("enter"))
	assert.Contains(t, m.notice, "not connected")
	assert.Empty(t, sender.last().Type)

	m = send(m, press("j")) // dismisses the notice
	assert.Empty(t, m.notice)

	m.ctrl.Handle(protocol.Status{Connected: true})
	m = send(m, press("enter"))
	assert.Empty(t, m.notice)
	assert.Equal(t, "playback", sender.last().Type)
	assert.True(t, m.ctrl.Playback.Playing(rec.ID))
	assert.Contains(t, m.View(), "scale")

	m = send(m, press("enter"))
	assert.Equal(t, "stop_playback", sender.last().Type)
}

func openEditor(t *testing.T, m Model, lib *store.Library) (Model, recording.Recording) {
	t.Helper()
	rec, err := lib.Add("warmup", performance(t, 1, 2, 3))
	require.NoError(t, err)
	m = send(m, press("l"), press("e"))
	require.Equal(t, screenEditor, m.screen)
	return m, rec
}

func TestEditorNudgeAndSave(t *testing.T) {
	m, _, lib := newTestModel(t)
	m, rec := openEditor(t, m, lib)

	m = send(m, press("right"), press("l"))
	sel, ok := m.editor.Selected()
	require.True(t, ok)
	assert.Equal(t, rec.Events[0].ID, sel.ID)
	assert.InDelta(t, 1.1, sel.Time, 1e-9)
	assert.True(t, m.editor.Dirty())

	m = send(m, press("s"))
	assert.False(t, m.editor.Dirty())
	saved, err := lib.Get(rec.ID)
	require.NoError(t, err)
	assert.InDelta(t, 1.1, saved.Events[0].Time, 1e-9)

	sel, ok = m.editor.Selected()
	require.True(t, ok, "selection survives saving")
	assert.Equal(t, rec.Events[0].ID, sel.ID)
}

func TestEditorDeleteAndLeave(t *testing.T) {
	m, _, lib := newTestModel(t)
	m, rec := openEditor(t, m, lib)

	m = send(m, press("right"), press("x"))
	assert.Len(t, m.editor.Events(), 2)
	_, ok := m.editor.Selected()
	assert.False(t, ok)

	m = send(m, press("esc"))
	assert.Equal(t, screenRecordings, m.screen)
	assert.Nil(t, m.editor)

	saved, err := lib.Get(rec.ID)
	require.NoError(t, err)
	assert.Len(t, saved.Events, 3, "unsaved edits are dropped")
}

func TestEditorRenameThroughModal(t *testing.T) {
	m, _, lib := newTestModel(t)
	m, rec := openEditor(t, m, lib)

	m = send(m, press("n"))
	require.Equal(t, modalSaveEdit, m.modal)
	assert.Equal(t, "warmup", m.input.Value())

	m.input.SetValue("  ")
	m = send(m, press("enter"))
	assert.Equal(t, modalSaveEdit, m.modal)
	assert.NotEmpty(t, m.modalErr)

	m.input.SetValue("cooldown")
	m = send(m, press("enter"))
	assert.Equal(t, modalNone, m.modal)
	saved, err := lib.Get(rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "cooldown", saved.Name)
}

func TestEditorMouseDrag(t *testing.T) {
	m, _, lib := newTestModel(t)
	m, rec := openEditor(t, m, lib)

	// scale 8: the event at 1s sits 8 cells into the thumb lane
	m = send(m,
		tea.MouseMsg{X: widgets.LaneLabelWidth + 8, Y: editorLaneTop, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft},
		tea.MouseMsg{X: widgets.LaneLabelWidth + 36, Y: editorLaneTop, Action: tea.MouseActionMotion, Button: tea.MouseButtonLeft},
		tea.MouseMsg{X: widgets.LaneLabelWidth + 36, Y: editorLaneTop, Action: tea.MouseActionRelease, Button: tea.MouseButtonLeft},
	)

	sel, ok := m.editor.Selected()
	require.True(t, ok)
	assert.Equal(t, rec.Events[0].ID, sel.ID)
	assert.InDelta(t, 4.5, sel.Time, 1e-9)
	assert.Equal(t, 2, m.editor.SelectedIndex(), "dragged past the others")
	assert.Empty(t, m.dragging)

	// clicking empty space clears the selection
	m = send(m, tea.MouseMsg{X: widgets.LaneLabelWidth + 2, Y: editorLaneTop, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	_, ok = m.editor.Selected()
	assert.False(t, ok)
}

func TestPickerAssignsChord(t *testing.T) {
	m, sender, _ := newTestModel(t)

	m = send(m, press("s"))
	require.Equal(t, screenPicker, m.screen)
	assert.Equal(t, "C_oct4", m.picker.Sound().String())

	m = send(m, press("tab"), press("i"), press("enter"))
	cmd := sender.last()
	assert.Equal(t, "set_mapping", cmd.Type)
	assert.Equal(t, recording.Thumb, cmd.Finger)
	assert.Equal(t, "C_maj_inv1_oct4", cmd.Sound)
	assert.Equal(t, "C_maj_inv1_oct4", m.customMapping()[recording.Thumb])

	m = send(m, press("right"))
	assert.Equal(t, recording.Index, m.picker.Finger())
	assert.Equal(t, "D_oct4", m.picker.Sound().String())

	m = send(m, press("esc"))
	assert.Equal(t, screenPlay, m.screen)
}

func TestPlayScreenCommands(t *testing.T) {
	m, sender, _ := newTestModel(t)

	m = send(m, press("]"))
	assert.Equal(t, protocol.SetPreset("chords"), sender.last())
	assert.Equal(t, "chords", m.ctrl.State.CurrentPreset)

	m = send(m, press("["), press("["))
	assert.Equal(t, "therapy", m.ctrl.State.CurrentPreset)

	m = send(m, press("3"))
	assert.Equal(t, protocol.Audition(recording.Middle), sender.last())

	m = send(m, press("k"))
	assert.Equal(t, "calibrate", sender.last().Type)

	m = send(m, press("+"))
	assert.InDelta(t, session.DefaultThreshold+thresholdStep, m.ctrl.State.Threshold, 1e-9)

	assert.Contains(t, m.View(), "glove offline")
}

func TestSocketClosedFromOldClientIgnored(t *testing.T) {
	m, _, _ := newTestModel(t)
	current := &protocol.Client{}
	m.client = current
	m.ctrl.Handle(protocol.Status{Connected: true})

	m = send(m, socketClosedMsg{&protocol.Client{}})
	assert.Same(t, current, m.client)

	m = send(m, socketClosedMsg{current})
	assert.Nil(t, m.client)
	assert.False(t, m.ctrl.State.Connected)
}

func TestHelpOverlay(t *testing.T) {
	m, sender, _ := newTestModel(t)
	m = send(m, press("?"))
	assert.True(t, m.help)
	assert.Contains(t, m.View(), "connect glove")

	m = send(m, press("r"))
	assert.False(t, m.help, "any key closes help")
	assert.Empty(t, sender.last().Type, "the closing key is swallowed")
}
