package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"ripple/debug"
	"ripple/midi"
	"ripple/protocol"
	"ripple/recording"
	"ripple/session"
	"ripple/store"
	"ripple/theme"
	"ripple/timeline"
	"ripple/widgets"
)

type screen int

const (
	screenPlay screen = iota
	screenRecordings
	screenEditor
	screenPicker
)

// Options wires the program to the rest of the app
type Options struct {
	Controller  *session.Controller
	Library     *store.Library
	Theme       *theme.Theme
	ServerURL   string
	AutoConnect bool
	Scale       timeline.Scale // cells per second
	Keyboard    *midi.Keyboard // optional local finger source
	Output      *midi.Output   // optional local preview
}

type modalKind int

const (
	modalNone modalKind = iota
	modalSaveNew
	modalSaveEdit
)

type Model struct {
	ctrl     *session.Controller
	lib      *store.Library
	th       *theme.Theme
	url      string
	auto     bool
	scale    timeline.Scale
	keyboard *midi.Keyboard
	output   *midi.Output

	ctx    context.Context
	cancel context.CancelFunc
	client *protocol.Client

	screen    screen
	width     int
	height    int
	serverErr string
	notice    string
	quitting  bool
	help      bool

	// play
	capture     *recording.Capture
	localActive []recording.Finger

	// recordings
	cursor int

	// editor
	editor   *timeline.Editor
	scroll   int
	dragging string

	picker picker

	// save / rename
	modal    modalKind
	pending  recording.Recording
	input    textinput.Model
	modalErr string
}

func NewModel(opts Options) Model {
	th := opts.Theme
	if th == nil {
		th = theme.New(nil)
	}
	scale := opts.Scale
	if scale <= 0 {
		scale = 8
	}
	ctx, cancel := context.WithCancel(context.Background())
	return Model{
		ctrl:     opts.Controller,
		lib:      opts.Library,
		th:       th,
		url:      opts.ServerURL,
		auto:     opts.AutoConnect,
		scale:    scale,
		keyboard: opts.Keyboard,
		output:   opts.Output,
		ctx:      ctx,
		cancel:   cancel,
		capture:  recording.NewCapture(nil),
		input:    newNameInput(),
	}
}

func newNameInput() textinput.Model {
	ti := textinput.New()
	ti.Placeholder = "recording name"
	ti.Prompt = "> "
	ti.CharLimit = 40
	ti.Width = 30
	return ti
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		ListenForUpdates(m.ctrl.Playback.Updates()),
		listenStopwatch(m.ctrl.Stopwatch.Updates()),
	}
	if m.auto && m.url != "" {
		cmds = append(cmds, dial(m.ctx, m.url))
	}
	if m.keyboard != nil {
		cmds = append(cmds, listenFrames(m.keyboard.Frames()))
	}
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case UpdateMsg:
		return m, ListenForUpdates(m.ctrl.Playback.Updates())

	case StopwatchMsg:
		return m, listenStopwatch(m.ctrl.Stopwatch.Updates())

	case connectedMsg:
		m.client = msg.client
		m.serverErr = ""
		m.ctrl.SetSender(msg.client)
		return m, listenInbound(msg.client)

	case connectErrMsg:
		m.serverErr = msg.err.Error()
		return m, nil

	case inboundMsg:
		if m.client == nil {
			return m, nil
		}
		m.ctrl.Handle(msg.msg)
		if rec, ok := m.ctrl.State.TakePending(); ok {
			m.openSaveNew(rec)
		}
		if e, ok := msg.msg.(protocol.Error); ok {
			m.notice = e.Message
		}
		return m, listenInbound(m.client)

	case socketClosedMsg:
		if msg.client != m.client {
			return m, nil
		}
		m.ctrl.SocketClosed()
		m.client = nil
		m.serverErr = "connection closed"
		return m, nil

	case frameMsg:
		m.handleFrame([]recording.Finger(msg))
		return m, listenFrames(m.keyboard.Frames())

	case keyboardClosedMsg:
		m.keyboard = nil
		m.localActive = nil
		return m, nil

	case tea.MouseMsg:
		if m.screen == screenEditor && m.modal == modalNone && m.notice == "" {
			m.editorMouse(msg)
		}
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m.quit()
		}
		if m.notice != "" {
			m.notice = ""
			return m, nil
		}
		if m.modal != modalNone {
			return m.updateModal(msg)
		}
		if m.help {
			m.help = false
			return m, nil
		}
		if matches(msg, keys.Help) {
			m.help = true
			return m, nil
		}
		switch m.screen {
		case screenRecordings:
			return m.updateRecordings(msg)
		case screenEditor:
			return m.updateEditor(msg)
		case screenPicker:
			return m.updatePicker(msg)
		default:
			return m.updatePlay(msg)
		}
	}

	if m.modal != modalNone {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	m.quitting = true
	m.ctrl.Close()
	if m.client != nil {
		m.client.Close()
	}
	m.cancel()
	return m, tea.Quit
}

// fail shows err as a blocking notice
func (m *Model) fail(err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, protocol.ErrClosed):
		m.notice = "Not connected to the glove server (w to reconnect)"
	default:
		m.notice = err.Error()
	}
	debug.L().Info("notice", zap.Error(err))
}

func (m *Model) handleFrame(fingers []recording.Finger) {
	m.localActive = fingers
	mapping := m.ctrl.State.Mapping()
	m.capture.Frame(fingers, mapping)

	if m.output == nil || len(fingers) == 0 {
		return
	}
	sounds := make(map[recording.Finger]string, len(fingers))
	for _, f := range fingers {
		sounds[f] = mapping[f]
	}
	if e, err := recording.NewEvent(0, sounds); err == nil {
		m.output.Play(recording.New([]recording.Event{e}, 0))
	}
}

func (m *Model) openSaveNew(rec recording.Recording) {
	m.modal = modalSaveNew
	m.pending = rec
	m.modalErr = ""
	m.input.SetValue("")
	m.input.Focus()
}

func (m *Model) openSaveEdit() {
	m.modal = modalSaveEdit
	m.modalErr = ""
	m.input.SetValue(m.editor.Recording().Name)
	m.input.CursorEnd()
	m.input.Focus()
}

func (m *Model) closeModal() {
	m.modal = modalNone
	m.pending = recording.Recording{}
	m.input.Blur()
	m.input.Reset()
}

func (m Model) updateModal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.closeModal()
		return m, nil
	case "enter":
		name := m.input.Value()
		var err error
		if m.modal == modalSaveNew {
			_, err = m.lib.Add(name, m.pending)
		} else {
			err = m.saveEditor(name)
		}
		if errors.Is(err, recording.ErrEmptyName) {
			m.modalErr = "A name is required"
			return m, nil
		}
		m.closeModal()
		m.fail(err)
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var body string
	switch m.screen {
	case screenRecordings:
		body = m.viewRecordings()
	case screenEditor:
		body = m.viewEditor()
	case screenPicker:
		body = m.viewPicker()
	default:
		body = m.viewPlay()
	}

	switch {
	case m.help:
		body += "\n\n" + m.box(widgets.RenderKeyHelp(helpSections(m.screen))+"\n\n(any key)", m.th.Muted())
	case m.notice != "":
		body += "\n\n" + m.box(m.notice+"\n\n(any key)", m.th.Warning())
	case m.modal != modalNone:
		title := "Save recording"
		if m.modal == modalSaveEdit {
			title = "Save changes"
		}
		content := title + "\n\n" + m.input.View()
		if m.modalErr != "" {
			content += "\n" + lipgloss.NewStyle().Foreground(m.th.Warning()).Render(m.modalErr)
		}
		content += "\n\n" + helpLine(Key("save", "enter"), Key("cancel", "esc"))
		body += "\n\n" + m.box(content, m.th.Accent())
	}
	return body
}

func (m Model) box(content string, border lipgloss.Color) string {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(0, 2).
		Render(content)
}

func (m Model) header(title string) string {
	server := "server offline"
	if m.client != nil {
		server = "server online"
	}
	style := lipgloss.NewStyle().Foreground(m.th.Accent()).Bold(true)
	dim := lipgloss.NewStyle().Foreground(m.th.Muted())
	return style.Render("ripple  "+title) + dim.Render(fmt.Sprintf("  [%s]", server))
}

func (m Model) dim(s string) string {
	return lipgloss.NewStyle().Foreground(m.th.Muted()).Render(s)
}

func joinLines(lines ...string) string {
	return strings.Join(lines, "\n")
}
