package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"ripple/protocol"
	"ripple/recording"
)

// UpdateMsg asks for a redraw after playback progress
type UpdateMsg struct{}

// StopwatchMsg asks for a redraw of the recording timer
type StopwatchMsg struct{}

type connectedMsg struct{ client *protocol.Client }

type connectErrMsg struct{ err error }

type inboundMsg struct{ msg protocol.Inbound }

type socketClosedMsg struct{ client *protocol.Client }

type frameMsg []recording.Finger

type keyboardClosedMsg struct{}

func ListenForUpdates(updates <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		<-updates
		return UpdateMsg{}
	}
}

func listenStopwatch(updates <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		<-updates
		return StopwatchMsg{}
	}
}

func dial(ctx context.Context, url string) tea.Cmd {
	return func() tea.Msg {
		c, err := protocol.Dial(ctx, url)
		if err != nil {
			return connectErrMsg{err}
		}
		return connectedMsg{c}
	}
}

func listenInbound(c *protocol.Client) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-c.Inbound()
		if !ok {
			return socketClosedMsg{c}
		}
		return inboundMsg{msg}
	}
}

func listenFrames(frames <-chan []recording.Finger) tea.Cmd {
	return func() tea.Msg {
		f, ok := <-frames
		if !ok {
			return keyboardClosedMsg{}
		}
		return frameMsg(f)
	}
}
