package midi

import (
	"errors"
	"slices"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"
)

// PortsTimeout bounds a port scan. CoreMIDI can hang; the fix is
// `sudo killall coreaudiod midiserver`.
const PortsTimeout = 3 * time.Second

// ErrPortsTimeout is returned when the driver does not answer in time
var ErrPortsTimeout = errors.New("midi driver did not respond")

// PortList holds port names
type PortList struct {
	In  []string
	Out []string
}

// Equal reports whether both lists name the same ports
func (p PortList) Equal(o PortList) bool {
	return slices.Equal(p.In, o.In) && slices.Equal(p.Out, o.Out)
}

func driverPorts() PortList {
	var pl PortList
	for _, p := range gomidi.GetInPorts() {
		pl.In = append(pl.In, p.String())
	}
	for _, p := range gomidi.GetOutPorts() {
		pl.Out = append(pl.Out, p.String())
	}
	return pl
}

// Ports lists the available ports
func Ports() (PortList, error) {
	return scanPorts(driverPorts, PortsTimeout)
}

func scanPorts(list func() PortList, timeout time.Duration) (PortList, error) {
	ch := make(chan PortList, 1)
	go func() {
		ch <- list()
	}()

	select {
	case pl := <-ch:
		return pl, nil
	case <-time.After(timeout):
		return PortList{}, ErrPortsTimeout
	}
}

// CloseDriver releases the registered driver
func CloseDriver() {
	gomidi.CloseDriver()
}
