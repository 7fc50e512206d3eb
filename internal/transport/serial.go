// Package transport opens the serial link to the fan controller, or an
// in-process simulation of it.
package transport

import (
	"errors"
	"fmt"
	"time"

	"dt_fancontrol/internal/session"

	"go.bug.st/serial"
)

// BaudRate of the controller firmware.
const BaudRate = 57600

// DefaultReadTimeout is the per-read timeout used when none is configured.
const DefaultReadTimeout = 250 * time.Millisecond

// SerialOpener opens real ports at 57600 8N1.
type SerialOpener struct {
	ReadTimeout time.Duration
}

// Open opens port and arms the read timeout so a stopping session
// never waits on the wire for long.
func (o SerialOpener) Open(port string) (session.Transport, error) {
	mode := &serial.Mode{
		BaudRate: BaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	p, err := serial.Open(port, mode)
	if err != nil {
		return nil, classifyOpenError(port, err)
	}

	timeout := o.ReadTimeout
	if timeout <= 0 {
		timeout = DefaultReadTimeout
	}
	if err := p.SetReadTimeout(timeout); err != nil {
		_ = p.Close()
		return nil, &session.PortOpenError{Port: port, Kind: session.PortOpenFailed, Err: fmt.Errorf("set read timeout: %w", err)}
	}
	// drop whatever the controller printed before we were listening
	_ = p.ResetInputBuffer()
	return p, nil
}

// ListPorts returns the serial ports visible to the OS right now.
func ListPorts() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("list serial ports: %w", err)
	}
	return ports, nil
}

func classifyOpenError(port string, err error) *session.PortOpenError {
	kind := session.PortOpenFailed
	var perr *serial.PortError
	if errors.As(err, &perr) {
		switch perr.Code() {
		case serial.PortBusy:
			kind = session.PortBusy
		case serial.PortNotFound:
			kind = session.PortNotFound
		case serial.PermissionDenied:
			kind = session.PortDenied
		case serial.InvalidSerialPort:
			kind = session.PortInvalid
		}
	}
	return &session.PortOpenError{Port: port, Kind: kind, Err: err}
}

// Opener routes the simulated port name to the simulator and everything
// else to the serial driver.
type Opener struct {
	Serial session.Opener
	Sim    *SimOpener // nil disables simulation
}

func (o *Opener) Open(port string) (session.Transport, error) {
	if o.Sim != nil && port == SimPort {
		return o.Sim.Open(port)
	}
	if o.Serial == nil {
		return nil, &session.PortOpenError{Port: port, Kind: session.PortNotFound, Err: errors.New("no serial driver configured")}
	}
	return o.Serial.Open(port)
}
