package session

import (
	"errors"
	"fmt"
)

var (
	ErrAlreadyConnected = errors.New("session already connected or connecting")
	ErrNotConnected     = errors.New("session not connected")
	ErrLineTooLong      = errors.New("line exceeds maximum length")
)

// PortOpenKind classifies why a port could not be opened.
type PortOpenKind string

const (
	PortBusy       PortOpenKind = "busy"
	PortNotFound   PortOpenKind = "not_found"
	PortDenied     PortOpenKind = "permission_denied"
	PortInvalid    PortOpenKind = "invalid"
	PortOpenFailed PortOpenKind = "failed"
)

// PortOpenError is returned by Connect when the transport cannot be opened.
// The session stays usable; the caller may retry.
type PortOpenError struct {
	Port string
	Kind PortOpenKind
	Err  error
}

func (e *PortOpenError) Error() string {
	return fmt.Sprintf("open port %q (%s): %v", e.Port, e.Kind, e.Err)
}

func (e *PortOpenError) Unwrap() error { return e.Err }

// TransportError ends a running session.
type TransportError struct {
	Op  string // "read" | "write"
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("serial %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ParseError reports a telemetry line that could not be decoded.
type ParseError struct {
	Line string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse telemetry %q: %v", e.Line, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
