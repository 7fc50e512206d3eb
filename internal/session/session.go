// Package session runs the one serial session to the fan controller:
// open, stream telemetry lines, transmit curve commands on request, close.
package session

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"dt_fancontrol/internal/logger"
	"dt_fancontrol/internal/metrics"
	"dt_fancontrol/internal/models"
	"dt_fancontrol/internal/protocol"
)

const (
	// DefaultSettleDelay is how long the worker waits after writing a
	// command before it reads telemetry again.
	DefaultSettleDelay = 800 * time.Millisecond
	// DefaultStopGrace bounds how long Disconnect waits for the worker to exit.
	DefaultStopGrace = 2 * time.Second
)

// ErrConnectAborted is returned by Connect when Disconnect or the caller's
// context ended the attempt before the port was up.
var ErrConnectAborted = errors.New("connect aborted")

// Transport is an open serial link. Read must return (0, nil) when its
// read timeout expires and must unblock when Close is called.
type Transport interface {
	io.ReadWriteCloser
}

// Opener opens a transport by port name.
type Opener interface {
	Open(port string) (Transport, error)
}

// Options tune a Session. Zero values fall back to defaults.
type Options struct {
	SettleDelay   time.Duration
	StopGrace     time.Duration
	SkipMalformed bool
	Logger        *logger.Logger
}

// Session owns at most one worker at a time.
type Session struct {
	opener Opener
	state  *State
	opts   Options
	log    *logger.Logger

	mu       sync.Mutex // serializes lifecycle transitions; never held across I/O
	link     *link
	aborting bool

	hooksMu     sync.RWMutex
	onSample    []func(models.TelemetrySample)
	onMalformed []func(*ParseError)
	onExit      []func(port string, err error)
}

// link is one open connection and its worker.
type link struct {
	port      string
	t         Transport
	cancel    context.CancelFunc
	done      chan struct{}
	stopped   atomic.Bool
	closeOnce sync.Once
}

func (l *link) close() {
	l.closeOnce.Do(func() { _ = l.t.Close() })
}

// New builds a disconnected session around state.
func New(opener Opener, state *State, opts Options) *Session {
	if opts.SettleDelay <= 0 {
		opts.SettleDelay = DefaultSettleDelay
	}
	if opts.StopGrace <= 0 {
		opts.StopGrace = DefaultStopGrace
	}
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	return &Session{opener: opener, state: state, opts: opts, log: log}
}

// State exposes the shared cell.
func (s *Session) State() *State { return s.state }

// OnSample registers fn to run on the worker for every parsed sample.
func (s *Session) OnSample(fn func(models.TelemetrySample)) {
	s.hooksMu.Lock()
	defer s.hooksMu.Unlock()
	s.onSample = append(s.onSample, fn)
}

// OnMalformed registers fn for lines skipped under SkipMalformed.
func (s *Session) OnMalformed(fn func(*ParseError)) {
	s.hooksMu.Lock()
	defer s.hooksMu.Unlock()
	s.onMalformed = append(s.onMalformed, fn)
}

// OnExit registers fn to run when a worker ends; err is nil after Disconnect.
func (s *Session) OnExit(fn func(port string, err error)) {
	s.hooksMu.Lock()
	defer s.hooksMu.Unlock()
	s.onExit = append(s.onExit, fn)
}

// Connect opens port and starts the worker. It is rejected while a session
// is connecting or connected; after a failure it may be called again.
func (s *Session) Connect(ctx context.Context, port string) error {
	s.mu.Lock()
	switch s.state.Connection() {
	case models.Connecting, models.Connected:
		s.mu.Unlock()
		return ErrAlreadyConnected
	}
	s.state.SetConnection(models.Connecting, port, nil)
	s.state.resetSample()
	s.aborting = false
	s.mu.Unlock()

	t, err := s.open(ctx, port)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		perr := asPortOpenError(port, err)
		s.state.SetConnection(models.Failed, port, perr)
		metrics.PortOpenFailures.WithLabelValues(string(perr.Kind)).Inc()
		s.log.Warnw("session_open_failed", "port", port, "kind", perr.Kind, "err", perr.Err)
		return perr
	}
	if s.aborting || ctx.Err() != nil {
		s.aborting = false
		_ = t.Close()
		s.state.SetConnection(models.Disconnected, "", nil)
		return ErrConnectAborted
	}

	wctx, cancel := context.WithCancel(context.Background())
	l := &link{port: port, t: t, cancel: cancel, done: make(chan struct{})}
	s.link = l
	s.state.SetConnection(models.Connected, port, nil)
	metrics.SessionConnected.Set(1)
	s.log.Infow("session_connected", "port", port)

	go s.run(wctx, l)
	return nil
}

func (s *Session) open(ctx context.Context, port string) (Transport, error) {
	if err := ctx.Err(); err != nil {
		return nil, &PortOpenError{Port: port, Kind: PortOpenFailed, Err: err}
	}
	return s.opener.Open(port)
}

// Disconnect stops the worker and waits for it to release the transport.
// If the worker does not stop within the grace period, or ctx ends first,
// the transport is closed underneath it to unblock the pending read.
func (s *Session) Disconnect(ctx context.Context) error {
	s.mu.Lock()
	if s.state.Connection() == models.Connecting {
		s.aborting = true
		s.mu.Unlock()
		return nil
	}
	l := s.link
	s.mu.Unlock()
	if l == nil {
		return ErrNotConnected
	}

	l.stopped.Store(true)
	l.cancel()

	grace := time.NewTimer(s.opts.StopGrace)
	defer grace.Stop()
	select {
	case <-l.done:
		return nil
	case <-grace.C:
		s.log.Warnw("session_stop_slow", "port", l.port, "grace", s.opts.StopGrace)
	case <-ctx.Done():
	}
	l.close()
	<-l.done
	return nil
}

// Send makes p the params in force and schedules their transmission.
func (s *Session) Send(p models.CurveParameters) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Connection() != models.Connected {
		return ErrNotConnected
	}
	return s.state.RequestSend(p)
}

func (s *Session) run(ctx context.Context, l *link) {
	defer close(l.done)

	err := s.loop(ctx, l)
	l.close()
	if l.stopped.Load() {
		// reads fail once the port is closed under a stopping worker
		err = nil
	}

	s.mu.Lock()
	s.link = nil
	if err != nil {
		s.state.SetConnection(models.Failed, l.port, err)
	} else {
		s.state.SetConnection(models.Disconnected, "", nil)
	}
	s.mu.Unlock()
	metrics.SessionConnected.Set(0)

	if err != nil {
		metrics.SessionFailures.WithLabelValues(failureKind(err)).Inc()
		s.log.Errorw("session_failed", "port", l.port, "err", err)
	} else {
		s.log.Infow("session_disconnected", "port", l.port)
	}

	s.hooksMu.RLock()
	hooks := s.onExit
	s.hooksMu.RUnlock()
	for _, fn := range hooks {
		fn(l.port, err)
	}
}

func (s *Session) loop(ctx context.Context, l *link) error {
	lines := newLineReader(l.t)
	for {
		if ctx.Err() != nil {
			return nil
		}

		if params, seq, ok := s.state.PendingCommand(); ok {
			if err := s.transmit(ctx, l, params, seq); err != nil {
				return err
			}
			continue
		}

		line, ok, err := lines.ReadLine()
		switch {
		case errors.Is(err, ErrLineTooLong):
			if perr := s.malformed(&ParseError{Err: err}); perr != nil {
				return perr
			}
			continue
		case err != nil:
			if ctx.Err() != nil {
				return nil
			}
			return &TransportError{Op: "read", Err: err}
		case !ok:
			continue
		}

		sample, err := protocol.ParseTelemetry(line)
		if err != nil {
			if perr := s.malformed(&ParseError{Line: line, Err: err}); perr != nil {
				return perr
			}
			continue
		}
		sample.ReceivedAt = time.Now().UTC()
		s.state.RecordSample(sample)
		s.emit(sample)
	}
}

// transmit writes one command and holds off reading for the settle delay.
func (s *Session) transmit(ctx context.Context, l *link, p models.CurveParameters, seq uint64) error {
	cmd := protocol.EncodeCommand(p)
	n, err := l.t.Write([]byte(cmd))
	if err == nil && n < len(cmd) {
		err = io.ErrShortWrite
	}
	if err != nil {
		return &TransportError{Op: "write", Err: err}
	}
	metrics.CommandsSent.Inc()
	s.log.Infow("command_sent", "port", l.port, "command", protocol.TrimTerminator(cmd))

	settle := time.NewTimer(s.opts.SettleDelay)
	defer settle.Stop()
	select {
	case <-ctx.Done():
	case <-settle.C:
	}
	s.state.ClearPending(seq)
	return nil
}

// malformed returns perr when malformed lines end the session.
func (s *Session) malformed(perr *ParseError) error {
	metrics.MalformedLines.Inc()
	if !s.opts.SkipMalformed {
		return perr
	}
	s.log.Warnw("telemetry_line_skipped", "line", perr.Line, "err", perr.Err)

	s.hooksMu.RLock()
	hooks := s.onMalformed
	s.hooksMu.RUnlock()
	for _, fn := range hooks {
		fn(perr)
	}
	return nil
}

func (s *Session) emit(sample models.TelemetrySample) {
	metrics.TelemetryLines.Inc()
	metrics.WaterTemperature.Set(sample.WaterTemp)
	metrics.AmbientTemperature.Set(sample.AmbientTemp)
	metrics.FanDuty.Set(sample.FanDuty)

	s.hooksMu.RLock()
	hooks := s.onSample
	s.hooksMu.RUnlock()
	for _, fn := range hooks {
		fn(sample)
	}
}

func asPortOpenError(port string, err error) *PortOpenError {
	var perr *PortOpenError
	if errors.As(err, &perr) {
		return perr
	}
	return &PortOpenError{Port: port, Kind: PortOpenFailed, Err: err}
}

func failureKind(err error) string {
	var perr *ParseError
	if errors.As(err, &perr) {
		return "parse"
	}
	var terr *TransportError
	if errors.As(err, &terr) {
		return terr.Op
	}
	return "other"
}
