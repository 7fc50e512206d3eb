package transport

import (
	"bytes"
	"errors"
	"sync"
	"time"

	"dt_fancontrol/internal/curve"
	"dt_fancontrol/internal/models"
	"dt_fancontrol/internal/protocol"
	"dt_fancontrol/internal/session"
)

// SimPort is the port name served by the simulator.
const SimPort = "sim"

// Simulation constants.
const (
	SimAmbientC        = 22.0   // room temperature °C
	SimHeatCPerSec     = 0.15   // °C per second added by the heat load
	SimCoolPerDutyDegC = 0.0006 // °C per second removed per duty % per °C of delta-T
	SimStartDeltaC     = 8.0    // water starts this far above ambient

	defaultSimInterval = time.Second
)

var ErrSimClosed = errors.New("simulated port closed")

// SimConfig tunes the simulated controller.
type SimConfig struct {
	Interval    time.Duration // telemetry period
	ReadTimeout time.Duration
	AmbientC    float64
	HeatCPerSec float64
}

// SimOpener hands out a fresh SimDevice per connection.
type SimOpener struct {
	Config SimConfig
}

func (o *SimOpener) Open(port string) (session.Transport, error) {
	return NewSimDevice(o.Config), nil
}

// SimDevice behaves like the controller firmware: it prints a telemetry line
// every interval, drives its fan from the curve it was last sent and lets
// the coolant warm up under load and cool down with airflow.
type SimDevice struct {
	cfg SimConfig
	now func() time.Time

	mu       sync.Mutex
	params   models.CurveParameters
	water    float64
	duty     float64
	lastStep time.Time
	nextEmit time.Time
	out      []byte
	in       []byte

	closeOnce sync.Once
	closed    chan struct{}
}

func NewSimDevice(cfg SimConfig) *SimDevice {
	if cfg.Interval <= 0 {
		cfg.Interval = defaultSimInterval
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = DefaultReadTimeout
	}
	if cfg.AmbientC == 0 {
		cfg.AmbientC = SimAmbientC
	}
	if cfg.HeatCPerSec == 0 {
		cfg.HeatCPerSec = SimHeatCPerSec
	}
	now := time.Now()
	d := &SimDevice{
		cfg:      cfg,
		now:      time.Now,
		params:   curve.Defaults(),
		water:    cfg.AmbientC + SimStartDeltaC,
		lastStep: now,
		nextEmit: now.Add(cfg.Interval),
		closed:   make(chan struct{}),
	}
	d.duty = curve.Evaluate(d.water-cfg.AmbientC, d.params)
	return d
}

// Read returns buffered telemetry, waits for the next line, or times out
// with (0, nil) like a real port.
func (d *SimDevice) Read(p []byte) (int, error) {
	select {
	case <-d.closed:
		return 0, ErrSimClosed
	default:
	}

	d.mu.Lock()
	if len(d.out) == 0 {
		wait := d.nextEmit.Sub(d.now())
		d.mu.Unlock()
		if wait > d.cfg.ReadTimeout {
			return 0, d.sleep(d.cfg.ReadTimeout)
		}
		if wait > 0 {
			if err := d.sleep(wait); err != nil {
				return 0, err
			}
		}
		d.mu.Lock()
		d.emit()
	}
	n := copy(p, d.out)
	d.out = d.out[n:]
	d.mu.Unlock()
	return n, nil
}

// Write accepts command lines; anything that does not decode to a valid
// curve is ignored, as the firmware does.
func (d *SimDevice) Write(p []byte) (int, error) {
	select {
	case <-d.closed:
		return 0, ErrSimClosed
	default:
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.in = append(d.in, p...)
	for {
		i := bytes.IndexByte(d.in, '\n')
		if i < 0 {
			break
		}
		line := string(d.in[:i])
		d.in = d.in[i+1:]

		params, err := protocol.DecodeCommand(line)
		if err != nil || curve.Validate(params) != nil {
			continue
		}
		d.params = params
	}
	return len(p), nil
}

func (d *SimDevice) Close() error {
	d.closeOnce.Do(func() { close(d.closed) })
	return nil
}

// Params returns the curve the device is currently running.
func (d *SimDevice) Params() models.CurveParameters {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.params
}

func (d *SimDevice) sleep(wait time.Duration) error {
	t := time.NewTimer(wait)
	defer t.Stop()
	select {
	case <-d.closed:
		return ErrSimClosed
	case <-t.C:
		return nil
	}
}

// emit advances the model and queues one telemetry line. mu must be held.
func (d *SimDevice) emit() {
	now := d.now()
	d.step(now.Sub(d.lastStep).Seconds())
	d.lastStep = now
	d.nextEmit = now.Add(d.cfg.Interval)

	d.out = append(d.out, protocol.EncodeTelemetry(models.TelemetrySample{
		WaterTemp:   d.water,
		AmbientTemp: d.cfg.AmbientC,
		FanDuty:     d.duty,
	})...)
}

// step integrates the coolant temperature over elapsed seconds. mu must be held.
func (d *SimDevice) step(elapsed float64) {
	if elapsed <= 0 {
		return
	}
	deltaT := d.water - d.cfg.AmbientC
	d.water += (d.cfg.HeatCPerSec - SimCoolPerDutyDegC*d.duty*deltaT) * elapsed
	if d.water < d.cfg.AmbientC {
		d.water = d.cfg.AmbientC
	}
	d.duty = curve.Evaluate(d.water-d.cfg.AmbientC, d.params)
}
