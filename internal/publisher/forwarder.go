package publisher

import (
	"context"
	"time"

	"dt_fancontrol/internal/logger"
	"dt_fancontrol/internal/metrics"
	"dt_fancontrol/internal/models"
)

const defaultQueueSize = 16

// Forwarder decouples the serial worker from the broker: Submit never
// blocks, Run publishes in order on its own goroutine.
type Forwarder struct {
	pub     Publisher
	queue   chan models.TelemetrySample
	timeout time.Duration
	log     *logger.Logger
}

func NewForwarder(pub Publisher, size int, timeout time.Duration, log *logger.Logger) *Forwarder {
	if size <= 0 {
		size = defaultQueueSize
	}
	if timeout <= 0 {
		timeout = defaultPublishTimeout
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Forwarder{
		pub:     pub,
		queue:   make(chan models.TelemetrySample, size),
		timeout: timeout,
		log:     log,
	}
}

// Submit queues sample and reports false when the queue was full.
func (f *Forwarder) Submit(sample models.TelemetrySample) bool {
	select {
	case f.queue <- sample:
		return true
	default:
		metrics.PublishDropped.Inc()
		return false
	}
}

// Run publishes queued samples until ctx ends.
func (f *Forwarder) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case sample := <-f.queue:
			pctx, cancel := context.WithTimeout(ctx, f.timeout)
			if err := f.pub.Publish(pctx, sample); err != nil {
				f.log.Warnw("publish_failed", "err", err)
			}
			cancel()
		}
	}
}
