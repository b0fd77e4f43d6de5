package middleware

import (
	"context"
	"fmt"
	"sync"
	"time"

	"CrashRadar/internal/domain/models"
	domrepo "CrashRadar/internal/domain/repository"
	applogger "CrashRadar/pkg/logger"
)

// EventPipeline sits between the forecast path and the event publisher.
// It validates events, enqueues them without blocking the request, and retries
// failed deliveries with backoff while the buffer has room.
type EventPipeline struct {
	next    domrepo.EventPublisher
	metrics domrepo.Metrics
	logger  *applogger.Logger
	bufSize int
	timeout time.Duration
	retries int
	bufCh   chan *models.PredictionEvent
	stopCh  chan struct{}
	done    chan struct{}
	mu      sync.Mutex
	started bool
	sleep   func(time.Duration)
}

type PipelineOption func(*EventPipeline)

// WithBufferSize sets the number of events held while downstream is slow or unavailable.
func WithBufferSize(n int) PipelineOption {
	return func(p *EventPipeline) {
		if n > 0 {
			p.bufSize = n
		}
	}
}

// WithPublishTimeout bounds a single delivery attempt.
func WithPublishTimeout(d time.Duration) PipelineOption {
	return func(p *EventPipeline) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// WithRetries sets how many times a failed event is redelivered before it is dropped.
func WithRetries(n int) PipelineOption {
	return func(p *EventPipeline) {
		if n >= 0 {
			p.retries = n
		}
	}
}

// NewEventPipeline creates a pipeline in front of next.
func NewEventPipeline(next domrepo.EventPublisher, metrics domrepo.Metrics, logger *applogger.Logger, opts ...PipelineOption) *EventPipeline {
	p := &EventPipeline{
		next:    next,
		metrics: metrics,
		logger:  logger,
		bufSize: 256,
		timeout: 5 * time.Second,
		retries: 3,
		stopCh:  make(chan struct{}),
		done:    make(chan struct{}),
		sleep:   time.Sleep,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.bufCh = make(chan *models.PredictionEvent, p.bufSize)
	return p
}

// Start launches background delivery of buffered events.
func (p *EventPipeline) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()

	go p.run(ctx)
}

func (p *EventPipeline) run(ctx context.Context) {
	defer close(p.done)
	for {
		select {
		case <-p.stopCh:
			p.drain(ctx)
			return
		case ev := <-p.bufCh:
			p.deliver(ctx, ev)
		}
	}
}

// drain makes one delivery attempt for whatever is still buffered.
func (p *EventPipeline) drain(ctx context.Context) {
	for {
		select {
		case ev := <-p.bufCh:
			if err := p.send(ctx, ev); err != nil {
				p.metrics.RecordError("pipeline_drain")
			}
		default:
			return
		}
	}
}

func (p *EventPipeline) deliver(ctx context.Context, ev *models.PredictionEvent) {
	start := time.Now()
	backoff := 50 * time.Millisecond
	for attempt := 0; ; attempt++ {
		err := p.send(ctx, ev)
		if err == nil {
			p.metrics.RecordLatency("pipeline_publish", time.Since(start).Seconds())
			return
		}
		p.metrics.RecordError("pipeline_publish")
		if attempt >= p.retries {
			p.metrics.RecordError("pipeline_drop")
			p.logger.Warn("prediction event dropped",
				applogger.String("as_of", ev.AsOf),
				applogger.Int("attempts", attempt+1),
				applogger.Error(err),
			)
			return
		}
		select {
		case <-p.stopCh:
			return
		default:
		}
		p.sleep(backoff)
		if backoff < 2*time.Second {
			backoff *= 2
		}
	}
}

func (p *EventPipeline) send(ctx context.Context, ev *models.PredictionEvent) error {
	sendCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	return p.next.PublishPrediction(sendCtx, ev)
}

// PublishPrediction validates ev and queues it. A full buffer drops the event.
func (p *EventPipeline) PublishPrediction(_ context.Context, ev *models.PredictionEvent) error {
	if err := validateEvent(ev); err != nil {
		p.metrics.RecordError("pipeline_validate")
		return err
	}
	select {
	case p.bufCh <- ev:
		return nil
	default:
		p.metrics.RecordError("pipeline_buffer_full")
		return fmt.Errorf("event buffer full (%d)", p.bufSize)
	}
}

// Len returns the number of queued events.
func (p *EventPipeline) Len() int { return len(p.bufCh) }

// Close stops delivery, flushes what is buffered and closes the downstream publisher.
func (p *EventPipeline) Close() error {
	p.mu.Lock()
	started := p.started
	p.started = false
	p.mu.Unlock()
	if started {
		close(p.stopCh)
		<-p.done
	}
	return p.next.Close()
}

func validateEvent(ev *models.PredictionEvent) error {
	if ev == nil {
		return fmt.Errorf("event nil")
	}
	if ev.ContractVersion == "" {
		return fmt.Errorf("contract version empty")
	}
	if ev.Prediction != 0 && ev.Prediction != 1 {
		return fmt.Errorf("prediction %d out of range", ev.Prediction)
	}
	if ev.Probability != nil && (*ev.Probability < 0 || *ev.Probability > 1) {
		return fmt.Errorf("probability %v out of range", *ev.Probability)
	}
	return nil
}

var _ domrepo.EventPublisher = (*EventPipeline)(nil)
