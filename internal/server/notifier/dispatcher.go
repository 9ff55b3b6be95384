package notifier

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/logging"
)

// DispatcherConfig sizes the worker pool.
type DispatcherConfig struct {
	Workers     int
	QueueSize   int
	SendTimeout time.Duration
}

// Dispatcher is a Notifier backed by a bounded queue and a fixed pool of
// workers calling a Sender. When the queue is full the notification is
// dropped and logged.
type Dispatcher struct {
	cfg       DispatcherConfig
	sender    Sender
	logger    logging.Logger
	recorder  Recorder
	ch        chan Notification
	done      chan struct{}
	wg        sync.WaitGroup
	dropped   atomic.Uint64
	closed    atomic.Bool
	closeOnce sync.Once
}

func NewDispatcher(cfg DispatcherConfig, sender Sender, logger logging.Logger, recorder Recorder) *Dispatcher {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 30 * time.Second
	}
	if recorder == nil {
		recorder = nopRecorder{}
	}

	d := &Dispatcher{
		cfg:      cfg,
		sender:   sender,
		logger:   logger.With("module", "notifier"),
		recorder: recorder,
		ch:       make(chan Notification, cfg.QueueSize),
		done:     make(chan struct{}),
	}

	d.wg.Add(cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		go d.run()
	}

	return d
}

func (d *Dispatcher) run() {
	defer d.wg.Done()

	for {
		select {
		case n := <-d.ch:
			d.deliver(n)
		case <-d.done:
			for {
				select {
				case n := <-d.ch:
					d.deliver(n)
				default:
					return
				}
			}
		}
	}
}

func (d *Dispatcher) deliver(n Notification) {
	ctx, cancel := context.WithTimeout(context.Background(), d.cfg.SendTimeout)
	defer cancel()

	if err := d.sender.Send(ctx, n); err != nil {
		d.recorder.NotificationResult(string(n.Kind), OutcomeFailed)
		d.logger.Error(ctx, "notification delivery failed", "kind", n.Kind, "email", n.Email, "error", err)
		return
	}

	d.recorder.NotificationResult(string(n.Kind), OutcomeSent)
	d.logger.Debug(ctx, "notification delivered", "kind", n.Kind, "email", n.Email)
}

// Notify enqueues n without blocking. After Close it is a no-op.
func (d *Dispatcher) Notify(ctx context.Context, n Notification) {
	if d.closed.Load() {
		return
	}

	select {
	case d.ch <- n:
	default:
		d.dropped.Add(1)
		d.recorder.NotificationResult(string(n.Kind), OutcomeDropped)
		d.logger.Warn(ctx, "notification queue full, dropping", "kind", n.Kind, "email", n.Email)
	}
}

// Close stops accepting notifications, drains the queue and waits for the
// workers to finish.
func (d *Dispatcher) Close() {
	d.closeOnce.Do(func() {
		d.closed.Store(true)
		close(d.done)
		d.wg.Wait()
	})
}

// Dropped returns how many notifications were discarded because the queue
// was full.
func (d *Dispatcher) Dropped() uint64 {
	return d.dropped.Load()
}
