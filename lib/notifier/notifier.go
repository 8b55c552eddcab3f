package notifier

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/VictoriaMetrics/metrics"
	"github.com/gridledger/electric/lib/util"
	"github.com/lni/dragonboat/v4/logger"
)

var log = logger.GetLogger("notifier")

// DefaultTimeout bounds one snapshot, source and sinks included.
const DefaultTimeout = 10 * time.Second

// Snapshot is one capture of the channel diagnostics.
type Snapshot struct {
	Source string    `json:"source"`
	Reason string    `json:"reason"`
	Taken  time.Time `json:"taken"`
	Data   []byte    `json:"data"`
}

// Source captures channel diagnostics.
type Source interface {
	Name() string
	Snapshot(ctx context.Context) ([]byte, error)
}

// Sink stores or forwards snapshots.
type Sink interface {
	Write(ctx context.Context, s Snapshot) error
	Close() error
}

// Notifier takes snapshots in the background after ledger writes.
// Snapshots are best effort: failures are logged and dropped, and Notify never
// blocks its caller. A nil *Notifier ignores every call.
type Notifier struct {
	source  Source
	sinks   []Sink
	timeout time.Duration

	queue   *util.LockFreeMPSC[string]
	pending sync.WaitGroup
	done    chan struct{}

	// mu orders every Push before the queue is closed, so the consumer
	// sees each snapshot that was counted in pending
	mu     sync.RWMutex
	closed bool
}

// New starts a notifier that writes snapshots of source to every sink.
// A timeout <= 0 selects DefaultTimeout.
func New(source Source, timeout time.Duration, sinks ...Sink) *Notifier {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	n := &Notifier{
		source:  source,
		sinks:   sinks,
		timeout: timeout,
		queue:   util.NewLockFreeMPSC[string](),
		done:    make(chan struct{}),
	}
	go n.run()
	return n
}

// Notify schedules one snapshot. reason ends up in the snapshot, for example
// the key of the usage record that was written.
func (n *Notifier) Notify(reason string) {
	if n == nil {
		return
	}
	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.closed {
		log.Warningf("notifier closed, dropped snapshot for %s", reason)
		return
	}
	n.pending.Add(1)
	if !n.queue.Push(&reason) {
		n.pending.Done()
		log.Warningf("notifier closed, dropped snapshot for %s", reason)
	}
}

// Wait blocks until every scheduled snapshot has been handled.
func (n *Notifier) Wait() {
	if n == nil {
		return
	}
	n.pending.Wait()
}

// Close handles the scheduled snapshots and closes the sinks. Later calls
// return nil.
func (n *Notifier) Close() error {
	if n == nil {
		return nil
	}
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return nil
	}
	n.closed = true
	n.mu.Unlock()

	n.queue.Close()
	<-n.done

	var errs []error
	for _, s := range n.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// run is the single consumer of the queue, so sinks see one snapshot at a time.
func (n *Notifier) run() {
	defer close(n.done)
	for reason := range n.queue.Recv() {
		n.snapshot(*reason)
		n.pending.Done()
	}
}

func (n *Notifier) snapshot(reason string) {
	ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
	defer cancel()

	data, err := n.source.Snapshot(ctx)
	if err != nil {
		log.Warningf("snapshot of %s after %s failed: %v", n.source.Name(), reason, err)
		metrics.GetOrCreateCounter(`electric_notifier_snapshots_total{status="source_error"}`).Inc()
		return
	}

	s := Snapshot{Source: n.source.Name(), Reason: reason, Taken: time.Now().UTC(), Data: data}
	status := "ok"
	for _, sink := range n.sinks {
		if err := sink.Write(ctx, s); err != nil {
			log.Warningf("failed to write snapshot after %s: %v", reason, err)
			status = "sink_error"
		}
	}
	metrics.GetOrCreateCounter(`electric_notifier_snapshots_total{status="` + status + `"}`).Inc()
	log.Debugf("snapshot of %s after %s handled (%s)", s.Source, reason, status)
}
