package app

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/pscheid92/djmonitor/internal/adapter/metrics"
	"github.com/pscheid92/djmonitor/internal/domain"
)

const mirrorTimeout = 500 * time.Millisecond

type mirrorJob struct {
	ctx context.Context
	p   domain.Publication
}

// mirrorWorker writes committed records to the mirror one at a time, in commit
// order, outside the command lock. A record still waiting when a newer one is
// committed is replaced by it; the mirror only needs the latest state.
type mirrorWorker struct {
	mirror  domain.StateMirror
	metrics *metrics.CommandMetrics

	pending  chan mirrorJob
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

func newMirrorWorker(m domain.StateMirror, cm *metrics.CommandMetrics) *mirrorWorker {
	w := &mirrorWorker{
		mirror:  m,
		metrics: cm,
		pending: make(chan mirrorJob, 1),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go w.run()
	return w
}

// enqueue never blocks. Callers are serialized by the service lock, so after
// draining a stale job the buffer has room.
func (w *mirrorWorker) enqueue(ctx context.Context, p domain.Publication) {
	job := mirrorJob{ctx: context.WithoutCancel(ctx), p: p}
	select {
	case w.pending <- job:
		return
	default:
	}

	select {
	case <-w.pending:
		slog.DebugContext(ctx, "Superseded pending mirror write")
	default:
	}
	w.pending <- job
}

func (w *mirrorWorker) run() {
	defer close(w.done)
	for {
		select {
		case job := <-w.pending:
			w.write(job)
		case <-w.stop:
			select {
			case job := <-w.pending:
				w.write(job)
			default:
			}
			return
		}
	}
}

func (w *mirrorWorker) write(job mirrorJob) {
	ctx, cancel := context.WithTimeout(job.ctx, mirrorTimeout)
	defer cancel()

	if err := w.mirror.Mirror(ctx, job.p); err != nil {
		slog.WarnContext(job.ctx, "Failed to mirror publication", "error", err)
		if w.metrics != nil {
			w.metrics.MirrorFailures.Inc()
		}
	}
}

// close flushes the pending write and waits for the worker to exit.
func (w *mirrorWorker) close() {
	w.stopOnce.Do(func() { close(w.stop) })
	<-w.done
}
