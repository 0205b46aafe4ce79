package scanner

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/starford/vaultedit/internal/index"
	"github.com/starford/vaultedit/internal/models"
)

// Job asks the worker to scan one file. Generation is the caller's counter
// for that file; it is echoed back so stale results can be dropped.
type Job struct {
	Path       string
	Checksum   string
	Generation uint64
}

// Result is the outcome of one Job. The worker never applies results; the
// session applies them on its own loop.
type Result struct {
	Job
	Scan *models.ScanResult
	Err  error
}

type request struct {
	job    Job
	cancel bool
}

type finished struct {
	path string
	gen  uint64
}

// Worker runs scans in the background.
//
// Concurrency model: a single internal loop owns the in-flight table.
// Submitting a job for a path cancels the scan already running for it.
// Public methods talk to the loop through channels.
type Worker struct {
	scan    index.ScanFunc
	logger  *slog.Logger
	limit   chan struct{}
	results chan Result

	requestCh  chan request
	finishedCh chan finished

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
	wg      sync.WaitGroup
}

// NewWorker starts a worker running at most parallel scans at once.
func NewWorker(scan index.ScanFunc, parallel int, logger *slog.Logger) *Worker {
	if parallel <= 0 {
		parallel = 2
	}
	if logger == nil {
		logger = slog.Default()
	}
	w := &Worker{
		scan:       scan,
		logger:     logger,
		limit:      make(chan struct{}, parallel),
		results:    make(chan Result, 64),
		requestCh:  make(chan request, 256),
		finishedCh: make(chan finished),
		stopCh:     make(chan struct{}),
		stopped:    make(chan struct{}),
	}
	go w.run()
	return w
}

// Results delivers finished scans. The channel is closed by Close.
func (w *Worker) Results() <-chan Result { return w.results }

// Submit queues a scan.
func (w *Worker) Submit(job Job) {
	if w.closed.Load() {
		return
	}
	w.send(request{job: job})
}

// Cancel abandons any scan in flight for path.
func (w *Worker) Cancel(path string) {
	if w.closed.Load() {
		return
	}
	w.send(request{job: Job{Path: path}, cancel: true})
}

func (w *Worker) send(req request) {
	select {
	case w.requestCh <- req:
	case <-w.stopped:
	}
}

// Close cancels every scan in flight, waits for them and closes Results.
func (w *Worker) Close() {
	if w.closed.CompareAndSwap(false, true) {
		close(w.stopCh)
	}
	<-w.stopped
}

type inflight struct {
	gen    uint64
	cancel context.CancelFunc
}

func (w *Worker) run() {
	defer close(w.stopped)

	base, cancelAll := context.WithCancel(context.Background())
	running := make(map[string]inflight)

	for {
		select {
		case <-w.stopCh:
			cancelAll()
			// Drain finish notices so scan goroutines can exit.
			go func() {
				for range w.finishedCh {
				}
			}()
			w.wg.Wait()
			close(w.finishedCh)
			close(w.results)
			return

		case req := <-w.requestCh:
			job := req.job
			if prev, ok := running[job.Path]; ok {
				prev.cancel()
				delete(running, job.Path)
			}
			if req.cancel {
				continue
			}
			ctx, cancel := context.WithCancel(base)
			running[job.Path] = inflight{gen: job.Generation, cancel: cancel}
			w.wg.Add(1)
			go w.do(ctx, job)

		case f := <-w.finishedCh:
			if cur, ok := running[f.path]; ok && cur.gen == f.gen {
				cur.cancel()
				delete(running, f.path)
			}
		}
	}
}

func (w *Worker) do(ctx context.Context, job Job) {
	defer w.wg.Done()

	select {
	case w.limit <- struct{}{}:
	case <-ctx.Done():
		w.finish(job)
		return
	}
	res, err := w.scan(ctx, job.Path)
	<-w.limit

	if ctx.Err() != nil {
		w.logger.Debug("scanner: scan superseded", slog.String("path", job.Path),
			slog.Uint64("generation", job.Generation))
		w.finish(job)
		return
	}
	select {
	case w.results <- Result{Job: job, Scan: res, Err: err}:
	case <-w.stopCh:
	}
	w.finish(job)
}

func (w *Worker) finish(job Job) {
	w.finishedCh <- finished{path: job.Path, gen: job.Generation}
}
