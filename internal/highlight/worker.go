package highlight

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Request asks for the spans of Text as of batch Batch of buffer BufferID.
type Request struct {
	BufferID uuid.UUID
	Batch    BatchID
	Lexer    string
	Text     string
}

// Result carries the spans computed for a Request.
type Result struct {
	BufferID uuid.UUID
	Batch    BatchID
	Spans    Spans
	Err      error
}

// Worker tokenizes requests on a pool of goroutines. Results arrive in no
// particular order; consumers gate them on the batch id.
type Worker struct {
	requests chan Request
	results  chan Result
	size     int
	once     sync.Once
}

// NewWorker returns a worker with size goroutines. It does nothing until
// Start is called.
func NewWorker(size int) *Worker {
	if size < 1 {
		size = 1
	}
	return &Worker{
		requests: make(chan Request, size*4),
		results:  make(chan Result, size*4),
		size:     size,
	}
}

// Start launches the pool. The results channel is closed once the pool has
// drained after Close or ctx cancellation.
func (w *Worker) Start(ctx context.Context) {
	var wg sync.WaitGroup
	for i := 0; i < w.size; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.loop(ctx)
		}()
	}
	go func() {
		wg.Wait()
		close(w.results)
	}()
}

func (w *Worker) loop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case req, ok := <-w.requests:
			if !ok {
				return
			}
			spans, err := Tokenize(req.Lexer, req.Text)
			if err != nil {
				log.Warn().Err(err).Str("lexer", req.Lexer).Msg("highlight failed")
			}
			res := Result{BufferID: req.BufferID, Batch: req.Batch, Spans: spans, Err: err}
			select {
			case w.results <- res:
			case <-ctx.Done():
				return
			}
		}
	}
}

// Submit queues req, blocking until there is room or ctx is done.
func (w *Worker) Submit(ctx context.Context, req Request) error {
	select {
	case w.requests <- req:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Results returns the channel results are delivered on.
func (w *Worker) Results() <-chan Result { return w.results }

// Close stops accepting requests. Pending ones are still processed.
func (w *Worker) Close() {
	w.once.Do(func() { close(w.requests) })
}
