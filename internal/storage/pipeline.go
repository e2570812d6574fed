package storage

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/pixil98/go-service"
)

const (
	DefaultDrainTimeout = 30 * time.Second
)

// Op is the kind of work a request performs on the slot.
type Op int

const (
	OpWrite Op = iota
	OpDelete
)

func (o Op) String() string {
	switch o {
	case OpWrite:
		return "write"
	case OpDelete:
		return "delete"
	default:
		return fmt.Sprintf("op(%d)", int(o))
	}
}

// Request is one queued unit of durable work.
type Request struct {
	Op   Op
	Data []byte
}

func WriteRequest(data []byte) Request {
	return Request{Op: OpWrite, Data: data}
}

func DeleteRequest() Request {
	return Request{Op: OpDelete}
}

// Result describes a finished request.
type Result struct {
	Slot       string
	Op         Op
	Bytes      int
	Err        error
	FinishedAt time.Time
}

// Pipeline runs slot requests in the background. Requests execute in the
// order they were enqueued and at most one touches the slot at a time.
// Failed requests are reported and never retried. All methods are safe for
// concurrent use.
type Pipeline struct {
	slot         Slot
	onComplete   func(Result)
	drainTimeout time.Duration

	mu       sync.Mutex
	queue    []Request
	current  *Request
	draining bool
	idle     chan struct{}
}

var _ service.Worker = (*Pipeline)(nil)

func NewPipeline(slot Slot, opts ...PipelineOpt) *Pipeline {
	p := &Pipeline{
		slot:         slot,
		drainTimeout: DefaultDrainTimeout,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

func (p *Pipeline) Slot() Slot {
	return p.slot
}

// Enqueue appends req to the queue and returns immediately.
func (p *Pipeline) Enqueue(req Request) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.queue = append(p.queue, req)
	if p.draining {
		return
	}

	p.draining = true
	p.idle = make(chan struct{})
	go p.drain()
}

// DropPending discards queued requests that have not started and returns how
// many were dropped. The in-flight request, if any, is unaffected.
func (p *Pipeline) DropPending() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := len(p.queue)
	p.queue = nil
	return n
}

// InFlight reports whether a request is executing right now.
func (p *Pipeline) InFlight() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current != nil
}

// Pending returns the number of queued requests not yet started.
func (p *Pipeline) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.queue)
}

// Busy reports whether any request is in flight or queued.
func (p *Pipeline) Busy() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.draining
}

// Wait blocks until the queue is empty and nothing is in flight.
func (p *Pipeline) Wait(ctx context.Context) error {
	p.mu.Lock()
	if !p.draining {
		p.mu.Unlock()
		return nil
	}
	idle := p.idle
	p.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Start blocks until ctx is cancelled, then gives queued requests up to the
// drain timeout to finish.
func (p *Pipeline) Start(ctx context.Context) error {
	<-ctx.Done()

	waitCtx, cancel := context.WithTimeout(context.Background(), p.drainTimeout)
	defer cancel()

	if err := p.Wait(waitCtx); err != nil {
		slog.Error("save pipeline did not drain before shutdown", "slot", p.slot.Name(), "pending", p.Pending(), "error", err)
		return fmt.Errorf("draining save pipeline: %w", err)
	}
	return nil
}

func (p *Pipeline) drain() {
	for {
		p.mu.Lock()
		if len(p.queue) == 0 {
			p.draining = false
			close(p.idle)
			p.mu.Unlock()
			return
		}
		req := p.queue[0]
		p.queue = p.queue[1:]
		p.current = &req
		p.mu.Unlock()

		res := p.execute(req)

		p.mu.Lock()
		p.current = nil
		p.mu.Unlock()

		p.notify(res)
	}
}

// notify reports res to the completion hook. A panicking hook is logged and
// does not stop the queue.
func (p *Pipeline) notify(res Result) {
	if p.onComplete == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			slog.Error("save completion hook panicked", "slot", res.Slot, "op", res.Op.String(), "panic", r)
		}
	}()
	p.onComplete(res)
}

func (p *Pipeline) execute(req Request) Result {
	// Requests outlive whatever triggered them.
	ctx := context.Background()

	res := Result{Slot: p.slot.Name(), Op: req.Op}
	if req.Op == OpWrite {
		res.Bytes = len(req.Data)
	}
	res.Err = p.run(ctx, req)
	res.FinishedAt = time.Now()

	if res.Err != nil {
		slog.Error("save request failed", "slot", res.Slot, "op", res.Op.String(), "error", res.Err)
	} else {
		slog.Debug("save request finished", "slot", res.Slot, "op", res.Op.String(), "bytes", res.Bytes)
	}
	return res
}

func (p *Pipeline) run(ctx context.Context, req Request) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s panicked: %v", req.Op, r)
		}
	}()

	switch req.Op {
	case OpWrite:
		return p.slot.Write(ctx, req.Data)
	case OpDelete:
		return p.slot.Delete(ctx)
	default:
		return fmt.Errorf("unknown request op: %s", req.Op)
	}
}
