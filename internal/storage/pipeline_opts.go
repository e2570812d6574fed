package storage

import "time"

type PipelineOpt func(*Pipeline)

// WithOnComplete sets a callback run on the pipeline goroutine after each
// request finishes
func WithOnComplete(fn func(Result)) PipelineOpt {
	return func(p *Pipeline) {
		p.onComplete = fn
	}
}

// WithDrainTimeout bounds how long Start waits for queued requests at shutdown
func WithDrainTimeout(d time.Duration) PipelineOpt {
	return func(p *Pipeline) {
		p.drainTimeout = d
	}
}
