package worker

import (
	"context"
	"sync"
)

// Job represents a unit of work to be executed
type Job interface {
	Execute(ctx context.Context) Result
}

// Result represents the result of a job execution
type Result interface {
	GetError() error
}

type indexedResult struct {
	index  int
	result Result
}

type indexedJob struct {
	index int
	job   Job
}

// Pool manages a pool of workers that execute jobs concurrently. A collector
// drains results while jobs are still being submitted, so Submit only blocks
// on queue capacity.
type Pool struct {
	workers    int
	jobQueue   chan indexedJob
	results    chan indexedResult
	wg         sync.WaitGroup
	ctx        context.Context
	cancelFunc context.CancelFunc
	closeOnce  sync.Once
	collected  chan struct{}
	startOnce  sync.Once
	mu         sync.Mutex
	submitted  int
	byIndex    map[int]Result
}

// NewPool creates a pool bound to ctx; cancelling ctx stops all workers
func NewPool(ctx context.Context, workers int) *Pool {
	if workers <= 0 {
		workers = 1
	}

	ctx, cancel := context.WithCancel(ctx)

	return &Pool{
		workers:    workers,
		jobQueue:   make(chan indexedJob, workers*2),
		results:    make(chan indexedResult, workers*2),
		ctx:        ctx,
		cancelFunc: cancel,
		collected:  make(chan struct{}),
		byIndex:    make(map[int]Result),
	}
}

// Start starts the workers and the result collector
func (p *Pool) Start() {
	p.startOnce.Do(func() {
		go p.collect()
		for i := 0; i < p.workers; i++ {
			p.wg.Add(1)
			go p.worker()
		}
	})
}

func (p *Pool) collect() {
	defer close(p.collected)
	for r := range p.results {
		p.mu.Lock()
		p.byIndex[r.index] = r.result
		p.mu.Unlock()
	}
}

func (p *Pool) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case ij, ok := <-p.jobQueue:
			if !ok {
				return
			}
			// the collector drains until every worker has exited
			p.results <- indexedResult{index: ij.index, result: ij.job.Execute(p.ctx)}
		}
	}
}

// Submit queues a job. Submission order is the order Wait returns results in.
func (p *Pool) Submit(job Job) {
	p.mu.Lock()
	ij := indexedJob{index: p.submitted, job: job}
	p.submitted++
	p.mu.Unlock()

	select {
	case <-p.ctx.Done():
		return
	case p.jobQueue <- ij:
	}
}

// Wait closes the queue, waits for all jobs and returns one slot per
// submitted job in submission order. Jobs that never ran because the context
// was cancelled leave a nil slot.
func (p *Pool) Wait() []Result {
	p.Start()
	close(p.jobQueue)
	p.wg.Wait()
	p.closeResults()
	<-p.collected

	p.mu.Lock()
	defer p.mu.Unlock()

	results := make([]Result, p.submitted)
	for i := range results {
		results[i] = p.byIndex[i]
	}
	return results
}

// Shutdown shuts down the worker pool immediately
func (p *Pool) Shutdown() {
	p.cancelFunc()
	p.wg.Wait()
	p.closeResults()
}

func (p *Pool) closeResults() {
	p.closeOnce.Do(func() {
		close(p.results)
	})
}
