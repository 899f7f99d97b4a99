package analytics

import (
	"context"
	"log"
	"sync"
)

// Sink receives published events. Deliver is called from a worker goroutine.
type Sink interface {
	Deliver(ctx context.Context, ev Event) error
}

// Publisher is a fixed pool of workers fanning events out to its sinks.
// Publish never blocks the caller: when the queue is full the event is
// dropped and logged.
type Publisher struct {
	size  int
	jobs  chan Event
	sinks []Sink
	wg    sync.WaitGroup
}

// NewPublisher creates a publisher with size workers and a queue of queueSize events.
func NewPublisher(size, queueSize int, sinks ...Sink) *Publisher {
	if size <= 0 {
		size = 1
	}
	if queueSize <= 0 {
		queueSize = size
	}
	return &Publisher{
		size:  size,
		jobs:  make(chan Event, queueSize),
		sinks: sinks,
	}
}

// Start launches the worker goroutines. They stop when ctx is cancelled.
func (p *Publisher) Start(ctx context.Context) {
	for i := 0; i < p.size; i++ {
		p.wg.Add(1)
		go p.worker(ctx, i)
	}
}

// Wait blocks until every worker has returned.
func (p *Publisher) Wait() {
	p.wg.Wait()
}

func (p *Publisher) worker(ctx context.Context, id int) {
	defer p.wg.Done()
	log.Printf("Event worker %d started", id)
	for {
		select {
		case ev := <-p.jobs:
			p.deliver(ctx, ev)
		case <-ctx.Done():
			log.Printf("Event worker %d shutting down", id)
			return
		}
	}
}

func (p *Publisher) deliver(ctx context.Context, ev Event) {
	for _, s := range p.sinks {
		if err := s.Deliver(ctx, ev); err != nil {
			log.Printf("Error delivering %s event %s: %v", ev.Kind, ev.ID, err)
		}
	}
}

// Publish enqueues ev.
func (p *Publisher) Publish(ev Event) {
	select {
	case p.jobs <- ev:
	default:
		log.Printf("Event queue full, dropping %s event for staff %s", ev.Kind, ev.StaffID)
	}
}

// Jobs returns the jobs channel for testing.
func (p *Publisher) Jobs() chan Event {
	return p.jobs
}
