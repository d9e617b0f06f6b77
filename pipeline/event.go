package pipeline

import (
	"sync"
	"time"
)

type EventKind uint8

const (
	EventSkipped EventKind = iota
	EventProved
	EventProveFailed
	EventSubmitted
	EventSubmitFailed
	EventProofMissing
	EventInvalidated
	EventBatchFinished
)

func (k EventKind) String() string {
	switch k {
	case EventSkipped:
		return "skipped"
	case EventProved:
		return "proved"
	case EventProveFailed:
		return "prove_failed"
	case EventSubmitted:
		return "submitted"
	case EventSubmitFailed:
		return "submit_failed"
	case EventProofMissing:
		return "proof_missing"
	case EventInvalidated:
		return "invalidated"
	case EventBatchFinished:
		return "batch_finished"
	default:
		return "unknown"
	}
}

// Event is a per-height fact observed by the pipeline. Only the fields relevant to Kind are set.
type Event struct {
	Kind     EventKind
	Height   uint64
	Duration time.Duration
	Sink     string
	Attempts int
	TxHash   string
	Err      error
}

// EventSink receives pipeline events. Publish must not block for long, it runs on the pipeline goroutines.
type EventSink interface {
	Publish(Event)
}

type EventSinkFunc func(Event)

func (f EventSinkFunc) Publish(e Event) {
	f(e)
}

// MultiSink fans every event out to all of its sinks in order.
type MultiSink []EventSink

func (m MultiSink) Publish(e Event) {
	for _, sink := range m {
		sink.Publish(e)
	}
}

type nopSink struct{}

func (nopSink) Publish(Event) {}

// EventLog keeps every published event in memory.
type EventLog struct {
	mtx    sync.Mutex
	events []Event
}

func (l *EventLog) Publish(e Event) {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	l.events = append(l.events, e)
}

func (l *EventLog) Events() []Event {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	return append([]Event(nil), l.events...)
}

func (l *EventLog) Kinds() []EventKind {
	events := l.Events()
	kinds := make([]EventKind, len(events))
	for i, e := range events {
		kinds[i] = e.Kind
	}
	return kinds
}
