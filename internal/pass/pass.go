// Package pass schedules passes over the root operations of a module.
//
// A pass is registered as a Descriptor: a value with a factory that builds a
// fresh instance for every root operation, so instances never share state.
// Each invocation receives a leased handle of its root; the lease is revoked
// when the invocation returns, which kills every handle the pass derived and
// might have kept around.
package pass

import (
	"context"

	"irguard/internal/ir"
)

// Pass runs over the subtree of one root operation.
type Pass interface {
	Run(ctx context.Context, root ir.Operation) error
}

// Func adapts a function to Pass.
type Func func(ctx context.Context, root ir.Operation) error

func (f Func) Run(ctx context.Context, root ir.Operation) error { return f(ctx, root) }

// Descriptor describes a pass. Passes that mutate the IR always run
// sequentially; read-only passes fan out over roots inside a parallel region
// when the context allows multithreading.
type Descriptor struct {
	Name    string
	Mutates bool
	New     func() Pass
}

// Status captures the state of a pass.
type Status string

const (
	StatusQueued  Status = "queued"
	StatusWorking Status = "working"
	StatusDone    Status = "done"
	StatusError   Status = "error"
)

// Event reports pass progress. Done counts finished roots out of Total.
type Event struct {
	Pass     string
	Status   Status
	Parallel bool
	Done     int
	Total    int
	Err      error
}

// Sink consumes progress events. OnEvent may be called from several
// goroutines.
type Sink interface {
	OnEvent(Event)
}

// ChannelSink forwards events into a channel.
type ChannelSink struct {
	Ch chan<- Event
}

func (s ChannelSink) OnEvent(evt Event) {
	if s.Ch == nil {
		return
	}
	s.Ch <- evt
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Event)

func (f SinkFunc) OnEvent(evt Event) { f(evt) }
