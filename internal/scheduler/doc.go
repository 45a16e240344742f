// Package scheduler provides the bounded background pool jobs run on.
//
// Workers are started lazily on submission, up to the configured size, and
// exit after sitting idle for the idle timeout. The queue is an unbounded
// FIFO. Tasks receive a context that is cancelled through their Handle;
// cancellation is cooperative and tasks poll it between units of work.
package scheduler
