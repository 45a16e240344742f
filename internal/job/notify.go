package job

import "sync"

// Sink receives a job after every status or progress change. It runs off the
// mutating goroutine and must not block for long.
type Sink func(*Job)

// notifier delivers notifications for one job in order on a background
// goroutine that exists only while events are pending.
type notifier struct {
	mu       sync.Mutex
	pending  int
	draining bool
	idle     *sync.Cond
	sink     Sink
}

func newNotifier(sink Sink) *notifier {
	n := &notifier{sink: sink}
	n.idle = sync.NewCond(&n.mu)
	return n
}

func (n *notifier) notify(j *Job) {
	if n.sink == nil {
		return
	}
	n.mu.Lock()
	n.pending++
	if n.draining {
		n.mu.Unlock()
		return
	}
	n.draining = true
	n.mu.Unlock()
	go n.drain(j)
}

func (n *notifier) drain(j *Job) {
	for {
		n.mu.Lock()
		if n.pending == 0 {
			n.draining = false
			n.idle.Broadcast()
			n.mu.Unlock()
			return
		}
		n.pending--
		n.mu.Unlock()
		n.sink(j)
	}
}

// flush blocks until every queued notification has been delivered.
func (n *notifier) flush() {
	n.mu.Lock()
	for n.draining {
		n.idle.Wait()
	}
	n.mu.Unlock()
}
