package session

// Metrics is the subset of an ambient metrics registry the session loop
// observes into: frame throughput and per-window queue depth. A nil value in
// Config is replaced by noopMetrics, so instrumentation is opt-in.
type Metrics interface {
	FrameSent(windowID uint32, bytes int)
	SetQueueDepth(windowID uint32, depth int)
}

type noopMetrics struct{}

func (noopMetrics) FrameSent(uint32, int)    {}
func (noopMetrics) SetQueueDepth(uint32, int) {}
