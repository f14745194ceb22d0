package hits

// SchedulingError reports that a hit could not be handed to the pipeline.
// Scheduling errors are never surfaced to redirect clients.
type SchedulingError struct {
	reason string
}

func (e *SchedulingError) Error() string { return "hit not scheduled: " + e.reason }

var (
	// ErrQueueFull is returned by Enqueue when the buffer is at capacity.
	ErrQueueFull = &SchedulingError{reason: "queue full"}

	// ErrClosed is returned by Enqueue once Shutdown has been requested.
	ErrClosed = &SchedulingError{reason: "pipeline closed"}
)
