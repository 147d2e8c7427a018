package model

// OutcomeStatus classifies the terminal result of one download attempt.
// Cancellation is deliberately distinct from failure so that user-requested
// stops never pollute failure statistics or retry queues.
type OutcomeStatus int

const (
	// StatusDownloaded means the file is present at Path and, when the
	// descriptor carried a checksum, verified.
	StatusDownloaded OutcomeStatus = iota
	// StatusFailed means the attempt budget is exhausted or the descriptor
	// is permanently invalid. The original descriptor is carried for the
	// batch-level retry round.
	StatusFailed
	// StatusCancelled means the stop signal fired before or during the
	// attempt. Not an error.
	StatusCancelled
)

// Outcome is the result of attempting one FileDescriptor. Every descriptor
// submitted to the download engine ends in exactly one Outcome.
type Outcome struct {
	Descriptor *FileDescriptor
	Path       string
	Status     OutcomeStatus
	Err        error
}

// Downloaded builds a success outcome.
func Downloaded(desc *FileDescriptor, path string) Outcome {
	return Outcome{Descriptor: desc, Path: path, Status: StatusDownloaded}
}

// Failed builds a failure outcome carrying the original descriptor.
func Failed(desc *FileDescriptor, err error) Outcome {
	return Outcome{Descriptor: desc, Status: StatusFailed, Err: err}
}

// Cancelled builds a cancellation outcome.
func Cancelled(desc *FileDescriptor) Outcome {
	return Outcome{Descriptor: desc, Status: StatusCancelled}
}
