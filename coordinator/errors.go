package coordinator

import "errors"

var (
	// ErrDuplicateItem reports a submit with an explicit item ID that is
	// still live. Detected at submit time; a programming defect in the caller.
	ErrDuplicateItem = errors.New("work item with this id is still active")

	// ErrWaitOnConsumer reports a Wait issued from the consumer goroutine,
	// which would starve every pending callback including the completion the
	// caller is waiting for.
	ErrWaitOnConsumer = errors.New("cannot block on a handle from the consumer goroutine")

	// ErrShutdown is returned by Submit after the coordinator stopped.
	ErrShutdown = errors.New("coordinator is shut down")
)
