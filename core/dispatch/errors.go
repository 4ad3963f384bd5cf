package dispatch

import "errors"

var (
	// ErrMissingProcessID means a handler produced commands but the
	// triggering exception carries no process id item. This is a
	// configuration error, not a transient one: retrying cannot fix a
	// structural mismatch between handler behavior and exception
	// metadata, so the retry layer must not retry it.
	ErrMissingProcessID = errors.New("handler produced commands but exception has no process id")
)
