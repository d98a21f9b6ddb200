package types

import "errors"

var (
	// ErrTransport marks network, timeout and non-2xx failures on outbound calls
	ErrTransport = errors.New("transport error")

	// ErrMissingResource marks a local resource (the problem image) that could not be read
	ErrMissingResource = errors.New("missing resource")

	// ErrMalformedResponse marks a response that did not have the expected shape
	ErrMalformedResponse = errors.New("malformed response")

	// ErrLookupMiss marks a chosen path that is absent from the path index
	ErrLookupMiss = errors.New("lookup miss")
)
