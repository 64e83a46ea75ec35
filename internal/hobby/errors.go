package hobby

import "errors"

// Common errors returned by client and control operations.
var (
	// ErrNotConnected indicates the hub connection is not established.
	ErrNotConnected = errors.New("hobby: not connected to controller")

	// ErrInvalidValue indicates a control value outside the accepted set.
	ErrInvalidValue = errors.New("hobby: invalid control value")

	// ErrNoControllerFound indicates UDP discovery produced no response.
	ErrNoControllerFound = errors.New("hobby: no controller found on network")

	// ErrMalformedFrame indicates a frame that could not be decoded.
	ErrMalformedFrame = errors.New("hobby: malformed frame")
)
