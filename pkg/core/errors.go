package core

import "errors"

// Error kinds shared by every layer that parses or builds parameter sets.
// Callers wrap them with fmt.Errorf and test with errors.Is.
var (
	// ErrMalformed reports a bitstream that violates the format,
	// such as an unknown tag or an impossible field count.
	ErrMalformed = errors.New("malformed bitstream")

	// ErrUnknownImplementation reports a mode id with no registered constructor.
	ErrUnknownImplementation = errors.New("unknown implementation in factory")

	// ErrInvariant reports a mutation that would break a structural invariant.
	ErrInvariant = errors.New("invariant violated")
)
