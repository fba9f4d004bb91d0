package wire

import "errors"

// The codec and the two connection state machines signal failure with
// one of these sentinels (spec error taxonomy, wrapped with context via
// fmt.Errorf("%w: ...", ...)). Callers distinguish them with errors.Is.
var (
	// ErrBufferUnderflow means a decode tried to read past the end of
	// the available bytes.
	ErrBufferUnderflow = errors.New("pgwire: buffer underflow")

	// ErrMalformed means the bytes were the right length but violated
	// an encoding invariant (bad VecNull terminator, negative element
	// count, frame or request length below its minimum).
	ErrMalformed = errors.New("pgwire: malformed message")

	// ErrUnexpectedMessage means a frame's kind (or, for Authentication,
	// sub-kind) didn't match what the caller tried to decode it as.
	ErrUnexpectedMessage = errors.New("pgwire: unexpected message")

	// ErrUnsupportedKind means a kind byte, sub-kind, or request code
	// isn't in the taxonomy at all.
	ErrUnsupportedKind = errors.New("pgwire: unsupported kind")

	// ErrAuthFailed means the peer rejected (or this side rejected the
	// peer's) credentials.
	ErrAuthFailed = errors.New("pgwire: authentication failed")
)
