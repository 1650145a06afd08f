// Package pingerr defines the flat error taxonomy shared by the resolver
// and both pinger implementations.
package pingerr

import (
	"errors"
	"fmt"
)

// Kind is a closed set of error categories a ping attempt can fail with.
type Kind int

const (
	// InvalidAddress means the address string was unparseable or the
	// port was out of range.
	InvalidAddress Kind = iota
	// DnsLookupFailed means no A/AAAA record could be resolved for the
	// host. SRV failures alone never surface this kind.
	DnsLookupFailed
	// Io covers any socket-level failure: connect, read, write, bind,
	// or a socket-level timeout.
	Io
	// InvalidPacket covers wire-level validation failures: wrong packet
	// id, wrong magic, mismatched pong nonce, malformed Bedrock payload.
	InvalidPacket
	// InvalidVarInt means a VarInt was longer than 5 bytes, or a
	// packet's VarInt length prefix was negative. (A string length
	// prefix of zero or less is reported as InvalidPacket.)
	InvalidVarInt
	// JsonErr means the Java status JSON body failed to deserialize.
	JsonErr
	// TimedOut means the outer deadline expired before a response was
	// parsed.
	TimedOut
)

func (k Kind) String() string {
	switch k {
	case InvalidAddress:
		return "InvalidAddress"
	case DnsLookupFailed:
		return "DnsLookupFailed"
	case Io:
		return "Io"
	case InvalidPacket:
		return "InvalidPacket"
	case InvalidVarInt:
		return "InvalidVarInt"
	case JsonErr:
		return "JsonErr"
	case TimedOut:
		return "TimedOut"
	default:
		return "Unknown"
	}
}

// Error is the single concrete error type the core returns. Op names the
// operation that failed (e.g. "javaping.dial"), Err is the wrapped cause
// and may be nil for pure validation failures.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New builds an *Error for the given kind and operation.
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Is reports whether err is a *pingerr.Error of the given kind, looking
// through any wrapping via errors.As semantics.
func Is(err error, kind Kind) bool {
	var pe *Error
	if !errors.As(err, &pe) {
		return false
	}
	return pe.Kind == kind
}
