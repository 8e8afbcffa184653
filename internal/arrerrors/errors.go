// Package arrerrors implements the error taxonomy described in the
// execution-core specification: user, system, resource, storage and network
// error classes, plus the retry/back-pressure control signals that must
// never surface as user-visible errors.
package arrerrors

import (
	"fmt"

	pingcaperrors "github.com/pingcap/errors"
)

// Class groups related error codes the way the teacher's terror/dbterror
// class registries do (see util/chunk/row_container.go's
// terror.ClassExecutor.New and util/memory/action.go's dbterror.ClassUtil).
type Class struct {
	name string
}

var (
	// ClassUser covers illegal operator arguments, unknown parameters,
	// dimension mismatches, chunk size too large, ambiguous type
	// conversion, null conversion.
	ClassUser = Class{"user"}
	// ClassSystem covers unreachable code, internal invariant violations,
	// failed setPosition during merge, storage magic mismatch.
	ClassSystem = Class{"system"}
	// ClassResource covers OOM, queue overflow, deadlock timeout, quorum lost.
	ClassResource = Class{"resource"}
	// ClassStorage covers reallocation failure, chunk not pinned, corrupted
	// header, missing data-store.
	ClassStorage = Class{"storage"}
	// ClassNetwork covers unknown message type, invalid message format,
	// unknown source instance.
	ClassNetwork = Class{"network"}
)

// Code is a short, stable name for one specific error condition within a
// Class. Codes are nominal identifiers, not numeric, to keep call sites
// self-documenting.
type Code string

// Error is a structured error: class, code, a short/long message pair and
// an optional cause carrying a stack trace via github.com/pingcap/errors.
// The format arguments are applied to the message text and are not kept as
// a separate field. No partial results are ever attached to an
// Error; callers must not try to recover a result from one (§7).
type Error struct {
	class Class
	code  Code
	short string
	long  string
	cause error
}

func (e *Error) Error() string {
	if e.long != "" {
		return fmt.Sprintf("[%s:%s] %s", e.class.name, e.code, e.long)
	}
	return fmt.Sprintf("[%s:%s] %s", e.class.name, e.code, e.short)
}

// Unwrap exposes the pingcap/errors-wrapped cause so callers can still use
// errors.Is/errors.As against lower-level causes.
func (e *Error) Unwrap() error { return e.cause }

// Class reports which taxonomy class this error belongs to.
func (e *Error) Class() Class { return e.class }

// Code reports the nominal code within the class.
func (e *Error) Code() Code { return e.code }

// New builds a new classed error, the short name being the code and the
// long name the formatted message — mirrors the short-name/long-name pair
// required by §7's user-visible error contract.
func New(class Class, code Code, format string, args ...interface{}) *Error {
	long := fmt.Sprintf(format, args...)
	return &Error{
		class: class,
		code:  code,
		short: string(code),
		long:  long,
		cause: pingcaperrors.New(long),
	}
}

// Wrap attaches class/code to an existing error while preserving it as the
// cause (and its pingcap/errors stack, if it has one).
func Wrap(class Class, code Code, cause error) *Error {
	return &Error{
		class: class,
		code:  code,
		short: string(code),
		long:  cause.Error(),
		cause: pingcaperrors.Trace(cause),
	}
}

// Well-known codes referenced directly by the spec.
const (
	CodeChunkNotPinned       Code = "CHUNK_NOT_PINNED"
	CodeResourceBusy         Code = "RESOURCE_BUSY"
	CodeStorageMagicMismatch Code = "STORAGE_MAGIC_MISMATCH"
	CodeSetPositionFailed    Code = "SET_POSITION_FAILED"
	CodeQueueOverflow        Code = "QUEUE_OVERFLOW"
	CodeQuorumLost           Code = "QUORUM_LOST"
	CodeUnknownMessageType   Code = "UNKNOWN_MESSAGE_TYPE"
	CodeNestedAggregateCtx   Code = "NESTED_AGGREGATE_CONTEXT"
	CodeChunkSizeMismatch    Code = "CHUNK_SIZE_MISMATCH"
	CodeCannotReallocate     Code = "CANNOT_REALLOCATE"
	CodeCorruptedHeader      Code = "CORRUPTED_HEADER"
	CodeOutOfMemory          Code = "OUT_OF_MEMORY"
)

// ErrChunkNotPinned is raised when a persistent chunk is accessed without
// first being pinned (§4.2).
func ErrChunkNotPinned(addr fmt.Stringer) *Error {
	return New(ClassStorage, CodeChunkNotPinned, "chunk %s accessed without a pin", addr)
}

// ErrResourceBusy is raised when the coordinator's deadlock-avoidance
// handshake times out waiting for a worker notify (§4.7).
func ErrResourceBusy(queryID string) *Error {
	return New(ClassResource, CodeResourceBusy, "query %s: resource busy, notify handshake timed out", queryID)
}

// ErrNestedAggregateContext resolves Open Question 1 of §9: nested
// aggregate operator contexts are forbidden, not silently permitted.
func ErrNestedAggregateContext() *Error {
	return New(ClassSystem, CodeNestedAggregateCtx, "aggregate operator context is not empty on entry; nested aggregates are not supported")
}
