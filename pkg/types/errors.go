package types

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
)

// Failure kinds carried by entity operation errors. Test with errors.Is.
var (
	ErrNoPersistence        = errors.New("no persistence installed")
	ErrInvalidCriteria      = errors.New("invalid criteria")
	ErrUnsupportedPrimitive = errors.New("unsupported primitive")
	ErrBackendFailure       = errors.New("backend failure")
)

// Value and lookup errors.
var (
	ErrNotFound     = errors.New("no matching entity")
	ErrOutOfRange   = errors.New("value out of range")
	ErrKindMismatch = errors.New("kind mismatch")
)

// Backend lifecycle errors.
var (
	ErrDetached        = errors.New("backend is detached")
	ErrAlreadyAttached = errors.New("backend is already attached")
)

// Op names an entity operation.
type Op string

// Entity operations.
const (
	OpSave   Op = "save"
	OpUpdate Op = "update"
	OpLoad   Op = "load"
	OpDelete Op = "delete"
)

// Frame is one entry of an error trace: where it was added and what it says.
type Frame struct {
	Origin  string // file:line of the code that added the frame
	Message string
}

// Error is an append-only chain of frames. Each layer that handles an
// error may add its own frame and pass the same *Error on, building a
// trace of the whole operation. Frames are never reordered or removed.
type Error struct {
	op     Op
	kind   error
	cause  error
	frames []Frame
}

// NewError starts a trace with a single frame.
func NewError(msg string) *Error {
	e := &Error{}
	e.frames = append(e.frames, Frame{Origin: origin(1), Message: msg})
	return e
}

// SaveError starts a trace for a failed save of ent.
func SaveError(ent *Entity, detail string) *Error {
	return newOpError(origin(1), OpSave, ent, detail)
}

// UpdateError starts a trace for a failed update of ent.
func UpdateError(ent *Entity, detail string) *Error {
	return newOpError(origin(1), OpUpdate, ent, detail)
}

// LoadError starts a trace for a failed load of ent.
func LoadError(ent *Entity, detail string) *Error {
	return newOpError(origin(1), OpLoad, ent, detail)
}

// DeleteError starts a trace for a failed delete of ent.
func DeleteError(ent *Entity, detail string) *Error {
	return newOpError(origin(1), OpDelete, ent, detail)
}

// Fail starts an op trace from err. The error's text becomes the detail
// and err stays reachable through errors.Is and errors.As. Unless err
// already carries one of the failure kinds, the result is classified as
// ErrBackendFailure.
func Fail(op Op, ent *Entity, err error) *Error {
	e := newOpError(origin(1), op, ent, err.Error())
	e.cause = err
	if failureKind(err) == nil {
		e.kind = ErrBackendFailure
	}
	return e
}

func newOpError(at string, op Op, ent *Entity, detail string) *Error {
	typ := "<nil>"
	if ent != nil {
		typ = ent.Type()
	}
	msg := fmt.Sprintf("Failed to %s a '%s' entity: %s", op, typ, detail)
	return &Error{op: op, frames: []Frame{{Origin: at, Message: msg}}}
}

func failureKind(err error) error {
	for _, k := range []error{ErrNoPersistence, ErrInvalidCriteria, ErrUnsupportedPrimitive, ErrBackendFailure} {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}

// WithKind sets the failure kind and returns e.
func (e *Error) WithKind(kind error) *Error {
	e.kind = kind
	return e
}

// WithCause records the underlying error and returns e.
func (e *Error) WithCause(err error) *Error {
	e.cause = err
	return e
}

// Add appends a frame.
func (e *Error) Add(msg string) {
	e.frames = append(e.frames, Frame{Origin: origin(1), Message: msg})
}

// With appends a frame and returns the same error so it can be returned
// again by the caller: return err.With("while loading config").
func (e *Error) With(msg string) *Error {
	e.frames = append(e.frames, Frame{Origin: origin(1), Message: msg})
	return e
}

// Op returns the entity operation the error belongs to, if any.
func (e *Error) Op() Op { return e.op }

// Kind returns the failure kind, or nil.
func (e *Error) Kind() error {
	if e.kind != nil {
		return e.kind
	}
	return failureKind(e.cause)
}

// Frames returns a copy of the trace, oldest first.
func (e *Error) Frames() []Frame {
	out := make([]Frame, len(e.frames))
	copy(out, e.frames)
	return out
}

// Error joins the frame messages, oldest first.
func (e *Error) Error() string {
	msgs := make([]string, len(e.frames))
	for i, f := range e.frames {
		msgs[i] = f.Message
	}
	return strings.Join(msgs, "; ")
}

// Trace renders one "origin - message" line per frame.
func (e *Error) Trace() string {
	var b strings.Builder
	for _, f := range e.frames {
		b.WriteString(f.Origin)
		b.WriteString(" - ")
		b.WriteString(f.Message)
		b.WriteByte('\n')
	}
	return b.String()
}

// Format prints the full trace for %+v and the joined messages otherwise.
func (e *Error) Format(s fmt.State, verb rune) {
	switch {
	case verb == 'v' && s.Flag('+'):
		io.WriteString(s, e.Trace())
	case verb == 'q':
		fmt.Fprintf(s, "%q", e.Error())
	default:
		io.WriteString(s, e.Error())
	}
}

// Unwrap exposes the failure kind and the cause.
func (e *Error) Unwrap() []error {
	var errs []error
	if e.kind != nil {
		errs = append(errs, e.kind)
	}
	if e.cause != nil {
		errs = append(errs, e.cause)
	}
	return errs
}

// origin returns file:line of the caller skip frames above its caller.
func origin(skip int) string {
	_, file, line, ok := runtime.Caller(skip + 1)
	if !ok {
		return "?:0"
	}
	return filepath.Base(file) + ":" + strconv.Itoa(line)
}
