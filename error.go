// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package fiber

// Kind names one of the error taxonomy's distinct codes (spec.md §7).
type Kind int

const (
	// KindNone is the zero Kind; never returned from a public op.
	KindNone Kind = iota
	// KindCanceled: the owner asked this fiber to terminate (ECANCELED).
	KindCanceled
	// KindTimedOut: an absolute deadline was reached (ETIMEDOUT).
	KindTimedOut
	// KindBadArg: a structural argument violation, e.g. mismatched item
	// size or a negative count (EINVAL).
	KindBadArg
	// KindOom: stack or buffer allocation failed (ENOMEM).
	KindOom
	// KindPipe: the channel is done; the op would otherwise block forever
	// (EPIPE).
	KindPipe
	// KindBusy: another fiber already holds this (fd, direction) slot
	// (EEXIST).
	KindBusy
	// KindBadFd: the kernel rejected the file descriptor (EBADF).
	KindBadFd
)

func (k Kind) String() string {
	switch k {
	case KindCanceled:
		return "ECANCELED"
	case KindTimedOut:
		return "ETIMEDOUT"
	case KindBadArg:
		return "EINVAL"
	case KindOom:
		return "ENOMEM"
	case KindPipe:
		return "EPIPE"
	case KindBusy:
		return "EEXIST"
	case KindBadFd:
		return "EBADF"
	default:
		return "EOK"
	}
}

// Error is the single error type every blocking or fallible op in this
// package returns. It wraps exactly one Kind and is comparable via
// errors.Is against the package-level sentinels below — the errno-style
// single-slot-error model described in spec.md §9, adapted to Go's
// tagged-result idiom instead of a global errno.
type Error struct {
	Kind Kind
	// Op names the call that produced the error, e.g. "chsend", "fdwait".
	Op string
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Op == "" {
		return e.Kind.String()
	}
	return e.Op + ": " + e.Kind.String()
}

// Is implements errors.Is support against the Kind-only sentinels below,
// so callers can write `errors.Is(err, fiber.ErrCanceled)` regardless of
// which op produced it.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// Sentinel errors, one per Kind, for errors.Is comparisons. Each carries no
// Op so it matches any op of that Kind.
var (
	ErrCanceled = &Error{Kind: KindCanceled}
	ErrTimedOut = &Error{Kind: KindTimedOut}
	ErrBadArg   = &Error{Kind: KindBadArg}
	ErrOom      = &Error{Kind: KindOom}
	ErrPipe     = &Error{Kind: KindPipe}
	ErrBusy     = &Error{Kind: KindBusy}
	ErrBadFd    = &Error{Kind: KindBadFd}
)

// newErr constructs an *Error for op, the one constructor every op-tagged
// error goes through (mirrors the teacher's single Left(...)-construction
// discipline in error.go rather than ad hoc fmt.Errorf at each call site).
// Cancellation and timeout paths return the Op-less sentinels above
// directly.
func newErr(op string, kind Kind) *Error {
	return &Error{Kind: kind, Op: op}
}
