package ir

import (
	"github.com/cockroachdb/errors"

	"irguard/internal/diag"
)

// Contract violations. Every error returned by this package that stems from a
// broken usage contract wraps exactly one of these; test with errors.Is.
var (
	ErrUseAfterInvalidation             = errors.New("use after invalidation")
	ErrImmutableObject                  = errors.New("immutable object")
	ErrConcurrentAccessViolation        = errors.New("concurrent access violation")
	ErrUnsynchronizedConcurrentMutation = errors.New("unsynchronized concurrent mutation")
	ErrPolicyViolation                  = errors.New("policy violation")
	ErrDanglingHandles                  = errors.New("dangling handles")

	// ErrNotOwned: the object has a parent, so the caller may not destroy it
	// or attach it elsewhere.
	ErrNotOwned = errors.New("object is not owned by the caller")
	// ErrNullHandle: a lookup found nothing (out-of-range index, unknown
	// dialect). Not a contract violation; never reported as a diagnostic.
	ErrNullHandle = errors.New("null handle")
)

var violationCodes = []struct {
	err  error
	code diag.Code
}{
	{ErrUseAfterInvalidation, diag.LifeUseAfterInvalidation},
	{ErrDanglingHandles, diag.LifeDanglingHandles},
	{ErrNotOwned, diag.LifeNotOwned},
	{ErrImmutableObject, diag.CapImmutableObject},
	{ErrConcurrentAccessViolation, diag.RaceConcurrentAccess},
	{ErrUnsynchronizedConcurrentMutation, diag.RaceUnsynchronizedMutation},
	{ErrPolicyViolation, diag.PolViolation},
	{ErrNullHandle, diag.LifeNullHandle},
}

// CodeOf maps an error onto its diagnostic code, diag.UnknownCode for errors
// that are not contract violations.
func CodeOf(err error) diag.Code {
	if err == nil {
		return diag.UnknownCode
	}
	for _, vc := range violationCodes {
		if errors.Is(err, vc.err) {
			return vc.code
		}
	}
	return diag.UnknownCode
}

// IsViolation reports whether err is a contract violation.
func IsViolation(err error) bool {
	code := CodeOf(err)
	return code != diag.UnknownCode && code != diag.LifeNullHandle
}
