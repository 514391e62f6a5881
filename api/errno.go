// Package api defines the guest-facing boundary contract of the signature
// host runtime: error codes, encoding identifiers, opaque handles, and the
// full set of boundary calls. Everything crossing the boundary is either an
// integer from this package or a flat byte slice.
package api

import "errors"

// Errno is the primary result of every boundary call.
type Errno uint16

const (
	ErrnoSuccess Errno = iota
	ErrnoNotAvailable
	ErrnoInvalidKey
	ErrnoVerificationFailed
	ErrnoRNGError
	ErrnoAlgorithmFailure
	ErrnoInvalidSignature
	ErrnoClosed
	ErrnoInvalidHandle
	ErrnoOverflow
)

var errnoNames = [...]string{
	"success",
	"notavailable",
	"invalidkey",
	"verificationfailed",
	"rngerror",
	"algorithmfailure",
	"invalidsignature",
	"closed",
	"invalidhandle",
	"overflow",
}

func (e Errno) String() string {
	if int(e) < len(errnoNames) {
		return errnoNames[e]
	}
	return "unknown"
}

// Sentinel errors used throughout the runtime. Internal code returns these
// (possibly wrapped); the boundary layer folds them into an Errno with
// ErrnoOf.
var (
	ErrNotAvailable       = errors.New("crypto: not available")
	ErrInvalidKey         = errors.New("crypto: invalid key")
	ErrVerificationFailed = errors.New("crypto: verification failed")
	ErrRNG                = errors.New("crypto: rng failure")
	ErrAlgorithmFailure   = errors.New("crypto: algorithm failure")
	ErrInvalidSignature   = errors.New("crypto: invalid signature")
	ErrClosed             = errors.New("crypto: runtime closed")
	ErrInvalidHandle      = errors.New("crypto: invalid handle")
	ErrOverflow           = errors.New("crypto: overflow")
)

// ErrnoOf maps an error returned by the runtime internals to its wire errno.
// Unrecognized errors surface as algorithmfailure rather than being dropped.
func ErrnoOf(err error) Errno {
	switch {
	case err == nil:
		return ErrnoSuccess
	case errors.Is(err, ErrInvalidHandle):
		return ErrnoInvalidHandle
	case errors.Is(err, ErrNotAvailable):
		return ErrnoNotAvailable
	case errors.Is(err, ErrInvalidKey):
		return ErrnoInvalidKey
	case errors.Is(err, ErrVerificationFailed):
		return ErrnoVerificationFailed
	case errors.Is(err, ErrInvalidSignature):
		return ErrnoInvalidSignature
	case errors.Is(err, ErrRNG):
		return ErrnoRNGError
	case errors.Is(err, ErrOverflow):
		return ErrnoOverflow
	case errors.Is(err, ErrClosed):
		return ErrnoClosed
	default:
		return ErrnoAlgorithmFailure
	}
}
