package auth

import (
	"errors"
	"fmt"

	"github.com/dmitrijs2005/intelligence/internal/common"
)

// VerifyReason says why a token failed verification.
type VerifyReason int

const (
	ReasonMalformed VerifyReason = iota + 1
	ReasonBadSignature
	ReasonExpired
)

func (r VerifyReason) String() string {
	switch r {
	case ReasonMalformed:
		return "malformed"
	case ReasonBadSignature:
		return "bad_signature"
	case ReasonExpired:
		return "expired"
	default:
		return "unknown"
	}
}

type VerifyError struct {
	Reason VerifyReason
	Err    error
}

func (e *VerifyError) Error() string {
	if e.Err == nil {
		return "verify token: " + e.Reason.String()
	}
	return fmt.Sprintf("verify token: %s: %v", e.Reason, e.Err)
}

func (e *VerifyError) Unwrap() error { return e.Err }

// Is lets callers match expiry against common.ErrTokenExpired and any
// other verification failure against common.ErrInvalidToken.
func (e *VerifyError) Is(target error) bool {
	if e.Reason == ReasonExpired {
		return target == common.ErrTokenExpired
	}
	return target == common.ErrInvalidToken
}

// Reason is the outcome class of a failed authentication, listed in the
// order the stages are attempted.
type Reason int

const (
	NoCredential Reason = iota + 1
	Malformed
	BadSignature
	Expired
	PrincipalNotFound
	StoreUnavailable
)

func (r Reason) String() string {
	switch r {
	case NoCredential:
		return "no_credential"
	case Malformed:
		return "malformed"
	case BadSignature:
		return "bad_signature"
	case Expired:
		return "expired"
	case PrincipalNotFound:
		return "principal_not_found"
	case StoreUnavailable:
		return "store_unavailable"
	default:
		return "unknown"
	}
}

// Retryable is true only when the user store could not be reached; every
// other reason is a rejection of the credential itself.
func (r Reason) Retryable() bool { return r == StoreUnavailable }

// AuthError is returned by Authenticator.Authenticate.
type AuthError struct {
	Reason Reason
	Err    error
}

func (e *AuthError) Error() string {
	if e.Err == nil {
		return "authenticate: " + e.Reason.String()
	}
	return fmt.Sprintf("authenticate: %s: %v", e.Reason, e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// ReasonOf extracts the Reason from err, or 0 if err is not an *AuthError.
func ReasonOf(err error) Reason {
	var ae *AuthError
	if errors.As(err, &ae) {
		return ae.Reason
	}
	return 0
}

func fromVerify(r VerifyReason) Reason {
	switch r {
	case ReasonBadSignature:
		return BadSignature
	case ReasonExpired:
		return Expired
	default:
		return Malformed
	}
}
