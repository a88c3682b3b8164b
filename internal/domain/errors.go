package domain

import "errors"

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes and stable
// error codes without leaking infrastructure details.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrBadRequest   = errors.New("bad request")

	// ErrTokenBlacklisted marks an access token that was revoked at logout.
	// Distinct from ErrTokenInvalid: the token may still be cryptographically
	// valid, it must be rejected regardless.
	ErrTokenBlacklisted = errors.New("token blacklisted")

	// ErrTokenInvalid covers malformed, wrongly signed and expired tokens.
	ErrTokenInvalid = errors.New("token invalid")

	// ErrCooldownActive means a verification code was requested for an address
	// still inside its send cooldown.
	ErrCooldownActive = errors.New("verification code cooldown active")

	// ErrCodeInvalid means the submitted verification code is absent, expired
	// or does not match the stored one.
	ErrCodeInvalid = errors.New("invalid verification code")

	// ErrEmailNotVerified means signup was attempted without a live verified
	// flag for the address.
	ErrEmailNotVerified = errors.New("email not verified")

	// ErrMailDelivery means the outbound mail transport failed. No state is
	// written when this is returned.
	ErrMailDelivery = errors.New("mail delivery failed")

	// ErrStoreUnavailable is a transient infrastructure failure talking to the
	// key-value store. The auth pipeline fails closed on it.
	ErrStoreUnavailable = errors.New("session store unavailable")
)
