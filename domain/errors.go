package domain

import "errors"

var (
	UnexpectedDatabaseError = errors.New("unexpected-database-error")
	ErrDuplicateUsername    = errors.New("duplicate-username")
	ErrUserNotFound         = errors.New("user-not-found")
)

var HashingError = errors.New("hashing-error")

var (
	ErrInvalidSigningAlg     = errors.New("invalid-signing-alg")
	ErrExpiredToken          = errors.New("expired-token")
	ErrInvalidTokenSignature = errors.New("invalid-token-signature")
	ErrCorruptedToken        = errors.New("corrupted-token")
)

var TokenGenerationError = errors.New("token-generation-error")
