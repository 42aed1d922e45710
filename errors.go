package accounts

import (
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	// TextCodeInvalidCreds marks a failed credential check. Unknown
	// identifiers and wrong passwords share this code on purpose.
	TextCodeInvalidCreds = "INVALID_CREDENTIALS"
	// TextCodeAccountDisabled marks a valid account with is_active unset.
	TextCodeAccountDisabled = "ACCOUNT_DISABLED"
	// TextCodeInsufficientPrivilege marks an active non-superuser hitting
	// an admin-only operation.
	TextCodeInsufficientPrivilege = "INSUFFICIENT_PRIVILEGE"
	// TextCodeUnauthenticated covers every bearer-token failure at tier 1.
	TextCodeUnauthenticated = "UNAUTHENTICATED"
	// TextCodeTokenExpired marks a structurally valid token past its exp.
	TextCodeTokenExpired = "TOKEN_EXPIRED"
	// TextCodeTokenMalformed marks bad structure, bad signature, or a
	// missing exp claim.
	TextCodeTokenMalformed = "TOKEN_MALFORMED"
	// TextCodeDuplicateIdentifier marks a username/email uniqueness
	// violation surfaced by the store.
	TextCodeDuplicateIdentifier = "DUPLICATE_IDENTIFIER"
	// TextCodeUserNotFound marks lookups of nonexistent records.
	TextCodeUserNotFound = "USER_NOT_FOUND"
	// TextCodeSelfDeletion marks an admin trying to delete their own id.
	TextCodeSelfDeletion = "SELF_DELETION_FORBIDDEN"
	// TextCodeEmptyPassword marks an empty secret handed to the hasher.
	TextCodeEmptyPassword = "EMPTY_PASSWORD"
	// TextCodeInvalidHash marks a stored hash bcrypt could not parse.
	TextCodeInvalidHash = "INVALID_HASH_FORMAT"
)

// ErrMismatchedHashAndPassword is returned when a cleartext password does not
// match the stored hash. Callers on the login path collapse it into
// ErrInvalidCredentials before it ever reaches a client.
var ErrMismatchedHashAndPassword = goerrors.New("the credentials provided are invalid", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidCreds).
	WithCode(goerrors.CodeUnauthorized)

// ErrInvalidCredentials is the single failure the authenticator reports for
// both unknown identifiers and wrong passwords.
var ErrInvalidCredentials = goerrors.New("incorrect username or password", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidCreds).
	WithCode(goerrors.CodeUnauthorized)

// ErrAccountDisabled is returned once credentials have been proven valid but
// the account is inactive. It is never reachable with bad credentials.
var ErrAccountDisabled = goerrors.New("user account is disabled", goerrors.CategoryAuth).
	WithTextCode(TextCodeAccountDisabled).
	WithCode(goerrors.CodeBadRequest)

// ErrInsufficientPrivilege is returned at tier 3 for active non-superusers.
var ErrInsufficientPrivilege = goerrors.New("superuser privileges required", goerrors.CategoryAuthz).
	WithTextCode(TextCodeInsufficientPrivilege).
	WithCode(goerrors.CodeForbidden)

// ErrUnauthenticated is the tier-1 denial: missing, malformed, expired, or
// otherwise unverifiable bearer tokens, including subjects that no longer
// resolve to a user record.
var ErrUnauthenticated = goerrors.New("could not validate credentials", goerrors.CategoryAuth).
	WithTextCode(TextCodeUnauthenticated).
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenExpired is returned for tokens past their expiry.
var ErrTokenExpired = goerrors.New("token is expired", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenMalformed is returned for tokens that fail structural or signature
// validation, or that carry no expiry claim.
var ErrTokenMalformed = goerrors.New("token is malformed", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(goerrors.CodeUnauthorized)

// ErrDuplicateIdentifier is returned when an insert or update collides with
// an existing username or email. The unique constraints on the users table
// are the authority; handler pre-checks only improve the error message.
var ErrDuplicateIdentifier = goerrors.New("username or email already registered", goerrors.CategoryConflict).
	WithTextCode(TextCodeDuplicateIdentifier).
	WithCode(goerrors.CodeConflict)

// ErrUserNotFound is returned by the repository for missing records.
var ErrUserNotFound = goerrors.New("user not found", goerrors.CategoryNotFound).
	WithTextCode(TextCodeUserNotFound).
	WithCode(goerrors.CodeNotFound)

// ErrSelfDeletion is the handler-level policy denial for admins deleting
// their own account. It is not part of the access gate.
var ErrSelfDeletion = goerrors.New("cannot delete your own account", goerrors.CategoryValidation).
	WithTextCode(TextCodeSelfDeletion).
	WithCode(goerrors.CodeBadRequest)

// ErrNoEmptyString is returned when an empty password reaches the hasher.
var ErrNoEmptyString = goerrors.New("password must not be empty", goerrors.CategoryValidation).
	WithTextCode(TextCodeEmptyPassword).
	WithCode(goerrors.CodeBadRequest)

// ErrInvalidHashFormat is returned when a stored hash cannot be parsed.
// Verification treats it as a mismatch, never as a crash.
var ErrInvalidHashFormat = goerrors.New("stored password hash is malformed", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidHash).
	WithCode(goerrors.CodeUnauthorized)

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	return goerrors.Is(err, ErrTokenExpired) ||
		strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	return goerrors.Is(err, ErrTokenMalformed) ||
		strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}
