package accounts_test

import (
	"errors"
	"testing"

	accounts "github.com/goliatone/go-accounts"
	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
)

func TestErrorTaxonomyStatusCodes(t *testing.T) {
	tests := []struct {
		err      *goerrors.Error
		code     int
		textCode string
	}{
		{accounts.ErrInvalidCredentials, goerrors.CodeUnauthorized, accounts.TextCodeInvalidCreds},
		{accounts.ErrAccountDisabled, goerrors.CodeBadRequest, accounts.TextCodeAccountDisabled},
		{accounts.ErrInsufficientPrivilege, goerrors.CodeForbidden, accounts.TextCodeInsufficientPrivilege},
		{accounts.ErrUnauthenticated, goerrors.CodeUnauthorized, accounts.TextCodeUnauthenticated},
		{accounts.ErrTokenExpired, goerrors.CodeUnauthorized, accounts.TextCodeTokenExpired},
		{accounts.ErrTokenMalformed, goerrors.CodeUnauthorized, accounts.TextCodeTokenMalformed},
		{accounts.ErrDuplicateIdentifier, goerrors.CodeConflict, accounts.TextCodeDuplicateIdentifier},
		{accounts.ErrUserNotFound, goerrors.CodeNotFound, accounts.TextCodeUserNotFound},
		{accounts.ErrSelfDeletion, goerrors.CodeBadRequest, accounts.TextCodeSelfDeletion},
	}

	for _, tt := range tests {
		t.Run(tt.textCode, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.textCode, tt.err.TextCode)
		})
	}
}

func TestInvalidCredentialsMessageRevealsNothing(t *testing.T) {
	// The message must not say whether the identifier or the password failed.
	assert.Equal(t, "incorrect username or password", accounts.ErrInvalidCredentials.Message)
}

func TestIsTokenExpiredError(t *testing.T) {
	assert.True(t, accounts.IsTokenExpiredError(accounts.ErrTokenExpired))
	assert.True(t, accounts.IsTokenExpiredError(errors.New("token is expired by 5m")))
	assert.False(t, accounts.IsTokenExpiredError(accounts.ErrTokenMalformed))
	assert.False(t, accounts.IsTokenExpiredError(nil))
}

func TestIsMalformedError(t *testing.T) {
	assert.True(t, accounts.IsMalformedError(accounts.ErrTokenMalformed))
	assert.True(t, accounts.IsMalformedError(errors.New("missing or malformed JWT")))
	assert.False(t, accounts.IsMalformedError(accounts.ErrTokenExpired))
	assert.False(t, accounts.IsMalformedError(nil))
}
