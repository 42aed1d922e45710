package accounts

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
)

// Authenticator resolves credentials to user records and issues session
// tokens. It deliberately separates the two concerns: Authenticate proves
// credentials without looking at account state, Login layers the is_active
// policy on top so a disabled account is only ever disclosed to callers who
// already hold valid credentials.
type Authenticator struct {
	users  Users
	tokens *TokenService
	logger Logger
}

// NewAuthenticator returns a new Authenticator
func NewAuthenticator(users Users, tokens *TokenService) *Authenticator {
	return &Authenticator{
		users:  users,
		tokens: tokens,
		logger: defLogger{},
	}
}

func (a *Authenticator) WithLogger(logger Logger) *Authenticator {
	a.logger = logger
	return a
}

// TokenService returns the TokenService instance used by this Authenticator
func (a *Authenticator) TokenService() *TokenService {
	return a.tokens
}

// Authenticate resolves (identifier, password) to a verified user record.
// The identifier is tried as a username first and as an email only when the
// username lookup misses; the username namespace wins on ambiguity. Unknown
// identifiers and wrong passwords collapse into the same ErrInvalidCredentials
// value, and the lookup-miss path burns a hash so its response time tracks
// the mismatch path.
func (a *Authenticator) Authenticate(ctx context.Context, identifier, password string) (*User, error) {
	user, err := a.lookup(ctx, identifier)
	if err != nil {
		if goerrors.Is(err, ErrUserNotFound) {
			// Equalize timing with the password-mismatch branch so callers
			// cannot enumerate identifiers through response latency.
			_ = RandomPasswordHash()
			return nil, ErrInvalidCredentials
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user during verification")
	}

	if err := ComparePasswordAndHash(password, user.PasswordHash); err != nil {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// Login authenticates and mints a bearer token whose subject is the account's
// username. Valid credentials against an inactive account fail with
// ErrAccountDisabled, a distinct outcome from bad credentials.
func (a *Authenticator) Login(ctx context.Context, identifier, password string) (string, error) {
	user, err := a.Authenticate(ctx, identifier, password)
	if err != nil {
		a.logger.Info("login rejected for %q: %v", identifier, err)
		return "", err
	}

	if !user.IsActive {
		a.logger.Warn("login blocked for disabled account %d", user.ID)
		return "", ErrAccountDisabled
	}

	token, err := a.tokens.Generate(user.Username)
	if err != nil {
		a.logger.Error("login token generation failed for user %d: %v", user.ID, err)
		return "", err
	}

	return token, nil
}

func (a *Authenticator) lookup(ctx context.Context, identifier string) (*User, error) {
	user, err := a.users.FindByUsername(ctx, identifier)
	if err == nil {
		return user, nil
	}
	if !goerrors.Is(err, ErrUserNotFound) {
		return nil, err
	}

	return a.users.FindByEmail(ctx, identifier)
}
