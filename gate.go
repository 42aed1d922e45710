package accounts

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
)

// AccessGate derives the request's user from a bearer token and refines it
// through the fixed tier chain: authenticated, then active, then superuser.
// Each tier is a plain refinement over the previous one; the order never
// changes, so an inactive superuser is reported as disabled rather than
// reaching the privilege check.
type AccessGate struct {
	users  Users
	tokens TokenValidator
	logger Logger
}

// NewAccessGate returns a gate backed by the given store and validator.
func NewAccessGate(users Users, tokens TokenValidator) *AccessGate {
	return &AccessGate{
		users:  users,
		tokens: tokens,
		logger: defLogger{},
	}
}

func (g *AccessGate) WithLogger(logger Logger) *AccessGate {
	g.logger = logger
	return g
}

// CurrentUser is tier 1. Every failure mode, a missing or unverifiable
// token, an empty subject claim, or a subject whose record was deleted after
// issuance, collapses into ErrUnauthenticated.
func (g *AccessGate) CurrentUser(ctx context.Context, rawToken string) (*User, error) {
	claims, err := g.tokens.Validate(rawToken)
	if err != nil {
		g.logger.Debug("bearer token rejected: %v", err)
		return nil, ErrUnauthenticated
	}

	subject := claims.Subject()
	if subject == "" {
		return nil, ErrUnauthenticated
	}

	user, err := g.users.FindByUsername(ctx, subject)
	if err != nil {
		if goerrors.Is(err, ErrUserNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to resolve token subject")
	}

	return user, nil
}

// ActiveUser composes tiers 1 and 2.
func (g *AccessGate) ActiveUser(ctx context.Context, rawToken string) (*User, error) {
	user, err := g.CurrentUser(ctx, rawToken)
	if err != nil {
		return nil, err
	}
	return RequireActive(user)
}

// SuperUser composes tiers 1 through 3.
func (g *AccessGate) SuperUser(ctx context.Context, rawToken string) (*User, error) {
	user, err := g.CurrentUser(ctx, rawToken)
	if err != nil {
		return nil, err
	}
	return RequireSuperuser(user)
}

// RequireActive is tier 2: a pure refinement rejecting disabled accounts.
func RequireActive(user *User) (*User, error) {
	if user == nil {
		return nil, ErrUnauthenticated
	}
	if !user.IsActive {
		return nil, ErrAccountDisabled
	}
	return user, nil
}

// RequireSuperuser is tier 3. It runs the active check first, so a disabled
// superuser fails with ErrAccountDisabled regardless of its privilege bit.
func RequireSuperuser(user *User) (*User, error) {
	user, err := RequireActive(user)
	if err != nil {
		return nil, err
	}
	if !user.IsSuperuser {
		return nil, ErrInsufficientPrivilege
	}
	return user, nil
}
