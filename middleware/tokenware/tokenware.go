// Package tokenware enforces bearer-token authentication on Fiber routes.
// It extracts a raw token from the request, hands it to a caller-supplied
// resolver (typically an access-gate tier chain), and stores the resolved
// principal in the request locals. The package mirrors the small interfaces
// it needs instead of importing the accounts package, avoiding a cycle.
package tokenware

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
)

var (
	defaultTokenLookup = "header:" + fiber.HeaderAuthorization

	// ErrMissingOrMalformed is reported when no token can be extracted from
	// the request. Callers treat it exactly like an invalid token.
	ErrMissingOrMalformed = errors.New("missing or malformed bearer token")
)

// Resolver turns a raw token into a request principal. A failed resolution
// denies the request through the configured ErrorHandler.
type Resolver func(ctx context.Context, rawToken string) (any, error)

type Config struct {
	// Filter skips the middleware when it returns true.
	Filter func(*fiber.Ctx) bool

	// Resolve is required; it runs the token validation and any tier checks.
	Resolve Resolver

	// ErrorHandler receives extraction and resolution failures.
	ErrorHandler fiber.ErrorHandler

	// ContextKey is the locals key the principal is stored under.
	ContextKey string

	// TokenLookup is a comma-separated list of "<source>:<name>" entries,
	// e.g. "header:Authorization,cookie:token,query:access_token".
	TokenLookup string

	// AuthScheme is the expected header scheme, "Bearer" by default.
	AuthScheme string

	// ContextEnricher propagates the principal into the standard context.
	ContextEnricher func(ctx context.Context, principal any) context.Context
}

// New returns a Fiber handler enforcing the configured token policy.
func New(config ...Config) fiber.Handler {
	cfg := defaultConfig(config...)

	extractors := buildExtractors(cfg.TokenLookup, cfg.AuthScheme)

	return func(c *fiber.Ctx) error {
		if cfg.Filter != nil && cfg.Filter(c) {
			return c.Next()
		}

		raw, err := extractToken(c, extractors)
		if err != nil {
			return cfg.ErrorHandler(c, err)
		}

		principal, err := cfg.Resolve(c.UserContext(), raw)
		if err != nil {
			return cfg.ErrorHandler(c, err)
		}

		c.Locals(cfg.ContextKey, principal)

		if cfg.ContextEnricher != nil {
			c.SetUserContext(cfg.ContextEnricher(c.UserContext(), principal))
		}

		return c.Next()
	}
}

// Principal returns the resolved principal stored by the middleware.
func Principal(c *fiber.Ctx, contextKey string) any {
	if contextKey == "" {
		contextKey = "user"
	}
	return c.Locals(contextKey)
}

func defaultConfig(config ...Config) Config {
	var cfg Config
	if len(config) > 0 {
		cfg = config[0]
	}

	if cfg.Resolve == nil {
		panic("tokenware: middleware configuration requires a Resolver")
	}

	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = func(c *fiber.Ctx, err error) error {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid or expired token",
			})
		}
	}

	if cfg.ContextKey == "" {
		cfg.ContextKey = "user"
	}

	if cfg.TokenLookup == "" {
		cfg.TokenLookup = defaultTokenLookup
	}

	if cfg.AuthScheme == "" {
		cfg.AuthScheme = "Bearer"
	}

	return cfg
}

type extractor func(c *fiber.Ctx) (string, error)

func extractToken(c *fiber.Ctx, extractors []extractor) (string, error) {
	var raw string
	var err error

	for _, extract := range extractors {
		raw, err = extract(c)
		if raw != "" && err == nil {
			break
		}
	}

	return raw, err
}

func buildExtractors(tokenLookup string, authScheme string) []extractor {
	extractors := make([]extractor, 0)

	for _, rootPart := range strings.Split(tokenLookup, ",") {
		parts := strings.SplitN(strings.TrimSpace(rootPart), ":", 2)
		if len(parts) != 2 {
			continue
		}

		name := strings.TrimSpace(parts[1])
		switch strings.TrimSpace(parts[0]) {
		case "header":
			extractors = append(extractors, fromHeader(name, authScheme))
		case "query":
			extractors = append(extractors, fromQuery(name))
		case "cookie":
			extractors = append(extractors, fromCookie(name))
		}
	}

	if len(extractors) == 0 {
		extractors = append(extractors, fromHeader(fiber.HeaderAuthorization, authScheme))
	}

	return extractors
}

// fromHeader returns a function that extracts the token from the request header.
func fromHeader(header string, authScheme string) extractor {
	scheme := strings.TrimSpace(authScheme)
	return func(c *fiber.Ctx) (string, error) {
		a := c.Get(header)
		l := len(scheme)
		if len(a) > l+1 && strings.EqualFold(a[:l], scheme) {
			return strings.TrimSpace(a[l:]), nil
		}
		return "", ErrMissingOrMalformed
	}
}

// fromQuery returns a function that extracts the token from the query string.
func fromQuery(param string) extractor {
	return func(c *fiber.Ctx) (string, error) {
		token := c.Query(param)
		if token == "" {
			return "", ErrMissingOrMalformed
		}
		return token, nil
	}
}

// fromCookie returns a function that extracts the token from the named cookie.
func fromCookie(name string) extractor {
	return func(c *fiber.Ctx) (string, error) {
		token := c.Cookies(name)
		if token == "" {
			return "", ErrMissingOrMalformed
		}
		return token, nil
	}
}
