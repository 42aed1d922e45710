package accounts

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-accounts/middleware/tokenware"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
)

// UserContextKey is the fiber locals key the resolved user is stored under.
const UserContextKey = "user"

// CurrentUser returns the user the token middleware resolved for the request.
func CurrentUser(c *fiber.Ctx) (*User, bool) {
	user, ok := c.Locals(UserContextKey).(*User)
	return user, ok
}

// RegisterRoutes mounts the JSON API. /auth endpoints are anonymous, /users/me
// requires an active account, and the remaining /users endpoints require a
// superuser.
func RegisterRoutes(app *fiber.App, ctrl *Controller) {
	v1 := app.Group("/api/v1")

	authGroup := v1.Group("/auth")
	authGroup.Post("/register", ctrl.Register)
	authGroup.Post("/login", ctrl.Login)

	active := ctrl.RequireActiveUser()
	super := ctrl.RequireSuperuser()

	usersGroup := v1.Group("/users")
	usersGroup.Get("/me", active, ctrl.Me)
	usersGroup.Put("/me", active, ctrl.UpdateMe)
	usersGroup.Get("/", super, ctrl.ListUsers)
	usersGroup.Get("/:id<int>", super, ctrl.GetUser)
	usersGroup.Put("/:id<int>", super, ctrl.UpdateUser)
	usersGroup.Delete("/:id<int>", super, ctrl.DeleteUser)
}

// RequireActiveUser returns the tier-2 middleware: bearer token to user
// record, then the active-account refinement.
func (ctrl *Controller) RequireActiveUser() fiber.Handler {
	return ctrl.tierMiddleware(func(ctx context.Context, raw string) (*User, error) {
		return ctrl.Gate.ActiveUser(ctx, raw)
	})
}

// RequireSuperuser returns the tier-3 middleware. The gate runs the active
// check before the privilege check, so a disabled admin is reported as
// disabled.
func (ctrl *Controller) RequireSuperuser() fiber.Handler {
	return ctrl.tierMiddleware(func(ctx context.Context, raw string) (*User, error) {
		return ctrl.Gate.SuperUser(ctx, raw)
	})
}

func (ctrl *Controller) tierMiddleware(resolve func(ctx context.Context, raw string) (*User, error)) fiber.Handler {
	return tokenware.New(tokenware.Config{
		ContextKey: UserContextKey,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if errors.Is(err, tokenware.ErrMissingOrMalformed) {
				// Absent headers and unverifiable tokens are the same denial.
				return ErrUnauthenticated
			}
			return err
		},
		Resolve: func(ctx context.Context, raw string) (any, error) {
			return resolve(ctx, raw)
		},
		ContextEnricher: func(ctx context.Context, principal any) context.Context {
			if user, ok := principal.(*User); ok {
				return WithContext(ctx, user)
			}
			return ctx
		},
	})
}

// ErrorHandler is the app-level fiber error handler. Every taxonomy error
// carries its own HTTP status; anything unrecognized becomes a 500.
func ErrorHandler(logger Logger) fiber.ErrorHandler {
	if logger == nil {
		logger = defLogger{}
	}

	return func(c *fiber.Ctx, err error) error {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			logger.Debug(
				"request denied category=%s text_code=%s details=%s",
				richErr.Category,
				richErr.TextCode,
				print.MaybePrettyJSON(richErr.Metadata),
			)

			status := richErr.Code
			if status <= 0 {
				status = fiber.StatusInternalServerError
			}

			return c.Status(status).JSON(fiber.Map{
				"error": fiber.Map{
					"message":   richErr.Message,
					"text_code": richErr.TextCode,
				},
			})
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return c.Status(fiberErr.Code).JSON(fiber.Map{
				"error": fiber.Map{"message": fiberErr.Message},
			})
		}

		logger.Error("unhandled request error: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": fiber.Map{"message": "internal server error"},
		})
	}
}
