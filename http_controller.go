package accounts

import (
	"context"
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// Controller owns the JSON API handlers. Tier enforcement happens in the
// token middleware; handlers only add per-operation policy such as the
// self-deletion guard.
type Controller struct {
	Logger Logger
	Users  Users
	Auth   *Authenticator
	Gate   *AccessGate
}

// NewController wires the handler set. All collaborators are required.
func NewController(users Users, auther *Authenticator, gate *AccessGate) *Controller {
	if users == nil {
		panic("missing Users repository in accounts controller")
	}
	if auther == nil {
		panic("missing Authenticator in accounts controller")
	}
	if gate == nil {
		panic("missing AccessGate in accounts controller")
	}

	return &Controller{
		Logger: defLogger{},
		Users:  users,
		Auth:   auther,
		Gate:   gate,
	}
}

func (ctrl *Controller) WithLogger(logger Logger) *Controller {
	ctrl.Logger = logger
	return ctrl
}

// RegisterRequest is the registration payload.
type RegisterRequest struct {
	Email    string `json:"email" form:"email"`
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
	FullName string `json:"full_name" form:"full_name"`
}

// Validate will run validation rules
func (r RegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Email,
			validation.Required,
			is.Email,
		),
		validation.Field(
			&r.Username,
			validation.Required,
			validation.Length(3, 50),
			validation.Match(usernamePattern),
		),
		validation.Field(
			&r.Password,
			validation.Required,
			validation.Length(8, 100),
		),
		validation.Field(
			&r.FullName,
			validation.Length(0, 100),
		),
	)
}

// LoginRequest is the login payload. Username accepts either a username or
// an email address.
type LoginRequest struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required),
		validation.Field(&r.Password, validation.Required),
	)
}

// UpdateUserRequest is the partial-update payload; nil fields are untouched.
type UpdateUserRequest struct {
	Email    *string `json:"email" form:"email"`
	Username *string `json:"username" form:"username"`
	FullName *string `json:"full_name" form:"full_name"`
	Password *string `json:"password" form:"password"`
	IsActive *bool   `json:"is_active" form:"is_active"`
}

// Validate will run validation rules
func (r UpdateUserRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, is.Email),
		validation.Field(&r.Username, validation.Length(3, 50), validation.Match(usernamePattern)),
		validation.Field(&r.Password, validation.Length(8, 100)),
		validation.Field(&r.FullName, validation.Length(0, 100)),
	)
}

// TokenResponse is the login response body.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// ListResponse wraps paginated listings with their total count.
type ListResponse struct {
	Items []*User `json:"items"`
	Total int     `json:"total"`
	Skip  int     `json:"skip"`
	Limit int     `json:"limit"`
}

// Register creates a new account. The email/username pre-checks give precise
// errors; the table constraints remain the authority under concurrent
// registration and map to the same ErrDuplicateIdentifier.
func (ctrl *Controller) Register(c *fiber.Ctx) error {
	payload := new(RegisterRequest)
	if err := c.BodyParser(payload); err != nil {
		return badPayload(err)
	}

	if err := payload.Validate(); err != nil {
		return invalidPayload(err)
	}

	ctx := c.UserContext()

	if _, err := ctrl.Users.FindByEmail(ctx, payload.Email); err == nil {
		return ErrDuplicateIdentifier
	} else if !goerrors.Is(err, ErrUserNotFound) {
		return err
	}

	if _, err := ctrl.Users.FindByUsername(ctx, payload.Username); err == nil {
		return ErrDuplicateIdentifier
	} else if !goerrors.Is(err, ErrUserNotFound) {
		return err
	}

	hash, err := HashPassword(payload.Password)
	if err != nil {
		return err
	}

	user, err := ctrl.Users.Create(ctx, &User{
		Email:        payload.Email,
		Username:     payload.Username,
		PasswordHash: hash,
		FullName:     payload.FullName,
		IsActive:     true,
	})
	if err != nil {
		return err
	}

	ctrl.Logger.Info("user %d registered as %s", user.ID, user.Username)

	return c.Status(fiber.StatusCreated).JSON(user)
}

// Login exchanges credentials for a bearer token.
func (ctrl *Controller) Login(c *fiber.Ctx) error {
	payload := new(LoginRequest)
	if err := c.BodyParser(payload); err != nil {
		return badPayload(err)
	}

	if err := payload.Validate(); err != nil {
		return invalidPayload(err)
	}

	token, err := ctrl.Auth.Login(c.UserContext(), payload.Username, payload.Password)
	if err != nil {
		return err
	}

	return c.JSON(TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
	})
}

// Me returns the authenticated user's record.
func (ctrl *Controller) Me(c *fiber.Ctx) error {
	user, ok := CurrentUser(c)
	if !ok {
		return ErrUnauthenticated
	}
	return c.JSON(user)
}

// UpdateMe applies a partial update to the authenticated user. Non-superusers
// cannot toggle is_active; the field is silently dropped for them.
func (ctrl *Controller) UpdateMe(c *fiber.Ctx) error {
	user, ok := CurrentUser(c)
	if !ok {
		return ErrUnauthenticated
	}

	payload := new(UpdateUserRequest)
	if err := c.BodyParser(payload); err != nil {
		return badPayload(err)
	}

	if err := payload.Validate(); err != nil {
		return invalidPayload(err)
	}

	if !user.IsSuperuser {
		payload.IsActive = nil
	}

	updated, err := ctrl.applyUpdate(c.UserContext(), user, payload)
	if err != nil {
		return err
	}

	return c.JSON(updated)
}

// ListUsers returns a page of users ordered by id. Superuser only.
func (ctrl *Controller) ListUsers(c *fiber.Ctx) error {
	skip := c.QueryInt("skip", 0)
	limit := c.QueryInt("limit", 100)

	if skip < 0 || limit < 1 || limit > 100 {
		return goerrors.New("skip must be >= 0 and limit within 1..100", goerrors.CategoryValidation).
			WithCode(goerrors.CodeBadRequest)
	}

	ctx := c.UserContext()

	items, err := ctrl.Users.List(ctx, skip, limit)
	if err != nil {
		return err
	}

	total, err := ctrl.Users.Count(ctx)
	if err != nil {
		return err
	}

	return c.JSON(ListResponse{
		Items: items,
		Total: total,
		Skip:  skip,
		Limit: limit,
	})
}

// GetUser returns a single record by id. Superuser only.
func (ctrl *Controller) GetUser(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return badPayload(err)
	}

	user, err := ctrl.Users.FindByID(c.UserContext(), int64(id))
	if err != nil {
		return err
	}

	return c.JSON(user)
}

// UpdateUser applies a partial update to any record, including is_active.
// Superuser only.
func (ctrl *Controller) UpdateUser(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return badPayload(err)
	}

	payload := new(UpdateUserRequest)
	if err := c.BodyParser(payload); err != nil {
		return badPayload(err)
	}

	if err := payload.Validate(); err != nil {
		return invalidPayload(err)
	}

	ctx := c.UserContext()

	target, err := ctrl.Users.FindByID(ctx, int64(id))
	if err != nil {
		return err
	}

	updated, err := ctrl.applyUpdate(ctx, target, payload)
	if err != nil {
		return err
	}

	return c.JSON(updated)
}

// DeleteUser removes a record. Deleting one's own account is a handler-level
// policy denial, deliberately outside the access gate.
func (ctrl *Controller) DeleteUser(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return badPayload(err)
	}

	actor, ok := CurrentUser(c)
	if !ok {
		return ErrUnauthenticated
	}

	ctx := c.UserContext()

	target, err := ctrl.Users.FindByID(ctx, int64(id))
	if err != nil {
		return err
	}

	if target.ID == actor.ID {
		return ErrSelfDeletion
	}

	if err := ctrl.Users.Delete(ctx, target.ID); err != nil {
		return err
	}

	ctrl.Logger.Info("user %d deleted by %d", target.ID, actor.ID)

	return c.SendStatus(fiber.StatusNoContent)
}

// applyUpdate stages the changes on a copy so a failed persist leaves the
// caller's record untouched, then runs collision pre-checks for changed
// identifiers before handing the copy to the store.
func (ctrl *Controller) applyUpdate(ctx context.Context, target *User, payload *UpdateUserRequest) (*User, error) {
	staged := target.Clone()

	if payload.Email != nil && *payload.Email != staged.Email {
		if _, err := ctrl.Users.FindByEmail(ctx, *payload.Email); err == nil {
			return nil, ErrDuplicateIdentifier
		} else if !goerrors.Is(err, ErrUserNotFound) {
			return nil, err
		}
		staged.Email = *payload.Email
	}

	if payload.Username != nil && *payload.Username != staged.Username {
		if _, err := ctrl.Users.FindByUsername(ctx, *payload.Username); err == nil {
			return nil, ErrDuplicateIdentifier
		} else if !goerrors.Is(err, ErrUserNotFound) {
			return nil, err
		}
		staged.Username = *payload.Username
	}

	if payload.FullName != nil {
		staged.FullName = *payload.FullName
	}

	if payload.Password != nil {
		hash, err := HashPassword(*payload.Password)
		if err != nil {
			return nil, err
		}
		staged.PasswordHash = hash
	}

	if payload.IsActive != nil {
		staged.IsActive = *payload.IsActive
	}

	return ctrl.Users.Update(ctx, staged)
}

func badPayload(err error) error {
	return goerrors.Wrap(err, goerrors.CategoryBadInput, "could not parse request payload").
		WithCode(goerrors.CodeBadRequest)
}

func invalidPayload(err error) error {
	return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid request payload").
		WithCode(goerrors.CodeBadRequest).
		WithMetadata(map[string]any{"validation": err.Error()})
}
