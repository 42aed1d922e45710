package accounts

import (
	"context"
	"database/sql"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

type users struct {
	db *bun.DB
}

var _ Users = (*users)(nil)

// NewUsersRepository returns the Bun-backed Users implementation.
func NewUsersRepository(db *bun.DB) Users {
	return &users{db: db}
}

// CreateSchema creates the users table when it does not exist yet. Username
// and email uniqueness is enforced here; application pre-checks are advisory.
func CreateSchema(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().
		Model((*User)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create users table")
	}
	return nil
}

func (r *users) FindByID(ctx context.Context, id int64) (*User, error) {
	return r.findOne(ctx, "?TableAlias.id = ?", id)
}

func (r *users) FindByUsername(ctx context.Context, username string) (*User, error) {
	return r.findOne(ctx, "?TableAlias.username = ?", username)
}

func (r *users) FindByEmail(ctx context.Context, email string) (*User, error) {
	return r.findOne(ctx, "?TableAlias.email = ?", email)
}

func (r *users) findOne(ctx context.Context, where string, arg any) (*User, error) {
	record := &User{}
	err := r.db.NewSelect().
		Model(record).
		Where(where, arg).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if goerrors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "user lookup failed")
	}

	return record, nil
}

func (r *users) List(ctx context.Context, skip, limit int) ([]*User, error) {
	var records []*User
	err := r.db.NewSelect().
		Model(&records).
		OrderExpr("?TableAlias.id ASC").
		Offset(skip).
		Limit(limit).
		Scan(ctx)

	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "user listing failed")
	}

	return records, nil
}

func (r *users) Count(ctx context.Context) (int, error) {
	count, err := r.db.NewSelect().
		Model((*User)(nil)).
		Count(ctx)

	if err != nil {
		return 0, goerrors.Wrap(err, goerrors.CategoryInternal, "user count failed")
	}

	return count, nil
}

func (r *users) Create(ctx context.Context, record *User) (*User, error) {
	now := time.Now()
	record.CreatedAt = now
	record.UpdatedAt = now

	_, err := r.db.NewInsert().
		Model(record).
		Exec(ctx)

	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateIdentifier
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "user insert failed")
	}

	return record, nil
}

func (r *users) Update(ctx context.Context, record *User) (*User, error) {
	record.UpdatedAt = time.Now()

	res, err := r.db.NewUpdate().
		Model(record).
		WherePK().
		Exec(ctx)

	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateIdentifier
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "user update failed")
	}

	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return nil, ErrUserNotFound
	}

	return record, nil
}

func (r *users) Delete(ctx context.Context, id int64) error {
	res, err := r.db.NewDelete().
		Model((*User)(nil)).
		Where("?TableAlias.id = ?", id).
		Exec(ctx)

	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "user delete failed")
	}

	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return ErrUserNotFound
	}

	return nil
}

// isUniqueViolation sniffs driver error strings because sqliteshim may load
// either the mattn or modernc driver; both report the constraint this way.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "constraint failed: UNIQUE")
}
