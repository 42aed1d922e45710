package accounts

import (
	"fmt"
	"time"

	"github.com/uptrace/bun"
)

// User is the user model. PasswordHash is excluded from JSON output so a
// record can be returned to clients directly.
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`

	ID           int64     `bun:"id,pk,autoincrement" json:"id"`
	Email        string    `bun:"email,notnull,unique" json:"email"`
	Username     string    `bun:"username,notnull,unique" json:"username"`
	PasswordHash string    `bun:"password_hash,notnull" json:"-"`
	FullName     string    `bun:"full_name" json:"full_name,omitempty"`
	IsActive     bool      `bun:"is_active,notnull,default:true" json:"is_active"`
	IsSuperuser  bool      `bun:"is_superuser,notnull,default:false" json:"is_superuser"`
	CreatedAt    time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt    time.Time `bun:"updated_at,notnull,default:current_timestamp" json:"updated_at"`
}

func (u *User) String() string {
	return fmt.Sprintf("<User(id=%d, username=%s, email=%s)>", u.ID, u.Username, u.Email)
}

// Clone returns a shallow copy, useful when handlers stage partial updates
// that must leave the original untouched on failure.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}
