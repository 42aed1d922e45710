package accounts_test

import (
	"context"
	"database/sql"
	"fmt"
	"sync/atomic"
	"testing"

	accounts "github.com/goliatone/go-accounts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

var testDBSeq atomic.Int64

// setupUsersRepo opens a fresh in-memory database per test. A single
// connection keeps the shared memory database alive for the test's duration.
func setupUsersRepo(t *testing.T) accounts.Users {
	t.Helper()

	dsn := fmt.Sprintf("file:repo_users_%d?mode=memory&cache=shared", testDBSeq.Add(1))
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { db.Close() })

	require.NoError(t, accounts.CreateSchema(context.Background(), db))

	return accounts.NewUsersRepository(db)
}

func seedUser(t *testing.T, repo accounts.Users, username, email string) *accounts.User {
	t.Helper()

	user, err := repo.Create(context.Background(), &accounts.User{
		Email:        email,
		Username:     username,
		PasswordHash: "x",
		IsActive:     true,
	})
	require.NoError(t, err)

	return user
}

func TestUsersCreateAndFind(t *testing.T) {
	repo := setupUsersRepo(t)
	ctx := context.Background()

	created := seedUser(t, repo, "alice", "alice@example.com")
	assert.NotZero(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())

	byID, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", byID.Username)

	byUsername, err := repo.FindByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byUsername.ID)

	byEmail, err := repo.FindByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byEmail.ID)
}

func TestUsersFindMiss(t *testing.T) {
	repo := setupUsersRepo(t)
	ctx := context.Background()

	_, err := repo.FindByID(ctx, 42)
	assert.Equal(t, accounts.ErrUserNotFound, err)

	_, err = repo.FindByUsername(ctx, "nobody")
	assert.Equal(t, accounts.ErrUserNotFound, err)

	_, err = repo.FindByEmail(ctx, "nobody@example.com")
	assert.Equal(t, accounts.ErrUserNotFound, err)
}

func TestUsersUniqueConstraints(t *testing.T) {
	repo := setupUsersRepo(t)
	ctx := context.Background()

	seedUser(t, repo, "alice", "alice@example.com")

	_, err := repo.Create(ctx, &accounts.User{
		Email:        "alice@example.com",
		Username:     "other",
		PasswordHash: "x",
	})
	assert.Equal(t, accounts.ErrDuplicateIdentifier, err)

	_, err = repo.Create(ctx, &accounts.User{
		Email:        "other@example.com",
		Username:     "alice",
		PasswordHash: "x",
	})
	assert.Equal(t, accounts.ErrDuplicateIdentifier, err)
}

func TestUsersUpdate(t *testing.T) {
	repo := setupUsersRepo(t)
	ctx := context.Background()

	user := seedUser(t, repo, "alice", "alice@example.com")

	user.FullName = "Alice Example"
	user.IsActive = false

	updated, err := repo.Update(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, "Alice Example", updated.FullName)

	reloaded, err := repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice Example", reloaded.FullName)
	assert.False(t, reloaded.IsActive)
}

func TestUsersUpdateUniqueCollision(t *testing.T) {
	repo := setupUsersRepo(t)
	ctx := context.Background()

	seedUser(t, repo, "alice", "alice@example.com")
	bob := seedUser(t, repo, "bob", "bob@example.com")

	bob.Email = "alice@example.com"
	_, err := repo.Update(ctx, bob)
	assert.Equal(t, accounts.ErrDuplicateIdentifier, err)
}

func TestUsersUpdateMissing(t *testing.T) {
	repo := setupUsersRepo(t)

	_, err := repo.Update(context.Background(), &accounts.User{
		ID:           42,
		Email:        "ghost@example.com",
		Username:     "ghost",
		PasswordHash: "x",
	})
	assert.Equal(t, accounts.ErrUserNotFound, err)
}

func TestUsersListAndCount(t *testing.T) {
	repo := setupUsersRepo(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		seedUser(t, repo,
			fmt.Sprintf("user%d", i),
			fmt.Sprintf("user%d@example.com", i))
	}

	all, err := repo.List(ctx, 0, 100)
	require.NoError(t, err)
	require.Len(t, all, 5)

	// Ordered by id ascending.
	for i := 1; i < len(all); i++ {
		assert.Greater(t, all[i].ID, all[i-1].ID)
	}

	page, err := repo.List(ctx, 2, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, all[2].ID, page[0].ID)
	assert.Equal(t, all[3].ID, page[1].ID)

	tail, err := repo.List(ctx, 100, 10)
	require.NoError(t, err)
	assert.Empty(t, tail)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, count)
}

func TestUsersDelete(t *testing.T) {
	repo := setupUsersRepo(t)
	ctx := context.Background()

	user := seedUser(t, repo, "alice", "alice@example.com")

	require.NoError(t, repo.Delete(ctx, user.ID))

	_, err := repo.FindByID(ctx, user.ID)
	assert.Equal(t, accounts.ErrUserNotFound, err)

	assert.Equal(t, accounts.ErrUserNotFound, repo.Delete(ctx, user.ID))
}
