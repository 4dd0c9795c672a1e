package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pintlog-backend-go/internal/models"
	"pintlog-backend-go/internal/store"
)

var testTokens = TokenService{Secret: []byte("test-secret"), Issuer: "pintlog-test", AccessTTL: time.Hour}

var testAdmin = AdminAccount{Username: "admin", Password: "s3cret"}

func newUsersFixture(t *testing.T) (*Users, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	return NewUsers(mem, mem, testTokens, testAdmin), mem
}

func statusOf(t *testing.T, err error) int {
	t.Helper()
	var serr ServiceError
	require.ErrorAs(t, err, &serr)
	return serr.Status
}

func TestUsers_CreateAndAuthenticate(t *testing.T) {
	users, _ := newUsersFixture(t)
	ctx := context.Background()

	created, err := users.Create(ctx, " alice ", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, "alice", created.Username)
	assert.NotEmpty(t, created.ID)
	assert.NotEqual(t, "hunter2", created.PasswordHash)

	identity, err := users.Authenticate(ctx, "alice", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, created.ID, identity.UserID)
	assert.Equal(t, []string{RoleUser}, identity.Roles)
	assert.False(t, identity.IsAdmin())

	_, err = users.Authenticate(ctx, "alice", "wrong")
	assert.Equal(t, 401, statusOf(t, err))
	_, err = users.Authenticate(ctx, "nobody", "hunter2")
	assert.Equal(t, 401, statusOf(t, err))
	_, err = users.Authenticate(ctx, "", "")
	assert.Equal(t, 401, statusOf(t, err))
}

func TestUsers_AdminAccount(t *testing.T) {
	users, _ := newUsersFixture(t)
	ctx := context.Background()

	identity, err := users.Authenticate(ctx, "admin", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, AdminSubject, identity.UserID)
	assert.True(t, identity.IsAdmin())

	_, err = users.Authenticate(ctx, "admin", "S3cret")
	assert.Equal(t, 401, statusOf(t, err))

	_, err = users.Create(ctx, "Admin", "whatever")
	assert.Equal(t, 400, statusOf(t, err))
}

func TestUsers_CreateValidation(t *testing.T) {
	users, _ := newUsersFixture(t)
	ctx := context.Background()

	_, err := users.Create(ctx, "", "pw")
	assert.Equal(t, 400, statusOf(t, err))
	_, err = users.Create(ctx, "bob", " ")
	assert.Equal(t, 400, statusOf(t, err))

	_, err = users.Create(ctx, "bob", "pw")
	require.NoError(t, err)
	_, err = users.Create(ctx, "bob", "other")
	require.Error(t, err)
	assert.Equal(t, "User already exists", err.Error())
}

func TestUsers_Resolve(t *testing.T) {
	users, _ := newUsersFixture(t)
	ctx := context.Background()

	existing, err := users.Create(ctx, "alice", "pw")
	require.NoError(t, err)

	user, created, err := users.Resolve(ctx, "alice")
	require.NoError(t, err)
	assert.Nil(t, created)
	assert.Equal(t, existing.ID, user.ID)

	user, created, err = users.Resolve(ctx, "newbie")
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, "newbie", created.Username)
	assert.NotEmpty(t, created.Password)

	identity, err := users.Authenticate(ctx, "newbie", created.Password)
	require.NoError(t, err)
	assert.Equal(t, user.ID, identity.UserID)
}

func TestUsers_DeleteRemovesRecords(t *testing.T) {
	users, mem := newUsersFixture(t)
	ctx := context.Background()

	user, err := users.Create(ctx, "alice", "pw")
	require.NoError(t, err)
	require.NoError(t, mem.UpsertAdd(ctx, user.ID, "2024-03-01", "20:00:00", models.Counts{Pints: 1}))

	require.NoError(t, users.Delete(ctx, user.ID))
	_, err = users.Get(ctx, user.ID)
	assert.Equal(t, 404, statusOf(t, err))
	records, err := mem.Query(ctx, user.ID, models.DateRange{})
	require.NoError(t, err)
	assert.Empty(t, records)

	require.NoError(t, users.Delete(ctx, user.ID))
}

func TestUsers_ResetPassword(t *testing.T) {
	users, _ := newUsersFixture(t)
	ctx := context.Background()

	user, err := users.Create(ctx, "alice", "old")
	require.NoError(t, err)
	require.NoError(t, users.ResetPassword(ctx, user.ID, "new"))

	_, err = users.Authenticate(ctx, "alice", "old")
	assert.Equal(t, 401, statusOf(t, err))
	_, err = users.Authenticate(ctx, "alice", "new")
	require.NoError(t, err)

	assert.Equal(t, 400, statusOf(t, users.ResetPassword(ctx, user.ID, "")))
	assert.Equal(t, 404, statusOf(t, users.ResetPassword(ctx, "ghost", "x")))
}

func TestUsers_ListSkipsAdmins(t *testing.T) {
	users, mem := newUsersFixture(t)
	ctx := context.Background()

	_, err := users.Create(ctx, "zoe", "pw")
	require.NoError(t, err)
	_, err = users.Create(ctx, "bob", "pw")
	require.NoError(t, err)
	require.NoError(t, mem.CreateUser(ctx, models.User{ID: "x", Username: "legacy-admin", IsAdmin: true}))

	list, err := users.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "bob", list[0].Username)
	assert.Equal(t, "zoe", list[1].Username)
}

func TestUsers_StorageUnavailable(t *testing.T) {
	users, mem := newUsersFixture(t)
	mem.SetErr(errors.New("gone"))
	_, err := users.Authenticate(context.Background(), "alice", "pw")
	assert.Equal(t, 503, statusOf(t, err))
}
