package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"pintlog-backend-go/internal/models"
	"pintlog-backend-go/internal/store"
)

// AdminAccount is the single shared administrator, configured out of band.
type AdminAccount struct {
	Username string
	Password string
}

type Identity struct {
	UserID   string
	Username string
	Roles    []string
}

func (i Identity) IsAdmin() bool {
	for _, role := range i.Roles {
		if role == RoleAdmin {
			return true
		}
	}
	return false
}

type Users struct {
	dir     UserDirectory
	records RecordStore
	tokens  TokenService
	admin   AdminAccount
}

func NewUsers(dir UserDirectory, records RecordStore, tokens TokenService, admin AdminAccount) *Users {
	return &Users{dir: dir, records: records, tokens: tokens, admin: admin}
}

func (u *Users) Authenticate(ctx context.Context, username, password string) (Identity, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return Identity{}, ErrUnauthorized("Authentication failed")
	}
	if u.isAdmin(username, password) {
		return Identity{UserID: AdminSubject, Username: u.admin.Username, Roles: []string{RoleAdmin}}, nil
	}
	user, err := u.dir.UserByName(ctx, username)
	if errors.Is(err, store.ErrNotFound) {
		return Identity{}, ErrUnauthorized("Authentication failed")
	}
	if err != nil {
		return Identity{}, storeError(err, "User not found")
	}
	if !u.tokens.VerifyPassword(password, user.PasswordHash) {
		return Identity{}, ErrUnauthorized("Authentication failed")
	}
	roles := []string{RoleUser}
	if user.IsAdmin {
		roles = append(roles, RoleAdmin)
	}
	return Identity{UserID: user.ID, Username: user.Username, Roles: roles}, nil
}

func (u *Users) isAdmin(username, password string) bool {
	if u.admin.Username == "" || u.admin.Password == "" {
		return false
	}
	nameOK := subtle.ConstantTimeCompare([]byte(username), []byte(u.admin.Username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(u.admin.Password)) == 1
	return nameOK && passOK
}

func (u *Users) Create(ctx context.Context, username, password string) (models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || strings.TrimSpace(password) == "" {
		return models.User{}, ErrBadRequest("Username and password are required")
	}
	if strings.EqualFold(username, u.admin.Username) {
		return models.User{}, ErrBadRequest("Username is reserved")
	}
	hash, err := u.tokens.HashPassword(password)
	if err != nil {
		return models.User{}, WrapError(err, "hash password")
	}
	user := models.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	err = u.dir.CreateUser(ctx, user)
	if errors.Is(err, store.ErrConflict) {
		return models.User{}, ErrBadRequest("User already exists")
	}
	if err != nil {
		return models.User{}, storeError(err, "User not found")
	}
	return user, nil
}

// Resolve returns the user named username, creating it with a random
// placeholder password when it does not exist. The returned CreatedUser is
// nil unless a user was created.
func (u *Users) Resolve(ctx context.Context, username string) (models.User, *models.CreatedUser, error) {
	user, err := u.dir.UserByName(ctx, username)
	if err == nil {
		return user, nil, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return models.User{}, nil, storeError(err, "User not found")
	}
	password, err := RandomPassword()
	if err != nil {
		return models.User{}, nil, WrapError(err, "generate password")
	}
	user, err = u.Create(ctx, username, password)
	if err != nil {
		return models.User{}, nil, err
	}
	return user, &models.CreatedUser{Username: username, Password: password}, nil
}

func (u *Users) Get(ctx context.Context, id string) (models.User, error) {
	user, err := u.dir.UserByID(ctx, id)
	if err != nil {
		return models.User{}, storeError(err, "User not found")
	}
	return user, nil
}

func (u *Users) List(ctx context.Context) ([]models.User, error) {
	users, err := u.dir.ListUsers(ctx)
	if err != nil {
		return nil, storeError(err, "User not found")
	}
	return users, nil
}

// Delete removes the user and all of their records. Deleting an unknown id
// succeeds.
func (u *Users) Delete(ctx context.Context, id string) error {
	return storeError(u.records.DeleteUser(ctx, id), "User not found")
}

func (u *Users) ResetPassword(ctx context.Context, id, password string) error {
	if strings.TrimSpace(password) == "" {
		return ErrBadRequest("Password is required")
	}
	hash, err := u.tokens.HashPassword(password)
	if err != nil {
		return WrapError(err, "hash password")
	}
	return storeError(u.dir.UpdatePassword(ctx, id, hash), "User not found")
}
