package services

import (
	"context"
	"time"

	"pintlog-backend-go/internal/models"
)

// RecordStore is the durable mapping from users to consumption records.
// UpsertAdd must be atomic per (user, date, time) key.
type RecordStore interface {
	UpsertAdd(ctx context.Context, userID, date, clock string, delta models.Counts) error
	Query(ctx context.Context, userID string, rng models.DateRange) ([]models.ConsumptionRecord, error)
	SumByUser(ctx context.Context) (map[string]models.Counts, error)
	DeleteUser(ctx context.Context, userID string) error
}

type UserDirectory interface {
	CreateUser(ctx context.Context, user models.User) error
	UserByID(ctx context.Context, id string) (models.User, error)
	UserByName(ctx context.Context, username string) (models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	UpdatePassword(ctx context.Context, id, hash string) error
	SetNightModeUntil(ctx context.Context, id string, until *time.Time) error
}

// Clock returns the reference time used to decide what "today" is.
type Clock func() time.Time

// SystemClock reads the wall clock in loc.
func SystemClock(loc *time.Location) Clock {
	if loc == nil {
		loc = time.Local
	}
	return func() time.Time { return time.Now().In(loc) }
}
