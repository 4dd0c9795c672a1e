package services

import (
	"context"
	"time"
)

// NightModeEndHour is the local hour at which night mode switches itself off.
const NightModeEndHour = 7

type NightMode struct {
	dir UserDirectory
	now Clock
}

func NewNightMode(dir UserDirectory, now Clock) *NightMode {
	return &NightMode{dir: dir, now: now}
}

// Status reports whether night mode is active. An expired value is cleared.
func (n *NightMode) Status(ctx context.Context, userID string) (bool, error) {
	user, err := n.dir.UserByID(ctx, userID)
	if err != nil {
		return false, storeError(err, "User not found")
	}
	if user.NightModeUntil == nil {
		return false, nil
	}
	if n.now().After(*user.NightModeUntil) {
		if err := n.dir.SetNightModeUntil(ctx, userID, nil); err != nil {
			return false, storeError(err, "User not found")
		}
		return false, nil
	}
	return true, nil
}

// Set enables night mode until the next NightModeEndHour, or clears it.
func (n *NightMode) Set(ctx context.Context, userID string, enabled bool) error {
	var until *time.Time
	if enabled {
		end := NextNightModeEnd(n.now()).UTC()
		until = &end
	}
	return storeError(n.dir.SetNightModeUntil(ctx, userID, until), "User not found")
}

func (n *NightMode) Toggle(ctx context.Context, userID string) (bool, error) {
	current, err := n.Status(ctx, userID)
	if err != nil {
		return false, err
	}
	if err := n.Set(ctx, userID, !current); err != nil {
		return false, err
	}
	return !current, nil
}

// NextNightModeEnd returns the first NightModeEndHour:00 strictly after now,
// in now's location.
func NextNightModeEnd(now time.Time) time.Time {
	end := time.Date(now.Year(), now.Month(), now.Day(), NightModeEndHour, 0, 0, 0, now.Location())
	if !end.After(now) {
		end = end.AddDate(0, 0, 1)
	}
	return end
}
