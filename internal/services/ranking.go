package services

import (
	"context"
	"sort"

	"pintlog-backend-go/internal/models"
)

type Ranking struct {
	users   UserDirectory
	records RecordStore
}

func NewRanking(users UserDirectory, records RecordStore) *Ranking {
	return &Ranking{users: users, records: records}
}

// TopDrinkers lists every user with their all-time totals, heaviest first.
// Users without records are included with zero totals.
func (r *Ranking) TopDrinkers(ctx context.Context) ([]models.DrinkerTotals, error) {
	users, err := r.users.ListUsers(ctx)
	if err != nil {
		return nil, storeError(err, "User not found")
	}
	sums, err := r.records.SumByUser(ctx)
	if err != nil {
		return nil, storeError(err, "User not found")
	}
	rows := make([]models.DrinkerTotals, 0, len(users))
	for _, user := range users {
		sum := sums[user.ID]
		rows = append(rows, models.DrinkerTotals{
			UserID:         user.ID,
			Username:       user.Username,
			TotalPints:     sum.Pints,
			TotalHalfPints: sum.HalfPints,
			Total33cl:      sum.Liters33,
		})
	}
	SortDrinkers(rows)
	return rows, nil
}

// SortDrinkers orders rows by pints, then half pints, then 33cl, all
// descending. Ties keep their input order.
func SortDrinkers(rows []models.DrinkerTotals) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.TotalPints != b.TotalPints {
			return a.TotalPints > b.TotalPints
		}
		if a.TotalHalfPints != b.TotalHalfPints {
			return a.TotalHalfPints > b.TotalHalfPints
		}
		return a.Total33cl > b.Total33cl
	})
}
