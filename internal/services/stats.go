package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"pintlog-backend-go/internal/models"
)

const (
	BingeThresholdLiters = 1.5
	BingeWindow          = 3 * time.Hour

	// absorbs float error from summing 0.33 multiples
	litersEpsilon = 1e-9
)

type Stats struct {
	records RecordStore
	now     Clock
}

func NewStats(records RecordStore, now Clock) *Stats {
	return &Stats{records: records, now: now}
}

// Compute fetches the user's records in rng and aggregates them against the
// current time of the service clock.
func (s *Stats) Compute(ctx context.Context, userID string, rng models.DateRange) (models.StatsResult, error) {
	records, err := s.records.Query(ctx, userID, rng)
	if err != nil {
		return models.StatsResult{}, storeError(err, "User not found")
	}
	return Aggregate(records, s.now())
}

type timedRecord struct {
	at     time.Time
	clock  string
	liters float64
}

// Aggregate derives totals, monthly buckets and today's binge warnings from
// records. now decides which calendar day is today. Record dates and times
// are naive local wall-clock values.
func Aggregate(records []models.ConsumptionRecord, now time.Time) (models.StatsResult, error) {
	if records == nil {
		records = []models.ConsumptionRecord{}
	}
	result := models.StatsResult{
		Warnings:     []models.WarningWindow{},
		MonthlyStats: map[string]models.Counts{},
		Records:      records,
	}
	today := now.Format(models.DateLayout)
	var liters float64
	var todays []timedRecord

	for _, record := range records {
		// wall-clock instant: windows span three hours of local time even
		// across a DST change
		at, err := time.Parse(models.DateTimeLayout, record.Date+" "+record.Time)
		if err != nil {
			return models.StatsResult{}, fmt.Errorf("%w: record %d (%q %q): %v", ErrInvalidRecordFormat, record.ID, record.Date, record.Time, err)
		}
		counts := record.Counts()
		result.TotalPints += counts.Pints
		result.TotalHalfPints += counts.HalfPints
		result.Total33cl += counts.Liters33
		liters += counts.Liters()

		month := record.Date[:7]
		result.MonthlyStats[month] = result.MonthlyStats[month].Add(counts)

		if record.Date == today {
			todays = append(todays, timedRecord{at: at, clock: record.Time, liters: counts.Liters()})
		}
	}
	result.TotalLiters = round2(liters)
	result.Warnings = detectWarnings(todays)
	return result, nil
}

// detectWarnings opens a BingeWindow at every distinct drink time, in
// ascending order, and reports windows whose volume reaches the threshold.
// A time is never used as a window start twice, and the drinks of a reported
// window cannot start a window of their own.
func detectWarnings(todays []timedRecord) []models.WarningWindow {
	warnings := []models.WarningWindow{}
	sort.SliceStable(todays, func(i, j int) bool { return todays[i].at.Before(todays[j].at) })

	processed := map[string]bool{}
	for _, candidate := range todays {
		if processed[candidate.clock] {
			continue
		}
		processed[candidate.clock] = true

		start := candidate.at
		end := start.Add(BingeWindow)
		var total float64
		drinks := []models.WarningDrink{}
		members := []string{}
		for _, other := range todays {
			if other.at.Before(start) || other.at.After(end) {
				continue
			}
			total += other.liters
			drinks = append(drinks, models.WarningDrink{Time: other.clock, Liters: round2(other.liters)})
			members = append(members, other.clock)
		}
		if total+litersEpsilon < BingeThresholdLiters {
			continue
		}
		for _, clock := range members {
			processed[clock] = true
		}
		warnings = append(warnings, models.WarningWindow{
			StartDate:   start.Format(models.DateLayout),
			StartTime:   candidate.clock,
			EndDate:     end.Format(models.DateLayout),
			EndTime:     end.Format(models.TimeLayout),
			TotalLiters: round2(total),
			Drinks:      drinks,
		})
	}
	return warnings
}

func round2(value float64) float64 {
	return math.Round(value*100) / 100
}
