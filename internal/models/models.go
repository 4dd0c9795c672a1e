package models

import "time"

const (
	DateLayout     = "2006-01-02"
	TimeLayout     = "15:04:05"
	DateTimeLayout = DateLayout + " " + TimeLayout

	// DefaultTime is used when a record is written without a time of day.
	DefaultTime = "00:00:00"
)

// Liters per container.
const (
	PintLiters     = 0.5
	HalfPintLiters = 0.25
	Can33Liters    = 0.33
)

type User struct {
	ID             string     `db:"id"`
	Username       string     `db:"username"`
	PasswordHash   string     `db:"password_hash"`
	IsAdmin        bool       `db:"is_admin"`
	CreatedAt      time.Time  `db:"created_at"`
	NightModeUntil *time.Time `db:"night_mode_until"`
}

// Counts are the three container counters logged at one instant.
type Counts struct {
	Pints     int `db:"pints" json:"pints"`
	HalfPints int `db:"half_pints" json:"half_pints"`
	Liters33  int `db:"liters_33" json:"33cl"`
}

func (c Counts) Liters() float64 {
	return float64(c.Pints)*PintLiters + float64(c.HalfPints)*HalfPintLiters + float64(c.Liters33)*Can33Liters
}

func (c Counts) Add(other Counts) Counts {
	return Counts{
		Pints:     c.Pints + other.Pints,
		HalfPints: c.HalfPints + other.HalfPints,
		Liters33:  c.Liters33 + other.Liters33,
	}
}

type ConsumptionRecord struct {
	ID        int64  `db:"id" json:"id"`
	UserID    string `db:"user_id" json:"user_id"`
	Date      string `db:"drink_date" json:"date"`
	Time      string `db:"drink_time" json:"time"`
	Pints     int    `db:"pints" json:"pints"`
	HalfPints int    `db:"half_pints" json:"half_pints"`
	Liters33  int    `db:"liters_33" json:"liters_33"`
}

func (r ConsumptionRecord) Counts() Counts {
	return Counts{Pints: r.Pints, HalfPints: r.HalfPints, Liters33: r.Liters33}
}

// DateRange bounds a query inclusively; empty strings leave a side open.
type DateRange struct {
	Start string
	End   string
}

func (r DateRange) Contains(date string) bool {
	if r.Start != "" && date < r.Start {
		return false
	}
	if r.End != "" && date > r.End {
		return false
	}
	return true
}

type WarningDrink struct {
	Time   string  `json:"time"`
	Liters float64 `json:"liters"`
}

// WarningWindow is a 3 hour span of today in which logged volume reached the
// binge threshold. It is derived on every stats request and never stored.
type WarningWindow struct {
	StartDate   string         `json:"start_date"`
	StartTime   string         `json:"start_time"`
	EndDate     string         `json:"end_date"`
	EndTime     string         `json:"end_time"`
	TotalLiters float64        `json:"total_liters"`
	Drinks      []WarningDrink `json:"drinks"`
}

type StatsResult struct {
	TotalPints     int                 `json:"total_pints"`
	TotalHalfPints int                 `json:"total_half_pints"`
	Total33cl      int                 `json:"total_33cl"`
	TotalLiters    float64             `json:"total_liters"`
	Warnings       []WarningWindow     `json:"warnings"`
	MonthlyStats   map[string]Counts   `json:"monthly_stats"`
	Records        []ConsumptionRecord `json:"records"`
}

type DrinkerTotals struct {
	UserID         string `json:"user_id"`
	Username       string `json:"username"`
	TotalPints     int    `json:"total_pints"`
	TotalHalfPints int    `json:"total_half_pints"`
	Total33cl      int    `json:"total_33cl"`
}

type CreatedUser struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type ImportResult struct {
	Imported     int           `json:"imported"`
	Errors       []string      `json:"errors"`
	CreatedUsers []CreatedUser `json:"created_users"`
}
