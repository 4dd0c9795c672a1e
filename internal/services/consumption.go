package services

import (
	"context"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"pintlog-backend-go/internal/models"
)

// MaxCountPerEntry bounds a single write; larger values are rejected as input
// errors rather than stored.
const MaxCountPerEntry = 1000

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

type AddRequest struct {
	Date      string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Time      string `json:"time"`
	Pints     int    `json:"pints" validate:"gte=0,lte=1000"`
	HalfPints int    `json:"half_pints" validate:"gte=0,lte=1000"`
	Liters33  int    `json:"liters_33" validate:"gte=0,lte=1000"`
}

type Consumption struct {
	records RecordStore
	now     Clock
}

func NewConsumption(records RecordStore, now Clock) *Consumption {
	return &Consumption{records: records, now: now}
}

// Add validates req and adds its counts to the record at (date, time),
// creating it when absent. Date defaults to today and time to midnight.
func (c *Consumption) Add(ctx context.Context, userID string, req AddRequest) (models.ConsumptionRecord, error) {
	req.Date = strings.TrimSpace(req.Date)
	req.Time = strings.TrimSpace(req.Time)
	if err := validate.Struct(req); err != nil {
		return models.ConsumptionRecord{}, ErrBadRequest(validationMessage(err))
	}
	date := req.Date
	if date == "" {
		date = c.now().Format(models.DateLayout)
	}
	clock, err := NormalizeTime(req.Time)
	if err != nil {
		return models.ConsumptionRecord{}, err
	}
	delta := models.Counts{Pints: req.Pints, HalfPints: req.HalfPints, Liters33: req.Liters33}
	if err := c.records.UpsertAdd(ctx, userID, date, clock, delta); err != nil {
		return models.ConsumptionRecord{}, storeError(err, "User not found")
	}
	return models.ConsumptionRecord{
		UserID:    userID,
		Date:      date,
		Time:      clock,
		Pints:     delta.Pints,
		HalfPints: delta.HalfPints,
		Liters33:  delta.Liters33,
	}, nil
}

// NormalizeTime accepts "HH:MM:SS" or "HH:MM" and returns "HH:MM:SS". An
// empty value is midnight.
func NormalizeTime(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return models.DefaultTime, nil
	}
	for _, layout := range []string{models.TimeLayout, "15:04"} {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed.Format(models.TimeLayout), nil
		}
	}
	return "", ErrBadRequest("Invalid time, expected HH:MM:SS")
}

// NormalizeDate checks raw is a YYYY-MM-DD calendar date.
func NormalizeDate(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	parsed, err := time.Parse(models.DateLayout, raw)
	if err != nil {
		return "", ErrBadRequest("Invalid date, expected YYYY-MM-DD")
	}
	return parsed.Format(models.DateLayout), nil
}

func validationMessage(err error) string {
	errs, ok := err.(validator.ValidationErrors)
	if !ok || len(errs) == 0 {
		return "Invalid payload"
	}
	fe := errs[0]
	switch fe.Tag() {
	case "gte":
		return fe.Field() + " cannot be negative"
	case "lte":
		return fe.Field() + " is too large"
	case "datetime":
		return "Invalid date, expected YYYY-MM-DD"
	default:
		return "Invalid " + fe.Field()
	}
}
