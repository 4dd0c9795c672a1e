package services

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"pintlog-backend-go/internal/models"
)

const (
	colUser      = "user"
	colDate      = "date"
	colTime      = "time"
	colPints     = "pints"
	colHalfPints = "half_pints"
	col33cl      = "33cl"
)

var (
	userHeader = []string{colDate, colTime, colPints, colHalfPints, col33cl}
	allHeader  = append([]string{colUser}, userHeader...)
)

// headerAliases maps accepted header spellings, including the French ones
// used by older exports, to column names.
var headerAliases = map[string]string{
	"user":        colUser,
	"username":    colUser,
	"utilisateur": colUser,
	"date":        colDate,
	"time":        colTime,
	"heure":       colTime,
	"pints":       colPints,
	"pintes":      colPints,
	"half_pints":  colHalfPints,
	"demis":       colHalfPints,
	"33cl":        col33cl,
	"liters_33":   col33cl,
}

const exportConcurrency = 4

// Transfer converts records to and from CSV.
type Transfer struct {
	records RecordStore
	users   *Users
}

func NewTransfer(records RecordStore, users *Users) *Transfer {
	return &Transfer{records: records, users: users}
}

func (t *Transfer) ExportUser(ctx context.Context, userID string, w io.Writer) error {
	records, err := t.records.Query(ctx, userID, models.DateRange{})
	if err != nil {
		return storeError(err, "User not found")
	}
	writer := csv.NewWriter(w)
	if err := writer.Write(userHeader); err != nil {
		return err
	}
	for _, record := range records {
		if err := writer.Write(recordRow(record)); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// ExportAll writes every non-admin user's records, grouped by user in
// username order. Records are fetched concurrently.
func (t *Transfer) ExportAll(ctx context.Context, w io.Writer) error {
	users, err := t.users.List(ctx)
	if err != nil {
		return err
	}
	perUser := make([][]models.ConsumptionRecord, len(users))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(exportConcurrency)
	for i, user := range users {
		g.Go(func() error {
			records, err := t.records.Query(gctx, user.ID, models.DateRange{})
			if err != nil {
				return storeError(err, "User not found")
			}
			perUser[i] = records
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(allHeader); err != nil {
		return err
	}
	for i, user := range users {
		for _, record := range perUser[i] {
			if err := writer.Write(append([]string{user.Username}, recordRow(record)...)); err != nil {
				return err
			}
		}
	}
	writer.Flush()
	return writer.Error()
}

func recordRow(record models.ConsumptionRecord) []string {
	return []string{
		record.Date,
		record.Time,
		strconv.Itoa(record.Pints),
		strconv.Itoa(record.HalfPints),
		strconv.Itoa(record.Liters33),
	}
}

type ImportOptions struct {
	// WithUser reads the owner of each row from the user column, creating
	// unknown users. Otherwise every row belongs to UserID.
	WithUser bool
	UserID   string
}

// Import adds every valid row to the store. Invalid rows are skipped and
// reported in the result; only unreadable headers and storage failures
// abort the import.
func (t *Transfer) Import(ctx context.Context, r io.Reader, opts ImportOptions) (models.ImportResult, error) {
	result := models.ImportResult{Errors: []string{}, CreatedUsers: []models.CreatedUser{}}
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return result, ErrBadRequest("CSV file is empty")
	}
	if err != nil {
		return result, ErrBadRequest("Invalid CSV header")
	}
	columns := indexColumns(header)
	if _, ok := columns[colDate]; !ok {
		return result, ErrBadRequest("CSV header must contain a date column")
	}
	if _, ok := columns[colUser]; opts.WithUser && !ok {
		return result, ErrBadRequest("CSV header must contain a user column")
	}

	resolved := map[string]string{}
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if !errors.As(err, &perr) {
				return result, WrapError(err, "read csv")
			}
			result.Errors = append(result.Errors, fmt.Sprintf("line %d: unreadable row", perr.Line))
			continue
		}
		line, _ := reader.FieldPos(0)
		if blankRow(row) {
			continue
		}

		userID := opts.UserID
		if opts.WithUser {
			username := cell(row, columns, colUser)
			if username == "" {
				result.Errors = append(result.Errors, fmt.Sprintf("line %d: empty user", line))
				continue
			}
			id, ok := resolved[username]
			if !ok {
				user, created, err := t.users.Resolve(ctx, username)
				if err != nil {
					if isUnavailable(err) {
						return result, err
					}
					result.Errors = append(result.Errors, fmt.Sprintf("line %d: cannot create user %q: %v", line, username, err))
					continue
				}
				if created != nil {
					result.CreatedUsers = append(result.CreatedUsers, *created)
				}
				id = user.ID
				resolved[username] = id
			}
			userID = id
		}

		entry, msg := parseRow(row, columns)
		if msg != "" {
			result.Errors = append(result.Errors, fmt.Sprintf("line %d: %s", line, msg))
			continue
		}
		if err := t.records.UpsertAdd(ctx, userID, entry.Date, entry.Time, entry.Counts()); err != nil {
			serr := storeError(err, "User not found")
			if isUnavailable(serr) {
				return result, serr
			}
			result.Errors = append(result.Errors, fmt.Sprintf("line %d: %v", line, serr))
			continue
		}
		result.Imported++
	}
	return result, nil
}

func indexColumns(header []string) map[string]int {
	columns := map[string]int{}
	for i, name := range header {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\uFEFF")))
		if col, ok := headerAliases[key]; ok {
			if _, seen := columns[col]; !seen {
				columns[col] = i
			}
		}
	}
	return columns
}

func cell(row []string, columns map[string]int, col string) string {
	i, ok := columns[col]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func blankRow(row []string) bool {
	for _, value := range row {
		if strings.TrimSpace(value) != "" {
			return false
		}
	}
	return true
}

// parseRow returns the record described by row, or a message explaining why
// the row is rejected.
func parseRow(row []string, columns map[string]int) (models.ConsumptionRecord, string) {
	rawDate := cell(row, columns, colDate)
	if rawDate == "" {
		return models.ConsumptionRecord{}, "empty date"
	}
	date, err := NormalizeDate(rawDate)
	if err != nil {
		return models.ConsumptionRecord{}, fmt.Sprintf("invalid date %q", rawDate)
	}
	rawTime := cell(row, columns, colTime)
	clock, err := NormalizeTime(rawTime)
	if err != nil {
		return models.ConsumptionRecord{}, fmt.Sprintf("invalid time %q", rawTime)
	}
	entry := models.ConsumptionRecord{Date: date, Time: clock}
	for _, field := range []struct {
		col string
		dst *int
	}{
		{colPints, &entry.Pints},
		{colHalfPints, &entry.HalfPints},
		{col33cl, &entry.Liters33},
	} {
		raw := cell(row, columns, field.col)
		if raw == "" {
			continue
		}
		value, err := strconv.Atoi(raw)
		if err != nil {
			return models.ConsumptionRecord{}, fmt.Sprintf("invalid %s value %q", field.col, raw)
		}
		if value < 0 || value > MaxCountPerEntry {
			return models.ConsumptionRecord{}, fmt.Sprintf("%s value %d out of range", field.col, value)
		}
		*field.dst = value
	}
	return entry, ""
}

func isUnavailable(err error) bool {
	var serr ServiceError
	return errors.As(err, &serr) && serr.Status == 503
}
