package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"

	"pintlog-backend-go/internal/models"
)

// SQL implements the record store and user directory on top of sqlx. Queries
// use "?" placeholders and are rebound for the connection's driver.
type SQL struct {
	db *sqlx.DB
}

func NewSQL(db *sqlx.DB) *SQL {
	return &SQL{db: db}
}

func (s *SQL) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return unavailable("ping", err)
	}
	return nil
}

func (s *SQL) UpsertAdd(ctx context.Context, userID, date, clock string, delta models.Counts) error {
	if err := checkDelta(delta); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, s.db.Rebind(`
INSERT INTO consumption (user_id, drink_date, drink_time, pints, half_pints, liters_33)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT (user_id, drink_date, drink_time) DO UPDATE SET
  pints = consumption.pints + excluded.pints,
  half_pints = consumption.half_pints + excluded.half_pints,
  liters_33 = consumption.liters_33 + excluded.liters_33
`), userID, date, clock, delta.Pints, delta.HalfPints, delta.Liters33)
	if err == nil {
		return nil
	}
	if isForeignKeyViolation(err) {
		return ErrNotFound
	}
	if isCheckViolation(err) {
		return fmt.Errorf("upsert consumption: %w: %v", ErrInvalid, err)
	}
	return unavailable("upsert consumption", err)
}

func (s *SQL) Query(ctx context.Context, userID string, rng models.DateRange) ([]models.ConsumptionRecord, error) {
	query := `
SELECT id, user_id, drink_date, drink_time, pints, half_pints, liters_33
FROM consumption
WHERE user_id = ?`
	args := []interface{}{userID}
	if rng.Start != "" {
		query += " AND drink_date >= ?"
		args = append(args, rng.Start)
	}
	if rng.End != "" {
		query += " AND drink_date <= ?"
		args = append(args, rng.End)
	}
	query += " ORDER BY drink_date DESC, drink_time DESC"

	records := []models.ConsumptionRecord{}
	if err := s.db.SelectContext(ctx, &records, s.db.Rebind(query), args...); err != nil {
		return nil, unavailable("query consumption", err)
	}
	return records, nil
}

func (s *SQL) SumByUser(ctx context.Context) (map[string]models.Counts, error) {
	rows := []struct {
		UserID string `db:"user_id"`
		models.Counts
	}{}
	if err := s.db.SelectContext(ctx, &rows, `
SELECT user_id,
       COALESCE(SUM(pints), 0) AS pints,
       COALESCE(SUM(half_pints), 0) AS half_pints,
       COALESCE(SUM(liters_33), 0) AS liters_33
FROM consumption
GROUP BY user_id
`); err != nil {
		return nil, unavailable("sum consumption", err)
	}
	sums := make(map[string]models.Counts, len(rows))
	for _, row := range rows {
		sums[row.UserID] = row.Counts
	}
	return sums, nil
}

func (s *SQL) DeleteUser(ctx context.Context, userID string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return unavailable("delete user", err)
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM consumption WHERE user_id = ?`), userID); err != nil {
		return unavailable("delete user records", err)
	}
	if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM users WHERE id = ?`), userID); err != nil {
		return unavailable("delete user", err)
	}
	if err := tx.Commit(); err != nil {
		return unavailable("delete user", err)
	}
	return nil
}

func (s *SQL) CreateUser(ctx context.Context, user models.User) error {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, s.db.Rebind(`
INSERT INTO users (id, username, password_hash, is_admin, created_at, night_mode_until)
VALUES (?, ?, ?, ?, ?, ?)
`), user.ID, user.Username, user.PasswordHash, user.IsAdmin, user.CreatedAt, user.NightModeUntil)
	if err == nil {
		return nil
	}
	if isUniqueViolation(err) {
		return ErrConflict
	}
	return unavailable("create user", err)
}

const userColumns = `id, username, password_hash, is_admin, created_at, night_mode_until`

func (s *SQL) UserByID(ctx context.Context, id string) (models.User, error) {
	return s.getUser(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
}

func (s *SQL) UserByName(ctx context.Context, username string) (models.User, error) {
	return s.getUser(ctx, `SELECT `+userColumns+` FROM users WHERE username = ?`, username)
}

func (s *SQL) getUser(ctx context.Context, query string, arg string) (models.User, error) {
	var user models.User
	err := s.db.GetContext(ctx, &user, s.db.Rebind(query), arg)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrNotFound
	}
	if err != nil {
		return models.User{}, unavailable("get user", err)
	}
	return user, nil
}

func (s *SQL) ListUsers(ctx context.Context) ([]models.User, error) {
	users := []models.User{}
	if err := s.db.SelectContext(ctx, &users, `SELECT `+userColumns+` FROM users WHERE NOT is_admin ORDER BY username`); err != nil {
		return nil, unavailable("list users", err)
	}
	return users, nil
}

func (s *SQL) UpdatePassword(ctx context.Context, id, hash string) error {
	return s.updateUser(ctx, "update password", `UPDATE users SET password_hash = ? WHERE id = ?`, hash, id)
}

func (s *SQL) SetNightModeUntil(ctx context.Context, id string, until *time.Time) error {
	return s.updateUser(ctx, "set night mode", `UPDATE users SET night_mode_until = ? WHERE id = ?`, until, id)
}

func (s *SQL) updateUser(ctx context.Context, op, query string, args ...interface{}) error {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(query), args...)
	if err != nil {
		return unavailable(op, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return unavailable(op, err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23503"
	}
	return strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}

func isCheckViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23514"
	}
	return strings.Contains(err.Error(), "CHECK constraint failed")
}
