package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"pintlog-backend-go/internal/models"
)

type recordKey struct {
	date string
	time string
}

// Memory is an in-process store. SetErr makes every call fail with a
// wrapped ErrUnavailable.
type Memory struct {
	mu      sync.RWMutex
	users   map[string]models.User
	records map[string]map[recordKey]models.ConsumptionRecord
	nextID  int64
	err     error
}

func NewMemory() *Memory {
	return &Memory{
		users:   map[string]models.User{},
		records: map[string]map[recordKey]models.ConsumptionRecord{},
	}
}

// SetErr injects a storage failure; nil restores normal operation.
func (m *Memory) SetErr(err error) {
	m.mu.Lock()
	m.err = err
	m.mu.Unlock()
}

func (m *Memory) fail(op string) error {
	m.mu.RLock()
	err := m.err
	m.mu.RUnlock()
	if err != nil {
		return unavailable(op, err)
	}
	return nil
}

func (m *Memory) Ping(ctx context.Context) error {
	return m.fail("ping")
}

func (m *Memory) UpsertAdd(ctx context.Context, userID, date, clock string, delta models.Counts) error {
	if err := m.fail("upsert consumption"); err != nil {
		return err
	}
	if err := checkDelta(delta); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[userID]; !ok {
		return ErrNotFound
	}
	byKey := m.records[userID]
	if byKey == nil {
		byKey = map[recordKey]models.ConsumptionRecord{}
		m.records[userID] = byKey
	}
	key := recordKey{date: date, time: clock}
	record, ok := byKey[key]
	if !ok {
		m.nextID++
		record = models.ConsumptionRecord{ID: m.nextID, UserID: userID, Date: date, Time: clock}
	}
	record.Pints += delta.Pints
	record.HalfPints += delta.HalfPints
	record.Liters33 += delta.Liters33
	byKey[key] = record
	return nil
}

func (m *Memory) Query(ctx context.Context, userID string, rng models.DateRange) ([]models.ConsumptionRecord, error) {
	if err := m.fail("query consumption"); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	records := []models.ConsumptionRecord{}
	for _, record := range m.records[userID] {
		if rng.Contains(record.Date) {
			records = append(records, record)
		}
	}
	sort.Slice(records, func(i, j int) bool {
		if records[i].Date != records[j].Date {
			return records[i].Date > records[j].Date
		}
		return records[i].Time > records[j].Time
	})
	return records, nil
}

func (m *Memory) SumByUser(ctx context.Context) (map[string]models.Counts, error) {
	if err := m.fail("sum consumption"); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	sums := make(map[string]models.Counts, len(m.records))
	for userID, byKey := range m.records {
		var total models.Counts
		for _, record := range byKey {
			total = total.Add(record.Counts())
		}
		sums[userID] = total
	}
	return sums, nil
}

func (m *Memory) DeleteUser(ctx context.Context, userID string) error {
	if err := m.fail("delete user"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, userID)
	delete(m.users, userID)
	return nil
}

func (m *Memory) CreateUser(ctx context.Context, user models.User) error {
	if err := m.fail("create user"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[user.ID]; ok {
		return ErrConflict
	}
	for _, existing := range m.users {
		if existing.Username == user.Username {
			return ErrConflict
		}
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	m.users[user.ID] = user
	return nil
}

func (m *Memory) UserByID(ctx context.Context, id string) (models.User, error) {
	if err := m.fail("get user"); err != nil {
		return models.User{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	user, ok := m.users[id]
	if !ok {
		return models.User{}, ErrNotFound
	}
	return user, nil
}

func (m *Memory) UserByName(ctx context.Context, username string) (models.User, error) {
	if err := m.fail("get user"); err != nil {
		return models.User{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, user := range m.users {
		if user.Username == username {
			return user, nil
		}
	}
	return models.User{}, ErrNotFound
}

func (m *Memory) ListUsers(ctx context.Context) ([]models.User, error) {
	if err := m.fail("list users"); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	users := make([]models.User, 0, len(m.users))
	for _, user := range m.users {
		if !user.IsAdmin {
			users = append(users, user)
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	return users, nil
}

func (m *Memory) UpdatePassword(ctx context.Context, id, hash string) error {
	return m.update("update password", id, func(user *models.User) { user.PasswordHash = hash })
}

func (m *Memory) SetNightModeUntil(ctx context.Context, id string, until *time.Time) error {
	return m.update("set night mode", id, func(user *models.User) { user.NightModeUntil = until })
}

func (m *Memory) update(op, id string, apply func(*models.User)) error {
	if err := m.fail(op); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return ErrNotFound
	}
	apply(&user)
	m.users[id] = user
	return nil
}
