package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/lib/pq"

	"github.com/yasinhessnawi1/timeguard/internal/broadcast"
	"github.com/yasinhessnawi1/timeguard/internal/constants"
	"github.com/yasinhessnawi1/timeguard/internal/models"
	"github.com/yasinhessnawi1/timeguard/internal/repository"
	"github.com/yasinhessnawi1/timeguard/internal/utils"
)

// MockTimesheetRepository is an in-memory TimesheetRepository with the same
// version semantics as the Postgres one.
type MockTimesheetRepository struct {
	mu      sync.Mutex
	entries map[string]*models.TimesheetEntry
	nextID  int64

	// beforeWrite runs before Insert and UpdateIfVersion, outside the lock.
	// Tests use it to slip in a competing write.
	beforeWrite func()

	inserts int
	updates int
	upserts int
}

func NewMockTimesheetRepository() *MockTimesheetRepository {
	return &MockTimesheetRepository{entries: make(map[string]*models.TimesheetEntry), nextID: 1}
}

func timesheetKey(username string, date models.WorkDate) string {
	return username + "|" + string(date)
}

func (m *MockTimesheetRepository) hook() {
	if f := m.beforeWrite; f != nil {
		m.beforeWrite = nil
		f()
	}
}

func (m *MockTimesheetRepository) GetByUserAndDate(ctx context.Context, username string, date models.WorkDate) (*models.TimesheetEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[timesheetKey(username, date)]
	if !ok {
		return nil, utils.NewNotFoundError("TimesheetEntry", date)
	}
	return e.Clone(), nil
}

func (m *MockTimesheetRepository) GetByID(ctx context.Context, id int64) (*models.TimesheetEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.entries {
		if e.ID == id {
			return e.Clone(), nil
		}
	}
	return nil, utils.NewNotFoundError("TimesheetEntry", id)
}

func (m *MockTimesheetRepository) Insert(ctx context.Context, entry *models.TimesheetEntry) (*models.TimesheetEntry, error) {
	m.hook()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inserts++
	key := timesheetKey(entry.UserName, entry.WorkDate)
	if _, ok := m.entries[key]; ok {
		return nil, &pq.Error{Code: "23505", Constraint: constants.IndexTimesheetUserDate}
	}
	stored := entry.Clone()
	stored.ID = m.nextID
	m.nextID++
	stored.Version = 1
	stored.CreatedAt = time.Now()
	stored.UpdatedAt = stored.CreatedAt
	m.entries[key] = stored
	return stored.Clone(), nil
}

func (m *MockTimesheetRepository) UpdateIfVersion(ctx context.Context, entry *models.TimesheetEntry, expectedVersion int64) (*models.TimesheetEntry, error) {
	m.hook()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updates++
	key := timesheetKey(entry.UserName, entry.WorkDate)
	current, ok := m.entries[key]
	if !ok || current.Version != expectedVersion {
		return nil, repository.ErrVersionMismatch
	}
	stored := entry.Clone()
	stored.ID = current.ID
	stored.CreatedAt = current.CreatedAt
	stored.Version = current.Version + 1
	stored.UpdatedAt = time.Now()
	m.entries[key] = stored
	return stored.Clone(), nil
}

func (m *MockTimesheetRepository) Upsert(ctx context.Context, entry *models.TimesheetEntry) (*models.TimesheetEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upserts++
	key := timesheetKey(entry.UserName, entry.WorkDate)
	stored := entry.Clone()
	if current, ok := m.entries[key]; ok {
		stored.ID = current.ID
		stored.Version = current.Version + 1
	} else {
		stored.ID = m.nextID
		m.nextID++
		stored.Version = 1
	}
	m.entries[key] = stored
	return stored.Clone(), nil
}

func (m *MockTimesheetRepository) ListRange(ctx context.Context, username string, from, to models.WorkDate) ([]*models.TimesheetEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.TimesheetEntry
	for _, e := range m.entries {
		if e.UserName == username && e.WorkDate >= from && e.WorkDate <= to {
			out = append(out, e.Clone())
		}
	}
	return out, nil
}

// put stores an entry directly, bypassing version checks.
func (m *MockTimesheetRepository) put(e *models.TimesheetEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[timesheetKey(e.UserName, e.WorkDate)] = e.Clone()
}

// MockPublisher records published events.
type MockPublisher struct {
	mu     sync.Mutex
	events []broadcast.Event
}

func (p *MockPublisher) Publish(ev broadcast.Event) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return 1
}

func (p *MockPublisher) Events() []broadcast.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]broadcast.Event(nil), p.events...)
}

// MockBlacklistRepository is a concurrency-safe in-memory IPBlacklistRepository.
type MockBlacklistRepository struct {
	mu        sync.Mutex
	entries   map[string]*models.BlacklistEntry
	nextID    int64
	upsertErr error
}

func NewMockBlacklistRepository() *MockBlacklistRepository {
	return &MockBlacklistRepository{entries: make(map[string]*models.BlacklistEntry), nextID: 1}
}

func (m *MockBlacklistRepository) IsBlacklisted(ctx context.Context, ip string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[ip]
	return ok && e.State.IsActive(), nil
}

func (m *MockBlacklistRepository) Upsert(ctx context.Context, ip, reason string) (*models.BlacklistEntry, error) {
	if m.upsertErr != nil {
		return nil, m.upsertErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[ip]
	if !ok {
		e = &models.BlacklistEntry{ID: m.nextID, IPAddress: ip}
		m.nextID++
		m.entries[ip] = e
	}
	e.Times++
	e.Reason = reason
	e.State = models.StateActive
	copied := *e
	return &copied, nil
}

func (m *MockBlacklistRepository) GetByID(ctx context.Context, id int64) (*models.BlacklistEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.entries {
		if e.ID == id {
			copied := *e
			return &copied, nil
		}
	}
	return nil, utils.NewNotFoundError("BlacklistEntry", id)
}

func (m *MockBlacklistRepository) SoftDelete(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.entries {
		if e.ID == id {
			e.State = models.StateDeleted
			return nil
		}
	}
	return utils.NewNotFoundError("BlacklistEntry", id)
}

func (m *MockBlacklistRepository) List(ctx context.Context, offset, limit int) ([]*models.BlacklistEntry, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.BlacklistEntry
	for _, e := range m.entries {
		if e.State.IsActive() {
			copied := *e
			out = append(out, &copied)
		}
	}
	return out, len(out), nil
}

func (m *MockBlacklistRepository) get(ip string) *models.BlacklistEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entries[ip]
}

// MockWhitelistRepository is a concurrency-safe in-memory IPWhitelistRepository.
type MockWhitelistRepository struct {
	mu           sync.Mutex
	entries      map[string]*models.WhitelistEntry
	markErr      error
	reconciled   int64
	reconcileErr error
}

func NewMockWhitelistRepository() *MockWhitelistRepository {
	return &MockWhitelistRepository{entries: make(map[string]*models.WhitelistEntry)}
}

func (m *MockWhitelistRepository) EnsureTracked(ctx context.Context, ip string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[ip]; !ok {
		m.entries[ip] = &models.WhitelistEntry{IPAddress: ip, FirstSeenAt: time.Now()}
	}
	return nil
}

func (m *MockWhitelistRepository) MarkBlocked(ctx context.Context, ip string) error {
	if m.markErr != nil {
		return m.markErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[ip]
	if !ok {
		e = &models.WhitelistEntry{IPAddress: ip, FirstSeenAt: time.Now()}
		m.entries[ip] = e
	}
	e.Blacklisted = true
	e.BlacklistedCount++
	return nil
}

func (m *MockWhitelistRepository) List(ctx context.Context, offset, limit int) ([]*models.WhitelistEntry, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.WhitelistEntry
	for _, e := range m.entries {
		copied := *e
		out = append(out, &copied)
	}
	return out, len(out), nil
}

func (m *MockWhitelistRepository) Reconcile(ctx context.Context) (int64, error) {
	return m.reconciled, m.reconcileErr
}

func (m *MockWhitelistRepository) get(ip string) *models.WhitelistEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entries[ip]
}

// MockUARuleRepository serves a fixed rule set and counts loads.
type MockUARuleRepository struct {
	mu      sync.Mutex
	rules   []*models.UARule
	listErr error
	loads   int
	nextID  int64

	afterRead func()
}

func (m *MockUARuleRepository) Create(ctx context.Context, rule *models.UARule) (*models.UARule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	rule.ID = m.nextID
	rule.State = models.StateActive
	m.rules = append(m.rules, rule)
	return rule, nil
}

func (m *MockUARuleRepository) ListActive(ctx context.Context) ([]*models.UARule, error) {
	m.mu.Lock()
	m.loads++
	if m.listErr != nil {
		m.mu.Unlock()
		return nil, m.listErr
	}
	var out []*models.UARule
	for _, r := range m.rules {
		if r.State.IsActive() {
			out = append(out, r)
		}
	}
	afterRead := m.afterRead
	m.afterRead = nil
	m.mu.Unlock()

	// Runs once, after the rows were read and before they are returned.
	if afterRead != nil {
		afterRead()
	}
	return out, nil
}

func (m *MockUARuleRepository) SoftDelete(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rules {
		if r.ID == id {
			r.State = models.StateDeleted
			return nil
		}
	}
	return utils.NewNotFoundError("UARule", id)
}

func (m *MockUARuleRepository) setListErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listErr = err
}

func (m *MockUARuleRepository) loadCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loads
}

// MockUserRepository is an in-memory UserRepository.
type MockUserRepository struct {
	users     map[string]*models.User
	nextID    int64
	createErr error
}

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{users: make(map[string]*models.User), nextID: 1}
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	if m.createErr != nil {
		return m.createErr
	}
	if _, ok := m.users[user.Username]; ok {
		return utils.NewDuplicateError("User", "username", user.Username)
	}
	user.ID = m.nextID
	m.nextID++
	m.users[user.Username] = user
	return nil
}

func (m *MockUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	user, ok := m.users[username]
	if !ok {
		return nil, utils.NewNotFoundError("User", username)
	}
	return user, nil
}

func (m *MockUserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	_, ok := m.users[username]
	return ok, nil
}

func (m *MockUserRepository) ChangePassword(ctx context.Context, id int64, passwordHash, salt string) error {
	for _, u := range m.users {
		if u.ID == id {
			u.PasswordHash, u.Salt = passwordHash, salt
			return nil
		}
	}
	return utils.NewNotFoundError("User", id)
}

// MockReportJobRepository is an in-memory ReportJobRepository.
type MockReportJobRepository struct {
	jobs      map[int64]*models.ReportJob
	createErr error
}

func (m *MockReportJobRepository) Create(ctx context.Context, job *models.ReportJob) (*models.ReportJob, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	if m.jobs == nil {
		m.jobs = make(map[int64]*models.ReportJob)
	}
	job.ID = int64(len(m.jobs) + 1)
	m.jobs[job.ID] = job
	return job, nil
}

func (m *MockReportJobRepository) GetByIDForUser(ctx context.Context, id int64, username string) (*models.ReportJob, error) {
	job, ok := m.jobs[id]
	if !ok || job.Username != username {
		return nil, utils.NewNotFoundError("ReportJob", id)
	}
	return job, nil
}

var errStorage = errors.New("storage unavailable")
