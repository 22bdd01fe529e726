package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"gamedash/internal/logging"
	"gamedash/internal/models"
	"gamedash/internal/report"
	"gamedash/internal/validation"
)

var errStoreDown = errors.New("store down")

type fakeUsers struct {
	mu    sync.Mutex
	byID  map[string]*models.User
	err   error
	seq   int
	roles []models.Role
}

func newFakeUsers(users ...*models.User) *fakeUsers {
	f := &fakeUsers{byID: map[string]*models.User{}}
	for _, u := range users {
		f.byID[u.ID] = u
	}
	return f
}

func (f *fakeUsers) Create(_ context.Context, u *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.seq++
	u.ID = "new-" + string(rune('0'+f.seq))
	u.CreatedAt = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	u.UpdatedAt = u.CreatedAt
	f.byID[u.ID] = u
	return nil
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.byID[id], nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	for _, u := range f.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (f *fakeUsers) ListByRole(_ context.Context, role models.Role) ([]models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.roles = append(f.roles, role)
	var out []models.User
	for _, u := range f.byID {
		if role == "" || u.Role == role {
			out = append(out, *u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeUsers) UpdateProfile(_ context.Context, id, email, userName string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return false, nil
	}
	u.Email, u.UserName = email, userName
	return true, nil
}

func (f *fakeUsers) UpdateRole(_ context.Context, id string, role models.Role) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	u, ok := f.byID[id]
	if !ok {
		return false, nil
	}
	u.Role = role
	return true, nil
}

func (f *fakeUsers) Delete(_ context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		return false, nil
	}
	delete(f.byID, id)
	return true, nil
}

type fakeRecords struct {
	records map[string]*models.PlayRecord
	err     error
}

func newFakeRecords(records ...models.PlayRecord) *fakeRecords {
	f := &fakeRecords{records: map[string]*models.PlayRecord{}}
	for i := range records {
		f.records[records[i].ID] = &records[i]
	}
	return f
}

func (f *fakeRecords) ListByGame(_ context.Context, gameType models.GameType) ([]models.PlayRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []models.PlayRecord
	for _, r := range f.records {
		if r.GameType == gameType {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PlayedAt.After(out[j].PlayedAt) })
	return out, nil
}

func (f *fakeRecords) Update(_ context.Context, id string, patch models.RecordPatch, modifiedAt time.Time) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	r, ok := f.records[id]
	if !ok {
		return false, nil
	}
	if patch.Level != nil {
		r.Level = *patch.Level
	}
	if patch.Score != nil {
		r.Score = *patch.Score
	}
	if patch.IsCompleted != nil {
		r.IsCompleted = *patch.IsCompleted
	}
	r.LastModified = &modifiedAt
	return true, nil
}

func (f *fakeRecords) Delete(_ context.Context, id string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	if _, ok := f.records[id]; !ok {
		return false, nil
	}
	delete(f.records, id)
	return true, nil
}

type sentMail struct {
	to, subject, html, text string
}

type fakeMailer struct {
	disabled bool
	failFor  string
	sent     []sentMail
}

func (m *fakeMailer) IsEnabled() bool { return !m.disabled }

func (m *fakeMailer) Send(_ context.Context, to, subject, html, text string) error {
	if to == m.failFor {
		return errors.New("mailbox unavailable")
	}
	m.sent = append(m.sent, sentMail{to: to, subject: subject, html: html, text: text})
	return nil
}

type fakeReporter struct {
	stats        *report.GlobalStats
	analysis     *report.ErrorAnalysis
	err          error
	globalFilter report.GlobalFilter
	errorFilter  report.ErrorFilter
}

func (r *fakeReporter) GlobalStats(_ context.Context, _ time.Time, filter report.GlobalFilter) (*report.GlobalStats, error) {
	r.globalFilter = filter
	if r.err != nil {
		return nil, r.err
	}
	return r.stats, nil
}

func (r *fakeReporter) AnalyzeErrors(_ context.Context, _ time.Time, filter report.ErrorFilter) (*report.ErrorAnalysis, error) {
	r.errorFilter = filter
	if r.err != nil {
		return nil, r.err
	}
	return r.analysis, nil
}

func newAdmin(records *fakeRecords, users *fakeUsers) *AdminService {
	s := NewAdminService(records, users, validation.New(), logging.Discard())
	s.now = func() time.Time { return time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC) }
	return s
}

func intPtr(v int) *int { return &v }

func boolPtr(v bool) *bool { return &v }
