package report

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"sync"
	"time"

	"gamedash/internal/logging"
	"gamedash/internal/models"
	"gamedash/internal/repository"
)

var errBoom = errors.New("boom")

type fakeRecords struct {
	records  []models.PlayRecord
	failGame models.GameType
	failUser string
}

func (f *fakeRecords) ListByGame(_ context.Context, gameType models.GameType) ([]models.PlayRecord, error) {
	if gameType == f.failGame {
		return nil, errBoom
	}
	return f.filter(func(r models.PlayRecord) bool { return r.GameType == gameType }), nil
}

func (f *fakeRecords) ListByUserAndGame(_ context.Context, userID string, gameType models.GameType) ([]models.PlayRecord, error) {
	if userID == f.failUser || gameType == f.failGame {
		return nil, errBoom
	}
	return f.filter(func(r models.PlayRecord) bool {
		return r.UserID == userID && r.GameType == gameType
	}), nil
}

func (f *fakeRecords) filter(keep func(models.PlayRecord) bool) []models.PlayRecord {
	out := []models.PlayRecord{}
	for _, r := range f.records {
		if keep(r) {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].PlayedAt.After(out[j].PlayedAt) })
	return out
}

type fakeUsers struct {
	mu      sync.Mutex
	users   map[string]*models.User
	failID  string
	lookups int
	listErr error
}

func newFakeUsers(users ...*models.User) *fakeUsers {
	f := &fakeUsers{users: make(map[string]*models.User)}
	for _, u := range users {
		f.users[u.ID] = u
	}
	return f
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (*models.User, error) {
	f.mu.Lock()
	f.lookups++
	f.mu.Unlock()
	if id == f.failID {
		return nil, errBoom
	}
	return f.users[id], nil
}

func (f *fakeUsers) ListByRole(_ context.Context, role models.Role) ([]models.User, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []models.User
	for _, u := range f.users {
		if u.Role == role {
			out = append(out, *u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type fakePatterns struct {
	patterns []models.ErrorPattern
	err      error
	last     repository.ErrorPatternQuery
}

func (f *fakePatterns) Query(_ context.Context, q repository.ErrorPatternQuery) ([]models.ErrorPattern, error) {
	f.last = q
	if f.err != nil {
		return nil, f.err
	}
	out := []models.ErrorPattern{}
	for _, p := range f.patterns {
		if q.UserID != "" && p.UserID.String != q.UserID {
			continue
		}
		if q.GameID != "" && p.GameID.String != q.GameID {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func newTestService(records *fakeRecords, users *fakeUsers, patterns *fakePatterns) *Service {
	if records == nil {
		records = &fakeRecords{}
	}
	if users == nil {
		users = newFakeUsers()
	}
	if patterns == nil {
		patterns = &fakePatterns{}
	}
	return NewService(records, users, patterns, logging.Discard())
}

// fixedNow is the pinned clock used throughout the tests
var fixedNow = time.Date(2024, 6, 15, 15, 0, 0, 0, time.UTC)

func daysAgo(n int, hour int) time.Time {
	return time.Date(2024, 6, 15-n, hour, 0, 0, 0, time.UTC)
}

func student(id, name string) *models.User {
	return &models.User{ID: id, UserName: name, Email: id + "@example.com", Role: models.RoleStudent}
}

func play(id, user string, game models.GameType, level, score int, done bool, at time.Time) models.PlayRecord {
	return models.PlayRecord{ID: id, UserID: user, GameType: game, Level: level, Score: score, IsCompleted: done, PlayedAt: at}
}

func ns(s string) sql.NullString { return sql.NullString{String: s, Valid: true} }

func ans(point, wrong string, count int64, at time.Time) models.ErrorAnswer {
	return models.ErrorAnswer{
		KnowledgePoint:  ns(point),
		WrongAnswer:     ns(wrong),
		ErrorCount:      sql.NullInt64{Int64: count, Valid: true},
		LastAttemptTime: sql.NullTime{Time: at, Valid: true},
	}
}

func pattern(id, user, game string, answers map[string]models.ErrorAnswer) models.ErrorPattern {
	p := models.ErrorPattern{ID: id, Answers: answers}
	if user != "" {
		p.UserID = ns(user)
	}
	if game != "" {
		p.GameID = ns(game)
	}
	return p
}
