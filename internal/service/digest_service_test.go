package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gamedash/internal/logging"
	"gamedash/internal/models"
	"gamedash/internal/report"
)

func digestReporter() *fakeReporter {
	return &fakeReporter{
		stats: &report.GlobalStats{
			TotalPlayCount: 12,
			TotalStudents:  3,
			GameTypeStats: []report.GameTypeStats{
				{GameType: models.Game1, GameName: "汉字图片连连看", PlayCount: 8, AvgScore: 37.5, CompletionRate: 50},
				{GameType: models.Game3, GameName: "量词贪吃蛇", PlayCount: 4, AvgScore: 1200, CompletionRate: 25},
			},
		},
		analysis: &report.ErrorAnalysis{
			Scope: report.ScopeGlobal,
			ErrorConcentration: &report.ErrorConcentration{
				KnowledgePoints: []report.KnowledgePointConcentration{
					{KnowledgePoint: "<量词>", ErrorCount: 9, StudentCount: 3, DifficultyLevel: "high"},
					{KnowledgePoint: "偏旁", ErrorCount: 4, StudentCount: 2, DifficultyLevel: "medium"},
					{KnowledgePoint: "p3", ErrorCount: 3, StudentCount: 1, DifficultyLevel: "low"},
					{KnowledgePoint: "p4", ErrorCount: 2, StudentCount: 1, DifficultyLevel: "low"},
					{KnowledgePoint: "p5", ErrorCount: 1, StudentCount: 1, DifficultyLevel: "low"},
					{KnowledgePoint: "p6", ErrorCount: 1, StudentCount: 1, DifficultyLevel: "low"},
				},
			},
		},
	}
}

func digestUsers() *fakeUsers {
	return newFakeUsers(
		&models.User{ID: "a1", Email: "admin@example.com", Role: models.RoleAdmin},
		&models.User{ID: "t1", Email: "teacher@example.com", Role: models.RoleTeacher},
		&models.User{ID: "t2", Role: models.RoleTeacher},
		&models.User{ID: "s1", Email: "kid@example.com", Role: models.RoleStudent},
	)
}

var digestNow = time.Date(2024, 6, 15, 8, 0, 0, 0, time.UTC)

func TestDigestBuild(t *testing.T) {
	reporter := digestReporter()
	s := NewDigestService(reporter, digestUsers(), &fakeMailer{}, "https://dash.example.com", logging.Discard())

	digest, err := s.Build(context.Background(), digestNow)
	require.NoError(t, err)

	wantStart := time.Date(2024, 6, 9, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, wantStart, digest.PeriodStart)
	assert.Equal(t, digestNow, digest.PeriodEnd)
	assert.Len(t, digest.TopKnowledgePoints, digestTopPoints)
	assert.Equal(t, "<量词>", digest.TopKnowledgePoints[0].KnowledgePoint)

	require.NotNil(t, reporter.globalFilter.StartDate)
	assert.Equal(t, wantStart, *reporter.globalFilter.StartDate)
	assert.Empty(t, reporter.errorFilter.StudentID, "digest uses the global error scope")
	require.NotNil(t, reporter.errorFilter.EndDate)
	assert.Equal(t, digestNow, *reporter.errorFilter.EndDate)
}

func TestDigestRender(t *testing.T) {
	s := NewDigestService(digestReporter(), digestUsers(), &fakeMailer{}, "https://dash.example.com", logging.Discard())
	digest, err := s.Build(context.Background(), digestNow)
	require.NoError(t, err)

	subject, html, text, err := digest.Render()
	require.NoError(t, err)

	assert.Equal(t, "Weekly game report: 2024-06-09 to 2024-06-15", subject)
	assert.Contains(t, html, "汉字图片连连看")
	assert.Contains(t, html, "&lt;量词&gt;", "knowledge points are escaped in HTML")
	assert.Contains(t, text, "<量词>")
	assert.Contains(t, text, "1. <量词>: 9 errors across 3 students (high)")
	assert.Contains(t, text, "12 plays by 3 students.")
	assert.Contains(t, text, "量词贪吃蛇: 4 plays, average 1200.0, 25% completed")
	assert.NotContains(t, text, "p6")
}

func TestDigestSend(t *testing.T) {
	mailer := &fakeMailer{}
	s := NewDigestService(digestReporter(), digestUsers(), mailer, "https://dash.example.com", logging.Discard())

	sent, err := s.Send(context.Background(), digestNow)
	require.NoError(t, err)
	assert.Equal(t, 2, sent)

	var to []string
	for _, m := range mailer.sent {
		to = append(to, m.to)
	}
	assert.Equal(t, []string{"admin@example.com", "teacher@example.com"}, to, "only staff with an email")
}

func TestDigestSendPartialFailure(t *testing.T) {
	mailer := &fakeMailer{failFor: "admin@example.com"}
	s := NewDigestService(digestReporter(), digestUsers(), mailer, "", logging.Discard())

	sent, err := s.Send(context.Background(), digestNow)
	assert.Error(t, err)
	assert.Equal(t, 1, sent)
	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "teacher@example.com", mailer.sent[0].to)
}

func TestDigestSendDisabled(t *testing.T) {
	reporter := digestReporter()
	s := NewDigestService(reporter, digestUsers(), &fakeMailer{disabled: true}, "", logging.Discard())

	sent, err := s.Send(context.Background(), digestNow)
	require.NoError(t, err)
	assert.Zero(t, sent)
	assert.Nil(t, reporter.globalFilter.StartDate, "no report is built when email is off")
}

func TestDigestReportFailure(t *testing.T) {
	reporter := digestReporter()
	reporter.err = report.ErrStoreUnavailable
	s := NewDigestService(reporter, digestUsers(), &fakeMailer{}, "", logging.Discard())

	_, err := s.Send(context.Background(), digestNow)
	assert.ErrorIs(t, err, report.ErrStoreUnavailable)
}
