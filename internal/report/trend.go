package report

import (
	"context"
	"time"
)

const (
	defaultErrorTrendDays = 30
	maxErrorTrendDays     = 366
)

// DailyErrorTotal is one day of a student's error trend
type DailyErrorTotal struct {
	Date             string         `json:"date"`
	Total            int            `json:"total"`
	ByKnowledgePoint map[string]int `json:"byKnowledgePoint"`
}

// StudentErrorTrend is a student's error counts over a trailing window
type StudentErrorTrend struct {
	StudentID              string                  `json:"studentId"`
	StartDate              string                  `json:"startDate"`
	EndDate                string                  `json:"endDate"`
	Days                   []DailyErrorTotal       `json:"days"`
	ErrorTypeDistribution  []GameErrorDistribution `json:"errorTypeDistribution"`
	KnowledgePointAnalysis []KnowledgePointSummary `json:"knowledgePointAnalysis"`
}

// StudentErrorTrend buckets a student's errors by the day of their last
// attempt over the given number of days ending today. days <= 0 means 30.
func (s *Service) StudentErrorTrend(ctx context.Context, now time.Time, studentID string, days int) (*StudentErrorTrend, error) {
	if days <= 0 {
		days = defaultErrorTrendDays
	}
	days = min(days, maxErrorTrendDays)

	window := lastDays(now, days)
	start := window[0]
	analysis, err := s.AnalyzeErrors(ctx, now, ErrorFilter{
		StudentID: studentID,
		StartDate: &start,
		EndDate:   &now,
		OrderBy:   "lastUpdated",
	})
	if err != nil {
		return nil, err
	}

	loc := now.Location()
	byDay := make(map[string]*DailyErrorTotal)
	for _, e := range analysis.RawData {
		if e.LastAttemptTime == nil {
			continue
		}
		key := dayKey(*e.LastAttemptTime, loc)
		d, ok := byDay[key]
		if !ok {
			d = &DailyErrorTotal{Date: key, ByKnowledgePoint: make(map[string]int)}
			byDay[key] = d
		}
		d.Total += e.ErrorCount
		d.ByKnowledgePoint[e.KnowledgePoint] += e.ErrorCount
	}

	trend := &StudentErrorTrend{
		StudentID:              studentID,
		StartDate:              start.Format(time.DateOnly),
		EndDate:                dayKey(now, loc),
		Days:                   make([]DailyErrorTotal, len(window)),
		ErrorTypeDistribution:  analysis.ErrorTypeDistribution,
		KnowledgePointAnalysis: analysis.KnowledgePointAnalysis,
	}
	if trend.KnowledgePointAnalysis == nil {
		trend.KnowledgePointAnalysis = []KnowledgePointSummary{}
	}
	for i, day := range window {
		key := day.Format(time.DateOnly)
		if d, ok := byDay[key]; ok {
			trend.Days[i] = *d
		} else {
			trend.Days[i] = DailyErrorTotal{Date: key, ByKnowledgePoint: map[string]int{}}
		}
	}
	return trend, nil
}
