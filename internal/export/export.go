// Package export renders reports as XLSX workbooks.
package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"gamedash/internal/games"
	"gamedash/internal/models"
	"gamedash/internal/report"
)

const (
	SheetSummary = "Summary"
	SheetGames   = "Games"
	SheetTrends  = "Trends"
	SheetRecords = "Records"
)

// ContentType is the MIME type of the workbooks written here
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// WriteGlobal writes the global report to w as an XLSX workbook
func WriteGlobal(w io.Writer, stats *report.GlobalStats, generatedAt time.Time) error {
	f, err := GlobalWorkbook(stats, generatedAt)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// GlobalWorkbook builds a workbook with one sheet per report section
func GlobalWorkbook(stats *report.GlobalStats, generatedAt time.Time) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}
	for _, name := range []string{SheetGames, SheetTrends, SheetRecords} {
		if _, err := f.NewSheet(name); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to add sheet %s: %w", name, err)
		}
	}

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	w := &sheetWriter{f: f, header: header}
	w.summarySheet(stats, generatedAt)
	w.gamesSheet(stats.GameTypeStats)
	w.trendsSheet(stats.TrendsByGameType)
	w.recordsSheet(stats.RawData)
	if w.err != nil {
		f.Close()
		return nil, w.err
	}

	f.SetActiveSheet(0)
	return f, nil
}

// sheetWriter keeps the first error so the section writers stay linear
type sheetWriter struct {
	f      *excelize.File
	header int
	err    error
}

func (w *sheetWriter) row(sheet string, n int, values ...any) {
	if w.err != nil {
		return
	}
	cell, err := excelize.CoordinatesToCellName(1, n)
	if err != nil {
		w.err = err
		return
	}
	if err := w.f.SetSheetRow(sheet, cell, &values); err != nil {
		w.err = fmt.Errorf("failed to write %s row %d: %w", sheet, n, err)
	}
}

func (w *sheetWriter) headerRow(sheet string, width float64, titles ...any) {
	w.row(sheet, 1, titles...)
	if w.err != nil {
		return
	}
	last, err := excelize.ColumnNumberToName(len(titles))
	if err != nil {
		w.err = err
		return
	}
	if err := w.f.SetRowStyle(sheet, 1, 1, w.header); err != nil {
		w.err = err
		return
	}
	if err := w.f.SetColWidth(sheet, "A", last, width); err != nil {
		w.err = err
	}
}

func (w *sheetWriter) summarySheet(stats *report.GlobalStats, generatedAt time.Time) {
	w.headerRow(SheetSummary, 20, "Metric", "Value")
	w.row(SheetSummary, 2, "Generated at", generatedAt.Format(time.RFC3339))
	w.row(SheetSummary, 3, "Total plays", stats.TotalPlayCount)
	w.row(SheetSummary, 4, "Total students", stats.TotalStudents)
}

func (w *sheetWriter) gamesSheet(stats []report.GameTypeStats) {
	w.headerRow(SheetGames, 16,
		"Game type", "Game", "Plays", "Average score", "Highest score", "Lowest score",
		"Completion rate (%)", "Unique students", "Score distribution")
	for i, g := range stats {
		w.row(SheetGames, i+2,
			string(g.GameType), g.GameName, g.PlayCount, g.AvgScore, g.HighestScore, g.LowestScore,
			g.CompletionRate, g.UniqueStudents, distribution(g.ScoreDistribution))
	}
}

func (w *sheetWriter) trendsSheet(trends map[models.GameType][]report.DailyTrend) {
	w.headerRow(SheetTrends, 14, "Game type", "Game", "Date", "Plays", "Average score")
	n := 2
	for _, gt := range games.Types() {
		for _, day := range trends[gt] {
			w.row(SheetTrends, n, string(gt), games.Name(gt), day.Date, day.PlayCount, day.AvgScore)
			n++
		}
	}
}

func (w *sheetWriter) recordsSheet(records []report.Record) {
	w.headerRow(SheetRecords, 18, "ID", "Student", "Game", "Level", "Score", "Completed", "Played at")
	for i, r := range records {
		completed := "no"
		if r.IsCompleted {
			completed = "yes"
		}
		w.row(SheetRecords, i+2,
			r.ID, r.UserName, r.GameName, r.Level, r.Score, completed, r.PlayedAt.UTC().Format(time.RFC3339))
	}
}

func distribution(buckets []games.BucketCount) string {
	parts := make([]string, len(buckets))
	for i, b := range buckets {
		parts[i] = fmt.Sprintf("%s: %d", b.Label, b.Count)
	}
	return strings.Join(parts, ", ")
}
