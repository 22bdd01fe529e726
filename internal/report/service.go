// Package report folds play records and error patterns into the statistics
// shown on the teacher dashboard. Every entry point takes the current time
// explicitly so trend windows can be pinned in tests.
package report

import (
	"log/slog"
)

// Service builds dashboard reports
type Service struct {
	fetcher  *Fetcher
	records  RecordSource
	users    UserLookup
	patterns ErrorPatternSource
	logger   *slog.Logger
}

// NewService creates a report service
func NewService(records RecordSource, users UserLookup, patterns ErrorPatternSource, logger *slog.Logger) *Service {
	logger = logger.With("component", "report")
	return &Service{
		fetcher:  NewFetcher(records, users, logger),
		records:  records,
		users:    users,
		patterns: patterns,
		logger:   logger,
	}
}

// Fetcher exposes the service's record fetcher
func (s *Service) Fetcher() *Fetcher {
	return s.fetcher
}
