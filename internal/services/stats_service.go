package services

import (
	"time"

	"librarium/internal/repos"
)

// StatsService is pure aggregation over the other components' state.
type StatsService struct {
	Stats *repos.StatsRepo
	Audit *Audit
}

func NewStatsService(stats *repos.StatsRepo, audit *Audit) *StatsService {
	return &StatsService{Stats: stats, Audit: audit}
}

func (s *StatsService) Collect() (repos.Stats, error) {
	stats, err := s.Stats.Collect(time.Now().UTC())
	if err != nil {
		return repos.Stats{}, err
	}
	s.Audit.Record("User has asked for the library statistics")
	return stats, nil
}
