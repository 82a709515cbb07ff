package batcher

import (
	"testing"
	"time"
)

func TestDecide_Scenarios(t *testing.T) {
	th := DefaultThresholds()
	airing := time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		stats SeasonStatistics
		want  Decision
	}{
		{
			name:  "S1 season pack decision",
			stats: SeasonStatistics{TotalEpisodes: 10, DownloadedEpisodes: 4, NextAiring: nil},
			want:  Decision{CommandSeasonSearch, ReasonSeasonFullyAiredHigh},
		},
		{
			name:  "S2 airing season",
			stats: SeasonStatistics{TotalEpisodes: 10, DownloadedEpisodes: 2, NextAiring: &airing},
			want:  Decision{CommandEpisodeSearch, ReasonSeasonCurrentlyAiring},
		},
		{
			name:  "S3 below threshold",
			stats: SeasonStatistics{TotalEpisodes: 10, DownloadedEpisodes: 9, NextAiring: nil},
			want:  Decision{CommandEpisodeSearch, ReasonBelowMissingThreshold},
		},
		{
			name:  "no missing episodes",
			stats: SeasonStatistics{TotalEpisodes: 10, DownloadedEpisodes: 10, NextAiring: nil},
			want:  Decision{CommandEpisodeSearch, ReasonNoMissingEpisodes},
		},
		{
			name:  "zero total episodes has zero missing percent",
			stats: SeasonStatistics{TotalEpisodes: 0, DownloadedEpisodes: 0, NextAiring: nil},
			want:  Decision{CommandEpisodeSearch, ReasonNoMissingEpisodes},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Decide(tt.stats, th)
			if got != tt.want {
				t.Errorf("Decide(%+v) = %+v, want %+v", tt.stats, got, tt.want)
			}
		})
	}
}

func TestDecide_MissingCountBoundary(t *testing.T) {
	th := Thresholds{MinMissingPercent: 50, MinMissingCount: 3}
	// Exactly at the missing-count threshold with high missing percent: not below threshold.
	stats := SeasonStatistics{TotalEpisodes: 6, DownloadedEpisodes: 3, NextAiring: nil}
	got := Decide(stats, th)
	want := Decision{CommandSeasonSearch, ReasonSeasonFullyAiredHigh}
	if got != want {
		t.Errorf("Decide(%+v) = %+v, want %+v", stats, got, want)
	}
}
