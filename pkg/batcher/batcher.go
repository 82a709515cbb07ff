// Package batcher decides, for a TV season with missing episodes, whether
// the orchestrator should ask the connector to search the whole season at
// once or search individual episodes. Pure decision table, no I/O.
package batcher

import "time"

// Command is the decision batcher returns.
type Command string

const (
	CommandSeasonSearch  Command = "SeasonSearch"
	CommandEpisodeSearch Command = "EpisodeSearch"
)

// Reason codes, stable identifiers matching spec.md 4.C.
const (
	ReasonNoMissingEpisodes      = "no_missing_episodes"
	ReasonSeasonCurrentlyAiring = "season_currently_airing"
	ReasonBelowMissingThreshold = "below_missing_threshold"
	ReasonSeasonFullyAiredHigh  = "season_fully_aired_high_missing"
)

// SeasonStatistics is the input to Decide.
type SeasonStatistics struct {
	TotalEpisodes      int
	DownloadedEpisodes int
	NextAiring         *time.Time
}

// Thresholds configures the missing-count/percent cutoffs.
type Thresholds struct {
	MinMissingPercent float64
	MinMissingCount   int
}

// DefaultThresholds returns spec.md's documented defaults.
func DefaultThresholds() Thresholds {
	return Thresholds{MinMissingPercent: 50, MinMissingCount: 3}
}

// Decision is the outcome of Decide.
type Decision struct {
	Command Command
	Reason  string
}

// Decide applies the four ordered rules from spec.md 4.C.
func Decide(stats SeasonStatistics, th Thresholds) Decision {
	missingCount := stats.TotalEpisodes - stats.DownloadedEpisodes
	if missingCount < 0 {
		missingCount = 0
	}

	if missingCount == 0 {
		return Decision{CommandEpisodeSearch, ReasonNoMissingEpisodes}
	}

	if stats.NextAiring != nil {
		return Decision{CommandEpisodeSearch, ReasonSeasonCurrentlyAiring}
	}

	var missingPercent float64
	if stats.TotalEpisodes > 0 {
		missingPercent = 100 * float64(missingCount) / float64(stats.TotalEpisodes)
	}

	if missingCount < th.MinMissingCount || missingPercent < th.MinMissingPercent {
		return Decision{CommandEpisodeSearch, ReasonBelowMissingThreshold}
	}

	return Decision{CommandSeasonSearch, ReasonSeasonFullyAiredHigh}
}
