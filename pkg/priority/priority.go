// Package priority computes the integer dispatch priority for a search
// registry entry from a pure scoring function. No I/O, no clock reads beyond
// the "now" passed in by the caller.
package priority

import (
	"math"
	"time"
)

// SearchType mirrors the registry's searchType enum.
type SearchType string

const (
	SearchTypeGap     SearchType = "gap"
	SearchTypeUpgrade SearchType = "upgrade"
)

// Weights are the configurable coefficients in the scoring formula.
// ContentAge, MissingDuration and UserPriority are percentages (divided by
// 100 in the formula, matching spec.md 4.B); the other weights are added or
// subtracted as points.
type Weights struct {
	ContentAge      float64
	MissingDuration float64
	UserPriority    float64
	FailurePenalty  float64
	GapBonus        float64
	SpecialsPenalty float64
	FileLostBonus   float64
}

// DefaultWeights returns a reasonable starting set; operators tune these via
// config.
func DefaultWeights() Weights {
	return Weights{
		ContentAge:      100,
		MissingDuration: 100,
		UserPriority:    100,
		FailurePenalty:  10,
		GapBonus:        50,
		SpecialsPenalty: 25,
		FileLostBonus:   200,
	}
}

// Constants are the non-weight tunables referenced by the formula.
type Constants struct {
	Base                  float64
	MaxContentAgeDays     float64
	MaxMissingDurationDays float64
	FileLostDecayDays      float64
}

// DefaultConstants returns spec.md's documented defaults.
func DefaultConstants() Constants {
	return Constants{
		Base:                   1000,
		MaxContentAgeDays:      3650,
		MaxMissingDurationDays: 365,
		FileLostDecayDays:      30,
	}
}

// Input bundles everything calculatePriority needs for one registry entry.
type Input struct {
	SearchType           SearchType
	ContentDate          *time.Time
	DiscoveredAt         time.Time
	UserPriorityOverride int // [-100, 100]
	AttemptCount         int
	SeasonNumber         *int
	WasDownloaded        bool
	FileLostAt           *time.Time
}

// Breakdown exposes the per-factor contributions for observability.
type Breakdown struct {
	Base            float64
	ContentAge      float64
	MissingDuration float64
	UserPriority    float64
	FailurePenalty  float64
	GapBonus        float64
	SpecialsPenalty float64
	FileLostBonus   float64
}

// Sum returns the unrounded total of the breakdown's components.
func (b Breakdown) Sum() float64 {
	return b.Base + b.ContentAge + b.MissingDuration + b.UserPriority -
		b.FailurePenalty + b.GapBonus - b.SpecialsPenalty + b.FileLostBonus
}

// Result is the outcome of Calculate.
type Result struct {
	Score     int
	Breakdown Breakdown
}

// ageScore returns 100*(1 - min(ageDays/maxAgeDays, 1)), with contentDate=nil
// treated as a neutral 50, and a future contentDate treated as age 0 (max
// score) per the decided open question.
func ageScore(contentDate *time.Time, now time.Time, maxAgeDays float64) float64 {
	if contentDate == nil {
		return 0.5 * 100
	}
	ageDays := now.Sub(*contentDate).Hours() / 24
	if ageDays < 0 {
		ageDays = 0
	}
	frac := ageDays / maxAgeDays
	if frac > 1 {
		frac = 1
	}
	return 100 * (1 - frac)
}

// durationScore returns 100*min(durationDays/maxDurationDays, 1).
func durationScore(discoveredAt, now time.Time, maxDurationDays float64) float64 {
	durationDays := now.Sub(discoveredAt).Hours() / 24
	if durationDays < 0 {
		durationDays = 0
	}
	frac := durationDays / maxDurationDays
	if frac > 1 {
		frac = 1
	}
	return 100 * frac
}

// fileLostBonus decays linearly to zero over decayDays since fileLostAt. It
// is zero unless the item was previously downloaded and then lost.
func fileLostBonus(wasDownloaded bool, fileLostAt *time.Time, weight float64, now time.Time, decayDays float64) float64 {
	if !wasDownloaded || fileLostAt == nil || decayDays <= 0 {
		return 0
	}
	elapsedDays := now.Sub(*fileLostAt).Hours() / 24
	if elapsedDays < 0 {
		elapsedDays = 0
	}
	if elapsedDays >= decayDays {
		return 0
	}
	frac := 1 - elapsedDays/decayDays
	return weight * frac
}

// Calculate computes the integer priority score and its breakdown.
func Calculate(in Input, w Weights, c Constants, now time.Time) Result {
	b := Breakdown{Base: c.Base}

	b.ContentAge = (w.ContentAge / 100) * ageScore(in.ContentDate, now, c.MaxContentAgeDays)
	b.MissingDuration = (w.MissingDuration / 100) * durationScore(in.DiscoveredAt, now, c.MaxMissingDurationDays)
	b.UserPriority = (w.UserPriority / 100) * float64(clampUserPriority(in.UserPriorityOverride))
	b.FailurePenalty = w.FailurePenalty * float64(in.AttemptCount)

	if in.SearchType == SearchTypeGap {
		b.GapBonus = w.GapBonus
	}
	if in.SeasonNumber != nil && *in.SeasonNumber == 0 {
		b.SpecialsPenalty = w.SpecialsPenalty
	}
	b.FileLostBonus = fileLostBonus(in.WasDownloaded, in.FileLostAt, w.FileLostBonus, now, c.FileLostDecayDays)

	total := b.Sum()
	return Result{Score: int(math.Round(total)), Breakdown: b}
}

func clampUserPriority(v int) int {
	if v < -100 {
		return -100
	}
	if v > 100 {
		return 100
	}
	return v
}

// Compare orders results descending by score (higher score first), matching
// spec.md's comparePriority(a,b) = b.score - a.score.
func Compare(a, b Result) int {
	return b.Score - a.Score
}
