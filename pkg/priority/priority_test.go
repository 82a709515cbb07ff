package priority

import (
	"math"
	"testing"
	"time"
)

func baseInput(now time.Time) Input {
	cd := now.Add(-30 * 24 * time.Hour)
	return Input{
		SearchType:   SearchTypeUpgrade,
		ContentDate:  &cd,
		DiscoveredAt: now.Add(-10 * 24 * time.Hour),
		AttemptCount: 0,
	}
}

func TestCalculate_Deterministic(t *testing.T) {
	now := time.Now()
	in := baseInput(now)
	w := DefaultWeights()
	c := DefaultConstants()

	r1 := Calculate(in, w, c, now)
	r2 := Calculate(in, w, c, now)
	if r1.Score != r2.Score {
		t.Errorf("Calculate is not deterministic: %d != %d", r1.Score, r2.Score)
	}
}

func TestCalculate_MonotonicContentAge(t *testing.T) {
	now := time.Now()
	w := DefaultWeights()
	c := DefaultConstants()

	older := now.Add(-200 * 24 * time.Hour)
	newer := now.Add(-10 * 24 * time.Hour)

	inOld := baseInput(now)
	inOld.ContentDate = &older
	inNew := baseInput(now)
	inNew.ContentDate = &newer

	scoreOld := Calculate(inOld, w, c, now).Score
	scoreNew := Calculate(inNew, w, c, now).Score

	if scoreNew < scoreOld {
		t.Errorf("newer contentDate scored lower: new=%d old=%d", scoreNew, scoreOld)
	}
}

func TestCalculate_MonotonicMissingDuration(t *testing.T) {
	now := time.Now()
	w := DefaultWeights()
	c := DefaultConstants()

	earlierDiscovered := now.Add(-100 * 24 * time.Hour)
	laterDiscovered := now.Add(-5 * 24 * time.Hour)

	inEarlier := baseInput(now)
	inEarlier.DiscoveredAt = earlierDiscovered
	inLater := baseInput(now)
	inLater.DiscoveredAt = laterDiscovered

	scoreEarlier := Calculate(inEarlier, w, c, now).Score
	scoreLater := Calculate(inLater, w, c, now).Score

	if scoreEarlier < scoreLater {
		t.Errorf("earlier discoveredAt scored lower: earlier=%d later=%d", scoreEarlier, scoreLater)
	}
}

func TestCalculate_MonotonicFailures(t *testing.T) {
	now := time.Now()
	w := DefaultWeights()
	c := DefaultConstants()

	inFew := baseInput(now)
	inFew.AttemptCount = 1
	inMany := baseInput(now)
	inMany.AttemptCount = 5

	scoreFew := Calculate(inFew, w, c, now).Score
	scoreMany := Calculate(inMany, w, c, now).Score

	if scoreFew < scoreMany {
		t.Errorf("fewer attempts scored lower: few=%d many=%d", scoreFew, scoreMany)
	}
}

func TestCalculate_GapGreaterThanUpgrade(t *testing.T) {
	now := time.Now()
	w := DefaultWeights()
	c := DefaultConstants()

	inGap := baseInput(now)
	inGap.SearchType = SearchTypeGap
	inUpgrade := baseInput(now)
	inUpgrade.SearchType = SearchTypeUpgrade

	scoreGap := Calculate(inGap, w, c, now).Score
	scoreUpgrade := Calculate(inUpgrade, w, c, now).Score

	if scoreGap < scoreUpgrade {
		t.Errorf("gap scored lower than upgrade: gap=%d upgrade=%d", scoreGap, scoreUpgrade)
	}
}

func TestCalculate_FiniteForDocumentedRanges(t *testing.T) {
	now := time.Now()
	w := DefaultWeights()
	c := DefaultConstants()

	season := 0
	fileLost := now.Add(-5 * 24 * time.Hour)
	in := Input{
		SearchType:           SearchTypeGap,
		ContentDate:          nil,
		DiscoveredAt:         now.Add(-10000 * 24 * time.Hour),
		UserPriorityOverride: 100,
		AttemptCount:         1000,
		SeasonNumber:         &season,
		WasDownloaded:        true,
		FileLostAt:           &fileLost,
	}
	r := Calculate(in, w, c, now)
	if math.IsNaN(float64(r.Score)) || math.IsInf(float64(r.Score), 0) {
		t.Errorf("Score is not finite: %d", r.Score)
	}
}

func TestCalculate_FutureContentDateTreatedAsAgeZero(t *testing.T) {
	now := time.Now()
	w := DefaultWeights()
	c := DefaultConstants()

	future := now.Add(365 * 24 * time.Hour)
	in := baseInput(now)
	in.ContentDate = &future

	r := Calculate(in, w, c, now)
	wantAgeContribution := (w.ContentAge / 100) * 100
	if r.Breakdown.ContentAge != wantAgeContribution {
		t.Errorf("ContentAge contribution = %v, want %v (future date should score as age 0)", r.Breakdown.ContentAge, wantAgeContribution)
	}
}

func TestCompare_DescendingByScore(t *testing.T) {
	a := Result{Score: 1100}
	b := Result{Score: 900}
	if Compare(a, b) >= 0 {
		t.Errorf("Compare(higher, lower) = %d, want negative", Compare(a, b))
	}
	if Compare(b, a) <= 0 {
		t.Errorf("Compare(lower, higher) = %d, want positive", Compare(b, a))
	}
}
