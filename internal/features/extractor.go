// Package features computes the 38 behavioural features the bot classifier
// consumes from a contributor's activity sequence.
//
// Durations are expressed in hours. All values are rounded to three decimals.
package features

import (
	"time"

	"github.com/alimgiray/botscope/internal/models"
)

// run is a maximal streak of consecutive activities sharing a key
type run struct {
	count int
	first time.Time
	last  time.Time
}

// Extract computes the feature vector of a non-empty sequence.
// It is a pure function of the sequence content and order.
func Extract(seq *models.ActivitySequence) models.FeatureVector {
	events := seq.Events()
	if len(events) == 0 {
		panic("features: empty activity sequence")
	}

	byRepo := func(e models.ActivityEvent) string { return e.RepositoryID }
	byType := func(e models.ActivityEvent) string { return e.ActivityType }

	repoRuns := runs(events, byRepo)
	typeRuns := runs(events, byType)

	dca := describe(interArrival(events))
	nar := describe(groupCounts(events, byRepo))
	ntr := describe(distinctPerGroup(events, byRepo, byType))
	ncar := describe(runCounts(repoRuns))
	dcar := describe(runDurations(repoRuns))
	daar := describe(switchTimes(repoRuns))
	dcat := describe(switchTimes(typeRuns))
	nat := describe(groupCounts(events, byType))

	repos := distinct(events, byRepo)
	owners := distinct(events, func(e models.ActivityEvent) string { return e.RepositoryOwner })

	values := []float64{
		float64(len(events)),
		float64(distinct(events, byType)),
		float64(owners),
		float64(owners) / float64(repos),
		dca.Mean, dca.Median, dca.Std, dca.Gini,
		nar.Mean, nar.Median, nar.Gini, nar.IQR,
		ntr.Mean, ntr.Median, ntr.Std, ntr.Gini,
		ncar.Mean, ncar.Std, ncar.IQR,
		dcar.Mean, dcar.Median, dcar.Std, dcar.IQR,
		daar.Mean, daar.Median, daar.Std, daar.Gini, daar.IQR,
		dcat.Mean, dcat.Median, dcat.Std, dcat.Gini, dcat.IQR,
		nat.Mean, nat.Median, nat.Std, nat.Gini, nat.IQR,
	}
	if len(values) != models.FeatureCount {
		panic("features: slot layout does not match models.FeatureNames")
	}

	var v models.FeatureVector
	for i, x := range values {
		v[i] = round3(x)
	}
	return v
}

// interArrival returns the gaps between consecutive activities (DCA)
func interArrival(events []models.ActivityEvent) []float64 {
	if len(events) < 2 {
		return nil
	}
	gaps := make([]float64, 0, len(events)-1)
	for i := 1; i < len(events); i++ {
		gaps = append(gaps, events[i].Timestamp.Sub(events[i-1].Timestamp).Hours())
	}
	return gaps
}

func distinct(events []models.ActivityEvent, key func(models.ActivityEvent) string) int {
	seen := make(map[string]struct{})
	for _, e := range events {
		seen[key(e)] = struct{}{}
	}
	return len(seen)
}

// groupCounts counts activities per key, in order of first appearance
func groupCounts(events []models.ActivityEvent, key func(models.ActivityEvent) string) []float64 {
	index := make(map[string]int)
	var counts []float64
	for _, e := range events {
		k := key(e)
		i, ok := index[k]
		if !ok {
			i = len(counts)
			index[k] = i
			counts = append(counts, 0)
		}
		counts[i]++
	}
	return counts
}

// distinctPerGroup counts distinct inner keys per outer key, in order of first appearance
func distinctPerGroup(events []models.ActivityEvent, outer, inner func(models.ActivityEvent) string) []float64 {
	index := make(map[string]int)
	var sets []map[string]struct{}
	for _, e := range events {
		k := outer(e)
		i, ok := index[k]
		if !ok {
			i = len(sets)
			index[k] = i
			sets = append(sets, make(map[string]struct{}))
		}
		sets[i][inner(e)] = struct{}{}
	}

	out := make([]float64, len(sets))
	for i, s := range sets {
		out[i] = float64(len(s))
	}
	return out
}

func runs(events []models.ActivityEvent, key func(models.ActivityEvent) string) []run {
	var out []run
	var current string
	for i, e := range events {
		k := key(e)
		if i == 0 || k != current {
			out = append(out, run{first: e.Timestamp})
			current = k
		}
		r := &out[len(out)-1]
		r.count++
		r.last = e.Timestamp
	}
	return out
}

// runCounts returns the length of each streak (NCAR)
func runCounts(rs []run) []float64 {
	out := make([]float64, len(rs))
	for i, r := range rs {
		out[i] = float64(r.count)
	}
	return out
}

// runDurations returns the time spent inside each streak (DCAR)
func runDurations(rs []run) []float64 {
	out := make([]float64, len(rs))
	for i, r := range rs {
		out[i] = r.last.Sub(r.first).Hours()
	}
	return out
}

// switchTimes returns the gap between the end of a streak and the start of
// the next one (DAAR, DCAT). The last streak has no successor.
func switchTimes(rs []run) []float64 {
	if len(rs) < 2 {
		return nil
	}
	out := make([]float64, 0, len(rs)-1)
	for i := 0; i < len(rs)-1; i++ {
		out = append(out, rs[i+1].first.Sub(rs[i].last).Hours())
	}
	return out
}
