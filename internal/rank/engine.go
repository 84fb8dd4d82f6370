package rank

import (
	"sort"

	"github.com/erik-esparza/rival-review/internal/model"
)

// Sentinels holds the placeholder ranks used when one side of the join has
// no real value.
//
// Design decision: the two sentinels default to the same value but remain
// distinct knobs. UnknownPrevious marks "never seen before" and guards the
// jump/drop rules; VanishedCurrent marks "fell off the tracked pages" and
// must be at least the analysis ceiling so a vanished app can never be
// mistaken for an improvement.
type Sentinels struct {
	// UnknownPrevious substitutes for a missing previous rank.
	UnknownPrevious int

	// VanishedCurrent substitutes for a missing current rank.
	VanishedCurrent int
}

// Diff outer-joins the previous and current snapshots by app name and
// returns the unified rank table. Ads are excluded on both sides. Apps
// lacking both a name and a URL are skipped: identity cannot be defaulted,
// but one malformed record must never abort the comparison. Apps with a URL
// but no name fall back to the URL as their identity key.
//
// Rows are ordered by current rank ascending, name ascending, which matches
// current page order with vanished apps last.
func Diff(previous, current *model.Snapshot, s Sentinels) []model.RankRow {
	prevRanks := joinKeys(previous)
	currRanks := joinKeys(current)

	rows := make([]model.RankRow, 0, len(currRanks)+len(prevRanks))
	for name, curr := range currRanks {
		prev, known := prevRanks[name]
		if !known {
			prev = s.UnknownPrevious
		}
		rows = append(rows, model.RankRow{
			AppName:      name,
			CurrentRank:  curr,
			PreviousRank: prev,
			RankChange:   prev - curr,
			New:          !known,
		})
	}

	// Apps that vanished from the listing
	for name, prev := range prevRanks {
		if _, still := currRanks[name]; still {
			continue
		}
		rows = append(rows, model.RankRow{
			AppName:      name,
			CurrentRank:  s.VanishedCurrent,
			PreviousRank: prev,
			RankChange:   prev - s.VanishedCurrent,
		})
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].CurrentRank != rows[j].CurrentRank {
			return rows[i].CurrentRank < rows[j].CurrentRank
		}
		return rows[i].AppName < rows[j].AppName
	})
	return rows
}

// joinKeys extracts the name-to-rank join keys from a snapshot.
// Nil snapshots contribute nothing, so callers may pass a missing baseline
// directly.
func joinKeys(s *model.Snapshot) map[string]int {
	if s == nil {
		return map[string]int{}
	}
	keys := make(map[string]int, len(s.Apps))
	for _, a := range s.Apps {
		if a.Ad || !a.Ranked() {
			continue
		}
		name := a.Name
		if name == "" {
			if a.URL == "" {
				continue // no identity at all; skip this record only
			}
			name = a.URL
		}
		// First occurrence wins: ranks are dense in page order, so a
		// duplicate name further down is a lower-ranked duplicate card.
		if _, seen := keys[name]; !seen {
			keys[name] = a.Rank
		}
	}
	return keys
}

// Jumps returns the rows whose rank improved by more than threshold.
// Rows with no real history never qualify: a sentinel previous rank against
// any current rank would always look like a huge fabricated jump. Movement
// entirely outside maxRank is ignored.
//
// The result is ordered by rank change descending, name ascending.
func Jumps(rows []model.RankRow, threshold, maxRank int, s Sentinels) []model.RankRow {
	jumps := make([]model.RankRow, 0)
	for _, r := range rows {
		if r.PreviousRank >= s.UnknownPrevious {
			continue
		}
		if r.RankChange <= threshold {
			continue
		}
		if r.PreviousRank > maxRank && r.CurrentRank > maxRank {
			continue
		}
		jumps = append(jumps, r)
	}
	sortByChange(jumps, false)
	return jumps
}

// Drops returns the rows whose rank worsened by more than threshold, under
// the same history and ceiling guards as Jumps. Vanishing entirely counts
// as a drop when the app was previously within the analysis ceiling.
//
// The result is ordered by rank change ascending (worst fall first), name
// ascending.
func Drops(rows []model.RankRow, threshold, maxRank int, s Sentinels) []model.RankRow {
	drops := make([]model.RankRow, 0)
	for _, r := range rows {
		if r.PreviousRank >= s.UnknownPrevious {
			continue
		}
		if -r.RankChange <= threshold {
			continue
		}
		if r.PreviousRank > maxRank && r.CurrentRank > maxRank {
			continue
		}
		drops = append(drops, r)
	}
	sortByChange(drops, true)
	return drops
}

// TopNEntrants returns the names that are in the current top n but were not
// in the previous top n, sorted ascending.
//
// Entrants and evictees are reported as two independent sets, never paired
// by position: the sets may differ in size and there is no causal link
// between a specific entrant and a specific evictee.
func TopNEntrants(rows []model.RankRow, n int) []string {
	return sortedNames(topSetDiff(rows, n, true))
}

// TopNEvictees returns the names that were in the previous top n but are
// not in the current top n, sorted ascending.
func TopNEvictees(rows []model.RankRow, n int) []string {
	return sortedNames(topSetDiff(rows, n, false))
}

// topSetDiff computes curr−prev (entrants=true) or prev−curr over the
// top-n membership sets.
func topSetDiff(rows []model.RankRow, n int, entrants bool) map[string]struct{} {
	prev := make(map[string]struct{})
	curr := make(map[string]struct{})
	for _, r := range rows {
		if r.PreviousRank >= 1 && r.PreviousRank <= n {
			prev[r.AppName] = struct{}{}
		}
		if r.CurrentRank >= 1 && r.CurrentRank <= n {
			curr[r.AppName] = struct{}{}
		}
	}

	have, exclude := curr, prev
	if !entrants {
		have, exclude = prev, curr
	}
	diff := make(map[string]struct{})
	for name := range have {
		if _, ok := exclude[name]; !ok {
			diff[name] = struct{}{}
		}
	}
	return diff
}

func sortedNames(set map[string]struct{}) []string {
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// sortByChange orders rows by rank change (descending for jumps, ascending
// for drops), ties broken by name ascending for determinism.
func sortByChange(rows []model.RankRow, ascending bool) {
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].RankChange != rows[j].RankChange {
			if ascending {
				return rows[i].RankChange < rows[j].RankChange
			}
			return rows[i].RankChange > rows[j].RankChange
		}
		return rows[i].AppName < rows[j].AppName
	})
}
