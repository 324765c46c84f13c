package dedupe

import (
	"sort"

	"github.com/agnivade/levenshtein"
)

// Suggestion pairs two kept titles whose keys are close enough to be worth a manual look.
type Suggestion struct {
	A, B     string
	Distance int
}

// Similar compares the keys of every pair of groups and returns those within maxDistance edits.
//
// It is advisory only and never changes which titles [Group] keeps. Results are ordered by
// distance, then by the position of the first title. maxDistance <= 0 returns nil.
func Similar(groups []TitleGroup, maxDistance int) []Suggestion {
	if maxDistance <= 0 {
		return nil
	}

	type ranked struct {
		Suggestion
		i, j int
	}

	var found []ranked
	for i := 0; i < len(groups); i++ {
		for j := i + 1; j < len(groups); j++ {
			a, b := groups[i].Key, groups[j].Key
			if a == "" || b == "" {
				continue
			}
			d := levenshtein.ComputeDistance(a, b)
			if d <= maxDistance {
				found = append(found, ranked{Suggestion{A: groups[i].Kept, B: groups[j].Kept, Distance: d}, i, j})
			}
		}
	}

	sort.SliceStable(found, func(x, y int) bool {
		if found[x].Distance != found[y].Distance {
			return found[x].Distance < found[y].Distance
		}
		if found[x].i != found[y].i {
			return found[x].i < found[y].i
		}
		return found[x].j < found[y].j
	})

	out := make([]Suggestion, len(found))
	for k, r := range found {
		out[k] = r.Suggestion
	}
	return out
}
