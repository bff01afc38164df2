package vault

import "sort"

// Ranked returns accounts ordered by the numeric projection score. The
// sort is stable: ties keep their pre-sort order. The input slice is not
// modified.
func Ranked[S any](accounts []Resolved[S], score func(Resolved[S]) int64, descending bool) []Resolved[S] {
	out := make([]Resolved[S], len(accounts))
	copy(out, accounts)
	sort.SliceStable(out, func(i, j int) bool {
		if descending {
			return score(out[i]) > score(out[j])
		}
		return score(out[i]) < score(out[j])
	})
	return out
}

// DedupByPrincipal keeps only the first account seen for each principal.
// When a principal holds accounts across several tenants, whichever
// tenant came first in iteration order wins. This mirrors the long-lived
// behavior of the global leaderboard and is kept deliberately.
func DedupByPrincipal[S any](accounts []Resolved[S]) []Resolved[S] {
	seen := make(map[PrincipalID]struct{}, len(accounts))
	out := make([]Resolved[S], 0, len(accounts))
	for _, acct := range accounts {
		if _, ok := seen[acct.Key.Principal]; ok {
			continue
		}
		seen[acct.Key.Principal] = struct{}{}
		out = append(out, acct)
	}
	return out
}
