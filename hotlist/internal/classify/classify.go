// Package classify buckets headline titles into named topic groups.
//
// A group matches a title when every required word is a substring AND, if
// the group has any normal words, at least one of them is a substring.
// Matching is byte-exact: the rulesets are Chinese keyword lists where
// case folding is meaningless, and looser matching would silently merge
// rules the operator wrote as distinct.
package classify

import "strings"

// Group is one classification rule. Position preserves ruleset order;
// MaxCount (0 = unlimited) caps how many matched items downstream
// consumers display per group — the classifier itself never truncates.
type Group struct {
	Key      string
	Required []string
	Normal   []string
	MaxCount int
	Position int
}

// Matches reports whether title belongs to the group.
func (g *Group) Matches(title string) bool {
	for _, w := range g.Required {
		if !strings.Contains(title, w) {
			return false
		}
	}
	if len(g.Normal) == 0 {
		return true
	}
	for _, w := range g.Normal {
		if strings.Contains(title, w) {
			return true
		}
	}
	return false
}

// MatchGroups returns the keys of every group the title belongs to, in
// group order. A title may belong to zero, one, or several groups.
func MatchGroups(title string, groups []*Group) []string {
	var keys []string
	for _, g := range groups {
		if g.Matches(title) {
			keys = append(keys, g.Key)
		}
	}
	return keys
}
