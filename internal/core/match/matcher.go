// Package match discovers candidate duplicate groups across contact
// collections. Matching is blocked: inverted indices on email, phone and
// normalized name keep the exact pass off the O(n^2) path; only the
// leftovers get the pairwise fuzzy treatment.
package match

import (
	"errors"

	"vcardmerge/internal/config"
	"vcardmerge/internal/core/model"
)

type Matcher struct {
	Cfg   config.MatchingConfig
	Rules DistinctRules
}

func NewMatcher(cfg config.MatchingConfig, rules DistinctRules) *Matcher {
	return &Matcher{Cfg: cfg, Rules: rules}
}

type indices struct {
	email map[string][]int
	phone map[string][]int
	name  map[string][]int
}

func buildIndices(features []model.Features) indices {
	idx := indices{
		email: make(map[string][]int),
		phone: make(map[string][]int),
		name:  make(map[string][]int),
	}
	for i, f := range features {
		for _, em := range f.Emails {
			idx.email[em] = append(idx.email[em], i)
		}
		for _, ph := range f.Phones {
			idx.phone[ph] = append(idx.phone[ph], i)
		}
		if f.Name != "" {
			idx.name[f.Name] = append(idx.name[f.Name], i)
		}
	}
	return idx
}

// Match runs the exact and fuzzy passes over one feature collection and
// returns all groups of two or more records. The grouping is greedy:
// first group wins, a record never appears in two candidates. Input order
// drives every iteration, so identical input produces identical output.
func (m *Matcher) Match(features []model.Features) ([]model.MatchCandidate, error) {
	if features == nil {
		return nil, errors.New("match: nil feature collection")
	}

	idx := buildIndices(features)
	visited := make([]bool, len(features))
	var out []model.MatchCandidate

	// Exact pass: chain records through shared email/phone/name keys.
	// The shared visited set makes the union transitive: A~B by email plus
	// B~C by phone lands all three in one group.
	for i := range features {
		if visited[i] {
			continue
		}
		if cand, members := m.expandExact(features, idx, visited, i); cand != nil {
			for _, mi := range members {
				visited[mi] = true
			}
			out = append(out, *cand)
		}
	}

	// Fuzzy pass over whatever is still solo.
	for i := range features {
		if visited[i] {
			continue
		}
		if cand, members := m.growFuzzy(features, visited, i); cand != nil {
			for _, mi := range members {
				visited[mi] = true
			}
			out = append(out, *cand)
		}
	}

	return out, nil
}

// expandExact grows a group from seed via BFS over shared index keys.
// Returns nil when the seed stays solo.
func (m *Matcher) expandExact(features []model.Features, idx indices, visited []bool, seed int) (*model.MatchCandidate, []int) {
	inGroup := make(map[int]bool)
	members := []int{seed}
	inGroup[seed] = true

	bases := make(map[model.MatchBasis]bool)
	conf := m.Cfg.NameExactConfidence // shrinks to the weakest joining edge

	queue := []int{seed}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		f := features[cur]

		type keyed struct {
			ids   []int
			basis model.MatchBasis
		}
		var buckets []keyed
		for _, em := range f.Emails {
			buckets = append(buckets, keyed{idx.email[em], model.BasisEmail})
		}
		for _, ph := range f.Phones {
			buckets = append(buckets, keyed{idx.phone[ph], model.BasisPhone})
		}
		if f.Name != "" {
			buckets = append(buckets, keyed{idx.name[f.Name], model.BasisNameExact})
		}

		for _, b := range buckets {
			for _, j := range b.ids {
				if j == cur || inGroup[j] || visited[j] {
					continue
				}
				if m.forcedApartFromGroup(features, members, j) {
					continue
				}
				edge := m.exactEdgeConfidence(b.basis, compare(features[cur], features[j]))
				if edge < conf {
					conf = edge
				}
				bases[b.basis] = true
				inGroup[j] = true
				members = append(members, j)
				queue = append(queue, j)
			}
		}
	}

	if len(members) < 2 {
		return nil, nil
	}

	return &model.MatchCandidate{
		Members:    ids(features, members),
		MatchBasis: groupBasis(bases),
		Confidence: conf,
	}, members
}

// exactEdgeConfidence scores one joining edge of the exact pass.
func (m *Matcher) exactEdgeConfidence(basis model.MatchBasis, s signals) float64 {
	switch basis {
	case model.BasisNameExact:
		return m.Cfg.NameExactConfidence
	case model.BasisEmail:
		if s.NameSim >= m.Cfg.CorroboratingName {
			return m.Cfg.EmailConfidence
		}
		return m.Cfg.ExactFloorConfidence
	case model.BasisPhone:
		conf := m.Cfg.PhoneConfidence
		if s.NameSim > m.Cfg.SimilarName {
			conf += m.Cfg.PhoneNameBonus
		}
		return conf
	}
	return m.Cfg.ExactFloorConfidence
}

// growFuzzy collects still-solo records whose names are near the seed's.
// High similarity alone is not enough below the standalone bar; a
// corroborating signal (shared domain, similar org, same 7-digit phone
// tail) has to back it up.
func (m *Matcher) growFuzzy(features []model.Features, visited []bool, seed int) (*model.MatchCandidate, []int) {
	sf := features[seed]
	if sf.Name == "" {
		return nil, nil
	}

	members := []int{seed}
	conf := m.Cfg.NameExactConfidence
	orgOnly := true

	for j := seed + 1; j < len(features); j++ {
		if visited[j] || features[j].Name == "" {
			continue
		}
		if m.forcedApartFromGroup(features, members, j) {
			continue
		}
		s := compare(sf, features[j])
		edge, viaOrgOnly, ok := m.fuzzyEdge(s)
		if !ok {
			continue
		}
		if edge < conf {
			conf = edge
		}
		orgOnly = orgOnly && viaOrgOnly
		members = append(members, j)
	}

	if len(members) < 2 {
		return nil, nil
	}

	basis := model.BasisNameFuzzy
	if orgOnly {
		basis = model.BasisNameOrg
	}
	return &model.MatchCandidate{
		Members:    ids(features, members),
		MatchBasis: basis,
		Confidence: conf,
	}, members
}

func (m *Matcher) fuzzyEdge(s signals) (conf float64, viaOrgOnly bool, ok bool) {
	if s.NameSim <= m.Cfg.FuzzyNameSimilarity {
		return 0, false, false
	}
	orgCorroborates := s.OrgSim > m.Cfg.OrgSimilarity
	hardCorroborates := s.SharedDomain || s.SharedSuffix
	switch {
	case hardCorroborates || orgCorroborates:
		return m.Cfg.FuzzyConfidence, orgCorroborates && !hardCorroborates, true
	case s.NameSim > m.Cfg.StandaloneNameSimilarity:
		return m.Cfg.FuzzyStandaloneConfidence, false, true
	}
	return 0, false, false
}

func (m *Matcher) forcedApartFromGroup(features []model.Features, members []int, j int) bool {
	for _, mi := range members {
		if m.Rules.ForcedApart(features[mi], features[j]) {
			return true
		}
	}
	return false
}

func groupBasis(bases map[model.MatchBasis]bool) model.MatchBasis {
	if len(bases) > 1 {
		return model.BasisCombined
	}
	for b := range bases {
		return b
	}
	return model.BasisCombined
}

func ids(features []model.Features, members []int) []string {
	out := make([]string, len(members))
	for i, mi := range members {
		out[i] = features[mi].RecordID
	}
	return out
}
