package match

import (
	"errors"
	"sort"

	"vcardmerge/internal/core/model"
)

// MatchAcross finds duplicates between already-cleaned source databases.
// Same-source pairs are skipped outright: anything inside one source was
// resolved by the per-source pass and re-flagging it only creates noise.
//
// Pairs classify three ways:
//   - exact: shared email or phone plus a similar name
//   - fuzzy: very similar names with partial contact overlap
//   - conflict: near-identical names with zero contact overlap; the
//     riskiest case (same name, different person, or stale data), so it is
//     always flagged for manual review
func (m *Matcher) MatchAcross(features []model.Features) ([]model.CrossMatch, error) {
	if features == nil {
		return nil, errors.New("match: nil feature collection")
	}

	visited := make([]bool, len(features))
	var out []model.CrossMatch

	for i := range features {
		if visited[i] {
			continue
		}
		members := []int{i}
		class := model.CrossClass("")
		conf := m.Cfg.NameExactConfidence

		for j := i + 1; j < len(features); j++ {
			if visited[j] || features[j].Source == features[i].Source {
				continue
			}
			if m.forcedApartFromGroup(features, members, j) {
				continue
			}
			s := compare(features[i], features[j])
			edgeClass, edgeConf, ok := m.classifyCross(s)
			if !ok {
				continue
			}
			members = append(members, j)
			class = weakerClass(class, edgeClass)
			if edgeConf < conf {
				conf = edgeConf
			}
		}

		if len(members) < 2 {
			continue
		}
		for _, mi := range members {
			visited[mi] = true
		}

		out = append(out, model.CrossMatch{
			MatchCandidate: model.MatchCandidate{
				Members:    ids(features, members),
				MatchBasis: crossBasis(class),
				Confidence: conf,
			},
			Class:   class,
			Sources: sources(features, members),
		})
	}

	return out, nil
}

func (m *Matcher) classifyCross(s signals) (model.CrossClass, float64, bool) {
	similarName := s.NameSim > m.Cfg.SimilarName
	switch {
	case s.SharedEmail && similarName:
		return model.CrossExact, m.Cfg.EmailConfidence, true
	case s.SharedPhone && similarName:
		return model.CrossExact, m.Cfg.PhoneConfidence, true
	case s.NameSim > m.Cfg.FuzzyNameSimilarity && (s.SharedDomain || s.SharedSuffix || s.OrgSim > m.Cfg.OrgSimilarity):
		return model.CrossFuzzy, m.Cfg.FuzzyConfidence, true
	case s.NameSim > m.Cfg.StandaloneNameSimilarity && !s.anyContactOverlap():
		return model.CrossConflict, m.Cfg.FuzzyStandaloneConfidence, true
	}
	return "", 0, false
}

// weakerClass keeps the most cautious label a group has earned.
func weakerClass(a, b model.CrossClass) model.CrossClass {
	rank := map[model.CrossClass]int{model.CrossExact: 0, model.CrossFuzzy: 1, model.CrossConflict: 2}
	if a == "" {
		return b
	}
	if rank[b] > rank[a] {
		return b
	}
	return a
}

func crossBasis(class model.CrossClass) model.MatchBasis {
	switch class {
	case model.CrossExact:
		return model.BasisCombined
	case model.CrossFuzzy:
		return model.BasisNameFuzzy
	default:
		return model.BasisNameFuzzy
	}
}

func sources(features []model.Features, members []int) []string {
	seen := make(map[string]bool)
	var out []string
	for _, mi := range members {
		src := features[mi].Source
		if src == "" || seen[src] {
			continue
		}
		seen[src] = true
		out = append(out, src)
	}
	sort.Strings(out)
	return out
}
