package match

import (
	"vcardmerge/internal/core/model"
	"vcardmerge/internal/core/normalize"
)

// signals holds everything two feature sets have in common. Computed once
// per compared pair so exact, fuzzy and cross-database passes all score off
// the same facts.
type signals struct {
	SharedEmail  bool
	SharedPhone  bool
	SharedDomain bool
	SharedSuffix bool
	NameSim      float64
	OrgSim       float64
}

func compare(a, b model.Features) signals {
	s := signals{
		SharedEmail:  overlaps(a.Emails, b.Emails),
		SharedPhone:  overlaps(a.Phones, b.Phones),
		SharedDomain: overlaps(a.EmailDomains, b.EmailDomains),
		SharedSuffix: overlaps(a.PhoneSuffix7, b.PhoneSuffix7),
		NameSim:      normalize.Similarity(a.Name, b.Name),
	}
	if a.Organization != "" && b.Organization != "" {
		s.OrgSim = normalize.Similarity(a.Organization, b.Organization)
	}
	return s
}

// anyContactOverlap reports whether the pair shares any hard contact
// information at all. Its absence is what makes a high-similarity name pair
// a conflict rather than a match.
func (s signals) anyContactOverlap() bool {
	return s.SharedEmail || s.SharedPhone || s.SharedDomain || s.SharedSuffix
}

func overlaps(a, b []string) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	set := make(map[string]bool, len(a))
	for _, v := range a {
		set[v] = true
	}
	for _, v := range b {
		if set[v] {
			return true
		}
	}
	return false
}
