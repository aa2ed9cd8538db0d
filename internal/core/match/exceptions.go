package match

import (
	"strings"

	"vcardmerge/internal/core/model"
	"vcardmerge/internal/core/normalize"
)

// DistinctRule marks a name that is known to belong to more than one real
// person across related organizations. When two records share the rule's
// name but their organizations land on different entries of Orgs, they are
// forced apart no matter what the scorer says.
type DistinctRule struct {
	Name string   `json:"name"` // matched against the normalized full name
	Orgs []string `json:"orgs"` // diverging organization markers
}

// DistinctRules is injected into the matcher; an empty set disables the
// override entirely.
type DistinctRules []DistinctRule

// ForcedApart reports whether a rule separates the two feature sets.
func (rules DistinctRules) ForcedApart(a, b model.Features) bool {
	for _, rule := range rules {
		name := normalize.Name(rule.Name)
		if name == "" || a.Name != name || b.Name != name {
			continue
		}
		oa := rule.orgIndex(a.Organization)
		ob := rule.orgIndex(b.Organization)
		if oa >= 0 && ob >= 0 && oa != ob {
			return true
		}
	}
	return false
}

func (r DistinctRule) orgIndex(org string) int {
	if org == "" {
		return -1
	}
	for i, marker := range r.Orgs {
		if strings.Contains(org, normalize.Organization(marker)) {
			return i
		}
	}
	return -1
}
