package model

// MatchBasis tags which signal formed a candidate group.
type MatchBasis string

const (
	BasisEmail     MatchBasis = "email"
	BasisPhone     MatchBasis = "phone"
	BasisNameExact MatchBasis = "name_exact"
	BasisNameFuzzy MatchBasis = "name_fuzzy"
	BasisNameOrg   MatchBasis = "name_org"
	BasisCombined  MatchBasis = "combined"
)

// MatchCandidate is a proposed duplicate group. Members always holds two or
// more distinct record IDs; a record never matches itself.
type MatchCandidate struct {
	Members    []string   `json:"members"`
	MatchBasis MatchBasis `json:"match_basis"`
	Confidence float64    `json:"confidence"` // 0..100
}

// CrossClass labels a cross-database candidate by risk.
type CrossClass string

const (
	CrossExact    CrossClass = "exact"
	CrossFuzzy    CrossClass = "fuzzy"
	CrossConflict CrossClass = "conflict" // same name, no contact-info overlap
)

// CrossMatch is a candidate found between two already-cleaned source
// databases. Conflict-class matches always go to manual review.
type CrossMatch struct {
	MatchCandidate
	Class   CrossClass `json:"class"`
	Sources []string   `json:"sources"`
}
