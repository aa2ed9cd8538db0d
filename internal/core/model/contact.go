package model

// NameParts holds the structured components of a contact name, when the
// source provided them (vCard N property). Any part may be empty.
type NameParts struct {
	Given      string `json:"given,omitempty"`
	Family     string `json:"family,omitempty"`
	Additional string `json:"additional,omitempty"`
}

// ContactRecord is a single contact as loaded from one source database.
// Records are treated as immutable once they enter the matcher; merging
// always produces a new derived record.
type ContactRecord struct {
	ID           string     `json:"id"`
	Source       string     `json:"source"`
	DisplayName  string     `json:"display_name"`
	NameParts    *NameParts `json:"name_parts,omitempty"`
	Emails       []string   `json:"emails,omitempty"`
	Phones       []string   `json:"phones,omitempty"`
	Organization string     `json:"organization,omitempty"`
	Title        string     `json:"title,omitempty"`
	URLs         []string   `json:"urls,omitempty"`
	Notes        string     `json:"notes,omitempty"`
	Photo        []byte     `json:"photo,omitempty"`
}

// Clone returns a deep copy so the merge resolver can build derived records
// without touching the inputs.
func (r ContactRecord) Clone() ContactRecord {
	out := r
	if r.NameParts != nil {
		np := *r.NameParts
		out.NameParts = &np
	}
	out.Emails = append([]string(nil), r.Emails...)
	out.Phones = append([]string(nil), r.Phones...)
	out.URLs = append([]string(nil), r.URLs...)
	out.Photo = append([]byte(nil), r.Photo...)
	return out
}

// Features are the comparable attributes extracted from a ContactRecord.
// All values are already normalized; matching never touches raw strings.
type Features struct {
	RecordID     string
	Source       string
	Name         string   // normalized display name
	Emails       []string // lowercased, deduplicated, input order preserved
	EmailDomains []string
	Phones       []string // E.164 or digits-only fallback
	PhoneSuffix7 []string // last 7 digits of each usable phone
	Organization string   // normalized
	HasPhoto     bool
}
