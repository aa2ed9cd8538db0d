// Package feature extracts the comparable attributes of a contact record.
// Normalization happens exactly once here; the matcher only ever sees
// canonical values.
package feature

import (
	"vcardmerge/internal/core/model"
	"vcardmerge/internal/core/normalize"
)

type Extractor struct {
	Region string // default phone region, e.g. "US"
}

func NewExtractor(region string) *Extractor {
	if region == "" {
		region = normalize.DefaultRegion
	}
	return &Extractor{Region: region}
}

// Extract pulls normalized features out of one record. Unusable phones are
// skipped, duplicate emails within a record collapse to one feature value.
func (e *Extractor) Extract(rec model.ContactRecord) model.Features {
	f := model.Features{
		RecordID:     rec.ID,
		Source:       rec.Source,
		Name:         normalize.Name(rec.DisplayName),
		Organization: normalize.Organization(rec.Organization),
		HasPhoto:     len(rec.Photo) > 0,
	}

	seenEmail := make(map[string]bool)
	for _, raw := range rec.Emails {
		em := normalize.Email(raw)
		if em == "" || seenEmail[em] {
			continue
		}
		seenEmail[em] = true
		f.Emails = append(f.Emails, em)
		if d := normalize.EmailDomain(em); d != "" {
			f.EmailDomains = append(f.EmailDomains, d)
		}
	}

	seenPhone := make(map[string]bool)
	for _, raw := range rec.Phones {
		ph, ok := normalize.Phone(raw, e.Region)
		if !ok || seenPhone[ph] {
			continue
		}
		seenPhone[ph] = true
		f.Phones = append(f.Phones, ph)
		f.PhoneSuffix7 = append(f.PhoneSuffix7, normalize.PhoneSuffix(ph))
	}

	return f
}

// ExtractAll keeps input order so downstream grouping stays deterministic.
func (e *Extractor) ExtractAll(recs []model.ContactRecord) []model.Features {
	out := make([]model.Features, 0, len(recs))
	for _, r := range recs {
		out = append(out, e.Extract(r))
	}
	return out
}
