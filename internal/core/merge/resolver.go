// Package merge collapses a duplicate group into one derived contact
// record. Inputs are never mutated; every merge builds a fresh record plus
// an auditable MergeDecision.
package merge

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"vcardmerge/internal/config"
	"vcardmerge/internal/core/model"
	"vcardmerge/internal/core/normalize"
)

type Resolver struct {
	// sourceRank maps source name to priority position; lower wins.
	sourceRank map[string]int
	rankSize   int
	region     string
}

func NewResolver(cfg config.MergeConfig, region string) *Resolver {
	rank := make(map[string]int, len(cfg.SourcePriority))
	for i, src := range cfg.SourcePriority {
		rank[src] = i
	}
	return &Resolver{sourceRank: rank, rankSize: len(cfg.SourcePriority), region: region}
}

// Resolve merges a group under the candidate's basis and confidence.
// A single-member group passes through untouched with no decision; an
// empty group is a structural error.
func (r *Resolver) Resolve(group []model.ContactRecord, cand model.MatchCandidate) (model.ContactRecord, *model.MergeDecision, model.MergeStats, error) {
	if len(group) == 0 {
		return model.ContactRecord{}, nil, model.MergeStats{}, errors.New("merge: empty group")
	}
	if len(group) == 1 {
		return group[0], nil, model.MergeStats{}, nil
	}

	primaryIdx := r.pickPrimary(group)
	primary := group[primaryIdx]
	merged := primary.Clone()

	resolution := map[string]string{}
	var stats model.MergeStats

	// Fold order: primary first, then the rest in member order. First-seen
	// casing and formatting always win.
	ordered := make([]model.ContactRecord, 0, len(group))
	ordered = append(ordered, primary)
	secondaryIDs := make([]string, 0, len(group)-1)
	for i, rec := range group {
		if i == primaryIdx {
			continue
		}
		ordered = append(ordered, rec)
		secondaryIDs = append(secondaryIDs, rec.ID)
	}

	merged.Emails = unionBy(ordered, func(rec model.ContactRecord) []string { return rec.Emails }, normalize.Email)
	merged.Phones = unionBy(ordered, func(rec model.ContactRecord) []string { return rec.Phones }, r.phoneKey)
	merged.URLs = unionBy(ordered, func(rec model.ContactRecord) []string { return rec.URLs }, urlKey)
	resolution["emails"] = "union"
	resolution["phones"] = "union"
	resolution["urls"] = "union"

	stats.Backfills += r.backfill(&merged, ordered[1:], resolution)
	merged.Notes = r.mergeNotes(ordered, resolution)
	merged.Photo = r.bestPhoto(ordered, resolution)

	stats.EmailsKept = len(merged.Emails)
	stats.PhonesKept = len(merged.Phones)
	stats.URLsKept = len(merged.URLs)
	if merged.Notes != "" {
		stats.NotesKept = 1
	}
	if len(merged.Photo) > 0 {
		stats.PhotosKept = 1
	}

	decision := &model.MergeDecision{
		ID:              uuid.New().String(),
		PrimaryID:       primary.ID,
		SecondaryIDs:    secondaryIDs,
		FieldResolution: resolution,
		MatchBasis:      cand.MatchBasis,
		Confidence:      cand.Confidence,
		RequiresReview:  false,
	}

	return merged, decision, stats, nil
}

// pickPrimary chooses the base record: best source priority first, then
// completeness score, then first-encountered. Strictly-better-wins keeps
// the selection deterministic and order-preserving.
func (r *Resolver) pickPrimary(group []model.ContactRecord) int {
	best := 0
	bestRank := r.rankOf(group[0].Source)
	bestScore := Completeness(group[0])
	for i := 1; i < len(group); i++ {
		rank := r.rankOf(group[i].Source)
		score := Completeness(group[i])
		if rank < bestRank || (rank == bestRank && score > bestScore) {
			best, bestRank, bestScore = i, rank, score
		}
	}
	return best
}

func (r *Resolver) rankOf(source string) int {
	if rank, ok := r.sourceRank[source]; ok {
		return rank
	}
	return r.rankSize
}

// Completeness scores how much usable data a record carries: name quality
// 30, contact info 30, organization block 20, everything else 20.
func Completeness(rec model.ContactRecord) int {
	score := 0
	if strings.TrimSpace(rec.DisplayName) != "" {
		score += 20
	}
	if rec.NameParts != nil {
		score += 10
	}
	if len(rec.Emails) > 0 {
		score += 15
	}
	if len(rec.Phones) > 0 {
		score += 15
	}
	if rec.Organization != "" {
		score += 12
	}
	if rec.Title != "" {
		score += 8
	}
	if len(rec.URLs) > 0 {
		score += 5
	}
	if rec.Notes != "" {
		score += 5
	}
	if len(rec.Photo) > 0 {
		score += 10
	}
	return score
}

func (r *Resolver) backfill(merged *model.ContactRecord, secondaries []model.ContactRecord, resolution map[string]string) int {
	backfills := 0
	fill := func(field string, dst *string, pick func(model.ContactRecord) string) {
		resolution[field] = "primary"
		if *dst != "" {
			return
		}
		for _, rec := range secondaries {
			if v := pick(rec); v != "" {
				*dst = v
				resolution[field] = fmt.Sprintf("backfill:%s", rec.Source)
				backfills++
				return
			}
		}
	}

	fill("name", &merged.DisplayName, func(rec model.ContactRecord) string { return rec.DisplayName })
	fill("organization", &merged.Organization, func(rec model.ContactRecord) string { return rec.Organization })
	fill("title", &merged.Title, func(rec model.ContactRecord) string { return rec.Title })

	if merged.NameParts == nil {
		for _, rec := range secondaries {
			if rec.NameParts != nil {
				np := *rec.NameParts
				merged.NameParts = &np
				backfills++
				break
			}
		}
	}
	return backfills
}

// mergeNotes concatenates distinct note bodies with a provenance prefix.
// A note already present as a substring is skipped.
func (r *Resolver) mergeNotes(ordered []model.ContactRecord, resolution map[string]string) string {
	combined := strings.TrimSpace(ordered[0].Notes)
	appended := false
	for _, rec := range ordered[1:] {
		note := strings.TrimSpace(rec.Notes)
		if note == "" || strings.Contains(combined, note) {
			continue
		}
		entry := fmt.Sprintf("[From %s]: %s", rec.Source, note)
		if combined == "" {
			combined = entry
		} else {
			combined = combined + "\n" + entry
		}
		appended = true
	}
	if appended {
		resolution["notes"] = "concat"
	} else {
		resolution["notes"] = "primary"
	}
	return combined
}

// bestPhoto picks the highest quality photo across the group; a small
// source-priority bonus breaks near-ties. Undecodable photos score zero
// and drop out; if nothing decodes, the merged record has no photo.
func (r *Resolver) bestPhoto(ordered []model.ContactRecord, resolution map[string]string) []byte {
	bestScore := 0
	var best []byte
	for _, rec := range ordered {
		if len(rec.Photo) == 0 {
			continue
		}
		score := PhotoScore(rec.Photo)
		if score == 0 {
			continue
		}
		score += r.priorityBonus(rec.Source)
		if score > bestScore {
			bestScore = score
			best = rec.Photo
		}
	}
	if best == nil {
		resolution["photo"] = "none"
		return nil
	}
	resolution["photo"] = "best-photo"
	return append([]byte(nil), best...)
}

func (r *Resolver) priorityBonus(source string) int {
	rank := r.rankOf(source)
	if rank >= r.rankSize {
		return 0
	}
	bonus := r.rankSize - rank
	if bonus > 5 {
		bonus = 5
	}
	return bonus
}

func (r *Resolver) phoneKey(raw string) string {
	if key, ok := normalize.Phone(raw, r.region); ok {
		return key
	}
	return strings.TrimSpace(raw)
}

func urlKey(raw string) string {
	return strings.ToLower(strings.TrimSpace(strings.TrimSuffix(raw, "/")))
}

// unionBy merges value slices across records, deduplicating on the
// canonical key while keeping the first-seen original form and order.
func unionBy(ordered []model.ContactRecord, pick func(model.ContactRecord) []string, key func(string) string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, rec := range ordered {
		for _, v := range pick(rec) {
			k := key(v)
			if k == "" || seen[k] {
				continue
			}
			seen[k] = true
			out = append(out, v)
		}
	}
	return out
}
