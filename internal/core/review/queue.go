// Package review routes match candidates that are too uncertain to merge
// automatically but too plausible to drop. Everything in the queue carries
// the full member records so a human never has to look anything up.
package review

import (
	"errors"

	"github.com/google/uuid"

	"vcardmerge/internal/config"
	"vcardmerge/internal/core/model"
)

// Route says where one candidate goes.
type Route int

const (
	RouteAutoMerge Route = iota
	RouteQueue
	RouteDiscard
)

type Builder struct {
	AutoMergeThreshold float64
	ReviewFloor        float64
}

func NewBuilder(cfg config.MatchingConfig) *Builder {
	return &Builder{
		AutoMergeThreshold: cfg.AutoMergeThreshold,
		ReviewFloor:        cfg.ReviewFloor,
	}
}

// Classify gates one candidate by confidence. Below the floor the
// candidate is not considered a match at all.
func (b *Builder) Classify(cand model.MatchCandidate) Route {
	switch {
	case cand.Confidence >= b.AutoMergeThreshold:
		return RouteAutoMerge
	case cand.Confidence >= b.ReviewFloor:
		return RouteQueue
	default:
		return RouteDiscard
	}
}

// Build turns a queueable candidate into a review item, resolving member
// IDs to full records. A member ID missing from the lookup is a structural
// error: the caller handed us a candidate from a different record set.
func (b *Builder) Build(cand model.MatchCandidate, records map[string]model.ContactRecord) (model.ReviewItem, error) {
	members := make([]model.ContactRecord, 0, len(cand.Members))
	for _, id := range cand.Members {
		rec, ok := records[id]
		if !ok {
			return model.ReviewItem{}, errors.New("review: candidate member " + id + " not in record set")
		}
		members = append(members, rec)
	}
	return model.ReviewItem{
		ID:         uuid.New().String(),
		Members:    members,
		MatchBasis: cand.MatchBasis,
		Confidence: cand.Confidence,
		Status:     model.ReviewPending,
	}, nil
}

// BuildCross queues a cross-database match, keeping its risk class.
func (b *Builder) BuildCross(cm model.CrossMatch, records map[string]model.ContactRecord) (model.ReviewItem, error) {
	item, err := b.Build(cm.MatchCandidate, records)
	if err != nil {
		return model.ReviewItem{}, err
	}
	item.Class = cm.Class
	return item, nil
}

// Decision is a human verdict on a queued item, recorded separately from
// the candidate so repeated review passes stay idempotent.
type Decision struct {
	ItemID string             `json:"item_id"`
	Status model.ReviewStatus `json:"status"`
}

// Decide validates and records a verdict for an item.
func Decide(item model.ReviewItem, status model.ReviewStatus) (Decision, error) {
	if status != model.ReviewMerge && status != model.ReviewKeepSeparate {
		return Decision{}, errors.New("review: invalid decision " + string(status))
	}
	return Decision{ItemID: item.ID, Status: status}, nil
}

// PendingDecision builds the queued-side MergeDecision counterpart: same
// shape as an auto-merge decision but flagged for review and without a
// chosen primary (that happens only if a human approves the merge).
func PendingDecision(cand model.MatchCandidate) model.MergeDecision {
	return model.MergeDecision{
		ID:             uuid.New().String(),
		SecondaryIDs:   cand.Members,
		MatchBasis:     cand.MatchBasis,
		Confidence:     cand.Confidence,
		RequiresReview: true,
	}
}
