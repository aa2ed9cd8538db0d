// Package core wires the matching pipeline together: features in, merged
// records, decisions and a review queue out. Everything is in-memory and
// synchronous; re-running on the same input reproduces the same output.
package core

import (
	"errors"
	"fmt"
	"log"

	"vcardmerge/internal/config"
	"vcardmerge/internal/core/feature"
	"vcardmerge/internal/core/match"
	"vcardmerge/internal/core/merge"
	"vcardmerge/internal/core/model"
	"vcardmerge/internal/core/review"
)

type Pipeline struct {
	Cfg       *config.Config
	Extractor *feature.Extractor
	Matcher   *match.Matcher
	Resolver  *merge.Resolver
	Review    *review.Builder
}

func NewPipeline(cfg *config.Config, rules match.DistinctRules) *Pipeline {
	return &Pipeline{
		Cfg:       cfg,
		Extractor: feature.NewExtractor(cfg.Normalize.PhoneRegion),
		Matcher:   match.NewMatcher(cfg.Matching, rules),
		Resolver:  merge.NewResolver(cfg.Merge, cfg.Normalize.PhoneRegion),
		Review:    review.NewBuilder(cfg.Matching),
	}
}

// Result is a brand-new derived collection; the input records are never
// edited in place.
type Result struct {
	Merged      []model.ContactRecord `json:"merged"`
	Passthrough []model.ContactRecord `json:"passthrough"`
	Decisions   []model.MergeDecision `json:"decisions"`
	Queue       []model.ReviewItem    `json:"queue"`
	Stats       model.MergeStats      `json:"stats"`
}

// Run matches one record collection and routes every candidate: high
// confidence groups merge, mid confidence groups queue for review (their
// members pass through untouched until a human decides), everything below
// the floor is not a match.
func (p *Pipeline) Run(records []model.ContactRecord) (*Result, error) {
	byID, err := index(records)
	if err != nil {
		return nil, err
	}

	cands, err := p.Matcher.Match(p.Extractor.ExtractAll(records))
	if err != nil {
		return nil, err
	}

	res := &Result{}
	consumed := make(map[string]bool)

	for _, cand := range cands {
		switch p.Review.Classify(cand) {
		case review.RouteAutoMerge:
			merged, decision, stats, err := p.resolveGroup(cand, byID)
			if err != nil {
				return nil, err
			}
			for _, id := range cand.Members {
				consumed[id] = true
			}
			res.Merged = append(res.Merged, merged)
			res.Decisions = append(res.Decisions, *decision)
			res.Stats.Add(stats)

		case review.RouteQueue:
			item, err := p.Review.Build(cand, byID)
			if err != nil {
				return nil, err
			}
			res.Queue = append(res.Queue, item)
			res.Decisions = append(res.Decisions, review.PendingDecision(cand))

		case review.RouteDiscard:
			// Not a match; members simply pass through.
		}
	}

	for _, rec := range records {
		if !consumed[rec.ID] {
			res.Passthrough = append(res.Passthrough, rec)
		}
	}

	log.Printf("pipeline: %d records in, %d merged, %d queued, %d passed through",
		len(records), len(res.Merged), len(res.Queue), len(res.Passthrough))
	return res, nil
}

// RunCross matches across already-cleaned source collections. Conflict
// class groups always queue, whatever their confidence: same name with no
// shared contact info is exactly the case a human has to see.
func (p *Pipeline) RunCross(records []model.ContactRecord) (*Result, error) {
	byID, err := index(records)
	if err != nil {
		return nil, err
	}

	matches, err := p.Matcher.MatchAcross(p.Extractor.ExtractAll(records))
	if err != nil {
		return nil, err
	}

	res := &Result{}
	consumed := make(map[string]bool)

	for _, cm := range matches {
		route := p.Review.Classify(cm.MatchCandidate)
		if cm.Class == model.CrossConflict {
			route = review.RouteQueue
		}
		switch route {
		case review.RouteAutoMerge:
			merged, decision, stats, err := p.resolveGroup(cm.MatchCandidate, byID)
			if err != nil {
				return nil, err
			}
			for _, id := range cm.Members {
				consumed[id] = true
			}
			res.Merged = append(res.Merged, merged)
			res.Decisions = append(res.Decisions, *decision)
			res.Stats.Add(stats)

		case review.RouteQueue:
			item, err := p.Review.BuildCross(cm, byID)
			if err != nil {
				return nil, err
			}
			res.Queue = append(res.Queue, item)
			res.Decisions = append(res.Decisions, review.PendingDecision(cm.MatchCandidate))
		}
	}

	for _, rec := range records {
		if !consumed[rec.ID] {
			res.Passthrough = append(res.Passthrough, rec)
		}
	}
	return res, nil
}

// ApproveMerge performs the merge a reviewer just approved.
func (p *Pipeline) ApproveMerge(item model.ReviewItem) (model.ContactRecord, *model.MergeDecision, error) {
	cand := model.MatchCandidate{
		MatchBasis: item.MatchBasis,
		Confidence: item.Confidence,
	}
	for _, rec := range item.Members {
		cand.Members = append(cand.Members, rec.ID)
	}
	merged, decision, _, err := p.Resolver.Resolve(item.Members, cand)
	return merged, decision, err
}

func (p *Pipeline) resolveGroup(cand model.MatchCandidate, byID map[string]model.ContactRecord) (model.ContactRecord, *model.MergeDecision, model.MergeStats, error) {
	group := make([]model.ContactRecord, 0, len(cand.Members))
	for _, id := range cand.Members {
		group = append(group, byID[id])
	}
	return p.Resolver.Resolve(group, cand)
}

func index(records []model.ContactRecord) (map[string]model.ContactRecord, error) {
	if records == nil {
		return nil, errors.New("pipeline: nil record collection")
	}
	byID := make(map[string]model.ContactRecord, len(records))
	for _, rec := range records {
		if rec.ID == "" {
			return nil, errors.New("pipeline: record with empty id")
		}
		if _, dup := byID[rec.ID]; dup {
			return nil, fmt.Errorf("pipeline: duplicate record id %q (prefix ids with their source)", rec.ID)
		}
		byID[rec.ID] = rec
	}
	return byID, nil
}
