// Package insight runs the optional LLM data-quality pass before matching:
// the oracle looks at one record at a time and suggests fixes like "this
// display name was derived from the email address". Only suggestions the
// oracle marks auto-apply-safe, above a confidence bar, are applied; the
// rest are returned for reporting.
package insight

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"strings"

	"vcardmerge/internal/core/common"
	"vcardmerge/internal/core/model"
	"vcardmerge/internal/llm"
)

// Cache memoizes oracle answers keyed by record content. It is plain data
// owned by the caller, never a package-level singleton, so tests and
// repeated runs can reset or share it as they like.
type Cache map[string][]model.Insight

type Enricher struct {
	LLM           llm.Client
	MinConfidence float64 // 0..1; auto-apply bar
}

func NewEnricher(client llm.Client, minConfidence float64) *Enricher {
	return &Enricher{LLM: client, MinConfidence: minConfidence}
}

const analyzePrompt = `You are a contact data quality assistant.
Look at this contact and suggest fixes for obviously wrong or low-quality fields
(e.g. a display name that is just the email local part, inconsistent capitalization,
an organization stuffed into the name).

Contact:
- Name: %s
- Emails: %s
- Organization: %s
- Title: %s

Return a JSON object:
{
  "insights": [
    {"field": "display_name", "current": "...", "suggested": "...", "reason": "...",
     "confidence": 0.95, "auto_apply": true}
  ]
}
Allowed fields: display_name, organization, title. Return {"insights": []} when
everything looks fine. Output only JSON.`

// Analyze asks the oracle about one record, going through the cache first.
func (e *Enricher) Analyze(ctx context.Context, rec model.ContactRecord, cache Cache) ([]model.Insight, error) {
	key := cacheKey(rec)
	if cache != nil {
		if hit, ok := cache[key]; ok {
			return hit, nil
		}
	}

	prompt := fmt.Sprintf(analyzePrompt,
		rec.DisplayName, strings.Join(rec.Emails, ", "), rec.Organization, rec.Title)

	response, err := e.LLM.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to generate insights: %w", err)
	}

	result, err := common.ParseJSON[model.InsightResponse](response)
	if err != nil {
		return nil, fmt.Errorf("failed to parse insights: %w", err)
	}

	insights := result.Insights
	for i := range insights {
		insights[i].RecordID = rec.ID
	}
	if cache != nil {
		cache[key] = insights
	}
	return insights, nil
}

// Enrich runs the pass over a whole collection and applies the safe
// suggestions to copies of the records. An oracle failure on one record is
// logged and skipped; the pass never sinks the pipeline.
func (e *Enricher) Enrich(ctx context.Context, records []model.ContactRecord, cache Cache) ([]model.ContactRecord, []model.Insight, error) {
	out := make([]model.ContactRecord, 0, len(records))
	var all []model.Insight

	for _, rec := range records {
		insights, err := e.Analyze(ctx, rec, cache)
		if err != nil {
			log.Printf("insight pass failed for record %s: %v", rec.ID, err)
			out = append(out, rec)
			continue
		}
		all = append(all, insights...)
		out = append(out, e.apply(rec, insights))
	}

	return out, all, nil
}

func (e *Enricher) apply(rec model.ContactRecord, insights []model.Insight) model.ContactRecord {
	applied := rec.Clone()
	for _, ins := range insights {
		if !ins.AutoApply || ins.Confidence < e.MinConfidence || ins.Suggested == "" {
			continue
		}
		switch ins.Field {
		case "display_name":
			applied.DisplayName = ins.Suggested
		case "organization":
			applied.Organization = ins.Suggested
		case "title":
			applied.Title = ins.Suggested
		}
	}
	return applied
}

// cacheKey hashes the fields the prompt depends on.
func cacheKey(rec model.ContactRecord) string {
	h := sha256.New()
	h.Write([]byte(rec.DisplayName))
	for _, em := range rec.Emails {
		h.Write([]byte("|"))
		h.Write([]byte(em))
	}
	h.Write([]byte("|" + rec.Organization + "|" + rec.Title))
	return hex.EncodeToString(h.Sum(nil))
}
