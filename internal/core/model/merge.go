package model

// MergeDecision records how one duplicate group was (or should be) collapsed.
// Decisions are append-only; re-running the pipeline produces a new set.
type MergeDecision struct {
	ID              string            `json:"id"`
	PrimaryID       string            `json:"primary_id"`
	SecondaryIDs    []string          `json:"secondary_ids"`
	FieldResolution map[string]string `json:"field_resolution"`
	MatchBasis      MatchBasis        `json:"match_basis"`
	Confidence      float64           `json:"confidence"`
	RequiresReview  bool              `json:"requires_review"`
}

// MergeStats counts what survived a merge, for the run report.
type MergeStats struct {
	EmailsKept int `json:"emails_kept"`
	PhonesKept int `json:"phones_kept"`
	URLsKept   int `json:"urls_kept"`
	NotesKept  int `json:"notes_kept"`
	PhotosKept int `json:"photos_kept"`
	Backfills  int `json:"backfills"`
}

func (s *MergeStats) Add(o MergeStats) {
	s.EmailsKept += o.EmailsKept
	s.PhonesKept += o.PhonesKept
	s.URLsKept += o.URLsKept
	s.NotesKept += o.NotesKept
	s.PhotosKept += o.PhotosKept
	s.Backfills += o.Backfills
}

// ReviewStatus is the human verdict on a queued group.
type ReviewStatus string

const (
	ReviewPending      ReviewStatus = "pending"
	ReviewMerge        ReviewStatus = "merge"
	ReviewKeepSeparate ReviewStatus = "keep_separate"
)

// ReviewItem carries everything a reviewer needs to judge a group: the full
// member records, not just IDs.
type ReviewItem struct {
	ID         string          `json:"id"`
	Members    []ContactRecord `json:"members"`
	MatchBasis MatchBasis      `json:"match_basis"`
	Confidence float64         `json:"confidence"`
	Class      CrossClass      `json:"class,omitempty"`
	Status     ReviewStatus    `json:"status"`
}
