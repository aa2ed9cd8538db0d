package review

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vcardmerge/internal/config"
	"vcardmerge/internal/core/model"
)

func builder() *Builder {
	return NewBuilder(config.Default().Matching) // threshold 95, floor 70
}

func candidate(conf float64) model.MatchCandidate {
	return model.MatchCandidate{
		Members:    []string{"a", "b"},
		MatchBasis: model.BasisNameFuzzy,
		Confidence: conf,
	}
}

func TestClassifyGates(t *testing.T) {
	b := builder()
	assert.Equal(t, RouteAutoMerge, b.Classify(candidate(96)))
	assert.Equal(t, RouteAutoMerge, b.Classify(candidate(95)))
	assert.Equal(t, RouteQueue, b.Classify(candidate(80)))
	assert.Equal(t, RouteQueue, b.Classify(candidate(70)))
	assert.Equal(t, RouteDiscard, b.Classify(candidate(60)))
}

func TestBuildCarriesFullRecords(t *testing.T) {
	records := map[string]model.ContactRecord{
		"a": {ID: "a", DisplayName: "Jane A", Emails: []string{"jane@x.com"}},
		"b": {ID: "b", DisplayName: "Jane B"},
	}
	item, err := builder().Build(candidate(80), records)
	require.NoError(t, err)

	assert.NotEmpty(t, item.ID)
	require.Len(t, item.Members, 2)
	assert.Equal(t, "Jane A", item.Members[0].DisplayName)
	assert.Equal(t, model.BasisNameFuzzy, item.MatchBasis)
	assert.Equal(t, 80.0, item.Confidence)
	assert.Equal(t, model.ReviewPending, item.Status)
}

func TestBuildUnknownMember(t *testing.T) {
	_, err := builder().Build(candidate(80), map[string]model.ContactRecord{"a": {ID: "a"}})
	assert.Error(t, err)
}

func TestBuildCrossKeepsClass(t *testing.T) {
	records := map[string]model.ContactRecord{"a": {ID: "a"}, "b": {ID: "b"}}
	cm := model.CrossMatch{
		MatchCandidate: candidate(75),
		Class:          model.CrossConflict,
		Sources:        []string{"google", "icloud"},
	}
	item, err := builder().BuildCross(cm, records)
	require.NoError(t, err)
	assert.Equal(t, model.CrossConflict, item.Class)
}

func TestDecide(t *testing.T) {
	item := model.ReviewItem{ID: "item-1"}

	d, err := Decide(item, model.ReviewMerge)
	require.NoError(t, err)
	assert.Equal(t, "item-1", d.ItemID)
	assert.Equal(t, model.ReviewMerge, d.Status)

	d, err = Decide(item, model.ReviewKeepSeparate)
	require.NoError(t, err)
	assert.Equal(t, model.ReviewKeepSeparate, d.Status)

	_, err = Decide(item, model.ReviewPending)
	assert.Error(t, err)
}

func TestPendingDecision(t *testing.T) {
	d := PendingDecision(candidate(80))
	assert.True(t, d.RequiresReview)
	assert.Empty(t, d.PrimaryID)
	assert.Equal(t, []string{"a", "b"}, d.SecondaryIDs)
}
