package merge

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vcardmerge/internal/config"
	"vcardmerge/internal/core/model"
)

func testResolver(priority ...string) *Resolver {
	return NewResolver(config.MergeConfig{SourcePriority: priority}, "US")
}

func cand(basis model.MatchBasis, conf float64, members ...string) model.MatchCandidate {
	return model.MatchCandidate{Members: members, MatchBasis: basis, Confidence: conf}
}

func TestResolveEmptyGroup(t *testing.T) {
	_, _, _, err := testResolver().Resolve(nil, cand(model.BasisEmail, 95))
	assert.Error(t, err)
}

func TestResolveSingleMemberPassthrough(t *testing.T) {
	rec := model.ContactRecord{ID: "only", DisplayName: "Solo"}
	merged, decision, stats, err := testResolver().Resolve([]model.ContactRecord{rec}, cand(model.BasisEmail, 95, "only"))
	require.NoError(t, err)
	assert.Nil(t, decision)
	assert.Equal(t, rec, merged)
	assert.Zero(t, stats)
}

func TestResolveEmailUnionCaseInsensitive(t *testing.T) {
	group := []model.ContactRecord{
		{ID: "1", Source: "a", DisplayName: "Jo", Emails: []string{"a@x.com"}},
		{ID: "2", Source: "b", DisplayName: "Jo", Emails: []string{"A@X.COM", "b@y.com"}},
	}
	merged, decision, stats, err := testResolver().Resolve(group, cand(model.BasisEmail, 95, "1", "2"))
	require.NoError(t, err)
	require.NotNil(t, decision)

	// Exactly two unique emails, first-seen casing preserved.
	assert.Equal(t, []string{"a@x.com", "b@y.com"}, merged.Emails)
	assert.Equal(t, 2, stats.EmailsKept)
	assert.Equal(t, "union", decision.FieldResolution["emails"])
}

func TestResolvePhoneUnionNormalizedDedup(t *testing.T) {
	group := []model.ContactRecord{
		{ID: "1", DisplayName: "Jo", Phones: []string{"(415) 555-0100"}},
		{ID: "2", DisplayName: "Jo", Phones: []string{"+1 415-555-0100", "+14155550199"}},
	}
	merged, _, _, err := testResolver().Resolve(group, cand(model.BasisPhone, 90, "1", "2"))
	require.NoError(t, err)
	// Same line in two formats collapses; the primary's formatting wins.
	assert.Equal(t, []string{"(415) 555-0100", "+14155550199"}, merged.Phones)
}

func TestResolvePrimaryBySourcePriority(t *testing.T) {
	group := []model.ContactRecord{
		{ID: "low", Source: "csv-dump", DisplayName: "Rich Record", Emails: []string{"r@x.com"}, Organization: "Org", Title: "CTO"},
		{ID: "high", Source: "icloud", DisplayName: "Poor Record"},
	}
	_, decision, _, err := testResolver("icloud", "csv-dump").Resolve(group, cand(model.BasisEmail, 95, "low", "high"))
	require.NoError(t, err)
	// Priority table beats completeness.
	assert.Equal(t, "high", decision.PrimaryID)
	assert.Equal(t, []string{"low"}, decision.SecondaryIDs)
}

func TestResolvePrimaryByCompleteness(t *testing.T) {
	group := []model.ContactRecord{
		{ID: "thin", DisplayName: "Jo"},
		{ID: "fat", DisplayName: "Jo", Emails: []string{"jo@x.com"}, Organization: "Acme", Title: "Eng"},
	}
	_, decision, _, err := testResolver().Resolve(group, cand(model.BasisNameExact, 100, "thin", "fat"))
	require.NoError(t, err)
	assert.Equal(t, "fat", decision.PrimaryID)
}

func TestResolveEquallyEmptyFallsBackToFirst(t *testing.T) {
	group := []model.ContactRecord{
		{ID: "first", DisplayName: "Jo"},
		{ID: "second", DisplayName: "Jo"},
	}
	_, decision, _, err := testResolver().Resolve(group, cand(model.BasisNameExact, 100, "first", "second"))
	require.NoError(t, err)
	assert.Equal(t, "first", decision.PrimaryID)
}

func TestResolveBackfillOnlyWhenPrimaryEmpty(t *testing.T) {
	group := []model.ContactRecord{
		{ID: "1", Source: "a", DisplayName: "Jo", Organization: "Primary Org", Emails: []string{"jo@x.com"}},
		{ID: "2", Source: "b", DisplayName: "Jo", Organization: "Other Org", Title: "Engineer"},
	}
	merged, decision, _, err := testResolver().Resolve(group, cand(model.BasisEmail, 95, "1", "2"))
	require.NoError(t, err)

	assert.Equal(t, "Primary Org", merged.Organization)
	assert.Equal(t, "primary", decision.FieldResolution["organization"])
	// Title was empty on the primary, so it backfills with provenance.
	assert.Equal(t, "Engineer", merged.Title)
	assert.Equal(t, "backfill:b", decision.FieldResolution["title"])
}

func TestResolveNotesConcatWithProvenance(t *testing.T) {
	group := []model.ContactRecord{
		{ID: "1", Source: "icloud", DisplayName: "Jo", Emails: []string{"jo@x.com"}, Notes: "met at gophercon"},
		{ID: "2", Source: "google", DisplayName: "Jo", Notes: "prefers email"},
		{ID: "3", Source: "csv", DisplayName: "Jo", Notes: "met at gophercon"},
	}
	merged, decision, _, err := testResolver().Resolve(group, cand(model.BasisNameExact, 100, "1", "2", "3"))
	require.NoError(t, err)

	assert.Equal(t, "met at gophercon\n[From google]: prefers email", merged.Notes)
	assert.Equal(t, "concat", decision.FieldResolution["notes"])
}

func TestResolveDoesNotMutateInputs(t *testing.T) {
	group := []model.ContactRecord{
		{ID: "1", DisplayName: "Jo", Emails: []string{"a@x.com"}},
		{ID: "2", DisplayName: "Jo", Emails: []string{"b@y.com"}, Notes: "note"},
	}
	before := []model.ContactRecord{group[0].Clone(), group[1].Clone()}

	_, _, _, err := testResolver().Resolve(group, cand(model.BasisNameExact, 100, "1", "2"))
	require.NoError(t, err)
	assert.Equal(t, before[0], group[0])
	assert.Equal(t, before[1], group[1])
}

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x += 7 {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func encodeJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

func TestPhotoScoreTiersAndDeterminism(t *testing.T) {
	big := encodePNG(t, 600, 600)
	small := encodePNG(t, 100, 100)

	bigScore := PhotoScore(big)
	smallScore := PhotoScore(small)
	assert.Greater(t, bigScore, smallScore)

	// Stable across runs.
	assert.Equal(t, bigScore, PhotoScore(big))
	assert.Equal(t, smallScore, PhotoScore(small))

	assert.Equal(t, 0, PhotoScore(nil))
	assert.Equal(t, 0, PhotoScore([]byte{0x1, 0x2, 0x3}))
}

func TestResolveBestPhotoWins(t *testing.T) {
	big := encodePNG(t, 600, 600)
	small := encodeJPEG(t, 100, 100)
	group := []model.ContactRecord{
		{ID: "1", DisplayName: "Jo", Emails: []string{"jo@x.com"}, Photo: small},
		{ID: "2", DisplayName: "Jo", Photo: big},
	}
	merged, decision, stats, err := testResolver().Resolve(group, cand(model.BasisEmail, 95, "1", "2"))
	require.NoError(t, err)

	assert.Equal(t, big, merged.Photo)
	assert.Equal(t, "best-photo", decision.FieldResolution["photo"])
	assert.Equal(t, 1, stats.PhotosKept)
}

func TestResolveAllPhotosCorrupt(t *testing.T) {
	group := []model.ContactRecord{
		{ID: "1", DisplayName: "Jo", Emails: []string{"jo@x.com"}, Photo: []byte("not an image")},
		{ID: "2", DisplayName: "Jo", Photo: []byte{0xde, 0xad}},
	}
	merged, decision, _, err := testResolver().Resolve(group, cand(model.BasisEmail, 95, "1", "2"))
	require.NoError(t, err)

	assert.Nil(t, merged.Photo)
	assert.Equal(t, "none", decision.FieldResolution["photo"])
}
