package feature

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"vcardmerge/internal/core/model"
)

func TestExtract(t *testing.T) {
	ex := NewExtractor("US")
	rec := model.ContactRecord{
		ID:           "c1",
		Source:       "icloud",
		DisplayName:  "Dr. John Smith",
		Emails:       []string{"John@Acme.com", "john@acme.com", "j.smith@home.net"},
		Phones:       []string{"(415) 555-0100", "garbage", "415-555-0100"},
		Organization: "Acme  Corp",
		Photo:        []byte{0x1},
	}

	f := ex.Extract(rec)
	assert.Equal(t, "c1", f.RecordID)
	assert.Equal(t, "john smith", f.Name)
	assert.Equal(t, []string{"john@acme.com", "j.smith@home.net"}, f.Emails)
	assert.Equal(t, []string{"acme.com", "home.net"}, f.EmailDomains)
	// Both raw phones normalize to the same E.164 value; garbage is dropped.
	assert.Equal(t, []string{"+14155550100"}, f.Phones)
	assert.Equal(t, []string{"5550100"}, f.PhoneSuffix7)
	assert.Equal(t, "acme corp", f.Organization)
	assert.True(t, f.HasPhoto)
}

func TestExtractEmptyRecord(t *testing.T) {
	ex := NewExtractor("")
	f := ex.Extract(model.ContactRecord{ID: "empty", Source: "x"})
	assert.Equal(t, "", f.Name)
	assert.Empty(t, f.Emails)
	assert.Empty(t, f.Phones)
	assert.False(t, f.HasPhoto)
}

func TestExtractAllPreservesOrder(t *testing.T) {
	ex := NewExtractor("US")
	recs := []model.ContactRecord{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	fs := ex.ExtractAll(recs)
	assert.Len(t, fs, 3)
	assert.Equal(t, "a", fs[0].RecordID)
	assert.Equal(t, "c", fs[2].RecordID)
}
