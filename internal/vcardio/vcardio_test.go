package vcardio

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vcardmerge/internal/core/model"
)

const sampleVCards = `BEGIN:VCARD
VERSION:3.0
UID:abc-123
FN:John Smith
N:Smith;John;;;
EMAIL:john@acme.com
TEL:+14155550100
ORG:Acme Corp;Engineering
TITLE:Staff Engineer
NOTE:met at gophercon
END:VCARD
BEGIN:VCARD
VERSION:3.0
FN:Jane Doe
EMAIL:jane@x.com
EMAIL:jane.doe@work.example
END:VCARD
`

func TestDecode(t *testing.T) {
	recs, err := Decode(strings.NewReader(sampleVCards), "icloud")
	require.NoError(t, err)
	require.Len(t, recs, 2)

	john := recs[0]
	assert.Equal(t, "icloud/abc-123", john.ID)
	assert.Equal(t, "icloud", john.Source)
	assert.Equal(t, "John Smith", john.DisplayName)
	require.NotNil(t, john.NameParts)
	assert.Equal(t, "John", john.NameParts.Given)
	assert.Equal(t, "Smith", john.NameParts.Family)
	assert.Equal(t, []string{"john@acme.com"}, john.Emails)
	assert.Equal(t, []string{"+14155550100"}, john.Phones)
	// Only the top ORG component matters for matching.
	assert.Equal(t, "Acme Corp", john.Organization)
	assert.Equal(t, "Staff Engineer", john.Title)
	assert.Equal(t, "met at gophercon", john.Notes)

	jane := recs[1]
	// No UID: position-based ID, still source-prefixed.
	assert.Equal(t, "icloud/1", jane.ID)
	assert.Len(t, jane.Emails, 2)
}

func TestDecodeEmptyStream(t *testing.T) {
	recs, err := Decode(strings.NewReader(""), "empty")
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	in := []model.ContactRecord{
		{
			ID:           "google/42",
			Source:       "google",
			DisplayName:  "Nora Webb",
			NameParts:    &model.NameParts{Given: "Nora", Family: "Webb"},
			Emails:       []string{"nora@webb.io"},
			Phones:       []string{"+14155550142"},
			Organization: "Webb Industries",
			URLs:         []string{"https://webb.io"},
			Notes:        "prefers email\n[From icloud]: met at conference",
		},
	}

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, in))

	out, err := Decode(&buf, "google")
	require.NoError(t, err)
	require.Len(t, out, 1)

	got := out[0]
	assert.Equal(t, "google/google/42", got.ID) // UID survives, source re-prefixes
	assert.Equal(t, "Nora Webb", got.DisplayName)
	assert.Equal(t, []string{"nora@webb.io"}, got.Emails)
	assert.Equal(t, []string{"+14155550142"}, got.Phones)
	assert.Equal(t, "Webb Industries", got.Organization)
	assert.Equal(t, []string{"https://webb.io"}, got.URLs)
	assert.Contains(t, got.Notes, "prefers email")
}

func TestDecodePhotoDataURI(t *testing.T) {
	// 1x1 transparent PNG.
	vc := "BEGIN:VCARD\r\nVERSION:4.0\r\nFN:Pic Person\r\n" +
		"PHOTO:data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNk+M9QDwADhgGAWjR9awAAAABJRU5ErkJggg==\r\n" +
		"END:VCARD\r\n"
	recs, err := Decode(strings.NewReader(vc), "s")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.NotEmpty(t, recs[0].Photo)
}

func TestDecodePhotoURLSkipped(t *testing.T) {
	vc := "BEGIN:VCARD\r\nVERSION:4.0\r\nFN:Url Person\r\n" +
		"PHOTO:https://example.com/me.jpg\r\n" +
		"END:VCARD\r\n"
	recs, err := Decode(strings.NewReader(vc), "s")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Nil(t, recs[0].Photo)
}
