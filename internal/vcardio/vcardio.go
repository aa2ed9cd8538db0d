// Package vcardio is the file boundary of the toolkit: it turns vCard
// streams into ContactRecords tagged with their source, and serializes
// merged collections back out. The matching core never sees a file.
package vcardio

import (
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strings"

	govcard "github.com/emersion/go-vcard"

	"vcardmerge/internal/core/model"
)

// Decode reads every vCard in the stream. Record IDs are the card UID
// prefixed with the source tag (or the card's position when there is no
// UID), which keeps IDs unique across sources in a combined run.
func Decode(r io.Reader, source string) ([]model.ContactRecord, error) {
	dec := govcard.NewDecoder(r)
	var out []model.ContactRecord

	for i := 0; ; i++ {
		card, err := dec.Decode()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to decode vcard %d from %s: %w", i, source, err)
		}
		out = append(out, fromCard(card, source, i))
	}
	return out, nil
}

func fromCard(card govcard.Card, source string, pos int) model.ContactRecord {
	uid := card.Value(govcard.FieldUID)
	if uid == "" {
		uid = fmt.Sprintf("%d", pos)
	}

	rec := model.ContactRecord{
		ID:          source + "/" + uid,
		Source:      source,
		DisplayName: card.PreferredValue(govcard.FieldFormattedName),
		Emails:      card.Values(govcard.FieldEmail),
		Phones:      card.Values(govcard.FieldTelephone),
		Title:       card.Value(govcard.FieldTitle),
		URLs:        card.Values(govcard.FieldURL),
		Notes:       card.Value(govcard.FieldNote),
	}

	if name := card.Name(); name != nil {
		rec.NameParts = &model.NameParts{
			Given:      name.GivenName,
			Family:     name.FamilyName,
			Additional: name.AdditionalName,
		}
		if rec.DisplayName == "" {
			rec.DisplayName = strings.TrimSpace(name.GivenName + " " + name.FamilyName)
		}
	}

	// ORG is semicolon-structured (org;unit;...); the top level is enough
	// for matching.
	if org := card.Value(govcard.FieldOrganization); org != "" {
		rec.Organization = strings.TrimSpace(strings.SplitN(org, ";", 2)[0])
	}

	if fields := card[govcard.FieldPhoto]; len(fields) > 0 {
		rec.Photo = decodePhoto(fields[0])
	}

	return rec
}

// decodePhoto handles the two inline encodings seen in the wild: the v3
// ENCODING=b parameter and the v4 data: URI. Photo URLs are skipped; we
// only match and score bytes we actually have.
func decodePhoto(f *govcard.Field) []byte {
	value := f.Value
	switch {
	case strings.HasPrefix(value, "data:"):
		idx := strings.Index(value, ",")
		if idx < 0 {
			return nil
		}
		value = value[idx+1:]
	case strings.EqualFold(f.Params.Get("ENCODING"), "b"),
		strings.EqualFold(f.Params.Get("ENCODING"), "base64"):
		// fall through to decode
	default:
		return nil
	}

	data, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(value, "\n", ""))
	if err != nil {
		return nil
	}
	return data
}

// Encode writes the collection as vCard 4.0.
func Encode(w io.Writer, records []model.ContactRecord) error {
	enc := govcard.NewEncoder(w)
	for _, rec := range records {
		card := toCard(rec)
		govcard.ToV4(card)
		if err := enc.Encode(card); err != nil {
			return fmt.Errorf("failed to encode vcard %s: %w", rec.ID, err)
		}
	}
	return nil
}

func toCard(rec model.ContactRecord) govcard.Card {
	card := make(govcard.Card)

	fn := rec.DisplayName
	if fn == "" && rec.NameParts != nil {
		fn = strings.TrimSpace(rec.NameParts.Given + " " + rec.NameParts.Family)
	}
	card.SetValue(govcard.FieldFormattedName, fn)
	card.SetValue(govcard.FieldUID, rec.ID)

	if rec.NameParts != nil {
		card.AddName(&govcard.Name{
			GivenName:      rec.NameParts.Given,
			FamilyName:     rec.NameParts.Family,
			AdditionalName: rec.NameParts.Additional,
		})
	}
	for _, em := range rec.Emails {
		card.AddValue(govcard.FieldEmail, em)
	}
	for _, ph := range rec.Phones {
		card.AddValue(govcard.FieldTelephone, ph)
	}
	for _, u := range rec.URLs {
		card.AddValue(govcard.FieldURL, u)
	}
	if rec.Organization != "" {
		card.SetValue(govcard.FieldOrganization, rec.Organization)
	}
	if rec.Title != "" {
		card.SetValue(govcard.FieldTitle, rec.Title)
	}
	if rec.Notes != "" {
		card.SetValue(govcard.FieldNote, rec.Notes)
	}
	if len(rec.Photo) > 0 {
		mime := http.DetectContentType(rec.Photo)
		card.SetValue(govcard.FieldPhoto,
			"data:"+mime+";base64,"+base64.StdEncoding.EncodeToString(rec.Photo))
	}

	return card
}
