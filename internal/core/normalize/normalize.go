// Package normalize turns raw contact strings into canonical forms for
// comparison. Every function here is total: garbage in, best-effort out,
// never a panic or an error escaping to the matcher.
package normalize

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
	"github.com/pmezard/go-difflib/difflib"
)

// DefaultRegion is used when the caller does not configure one.
const DefaultRegion = "US"

// Honorifics and suffixes stripped from names as whole words.
var nameNoise = map[string]bool{
	"dr": true, "mr": true, "mrs": true, "ms": true, "prof": true,
	"phd": true, "md": true, "esq": true, "jr": true, "sr": true,
	"ii": true, "iii": true,
}

// Name lowercases, collapses whitespace and strips honorifics/suffixes.
func Name(s string) string {
	if s == "" {
		return ""
	}
	fields := strings.Fields(strings.ToLower(s))
	kept := fields[:0]
	for _, f := range fields {
		if nameNoise[strings.Trim(f, ".,")] {
			continue
		}
		kept = append(kept, f)
	}
	return strings.Join(kept, " ")
}

// Email lowercases and trims surrounding whitespace. No domain rewriting;
// gmail dots etc. are deliberately left alone.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Phone canonicalizes a raw phone string. Parseable numbers come back in
// E.164; otherwise we fall back to the bare digits when there are at least
// seven of them. ok=false means the value is unusable and the caller must
// skip it rather than index it.
func Phone(s string, region string) (string, bool) {
	if strings.TrimSpace(s) == "" {
		return "", false
	}
	if region == "" {
		region = DefaultRegion
	}
	if num, err := phonenumbers.Parse(s, region); err == nil && phonenumbers.IsValidNumber(num) {
		return phonenumbers.Format(num, phonenumbers.E164), true
	}
	digits := digitsOnly(s)
	if len(digits) >= 7 {
		return digits, true
	}
	return "", false
}

// PhoneSuffix returns the last 7 digits of an already-normalized phone,
// the classic "same line, different country-code formatting" key.
func PhoneSuffix(normalized string) string {
	digits := digitsOnly(normalized)
	if len(digits) <= 7 {
		return digits
	}
	return digits[len(digits)-7:]
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Organization shares the name rules minus the honorific stripping.
func Organization(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// Similarity is the longest-matching-blocks ratio between two strings,
// computed character-wise. Symmetric by construction of the ratio
// (2*M / (len(a)+len(b))); 0 when either side is empty.
func Similarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}
	m := difflib.NewMatcher(splitChars(a), splitChars(b))
	return m.Ratio()
}

func splitChars(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}

// EmailDomain returns the part after the last '@' of a normalized email,
// or "" when there is none.
func EmailDomain(email string) string {
	i := strings.LastIndex(email, "@")
	if i < 0 || i == len(email)-1 {
		return ""
	}
	return email[i+1:]
}
