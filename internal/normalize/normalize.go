// Package normalize canonicalizes free-text identity fields into comparison
// keys. All functions are pure and total: invalid or empty input yields an
// empty key, which callers must treat as "no identity available" and never
// use for indexing or matching.
package normalize

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	nonAlnum   = regexp.MustCompile(`[^a-z0-9 ]+`)
	multiSpace = regexp.MustCompile(`\s+`)
	multiDot   = regexp.MustCompile(`\.{2,}`)

	// Noise tokens stripped only for label-identity comparisons: ordinal
	// payment references, month-year mentions, installment counts,
	// invoice/credit-note reference codes, level/zone qualifiers.
	noisePatterns = []*regexp.Regexp{
		regexp.MustCompile(`\b\d+(st|nd|rd|th)\b`),
		regexp.MustCompile(`\b(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\s*\d{2,4}\b`),
		regexp.MustCompile(`\b\d{1,2}\s*(of|de)\s*\d{1,2}\b`),
		// Installment counts like "2/6" arrive as "2 6" after punctuation
		// stripping.
		regexp.MustCompile(`\b\d{1,2}\s+\d{1,2}\b`),
		regexp.MustCompile(`\b(inv|invoice|fac|fact|factura|nc|cn|ref)\s*\d+\b`),
		regexp.MustCompile(`\b(level|lvl|nivel|zone|zona)\s*\d+\b`),
		regexp.MustCompile(`\b(payment|pago|cuota|installment)\s*\d*\b`),
	}

	diacriticStripper = transform.Chain(
		norm.NFD,
		runes.Remove(runes.In(unicode.Mn)),
		norm.NFC,
	)
)

// Name canonicalizes a customer name into a comparison key: lowercase,
// diacritics stripped, punctuation removed, whitespace collapsed.
func Name(raw string) string {
	if raw == "" {
		return ""
	}
	s := strings.ToLower(strings.TrimSpace(raw))
	s = stripDiacritics(s)
	s = nonAlnum.ReplaceAllString(s, " ")
	s = multiSpace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// DedupName is the stricter normalization used only when deciding whether two
// labels name the same underlying entity (merging duplicate product or
// customer labels). It additionally strips display-only noise tokens. Never
// use it to decide whether two transactions match.
func DedupName(raw string) string {
	s := Name(raw)
	if s == "" {
		return ""
	}
	for _, p := range noisePatterns {
		s = p.ReplaceAllString(s, " ")
	}
	s = multiSpace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Email canonicalizes an email address: lowercase, trimmed, "+tag" suffix
// dropped from the local part, repeated dots collapsed.
func Email(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" || !strings.Contains(s, "@") {
		return ""
	}
	at := strings.LastIndex(s, "@")
	local, domain := s[:at], s[at+1:]
	if plus := strings.Index(local, "+"); plus >= 0 {
		local = local[:plus]
	}
	local = multiDot.ReplaceAllString(local, ".")
	if local == "" || domain == "" {
		return ""
	}
	return local + "@" + domain
}

// Reference canonicalizes an external order or invoice reference for exact
// lookup: lowercase, with everything but letters and digits removed.
func Reference(raw string) string {
	if raw == "" {
		return ""
	}
	var b strings.Builder
	for _, r := range strings.ToLower(raw) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func stripDiacritics(s string) string {
	out, _, err := transform.String(diacriticStripper, s)
	if err != nil {
		return s
	}
	return out
}
