package catalogpix

import (
	"net/url"
	"path"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldTransformer strips diacritics: NFD decomposition, drop combining
// marks, NFC recomposition.
var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// foldText removes diacritics ("Nürnberg" → "Nurnberg"). Returns the input
// unchanged if the transform fails.
func foldText(s string) string {
	out, _, err := transform.String(foldTransformer, s)
	if err != nil {
		return s
	}
	return out
}

// filenameStem extracts the lowercased, diacritic-folded filename from a
// URL, without directory or extension. Percent-escapes are decoded so
// "Cutting%20Tip" tokenizes like "Cutting Tip".
func filenameStem(rawURL string) string {
	p := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		p = u.Path
	}
	base := path.Base(p)
	if unescaped, err := url.PathUnescape(base); err == nil {
		base = unescaped
	}
	base = strings.TrimSuffix(base, path.Ext(base))
	return foldText(strings.ToLower(base))
}

// splitTokens splits on any non-alphanumeric rune and drops empties.
func splitTokens(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// stripSeparators removes every non-alphanumeric rune.
func stripSeparators(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// matchStopWords are filler words ignored when tokenizing product names.
var matchStopWords = map[string]bool{
	"the": true, "and": true, "for": true, "with": true,
	"of": true, "a": true, "an": true, "in": true, "to": true,
}

// meaningfulTokens tokenizes a product name, dropping stop words and
// single-character tokens.
func meaningfulTokens(name string) []string {
	var out []string
	for _, t := range splitTokens(foldText(strings.ToLower(name))) {
		if len(t) < 2 || matchStopWords[t] {
			continue
		}
		out = append(out, t)
	}
	return out
}

// sanitizeName turns an item id into a filesystem-safe folder/file stem:
// diacritics folded, path separators and control characters replaced,
// whitespace collapsed, length capped.
func sanitizeName(s string) string {
	const maxLen = 100

	s = foldText(strings.TrimSpace(s))
	var b strings.Builder
	for _, r := range s {
		switch {
		case r == '/' || r == '\\' || r == ':' || r == '*' || r == '?' ||
			r == '"' || r == '<' || r == '>' || r == '|':
			b.WriteByte('_')
		case unicode.IsControl(r):
			// drop
		default:
			b.WriteRune(r)
		}
	}
	out := strings.Join(strings.Fields(b.String()), " ")
	if out == "" {
		out = "item"
	}
	if len(out) > maxLen {
		out = out[:maxLen]
	}
	return out
}
