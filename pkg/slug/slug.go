package slug

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// letters that do not decompose into a base letter plus a combining mark.
var special = strings.NewReplacer("ß", "ss", "æ", "ae", "ø", "o", "đ", "d", "ł", "l", "ı", "i", "&", " and ")

// Generate lower-cases name, folds accented letters to ASCII and joins the
// remaining alphanumeric runs with single hyphens:
//
//	"Crème Brûlée & Co." -> "creme-brulee-and-co"
func Generate(name string) string {
	s := special.Replace(strings.ToLower(strings.TrimSpace(name)))

	folded, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), s)
	if err == nil {
		s = folded
	}

	return strings.Trim(nonAlnum.ReplaceAllString(s, "-"), "-")
}

// WithSuffix returns base for n <= 1 and "base-n" otherwise, for resolving
// slug collisions.
func WithSuffix(base string, n int) string {
	if n <= 1 {
		return base
	}
	return base + "-" + strconv.Itoa(n)
}
