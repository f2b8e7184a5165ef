package metadata

import (
	"regexp"
	"strings"
)

// Bracketed suffixes such as "(Live)" or 「TV size」 are dropped from titles.
var titleBrackets = regexp.MustCompile(`\(.*\)|（.*）|「.*」|『.*』|<.*>|《.*》|〈.*〉|＜.*＞`)

var artistBrackets = regexp.MustCompile(`\(.*\)|（.*）`)

// Multiple artists are joined with 、 which is how the lyric catalogue lists them.
var artistSeparators = strings.NewReplacer(
	", ", "、",
	" & ", "、",
	".", "",
	"和", "、",
)

// NormalizeTitle strips bracketed annotations from a song title.
func NormalizeTitle(title string) string {
	t := strings.TrimSpace(title)
	t = titleBrackets.ReplaceAllString(t, "")
	return strings.TrimSpace(t)
}

// NormalizeArtist unifies artist separators and drops bracketed annotations.
func NormalizeArtist(artist string) string {
	a := strings.TrimSpace(artist)
	a = artistSeparators.Replace(a)
	a = artistBrackets.ReplaceAllString(a, "")
	return strings.TrimSpace(a)
}

// Keyword builds the catalogue search term: "title - artist", or the title
// alone when no artist is known.
func Keyword(title, artist string) string {
	t := NormalizeTitle(title)
	if strings.TrimSpace(artist) == "" {
		return t
	}
	return t + " - " + NormalizeArtist(artist)
}
