package scraper

import (
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"
)

// episodeSortMax is the sort key for entries whose number could not be
// parsed; they always land after every numeric episode.
const episodeSortMax = 99999.0

var (
	arabicRunRe  = regexp.MustCompile(`[\x{0600}-\x{06FF}]+`)
	decimalRe    = regexp.MustCompile(`\d+(?:\.\d+)?`)
	partMarkerRe = regexp.MustCompile(`(?i)(?:part|الجزء|جزء)[- ]?(\d+)`)
	seasonWordRe = regexp.MustCompile(`(?i)(?:الموسم|season)[- ]?(\d+)`)
	seasonSlugRe = regexp.MustCompile(`(?:^|/)s(\d+)(?:$|/)`)
)

// CleanText collapses all runs of whitespace into single spaces.
func CleanText(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// CleanTitle strips embedded Arabic-script runs from a title and drops
// repeated bare numeric tokens, so "One Piece ون بيس 1080 1080" becomes
// "One Piece 1080".
func CleanTitle(text string) string {
	if text == "" {
		return text
	}
	text = arabicRunRe.ReplaceAllString(text, "")

	seen := make(map[string]bool)
	var kept []string
	for _, part := range strings.Fields(text) {
		if isDigits(part) {
			if seen[part] {
				continue
			}
			seen[part] = true
		}
		kept = append(kept, part)
	}
	return strings.Join(kept, " ")
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// ParseEpisodeNumber turns a raw episode number string into a sortable
// value. Non-numeric strings sort last.
func ParseEpisodeNumber(raw string) float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return episodeSortMax
	}
	if strings.EqualFold(raw, "special") || raw == "0" {
		return 0
	}
	if m := decimalRe.FindString(raw); m != "" {
		if n, err := strconv.ParseFloat(m, 64); err == nil {
			return n
		}
	}
	return episodeSortMax
}

// arabicOrdinals maps the season ordinal words the site uses to season
// numbers. Lookup is longest-phrase-first so that e.g. "الثاني عشر" (12)
// wins over its substring "الثاني" (2).
var arabicOrdinals = map[string]int{
	"الحادي عشر": 11, "حادي عشر": 11,
	"الثاني عشر": 12, "ثاني عشر": 12,
	"الثالث عشر": 13, "ثالث عشر": 13,
	"الرابع عشر": 14, "رابع عشر": 14,
	"الخامس عشر": 15, "خامس عشر": 15,
	"السادس عشر": 16, "سادس عشر": 16,
	"السابع عشر": 17, "سابع عشر": 17,
	"الثامن عشر": 18, "ثامن عشر": 18,
	"التاسع عشر": 19, "تاسع عشر": 19,
	"الحادي والعشرون": 21, "حادي والعشرون": 21,
	"الثاني والعشرون": 22, "ثاني والعشرون": 22,
	"العشرون": 20, "عشرون": 20,
	"العاشر": 10, "عاشر": 10,
	"التاسع": 9, "تاسع": 9,
	"الثامن": 8, "ثامن": 8,
	"السابع": 7, "سابع": 7,
	"السادس": 6, "سادس": 6,
	"الخامس": 5, "خامس": 5,
	"الرابع": 4, "رابع": 4,
	"الثالث": 3, "ثالث": 3,
	"الثاني": 2, "ثاني": 2,
	"الاول": 1, "الأول": 1, "اول": 1,
}

var ordinalPhrases = sortedOrdinalPhrases()

func sortedOrdinalPhrases() []string {
	phrases := make([]string, 0, len(arabicOrdinals))
	for phrase := range arabicOrdinals {
		phrases = append(phrases, phrase)
	}
	sort.Slice(phrases, func(i, j int) bool {
		li, lj := utf8.RuneCountInString(phrases[i]), utf8.RuneCountInString(phrases[j])
		if li != lj {
			return li > lj
		}
		return phrases[i] < phrases[j]
	})
	return phrases
}

// ExtractSeasonNumber infers a season number from a URL slug or label.
// "Final season" phrasing encodes to the >=100 sentinel and is checked
// before any plain number, since final-season labels often also carry an
// unrelated number.
func ExtractSeasonNumber(text string) int {
	text = decode(text)
	normalized := strings.ToLower(text)
	normalized = strings.NewReplacer("-", " ", "_", " ").Replace(normalized)

	if strings.Contains(normalized, "final") ||
		strings.Contains(normalized, "نهائي") ||
		strings.Contains(normalized, "الأخير") {
		if m := partMarkerRe.FindStringSubmatch(normalized); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil {
				return 100 + n
			}
		}
		return 100
	}

	for _, phrase := range ordinalPhrases {
		if strings.Contains(normalized, phrase) {
			return arabicOrdinals[phrase]
		}
	}

	if m := seasonWordRe.FindStringSubmatch(normalized); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			return n
		}
	}
	if m := seasonSlugRe.FindStringSubmatch(normalized); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			return n
		}
	}

	return 1
}

// ExtractSeasonPart returns "Part N" when an explicit part marker is
// present in either script, "cour 1/2" as a synonym, and "" otherwise.
func ExtractSeasonPart(text string) string {
	text = strings.ToLower(decode(text))

	if m := partMarkerRe.FindStringSubmatch(text); m != nil {
		return "Part " + m[1]
	}
	switch {
	case strings.Contains(text, "الجزء الثاني") || strings.Contains(text, "cour 2"):
		return "Part 2"
	case strings.Contains(text, "الجزء الاول") || strings.Contains(text, "cour 1"):
		return "Part 1"
	}
	return ""
}

// decode percent-decodes URL text so Arabic slugs (%d9%85...) become
// matchable; undecodable input is used as-is.
func decode(text string) string {
	if decoded, err := url.QueryUnescape(text); err == nil {
		return decoded
	}
	return text
}
